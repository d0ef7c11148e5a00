// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package network

import (
	"fmt"
	"time"

	"github.com/ChainSafe/gossamer-light/internal/log"
	"github.com/ChainSafe/gossamer-light/lib/common"
	"github.com/ChainSafe/gossamer-light/lib/tasks"
	"github.com/libp2p/go-libp2p-core/peer"
)

const (
	// DefaultInSlots is the default number of inbound slots per chain.
	DefaultInSlots = 25
	// DefaultOutSlots is the default number of outbound slots per chain.
	DefaultOutSlots = 25
	// DefaultDialInterval is the default interval between two dial attempts of a chain.
	DefaultDialInterval = time.Second
	// DefaultEventsQueueCapacity is the default capacity of each events queue.
	DefaultEventsQueueCapacity = 16
	// DefaultDialTimeout is the default time allowed to reach a peer.
	DefaultDialTimeout = 10 * time.Second

	writeBufferSize = 4096
)

// Config is the configuration of the network Service.
type Config struct {
	Engine    Engine
	Transport Transport
	Scheduler tasks.Submitter
	LogLvl    log.Level

	// NumEventsReceivers is the number of event queues returned by NewService.
	NumEventsReceivers int
	// EventsQueueCapacity is the capacity of each event queue.
	EventsQueueCapacity int
	// DialInterval is the interval between two attempts to fill an outbound slot.
	DialInterval time.Duration
	// DialTimeout bounds the time spent reaching a peer.
	DialTimeout time.Duration

	InSlots  uint32
	OutSlots uint32

	// Chains are referred to by their index in this list.
	Chains []ChainConfig
}

// ChainConfig is the configuration of a chain the service connects to.
type ChainConfig struct {
	// BootstrapNodes are the nodes known to belong to the chain peer-to-peer network.
	BootstrapNodes []peer.AddrInfo
	// GenesisHash is sent to other nodes to check the chains match.
	GenesisHash common.Hash
	// ProtocolID identifies the chain on the network.
	ProtocolID string
	BestNumber uint64
	BestHash   common.Hash
	// HasGrandpaProtocol is true when the chain uses the GRANDPA protocol.
	HasGrandpaProtocol bool
}

func (c *Config) setDefaults() {
	if c.EventsQueueCapacity == 0 {
		c.EventsQueueCapacity = DefaultEventsQueueCapacity
	}

	if c.DialInterval == 0 {
		c.DialInterval = DefaultDialInterval
	}

	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}

	if c.InSlots == 0 {
		c.InSlots = DefaultInSlots
	}

	if c.OutSlots == 0 {
		c.OutSlots = DefaultOutSlots
	}
}

func (c *Config) validate() error {
	if c.NumEventsReceivers < 1 {
		return fmt.Errorf("%w: got %d", ErrNoEventsReceivers, c.NumEventsReceivers)
	}

	if len(c.Chains) == 0 {
		return ErrNoChains
	}

	return nil
}
