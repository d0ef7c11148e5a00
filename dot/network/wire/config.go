// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package wire

import (
	"time"

	"github.com/ChainSafe/gossamer-light/dot/network"
	"github.com/ChainSafe/gossamer-light/dot/types"
	"github.com/ChainSafe/gossamer-light/internal/log"
	"github.com/ChainSafe/gossamer-light/lib/common"
	"github.com/libp2p/go-libp2p-core/peer"
)

const (
	DefaultPingInterval   = 15 * time.Second
	DefaultIdleTimeout    = 60 * time.Second
	DefaultRequestTimeout = 20 * time.Second
)

// BlockProvider answers the blocks requests of peers.
type BlockProvider interface {
	Blocks(chainIndex int, config network.BlocksRequestConfig) ([]types.BlockData, error)
}

// ChainConfig is a chain the engine opens substreams for.
type ChainConfig struct {
	ProtocolID  string
	GenesisHash common.Hash
	BestNumber  uint64
	BestHash    common.Hash
}

// Config is the engine configuration.
type Config struct {
	LocalPeer peer.ID
	Roles     byte
	Chains    []ChainConfig
	// BlockProvider is optional. Without it blocks requests are answered
	// with an empty list.
	BlockProvider BlockProvider

	PingInterval   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration

	LogLvl log.Level
}

func (c *Config) setDefaults() {
	if c.Roles == 0 {
		c.Roles = RoleLight
	}
	if c.PingInterval == 0 {
		c.PingInterval = DefaultPingInterval
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
}

func (c *Config) validate() error {
	if c.LocalPeer == "" {
		return ErrNoLocalPeer
	}
	if len(c.Chains) == 0 {
		return ErrNoChains
	}
	return nil
}
