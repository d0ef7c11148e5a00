// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package sync

import (
	"github.com/ChainSafe/gossamer-light/dot/network"
	"github.com/ChainSafe/gossamer-light/dot/types"
	"github.com/ChainSafe/gossamer-light/internal/log"
	"github.com/ChainSafe/gossamer-light/lib/tasks"
)

// Config is the configuration of the sync Service.
type Config struct {
	// ChainInformation is the finalized state the engine starts from.
	ChainInformation types.ChainInformation
	// FinalizedStorage is the storage of the finalized block.
	FinalizedStorage map[string][]byte

	Engine  Engine
	Network Network
	// ChainIndex is the index of the chain in the network service.
	ChainIndex int
	Events     <-chan network.Event

	// Runtime builds the runtime of the finalized block. It is nil when
	// block bodies are not executed, in which case no metadata is tracked.
	Runtime Runtime

	Database  DatabaseWriter
	Notifier  Notifier
	Scheduler tasks.Submitter
	LogLvl    log.Level
}

func (c *Config) validate() error {
	switch {
	case c.Engine == nil:
		return ErrNoEngine
	case c.Network == nil:
		return ErrNoNetwork
	case c.Events == nil:
		return ErrNoEvents
	case c.Database == nil:
		return ErrNoDatabase
	case c.Notifier == nil:
		return ErrNoNotifier
	case c.Scheduler == nil:
		return ErrNoScheduler
	}
	return nil
}
