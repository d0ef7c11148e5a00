// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package dot

import (
	"errors"
	"fmt"

	"github.com/ChainSafe/gossamer-light/dot/network"
	"github.com/ChainSafe/gossamer-light/dot/state"
	"github.com/ChainSafe/gossamer-light/dot/types"
	"github.com/ChainSafe/gossamer-light/lib/common"
	"github.com/ChainSafe/gossamer-light/lib/genesis"
	"github.com/libp2p/go-libp2p-core/peer"
)

// ChainLoader loads the chain persisted by a previous run.
type ChainLoader interface {
	LoadChain() (*state.Chain, error)
}

// chain is the chain the node syncs, starting from its finalized block.
type chain struct {
	name        string
	protocolID  string
	genesisHash common.Hash
	bootnodes   []peer.AddrInfo
	information types.ChainInformation
	storage     map[string][]byte
}

// loadChain builds the chain from the chain specification given, starting
// from the chain found in the database if any, and from the genesis
// block otherwise. Extra bootnodes are added to the ones of the chain
// specification.
func loadChain(gen *genesis.Genesis, loader ChainLoader, extraBootnodes []string) (*chain, error) {
	genesisInformation, genesisStorage, err := gen.ChainInformation()
	if err != nil {
		return nil, fmt.Errorf("building genesis chain information: %w", err)
	}

	genesisHash, err := genesisInformation.FinalizedHash()
	if err != nil {
		return nil, fmt.Errorf("hashing genesis header: %w", err)
	}

	addrs := make([]string, 0, len(gen.Bootnodes)+len(extraBootnodes))
	addrs = append(addrs, gen.Bootnodes...)
	addrs = append(addrs, extraBootnodes...)
	bootnodes, err := network.StringsToAddrInfos(addrs)
	if err != nil {
		return nil, fmt.Errorf("parsing bootnodes: %w", err)
	}

	c := &chain{
		name:        gen.Name,
		protocolID:  gen.Protocol(),
		genesisHash: genesisHash,
		bootnodes:   bootnodes,
		information: genesisInformation,
		storage:     genesisStorage,
	}

	persisted, err := loader.LoadChain()
	switch {
	case errors.Is(err, state.ErrNoChain):
		logger.Infof("no chain in database, starting from genesis %s", genesisHash.Short())
	case err != nil:
		logger.Warnf("cannot load chain from database, starting from genesis: %s", err)
	default:
		c.information = persisted.Information
		c.storage = persisted.Storage
		logger.Infof("loaded chain finalized at block #%d from database",
			persisted.Information.FinalizedHeader.Number)
	}

	return c, nil
}

func (c *chain) finalizedHash() common.Hash {
	hash, err := c.information.FinalizedHash()
	if err != nil {
		// headers loaded or built are always encodable
		panic(fmt.Sprintf("hashing finalized header: %s", err))
	}
	return hash
}
