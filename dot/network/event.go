// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package network

import (
	"fmt"

	"github.com/ChainSafe/gossamer-light/lib/common"
	"github.com/libp2p/go-libp2p-core/peer"
)

// Event is an event published by the network service.
// It is one of Connected, Disconnected or BlockAnnounce.
type Event interface {
	fmt.Stringer
	clone() Event
	kind() string
}

// Connected is published when a chain is open with a peer.
type Connected struct {
	Peer       peer.ID
	ChainIndex int
	BestNumber uint64
	BestHash   common.Hash
}

func (e Connected) String() string {
	return fmt.Sprintf("Connected(%s, %d, #%d %s)", e.Peer, e.ChainIndex, e.BestNumber, e.BestHash.Short())
}

func (e Connected) clone() Event { return e }
func (Connected) kind() string   { return "connected" }

// Disconnected is published when a chain is closed with a peer.
type Disconnected struct {
	Peer       peer.ID
	ChainIndex int
}

func (e Disconnected) String() string {
	return fmt.Sprintf("Disconnected(%s, %d)", e.Peer, e.ChainIndex)
}

func (e Disconnected) clone() Event { return e }
func (Disconnected) kind() string   { return "disconnected" }

// BlockAnnounce is published when a peer announces a block.
type BlockAnnounce struct {
	Peer       peer.ID
	ChainIndex int
	// Header is the SCALE encoded header of the announced block.
	Header []byte
	IsBest bool
}

func (e BlockAnnounce) String() string {
	return fmt.Sprintf("BlockAnnounce(%s, %d, is_best=%t)", e.Peer, e.ChainIndex, e.IsBest)
}

func (e BlockAnnounce) clone() Event {
	e.Header = append([]byte(nil), e.Header...)
	return e
}

func (BlockAnnounce) kind() string { return "block_announce" }
