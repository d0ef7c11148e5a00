// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package sync

import (
	"context"
	"time"

	"github.com/ChainSafe/gossamer-light/dot/network"
	"github.com/ChainSafe/gossamer-light/dot/state"
	"github.com/ChainSafe/gossamer-light/dot/types"
	"github.com/ChainSafe/gossamer-light/lib/optimistic"
	"github.com/ChainSafe/gossamer-light/lib/runtime"
	"github.com/libp2p/go-libp2p-core/peer"
)

// Engine verifies the blocks downloaded and decides which blocks to request.
type Engine interface {
	ProcessOne(now time.Time) optimistic.Outcome
	NextRequestAction() (action optimistic.RequestAction, ok bool)
	AddSource(p peer.ID, bestNumber uint64) optimistic.SourceID
	RemoveSource(id optimistic.SourceID) (p peer.ID, requests []optimistic.RequestID)
	RaiseSourceBestBlock(id optimistic.SourceID, number uint64)
	FinishRequest(id optimistic.RequestID, blocks []optimistic.RequestSuccessBlock, err error) error
	ChainInformation() types.ChainInformation
}

// Network sends blocks requests to peers.
type Network interface {
	BlocksRequest(ctx context.Context, target peer.ID, chainIndex int,
		config network.BlocksRequestConfig) ([]types.BlockData, error)
}

// Runtime builds runtime instances from their code.
type Runtime interface {
	Build(code []byte, heapPages uint32) (runtime.Instance, error)
	EventsStorageKey(metadata []byte) ([]byte, error)
}

// DatabaseWriter persists finalized blocks.
type DatabaseWriter interface {
	SaveFinalized(batch state.FinalizedBatch) error
}

// Notifier is told about the best and finalized block heights.
type Notifier interface {
	BestBlockUpdated(number uint64)
	FinalizedBlockUpdated(number uint64)
}
