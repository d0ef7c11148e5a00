// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package optimistic

import (
	"fmt"
	"sort"
	"time"

	"github.com/ChainSafe/gossamer-light/dot/types"
	"github.com/ChainSafe/gossamer-light/internal/log"
	"github.com/ChainSafe/gossamer-light/lib/common"
	"github.com/ChainSafe/gossamer-light/lib/runtime"
	"github.com/ChainSafe/gossamer-light/lib/trie"
	"github.com/libp2p/go-libp2p-core/peer"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "optimistic"))

// SourceID identifies a source of blocks.
type SourceID uint64

// RequestID identifies a blocks request.
type RequestID uint64

// Config is the configuration of the optimistic sync engine.
type Config struct {
	// ChainInformation is the finalized state the sync starts from.
	ChainInformation types.ChainInformation
	// SourcesCapacity is the number of sources expected.
	SourcesCapacity int
	// BlocksCapacity is the maximum number of blocks above the finalized
	// block held by the engine at any time.
	BlocksCapacity int
	// BlocksRequestGranularity is the maximum number of blocks per request.
	BlocksRequestGranularity uint32
	// DownloadAheadBlocks is the number of blocks above the best block
	// that can be requested.
	DownloadAheadBlocks uint64
	// Full enables the verification of block bodies against the
	// extrinsics root of their header, and their execution.
	Full bool
	// Executor executes the blocks verified. It is required when Full.
	Executor BlockExecutor

	LogLvl log.Level
}

type source struct {
	peer       peer.ID
	bestNumber uint64
	busy       bool
	// unavailableFrom is the lowest height the source failed to provide,
	// or 0 if it did not fail since its best block was last raised.
	unavailableFrom uint64
}

type verifiedBlock struct {
	header        *types.Header
	hash          common.Hash
	encoded       []byte
	body          [][]byte
	justification []byte
	// changes is nil unless the block was executed.
	changes        *runtime.Changes
	storageChanges types.StorageDiff
}

// Sync is the optimistic sync state machine. Blocks are downloaded ahead of
// the best block from the sources, verified one by one in ascending order
// and finalized when a justification is received.
// It is not safe for concurrent use.
type Sync struct {
	config    Config
	chainInfo types.ChainInformation

	finalizedHash common.Hash
	bestNumber    uint64
	bestHash      common.Hash
	// verified holds the verified blocks above the finalized block.
	verified []verifiedBlock

	sources      map[SourceID]*source
	nextSourceID SourceID
	lastSource   SourceID

	requests      map[RequestID]*request
	nextRequestID RequestID
	downloaded    map[uint64]*downloadedRange
	cancels       []RequestAction
}

// NewSync creates a new optimistic sync engine.
func NewSync(config Config) (*Sync, error) {
	if config.Full && config.Executor == nil {
		return nil, ErrNoExecutor
	}

	finalizedHash, err := config.ChainInformation.FinalizedHash()
	if err != nil {
		return nil, fmt.Errorf("hashing finalized header: %w", err)
	}

	logger.Patch(log.SetLevel(config.LogLvl))

	if config.BlocksRequestGranularity == 0 {
		config.BlocksRequestGranularity = 1
	}

	return &Sync{
		config:        config,
		chainInfo:     config.ChainInformation,
		finalizedHash: finalizedHash,
		bestNumber:    config.ChainInformation.FinalizedHeader.Number,
		bestHash:      finalizedHash,
		sources:       make(map[SourceID]*source, config.SourcesCapacity),
		requests:      make(map[RequestID]*request),
		downloaded:    make(map[uint64]*downloadedRange),
	}, nil
}

// ChainInformation returns the current finalized state of the chain.
func (s *Sync) ChainInformation() types.ChainInformation {
	return s.chainInfo
}

// BestBlock returns the number and hash of the best verified block.
func (s *Sync) BestBlock() (number uint64, hash common.Hash) {
	return s.bestNumber, s.bestHash
}

// AddSource registers a new source of blocks whose best block is at the height given.
func (s *Sync) AddSource(p peer.ID, bestNumber uint64) SourceID {
	s.nextSourceID++
	s.sources[s.nextSourceID] = &source{peer: p, bestNumber: bestNumber}
	return s.nextSourceID
}

// RemoveSource removes a source and returns its peer together with the
// requests still in flight towards it. These requests are forgotten by
// the engine and must be aborted by the caller.
func (s *Sync) RemoveSource(id SourceID) (p peer.ID, requests []RequestID) {
	src, ok := s.sources[id]
	if !ok {
		panic(fmt.Sprintf("%s: %d", ErrUnknownSource, id))
	}
	delete(s.sources, id)

	for requestID, rq := range s.requests {
		if rq.source != id {
			continue
		}
		delete(s.requests, requestID)
		requests = append(requests, requestID)
	}

	return src.peer, requests
}

// RaiseSourceBestBlock updates the best block height of a source if
// the height given is higher than the one known.
func (s *Sync) RaiseSourceBestBlock(id SourceID, number uint64) {
	src, ok := s.sources[id]
	if !ok {
		panic(fmt.Sprintf("%s: %d", ErrUnknownSource, id))
	}

	if number > src.bestNumber {
		src.bestNumber = number
		src.unavailableFrom = 0
	}
}

// ProcessOne verifies the next downloaded block, if any. In full mode the
// block is then executed, and the storage outcomes returned while it
// executes must be answered before calling ProcessOne again.
func (s *Sync) ProcessOne(now time.Time) Outcome {
	next := s.bestNumber + 1
	r, ok := s.downloaded[next]
	if !ok {
		return Idle{}
	}

	delete(s.downloaded, next)
	block := r.blocks[0]
	if len(r.blocks) > 1 {
		s.downloaded[next+1] = &downloadedRange{source: r.source, blocks: r.blocks[1:]}
	}

	verified, err := s.verify(next, block)
	if err != nil {
		return s.fail(next, r.source, err)
	}

	logger.Tracef("verified block #%d (%s) at %s", next, verified.hash.Short(), now.Format(time.RFC3339))

	if s.config.Full {
		return s.execute(verified, r.source)
	}

	verified.storageChanges = types.StorageDiff{}
	return s.accept(verified)
}

// fail resets the engine because of the block given, and stops asking its
// source for the blocks from there.
func (s *Sync) fail(number uint64, sourceID SourceID, err error) Reset {
	outcome := s.reset(&ResetError{Number: number, Err: err})
	if src, ok := s.sources[sourceID]; ok {
		src.unavailableFrom = s.bestNumber + 1
	}
	return outcome
}

// accept makes the block given the best block, finalizing it if possible.
func (s *Sync) accept(block verifiedBlock) Outcome {
	s.verified = append(s.verified, block)
	s.bestNumber = block.header.Number
	s.bestHash = block.hash

	if block.justification != nil || !s.chainInfo.GrandpaFinality {
		return s.finalize()
	}

	return NewBest{Number: s.bestNumber, Hash: s.bestHash}
}

func (s *Sync) verify(number uint64, block RequestSuccessBlock) (verifiedBlock, error) {
	header, err := types.DecodeHeader(block.ScaleEncodedHeader)
	if err != nil {
		return verifiedBlock{}, err
	}

	if header.Number != number {
		return verifiedBlock{}, fmt.Errorf("%w: expected %d but got %d", ErrUnexpectedNumber, number, header.Number)
	}

	if header.ParentHash != s.bestHash {
		return verifiedBlock{}, fmt.Errorf("%w: expected %s but got %s",
			ErrParentHashMismatch, s.bestHash.Short(), header.ParentHash.Short())
	}

	if s.config.Full {
		if block.ScaleEncodedExtrinsics == nil {
			return verifiedBlock{}, ErrMissingBody
		}

		err = verifyExtrinsicsRoot(header.ExtrinsicsRoot, block.ScaleEncodedExtrinsics)
		if err != nil {
			return verifiedBlock{}, err
		}
	}

	return verifiedBlock{
		header:        header,
		hash:          types.HashEncodedHeader(block.ScaleEncodedHeader),
		encoded:       block.ScaleEncodedHeader,
		body:          block.ScaleEncodedExtrinsics,
		justification: block.ScaleEncodedJustification,
	}, nil
}

// verifyExtrinsicsRoot checks the body against the root computed with
// either state version.
func verifyExtrinsicsRoot(expected common.Hash, body [][]byte) error {
	for _, layout := range []trie.TrieLayout{trie.V0, trie.V1} {
		root, err := layout.OrderedRoot(body)
		if err != nil {
			return fmt.Errorf("computing extrinsics root: %w", err)
		}

		if root == expected {
			return nil
		}
	}

	return fmt.Errorf("%w: header has %s", ErrExtrinsicsRootMismatch, expected.Short())
}

// finalize finalizes all the verified blocks.
func (s *Sync) finalize() Finalized {
	blocks := make([]FinalizedBlock, len(s.verified))
	for i, block := range s.verified {
		blocks[i] = FinalizedBlock{
			Header:             block.header,
			Hash:               block.hash,
			ScaleEncodedHeader: block.encoded,
			Body:               block.body,
			Justification:      block.justification,
			StorageChanges:     block.storageChanges,
		}
	}

	last := s.verified[len(s.verified)-1]
	s.chainInfo.FinalizedHeader = *last.header
	s.finalizedHash = last.hash
	s.verified = nil

	return Finalized{Blocks: blocks}
}

// reset discards everything above the finalized block and cancels
// all the requests in flight.
func (s *Sync) reset(reason error) Reset {
	previousBest := s.bestNumber

	s.verified = nil
	s.bestNumber = s.chainInfo.FinalizedHeader.Number
	s.bestHash = s.finalizedHash
	s.downloaded = make(map[uint64]*downloadedRange)

	ids := make([]RequestID, 0, len(s.requests))
	for id, rq := range s.requests {
		if src, ok := s.sources[rq.source]; ok {
			src.busy = false
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		s.cancels = append(s.cancels, CancelRequest{ID: id})
	}
	s.requests = make(map[RequestID]*request)

	return Reset{PreviousBestHeight: previousBest, Reason: reason}
}
