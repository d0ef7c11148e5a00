// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package optimistic

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ChainSafe/gossamer-light/lib/runtime"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

// BlockExecutor executes blocks against the storage of their parent.
type BlockExecutor interface {
	ExecuteBlock(ctx context.Context, block []byte, storage runtime.BlockStorage) error
}

type queryKind uint8

const (
	queryGet queryKind = iota
	queryNextKey
	queryPrefixKeys
)

type storageQuery struct {
	kind queryKind
	key  []byte
}

type storageAnswer struct {
	value []byte
	found bool
	keys  [][]byte
}

// remoteStorage is the finalized storage as seen by the executor. Each
// access is a query answered by the caller of the engine through a
// storage outcome.
type remoteStorage struct {
	queries chan<- storageQuery
	answers <-chan storageAnswer
}

func (r remoteStorage) ask(kind queryKind, key []byte) storageAnswer {
	r.queries <- storageQuery{kind: kind, key: key}
	return <-r.answers
}

func (r remoteStorage) Get(key []byte) ([]byte, bool) {
	answer := r.ask(queryGet, key)
	return answer.value, answer.found
}

func (r remoteStorage) NextKey(key []byte) ([]byte, bool) {
	answer := r.ask(queryNextKey, key)
	return answer.value, answer.found
}

func (r remoteStorage) PrefixKeys(prefix []byte) [][]byte {
	return r.ask(queryPrefixKeys, prefix).keys
}

// execution is a block being executed in its own goroutine, suspended
// while one of its storage queries is unanswered.
type execution struct {
	block   verifiedBlock
	source  SourceID
	changes *runtime.Changes
	queries chan storageQuery
	answers chan storageAnswer
	done    chan error
}

// execute starts the execution of the block on top of the changes of the
// verified blocks, and returns the first outcome of the execution.
func (s *Sync) execute(block verifiedBlock, source SourceID) Outcome {
	ex := &execution{
		block:   block,
		source:  source,
		queries: make(chan storageQuery),
		answers: make(chan storageAnswer),
		done:    make(chan error, 1),
	}

	var parent runtime.Backend = remoteStorage{queries: ex.queries, answers: ex.answers}
	if last := len(s.verified) - 1; last >= 0 {
		parent = s.verified[last].changes
	}
	ex.changes = runtime.NewChanges(parent)

	encoded, err := encodeBlock(block)
	if err != nil {
		return s.fail(block.header.Number, source, err)
	}

	go func() {
		ex.done <- s.config.Executor.ExecuteBlock(context.Background(), encoded, ex.changes)
	}()

	return s.await(ex)
}

// await returns the outcome of the next step of the execution.
func (s *Sync) await(ex *execution) Outcome {
	select {
	case query := <-ex.queries:
		switch query.kind {
		case queryGet:
			return NewStorageGet(query.key, func(value []byte, found bool) Outcome {
				ex.answers <- storageAnswer{value: value, found: found}
				return s.await(ex)
			})
		case queryNextKey:
			return NewStorageNextKey(query.key, func(key []byte, found bool) Outcome {
				ex.answers <- storageAnswer{value: key, found: found}
				return s.await(ex)
			})
		default:
			return NewStoragePrefixKeys(query.key, func(keys [][]byte) Outcome {
				ex.answers <- storageAnswer{keys: keys}
				return s.await(ex)
			})
		}
	case err := <-ex.done:
		if err != nil {
			return s.fail(ex.block.header.Number, ex.source, fmt.Errorf("%w: %s", ErrExecutionFailed, err))
		}

		ex.block.changes = ex.changes
		ex.block.storageChanges = ex.changes.Diff()
		logger.Tracef("executed block #%d with %d storage changes",
			ex.block.header.Number, len(ex.block.storageChanges))
		return s.accept(ex.block)
	}
}

// encodeBlock returns the SCALE encoded header followed by the vector of
// extrinsics, each extrinsic being already SCALE encoded.
func encodeBlock(block verifiedBlock) ([]byte, error) {
	buffer := bytes.NewBuffer(nil)
	buffer.Write(block.encoded)

	err := scale.NewEncoder(buffer).EncodeUintCompact(*big.NewInt(int64(len(block.body))))
	if err != nil {
		return nil, fmt.Errorf("encoding extrinsics count: %w", err)
	}

	for _, extrinsic := range block.body {
		buffer.Write(extrinsic)
	}
	return buffer.Bytes(), nil
}
