// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package optimistic

import (
	"github.com/ChainSafe/gossamer-light/dot/types"
	"github.com/ChainSafe/gossamer-light/lib/common"
)

// Outcome is the result of a single ProcessOne step.
type Outcome interface {
	Accept(v Visitor)
}

// Visitor handles every possible Outcome. Adding a new outcome adds a
// method here, so that every visitor must be updated to handle it.
type Visitor interface {
	Idle()
	Reset(Reset)
	Finalized(Finalized)
	NewBest(NewBest)
	StorageGet(StorageGet)
	StorageNextKey(StorageNextKey)
	StoragePrefixKeys(StoragePrefixKeys)
}

// Idle is returned when there is nothing more to process.
type Idle struct{}

// Accept implements Outcome.
func (Idle) Accept(v Visitor) { v.Idle() }

// Reset is returned when a block failed verification. All the blocks
// above the finalized block are discarded.
type Reset struct {
	PreviousBestHeight uint64
	Reason             error
}

// Accept implements Outcome.
func (r Reset) Accept(v Visitor) { v.Reset(r) }

// Finalized is returned when a contiguous batch of blocks became finalized.
// Blocks are in ascending height order.
type Finalized struct {
	Blocks []FinalizedBlock
}

// Accept implements Outcome.
func (f Finalized) Accept(v Visitor) { v.Finalized(f) }

// LastNumber returns the height of the highest block of the batch.
func (f Finalized) LastNumber() uint64 {
	return f.Blocks[len(f.Blocks)-1].Header.Number
}

// FinalizedBlock is a block that became finalized.
type FinalizedBlock struct {
	Header             *types.Header
	Hash               common.Hash
	ScaleEncodedHeader []byte
	Body               [][]byte
	Justification      []byte
	StorageChanges     types.StorageDiff
}

// NewBest is returned when the best block changed without any finalization.
type NewBest struct {
	Number uint64
	Hash   common.Hash
}

// Accept implements Outcome.
func (n NewBest) Accept(v Visitor) { v.NewBest(n) }

// StorageGet asks for the value of a key of the finalized storage.
type StorageGet struct {
	Key    []byte
	resume func(value []byte, found bool) Outcome
}

// NewStorageGet creates a storage get request resumed by the function given.
func NewStorageGet(key []byte, resume func(value []byte, found bool) Outcome) StorageGet {
	return StorageGet{Key: key, resume: resume}
}

// Accept implements Outcome.
func (r StorageGet) Accept(v Visitor) { v.StorageGet(r) }

// InjectValue answers the request and resumes the processing.
func (r StorageGet) InjectValue(value []byte, found bool) Outcome {
	return r.resume(value, found)
}

// StorageNextKey asks for the smallest key of the finalized storage
// strictly greater than Key.
type StorageNextKey struct {
	Key    []byte
	resume func(key []byte, found bool) Outcome
}

// NewStorageNextKey creates a next key request resumed by the function given.
func NewStorageNextKey(key []byte, resume func(key []byte, found bool) Outcome) StorageNextKey {
	return StorageNextKey{Key: key, resume: resume}
}

// Accept implements Outcome.
func (r StorageNextKey) Accept(v Visitor) { v.StorageNextKey(r) }

// InjectKey answers the request and resumes the processing.
func (r StorageNextKey) InjectKey(key []byte, found bool) Outcome {
	return r.resume(key, found)
}

// StoragePrefixKeys asks for all the keys of the finalized storage
// starting with Prefix, in ascending order.
type StoragePrefixKeys struct {
	Prefix []byte
	resume func(keys [][]byte) Outcome
}

// NewStoragePrefixKeys creates a prefix keys request resumed by the function given.
func NewStoragePrefixKeys(prefix []byte, resume func(keys [][]byte) Outcome) StoragePrefixKeys {
	return StoragePrefixKeys{Prefix: prefix, resume: resume}
}

// Accept implements Outcome.
func (r StoragePrefixKeys) Accept(v Visitor) { v.StoragePrefixKeys(r) }

// InjectKeys answers the request and resumes the processing.
func (r StoragePrefixKeys) InjectKeys(keys [][]byte) Outcome {
	return r.resume(keys)
}
