// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package state

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ChainSafe/chaindb"
	"github.com/ChainSafe/gossamer-light/dot/types"
	"github.com/ChainSafe/gossamer-light/lib/common"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

// FinalizedBatch is a batch of blocks that became finalized, with the data
// derived from them.
type FinalizedBatch struct {
	// ChainInformation is the chain information after the batch.
	ChainInformation types.ChainInformation
	// NewMetadata holds the metadata of the runtimes that became active
	// within the batch, keyed by runtime spec version.
	NewMetadata map[uint32][]byte
	// Blocks are in ascending number order.
	Blocks []FinalizedBlock
	// HeadersOnly is set when the blocks were not executed. The chain
	// information and the storage are then left untouched.
	HeadersOnly bool
}

// FinalizedBlock is a block of a FinalizedBatch.
type FinalizedBlock struct {
	Number         uint64
	Hash           common.Hash
	RuntimeSpec    uint32
	Events         []byte
	StorageChanges types.StorageDiff
}

// BlockRecord is what is stored for each finalized block.
type BlockRecord struct {
	Hash        common.Hash
	RuntimeSpec uint32
	Events      []byte
}

func (r BlockRecord) encode() ([]byte, error) {
	buffer := bytes.NewBuffer(nil)
	encoder := scale.NewEncoder(buffer)

	err := encoder.Write(r.Hash[:])
	if err != nil {
		return nil, err
	}

	err = encoder.Encode(r.RuntimeSpec)
	if err != nil {
		return nil, err
	}

	err = encoder.EncodeUintCompact(*new(big.Int).SetUint64(uint64(len(r.Events))))
	if err != nil {
		return nil, err
	}

	err = encoder.Write(r.Events)
	if err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}

// Writer persists finalized blocks.
type Writer struct {
	db chaindb.Database
}

// NewWriter returns a writer to the database given.
func NewWriter(db chaindb.Database) *Writer {
	return &Writer{db: db}
}

// SaveFinalized writes the batch in a single database batch: the chain
// information, the storage changes of every block applied in order, the
// new metadata and one record per block. Saving a block number again
// overwrites its record. Nothing is written if it fails.
func (w *Writer) SaveFinalized(batch FinalizedBatch) (err error) {
	dbBatch := w.db.NewBatch()
	defer func() {
		if err != nil {
			dbBatch.Reset()
		}
	}()

	if !batch.HeadersOnly {
		err = putChainInformation(dbBatch, batch.ChainInformation)
		if err != nil {
			return err
		}
	}

	for _, block := range batch.Blocks {
		if batch.HeadersOnly && len(block.StorageChanges) > 0 {
			return fmt.Errorf("%w: block #%d", ErrUnexpectedStorageChanges, block.Number)
		}

		for _, change := range block.StorageChanges {
			if change.Remove {
				err = dbBatch.Del(storageKey(change.Key))
			} else {
				err = dbBatch.Put(storageKey(change.Key), change.Value)
			}
			if err != nil {
				return fmt.Errorf("writing storage change of block #%d: %w", block.Number, err)
			}
		}

		record, err := BlockRecord{
			Hash:        block.Hash,
			RuntimeSpec: block.RuntimeSpec,
			Events:      block.Events,
		}.encode()
		if err != nil {
			return fmt.Errorf("encoding block #%d: %w", block.Number, err)
		}

		err = dbBatch.Put(blockKey(block.Number), record)
		if err != nil {
			return fmt.Errorf("putting block #%d: %w", block.Number, err)
		}
	}

	for specVersion, metadata := range batch.NewMetadata {
		err = dbBatch.Put(metadataKey(specVersion), metadata)
		if err != nil {
			return fmt.Errorf("putting metadata of spec version %d: %w", specVersion, err)
		}
	}

	err = dbBatch.Flush()
	if err != nil {
		return fmt.Errorf("flushing batch: %w", err)
	}

	if len(batch.Blocks) > 0 {
		logger.Debugf("saved %d finalized blocks up to #%d",
			len(batch.Blocks), batch.Blocks[len(batch.Blocks)-1].Number)
	}

	return nil
}

func putChainInformation(dbBatch chaindb.Batch, chainInfo types.ChainInformation) error {
	encoded, err := chainInfo.Encode()
	if err != nil {
		return fmt.Errorf("encoding chain information: %w", err)
	}

	err = dbBatch.Put(chainInformationKey, encoded)
	if err != nil {
		return fmt.Errorf("putting chain information: %w", err)
	}
	return nil
}
