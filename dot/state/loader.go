// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package state

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ChainSafe/chaindb"
	"github.com/ChainSafe/gossamer-light/dot/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

var (
	// ErrNoChain is returned when nothing was saved to the database yet.
	ErrNoChain = errors.New("no chain in database")

	ErrBlockNotFound    = errors.New("block not found")
	ErrMetadataNotFound = errors.New("metadata not found")
	ErrDecodingRecord   = errors.New("decoding block record")

	ErrUnexpectedStorageChanges = errors.New("storage changes in a headers only batch")
)

// Chain is the finalized chain saved in the database.
type Chain struct {
	Information types.ChainInformation
	Storage     map[string][]byte
}

// Loader reads what the Writer saved.
type Loader struct {
	db chaindb.Database
}

// NewLoader returns a loader reading from the database given.
func NewLoader(db chaindb.Database) *Loader {
	return &Loader{db: db}
}

// LoadChain returns the saved chain information and finalized storage.
// It returns ErrNoChain if nothing was saved.
func (l *Loader) LoadChain() (*Chain, error) {
	encoded, err := l.db.Get(chainInformationKey)
	if errors.Is(err, chaindb.ErrKeyNotFound) {
		return nil, ErrNoChain
	} else if err != nil {
		return nil, fmt.Errorf("getting chain information: %w", err)
	}

	information, err := types.DecodeChainInformation(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding chain information: %w", err)
	}

	chain := &Chain{
		Information: *information,
		Storage:     make(map[string][]byte),
	}

	iterator := l.db.NewIterator()
	defer iterator.Release()

	for iterator.Next() {
		key := iterator.Key()
		if !bytes.HasPrefix(key, storagePrefix) {
			continue
		}

		value := iterator.Value()
		chain.Storage[string(key[len(storagePrefix):])] = append([]byte{}, value...)
	}

	logger.Debugf("loaded chain finalized at #%d with %d storage entries",
		chain.Information.FinalizedHeader.Number, len(chain.Storage))

	return chain, nil
}

// Block returns the record of the finalized block at the number given.
func (l *Loader) Block(number uint64) (record BlockRecord, err error) {
	encoded, err := l.db.Get(blockKey(number))
	if errors.Is(err, chaindb.ErrKeyNotFound) {
		return record, fmt.Errorf("%w: #%d", ErrBlockNotFound, number)
	} else if err != nil {
		return record, fmt.Errorf("getting block #%d: %w", number, err)
	}

	reader := bytes.NewReader(encoded)
	decoder := scale.NewDecoder(reader)

	err = decoder.Read(record.Hash[:])
	if err != nil {
		return record, fmt.Errorf("%w: hash: %s", ErrDecodingRecord, err)
	}

	err = decoder.Decode(&record.RuntimeSpec)
	if err != nil {
		return record, fmt.Errorf("%w: runtime spec: %s", ErrDecodingRecord, err)
	}

	length, err := decoder.DecodeUintCompact()
	if err != nil {
		return record, fmt.Errorf("%w: events length: %s", ErrDecodingRecord, err)
	}

	if !length.IsUint64() || length.Uint64() != uint64(reader.Len()) {
		return record, fmt.Errorf("%w: %s bytes of events with %d bytes left",
			ErrDecodingRecord, length, reader.Len())
	}

	record.Events = make([]byte, reader.Len())
	if len(record.Events) > 0 {
		err = decoder.Read(record.Events)
		if err != nil {
			return record, fmt.Errorf("%w: events: %s", ErrDecodingRecord, err)
		}
	}

	return record, nil
}

// Metadata returns the metadata saved for the runtime spec version given.
func (l *Loader) Metadata(specVersion uint32) ([]byte, error) {
	metadata, err := l.db.Get(metadataKey(specVersion))
	if errors.Is(err, chaindb.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: spec version %d", ErrMetadataNotFound, specVersion)
	} else if err != nil {
		return nil, fmt.Errorf("getting metadata: %w", err)
	}
	return metadata, nil
}
