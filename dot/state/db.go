// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package state

import (
	"encoding/binary"
	"path/filepath"

	"github.com/ChainSafe/chaindb"
	"github.com/ChainSafe/gossamer-light/internal/log"
)

// DefaultDatabaseDir is the directory inside the base path where the
// database contents are stored.
const DefaultDatabaseDir = "db"

var logger = log.NewFromGlobal(log.AddContext("pkg", "state"))

var (
	chainInformationKey = []byte("chain_information")

	storagePrefix  = []byte("storage:")
	metadataPrefix = []byte("metadata:")
	blockPrefix    = []byte("block:")
)

// Config is the configuration of the database.
type Config struct {
	Path     string
	InMemory bool
	LogLevel log.Level
}

// NewDatabase opens the badger database inside the path given.
func NewDatabase(cfg Config) (chaindb.Database, error) {
	logger.Patch(log.SetLevel(cfg.LogLevel))

	db, err := chaindb.NewBadgerDB(&chaindb.Config{
		DataDir:  filepath.Join(cfg.Path, DefaultDatabaseDir),
		InMemory: cfg.InMemory,
	})
	if err != nil {
		return nil, err
	}

	logger.Debugf("opened database in %s", cfg.Path)
	return db, nil
}

func makePrefixedKey(prefix, key []byte) (prefixedKey []byte) {
	// the prefix must not be appended to directly since its capacity
	// may be shared by other keys
	prefixedKey = make([]byte, 0, len(prefix)+len(key))
	prefixedKey = append(prefixedKey, prefix...)
	prefixedKey = append(prefixedKey, key...)
	return prefixedKey
}

func storageKey(key []byte) []byte {
	return makePrefixedKey(storagePrefix, key)
}

// metadataKey and blockKey are big endian so that the keys sort by number.
func metadataKey(specVersion uint32) []byte {
	encoded := make([]byte, 4)
	binary.BigEndian.PutUint32(encoded, specVersion)
	return makePrefixedKey(metadataPrefix, encoded)
}

func blockKey(number uint64) []byte {
	encoded := make([]byte, 8)
	binary.BigEndian.PutUint64(encoded, number)
	return makePrefixedKey(blockPrefix, encoded)
}
