// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package runtime

import (
	"context"

	"github.com/ChainSafe/gossamer-light/internal/log"
	"github.com/ChainSafe/gossamer-light/lib/common"
	"github.com/ChainSafe/gossamer-light/lib/trie"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "runtime"))

// Storage gives read access to the storage the runtime executes against.
type Storage interface {
	Get(key []byte) (value []byte, found bool)
}

// BlockStorage is the storage a block executes against. Its writes are
// the storage changes of the block.
type BlockStorage interface {
	Storage
	NextKey(key []byte) (next []byte, found bool)
	Set(key, value []byte)
	Delete(key []byte)
	// ClearPrefix deletes at most limit keys starting with the prefix,
	// or all of them if limit is negative. It returns the number of keys
	// deleted and whether no key with the prefix is left.
	ClearPrefix(prefix []byte, limit int) (deleted int, all bool)
	Root(layout trie.TrieLayout) (common.Hash, error)
	StartTransaction()
	CommitTransaction() error
	RollbackTransaction() error
}

// Instance is a compiled runtime ready to be called.
// Calls are not safe for concurrent use.
type Instance interface {
	// CoreVersion returns the version of the runtime.
	CoreVersion(ctx context.Context) (Version, error)
	// QueryMetadata returns the SCALE encoded metadata of the runtime,
	// executing it against the storage given.
	QueryMetadata(ctx context.Context, storage Storage) ([]byte, error)
	// ExecuteBlock executes the SCALE encoded block, that is its header
	// followed by its extrinsics, against the storage of its parent.
	ExecuteBlock(ctx context.Context, block []byte, storage BlockStorage) error
	Close(ctx context.Context) error
}
