// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package runtime

import (
	"sort"
	"strings"

	"github.com/ChainSafe/gossamer-light/dot/types"
	"github.com/ChainSafe/gossamer-light/lib/common"
	"github.com/ChainSafe/gossamer-light/lib/trie"
	"github.com/tidwall/btree"
)

var _ BlockStorage = (*Changes)(nil)

// Backend is the storage below the changes of a block.
type Backend interface {
	Storage
	NextKey(key []byte) (next []byte, found bool)
	PrefixKeys(prefix []byte) [][]byte
}

type change struct {
	value   []byte
	removed bool
}

// Changes records the storage changes made by a block on top of
// the storage of its parent, with nested transactions.
// It is not safe for concurrent use.
type Changes struct {
	backend Backend
	changes *btree.Map[string, change]
	// transactions holds the changes as they were when each
	// transaction in progress started.
	transactions []*btree.Map[string, change]
}

// NewChanges returns empty changes on top of the backend given.
func NewChanges(backend Backend) *Changes {
	return &Changes{
		backend: backend,
		changes: new(btree.Map[string, change]),
	}
}

// Get returns the value of a key.
func (c *Changes) Get(key []byte) (value []byte, found bool) {
	if ch, ok := c.changes.Get(string(key)); ok {
		if ch.removed {
			return nil, false
		}
		return ch.value, true
	}
	return c.backend.Get(key)
}

// Set inserts or replaces the value of a key.
func (c *Changes) Set(key, value []byte) {
	c.changes.Set(string(key), change{value: append([]byte{}, value...)})
}

// Delete removes a key.
func (c *Changes) Delete(key []byte) {
	c.changes.Set(string(key), change{removed: true})
}

// NextKey returns the smallest key strictly greater than the key given.
func (c *Changes) NextKey(key []byte) (next []byte, found bool) {
	backendNext, backendFound := c.nextBackendKey(key)
	changedNext, changedFound := c.nextChangedKey(key)

	switch {
	case !changedFound:
		return backendNext, backendFound
	case !backendFound || string(changedNext) < string(backendNext):
		return changedNext, true
	default:
		return backendNext, true
	}
}

// nextBackendKey skips the backend keys removed by the changes.
func (c *Changes) nextBackendKey(key []byte) (next []byte, found bool) {
	for {
		next, found = c.backend.NextKey(key)
		if !found {
			return nil, false
		}

		ch, changed := c.changes.Get(string(next))
		if !changed || !ch.removed {
			return next, true
		}
		key = next
	}
}

func (c *Changes) nextChangedKey(key []byte) (next []byte, found bool) {
	c.changes.Ascend(string(key), func(k string, ch change) bool {
		if k == string(key) || ch.removed {
			return true
		}
		next, found = []byte(k), true
		return false
	})
	return next, found
}

// PrefixKeys returns the keys starting with the prefix given, in
// ascending order.
func (c *Changes) PrefixKeys(prefix []byte) [][]byte {
	keys := make(map[string]struct{})
	for _, key := range c.backend.PrefixKeys(prefix) {
		keys[string(key)] = struct{}{}
	}

	c.changes.Ascend(string(prefix), func(k string, ch change) bool {
		if !strings.HasPrefix(k, string(prefix)) {
			return false
		}
		if ch.removed {
			delete(keys, k)
		} else {
			keys[k] = struct{}{}
		}
		return true
	})

	sorted := make([]string, 0, len(keys))
	for key := range keys {
		sorted = append(sorted, key)
	}
	sort.Strings(sorted)

	result := make([][]byte, len(sorted))
	for i, key := range sorted {
		result[i] = []byte(key)
	}
	return result
}

// ClearPrefix deletes at most limit keys starting with the prefix, in
// ascending order, or all of them if limit is negative.
func (c *Changes) ClearPrefix(prefix []byte, limit int) (deleted int, all bool) {
	for _, key := range c.PrefixKeys(prefix) {
		if limit >= 0 && deleted == limit {
			return deleted, false
		}
		c.Delete(key)
		deleted++
	}
	return deleted, true
}

// Root returns the root of the trie of the storage with the changes applied.
func (c *Changes) Root(layout trie.TrieLayout) (common.Hash, error) {
	keys := c.PrefixKeys(nil)
	entries := make(trie.Entries, len(keys))
	for i, key := range keys {
		value, _ := c.Get(key)
		entries[i] = trie.Entry{Key: key, Value: value}
	}
	return layout.Root(entries)
}

// StartTransaction starts a transaction nested in the ones in progress.
func (c *Changes) StartTransaction() {
	c.transactions = append(c.transactions, c.changes.Copy())
}

// CommitTransaction keeps the changes made since the last transaction started.
func (c *Changes) CommitTransaction() error {
	if len(c.transactions) == 0 {
		return ErrNoTransaction
	}
	c.transactions = c.transactions[:len(c.transactions)-1]
	return nil
}

// RollbackTransaction discards the changes made since the last
// transaction started.
func (c *Changes) RollbackTransaction() error {
	last := len(c.transactions) - 1
	if last < 0 {
		return ErrNoTransaction
	}
	c.changes = c.transactions[last]
	c.transactions = c.transactions[:last]
	return nil
}

// Diff returns the changes in ascending key order.
func (c *Changes) Diff() types.StorageDiff {
	diff := make(types.StorageDiff, 0, c.changes.Len())
	c.changes.Scan(func(k string, ch change) bool {
		diff = append(diff, types.StorageChange{
			Key:    []byte(k),
			Value:  ch.value,
			Remove: ch.removed,
		})
		return true
	})
	return diff
}
