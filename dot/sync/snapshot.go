// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package sync

import (
	"strings"

	"github.com/ChainSafe/gossamer-light/dot/types"
	"github.com/tidwall/btree"
)

// Snapshot is the storage of the finalized block, ordered by key.
type Snapshot struct {
	entries btree.Map[string, []byte]
}

// NewSnapshot returns a snapshot holding the storage given.
func NewSnapshot(storage map[string][]byte) *Snapshot {
	s := &Snapshot{}
	for key, value := range storage {
		s.entries.Set(key, value)
	}
	return s
}

// Get returns the value of the key given.
func (s *Snapshot) Get(key []byte) (value []byte, found bool) {
	return s.entries.Get(string(key))
}

// Set inserts or replaces the value of a key.
func (s *Snapshot) Set(key, value []byte) {
	s.entries.Set(string(key), value)
}

// Delete removes a key. Removing a key absent from the storage is not an error.
func (s *Snapshot) Delete(key []byte) {
	_, deleted := s.entries.Delete(string(key))
	if !deleted {
		logger.Tracef("deleted key 0x%x is not in the finalized storage", key)
	}
}

// NextKey returns the smallest key strictly greater than the key given.
func (s *Snapshot) NextKey(key []byte) (next []byte, found bool) {
	s.entries.Ascend(string(key), func(k string, _ []byte) bool {
		if k == string(key) {
			return true
		}
		next, found = []byte(k), true
		return false
	})
	return next, found
}

// PrefixKeys returns all the keys starting with the prefix given, in
// ascending order.
func (s *Snapshot) PrefixKeys(prefix []byte) (keys [][]byte) {
	s.entries.Ascend(string(prefix), func(k string, _ []byte) bool {
		if !strings.HasPrefix(k, string(prefix)) {
			return false
		}
		keys = append(keys, []byte(k))
		return true
	})
	return keys
}

// Apply applies the changes of a block to the storage.
func (s *Snapshot) Apply(diff types.StorageDiff) {
	for _, change := range diff {
		if change.Remove {
			s.Delete(change.Key)
			continue
		}
		s.Set(change.Key, change.Value)
	}
}

// Len returns the number of keys.
func (s *Snapshot) Len() int {
	return s.entries.Len()
}

// Ascend calls iterator for every entry in ascending key order,
// until it returns false.
func (s *Snapshot) Ascend(iterator func(key, value []byte) bool) {
	s.entries.Scan(func(k string, v []byte) bool {
		return iterator([]byte(k), v)
	})
}
