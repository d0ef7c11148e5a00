// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import "bytes"

// StorageChange is the change of a single key of the storage.
// Value is ignored when Remove is true.
type StorageChange struct {
	Key    []byte
	Value  []byte
	Remove bool
}

// StorageDiff is the list of storage changes made by a block,
// with at most one change per key.
type StorageDiff []StorageChange

// Get returns the change made to the key given, if any.
func (d StorageDiff) Get(key []byte) (change StorageChange, ok bool) {
	for _, change := range d {
		if bytes.Equal(change.Key, key) {
			return change, true
		}
	}
	return StorageChange{}, false
}
