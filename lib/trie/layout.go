// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package trie

import (
	"bytes"
	"fmt"
	"math"
	"math/big"
	"sort"

	"github.com/ChainSafe/gossamer-light/lib/common"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

const (
	// NoMaxInlineValueSize is the numeric representation used to indicate that there is no max value size.
	NoMaxInlineValueSize = math.MaxInt
	// V1MaxInlineValueSize is the maximum size of a value to be inlined in state trie version 1.
	V1MaxInlineValueSize = 32
)

// TrieLayout is the state trie version which dictates how a
// Merkle root should be constructed. It is defined in
// https://spec.polkadot.network/#defn-state-version
type TrieLayout uint8

const (
	// V0 is the state trie version 0 where the values of the keys are
	// inserted into the trie directly.
	V0 TrieLayout = iota
	// V1 is the state trie version 1 where values larger than 32 bytes
	// are replaced by their hash.
	V1
)

// Entry is a key-value pair used to build a trie
type Entry struct{ Key, Value []byte }

// Entries is a list of entry used to build a trie
type Entries []Entry

// String returns a string representation of trie version
func (v TrieLayout) String() string {
	switch v {
	case V0:
		return "v0"
	case V1:
		return "v1"
	default:
		panic(fmt.Sprintf("unknown version %d", v))
	}
}

// MaxInlineValue returns the maximum size of a value to be inlined in the trie node
func (v TrieLayout) MaxInlineValue() int {
	switch v {
	case V0:
		return NoMaxInlineValueSize
	case V1:
		return V1MaxInlineValueSize
	default:
		panic(fmt.Sprintf("unknown version %d", v))
	}
}

// Root returns the root hash of the trie built using the given entries.
// Entries are sorted in place and later duplicates override earlier ones.
func (v TrieLayout) Root(entries Entries) (common.Hash, error) {
	sort.SliceStable(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].Key, entries[j].Key) < 0
	})

	deduplicated := make([]nibbledEntry, 0, len(entries))
	for _, entry := range entries {
		nibbles := keyToNibbles(entry.Key)
		last := len(deduplicated) - 1
		if last >= 0 && bytes.Equal(deduplicated[last].nibbles, nibbles) {
			deduplicated[last].value = entry.Value
			continue
		}
		deduplicated = append(deduplicated, nibbledEntry{nibbles: nibbles, value: entry.Value})
	}

	if len(deduplicated) == 0 {
		return EmptyRoot, nil
	}

	encoding, err := encodeNode(deduplicated, 0, v.MaxInlineValue())
	if err != nil {
		return common.Hash{}, err
	}

	return common.Blake2bHash(encoding)
}

// OrderedRoot returns the root of the trie whose keys are the SCALE compact
// encoded indexes of the values given, as used for block extrinsics.
func (v TrieLayout) OrderedRoot(values [][]byte) (common.Hash, error) {
	entries := make(Entries, len(values))
	for i, value := range values {
		buffer := bytes.NewBuffer(nil)
		err := scale.NewEncoder(buffer).EncodeUintCompact(*big.NewInt(int64(i)))
		if err != nil {
			return common.Hash{}, fmt.Errorf("encoding index %d: %w", i, err)
		}
		entries[i] = Entry{Key: buffer.Bytes(), Value: value}
	}
	return v.Root(entries)
}

// EmptyRoot is the root hash of a trie without any entry.
var EmptyRoot = common.MustBlake2bHash([]byte{0})
