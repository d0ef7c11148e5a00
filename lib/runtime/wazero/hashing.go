// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package wazero_runtime

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/ChainSafe/gossamer-light/lib/runtime"
	"github.com/ChainSafe/gossamer-light/lib/trie"
	"github.com/OneOfOne/xxhash"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/tetratelabs/wazero/api"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

func ext_hashing_keccak_256_version_1(h *host, stack []uint64) {
	hasher := sha3.NewLegacyKeccak256()
	_, _ = hasher.Write(h.read(stack[0]))
	stack[0] = api.EncodeU32(h.write(hasher.Sum(nil)))
}

func ext_hashing_sha2_256_version_1(h *host, stack []uint64) {
	hash := sha256.Sum256(h.read(stack[0]))
	stack[0] = api.EncodeU32(h.write(hash[:]))
}

func ext_hashing_blake2_128_version_1(h *host, stack []uint64) {
	hasher, err := blake2b.New(16, nil)
	if err != nil {
		panic(err)
	}
	_, _ = hasher.Write(h.read(stack[0]))
	stack[0] = api.EncodeU32(h.write(hasher.Sum(nil)))
}

func ext_hashing_twox_256_version_1(h *host, stack []uint64) {
	data := h.read(stack[0])

	hash := make([]byte, 32)
	for seed := 0; seed < 4; seed++ {
		binary.LittleEndian.PutUint64(hash[8*seed:], xxhash.Checksum64S(data, uint64(seed)))
	}
	stack[0] = api.EncodeU32(h.write(hash))
}

func ext_trie_blake2_256_root_version_1(h *host, stack []uint64) {
	stack[0] = api.EncodeU32(h.trieRoot(h.read(stack[0]), trie.V0))
}

func ext_trie_blake2_256_root_version_2(h *host, stack []uint64) {
	layout, err := stateVersion(api.DecodeU32(stack[1]))
	if err != nil {
		panic(err)
	}
	stack[0] = api.EncodeU32(h.trieRoot(h.read(stack[0]), layout))
}

func ext_trie_blake2_256_ordered_root_version_1(h *host, stack []uint64) {
	stack[0] = api.EncodeU32(h.orderedTrieRoot(h.read(stack[0]), trie.V0))
}

func ext_trie_blake2_256_ordered_root_version_2(h *host, stack []uint64) {
	layout, err := stateVersion(api.DecodeU32(stack[1]))
	if err != nil {
		panic(err)
	}
	stack[0] = api.EncodeU32(h.orderedTrieRoot(h.read(stack[0]), layout))
}

// trieRoot writes the root of the trie of the SCALE encoded key value pairs.
func (h *host) trieRoot(encoded []byte, layout trie.TrieLayout) (ptr uint32) {
	vectors, err := decodeByteVectors(encoded, 2)
	if err != nil {
		panic(fmt.Errorf("decoding trie entries: %w", err))
	}

	entries := make(trie.Entries, len(vectors)/2)
	for i := range entries {
		entries[i] = trie.Entry{Key: vectors[2*i], Value: vectors[2*i+1]}
	}

	root, err := layout.Root(entries)
	if err != nil {
		panic(err)
	}
	return h.write(root[:])
}

// orderedTrieRoot writes the root of the trie of the SCALE encoded values
// keyed by their index.
func (h *host) orderedTrieRoot(encoded []byte, layout trie.TrieLayout) (ptr uint32) {
	values, err := decodeByteVectors(encoded, 1)
	if err != nil {
		panic(fmt.Errorf("decoding trie values: %w", err))
	}

	root, err := layout.OrderedRoot(values)
	if err != nil {
		panic(err)
	}
	return h.write(root[:])
}

// decodeByteVectors decodes a SCALE vector of tuples of byte vectors, each
// tuple having the arity given, and returns the byte vectors flattened.
func decodeByteVectors(encoded []byte, arity int) ([][]byte, error) {
	reader := bytes.NewReader(encoded)
	decoder := scale.NewDecoder(reader)

	length, err := decoder.DecodeUintCompact()
	if err != nil {
		return nil, err
	}
	if !length.IsUint64() || length.Uint64() > uint64(reader.Len()) {
		return nil, fmt.Errorf("%w: %s items with %d bytes left", runtime.ErrOutOfBounds, length, reader.Len())
	}

	vectors := make([][]byte, 0, int(length.Uint64())*arity)
	for i := 0; i < cap(vectors); i++ {
		size, err := decoder.DecodeUintCompact()
		if err != nil {
			return nil, err
		}
		if !size.IsUint64() || size.Uint64() > uint64(reader.Len()) {
			return nil, fmt.Errorf("%w: %s bytes with %d bytes left", runtime.ErrOutOfBounds, size, reader.Len())
		}

		vector := make([]byte, size.Uint64())
		if len(vector) > 0 {
			err = decoder.Read(vector)
			if err != nil {
				return nil, err
			}
		}
		vectors = append(vectors, vector)
	}

	if reader.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes", reader.Len())
	}
	return vectors, nil
}
