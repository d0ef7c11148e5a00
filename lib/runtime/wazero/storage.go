// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package wazero_runtime

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ChainSafe/gossamer-light/lib/runtime"
	"github.com/ChainSafe/gossamer-light/lib/trie"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/tetratelabs/wazero/api"
)

// blockStorage returns the storage of the block being executed. It panics
// during the read only calls, which traps the runtime.
func (h *host) blockStorage() runtime.BlockStorage {
	storage, ok := h.storage.(runtime.BlockStorage)
	if !ok {
		panic(runtime.ErrReadOnlyStorage)
	}
	return storage
}

func ext_storage_set_version_1(h *host, stack []uint64) {
	key := h.read(stack[0])
	value := h.read(stack[1])
	logger.Tracef("storage set key 0x%x value of %d bytes", key, len(value))
	h.blockStorage().Set(key, value)
}

func ext_storage_clear_version_1(h *host, stack []uint64) {
	key := h.read(stack[0])
	logger.Tracef("storage clear key 0x%x", key)
	h.blockStorage().Delete(key)
}

func ext_storage_exists_version_1(h *host, stack []uint64) {
	key := h.read(stack[0])
	_, found := h.storageGet(key)
	if found {
		stack[0] = api.EncodeU32(1)
		return
	}
	stack[0] = api.EncodeU32(0)
}

func ext_storage_clear_prefix_version_1(h *host, stack []uint64) {
	prefix := h.read(stack[0])
	deleted, _ := h.blockStorage().ClearPrefix(prefix, -1)
	logger.Tracef("storage clear prefix 0x%x deleted %d keys", prefix, deleted)
}

// ext_storage_clear_prefix_version_2 returns the SCALE encoded
// KillStorageResult, AllRemoved(u32) or SomeRemaining(u32).
func ext_storage_clear_prefix_version_2(h *host, stack []uint64) {
	prefix := h.read(stack[0])
	limit, err := decodeOptionalLimit(h.read(stack[1]))
	if err != nil {
		panic(err)
	}

	deleted, all := h.blockStorage().ClearPrefix(prefix, limit)
	logger.Tracef("storage clear prefix 0x%x limit %d deleted %d keys", prefix, limit, deleted)

	result := make([]byte, 5)
	if !all {
		result[0] = 1
	}
	binary.LittleEndian.PutUint32(result[1:], uint32(deleted))
	stack[0] = h.writeSized(result)
}

// decodeOptionalLimit decodes an Option<u32>, returning -1 for None.
func decodeOptionalLimit(encoded []byte) (int, error) {
	switch {
	case len(encoded) == 1 && encoded[0] == 0:
		return -1, nil
	case len(encoded) == 5 && encoded[0] == 1:
		return int(binary.LittleEndian.Uint32(encoded[1:])), nil
	default:
		return 0, fmt.Errorf("%w: invalid limit 0x%x", runtime.ErrOutOfBounds, encoded)
	}
}

// ext_storage_append_version_1 appends the value given, already SCALE
// encoded, to the SCALE vector stored at the key. A value which is not a
// vector is replaced by a vector of the single item.
func ext_storage_append_version_1(h *host, stack []uint64) {
	key := h.read(stack[0])
	item := h.read(stack[1])
	storage := h.blockStorage()

	existing, _ := storage.Get(key)
	appended, err := appendToVector(existing, item)
	if err != nil {
		logger.Debugf("replacing value at key 0x%x: %s", key, err)
		appended, err = appendToVector(nil, item)
		if err != nil {
			panic(err)
		}
	}
	storage.Set(key, appended)
}

func appendToVector(vector, item []byte) ([]byte, error) {
	var length uint64
	var items []byte
	if len(vector) > 0 {
		reader := bytes.NewReader(vector)
		decoded, err := scale.NewDecoder(reader).DecodeUintCompact()
		if err != nil {
			return nil, err
		}
		if !decoded.IsUint64() {
			return nil, fmt.Errorf("vector length %s too large", decoded)
		}
		length = decoded.Uint64()
		items = vector[len(vector)-reader.Len():]
	}

	buffer := bytes.NewBuffer(nil)
	err := scale.NewEncoder(buffer).EncodeUintCompact(*new(big.Int).SetUint64(length + 1))
	if err != nil {
		return nil, err
	}
	buffer.Write(items)
	buffer.Write(item)
	return buffer.Bytes(), nil
}

func ext_storage_root_version_1(h *host, stack []uint64) {
	stack[0] = h.storageRoot(trie.V0)
}

func ext_storage_root_version_2(h *host, stack []uint64) {
	layout, err := stateVersion(api.DecodeU32(stack[0]))
	if err != nil {
		panic(err)
	}
	stack[0] = h.storageRoot(layout)
}

func (h *host) storageRoot(layout trie.TrieLayout) uint64 {
	root, err := h.blockStorage().Root(layout)
	if err != nil {
		panic(fmt.Errorf("computing storage root: %w", err))
	}
	logger.Tracef("storage root %s with layout %s", root, layout)
	return h.writeSized(root[:])
}

func stateVersion(version uint32) (trie.TrieLayout, error) {
	switch version {
	case 0:
		return trie.V0, nil
	case 1:
		return trie.V1, nil
	default:
		return 0, fmt.Errorf("%w: state version %d", runtime.ErrUnsupportedRuntime, version)
	}
}

// ext_storage_changes_root_version_1 returns None, changes tries being
// unsupported.
func ext_storage_changes_root_version_1(h *host, stack []uint64) {
	stack[0] = h.writeSized([]byte{0})
}

func ext_storage_next_key_version_1(h *host, stack []uint64) {
	key := h.read(stack[0])
	next, found := h.blockStorage().NextKey(key)

	buffer := bytes.NewBuffer(nil)
	err := encodeOptionalBytes(scale.NewEncoder(buffer), next, found)
	if err != nil {
		panic(err)
	}
	stack[0] = h.writeSized(buffer.Bytes())
}

func ext_storage_start_transaction_version_1(h *host, _ []uint64) {
	h.blockStorage().StartTransaction()
}

func ext_storage_commit_transaction_version_1(h *host, _ []uint64) {
	err := h.blockStorage().CommitTransaction()
	if err != nil {
		panic(err)
	}
}

func ext_storage_rollback_transaction_version_1(h *host, _ []uint64) {
	err := h.blockStorage().RollbackTransaction()
	if err != nil {
		panic(err)
	}
}

func ext_offchain_index_set_version_1(h *host, stack []uint64) {
	logger.Tracef("ignoring offchain index set of key 0x%x", h.read(stack[0]))
}

func ext_offchain_index_clear_version_1(h *host, stack []uint64) {
	logger.Tracef("ignoring offchain index clear of key 0x%x", h.read(stack[0]))
}
