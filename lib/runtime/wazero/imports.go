// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package wazero_runtime

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ChainSafe/gossamer-light/internal/log"
	"github.com/ChainSafe/gossamer-light/lib/common"
	"github.com/ChainSafe/gossamer-light/lib/runtime"
	"github.com/OneOfOne/xxhash"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/tetratelabs/wazero/api"
)

var logger = log.NewFromGlobal(
	log.AddContext("pkg", "runtime"),
	log.AddContext("module", "wazero"),
)

var (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
)

// hostFunction is the implementation of a host function with its signature.
type hostFunction struct {
	params  []api.ValueType
	results []api.ValueType
	call    func(h *host, stack []uint64)
}

// hostFunctions are the functions the runtime can call while answering
// Core_version and Metadata_metadata or executing a block. The runtime may
// import many more, child storage and keystore functions among them, which
// trap when called.
var hostFunctions = map[string]hostFunction{
	"ext_allocator_malloc_version_1": {
		params: []api.ValueType{i32}, results: []api.ValueType{i32},
		call: ext_allocator_malloc_version_1,
	},
	"ext_allocator_free_version_1": {
		params: []api.ValueType{i32},
		call:   ext_allocator_free_version_1,
	},
	"ext_logging_log_version_1": {
		params: []api.ValueType{i32, i64, i64},
		call:   ext_logging_log_version_1,
	},
	"ext_logging_max_level_version_1": {
		results: []api.ValueType{i32},
		call:    ext_logging_max_level_version_1,
	},
	"ext_storage_get_version_1": {
		params: []api.ValueType{i64}, results: []api.ValueType{i64},
		call: ext_storage_get_version_1,
	},
	"ext_storage_read_version_1": {
		params: []api.ValueType{i64, i64, i32}, results: []api.ValueType{i64},
		call: ext_storage_read_version_1,
	},
	"ext_hashing_twox_64_version_1": {
		params: []api.ValueType{i64}, results: []api.ValueType{i32},
		call: ext_hashing_twox_64_version_1,
	},
	"ext_hashing_twox_128_version_1": {
		params: []api.ValueType{i64}, results: []api.ValueType{i32},
		call: ext_hashing_twox_128_version_1,
	},
	"ext_hashing_blake2_256_version_1": {
		params: []api.ValueType{i64}, results: []api.ValueType{i32},
		call: ext_hashing_blake2_256_version_1,
	},
	"ext_misc_print_utf8_version_1": {
		params: []api.ValueType{i64},
		call:   ext_misc_print_utf8_version_1,
	},
	"ext_misc_print_hex_version_1": {
		params: []api.ValueType{i64},
		call:   ext_misc_print_hex_version_1,
	},
	"ext_misc_print_num_version_1": {
		params: []api.ValueType{i64},
		call:   ext_misc_print_num_version_1,
	},
	"ext_storage_set_version_1": {
		params: []api.ValueType{i64, i64},
		call:   ext_storage_set_version_1,
	},
	"ext_storage_clear_version_1": {
		params: []api.ValueType{i64},
		call:   ext_storage_clear_version_1,
	},
	"ext_storage_exists_version_1": {
		params: []api.ValueType{i64}, results: []api.ValueType{i32},
		call: ext_storage_exists_version_1,
	},
	"ext_storage_clear_prefix_version_1": {
		params: []api.ValueType{i64},
		call:   ext_storage_clear_prefix_version_1,
	},
	"ext_storage_clear_prefix_version_2": {
		params: []api.ValueType{i64, i64}, results: []api.ValueType{i64},
		call: ext_storage_clear_prefix_version_2,
	},
	"ext_storage_append_version_1": {
		params: []api.ValueType{i64, i64},
		call:   ext_storage_append_version_1,
	},
	"ext_storage_root_version_1": {
		results: []api.ValueType{i64},
		call:    ext_storage_root_version_1,
	},
	"ext_storage_root_version_2": {
		params: []api.ValueType{i32}, results: []api.ValueType{i64},
		call: ext_storage_root_version_2,
	},
	"ext_storage_changes_root_version_1": {
		params: []api.ValueType{i64}, results: []api.ValueType{i64},
		call: ext_storage_changes_root_version_1,
	},
	"ext_storage_next_key_version_1": {
		params: []api.ValueType{i64}, results: []api.ValueType{i64},
		call: ext_storage_next_key_version_1,
	},
	"ext_storage_start_transaction_version_1":    {call: ext_storage_start_transaction_version_1},
	"ext_storage_commit_transaction_version_1":   {call: ext_storage_commit_transaction_version_1},
	"ext_storage_rollback_transaction_version_1": {call: ext_storage_rollback_transaction_version_1},
	"ext_offchain_index_set_version_1": {
		params: []api.ValueType{i64, i64},
		call:   ext_offchain_index_set_version_1,
	},
	"ext_offchain_index_clear_version_1": {
		params: []api.ValueType{i64},
		call:   ext_offchain_index_clear_version_1,
	},
	"ext_hashing_keccak_256_version_1": {
		params: []api.ValueType{i64}, results: []api.ValueType{i32},
		call: ext_hashing_keccak_256_version_1,
	},
	"ext_hashing_sha2_256_version_1": {
		params: []api.ValueType{i64}, results: []api.ValueType{i32},
		call: ext_hashing_sha2_256_version_1,
	},
	"ext_hashing_blake2_128_version_1": {
		params: []api.ValueType{i64}, results: []api.ValueType{i32},
		call: ext_hashing_blake2_128_version_1,
	},
	"ext_hashing_twox_256_version_1": {
		params: []api.ValueType{i64}, results: []api.ValueType{i32},
		call: ext_hashing_twox_256_version_1,
	},
	"ext_trie_blake2_256_root_version_1": {
		params: []api.ValueType{i64}, results: []api.ValueType{i32},
		call: ext_trie_blake2_256_root_version_1,
	},
	"ext_trie_blake2_256_root_version_2": {
		params: []api.ValueType{i64, i32}, results: []api.ValueType{i32},
		call: ext_trie_blake2_256_root_version_2,
	},
	"ext_trie_blake2_256_ordered_root_version_1": {
		params: []api.ValueType{i64}, results: []api.ValueType{i32},
		call: ext_trie_blake2_256_ordered_root_version_1,
	},
	"ext_trie_blake2_256_ordered_root_version_2": {
		params: []api.ValueType{i64, i32}, results: []api.ValueType{i32},
		call: ext_trie_blake2_256_ordered_root_version_2,
	},
	"ext_crypto_ed25519_verify_version_1": {
		params: []api.ValueType{i32, i64, i32}, results: []api.ValueType{i32},
		call: ext_crypto_ed25519_verify_version_1,
	},
	"ext_crypto_sr25519_verify_version_1": {
		params: []api.ValueType{i32, i64, i32}, results: []api.ValueType{i32},
		call: ext_crypto_sr25519_verify_version_1,
	},
	"ext_crypto_sr25519_verify_version_2": {
		params: []api.ValueType{i32, i64, i32}, results: []api.ValueType{i32},
		call: ext_crypto_sr25519_verify_version_2,
	},
	"ext_crypto_ecdsa_verify_version_1": {
		params: []api.ValueType{i32, i64, i32}, results: []api.ValueType{i32},
		call: ext_crypto_ecdsa_verify_version_1,
	},
	"ext_crypto_ecdsa_verify_version_2": {
		params: []api.ValueType{i32, i64, i32}, results: []api.ValueType{i32},
		call: ext_crypto_ecdsa_verify_version_2,
	},
	"ext_crypto_secp256k1_ecdsa_recover_version_1": {
		params: []api.ValueType{i32, i32}, results: []api.ValueType{i64},
		call: ext_crypto_secp256k1_ecdsa_recover_version_1,
	},
	"ext_crypto_secp256k1_ecdsa_recover_version_2": {
		params: []api.ValueType{i32, i32}, results: []api.ValueType{i64},
		call: ext_crypto_secp256k1_ecdsa_recover_version_2,
	},
	"ext_crypto_secp256k1_ecdsa_recover_compressed_version_1": {
		params: []api.ValueType{i32, i32}, results: []api.ValueType{i64},
		call: ext_crypto_secp256k1_ecdsa_recover_compressed_version_1,
	},
	"ext_crypto_secp256k1_ecdsa_recover_compressed_version_2": {
		params: []api.ValueType{i32, i32}, results: []api.ValueType{i64},
		call: ext_crypto_secp256k1_ecdsa_recover_compressed_version_2,
	},
	"ext_crypto_start_batch_verify_version_1": {call: ext_crypto_start_batch_verify_version_1},
	"ext_crypto_finish_batch_verify_version_1": {
		results: []api.ValueType{i32},
		call:    ext_crypto_finish_batch_verify_version_1,
	},
}

// host is the state shared by the host functions of an instance.
type host struct {
	memory    runtime.Memory
	allocator *runtime.FreeingBumpHeapAllocator
	// storage is the storage of the call in progress, if any.
	storage runtime.Storage
	batch   *batchVerification
}

// splitPointerSize converts a 64 bits pointer size to a pointer and a size.
func splitPointerSize(pointerSize uint64) (ptr, size uint32) {
	return uint32(pointerSize), uint32(pointerSize >> 32)
}

func joinPointerSize(ptr, size uint32) uint64 {
	return uint64(size)<<32 | uint64(ptr)
}

// read returns a copy of the memory pointed to by the pointer size given.
// It panics when out of bounds, which traps the runtime.
func (h *host) read(pointerSize uint64) []byte {
	ptr, size := splitPointerSize(pointerSize)
	data, ok := h.memory.Read(ptr, size)
	if !ok {
		panic(fmt.Errorf("%w: reading %d bytes at %d", runtime.ErrOutOfBounds, size, ptr))
	}
	return append([]byte(nil), data...)
}

// write copies the data given to newly allocated memory.
func (h *host) write(data []byte) (ptr uint32) {
	ptr, err := h.allocator.Allocate(h.memory, uint32(len(data)))
	if err != nil {
		panic(fmt.Errorf("allocating %d bytes: %w", len(data), err))
	}

	if !h.memory.Write(ptr, data) {
		panic(fmt.Errorf("%w: writing %d bytes at %d", runtime.ErrOutOfBounds, len(data), ptr))
	}
	return ptr
}

func (h *host) writeSized(data []byte) uint64 {
	return joinPointerSize(h.write(data), uint32(len(data)))
}

func (h *host) storageGet(key []byte) (value []byte, found bool) {
	if h.storage == nil {
		return nil, false
	}
	return h.storage.Get(key)
}

func ext_allocator_malloc_version_1(h *host, stack []uint64) {
	size := api.DecodeU32(stack[0])

	ptr, err := h.allocator.Allocate(h.memory, size)
	if err != nil {
		panic(fmt.Errorf("allocating %d bytes: %w", size, err))
	}

	stack[0] = api.EncodeU32(ptr)
}

func ext_allocator_free_version_1(h *host, stack []uint64) {
	ptr := api.DecodeU32(stack[0])

	err := h.allocator.Deallocate(h.memory, ptr)
	if err != nil {
		panic(fmt.Errorf("deallocating %d: %w", ptr, err))
	}
}

func ext_logging_log_version_1(h *host, stack []uint64) {
	level := api.DecodeI32(stack[0])
	target := string(h.read(stack[1]))
	msg := string(h.read(stack[2]))

	switch level {
	case 0:
		logger.Error("target=" + target + " message=" + msg)
	case 1:
		logger.Warn("target=" + target + " message=" + msg)
	case 2:
		logger.Info("target=" + target + " message=" + msg)
	case 3:
		logger.Debug("target=" + target + " message=" + msg)
	case 4:
		logger.Trace("target=" + target + " message=" + msg)
	default:
		logger.Errorf("level=%d target=%s message=%s", level, target, msg)
	}
}

// ext_logging_max_level_version_1 lets the runtime log at any level, the
// node logger filtering the messages.
func ext_logging_max_level_version_1(_ *host, stack []uint64) {
	const trace = 5
	stack[0] = api.EncodeI32(trace)
}

func ext_storage_get_version_1(h *host, stack []uint64) {
	key := h.read(stack[0])
	value, found := h.storageGet(key)
	logger.Tracef("storage get key 0x%x found %t", key, found)

	buffer := bytes.NewBuffer(nil)
	encoder := scale.NewEncoder(buffer)
	err := encodeOptionalBytes(encoder, value, found)
	if err != nil {
		panic(err)
	}

	stack[0] = h.writeSized(buffer.Bytes())
}

func ext_storage_read_version_1(h *host, stack []uint64) {
	key := h.read(stack[0])
	outPtr, outSize := splitPointerSize(stack[1])
	offset := api.DecodeU32(stack[2])

	value, found := h.storageGet(key)
	if !found {
		stack[0] = h.writeSized([]byte{0})
		return
	}

	if offset > uint32(len(value)) {
		offset = uint32(len(value))
	}
	data := value[offset:]

	written := data
	if uint32(len(written)) > outSize {
		written = written[:outSize]
	}
	if !h.memory.Write(outPtr, written) {
		panic(fmt.Errorf("%w: writing %d bytes at %d", runtime.ErrOutOfBounds, len(written), outPtr))
	}

	result := make([]byte, 5)
	result[0] = 1
	binary.LittleEndian.PutUint32(result[1:], uint32(len(data)))
	stack[0] = h.writeSized(result)
}

func ext_hashing_twox_64_version_1(h *host, stack []uint64) {
	data := h.read(stack[0])

	hash := make([]byte, 8)
	binary.LittleEndian.PutUint64(hash, xxhash.Checksum64S(data, 0))
	stack[0] = api.EncodeU32(h.write(hash))
}

func ext_hashing_twox_128_version_1(h *host, stack []uint64) {
	data := h.read(stack[0])
	stack[0] = api.EncodeU32(h.write(common.Twox128Hash(data)))
}

func ext_hashing_blake2_256_version_1(h *host, stack []uint64) {
	data := h.read(stack[0])

	hash, err := common.Blake2bHash(data)
	if err != nil {
		panic(err)
	}
	stack[0] = api.EncodeU32(h.write(hash[:]))
}

func ext_misc_print_utf8_version_1(h *host, stack []uint64) {
	logger.Debug("utf8: " + string(h.read(stack[0])))
}

func ext_misc_print_hex_version_1(h *host, stack []uint64) {
	logger.Debugf("hex: 0x%x", h.read(stack[0]))
}

func ext_misc_print_num_version_1(_ *host, stack []uint64) {
	logger.Debugf("num: %d", stack[0])
}

func encodeOptionalBytes(encoder *scale.Encoder, value []byte, found bool) error {
	if !found {
		return encoder.PushByte(0)
	}

	err := encoder.PushByte(1)
	if err != nil {
		return err
	}

	err = encoder.EncodeUintCompact(*new(big.Int).SetUint64(uint64(len(value))))
	if err != nil {
		return err
	}
	return encoder.Write(value)
}

// goModuleFunction binds the host function to the host state.
func (f hostFunction) goModuleFunction(h *host) api.GoModuleFunc {
	return func(_ context.Context, _ api.Module, stack []uint64) {
		f.call(h, stack)
	}
}

// unimplemented returns a host function trapping when called.
func unimplemented(name string) api.GoModuleFunc {
	return func(context.Context, api.Module, []uint64) {
		panic(fmt.Errorf("%w: %s", runtime.ErrUnimplementedHost, name))
	}
}

func sameSignature(a, b []api.ValueType) bool {
	return bytes.Equal(a, b)
}
