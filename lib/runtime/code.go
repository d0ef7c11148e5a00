// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package runtime

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/klauspost/compress/zstd"
)

const (
	// DefaultHeapPages is the number of heap pages used when the storage
	// has no :heappages entry.
	DefaultHeapPages uint32 = 2048

	// maxCodeSize bounds the size of decompressed runtime code.
	maxCodeSize = 16 << 20
)

// zstdPrefix marks zstd compressed runtime code.
var zstdPrefix = []byte{0x52, 0xbc, 0x53, 0x76, 0x46, 0xdb, 0x8e, 0x05}

// HeapPages decodes the :heappages storage value, a little endian u64.
func HeapPages(value []byte, found bool) (uint32, error) {
	if !found {
		return DefaultHeapPages, nil
	}

	if len(value) != 8 {
		return 0, fmt.Errorf("%w: %d bytes instead of 8", ErrInvalidHeapPages, len(value))
	}

	pages := binary.LittleEndian.Uint64(value)
	if pages > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d pages", ErrInvalidHeapPages, pages)
	}

	return uint32(pages), nil
}

// Uncompress returns the wasm code, decompressing it if it carries the
// zstd prefix.
func Uncompress(code []byte) ([]byte, error) {
	if !bytes.HasPrefix(code, zstdPrefix) {
		return code, nil
	}

	decoder, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxCodeSize))
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer decoder.Close()

	decompressed, err := decoder.DecodeAll(code[len(zstdPrefix):], nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing runtime code: %w", err)
	}

	if len(decompressed) > maxCodeSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrCodeTooLarge, len(decompressed))
	}

	return decompressed, nil
}
