// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package common

import (
	"encoding/binary"

	"github.com/OneOfOne/xxhash"
	"golang.org/x/crypto/blake2b"
)

// Blake2bHash returns the 256-bit blake2b hash of the input data
func Blake2bHash(in []byte) (Hash, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return Hash{}, err
	}

	_, err = h.Write(in)
	if err != nil {
		return Hash{}, err
	}

	return NewHash(h.Sum(nil)), nil
}

// MustBlake2bHash returns the 256-bit blake2b hash of the input data.
// It panics if it fails to hash.
func MustBlake2bHash(in []byte) Hash {
	h, err := Blake2bHash(in)
	if err != nil {
		panic(err)
	}
	return h
}

// Twox128Hash computes xxHash64 twice with seeds 0 and 1 applied on given byte slice
// and concatenates the little endian results.
func Twox128Hash(msg []byte) []byte {
	hash := make([]byte, 16)
	binary.LittleEndian.PutUint64(hash[:8], xxhash.Checksum64S(msg, 0))
	binary.LittleEndian.PutUint64(hash[8:], xxhash.Checksum64S(msg, 1))
	return hash
}

// StoragePrefix returns the storage key prefix of a pallet storage item,
// that is twox128(pallet) followed by twox128(item).
func StoragePrefix(pallet, item string) []byte {
	return append(Twox128Hash([]byte(pallet)), Twox128Hash([]byte(item))...)
}
