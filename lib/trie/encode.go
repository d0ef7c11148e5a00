// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package trie

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/ChainSafe/gossamer-light/lib/common"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

// ErrPartialKeyTooBig is returned when a partial key length
// cannot be encoded in a node header.
var ErrPartialKeyTooBig = errors.New("partial key length cannot be larger than 2^16")

type variant struct {
	bits byte
	mask byte
}

var (
	leafVariant                  = variant{bits: 0b0100_0000, mask: 0b1100_0000}
	branchVariant                = variant{bits: 0b1000_0000, mask: 0b1100_0000}
	branchWithValueVariant       = variant{bits: 0b1100_0000, mask: 0b1100_0000}
	leafWithHashedValueVariant   = variant{bits: 0b0010_0000, mask: 0b1110_0000}
	branchWithHashedValueVariant = variant{bits: 0b0001_0000, mask: 0b1111_0000}
)

type nibbledEntry struct {
	nibbles []byte
	value   []byte
}

func keyToNibbles(key []byte) []byte {
	nibbles := make([]byte, 2*len(key))
	for i, b := range key {
		nibbles[2*i] = b >> 4
		nibbles[2*i+1] = b & 0x0f
	}
	return nibbles
}

// encodeNode encodes the node holding the given sorted entries, all
// sharing their first depth nibbles.
func encodeNode(entries []nibbledEntry, depth, maxInlineValue int) ([]byte, error) {
	buffer := bytes.NewBuffer(nil)

	if len(entries) == 1 {
		entry := entries[0]
		hashed := len(entry.value) > maxInlineValue
		v := leafVariant
		if hashed {
			v = leafWithHashedValueVariant
		}

		partialKey := entry.nibbles[depth:]
		err := encodeHeader(buffer, v, len(partialKey))
		if err != nil {
			return nil, err
		}
		buffer.Write(nibblesToKeyLE(partialKey))

		err = encodeValue(buffer, entry.value, hashed)
		if err != nil {
			return nil, err
		}
		return buffer.Bytes(), nil
	}

	prefixEnd := depth + commonPrefixLength(entries, depth)
	partialKey := entries[0].nibbles[depth:prefixEnd]

	var value []byte
	hasValue := false
	children := entries
	if len(entries[0].nibbles) == prefixEnd {
		value = entries[0].value
		hasValue = true
		children = entries[1:]
	}

	hashed := hasValue && len(value) > maxInlineValue
	v := branchVariant
	switch {
	case hashed:
		v = branchWithHashedValueVariant
	case hasValue:
		v = branchWithValueVariant
	}

	err := encodeHeader(buffer, v, len(partialKey))
	if err != nil {
		return nil, err
	}
	buffer.Write(nibblesToKeyLE(partialKey))

	var childrenEncodings [16][]byte
	var bitmap uint16
	for start := 0; start < len(children); {
		index := children[start].nibbles[prefixEnd]
		end := start + 1
		for end < len(children) && children[end].nibbles[prefixEnd] == index {
			end++
		}

		encoding, err := encodeNode(children[start:end], prefixEnd+1, maxInlineValue)
		if err != nil {
			return nil, err
		}

		childrenEncodings[index] = encoding
		bitmap |= 1 << index
		start = end
	}

	buffer.Write([]byte{byte(bitmap), byte(bitmap >> 8)})

	if hasValue {
		err = encodeValue(buffer, value, hashed)
		if err != nil {
			return nil, err
		}
	}

	for _, encoding := range childrenEncodings {
		if encoding == nil {
			continue
		}

		if len(encoding) >= common.HashLength {
			hash := common.MustBlake2bHash(encoding)
			encoding = hash[:]
		}

		err = encodeScaleBytes(buffer, encoding)
		if err != nil {
			return nil, err
		}
	}

	return buffer.Bytes(), nil
}

// commonPrefixLength returns the length of the nibbles prefix shared by all
// the sorted entries after depth, which is the prefix shared by the first
// and last entries.
func commonPrefixLength(entries []nibbledEntry, depth int) (length int) {
	first, last := entries[0].nibbles[depth:], entries[len(entries)-1].nibbles[depth:]
	for length < len(first) && length < len(last) && first[length] == last[length] {
		length++
	}
	return length
}

func encodeHeader(buffer *bytes.Buffer, v variant, partialKeyLength int) error {
	const maxPartialKeyLength = 1 << 16
	if partialKeyLength > maxPartialKeyLength {
		return fmt.Errorf("%w: %d", ErrPartialKeyTooBig, partialKeyLength)
	}

	maxHeaderLength := int(^v.mask)
	if partialKeyLength < maxHeaderLength {
		buffer.WriteByte(v.bits | byte(partialKeyLength))
		return nil
	}

	buffer.WriteByte(v.bits | byte(maxHeaderLength))
	remaining := partialKeyLength - maxHeaderLength
	for remaining >= 255 {
		buffer.WriteByte(255)
		remaining -= 255
	}
	buffer.WriteByte(byte(remaining))
	return nil
}

// nibblesToKeyLE packs nibbles into bytes, with the odd leading
// nibble alone in the first byte.
func nibblesToKeyLE(nibbles []byte) []byte {
	key := make([]byte, 0, (len(nibbles)+1)/2)
	if len(nibbles)%2 == 1 {
		key = append(key, nibbles[0])
		nibbles = nibbles[1:]
	}
	for i := 0; i < len(nibbles); i += 2 {
		key = append(key, nibbles[i]<<4|nibbles[i+1])
	}
	return key
}

func encodeValue(buffer *bytes.Buffer, value []byte, hashed bool) error {
	if hashed {
		hash := common.MustBlake2bHash(value)
		buffer.Write(hash[:])
		return nil
	}
	return encodeScaleBytes(buffer, value)
}

func encodeScaleBytes(buffer *bytes.Buffer, b []byte) error {
	encoder := scale.NewEncoder(buffer)
	err := encoder.EncodeUintCompact(*big.NewInt(int64(len(b))))
	if err != nil {
		return err
	}
	return encoder.Write(b)
}
