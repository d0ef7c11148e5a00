// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import (
	"bytes"
	"fmt"
	"math"

	"github.com/ChainSafe/gossamer-light/lib/common"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

// Header is a block header
type Header struct {
	ParentHash     common.Hash `json:"parentHash"`
	Number         uint64      `json:"number"`
	StateRoot      common.Hash `json:"stateRoot"`
	ExtrinsicsRoot common.Hash `json:"extrinsicsRoot"`
	Digest         Digest      `json:"digest"`
}

// Encode returns the SCALE encoding of the header.
func (bh *Header) Encode() ([]byte, error) {
	if bh.Number > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d", ErrHeaderNumberOverflows, bh.Number)
	}

	buffer := bytes.NewBuffer(nil)
	encoder := scale.NewEncoder(buffer)

	err := encoder.Write(bh.ParentHash[:])
	if err != nil {
		return nil, err
	}

	err = encodeCompact(encoder, bh.Number)
	if err != nil {
		return nil, err
	}

	err = encoder.Write(bh.StateRoot[:])
	if err != nil {
		return nil, err
	}

	err = encoder.Write(bh.ExtrinsicsRoot[:])
	if err != nil {
		return nil, err
	}

	err = bh.Digest.encode(encoder)
	if err != nil {
		return nil, fmt.Errorf("encoding digest: %w", err)
	}

	return buffer.Bytes(), nil
}

// Hash returns the blake2b hash of the SCALE encoded header.
func (bh *Header) Hash() (common.Hash, error) {
	encoded, err := bh.Encode()
	if err != nil {
		return common.Hash{}, err
	}
	return common.Blake2bHash(encoded)
}

// DecodeHeader decodes a SCALE encoded header. The whole input must be consumed.
func DecodeHeader(encoded []byte) (*Header, error) {
	reader := bytes.NewReader(encoded)
	decoder := scale.NewDecoder(reader)

	bh := new(Header)
	var err error

	bh.ParentHash, err = decodeHash(decoder)
	if err != nil {
		return nil, fmt.Errorf("decoding parent hash: %w", err)
	}

	bh.Number, err = decodeCompact(decoder)
	if err != nil {
		return nil, fmt.Errorf("decoding number: %w", err)
	}

	if bh.Number > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d", ErrHeaderNumberOverflows, bh.Number)
	}

	bh.StateRoot, err = decodeHash(decoder)
	if err != nil {
		return nil, fmt.Errorf("decoding state root: %w", err)
	}

	bh.ExtrinsicsRoot, err = decodeHash(decoder)
	if err != nil {
		return nil, fmt.Errorf("decoding extrinsics root: %w", err)
	}

	bh.Digest, err = decodeDigest(decoder)
	if err != nil {
		return nil, err
	}

	if reader.Len() != 0 {
		return nil, fmt.Errorf("%w: %d bytes left", ErrTrailingBytes, reader.Len())
	}

	return bh, nil
}

// HashEncodedHeader returns the blake2b hash of an already SCALE encoded header.
func HashEncodedHeader(encoded []byte) common.Hash {
	return common.MustBlake2bHash(encoded)
}
