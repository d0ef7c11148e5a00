// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import (
	"fmt"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

func encodeCompact(encoder *scale.Encoder, n uint64) error {
	return encoder.EncodeUintCompact(*new(big.Int).SetUint64(n))
}

func decodeCompact(decoder *scale.Decoder) (uint64, error) {
	n, err := decoder.DecodeUintCompact()
	if err != nil {
		return 0, err
	}

	if !n.IsUint64() {
		return 0, fmt.Errorf("%w: compact integer %s", ErrValueTooLarge, n)
	}

	return n.Uint64(), nil
}

func encodeBytes(encoder *scale.Encoder, b []byte) error {
	err := encodeCompact(encoder, uint64(len(b)))
	if err != nil {
		return err
	}
	return encoder.Write(b)
}

func decodeBytes(decoder *scale.Decoder) ([]byte, error) {
	length, err := decodeCompact(decoder)
	if err != nil {
		return nil, err
	}

	if length > maxDecodedLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrValueTooLarge, length)
	}

	b := make([]byte, length)
	if length == 0 {
		return b, nil
	}

	err = decoder.Read(b)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func decodeHash(decoder *scale.Decoder) (h [32]byte, err error) {
	err = decoder.Read(h[:])
	return h, err
}

// maxDecodedLength bounds the size of byte vectors read from untrusted input.
const maxDecodedLength = 64 << 20
