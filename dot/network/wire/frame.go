// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package wire

import (
	"errors"
	"fmt"

	"github.com/multiformats/go-varint"
)

// MaxFrameSize is the largest frame accepted, without its length prefix.
const MaxFrameSize = 16 * 1024 * 1024

// AppendFrame appends the frame of a message to dst.
func AppendFrame(dst []byte, m Message) ([]byte, error) {
	encoded, err := EncodeMessage(m)
	if err != nil {
		return dst, fmt.Errorf("encoding %s message: %w", m.Kind(), err)
	}

	if len(encoded) > MaxFrameSize {
		return dst, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(encoded))
	}

	dst = append(dst, varint.ToUvarint(uint64(len(encoded)))...)
	return append(dst, encoded...), nil
}

// ReadFrame extracts the first frame of buf. It returns a nil frame and
// zero consumed bytes when buf does not hold a complete frame yet.
func ReadFrame(buf []byte) (frame []byte, consumed int, err error) {
	length, prefix, err := varint.FromUvarint(buf)
	if errors.Is(err, varint.ErrUnderflow) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("reading frame length: %w", err)
	}

	if length > MaxFrameSize {
		return nil, 0, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, length)
	}
	if length == 0 {
		return nil, 0, ErrEmptyFrame
	}

	end := prefix + int(length)
	if len(buf) < end {
		return nil, 0, nil
	}

	return buf[prefix:end], end, nil
}
