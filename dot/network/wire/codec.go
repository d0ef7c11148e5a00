// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package wire

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ChainSafe/gossamer-light/lib/common"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

// encoder writes SCALE values to a buffer. The first error is kept and
// every later write is skipped.
type encoder struct {
	buffer  bytes.Buffer
	encoder *scale.Encoder
	err     error
}

func newEncoder() *encoder {
	e := &encoder{}
	e.encoder = scale.NewEncoder(&e.buffer)
	return e
}

func (e *encoder) bytes() ([]byte, error) {
	return e.buffer.Bytes(), e.err
}

func (e *encoder) raw(b []byte) {
	if e.err == nil {
		e.err = e.encoder.Write(b)
	}
}

func (e *encoder) u8(b byte) {
	if e.err == nil {
		e.err = e.encoder.PushByte(b)
	}
}

func (e *encoder) boolean(b bool) {
	if b {
		e.u8(1)
	} else {
		e.u8(0)
	}
}

func (e *encoder) u32(n uint32) {
	if e.err == nil {
		e.err = e.encoder.Encode(n)
	}
}

func (e *encoder) u64(n uint64) {
	if e.err == nil {
		e.err = e.encoder.Encode(n)
	}
}

func (e *encoder) compact(n uint64) {
	if e.err == nil {
		e.err = e.encoder.EncodeUintCompact(*new(big.Int).SetUint64(n))
	}
}

func (e *encoder) vec(b []byte) {
	e.compact(uint64(len(b)))
	e.raw(b)
}

func (e *encoder) str(s string) {
	e.vec([]byte(s))
}

func (e *encoder) hash(h common.Hash) {
	e.raw(h[:])
}

// optionalVec encodes nil as None and anything else as Some.
func (e *encoder) optionalVec(b []byte) {
	e.boolean(b != nil)
	if b != nil {
		e.vec(b)
	}
}

// decoder reads SCALE values from an in memory message. Lengths are
// checked against the bytes left before anything is allocated.
type decoder struct {
	reader  *bytes.Reader
	decoder *scale.Decoder
}

func newDecoder(b []byte) *decoder {
	reader := bytes.NewReader(b)
	return &decoder{
		reader:  reader,
		decoder: scale.NewDecoder(reader),
	}
}

func (d *decoder) raw(b []byte) error {
	if len(b) > d.reader.Len() {
		return fmt.Errorf("%w: %d bytes needed, %d left", ErrTruncatedMessage, len(b), d.reader.Len())
	}
	return d.decoder.Read(b)
}

func (d *decoder) u8() (byte, error) {
	if d.reader.Len() == 0 {
		return 0, ErrTruncatedMessage
	}
	return d.decoder.ReadOneByte()
}

func (d *decoder) boolean() (bool, error) {
	b, err := d.u8()
	if err != nil {
		return false, err
	}

	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %d", ErrInvalidBoolean, b)
	}
}

func (d *decoder) u32() (n uint32, err error) {
	if d.reader.Len() < 4 {
		return 0, ErrTruncatedMessage
	}
	err = d.decoder.Decode(&n)
	return n, err
}

func (d *decoder) u64() (n uint64, err error) {
	if d.reader.Len() < 8 {
		return 0, ErrTruncatedMessage
	}
	err = d.decoder.Decode(&n)
	return n, err
}

func (d *decoder) compact() (uint64, error) {
	if d.reader.Len() == 0 {
		return 0, ErrTruncatedMessage
	}

	n, err := d.decoder.DecodeUintCompact()
	if err != nil {
		return 0, err
	}

	if !n.IsUint64() {
		return 0, fmt.Errorf("%w: compact integer %s", ErrValueTooLarge, n)
	}
	return n.Uint64(), nil
}

// length reads a compact length, which cannot exceed the bytes left.
func (d *decoder) length() (int, error) {
	n, err := d.compact()
	if err != nil {
		return 0, err
	}

	if n > uint64(d.reader.Len()) {
		return 0, fmt.Errorf("%w: length %d with %d bytes left", ErrTruncatedMessage, n, d.reader.Len())
	}
	return int(n), nil
}

func (d *decoder) vec() ([]byte, error) {
	n, err := d.length()
	if err != nil {
		return nil, err
	}

	b := make([]byte, n)
	if n == 0 {
		return b, nil
	}
	return b, d.raw(b)
}

func (d *decoder) str() (string, error) {
	b, err := d.vec()
	return string(b), err
}

func (d *decoder) hash() (h common.Hash, err error) {
	err = d.raw(h[:])
	return h, err
}

func (d *decoder) optionalVec() ([]byte, error) {
	some, err := d.boolean()
	if err != nil || !some {
		return nil, err
	}
	return d.vec()
}

// finish checks the whole message was consumed.
func (d *decoder) finish() error {
	if d.reader.Len() != 0 {
		return fmt.Errorf("%w: %d bytes", ErrTrailingBytes, d.reader.Len())
	}
	return nil
}
