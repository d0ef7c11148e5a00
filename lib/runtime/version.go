// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package runtime

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

// APIItem is a runtime API and its version.
type APIItem struct {
	Name    [8]byte
	Version uint32
}

// Version is the runtime version as returned by Core_version or found in
// the runtime_version custom section.
type Version struct {
	SpecName         string
	ImplName         string
	AuthoringVersion uint32
	SpecVersion      uint32
	ImplVersion      uint32
	APIItems         []APIItem
	// TransactionVersion and StateVersion are missing from the encoding
	// of older runtimes, in which case they are zero.
	TransactionVersion uint32
	StateVersion       uint8
}

// Encode returns the SCALE encoding of the version.
func (v Version) Encode() ([]byte, error) {
	buffer := bytes.NewBuffer(nil)
	encoder := scale.NewEncoder(buffer)

	for _, s := range []string{v.SpecName, v.ImplName} {
		err := encodeBytes(encoder, []byte(s))
		if err != nil {
			return nil, err
		}
	}

	for _, n := range []uint32{v.AuthoringVersion, v.SpecVersion, v.ImplVersion} {
		err := encoder.Encode(n)
		if err != nil {
			return nil, err
		}
	}

	err := encoder.EncodeUintCompact(*big.NewInt(int64(len(v.APIItems))))
	if err != nil {
		return nil, err
	}

	for _, item := range v.APIItems {
		err = encoder.Write(item.Name[:])
		if err != nil {
			return nil, err
		}
		err = encoder.Encode(item.Version)
		if err != nil {
			return nil, err
		}
	}

	err = encoder.Encode(v.TransactionVersion)
	if err != nil {
		return nil, err
	}

	err = encoder.PushByte(v.StateVersion)
	if err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}

// DecodeVersion decodes a SCALE encoded runtime version.
func DecodeVersion(encoded []byte) (v Version, err error) {
	reader := bytes.NewReader(encoded)
	decoder := scale.NewDecoder(reader)

	specName, err := decodeBytes(decoder, reader)
	if err != nil {
		return v, fmt.Errorf("%w: spec name: %s", ErrDecodingVersion, err)
	}
	v.SpecName = string(specName)

	implName, err := decodeBytes(decoder, reader)
	if err != nil {
		return v, fmt.Errorf("%w: impl name: %s", ErrDecodingVersion, err)
	}
	v.ImplName = string(implName)

	for _, field := range []*uint32{&v.AuthoringVersion, &v.SpecVersion, &v.ImplVersion} {
		err = decoder.Decode(field)
		if err != nil {
			return v, fmt.Errorf("%w: %s", ErrDecodingVersion, err)
		}
	}

	count, err := decoder.DecodeUintCompact()
	if err != nil {
		return v, fmt.Errorf("%w: apis count: %s", ErrDecodingVersion, err)
	}

	// each item takes 12 bytes
	if !count.IsUint64() || count.Uint64() > uint64(reader.Len()/12) {
		return v, fmt.Errorf("%w: %s apis in %d bytes", ErrDecodingVersion, count, reader.Len())
	}

	v.APIItems = make([]APIItem, count.Uint64())
	for i := range v.APIItems {
		err = decoder.Read(v.APIItems[i].Name[:])
		if err != nil {
			return v, fmt.Errorf("%w: api name: %s", ErrDecodingVersion, err)
		}
		err = decoder.Decode(&v.APIItems[i].Version)
		if err != nil {
			return v, fmt.Errorf("%w: api version: %s", ErrDecodingVersion, err)
		}
	}

	if reader.Len() == 0 {
		return v, nil
	}

	err = decoder.Decode(&v.TransactionVersion)
	if err != nil {
		return v, fmt.Errorf("%w: transaction version: %s", ErrDecodingVersion, err)
	}

	if reader.Len() == 0 {
		return v, nil
	}

	v.StateVersion, err = decoder.ReadOneByte()
	if err != nil {
		return v, fmt.Errorf("%w: state version: %s", ErrDecodingVersion, err)
	}

	return v, nil
}

func encodeBytes(encoder *scale.Encoder, b []byte) error {
	err := encoder.EncodeUintCompact(*big.NewInt(int64(len(b))))
	if err != nil {
		return err
	}
	return encoder.Write(b)
}

// decodeBytes decodes a length prefixed byte vector, checking the length
// against the bytes left before allocating.
func decodeBytes(decoder *scale.Decoder, reader *bytes.Reader) ([]byte, error) {
	length, err := decoder.DecodeUintCompact()
	if err != nil {
		return nil, err
	}

	if !length.IsUint64() || length.Uint64() > uint64(reader.Len()) {
		return nil, fmt.Errorf("%w: length %s with %d bytes left", ErrOutOfBounds, length, reader.Len())
	}

	b := make([]byte, length.Uint64())
	if len(b) == 0 {
		return b, nil
	}

	err = decoder.Read(b)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// DecodeOpaqueMetadata strips the length prefix of the value returned by
// Metadata_metadata.
func DecodeOpaqueMetadata(encoded []byte) ([]byte, error) {
	reader := bytes.NewReader(encoded)
	metadata, err := decodeBytes(scale.NewDecoder(reader), reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDecodingMetadata, err)
	}

	if reader.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrDecodingMetadata, reader.Len())
	}
	return metadata, nil
}
