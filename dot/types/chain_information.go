// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import (
	"bytes"
	"fmt"

	"github.com/ChainSafe/gossamer-light/lib/common"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

// chainInformationVersion is the first byte of an encoded ChainInformation.
const chainInformationVersion byte = 1

// ChainInformation describes the finalized state of a chain from which
// the synchronization can start.
type ChainInformation struct {
	FinalizedHeader Header
	// GrandpaFinality is true if the chain finalizes blocks with GRANDPA
	// justifications.
	GrandpaFinality bool
}

// FinalizedHash returns the hash of the finalized block header.
func (ci *ChainInformation) FinalizedHash() (common.Hash, error) {
	return ci.FinalizedHeader.Hash()
}

// Encode encodes the chain information to bytes.
func (ci *ChainInformation) Encode() ([]byte, error) {
	header, err := ci.FinalizedHeader.Encode()
	if err != nil {
		return nil, fmt.Errorf("encoding finalized header: %w", err)
	}

	buffer := bytes.NewBuffer(nil)
	encoder := scale.NewEncoder(buffer)

	err = encoder.PushByte(chainInformationVersion)
	if err != nil {
		return nil, err
	}

	err = encodeBytes(encoder, header)
	if err != nil {
		return nil, err
	}

	err = encoder.Encode(ci.GrandpaFinality)
	if err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}

// DecodeChainInformation decodes bytes produced by ChainInformation.Encode.
func DecodeChainInformation(encoded []byte) (*ChainInformation, error) {
	reader := bytes.NewReader(encoded)
	decoder := scale.NewDecoder(reader)

	version, err := decoder.ReadOneByte()
	if err != nil {
		return nil, fmt.Errorf("decoding version: %w", err)
	}

	if version != chainInformationVersion {
		return nil, fmt.Errorf("%w: %d", ErrChainInfoVersion, version)
	}

	encodedHeader, err := decodeBytes(decoder)
	if err != nil {
		return nil, fmt.Errorf("decoding finalized header: %w", err)
	}

	header, err := DecodeHeader(encodedHeader)
	if err != nil {
		return nil, fmt.Errorf("decoding finalized header: %w", err)
	}

	ci := &ChainInformation{FinalizedHeader: *header}
	err = decoder.Decode(&ci.GrandpaFinality)
	if err != nil {
		return nil, fmt.Errorf("decoding finality: %w", err)
	}

	if reader.Len() != 0 {
		return nil, fmt.Errorf("%w: %d bytes left", ErrTrailingBytes, reader.Len())
	}

	return ci, nil
}
