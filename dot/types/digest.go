// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import (
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

// DigestItemType is the SCALE variant index of a digest item.
type DigestItemType byte

const (
	OtherDigest                     DigestItemType = 0
	ConsensusDigest                 DigestItemType = 4
	SealDigest                      DigestItemType = 5
	PreRuntimeDigest                DigestItemType = 6
	RuntimeEnvironmentUpdatedDigest DigestItemType = 8
)

func (t DigestItemType) String() string {
	switch t {
	case OtherDigest:
		return "Other"
	case ConsensusDigest:
		return "Consensus"
	case SealDigest:
		return "Seal"
	case PreRuntimeDigest:
		return "PreRuntime"
	case RuntimeEnvironmentUpdatedDigest:
		return "RuntimeEnvironmentUpdated"
	default:
		return fmt.Sprintf("DigestItemType(%d)", byte(t))
	}
}

// DigestItem is a single item of a block header digest.
// ConsensusEngineID is only set for consensus, seal and pre-runtime items.
type DigestItem struct {
	Type              DigestItemType
	ConsensusEngineID [4]byte
	Data              []byte
}

// Digest is the list of digest items of a block header.
type Digest []DigestItem

// HasRuntimeEnvironmentUpdated returns true if the digest announces that
// the runtime code or heap pages changed in this block.
func (d Digest) HasRuntimeEnvironmentUpdated() bool {
	for _, item := range d {
		if item.Type == RuntimeEnvironmentUpdatedDigest {
			return true
		}
	}
	return false
}

func (d Digest) encode(encoder *scale.Encoder) error {
	err := encodeCompact(encoder, uint64(len(d)))
	if err != nil {
		return err
	}

	for _, item := range d {
		err = encoder.PushByte(byte(item.Type))
		if err != nil {
			return err
		}

		switch item.Type {
		case OtherDigest:
			err = encodeBytes(encoder, item.Data)
		case ConsensusDigest, SealDigest, PreRuntimeDigest:
			err = encoder.Write(item.ConsensusEngineID[:])
			if err == nil {
				err = encodeBytes(encoder, item.Data)
			}
		case RuntimeEnvironmentUpdatedDigest:
		default:
			err = fmt.Errorf("%w: %s", ErrDigestItemUnknown, item.Type)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func decodeDigest(decoder *scale.Decoder) (d Digest, err error) {
	count, err := decodeCompact(decoder)
	if err != nil {
		return nil, fmt.Errorf("decoding digest length: %w", err)
	}

	if count > maxDecodedLength {
		return nil, fmt.Errorf("%w: %d digest items", ErrValueTooLarge, count)
	}

	d = make(Digest, 0, count)
	for i := uint64(0); i < count; i++ {
		b, err := decoder.ReadOneByte()
		if err != nil {
			return nil, fmt.Errorf("decoding digest item %d: %w", i, err)
		}

		item := DigestItem{Type: DigestItemType(b)}
		switch item.Type {
		case OtherDigest:
			item.Data, err = decodeBytes(decoder)
		case ConsensusDigest, SealDigest, PreRuntimeDigest:
			err = decoder.Read(item.ConsensusEngineID[:])
			if err == nil {
				item.Data, err = decodeBytes(decoder)
			}
		case RuntimeEnvironmentUpdatedDigest:
		default:
			err = fmt.Errorf("%w: %s", ErrDigestItemUnknown, item.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("decoding digest item %d: %w", i, err)
		}

		d = append(d, item)
	}

	return d, nil
}
