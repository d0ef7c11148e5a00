// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_DecodeVersion(t *testing.T) {
	t.Parallel()

	version := Version{
		SpecName:         "polkadot",
		ImplName:         "parity-polkadot",
		AuthoringVersion: 0,
		SpecVersion:      9260,
		ImplVersion:      0,
		APIItems: []APIItem{
			{Name: [8]byte{0xdf, 0x6a, 0xcb, 0x68, 0x99, 0x07, 0x60, 0x9b}, Version: 4},
		},
		TransactionVersion: 12,
		StateVersion:       1,
	}

	encoded, err := version.Encode()
	require.NoError(t, err)

	decoded, err := DecodeVersion(encoded)
	require.NoError(t, err)
	assert.Equal(t, version, decoded)

	t.Run("legacy encoding", func(t *testing.T) {
		t.Parallel()

		// without transaction and state versions
		decoded, err := DecodeVersion(encoded[:len(encoded)-5])
		require.NoError(t, err)

		expected := version
		expected.TransactionVersion = 0
		expected.StateVersion = 0
		assert.Equal(t, expected, decoded)
	})

	t.Run("without state version", func(t *testing.T) {
		t.Parallel()

		decoded, err := DecodeVersion(encoded[:len(encoded)-1])
		require.NoError(t, err)
		assert.Equal(t, uint32(12), decoded.TransactionVersion)
		assert.Zero(t, decoded.StateVersion)
	})
}

func Test_DecodeVersion_errors(t *testing.T) {
	t.Parallel()

	testCases := map[string][]byte{
		"empty":                {},
		"name too long":        {0x10, 'a'},
		"truncated versions":   {0x04, 'a', 0x04, 'b', 1, 0, 0, 0},
		"too many api items":   {0x00, 0x00, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0xfc},
		"truncated api item":   {0x00, 0x00, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x04, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
		"truncated tx version": {0x00, 0x00, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x00, 1, 2},
	}

	for name, encoded := range testCases {
		encoded := encoded
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := DecodeVersion(encoded)
			assert.ErrorIs(t, err, ErrDecodingVersion)
		})
	}
}

func Test_DecodeOpaqueMetadata(t *testing.T) {
	t.Parallel()

	metadata, err := DecodeOpaqueMetadata([]byte{0x0c, 'm', 'e', 't'})
	require.NoError(t, err)
	assert.Equal(t, []byte("met"), metadata)

	_, err = DecodeOpaqueMetadata([]byte{0x0c, 'm', 'e'})
	assert.ErrorIs(t, err, ErrDecodingMetadata)

	_, err = DecodeOpaqueMetadata([]byte{0x04, 'm', 'e'})
	assert.ErrorIs(t, err, ErrDecodingMetadata)
}

func Test_EventsStorageKey_invalidMetadata(t *testing.T) {
	t.Parallel()

	_, err := EventsStorageKey([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrDecodingMetadata)
}
