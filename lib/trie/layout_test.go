// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package trie

import (
	"bytes"
	"testing"

	"github.com/ChainSafe/gossamer-light/lib/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_TrieLayout_Root(t *testing.T) {
	t.Parallel()

	longValue := bytes.Repeat([]byte{7}, 40)
	longValueHash := common.MustBlake2bHash(longValue)

	testCases := map[string]struct {
		layout   TrieLayout
		entries  Entries
		encoding []byte
		root     common.Hash
	}{
		"empty": {
			layout: V0,
			root:   common.MustHexToHash("0x03170a2e7597b7b7e3d84c05391d139a62b157e78786d8c082f29dcf4c111314"),
		},
		"single leaf": {
			layout:   V0,
			entries:  Entries{{Key: []byte{0x01}, Value: []byte{0x02}}},
			encoding: []byte{0x42, 0x01, 0x04, 0x02},
		},
		"branch with two leaves": {
			layout: V0,
			entries: Entries{
				{Key: []byte{0x11}, Value: []byte("b")},
				{Key: []byte{0x10}, Value: []byte("a")},
			},
			encoding: []byte{
				0x81, 0x01, // branch header with partial key 1
				0x03, 0x00, // children 0 and 1
				0x0c, 0x40, 0x04, 'a',
				0x0c, 0x40, 0x04, 'b',
			},
		},
		"branch with value": {
			layout: V0,
			entries: Entries{
				{Key: []byte{0x10}, Value: []byte("a")},
				{Key: []byte{0x10, 0x20}, Value: []byte("b")},
			},
			encoding: []byte{
				0xc2, 0x10, // branch with value header, partial key 1 0
				0x04, 0x00, // child 2
				0x04, 'a',
				0x10, 0x41, 0x00, 0x04, 'b',
			},
		},
		"v1 hashes long values": {
			layout:   V1,
			entries:  Entries{{Key: []byte{0x01}, Value: longValue}},
			encoding: append([]byte{0x22, 0x01}, longValueHash[:]...),
		},
		"duplicate keys keep the last value": {
			layout: V0,
			entries: Entries{
				{Key: []byte{0x01}, Value: []byte{0x09}},
				{Key: []byte{0x01}, Value: []byte{0x02}},
			},
			encoding: []byte{0x42, 0x01, 0x04, 0x02},
		},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			expected := testCase.root
			if testCase.encoding != nil {
				expected = common.MustBlake2bHash(testCase.encoding)
			}

			root, err := testCase.layout.Root(testCase.entries)

			require.NoError(t, err)
			assert.Equal(t, expected, root)
		})
	}
}

func Test_encodeHeader_longPartialKey(t *testing.T) {
	t.Parallel()

	buffer := bytes.NewBuffer(nil)
	err := encodeHeader(buffer, leafVariant, 63+255+2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x7f, 0xff, 0x02}, buffer.Bytes())

	err = encodeHeader(buffer, leafVariant, 1<<16+1)
	assert.ErrorIs(t, err, ErrPartialKeyTooBig)
}

func Test_TrieLayout_OrderedRoot(t *testing.T) {
	t.Parallel()

	root, err := V0.OrderedRoot(nil)
	require.NoError(t, err)
	assert.Equal(t, EmptyRoot, root)

	values := [][]byte{{1}, {2}, {3}}
	ordered, err := V0.OrderedRoot(values)
	require.NoError(t, err)

	explicit, err := V0.Root(Entries{
		{Key: []byte{0x00}, Value: []byte{1}},
		{Key: []byte{0x04}, Value: []byte{2}},
		{Key: []byte{0x08}, Value: []byte{3}},
	})
	require.NoError(t, err)
	assert.Equal(t, explicit, ordered)
}
