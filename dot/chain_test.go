// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package dot

import (
	"errors"
	"testing"

	"github.com/ChainSafe/gossamer-light/dot/state"
	"github.com/ChainSafe/gossamer-light/dot/types"
	"github.com/ChainSafe/gossamer-light/lib/common"
	"github.com/ChainSafe/gossamer-light/lib/genesis"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_loadChain(t *testing.T) {
	t.Parallel()

	gen, err := genesis.FromJSON([]byte(testChainSpec))
	require.NoError(t, err)
	genesisInformation, genesisStorage, err := gen.ChainInformation()
	require.NoError(t, err)
	genesisHash, err := genesisInformation.FinalizedHash()
	require.NoError(t, err)

	persisted := &state.Chain{
		Information: types.ChainInformation{
			FinalizedHeader: types.Header{
				ParentHash: common.Hash{1},
				Number:     10,
				Digest:     types.Digest{},
			},
			GrandpaFinality: true,
		},
		Storage: map[string][]byte{":code": {2}},
	}

	testCases := map[string]struct {
		chain               *state.Chain
		loadErr             error
		expectedInformation types.ChainInformation
		expectedStorage     map[string][]byte
	}{
		"empty database": {
			loadErr:             state.ErrNoChain,
			expectedInformation: genesisInformation,
			expectedStorage:     genesisStorage,
		},
		"corrupted database": {
			loadErr:             errors.New("test error"),
			expectedInformation: genesisInformation,
			expectedStorage:     genesisStorage,
		},
		"persisted chain": {
			chain:               persisted,
			expectedInformation: persisted.Information,
			expectedStorage:     persisted.Storage,
		},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)

			loader := NewMockChainLoader(ctrl)
			loader.EXPECT().LoadChain().Return(testCase.chain, testCase.loadErr)

			c, err := loadChain(gen, loader, []string{testBootnode})
			require.NoError(t, err)

			assert.Equal(t, "Test Chain", c.name)
			assert.Equal(t, "tst", c.protocolID)
			assert.Equal(t, genesisHash, c.genesisHash)
			require.Len(t, c.bootnodes, 1)
			assert.Equal(t, "12D3KooWEyoppNCUx8Yx66oV9fJnriXwCcXwDDUA2kj6vnc6iDEp", c.bootnodes[0].ID.String())
			assert.Equal(t, testCase.expectedInformation, c.information)
			assert.Equal(t, testCase.expectedStorage, c.storage)
		})
	}
}

func Test_loadChain_errors(t *testing.T) {
	t.Parallel()

	gen, err := genesis.FromJSON([]byte(testChainSpec))
	require.NoError(t, err)

	_, err = loadChain(gen, nil, []string{"/ip4/127.0.0.1/tcp/30333"})
	assert.ErrorContains(t, err, "parsing bootnodes")

	withoutCode, err := genesis.FromJSON([]byte(`{"name": "Test Chain", "genesis": {"raw": {"top": {}}}}`))
	require.NoError(t, err)

	_, err = loadChain(withoutCode, nil, nil)
	assert.ErrorIs(t, err, genesis.ErrNoCode)
}

func Test_chain_finalizedHash(t *testing.T) {
	t.Parallel()

	header := types.Header{Number: 3, Digest: types.Digest{}}
	expected, err := header.Hash()
	require.NoError(t, err)

	c := &chain{information: types.ChainInformation{FinalizedHeader: header}}
	assert.Equal(t, expected, c.finalizedHash())
}
