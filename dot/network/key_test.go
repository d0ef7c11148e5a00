// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package network

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_LoadOrGenerateKey(t *testing.T) {
	t.Parallel()

	basepath := filepath.Join(t.TempDir(), "node")

	key, err := LoadOrGenerateKey(basepath)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(basepath, DefaultKeyFile))

	loaded, err := LoadOrGenerateKey(basepath)
	require.NoError(t, err)
	assert.True(t, key.Equals(loaded))

	id, err := peer.IDFromPrivateKey(key)
	require.NoError(t, err)
	loadedID, err := peer.IDFromPrivateKey(loaded)
	require.NoError(t, err)
	assert.Equal(t, id, loadedID)
}

func Test_LoadOrGenerateKey_corrupted(t *testing.T) {
	t.Parallel()

	basepath := t.TempDir()
	err := os.WriteFile(filepath.Join(basepath, DefaultKeyFile), []byte("not hex"), 0600)
	require.NoError(t, err)

	_, err = LoadOrGenerateKey(basepath)
	assert.ErrorContains(t, err, "loading node key")
}
