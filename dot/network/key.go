// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package network

import (
	crand "crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/libp2p/go-libp2p-core/crypto"
)

// DefaultKeyFile is the name of the file holding the node key in the base path.
const DefaultKeyFile = "node.key"

// LoadOrGenerateKey loads the ed25519 node key stored in the base path given,
// generating and storing a new one if none exists.
func LoadOrGenerateKey(basepath string) (crypto.PrivKey, error) {
	key, err := loadKey(basepath)
	if err != nil {
		return nil, fmt.Errorf("loading node key: %w", err)
	}
	if key != nil {
		return key, nil
	}

	key, err = generateKey(crand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating node key: %w", err)
	}

	err = saveKey(key, basepath)
	if err != nil {
		return nil, fmt.Errorf("saving node key: %w", err)
	}

	logger.Infof("generated new node key in %s", basepath)
	return key, nil
}

func generateKey(r io.Reader) (crypto.PrivKey, error) {
	key, _, err := crypto.GenerateEd25519Key(r)
	return key, err
}

// loadKey returns a nil key if the key file does not exist.
func loadKey(basepath string) (crypto.PrivKey, error) {
	data, err := os.ReadFile(filepath.Join(filepath.Clean(basepath), DefaultKeyFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	raw := make([]byte, hex.DecodedLen(len(data)))
	_, err = hex.Decode(raw, data)
	if err != nil {
		return nil, err
	}
	return crypto.UnmarshalEd25519PrivateKey(raw)
}

func saveKey(key crypto.PrivKey, basepath string) error {
	err := os.MkdirAll(basepath, os.ModePerm)
	if err != nil {
		return err
	}

	raw, err := key.Raw()
	if err != nil {
		return err
	}

	encoded := make([]byte, hex.EncodedLen(len(raw)))
	hex.Encode(encoded, raw)
	return os.WriteFile(filepath.Join(basepath, DefaultKeyFile), encoded, 0600)
}
