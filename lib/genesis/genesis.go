// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ChainSafe/gossamer-light/dot/types"
	"github.com/ChainSafe/gossamer-light/lib/common"
	"github.com/ChainSafe/gossamer-light/lib/trie"
)

// DefaultProtocolID is the protocol identifier of chains whose
// specification does not name one.
const DefaultProtocolID = "sup"

var (
	ErrNoRawStorage = errors.New("genesis has no raw storage")
	ErrNoCode       = errors.New("genesis storage has no runtime code")
)

// grandpaAuthoritiesKey is the legacy well known key of the GRANDPA authorities.
var grandpaAuthoritiesKey = []byte(":grandpa_authorities")

// Genesis stores the data parsed from the chain specification file
type Genesis struct {
	Name            string                 `json:"name"`
	ID              string                 `json:"id"`
	ChainType       string                 `json:"chainType"`
	Bootnodes       []string               `json:"bootNodes"`
	ProtocolID      string                 `json:"protocolId"`
	Genesis         Fields                 `json:"genesis"`
	Properties      map[string]interface{} `json:"properties"`
	ForkBlocks      []string               `json:"forkBlocks"`
	BadBlocks       []string               `json:"badBlocks"`
	CodeSubstitutes map[string]string      `json:"codeSubstitutes"`
}

// Fields stores the raw genesis storage, with hexadecimal keys and values.
type Fields struct {
	Raw map[string]map[string]string `json:"raw,omitempty"`
}

// NewGenesisFromJSONRaw parses a JSON formatted chain specification file
func NewGenesisFromJSONRaw(file string) (*Genesis, error) {
	fp, err := filepath.Abs(file)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Clean(fp))
	if err != nil {
		return nil, err
	}

	return FromJSON(data)
}

// FromJSON parses a JSON encoded chain specification.
func FromJSON(data []byte) (*Genesis, error) {
	g := new(Genesis)
	err := json.Unmarshal(data, g)
	if err != nil {
		return nil, fmt.Errorf("decoding chain specification: %w", err)
	}
	return g, nil
}

// Protocol returns the protocol identifier of the chain.
func (g *Genesis) Protocol() string {
	if g.ProtocolID == "" {
		return DefaultProtocolID
	}
	return g.ProtocolID
}

// Storage returns the decoded raw genesis storage.
func (g *Genesis) Storage() (map[string][]byte, error) {
	top, ok := g.Genesis.Raw["top"]
	if !ok {
		return nil, ErrNoRawStorage
	}

	storage := make(map[string][]byte, len(top))
	for k, v := range top {
		key, err := common.HexToBytes(k)
		if err != nil {
			return nil, fmt.Errorf("decoding key %s: %w", k, err)
		}
		value, err := common.HexToBytes(v)
		if err != nil {
			return nil, fmt.Errorf("decoding value of key %s: %w", k, err)
		}
		storage[string(key)] = value
	}

	if _, ok := storage[string(common.CodeKey)]; !ok {
		return nil, ErrNoCode
	}

	return storage, nil
}

// Header returns the genesis block header of the storage given.
func Header(storage map[string][]byte) (*types.Header, error) {
	entries := make(trie.Entries, 0, len(storage))
	for key, value := range storage {
		entries = append(entries, trie.Entry{Key: []byte(key), Value: value})
	}

	stateRoot, err := trie.V0.Root(entries)
	if err != nil {
		return nil, fmt.Errorf("computing state root: %w", err)
	}

	return &types.Header{
		StateRoot:      stateRoot,
		ExtrinsicsRoot: trie.EmptyRoot,
		Digest:         types.Digest{},
	}, nil
}

// ChainInformation returns the genesis chain information and storage.
func (g *Genesis) ChainInformation() (types.ChainInformation, map[string][]byte, error) {
	storage, err := g.Storage()
	if err != nil {
		return types.ChainInformation{}, nil, err
	}

	header, err := Header(storage)
	if err != nil {
		return types.ChainInformation{}, nil, err
	}

	_, legacy := storage[string(grandpaAuthoritiesKey)]
	_, pallet := storage[string(common.StoragePrefix("Grandpa", "Authorities"))]

	return types.ChainInformation{
		FinalizedHeader: *header,
		GrandpaFinality: legacy || pallet,
	}, storage, nil
}
