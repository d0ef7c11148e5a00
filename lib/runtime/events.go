// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package runtime

import (
	"fmt"

	ctypes "github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
)

// EventsStorageKey returns the storage key of the events of the current
// block, System.Events, as declared by the metadata given.
func EventsStorageKey(metadata []byte) ([]byte, error) {
	var meta ctypes.Metadata
	err := codec.Decode(metadata, &meta)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDecodingMetadata, err)
	}

	key, err := ctypes.CreateStorageKey(&meta, "System", "Events")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrEventsKeyNotFound, err)
	}

	return key, nil
}
