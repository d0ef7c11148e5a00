// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import (
	"github.com/ChainSafe/gossamer-light/lib/common"
)

// BlockData is a block as returned by a blocks request.
// Fields that were not requested, or that the remote does not know, are nil.
type BlockData struct {
	Hash          common.Hash
	Header        []byte
	Body          [][]byte
	Justification []byte
}
