// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import "errors"

var (
	ErrValueTooLarge         = errors.New("value too large")
	ErrDigestItemUnknown     = errors.New("digest item type unknown")
	ErrTrailingBytes         = errors.New("trailing bytes after decoding")
	ErrChainInfoVersion      = errors.New("chain information version not supported")
	ErrHeaderNumberOverflows = errors.New("header number does not fit in 32 bits")
)
