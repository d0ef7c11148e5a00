// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package runtime

import "errors"

var (
	ErrInvalidHeapPages   = errors.New("invalid heap pages")
	ErrCodeNotFound       = errors.New("runtime code not found")
	ErrCodeTooLarge       = errors.New("decompressed runtime code too large")
	ErrDecodingVersion    = errors.New("decoding runtime version")
	ErrDecodingMetadata   = errors.New("decoding metadata")
	ErrExportNotFound     = errors.New("export not found")
	ErrOutOfBounds        = errors.New("out of bounds memory access")
	ErrEventsKeyNotFound  = errors.New("events storage entry not found in metadata")
	ErrInstanceClosed     = errors.New("runtime instance closed")
	ErrUnimplementedHost  = errors.New("unimplemented host function")
	ErrUnsupportedRuntime = errors.New("unsupported runtime")
	ErrNoTransaction      = errors.New("no storage transaction in progress")
	ErrReadOnlyStorage    = errors.New("storage is read only")
)
