// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package optimistic

import (
	"errors"
	"fmt"
)

var (
	// ErrBlocksUnavailable is the failure given to FinishRequest when the
	// source could not provide the requested blocks.
	ErrBlocksUnavailable = errors.New("blocks unavailable")

	ErrUnknownRequest         = errors.New("unknown request")
	ErrUnknownSource          = errors.New("unknown source")
	ErrEmptyResponse          = errors.New("empty blocks response")
	ErrTooManyBlocks          = errors.New("more blocks than requested")
	ErrMissingHeader          = errors.New("block header missing")
	ErrMissingBody            = errors.New("block body missing")
	ErrUnexpectedNumber       = errors.New("unexpected block number")
	ErrParentHashMismatch     = errors.New("parent hash mismatch")
	ErrExtrinsicsRootMismatch = errors.New("extrinsics root mismatch")
	ErrExecutionFailed        = errors.New("block execution failed")
	ErrNoExecutor             = errors.New("no block executor for full mode")
)

// ResetError is the reason of a Reset, carrying the height of the block
// that failed verification.
type ResetError struct {
	Number uint64
	Err    error
}

func (e *ResetError) Error() string {
	return fmt.Sprintf("block #%d: %s", e.Number, e.Err)
}

func (e *ResetError) Unwrap() error { return e.Err }
