// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package wire

import (
	"errors"
	"fmt"

	"github.com/libp2p/go-libp2p-core/peer"
)

var (
	ErrTruncatedMessage   = errors.New("message truncated")
	ErrTrailingBytes      = errors.New("trailing bytes after message")
	ErrInvalidBoolean     = errors.New("invalid boolean")
	ErrValueTooLarge      = errors.New("value too large")
	ErrFrameTooLarge      = errors.New("frame too large")
	ErrEmptyFrame         = errors.New("empty frame")
	ErrUnknownMessageKind = errors.New("unknown message kind")
	ErrUnexpectedMessage  = errors.New("unexpected message")
	ErrPeerIDMismatch     = errors.New("peer id does not match the dialed peer")
	ErrIdleTimeout        = errors.New("connection idle for too long")
	ErrUnknownConnection  = errors.New("unknown connection")
	ErrNotConnected       = errors.New("chain not open with peer")
	ErrConnectionClosed   = errors.New("connection closed")
	ErrRequestTimeout     = errors.New("request timed out")
	ErrNoChains           = errors.New("no chain configured")
	ErrNoLocalPeer        = errors.New("local peer id is empty")
)

// ProtocolError is returned by ReadWrite when a peer misbehaves or the
// connection with it cannot continue.
type ProtocolError struct {
	Peer peer.ID
	Err  error
}

func (e *ProtocolError) Error() string {
	if e.Peer == "" {
		return fmt.Sprintf("protocol error: %s", e.Err)
	}
	return fmt.Sprintf("protocol error with %s: %s", e.Peer, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }
