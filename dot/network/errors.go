// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package network

import (
	"errors"
)

var (
	ErrOutgoingSlotsUnavailable = errors.New("no outgoing slot available")
	ErrIncomingSlotsUnavailable = errors.New("no incoming slot available")
	ErrNoDialCandidate          = errors.New("no peer to dial")
	ErrPeerDoesNotExist         = errors.New("peer does not exist")
	ErrPeerNotPending           = errors.New("peer is not being dialed")
	ErrPeerDisconnected         = errors.New("peer is already disconnected")
	ErrAlreadyConnected         = errors.New("peer is already connected")
	ErrUnknownChain             = errors.New("unknown chain index")
	ErrNoChains                 = errors.New("no chain configured")
	ErrNoEventsReceivers        = errors.New("at least one events receiver is required")
	ErrUnsupportedAddress       = errors.New("unsupported multiaddr")
	ErrServiceStopped           = errors.New("network service stopped")
)
