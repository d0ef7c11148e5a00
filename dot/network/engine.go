// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package network

import (
	"context"
	"fmt"
	"time"

	"github.com/ChainSafe/gossamer-light/dot/types"
	"github.com/ChainSafe/gossamer-light/lib/common"
	"github.com/libp2p/go-libp2p-core/peer"
)

// AgentVersion is the agent version sent to peers asking for our identity.
const AgentVersion = "gossamer-light"

// ConnectionID identifies a connection registered with the Engine.
type ConnectionID uint64

// SubstreamID identifies an inbound chain substream waiting for an answer.
type SubstreamID uint64

// Engine is the protocol state machine of the network. It does not perform
// any I/O: the service hands it the bytes received on each connection and
// writes the bytes it produces.
type Engine interface {
	// AddConnection registers a new outbound connection expected to belong
	// to the peer given, dialed in order to open the chain given.
	AddConnection(expected peer.ID, chainIndex int, now time.Time) ConnectionID
	// AddInboundConnection registers a new connection opened by a remote
	// whose identity is learnt from its handshake.
	AddInboundConnection(now time.Time) ConnectionID
	// ReadWrite processes the incoming bytes of a connection and fills its
	// outgoing buffer. An error means the connection must be closed.
	ReadWrite(id ConnectionID, rw *ReadWrite) error
	// RemoveConnection unregisters a connection after it was closed and
	// returns the identity of the remote, empty if it was never confirmed.
	RemoveConnection(id ConnectionID) (remote peer.ID)
	// NextEvent waits for the next event of the engine.
	NextEvent(ctx context.Context) (EngineEvent, error)
	// NextSubstream waits for the next inbound chain substream to answer.
	NextSubstream(ctx context.Context) (SubstreamRequest, error)
	// AnswerSubstream accepts or refuses an inbound chain substream.
	AnswerSubstream(id SubstreamID, accept bool, now time.Time)
	// BlocksRequest sends a blocks request to a peer and waits for its answer.
	BlocksRequest(ctx context.Context, now time.Time, target peer.ID, chainIndex int,
		config BlocksRequestConfig) ([]types.BlockData, error)
}

// ReadWrite is exchanged with the Engine for each step of a connection.
// Now, Incoming, ReadClosed and Outgoing are filled by the caller, the other
// fields are filled by the Engine.
type ReadWrite struct {
	Now time.Time
	// Incoming holds the bytes received and not consumed yet.
	Incoming []byte
	// ReadClosed is true when the remote closed its writing side.
	ReadClosed bool
	// Outgoing is the buffer the engine writes to.
	Outgoing []byte

	// ReadBytes is the number of bytes of Incoming consumed.
	ReadBytes int
	// WrittenBytes is the number of bytes of Outgoing written.
	WrittenBytes int
	// WakeUpAfter is the time at which ReadWrite must be called again,
	// or the zero time if there is no such deadline.
	WakeUpAfter time.Time
	// WakeUp receives a value when the engine wants ReadWrite to be called again.
	WakeUp <-chan struct{}
	// WriteClosed is true when the engine closed its writing side. Nothing
	// is written to Outgoing afterwards.
	WriteClosed bool
}

// SubstreamRequest is a chain substream a peer wants to open.
type SubstreamRequest struct {
	ID         SubstreamID
	Peer       peer.ID
	ChainIndex int
}

// EngineEvent is an event produced by the Engine. It is one of
// PeerConnected, PeerDisconnected, ChainConnected, ChainDisconnected,
// AnnounceReceived or IdentifyRequest.
type EngineEvent interface {
	isEngineEvent()
}

// PeerConnected is produced once the identity of a peer is confirmed.
type PeerConnected struct {
	Peer peer.ID
}

// PeerDisconnected is produced when the last connection with a peer closed.
// ChainIndices lists the chains that were open with the peer.
type PeerDisconnected struct {
	Peer         peer.ID
	ChainIndices []int
}

// ChainConnected is produced when a chain substream is open with a peer.
type ChainConnected struct {
	Peer       peer.ID
	ChainIndex int
	BestNumber uint64
	BestHash   common.Hash
}

// ChainDisconnected is produced when a chain substream is closed.
type ChainDisconnected struct {
	Peer       peer.ID
	ChainIndex int
}

// AnnounceReceived is produced when a peer announces a block.
type AnnounceReceived struct {
	Peer       peer.ID
	ChainIndex int
	Header     []byte
	IsBest     bool
}

// IdentifyRequest is produced when a peer asks for our identity.
// Respond must be called exactly once.
type IdentifyRequest struct {
	Peer    peer.ID
	Respond func(agentVersion string)
}

func (PeerConnected) isEngineEvent()     {}
func (PeerDisconnected) isEngineEvent()  {}
func (ChainConnected) isEngineEvent()    {}
func (ChainDisconnected) isEngineEvent() {}
func (AnnounceReceived) isEngineEvent()  {}
func (IdentifyRequest) isEngineEvent()   {}

// BlocksRequestDirection is the order in which blocks are returned.
type BlocksRequestDirection byte

const (
	// Ascending returns the start block then its descendants.
	Ascending BlocksRequestDirection = iota
	// Descending returns the start block then its ancestors.
	Descending
)

func (d BlocksRequestDirection) String() string {
	switch d {
	case Ascending:
		return "ascending"
	case Descending:
		return "descending"
	default:
		return fmt.Sprintf("direction(%d)", byte(d))
	}
}

// BlocksRequestFields selects the parts of the blocks to return.
type BlocksRequestFields struct {
	Header        bool
	Body          bool
	Justification bool
}

// BlocksRequestConfig describes a blocks request.
type BlocksRequestConfig struct {
	StartNumber uint64
	Count       uint32
	Direction   BlocksRequestDirection
	Fields      BlocksRequestFields
}

func (c BlocksRequestConfig) String() string {
	return fmt.Sprintf("start=#%d count=%d %s header=%t body=%t justification=%t",
		c.StartNumber, c.Count, c.Direction, c.Fields.Header, c.Fields.Body, c.Fields.Justification)
}
