// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package wire

import (
	"fmt"
	"time"

	"github.com/ChainSafe/gossamer-light/dot/network"
	"github.com/ChainSafe/gossamer-light/dot/types"
	"github.com/ChainSafe/gossamer-light/lib/common"
	"github.com/libp2p/go-libp2p-core/peer"
)

type chainState byte

const (
	chainClosed chainState = iota
	// chainOpening means we sent an OpenChain and wait for the ack.
	chainOpening
	// chainAnswering means the remote sent an OpenChain and the
	// network service has not answered it yet.
	chainAnswering
	chainOpen
)

type blocksResult struct {
	blocks []types.BlockData
	err    error
}

type pendingRequest struct {
	deadline time.Time
	count    uint32
	// result has a capacity of one and receives exactly one value,
	// unless the request is abandoned.
	result chan blocksResult
}

type connection struct {
	id network.ConnectionID

	outbound    bool
	expected    peer.ID
	dialedChain int

	handshakeDone bool
	remote        peer.ID
	remoteChains  map[common.Hash]HandshakeChain

	chains   map[int]chainState
	requests map[uint64]*pendingRequest

	outgoing     []byte
	closing      bool
	lastReceived time.Time
	nextPing     time.Time
	pingNonce    uint64

	waker chan struct{}
}

func newConnection(id network.ConnectionID, now time.Time) *connection {
	return &connection{
		id:           id,
		chains:       make(map[int]chainState),
		requests:     make(map[uint64]*pendingRequest),
		lastReceived: now,
		waker:        make(chan struct{}, 1),
	}
}

func (c *connection) wake() {
	select {
	case c.waker <- struct{}{}:
	default:
	}
}

// close sends a goodbye and stops processing incoming messages.
func (e *Engine) close(c *connection, reason string) {
	if c.closing {
		return
	}
	e.send(c, &Goodbye{Reason: reason})
	c.closing = true
}

func (e *Engine) protocolError(c *connection, err error) error {
	p := c.remote
	if p == "" {
		p = c.expected
	}
	return &ProtocolError{Peer: p, Err: err}
}

// ReadWrite implements network.Engine.
func (e *Engine) ReadWrite(id network.ConnectionID, rw *network.ReadWrite) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	c, ok := e.connections[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownConnection, id)
	}

	for {
		frame, consumed, err := ReadFrame(rw.Incoming[rw.ReadBytes:])
		if err != nil {
			return e.protocolError(c, err)
		}
		if consumed == 0 {
			break
		}

		rw.ReadBytes += consumed
		c.lastReceived = rw.Now
		if c.closing {
			continue
		}

		message, err := DecodeMessage(frame)
		if err != nil {
			return e.protocolError(c, err)
		}
		messagesTotal.WithLabelValues("in", message.Kind().String()).Inc()

		err = e.handleMessage(c, message, rw.Now)
		if err != nil {
			return e.protocolError(c, err)
		}
	}

	if rw.ReadClosed {
		if rw.ReadBytes != len(rw.Incoming) {
			return e.protocolError(c, fmt.Errorf("%w: stream ended inside a frame", ErrTruncatedMessage))
		}
		c.closing = true
	}

	if rw.Now.Sub(c.lastReceived) >= e.idleTimeout {
		return e.protocolError(c, ErrIdleTimeout)
	}

	if c.handshakeDone && !c.closing && !rw.Now.Before(c.nextPing) {
		c.pingNonce++
		e.send(c, &Ping{Nonce: c.pingNonce})
		c.nextPing = rw.Now.Add(e.pingInterval)
	}

	for requestID, request := range c.requests {
		if rw.Now.Before(request.deadline) {
			continue
		}
		request.result <- blocksResult{err: ErrRequestTimeout}
		delete(c.requests, requestID)
	}

	rw.WrittenBytes = copy(rw.Outgoing, c.outgoing)
	c.outgoing = c.outgoing[rw.WrittenBytes:]
	if len(c.outgoing) == 0 {
		c.outgoing = nil
		rw.WriteClosed = c.closing
	}

	rw.WakeUp = c.waker
	rw.WakeUpAfter = e.wakeUpAfter(c, rw.Now)
	return nil
}

func (e *Engine) wakeUpAfter(c *connection, now time.Time) time.Time {
	if len(c.outgoing) > 0 {
		return now
	}

	wakeUp := c.lastReceived.Add(e.idleTimeout)
	if c.handshakeDone && !c.closing && c.nextPing.Before(wakeUp) {
		wakeUp = c.nextPing
	}
	for _, request := range c.requests {
		if request.deadline.Before(wakeUp) {
			wakeUp = request.deadline
		}
	}
	return wakeUp
}

func (e *Engine) handleMessage(c *connection, message Message, now time.Time) error {
	if !c.handshakeDone {
		handshake, ok := message.(*Handshake)
		if !ok {
			return fmt.Errorf("%w: %s before handshake", ErrUnexpectedMessage, message.Kind())
		}
		return e.onHandshake(c, handshake, now)
	}

	switch m := message.(type) {
	case *OpenChain:
		e.onOpenChain(c, m)
	case *OpenChainAck:
		return e.onOpenChainAck(c, m)
	case *CloseChain:
		e.onCloseChain(c, m)
	case *BlockAnnounce:
		e.onBlockAnnounce(c, m)
	case *BlocksRequest:
		e.onBlocksRequest(c, m)
	case *BlocksResponse:
		e.onBlocksResponse(c, m)
	case *Ping:
		e.send(c, &Pong{Nonce: m.Nonce})
	case *Pong:
	case *Goodbye:
		logger.Debugf("connection(%d, %s) => goodbye: %s", c.id, c.remote, m.Reason)
		c.closing = true
	case *IdentifyRequest:
		connectionID, requestID := c.id, m.ID
		e.pushEvent(network.IdentifyRequest{
			Peer: c.remote,
			Respond: func(agentVersion string) {
				e.respondIdentify(connectionID, requestID, agentVersion)
			},
		})
	case *IdentifyResponse:
		logger.Debugf("connection(%d, %s) => agent version %q", c.id, c.remote, m.AgentVersion)
	default:
		return fmt.Errorf("%w: %s after handshake", ErrUnexpectedMessage, message.Kind())
	}

	return nil
}

func (e *Engine) onHandshake(c *connection, handshake *Handshake, now time.Time) error {
	err := handshake.PeerID.Validate()
	if err != nil {
		return fmt.Errorf("invalid peer id in handshake: %w", err)
	}
	if c.outbound && handshake.PeerID != c.expected {
		return fmt.Errorf("%w: expected %s, got %s", ErrPeerIDMismatch, c.expected, handshake.PeerID)
	}

	c.handshakeDone = true
	c.remote = handshake.PeerID
	c.nextPing = now.Add(e.pingInterval)
	c.remoteChains = make(map[common.Hash]HandshakeChain, len(handshake.Chains))
	for _, chain := range handshake.Chains {
		c.remoteChains[chain.GenesisHash] = chain
	}

	connections, ok := e.peers[c.remote]
	if !ok {
		connections = make(map[network.ConnectionID]struct{})
		e.peers[c.remote] = connections
		e.pushEvent(network.PeerConnected{Peer: c.remote})
	}
	connections[c.id] = struct{}{}

	e.send(c, &IdentifyRequest{ID: e.nextRequestID})
	e.nextRequestID++

	if !c.outbound {
		return nil
	}

	chain := e.chains[c.dialedChain]
	if _, ok := c.remoteChains[chain.GenesisHash]; !ok {
		logger.Debugf("connection(%d, %s) => chain %d not supported", c.id, c.remote, c.dialedChain)
		e.close(c, "chain not supported")
		return nil
	}

	key := chainKey{peer: c.remote, chainIndex: c.dialedChain}
	if _, ok := e.chainOwners[key]; ok {
		e.close(c, "chain already open")
		return nil
	}

	e.chainOwners[key] = c.id
	c.chains[c.dialedChain] = chainOpening
	e.send(c, &OpenChain{GenesisHash: chain.GenesisHash})
	return nil
}

func (e *Engine) onOpenChain(c *connection, m *OpenChain) {
	refuse := func() {
		e.send(c, &OpenChainAck{GenesisHash: m.GenesisHash})
	}

	chainIndex, ok := e.chainIndex(m.GenesisHash)
	if !ok {
		refuse()
		return
	}

	key := chainKey{peer: c.remote, chainIndex: chainIndex}
	if _, ok := e.chainOwners[key]; ok {
		refuse()
		return
	}

	e.chainOwners[key] = c.id
	c.chains[chainIndex] = chainAnswering

	substreamID := e.nextSubstreamID
	e.nextSubstreamID++
	e.substreams[substreamID] = pendingSubstream{connection: c.id, chainIndex: chainIndex}
	e.substreamRequests = append(e.substreamRequests, network.SubstreamRequest{
		ID:         substreamID,
		Peer:       c.remote,
		ChainIndex: chainIndex,
	})
	select {
	case e.substreamsReady <- struct{}{}:
	default:
	}
}

func (e *Engine) onOpenChainAck(c *connection, m *OpenChainAck) error {
	chainIndex, ok := e.chainIndex(m.GenesisHash)
	if !ok || c.chains[chainIndex] != chainOpening {
		return fmt.Errorf("%w: acknowledgement of a chain not being opened", ErrUnexpectedMessage)
	}

	if !m.Accepted {
		e.releaseChain(c, chainIndex)
		logger.Debugf("connection(%d, %s) => chain %d refused", c.id, c.remote, chainIndex)
		if c.outbound && chainIndex == c.dialedChain {
			e.close(c, "chain refused")
		}
		return nil
	}

	c.chains[chainIndex] = chainOpen
	e.pushEvent(network.ChainConnected{
		Peer:       c.remote,
		ChainIndex: chainIndex,
		BestNumber: m.BestNumber,
		BestHash:   m.BestHash,
	})
	return nil
}

func (e *Engine) onCloseChain(c *connection, m *CloseChain) {
	chainIndex, ok := e.chainIndex(m.GenesisHash)
	if !ok {
		return
	}

	state := c.chains[chainIndex]
	e.releaseChain(c, chainIndex)
	if state == chainOpen {
		e.pushEvent(network.ChainDisconnected{Peer: c.remote, ChainIndex: chainIndex})
	}

	// the outgoing slot of a dialed connection is only freed when the
	// connection ends
	if c.outbound && chainIndex == c.dialedChain {
		logger.Debugf("connection(%d, %s) => dialed chain %d closed", c.id, c.remote, chainIndex)
		e.close(c, "chain closed")
	}
}

func (e *Engine) onBlockAnnounce(c *connection, m *BlockAnnounce) {
	chainIndex, ok := e.chainIndex(m.GenesisHash)
	if !ok || c.chains[chainIndex] != chainOpen {
		logger.Debugf("connection(%d, %s) => announce on a closed chain", c.id, c.remote)
		return
	}

	e.pushEvent(network.AnnounceReceived{
		Peer:       c.remote,
		ChainIndex: chainIndex,
		Header:     m.Header,
		IsBest:     m.IsBest,
	})
}

func (e *Engine) onBlocksRequest(c *connection, m *BlocksRequest) {
	response := &BlocksResponse{ID: m.ID}

	chainIndex, ok := e.chainIndex(m.GenesisHash)
	if ok && e.blockProvider != nil {
		blocks, err := e.blockProvider.Blocks(chainIndex, network.BlocksRequestConfig{
			StartNumber: m.StartNumber,
			Count:       m.Count,
			Direction:   network.BlocksRequestDirection(m.Direction),
			Fields:      decodeFields(m.Fields),
		})
		if err != nil {
			logger.Debugf("connection(%d, %s) => cannot answer blocks request: %s", c.id, c.remote, err)
		} else {
			response.Blocks = blocks
		}
	}

	e.send(c, response)
}

func (e *Engine) onBlocksResponse(c *connection, m *BlocksResponse) {
	request, ok := c.requests[m.ID]
	if !ok {
		logger.Tracef("connection(%d, %s) => response to unknown request %d", c.id, c.remote, m.ID)
		return
	}
	delete(c.requests, m.ID)

	if uint64(len(m.Blocks)) > uint64(request.count) {
		request.result <- blocksResult{
			err: fmt.Errorf("%w: %d blocks for %d requested", ErrUnexpectedMessage, len(m.Blocks), request.count),
		}
		return
	}

	request.result <- blocksResult{blocks: m.Blocks}
}
