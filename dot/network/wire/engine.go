// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package wire

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ChainSafe/gossamer-light/dot/network"
	"github.com/ChainSafe/gossamer-light/dot/types"
	"github.com/ChainSafe/gossamer-light/internal/log"
	"github.com/ChainSafe/gossamer-light/lib/common"
	"github.com/libp2p/go-libp2p-core/peer"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "wire"))

var _ network.Engine = (*Engine)(nil)

type chainKey struct {
	peer       peer.ID
	chainIndex int
}

type pendingSubstream struct {
	connection network.ConnectionID
	chainIndex int
}

// Engine implements network.Engine with a framed SCALE protocol. Every
// connection starts with a handshake, then carries substreams for the
// chains both sides know.
type Engine struct {
	localPeer      peer.ID
	roles          byte
	blockProvider  BlockProvider
	pingInterval   time.Duration
	idleTimeout    time.Duration
	requestTimeout time.Duration

	mutex            sync.Mutex
	chains           []ChainConfig
	nextConnectionID network.ConnectionID
	nextSubstreamID  network.SubstreamID
	nextRequestID    uint64
	connections      map[network.ConnectionID]*connection
	peers            map[peer.ID]map[network.ConnectionID]struct{}
	// chainOwners is the connection holding the substream of a chain with
	// a peer, whether it is open or being opened.
	chainOwners map[chainKey]network.ConnectionID
	substreams  map[network.SubstreamID]pendingSubstream

	events            []network.EngineEvent
	eventsReady       chan struct{}
	substreamRequests []network.SubstreamRequest
	substreamsReady   chan struct{}
}

// NewEngine creates an engine without any connection.
func NewEngine(cfg Config) (*Engine, error) {
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger.Patch(log.SetLevel(cfg.LogLvl))

	chains := make([]ChainConfig, len(cfg.Chains))
	copy(chains, cfg.Chains)

	return &Engine{
		localPeer:       cfg.LocalPeer,
		roles:           cfg.Roles,
		blockProvider:   cfg.BlockProvider,
		pingInterval:    cfg.PingInterval,
		idleTimeout:     cfg.IdleTimeout,
		requestTimeout:  cfg.RequestTimeout,
		chains:          chains,
		connections:     make(map[network.ConnectionID]*connection),
		peers:           make(map[peer.ID]map[network.ConnectionID]struct{}),
		chainOwners:     make(map[chainKey]network.ConnectionID),
		substreams:      make(map[network.SubstreamID]pendingSubstream),
		eventsReady:     make(chan struct{}, 1),
		substreamsReady: make(chan struct{}, 1),
	}, nil
}

// AddConnection implements network.Engine.
func (e *Engine) AddConnection(expected peer.ID, chainIndex int, now time.Time) network.ConnectionID {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	c := e.newConnection(now)
	c.outbound = true
	c.expected = expected
	c.dialedChain = chainIndex
	e.sendHandshake(c)
	return c.id
}

// AddInboundConnection implements network.Engine.
func (e *Engine) AddInboundConnection(now time.Time) network.ConnectionID {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	c := e.newConnection(now)
	e.sendHandshake(c)
	return c.id
}

func (e *Engine) newConnection(now time.Time) *connection {
	id := e.nextConnectionID
	e.nextConnectionID++

	c := newConnection(id, now)
	e.connections[id] = c
	return c
}

func (e *Engine) sendHandshake(c *connection) {
	handshake := &Handshake{
		AgentVersion: network.AgentVersion,
		PeerID:       e.localPeer,
		Roles:        e.roles,
		Chains:       make([]HandshakeChain, len(e.chains)),
	}
	for i, chain := range e.chains {
		handshake.Chains[i] = HandshakeChain(chain)
	}
	e.send(c, handshake)
}

// send queues a message on the connection, unless it is closing.
// Messages built by the engine always encode, so a failure is a
// programming error.
func (e *Engine) send(c *connection, m Message) {
	if c.closing {
		return
	}

	var err error
	c.outgoing, err = AppendFrame(c.outgoing, m)
	if err != nil {
		panic(fmt.Sprintf("queueing message: %s", err))
	}
	messagesTotal.WithLabelValues("out", m.Kind().String()).Inc()
	c.wake()
}

// RemoveConnection implements network.Engine. Pending requests of the
// connection fail and the chains it held are reported closed.
func (e *Engine) RemoveConnection(id network.ConnectionID) (remote peer.ID) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	c, ok := e.connections[id]
	if !ok {
		return ""
	}
	delete(e.connections, id)

	for requestID, request := range c.requests {
		request.result <- blocksResult{err: ErrConnectionClosed}
		delete(c.requests, requestID)
	}

	for substreamID, substream := range e.substreams {
		if substream.connection == id {
			delete(e.substreams, substreamID)
		}
	}

	var open []int
	for chainIndex, state := range c.chains {
		e.releaseChain(c, chainIndex)
		if state == chainOpen {
			open = append(open, chainIndex)
		}
	}
	sort.Ints(open)

	if !c.handshakeDone {
		return ""
	}

	connections := e.peers[c.remote]
	delete(connections, id)
	if len(connections) == 0 {
		delete(e.peers, c.remote)
		e.pushEvent(network.PeerDisconnected{Peer: c.remote, ChainIndices: open})
	} else {
		for _, chainIndex := range open {
			e.pushEvent(network.ChainDisconnected{Peer: c.remote, ChainIndex: chainIndex})
		}
	}

	return c.remote
}

func (e *Engine) releaseChain(c *connection, chainIndex int) {
	delete(c.chains, chainIndex)
	key := chainKey{peer: c.remote, chainIndex: chainIndex}
	if owner, ok := e.chainOwners[key]; ok && owner == c.id {
		delete(e.chainOwners, key)
	}
}

func (e *Engine) pushEvent(event network.EngineEvent) {
	e.events = append(e.events, event)
	select {
	case e.eventsReady <- struct{}{}:
	default:
	}
}

// NextEvent implements network.Engine.
func (e *Engine) NextEvent(ctx context.Context) (network.EngineEvent, error) {
	for {
		e.mutex.Lock()
		if len(e.events) > 0 {
			event := e.events[0]
			e.events[0] = nil
			e.events = e.events[1:]
			e.mutex.Unlock()
			return event, nil
		}
		e.mutex.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-e.eventsReady:
		}
	}
}

// NextSubstream implements network.Engine.
func (e *Engine) NextSubstream(ctx context.Context) (network.SubstreamRequest, error) {
	for {
		e.mutex.Lock()
		if len(e.substreamRequests) > 0 {
			request := e.substreamRequests[0]
			e.substreamRequests = e.substreamRequests[1:]
			e.mutex.Unlock()
			return request, nil
		}
		e.mutex.Unlock()

		select {
		case <-ctx.Done():
			return network.SubstreamRequest{}, ctx.Err()
		case <-e.substreamsReady:
		}
	}
}

// AnswerSubstream implements network.Engine. Answers to substreams whose
// connection or chain was closed meanwhile are ignored.
func (e *Engine) AnswerSubstream(id network.SubstreamID, accept bool, _ time.Time) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	substream, ok := e.substreams[id]
	if !ok {
		return
	}
	delete(e.substreams, id)

	c, ok := e.connections[substream.connection]
	if !ok || c.chains[substream.chainIndex] != chainAnswering {
		return
	}

	chain := e.chains[substream.chainIndex]
	e.send(c, &OpenChainAck{
		GenesisHash: chain.GenesisHash,
		Accepted:    accept,
		BestNumber:  chain.BestNumber,
		BestHash:    chain.BestHash,
	})

	if !accept {
		e.releaseChain(c, substream.chainIndex)
		return
	}

	c.chains[substream.chainIndex] = chainOpen
	remoteChain := c.remoteChains[chain.GenesisHash]
	e.pushEvent(network.ChainConnected{
		Peer:       c.remote,
		ChainIndex: substream.chainIndex,
		BestNumber: remoteChain.BestNumber,
		BestHash:   remoteChain.BestHash,
	})
}

// BlocksRequest implements network.Engine. The request fails with
// ErrNotConnected when the chain is not open with the target.
func (e *Engine) BlocksRequest(ctx context.Context, now time.Time, target peer.ID, chainIndex int,
	config network.BlocksRequestConfig) ([]types.BlockData, error) {
	e.mutex.Lock()

	c := e.openConnection(target, chainIndex)
	if c == nil {
		e.mutex.Unlock()
		return nil, fmt.Errorf("%w: %s on chain %d", ErrNotConnected, target, chainIndex)
	}

	requestID := e.nextRequestID
	e.nextRequestID++

	if tag, ok := network.RequestIDFromContext(ctx); ok {
		logger.Debugf("connection(%d, %s) <= blocks request %s has wire id %d", c.id, target, tag, requestID)
	}

	result := make(chan blocksResult, 1)
	c.requests[requestID] = &pendingRequest{
		deadline: now.Add(e.requestTimeout),
		count:    config.Count,
		result:   result,
	}

	e.send(c, &BlocksRequest{
		ID:          requestID,
		GenesisHash: e.chains[chainIndex].GenesisHash,
		StartNumber: config.StartNumber,
		Count:       config.Count,
		Direction:   byte(config.Direction),
		Fields:      encodeFields(config.Fields),
	})
	e.mutex.Unlock()

	select {
	case r := <-result:
		return r.blocks, r.err
	case <-ctx.Done():
		e.mutex.Lock()
		delete(c.requests, requestID)
		e.mutex.Unlock()
		return nil, ctx.Err()
	}
}

// openConnection returns the connection holding the open substream of
// the chain with the peer, or nil.
func (e *Engine) openConnection(p peer.ID, chainIndex int) *connection {
	id, ok := e.chainOwners[chainKey{peer: p, chainIndex: chainIndex}]
	if !ok {
		return nil
	}

	c, ok := e.connections[id]
	if !ok || c.chains[chainIndex] != chainOpen {
		return nil
	}
	return c
}

// AnnounceBlock announces a block to every peer the chain is open with.
// When isBest is true, the block becomes the best block sent in later
// handshakes and substream answers.
func (e *Engine) AnnounceBlock(chainIndex int, header []byte, isBest bool) error {
	decoded, err := types.DecodeHeader(header)
	if err != nil {
		return fmt.Errorf("decoding announced header: %w", err)
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	if chainIndex < 0 || chainIndex >= len(e.chains) {
		return fmt.Errorf("%w: %d", network.ErrUnknownChain, chainIndex)
	}

	chain := &e.chains[chainIndex]
	if isBest {
		chain.BestNumber = decoded.Number
		chain.BestHash = types.HashEncodedHeader(header)
	}

	for _, c := range e.connections {
		if c.chains[chainIndex] != chainOpen {
			continue
		}
		e.send(c, &BlockAnnounce{
			GenesisHash: chain.GenesisHash,
			Header:      header,
			IsBest:      isBest,
		})
	}

	return nil
}

func (e *Engine) chainIndex(genesisHash common.Hash) (int, bool) {
	for i, chain := range e.chains {
		if chain.GenesisHash == genesisHash {
			return i, true
		}
	}
	return 0, false
}

// respondIdentify answers an identify request, unless the connection
// closed meanwhile.
func (e *Engine) respondIdentify(id network.ConnectionID, requestID uint64, agentVersion string) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	c, ok := e.connections[id]
	if !ok || c.closing {
		return
	}
	e.send(c, &IdentifyResponse{ID: requestID, AgentVersion: agentVersion})
}

func encodeFields(fields network.BlocksRequestFields) (b byte) {
	if fields.Header {
		b |= FieldHeader
	}
	if fields.Body {
		b |= FieldBody
	}
	if fields.Justification {
		b |= FieldJustification
	}
	return b
}

func decodeFields(b byte) network.BlocksRequestFields {
	return network.BlocksRequestFields{
		Header:        b&FieldHeader != 0,
		Body:          b&FieldBody != 0,
		Justification: b&FieldJustification != 0,
	}
}
