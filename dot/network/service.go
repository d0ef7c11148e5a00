// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package network

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ChainSafe/gossamer-light/dot/types"
	"github.com/ChainSafe/gossamer-light/internal/log"
	"github.com/ChainSafe/gossamer-light/lib/tasks"
	"github.com/google/uuid"
	"github.com/libp2p/go-libp2p-core/peer"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "network"))

// Service connects to the peers of the chains configured and publishes
// the events of the network to its event queues.
type Service struct {
	ctx    context.Context
	cancel context.CancelFunc

	engine       Engine
	transport    Transport
	scheduler    tasks.Submitter
	slots        *slotTable
	chains       []ChainConfig
	dialInterval time.Duration
	dialTimeout  time.Duration

	// importantPeers are the bootstrap nodes. Problems with them
	// are logged at a higher level.
	importantPeers map[peer.ID]struct{}

	senders []chan Event
}

// NewService creates the network service and starts its background jobs:
// the event relay, one dialer per chain and the substream acceptor.
// It returns the event queues, all of which must be drained regularly.
func NewService(cfg Config) (*Service, []<-chan Event, error) {
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, nil, err
	}

	logger.Patch(log.SetLevel(cfg.LogLvl))

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		ctx:            ctx,
		cancel:         cancel,
		engine:         cfg.Engine,
		transport:      cfg.Transport,
		scheduler:      cfg.Scheduler,
		slots:          newSlotTable(len(cfg.Chains), cfg.InSlots, cfg.OutSlots),
		chains:         cfg.Chains,
		dialInterval:   cfg.DialInterval,
		dialTimeout:    cfg.DialTimeout,
		importantPeers: make(map[peer.ID]struct{}),
	}

	for chainIndex, chain := range cfg.Chains {
		for _, info := range chain.BootstrapNodes {
			s.importantPeers[info.ID] = struct{}{}
			s.slots.insertPeer(chainIndex, info)
		}
	}

	receivers := make([]<-chan Event, cfg.NumEventsReceivers)
	s.senders = make([]chan Event, cfg.NumEventsReceivers)
	for i := range s.senders {
		s.senders[i] = make(chan Event, cfg.EventsQueueCapacity)
		receivers[i] = s.senders[i]
	}

	err := s.scheduler.Submit(s.relayEvents)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("submitting event relay: %w", err)
	}

	for chainIndex := range cfg.Chains {
		chainIndex := chainIndex
		err = s.scheduler.Submit(func() { s.dial(chainIndex) })
		if err != nil {
			cancel()
			return nil, nil, fmt.Errorf("submitting dialer of chain %d: %w", chainIndex, err)
		}
	}

	err = s.scheduler.Submit(s.acceptSubstreams)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("submitting substream acceptor: %w", err)
	}

	return s, receivers, nil
}

// Stop stops the background jobs. The event queues are closed once the
// relay has stopped.
func (s *Service) Stop() {
	s.cancel()
}

// relayEvents publishes the events of the engine to the event queues.
func (s *Service) relayEvents() {
	defer func() {
		for _, sender := range s.senders {
			close(sender)
		}
		logger.Debug("event relay stopped")
	}()

	for {
		engineEvent, err := s.engine.NextEvent(s.ctx)
		if err != nil {
			return
		}

		for _, event := range s.translate(engineEvent) {
			if !s.publish(event) {
				return
			}
		}
	}
}

// translate turns an engine event into the events to publish, if any.
func (s *Service) translate(engineEvent EngineEvent) []Event {
	switch e := engineEvent.(type) {
	case PeerConnected:
		logger.Infof("connected to %s", e.Peer)
		connectionsTotal.Inc()
		return nil
	case PeerDisconnected:
		logger.Infof("disconnected from %s (chains: %v)", e.Peer, e.ChainIndices)
		events := make([]Event, len(e.ChainIndices))
		for i, chainIndex := range e.ChainIndices {
			events[i] = Disconnected{Peer: e.Peer, ChainIndex: chainIndex}
		}
		return events
	case ChainConnected:
		logger.Debugf("connection(%s) => chain connected(%d, #%d, %s)",
			e.Peer, e.ChainIndex, e.BestNumber, e.BestHash.Short())
		return []Event{Connected{
			Peer:       e.Peer,
			ChainIndex: e.ChainIndex,
			BestNumber: e.BestNumber,
			BestHash:   e.BestHash,
		}}
	case ChainDisconnected:
		logger.Debugf("connection(%s) => chain disconnected(%d)", e.Peer, e.ChainIndex)
		if s.slots.disconnectIncomingChain(e.ChainIndex, e.Peer) {
			logger.Debugf("connection(%s) => incoming slot of chain %d freed", e.Peer, e.ChainIndex)
		}
		return []Event{Disconnected{Peer: e.Peer, ChainIndex: e.ChainIndex}}
	case AnnounceReceived:
		logger.Debugf("connection(%s) => block announce(%d, %s, is_best=%t)",
			e.Peer, e.ChainIndex, types.HashEncodedHeader(e.Header).Short(), e.IsBest)
		return []Event{BlockAnnounce{
			Peer:       e.Peer,
			ChainIndex: e.ChainIndex,
			Header:     e.Header,
			IsBest:     e.IsBest,
		}}
	case IdentifyRequest:
		logger.Debugf("connection(%s) => identify request", e.Peer)
		e.Respond(AgentVersion)
		return nil
	default:
		panic(fmt.Sprintf("unknown engine event type %T", engineEvent))
	}
}

// publish sends the event to every queue, blocking while a queue is full.
// The event is only cloned when there is more than one queue.
// It returns false if the service was stopped.
func (s *Service) publish(event Event) bool {
	eventsTotal.WithLabelValues(event.kind()).Inc()

	last := len(s.senders) - 1
	for i, sender := range s.senders {
		toSend := event
		if i != last {
			toSend = event.clone()
		}

		select {
		case sender <- toSend:
		case <-s.ctx.Done():
			return false
		}
	}

	return true
}

// dial tries to fill an outbound slot of the chain at each interval.
func (s *Service) dial(chainIndex int) {
	ticker := time.NewTicker(s.dialInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}

		info, err := s.slots.tryOutgoing(chainIndex)
		if err != nil {
			if !errors.Is(err, ErrOutgoingSlotsUnavailable) && !errors.Is(err, ErrNoDialCandidate) {
				logger.Errorf("reserving outgoing slot: %s", err)
			}
			continue
		}

		logger.Debugf("pending(%s) started: %v", info.ID, info.Addrs)

		err = s.scheduler.Submit(func() { s.runConnection(chainIndex, info) })
		if err != nil {
			logger.Errorf("submitting connection to %s: %s", info.ID, err)
			s.releasePending(chainIndex, info.ID)
		}
	}
}

func (s *Service) isImportant(p peer.ID) bool {
	_, ok := s.importantPeers[p]
	return ok
}

func (s *Service) releasePending(chainIndex int, p peer.ID) {
	err := s.slots.releasePending(chainIndex, p)
	if err != nil {
		logger.Errorf("releasing pending slot: %s", err)
	}
}

// runConnection dials the peer given and drives the connection until it closes.
func (s *Service) runConnection(chainIndex int, info peer.AddrInfo) {
	conn, err := s.dialAny(info)
	if err != nil {
		if s.isImportant(info.ID) {
			logger.Warnf("failed to reach %s: %s", info.ID, err)
		} else {
			logger.Debugf("pending(%s) => failed to reach: %s", info.ID, err)
		}
		s.releasePending(chainIndex, info.ID)
		return
	}

	err = s.slots.confirm(chainIndex, info.ID)
	if err != nil {
		logger.Errorf("confirming slot: %s", err)
	}

	id := s.engine.AddConnection(info.ID, chainIndex, time.Now())
	logger.Debugf("pending(%s) => connection(%d)", info.ID, id)

	s.handleConnection(id, conn, info.ID)

	if err := s.slots.disconnect(chainIndex, info.ID); err != nil {
		logger.Errorf("releasing slot: %s", err)
	}
}

// AcceptConnection drives a connection opened by a remote peer.
func (s *Service) AcceptConnection(conn Connection) error {
	if s.ctx.Err() != nil {
		return ErrServiceStopped
	}

	return s.scheduler.Submit(func() {
		id := s.engine.AddInboundConnection(time.Now())
		logger.Debugf("connection(%d) accepted from %s", id, conn.RemoteMultiaddr())
		s.handleConnection(id, conn, "")
	})
}

// handleConnection drives a connection registered with the engine, then
// unregisters it and frees the incoming slots of its remote.
func (s *Service) handleConnection(id ConnectionID, conn Connection, expected peer.ID) {
	err := s.driveConnection(id, conn)

	remote := s.engine.RemoveConnection(id)
	_ = conn.Close()
	if remote != "" {
		s.slots.disconnectIncoming(remote)
	}

	if remote == "" {
		remote = expected
	}

	switch {
	case err == nil:
		logger.Debugf("connection(%d, %s) => closed gracefully", id, remote)
	case warnOnClose(err, s.isImportant(remote)):
		logger.Warnf("error in connection with %s: %s", remote, err)
	default:
		logger.Debugf("connection(%d, %s) => closed: %s", id, remote, err)
	}
}

// warnOnClose returns true if the error ending a connection is logged as
// a warning. Stopping the service ends connections without error.
func warnOnClose(err error, important bool) bool {
	if err == nil || errors.Is(err, ErrServiceStopped) {
		return false
	}
	return important
}

func (s *Service) dialAny(info peer.AddrInfo) (conn Connection, err error) {
	err = fmt.Errorf("%w: %s has no address", ErrUnsupportedAddress, info.ID)
	for _, addr := range info.Addrs {
		ctx, cancel := context.WithTimeout(s.ctx, s.dialTimeout)
		conn, err = s.transport.Dial(ctx, addr)
		cancel()
		if err == nil {
			return conn, nil
		}
	}
	return nil, err
}

// driveConnection exchanges bytes between the connection and the engine
// until either side closes. It returns nil on graceful close.
func (s *Service) driveConnection(id ConnectionID, conn Connection) error {
	writeBuffer := make([]byte, writeBufferSize)
	writeClosed := false

	for {
		incoming, readClosed, err := conn.ReadBuffer()
		if err != nil {
			return fmt.Errorf("reading: %w", err)
		}

		now := time.Now()
		rw := &ReadWrite{
			Now:        now,
			Incoming:   incoming,
			ReadClosed: readClosed,
			Outgoing:   writeBuffer,
		}
		err = s.engine.ReadWrite(id, rw)
		if err != nil {
			return err
		}

		if rw.WrittenBytes != 0 && !writeClosed {
			err = conn.Write(writeBuffer[:rw.WrittenBytes])
			if err != nil {
				return fmt.Errorf("writing: %w", err)
			}
		}

		conn.AdvanceReadCursor(rw.ReadBytes)

		if rw.WriteClosed && !writeClosed {
			writeClosed = true
			err = conn.CloseWrite()
			if err != nil {
				return fmt.Errorf("closing: %w", err)
			}
		}

		if writeClosed && readClosed && rw.ReadBytes == len(incoming) {
			return nil
		}

		var timer *time.Timer
		var deadline <-chan time.Time
		if !rw.WakeUpAfter.IsZero() {
			if !rw.WakeUpAfter.After(now) {
				tasks.Yield()
				continue
			}
			timer = time.NewTimer(rw.WakeUpAfter.Sub(now))
			deadline = timer.C
		}

		var readable <-chan struct{}
		if !readClosed {
			readable = conn.Readable()
		}

		select {
		case <-s.ctx.Done():
		case <-readable:
		case <-rw.WakeUp:
		case <-deadline:
		}

		if timer != nil {
			timer.Stop()
		}

		if s.ctx.Err() != nil {
			return ErrServiceStopped
		}
	}
}

// acceptSubstreams answers the chain substreams opened by peers,
// accepting them as long as incoming slots are available.
func (s *Service) acceptSubstreams() {
	for {
		request, err := s.engine.NextSubstream(s.ctx)
		if err != nil {
			return
		}

		err = s.slots.tryAcceptIncoming(request.ChainIndex, request.Peer)
		accept := err == nil
		if !accept {
			logger.Debugf("refusing substream of %s for chain %d: %s", request.Peer, request.ChainIndex, err)
		}

		s.engine.AnswerSubstream(request.ID, accept, time.Now())
	}
}

// BlocksRequest sends a blocks request to a peer connected on the chain
// given. Cancelling the context aborts the request.
func (s *Service) BlocksRequest(ctx context.Context, target peer.ID, chainIndex int,
	config BlocksRequestConfig) ([]types.BlockData, error) {
	if chainIndex < 0 || chainIndex >= len(s.chains) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownChain, chainIndex)
	}

	requestID := uuid.New()
	logger.Debugf("connection(%s) <= blocks request %s (%s)", target, requestID, config)

	ctx = ContextWithRequestID(ctx, requestID)
	blocks, err := s.engine.BlocksRequest(ctx, time.Now(), target, chainIndex, config)
	if err != nil {
		logger.Debugf("connection(%s) => blocks request %s failed: %s", target, requestID, err)
		return nil, err
	}

	logger.Debugf("connection(%s) => blocks request %s returned %d blocks", target, requestID, len(blocks))
	return blocks, nil
}

// SlotsOccupancy returns the number of incoming and outgoing slots of the
// chain occupied.
func (s *Service) SlotsOccupancy(chainIndex int) (in, out uint32) {
	return s.slots.occupancy(chainIndex)
}
