// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/ChainSafe/gossamer-light/dot/network"
	"github.com/ChainSafe/gossamer-light/dot/types"
	"github.com/ChainSafe/gossamer-light/internal/log"
	"github.com/ChainSafe/gossamer-light/lib/common"
	"github.com/ChainSafe/gossamer-light/lib/optimistic"
	"github.com/ChainSafe/gossamer-light/lib/runtime"
	"github.com/ChainSafe/gossamer-light/lib/tasks"
	"github.com/libp2p/go-libp2p-core/peer"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "sync"))

type requestResult struct {
	id     optimistic.RequestID
	blocks []types.BlockData
	err    error
}

// Service drives the verification engine with blocks downloaded from the
// network, and keeps the storage of the finalized block in memory.
// All its state is owned by the job running its loop.
type Service struct {
	engine     Engine
	network    Network
	chainIndex int
	events     <-chan network.Event
	runtime    Runtime
	database   DatabaseWriter
	notifier   Notifier
	scheduler  tasks.Submitter

	snapshot         *Snapshot
	finalizedRuntime runtime.Instance
	specVersion      uint32
	metadata         []byte
	eventsKey        []byte
	finalizedNumber  uint64

	sources  map[peer.ID]optimistic.SourceID
	requests map[optimistic.RequestID]context.CancelFunc
	results  chan requestResult

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a sync service. When a runtime builder is configured,
// the runtime of the finalized block is built from the finalized storage;
// it panics if that runtime is malformed.
func NewService(cfg Config) (*Service, error) {
	err := cfg.validate()
	if err != nil {
		return nil, err
	}

	logger.Patch(log.SetLevel(cfg.LogLvl))

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		engine:          cfg.Engine,
		network:         cfg.Network,
		chainIndex:      cfg.ChainIndex,
		events:          cfg.Events,
		runtime:         cfg.Runtime,
		database:        cfg.Database,
		notifier:        cfg.Notifier,
		scheduler:       cfg.Scheduler,
		snapshot:        NewSnapshot(cfg.FinalizedStorage),
		eventsKey:       common.StoragePrefix("System", "Events"),
		finalizedNumber: cfg.ChainInformation.FinalizedHeader.Number,
		sources:         make(map[peer.ID]optimistic.SourceID),
		requests:        make(map[optimistic.RequestID]context.CancelFunc),
		results:         make(chan requestResult),
		ctx:             ctx,
		cancel:          cancel,
		done:            make(chan struct{}),
	}

	if s.runtime != nil {
		s.finalizedRuntime = s.buildFinalizedRuntime(s.finalizedNumber)
		err = s.updateRuntimeInformation()
		if err != nil {
			logger.Warnf("cannot query the finalized runtime: %s", err)
		}
	}

	finalizedBlockGauge.Set(float64(s.finalizedNumber))

	return s, nil
}

// Start submits the loop of the service to the scheduler. The loop stops
// once the network events channel is closed.
func (s *Service) Start() error {
	return s.scheduler.Submit(s.run)
}

// Done is closed once the loop of the service has stopped.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

func (s *Service) run() {
	defer s.shutdown()

	for {
		s.processBlocks()
		s.processRequestActions()

		select {
		case event, ok := <-s.events:
			if !ok {
				logger.Info("network events channel closed, stopping sync")
				return
			}
			s.handleEvent(event)
		case result := <-s.results:
			s.handleRequestResult(result)
		}
	}
}

func (s *Service) shutdown() {
	for id, cancel := range s.requests {
		cancel()
		delete(s.requests, id)
	}
	requestsInflightGauge.Set(0)

	s.cancel()
	close(s.done)

	if s.finalizedRuntime != nil {
		err := s.finalizedRuntime.Close(context.Background())
		if err != nil {
			logger.Debugf("closing finalized runtime: %s", err)
		}
	}
}

// processBlocks calls the engine until it has nothing left to process.
func (s *Service) processBlocks() {
	p := &processor{service: s, now: time.Now()}
	outcome := s.engine.ProcessOne(p.now)
	for outcome != nil {
		p.next = nil
		outcome.Accept(p)
		outcome = p.next
	}
}

func (s *Service) processRequestActions() {
	for {
		action, ok := s.engine.NextRequestAction()
		if !ok {
			return
		}

		switch action := action.(type) {
		case optimistic.StartRequest:
			s.startRequest(action)
		case optimistic.CancelRequest:
			s.cancelRequest(action.ID)
		default:
			panic(fmt.Sprintf("unknown request action %T", action))
		}
	}
}

func (s *Service) startRequest(start optimistic.StartRequest) {
	ctx, cancel := context.WithCancel(s.ctx)
	config := network.BlocksRequestConfig{
		StartNumber: start.StartHeight,
		Count:       start.Count,
		Direction:   network.Ascending,
		Fields: network.BlocksRequestFields{
			Header:        true,
			Body:          true,
			Justification: true,
		},
	}

	err := s.scheduler.Submit(func() {
		blocks, err := s.network.BlocksRequest(ctx, start.Peer, s.chainIndex, config)
		select {
		case s.results <- requestResult{id: start.ID, blocks: blocks, err: err}:
		case <-s.done:
		}
	})
	if err != nil {
		cancel()
		s.finishRequest(start.ID, nil, err)
		return
	}

	s.requests[start.ID] = cancel
	requestsInflightGauge.Set(float64(len(s.requests)))
	logger.Tracef("started request %d for %d blocks from #%d to %s",
		start.ID, start.Count, start.StartHeight, start.Peer)
}

// cancelRequest aborts a request. Its result, if any arrives, is discarded.
func (s *Service) cancelRequest(id optimistic.RequestID) {
	cancel, ok := s.requests[id]
	if !ok {
		return
	}
	cancel()
	delete(s.requests, id)
	requestsInflightGauge.Set(float64(len(s.requests)))
	logger.Tracef("cancelled request %d", id)
}

func (s *Service) handleRequestResult(result requestResult) {
	cancel, ok := s.requests[result.id]
	if !ok {
		logger.Tracef("discarding result of cancelled request %d", result.id)
		return
	}
	cancel()
	delete(s.requests, result.id)
	requestsInflightGauge.Set(float64(len(s.requests)))

	if result.err != nil {
		s.finishRequest(result.id, nil, result.err)
		return
	}

	blocks := make([]optimistic.RequestSuccessBlock, len(result.blocks))
	for i, block := range result.blocks {
		blocks[i] = optimistic.RequestSuccessBlock{
			ScaleEncodedHeader:        block.Header,
			ScaleEncodedExtrinsics:    block.Body,
			ScaleEncodedJustification: block.Justification,
		}
	}
	s.finishRequest(result.id, blocks, nil)
}

func (s *Service) finishRequest(id optimistic.RequestID, blocks []optimistic.RequestSuccessBlock, err error) {
	if err != nil {
		logger.Debugf("request %d failed: %s", id, err)
		err = fmt.Errorf("%w: %s", optimistic.ErrBlocksUnavailable, err)
	}

	err = s.engine.FinishRequest(id, blocks, err)
	if err != nil {
		logger.Debugf("finishing request %d: %s", id, err)
	}
}

func (s *Service) handleEvent(event network.Event) {
	switch event := event.(type) {
	case network.Connected:
		if event.ChainIndex != s.chainIndex {
			return
		}
		if _, ok := s.sources[event.Peer]; ok {
			s.removeSource(event.Peer)
		}
		s.sources[event.Peer] = s.engine.AddSource(event.Peer, event.BestNumber)
		logger.Debugf("added source %s with best block #%d", event.Peer, event.BestNumber)
	case network.Disconnected:
		if event.ChainIndex != s.chainIndex {
			return
		}
		s.removeSource(event.Peer)
	case network.BlockAnnounce:
		if event.ChainIndex != s.chainIndex {
			return
		}
		id, ok := s.sources[event.Peer]
		if !ok {
			logger.Debugf("ignoring block announce of unknown source %s", event.Peer)
			return
		}
		header, err := types.DecodeHeader(event.Header)
		if err != nil {
			logger.Debugf("ignoring invalid block announce of %s: %s", event.Peer, err)
			return
		}
		s.engine.RaiseSourceBestBlock(id, header.Number)
	default:
		panic(fmt.Sprintf("unknown network event %T", event))
	}
}

func (s *Service) removeSource(p peer.ID) {
	id, ok := s.sources[p]
	if !ok {
		logger.Debugf("disconnected peer %s is not a source", p)
		return
	}
	delete(s.sources, p)

	_, requests := s.engine.RemoveSource(id)
	for _, requestID := range requests {
		s.cancelRequest(requestID)
	}
	logger.Debugf("removed source %s, cancelled %d requests", p, len(requests))
}

func (s *Service) reportBest(number uint64) {
	bestBlockGauge.Set(float64(number))
	s.notifier.BestBlockUpdated(number)
}

func (s *Service) reportFinalized(number uint64) {
	if number <= s.finalizedNumber {
		return
	}
	s.finalizedNumber = number
	finalizedBlockGauge.Set(float64(number))
	s.notifier.FinalizedBlockUpdated(number)
}
