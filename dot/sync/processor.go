// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package sync

import (
	"fmt"
	"time"

	"github.com/ChainSafe/gossamer-light/dot/state"
	"github.com/ChainSafe/gossamer-light/dot/types"
	"github.com/ChainSafe/gossamer-light/lib/common"
	"github.com/ChainSafe/gossamer-light/lib/optimistic"
	"github.com/ChainSafe/gossamer-light/lib/runtime"
	"github.com/ChainSafe/gossamer-light/lib/tasks"
)

var _ optimistic.Visitor = (*processor)(nil)

// processor handles the outcomes of the engine. next is the outcome to
// handle after the current one, or nil once the engine is idle.
type processor struct {
	service *Service
	now     time.Time
	next    optimistic.Outcome
}

func (p *processor) Idle() {}

func (p *processor) Reset(r optimistic.Reset) {
	logger.Warnf("consensus issue above block #%d: %s", r.PreviousBestHeight, r.Reason)
	tasks.Yield()
	p.next = p.service.engine.ProcessOne(p.now)
}

func (p *processor) Finalized(f optimistic.Finalized) {
	p.service.handleFinalized(f)
	tasks.Yield()
	p.next = p.service.engine.ProcessOne(p.now)
}

func (p *processor) NewBest(n optimistic.NewBest) {
	p.service.reportBest(n.Number)
	tasks.Yield()
	p.next = p.service.engine.ProcessOne(p.now)
}

func (p *processor) StorageGet(r optimistic.StorageGet) {
	p.next = r.InjectValue(p.service.snapshot.Get(r.Key))
}

func (p *processor) StorageNextKey(r optimistic.StorageNextKey) {
	p.next = r.InjectKey(p.service.snapshot.NextKey(r.Key))
}

func (p *processor) StoragePrefixKeys(r optimistic.StoragePrefixKeys) {
	p.next = r.InjectKeys(p.service.snapshot.PrefixKeys(r.Prefix))
}

// handleFinalized applies the storage changes of the finalized blocks in
// order, then reports and persists them. Without a runtime the blocks were
// not executed, so the database keeps the chain information of its storage.
func (s *Service) handleFinalized(f optimistic.Finalized) {
	last := f.LastNumber()
	logger.Infof("finalized block #%d", last)

	batch := state.FinalizedBatch{
		NewMetadata: make(map[uint32][]byte),
		Blocks:      make([]state.FinalizedBlock, 0, len(f.Blocks)),
		HeadersOnly: s.runtime == nil,
	}

	for _, block := range f.Blocks {
		s.snapshot.Apply(block.StorageChanges)

		if s.runtime != nil {
			_, codeChanged := block.StorageChanges.Get(common.CodeKey)
			_, heapPagesChanged := block.StorageChanges.Get(common.HeapPagesKey)
			if codeChanged || heapPagesChanged {
				s.replaceFinalizedRuntime(block.Header.Number)
			}

			if codeChanged || heapPagesChanged || block.Header.Number == 1 {
				err := s.updateRuntimeInformation()
				if err != nil {
					logger.Errorf("cannot query the runtime of block #%d: %s", block.Header.Number, err)
				} else {
					batch.NewMetadata[s.specVersion] = s.metadata
				}
			}
		}

		batch.Blocks = append(batch.Blocks, state.FinalizedBlock{
			Number:         block.Header.Number,
			Hash:           block.Hash,
			RuntimeSpec:    s.specVersion,
			Events:         s.blockEvents(block.StorageChanges),
			StorageChanges: block.StorageChanges,
		})
	}

	batch.ChainInformation = s.engine.ChainInformation()
	s.reportFinalized(last)

	err := s.database.SaveFinalized(batch)
	if err != nil {
		logger.Errorf("saving finalized blocks up to #%d: %s", last, err)
	}
}

// blockEvents returns the events found in the storage changes of a block.
func (s *Service) blockEvents(diff types.StorageDiff) []byte {
	change, ok := diff.Get(s.eventsKey)
	if !ok || change.Remove {
		return nil
	}
	return change.Value
}

// buildFinalizedRuntime builds the runtime found in the finalized storage.
// A finalized block cannot have an invalid runtime, so failing to build it
// means the finalized storage is corrupted.
func (s *Service) buildFinalizedRuntime(number uint64) runtime.Instance {
	code, found := s.snapshot.Get(common.CodeKey)
	if !found {
		panic(fmt.Sprintf("finalized storage at block #%d has no runtime code", number))
	}

	heapPages, err := runtime.HeapPages(s.snapshot.Get(common.HeapPagesKey))
	if err != nil {
		panic(fmt.Sprintf("finalized storage at block #%d: %s", number, err))
	}

	instance, err := s.runtime.Build(code, heapPages)
	if err != nil {
		panic(fmt.Sprintf("building finalized runtime at block #%d: %s", number, err))
	}

	return instance
}

func (s *Service) replaceFinalizedRuntime(number uint64) {
	previous := s.finalizedRuntime
	s.finalizedRuntime = s.buildFinalizedRuntime(number)

	if previous != nil {
		err := previous.Close(s.ctx)
		if err != nil {
			logger.Debugf("closing previous runtime: %s", err)
		}
	}
}

// updateRuntimeInformation queries the spec version and the metadata of the
// finalized runtime, and derives the storage key of the events from it.
func (s *Service) updateRuntimeInformation() error {
	version, err := s.finalizedRuntime.CoreVersion(s.ctx)
	if err != nil {
		return fmt.Errorf("querying version: %w", err)
	}

	metadata, err := s.finalizedRuntime.QueryMetadata(s.ctx, s.snapshot)
	if err != nil {
		return fmt.Errorf("querying metadata: %w", err)
	}

	s.specVersion = version.SpecVersion
	s.metadata = metadata
	logger.Debugf("runtime %s has spec version %d", version.SpecName, version.SpecVersion)

	eventsKey, err := s.runtime.EventsStorageKey(metadata)
	if err != nil {
		logger.Debugf("using the default events storage key: %s", err)
		s.eventsKey = common.StoragePrefix("System", "Events")
		return nil
	}
	s.eventsKey = eventsKey

	return nil
}
