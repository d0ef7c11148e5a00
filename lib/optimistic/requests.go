// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package optimistic

import (
	"fmt"

	"github.com/libp2p/go-libp2p-core/peer"
)

// RequestAction is a request the caller must start or cancel.
// It is either a StartRequest or a CancelRequest.
type RequestAction interface {
	isRequestAction()
}

// StartRequest asks the caller to request Count blocks starting at
// StartHeight in ascending order from the source.
type StartRequest struct {
	ID          RequestID
	Source      SourceID
	Peer        peer.ID
	StartHeight uint64
	Count       uint32
}

func (StartRequest) isRequestAction() {}

// CancelRequest asks the caller to abort a request previously started.
// The request must not be finished afterwards.
type CancelRequest struct {
	ID RequestID
}

func (CancelRequest) isRequestAction() {}

// RequestSuccessBlock is a block received in answer to a request.
type RequestSuccessBlock struct {
	ScaleEncodedHeader        []byte
	ScaleEncodedExtrinsics    [][]byte
	ScaleEncodedJustification []byte
}

type request struct {
	source SourceID
	start  uint64
	count  uint32
}

func (r *request) end() uint64 { return r.start + uint64(r.count) }

type downloadedRange struct {
	source SourceID
	blocks []RequestSuccessBlock
}

// NextRequestAction returns the next request to start or cancel, if any.
func (s *Sync) NextRequestAction() (action RequestAction, ok bool) {
	if len(s.cancels) > 0 {
		action = s.cancels[0]
		s.cancels = s.cancels[1:]
		return action, true
	}

	height, limit, ok := s.nextMissingHeight()
	if !ok {
		return nil, false
	}

	sourceID, src, ok := s.pickSource(height)
	if !ok {
		return nil, false
	}

	if src.bestNumber < limit {
		limit = src.bestNumber
	}

	count := limit - height + 1
	if count > uint64(s.config.BlocksRequestGranularity) {
		count = uint64(s.config.BlocksRequestGranularity)
	}

	s.nextRequestID++
	id := s.nextRequestID
	s.requests[id] = &request{source: sourceID, start: height, count: uint32(count)}
	src.busy = true
	s.lastSource = sourceID

	return StartRequest{
		ID:          id,
		Source:      sourceID,
		Peer:        src.peer,
		StartHeight: height,
		Count:       uint32(count),
	}, true
}

// nextMissingHeight returns the lowest height above the best block neither
// downloaded nor requested, and the highest height a request may reach.
func (s *Sync) nextMissingHeight() (height, limit uint64, ok bool) {
	limit = s.bestNumber + s.config.DownloadAheadBlocks
	capacityLimit := s.chainInfo.FinalizedHeader.Number + uint64(s.config.BlocksCapacity)
	if capacityLimit < limit {
		limit = capacityLimit
	}

	height = s.bestNumber + 1
	for height <= limit {
		end, covered := s.coveredUntil(height)
		if !covered {
			return height, limit, true
		}
		height = end
	}

	return 0, 0, false
}

// coveredUntil returns the end of the downloaded range or in-flight
// request covering the height given.
func (s *Sync) coveredUntil(height uint64) (end uint64, covered bool) {
	for start, r := range s.downloaded {
		rangeEnd := start + uint64(len(r.blocks))
		if start <= height && height < rangeEnd {
			return rangeEnd, true
		}
	}

	for _, rq := range s.requests {
		if rq.start <= height && height < rq.end() {
			return rq.end(), true
		}
	}

	return 0, false
}

// pickSource returns an idle source able to provide the height given,
// rotating between sources.
func (s *Sync) pickSource(height uint64) (id SourceID, src *source, ok bool) {
	var firstID, nextID SourceID
	for candidateID, candidate := range s.sources {
		if candidate.busy || candidate.bestNumber < height ||
			(candidate.unavailableFrom != 0 && candidate.unavailableFrom <= height) {
			continue
		}

		if firstID == 0 || candidateID < firstID {
			firstID = candidateID
		}

		if candidateID > s.lastSource && (nextID == 0 || candidateID < nextID) {
			nextID = candidateID
		}
	}

	id = nextID
	if id == 0 {
		id = firstID
	}

	if id == 0 {
		return 0, nil, false
	}

	return id, s.sources[id], true
}

// FinishRequest hands the result of a request over to the engine.
// A non nil err marks the source as unable to provide the requested blocks.
func (s *Sync) FinishRequest(id RequestID, blocks []RequestSuccessBlock, err error) error {
	rq, ok := s.requests[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownRequest, id)
	}
	delete(s.requests, id)

	src, sourceKnown := s.sources[rq.source]
	if sourceKnown {
		src.busy = false
	}

	if err == nil {
		err = validateResponse(rq, blocks)
	}

	if err != nil {
		if sourceKnown {
			src.unavailableFrom = rq.start
		}
		return nil
	}

	s.downloaded[rq.start] = &downloadedRange{
		source: rq.source,
		blocks: blocks,
	}
	return nil
}

func validateResponse(rq *request, blocks []RequestSuccessBlock) error {
	if len(blocks) == 0 {
		return ErrEmptyResponse
	}

	if len(blocks) > int(rq.count) {
		return fmt.Errorf("%w: %d blocks for %d requested", ErrTooManyBlocks, len(blocks), rq.count)
	}

	for i, block := range blocks {
		if block.ScaleEncodedHeader == nil {
			return fmt.Errorf("%w: block %d of response", ErrMissingHeader, i)
		}
	}

	return nil
}
