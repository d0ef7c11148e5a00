// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ChainSafe/gossamer-light/dot/network"
	"github.com/ChainSafe/gossamer-light/dot/state"
	"github.com/ChainSafe/gossamer-light/dot/types"
	"github.com/ChainSafe/gossamer-light/lib/common"
	"github.com/ChainSafe/gossamer-light/lib/optimistic"
	"github.com/ChainSafe/gossamer-light/lib/runtime"
	"github.com/ChainSafe/gossamer-light/lib/tasks"
	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTimeout         = 5 * time.Second
	testPeer    peer.ID = "12D3KooWEyoppNCUx8Yx66oV9fJnriXwCcXwDDUA2kj6vnc6iDEp"
)

type goSubmitter struct{}

func (goSubmitter) Submit(job tasks.Job) error {
	go job()
	return nil
}

type stoppedSubmitter struct{}

func (stoppedSubmitter) Submit(tasks.Job) error {
	return tasks.ErrSchedulerStopped
}

type testMocks struct {
	engine   *MockEngine
	network  *MockNetwork
	database *MockDatabaseWriter
	notifier *MockNotifier
}

func newTestMocks(t *testing.T) testMocks {
	ctrl := gomock.NewController(t)
	return testMocks{
		engine:   NewMockEngine(ctrl),
		network:  NewMockNetwork(ctrl),
		database: NewMockDatabaseWriter(ctrl),
		notifier: NewMockNotifier(ctrl),
	}
}

func newTestService(t *testing.T, mocks testMocks, events <-chan network.Event,
	submitter tasks.Submitter) *Service {
	t.Helper()

	if events == nil {
		events = make(chan network.Event)
	}

	s, err := NewService(Config{
		FinalizedStorage: map[string][]byte{":code": {1}},
		Engine:           mocks.engine,
		Network:          mocks.network,
		Events:           events,
		Database:         mocks.database,
		Notifier:         mocks.notifier,
		Scheduler:        submitter,
	})
	require.NoError(t, err)
	return s
}

func waitDone(t *testing.T, s *Service) {
	t.Helper()

	select {
	case <-s.Done():
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for the sync service to stop")
	}
}

func waitSignal(t *testing.T, signal <-chan struct{}, description string) {
	t.Helper()

	select {
	case <-signal:
	case <-time.After(testTimeout):
		t.Fatalf("timed out waiting for %s", description)
	}
}

func Test_Config_validate(t *testing.T) {
	t.Parallel()

	mocks := newTestMocks(t)
	valid := Config{
		Engine:    mocks.engine,
		Network:   mocks.network,
		Events:    make(chan network.Event),
		Database:  mocks.database,
		Notifier:  mocks.notifier,
		Scheduler: goSubmitter{},
	}

	testCases := map[string]struct {
		modify func(c *Config)
		err    error
	}{
		"valid":        {modify: func(*Config) {}},
		"no engine":    {modify: func(c *Config) { c.Engine = nil }, err: ErrNoEngine},
		"no network":   {modify: func(c *Config) { c.Network = nil }, err: ErrNoNetwork},
		"no events":    {modify: func(c *Config) { c.Events = nil }, err: ErrNoEvents},
		"no database":  {modify: func(c *Config) { c.Database = nil }, err: ErrNoDatabase},
		"no notifier":  {modify: func(c *Config) { c.Notifier = nil }, err: ErrNoNotifier},
		"no scheduler": {modify: func(c *Config) { c.Scheduler = nil }, err: ErrNoScheduler},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			config := valid
			testCase.modify(&config)
			err := config.validate()
			assert.ErrorIs(t, err, testCase.err)
		})
	}
}

func Test_NewService_malformedRuntime(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		storage map[string][]byte
		build   func(r *MockRuntime)
	}{
		"no code": {
			storage: map[string][]byte{},
			build:   func(*MockRuntime) {},
		},
		"invalid heap pages": {
			storage: map[string][]byte{":code": {1}, ":heappages": {1, 2}},
			build:   func(*MockRuntime) {},
		},
		"build failure": {
			storage: map[string][]byte{":code": {1}},
			build: func(r *MockRuntime) {
				r.EXPECT().Build([]byte{1}, runtime.DefaultHeapPages).
					Return(nil, errors.New("invalid wasm"))
			},
		},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			mocks := newTestMocks(t)
			rt := NewMockRuntime(ctrl)
			testCase.build(rt)

			assert.Panics(t, func() {
				_, _ = NewService(Config{
					FinalizedStorage: testCase.storage,
					Engine:           mocks.engine,
					Network:          mocks.network,
					Events:           make(chan network.Event),
					Runtime:          rt,
					Database:         mocks.database,
					Notifier:         mocks.notifier,
					Scheduler:        goSubmitter{},
				})
			})
		})
	}
}

func Test_Service_processBlocks_storageQueries(t *testing.T) {
	t.Parallel()

	mocks := newTestMocks(t)
	s := newTestService(t, mocks, nil, goSubmitter{})
	s.snapshot = NewSnapshot(map[string][]byte{
		"ab": {1}, "abc": {2}, "ac": {3}, "b": {4},
	})

	var prefixKeys [][]byte
	var nextKey []byte
	var nextFound bool
	var value []byte
	var valueFound bool

	outcome := optimistic.NewStoragePrefixKeys([]byte("ab"), func(keys [][]byte) optimistic.Outcome {
		prefixKeys = keys
		return optimistic.NewStorageNextKey([]byte("ac"), func(key []byte, found bool) optimistic.Outcome {
			nextKey, nextFound = key, found
			return optimistic.NewStorageGet([]byte("abc"), func(v []byte, found bool) optimistic.Outcome {
				value, valueFound = v, found
				return optimistic.Idle{}
			})
		})
	})
	mocks.engine.EXPECT().ProcessOne(gomock.Any()).Return(outcome)

	s.processBlocks()

	assert.Equal(t, [][]byte{[]byte("ab"), []byte("abc")}, prefixKeys)
	assert.Equal(t, []byte("b"), nextKey)
	assert.True(t, nextFound)
	assert.Equal(t, []byte{2}, value)
	assert.True(t, valueFound)
}

func Test_Service_processBlocks_bestAndFinalized(t *testing.T) {
	t.Parallel()

	mocks := newTestMocks(t)
	s := newTestService(t, mocks, nil, goSubmitter{})

	finalized := func(number uint64, diff types.StorageDiff) optimistic.Finalized {
		return optimistic.Finalized{Blocks: []optimistic.FinalizedBlock{{
			Header:         &types.Header{Number: number},
			Hash:           common.Hash{byte(number)},
			StorageChanges: diff,
		}}}
	}

	eventsKey := common.StoragePrefix("System", "Events")
	information := types.ChainInformation{FinalizedHeader: types.Header{Number: 3}}

	gomock.InOrder(
		mocks.engine.EXPECT().ProcessOne(gomock.Any()).
			Return(optimistic.Reset{PreviousBestHeight: 4, Reason: errors.New("bad block")}),
		mocks.engine.EXPECT().ProcessOne(gomock.Any()).Return(optimistic.NewBest{Number: 5}),
		mocks.notifier.EXPECT().BestBlockUpdated(uint64(5)),
		mocks.engine.EXPECT().ProcessOne(gomock.Any()).Return(finalized(3, types.StorageDiff{
			{Key: eventsKey, Value: []byte{9}},
			{Key: []byte("a"), Value: []byte{1}},
		})),
		mocks.engine.EXPECT().ChainInformation().Return(information),
		mocks.notifier.EXPECT().FinalizedBlockUpdated(uint64(3)),
		mocks.database.EXPECT().SaveFinalized(state.FinalizedBatch{
			ChainInformation: information,
			NewMetadata:      map[uint32][]byte{},
			HeadersOnly:      true,
			Blocks: []state.FinalizedBlock{{
				Number: 3,
				Hash:   common.Hash{3},
				Events: []byte{9},
				StorageChanges: types.StorageDiff{
					{Key: eventsKey, Value: []byte{9}},
					{Key: []byte("a"), Value: []byte{1}},
				},
			}},
		}),
		// a lower finalized block is not reported again
		mocks.engine.EXPECT().ProcessOne(gomock.Any()).Return(finalized(2, types.StorageDiff{
			{Key: []byte("a"), Remove: true},
		})),
		mocks.engine.EXPECT().ChainInformation().Return(information),
		mocks.database.EXPECT().SaveFinalized(gomock.Any()).Return(errors.New("disk full")),
		mocks.engine.EXPECT().ProcessOne(gomock.Any()).Return(optimistic.Idle{}),
	)

	s.processBlocks()

	assert.Equal(t, uint64(3), s.finalizedNumber)
	_, found := s.snapshot.Get([]byte("a"))
	assert.False(t, found)
}

func Test_Service_processBlocks_runtimeUpgrade(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mocks := newTestMocks(t)
	rt := NewMockRuntime(ctrl)
	firstInstance := NewMockInstance(ctrl)
	secondInstance := NewMockInstance(ctrl)

	firstCode, secondCode := []byte{1}, []byte{2}
	eventsKey := []byte("events")

	rt.EXPECT().Build(firstCode, runtime.DefaultHeapPages).Return(firstInstance, nil)
	firstInstance.EXPECT().CoreVersion(gomock.Any()).
		Return(runtime.Version{SpecVersion: 1}, nil).Times(2)
	firstInstance.EXPECT().QueryMetadata(gomock.Any(), gomock.Any()).
		Return([]byte("first"), nil).Times(2)
	rt.EXPECT().EventsStorageKey([]byte("first")).Return(eventsKey, nil).Times(2)

	s, err := NewService(Config{
		FinalizedStorage: map[string][]byte{":code": firstCode},
		Engine:           mocks.engine,
		Network:          mocks.network,
		Events:           make(chan network.Event),
		Runtime:          rt,
		Database:         mocks.database,
		Notifier:         mocks.notifier,
		Scheduler:        goSubmitter{},
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), s.specVersion)

	heapPages := []byte{16, 0, 0, 0, 0, 0, 0, 0}
	firstDiff := types.StorageDiff{
		{Key: eventsKey, Value: []byte{7}},
		{Key: []byte("a"), Value: []byte{1}},
	}
	secondDiff := types.StorageDiff{
		{Key: []byte(":code"), Value: secondCode},
		{Key: []byte(":heappages"), Value: heapPages},
		{Key: []byte("a"), Remove: true},
	}

	mocks.engine.EXPECT().ProcessOne(gomock.Any()).Return(optimistic.Finalized{
		Blocks: []optimistic.FinalizedBlock{
			{Header: &types.Header{Number: 1}, Hash: common.Hash{1}, StorageChanges: firstDiff},
			{Header: &types.Header{Number: 2}, Hash: common.Hash{2}, StorageChanges: secondDiff},
		},
	})

	rt.EXPECT().Build(secondCode, uint32(16)).Return(secondInstance, nil)
	firstInstance.EXPECT().Close(gomock.Any()).Return(nil)
	secondInstance.EXPECT().CoreVersion(gomock.Any()).Return(runtime.Version{SpecVersion: 2}, nil)
	secondInstance.EXPECT().QueryMetadata(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, storage runtime.Storage) ([]byte, error) {
			// executed against the storage of the upgraded block
			_, found := storage.Get([]byte("a"))
			assert.False(t, found)
			return []byte("second"), nil
		})
	rt.EXPECT().EventsStorageKey([]byte("second")).Return(nil, errors.New("no events"))

	information := types.ChainInformation{FinalizedHeader: types.Header{Number: 2}}
	mocks.engine.EXPECT().ChainInformation().Return(information)
	mocks.notifier.EXPECT().FinalizedBlockUpdated(uint64(2))

	var saved state.FinalizedBatch
	mocks.database.EXPECT().SaveFinalized(gomock.Any()).
		DoAndReturn(func(batch state.FinalizedBatch) error {
			saved = batch
			return nil
		})
	mocks.engine.EXPECT().ProcessOne(gomock.Any()).Return(optimistic.Idle{})

	s.processBlocks()

	expected := state.FinalizedBatch{
		ChainInformation: information,
		NewMetadata: map[uint32][]byte{
			1: []byte("first"),
			2: []byte("second"),
		},
		Blocks: []state.FinalizedBlock{
			{Number: 1, Hash: common.Hash{1}, RuntimeSpec: 1, Events: []byte{7}, StorageChanges: firstDiff},
			{Number: 2, Hash: common.Hash{2}, RuntimeSpec: 2, StorageChanges: secondDiff},
		},
	}
	if diff := cmp.Diff(expected, saved); diff != "" {
		t.Errorf("unexpected batch (-want +got):\n%s", diff)
	}

	assert.Equal(t, common.StoragePrefix("System", "Events"), s.eventsKey)
	assert.Equal(t, map[string][]byte{
		":code":      secondCode,
		":heappages": heapPages,
		"events":     {7},
	}, snapshotMap(s.snapshot))
}

func Test_Service_handleEvent(t *testing.T) {
	t.Parallel()

	mocks := newTestMocks(t)
	s := newTestService(t, mocks, nil, goSubmitter{})

	header := types.Header{Number: 12, Digest: types.Digest{}}
	encodedHeader, err := header.Encode()
	require.NoError(t, err)

	gomock.InOrder(
		mocks.engine.EXPECT().AddSource(testPeer, uint64(10)).Return(optimistic.SourceID(3)),
		mocks.engine.EXPECT().RaiseSourceBestBlock(optimistic.SourceID(3), uint64(12)),
		// a second connection replaces the source
		mocks.engine.EXPECT().RemoveSource(optimistic.SourceID(3)).Return(testPeer, nil),
		mocks.engine.EXPECT().AddSource(testPeer, uint64(11)).Return(optimistic.SourceID(4)),
		mocks.engine.EXPECT().RemoveSource(optimistic.SourceID(4)).Return(testPeer, nil),
	)

	s.handleEvent(network.Connected{Peer: testPeer, ChainIndex: 1, BestNumber: 99})
	s.handleEvent(network.Connected{Peer: testPeer, BestNumber: 10})
	s.handleEvent(network.BlockAnnounce{Peer: testPeer, ChainIndex: 1, Header: encodedHeader})
	s.handleEvent(network.BlockAnnounce{Peer: testPeer, Header: encodedHeader, IsBest: true})
	s.handleEvent(network.BlockAnnounce{Peer: "unknown", Header: encodedHeader})
	s.handleEvent(network.BlockAnnounce{Peer: testPeer, Header: []byte{1, 2}})
	s.handleEvent(network.Connected{Peer: testPeer, BestNumber: 11})
	s.handleEvent(network.Disconnected{Peer: testPeer, ChainIndex: 1})
	s.handleEvent(network.Disconnected{Peer: testPeer})
	s.handleEvent(network.Disconnected{Peer: testPeer})

	assert.Empty(t, s.sources)
}

func Test_Service_cancelledRequestResultIsDiscarded(t *testing.T) {
	t.Parallel()

	mocks := newTestMocks(t)
	s := newTestService(t, mocks, nil, goSubmitter{})

	cancelled := false
	s.requests[5] = func() { cancelled = true }

	gomock.InOrder(
		mocks.engine.EXPECT().NextRequestAction().Return(optimistic.CancelRequest{ID: 5}, true),
		mocks.engine.EXPECT().NextRequestAction().Return(nil, false),
	)
	s.processRequestActions()

	assert.True(t, cancelled)
	assert.Empty(t, s.requests)

	// FinishRequest is not expected
	s.handleRequestResult(requestResult{id: 5, err: context.Canceled})
}

func Test_Service_startRequest_schedulerStopped(t *testing.T) {
	t.Parallel()

	mocks := newTestMocks(t)
	s := newTestService(t, mocks, nil, stoppedSubmitter{})

	mocks.engine.EXPECT().FinishRequest(optimistic.RequestID(1), nil, gomock.Any()).
		DoAndReturn(func(_ optimistic.RequestID, _ []optimistic.RequestSuccessBlock, err error) error {
			assert.ErrorIs(t, err, optimistic.ErrBlocksUnavailable)
			return nil
		})

	s.startRequest(optimistic.StartRequest{ID: 1, Peer: testPeer, StartHeight: 1, Count: 1})
	assert.Empty(t, s.requests)
}

func Test_Service_requestSuccess(t *testing.T) {
	t.Parallel()

	mocks := newTestMocks(t)
	events := make(chan network.Event)
	s := newTestService(t, mocks, events, goSubmitter{})

	mocks.engine.EXPECT().ProcessOne(gomock.Any()).Return(optimistic.Idle{}).AnyTimes()
	gomock.InOrder(
		mocks.engine.EXPECT().NextRequestAction().Return(optimistic.StartRequest{
			ID: 1, Peer: testPeer, StartHeight: 5, Count: 2,
		}, true),
		mocks.engine.EXPECT().NextRequestAction().Return(nil, false).AnyTimes(),
	)

	mocks.network.EXPECT().BlocksRequest(gomock.Any(), testPeer, 0, network.BlocksRequestConfig{
		StartNumber: 5,
		Count:       2,
		Direction:   network.Ascending,
		Fields:      network.BlocksRequestFields{Header: true, Body: true, Justification: true},
	}).Return([]types.BlockData{
		{Header: []byte{5}, Body: [][]byte{{1}}, Justification: []byte{9}},
		{Header: []byte{6}, Body: [][]byte{}},
	}, nil)

	finished := make(chan struct{})
	mocks.engine.EXPECT().FinishRequest(optimistic.RequestID(1), []optimistic.RequestSuccessBlock{
		{ScaleEncodedHeader: []byte{5}, ScaleEncodedExtrinsics: [][]byte{{1}}, ScaleEncodedJustification: []byte{9}},
		{ScaleEncodedHeader: []byte{6}, ScaleEncodedExtrinsics: [][]byte{}},
	}, nil).DoAndReturn(func(optimistic.RequestID, []optimistic.RequestSuccessBlock, error) error {
		close(finished)
		return nil
	})

	require.NoError(t, s.Start())
	waitSignal(t, finished, "the request to finish")

	close(events)
	waitDone(t, s)
	assert.Empty(t, s.requests)
}

func Test_Service_requestFailure(t *testing.T) {
	t.Parallel()

	mocks := newTestMocks(t)
	events := make(chan network.Event)
	s := newTestService(t, mocks, events, goSubmitter{})

	mocks.engine.EXPECT().ProcessOne(gomock.Any()).Return(optimistic.Idle{}).AnyTimes()
	gomock.InOrder(
		mocks.engine.EXPECT().NextRequestAction().Return(optimistic.StartRequest{
			ID: 2, Peer: testPeer, StartHeight: 1, Count: 1,
		}, true),
		mocks.engine.EXPECT().NextRequestAction().Return(nil, false).AnyTimes(),
	)

	mocks.network.EXPECT().BlocksRequest(gomock.Any(), testPeer, 0, gomock.Any()).
		Return(nil, network.ErrPeerDoesNotExist)

	finished := make(chan struct{})
	mocks.engine.EXPECT().FinishRequest(optimistic.RequestID(2), nil, gomock.Any()).
		DoAndReturn(func(_ optimistic.RequestID, _ []optimistic.RequestSuccessBlock, err error) error {
			assert.ErrorIs(t, err, optimistic.ErrBlocksUnavailable)
			close(finished)
			return optimistic.ErrUnknownRequest
		})

	require.NoError(t, s.Start())
	waitSignal(t, finished, "the request to finish")

	close(events)
	waitDone(t, s)
}

func Test_Service_disconnectCancelsRequests(t *testing.T) {
	t.Parallel()

	mocks := newTestMocks(t)
	events := make(chan network.Event)
	s := newTestService(t, mocks, events, goSubmitter{})

	mocks.engine.EXPECT().ProcessOne(gomock.Any()).Return(optimistic.Idle{}).AnyTimes()
	gomock.InOrder(
		mocks.engine.EXPECT().NextRequestAction().Return(nil, false),
		mocks.engine.EXPECT().NextRequestAction().Return(optimistic.StartRequest{
			ID: 1, Source: 7, Peer: testPeer, StartHeight: 1, Count: 128,
		}, true),
		mocks.engine.EXPECT().NextRequestAction().Return(nil, false).AnyTimes(),
	)
	mocks.engine.EXPECT().AddSource(testPeer, uint64(200)).Return(optimistic.SourceID(7))
	mocks.engine.EXPECT().RemoveSource(optimistic.SourceID(7)).
		Return(testPeer, []optimistic.RequestID{1})

	requestCancelled := make(chan struct{})
	mocks.network.EXPECT().BlocksRequest(gomock.Any(), testPeer, 0, gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ peer.ID, _ int,
			_ network.BlocksRequestConfig) ([]types.BlockData, error) {
			<-ctx.Done()
			close(requestCancelled)
			return nil, ctx.Err()
		})
	// FinishRequest must not be called for a cancelled request

	require.NoError(t, s.Start())

	events <- network.Connected{Peer: testPeer, BestNumber: 200}
	events <- network.Disconnected{Peer: testPeer}
	waitSignal(t, requestCancelled, "the request to be cancelled")

	close(events)
	waitDone(t, s)

	assert.Empty(t, s.requests)
	assert.Empty(t, s.sources)
}
