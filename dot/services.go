// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package dot

import (
	"context"
	"fmt"
	"time"

	"github.com/ChainSafe/chaindb"
	"github.com/ChainSafe/gossamer-light/dot/config"
	"github.com/ChainSafe/gossamer-light/dot/network"
	"github.com/ChainSafe/gossamer-light/dot/network/wire"
	"github.com/ChainSafe/gossamer-light/dot/sync"
	"github.com/ChainSafe/gossamer-light/internal/log"
	"github.com/ChainSafe/gossamer-light/lib/optimistic"
	wazero_runtime "github.com/ChainSafe/gossamer-light/lib/runtime/wazero"
	"github.com/ChainSafe/gossamer-light/lib/tasks"
	"github.com/libp2p/go-libp2p-core/peer"
)

// servicesSetup is what the network and sync services are created from.
type servicesSetup struct {
	config       *config.Config
	levels       map[string]log.Level
	chain        *chain
	localPeer    peer.ID
	dialInterval time.Duration
	writer       sync.DatabaseWriter
}

// createServices creates and starts the network service, then the sync
// service of the chain over the first events queue of the network service.
func (n *Node) createServices(setup servicesSetup) error {
	networkService, events, err := createNetworkService(setup, n.scheduler)
	if err != nil {
		return fmt.Errorf("creating network service: %w", err)
	}

	syncService, err := createSyncService(setup, networkService, events[0], n)
	if err != nil {
		networkService.Stop()
		return fmt.Errorf("creating sync service: %w", err)
	}

	err = syncService.Start()
	if err != nil {
		networkService.Stop()
		return fmt.Errorf("starting sync service: %w", err)
	}

	for _, extra := range events[1:] {
		extra := extra
		err = n.scheduler.Submit(func() { logEvents(extra) })
		if err != nil {
			logger.Errorf("cannot drain network events: %s", err)
		}
	}

	n.network = networkService
	n.syncDone = syncService.Done()
	return nil
}

func createNetworkService(setup servicesSetup, scheduler *tasks.Scheduler) (
	*network.Service, []<-chan network.Event, error) {
	cfg := setup.config
	c := setup.chain
	finalizedHash := c.finalizedHash()

	logger.Debugf("creating network service for chain %s with %d bootnodes and protocol %s",
		c.name, len(c.bootnodes), c.protocolID)

	engine, err := wire.NewEngine(wire.Config{
		LocalPeer: setup.localPeer,
		Chains: []wire.ChainConfig{{
			ProtocolID:  c.protocolID,
			GenesisHash: c.genesisHash,
			BestNumber:  c.information.FinalizedHeader.Number,
			BestHash:    finalizedHash,
		}},
		LogLvl: setup.levels["network"],
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating wire engine: %w", err)
	}

	return network.NewService(network.Config{
		Engine:              engine,
		Transport:           &network.TCPTransport{},
		Scheduler:           scheduler,
		LogLvl:              setup.levels["network"],
		NumEventsReceivers:  cfg.Network.EventsReceivers,
		EventsQueueCapacity: cfg.Network.EventsQueueCapacity,
		DialInterval:        setup.dialInterval,
		InSlots:             uint32(cfg.Network.InSlots),
		OutSlots:            uint32(cfg.Network.OutSlots),
		Chains: []network.ChainConfig{{
			BootstrapNodes:     c.bootnodes,
			GenesisHash:        c.genesisHash,
			ProtocolID:         c.protocolID,
			BestNumber:         c.information.FinalizedHeader.Number,
			BestHash:           finalizedHash,
			HasGrandpaProtocol: c.information.GrandpaFinality,
		}},
	})
}

func createSyncService(setup servicesSetup, networkService *network.Service,
	events <-chan network.Event, n *Node) (*sync.Service, error) {
	cfg := setup.config

	var executor optimistic.BlockExecutor
	var runtimeBuilder sync.Runtime
	if cfg.Sync.Full {
		wazeroExecutor := wazero_runtime.NewExecutor()
		n.services.RegisterService(&executorService{executor: wazeroExecutor})
		executor = wazeroExecutor
		runtimeBuilder = wazero_runtime.NewBuilder(setup.levels["runtime"])
	}

	engine, err := optimistic.NewSync(optimistic.Config{
		ChainInformation:         setup.chain.information,
		SourcesCapacity:          cfg.Sync.SourcesCapacity,
		BlocksCapacity:           cfg.Sync.BlocksCapacity,
		BlocksRequestGranularity: cfg.Sync.BlocksRequestGranularity,
		DownloadAheadBlocks:      cfg.Sync.DownloadAheadBlocks,
		Full:                     cfg.Sync.Full,
		Executor:                 executor,
		LogLvl:                   setup.levels["sync"],
	})
	if err != nil {
		return nil, fmt.Errorf("creating sync engine: %w", err)
	}

	return sync.NewService(sync.Config{
		ChainInformation: setup.chain.information,
		FinalizedStorage: setup.chain.storage,
		Engine:           engine,
		Network:          networkService,
		ChainIndex:       0,
		Events:           events,
		Runtime:          runtimeBuilder,
		Database:         setup.writer,
		Notifier:         n.notifier,
		Scheduler:        n.scheduler,
		LogLvl:           setup.levels["sync"],
	})
}

// logEvents drains an events queue not used by the sync service.
func logEvents(events <-chan network.Event) {
	for event := range events {
		logger.Debugf("network event: %s", event)
	}
}

// databaseService closes the database when the node stops.
type databaseService struct {
	db chaindb.Database
}

func (*databaseService) Start() error { return nil }

func (d *databaseService) Stop() error {
	return d.db.Close()
}

// executorService releases the runtime executing blocks when the node stops.
type executorService struct {
	executor *wazero_runtime.Executor
}

func (*executorService) Start() error { return nil }

func (e *executorService) Stop() error {
	return e.executor.Close(context.Background())
}
