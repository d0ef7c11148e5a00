// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package dot

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ChainSafe/gossamer-light/dot/config"
	"github.com/ChainSafe/gossamer-light/dot/network"
	"github.com/ChainSafe/gossamer-light/dot/state"
	"github.com/ChainSafe/gossamer-light/internal/log"
	"github.com/ChainSafe/gossamer-light/internal/metrics"
	"github.com/ChainSafe/gossamer-light/lib/genesis"
	"github.com/ChainSafe/gossamer-light/lib/services"
	"github.com/ChainSafe/gossamer-light/lib/tasks"
	"github.com/ChainSafe/gossamer-light/lib/utils"
	"github.com/libp2p/go-libp2p-core/peer"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "dot"))

// Node is a container for all the components of a light node.
type Node struct {
	Name string

	scheduler *tasks.Scheduler
	services  *services.ServiceRegistry
	notifier  *statusNotifier

	mutex    sync.Mutex
	stopping bool
	network  *network.Service
	syncDone <-chan struct{}
	err      error
}

// NewNode opens the database and loads the chain of the node configuration
// given. The network and sync services are created by the first job of the
// scheduler once Start is called.
func NewNode(cfg *config.Config) (*Node, error) {
	levels, err := setupLogger(cfg)
	if err != nil {
		return nil, err
	}

	basepath := utils.ExpandDir(cfg.Global.BasePath)
	logger.Infof("🕸️ initialising node %s with chain %s in %s",
		cfg.Global.Name, cfg.Global.Chain, basepath)

	gen, err := genesis.NewGenesisFromJSONRaw(cfg.Global.Chain)
	if err != nil {
		return nil, fmt.Errorf("loading chain specification: %w", err)
	}

	dialInterval, err := cfg.Network.DialIntervalDuration()
	if err != nil {
		return nil, err
	}

	key, err := network.LoadOrGenerateKey(basepath)
	if err != nil {
		return nil, err
	}

	localPeer, err := peer.IDFromPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("deriving peer id: %w", err)
	}

	db, err := state.NewDatabase(state.Config{
		Path:     basepath,
		InMemory: cfg.Database.InMemory,
		LogLevel: levels["state"],
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	c, err := loadChain(gen, state.NewLoader(db), cfg.Network.Bootnodes)
	if err != nil {
		closeErr := db.Close()
		if closeErr != nil {
			logger.Errorf("closing database: %s", closeErr)
		}
		return nil, err
	}

	n := &Node{
		Name:      cfg.Global.Name,
		scheduler: tasks.NewScheduler(),
		services:  services.NewServiceRegistry(logger),
		notifier:  &statusNotifier{},
	}

	n.services.RegisterService(&databaseService{db: db})
	if cfg.Metrics.Enabled {
		n.services.RegisterService(metrics.NewServer(cfg.Metrics.Address, nil))
	} else {
		logger.Debug("metrics server disabled")
	}

	n.notifier.FinalizedBlockUpdated(c.information.FinalizedHeader.Number)

	setup := servicesSetup{
		config:       cfg,
		levels:       levels,
		chain:        c,
		localPeer:    localPeer,
		dialInterval: dialInterval,
		writer:       state.NewWriter(db),
	}
	err = n.scheduler.Submit(func() { n.initialise(setup) })
	if err != nil {
		return nil, fmt.Errorf("submitting initialisation: %w", err)
	}

	logger.Infof("node %s created with peer id %s", n.Name, localPeer)
	return n, nil
}

// initialise creates the network and sync services, unless the node is
// already stopping.
func (n *Node) initialise(setup servicesSetup) {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	if n.stopping {
		return
	}

	err := n.createServices(setup)
	if err != nil {
		n.err = err
		logger.Criticalf("initialisation failed: %s", err)
		n.scheduler.Close()
		return
	}

	logger.Info("initialization complete")
}

// Start starts the node services and runs the scheduler until the
// node is stopped, either by Stop or by an interrupt signal.
func (n *Node) Start() error {
	logger.Info("🕸️ starting node services...")

	err := n.services.StartAll()
	if err != nil {
		return err
	}

	runDone := make(chan struct{})
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	go func() {
		select {
		case <-sigc:
			logger.Info("signal interrupt, shutting down...")
			n.Stop()
		case <-runDone:
		}
	}()

	n.scheduler.Run()
	close(runDone)

	n.services.StopAll()

	n.mutex.Lock()
	defer n.mutex.Unlock()
	return n.err
}

// Stop stops the network service, waits for the sync service to drain
// its events and closes the scheduler. Start returns once all the jobs
// are complete.
func (n *Node) Stop() {
	n.mutex.Lock()
	if n.stopping {
		n.mutex.Unlock()
		return
	}
	n.stopping = true
	networkService, syncDone := n.network, n.syncDone
	n.mutex.Unlock()

	logger.Info("stopping node...")

	if networkService != nil {
		networkService.Stop()
	}

	if syncDone != nil {
		<-syncDone
	}

	n.scheduler.Close()
}
