// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ChainSafe/gossamer-light/internal/log"
	"github.com/naoina/toml"
)

const (
	// DefaultBasePath is the directory holding the database and the node key.
	DefaultBasePath = "~/.gossamer-light"
	// DefaultMetricsAddress is the address the metrics server listens on.
	DefaultMetricsAddress = "localhost:9876"
)

// Config is a collection of configurations throughout the node
type Config struct {
	Global   GlobalConfig   `toml:"global,omitempty"`
	Log      LogConfig      `toml:"log,omitempty"`
	Network  NetworkConfig  `toml:"network,omitempty"`
	Sync     SyncConfig     `toml:"sync,omitempty"`
	Database DatabaseConfig `toml:"database,omitempty"`
	Metrics  MetricsConfig  `toml:"metrics,omitempty"`
}

// GlobalConfig is used for every node command
type GlobalConfig struct {
	Name     string `toml:"name,omitempty"`
	Chain    string `toml:"chain,omitempty"`
	BasePath string `toml:"basepath,omitempty"`
	LogLvl   string `toml:"log,omitempty"`
}

// LogConfig represents the log levels for individual packages
type LogConfig struct {
	CoreLvl    string `toml:"core,omitempty"`
	NetworkLvl string `toml:"network,omitempty"`
	SyncLvl    string `toml:"sync,omitempty"`
	StateLvl   string `toml:"state,omitempty"`
	RuntimeLvl string `toml:"runtime,omitempty"`
}

// NetworkConfig is the configuration of the network service
type NetworkConfig struct {
	Bootnodes           []string `toml:"bootnodes,omitempty"`
	InSlots             int      `toml:"in-slots,omitempty"`
	OutSlots            int      `toml:"out-slots,omitempty"`
	DialInterval        string   `toml:"dial-interval,omitempty"`
	EventsReceivers     int      `toml:"events-receivers,omitempty"`
	EventsQueueCapacity int      `toml:"events-queue-capacity,omitempty"`
}

// SyncConfig is the configuration of the sync service
type SyncConfig struct {
	SourcesCapacity          int    `toml:"sources-capacity,omitempty"`
	BlocksCapacity           int    `toml:"blocks-capacity,omitempty"`
	BlocksRequestGranularity uint32 `toml:"blocks-request-granularity,omitempty"`
	DownloadAheadBlocks      uint64 `toml:"download-ahead-blocks,omitempty"`
	// Full enables the execution of the finalized runtime to track its
	// version and metadata.
	Full bool `toml:"full,omitempty"`
}

// DatabaseConfig is the configuration of the database
type DatabaseConfig struct {
	InMemory bool `toml:"in-memory,omitempty"`
}

// MetricsConfig is the configuration of the prometheus metrics server
type MetricsConfig struct {
	Enabled bool   `toml:"enabled,omitempty"`
	Address string `toml:"address,omitempty"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Global: GlobalConfig{
			Name:     "gossamer-light",
			BasePath: DefaultBasePath,
			LogLvl:   "info",
		},
		Log: LogConfig{
			CoreLvl:    "info",
			NetworkLvl: "info",
			SyncLvl:    "info",
			StateLvl:   "info",
			RuntimeLvl: "info",
		},
		Network: NetworkConfig{
			InSlots:             25,
			OutSlots:            25,
			DialInterval:        time.Second.String(),
			EventsReceivers:     1,
			EventsQueueCapacity: 16,
		},
		Sync: SyncConfig{
			SourcesCapacity:          32,
			BlocksCapacity:           1024,
			BlocksRequestGranularity: 128,
			DownloadAheadBlocks:      1024,
			Full:                     true,
		},
		Metrics: MetricsConfig{
			Address: DefaultMetricsAddress,
		},
	}
}

// Load decodes the toml file given over the configuration.
// Values absent from the file are left unchanged.
func (c *Config) Load(file string) (err error) {
	fp, err := filepath.Abs(file)
	if err != nil {
		return err
	}

	f, err := os.Open(filepath.Clean(fp))
	if err != nil {
		return err
	}
	defer func() {
		closeErr := f.Close()
		if err == nil && closeErr != nil {
			err = closeErr
		}
	}()

	err = toml.NewDecoder(f).Decode(c)
	if err != nil {
		return fmt.Errorf("decoding toml configuration %s: %w", file, err)
	}

	return nil
}

// Export writes the configuration as toml to the file given.
func (c *Config) Export(file string) error {
	raw, err := toml.Marshal(*c)
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}

	return os.WriteFile(file, raw, 0600)
}

// DialIntervalDuration returns the interval between two dial attempts per chain.
func (n NetworkConfig) DialIntervalDuration() (time.Duration, error) {
	if n.DialInterval == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(n.DialInterval)
	if err != nil {
		return 0, fmt.Errorf("parsing dial interval: %w", err)
	}
	return d, nil
}

// Levels returns the log level of each package, keyed by package name.
func (l LogConfig) Levels() (levels map[string]log.Level, err error) {
	levels = make(map[string]log.Level, 5)
	for pkg, s := range map[string]string{
		"core":    l.CoreLvl,
		"network": l.NetworkLvl,
		"sync":    l.SyncLvl,
		"state":   l.StateLvl,
		"runtime": l.RuntimeLvl,
	} {
		if s == "" {
			continue
		}

		levels[pkg], err = log.ParseLevel(s)
		if err != nil {
			return nil, fmt.Errorf("%s log level: %w", pkg, err)
		}
	}
	return levels, nil
}
