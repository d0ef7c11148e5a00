// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ChainSafe/gossamer-light/dot/config"
	"github.com/urfave/cli"
)

var errNoChain = errors.New("no chain specification given, use --chain or the global chain option")

// createConfig loads the configuration file given with --config over the
// defaults, then overrides it with the flags set.
func createConfig(ctx *cli.Context) (*config.Config, error) {
	cfg := config.Default()

	if file := ctx.String(ConfigFlag.Name); file != "" {
		logger.Info("loading toml configuration from " + file + "...")
		err := cfg.Load(file)
		if err != nil {
			return nil, err
		}
	}

	setGlobalConfig(ctx, &cfg.Global)
	setLogConfig(ctx, &cfg.Log)
	setNetworkConfig(ctx, &cfg.Network)
	setMetricsConfig(ctx, &cfg.Metrics)

	if ctx.Bool(MemDBFlag.Name) {
		cfg.Database.InMemory = true
	}

	if ctx.Bool(HeadersOnlyFlag.Name) {
		cfg.Sync.Full = false
	}

	return cfg, nil
}

func setGlobalConfig(ctx *cli.Context, cfg *config.GlobalConfig) {
	if chain := ctx.String(ChainFlag.Name); chain != "" {
		cfg.Chain = chain
	}

	if basepath := ctx.String(BasePathFlag.Name); basepath != "" {
		cfg.BasePath = basepath
	}

	if name := ctx.String(NameFlag.Name); name != "" {
		cfg.Name = name
	}

	if level := ctx.String(LogFlag.Name); level != "" {
		cfg.LogLvl = level
	}
}

func setLogConfig(ctx *cli.Context, cfg *config.LogConfig) {
	for flagName, level := range map[string]*string{
		LogCoreLevelFlag.Name:    &cfg.CoreLvl,
		LogNetworkLevelFlag.Name: &cfg.NetworkLvl,
		LogSyncLevelFlag.Name:    &cfg.SyncLvl,
		LogStateLevelFlag.Name:   &cfg.StateLvl,
		LogRuntimeLevelFlag.Name: &cfg.RuntimeLvl,
	} {
		if value := ctx.String(flagName); value != "" {
			*level = value
		}
	}
}

func setNetworkConfig(ctx *cli.Context, cfg *config.NetworkConfig) {
	// check --bootnodes flag and update node configuration
	if bootnodes := ctx.String(BootnodesFlag.Name); bootnodes != "" {
		cfg.Bootnodes = append(cfg.Bootnodes, strings.Split(bootnodes, ",")...)
	}
}

func setMetricsConfig(ctx *cli.Context, cfg *config.MetricsConfig) {
	if ctx.Bool(MetricsFlag.Name) {
		cfg.Enabled = true
	}

	// a port alone listens on all interfaces
	if address := ctx.String(MetricsAddressFlag.Name); address != "" {
		if port, err := strconv.Atoi(address); err == nil {
			cfg.Address = fmt.Sprintf(":%d", port)
		} else {
			cfg.Address = address
		}
	}
}
