// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package main

import (
	"github.com/urfave/cli"
)

const logLevelUsage = "Supports levels crit (silent), eror, warn, info, dbug and trce (trace)"

// Global node flags
var (
	// ConfigFlag is the toml configuration file loaded before the flags are applied
	ConfigFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	// ChainFlag is the chain specification file of the chain to sync
	ChainFlag = cli.StringFlag{
		Name:  "chain",
		Usage: "Chain specification file (raw JSON)",
	}
	// BasePathFlag is the directory holding the database and the node key
	BasePathFlag = cli.StringFlag{
		Name:  "basepath",
		Usage: "Data directory for the node",
	}
	// NameFlag is the name of the node
	NameFlag = cli.StringFlag{
		Name:  "name",
		Usage: "Node implementation name",
	}
	// MemDBFlag keeps the database in memory
	MemDBFlag = cli.BoolFlag{
		Name:  "memdb",
		Usage: "Keep the database in memory, nothing is persisted",
	}
)

// Log flags
var (
	LogFlag = cli.StringFlag{
		Name:  "log",
		Usage: "Global log level. " + logLevelUsage,
	}
	LogCoreLevelFlag = cli.StringFlag{
		Name:  "log-core",
		Usage: "Core package log level. " + logLevelUsage,
	}
	LogNetworkLevelFlag = cli.StringFlag{
		Name:  "log-network",
		Usage: "Network package log level. " + logLevelUsage,
	}
	LogSyncLevelFlag = cli.StringFlag{
		Name:  "log-sync",
		Usage: "Sync package log level. " + logLevelUsage,
	}
	LogStateLevelFlag = cli.StringFlag{
		Name:  "log-state",
		Usage: "State package log level. " + logLevelUsage,
	}
	LogRuntimeLevelFlag = cli.StringFlag{
		Name:  "log-runtime",
		Usage: "Runtime package log level. " + logLevelUsage,
	}
)

// Network and sync flags
var (
	// BootnodesFlag adds bootnodes to the ones of the chain specification
	BootnodesFlag = cli.StringFlag{
		Name:  "bootnodes",
		Usage: "Comma separated multiaddresses of additional bootnodes",
	}
	// HeadersOnlyFlag disables the execution of the finalized runtime
	HeadersOnlyFlag = cli.BoolFlag{
		Name:  "headers-only",
		Usage: "Only verify headers, without tracking the runtime version and metadata",
	}
)

// Metrics flags
var (
	// MetricsFlag enables the prometheus metrics server
	MetricsFlag = cli.BoolFlag{
		Name:  "metrics",
		Usage: "Publish prometheus metrics",
	}
	// MetricsAddressFlag is the listening address of the metrics server
	MetricsAddressFlag = cli.StringFlag{
		Name:  "metrics-address",
		Usage: "Listening address of the metrics server, as host:port or port",
	}
)

// flags are the flags of the node command
var flags = []cli.Flag{
	ConfigFlag,
	ChainFlag,
	BasePathFlag,
	NameFlag,
	MemDBFlag,
	LogFlag,
	LogCoreLevelFlag,
	LogNetworkLevelFlag,
	LogSyncLevelFlag,
	LogStateLevelFlag,
	LogRuntimeLevelFlag,
	BootnodesFlag,
	HeadersOnlyFlag,
	MetricsFlag,
	MetricsAddressFlag,
}
