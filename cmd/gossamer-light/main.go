// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package main

import (
	"fmt"
	"os"

	"github.com/ChainSafe/gossamer-light/dot"
	"github.com/ChainSafe/gossamer-light/internal/log"
	"github.com/urfave/cli"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "cmd"))

var exportCommand = cli.Command{
	Action:    exportAction,
	Name:      "export",
	Usage:     "Export the configuration resulting from the flags to a TOML file",
	ArgsUsage: "<file>",
	Flags:     flags,
	Description: "The export command writes the configuration of the node to a TOML file.\n" +
		"\tUsage: gossamer-light export --chain westend.json --log debug config.toml",
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "gossamer-light"
	app.Usage = "Light client for Substrate based chains"
	app.Version = "0.1.0"
	app.Action = gossamerAction
	app.Flags = flags
	app.Commands = []cli.Command{
		exportCommand,
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Critical(err.Error())
		os.Exit(1)
	}
}

// gossamerAction runs the node until it is interrupted.
func gossamerAction(ctx *cli.Context) error {
	// check for unknown command arguments
	if arguments := ctx.Args(); len(arguments) > 0 {
		return fmt.Errorf("failed to read command argument: %q", arguments[0])
	}

	cfg, err := createConfig(ctx)
	if err != nil {
		return fmt.Errorf("creating configuration: %w", err)
	}

	if cfg.Global.Chain == "" {
		return errNoChain
	}

	node, err := dot.NewNode(cfg)
	if err != nil {
		return fmt.Errorf("creating node: %w", err)
	}

	return node.Start()
}

// exportAction writes the configuration to the file given as argument.
func exportAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected one file argument, got %d", ctx.NArg())
	}
	file := ctx.Args().First()

	cfg, err := createConfig(ctx)
	if err != nil {
		return fmt.Errorf("creating configuration: %w", err)
	}

	err = cfg.Export(file)
	if err != nil {
		return err
	}

	logger.Info("exported configuration to " + file)
	return nil
}
