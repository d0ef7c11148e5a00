// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package dot

import (
	"fmt"

	"github.com/ChainSafe/gossamer-light/dot/config"
	"github.com/ChainSafe/gossamer-light/internal/log"
)

// packages are the packages a log level can be configured for.
var packages = []string{"core", "network", "sync", "state", "runtime"}

// setupLogger sets the global log level and returns the log level of
// each package. Packages without a configured level use the global one.
func setupLogger(cfg *config.Config) (levels map[string]log.Level, err error) {
	globalLevel := log.Info
	if cfg.Global.LogLvl != "" {
		globalLevel, err = log.ParseLevel(cfg.Global.LogLvl)
		if err != nil {
			return nil, fmt.Errorf("global log level: %w", err)
		}
	}
	log.Patch(log.SetLevel(globalLevel))

	levels, err = cfg.Log.Levels()
	if err != nil {
		return nil, err
	}

	for _, pkg := range packages {
		if _, ok := levels[pkg]; !ok {
			levels[pkg] = globalLevel
		}
	}

	logger.Patch(log.SetLevel(levels["core"]))
	return levels, nil
}
