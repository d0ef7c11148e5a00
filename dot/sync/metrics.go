// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package sync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bestBlockGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gossamer_light_sync",
		Name:      "best_block",
		Help:      "number of the best block verified",
	})
	finalizedBlockGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gossamer_light_sync",
		Name:      "finalized_block",
		Help:      "number of the highest finalized block",
	})
	requestsInflightGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gossamer_light_sync",
		Name:      "requests_inflight",
		Help:      "number of blocks requests in flight",
	})
)
