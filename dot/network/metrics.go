// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package network

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gossamer_light_network",
		Name:      "connections_total",
		Help:      "number of connections established",
	})
	slotsOccupied = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "gossamer_light_network",
		Name:      "slots_occupied",
		Help:      "number of connection slots occupied per chain and direction",
	}, []string{"chain", "direction"})
	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gossamer_light_network",
		Name:      "events_total",
		Help:      "number of events published per kind",
	}, []string{"kind"})
)
