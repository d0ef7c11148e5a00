// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package wire

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var messagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "gossamer_light_wire",
	Name:      "messages_total",
	Help:      "number of messages sent and received, by direction and kind",
}, []string{"direction", "kind"})
