// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package dot

import (
	"sync"
)

// statusNotifier logs the progress of the sync.
type statusNotifier struct {
	mutex     sync.Mutex
	best      uint64
	finalized uint64
}

func (n *statusNotifier) BestBlockUpdated(number uint64) {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	n.best = number
	logger.Debugf("best block #%d", number)
}

func (n *statusNotifier) FinalizedBlockUpdated(number uint64) {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	n.finalized = number
	if n.best < number {
		n.best = number
	}
	logger.Infof("💤 finalized #%d, best #%d", n.finalized, n.best)
}

func (n *statusNotifier) status() (best, finalized uint64) {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	return n.best, n.finalized
}
