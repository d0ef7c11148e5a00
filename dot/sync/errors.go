// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package sync

import (
	"errors"
)

var (
	ErrNoEngine    = errors.New("no verification engine")
	ErrNoNetwork   = errors.New("no network")
	ErrNoEvents    = errors.New("no network events channel")
	ErrNoDatabase  = errors.New("no database writer")
	ErrNoNotifier  = errors.New("no notifier")
	ErrNoScheduler = errors.New("no scheduler")
)
