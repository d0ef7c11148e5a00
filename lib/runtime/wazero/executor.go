// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package wazero_runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/ChainSafe/gossamer-light/lib/common"
	"github.com/ChainSafe/gossamer-light/lib/runtime"
)

// Executor executes blocks with the runtime code of their parent storage.
// It keeps the instance of the last code and heap pages used.
type Executor struct {
	mutex     sync.Mutex
	codeHash  common.Hash
	heapPages uint32
	instance  *Instance
}

// NewExecutor returns an executor without any instance.
func NewExecutor() *Executor {
	return &Executor{}
}

// ExecuteBlock executes the SCALE encoded block against the storage of its
// parent, which holds the runtime code.
func (e *Executor) ExecuteBlock(ctx context.Context, block []byte, storage runtime.BlockStorage) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	instance, err := e.instanceFor(ctx, storage)
	if err != nil {
		return err
	}

	return instance.ExecuteBlock(ctx, block, storage)
}

func (e *Executor) instanceFor(ctx context.Context, storage runtime.Storage) (*Instance, error) {
	code, found := storage.Get(common.CodeKey)
	if !found {
		return nil, runtime.ErrCodeNotFound
	}

	heapPages, err := runtime.HeapPages(storage.Get(common.HeapPagesKey))
	if err != nil {
		return nil, err
	}

	codeHash, err := common.Blake2bHash(code)
	if err != nil {
		return nil, fmt.Errorf("hashing runtime code: %w", err)
	}

	if e.instance != nil && e.codeHash == codeHash && e.heapPages == heapPages {
		return e.instance, nil
	}

	instance, err := NewInstance(ctx, code, heapPages)
	if err != nil {
		return nil, err
	}

	if e.instance != nil {
		err = e.instance.Close(ctx)
		if err != nil {
			logger.Warnf("closing runtime instance: %s", err)
		}
	}

	logger.Debugf("executing blocks with runtime code %s and %d heap pages", codeHash.Short(), heapPages)
	e.instance, e.codeHash, e.heapPages = instance, codeHash, heapPages
	return instance, nil
}

// Close closes the instance in use, if any.
func (e *Executor) Close(ctx context.Context) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.instance == nil {
		return nil
	}
	err := e.instance.Close(ctx)
	e.instance = nil
	return err
}
