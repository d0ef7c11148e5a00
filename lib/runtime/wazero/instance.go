// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package wazero_runtime

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ChainSafe/gossamer-light/internal/log"
	"github.com/ChainSafe/gossamer-light/lib/runtime"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

const (
	hostModulePrefix = "gossamer_host_"
	runtimeModule    = "runtime"

	heapBaseGlobal       = "__heap_base"
	versionCustomSection = "runtime_version"
)

var _ runtime.Instance = (*Instance)(nil)

// Builder compiles runtimes with wazero.
type Builder struct{}

// NewBuilder returns a new builder logging the runtime messages at
// the level given.
func NewBuilder(logLvl log.Level) *Builder {
	logger.Patch(log.SetLevel(logLvl))
	return &Builder{}
}

// Build compiles and instantiates the runtime code given, which may be zstd
// compressed, with heapPages pages of memory available to its allocator.
func (*Builder) Build(code []byte, heapPages uint32) (runtime.Instance, error) {
	return NewInstance(context.Background(), code, heapPages)
}

// EventsStorageKey returns the storage key of the events from the metadata given.
func (*Builder) EventsStorageKey(metadata []byte) ([]byte, error) {
	return runtime.EventsStorageKey(metadata)
}

// Instance is a runtime instantiated in its own wazero runtime.
type Instance struct {
	mutex    sync.Mutex
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	module   api.Module
	host     *host
	closed   bool
}

// NewInstance compiles and instantiates the runtime code given.
func NewInstance(ctx context.Context, code []byte, heapPages uint32) (instance *Instance, err error) {
	wasm, err := runtime.Uncompress(code)
	if err != nil {
		return nil, err
	}

	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCustomSections(true))
	defer func() {
		if err != nil {
			_ = rt.Close(ctx)
		}
	}()

	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		return nil, fmt.Errorf("compiling runtime: %w", err)
	}

	h := &host{}
	proxies, err := instantiateImports(ctx, rt, compiled, h, heapPages)
	if err != nil {
		return nil, err
	}

	module, err := rt.InstantiateModule(ctx, compiled,
		wazero.NewModuleConfig().WithName(runtimeModule).WithStartFunctions())
	if err != nil {
		return nil, fmt.Errorf("instantiating runtime: %w", err)
	}

	memory := module.Memory()
	for i := 0; memory == nil && i < len(proxies); i++ {
		memory = proxies[i].Memory()
	}
	if memory == nil {
		return nil, fmt.Errorf("%w: no memory", runtime.ErrUnsupportedRuntime)
	}

	if len(compiled.ImportedMemories()) == 0 && heapPages > 0 {
		_, ok := memory.Grow(heapPages)
		if !ok {
			return nil, fmt.Errorf("%w: cannot grow memory by %d heap pages",
				runtime.ErrUnsupportedRuntime, heapPages)
		}
	}

	heapBase := module.ExportedGlobal(heapBaseGlobal)
	if heapBase == nil {
		return nil, fmt.Errorf("%w: %s", runtime.ErrExportNotFound, heapBaseGlobal)
	}

	h.memory = memory
	h.allocator = runtime.NewFreeingBumpHeapAllocator(api.DecodeU32(heapBase.Get()))

	logger.Debugf("instantiated runtime of %d bytes with %d heap pages", len(wasm), heapPages)

	return &Instance{
		runtime:  rt,
		compiled: compiled,
		module:   module,
		host:     h,
	}, nil
}

// instantiateImports instantiates one host module and one proxy module for
// each module the runtime imports from.
func instantiateImports(ctx context.Context, rt wazero.Runtime, compiled wazero.CompiledModule,
	h *host, heapPages uint32) (proxies []api.Module, err error) {
	imported := make(map[string][]api.FunctionDefinition)
	for _, definition := range compiled.ImportedFunctions() {
		moduleName, _, _ := definition.Import()
		imported[moduleName] = append(imported[moduleName], definition)
	}

	memories := compiled.ImportedMemories()
	if len(memories) > 1 {
		return nil, fmt.Errorf("%w: %d imported memories", runtime.ErrUnsupportedRuntime, len(memories))
	}

	var memory *proxyMemory
	var memoryModule string
	if len(memories) == 1 {
		moduleName, name, _ := memories[0].Import()
		memoryModule = moduleName
		memory = &proxyMemory{name: name, min: memories[0].Min() + heapPages}
		memory.max, memory.hasMax = memories[0].Max()
		if memory.hasMax && memory.min > memory.max {
			return nil, fmt.Errorf("%w: %d heap pages above maximum memory of %d pages",
				runtime.ErrUnsupportedRuntime, heapPages, memory.max)
		}
		if _, ok := imported[moduleName]; !ok {
			imported[moduleName] = nil
		}
	}

	moduleNames := make([]string, 0, len(imported))
	for moduleName := range imported {
		moduleNames = append(moduleNames, moduleName)
	}
	sort.Strings(moduleNames)

	for _, moduleName := range moduleNames {
		hostName := hostModulePrefix + moduleName
		builder := rt.NewHostModuleBuilder(hostName)
		functions := make([]proxyFunction, 0, len(imported[moduleName]))

		for _, definition := range imported[moduleName] {
			_, name, _ := definition.Import()
			function := proxyFunction{
				name:    name,
				params:  definition.ParamTypes(),
				results: definition.ResultTypes(),
			}
			functions = append(functions, function)

			goFunction := unimplemented(name)
			if implemented, ok := hostFunctions[name]; ok {
				if !sameSignature(implemented.params, function.params) ||
					!sameSignature(implemented.results, function.results) {
					return nil, fmt.Errorf("%w: unexpected signature for %s",
						runtime.ErrUnsupportedRuntime, name)
				}
				goFunction = implemented.goModuleFunction(h)
			} else {
				logger.Tracef("host function %s is not implemented", name)
			}

			builder.NewFunctionBuilder().
				WithGoModuleFunction(goFunction, function.params, function.results).
				Export(name)
		}

		_, err = builder.Instantiate(ctx)
		if err != nil {
			return nil, fmt.Errorf("instantiating host module %s: %w", hostName, err)
		}

		var moduleMemory *proxyMemory
		if moduleName == memoryModule {
			moduleMemory = memory
		}

		proxy, err := rt.InstantiateWithConfig(ctx, proxyModule(hostName, functions, moduleMemory),
			wazero.NewModuleConfig().WithName(moduleName))
		if err != nil {
			return nil, fmt.Errorf("instantiating import module %s: %w", moduleName, err)
		}
		proxies = append(proxies, proxy)
	}

	return proxies, nil
}

// CoreVersion returns the version embedded in the runtime_version custom
// section, or calls Core_version if there is none.
func (in *Instance) CoreVersion(ctx context.Context) (runtime.Version, error) {
	for _, section := range in.compiled.CustomSections() {
		if section.Name() != versionCustomSection {
			continue
		}

		version, err := runtime.DecodeVersion(section.Data())
		if err == nil {
			return version, nil
		}
		logger.Debugf("invalid %s custom section: %s", versionCustomSection, err)
		break
	}

	encoded, err := in.call(ctx, "Core_version", nil, nil)
	if err != nil {
		return runtime.Version{}, err
	}

	return runtime.DecodeVersion(encoded)
}

// QueryMetadata calls Metadata_metadata and returns the metadata.
func (in *Instance) QueryMetadata(ctx context.Context, storage runtime.Storage) ([]byte, error) {
	encoded, err := in.call(ctx, "Metadata_metadata", nil, storage)
	if err != nil {
		return nil, err
	}

	return runtime.DecodeOpaqueMetadata(encoded)
}

// ExecuteBlock calls Core_execute_block with the block given. The storage
// collects the changes made by the block.
func (in *Instance) ExecuteBlock(ctx context.Context, block []byte, storage runtime.BlockStorage) error {
	_, err := in.call(ctx, "Core_execute_block", block, storage)
	return err
}

// Close releases the wazero runtime.
func (in *Instance) Close(ctx context.Context) error {
	in.mutex.Lock()
	defer in.mutex.Unlock()

	if in.closed {
		return nil
	}
	in.closed = true
	return in.runtime.Close(ctx)
}

// call calls the exported function given with the input written to the
// runtime memory, and returns a copy of its output.
func (in *Instance) call(ctx context.Context, function string, input []byte,
	storage runtime.Storage) ([]byte, error) {
	in.mutex.Lock()
	defer in.mutex.Unlock()

	if in.closed {
		return nil, runtime.ErrInstanceClosed
	}

	fn := in.module.ExportedFunction(function)
	if fn == nil {
		return nil, fmt.Errorf("%w: %s", runtime.ErrExportNotFound, function)
	}

	in.host.allocator.Clear()
	in.host.storage = storage
	in.host.batch = nil
	defer func() { in.host.storage = nil }()

	inputPtr, err := in.host.allocator.Allocate(in.host.memory, uint32(len(input)))
	if err != nil {
		return nil, fmt.Errorf("allocating input: %w", err)
	}
	if !in.host.memory.Write(inputPtr, input) {
		return nil, fmt.Errorf("%w: writing input", runtime.ErrOutOfBounds)
	}

	results, err := fn.Call(ctx, api.EncodeU32(inputPtr), api.EncodeU32(uint32(len(input))))
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", function, err)
	}

	if len(results) != 1 {
		return nil, fmt.Errorf("%w: %s returned %d values", runtime.ErrUnsupportedRuntime, function, len(results))
	}

	ptr, size := splitPointerSize(results[0])
	output, ok := in.host.memory.Read(ptr, size)
	if !ok {
		return nil, fmt.Errorf("%w: output of %d bytes at %d", runtime.ErrOutOfBounds, size, ptr)
	}

	return append([]byte(nil), output...), nil
}
