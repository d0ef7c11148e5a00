// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package wazero_runtime

import (
	"bytes"

	"github.com/multiformats/go-varint"
	"github.com/tetratelabs/wazero/api"
)

// Host modules cannot export a memory, so the runtime imports are served
// by a small wasm module instantiated under the import module name. It
// re-exports the host functions and defines the memory the runtime imports.

const (
	sectionType   byte = 1
	sectionImport byte = 2
	sectionMemory byte = 5
	sectionExport byte = 7

	externFunc   byte = 0x00
	externMemory byte = 0x02

	funcType byte = 0x60
)

var wasmHeader = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

type proxyFunction struct {
	name    string
	params  []api.ValueType
	results []api.ValueType
}

type proxyMemory struct {
	name   string
	min    uint32
	max    uint32
	hasMax bool
}

type wasmWriter struct {
	bytes.Buffer
}

func (w *wasmWriter) u32(v uint32) {
	_, _ = w.Write(varint.ToUvarint(uint64(v)))
}

func (w *wasmWriter) name(s string) {
	w.u32(uint32(len(s)))
	_, _ = w.WriteString(s)
}

func (w *wasmWriter) valueTypes(types []api.ValueType) {
	w.u32(uint32(len(types)))
	for _, t := range types {
		_ = w.WriteByte(t)
	}
}

func (w *wasmWriter) section(id byte, content *wasmWriter) {
	_ = w.WriteByte(id)
	w.u32(uint32(content.Len()))
	_, _ = w.Write(content.Bytes())
}

// proxyModule returns a wasm module importing every function given from the
// host module and exporting it under the same name, plus the memory if any.
func proxyModule(host string, functions []proxyFunction, memory *proxyMemory) []byte {
	var types, imports, memories, exports wasmWriter

	types.u32(uint32(len(functions)))
	imports.u32(uint32(len(functions)))
	for i, f := range functions {
		_ = types.WriteByte(funcType)
		types.valueTypes(f.params)
		types.valueTypes(f.results)

		imports.name(host)
		imports.name(f.name)
		_ = imports.WriteByte(externFunc)
		imports.u32(uint32(i))
	}

	exportsCount := len(functions)
	if memory != nil {
		exportsCount++
	}

	exports.u32(uint32(exportsCount))
	for i, f := range functions {
		exports.name(f.name)
		_ = exports.WriteByte(externFunc)
		exports.u32(uint32(i))
	}

	var module wasmWriter
	_, _ = module.Write(wasmHeader)
	module.section(sectionType, &types)
	module.section(sectionImport, &imports)

	if memory != nil {
		memories.u32(1)
		if memory.hasMax {
			_ = memories.WriteByte(0x01)
			memories.u32(memory.min)
			memories.u32(memory.max)
		} else {
			_ = memories.WriteByte(0x00)
			memories.u32(memory.min)
		}
		module.section(sectionMemory, &memories)

		exports.name(memory.name)
		_ = exports.WriteByte(externMemory)
		exports.u32(0)
	}

	module.section(sectionExport, &exports)
	return module.Bytes()
}
