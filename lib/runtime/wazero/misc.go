// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package wazero_runtime

import (
	"bytes"
	"context"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/tetratelabs/wazero/api"
)

// ext_misc_runtime_version_version_1 instantiates runtimes, which read the
// host functions, so it is registered at init.
func init() {
	hostFunctions["ext_misc_runtime_version_version_1"] = hostFunction{
		params: []api.ValueType{i64}, results: []api.ValueType{i64},
		call: ext_misc_runtime_version_version_1,
	}
}

// ext_misc_runtime_version_version_1 returns the SCALE encoded optional
// version of the runtime code given, or None if it cannot be instantiated.
func ext_misc_runtime_version_version_1(h *host, stack []uint64) {
	code := h.read(stack[0])
	ctx := context.Background()

	var encoded []byte
	instance, err := NewInstance(ctx, code, 0)
	if err == nil {
		version, versionErr := instance.CoreVersion(ctx)
		err = versionErr
		if err == nil {
			encoded, err = version.Encode()
		}
		_ = instance.Close(ctx)
	}
	if err != nil {
		logger.Debugf("cannot read version of runtime code of %d bytes: %s", len(code), err)
	}

	buffer := bytes.NewBuffer(nil)
	err = encodeOptionalBytes(scale.NewEncoder(buffer), encoded, encoded != nil)
	if err != nil {
		panic(err)
	}
	stack[0] = h.writeSized(buffer.Bytes())
}
