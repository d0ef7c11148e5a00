// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package dot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testBootnode = "/ip4/127.0.0.1/tcp/30333/p2p/12D3KooWEyoppNCUx8Yx66oV9fJnriXwCcXwDDUA2kj6vnc6iDEp"

const testChainSpec = `{
  "name": "Test Chain",
  "id": "test_chain",
  "chainType": "Local",
  "bootNodes": [],
  "protocolId": "tst",
  "genesis": {
    "raw": {
      "top": {
        "0x3a636f6465": "0x0061736d01000000",
        "0x3a6772616e6470615f617574686f726974696573": "0x0100"
      },
      "childrenDefault": {}
    }
  }
}`

func writeTestChainSpec(t *testing.T) (path string) {
	t.Helper()

	path = filepath.Join(t.TempDir(), "chain.json")
	err := os.WriteFile(path, []byte(testChainSpec), 0600)
	require.NoError(t, err)
	return path
}
