// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package common

var (
	// CodeKey is the key where runtime code is stored in the trie
	CodeKey = []byte(":code")

	// HeapPagesKey is the key where the number of runtime heap pages is stored
	HeapPagesKey = []byte(":heappages")
)
