// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package network

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/multiformats/go-multiaddr"
)

// stringToAddrInfo parses a multiaddress ending with /p2p/<peer id>.
func stringToAddrInfo(s string) (peer.AddrInfo, error) {
	maddr, err := multiaddr.NewMultiaddr(s)
	if err != nil {
		return peer.AddrInfo{}, err
	}
	p, err := peer.AddrInfoFromP2pAddr(maddr)
	if err != nil {
		return peer.AddrInfo{}, err
	}
	return *p, nil
}

// StringsToAddrInfos parses bootstrap node multiaddresses. Addresses of the
// same peer are merged into a single AddrInfo.
func StringsToAddrInfos(peers []string) ([]peer.AddrInfo, error) {
	pinfos := make([]peer.AddrInfo, 0, len(peers))
	indexes := make(map[peer.ID]int, len(peers))
	for _, s := range peers {
		p, err := stringToAddrInfo(s)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", s, err)
		}

		if i, ok := indexes[p.ID]; ok {
			pinfos[i].Addrs = append(pinfos[i].Addrs, p.Addrs...)
			continue
		}
		indexes[p.ID] = len(pinfos)
		pinfos = append(pinfos, p)
	}
	return pinfos, nil
}

type requestIDKey struct{}

// ContextWithRequestID returns a context carrying the identifier the
// service logs a blocks request with, so the engine can log it next to
// its own wire identifier.
func ContextWithRequestID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request identifier of the context, if any.
func RequestIDFromContext(ctx context.Context) (id uuid.UUID, ok bool) {
	id, ok = ctx.Value(requestIDKey{}).(uuid.UUID)
	return id, ok
}
