// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package network

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/libp2p/go-libp2p-core/peer"
	ma "github.com/multiformats/go-multiaddr"
)

// membershipState is the state of a node for a single chain.
type membershipState int

const (
	// notMember node isn't known to belong to the chain.
	notMember membershipState = iota
	// notConnected node belongs to the chain but we are not connected to it.
	notConnected
	// pending node is being dialed, it occupies an outgoing slot.
	pending
	// outgoing node is connected through an outgoing connection.
	outgoing
	// ingoing node opened the chain through an inbound substream.
	ingoing
)

func (s membershipState) String() string {
	switch s {
	case notMember:
		return "not member"
	case notConnected:
		return "not connected"
	case pending:
		return "pending"
	case outgoing:
		return "outgoing"
	case ingoing:
		return "ingoing"
	default:
		return "unknown"
	}
}

// slotsInfo is the slot occupancy of a single chain.
type slotsInfo struct {
	numIn  uint32
	numOut uint32
	maxIn  uint32
	maxOut uint32
}

// node is the state of a single node we know about.
type node struct {
	addrs []ma.Multiaddr
	// state has one entry per chain.
	state []membershipState
	// lastConnected is when we were last connected to the node for each chain,
	// or when we discovered it if we never were.
	lastConnected []time.Time
}

func newNode(numChains int, now time.Time) *node {
	n := &node{
		state:         make([]membershipState, numChains),
		lastConnected: make([]time.Time, numChains),
	}
	for i := range n.lastConnected {
		n.lastConnected[i] = now
	}
	return n
}

// slotTable holds the connection slots of every chain. It is shared by the
// dialers, the connection drivers and the substream acceptor. The mutex is
// only held while accessing the fields.
type slotTable struct {
	mutex sync.Mutex
	nodes map[peer.ID]*node
	sets  []slotsInfo
	now   func() time.Time
}

func newSlotTable(numChains int, maxIn, maxOut uint32) *slotTable {
	sets := make([]slotsInfo, numChains)
	for i := range sets {
		sets[i] = slotsInfo{maxIn: maxIn, maxOut: maxOut}
	}

	return &slotTable{
		nodes: make(map[peer.ID]*node),
		sets:  sets,
		now:   time.Now,
	}
}

// insertPeer adds a node to a chain. Addresses are merged with the known ones.
func (st *slotTable) insertPeer(set int, info peer.AddrInfo) {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	n, has := st.nodes[info.ID]
	if !has {
		n = newNode(len(st.sets), st.now())
		st.nodes[info.ID] = n
	}

	if n.state[set] == notMember {
		n.state[set] = notConnected
	}

	for _, addr := range info.Addrs {
		if !containsAddr(n.addrs, addr) {
			n.addrs = append(n.addrs, addr)
		}
	}
}

func containsAddr(addrs []ma.Multiaddr, addr ma.Multiaddr) bool {
	for _, a := range addrs {
		if a.Equal(addr) {
			return true
		}
	}
	return false
}

// tryOutgoing reserves an outgoing slot of the chain for the node we were
// connected to the least recently, and marks it as pending.
func (st *slotTable) tryOutgoing(set int) (info peer.AddrInfo, err error) {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	setInfo := &st.sets[set]
	if setInfo.numOut >= setInfo.maxOut {
		return info, fmt.Errorf("%w: chain %d has %d/%d",
			ErrOutgoingSlotsUnavailable, set, setInfo.numOut, setInfo.maxOut)
	}

	candidates := make([]peer.ID, 0, len(st.nodes))
	for id, n := range st.nodes {
		if n.state[set] == notConnected && len(n.addrs) > 0 {
			candidates = append(candidates, id)
		}
	}

	if len(candidates) == 0 {
		return info, ErrNoDialCandidate
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := st.nodes[candidates[i]], st.nodes[candidates[j]]
		if !a.lastConnected[set].Equal(b.lastConnected[set]) {
			return a.lastConnected[set].Before(b.lastConnected[set])
		}
		return candidates[i] < candidates[j]
	})

	id := candidates[0]
	n := st.nodes[id]
	n.state[set] = pending
	setInfo.numOut++
	st.updateMetrics(set)

	return peer.AddrInfo{ID: id, Addrs: append([]ma.Multiaddr(nil), n.addrs...)}, nil
}

// releasePending frees the outgoing slot of a dial that failed.
func (st *slotTable) releasePending(set int, p peer.ID) error {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	n, has := st.nodes[p]
	if !has {
		return fmt.Errorf("%w: for peer id %s", ErrPeerDoesNotExist, p)
	}

	if n.state[set] != pending {
		return fmt.Errorf("%w: peer %s is %s", ErrPeerNotPending, p, n.state[set])
	}

	n.state[set] = notConnected
	n.lastConnected[set] = st.now()
	st.sets[set].numOut--
	st.updateMetrics(set)
	return nil
}

// confirm turns a pending dial into an outgoing connection.
// The slot stays occupied.
func (st *slotTable) confirm(set int, p peer.ID) error {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	n, has := st.nodes[p]
	if !has {
		return fmt.Errorf("%w: for peer id %s", ErrPeerDoesNotExist, p)
	}

	if n.state[set] != pending {
		return fmt.Errorf("%w: peer %s is %s", ErrPeerNotPending, p, n.state[set])
	}

	n.state[set] = outgoing
	return nil
}

// tryAcceptIncoming reserves an incoming slot of the chain for the peer.
func (st *slotTable) tryAcceptIncoming(set int, p peer.ID) error {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	n, has := st.nodes[p]
	if !has {
		n = newNode(len(st.sets), st.now())
		st.nodes[p] = n
	}

	switch n.state[set] {
	case pending, outgoing, ingoing:
		return fmt.Errorf("%w: peer %s is %s on chain %d", ErrAlreadyConnected, p, n.state[set], set)
	}

	setInfo := &st.sets[set]
	if setInfo.numIn >= setInfo.maxIn {
		return fmt.Errorf("%w: chain %d has %d/%d",
			ErrIncomingSlotsUnavailable, set, setInfo.numIn, setInfo.maxIn)
	}

	n.state[set] = ingoing
	setInfo.numIn++
	st.updateMetrics(set)
	return nil
}

// disconnect frees the slot occupied by a connected peer.
func (st *slotTable) disconnect(set int, p peer.ID) error {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	n, has := st.nodes[p]
	if !has {
		return fmt.Errorf("%w: for peer id %s", ErrPeerDoesNotExist, p)
	}

	switch n.state[set] {
	case ingoing:
		st.sets[set].numIn--
	case outgoing:
		st.sets[set].numOut--
	default:
		return fmt.Errorf("%w: peer %s is %s", ErrPeerDisconnected, p, n.state[set])
	}

	n.state[set] = notConnected
	n.lastConnected[set] = st.now()
	st.updateMetrics(set)
	return nil
}

// disconnectIncoming frees every incoming slot occupied by the peer.
func (st *slotTable) disconnectIncoming(p peer.ID) {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	n, has := st.nodes[p]
	if !has {
		return
	}

	for set, state := range n.state {
		if state != ingoing {
			continue
		}
		n.state[set] = notConnected
		n.lastConnected[set] = st.now()
		st.sets[set].numIn--
		st.updateMetrics(set)
	}
}

// disconnectIncomingChain frees the incoming slot of the chain occupied by
// the peer, if any. It returns whether a slot was freed.
func (st *slotTable) disconnectIncomingChain(set int, p peer.ID) (freed bool) {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	n, has := st.nodes[p]
	if !has || n.state[set] != ingoing {
		return false
	}

	n.state[set] = notConnected
	n.lastConnected[set] = st.now()
	st.sets[set].numIn--
	st.updateMetrics(set)
	return true
}

// occupancy returns the number of incoming and outgoing slots occupied.
func (st *slotTable) occupancy(set int) (in, out uint32) {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	return st.sets[set].numIn, st.sets[set].numOut
}

// updateMetrics must be called with the mutex held.
func (st *slotTable) updateMetrics(set int) {
	chain := strconv.Itoa(set)
	slotsOccupied.WithLabelValues(chain, "in").Set(float64(st.sets[set].numIn))
	slotsOccupied.WithLabelValues(chain, "out").Set(float64(st.sets[set].numOut))
}
