// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package wire

import (
	"fmt"

	"github.com/ChainSafe/gossamer-light/dot/types"
	"github.com/ChainSafe/gossamer-light/lib/common"
	"github.com/libp2p/go-libp2p-core/peer"
)

// MessageKind is the first byte of every frame.
type MessageKind byte

const (
	HandshakeKind MessageKind = iota
	OpenChainKind
	OpenChainAckKind
	CloseChainKind
	BlockAnnounceKind
	BlocksRequestKind
	BlocksResponseKind
	PingKind
	PongKind
	GoodbyeKind
	IdentifyRequestKind
	IdentifyResponseKind
)

func (k MessageKind) String() string {
	switch k {
	case HandshakeKind:
		return "handshake"
	case OpenChainKind:
		return "open_chain"
	case OpenChainAckKind:
		return "open_chain_ack"
	case CloseChainKind:
		return "close_chain"
	case BlockAnnounceKind:
		return "block_announce"
	case BlocksRequestKind:
		return "blocks_request"
	case BlocksResponseKind:
		return "blocks_response"
	case PingKind:
		return "ping"
	case PongKind:
		return "pong"
	case GoodbyeKind:
		return "goodbye"
	case IdentifyRequestKind:
		return "identify_request"
	case IdentifyResponseKind:
		return "identify_response"
	default:
		return fmt.Sprintf("kind(%d)", byte(k))
	}
}

// Message is a message exchanged on a connection.
type Message interface {
	Kind() MessageKind
	encode(e *encoder)
	decode(d *decoder) error
}

// Roles of a node, sent in its handshake.
const (
	RoleFull      byte = 1
	RoleAuthority byte = 2
	RoleLight     byte = 4
)

// HandshakeChain is a chain a node is able to open substreams for.
type HandshakeChain struct {
	ProtocolID  string
	GenesisHash common.Hash
	BestNumber  uint64
	BestHash    common.Hash
}

// Handshake is the first message sent by both sides of a connection.
type Handshake struct {
	AgentVersion string
	PeerID       peer.ID
	Roles        byte
	Chains       []HandshakeChain
}

func (*Handshake) Kind() MessageKind { return HandshakeKind }

func (m *Handshake) encode(e *encoder) {
	e.str(m.AgentVersion)
	e.vec([]byte(m.PeerID))
	e.u8(m.Roles)
	e.compact(uint64(len(m.Chains)))
	for _, chain := range m.Chains {
		e.str(chain.ProtocolID)
		e.hash(chain.GenesisHash)
		e.compact(chain.BestNumber)
		e.hash(chain.BestHash)
	}
}

// minHandshakeChainSize is the smallest encoding of a HandshakeChain.
const minHandshakeChainSize = 1 + common.HashLength + 1 + common.HashLength

func (m *Handshake) decode(d *decoder) (err error) {
	m.AgentVersion, err = d.str()
	if err != nil {
		return fmt.Errorf("decoding agent version: %w", err)
	}

	id, err := d.vec()
	if err != nil {
		return fmt.Errorf("decoding peer id: %w", err)
	}
	m.PeerID = peer.ID(id)

	m.Roles, err = d.u8()
	if err != nil {
		return fmt.Errorf("decoding roles: %w", err)
	}

	count, err := d.compact()
	if err != nil {
		return fmt.Errorf("decoding chains count: %w", err)
	}
	if count > uint64(d.reader.Len()/minHandshakeChainSize) {
		return fmt.Errorf("%w: %d chains", ErrTruncatedMessage, count)
	}

	m.Chains = make([]HandshakeChain, count)
	for i := range m.Chains {
		chain := &m.Chains[i]
		chain.ProtocolID, err = d.str()
		if err != nil {
			return fmt.Errorf("decoding protocol id of chain %d: %w", i, err)
		}
		chain.GenesisHash, err = d.hash()
		if err != nil {
			return fmt.Errorf("decoding genesis hash of chain %d: %w", i, err)
		}
		chain.BestNumber, err = d.compact()
		if err != nil {
			return fmt.Errorf("decoding best number of chain %d: %w", i, err)
		}
		chain.BestHash, err = d.hash()
		if err != nil {
			return fmt.Errorf("decoding best hash of chain %d: %w", i, err)
		}
	}

	return nil
}

// OpenChain asks the remote to open a substream for a chain.
type OpenChain struct {
	GenesisHash common.Hash
}

func (*OpenChain) Kind() MessageKind { return OpenChainKind }

func (m *OpenChain) encode(e *encoder) { e.hash(m.GenesisHash) }

func (m *OpenChain) decode(d *decoder) (err error) {
	m.GenesisHash, err = d.hash()
	return err
}

// OpenChainAck answers an OpenChain message.
type OpenChainAck struct {
	GenesisHash common.Hash
	Accepted    bool
	BestNumber  uint64
	BestHash    common.Hash
}

func (*OpenChainAck) Kind() MessageKind { return OpenChainAckKind }

func (m *OpenChainAck) encode(e *encoder) {
	e.hash(m.GenesisHash)
	e.boolean(m.Accepted)
	e.compact(m.BestNumber)
	e.hash(m.BestHash)
}

func (m *OpenChainAck) decode(d *decoder) (err error) {
	m.GenesisHash, err = d.hash()
	if err != nil {
		return err
	}
	m.Accepted, err = d.boolean()
	if err != nil {
		return err
	}
	m.BestNumber, err = d.compact()
	if err != nil {
		return err
	}
	m.BestHash, err = d.hash()
	return err
}

// CloseChain closes the substream of a chain.
type CloseChain struct {
	GenesisHash common.Hash
}

func (*CloseChain) Kind() MessageKind { return CloseChainKind }

func (m *CloseChain) encode(e *encoder) { e.hash(m.GenesisHash) }

func (m *CloseChain) decode(d *decoder) (err error) {
	m.GenesisHash, err = d.hash()
	return err
}

// BlockAnnounce announces a new block of a chain.
type BlockAnnounce struct {
	GenesisHash common.Hash
	Header      []byte
	IsBest      bool
}

func (*BlockAnnounce) Kind() MessageKind { return BlockAnnounceKind }

func (m *BlockAnnounce) encode(e *encoder) {
	e.hash(m.GenesisHash)
	e.vec(m.Header)
	e.boolean(m.IsBest)
}

func (m *BlockAnnounce) decode(d *decoder) (err error) {
	m.GenesisHash, err = d.hash()
	if err != nil {
		return err
	}
	m.Header, err = d.vec()
	if err != nil {
		return fmt.Errorf("decoding header: %w", err)
	}
	m.IsBest, err = d.boolean()
	return err
}

// Fields bits of a BlocksRequest.
const (
	FieldHeader        byte = 1
	FieldBody          byte = 2
	FieldJustification byte = 16
)

// BlocksRequest asks the remote for a range of blocks.
type BlocksRequest struct {
	ID          uint64
	GenesisHash common.Hash
	StartNumber uint64
	Count       uint32
	Direction   byte
	Fields      byte
}

func (*BlocksRequest) Kind() MessageKind { return BlocksRequestKind }

func (m *BlocksRequest) encode(e *encoder) {
	e.u64(m.ID)
	e.hash(m.GenesisHash)
	e.compact(m.StartNumber)
	e.u32(m.Count)
	e.u8(m.Direction)
	e.u8(m.Fields)
}

func (m *BlocksRequest) decode(d *decoder) (err error) {
	m.ID, err = d.u64()
	if err != nil {
		return err
	}
	m.GenesisHash, err = d.hash()
	if err != nil {
		return err
	}
	m.StartNumber, err = d.compact()
	if err != nil {
		return err
	}
	m.Count, err = d.u32()
	if err != nil {
		return err
	}
	m.Direction, err = d.u8()
	if err != nil {
		return err
	}
	m.Fields, err = d.u8()
	return err
}

// BlocksResponse answers the BlocksRequest with the same ID.
type BlocksResponse struct {
	ID     uint64
	Blocks []types.BlockData
}

func (*BlocksResponse) Kind() MessageKind { return BlocksResponseKind }

// minBlockDataSize is the smallest encoding of a block: its hash and three
// empty options.
const minBlockDataSize = common.HashLength + 3

func (m *BlocksResponse) encode(e *encoder) {
	e.u64(m.ID)
	e.compact(uint64(len(m.Blocks)))
	for _, block := range m.Blocks {
		e.hash(block.Hash)
		e.optionalVec(block.Header)
		e.boolean(block.Body != nil)
		if block.Body != nil {
			e.compact(uint64(len(block.Body)))
			for _, extrinsic := range block.Body {
				e.vec(extrinsic)
			}
		}
		e.optionalVec(block.Justification)
	}
}

func (m *BlocksResponse) decode(d *decoder) (err error) {
	m.ID, err = d.u64()
	if err != nil {
		return err
	}

	count, err := d.compact()
	if err != nil {
		return fmt.Errorf("decoding blocks count: %w", err)
	}
	if count > uint64(d.reader.Len()/minBlockDataSize) {
		return fmt.Errorf("%w: %d blocks", ErrTruncatedMessage, count)
	}

	m.Blocks = make([]types.BlockData, count)
	for i := range m.Blocks {
		block := &m.Blocks[i]
		block.Hash, err = d.hash()
		if err != nil {
			return fmt.Errorf("decoding hash of block %d: %w", i, err)
		}
		block.Header, err = d.optionalVec()
		if err != nil {
			return fmt.Errorf("decoding header of block %d: %w", i, err)
		}
		block.Body, err = decodeBody(d)
		if err != nil {
			return fmt.Errorf("decoding body of block %d: %w", i, err)
		}
		block.Justification, err = d.optionalVec()
		if err != nil {
			return fmt.Errorf("decoding justification of block %d: %w", i, err)
		}
	}

	return nil
}

func decodeBody(d *decoder) ([][]byte, error) {
	some, err := d.boolean()
	if err != nil || !some {
		return nil, err
	}

	// every extrinsic takes at least its length byte
	count, err := d.length()
	if err != nil {
		return nil, err
	}

	body := make([][]byte, count)
	for i := range body {
		body[i], err = d.vec()
		if err != nil {
			return nil, err
		}
	}
	return body, nil
}

// Ping must be answered with a Pong holding the same nonce.
type Ping struct {
	Nonce uint64
}

func (*Ping) Kind() MessageKind { return PingKind }

func (m *Ping) encode(e *encoder) { e.u64(m.Nonce) }

func (m *Ping) decode(d *decoder) (err error) {
	m.Nonce, err = d.u64()
	return err
}

// Pong answers a Ping.
type Pong struct {
	Nonce uint64
}

func (*Pong) Kind() MessageKind { return PongKind }

func (m *Pong) encode(e *encoder) { e.u64(m.Nonce) }

func (m *Pong) decode(d *decoder) (err error) {
	m.Nonce, err = d.u64()
	return err
}

// Goodbye is the last message sent before closing a connection.
type Goodbye struct {
	Reason string
}

func (*Goodbye) Kind() MessageKind { return GoodbyeKind }

func (m *Goodbye) encode(e *encoder) { e.str(m.Reason) }

func (m *Goodbye) decode(d *decoder) (err error) {
	m.Reason, err = d.str()
	return err
}

// IdentifyRequest asks the remote for its agent version.
type IdentifyRequest struct {
	ID uint64
}

func (*IdentifyRequest) Kind() MessageKind { return IdentifyRequestKind }

func (m *IdentifyRequest) encode(e *encoder) { e.u64(m.ID) }

func (m *IdentifyRequest) decode(d *decoder) (err error) {
	m.ID, err = d.u64()
	return err
}

// IdentifyResponse answers an IdentifyRequest.
type IdentifyResponse struct {
	ID           uint64
	AgentVersion string
}

func (*IdentifyResponse) Kind() MessageKind { return IdentifyResponseKind }

func (m *IdentifyResponse) encode(e *encoder) {
	e.u64(m.ID)
	e.str(m.AgentVersion)
}

func (m *IdentifyResponse) decode(d *decoder) (err error) {
	m.ID, err = d.u64()
	if err != nil {
		return err
	}
	m.AgentVersion, err = d.str()
	return err
}

func newMessage(kind MessageKind) (Message, error) {
	switch kind {
	case HandshakeKind:
		return new(Handshake), nil
	case OpenChainKind:
		return new(OpenChain), nil
	case OpenChainAckKind:
		return new(OpenChainAck), nil
	case CloseChainKind:
		return new(CloseChain), nil
	case BlockAnnounceKind:
		return new(BlockAnnounce), nil
	case BlocksRequestKind:
		return new(BlocksRequest), nil
	case BlocksResponseKind:
		return new(BlocksResponse), nil
	case PingKind:
		return new(Ping), nil
	case PongKind:
		return new(Pong), nil
	case GoodbyeKind:
		return new(Goodbye), nil
	case IdentifyRequestKind:
		return new(IdentifyRequest), nil
	case IdentifyResponseKind:
		return new(IdentifyResponse), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMessageKind, byte(kind))
	}
}

// EncodeMessage encodes the kind and the body of a message, without the
// frame length.
func EncodeMessage(m Message) ([]byte, error) {
	e := newEncoder()
	e.u8(byte(m.Kind()))
	m.encode(e)
	return e.bytes()
}

// DecodeMessage decodes a message encoded by EncodeMessage.
func DecodeMessage(b []byte) (Message, error) {
	if len(b) == 0 {
		return nil, ErrEmptyFrame
	}

	m, err := newMessage(MessageKind(b[0]))
	if err != nil {
		return nil, err
	}

	d := newDecoder(b[1:])
	err = m.decode(d)
	if err != nil {
		return nil, fmt.Errorf("decoding %s message: %w", m.Kind(), err)
	}

	err = d.finish()
	if err != nil {
		return nil, fmt.Errorf("decoding %s message: %w", m.Kind(), err)
	}

	return m, nil
}
