// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/gorilla/websocket"
	ma "github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
)

const readChunkSize = 4096

var errConnectionRefused = errors.New("connection refused")

// Transport opens connections to remote addresses.
type Transport interface {
	Dial(ctx context.Context, addr ma.Multiaddr) (Connection, error)
}

// Connection is an established connection with non blocking buffered reads.
type Connection interface {
	// ReadBuffer returns the bytes received and not consumed yet.
	// closed is true once the remote closed its writing side.
	// A non nil error means reading failed.
	ReadBuffer() (data []byte, closed bool, err error)
	// Readable receives a value when new bytes were received or
	// the reading side ended.
	Readable() <-chan struct{}
	// AdvanceReadCursor consumes the first n bytes of the read buffer.
	AdvanceReadCursor(n int)
	Write(p []byte) error
	// CloseWrite closes the writing side, so that the remote reads the end
	// of the stream. Streams without half close support are fully closed.
	CloseWrite() error
	Close() error
	RemoteMultiaddr() ma.Multiaddr
}

// bufferedConn implements Connection on top of a stream. A goroutine reads
// the stream into a buffer until it fails or is closed.
type bufferedConn struct {
	stream io.ReadWriteCloser
	remote ma.Multiaddr

	mutex       sync.Mutex
	buffer      []byte
	closed      bool
	readErr     error
	closedLocal bool
	readable    chan struct{}
}

// NewConnection turns a stream into a Connection, for instance the
// remote end of a connection received by a MemoryTransport listener.
func NewConnection(stream io.ReadWriteCloser, remote ma.Multiaddr) Connection {
	return newBufferedConn(stream, remote)
}

func newBufferedConn(stream io.ReadWriteCloser, remote ma.Multiaddr) *bufferedConn {
	c := &bufferedConn{
		stream:   stream,
		remote:   remote,
		readable: make(chan struct{}, 1),
	}
	go c.readLoop()
	return c
}

func (c *bufferedConn) readLoop() {
	chunk := make([]byte, readChunkSize)
	for {
		n, err := c.stream.Read(chunk)

		c.mutex.Lock()
		c.buffer = append(c.buffer, chunk[:n]...)
		if err != nil {
			c.closed = true
			if !errors.Is(err, io.EOF) && !c.closedLocal {
				c.readErr = err
			}
		}
		c.mutex.Unlock()

		c.signal()
		if err != nil {
			return
		}
	}
}

func (c *bufferedConn) signal() {
	select {
	case c.readable <- struct{}{}:
	default:
	}
}

func (c *bufferedConn) ReadBuffer() (data []byte, closed bool, err error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.buffer, c.closed, c.readErr
}

func (c *bufferedConn) Readable() <-chan struct{} {
	return c.readable
}

func (c *bufferedConn) AdvanceReadCursor(n int) {
	if n == 0 {
		return
	}

	c.mutex.Lock()
	c.buffer = c.buffer[n:]
	remaining := len(c.buffer)
	c.mutex.Unlock()

	if remaining > 0 {
		c.signal()
	}
}

func (c *bufferedConn) Write(p []byte) error {
	_, err := c.stream.Write(p)
	return err
}

type writeCloser interface {
	CloseWrite() error
}

func (c *bufferedConn) CloseWrite() error {
	if stream, ok := c.stream.(writeCloser); ok {
		return stream.CloseWrite()
	}
	return c.Close()
}

func (c *bufferedConn) Close() error {
	c.mutex.Lock()
	c.closedLocal = true
	c.mutex.Unlock()
	return c.stream.Close()
}

func (c *bufferedConn) RemoteMultiaddr() ma.Multiaddr {
	return c.remote
}

// TCPTransport dials TCP addresses, optionally wrapped in a websocket
// when the address ends with /ws or /wss.
type TCPTransport struct {
	Dialer websocket.Dialer
}

// Dial implements Transport.
func (t *TCPTransport) Dial(ctx context.Context, addr ma.Multiaddr) (Connection, error) {
	host, port, err := hostPort(addr)
	if err != nil {
		return nil, err
	}

	if scheme, ok := websocketScheme(addr); ok {
		url := fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(host, port))
		conn, _, err := t.Dialer.DialContext(ctx, url, nil) //nolint:bodyclose
		if err != nil {
			return nil, fmt.Errorf("dialing %s: %w", url, err)
		}
		return newBufferedConn(&websocketStream{conn: conn}, addr), nil
	}

	if manet.IsThinWaist(addr) {
		var dialer manet.Dialer
		conn, err := dialer.DialContext(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("dialing %s: %w", addr, err)
		}
		return newBufferedConn(conn, addr), nil
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}
	return newBufferedConn(conn, addr), nil
}

// hostPort extracts the host and the TCP port of an address.
func hostPort(addr ma.Multiaddr) (host, port string, err error) {
	for _, code := range []int{ma.P_IP4, ma.P_IP6, ma.P_DNS, ma.P_DNS4, ma.P_DNS6} {
		host, err = addr.ValueForProtocol(code)
		if err == nil {
			break
		}
	}
	if err != nil {
		return "", "", fmt.Errorf("%w: %s has no host", ErrUnsupportedAddress, addr)
	}

	port, err = addr.ValueForProtocol(ma.P_TCP)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s has no tcp port", ErrUnsupportedAddress, addr)
	}

	return host, port, nil
}

func websocketScheme(addr ma.Multiaddr) (scheme string, ok bool) {
	if _, err := addr.ValueForProtocol(ma.P_WSS); err == nil {
		return "wss", true
	}
	if _, err := addr.ValueForProtocol(ma.P_WS); err == nil {
		return "ws", true
	}
	return "", false
}

// websocketStream turns binary websocket messages into a stream.
type websocketStream struct {
	conn   *websocket.Conn
	reader io.Reader
}

func (s *websocketStream) Read(p []byte) (int, error) {
	for {
		if s.reader == nil {
			messageType, reader, err := s.conn.NextReader()
			if err != nil {
				var closeErr *websocket.CloseError
				if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure {
					return 0, io.EOF
				}
				return 0, err
			}
			if messageType != websocket.BinaryMessage {
				continue
			}
			s.reader = reader
		}

		n, err := s.reader.Read(p)
		if errors.Is(err, io.EOF) {
			s.reader = nil
			if n == 0 {
				continue
			}
			return n, nil
		}
		return n, err
	}
}

func (s *websocketStream) Write(p []byte) (int, error) {
	err := s.conn.WriteMessage(websocket.BinaryMessage, p)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *websocketStream) CloseWrite() error {
	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	return s.conn.WriteMessage(websocket.CloseMessage, message)
}

func (s *websocketStream) Close() error {
	return s.conn.Close()
}

// MemoryTransport connects to listeners registered in memory.
type MemoryTransport struct {
	mutex     sync.Mutex
	listeners map[string]chan net.Conn
}

// NewMemoryTransport creates a transport without any listener.
func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{
		listeners: make(map[string]chan net.Conn),
	}
}

// Listen registers a listener for the address and returns the channel
// receiving the remote end of every connection dialed to it.
func (t *MemoryTransport) Listen(addr ma.Multiaddr) <-chan net.Conn {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	listener := make(chan net.Conn, DefaultEventsQueueCapacity)
	t.listeners[addr.String()] = listener
	return listener
}

// Dial implements Transport.
func (t *MemoryTransport) Dial(ctx context.Context, addr ma.Multiaddr) (Connection, error) {
	t.mutex.Lock()
	listener, ok := t.listeners[addr.String()]
	t.mutex.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", errConnectionRefused, addr)
	}

	local, remote := net.Pipe()
	select {
	case listener <- remote:
		return newBufferedConn(local, addr), nil
	case <-ctx.Done():
		_ = local.Close()
		_ = remote.Close()
		return nil, ctx.Err()
	}
}
