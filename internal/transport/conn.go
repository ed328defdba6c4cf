// internal/transport/conn.go
package transport

import (
	"errors"
	"fmt"
	"io"
	"net"
)

// ErrPeerClosed indicates the remote side closed the connection (a zero-byte
// read or EOF from the socket).
var ErrPeerClosed = errors.New("peer closed the connection")

// ErrBadEncoding indicates a payload that is not valid ASCII. The protocol is
// ASCII-only; callers treat this as a malformed message, not a dead peer.
var ErrBadEncoding = errors.New("message is not valid ascii")

// DefaultBufferSize is the receive ceiling for a single best-effort read.
const DefaultBufferSize = 1024

// Conn wraps a net.Conn with the wire discipline the game protocol uses:
// ASCII text, no framing, one best-effort read per message. A read returns
// whatever is currently available up to the buffer ceiling, so a message may
// in principle arrive split or coalesced; both ends of the protocol assume
// one read = one message.
type Conn struct {
	nc  net.Conn
	buf []byte
}

// NewConn wraps nc. A bufSize of 0 selects DefaultBufferSize.
func NewConn(nc net.Conn, bufSize int) *Conn {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	return &Conn{nc: nc, buf: make([]byte, bufSize)}
}

// Dial connects to the given TCP address and wraps the connection.
func Dial(addr string, bufSize int) (*Conn, error) {
	nc, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return NewConn(nc, bufSize), nil
}

// Recv performs one best-effort read and decodes it as ASCII text.
// A zero-byte read or EOF yields ErrPeerClosed; non-ASCII payloads yield
// ErrBadEncoding with the connection still usable.
func (c *Conn) Recv() (string, error) {
	n, err := c.nc.Read(c.buf)
	if n == 0 {
		if err == nil {
			return "", ErrPeerClosed
		}
		if isClosedErr(err) {
			return "", fmt.Errorf("%w: %v", ErrPeerClosed, err)
		}
		return "", err
	}
	msg := string(c.buf[:n])
	if !isASCII(msg) {
		return "", ErrBadEncoding
	}
	return msg, nil
}

// Send writes msg as a single ASCII payload. Returns ErrBadEncoding if the
// message cannot be represented on the wire.
func (c *Conn) Send(msg string) error {
	if !isASCII(msg) {
		return ErrBadEncoding
	}
	if _, err := c.nc.Write([]byte(msg)); err != nil {
		return err
	}
	return nil
}

// CloseWrite half-closes the connection if the underlying transport supports
// it; the client uses this to signal exit while still draining replies.
func (c *Conn) CloseWrite() error {
	if tc, ok := c.nc.(*net.TCPConn); ok {
		return tc.CloseWrite()
	}
	return nil
}

// RemoteAddr reports the peer's address for logging.
func (c *Conn) RemoteAddr() string {
	if c.nc == nil {
		return "?"
	}
	return c.nc.RemoteAddr().String()
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.nc.Close()
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return false
		}
	}
	return true
}

func isClosedErr(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF)
}
