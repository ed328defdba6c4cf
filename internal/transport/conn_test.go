// internal/transport/conn_test.go
package transport

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipePair(t *testing.T) (*Conn, net.Conn) {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	return NewConn(a, 0), b
}

func TestSendRecv(t *testing.T) {
	conn, peer := pipePair(t)

	go func() {
		_, _ = peer.Write([]byte("/login alice secret"))
	}()
	msg, err := conn.Recv()
	require.NoError(t, err)
	assert.Equal(t, "/login alice secret", msg)

	done := make(chan string, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := peer.Read(buf)
		done <- string(buf[:n])
	}()
	require.NoError(t, conn.Send("1001 Authentication successful"))
	assert.Equal(t, "1001 Authentication successful", <-done)
}

func TestRecvPeerClosed(t *testing.T) {
	conn, peer := pipePair(t)
	require.NoError(t, peer.Close())

	_, err := conn.Recv()
	assert.ErrorIs(t, err, ErrPeerClosed)
}

func TestRecvBadEncoding(t *testing.T) {
	conn, peer := pipePair(t)

	go func() {
		_, _ = peer.Write([]byte{'/', 'l', 0xc3, 0xa9})
	}()
	_, err := conn.Recv()
	assert.ErrorIs(t, err, ErrBadEncoding)
}

func TestSendBadEncoding(t *testing.T) {
	conn, _ := pipePair(t)
	err := conn.Send("café")
	assert.ErrorIs(t, err, ErrBadEncoding)
}

func TestRecvTruncatesAtBuffer(t *testing.T) {
	a, b := net.Pipe()
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	conn := NewConn(a, 4)

	go func() {
		_, _ = b.Write([]byte("abcdefgh"))
	}()
	// Length-unaware reads return at most one buffer's worth; the rest is a
	// separate read.
	msg, err := conn.Recv()
	require.NoError(t, err)
	assert.Equal(t, "abcd", msg)

	msg, err = conn.Recv()
	require.NoError(t, err)
	assert.Equal(t, "efgh", msg)
}
