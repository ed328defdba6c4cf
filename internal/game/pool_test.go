// internal/game/pool_test.go
package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azuelle/coinduel/internal/protocol"
)

func TestPoolIndexing(t *testing.T) {
	pool := NewPool(8, testLogger())
	require.Equal(t, 8, pool.Size())

	first, err := pool.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 1, first.ID())

	last, err := pool.Get(8)
	require.NoError(t, err)
	assert.Equal(t, 8, last.ID())

	// Index→room mapping is stable.
	again, err := pool.Get(1)
	require.NoError(t, err)
	assert.Same(t, first, again)

	for _, bad := range []int{0, -1, 9, 100} {
		_, err := pool.Get(bad)
		assert.ErrorIs(t, err, ErrInvalidRoomIndex, "index %d", bad)
	}
}

func TestPoolListCounts(t *testing.T) {
	pool := NewPool(3, testLogger())
	assert.Equal(t, []int{0, 0, 0}, pool.List())

	room, err := pool.Get(2)
	require.NoError(t, err)

	p, f := newPlayerPair(t, "alice")
	done := runSession(room, p)
	f.expect(t, protocol.CodeWait)

	assert.Equal(t, []int{0, 1, 0}, pool.List())

	// Tear the lone waiter down; removal wakes the parked session goroutine.
	p.MarkDisconnected()
	room.RemovePlayer(p)
	require.NoError(t, awaitSession(t, done).err)
	assert.Equal(t, []int{0, 0, 0}, pool.List())
}
