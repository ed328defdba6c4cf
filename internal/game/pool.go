// internal/game/pool.go
package game

import (
	"errors"

	"github.com/sirupsen/logrus"
)

// ErrInvalidRoomIndex is returned by Pool.Get for an index outside [1, n].
var ErrInvalidRoomIndex = errors.New("invalid room index")

// Pool is the fixed registry of rooms. It is allocated once at startup and
// its shape never changes, so it needs no locking of its own; only the
// member counts inside individual rooms move.
type Pool struct {
	rooms []*Room
}

// NewPool allocates n clean rooms, indexed 1..n in the public protocol.
func NewPool(n int, logger *logrus.Logger) *Pool {
	rooms := make([]*Room, n)
	for i := range rooms {
		rooms[i] = NewRoom(i+1, logger)
	}
	return &Pool{rooms: rooms}
}

// Size reports the fixed number of rooms.
func (p *Pool) Size() int {
	return len(p.rooms)
}

// Get returns the room at the 1-based index.
func (p *Pool) Get(index int) (*Room, error) {
	if index < 1 || index > len(p.rooms) {
		return nil, ErrInvalidRoomIndex
	}
	return p.rooms[index-1], nil
}

// List returns each room's current member count in fixed index order, for
// the lobby listing.
func (p *Pool) List() []int {
	counts := make([]int, len(p.rooms))
	for i, r := range p.rooms {
		counts[i] = r.Len()
	}
	return counts
}
