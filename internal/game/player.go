// internal/game/player.go
package game

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/azuelle/coinduel/internal/transport"
)

// ErrPeerUnreachable indicates a send or receive on the player's transport
// failed. Once raised, the player is DISCONNECTED and never reused; a room
// coordinating this player with a peer uses the error to enter its abort
// path.
var ErrPeerUnreachable = errors.New("player is unreachable")

// State is the per-session protocol state.
type State int

const (
	StateLobby State = iota
	StateWaiting
	StateInGame
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateLobby:
		return "LOBBY"
	case StateWaiting:
		return "WAITING"
	case StateInGame:
		return "INGAME"
	case StateDisconnected:
		return "DISCONNECTED"
	}
	return "UNKNOWN"
}

// Player is one authenticated client session. It owns the connection and is
// the unit of concurrency: one goroutine per player drives its protocol loop.
//
// The mutex serializes state mutation and outbound sends. Two goroutines may
// write to the same player (its own loop, and a room walking its members
// during resolution or recovery), and the lock keeps those writes from
// interleaving. The room back-reference is advisory only; the room's member
// list is the authority for membership.
type Player struct {
	ID       uuid.UUID
	Username string

	mu    sync.Mutex
	state State
	room  *Room

	conn *transport.Conn
	log  *logrus.Logger
}

// NewPlayer wraps an authenticated connection. The player starts in LOBBY.
func NewPlayer(conn *transport.Conn, username string, logger *logrus.Logger) *Player {
	return &Player{
		ID:       uuid.New(),
		Username: username,
		state:    StateLobby,
		conn:     conn,
		log:      logger,
	}
}

func (p *Player) String() string {
	return fmt.Sprintf("player %s at %s", p.Username, p.conn.RemoteAddr())
}

// State returns the current session state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Room returns the player's cached room reference, or nil.
func (p *Player) Room() *Room {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.room
}

func (p *Player) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// enterRoom records the advisory back-reference and moves to WAITING.
// Called by Room.Join with the room lock held.
func (p *Player) enterRoom(r *Room) {
	p.mu.Lock()
	p.room = r
	p.state = StateWaiting
	p.mu.Unlock()
}

// resetToLobby clears room residue without touching the room's member list.
// Called by the room's cleanup, which owns membership.
func (p *Player) resetToLobby() {
	p.mu.Lock()
	if p.state != StateDisconnected {
		p.state = StateLobby
	}
	p.room = nil
	p.mu.Unlock()
}

// Send transmits one framed text message. On any transport or encoding
// failure the player is forced to DISCONNECTED and ErrPeerUnreachable is
// returned, so callers coordinating multiple players learn immediately that
// this peer vanished.
func (p *Player) Send(msg string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.log.Debugf("sending to %s: %s", p, msg)
	if err := p.conn.Send(msg); err != nil {
		p.log.Errorf("send to %s failed: %v", p, err)
		p.state = StateDisconnected
		return fmt.Errorf("%w: %v", ErrPeerUnreachable, err)
	}
	return nil
}

// Recv performs one best-effort read on the player's transport. Encoding
// errors pass through as transport.ErrBadEncoding (the session stays alive);
// socket errors and peer close do not mark the player disconnected here;
// callers decide, since a read may race an intentional /exit.
func (p *Player) Recv() (string, error) {
	msg, err := p.conn.Recv()
	if err == nil {
		p.log.Debugf("received from %s: %s", p, msg)
	}
	return msg, err
}

// MarkDisconnected forces the terminal state without touching room
// membership; room-side cleanup happens once the room observes the failure.
func (p *Player) MarkDisconnected() {
	p.setState(StateDisconnected)
}

// JoinRoom requests membership in r, delegating to the room's admission
// rule.
func (p *Player) JoinRoom(r *Room) (JoinStatus, error) {
	return r.Join(p)
}

// Leave returns the player to the lobby and drops it from its room, if any.
// Idempotent: leaving while not in a room is a no-op.
func (p *Player) Leave() {
	p.mu.Lock()
	room := p.room
	p.room = nil
	if p.state != StateDisconnected {
		p.state = StateLobby
	}
	p.mu.Unlock()

	if room == nil {
		p.log.Debugf("%s left but was not in a room", p)
		return
	}
	p.log.Infof("%s left the room", p)
	room.RemovePlayer(p)
}

// Close closes the underlying connection.
func (p *Player) Close() error {
	return p.conn.Close()
}
