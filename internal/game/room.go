// internal/game/room.go
package game

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/azuelle/coinduel/internal/protocol"
	"github.com/azuelle/coinduel/internal/transport"
)

// roomCapacity is the fixed number of players per round.
const roomCapacity = 2

// JoinStatus tells the admitting session what happened and what it owes the
// room next.
type JoinStatus int

const (
	// JoinFull: the requester was refused; it stays in the lobby.
	JoinFull JoinStatus = iota
	// JoinWaiting: admitted below capacity; the session must call
	// WaitAndPlay to park until the round starts.
	JoinWaiting
	// JoinStarted: admission filled the room; the session was the start
	// trigger and the whole round already ran inside Join.
	JoinStarted
)

// Room coordinates one synchronized guessing round between two independently
// scheduled player sessions.
//
// All round state is guarded by mu. The four booleans are level-triggered
// broadcast flags: any number of waiters may observe a transition, and every
// transition broadcasts on cond so waiters block without spinning. The
// lifecycle cycles from clean through filling, active, and resolving back to
// clean; a room is never destroyed while the process runs.
type Room struct {
	id  int
	log *logrus.Logger

	mu   sync.Mutex
	cond *sync.Cond

	members []*Player // insertion order = join order
	guesses map[*Player]*bool

	started  bool
	finished bool
	aborted  bool
	clean    bool // no members, no in-flight round

	// round increments on every reset; an asynchronous cleanup scheduled for
	// an earlier round is stale and must not touch a reused room.
	round uint64

	// coin draws the hidden answer. Injectable for deterministic tests.
	coin func() bool
}

// NewRoom allocates an empty, clean room. The id is the 1-based index shown
// to clients.
func NewRoom(id int, logger *logrus.Logger) *Room {
	r := &Room{
		id:      id,
		log:     logger,
		guesses: make(map[*Player]*bool),
		clean:   true,
		coin:    func() bool { return rand.Intn(2) == 0 },
	}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// ID returns the room's 1-based index.
func (r *Room) ID() int { return r.id }

// Len reports the current member count.
func (r *Room) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// IsClean reports whether the room holds no members and no in-flight round.
func (r *Room) IsClean() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clean
}

// SetCoin overrides the answer draw. Test hook, same shape as the room's
// default.
func (r *Room) SetCoin(coin func() bool) {
	r.mu.Lock()
	r.coin = coin
	r.mu.Unlock()
}

// Join runs the admission rule for p.
//
// A full room refuses immediately with a "room full" reply and no room state
// change. Otherwise admission waits until any in-flight reset from the
// previous round has finished (the clean flag), so a new join can never race
// a stale cleanup into mixed membership. If admission leaves the room below
// capacity the requester is told to wait; if it fills the room, the
// requester becomes the single start trigger and the round runs to
// completion on its goroutine before Join returns.
//
// A returned error means p's own transport failed; p has already been
// detached from the room.
func (r *Room) Join(p *Player) (JoinStatus, error) {
	r.mu.Lock()
	if len(r.members) == roomCapacity {
		r.mu.Unlock()
		if err := p.Send(protocol.MsgRoomFull); err != nil {
			return JoinFull, err
		}
		return JoinFull, nil
	}

	for !r.clean {
		r.cond.Wait()
	}

	// Re-check capacity: another session may have filled the room while we
	// waited for the reset.
	if len(r.members) == roomCapacity {
		r.mu.Unlock()
		if err := p.Send(protocol.MsgRoomFull); err != nil {
			return JoinFull, err
		}
		return JoinFull, nil
	}

	if r.isMemberLocked(p) {
		r.log.Warnf("%s is already in room %d", p, r.id)
		r.mu.Unlock()
		return JoinWaiting, nil
	}

	r.members = append(r.members, p)
	r.guesses[p] = nil
	p.enterRoom(r)
	below := len(r.members) < roomCapacity
	r.mu.Unlock()

	if below {
		if err := p.Send(protocol.MsgWait); err != nil {
			// If a second join already started the round, the room must
			// learn about the dead member through the abort path; otherwise
			// just undo the admission.
			r.mu.Lock()
			if r.started && !r.aborted {
				r.mu.Unlock()
				r.handleExit(p)
			} else {
				r.removeLocked(p)
				r.mu.Unlock()
			}
			return JoinWaiting, err
		}
		return JoinWaiting, nil
	}

	return JoinStarted, r.start(p)
}

// WaitAndPlay parks an admitted-but-waiting session until the round starts,
// then plays it: prompt, collect this member's guess (this goroutine is the
// member's guess-collection unit), and block until the round resolves.
func (r *Room) WaitAndPlay(p *Player) error {
	r.log.Infof("%s is waiting for game to start", p)

	r.mu.Lock()
	for !r.started && !r.aborted && r.isMemberLocked(p) {
		r.cond.Wait()
	}
	if !r.isMemberLocked(p) {
		// The round collapsed before this session parked; recovery and the
		// reset already returned the player to the lobby.
		r.mu.Unlock()
		p.Leave()
		return nil
	}
	if r.aborted {
		// If recovery already claimed this member (WAITING→INGAME under the
		// room lock), it owns the socket: park until the reset finishes so
		// only one goroutine reads from the connection at a time. The round
		// counter bounds the wait to this round even if the room is reused
		// immediately.
		if p.State() == StateInGame {
			gen := r.round
			for !r.clean && r.round == gen && p.State() == StateInGame {
				r.cond.Wait()
			}
			r.mu.Unlock()
			return nil
		}
		r.mu.Unlock()
		p.Leave()
		return nil
	}
	gen := r.round
	// Advance to INGAME before releasing the lock. Once a peer failure can
	// raise the abort flag, recovery must never see this member still WAITING
	// and seize a socket this goroutine is about to use.
	p.setState(StateInGame)
	r.mu.Unlock()

	r.log.Infof("notifying %s", p)
	if err := p.Send(protocol.MsgGameStarted); err != nil {
		r.handleExit(p)
		return err
	}
	if err := r.collectGuess(p); err != nil {
		r.handleExit(p)
		return err
	}

	// An aborted round's reset may complete before this goroutine gets here,
	// clearing the flags; the round counter keeps the wait bounded to this
	// round either way.
	r.mu.Lock()
	for !r.finished && !r.aborted && r.round == gen {
		r.cond.Wait()
	}
	r.mu.Unlock()
	return nil
}

// start runs the single start sequence on the trigger session's goroutine:
// flip the flags, prompt and collect the trigger's own guess, wait for every
// member's collection unit, resolve, and schedule the asynchronous reset.
func (r *Room) start(trigger *Player) error {
	r.mu.Lock()
	if len(r.members) != roomCapacity {
		// Defensive: a concurrent race emptied the room under us. Leave it
		// unchanged.
		r.log.Errorf("room %d: invalid number of players when starting game", r.id)
		r.mu.Unlock()
		return nil
	}

	r.clean = false
	r.started = true
	gen := r.round
	for _, m := range r.members {
		r.guesses[m] = nil
	}
	r.cond.Broadcast()
	// The trigger advances to INGAME in the same critical section that raises
	// started, so a recovery walk racing this start can never claim the
	// trigger's socket.
	trigger.setState(StateInGame)

	names := make([]string, 0, roomCapacity)
	for _, m := range r.members {
		names = append(names, m.String())
	}
	r.mu.Unlock()

	r.log.Infof("starting game in room %d with %v", r.id, names)

	r.log.Infof("notifying starter %s", trigger)
	if err := trigger.Send(protocol.MsgGameStarted); err != nil {
		r.handleExit(trigger)
		return err
	}
	if err := r.collectGuess(trigger); err != nil {
		r.handleExit(trigger)
		return err
	}

	// Wait for all collection units.
	r.mu.Lock()
	for !r.allGuessedLocked() && !r.aborted && r.round == gen {
		r.cond.Wait()
	}
	if r.aborted || r.round != gen {
		// Recovery already notified the survivors and scheduled the reset.
		r.mu.Unlock()
		return nil
	}

	// Resolve. Compute every member's verdict under the lock, send outside.
	results := make(map[*Player]string, roomCapacity)
	a, b := r.members[0], r.members[1]
	if *r.guesses[a] == *r.guesses[b] {
		results[a], results[b] = protocol.MsgTie, protocol.MsgTie
	} else {
		answer := r.coin()
		// The coin is compared against each guess by identity, not by member
		// position: arrival order never privileges a player.
		for _, m := range []*Player{a, b} {
			if *r.guesses[m] == answer {
				results[m] = protocol.MsgWon
			} else {
				results[m] = protocol.MsgLost
			}
		}
	}
	r.mu.Unlock()

	for _, m := range []*Player{a, b} {
		if err := m.Send(results[m]); err != nil {
			r.handleExit(m)
			if m == trigger {
				return err
			}
			return nil
		}
	}

	for _, m := range []*Player{a, b} {
		m.Leave()
	}

	r.mu.Lock()
	r.finished = true
	r.cond.Broadcast()
	r.mu.Unlock()

	go r.cleanup(gen)
	return nil
}

// collectGuess reads p's guess. It blocks only on p's own transport, so a
// slow peer never delays the other member's read. Malformed input and decode
// failures answer 4002 and keep reading; a transport failure marks p
// disconnected and returns ErrPeerUnreachable for the caller to route into
// the abort path.
func (r *Room) collectGuess(p *Player) error {
	r.log.Infof("waiting for guess from %s", p)
	for {
		msg, err := p.Recv()
		if err != nil {
			if errors.Is(err, transport.ErrBadEncoding) {
				if serr := p.Send(protocol.MsgUnrecognized); serr != nil {
					return serr
				}
				continue
			}
			r.log.Errorf("receive from %s failed: %v", p, err)
			p.MarkDisconnected()
			return ErrPeerUnreachable
		}

		guess, ok := protocol.ParseGuess(msg)
		if !ok {
			r.log.Warnf("received invalid message from %s: %q", p, msg)
			if serr := p.Send(protocol.MsgUnrecognized); serr != nil {
				return serr
			}
			continue
		}

		r.mu.Lock()
		if r.aborted {
			// Round already torn down; the guess is moot.
			r.mu.Unlock()
			return nil
		}
		if _, member := r.guesses[p]; member {
			g := guess
			r.guesses[p] = &g
			r.cond.Broadcast()
		}
		r.mu.Unlock()
		return nil
	}
}

// handleExit is the abort-recovery path: a member's transport failed during
// the round. The dead member is dropped, the abort flag raised, and every
// survivor walked: a member that never got to play is force-advanced and
// prompted, then every survivor is told it won; the disconnecting peer
// forfeits. Each recovery send is itself guarded against a second concurrent
// disconnect. Recovery always ends by scheduling the reset so the room is
// reusable even if every member vanished.
func (r *Room) handleExit(p *Player) {
	r.log.Errorf("%s exited unexpectedly", p)

	type survivor struct {
		m  *Player
		st State
	}

	r.mu.Lock()
	r.aborted = true
	gen := r.round
	r.removeLocked(p)

	var rest []survivor
	for _, m := range r.members {
		st := m.State()
		if st == StateWaiting {
			// Claim the member before doing any I/O: its own goroutine,
			// waking on the abort broadcast, sees INGAME and yields the
			// socket to recovery.
			m.setState(StateInGame)
		}
		rest = append(rest, survivor{m, st})
	}
	r.cond.Broadcast()
	r.mu.Unlock()

	for _, s := range rest {
		switch s.st {
		case StateLobby:
			continue
		case StateWaiting:
			if err := s.m.Send(protocol.MsgGameStarted); err != nil {
				r.RemovePlayer(s.m)
				continue
			}
			// Consume the guess the client will send in response.
			if _, err := s.m.Recv(); err != nil && !errors.Is(err, transport.ErrBadEncoding) {
				s.m.MarkDisconnected()
				r.RemovePlayer(s.m)
				continue
			}
			if err := s.m.Send(protocol.MsgWon); err != nil {
				r.RemovePlayer(s.m)
			}
		default:
			if err := s.m.Send(protocol.MsgWon); err != nil {
				r.RemovePlayer(s.m)
			}
		}
	}

	go r.cleanup(gen)
}

// cleanup is the asynchronous reset: members go back to the lobby, transient
// round state is dropped, and the clean flag releases any admission parked
// on it. Runs detached from the members' own send loops so neither
// connection goroutine is blocked doing the other's cleanup. A stale cleanup
// from a previous round is a no-op.
func (r *Room) cleanup(gen uint64) {
	r.mu.Lock()
	if r.clean || r.round != gen {
		r.mu.Unlock()
		return
	}
	leftover := make([]*Player, len(r.members))
	copy(leftover, r.members)
	r.mu.Unlock()

	for _, m := range leftover {
		m.resetToLobby()
	}

	r.mu.Lock()
	if r.round == gen {
		r.members = nil
		r.guesses = make(map[*Player]*bool)
		r.started = false
		r.finished = false
		r.aborted = false
		r.clean = true
		r.round++
		r.cond.Broadcast()
	}
	r.mu.Unlock()
}

// RemovePlayer drops p from the member list if present.
func (r *Room) RemovePlayer(p *Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(p)
}

func (r *Room) removeLocked(p *Player) {
	for i, m := range r.members {
		if m == p {
			r.members = append(r.members[:i], r.members[i+1:]...)
			delete(r.guesses, p)
			r.cond.Broadcast()
			return
		}
	}
	r.log.Warnf("trying to remove %s from room %d, but not found", p, r.id)
}

func (r *Room) isMemberLocked(p *Player) bool {
	for _, m := range r.members {
		if m == p {
			return true
		}
	}
	return false
}

func (r *Room) allGuessedLocked() bool {
	for _, m := range r.members {
		if r.guesses[m] == nil {
			return false
		}
	}
	return true
}
