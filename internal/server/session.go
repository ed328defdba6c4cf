// internal/server/session.go
package server

import (
	"errors"
	"net"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/azuelle/coinduel/internal/game"
	"github.com/azuelle/coinduel/internal/protocol"
	"github.com/azuelle/coinduel/internal/transport"
)

// lobbyHandler handles one lobby verb. A returned error means the session's
// transport is dead and the loop must stop.
type lobbyHandler func(p *game.Player, args []string) error

// command pairs a handler with the argument count it expects; any verb or
// arity outside the table falls through to "unrecognized message".
type command struct {
	arity   int
	handler lobbyHandler
}

// HandleConn drives one client connection through its whole life: the
// authentication gate, then the lobby command loop. Runs on its own
// goroutine; the connection is closed when it returns.
func (s *Server) HandleConn(nc net.Conn) {
	conn := transport.NewConn(nc, s.cfg.ReadBuffer)
	defer conn.Close()

	username, ok := s.authenticate(conn)
	if !ok {
		return
	}

	p := game.NewPlayer(conn, username, s.log)
	s.log.WithField("player_id", p.ID).Infof("%s successfully logged in", p)
	s.lobby(p)
}

// authenticate gates the session until a valid /login succeeds. Every other
// line (wrong verb, wrong arity, bad credentials, undecodable bytes) gets
// exactly one reply and the session stays in the login phase. Only a
// transport failure ends the gate.
func (s *Server) authenticate(conn *transport.Conn) (string, bool) {
	log := s.log.WithFields(logrus.Fields{
		"remote":  conn.RemoteAddr(),
		"conn_id": uuid.New(),
	})
	log.Info("authenticating client")

	for {
		msg, err := conn.Recv()
		if err != nil {
			if errors.Is(err, transport.ErrBadEncoding) {
				log.Errorf("decode error: %v", err)
				if conn.Send(protocol.MsgUnrecognized) != nil {
					return "", false
				}
				continue
			}
			log.Errorf("socket error during authentication: %v", err)
			return "", false
		}

		user, pass, ok := protocol.ParseLogin(msg)
		if !ok {
			log.Warnf("received invalid message: %q", msg)
			if conn.Send(protocol.MsgUnrecognized) != nil {
				return "", false
			}
			continue
		}

		if !s.users.Validate(user, pass) {
			log.Warnf("authentication failed for user %s", user)
			if conn.Send(protocol.MsgLoginFailed) != nil {
				return "", false
			}
			continue
		}

		if conn.Send(protocol.MsgLoginOK) != nil {
			return "", false
		}
		return user, true
	}
}

// lobby is the post-login command loop: parse a verb, check its arity, and
// route it. /exit is handled inline since it ends the loop.
func (s *Server) lobby(p *game.Player) {
	commands := map[string]command{
		protocol.VerbList:  {arity: 0, handler: s.handleList},
		protocol.VerbEnter: {arity: 1, handler: s.handleEnter},
	}

	for {
		msg, err := p.Recv()
		if err != nil {
			if errors.Is(err, transport.ErrBadEncoding) {
				s.log.Errorf("decode error from %s: %v", p, err)
				if p.Send(protocol.MsgUnrecognized) != nil {
					return
				}
				continue
			}
			s.log.Errorf("%s disconnected: %v", p, err)
			p.MarkDisconnected()
			p.Leave()
			return
		}

		s.log.Infof("received message from %s: %q", p, strings.TrimSpace(msg))
		fields := strings.Fields(msg)

		if len(fields) == 1 && fields[0] == protocol.VerbExit {
			// Best effort; the connection closes either way.
			_ = p.Send(protocol.MsgBye)
			s.log.Infof("%s exited", p)
			return
		}

		if len(fields) > 0 {
			if cmd, ok := commands[fields[0]]; ok && len(fields)-1 == cmd.arity {
				if err := cmd.handler(p, fields[1:]); err != nil {
					return
				}
				continue
			}
		}

		s.log.Warnf("received invalid message from %s: %q", p, msg)
		if p.Send(protocol.MsgUnrecognized) != nil {
			return
		}
	}
}

func (s *Server) handleList(p *game.Player, _ []string) error {
	s.log.Infof("%s requested room list", p)
	return p.Send(protocol.RoomList(s.pool.List()))
}

func (s *Server) handleEnter(p *game.Player, args []string) error {
	s.log.Infof("%s requested to enter room %s", p, args[0])

	index, err := strconv.Atoi(args[0])
	if err != nil {
		return p.Send(protocol.MsgUnrecognized)
	}
	room, err := s.pool.Get(index)
	if err != nil {
		s.log.Warnf("%s requested out-of-range room %d", p, index)
		return p.Send(protocol.MsgUnrecognized)
	}

	status, err := p.JoinRoom(room)
	if err != nil {
		return err
	}
	if status == game.JoinWaiting {
		return room.WaitAndPlay(p)
	}
	return nil
}
