// internal/server/server.go
package server

import (
	"errors"
	"fmt"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/azuelle/coinduel/internal/auth"
	"github.com/azuelle/coinduel/internal/config"
	"github.com/azuelle/coinduel/internal/game"
)

// Server hosts the game over TCP: one goroutine per accepted connection,
// all of them sharing the user directory and the fixed room pool. The pool
// is constructed here and passed into every session rather than living in
// package state, so independent servers (and tests) never couple.
type Server struct {
	users *auth.Directory
	pool  *game.Pool
	cfg   config.Config
	log   *logrus.Logger
}

// New builds a server around a loaded user directory.
func New(users *auth.Directory, cfg config.Config, logger *logrus.Logger) *Server {
	return &Server{
		users: users,
		pool:  game.NewPool(cfg.RoomCount, logger),
		cfg:   cfg,
		log:   logger,
	}
}

// Pool exposes the room pool, mainly for tests.
func (s *Server) Pool() *game.Pool {
	return s.pool
}

// ListenAndServe binds the TCP port and accepts connections until the
// listener fails. A bind failure is returned to the caller (fatal at
// startup); individual accept errors are logged and skipped.
func (s *Server) ListenAndServe(port int) error {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", port, err)
	}
	defer l.Close()
	s.log.Infof("server started on port %d", port)

	for {
		nc, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.log.Errorf("accept failed: %v", err)
			continue
		}
		s.log.WithFields(logrus.Fields{
			"remote": nc.RemoteAddr().String(),
		}).Info("client established connection")
		go s.HandleConn(nc)
	}
}
