// Package relay implements line-broadcast relay over stream connections.
//
// Every accepted connection is served by its own Session. A session publishes
// each line read from its peer to the shared hub and writes back every line
// published by other peers, never echoing the peer's own lines.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/wtask/relay/internal/relay/hub"
	"github.com/wtask/relay/internal/relay/linestream"
	"github.com/wtask/relay/internal/relay/metrics"
	"github.com/wtask/relay/pkg/background"
)

const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

// Server - accepts connections and runs a Session for each of them over shared hub.
type Server struct {
	hub           *hub.Hub
	log           *slog.Logger
	metrics       *metrics.Relay
	streamOptions []linestream.Option

	scope *background.Scope
	live  atomic.Int64
}

// NewServer - creates server relaying lines over given hub.
// The hub is not closed by the server, it may be shared by several servers.
func NewServer(h *hub.Hub, options ...serverOption) (*Server, error) {
	if h == nil {
		return nil, errors.New("relay.NewServer: hub is nil")
	}
	scope, _ := background.NewScope(context.Background())
	s := &Server{
		hub:   h,
		log:   slog.Default(),
		scope: scope,
	}
	if err := setup(s, options...); err != nil {
		scope.Cancel()
		return nil, err
	}
	return s, nil
}

// Sessions - returns number of running sessions.
func (s *Server) Sessions() int {
	return int(s.live.Load())
}

// Serve - accepts connections until Shutdown is called or acceptor fails permanently.
// Temporary accept errors are logged and never affect running sessions.
// Returns ErrServerClosed after Shutdown.
func (s *Server) Serve(a Acceptor) error {
	if a == nil {
		return errors.New("relay.Server: acceptor is nil")
	}
	ctx := s.scope.Context()
	if !s.scope.Go(func(ctx context.Context) {
		<-ctx.Done()
		a.Close()
	}) {
		a.Close()
		return ErrServerClosed
	}

	s.log.Info("relay is listening", "addr", a.Addr().String())
	backoff := time.Duration(0)
	for {
		conn, id, err := a.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("relay.Server: accept: %w", err)
			}
			if backoff == 0 {
				backoff = minAcceptBackoff
			} else if backoff *= 2; backoff > maxAcceptBackoff {
				backoff = maxAcceptBackoff
			}
			s.log.Error("accept failed", "error", err, "retry", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ErrServerClosed
			}
			continue
		}
		backoff = 0
		s.handle(conn, id)
	}
}

func (s *Server) handle(conn net.Conn, id PeerIdentity) {
	session, err := NewSession(id, conn, s.hub, &SessionConfig{
		Log:     s.log,
		Metrics: s.metrics,
		Stream:  s.streamOptions,
	})
	if err != nil {
		s.log.Error("can't start session", "peer", string(id), "error", err)
		conn.Close()
		return
	}
	started := s.scope.Go(func(ctx context.Context) {
		s.live.Add(1)
		defer s.live.Add(-1)
		if err := session.Run(ctx); err != nil {
			s.log.Warn("session failed", "peer", string(id), "reason", session.Reason().String(), "error", err)
		}
	})
	if !started {
		session.Close()
	}
}

// Shutdown - stops accepting, closes all sessions and waits them no longer than timeout.
// Returns stopping duration.
func (s *Server) Shutdown(timeout time.Duration) time.Duration {
	from := time.Now()
	s.scope.Cancel()
	if !s.scope.Wait(timeout) {
		s.log.Warn("shutdown timeout expired", "sessions", s.Sessions())
	}
	return time.Since(from)
}
