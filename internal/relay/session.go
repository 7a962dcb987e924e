package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/wtask/relay/internal/relay/hub"
	"github.com/wtask/relay/internal/relay/linestream"
	"github.com/wtask/relay/internal/relay/metrics"
)

// SessionConfig - dependencies of Session besides connection and hub.
type SessionConfig struct {
	Log     *slog.Logger
	Metrics *metrics.Relay
	Stream  []linestream.Option
}

// Session - relays lines of a single client connection.
// Lines read from the client are published to the hub, lines published by other
// clients are written back to the connection.
type Session struct {
	id      PeerIdentity
	conn    io.ReadWriteCloser
	stream  *linestream.Stream
	hub     *hub.Hub
	log     *slog.Logger
	metrics *metrics.Relay

	reason    atomic.Int32 // first CloseReason wins
	closing   atomic.Bool  // set by Close, I/O errors after it are expected
	closeOnce sync.Once
}

// NewSession - builds session for accepted connection. Session owns conn since this call.
func NewSession(id PeerIdentity, conn io.ReadWriteCloser, h *hub.Hub, cfg *SessionConfig) (*Session, error) {
	if id == "" {
		return nil, errors.New("relay.NewSession: empty peer identity")
	}
	if conn == nil {
		return nil, errors.New("relay.NewSession: connection is nil")
	}
	if h == nil {
		return nil, errors.New("relay.NewSession: hub is nil")
	}
	if cfg == nil {
		cfg = &SessionConfig{}
	}
	stream, err := linestream.New(conn, cfg.Stream...)
	if err != nil {
		return nil, fmt.Errorf("relay.NewSession: %w", err)
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		id:      id,
		conn:    conn,
		stream:  stream,
		hub:     h,
		log:     log.With("peer", string(id)),
		metrics: cfg.Metrics,
	}, nil
}

// ID - returns peer identity of the session.
func (s *Session) ID() PeerIdentity {
	return s.id
}

// Run - relays lines until the peer leaves, I/O fails, ctx is canceled or the hub is closed.
// Returns nil when the session ends gracefully. The connection is closed on return.
func (s *Session) Run(ctx context.Context) error {
	sub, err := s.hub.Subscribe()
	if err != nil {
		s.closeConn()
		return fmt.Errorf("relay.Session: %w", err)
	}
	defer sub.Close()

	s.metrics.SessionOpened()
	s.log.Debug("session started")

	// ioCtx is canceled as soon as any direction stops, to release the other one
	ioCtx, cancelIO := context.WithCancel(ctx)
	defer cancelIO()
	g, gctx := errgroup.WithContext(ioCtx)
	g.Go(func() error {
		defer cancelIO()
		return s.relayInbound(gctx)
	})
	g.Go(func() error {
		defer cancelIO()
		return s.relayOutbound(gctx, sub)
	})
	g.Go(func() error {
		<-gctx.Done()
		// unblocks reader stuck in ReadLine and writer stuck in WriteAll
		s.closeConn()
		return nil
	})
	err = g.Wait()

	if ctx.Err() != nil {
		s.setReason(ReasonShutdown)
	}
	s.setReason(ReasonLeft)
	reason := s.Reason()
	s.metrics.SessionClosed(reason.String())
	if err != nil {
		s.log.Debug("session closed", "reason", reason.String(), "error", err)
	} else {
		s.log.Debug("session closed", "reason", reason.String())
	}
	return err
}

// Reason - returns why the session was closed, zero value while it is running.
func (s *Session) Reason() CloseReason {
	return CloseReason(s.reason.Load())
}

// Close - forces the session to stop. It is safe to call Close several times.
func (s *Session) Close() error {
	s.setReason(ReasonShutdown)
	s.closing.Store(true)
	return s.closeConn()
}

func (s *Session) setReason(r CloseReason) {
	s.reason.CompareAndSwap(0, int32(r))
}

func (s *Session) closeConn() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.conn.Close()
	})
	return err
}

// relayInbound - reads lines from the peer and publishes them to the hub.
func (s *Session) relayInbound(ctx context.Context) error {
	for {
		line, err := s.stream.ReadLine()
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				s.setReason(ReasonLeft)
				return nil
			case ctx.Err() != nil || s.closing.Load():
				// connection was closed by teardown
				return nil
			case linestream.IsTimeout(err):
				s.setReason(ReasonTimeout)
				return nil
			default:
				s.setReason(ReasonFailed)
				return fmt.Errorf("relay.Session: read: %w", err)
			}
		}
		if _, err := s.hub.Publish(hub.Message{Text: line, Origin: string(s.id)}); err != nil {
			s.setReason(ReasonShutdown)
			return fmt.Errorf("relay.Session: publish: %w", err)
		}
		s.metrics.LinePublished()
	}
}

// relayOutbound - writes lines of other peers to the connection.
func (s *Session) relayOutbound(ctx context.Context, sub *hub.Subscription) error {
	for {
		m, err := sub.Receive(ctx)
		if err != nil {
			if skipped, ok := hub.IsLagged(err); ok {
				s.log.Warn("subscription lagged behind", "skipped", skipped)
				s.metrics.LinesSkipped(skipped)
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			s.setReason(ReasonShutdown)
			return fmt.Errorf("relay.Session: receive: %w", err)
		}
		if m.Origin == string(s.id) {
			continue
		}
		if err := s.stream.WriteAll(m.Text); err != nil {
			switch {
			case ctx.Err() != nil || s.closing.Load():
				return nil
			case linestream.IsTimeout(err):
				s.setReason(ReasonTimeout)
			default:
				s.setReason(ReasonFailed)
			}
			return fmt.Errorf("relay.Session: write: %w", err)
		}
		s.metrics.LineDelivered()
	}
}
