package relay

import (
	"errors"
	"log/slog"

	"github.com/wtask/relay/internal/relay/linestream"
	"github.com/wtask/relay/internal/relay/metrics"
)

type serverOption func(s *Server) error

func setup(s *Server, options ...serverOption) error {
	if s == nil {
		return nil
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		if err := option(s); err != nil {
			return err
		}
	}
	return nil
}

// WithLogger - sets logger for server and its sessions.
func WithLogger(logger *slog.Logger) serverOption {
	return func(s *Server) error {
		if logger == nil {
			return errors.New("relay.WithLogger: logger is nil")
		}
		s.log = logger
		return nil
	}
}

// WithMetrics - attaches relay counters.
func WithMetrics(m *metrics.Relay) serverOption {
	return func(s *Server) error {
		if m == nil {
			return errors.New("relay.WithMetrics: metrics is nil")
		}
		s.metrics = m
		return nil
	}
}

// WithStreamOptions - sets up line stream of every session, such as timeouts and max line size.
func WithStreamOptions(options ...linestream.Option) serverOption {
	return func(s *Server) error {
		s.streamOptions = append(s.streamOptions, options...)
		return nil
	}
}
