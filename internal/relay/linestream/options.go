package linestream

import (
	"fmt"
	"time"
)

// Option - Stream setup option.
type Option func(s *Stream) error

// WithReadTimeout - sets idle period before ReadLine fails with timeout.
// Zero disables timeout. Works only if the underlying stream supports deadlines.
func WithReadTimeout(timeout time.Duration) Option {
	return func(s *Stream) error {
		if timeout < 0 {
			return fmt.Errorf("linestream.WithReadTimeout: invalid timeout (%v)", timeout)
		}
		s.readTimeout = timeout
		return nil
	}
}

// WithWriteTimeout - sets max duration of single WriteAll. Zero disables timeout.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(s *Stream) error {
		if timeout < 0 {
			return fmt.Errorf("linestream.WithWriteTimeout: invalid timeout (%v)", timeout)
		}
		s.writeTimeout = timeout
		return nil
	}
}

// WithMaxLineSize - overwrites default max line size (64 KiB), including terminator.
// Zero means unlimited.
func WithMaxLineSize(size int) Option {
	return func(s *Stream) error {
		if size < 0 {
			return fmt.Errorf("linestream.WithMaxLineSize: invalid size (%d)", size)
		}
		s.maxLineSize = size
		return nil
	}
}

// WithBufferSize - overwrites default size of read buffer.
func WithBufferSize(size int) Option {
	return func(s *Stream) error {
		if size <= 0 {
			return fmt.Errorf("linestream.WithBufferSize: invalid size (%d)", size)
		}
		s.bufSize = size
		return nil
	}
}
