// Package linestream turns a raw duplex byte stream into line-oriented I/O.
//
// A line is a sequence of bytes up to and including '\n'. When the peer closes the
// stream in the middle of a line, the partial line is discarded and ReadLine reports io.EOF.
package linestream

import (
	"bufio"
	"errors"
	"io"
	"net"
	"time"
)

const (
	defaultReadBufferSize = 4096
	defaultMaxLineSize    = 64 * 1024
)

// deadliner - is implemented by net.Conn and alike.
type deadliner interface {
	SetReadDeadline(time.Time) error
	SetWriteDeadline(time.Time) error
}

// Stream - line reader and raw writer over single connection.
// ReadLine and WriteAll may be called from different goroutines,
// but each of them is not safe for concurrent use with itself.
type Stream struct {
	rw           io.ReadWriter
	reader       *bufio.Reader
	readTimeout  time.Duration
	writeTimeout time.Duration
	maxLineSize  int
	bufSize      int
	acc          []byte // accumulates parts of the current line
}

// New - wraps rw with line buffered reader.
func New(rw io.ReadWriter, options ...Option) (*Stream, error) {
	if rw == nil {
		return nil, errors.New("linestream.New: read-writer is nil")
	}
	s := &Stream{
		rw:          rw,
		maxLineSize: defaultMaxLineSize,
		bufSize:     defaultReadBufferSize,
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		if err := option(s); err != nil {
			return nil, err
		}
	}
	s.reader = bufio.NewReaderSize(rw, s.bufSize)
	return s, nil
}

// ReadLine - blocks until complete line is read and returns it with the terminator.
// Returns io.EOF when the peer has closed the stream, a partial line is dropped in this case.
// Any other error is fatal for the stream. Returned slice is owned by the caller.
func (s *Stream) ReadLine() ([]byte, error) {
	s.acc = s.acc[:0]
	for {
		if d, ok := s.rw.(deadliner); ok && s.readTimeout > 0 {
			d.SetReadDeadline(time.Now().Add(s.readTimeout))
		}
		chunk, err := s.reader.ReadSlice('\n')
		s.acc = append(s.acc, chunk...)
		if s.maxLineSize > 0 && len(s.acc) > s.maxLineSize {
			return nil, ErrLineTooLong
		}
		switch {
		case err == nil:
			line := make([]byte, len(s.acc))
			copy(line, s.acc)
			return line, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			s.acc = s.acc[:0]
			return nil, io.EOF
		default:
			return nil, err
		}
	}
}

// WriteAll - blocks until all bytes of p are accepted by the underlying stream or it fails.
func (s *Stream) WriteAll(p []byte) error {
	if d, ok := s.rw.(deadliner); ok && s.writeTimeout > 0 {
		d.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	for len(p) > 0 {
		n, err := s.rw.Write(p)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		p = p[n:]
	}
	return nil
}

// Close - closes underlying stream if it is closable.
func (s *Stream) Close() error {
	if c, ok := s.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// IsTimeout - reports whether err is caused by expired read or write deadline.
func IsTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
