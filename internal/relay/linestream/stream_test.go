package linestream

import (
	"bytes"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/google/go-cmp/cmp"
)

type duplex struct {
	io.Reader
	io.Writer
}

// trickleWriter - accepts at most limit bytes per Write call.
type trickleWriter struct {
	bytes.Buffer
	limit int
}

func (w *trickleWriter) Write(p []byte) (int, error) {
	if len(p) > w.limit {
		p = p[:w.limit]
	}
	return w.Buffer.Write(p)
}

func readAll(test *testing.T, s *Stream) ([]string, error) {
	test.Helper()
	lines := []string{}
	for {
		line, err := s.ReadLine()
		if err != nil {
			return lines, err
		}
		lines = append(lines, string(line))
	}
}

func TestNew(test *testing.T) {
	if _, err := New(nil); err == nil {
		test.Error("New(nil): expected error got nil")
	}
	cases := []Option{
		WithReadTimeout(-time.Second),
		WithWriteTimeout(-time.Second),
		WithMaxLineSize(-1),
		WithBufferSize(0),
	}
	for i, option := range cases {
		if _, err := New(duplex{}, option); err == nil {
			test.Error("New: expected error for invalid option #", i)
		}
	}
	if _, err := New(duplex{}, nil, WithMaxLineSize(0)); err != nil {
		test.Error("New: unexpected error", err)
	}
}

func TestStream_ReadLine(test *testing.T) {
	cases := []struct {
		name     string
		input    string
		options  []Option
		expected []string
	}{
		{"empty", "", nil, []string{}},
		{"single", "hello\n", nil, []string{"hello\n"}},
		{"several", "a\nbb\n\nccc\n", nil, []string{"a\n", "bb\n", "\n", "ccc\n"}},
		{"partial tail is dropped", "one\ntwo", nil, []string{"one\n"}},
		{"only partial", "no terminator", nil, []string{}},
		{"crlf is kept", "win\r\n", nil, []string{"win\r\n"}},
		{
			"line longer than buffer",
			strings.Repeat("x", 40) + "\n",
			[]Option{WithBufferSize(16)},
			[]string{strings.Repeat("x", 40) + "\n"},
		},
		{"unicode", "Hello, 世界\n", nil, []string{"Hello, 世界\n"}},
	}

	for _, c := range cases {
		s, err := New(duplex{Reader: iotest.OneByteReader(strings.NewReader(c.input))}, c.options...)
		if err != nil {
			test.Fatal(c.name, "unexpected error", err)
		}
		lines, err := readAll(test, s)
		if !errors.Is(err, io.EOF) {
			test.Error(c.name, "expected io.EOF, got:", err)
		}
		if diff := cmp.Diff(c.expected, lines); diff != "" {
			test.Errorf("%s: unexpected lines (-want +got):\n%s", c.name, diff)
		}
	}
}

func TestStream_ReadLineOwnership(test *testing.T) {
	s, _ := New(duplex{Reader: strings.NewReader("first\nsecond\n")})
	first, _ := s.ReadLine()
	second, _ := s.ReadLine()
	if string(first) != "first\n" || string(second) != "second\n" {
		test.Errorf("Returned lines were overwritten: %q, %q", first, second)
	}
}

func TestStream_ReadLineTooLong(test *testing.T) {
	s, _ := New(
		duplex{Reader: strings.NewReader("12345\n123456\n")},
		WithMaxLineSize(6),
		WithBufferSize(16),
	)
	line, err := s.ReadLine()
	if err != nil || string(line) != "12345\n" {
		test.Errorf("Unexpected result %q, %v", line, err)
	}
	if _, err := s.ReadLine(); !errors.Is(err, ErrLineTooLong) {
		test.Error("Expected ErrLineTooLong, got:", err)
	}
}

func TestStream_ReadLineError(test *testing.T) {
	failure := errors.New("broken")
	s, _ := New(duplex{Reader: iotest.ErrReader(failure)})
	if _, err := s.ReadLine(); !errors.Is(err, failure) {
		test.Error("Expected read error, got:", err)
	}
}

func TestStream_ReadTimeout(test *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	s, _ := New(server, WithReadTimeout(10*time.Millisecond))
	_, err := s.ReadLine()
	if !IsTimeout(err) {
		test.Error("Expected timeout, got:", err)
	}
}

func TestStream_WriteAll(test *testing.T) {
	w := &trickleWriter{limit: 3}
	s, _ := New(duplex{Writer: w})
	if err := s.WriteAll([]byte("hello, world\n")); err != nil {
		test.Error("Stream.WriteAll: unexpected error", err)
	}
	if w.String() != "hello, world\n" {
		test.Errorf("Unexpected written data %q", w.String())
	}

	stuck := &trickleWriter{limit: 0}
	s, _ = New(duplex{Writer: stuck})
	if err := s.WriteAll([]byte("x")); !errors.Is(err, io.ErrShortWrite) {
		test.Error("Expected io.ErrShortWrite, got:", err)
	}
}

func TestStream_OverPipe(test *testing.T) {
	client, server := net.Pipe()
	s, _ := New(server, WithWriteTimeout(time.Second))
	defer s.Close()

	go func() {
		client.Write([]byte("ping\n"))
		buf := make([]byte, 5)
		io.ReadFull(client, buf)
		client.Write(buf)
		client.Close()
	}()

	line, err := s.ReadLine()
	if err != nil || string(line) != "ping\n" {
		test.Fatalf("Unexpected result %q, %v", line, err)
	}
	if err := s.WriteAll([]byte("pong\n")); err != nil {
		test.Fatal("Stream.WriteAll: unexpected error", err)
	}
	line, err = s.ReadLine()
	if err != nil || string(line) != "pong\n" {
		test.Fatalf("Unexpected echo %q, %v", line, err)
	}
	if _, err := s.ReadLine(); !errors.Is(err, io.EOF) {
		test.Error("Expected io.EOF, got:", err)
	}
}
