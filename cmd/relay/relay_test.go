package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wtask/relay/internal/config"
	"github.com/wtask/relay/internal/relay"
	"github.com/wtask/relay/internal/relay/hub"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// syncBuffer - bytes.Buffer safe for concurrent writer and reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(test *testing.T, what string, cond func() bool) {
	test.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			test.Fatal("timeout waiting for", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestServeConfig_Resolve(test *testing.T) {
	cfg := newServeConfig(&MainConfig{})
	conf, err := cfg.resolve()
	if err != nil {
		test.Fatal("resolve: unexpected error", err)
	}
	if conf != config.Default() {
		test.Errorf("Unexpected config without options %+v", conf)
	}

	path := filepath.Join(test.TempDir(), "relay.yaml")
	os.WriteFile(path, []byte("addr: 127.0.0.1:9999\ncapacity: 2\n"), 0o644)
	cfg.ConfigFile = path
	cfg.Debug = true
	conf, err = cfg.resolve()
	if err != nil {
		test.Fatal("resolve: unexpected error", err)
	}
	if conf.Addr != "127.0.0.1:9999" || conf.Capacity != 2 || !conf.Debug {
		test.Errorf("Unexpected config from file %+v", conf)
	}

	os.WriteFile(path, []byte("capacity: 0\n"), 0o644)
	if _, err := cfg.resolve(); err == nil {
		test.Error("resolve: expected validation error")
	}
	cfg.ConfigFile = filepath.Join(test.TempDir(), "missing.yaml")
	if _, err := cfg.resolve(); err == nil {
		test.Error("resolve: expected error for missing file")
	}
}

func TestVersion(test *testing.T) {
	defer func(v, c string) { version, commit = v, c }(version, commit)

	version, commit = "1.2.3", "abc123"
	v, err := Version()
	if err != nil || v.String() != "1.2.3+abc123" {
		test.Error("Unexpected version", v, err)
	}
	version = "latest"
	if _, err := Version(); err == nil {
		test.Error("Version: expected error for malformed version")
	}
}

func TestRun(test *testing.T) {
	conf := config.Default()
	conf.Addr = "127.0.0.1:0"
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, conf, quietLogger) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			test.Error("run: unexpected error", err)
		}
	case <-time.After(2 * time.Second):
		test.Fatal("run did not stop after cancel")
	}

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		test.Fatal(err)
	}
	defer busy.Close()
	conf.Addr = busy.Addr().String()
	if err := run(context.Background(), conf, quietLogger); err == nil {
		test.Error("run: expected error for busy address")
	}
}

func TestRelayTerminal(test *testing.T) {
	h, _ := hub.New(8)
	defer h.Close()
	srv, _ := relay.NewServer(h, relay.WithLogger(quietLogger))
	a, err := relay.Listen("127.0.0.1:0")
	if err != nil {
		test.Fatal("Listen: unexpected error", err)
	}
	go srv.Serve(a)
	defer srv.Shutdown(time.Second)

	other, err := net.Dial("tcp", a.Addr().String())
	if err != nil {
		test.Fatal(err)
	}
	defer other.Close()
	conn, err := net.Dial("tcp", a.Addr().String())
	if err != nil {
		test.Fatal(err)
	}

	in, typing := io.Pipe()
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- relayTerminal(conn, in, out, func(s string) string { return "[" + s + "]" })
	}()
	waitFor(test, "sessions", func() bool { return h.Subscribers() == 2 })

	typing.Write([]byte("from terminal\n"))
	other.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, len("from terminal\n"))
	if _, err := io.ReadFull(other, buf); err != nil || string(buf) != "from terminal\n" {
		test.Errorf("Unexpected relayed line %q, %v", buf, err)
	}

	other.Write([]byte("to terminal\r\n"))
	waitFor(test, "output", func() bool { return strings.Contains(out.String(), "\n") })
	if out.String() != "[to terminal]\n" {
		test.Errorf("Unexpected output %q", out.String())
	}

	typing.Close()
	select {
	case err := <-done:
		if err != nil {
			test.Error("relayTerminal: unexpected error", err)
		}
	case <-time.After(time.Second):
		test.Fatal("relayTerminal did not stop after input was closed")
	}
}

func TestRelayTerminal_ServerGone(test *testing.T) {
	client, server := net.Pipe()
	in, typing := io.Pipe()
	defer typing.Close()
	done := make(chan error, 1)
	out := &syncBuffer{}
	go func() { done <- relayTerminal(client, in, out, nil) }()

	server.Write([]byte("bye\n"))
	server.Close()
	select {
	case err := <-done:
		if err != nil {
			test.Error("relayTerminal: unexpected error", err)
		}
	case <-time.After(time.Second):
		test.Fatal("relayTerminal did not stop after server left")
	}
	if out.String() != "bye\n" {
		test.Errorf("Unexpected output %q", out.String())
	}
}
