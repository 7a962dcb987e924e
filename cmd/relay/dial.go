package main

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"

	"github.com/wtask/relay/internal/config"
	"github.com/wtask/relay/internal/relay/linestream"
)

type DialConfig struct {
	*MainConfig
	Dial *cli.Command

	Addr  string `cli:"name=addr desc='relay address (default localhost:8080)'"`
	Color bool   `cli:"name=color desc='colorize relayed lines, default is on for terminal'"`
}

func DialCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &DialConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Dial, "dial").
		WithSynopsis("dial [-addr host:port] [-color]").
		WithDescription("connect to relay, send lines from stdin and print lines of other clients").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return dial(cfg, cc, args)
		})
}

func dial(cfg *DialConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Dial.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		return fmt.Errorf("%w: unexpected arguments %v", cli.ErrUsage, args)
	}
	addr := config.DefaultAddr
	if cfg.Addr != "" {
		addr = cfg.Addr
	}
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "connected to %s, press Ctrl-D to leave\n", conn.RemoteAddr())
	return relayTerminal(conn, os.Stdin, cc.Out, painter(cfg, cc.Out))
}

// painter - decides whether relayed lines are colorized.
func painter(cfg *DialConfig, w io.Writer) func(string) string {
	colored := cfg.Color
	if !isSet(cfg.Dial, "color") {
		f, ok := w.(*os.File)
		colored = ok && isatty.IsTerminal(f.Fd())
	}
	if !colored {
		return nil
	}
	c := color.New(color.FgCyan)
	c.EnableColor()
	return func(s string) string {
		return c.Sprint(s)
	}
}

// relayTerminal - sends lines from in to conn and prints lines from conn to out
// until any side is closed. The connection is closed on return.
func relayTerminal(conn net.Conn, in io.Reader, out io.Writer, paint func(string) string) error {
	remote, err := linestream.New(conn, linestream.WithMaxLineSize(0))
	if err != nil {
		conn.Close()
		return err
	}
	local, err := linestream.New(struct {
		io.Reader
		io.Writer
	}{in, io.Discard}, linestream.WithMaxLineSize(0))
	if err != nil {
		conn.Close()
		return err
	}

	upstream := make(chan error, 1)
	go func() {
		for {
			line, err := local.ReadLine()
			if err != nil {
				if errors.Is(err, io.EOF) {
					err = nil
				}
				upstream <- err
				return
			}
			if err := remote.WriteAll(line); err != nil {
				upstream <- err
				return
			}
		}
	}()
	downstream := make(chan error, 1)
	go func() {
		for {
			line, err := remote.ReadLine()
			if err != nil {
				downstream <- err
				return
			}
			text := string(line)
			if paint != nil {
				text = paint(strings.TrimRight(text, "\r\n")) + "\n"
			}
			if _, err := io.WriteString(out, text); err != nil {
				downstream <- err
				return
			}
		}
	}()

	// stdin reader can't be interrupted, so it is not waited for after the relay has gone
	select {
	case err = <-upstream:
		conn.Close()
		<-downstream
	case err = <-downstream:
		conn.Close()
		if errors.Is(err, io.EOF) {
			err = nil
		}
	}
	return err
}
