package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/gops/agent"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/scott-cotton/cli"

	"github.com/wtask/relay/internal/config"
	"github.com/wtask/relay/internal/relay"
	"github.com/wtask/relay/internal/relay/hub"
	"github.com/wtask/relay/internal/relay/linestream"
	"github.com/wtask/relay/internal/relay/metrics"
)

type ServeConfig struct {
	*MainConfig
	Serve *cli.Command

	ConfigFile   string `cli:"name=config desc='YAML configuration file'"`
	Addr         string `cli:"name=addr desc='listen address (default localhost:8080)'"`
	Capacity     int    `cli:"name=capacity desc='number of recent lines kept for slow clients (default 16)'"`
	IdleTimeout  int    `cli:"name=idle-timeout desc='seconds before silent client is disconnected, 0 disables'"`
	WriteTimeout int    `cli:"name=write-timeout desc='seconds allowed to write a line to client, 0 disables'"`
	MaxLine      int    `cli:"name=max-line desc='longest accepted line in bytes, 0 means unlimited'"`
	Metrics      string `cli:"name=metrics desc='address to expose Prometheus metrics on /metrics'"`
	Gops         bool   `cli:"name=gops desc='start gops diagnostics agent'"`
	Debug        bool   `cli:"name=debug desc='enable debug logging'"`
}

func ServeCommand(mainCfg *MainConfig) *cli.Command {
	return newServeConfig(mainCfg).Serve
}

func newServeConfig(mainCfg *MainConfig) *ServeConfig {
	cfg := &ServeConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	cli.NewCommandAt(&cfg.Serve, "serve").
		WithSynopsis("serve [-config file] [-addr host:port] [opts]").
		WithDescription("run the relay server, stop it with Ctrl-C").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return serve(cfg, cc, args)
		})
	return cfg
}

// resolve - merges defaults, configuration file and command line options.
func (cfg *ServeConfig) resolve() (config.Config, error) {
	conf := config.Default()
	if cfg.ConfigFile != "" {
		var err error
		if conf, err = config.Load(cfg.ConfigFile); err != nil {
			return conf, err
		}
	}
	if isSet(cfg.Serve, "addr") {
		conf.Addr = cfg.Addr
	}
	if isSet(cfg.Serve, "capacity") {
		conf.Capacity = cfg.Capacity
	}
	if isSet(cfg.Serve, "idle-timeout") {
		conf.IdleTimeout = cfg.IdleTimeout
	}
	if isSet(cfg.Serve, "write-timeout") {
		conf.WriteTimeout = cfg.WriteTimeout
	}
	if isSet(cfg.Serve, "max-line") {
		conf.MaxLineSize = cfg.MaxLine
	}
	if isSet(cfg.Serve, "metrics") {
		conf.MetricsAddr = cfg.Metrics
	}
	conf.Gops = conf.Gops || cfg.Gops
	conf.Debug = conf.Debug || cfg.Debug
	return conf, conf.Validate()
}

func serve(cfg *ServeConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Serve.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		return fmt.Errorf("%w: unexpected arguments %v", cli.ErrUsage, args)
	}
	conf, err := cfg.resolve()
	if err != nil {
		return fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	v, err := Version()
	if err != nil {
		return err
	}
	log := newLogger(os.Stderr, conf.Debug).With("version", v.String())

	if conf.Gops {
		if err := agent.Listen(agent.Options{}); err != nil {
			log.Warn("gops agent failed", "error", err)
		} else {
			defer agent.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return run(ctx, conf, log)
}

// run - serves relay until ctx is done or listener fails.
func run(ctx context.Context, conf config.Config, log *slog.Logger) error {
	h, err := hub.New(conf.Capacity)
	if err != nil {
		return err
	}
	defer h.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	if conf.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		web := &http.Server{Addr: conf.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := web.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", "error", err)
			}
		}()
		defer web.Close()
		log.Info("metrics are exposed", "addr", conf.MetricsAddr)
	}

	a, err := relay.Listen(conf.Addr)
	if err != nil {
		return err
	}
	srv, err := relay.NewServer(h,
		relay.WithLogger(log),
		relay.WithMetrics(m),
		relay.WithStreamOptions(
			linestream.WithReadTimeout(conf.Idle()),
			linestream.WithWriteTimeout(conf.Write()),
			linestream.WithMaxLineSize(conf.MaxLineSize),
		),
	)
	if err != nil {
		a.Close()
		return err
	}

	served := make(chan error, 1)
	go func() {
		served <- srv.Serve(a)
	}()

	select {
	case <-ctx.Done():
		log.Info("got stop signal")
		err = nil
	case err = <-served:
		log.Error("relay can't accept connections", "error", err)
	}
	log.Info("relay stopped", "in", srv.Shutdown(conf.Shutdown()).String())
	return err
}
