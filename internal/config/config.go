// Package config holds relay server settings.
//
// Settings are taken from defaults, then from optional YAML file and finally
// from command line flags. Durations are given in whole seconds, zero disables a timeout.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultAddr - relay listen address.
	DefaultAddr = "localhost:8080"
	// DefaultCapacity - number of recent lines retained by the hub for slow clients.
	DefaultCapacity = 16
	// DefaultMaxLineSize - longest accepted line including terminator.
	DefaultMaxLineSize = 64 * 1024
	// DefaultShutdownTimeout - seconds to wait for sessions on shutdown.
	DefaultShutdownTimeout = 10
)

// Config - relay server configuration.
type Config struct {
	// Addr - TCP address to listen.
	Addr string `yaml:"addr"`
	// Capacity - hub ring capacity.
	Capacity int `yaml:"capacity"`
	// IdleTimeout - seconds without a line from client before it is disconnected.
	IdleTimeout int `yaml:"idle_timeout"`
	// WriteTimeout - seconds allowed to write single line to client.
	WriteTimeout int `yaml:"write_timeout"`
	// MaxLineSize - longest accepted line in bytes.
	MaxLineSize int `yaml:"max_line_size"`
	// ShutdownTimeout - seconds to wait for sessions on shutdown.
	ShutdownTimeout int `yaml:"shutdown_timeout"`
	// MetricsAddr - HTTP address to expose Prometheus metrics, empty disables.
	MetricsAddr string `yaml:"metrics_addr"`
	// Gops - start gops diagnostics agent.
	Gops bool `yaml:"gops"`
	// Debug - enable debug logging.
	Debug bool `yaml:"debug"`
}

// Default - returns configuration with default values.
func Default() Config {
	return Config{
		Addr:            DefaultAddr,
		Capacity:        DefaultCapacity,
		MaxLineSize:     DefaultMaxLineSize,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// Load - reads YAML file at path over default configuration.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), fmt.Errorf("config.Load: %w", err)
	}
	cfg, err := Decode(data)
	if err != nil {
		return cfg, fmt.Errorf("config.Load: %s: %w", path, err)
	}
	return cfg, nil
}

// Decode - parses YAML document over default configuration. Unknown keys are rejected.
func Decode(data []byte) (Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Default(), err
	}
	return cfg, nil
}

// Validate - checks values are usable.
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("config: addr is required")
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("config: addr: %w", err)
	}
	if c.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(c.MetricsAddr); err != nil {
			return fmt.Errorf("config: metrics_addr: %w", err)
		}
	}
	switch {
	case c.Capacity < 1:
		return fmt.Errorf("config: capacity should be greater 0, got %d", c.Capacity)
	case c.IdleTimeout < 0:
		return fmt.Errorf("config: idle_timeout should not be negative, got %d", c.IdleTimeout)
	case c.WriteTimeout < 0:
		return fmt.Errorf("config: write_timeout should not be negative, got %d", c.WriteTimeout)
	case c.MaxLineSize < 0:
		return fmt.Errorf("config: max_line_size should not be negative, got %d", c.MaxLineSize)
	case c.ShutdownTimeout < 0:
		return fmt.Errorf("config: shutdown_timeout should not be negative, got %d", c.ShutdownTimeout)
	}
	return nil
}

func (c Config) Idle() time.Duration {
	return time.Duration(c.IdleTimeout) * time.Second
}

func (c Config) Write() time.Duration {
	return time.Duration(c.WriteTimeout) * time.Second
}

func (c Config) Shutdown() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Second
}
