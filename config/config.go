// Package config loads the worker-pool service's configuration: pool
// sizing, default call timeout, the tracing exporter, and the
// introspection HTTP listen address.
//
// A TOML()-rendering struct with env/toml struct tags, loaded via
// BurntSushi/toml and overlaid with caarlos0/env.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v7"
	"github.com/lindb/common/pkg/ltoml"
)

// Pool configures one managed worker pool.
type Pool struct {
	Name               string         `env:"NAME" toml:"name"`
	Size               int            `env:"SIZE" toml:"size"`
	DefaultCallTimeout ltoml.Duration `env:"DEFAULT_CALL_TIMEOUT" toml:"default-call-timeout"`
}

// Tracing configures the tracing subsystem's exporter.
type Tracing struct {
	Enabled  bool   `env:"ENABLED" toml:"enabled"`
	Exporter string `env:"EXPORTER" toml:"exporter"` // "stdout" or "otlp-grpc"
	Endpoint string `env:"ENDPOINT" toml:"endpoint"`
}

// HTTP configures the introspection HTTP surface.
type HTTP struct {
	ListenAddr string `env:"LISTEN_ADDR" toml:"listen-addr"`
}

// Config is the root configuration for the workerpool service.
type Config struct {
	Pools   []Pool  `toml:"pool"`
	Tracing Tracing `envPrefix:"WORKERPOOL_TRACING_" toml:"tracing"`
	HTTP    HTTP    `envPrefix:"WORKERPOOL_HTTP_" toml:"http"`
}

// NewDefault returns the default configuration: one pool named "default"
// with four workers, stdout tracing, and a loopback introspection listener.
func NewDefault() Config {
	return Config{
		Pools: []Pool{{Name: "default", Size: 4, DefaultCallTimeout: ltoml.Duration(5 * time.Second)}},
		Tracing: Tracing{
			Enabled:  true,
			Exporter: "stdout",
		},
		HTTP: HTTP{ListenAddr: "127.0.0.1:8070"},
	}
}

// TOML renders cfg as a commented TOML document.
func (c Config) TOML() string {
	out := "## workerpool configuration\n\n"
	for _, p := range c.Pools {
		out += fmt.Sprintf(`[[pool]]
## pool name, addressed by submitters and the introspection surface.
name = %q
## number of long-lived workers in this pool.
size = %d
## default Call/SyncEvent timeout recorded for this pool; the manager takes an explicit timeout on every submission and does not read this value.
default-call-timeout = %q

`, p.Name, p.Size, time.Duration(p.DefaultCallTimeout).String())
	}
	out += fmt.Sprintf(`[tracing]
## whether the tracing subsystem records per-request latencies.
enabled = %t
## "stdout" for local/dev, "otlp-grpc" to export to a collector.
exporter = %q
## OTLP collector endpoint, used when exporter = "otlp-grpc".
endpoint = %q

[http]
## introspection HTTP listen address.
listen-addr = %q
`, c.Tracing.Enabled, c.Tracing.Exporter, c.Tracing.Endpoint, c.HTTP.ListenAddr)
	return out
}

// Load reads path as TOML into a default-initialized Config, then applies
// environment overrides.
func Load(path string) (Config, error) {
	cfg := NewDefault()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("apply env overrides: %w", err)
	}
	return cfg, nil
}

// WriteDefault writes the default configuration's TOML rendering to path.
func WriteDefault(path string) error {
	return os.WriteFile(path, []byte(NewDefault().TOML()), 0o644)
}

// PoolByName returns the configured Pool named name.
func (c Config) PoolByName(name string) (Pool, bool) {
	for _, p := range c.Pools {
		if p.Name == name {
			return p, true
		}
	}
	return Pool{}, false
}
