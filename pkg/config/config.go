// Package config provides TOML configuration loading for sensorstream.
package config

import (
	"fmt"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is the top-level configuration structure.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Probe    ProbeConfig    `toml:"probe"`
	Announce AnnounceConfig `toml:"announce"`
	Query    QueryConfig    `toml:"query"`
}

// ServerConfig holds settings for the websocket telemetry server.
type ServerConfig struct {
	ListenAddr      string `toml:"listen_addr"`
	Port            int    `toml:"port"`
	RefreshInterval string `toml:"refresh_interval"`
	PushUpdates     bool   `toml:"push_updates"`
	LogLevel        string `toml:"log_level"`
}

// ProbeConfig selects which hardware kinds the sampler walks. The gpu
// toggle is reserved: no GPU sampling backend exists yet, and disabled or
// not it never contributes nodes to a snapshot.
type ProbeConfig struct {
	CPU     *bool `toml:"cpu"`
	GPU     *bool `toml:"gpu"`
	Memory  *bool `toml:"memory"`
	Storage *bool `toml:"storage"`
	Network *bool `toml:"network"`
	Host    *bool `toml:"host"`
}

// AnnounceConfig holds settings for the optional LAN presence beacon.
type AnnounceConfig struct {
	Enabled        bool   `toml:"enabled"`
	MulticastGroup string `toml:"multicast_group"`
	Port           int    `toml:"port"`
	Interval       string `toml:"interval"`
	SharedSecret   string `toml:"shared_secret"`
}

// QueryConfig holds settings for the query client CLI.
type QueryConfig struct {
	ServerURL string `toml:"server_url"`
}

// ParseRefreshInterval parses the sampling interval string to a time.Duration.
func (s *ServerConfig) ParseRefreshInterval() (time.Duration, error) {
	if s.RefreshInterval == "" {
		return 2 * time.Second, nil
	}
	return time.ParseDuration(s.RefreshInterval)
}

// ParseInterval parses the announce beacon interval string to a time.Duration.
func (a *AnnounceConfig) ParseInterval() (time.Duration, error) {
	if a.Interval == "" {
		return 30 * time.Second, nil
	}
	return time.ParseDuration(a.Interval)
}

// Probe toggles default to enabled when unset.
func enabled(b *bool) bool {
	return b == nil || *b
}

// CPUEnabled reports whether CPU sampling is enabled.
func (p *ProbeConfig) CPUEnabled() bool { return enabled(p.CPU) }

// GPUEnabled reports whether GPU sampling is enabled.
func (p *ProbeConfig) GPUEnabled() bool { return enabled(p.GPU) }

// MemoryEnabled reports whether memory sampling is enabled.
func (p *ProbeConfig) MemoryEnabled() bool { return enabled(p.Memory) }

// StorageEnabled reports whether storage sampling is enabled.
func (p *ProbeConfig) StorageEnabled() bool { return enabled(p.Storage) }

// NetworkEnabled reports whether network sampling is enabled.
func (p *ProbeConfig) NetworkEnabled() bool { return enabled(p.Network) }

// HostEnabled reports whether motherboard/host sampling is enabled.
func (p *ProbeConfig) HostEnabled() bool { return enabled(p.Host) }

// Load reads and parses a TOML config file, applying defaults for unset values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

// Default returns a configuration with every default applied, used when no
// config file exists (the query client works without one).
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {

	// Server defaults
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8546
	}
	if cfg.Server.RefreshInterval == "" {
		cfg.Server.RefreshInterval = "2s"
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}

	// Announce defaults
	if cfg.Announce.MulticastGroup == "" {
		cfg.Announce.MulticastGroup = "239.255.0.1"
	}
	if cfg.Announce.Port == 0 {
		cfg.Announce.Port = 5679
	}
	if cfg.Announce.Interval == "" {
		cfg.Announce.Interval = "30s"
	}

	// Query defaults
	if cfg.Query.ServerURL == "" {
		cfg.Query.ServerURL = "ws://127.0.0.1:8546/stream"
	}
}
