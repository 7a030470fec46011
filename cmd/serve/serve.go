// Package serve implements the sensorstream server CLI entry point.
package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sensorstream/internal/announce"
	"sensorstream/internal/probe"
	"sensorstream/internal/server"
	"sensorstream/pkg/config"
	"sensorstream/pkg/logger"
)

// Run starts the telemetry server: sampling loop, websocket transport and
// the optional LAN announce beacon.
func Run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.Init(cfg.Server.LogLevel)

	interval, err := cfg.Server.ParseRefreshInterval()
	if err != nil {
		return fmt.Errorf("parsing refresh interval: %w", err)
	}

	prober := probe.New(cfg.Probe, log)

	srv := server.New(server.Config{
		ListenAddr:  cfg.Server.ListenAddr,
		Port:        cfg.Server.Port,
		PushUpdates: cfg.Server.PushUpdates,
	}, log)

	if err := srv.Start(); err != nil {
		return fmt.Errorf("starting transport: %w", err)
	}
	defer srv.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info().
		Int("port", cfg.Server.Port).
		Dur("refresh_interval", interval).
		Bool("push_updates", cfg.Server.PushUpdates).
		Msg("Starting sensorstream server")

	// Sampling loop: each tick builds a fresh snapshot and publishes it.
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		refresh := func() {
			snap, err := prober.Collect()
			if err != nil {
				log.Error().Err(err).Msg("Sampling failed")
				return
			}
			if err := srv.Publish(snap); err != nil {
				log.Error().Err(err).Msg("Publish failed")
			}
		}

		refresh()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				refresh()
			}
		}
	}()

	errCh := make(chan error, 1)
	if cfg.Announce.Enabled {
		annInterval, err := cfg.Announce.ParseInterval()
		if err != nil {
			return fmt.Errorf("parsing announce interval: %w", err)
		}
		go func() {
			errCh <- announce.Start(ctx, announce.Config{
				MulticastGroup: cfg.Announce.MulticastGroup,
				Port:           cfg.Announce.Port,
				Interval:       annInterval,
				SharedSecret:   cfg.Announce.SharedSecret,
				ServerPort:     cfg.Server.Port,
				Kinds:          enabledKinds(cfg.Probe),
			}, log)
		}()
	}

	// Wait for shutdown signal or announce error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("announce error: %w", err)
		}
		return nil
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
		return nil
	}
}

// enabledKinds lists the hardware kinds the announce beacon advertises.
// Only kinds the prober actually samples are included; the gpu toggle is
// reserved until a GPU sampling backend exists.
func enabledKinds(p config.ProbeConfig) []string {
	var kinds []string
	if p.CPUEnabled() {
		kinds = append(kinds, "cpu")
	}
	if p.MemoryEnabled() {
		kinds = append(kinds, "memory")
	}
	if p.StorageEnabled() {
		kinds = append(kinds, "storage")
	}
	if p.NetworkEnabled() {
		kinds = append(kinds, "network")
	}
	if p.HostEnabled() {
		kinds = append(kinds, "motherboard")
	}
	return kinds
}
