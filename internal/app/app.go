// Package app wires configuration into a ready engine for the binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"budgettracker/internal/backend"
	"budgettracker/internal/cache"
	"budgettracker/internal/config"
	"budgettracker/internal/engine"
	"budgettracker/internal/log"
	"budgettracker/internal/palette"
)

// Runtime is everything a binary needs to build reports.
type Runtime struct {
	Engine  *engine.Engine
	Colors  *palette.Assigner
	Ready   func(context.Context) error
	Janitor *cache.Janitor

	cleanup backend.CleanupFunc
}

// Bootstrap creates the color store, the palette and the engine from cfg.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, bc)
	if err != nil {
		return nil, err
	}

	shades, err := cfg.Shades()
	if err != nil {
		closeQuietly(res.Cleanup)
		return nil, fmt.Errorf("palette: %w", err)
	}
	colors, err := palette.NewAssigner(res.Store, shades)
	if err != nil {
		closeQuietly(res.Cleanup)
		return nil, fmt.Errorf("palette: %w", err)
	}

	ready := res.Ready
	if ready == nil {
		ready = func(context.Context) error { return nil }
	}

	logger.Info("Engine ready",
		"backend", bc.Type.String(),
		"shades", len(shades),
		"change_log_history", cfg.ChangeLogHistory)

	return &Runtime{
		Engine:  engine.New(colors, engine.Options{ChangeLogHistory: cfg.ChangeLogHistory}),
		Colors:  colors,
		Ready:   ready,
		Janitor: cache.NewJanitor(janitorInterval(cfg.ColorCacheTTL), logger.WithComponent(log.ComponentCache).Logger, res.Expirers...),
		cleanup: res.Cleanup,
	}, nil
}

// janitorInterval sweeps twice per TTL, at most once a second.
func janitorInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	if half := ttl / 2; half > time.Second {
		return half
	}
	return time.Second
}

// Close releases the color store.
func (r *Runtime) Close() error {
	if r.cleanup == nil {
		return nil
	}
	return r.cleanup()
}

func closeQuietly(fn backend.CleanupFunc) {
	if fn != nil {
		_ = fn()
	}
}
