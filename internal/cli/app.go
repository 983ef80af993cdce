package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"mskboard/internal/auth"
	"mskboard/internal/config"
	"mskboard/internal/core"
	"mskboard/internal/kv"
	"mskboard/internal/logging"
	"mskboard/internal/seed"
)

// App is everything one CLI invocation (or one shell session) works against.
type App struct {
	Config  *config.Config
	Service *core.PersistentService
	Gate    *auth.Gate
	Metrics core.MetricsExporter
	Logger  *logging.Adapter

	zap     *zap.Logger
	session kv.Store
}

// OpenApp builds the logger, opens both slots, rehydrates and seeds the store.
// logOut receives console log output.
func OpenApp(ctx context.Context, cfg *config.Config, logOut io.Writer, verbose bool) (*App, error) {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	zl, err := logging.New(logging.Options{Level: level, Format: cfg.Log.Format, File: cfg.Log.File, Console: logOut})
	if err != nil {
		return nil, err
	}
	logger := logging.NewAdapter(zl)

	metrics, err := newMetricsExporter(cfg.Metrics)
	if err != nil {
		return nil, err
	}

	svc, err := core.OpenPersistentService(ctx, cfg.Storage.KV(), core.NewDefaultRulesEngine(),
		core.WithLogger(logger),
		core.WithMetricsRecorder(metrics),
		core.WithLatency(cfg.Simulate.Latency),
	)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	session, err := kv.Open(ctx, cfg.Session.KV())
	if err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("open session: %w", err)
	}

	gate := auth.NewGate(
		auth.NewAuthenticator(auth.WithDelay(cfg.Auth.Delay)),
		auth.NewSession(session),
		svc.Store(),
		auth.WithLogger(logger),
	)

	if _, err := svc.EnsureSeeded(ctx, seed.Data()); err != nil {
		_ = svc.Close()
		_ = session.Close()
		return nil, fmt.Errorf("seed store: %w", err)
	}

	logger.Debug("app ready",
		"storage", svc.Driver(),
		"metrics", cfg.Metrics.Exporter,
		"session", session.Driver(),
		"suggestions", len(svc.Store().Suggestions()))

	return &App{
		Config:  cfg,
		Service: svc,
		Gate:    gate,
		Metrics: metrics,
		Logger:  logger,
		zap:     zl,
		session: session,
	}, nil
}

func newMetricsExporter(cfg config.MetricsConfig) (core.MetricsExporter, error) {
	if cfg.Exporter == config.ExporterExpvar {
		return core.NewExpvarMetricsRecorder(cfg.Namespace), nil
	}
	rec, err := core.NewPrometheusMetricsRecorder(cfg.Namespace)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Close flushes pending snapshots and releases both slots.
func (a *App) Close() error {
	err := errors.Join(a.Service.Close(), a.session.Close())
	_ = a.zap.Sync()
	return err
}
