// Package app wires configuration, storage, the route table and the HTTP
// server into one application context with an explicit lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/sirosfoundation/go-ehms-backend/internal/api"
	"github.com/sirosfoundation/go-ehms-backend/internal/auth"
	"github.com/sirosfoundation/go-ehms-backend/internal/backend"
	"github.com/sirosfoundation/go-ehms-backend/internal/realtime"
	"github.com/sirosfoundation/go-ehms-backend/internal/server"
	"github.com/sirosfoundation/go-ehms-backend/internal/storage"
	"github.com/sirosfoundation/go-ehms-backend/pkg/config"
	"github.com/sirosfoundation/go-ehms-backend/pkg/middleware"
)

// App is the process-wide application context
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	store    storage.Store
	handlers *api.Handlers
	server   *server.Manager
	notifier *realtime.Notifier

	mu        sync.Mutex
	started   bool
	dbHealthy bool
}

// New builds the application. Storage handles are created but not dialed,
// so an unreachable or unresponsive database does not fail or stall
// construction. Business route
// groups passed in groups replace the matching placeholders.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, groups ...api.RouteGroup) (*App, error) {
	store, err := backend.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage backend: %w", err)
	}

	issuer := auth.NewIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TokenTTL())
	verifier := auth.NewVerifier(cfg.JWT.Secret, cfg.JWT.Issuer).
		WithLeeway(config.Seconds(cfg.JWT.LeewaySeconds))
	limiter := middleware.NewAuthRateLimiter(cfg.AuthRateLimit, logger)

	handlers := api.NewHandlers(store, issuer, cfg, logger)
	table := api.DefaultRouteTable(handlers, limiter, groups...)

	a := &App{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		handlers: handlers,
		server:   server.NewManager(server.ServerConfigFrom(cfg), verifier, table, logger),
	}
	a.server.AddProvider(server.NewSystemProvider(handlers))

	if cfg.Realtime.Enabled {
		a.notifier = realtime.NewNotifier(logger)
	}

	return a, nil
}

// Start runs the startup sequence: temp directory, database probe, schema
// sync, realtime attach, listen. Only a listen failure or a schema sync
// failure under the abort policy stops it.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		return server.ErrAlreadyStarted
	}

	if err := EnsureTempDir(a.cfg.Server.TempDir, a.logger); err != nil {
		return err
	}

	probeCtx, cancel := context.WithTimeout(ctx, config.Seconds(a.cfg.Storage.ProbeTimeout))
	a.dbHealthy = backend.Probe(probeCtx, a.store, a.logger)
	cancel()

	if err := a.syncSchema(ctx); err != nil {
		return err
	}

	if a.notifier != nil {
		a.server.AddProvider(server.NewRealtimeProvider(a.cfg.Realtime.Path, a.notifier))
		a.logger.Info("Realtime notifier attached", zap.String("path", a.cfg.Realtime.Path))
	}

	if err := a.server.Start(ctx); err != nil {
		return err
	}

	a.started = true
	a.logger.Info("EHMS backend started",
		zap.String("address", a.server.Addr().String()),
		zap.String("base_path", a.cfg.Server.BasePath),
		zap.String("storage", a.cfg.Storage.Type),
		zap.Bool("database_healthy", a.dbHealthy),
	)
	return nil
}

// syncSchema applies the configured failure policy to Store.Sync
func (a *App) syncSchema(ctx context.Context) error {
	if !a.cfg.Storage.SchemaSync {
		a.logger.Info("Schema sync disabled")
		return nil
	}

	syncCtx, cancel := context.WithTimeout(ctx, config.Seconds(a.cfg.Storage.SyncTimeout))
	defer cancel()

	if err := a.store.Sync(syncCtx); err != nil {
		if a.cfg.Storage.SchemaSyncFailure == config.SchemaSyncAbort {
			a.logger.Error("Schema sync failed, aborting startup", zap.Error(err))
			return fmt.Errorf("schema sync failed: %w", err)
		}
		a.logger.Error("Schema sync failed, continuing", zap.Error(err))
		return nil
	}

	a.logger.Info("Schema sync complete")
	return nil
}

// Shutdown stops the HTTP server, closes realtime connections and releases
// the store, in that order.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error

	if err := a.server.Shutdown(ctx); err != nil && !errors.Is(err, server.ErrNotStarted) {
		errs = append(errs, err)
	}

	if a.notifier != nil {
		a.notifier.Close()
	}

	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}

	return errors.Join(errs...)
}

// Addr returns the bound listen address, or nil before Start
func (a *App) Addr() net.Addr {
	return a.server.Addr()
}

// Store returns the storage backend
func (a *App) Store() storage.Store {
	return a.store
}

// Notifier returns the realtime notifier, or nil when realtime is disabled
func (a *App) Notifier() *realtime.Notifier {
	return a.notifier
}

// DatabaseHealthy reports the outcome of the startup probe
func (a *App) DatabaseHealthy() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dbHealthy
}

// EnsureTempDir creates dir and its parents when missing
func EnsureTempDir(dir string, logger *zap.Logger) error {
	if dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return fmt.Errorf("temp path %s is not a directory", dir)
		}
		return nil
	case !os.IsNotExist(err):
		return fmt.Errorf("failed to stat temp directory: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	logger.Info("Temp directory created", zap.String("path", dir))
	return nil
}
