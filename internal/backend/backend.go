// Package backend selects the storage implementation and runs the
// startup checks against it.
package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sirosfoundation/go-ehms-backend/internal/storage"
	"github.com/sirosfoundation/go-ehms-backend/internal/storage/memory"
	"github.com/sirosfoundation/go-ehms-backend/internal/storage/mongodb"
	"github.com/sirosfoundation/go-ehms-backend/internal/storage/sqlstore"
	"github.com/sirosfoundation/go-ehms-backend/pkg/config"
)

// Type defines the type of storage backend
type Type string

const (
	// TypeMemory uses in-memory storage (for testing/development)
	TypeMemory Type = "memory"
	// TypeMySQL uses a pooled MySQL connection through bun (production)
	TypeMySQL Type = "mysql"
	// TypeSQLite uses a local SQLite file through bun
	TypeSQLite Type = "sqlite"
	// TypeMongoDB uses MongoDB storage
	TypeMongoDB Type = "mongodb"
)

// New creates a storage backend based on the configuration.
// None of the network backends dial here; reachability is checked by Probe.
func New(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	storageType := Type(cfg.Storage.Type)

	switch storageType {
	case TypeMemory, "":
		// Default to memory if not specified
		return memory.NewStore(), nil

	case TypeMySQL:
		store, err := sqlstore.OpenMySQL(&cfg.Storage.MySQL)
		if err != nil {
			return nil, fmt.Errorf("failed to create MySQL backend: %w", err)
		}
		return store, nil

	case TypeSQLite:
		store, err := sqlstore.OpenSQLite(ctx, cfg.Storage.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		return store, nil

	case TypeMongoDB:
		store, err := mongodb.NewStore(ctx, &cfg.Storage.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("failed to create MongoDB backend: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// Probe borrows one pooled connection, validates it and releases it at
// once. A failure is logged and reported but never fatal: the server keeps
// running degraded and later queries surface their own errors.
func Probe(ctx context.Context, store storage.Store, logger *zap.Logger) bool {
	if err := store.Ping(ctx); err != nil {
		logger.Error("Database connection failed, continuing in degraded mode", zap.Error(err))
		return false
	}
	logger.Info("Database connected")
	return true
}
