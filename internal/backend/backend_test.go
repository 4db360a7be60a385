package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sirosfoundation/go-ehms-backend/internal/storage"
	"github.com/sirosfoundation/go-ehms-backend/internal/storage/memory"
	"github.com/sirosfoundation/go-ehms-backend/pkg/config"
)

func TestNew_MemoryBackend(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{
			Type: "memory",
		},
	}

	backend, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer func() { _ = backend.Close() }()

	if backend.Employees() == nil {
		t.Error("expected Employees() to return non-nil store")
	}
}

func TestNew_EmptyTypeDefaultsToMemory(t *testing.T) {
	backend, err := New(context.Background(), &config.Config{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := backend.(*memory.Store); !ok {
		t.Errorf("expected *memory.Store, got %T", backend)
	}
}

func TestNew_SQLiteBackend(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{
			Type:   "sqlite",
			SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "ehms.db")},
		},
	}

	backend, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer func() { _ = backend.Close() }()

	if err := backend.Sync(context.Background()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if err := backend.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestNew_MySQLBackendUnreachable(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{
			Type:  "mysql",
			MySQL: config.MySQLConfig{DSN: "ehms:ehms@tcp(127.0.0.1:1)/ehms?timeout=1s"},
		},
	}

	// construction must not dial
	backend, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer func() { _ = backend.Close() }()

	if err := backend.Ping(context.Background()); err == nil {
		t.Error("expected Ping() to fail against an unreachable server")
	}
}

func TestNew_UnsupportedType(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{
			Type: "postgres",
		},
	}

	_, err := New(context.Background(), cfg)
	if err == nil {
		t.Error("expected error for unsupported storage type")
	}
}

type pingStore struct {
	storage.Store
	err   error
	calls int
}

func (s *pingStore) Ping(ctx context.Context) error {
	s.calls++
	return s.err
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		want      bool
		wantLevel zapcore.Level
		wantMsg   string
	}{
		{"healthy", nil, true, zapcore.InfoLevel, "Database connected"},
		{"unreachable", errors.New("dial tcp: connection refused"), false, zapcore.ErrorLevel, "Database connection failed, continuing in degraded mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.DebugLevel)
			store := &pingStore{Store: memory.NewStore(), err: tt.err}

			got := Probe(context.Background(), store, zap.New(core))

			if got != tt.want {
				t.Errorf("Probe() = %v, want %v", got, tt.want)
			}
			if store.calls != 1 {
				t.Errorf("expected exactly one ping, got %d", store.calls)
			}
			entries := logs.All()
			if len(entries) != 1 {
				t.Fatalf("expected one log entry, got %d", len(entries))
			}
			if entries[0].Level != tt.wantLevel || entries[0].Message != tt.wantMsg {
				t.Errorf("unexpected log entry: %v %q", entries[0].Level, entries[0].Message)
			}
		})
	}
}
