package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-ehms-backend/internal/domain"
	"github.com/sirosfoundation/go-ehms-backend/internal/storage"
	"github.com/sirosfoundation/go-ehms-backend/pkg/config"
)

func getTestMongoURI() string {
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	return uri
}

func skipIfNoMongo(t *testing.T) *Store {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := &config.MongoDBConfig{
		URI:      getTestMongoURI(),
		Database: "ehms_backend_test",
		Timeout:  2,
	}

	store, err := NewStore(ctx, cfg)
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
		return nil
	}
	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		t.Skipf("MongoDB not available: %v", err)
		return nil
	}

	// Clean up test database
	t.Cleanup(func() {
		ctx := context.Background()
		_ = store.database.Drop(ctx)
		_ = store.Close()
	})

	require.NoError(t, store.Sync(ctx))
	return store
}

func TestNewStore_Lazy(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(ctx, &config.MongoDBConfig{
		URI:      "mongodb://127.0.0.1:1",
		Database: "unreachable",
		Timeout:  1,
	})
	require.NoError(t, err)
	defer store.Close()

	assert.Error(t, store.Ping(ctx))
}

func TestStore_Sync_Idempotent(t *testing.T) {
	store := skipIfNoMongo(t)
	assert.NoError(t, store.Sync(context.Background()))
}

func TestEmployeeStore_CRUD(t *testing.T) {
	store := skipIfNoMongo(t)
	ctx := context.Background()

	employee := &domain.Employee{Name: "Grace", Email: "grace@example.org", Role: domain.RoleDoctor}
	require.NoError(t, store.Employees().Create(ctx, employee))

	got, err := store.Employees().GetByID(ctx, employee.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grace", got.Name)
	assert.Equal(t, domain.RoleDoctor, got.Role)

	_, err = store.Employees().GetByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	dup := &domain.Employee{Name: "Other", Email: "grace@example.org", Role: domain.RoleAdmin}
	assert.ErrorIs(t, store.Employees().Create(ctx, dup), storage.ErrAlreadyExists)

	all, err := store.Employees().GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
