package storage

import (
	"context"
	"errors"

	"github.com/sirosfoundation/go-ehms-backend/internal/domain"
)

// Common errors
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrDatabase      = errors.New("database error")
)

// EmployeeStore defines the interface for the employee directory
type EmployeeStore interface {
	// Create creates a new employee. An empty ID is filled in.
	Create(ctx context.Context, employee *domain.Employee) error

	// GetByID retrieves an employee by ID
	GetByID(ctx context.Context, id domain.EmployeeID) (*domain.Employee, error)

	// GetAll retrieves every employee ordered by name
	GetAll(ctx context.Context) ([]*domain.Employee, error)
}

// Store is a storage backend with an explicit lifecycle
type Store interface {
	// Employees returns the employee store
	Employees() EmployeeStore

	// Sync reconciles declared models with the live schema, creating
	// whatever is missing. It never drops or alters existing structures.
	Sync(ctx context.Context) error

	// Ping borrows one connection, checks it and hands it back
	Ping(ctx context.Context) error

	// Close releases the pool
	Close() error
}
