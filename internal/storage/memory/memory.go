package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirosfoundation/go-ehms-backend/internal/domain"
	"github.com/sirosfoundation/go-ehms-backend/internal/storage"
)

// Store implements an in-memory storage
type Store struct {
	employees *EmployeeStore
}

// NewStore creates a new in-memory store
func NewStore() *Store {
	return &Store{
		employees: &EmployeeStore{data: make(map[domain.EmployeeID]*domain.Employee)},
	}
}

func (s *Store) Employees() storage.EmployeeStore { return s.employees }
func (s *Store) Sync(ctx context.Context) error   { return nil }
func (s *Store) Ping(ctx context.Context) error   { return nil }
func (s *Store) Close() error                     { return nil }

// EmployeeStore implements in-memory employee storage
type EmployeeStore struct {
	mu   sync.RWMutex
	data map[domain.EmployeeID]*domain.Employee
}

func (s *EmployeeStore) Create(ctx context.Context, employee *domain.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if employee.ID == "" {
		employee.ID = domain.NewEmployeeID()
	}
	employee.Email = domain.NormalizeEmail(employee.Email)
	if _, exists := s.data[employee.ID]; exists {
		return storage.ErrAlreadyExists
	}
	for _, e := range s.data {
		if e.Email == employee.Email {
			return storage.ErrAlreadyExists
		}
	}

	now := time.Now()
	employee.CreatedAt = now
	employee.UpdatedAt = now

	cp := *employee
	s.data[employee.ID] = &cp
	return nil
}

func (s *EmployeeStore) GetByID(ctx context.Context, id domain.EmployeeID) (*domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	employee, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := *employee
	return &cp, nil
}

func (s *EmployeeStore) GetAll(ctx context.Context) ([]*domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	employees := make([]*domain.Employee, 0, len(s.data))
	for _, e := range s.data {
		cp := *e
		employees = append(employees, &cp)
	}
	sort.Slice(employees, func(i, j int) bool {
		if employees[i].Name != employees[j].Name {
			return employees[i].Name < employees[j].Name
		}
		return employees[i].ID < employees[j].ID
	})
	return employees, nil
}
