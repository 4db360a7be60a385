package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sirosfoundation/go-ehms-backend/internal/domain"
	"github.com/sirosfoundation/go-ehms-backend/internal/storage"
	"github.com/sirosfoundation/go-ehms-backend/pkg/config"
)

// Store implements MongoDB storage
type Store struct {
	client   *mongo.Client
	database *mongo.Database
	cfg      *config.MongoDBConfig

	employees *EmployeeStore
}

// NewStore creates a new MongoDB store.
// The driver connects lazily, so an unreachable server does not fail here.
func NewStore(ctx context.Context, cfg *config.MongoDBConfig) (*Store, error) {
	timeout := time.Duration(cfg.Timeout) * time.Second
	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	database := client.Database(cfg.Database)

	return &Store{
		client:    client,
		database:  database,
		cfg:       cfg,
		employees: &EmployeeStore{collection: database.Collection("employees")},
	}, nil
}

// Sync creates the indexes the employee directory relies on
func (s *Store) Sync(ctx context.Context) error {
	_, err := s.employees.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "role", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create employee indexes: %w", err)
	}
	return nil
}

func (s *Store) Employees() storage.EmployeeStore { return s.employees }

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Ping checks out a server connection, pings the primary and releases it
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// EmployeeStore implements MongoDB employee storage
type EmployeeStore struct {
	collection *mongo.Collection
}

func (s *EmployeeStore) Create(ctx context.Context, employee *domain.Employee) error {
	if employee.ID == "" {
		employee.ID = domain.NewEmployeeID()
	}
	employee.Email = domain.NormalizeEmail(employee.Email)
	now := time.Now().UTC().Truncate(time.Millisecond)
	employee.CreatedAt = now
	employee.UpdatedAt = now

	_, err := s.collection.InsertOne(ctx, employee)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create employee: %w", err)
	}
	return nil
}

func (s *EmployeeStore) GetByID(ctx context.Context, id domain.EmployeeID) (*domain.Employee, error) {
	var employee domain.Employee
	err := s.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&employee)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return &employee, nil
}

func (s *EmployeeStore) GetAll(ctx context.Context) ([]*domain.Employee, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get employees: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	employees := []*domain.Employee{}
	if err := cursor.All(ctx, &employees); err != nil {
		return nil, fmt.Errorf("failed to decode employees: %w", err)
	}
	return employees, nil
}
