// Package sqlstore implements storage on a relational database through the
// bun ORM. MySQL is the production target; SQLite serves development and tests.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/sirosfoundation/go-ehms-backend/internal/domain"
	"github.com/sirosfoundation/go-ehms-backend/internal/storage"
	"github.com/sirosfoundation/go-ehms-backend/pkg/config"
)

// Store implements storage.Store on a bun database
type Store struct {
	db        *bun.DB
	employees *EmployeeStore
}

// Defaults applied to a MySQL DSN that leaves them unset
const (
	DefaultDialTimeout = 5 * time.Second
	DefaultIOTimeout   = 30 * time.Second
)

// mysqlDialect is the bun MySQL dialect without its Init hook. Init looks up
// the server version with a context-free query, which blocks for as long as
// an unresponsive server holds the connection.
type mysqlDialect struct {
	*mysqldialect.Dialect
}

func (mysqlDialect) Init(*sql.DB) {}

// OpenMySQL builds a pooled MySQL handle. No connection is dialed here:
// an unreachable server surfaces on the first Ping or query.
func OpenMySQL(cfg *config.MySQLConfig) (*Store, error) {
	dsn, err := parseMySQLDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}

	connector, err := mysql.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create mysql connector: %w", err)
	}

	sqldb := sql.OpenDB(connector)
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqldb.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	return newStore(bun.NewDB(sqldb, mysqlDialect{mysqldialect.New()})), nil
}

// parseMySQLDSN parses raw and fills in the timeouts it leaves unset
func parseMySQLDSN(raw string) (*mysql.Config, error) {
	dsn, err := mysql.ParseDSN(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	// bun scans DATETIME into time.Time
	dsn.ParseTime = true
	if dsn.Timeout == 0 {
		dsn.Timeout = DefaultDialTimeout
	}
	if dsn.ReadTimeout == 0 {
		dsn.ReadTimeout = DefaultIOTimeout
	}
	if dsn.WriteTimeout == 0 {
		dsn.WriteTimeout = DefaultIOTimeout
	}
	return dsn, nil
}

// OpenSQLite opens a SQLite database using the modernc.org/sqlite driver
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite: single writer connection. This also keeps ":memory:"
	// databases alive across calls.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return newStore(db), nil
}

func newStore(db *bun.DB) *Store {
	return &Store{
		db:        db,
		employees: &EmployeeStore{db: db},
	}
}

func (s *Store) Employees() storage.EmployeeStore { return s.employees }

// DB exposes the bun handle for callers that need raw queries
func (s *Store) DB() *bun.DB { return s.db }

// Stats reports pool usage
func (s *Store) Stats() sql.DBStats { return s.db.DB.Stats() }

// Ping borrows a single connection from the pool, pings it and returns it
// before reporting. It never keeps the connection.
func (s *Store) Ping(ctx context.Context) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Sync creates missing tables for every declared model
func (s *Store) Sync(ctx context.Context) error {
	for _, model := range models {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}
	return nil
}

// Close closes the database connection pool
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// EmployeeStore implements employee storage on bun
type EmployeeStore struct {
	db *bun.DB
}

func (s *EmployeeStore) Create(ctx context.Context, employee *domain.Employee) error {
	if employee.ID == "" {
		employee.ID = domain.NewEmployeeID()
	}
	employee.Email = domain.NormalizeEmail(employee.Email)
	now := time.Now().UTC().Truncate(time.Second)
	employee.CreatedAt = now
	employee.UpdatedAt = now

	_, err := s.db.NewInsert().
		Model(employeeToModel(employee)).
		Exec(ctx)
	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create employee: %w", err)
	}
	return nil
}

func (s *EmployeeStore) GetByID(ctx context.Context, id domain.EmployeeID) (*domain.Employee, error) {
	model := new(employeeModel)
	err := s.db.NewSelect().
		Model(model).
		Where("id = ?", id.String()).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get employee by ID: %w", err)
	}
	return model.toDomain(), nil
}

func (s *EmployeeStore) GetAll(ctx context.Context) ([]*domain.Employee, error) {
	var rows []employeeModel
	err := s.db.NewSelect().
		Model(&rows).
		Order("name ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}

	employees := make([]*domain.Employee, 0, len(rows))
	for i := range rows {
		employees = append(employees, rows[i].toDomain())
	}
	return employees, nil
}

// isDuplicateKey recognises unique violations from MySQL (1062) and SQLite
func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
