package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"insightpaper/internal/config"
)

// DB wraps the pooled connection with dialect support. It is created once in
// main and passed to every repository.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Caller is the gateway repositories depend on.
type Caller interface {
	// Call executes one procedure.
	Call(ctx context.Context, name string, params ...Param) (*Result, error)

	// CallTx executes steps in order inside one transaction.
	CallTx(ctx context.Context, steps []Step, opts TxOptions) ([]*Result, error)

	// Ping checks connectivity.
	Ping(ctx context.Context) error
}

// NewDialect returns the dialect for a DB_TYPE value.
func NewDialect(dbType string) (Dialect, error) {
	switch strings.ToLower(dbType) {
	case "sqlserver", "mssql", "":
		return NewSQLServerDialect(), nil
	case "postgres", "postgresql":
		return NewPostgresDialect(), nil
	case "mysql":
		return NewMySQLDialect(), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}

// InitializeWithConfig creates and configures the database connection based on config
func InitializeWithConfig(cfg *config.Config) (*DB, error) {
	dialect, err := NewDialect(cfg.DatabaseType)
	if err != nil {
		return nil, err
	}

	dialectConfig := DialectConfig{
		URL:      cfg.DatabaseURL,
		Host:     cfg.DatabaseHost,
		Port:     cfg.DatabasePort,
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
	}

	return Open(dialect, dialectConfig, cfg.DatabaseMaxConns)
}

// Open opens the pool, configures it and verifies connectivity.
func Open(dialect Dialect, dialectConfig DialectConfig, maxConns int) (*DB, error) {
	if maxConns <= 0 {
		maxConns = 10
	}

	db, err := sql.Open(dialect.DriverName(), dialect.DSN(dialectConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply dialect-specific configuration
	if err := dialect.ConfigureConnection(db, maxConns); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure connection: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, Dialect: dialect}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// Ping verifies a connection can be obtained within ctx.
func (db *DB) Ping(ctx context.Context) error {
	return db.DB.PingContext(ctx)
}
