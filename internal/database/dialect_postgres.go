package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// raiseExceptionCode is the SQLSTATE of RAISE EXCEPTION without an explicit code.
const raiseExceptionCode = "P0001"

// PostgresDialect implements Dialect for PostgreSQL. Procedures are
// set-returning functions called with named notation.
type PostgresDialect struct{}

// NewPostgresDialect creates a new PostgreSQL dialect
func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

func (d *PostgresDialect) DSN(config DialectConfig) string {
	if config.URL != "" {
		return config.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		config.Host, config.Port, config.User, config.Password, config.Database)
}

func (d *PostgresDialect) ConfigureConnection(db *sql.DB, maxConns int) error {
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns / 2)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)
	return nil
}

func (d *PostgresDialect) ProcedureCall(name string, params Params) (string, []any, error) {
	if err := validateProcedureName(name); err != nil {
		return "", nil, err
	}
	parts := make([]string, 0, len(params))
	args := make([]any, 0, len(params))
	for i, p := range params {
		parts = append(parts, fmt.Sprintf("%s => $%d", strings.ToLower(paramName(p.Name)), i+1))
		if list, ok := p.Value.(StringList); ok {
			args = append(args, pq.Array([]string(list)))
			continue
		}
		args = append(args, p.Value)
	}
	return fmt.Sprintf("SELECT * FROM %s(%s)", name, strings.Join(parts, ", ")), args, nil
}

func (d *PostgresDialect) ManualError(err error) (string, bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return "", false
	}
	if string(pqErr.Code) != raiseExceptionCode {
		return "", false
	}
	return manualCause(pqErr.Message)
}
