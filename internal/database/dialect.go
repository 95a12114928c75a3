package database

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
)

// Dialect defines the interface for database-specific operations
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// ConfigureConnection applies pool limits and any database-specific settings
	ConfigureConnection(db *sql.DB, maxConns int) error

	// ProcedureCall renders the statement and arguments that invoke a stored procedure
	ProcedureCall(name string, params Params) (string, []any, error)

	// ManualError reports whether err was raised on purpose by a procedure
	// and returns the cause the procedure supplied
	ManualError(err error) (string, bool)
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// Full connection URL; takes precedence over the discrete fields
	URL string

	Host     string
	Port     int
	User     string
	Password string
	Database string
}

const (
	// ParamPrefix is prepended to every procedure parameter name
	ParamPrefix = "IN_"

	// ManualErrorMarker tags messages of errors raised deliberately by procedures,
	// e.g. THROW 50000, 'MANUAL_ERROR: course_code_invalid', 1
	ManualErrorMarker = "MANUAL_ERROR:"
)

var procedureNameRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

func validateProcedureName(name string) error {
	if !procedureNameRegexp.MatchString(name) {
		return fmt.Errorf("invalid procedure name %q", name)
	}
	return nil
}

func paramName(name string) string {
	return ParamPrefix + name
}

// manualCause extracts the cause following ManualErrorMarker in msg.
func manualCause(msg string) (string, bool) {
	idx := strings.Index(msg, ManualErrorMarker)
	if idx < 0 {
		return "", false
	}
	cause := strings.TrimSpace(msg[idx+len(ManualErrorMarker):])
	if cause == "" {
		return "", false
	}
	return cause, true
}
