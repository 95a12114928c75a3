package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// signalExceptionNumber is ER_SIGNAL_EXCEPTION, returned for SIGNAL SQLSTATE '45000'.
const signalExceptionNumber = 1644

// MySQLDialect implements Dialect for MySQL
type MySQLDialect struct{}

// NewMySQLDialect creates a new MySQL dialect
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

func (d *MySQLDialect) DSN(config DialectConfig) string {
	if config.URL != "" {
		return config.URL
	}
	cfg := mysql.NewConfig()
	cfg.User = config.User
	cfg.Passwd = config.Password
	cfg.Net = "tcp"
	cfg.Addr = config.Host
	if config.Port != 0 {
		cfg.Addr = config.Host + ":" + strconv.Itoa(config.Port)
	}
	cfg.DBName = config.Database
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

func (d *MySQLDialect) ConfigureConnection(db *sql.DB, maxConns int) error {
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns / 2)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)
	return nil
}

func (d *MySQLDialect) ProcedureCall(name string, params Params) (string, []any, error) {
	if err := validateProcedureName(name); err != nil {
		return "", nil, err
	}
	placeholders := make([]string, 0, len(params))
	args := make([]any, 0, len(params))
	for _, p := range params {
		placeholders = append(placeholders, "?")
		if list, ok := p.Value.(StringList); ok {
			// MySQL has no table-valued parameters; procedures read a JSON array.
			raw, err := json.Marshal([]string(list))
			if err != nil {
				return "", nil, err
			}
			args = append(args, string(raw))
			continue
		}
		args = append(args, p.Value)
	}
	return "CALL " + name + "(" + strings.Join(placeholders, ", ") + ")", args, nil
}

func (d *MySQLDialect) ManualError(err error) (string, bool) {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return "", false
	}
	if myErr.Number != signalExceptionNumber {
		return "", false
	}
	return manualCause(myErr.Message)
}
