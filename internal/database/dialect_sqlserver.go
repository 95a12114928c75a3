package database

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	mssql "github.com/microsoft/go-mssqldb"
)

// ManualErrorNumber is the error number procedures use with THROW for
// validation failures.
const ManualErrorNumber = 50000

// StringListTypeName is the user-defined table type used for list parameters.
const StringListTypeName = "StringListType"

// stringListRow mirrors the single-column StringListType table type.
type stringListRow struct {
	Value string
}

// SQLServerDialect implements Dialect for Microsoft SQL Server
type SQLServerDialect struct{}

// NewSQLServerDialect creates a new SQL Server dialect
func NewSQLServerDialect() *SQLServerDialect {
	return &SQLServerDialect{}
}

func (d *SQLServerDialect) DriverName() string {
	return "sqlserver"
}

func (d *SQLServerDialect) DSN(config DialectConfig) string {
	if config.URL != "" {
		return config.URL
	}
	query := url.Values{}
	query.Add("database", config.Database)
	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(config.User, config.Password),
		Host:     config.Host + ":" + strconv.Itoa(config.Port),
		RawQuery: query.Encode(),
	}
	return u.String()
}

func (d *SQLServerDialect) ConfigureConnection(db *sql.DB, maxConns int) error {
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxIdleTime(30 * time.Second)
	return nil
}

func (d *SQLServerDialect) ProcedureCall(name string, params Params) (string, []any, error) {
	if err := validateProcedureName(name); err != nil {
		return "", nil, err
	}
	var sb strings.Builder
	sb.WriteString("EXEC ")
	sb.WriteString(name)

	args := make([]any, 0, len(params))
	for i, p := range params {
		if i > 0 {
			sb.WriteString(",")
		}
		n := paramName(p.Name)
		fmt.Fprintf(&sb, " @%s = @%s", n, n)
		args = append(args, sql.Named(n, d.value(p.Value)))
	}
	return sb.String(), args, nil
}

func (d *SQLServerDialect) value(v any) any {
	list, ok := v.(StringList)
	if !ok {
		return v
	}
	rows := make([]stringListRow, 0, len(list))
	for _, s := range list {
		rows = append(rows, stringListRow{Value: s})
	}
	return mssql.TVP{TypeName: StringListTypeName, Value: rows}
}

func (d *SQLServerDialect) ManualError(err error) (string, bool) {
	var msErr mssql.Error
	if !errors.As(err, &msErr) {
		return "", false
	}
	if msErr.Number != ManualErrorNumber {
		return "", false
	}
	return manualCause(msErr.Message)
}
