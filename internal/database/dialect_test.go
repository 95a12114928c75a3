package database

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insightpaper/internal/apperr"
)

func TestNewDialect(t *testing.T) {
	tests := []struct {
		dbType string
		driver string
	}{
		{dbType: "", driver: "sqlserver"},
		{dbType: "sqlserver", driver: "sqlserver"},
		{dbType: "MSSQL", driver: "sqlserver"},
		{dbType: "postgresql", driver: "postgres"},
		{dbType: "mysql", driver: "mysql"},
	}

	for _, tt := range tests {
		t.Run(tt.dbType, func(t *testing.T) {
			d, err := NewDialect(tt.dbType)
			require.NoError(t, err)
			assert.Equal(t, tt.driver, d.DriverName())
		})
	}

	_, err := NewDialect("sqlite")
	assert.Error(t, err)
}

func TestSQLServerProcedureCall(t *testing.T) {
	d := NewSQLServerDialect()

	query, args, err := d.ProcedureCall("spUsers_UpdateRoles", Params{
		P("userId", 7),
		P("roles", StringList{"professor", "admin"}),
	})
	require.NoError(t, err)

	assert.Equal(t, "EXEC spUsers_UpdateRoles @IN_userId = @IN_userId, @IN_roles = @IN_roles", query)
	require.Len(t, args, 2)

	first, ok := args[0].(sql.NamedArg)
	require.True(t, ok)
	assert.Equal(t, "IN_userId", first.Name)
	assert.Equal(t, 7, first.Value)

	second := args[1].(sql.NamedArg)
	tvp, ok := second.Value.(mssql.TVP)
	require.True(t, ok, "list parameters must be sent as a TVP")
	assert.Equal(t, StringListTypeName, tvp.TypeName)
	assert.Equal(t, []stringListRow{{Value: "professor"}, {Value: "admin"}}, tvp.Value)
}

func TestSQLServerProcedureCallWithoutParams(t *testing.T) {
	query, args, err := NewSQLServerDialect().ProcedureCall("dbo.spModels_GetAll", nil)
	require.NoError(t, err)
	assert.Equal(t, "EXEC dbo.spModels_GetAll", query)
	assert.Empty(t, args)
}

func TestProcedureCallRejectsInjectedNames(t *testing.T) {
	for _, d := range []Dialect{NewSQLServerDialect(), NewPostgresDialect(), NewMySQLDialect()} {
		_, _, err := d.ProcedureCall("spUsers_GetAll; DROP TABLE Users", nil)
		assert.Error(t, err, d.DriverName())
	}
}

func TestPostgresProcedureCall(t *testing.T) {
	query, args, err := NewPostgresDialect().ProcedureCall("spCourses_Join", Params{
		P("userId", 3),
		P("code", "ABC123"),
		P("labels", StringList{"a"}),
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM spCourses_Join(in_userid => $1, in_code => $2, in_labels => $3)", query)
	require.Len(t, args, 3)
	assert.Equal(t, 3, args[0])
	assert.Equal(t, "ABC123", args[1])
	assert.IsType(t, pq.Array([]string{}), args[2])
}

func TestMySQLProcedureCall(t *testing.T) {
	query, args, err := NewMySQLDialect().ProcedureCall("spUsers_UpdateRoles", Params{
		P("userId", 3),
		P("roles", StringList{"student"}),
	})
	require.NoError(t, err)
	assert.Equal(t, "CALL spUsers_UpdateRoles(?, ?)", query)
	assert.Equal(t, []any{3, `["student"]`}, args)
}

func TestSQLServerDSN(t *testing.T) {
	d := NewSQLServerDialect()
	dsn := d.DSN(DialectConfig{Host: "db", Port: 1433, User: "sa", Password: "p@ss", Database: "InsightPaper"})
	assert.Equal(t, "sqlserver://sa:p%40ss@db:1433?database=InsightPaper", dsn)

	assert.Equal(t, "sqlserver://override", d.DSN(DialectConfig{URL: "sqlserver://override"}))
}

func TestManualError(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		err     error
		cause   string
		manual  bool
	}{
		{
			name:    "sqlserver manual",
			dialect: NewSQLServerDialect(),
			err:     mssql.Error{Number: ManualErrorNumber, Message: "MANUAL_ERROR: course_code_invalid"},
			cause:   "course_code_invalid",
			manual:  true,
		},
		{
			name:    "sqlserver wrapped manual",
			dialect: NewSQLServerDialect(),
			err:     fmt.Errorf("exec: %w", mssql.Error{Number: ManualErrorNumber, Message: "MANUAL_ERROR: user_not_found"}),
			cause:   "user_not_found",
			manual:  true,
		},
		{
			name:    "sqlserver sentinel number without marker",
			dialect: NewSQLServerDialect(),
			err:     mssql.Error{Number: ManualErrorNumber, Message: "something else"},
		},
		{
			name:    "sqlserver marker with other number",
			dialect: NewSQLServerDialect(),
			err:     mssql.Error{Number: 2627, Message: "MANUAL_ERROR: duplicate"},
		},
		{
			name:    "postgres raise",
			dialect: NewPostgresDialect(),
			err:     &pq.Error{Code: "P0001", Message: "MANUAL_ERROR: email_taken"},
			cause:   "email_taken",
			manual:  true,
		},
		{
			name:    "postgres unique violation",
			dialect: NewPostgresDialect(),
			err:     &pq.Error{Code: "23505", Message: "MANUAL_ERROR: email_taken"},
		},
		{
			name:    "mysql signal",
			dialect: NewMySQLDialect(),
			err:     &mysql.MySQLError{Number: 1644, Message: "MANUAL_ERROR: course_full"},
			cause:   "course_full",
			manual:  true,
		},
		{
			name:    "plain error",
			dialect: NewMySQLDialect(),
			err:     errors.New("MANUAL_ERROR: spoofed"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cause, manual := tt.dialect.ManualError(tt.err)
			assert.Equal(t, tt.manual, manual)
			assert.Equal(t, tt.cause, cause)
		})
	}
}

func TestClassify(t *testing.T) {
	db := &DB{Dialect: NewSQLServerDialect()}

	err := db.classify("spUsers_GetByEmail", mssql.Error{Number: ManualErrorNumber, Message: "MANUAL_ERROR: user_not_found"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Equal(t, "user_not_found", apperr.Cause(err))

	err = db.classify("spUsers_GetByEmail", errors.New("login failed for user 'sa'"))
	assert.True(t, apperr.IsKind(err, apperr.KindInternal))
	assert.Equal(t, apperr.CodeUnexpected, apperr.Cause(err))
	assert.Contains(t, err.Error(), "spUsers_GetByEmail")
}
