package sql

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry   = 1062
	mysqlForeignKeyParent = 1451
	mysqlForeignKeyChild  = 1452
)

// sqlStateError is implemented by drivers exposing SQLSTATE codes (pgx and
// some MySQL configurations).
type sqlStateError interface {
	SQLState() string
}

// IsUniqueConstraintError reports whether the error resulted from a
// database uniqueness constraint violation, e.g. a duplicate value in a
// unique index. The get-or-create hook uses it to decide whether a lookup
// retry is warranted.
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	var pe *pq.Error
	if errors.As(err, &pe) {
		return string(pe.Code) == pgUniqueViolation
	}
	var se sqlStateError
	if errors.As(err, &se) {
		return se.SQLState() == pgUniqueViolation
	}
	// Fallback for drivers exposing neither typed errors nor SQLSTATE.
	return containsAny(err.Error(),
		"Error 1062",                 // MySQL
		"violates unique constraint", // PostgreSQL
		"UNIQUE constraint failed",   // SQLite
	)
}

// IsForeignKeyConstraintError reports whether the error resulted from a
// database foreign-key constraint violation.
func IsForeignKeyConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlForeignKeyParent || me.Number == mysqlForeignKeyChild
	}
	var pe *pq.Error
	if errors.As(err, &pe) {
		return string(pe.Code) == pgForeignKeyViolation
	}
	var se sqlStateError
	if errors.As(err, &se) {
		return se.SQLState() == pgForeignKeyViolation
	}
	return containsAny(err.Error(),
		"Error 1451",                      // MySQL, parent row
		"Error 1452",                      // MySQL, child row
		"violates foreign key constraint", // PostgreSQL
		"FOREIGN KEY constraint failed",   // SQLite
	)
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
