// Package adapter defines the shared pieces of the instantiation backends:
// the connection interface a backend persists through and the record type
// handed back as the built instance.
//
// A backend package (see [adapter/sql]) turns a connection into
// factory.InstantiateFunc hooks installed with factory.WithCreate:
//
//	users := sqladapter.NewAdapter(adapter.SQLite, db, "users")
//	f := factory.MustNew(nil,
//	    factory.WithName("UserFactory"),
//	    factory.WithCreate(users.Creator(ctx)),
//	    factory.WithDeclarations(...),
//	)
//	rec, err := f.Create() // INSERTs and returns an adapter.Record
package adapter

import (
	"context"
	"database/sql"
)

// Supported dialect names.
const (
	MySQL    = "mysql"
	Postgres = "postgres"
	SQLite   = "sqlite"
)

// ExecQuerier wraps the standard Exec and Query methods shared by *sql.DB
// and *sql.Tx. Passing a transaction gives session-scoped persistence: all
// created fixtures live and die with the transaction.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Record is a persisted row, keyed by column name. It is the instance
// returned by the SQL-backed creation hooks.
type Record map[string]any
