// Package sql provides SQL-backed instantiation hooks for factories: plain
// INSERT creation and get-or-create semantics over database/sql.
package sql

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"

	factory "github.com/FactoryBoy/factory-boy-sub000"
	"github.com/FactoryBoy/factory-boy-sub000/adapter"
)

// validIdentifierRe validates SQL identifiers (alphanumeric and underscores).
var validIdentifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func isValidIdentifier(s string) bool {
	return s != "" && len(s) <= 128 && validIdentifierRe.MatchString(s)
}

// Adapter persists resolved factory attributes into one table.
type Adapter struct {
	conn     adapter.ExecQuerier
	dialect  string
	table    string
	idColumn string
}

// NewAdapter returns an adapter writing to the given table. The conn may be
// a *sql.DB or a *sql.Tx; with a transaction, created fixtures are scoped
// to it.
func NewAdapter(dialect string, conn adapter.ExecQuerier, table string) *Adapter {
	return &Adapter{conn: conn, dialect: dialect, table: table, idColumn: "id"}
}

// IDColumn sets the auto-generated primary key column reported back on the
// record. Defaults to "id".
func (a *Adapter) IDColumn(name string) *Adapter {
	a.idColumn = name
	return a
}

// quote quotes an identifier for the adapter's dialect.
func (a *Adapter) quote(ident string) string {
	if a.dialect == adapter.MySQL {
		return "`" + ident + "`"
	}
	return `"` + ident + `"`
}

// placeholder returns the bind placeholder for the i-th (1-based) argument.
func (a *Adapter) placeholder(i int) string {
	if a.dialect == adapter.Postgres {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

// Creator returns an instantiation hook that INSERTs the resolved keyword
// arguments and returns the persisted row as an adapter.Record. The hook is
// called at most once per build step by the engine; constraint violations
// propagate unchanged.
func (a *Adapter) Creator(ctx context.Context) factory.InstantiateFunc {
	return func(step *factory.BuildStep, args []any, kwargs map[string]any) (any, error) {
		return a.insert(ctx, kwargs)
	}
}

// GetOrCreate returns an instantiation hook with get-or-create semantics
// over the given key columns: it attempts an INSERT and, only on a
// uniqueness conflict, retries a lookup by the keys. If the lookup finds no
// matching row, the original INSERT error is returned rather than masked.
func (a *Adapter) GetOrCreate(ctx context.Context, keys ...string) factory.InstantiateFunc {
	return func(step *factory.BuildStep, args []any, kwargs map[string]any) (any, error) {
		rec, insertErr := a.insert(ctx, kwargs)
		if insertErr == nil {
			return rec, nil
		}
		if !IsUniqueConstraintError(insertErr) {
			return nil, insertErr
		}
		rec, err := a.lookup(ctx, keys, kwargs)
		if err != nil {
			return nil, insertErr
		}
		return rec, nil
	}
}

func (a *Adapter) insert(ctx context.Context, kwargs map[string]any) (adapter.Record, error) {
	if !isValidIdentifier(a.table) {
		return nil, fmt.Errorf("adapter/sql: invalid table name %q", a.table)
	}
	columns := make([]string, 0, len(kwargs))
	for name := range kwargs {
		if !isValidIdentifier(name) {
			return nil, fmt.Errorf("adapter/sql: invalid column name %q", name)
		}
		columns = append(columns, name)
	}
	sort.Strings(columns)

	quoted := make([]string, len(columns))
	holders := make([]string, len(columns))
	values := make([]any, len(columns))
	for i, name := range columns {
		quoted[i] = a.quote(name)
		holders[i] = a.placeholder(i + 1)
		values[i] = kwargs[name]
	}

	rec := make(adapter.Record, len(kwargs)+1)
	for name, v := range kwargs {
		rec[name] = v
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		a.quote(a.table), strings.Join(quoted, ", "), strings.Join(holders, ", "))

	if _, ok := kwargs[a.idColumn]; ok || a.idColumn == "" {
		if _, err := a.conn.ExecContext(ctx, query, values...); err != nil {
			return nil, err
		}
		return rec, nil
	}

	if a.dialect == adapter.Postgres {
		query += " RETURNING " + a.quote(a.idColumn)
		rows, err := a.conn.QueryContext(ctx, query, values...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		if rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return nil, err
			}
			rec[a.idColumn] = id
		}
		return rec, rows.Err()
	}

	res, err := a.conn.ExecContext(ctx, query, values...)
	if err != nil {
		return nil, err
	}
	if id, err := res.LastInsertId(); err == nil {
		rec[a.idColumn] = id
	}
	return rec, nil
}

func (a *Adapter) lookup(ctx context.Context, keys []string, kwargs map[string]any) (adapter.Record, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("adapter/sql: get-or-create requires at least one key column")
	}
	preds := make([]string, len(keys))
	values := make([]any, len(keys))
	for i, key := range keys {
		if !isValidIdentifier(key) {
			return nil, fmt.Errorf("adapter/sql: invalid column name %q", key)
		}
		v, ok := kwargs[key]
		if !ok {
			return nil, fmt.Errorf("adapter/sql: get-or-create key %q not among resolved attributes", key)
		}
		preds[i] = fmt.Sprintf("%s = %s", a.quote(key), a.placeholder(i+1))
		values[i] = v
	}
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s",
		a.quote(a.table), strings.Join(preds, " AND "))

	rows, err := a.conn.QueryContext(ctx, query, values...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, sql.ErrNoRows
	}
	ptrs := make([]any, len(columns))
	vals := make([]any, len(columns))
	for i := range ptrs {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	rec := make(adapter.Record, len(columns))
	for i, name := range columns {
		rec[name] = vals[i]
	}
	return rec, rows.Err()
}
