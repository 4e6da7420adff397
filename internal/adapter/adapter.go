// Package adapter abstracts the database session the engine executes
// against.
package adapter

import (
	"context"

	"github.com/cascade-data/cascade/internal/model"
)

// Adapter is the database capability surface the engine consumes. One
// adapter holds one connection for the duration of a run.
type Adapter interface {
	// Connect opens the session. Safe to call once.
	Connect(ctx context.Context) error
	Close() error

	// Exec runs a statement with no result rows.
	Exec(ctx context.Context, sql string) error

	// QueryCount runs a query expected to return a single integer value
	// (count-style data test queries).
	QueryCount(ctx context.Context, sql string) (int64, error)

	// QueryRowCount runs a query and returns how many rows it produced
	// (duplicate-row data test queries).
	QueryRowCount(ctx context.Context, sql string) (int64, error)

	// EnsureSchema creates the schema when it does not exist.
	EnsureSchema(ctx context.Context, schema string) error

	// TableExists reports whether rel currently exists as a base table.
	TableExists(ctx context.Context, rel model.Relation) (bool, error)

	// Columns returns rel's column names in ordinal order.
	Columns(ctx context.Context, rel model.Relation) ([]string, error)

	// QuoteIdent escapes a single identifier.
	QuoteIdent(name string) string
}
