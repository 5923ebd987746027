package dialect

import (
	"context"
	"strings"
)

// Supported dialect names.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// ExecQuerier executes statements. args is a []any in placeholder order; v
// is the destination (a *sql.Result for Exec, a *sql.Rows for Query).
type ExecQuerier interface {
	Exec(ctx context.Context, query string, args, v any) error
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is an ExecQuerier that can open transactions.
type Driver interface {
	ExecQuerier
	Tx(context.Context) (Tx, error)
	Close() error
	Dialect() string
}

// Tx is a Driver bound to one transaction.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}

// Normalize maps driver names and aliases ("sqlite3", "pgx", "mariadb") to
// a dialect name. Unknown names are returned lowercased.
func Normalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case strings.HasPrefix(n, "mysql"), n == "mariadb":
		return MySQL
	case strings.HasPrefix(n, "sqlite"):
		return SQLite
	case strings.HasPrefix(n, "postgres"), n == "pgx", n == "pq":
		return Postgres
	}
	return n
}
