// Package dialect names the supported databases and defines the driver
// interfaces the DAO client executes statements through.
//
// # Dialect Constants
//
//	dialect.MySQL    = "mysql"
//	dialect.Postgres = "postgres"
//	dialect.SQLite   = "sqlite"
//
// # Driver Interface
//
//	type Driver interface {
//	    ExecQuerier
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// Exec takes a *sql.Result (or nil) as its destination, Query a *sql.Rows
// from package dialect/sql. Args are always []any.
//
// # Sub-packages
//
//   - dialect/sql: database/sql driver wrapper, per-database SQL strategies
//     (quoting, pagination, DML) and constraint-error classification.
package dialect
