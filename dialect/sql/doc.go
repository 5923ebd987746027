// Package sql holds the database-specific half of lightdao: the Dialect
// strategies that quote identifiers, paginate and assemble DML, and a thin
// dialect.Driver over database/sql.
//
// # Dialects
//
//	d, _ := sql.DialectFor("mysql")
//	d.SecurityFields("id", "u.name", "count(*)", "nick as n") // `id`,u.`name`,count(*),nick as n
//	d.Paginate("select * from user limit 20,10", 0, 5)       // select * from user limit 0,5
//	d.Update("user", "id", []sql.Column{sql.C("id", 1), sql.C("name", "x")})
//	// update `user` set `name`= ? where `id`= ?   [x 1]
//
// MySQL is the reference strategy. SQLite shares its rules; Postgres quotes
// with double quotes, paginates with "limit n offset m" and rebinds "?" to
// "$n".
//
// # Drivers
//
//	drv, err := sql.Open("mysql", dsn)
//	rs, err := sql.QueryResultSet(ctx, drv, "select * from user", nil)
//
// NewStatsDriver counts statements and reports slow ones; NewDebugDriver
// logs every statement through log/slog.
//
// # Errors
//
// Classify turns driver constraint violations (MySQL error numbers,
// Postgres SQLSTATE codes, SQLite messages) into lightdao.ConstraintError.
package sql
