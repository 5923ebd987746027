package sql

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"github.com/syssam/lightdao/dialect"
)

// Dialect is the per-database SQL strategy: identifier quoting, pagination
// and DML assembly. Implementations are stateless and safe for concurrent
// use.
type Dialect interface {
	// Name returns the dialect name, one of the dialect package constants.
	Name() string
	// Quote quotes one bare identifier.
	Quote(ident string) string
	// SecurityFields quotes a SELECT list, leaving expressions alone.
	SecurityFields(fields ...string) string
	// SecurityTableName quotes a table reference, leaving expressions alone.
	SecurityTableName(table string) string
	// Paginate sets the limit clause of query, replacing a trailing one.
	Paginate(query string, start, size int) string
	// Count wraps query into a row count.
	Count(query string) string
	Save(table string, cols []Column) (string, []any, error)
	Update(table, pk string, cols []Column) (string, []any, error)
	Delete(table string, cols []Column) (string, []any, error)
	FindByID(table, pk string, id any) (string, []any)
	DeleteByID(table, pk string, id any) (string, []any)
	// Rebind rewrites "?" placeholders into the native form.
	Rebind(query string) string
}

// Column is one column/value pair of a DML statement.
type Column struct {
	Name  string
	Value any
}

// C is shorthand for Column{name, value}.
func C(name string, value any) Column {
	return Column{Name: name, Value: value}
}

// DialectFor returns the strategy for a dialect or driver name.
func DialectFor(name string) (Dialect, error) {
	switch n := dialect.Normalize(name); n {
	case dialect.MySQL:
		return MySQL, nil
	case dialect.SQLite:
		return SQLite, nil
	case dialect.Postgres:
		return Postgres, nil
	default:
		return nil, fmt.Errorf("dialect/sql: unsupported dialect %q", name)
	}
}

var (
	// MySQL is the reference dialect.
	MySQL Dialect = &base{name: dialect.MySQL, quote: backtick, limit: mysqlLimit}
	// SQLite follows the MySQL rules; SQLite accepts backtick quoting and
	// "limit offset,count".
	SQLite Dialect = &base{name: dialect.SQLite, quote: backtick, limit: mysqlLimit}
)

var (
	errNoColumns = errors.New("no columns")
	errNoPK      = errors.New("primary key value missing")
	errNoSet     = errors.New("no columns to update")
)

// base implements Dialect for the shared MySQL-like rules. Postgres swaps
// the quoter, the limit clause and the placeholder style.
type base struct {
	name   string
	quote  func(string) string
	limit  func(start, size int) string
	rebind func(string) string
}

func backtick(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

func mysqlLimit(start, size int) string {
	return fmt.Sprintf(" limit %d,%d", start, size)
}

func (b *base) Name() string { return b.name }

func (b *base) Quote(ident string) string { return b.quote(ident) }

func (b *base) SecurityFields(fields ...string) string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, b.secure(f))
		}
	}
	if len(out) == 0 {
		return "*"
	}
	return strings.Join(out, ",")
}

func (b *base) SecurityTableName(table string) string {
	return b.secure(strings.TrimSpace(table))
}

// secure quotes a bare or qualified identifier. Stars, quoted names,
// expressions, sub-queries and aliased items are returned unchanged.
func (b *base) secure(s string) string {
	switch {
	case s == "*", s == "":
		return s
	case isQuoted(s):
		return s
	case strings.ContainsAny(s, "() \t\n'+-/|"):
		return s
	}
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		col := s[i+1:]
		if col == "*" || isQuoted(col) || col == "" {
			return s
		}
		return s[:i+1] + b.quote(col)
	}
	return b.quote(s)
}

func isQuoted(s string) bool {
	if len(s) < 2 {
		return false
	}
	switch s[0] {
	case '`', '"', '[':
		return true
	}
	return false
}

func (b *base) Paginate(query string, start, size int) string {
	return stripLimit(query) + b.limit(start, size)
}

func (b *base) Count(query string) string {
	return "select count(*) from (" + stripLimit(query) + ") t_count"
}

func (b *base) Save(table string, cols []Column) (string, []any, error) {
	if len(cols) == 0 {
		return "", nil, fmt.Errorf("dialect/sql: save %s: %w", table, errNoColumns)
	}
	names := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		names[i], args[i] = b.quote(c.Name), c.Value
	}
	q := "insert into " + b.SecurityTableName(table) +
		"(" + strings.Join(names, ",") + ") values(" + placeholders(len(cols)) + ")"
	return b.bind(q), args, nil
}

func (b *base) Update(table, pk string, cols []Column) (string, []any, error) {
	fold := cases.Fold()
	key := fold.String(pk)
	var (
		sets  []string
		args  []any
		id    any
		found bool
	)
	for _, c := range cols {
		if fold.String(c.Name) == key {
			id, found = c.Value, true
			continue
		}
		sets = append(sets, b.quote(c.Name)+"= ?")
		args = append(args, c.Value)
	}
	switch {
	case !found:
		return "", nil, fmt.Errorf("dialect/sql: update %s: %w", table, errNoPK)
	case len(sets) == 0:
		return "", nil, fmt.Errorf("dialect/sql: update %s: %w", table, errNoSet)
	}
	q := "update " + b.SecurityTableName(table) + " set " + strings.Join(sets, ",") +
		" where " + b.quote(pk) + "= ?"
	return b.bind(q), append(args, id), nil
}

func (b *base) Delete(table string, cols []Column) (string, []any, error) {
	if len(cols) == 0 {
		return "", nil, fmt.Errorf("dialect/sql: delete %s: %w", table, errNoColumns)
	}
	conds := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		conds[i], args[i] = b.quote(c.Name)+"= ?", c.Value
	}
	q := "delete from " + b.SecurityTableName(table) + " where " + strings.Join(conds, " and ")
	return b.bind(q), args, nil
}

func (b *base) FindByID(table, pk string, id any) (string, []any) {
	q := "select * from " + b.SecurityTableName(table) + " where " + b.quote(pk) + "= ?"
	return b.bind(q), []any{id}
}

func (b *base) DeleteByID(table, pk string, id any) (string, []any) {
	q := "delete from " + b.SecurityTableName(table) + " where " + b.quote(pk) + "= ?"
	return b.bind(q), []any{id}
}

func (b *base) Rebind(query string) string {
	return b.bind(query)
}

func (b *base) bind(q string) string {
	if b.rebind == nil {
		return q
	}
	return b.rebind(q)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

var trailingLimit = regexp.MustCompile(`(?i)\blimit\s+(\d+|\?)(\s*,\s*(\d+|\?)|\s+offset\s+(\d+|\?))?\s*$`)

// stripLimit trims trailing whitespace and semicolons and removes a
// trailing limit clause unless it sits inside a line comment.
func stripLimit(q string) string {
	q = strings.TrimRight(q, " \t\r\n;")
	loc := trailingLimit.FindStringIndex(q)
	if loc == nil || inLineComment(q, loc[0]) {
		return q
	}
	return strings.TrimRight(q[:loc[0]], " \t\r\n")
}

// PageArgs returns args without the values bound by the trailing limit
// clause of query, the clause Paginate replaces and Count drops. Those
// values are always the last ones, since the clause ends the statement.
func PageArgs(query string, args []any) []any {
	n := limitParams(query)
	if n == 0 || n > len(args) {
		return args
	}
	k := len(args) - n
	return args[:k:k]
}

// limitParams counts the placeholders of the limit clause stripLimit
// removes.
func limitParams(q string) int {
	q = strings.TrimRight(q, " \t\r\n;")
	loc := trailingLimit.FindStringIndex(q)
	if loc == nil || inLineComment(q, loc[0]) {
		return 0
	}
	return strings.Count(q[loc[0]:], "?")
}

// inLineComment reports whether offset pos of q follows a "--" or "#"
// comment opener on the same line, ignoring openers inside quotes.
func inLineComment(q string, pos int) bool {
	start := strings.LastIndexByte(q[:pos], '\n') + 1
	var quote byte
	for i := start; i < pos; i++ {
		ch := q[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"' || ch == '`':
			quote = ch
		case ch == '#':
			return true
		case ch == '-' && i+1 < len(q) && q[i+1] == '-':
			return true
		}
	}
	return false
}
