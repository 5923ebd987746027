package sql

import (
	"context"
	"errors"
	"fmt"

	"github.com/syssam/lightdao/dialect"
)

// ResultSet is a fully read query result. Byte slices returned by the
// driver are converted to strings.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}

// Maps returns one column→value map per row.
func (rs *ResultSet) Maps() []map[string]any {
	if rs == nil {
		return nil
	}
	out := make([]map[string]any, len(rs.Rows))
	for i, row := range rs.Rows {
		m := make(map[string]any, len(rs.Columns))
		for j, c := range rs.Columns {
			m[c] = row[j]
		}
		out[i] = m
	}
	return out
}

// Append adds the rows of other. Both sets must have the same width.
func (rs *ResultSet) Append(other *ResultSet) error {
	if other == nil || len(other.Rows) == 0 {
		return nil
	}
	if rs.Columns == nil {
		rs.Columns = other.Columns
	}
	if len(other.Columns) != len(rs.Columns) {
		return fmt.Errorf("dialect/sql: cannot append %d columns to %d", len(other.Columns), len(rs.Columns))
	}
	rs.Rows = append(rs.Rows, other.Rows...)
	return nil
}

// ScanResultSet reads every row of rows and closes it.
func ScanResultSet(rows ColumnScanner) (_ *ResultSet, err error) {
	defer func() { err = errors.Join(err, rows.Close()) }()
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: columns: %w", err)
	}
	rs := &ResultSet{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("dialect/sql: scan: %w", err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		rs.Rows = append(rs.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dialect/sql: rows: %w", err)
	}
	return rs, nil
}

// QueryResultSet runs query on ex and reads the whole result.
func QueryResultSet(ctx context.Context, ex dialect.ExecQuerier, query string, args []any) (*ResultSet, error) {
	if args == nil {
		args = []any{}
	}
	var rows Rows
	if err := ex.Query(ctx, query, args, &rows); err != nil {
		return nil, err
	}
	return ScanResultSet(rows)
}

// ExecAffected runs a statement on ex and returns the affected row count.
func ExecAffected(ctx context.Context, ex dialect.ExecQuerier, query string, args []any) (int64, error) {
	if args == nil {
		args = []any{}
	}
	var res Result
	if err := ex.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
