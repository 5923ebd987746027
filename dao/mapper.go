package dao

import (
	"github.com/syssam/lightdao/dialect/sql"
	"github.com/syssam/lightdao/query/planner"
	"github.com/syssam/lightdao/schema"
)

// RowMapper shapes a result set into the declared return of a method.
type RowMapper interface {
	MapRows(method string, ret schema.Return, rs *sql.ResultSet) (any, error)
}

// The RowMapperFunc type is an adapter to allow the use of ordinary
// functions as RowMapper.
type RowMapperFunc func(method string, ret schema.Return, rs *sql.ResultSet) (any, error)

// MapRows calls f(method, ret, rs).
func (f RowMapperFunc) MapRows(method string, ret schema.Return, rs *sql.ResultSet) (any, error) {
	return f(method, ret, rs)
}

// DefaultMapper returns lists as []map[string]any, single rows as
// map[string]any and scalars coerced to the declared type.
var DefaultMapper RowMapper = RowMapperFunc(planner.MapResult)

// MapRows returns one column→value map per row.
func MapRows(rs *sql.ResultSet) []map[string]any {
	if rs == nil {
		return []map[string]any{}
	}
	return rs.Maps()
}
