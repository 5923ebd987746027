package planner

import (
	"fmt"
	"reflect"

	"github.com/syssam/lightdao"
	"github.com/syssam/lightdao/dialect/sql"
	"github.com/syssam/lightdao/schema"
)

// Map shapes a fetched result into the declared return:
//
//	list    []map[string]any
//	one     map[string]any, or nil without rows
//	scalar  first column of the single row, coerced to Return.Type
//	scalars first column of every row, as []T (or []any without a type)
//
// More than one row for a singular return is a NotSingularError.
func (p *Plan) Map(rs *sql.ResultSet) (any, error) {
	return MapResult(p.Method.Signature(), p.Return, rs)
}

// MapResult is Plan.Map for results not produced by a Plan, such as
// compiled templates.
func MapResult(method string, ret schema.Return, rs *sql.ResultSet) (any, error) {
	n := rs.Len()
	switch ret.Kind {
	case schema.ReturnList:
		if rs == nil {
			return []map[string]any{}, nil
		}
		return rs.Maps(), nil
	case schema.ReturnOne:
		switch {
		case n == 0:
			return nil, nil
		case n > 1:
			return nil, lightdao.NewNotSingularErrorWithCount(method, n)
		}
		return rs.Maps()[0], nil
	case schema.ReturnScalar:
		switch {
		case n == 0:
			return Coerce(nil, ret.Type)
		case n > 1:
			return nil, lightdao.NewNotSingularErrorWithCount(method, n)
		}
		v, err := first(rs, 0)
		if err != nil {
			return nil, err
		}
		return Coerce(v, ret.Type)
	case schema.ReturnScalarList:
		elem := ret.Type
		if elem == nil {
			elem = reflect.TypeFor[any]()
		}
		out := reflect.MakeSlice(reflect.SliceOf(elem), n, n)
		for i := range n {
			v, err := first(rs, i)
			if err != nil {
				return nil, err
			}
			if ret.Type != nil {
				if v, err = Coerce(v, ret.Type); err != nil {
					return nil, fmt.Errorf("%s: row %d: %w", method, i, err)
				}
			}
			if v != nil {
				out.Index(i).Set(reflect.ValueOf(v))
			}
		}
		return out.Interface(), nil
	}
	return nil, fmt.Errorf("lightdao: %s: unknown return kind %s", method, ret.Kind)
}

func first(rs *sql.ResultSet, row int) (any, error) {
	if len(rs.Columns) == 0 || len(rs.Rows[row]) == 0 {
		return nil, fmt.Errorf("lightdao: result has no columns")
	}
	return rs.Rows[row][0], nil
}
