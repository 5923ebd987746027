package handler

import (
	"reflect"
	"slices"

	"github.com/syssam/lightdao"
)

// Args is the positional-argument list of one invocation. Handlers consume
// it in place; after planning it must be empty.
type Args struct {
	method string
	vals   []any
}

// NewArgs copies vals into a new list. method names the invocation in
// errors.
func NewArgs(method string, vals ...any) *Args {
	return &Args{method: method, vals: slices.Clone(vals)}
}

// Len returns the number of unconsumed arguments.
func (a *Args) Len() int {
	return len(a.vals)
}

// Take consumes the first n arguments.
func (a *Args) Take(n int) ([]any, error) {
	if n > len(a.vals) {
		return nil, lightdao.NewArgumentMismatchError(a.method, n, len(a.vals))
	}
	out := a.vals[:n:n]
	a.vals = a.vals[n:]
	return out, nil
}

// Pop consumes the last argument.
func (a *Args) Pop() (any, error) {
	if len(a.vals) == 0 {
		return nil, lightdao.NewArgumentMismatchError(a.method, 1, 0)
	}
	v := a.vals[len(a.vals)-1]
	a.vals = a.vals[:len(a.vals)-1]
	return v, nil
}

// Done returns an ArgumentMismatchError if arguments remain.
func (a *Args) Done() error {
	if n := len(a.vals); n > 0 {
		return lightdao.NewArgumentMismatchError(a.method, 0, n)
	}
	return nil
}

// Unpack flattens a slice or array into a generic list. Byte slices and
// non-sequence values become a one-element list; nil becomes an empty one.
func Unpack(v any) []any {
	if v == nil {
		return nil
	}
	if vs, ok := v.([]any); ok {
		return slices.Clone(vs)
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return []any{v}
		}
		if rv.IsNil() {
			return nil
		}
		fallthrough
	case reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	default:
		return []any{rv.Interface()}
	}
}
