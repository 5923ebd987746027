package template

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/syssam/lightdao/internal/conv"
)

// undefined is the value of a name or path with no binding.
type undefined struct{ path string }

// joined is the result of join(list, sep): in ${...} it expands to one
// placeholder per element.
type joined struct {
	elems []any
	sep   string
}

// fragment is the rendered body of a block assign.
type fragment struct {
	SQL  string
	Args []any
}

func (f fragment) String() string { return f.SQL }

// scope holds the variables of one list iteration, or the root assigns.
type scope struct {
	vars     map[string]any
	parent   *scope
	bindings map[string]any
}

func newScope(bindings map[string]any) *scope {
	return &scope{vars: make(map[string]any), bindings: bindings}
}

func (s *scope) child() *scope {
	return &scope{vars: make(map[string]any, 3), parent: s, bindings: s.bindings}
}

func (s *scope) root() *scope {
	for s.parent != nil {
		s = s.parent
	}
	return s
}

func (s *scope) lookup(name string) any {
	for c := s; c != nil; c = c.parent {
		if v, ok := c.vars[name]; ok {
			return v
		}
	}
	if v, ok := s.bindings[name]; ok {
		return v
	}
	return undefined{path: name}
}

// field resolves name on a map or struct value, dereferencing pointers and
// interfaces. Struct fields match exactly first, then case-insensitively.
func field(v any, path, name string) any {
	if _, ok := v.(undefined); ok || v == nil {
		return undefined{path: path}
	}
	rv := indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		mv := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !mv.IsValid() {
			break
		}
		return mv.Interface()
	case reflect.Struct:
		f := rv.FieldByName(name)
		if !f.IsValid() {
			f = rv.FieldByNameFunc(func(n string) bool { return strings.EqualFold(n, name) })
		}
		if f.IsValid() && f.CanInterface() {
			return f.Interface()
		}
	}
	return undefined{path: path}
}

func indirect(rv reflect.Value) reflect.Value {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

func defined(v any) bool {
	_, ok := v.(undefined)
	return !ok
}

// elements returns the items of a slice or array. A string or []byte is not
// a list.
func elements(v any) ([]any, bool) {
	switch v := v.(type) {
	case []any:
		return v, true
	case string, []byte:
		return nil, false
	}
	rv := indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	}
	return nil, false
}

// size returns the length of a string, list or map.
func size(v any) (int, bool) {
	switch v := v.(type) {
	case string:
		return len(v), true
	case []byte:
		return len(v), true
	case fragment:
		return len(v.SQL), true
	}
	rv := indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return rv.Len(), true
	}
	return 0, false
}

// notBlank is false for undefined, nil, whitespace-only strings and empty
// lists or maps.
func notBlank(v any) bool {
	if !defined(v) || isNil(v) {
		return false
	}
	switch v := v.(type) {
	case string:
		return strings.TrimSpace(v) != ""
	case []byte:
		return strings.TrimSpace(string(v)) != ""
	case fragment:
		return strings.TrimSpace(v.SQL) != ""
	}
	if n, ok := size(v); ok {
		return n > 0
	}
	return true
}

func hasContent(v any) bool {
	if !defined(v) || isNil(v) {
		return false
	}
	if n, ok := size(v); ok {
		return n > 0
	}
	return true
}

func text(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case decimal.Decimal:
		return v.String()
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(v)
}

// compare orders two values: numbers as decimals, strings lexically and
// bools for equality only.
func compare(op string, l, r any) (bool, error) {
	if conv.IsNumber(l) && conv.IsNumber(r) {
		a, _ := conv.Decimal(l)
		b, _ := conv.Decimal(r)
		return ordered(op, a.Cmp(b)), nil
	}
	if op == "==" || op == "!=" {
		eq := equal(l, r)
		if op == "!=" {
			eq = !eq
		}
		return eq, nil
	}
	ls, lok := stringValue(l)
	rs, rok := stringValue(r)
	if lok && rok {
		return ordered(op, strings.Compare(ls, rs)), nil
	}
	return false, fmt.Errorf("cannot compare %T %s %T", l, op, r)
}

func equal(l, r any) bool {
	if isNil(l) || isNil(r) {
		return isNil(l) && isNil(r)
	}
	if conv.IsNumber(l) != conv.IsNumber(r) {
		return false
	}
	ls, lok := stringValue(l)
	rs, rok := stringValue(r)
	if lok && rok {
		return ls == rs
	}
	lb, lok := l.(bool)
	rb, rok := r.(bool)
	if lok && rok {
		return lb == rb
	}
	return reflect.DeepEqual(l, r)
}

func stringValue(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case fragment:
		return v.SQL, true
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

func ordered(op string, c int) bool {
	switch op {
	case "==":
		return c == 0
	case "!=":
		return c != 0
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	default:
		return c >= 0
	}
}

// arith applies + - * on decimals. + concatenates when either side is not a
// number.
func arith(op string, l, r any) (any, error) {
	if conv.IsNumber(l) && conv.IsNumber(r) {
		a, _ := conv.Decimal(l)
		b, _ := conv.Decimal(r)
		switch op {
		case "+":
			return a.Add(b), nil
		case "-":
			return a.Sub(b), nil
		default:
			return a.Mul(b), nil
		}
	}
	if op == "+" {
		return text(l) + text(r), nil
	}
	return nil, fmt.Errorf("cannot apply %s to %T and %T", op, l, r)
}
