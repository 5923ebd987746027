package schema

import (
	"reflect"
	"strings"
)

// ReturnKind is the declared result shape of a DAO method.
type ReturnKind uint8

const (
	// ReturnList returns every row.
	ReturnList ReturnKind = iota
	// ReturnOne returns the single row, or nil when there is none.
	ReturnOne
	// ReturnScalar returns the first column of the single row.
	ReturnScalar
	// ReturnScalarList returns the first column of every row.
	ReturnScalarList
)

var returnNames = [...]string{
	ReturnList:       "list",
	ReturnOne:        "one",
	ReturnScalar:     "scalar",
	ReturnScalarList: "scalars",
}

// String returns the kind name.
func (k ReturnKind) String() string {
	if int(k) < len(returnNames) {
		return returnNames[k]
	}
	return "unknown"
}

// ParseReturnKind parses the name returned by ReturnKind.String.
func ParseReturnKind(s string) (ReturnKind, bool) {
	for i, n := range returnNames {
		if n == s {
			return ReturnKind(i), true
		}
	}
	return 0, false
}

// Return is the declared return of a DAO method.
type Return struct {
	Kind ReturnKind
	// Type is the element type for scalar shapes. Nil leaves driver values
	// untouched.
	Type reflect.Type
}

// List declares a list of entities or projections.
func List() Return { return Return{Kind: ReturnList} }

// One declares a single entity or projection.
func One() Return { return Return{Kind: ReturnOne} }

// Scalar declares a single value of type T.
func Scalar[T any]() Return {
	return Return{Kind: ReturnScalar, Type: reflect.TypeFor[T]()}
}

// Scalars declares a list of values of type T.
func Scalars[T any]() Return {
	return Return{Kind: ReturnScalarList, Type: reflect.TypeFor[T]()}
}

// Method describes one DAO method.
type Method struct {
	DAO    string // DAO identity, e.g. "UserDao"
	Name   string // method name, e.g. "findByNameLike"
	Entity *Entity
	Return Return
	// Fields is the field-selection metadata used by findAny and
	// projection methods. Entries are field names or raw expressions.
	Fields []string
	// Params are the declared parameter types, used in signatures only.
	Params []reflect.Type
}

// Signature renders "Dao.name(type,...)" for error messages and cache keys.
func (m *Method) Signature() string {
	if m == nil {
		return "<nil>"
	}
	var b strings.Builder
	if m.DAO != "" {
		b.WriteString(m.DAO)
		b.WriteByte('.')
	}
	b.WriteString(m.Name)
	b.WriteByte('(')
	for i, p := range m.Params {
		if i > 0 {
			b.WriteByte(',')
		}
		if p == nil {
			b.WriteString("any")
		} else {
			b.WriteString(p.String())
		}
	}
	b.WriteByte(')')
	return b.String()
}

// Types returns the dynamic types of the given sample values, for use as
// Method.Params.
func Types(samples ...any) []reflect.Type {
	out := make([]reflect.Type, len(samples))
	for i, s := range samples {
		out[i] = reflect.TypeOf(s)
	}
	return out
}
