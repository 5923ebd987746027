package naming

import (
	"sync"

	"github.com/go-openapi/inflect"
	"golang.org/x/sync/singleflight"

	"github.com/syssam/lightdao/schema"
)

// Snake converts a camelCase or PascalCase name to snake_case.
func Snake(name string) string {
	return inflect.Underscore(name)
}

// Resolver maps (method, field token) pairs to column names. Resolutions are
// cached for the lifetime of the Resolver; one Resolver is normally shared by
// every planner in the process.
type Resolver struct {
	columns sync.Map
	group   singleflight.Group
}

// NewResolver returns an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Column resolves a field token of method m. An explicit column override on
// the entity field wins; otherwise the snake_case form of the field name (or
// of the token, when the entity does not declare the field) is used.
func (r *Resolver) Column(m *schema.Method, token string) string {
	key := m.Signature() + "#" + token
	if v, ok := r.columns.Load(key); ok {
		return v.(string)
	}
	v, _, _ := r.group.Do(key, func() (any, error) {
		if v, ok := r.columns.Load(key); ok {
			return v, nil
		}
		col := resolve(m, token)
		r.columns.Store(key, col)
		return col, nil
	})
	return v.(string)
}

// HasField reports whether the entity of m declares a field named token.
func (r *Resolver) HasField(m *schema.Method, token string) bool {
	if m == nil {
		return false
	}
	_, ok := m.Entity.Lookup(token)
	return ok
}

func resolve(m *schema.Method, token string) string {
	var e *schema.Entity
	if m != nil {
		e = m.Entity
	}
	if f, ok := e.Lookup(token); ok {
		if f.HasColumnOverride() {
			return f.ColumnOverride()
		}
		return Snake(f.Name())
	}
	return Snake(token)
}
