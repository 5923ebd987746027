package schema

import (
	"strings"
	"unicode/utf8"

	"github.com/syssam/lightdao/schema/field"
)

// Entity describes the table a DAO operates on.
type Entity struct {
	Name       string // Go type name, e.g. "User"
	Table      string
	PrimaryKey string // column name, defaults to "id"
	Fields     []field.Meta
}

// Fields converts descriptors into the Meta slice held by Entity.
func Fields(ds ...field.Descriptor) []field.Meta {
	out := make([]field.Meta, len(ds))
	for i, d := range ds {
		out[i] = d
	}
	return out
}

// PK returns the primary key column.
func (e *Entity) PK() string {
	if e == nil || e.PrimaryKey == "" {
		return "id"
	}
	return e.PrimaryKey
}

// Lookup finds a field by name token. Method-name tokens are PascalCase
// while field names may start lowercase, so the first rune is compared
// without case and the remainder exactly.
func (e *Entity) Lookup(token string) (field.Meta, bool) {
	if e == nil || token == "" {
		return nil, false
	}
	for _, f := range e.Fields {
		if sameName(f.Name(), token) {
			return f, true
		}
	}
	return nil, false
}

func sameName(name, token string) bool {
	if name == token {
		return true
	}
	nr, nsize := utf8.DecodeRuneInString(name)
	tr, tsize := utf8.DecodeRuneInString(token)
	if nr == utf8.RuneError || tr == utf8.RuneError {
		return false
	}
	return strings.EqualFold(string(nr), string(tr)) && name[nsize:] == token[tsize:]
}
