package field

import (
	"reflect"
	"strings"
)

// TagName is the struct tag consulted by FromStruct.
const TagName = "db"

// Meta is the capability interface the compiler uses to resolve columns.
type Meta interface {
	// Name returns the Go field name, e.g. "UserName".
	Name() string
	// HasColumnOverride reports whether the column name is set explicitly.
	HasColumnOverride() bool
	// ColumnOverride returns the explicit column name.
	ColumnOverride() string
}

// Descriptor is a plain Meta implementation.
type Descriptor struct {
	FieldName string
	Column    string // empty when the default naming rule applies
}

// Name implements Meta.
func (d Descriptor) Name() string { return d.FieldName }

// HasColumnOverride implements Meta.
func (d Descriptor) HasColumnOverride() bool { return d.Column != "" }

// ColumnOverride implements Meta.
func (d Descriptor) ColumnOverride() string { return d.Column }

// New returns a descriptor without a column override.
func New(name string) Descriptor {
	return Descriptor{FieldName: name}
}

// WithColumn returns a descriptor with an explicit column.
func WithColumn(name, column string) Descriptor {
	return Descriptor{FieldName: name, Column: column}
}

// FromStruct derives descriptors from the exported fields of a struct value
// or struct type. Embedded structs are flattened. A `db:"-"` tag skips the
// field, and `db:"name"` (options after a comma are ignored) overrides the
// column.
func FromStruct(v any) []Descriptor {
	var t reflect.Type
	switch v := v.(type) {
	case reflect.Type:
		t = v
	default:
		t = reflect.TypeOf(v)
	}
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	return fromType(t)
}

func fromType(t reflect.Type) []Descriptor {
	var out []Descriptor
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get(TagName)
		if tag == "-" {
			continue
		}
		if f.Anonymous && tag == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				out = append(out, fromType(ft)...)
				continue
			}
		}
		col, _, _ := strings.Cut(tag, ",")
		out = append(out, Descriptor{FieldName: f.Name, Column: col})
	}
	return out
}

var _ Meta = Descriptor{}
