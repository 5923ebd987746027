// Package field describes entity fields as seen by the query compiler.
//
// The compiler needs only three facts about a field: its Go name, whether
// its column name is overridden, and the override itself. Everything else
// about the field is the business of the row mapper.
//
//	type User struct {
//	    ID       int64
//	    UserName string `db:"login"`   // column override
//	    Secret   string `db:"-"`       // not a column
//	    Age      int                   // column "age"
//	}
//
//	fields := field.FromStruct(User{})
//
// Without an override the column is the snake_case form of the field name
// (see query/naming). Descriptors may also be produced ahead of time by
// compiler/gen, which writes them out as a Go table.
package field
