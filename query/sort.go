package query

import "strings"

// Order is one ORDER BY entry.
type Order struct {
	Column string
	Desc   bool
}

// Sort is an ordered list of sort entries.
type Sort []Order

// SQL renders " order by col1,col2 desc,col3". Ascending entries carry no
// suffix. An empty Sort renders "".
func (s Sort) SQL() string {
	if len(s) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(" order by ")
	for i, o := range s {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(o.Column)
		if o.Desc {
			b.WriteString(" desc")
		}
	}
	return b.String()
}
