package sql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/syssam/lightdao/dialect"
)

// Postgres quotes with double quotes, paginates with "limit n offset m" and
// binds $n placeholders.
var Postgres Dialect = &base{
	name:   dialect.Postgres,
	quote:  pq.QuoteIdentifier,
	limit:  pgLimit,
	rebind: dollarBind,
}

func pgLimit(start, size int) string {
	return fmt.Sprintf(" limit %d offset %d", size, start)
}

// dollarBind rewrites "?" into "$1", "$2"... outside quoted text and
// comments.
func dollarBind(q string) string {
	if !strings.Contains(q, "?") {
		return q
	}
	var (
		b     strings.Builder
		n     int
		quote byte
	)
	b.Grow(len(q) + 8)
	for i := 0; i < len(q); i++ {
		ch := q[i]
		switch {
		case quote == '\n':
			if ch == '\n' {
				quote = 0
			}
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			quote = ch
		case ch == '-' && i+1 < len(q) && q[i+1] == '-':
			quote = '\n'
		case ch == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}
