// Package query accumulates WHERE predicates, GROUP BY, ORDER BY and LIMIT
// for one DAO invocation and renders them as parameterized SQL.
//
//	s := query.New()
//	s.EQ("status", 1).In("id", []any{7, 9})
//	where, args := s.Where() // "(`status`= ? and `id` in(?,?))", [1 7 9]
//
// A Spec is not safe for concurrent use; build a fresh one per invocation.
package query

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Predicate is one WHERE fragment and its bound arguments, in placeholder
// order.
type Predicate struct {
	SQL  string
	Args []any
}

// Quoter quotes a bare column name.
type Quoter func(string) string

// Backtick is the default quoter.
func Backtick(col string) string {
	return "`" + col + "`"
}

// Option configures a Spec.
type Option func(*Spec)

// WithQuoter sets the column quoter. Child specs created with Child inherit
// it.
func WithQuoter(q Quoter) Option {
	return func(s *Spec) {
		if q != nil {
			s.quote = q
		}
	}
}

// Spec is the mutable query-specification accumulator.
type Spec struct {
	preds   []Predicate
	groupBy []string
	sort    Sort
	limit   int
	limited bool
	quote   Quoter
}

// New returns an empty Spec.
func New(opts ...Option) *Spec {
	s := &Spec{quote: Backtick}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Child returns an empty Spec sharing the quoter of s.
func (s *Spec) Child() *Spec {
	return &Spec{quote: s.quote}
}

func (s *Spec) add(sql string, args ...any) *Spec {
	s.preds = append(s.preds, Predicate{SQL: sql, Args: args})
	return s
}

func (s *Spec) col(name string) string {
	return s.quote(name)
}

// EQ appends "col = ?".
func (s *Spec) EQ(col string, v any) *Spec {
	return s.add(s.col(col)+"= ?", v)
}

// NEQ appends "col != ?".
func (s *Spec) NEQ(col string, v any) *Spec {
	return s.add(s.col(col)+"!= ?", v)
}

// GT appends "col > ?".
func (s *Spec) GT(col string, v any) *Spec {
	return s.add(s.col(col)+"> ?", v)
}

// GTE appends "col >= ?".
func (s *Spec) GTE(col string, v any) *Spec {
	return s.add(s.col(col)+">= ?", v)
}

// LT appends "col < ?".
func (s *Spec) LT(col string, v any) *Spec {
	return s.add(s.col(col)+"< ?", v)
}

// LTE appends "col <= ?".
func (s *Spec) LTE(col string, v any) *Spec {
	return s.add(s.col(col)+"<= ?", v)
}

// Like appends "col like ?" and binds "%v%".
func (s *Spec) Like(col string, v any) *Spec {
	return s.add(s.col(col)+" like ?", contains(v))
}

// NotLike appends "col not like ?" and binds "%v%".
func (s *Spec) NotLike(col string, v any) *Spec {
	return s.add(s.col(col)+" not like ?", contains(v))
}

// In appends "col in(?,...)" with one placeholder per value. An empty list
// renders a predicate that is always false.
func (s *Spec) In(col string, vs []any) *Spec {
	if len(vs) == 0 {
		return s.add("1= 0")
	}
	return s.add(s.col(col)+" in("+placeholders(len(vs))+")", vs...)
}

// NotIn appends "col not in(?,...)". An empty list renders a predicate that
// is always true.
func (s *Spec) NotIn(col string, vs []any) *Spec {
	if len(vs) == 0 {
		return s.add("1= 1")
	}
	return s.add(s.col(col)+" not in("+placeholders(len(vs))+")", vs...)
}

// IsNull appends "col is null".
func (s *Spec) IsNull(col string) *Spec {
	return s.add(s.col(col) + " is null")
}

// IsNotNull appends "col is not null".
func (s *Spec) IsNotNull(col string) *Spec {
	return s.add(s.col(col) + " is not null")
}

// IsEmpty matches NULL or the empty string.
func (s *Spec) IsEmpty(col string) *Spec {
	c := s.col(col)
	return s.add("(" + c + " is null or " + c + "= '')")
}

// IsNotEmpty matches values that are neither NULL nor the empty string.
func (s *Spec) IsNotEmpty(col string) *Spec {
	c := s.col(col)
	return s.add("(" + c + " is not null and " + c + "!= '')")
}

// Between appends "col between ? and ?".
func (s *Spec) Between(col string, lo, hi any) *Spec {
	return s.add(s.col(col)+" between ? and ?", lo, hi)
}

// JSONContains appends "json_contains(col, ?)" binding v as a JSON document.
// A non-empty path adds the third JSON_CONTAINS argument.
func (s *Spec) JSONContains(col string, v any, path string) *Spec {
	doc := jsonDoc(v)
	if path == "" {
		return s.add("json_contains("+s.col(col)+", ?)", doc)
	}
	return s.add("json_contains("+s.col(col)+", ?, ?)", doc, path)
}

// And joins the filters of already built specs with " and " inside one
// parenthesis pair and installs the group as a single predicate of s.
// Specs without predicates are skipped.
func (s *Spec) And(specs ...*Spec) *Spec {
	var (
		parts []string
		args  []any
	)
	for _, sub := range specs {
		if sub == nil || len(sub.preds) == 0 {
			continue
		}
		sql, subArgs := sub.Where()
		parts = append(parts, sql)
		args = append(args, subArgs...)
	}
	if len(parts) == 0 {
		return s
	}
	return s.add("("+strings.Join(parts, " and ")+")", args...)
}

// GroupBy sets the GROUP BY column list.
func (s *Spec) GroupBy(cols ...string) *Spec {
	s.groupBy = append(s.groupBy[:0], cols...)
	return s
}

// OrderBy appends a sort entry.
func (s *Spec) OrderBy(col string, desc bool) *Spec {
	s.sort = append(s.sort, Order{Column: col, Desc: desc})
	return s
}

// Limit sets the LIMIT.
func (s *Spec) Limit(n int) *Spec {
	s.limit, s.limited = n, true
	return s
}

// Sort returns the sort entries.
func (s *Spec) Sort() Sort {
	return s.sort
}

// Empty reports whether the spec has no predicates.
func (s *Spec) Empty() bool {
	return len(s.preds) == 0
}

// Where renders the filter expression without the WHERE keyword. A single
// predicate renders as is, several are joined with " and " and wrapped once.
func (s *Spec) Where() (string, []any) {
	switch len(s.preds) {
	case 0:
		return "", nil
	case 1:
		return s.preds[0].SQL, append([]any(nil), s.preds[0].Args...)
	}
	var (
		b    strings.Builder
		args []any
	)
	b.WriteByte('(')
	for i, p := range s.preds {
		if i > 0 {
			b.WriteString(" and ")
		}
		b.WriteString(p.SQL)
		args = append(args, p.Args...)
	}
	b.WriteByte(')')
	return b.String(), args
}

// Tail renders the clauses that follow WHERE: group by, order by and limit,
// each with a leading space.
func (s *Spec) Tail() string {
	var b strings.Builder
	if len(s.groupBy) > 0 {
		b.WriteString(" group by ")
		b.WriteString(strings.Join(s.groupBy, ","))
	}
	b.WriteString(s.sort.SQL())
	if s.limited {
		b.WriteString(" limit ")
		b.WriteString(strconv.Itoa(s.limit))
	}
	return b.String()
}

// Build renders " where <filter>" (empty without predicates) followed by
// Tail, and the arguments.
func (s *Spec) Build() (string, []any) {
	where, args := s.Where()
	if where != "" {
		where = " where " + where
	}
	return where + s.Tail(), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func contains(v any) string {
	return "%" + fmt.Sprint(v) + "%"
}

func jsonDoc(v any) any {
	switch v := v.(type) {
	case string:
		if json.Valid([]byte(v)) {
			return v
		}
	case []byte:
		if json.Valid(v) {
			return string(v)
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
