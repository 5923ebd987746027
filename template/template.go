// Package template compiles SQL templates with conditionals, loops and
// interpolations into parameterized statements.
//
// A template is plain SQL plus directives:
//
//	select * from user where 1=1
//	<#if notBlank(name)>
//	  and name like ${'%' + name + '%'}
//	</#if>
//	<#if ids??>
//	  and id in (${join(ids, ',')})
//	</#if>
//	order by id limit ${size}
//
// Every ${...} becomes one "?" and one bound argument, except join, which
// expands to one "?" per element. @{...} is inserted verbatim. Lines starting
// with "//" are comments, and a "--union--" line starts a further statement
// compiled from the same bindings.
package template

import (
	"errors"
	"strings"

	"github.com/syssam/lightdao"
)

// Statement is one compiled SQL statement and its arguments in placeholder
// order.
type Statement struct {
	SQL  string
	Args []any
}

// Result is a compiled template: the primary statement and the statements
// of any union segments.
type Result struct {
	Primary Statement
	Unions  []Statement
}

// Statements returns the primary statement followed by the unions.
func (r *Result) Statements() []Statement {
	return append([]Statement{r.Primary}, r.Unions...)
}

// Template is a parsed template. It is immutable and safe for concurrent
// use.
type Template struct {
	name     string
	segments [][]node
}

// Parse parses text. The name is used in error messages only.
func Parse(name, text string) (*Template, error) {
	t := &Template{name: name}
	for _, src := range split(text) {
		if len(src.lines) == 0 {
			continue
		}
		items, err := lex(src)
		if err != nil {
			return nil, t.wrap(err)
		}
		nodes, err := parse(items)
		if err != nil {
			return nil, t.wrap(err)
		}
		t.segments = append(t.segments, nodes)
	}
	if len(t.segments) == 0 {
		return nil, &lightdao.TemplateError{Template: name, Msg: "empty template"}
	}
	return t, nil
}

// MustParse is like Parse but panics on error.
func MustParse(name, text string) *Template {
	t, err := Parse(name, text)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the template name.
func (t *Template) Name() string {
	return t.name
}

// Execute compiles every segment against bindings. Bindings are never
// modified; assigns live in a per-segment scope.
func (t *Template) Execute(bindings map[string]any) (*Result, error) {
	stmts := make([]Statement, 0, len(t.segments))
	for _, seg := range t.segments {
		var w writer
		if err := render(seg, newScope(bindings), &w); err != nil {
			return nil, t.wrap(err)
		}
		stmts = append(stmts, Statement{SQL: strings.TrimSpace(w.b.String()), Args: w.args})
	}
	return &Result{Primary: stmts[0], Unions: stmts[1:]}, nil
}

// Compile parses and executes text in one step.
func Compile(name, text string, bindings map[string]any) (*Result, error) {
	t, err := Parse(name, text)
	if err != nil {
		return nil, err
	}
	return t.Execute(bindings)
}

func (t *Template) wrap(err error) error {
	var (
		le *lexError
		ee *evalError
	)
	switch {
	case errors.As(err, &le):
		return &lightdao.TemplateError{Template: t.name, Line: le.line, Col: le.col, Msg: le.msg}
	case errors.As(err, &ee):
		return &lightdao.TemplateError{Template: t.name, Line: ee.line, Col: ee.col, Msg: "cannot execute", Err: ee.err}
	}
	return &lightdao.TemplateError{Template: t.name, Msg: "cannot execute", Err: err}
}
