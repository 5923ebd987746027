package dao

import (
	"context"
	"errors"

	"github.com/syssam/lightdao"
	"github.com/syssam/lightdao/dialect/sql"
	"github.com/syssam/lightdao/schema"
	"github.com/syssam/lightdao/template"
)

var errNoTemplate = errors.New("no template registered")

func (c *Client) compile(m *schema.Method, bindings map[string]any) (*template.Result, error) {
	if m == nil {
		return nil, lightdao.NewInitializationError("", "", errors.New("nil method"))
	}
	t, ok := c.registry.Lookup(m.DAO, m.Name)
	if !ok {
		return nil, lightdao.NewInitializationError(m.Signature(), template.Key(m.DAO, m.Name), errNoTemplate)
	}
	return t.Execute(bindings)
}

func table(m *schema.Method) string {
	if m.Entity == nil {
		return ""
	}
	return m.Entity.Table
}

// Template compiles the registry template of m with bindings, runs the
// primary and union statements in order and maps the concatenated rows.
func (c *Client) Template(ctx context.Context, m *schema.Method, bindings map[string]any) (any, error) {
	res, err := c.compile(m, bindings)
	if err != nil {
		return nil, err
	}
	sig := m.Signature()
	all := &sql.ResultSet{}
	for _, st := range res.Statements() {
		rs, err := c.query(ctx, table(m), sig, "template", st.SQL, st.Args)
		if err != nil {
			return nil, err
		}
		if err := all.Append(rs); err != nil {
			return nil, lightdao.NewQueryError(sig, "template", err)
		}
	}
	return c.mapper.MapRows(sig, m.Return, all)
}

// TemplatePage returns the rows start..start+size of the concatenated
// template statements. Each statement is counted, and only the statements
// overlapping the window are fetched, each with its own limit.
func (c *Client) TemplatePage(ctx context.Context, m *schema.Method, bindings map[string]any, start, size int) (*Page, error) {
	res, err := c.compile(m, bindings)
	if err != nil {
		return nil, err
	}
	var (
		sig   = m.Signature()
		tbl   = table(m)
		all   = &sql.ResultSet{}
		total int64
		skip  = int64(start)
		need  = int64(size)
	)
	for _, st := range res.Statements() {
		n, err := c.count(ctx, tbl, sig, st.SQL, st.Args)
		if err != nil {
			return nil, err
		}
		total += n
		if need <= 0 {
			continue
		}
		if skip >= n {
			skip -= n
			continue
		}
		take := min(need, n-skip)
		rs, err := c.query(ctx, tbl, sig, "template", c.dialect.Paginate(st.SQL, int(skip), int(take)), sql.PageArgs(st.SQL, st.Args))
		if err != nil {
			return nil, err
		}
		if err := all.Append(rs); err != nil {
			return nil, lightdao.NewQueryError(sig, "template", err)
		}
		need -= int64(rs.Len())
		skip = 0
	}
	rows, err := c.mapper.MapRows(sig, schema.List(), all)
	if err != nil {
		return nil, err
	}
	return &Page{Total: total, Start: start, Size: size, Rows: rows}, nil
}

// Exec compiles the registry template of m and executes its statements as
// writes, returning the total affected rows. The cache of the method's
// entity table is invalidated.
func (c *Client) Exec(ctx context.Context, m *schema.Method, bindings map[string]any) (int64, error) {
	res, err := c.compile(m, bindings)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, st := range res.Statements() {
		n, err := c.exec(ctx, table(m), "exec", st.SQL, st.Args)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
