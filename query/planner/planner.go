// Package planner turns declaratively named DAO methods such as
// findByNameLikeAndIdIn into parameterized SELECT statements.
//
// A Planner selects one strategy per method name (first acceptor wins),
// strips the strategy prefix, runs the handler chain on the remaining tail
// with the invocation arguments and renders the statement through a
// Dialect. Strategy selection is cached per method signature; the SQL is
// compiled per invocation since it depends on the arguments.
package planner

import (
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/syssam/lightdao"
	"github.com/syssam/lightdao/dialect/sql"
	"github.com/syssam/lightdao/query"
	"github.com/syssam/lightdao/query/handler"
	"github.com/syssam/lightdao/query/naming"
	"github.com/syssam/lightdao/schema"
)

// Dialect is the subset of sql.Dialect the planner renders through.
type Dialect interface {
	Quote(ident string) string
	SecurityFields(fields ...string) string
	SecurityTableName(table string) string
}

// Planner compiles method-name queries. It is safe for concurrent use.
type Planner struct {
	dialect    Dialect
	resolver   *naming.Resolver
	logger     *slog.Logger
	strategies []*Strategy

	matches sync.Map // signature → matchResult
	group   singleflight.Group
}

// Option configures a Planner.
type Option func(*Planner)

// WithDialect sets the dialect. Default is sql.MySQL.
func WithDialect(d Dialect) Option {
	return func(p *Planner) {
		p.dialect = d
	}
}

// WithResolver shares a column resolver between planners.
func WithResolver(r *naming.Resolver) Option {
	return func(p *Planner) {
		p.resolver = r
	}
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Planner) {
		p.logger = l
	}
}

// New returns a Planner with the default strategies.
func New(opts ...Option) *Planner {
	p := &Planner{
		dialect:    sql.MySQL,
		resolver:   naming.NewResolver(),
		logger:     slog.Default(),
		strategies: Strategies(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan is the compiled statement of one invocation.
type Plan struct {
	Method   *schema.Method
	Strategy string
	Table    string
	SQL      string
	Args     []any
	Return   schema.Return
}

type matchResult struct {
	strategy *Strategy
	match    Match
	err      error
}

var errNoStrategy = errors.New("method name matches no query strategy")

// Strategy returns the name of the strategy accepting m.
func (p *Planner) Strategy(m *schema.Method) (string, error) {
	r := p.match(m)
	if r.err != nil {
		return "", r.err
	}
	return r.strategy.Name, nil
}

func (p *Planner) match(m *schema.Method) matchResult {
	key := m.Signature()
	if v, ok := p.matches.Load(key); ok {
		return v.(matchResult)
	}
	v, _, _ := p.group.Do(key, func() (any, error) {
		if v, ok := p.matches.Load(key); ok {
			return v, nil
		}
		r := matchResult{err: lightdao.NewInitializationError(key, m.Name, errNoStrategy)}
		for _, s := range p.strategies {
			if mt, ok := s.Accept(m.Name); ok {
				r = matchResult{strategy: s, match: mt}
				p.logger.Debug("planned method", "method", key, "strategy", s.Name, "tail", mt.Tail)
				break
			}
		}
		p.matches.Store(key, r)
		return r, nil
	})
	return v.(matchResult)
}

// Compile plans one invocation of m with the given positional arguments.
func (p *Planner) Compile(m *schema.Method, args ...any) (*Plan, error) {
	if m == nil {
		return nil, lightdao.NewInitializationError("", "", errors.New("nil method"))
	}
	r := p.match(m)
	if r.err != nil {
		return nil, r.err
	}
	sig := m.Signature()
	table, err := p.table(m)
	if err != nil {
		return nil, err
	}
	c := handler.NewContext(m, query.New(query.WithQuoter(p.dialect.Quote)), handler.NewArgs(sig, args...), p.resolver)
	sel, err := r.strategy.Build(p, c, r.match)
	if err != nil {
		return nil, err
	}
	if err := c.Args.Done(); err != nil {
		return nil, err
	}
	tail, qargs := c.Spec.Build()
	ret := m.Return
	if r.strategy.Return != nil {
		ret = r.strategy.Return(m)
	}
	return &Plan{
		Method:   m,
		Strategy: r.strategy.Name,
		Table:    table,
		SQL:      "select " + sel + " from " + p.dialect.SecurityTableName(table) + tail,
		Args:     qargs,
		Return:   ret,
	}, nil
}

var errNoEntity = errors.New("method declares no entity table")

func (p *Planner) table(m *schema.Method) (string, error) {
	switch {
	case m.Entity == nil:
		return "", lightdao.NewInitializationError(m.Signature(), "", errNoEntity)
	case m.Entity.Table != "":
		return m.Entity.Table, nil
	case m.Entity.Name != "":
		return naming.Snake(m.Entity.Name), nil
	}
	return "", lightdao.NewInitializationError(m.Signature(), "", errNoEntity)
}

// fields renders a SELECT list. Entity field names resolve to columns;
// anything else is passed to the dialect as an expression.
func (p *Planner) fields(c *handler.Context, names []string) string {
	if len(names) == 0 {
		return "*"
	}
	cols := make([]string, len(names))
	for i, n := range names {
		if c.HasField(n) {
			cols[i] = c.Column(n)
		} else {
			cols[i] = n
		}
	}
	return p.dialect.SecurityFields(cols...)
}
