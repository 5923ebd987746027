// Package dao executes planned DAO methods and registry templates against a
// database driver.
//
//	drv, _ := sql.Open("mysql", dsn)
//	client := dao.NewClient(drv, dao.WithRegistry(reg), dao.WithCache(lightdao.NewMemoryCache(), time.Minute))
//	users, err := client.Invoke(ctx, findByNameLike, "bo")
package dao

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/lightdao"
	"github.com/syssam/lightdao/dialect"
	"github.com/syssam/lightdao/dialect/sql"
	"github.com/syssam/lightdao/query/planner"
	"github.com/syssam/lightdao/schema"
	"github.com/syssam/lightdao/template"
)

// Client runs DAO methods. It is safe for concurrent use.
type Client struct {
	driver   dialect.Driver
	ex       dialect.ExecQuerier
	dialect  sql.Dialect
	planner  *planner.Planner
	registry *template.Registry
	cache    lightdao.Cache
	ttl      time.Duration
	mapper   RowMapper
	logger   *slog.Logger
	// tx is set on clients bound to a transaction.
	tx *txWrites
}

// txWrites records the tables written inside one transaction. Their cached
// results are invalidated once the transaction commits.
type txWrites struct {
	mu     sync.Mutex
	tables map[string]struct{}
}

func (w *txWrites) add(table string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.tables == nil {
		w.tables = make(map[string]struct{})
	}
	w.tables[table] = struct{}{}
}

func (w *txWrites) list() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Sorted(maps.Keys(w.tables))
}

// Option configures a Client.
type Option func(*Client)

// WithDialect overrides the dialect derived from the driver name.
func WithDialect(d sql.Dialect) Option {
	return func(c *Client) {
		c.dialect = d
	}
}

// WithPlanner sets the method-name planner.
func WithPlanner(p *planner.Planner) Option {
	return func(c *Client) {
		c.planner = p
	}
}

// WithRegistry sets the template registry used by Template and
// TemplatePage.
func WithRegistry(r *template.Registry) Option {
	return func(c *Client) {
		c.registry = r
	}
}

// WithCache enables result caching. A zero ttl never expires entries.
func WithCache(cache lightdao.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache, c.ttl = cache, ttl
	}
}

// WithMapper sets the row mapper.
func WithMapper(m RowMapper) Option {
	return func(c *Client) {
		c.mapper = m
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient returns a Client executing on drv.
func NewClient(drv dialect.Driver, opts ...Option) *Client {
	c := &Client{
		driver: drv,
		ex:     drv,
		mapper: DefaultMapper,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dialect == nil {
		d, err := sql.DialectFor(drv.Dialect())
		if err != nil {
			d = sql.MySQL
		}
		c.dialect = d
	}
	if c.planner == nil {
		c.planner = planner.New(planner.WithDialect(c.dialect), planner.WithLogger(c.logger))
	}
	if c.registry == nil {
		c.registry = template.NewRegistry(template.WithRegistryLogger(c.logger))
	}
	return c
}

// Dialect returns the client dialect.
func (c *Client) Dialect() sql.Dialect {
	return c.dialect
}

// Planner returns the client planner.
func (c *Client) Planner() *planner.Planner {
	return c.planner
}

// Registry returns the client template registry.
func (c *Client) Registry() *template.Registry {
	return c.registry
}

// WithTx runs fn with a client bound to a new transaction. The transaction
// commits when fn returns nil and rolls back otherwise. The transaction
// client bypasses the result cache, and the tables it wrote are invalidated
// after the commit.
func (c *Client) WithTx(ctx context.Context, fn func(tx *Client) error) error {
	tx, err := c.driver.Tx(ctx)
	if err != nil {
		return fmt.Errorf("lightdao: starting transaction: %w", err)
	}
	txc := *c
	txc.ex = tx
	txc.tx = &txWrites{}
	defer func() {
		if v := recover(); v != nil {
			_ = tx.Rollback()
			panic(v)
		}
	}()
	if err := fn(&txc); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = errors.Join(err, fmt.Errorf("lightdao: rolling back transaction: %w", rerr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("lightdao: committing transaction: %w", err)
	}
	for _, table := range txc.tx.list() {
		c.invalidate(ctx, table)
	}
	return nil
}

// Page is one page of a paginated query.
type Page struct {
	Total int64 `json:"total"`
	Start int   `json:"start"`
	Size  int   `json:"size"`
	Rows  any   `json:"rows"`
}

// Invoke plans m with args, runs the statement and maps the result to the
// declared return.
func (c *Client) Invoke(ctx context.Context, m *schema.Method, args ...any) (any, error) {
	plan, err := c.planner.Compile(m, args...)
	if err != nil {
		return nil, err
	}
	sig := m.Signature()
	rs, err := c.query(ctx, plan.Table, sig, "select", plan.SQL, plan.Args)
	if err != nil {
		return nil, err
	}
	return c.mapper.MapRows(sig, plan.Return, rs)
}

// Page runs m as a paginated list query and counts the unpaginated result.
// A limit derived from the method name is replaced by the page window.
func (c *Client) Page(ctx context.Context, m *schema.Method, start, size int, args ...any) (*Page, error) {
	plan, err := c.planner.Compile(m, args...)
	if err != nil {
		return nil, err
	}
	sig := m.Signature()
	total, err := c.count(ctx, plan.Table, sig, plan.SQL, plan.Args)
	if err != nil {
		return nil, err
	}
	rs, err := c.query(ctx, plan.Table, sig, "select", c.dialect.Paginate(plan.SQL, start, size), plan.Args)
	if err != nil {
		return nil, err
	}
	rows, err := c.mapper.MapRows(sig, schema.List(), rs)
	if err != nil {
		return nil, err
	}
	return &Page{Total: total, Start: start, Size: size, Rows: rows}, nil
}

func (c *Client) count(ctx context.Context, table, sig, q string, args []any) (int64, error) {
	rs, err := c.query(ctx, table, sig, "count", c.dialect.Count(q), sql.PageArgs(q, args))
	if err != nil {
		return 0, err
	}
	v, err := planner.MapResult(sig, schema.Scalar[int64](), rs)
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// query runs one select, consulting the cache when the table is known.
func (c *Client) query(ctx context.Context, table, sig, op, q string, args []any) (*sql.ResultSet, error) {
	q = c.dialect.Rebind(q)
	start := time.Now()
	log := c.logger.With("method", sig, "invocation", uuid.New().String())

	key, cacheable := c.cacheKey(table, sig, q, args)
	if cacheable {
		rs, ok := c.cached(ctx, log, key)
		if ok {
			log.DebugContext(ctx, "dao cache hit", "sql", q, "args", args, "rows", rs.Len())
			return rs, nil
		}
	}

	rs, err := sql.QueryResultSet(ctx, c.ex, q, args)
	log.DebugContext(ctx, "dao "+op, "sql", q, "args", args, "duration", time.Since(start), "rows", rs.Len(), "error", err)
	if err != nil {
		return nil, lightdao.NewQueryError(sig, op, err)
	}
	if cacheable {
		c.store(ctx, log, key, rs)
	}
	return rs, nil
}
