package dao

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/lightdao"
	"github.com/syssam/lightdao/dialect/sql"
	"github.com/syssam/lightdao/schema"
)

// Save inserts one row and returns the affected row count.
func (c *Client) Save(ctx context.Context, table string, cols ...sql.Column) (int64, error) {
	q, args, err := c.dialect.Save(table, cols)
	if err != nil {
		return 0, lightdao.NewMutationError(table, "save", err)
	}
	return c.exec(ctx, table, "save", q, args)
}

// Update sets every column except pk on the row identified by pk.
func (c *Client) Update(ctx context.Context, table, pk string, cols ...sql.Column) (int64, error) {
	q, args, err := c.dialect.Update(table, pk, cols)
	if err != nil {
		return 0, lightdao.NewMutationError(table, "update", err)
	}
	return c.exec(ctx, table, "update", q, args)
}

// Delete removes the rows matching every column.
func (c *Client) Delete(ctx context.Context, table string, cols ...sql.Column) (int64, error) {
	q, args, err := c.dialect.Delete(table, cols)
	if err != nil {
		return 0, lightdao.NewMutationError(table, "delete", err)
	}
	return c.exec(ctx, table, "delete", q, args)
}

// DeleteByID removes the row whose pk equals id.
func (c *Client) DeleteByID(ctx context.Context, table, pk string, id any) (int64, error) {
	q, args := c.dialect.DeleteByID(table, pk, id)
	return c.exec(ctx, table, "delete", q, args)
}

// FindByID returns the row whose pk equals id, or nil.
func (c *Client) FindByID(ctx context.Context, table, pk string, id any) (map[string]any, error) {
	q, args := c.dialect.FindByID(table, pk, id)
	sig := table + ".findById"
	rs, err := c.query(ctx, table, sig, "select", q, args)
	if err != nil {
		return nil, err
	}
	v, err := c.mapper.MapRows(sig, schema.One(), rs)
	if err != nil || v == nil {
		return nil, err
	}
	row, _ := v.(map[string]any)
	return row, nil
}

// exec runs a write, classifies constraint violations and invalidates the
// cached results of table. Inside a transaction the invalidation waits for
// the commit.
func (c *Client) exec(ctx context.Context, table, op, q string, args []any) (int64, error) {
	q = c.dialect.Rebind(q)
	start := time.Now()
	n, err := sql.ExecAffected(ctx, c.ex, q, args)
	c.logger.DebugContext(ctx, "dao "+op,
		"table", table, "invocation", uuid.New().String(), "sql", q, "args", args,
		"duration", time.Since(start), "affected", n, "error", err)
	if err != nil {
		return 0, lightdao.NewMutationError(table, op, sql.Classify(err))
	}
	switch {
	case table == "":
	case c.tx != nil:
		c.tx.add(table)
	default:
		c.invalidate(ctx, table)
	}
	return n, nil
}
