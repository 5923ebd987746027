package dao

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/lightdao"
	"github.com/syssam/lightdao/dialect/sql"
)

// cachedRows is the msgpack layout of a cached result set.
type cachedRows struct {
	Columns []string `msgpack:"c"`
	Rows    [][]any  `msgpack:"r"`
}

// Digest returns the hex sha256 of the msgpack encoding of a statement and
// its arguments.
func Digest(query string, args []any) (string, error) {
	b, err := msgpack.Marshal([]any{query, args})
	if err != nil {
		return "", fmt.Errorf("lightdao: cache digest: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func (c *Client) cacheKey(table, sig, q string, args []any) (string, bool) {
	if c.cache == nil || table == "" || c.tx != nil {
		return "", false
	}
	digest, err := Digest(q, args)
	if err != nil {
		return "", false
	}
	return lightdao.CacheKey{Table: table, Method: sig, Digest: digest}.String(), true
}

func (c *Client) cached(ctx context.Context, log *slog.Logger, key string) (*sql.ResultSet, bool) {
	b, err := c.cache.Get(ctx, key)
	if err != nil {
		log.WarnContext(ctx, "dao cache get failed", "key", key, "error", err)
		return nil, false
	}
	if b == nil {
		return nil, false
	}
	rs, err := DecodeResultSet(b)
	if err != nil {
		log.WarnContext(ctx, "dao cache entry dropped", "key", key, "error", err)
		_ = c.cache.Delete(ctx, key)
		return nil, false
	}
	return rs, true
}

func (c *Client) store(ctx context.Context, log *slog.Logger, key string, rs *sql.ResultSet) {
	b, err := EncodeResultSet(rs)
	if err == nil {
		err = c.cache.Set(ctx, key, b, c.ttl)
	}
	if err != nil {
		log.WarnContext(ctx, "dao cache set failed", "key", key, "error", err)
	}
}

// invalidate drops every cached result of table.
func (c *Client) invalidate(ctx context.Context, table string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.DeletePrefix(ctx, lightdao.TablePrefix(table)); err != nil {
		c.logger.WarnContext(ctx, "dao cache invalidation failed", "table", table, "error", err)
	}
}

// EncodeResultSet encodes rs with msgpack.
func EncodeResultSet(rs *sql.ResultSet) ([]byte, error) {
	return msgpack.Marshal(cachedRows{Columns: rs.Columns, Rows: rs.Rows})
}

// DecodeResultSet decodes a result set written by EncodeResultSet. Integers
// decode as int64 or uint64 and floats as float64.
func DecodeResultSet(b []byte) (*sql.ResultSet, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.UseLooseInterfaceDecoding(true)
	var cr cachedRows
	if err := dec.Decode(&cr); err != nil {
		return nil, fmt.Errorf("lightdao: decoding cached rows: %w", err)
	}
	return &sql.ResultSet{Columns: cr.Columns, Rows: cr.Rows}, nil
}
