package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
dialect: mysql
mysql:
  user: app
  password: secret
  addr: db:3306
  database: shop
  params:
    charset: utf8mb4
templates: [templates]
watch: true
slow_threshold: 250ms
log_level: debug
cache:
  enabled: true
  ttl: 1m
entities:
  - name: OrderItem
    fields:
      - name: orderId
        column: order_ref
      - name: quantity
  - name: User
    table: users
    primary_key: uid
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lightdao.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Dialect)
	assert.Equal(t, "mysql", cfg.DriverName())
	assert.Equal(t, []string{filepath.Join(dir, "templates")}, cfg.Templates)
	assert.True(t, cfg.Watch)
	assert.Equal(t, 250*time.Millisecond, cfg.Slow())
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, time.Minute, cfg.CacheTTL())

	dsn, err := cfg.DataSource()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dsn, "app:secret@tcp(db:3306)/shop?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")

	entities := cfg.Schema()
	require.Len(t, entities, 2)
	item := entities["OrderItem"]
	assert.Equal(t, "order_item", item.Table)
	assert.Equal(t, "id", item.PK())
	f, ok := item.Lookup("OrderId")
	require.True(t, ok)
	assert.Equal(t, "order_ref", f.ColumnOverride())
	_, ok = item.Lookup("Quantity")
	assert.True(t, ok)
	assert.Equal(t, "users", entities["User"].Table)
	assert.Equal(t, "uid", entities["User"].PK())
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("dsn: file:test.db\ndialect: sqlite\n"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Dialect)
	assert.False(t, cfg.Watch)
	assert.Equal(t, 100*time.Millisecond, cfg.Slow())
	assert.Equal(t, slog.LevelInfo, cfg.Level())
	assert.False(t, cfg.Cache.Enabled)
	assert.Zero(t, cfg.CacheTTL())
	dsn, err := cfg.DataSource()
	require.NoError(t, err)
	assert.Equal(t, "file:test.db", dsn)

	cfg, err = Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Dialect)
	_, err = cfg.DataSource()
	require.Error(t, err)
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"Dialect", "dialect: oracle\n"},
		{"Duration", "slow_threshold: soon\n"},
		{"UnknownKey", "dialects: mysql\n"},
		{"LogLevel", "log_level: loud\n"},
		{"EntityName", "entities:\n  - name: 1bad\n"},
		{"MySQLDatabase", "mysql:\n  user: app\n"},
		{"YAML", "dialect: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
		})
	}
}
