package template

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/lightdao"
)

const usersYAML = `dao: UserDao
methods:
  findActive: |
    select * from user where status = ${status}
  byIds: "select * from user where id in (${join(ids)})"
`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRegistryLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "users.yaml", usersYAML)
	writeFile(t, dir, "orders.yml", "dao: OrderDao\nmethods:\n  count: select count(*) from orders\n")
	writeFile(t, dir, "notes.txt", "ignored")

	r := NewRegistry(WithRegistryLogger(quietLogger()), WithWorkers(2))
	require.NoError(t, r.Load(context.Background(), dir))
	assert.Equal(t, []string{"OrderDao.count", "UserDao.byIds", "UserDao.findActive"}, r.Keys())
	assert.Equal(t, 3, r.Len())

	tmpl, ok := r.Lookup("UserDao", "findActive")
	require.True(t, ok)
	assert.Equal(t, "UserDao.findActive", tmpl.Name())
	res, err := tmpl.Execute(map[string]any{"status": 1})
	require.NoError(t, err)
	assert.Equal(t, "select * from user where status = ?", res.Primary.SQL)

	tmpl, ok = r.Lookup("UserDao", "byIds")
	require.True(t, ok)
	res, err = tmpl.Execute(map[string]any{"ids": []int64{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, "select * from user where id in (?,?)", res.Primary.SQL)

	_, ok = r.Lookup("UserDao", "missing")
	assert.False(t, ok)
}

func TestRegistryLoadFailureIsAtomic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", usersYAML)
	writeFile(t, dir, "b.yaml", "dao: BadDao\nmethods:\n  broken: \"<#if x>\"\n")

	r := NewRegistry(WithRegistryLogger(quietLogger()))
	err := r.Load(context.Background(), dir)
	require.Error(t, err)
	assert.True(t, lightdao.IsTemplateError(err))
	assert.Contains(t, err.Error(), "BadDao.broken")
	assert.Zero(t, r.Len())
}

func TestLoadFileMissingDAO(t *testing.T) {
	path := writeFile(t, t.TempDir(), "x.yaml", "methods:\n  a: select 1\n")
	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing dao")
}

func TestRegistryAdd(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add("UserDao", "all", "select * from user"))
	_, ok := r.Lookup("UserDao", "all")
	assert.True(t, ok)

	err := r.Add("UserDao", "bad", "${")
	require.Error(t, err)
	_, ok = r.Lookup("UserDao", "bad")
	assert.False(t, ok)
}

func TestRegistryReload(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "users.yaml", usersYAML)
	r := NewRegistry(WithRegistryLogger(quietLogger()))
	ctx := context.Background()
	require.NoError(t, r.Load(ctx, dir))

	writeFile(t, dir, "users.yaml", "dao: UserDao\nmethods:\n  findActive: select id from user\n")
	require.NoError(t, r.Reload(ctx, path))
	assert.Equal(t, []string{"UserDao.findActive"}, r.Keys())
	tmpl, _ := r.Lookup("UserDao", "findActive")
	res, err := tmpl.Execute(nil)
	require.NoError(t, err)
	assert.Equal(t, "select id from user", res.Primary.SQL)

	// A broken edit keeps the previous version.
	writeFile(t, dir, "users.yaml", "dao: UserDao\nmethods:\n  findActive: \"<#list x>\"\n")
	require.Error(t, r.Reload(ctx, path))
	tmpl, ok := r.Lookup("UserDao", "findActive")
	require.True(t, ok)
	res, err = tmpl.Execute(nil)
	require.NoError(t, err)
	assert.Equal(t, "select id from user", res.Primary.SQL)
}

func TestRegistryWatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "users.yaml", usersYAML)
	r := NewRegistry(WithRegistryLogger(quietLogger()))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, r.Load(ctx, dir))

	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx) }()

	updated := "dao: UserDao\nmethods:\n  findActive: select name from user\n"
	require.Eventually(t, func() bool {
		if err := os.WriteFile(filepath.Join(dir, "users.yaml"), []byte(updated), 0o644); err != nil {
			return false
		}
		tmpl, ok := r.Lookup("UserDao", "findActive")
		if !ok {
			return false
		}
		res, err := tmpl.Execute(nil)
		return err == nil && res.Primary.SQL == "select name from user"
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
