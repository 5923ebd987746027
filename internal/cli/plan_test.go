package cli

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestPlan(t *testing.T) {
	stdout, _, code := run(t, "plan", "User", "findByNameLike", "--args", `["bo"]`)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "strategy: findBy\n")
	assert.Contains(t, stdout, "sql:      select * from `user` where `name` like ?\n")
	assert.Contains(t, stdout, "args:     [%bo%]\n")
}

func TestPlanJSON(t *testing.T) {
	stdout, _, code := run(t, "--format", "json", "plan", "User", "getCountByStatus", "--args", "[1]")
	require.Equal(t, ExitSuccess, code)
	r := decode(t, stdout)
	assert.Equal(t, "ok", r.Status)
	data, ok := r.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "countBy", data["strategy"])
	assert.Equal(t, "select count(*) from `user` where `status`= ?", data["sql"])
	assert.Equal(t, []any{float64(1)}, data["args"])
	assert.Equal(t, "UserDao.getCountByStatus(int)", data["method"])
}

func TestPlanPage(t *testing.T) {
	stdout, _, code := run(t, "--format", "json", "plan", "User", "findByStatus", "--args", "[1]", "--page", "20,10")
	require.Equal(t, ExitSuccess, code)
	data := decode(t, stdout).Data.(map[string]any)
	assert.Equal(t, "select * from `user` where `status`= ? limit 20,10", data["sql"])
	assert.Equal(t, "select count(*) from (select * from `user` where `status`= ?) t_count", data["count_sql"])
}

func TestPlanConfiguredEntity(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "lightdao.yaml", `
dialect: postgres
entities:
  - name: User
    table: t_user
    fields:
      - name: UserName
        column: login
`)
	stdout, _, code := run(t, "--config", path, "--format", "json", "plan", "User", "findByUserName", "--args", "[bob]")
	require.Equal(t, ExitSuccess, code)
	data := decode(t, stdout).Data.(map[string]any)
	assert.Equal(t, `select * from "t_user" where "login"= ?`, data["sql"])
	assert.Equal(t, "t_user", data["table"])
}

func TestPlanErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"UnknownMethod", []string{"plan", "User", "frobnicate"}, ExitFailure},
		{"MissingArgs", []string{"plan", "User", "findById"}, ExitFailure},
		{"BadArgs", []string{"plan", "User", "findById", "--args", "{"}, ExitCommandError},
		{"BadReturn", []string{"plan", "User", "findById", "--args", "[1]", "--return", "many"}, ExitCommandError},
		{"BadPage", []string{"plan", "User", "findById", "--args", "[1]", "--page", "x"}, ExitCommandError},
		{"ArgCount", []string{"plan", "User"}, ExitCommandError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, code := run(t, tt.args...)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestPlanErrorJSON(t *testing.T) {
	stdout, _, code := run(t, "--format", "json", "plan", "User", "frobnicate")
	assert.Equal(t, ExitFailure, code)
	r := decode(t, stdout)
	assert.Equal(t, "error", r.Status)
	require.NotNil(t, r.Error)
	assert.Contains(t, r.Error.Message, "frobnicate")
}

func TestPlanExec(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.ExecContext(context.Background(), "create table t_user (id integer primary key, login text, status integer)")
	require.NoError(t, err)
	_, err = db.ExecContext(context.Background(), "insert into t_user (id, login, status) values (1, 'bob', 1), (2, 'amy', 1), (3, 'eve', 0)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	path := writeFile(t, dir, "lightdao.yaml", `
dialect: sqlite
dsn: `+dbPath+`
cache:
  enabled: true
entities:
  - name: User
    table: t_user
    fields:
      - name: UserName
        column: login
`)
	stdout, _, code := run(t, "--config", path, "--format", "json", "plan", "User", "findByUserName", "--args", "[bob]", "--exec")
	require.Equal(t, ExitSuccess, code, stdout)
	data := decode(t, stdout).Data.(map[string]any)
	rows, ok := data["result"].([]any)
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.Equal(t, "bob", rows[0].(map[string]any)["login"])

	stdout, _, code = run(t, "--config", path, "--format", "json", "plan", "User", "findByStatusOrderById", "--args", "[1]", "--page", "1,5", "--exec")
	require.Equal(t, ExitSuccess, code, stdout)
	page := decode(t, stdout).Data.(map[string]any)["result"].(map[string]any)
	assert.Equal(t, float64(2), page["total"])
	rows = page["rows"].([]any)
	require.Len(t, rows, 1)
	assert.Equal(t, "amy", rows[0].(map[string]any)["login"])

	stdout, _, code = run(t, "--config", path, "plan", "User", "getCountByStatus", "--args", "[1]", "--exec")
	require.Equal(t, ExitSuccess, code, stdout)
	assert.Contains(t, stdout, "\n2\n")
}
