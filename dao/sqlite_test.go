package dao

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/lightdao"
	"github.com/syssam/lightdao/dialect"
	"github.com/syssam/lightdao/dialect/sql"
	"github.com/syssam/lightdao/schema"
)

const userDDL = `create table user (
	id integer primary key autoincrement,
	name text not null unique,
	age integer,
	status integer
)`

func openSQLite(t *testing.T) *Client {
	t.Helper()
	drv, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	drv.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { drv.Close() })
	require.Equal(t, dialect.SQLite, drv.Dialect())

	ctx := context.Background()
	require.NoError(t, drv.Exec(ctx, userDDL, []any{}, nil))
	client := NewClient(drv, WithLogger(quiet()), WithCache(lightdao.NewMemoryCache(), 0))
	for i, name := range []string{"alice", "bob", "carol"} {
		_, err := client.Save(ctx, "user", sql.C("name", name), sql.C("age", 20+i*5), sql.C("status", 1))
		require.NoError(t, err)
	}
	return client
}

func TestSQLiteInvoke(t *testing.T) {
	client := openSQLite(t)
	ctx := context.Background()

	got, err := client.Invoke(ctx, method("findByNameLikeAndIdInOrderByIdDesc"), "o", []int64{2, 3})
	require.NoError(t, err)
	rows := got.([]map[string]any)
	require.Len(t, rows, 2)
	assert.Equal(t, "carol", rows[0]["name"])
	assert.Equal(t, "bob", rows[1]["name"])

	count, err := client.Invoke(ctx, method("getCountByStatus"), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	sum, err := client.Invoke(ctx, method("getSumOfAgeByStatus"), 1)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(75).Equal(sum.(decimal.Decimal)), "sum is %v", sum)

	one, err := client.Invoke(ctx, method("findNameById"), 2)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "bob"}, one)
}

func TestSQLitePage(t *testing.T) {
	client := openSQLite(t)
	page, err := client.Page(context.Background(), method("findByStatusOrderById"), 1, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	rows := page.Rows.([]map[string]any)
	require.Len(t, rows, 1)
	assert.Equal(t, "bob", rows[0]["name"])
}

func TestSQLiteTemplate(t *testing.T) {
	client := openSQLite(t)
	ctx := context.Background()
	require.NoError(t, client.Registry().Add("UserDao", "search",
		"select name from user where 1=1\n"+
			"<#if notBlank(name)>\n"+
			"  and name = ${name}\n"+
			"</#if>\n"+
			"--union--\n"+
			"select name from user where age > ${minAge} order by id"))

	m := &schema.Method{DAO: "UserDao", Name: "search", Return: schema.Scalars[string]()}
	got, err := client.Template(ctx, m, map[string]any{"name": "alice", "minAge": 26})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "carol"}, got)

	page, err := client.TemplatePage(ctx, m, map[string]any{"minAge": 0}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(6), page.Total)
	assert.Len(t, page.Rows, 2)
}

func TestSQLiteMutations(t *testing.T) {
	client := openSQLite(t)
	ctx := context.Background()

	n, err := client.Update(ctx, "user", "id", sql.C("id", 1), sql.C("name", "alicia"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	row, err := client.FindByID(ctx, "user", "id", 1)
	require.NoError(t, err)
	assert.Equal(t, "alicia", row["name"])

	n, err = client.DeleteByID(ctx, "user", "id", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	count, err := client.Invoke(ctx, method("getCountByStatus"), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	_, err = client.Save(ctx, "user", sql.C("name", "bob"))
	require.Error(t, err)
	assert.True(t, lightdao.IsConstraintError(err))
	assert.True(t, sql.IsUniqueConstraintError(err))
}
