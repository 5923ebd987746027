package handler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/lightdao"
	"github.com/syssam/lightdao/query"
	"github.com/syssam/lightdao/query/naming"
	"github.com/syssam/lightdao/schema"
	"github.com/syssam/lightdao/schema/field"
)

var user = &schema.Entity{
	Name:  "User",
	Table: "user",
	Fields: schema.Fields(
		field.New("id"),
		field.New("name"),
		field.New("age"),
		field.WithColumn("createTime", "created_at"),
		field.New("tags"),
		field.New("typeEq"),
	),
}

func run(t *testing.T, ch *Chain, tail string, args ...any) (*query.Spec, *Args, error) {
	t.Helper()
	m := &schema.Method{DAO: "UserDao", Name: "findBy" + tail, Entity: user}
	spec := query.New()
	a := NewArgs(m.Signature(), args...)
	err := ch.Run(NewContext(m, spec, a, naming.NewResolver()), tail)
	return spec, a, err
}

func TestSimpleHandlers(t *testing.T) {
	tests := []struct {
		tail     string
		args     []any
		wantSQL  string
		wantArgs []any
	}{
		{"Name", []any{"bob"}, "`name`= ?", []any{"bob"}},
		{"NameEq", []any{"bob"}, "`name`= ?", []any{"bob"}},
		{"TypeEq", []any{3}, "`type_eq`= ?", []any{3}},
		{"CreateTimeGt", []any{1}, "`created_at`> ?", []any{1}},
		{"AgeGte", []any{1}, "`age`>= ?", []any{1}},
		{"AgeLt", []any{1}, "`age`< ?", []any{1}},
		{"AgeLte", []any{1}, "`age`<= ?", []any{1}},
		{"AgeNot", []any{1}, "`age`!= ?", []any{1}},
		{"NameLike", []any{"x"}, "`name` like ?", []any{"%x%"}},
		{"NameNotLike", []any{"x"}, "`name` not like ?", []any{"%x%"}},
		{"NameIsNull", nil, "`name` is null", nil},
		{"NameIsNotNull", nil, "`name` is not null", nil},
		{"NameIsEmpty", nil, "(`name` is null or `name`= '')", nil},
		{"NameIsNotEmpty", nil, "(`name` is not null and `name`!= '')", nil},
		{"AgeBetween", []any{1, 9}, "`age` between ? and ?", []any{1, 9}},
		{"IdIn", []any{[]int64{4, 5}}, "`id` in(?,?)", []any{int64(4), int64(5)}},
		{"IdIn", []any{[2]int{4, 5}}, "`id` in(?,?)", []any{4, 5}},
		{"IdIn", []any{7}, "`id` in(?)", []any{7}},
		{"IdNotIn", []any{[]string{"a"}}, "`id` not in(?)", []any{"a"}},
		{"TagsJsonContains", []any{[]string{"go"}}, "json_contains(`tags`, ?)", []any{`["go"]`}},
		{"TagsJsonContains$", []any{"go", "$.lang"}, "json_contains(`tags`, ?, ?)", []any{`"go"`, "$.lang"}},
		{"TagsJsonContainsAt", []any{"go", "$.lang"}, "json_contains(`tags`, ?, ?)", []any{`"go"`, "$.lang"}},
	}
	for _, tt := range tests {
		t.Run(tt.tail, func(t *testing.T) {
			spec, a, err := run(t, Default(), tt.tail, tt.args...)
			require.NoError(t, err)
			sql, args := spec.Where()
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
			assert.Zero(t, a.Len())
			assert.NoError(t, a.Done())
		})
	}
}

func TestAndGroup(t *testing.T) {
	spec, a, err := run(t, Default(), "NameLikeAndIdIn", "x", []int{1, 2})
	require.NoError(t, err)
	sql, args := spec.Where()
	assert.Equal(t, "(`name` like ? and `id` in(?,?))", sql)
	assert.Equal(t, []any{"%x%", 1, 2}, args)
	assert.Zero(t, a.Len())
}

func TestAndGroup_WithPositional(t *testing.T) {
	spec, a, err := run(t, Default(), "NameAndAgeGtGroupByAgeOrderByCreateTimeDescAndIdLimit10", "bob", 18)
	require.NoError(t, err)
	sql, args := spec.Build()
	assert.Equal(t, " where (`name`= ? and `age`> ?) group by age order by created_at desc,id limit 10", sql)
	assert.Equal(t, []any{"bob", 18}, args)
	assert.Zero(t, a.Len())
}

func TestLimitFromArgument(t *testing.T) {
	spec, a, err := run(t, Default(), "NameOrderByIdAscLimit", "bob", 20)
	require.NoError(t, err)
	sql, args := spec.Build()
	assert.Equal(t, " where `name`= ? order by id limit 20", sql)
	assert.Equal(t, []any{"bob"}, args)
	assert.Zero(t, a.Len())

	_, _, err = run(t, Default(), "NameLimit", "bob", "many")
	require.Error(t, err)
	assert.True(t, lightdao.IsInitializationError(err))
}

func TestArgumentMismatch(t *testing.T) {
	_, _, err := run(t, Default(), "AgeBetween", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, lightdao.ErrArgumentMismatch))
	var am *lightdao.ArgumentMismatchError
	require.True(t, errors.As(err, &am))
	assert.Equal(t, 2, am.Want)
	assert.Equal(t, 1, am.Have)
	assert.Contains(t, err.Error(), "UserDao.findByAgeBetween()")

	_, a, err := run(t, Default(), "Name", "bob", "extra")
	require.NoError(t, err)
	err = a.Done()
	require.Error(t, err)
	assert.True(t, lightdao.IsArgumentMismatch(err))
	assert.Contains(t, err.Error(), "1 argument(s) left unconsumed")
}

func TestJSONContainsPathType(t *testing.T) {
	_, _, err := run(t, Default(), "TagsJsonContainsAt", "go", 3)
	require.Error(t, err)
	assert.True(t, lightdao.IsInitializationError(err))
	assert.Contains(t, err.Error(), "UserDao.findByTagsJsonContainsAt()")
	assert.Contains(t, err.Error(), "json path argument must be a string, got int")
}

func TestEmptyTail(t *testing.T) {
	spec, a, err := run(t, Default(), "")
	require.NoError(t, err)
	assert.True(t, spec.Empty())
	assert.Zero(t, a.Len())
}

func TestPositionalChain(t *testing.T) {
	spec, _, err := run(t, Positional(), "OrderByAgeDesc")
	require.NoError(t, err)
	assert.Equal(t, " order by age desc", spec.Tail())

	_, _, err = run(t, Positional(), "NameOrderByAge")
	require.Error(t, err)
	assert.True(t, errors.Is(err, lightdao.ErrInitialization))
	assert.Contains(t, err.Error(), `"Name"`)

	_, _, err = run(t, Positional(), "OrderBy")
	require.Error(t, err)
	assert.True(t, lightdao.IsInitializationError(err))
}

func TestTokenizerErrorCarriesMethod(t *testing.T) {
	tail := "A"
	for range naming.MaxScan + 1 {
		tail += "XAnd"
	}
	tail += "Y"
	_, _, err := run(t, Default(), tail)
	require.Error(t, err)
	var ie *lightdao.InitializationError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "UserDao.findBy"+tail+"()", ie.Method)
}

func TestChainWith(t *testing.T) {
	var seen []string
	trace := HandlerFunc(func(c *Context, tail string, next Next) error {
		seen = append(seen, tail)
		return next(tail)
	})
	base := NewChain(Limit())
	ch := base.With(trace)
	assert.Equal(t, 1, base.Len())
	assert.Equal(t, 2, ch.Len())

	_, _, err := run(t, ch, "Limit5")
	require.NoError(t, err)
	assert.Equal(t, []string{""}, seen)
}

func TestUnpack(t *testing.T) {
	assert.Nil(t, Unpack(nil))
	assert.Equal(t, []any{1, 2}, Unpack([]any{1, 2}))
	assert.Equal(t, []any{"a", "b"}, Unpack(&[]string{"a", "b"}))
	assert.Equal(t, []any{[]byte("raw")}, Unpack([]byte("raw")))
	assert.Nil(t, Unpack([]int(nil)))
	assert.Equal(t, []any{"x"}, Unpack("x"))
}
