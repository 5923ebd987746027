package planner

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/lightdao"
	"github.com/syssam/lightdao/dialect/sql"
	"github.com/syssam/lightdao/schema"
)

func resultSet(cols []string, rows ...[]any) *sql.ResultSet {
	return &sql.ResultSet{Columns: cols, Rows: rows}
}

func TestMapResult(t *testing.T) {
	two := resultSet([]string{"id", "name"}, []any{int64(1), "a"}, []any{int64(2), "b"})
	one := resultSet([]string{"c"}, []any{"42"})
	empty := resultSet([]string{"c"})

	t.Run("list", func(t *testing.T) {
		v, err := MapResult("m", schema.List(), two)
		require.NoError(t, err)
		assert.Equal(t, []map[string]any{{"id": int64(1), "name": "a"}, {"id": int64(2), "name": "b"}}, v)

		v, err = MapResult("m", schema.List(), nil)
		require.NoError(t, err)
		assert.Equal(t, []map[string]any{}, v)
	})
	t.Run("one", func(t *testing.T) {
		v, err := MapResult("m", schema.One(), one)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"c": "42"}, v)

		v, err = MapResult("m", schema.One(), empty)
		require.NoError(t, err)
		assert.Nil(t, v)

		_, err = MapResult("UserDao.findOneByName(string)", schema.One(), two)
		require.Error(t, err)
		assert.True(t, lightdao.IsNotSingular(err))
		assert.Contains(t, err.Error(), "got 2 results")
	})
	t.Run("scalar", func(t *testing.T) {
		v, err := MapResult("m", schema.Scalar[int64](), one)
		require.NoError(t, err)
		assert.Equal(t, int64(42), v)

		v, err = MapResult("m", schema.Scalar[int](), empty)
		require.NoError(t, err)
		assert.Equal(t, 0, v)

		v, err = MapResult("m", schema.Return{Kind: schema.ReturnScalar}, one)
		require.NoError(t, err)
		assert.Equal(t, "42", v)

		_, err = MapResult("m", schema.Scalar[int](), two)
		assert.True(t, lightdao.IsNotSingular(err))
	})
	t.Run("scalars", func(t *testing.T) {
		v, err := MapResult("m", schema.Scalars[string](), two)
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2"}, v)

		v, err = MapResult("m", schema.Return{Kind: schema.ReturnScalarList}, two)
		require.NoError(t, err)
		assert.Equal(t, []any{int64(1), int64(2)}, v)

		v, err = MapResult("m", schema.Scalars[int](), resultSet([]string{"c"}, []any{nil}))
		require.NoError(t, err)
		assert.Equal(t, []int{0}, v)
	})
}

func TestPlanMap(t *testing.T) {
	plan, err := New().Compile(method("getCountByStatus"), 1)
	require.NoError(t, err)
	v, err := plan.Map(resultSet([]string{"count(*)"}, []any{[]byte("7")}))
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)
}

func TestCoerce(t *testing.T) {
	type myInt int32
	tests := []struct {
		name string
		in   any
		typ  reflect.Type
		want any
	}{
		{"nil type", "x", nil, "x"},
		{"nil value", nil, reflect.TypeFor[int64](), int64(0)},
		{"same", int64(3), reflect.TypeFor[int64](), int64(3)},
		{"int to int32", int64(3), reflect.TypeFor[int32](), int32(3)},
		{"named int", int64(3), reflect.TypeFor[myInt](), myInt(3)},
		{"bytes to int", []byte("12"), reflect.TypeFor[int](), 12},
		{"string to uint", "12", reflect.TypeFor[uint8](), uint8(12)},
		{"float to int", 2.9, reflect.TypeFor[int64](), int64(2)},
		{"int to float", int64(2), reflect.TypeFor[float64](), 2.0},
		{"string to float", "1.5", reflect.TypeFor[float32](), float32(1.5)},
		{"decimal to int", decimal.RequireFromString("10.0"), reflect.TypeFor[int64](), int64(10)},
		{"int to decimal", int64(5), reflect.TypeFor[decimal.Decimal](), decimal.NewFromInt(5)},
		{"bytes to string", []byte("ab"), reflect.TypeFor[string](), "ab"},
		{"int to string", int64(9), reflect.TypeFor[string](), "9"},
		{"int to bool", int64(1), reflect.TypeFor[bool](), true},
		{"string to bool", "false", reflect.TypeFor[bool](), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.in, tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Coerce("abc", reflect.TypeFor[int]())
	assert.Error(t, err)
	_, err = Coerce(int64(-1), reflect.TypeFor[uint]())
	assert.Error(t, err)
	_, err = Coerce(struct{}{}, reflect.TypeFor[int]())
	assert.Error(t, err)
}
