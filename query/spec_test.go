package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpecPredicates(t *testing.T) {
	tests := []struct {
		name     string
		build    func(*Spec)
		wantSQL  string
		wantArgs []any
	}{
		{"EQ", func(s *Spec) { s.EQ("age", 10) }, "`age`= ?", []any{10}},
		{"NEQ", func(s *Spec) { s.NEQ("age", 10) }, "`age`!= ?", []any{10}},
		{"GT", func(s *Spec) { s.GT("age", 1) }, "`age`> ?", []any{1}},
		{"GTE", func(s *Spec) { s.GTE("age", 1) }, "`age`>= ?", []any{1}},
		{"LT", func(s *Spec) { s.LT("age", 1) }, "`age`< ?", []any{1}},
		{"LTE", func(s *Spec) { s.LTE("age", 1) }, "`age`<= ?", []any{1}},
		{"Like", func(s *Spec) { s.Like("name", "x") }, "`name` like ?", []any{"%x%"}},
		{"NotLike", func(s *Spec) { s.NotLike("name", "x") }, "`name` not like ?", []any{"%x%"}},
		{"In", func(s *Spec) { s.In("id", []any{1, 2}) }, "`id` in(?,?)", []any{1, 2}},
		{"InEmpty", func(s *Spec) { s.In("id", nil) }, "1= 0", nil},
		{"NotIn", func(s *Spec) { s.NotIn("id", []any{3}) }, "`id` not in(?)", []any{3}},
		{"NotInEmpty", func(s *Spec) { s.NotIn("id", nil) }, "1= 1", nil},
		{"IsNull", func(s *Spec) { s.IsNull("deleted") }, "`deleted` is null", nil},
		{"IsNotNull", func(s *Spec) { s.IsNotNull("deleted") }, "`deleted` is not null", nil},
		{"IsEmpty", func(s *Spec) { s.IsEmpty("nick") }, "(`nick` is null or `nick`= '')", nil},
		{"IsNotEmpty", func(s *Spec) { s.IsNotEmpty("nick") }, "(`nick` is not null and `nick`!= '')", nil},
		{"Between", func(s *Spec) { s.Between("age", 1, 9) }, "`age` between ? and ?", []any{1, 9}},
		{"JSONContains", func(s *Spec) { s.JSONContains("tags", []string{"a"}, "") }, "json_contains(`tags`, ?)", []any{`["a"]`}},
		{"JSONContainsRaw", func(s *Spec) { s.JSONContains("tags", `{"k":1}`, "") }, "json_contains(`tags`, ?)", []any{`{"k":1}`}},
		{"JSONContainsPath", func(s *Spec) { s.JSONContains("doc", 7, "$.a") }, "json_contains(`doc`, ?, ?)", []any{"7", "$.a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			tt.build(s)
			sql, args := s.Where()
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestSpecAnd(t *testing.T) {
	s := New()
	f1 := s.Child().EQ("f1", "a")
	f2 := s.Child().EQ("f2", "b")
	s.And(f1, f2)

	sql, args := s.Where()
	assert.Equal(t, "(`f1`= ? and `f2`= ?)", sql)
	assert.Equal(t, []any{"a", "b"}, args)
}

func TestSpecAnd_WithDirectPredicates(t *testing.T) {
	s := New()
	s.EQ("age", 10)
	s.And(s.Child().EQ("f1", "a"), s.Child().EQ("f2", "b"))

	sql, args := s.Where()
	assert.Equal(t, "(`age`= ? and (`f1`= ? and `f2`= ?))", sql)
	assert.Equal(t, []any{10, "a", "b"}, args)
}

func TestSpecAnd_SkipsEmpty(t *testing.T) {
	s := New()
	s.And(s.Child(), nil)
	assert.True(t, s.Empty())

	s.And(s.Child().Between("age", 1, 2), s.Child())
	sql, args := s.Where()
	assert.Equal(t, "(`age` between ? and ?)", sql)
	assert.Equal(t, []any{1, 2}, args)
}

func TestSpecBuild(t *testing.T) {
	s := New()
	s.EQ("status", 1).In("id", []any{7, 9})
	s.GroupBy("status", "type")
	s.OrderBy("create_time", true).OrderBy("id", false)
	s.Limit(5)

	sql, args := s.Build()
	assert.Equal(t, " where (`status`= ? and `id` in(?,?)) group by status,type order by create_time desc,id limit 5", sql)
	assert.Equal(t, []any{1, 7, 9}, args)

	empty := New()
	sql, args = empty.Build()
	assert.Empty(t, sql)
	assert.Empty(t, args)
}

func TestSpecWithQuoter(t *testing.T) {
	s := New(WithQuoter(func(c string) string { return `"` + c + `"` }))
	s.And(s.Child().EQ("a", 1), s.Child().IsNull("b"))
	sql, _ := s.Where()
	assert.Equal(t, `("a"= ? and "b" is null)`, sql)
}

func TestSortSQL(t *testing.T) {
	assert.Equal(t, "", Sort(nil).SQL())
	assert.Equal(t, " order by col1,col2 desc,col3",
		Sort{{Column: "col1"}, {Column: "col2", Desc: true}, {Column: "col3"}}.SQL())
}
