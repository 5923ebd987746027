package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/lightdao/schema/field"
)

func TestEntityPK(t *testing.T) {
	var nilEntity *Entity
	assert.Equal(t, "id", nilEntity.PK())
	assert.Equal(t, "id", (&Entity{}).PK())
	assert.Equal(t, "user_id", (&Entity{PrimaryKey: "user_id"}).PK())
}

func TestEntityLookup(t *testing.T) {
	e := &Entity{Fields: Fields(
		field.New("createTime"),
		field.WithColumn("UserName", "login"),
	)}

	f, ok := e.Lookup("CreateTime")
	require.True(t, ok)
	assert.Equal(t, "createTime", f.Name())

	f, ok = e.Lookup("userName")
	require.True(t, ok)
	assert.Equal(t, "login", f.ColumnOverride())

	_, ok = e.Lookup("Username")
	assert.False(t, ok, "only the first rune is compared without case")
	_, ok = e.Lookup("")
	assert.False(t, ok)

	var nilEntity *Entity
	_, ok = nilEntity.Lookup("Id")
	assert.False(t, ok)
}

func TestMethodSignature(t *testing.T) {
	m := &Method{DAO: "UserDao", Name: "findByNameAndAge", Params: Types("bob", 3)}
	assert.Equal(t, "UserDao.findByNameAndAge(string,int)", m.Signature())

	m = &Method{Name: "findAll", Params: Types(nil)}
	assert.Equal(t, "findAll(any)", m.Signature())

	var nilMethod *Method
	assert.Equal(t, "<nil>", nilMethod.Signature())
}

func TestReturnKind(t *testing.T) {
	for _, k := range []ReturnKind{ReturnList, ReturnOne, ReturnScalar, ReturnScalarList} {
		got, ok := ParseReturnKind(k.String())
		require.True(t, ok, k.String())
		assert.Equal(t, k, got)
	}
	_, ok := ParseReturnKind("many")
	assert.False(t, ok)
	assert.Equal(t, "unknown", ReturnKind(9).String())

	r := Scalar[int64]()
	assert.Equal(t, ReturnScalar, r.Kind)
	assert.Equal(t, "int64", r.Type.String())
	assert.Equal(t, ReturnScalarList, Scalars[string]().Kind)
	assert.Nil(t, List().Type)
	assert.Equal(t, ReturnOne, One().Kind)
}
