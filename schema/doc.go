// Package schema holds the metadata the query compiler consumes: entities
// (table, primary key, fields) and DAO method descriptors.
//
// A descriptor stands in for what a DAO interface declaration carries: the
// method name, the declared return shape, the declared parameter types and
// optional field-selection metadata.
//
//	var User = &schema.Entity{
//	    Name:       "User",
//	    Table:      "user",
//	    PrimaryKey: "id",
//	    Fields:     schema.Fields(field.FromStruct(model.User{})...),
//	}
//
//	m := &schema.Method{
//	    DAO:    "UserDao",
//	    Name:   "findByNameLikeAndIdIn",
//	    Entity: User,
//	    Return: schema.List(),
//	    Params: schema.Types("", []int64{}),
//	}
//
// Entities may also be generated ahead of time, see compiler/gen.
package schema
