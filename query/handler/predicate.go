package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/syssam/lightdao/query"
	"github.com/syssam/lightdao/query/naming"
)

// And splits the tail on "And" boundaries. With more than one token each
// token is compiled into its own child spec by the simple chain and the
// children are installed as one parenthesized group. A single token is
// forwarded unchanged and an empty tail is claimed as a no-op.
func And(simple *Chain) Handler {
	return HandlerFunc(func(c *Context, tail string, next Next) error {
		if tail == "" {
			return nil
		}
		tokens, err := naming.SplitByAnd(tail)
		if err != nil {
			return c.planError(tail, err)
		}
		if len(tokens) == 1 {
			return next(tail)
		}
		children := make([]*query.Spec, len(tokens))
		for i, tok := range tokens {
			child := c.Spec.Child()
			if err := simple.Run(c.WithSpec(child), tok); err != nil {
				return err
			}
			children[i] = child
		}
		c.Spec.And(children...)
		return nil
	})
}

// simple claims a tail ending with suffix, consumes arity arguments and
// applies one predicate.
type simple struct {
	suffix string
	arity  int
	apply  func(s *query.Spec, col string, args []any) error
}

func (h simple) Handle(c *Context, tail string, next Next) error {
	field, ok := strings.CutSuffix(tail, h.suffix)
	if !ok || field == "" {
		return next(tail)
	}
	args, err := c.Args.Take(h.arity)
	if err != nil {
		return err
	}
	if err := h.apply(c.Spec, c.Column(field), args); err != nil {
		return c.planError(tail, err)
	}
	return nil
}

func unary(suffix string, op func(*query.Spec, string, any) *query.Spec) simple {
	return simple{suffix: suffix, arity: 1, apply: func(s *query.Spec, col string, args []any) error {
		op(s, col, args[0])
		return nil
	}}
}

func nullary(suffix string, op func(*query.Spec, string) *query.Spec) simple {
	return simple{suffix: suffix, apply: func(s *query.Spec, col string, _ []any) error {
		op(s, col)
		return nil
	}}
}

func sequence(suffix string, op func(*query.Spec, string, []any) *query.Spec) simple {
	return simple{suffix: suffix, arity: 1, apply: func(s *query.Spec, col string, args []any) error {
		op(s, col, Unpack(args[0]))
		return nil
	}}
}

func jsonContainsPath(suffix string) simple {
	return simple{suffix: suffix, arity: 2, apply: func(s *query.Spec, col string, args []any) error {
		path, ok := args[1].(string)
		if !ok {
			return fmt.Errorf("%w, got %T", errJSONPath, args[1])
		}
		s.JSONContains(col, args[0], path)
		return nil
	}}
}

// simpleHandlers returns the predicate handlers in precedence order. The
// order avoids suffix collisions ("NotLike" before "Like", "NotIn" before
// "In") and Eq is always last.
func simpleHandlers() []Handler {
	return []Handler{
		jsonContainsPath("JsonContains$"),
		jsonContainsPath("JsonContainsAt"),
		unary("JsonContains", func(s *query.Spec, col string, v any) *query.Spec {
			return s.JSONContains(col, v, "")
		}),
		unary("NotLike", (*query.Spec).NotLike),
		unary("Like", (*query.Spec).Like),
		unary("Not", (*query.Spec).NEQ),
		nullary("IsNull", (*query.Spec).IsNull),
		nullary("IsNotNull", (*query.Spec).IsNotNull),
		nullary("IsEmpty", (*query.Spec).IsEmpty),
		nullary("IsNotEmpty", (*query.Spec).IsNotEmpty),
		simple{suffix: "Between", arity: 2, apply: func(s *query.Spec, col string, args []any) error {
			s.Between(col, args[0], args[1])
			return nil
		}},
		unary("Gte", (*query.Spec).GTE),
		unary("Gt", (*query.Spec).GT),
		unary("Lte", (*query.Spec).LTE),
		unary("Lt", (*query.Spec).LT),
		sequence("NotIn", (*query.Spec).NotIn),
		sequence("In", (*query.Spec).In),
		Eq(),
	}
}

var (
	errNoField  = errors.New("equality predicate names no field")
	errJSONPath = errors.New("json path argument must be a string")
)

// Eq is the terminal handler. It treats the whole tail as a field name,
// dropping an explicit "Eq" suffix unless the entity declares a field with
// the full name, and binds one argument. It never calls next.
func Eq() Handler {
	return HandlerFunc(func(c *Context, tail string, _ Next) error {
		field := tail
		if f, ok := strings.CutSuffix(tail, "Eq"); ok && f != "" && !c.HasField(tail) {
			field = f
		}
		if field == "" {
			return c.planError(tail, errNoField)
		}
		args, err := c.Args.Take(1)
		if err != nil {
			return err
		}
		c.Spec.EQ(c.Column(field), args[0])
		return nil
	})
}
