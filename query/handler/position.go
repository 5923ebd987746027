package handler

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/syssam/lightdao/query/naming"
)

const (
	kwLimit   = "Limit"
	kwOrderBy = "OrderBy"
	kwGroupBy = "GroupBy"
)

var limitN = regexp.MustCompile(`Limit(\d+)$`)

// Limit handles a "LimitN" suffix, or a bare trailing "Limit" that takes
// its value from the last positional argument. It always forwards.
func Limit() Handler {
	return HandlerFunc(func(c *Context, tail string, next Next) error {
		if m := limitN.FindStringSubmatchIndex(tail); m != nil {
			n, err := strconv.Atoi(tail[m[2]:m[3]])
			if err != nil {
				return c.planError(tail[m[0]:], err)
			}
			c.Spec.Limit(n)
			return next(tail[:m[0]])
		}
		rest, ok := strings.CutSuffix(tail, kwLimit)
		if !ok {
			return next(tail)
		}
		v, err := c.Args.Pop()
		if err != nil {
			return err
		}
		n, ok := toInt(v)
		if !ok {
			return c.planError(kwLimit, fmt.Errorf("limit argument of type %T is not an integer", v))
		}
		c.Spec.Limit(n)
		return next(rest)
	})
}

// OrderBy handles an "OrderBy<Field>[Asc|Desc]And..." suffix. It always
// forwards.
func OrderBy() Handler {
	return HandlerFunc(func(c *Context, tail string, next Next) error {
		rest, tokens, err := cutClause(c, tail, kwOrderBy)
		if err != nil || tokens == nil {
			return orForward(err, next, tail)
		}
		for _, tok := range tokens {
			desc := false
			if f, ok := strings.CutSuffix(tok, "Desc"); ok && f != "" {
				tok, desc = f, true
			} else if f, ok := strings.CutSuffix(tok, "Asc"); ok && f != "" {
				tok = f
			}
			c.Spec.OrderBy(c.Column(tok), desc)
		}
		return next(rest)
	})
}

// GroupBy handles a "GroupBy<Field>And..." suffix. It always forwards.
func GroupBy() Handler {
	return HandlerFunc(func(c *Context, tail string, next Next) error {
		rest, tokens, err := cutClause(c, tail, kwGroupBy)
		if err != nil || tokens == nil {
			return orForward(err, next, tail)
		}
		cols := make([]string, len(tokens))
		for i, tok := range tokens {
			cols[i] = c.Column(tok)
		}
		c.Spec.GroupBy(cols...)
		return next(rest)
	})
}

var errEmptyClause = errors.New("clause names no field")

// cutClause splits tail at the last occurrence of kw. It returns nil tokens
// when kw is absent.
func cutClause(c *Context, tail, kw string) (string, []string, error) {
	i := strings.LastIndex(tail, kw)
	if i < 0 {
		return tail, nil, nil
	}
	clause := tail[i+len(kw):]
	if clause == "" {
		return "", nil, c.planError(kw, errEmptyClause)
	}
	tokens, err := naming.SplitByAnd(clause)
	if err != nil {
		return "", nil, c.planError(clause, err)
	}
	return tail[:i], tokens, nil
}

func orForward(err error, next Next, tail string) error {
	if err != nil {
		return err
	}
	return next(tail)
}

func toInt(v any) (int, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(rv.Uint()), true
	case reflect.String:
		n, err := strconv.Atoi(rv.String())
		return n, err == nil
	}
	return 0, false
}
