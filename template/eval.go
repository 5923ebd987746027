package template

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/syssam/lightdao/internal/conv"
)

// limitTail matches output that ends inside "limit ?" or "limit ?, ?".
var limitTail = regexp.MustCompile(`(?i)\blimit\s+(\?\s*,\s*)?$`)

var errUndefined = errors.New("undefined")

// writer accumulates one statement.
type writer struct {
	b    strings.Builder
	args []any
}

func (w *writer) bind(v any) {
	w.b.WriteByte('?')
	w.args = append(w.args, v)
}

type evalError struct {
	line, col int
	err       error
}

func (e *evalError) Error() string { return e.err.Error() }

func (e *evalError) Unwrap() error { return e.err }

func failAt(n node, err error) error {
	var ee *evalError
	if errors.As(err, &ee) {
		return err
	}
	line, col := n.pos()
	return &evalError{line: line, col: col, err: err}
}

func render(nodes []node, sc *scope, w *writer) error {
	for _, n := range nodes {
		if err := renderNode(n, sc, w); err != nil {
			return failAt(n, err)
		}
	}
	return nil
}

func renderNode(n node, sc *scope, w *writer) error {
	switch n := n.(type) {
	case *textNode:
		w.b.WriteString(n.text)
	case *exprNode:
		v, err := eval(n.x, sc)
		if err != nil {
			return err
		}
		if n.raw {
			return writeRaw(w, v)
		}
		return writeParam(w, v)
	case *ifNode:
		for i, c := range n.conds {
			ok, err := condition(c, sc)
			if err != nil {
				return err
			}
			if ok {
				return render(n.bodies[i], sc, w)
			}
		}
		return render(n.els, sc, w)
	case *listNode:
		v, err := eval(n.list, sc)
		if err != nil {
			return err
		}
		items, ok := elements(v)
		if !ok && !isNil(v) {
			return fmt.Errorf("<#list>: %s is %T, not a list", n.list, v)
		}
		for i, it := range items {
			child := sc.child()
			child.vars[n.name] = it
			child.vars[n.name+"_index"] = int64(i)
			child.vars[n.name+"_has_next"] = i < len(items)-1
			if err := render(n.body, child, w); err != nil {
				return err
			}
		}
	case *assignNode:
		if n.x == nil {
			var fw writer
			if err := render(n.body, sc, &fw); err != nil {
				return err
			}
			sc.root().vars[n.name] = fragment{SQL: fw.b.String(), Args: fw.args}
			return nil
		}
		v, err := eval(n.x, sc)
		if err != nil {
			return err
		}
		sc.root().vars[n.name] = v
	}
	return nil
}

func writeRaw(w *writer, v any) error {
	switch v := v.(type) {
	case fragment:
		w.b.WriteString(v.SQL)
		w.args = append(w.args, v.Args...)
	case joined:
		for i, e := range v.elems {
			if i > 0 {
				w.b.WriteString(v.sep)
			}
			w.b.WriteString(text(e))
		}
	default:
		w.b.WriteString(text(v))
	}
	return nil
}

func writeParam(w *writer, v any) error {
	limit := w.inLimit()
	if j, ok := v.(joined); ok {
		for i, e := range j.elems {
			if i > 0 {
				w.b.WriteString(j.sep)
			}
			p, err := param(e, limit)
			if err != nil {
				return err
			}
			w.bind(p)
		}
		return nil
	}
	if f, ok := v.(fragment); ok {
		v = f.SQL
	}
	p, err := param(v, limit)
	if err != nil {
		return err
	}
	w.bind(p)
	return nil
}

// limitWindow bounds the output suffix inLimit inspects.
const limitWindow = 64

// inLimit reports whether the output so far ends inside a LIMIT clause.
// Only the last limitWindow bytes are matched, widened back to a word start.
func (w *writer) inLimit() bool {
	s := w.b.String()
	i := max(0, len(s)-limitWindow)
	for i > 0 && isWordByte(s[i-1]) {
		i--
	}
	return limitTail.MatchString(s[i:])
}

func isWordByte(c byte) bool {
	return c == '_' || '0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

// param widens v, coercing it to int64 inside a LIMIT clause.
func param(v any, limit bool) (any, error) {
	if limit {
		n, err := conv.Int64(v)
		if err != nil {
			return nil, fmt.Errorf("limit value: %w", err)
		}
		return n, nil
	}
	return conv.Widen(v), nil
}

func condition(x expr, sc *scope) (bool, error) {
	v, err := eval(x, sc)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("condition %s is %T, not bool", x, v)
	}
	return b, nil
}

// eval evaluates x and rejects undefined results.
func eval(x expr, sc *scope) (any, error) {
	v, err := value(x, sc)
	if err != nil {
		return nil, err
	}
	if u, ok := v.(undefined); ok {
		return nil, fmt.Errorf("%w binding %q", errUndefined, u.path)
	}
	return v, nil
}

// value evaluates x, passing undefined through.
func value(x expr, sc *scope) (any, error) {
	switch x := x.(type) {
	case *litExpr:
		return x.val, nil
	case *identExpr:
		return sc.lookup(x.name), nil
	case *fieldExpr:
		v, err := value(x.x, sc)
		if err != nil {
			return nil, err
		}
		return field(v, x.String(), x.name), nil
	case *existsExpr:
		v, err := value(x.x, sc)
		if err != nil {
			return nil, err
		}
		return defined(v) && !isNil(v), nil
	case *callExpr:
		return call(x, sc)
	case *builtinExpr:
		return builtin(x, sc)
	case *unaryExpr:
		v, err := eval(x.x, sc)
		if err != nil {
			return nil, err
		}
		if x.op == "!" {
			b, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("operand of ! is %T, not bool", v)
			}
			return !b, nil
		}
		d, err := conv.Decimal(v)
		if err != nil || !conv.IsNumber(v) {
			return nil, fmt.Errorf("operand of unary - is %T, not a number", v)
		}
		return d.Neg(), nil
	case *binaryExpr:
		return binary(x, sc)
	}
	return nil, fmt.Errorf("unsupported expression %s", x)
}

func binary(x *binaryExpr, sc *scope) (any, error) {
	l, err := eval(x.l, sc)
	if err != nil {
		return nil, err
	}
	switch x.op {
	case "&&", "||":
		lb, ok := l.(bool)
		if !ok {
			return nil, fmt.Errorf("operand of %s is %T, not bool", x.op, l)
		}
		if x.op == "&&" && !lb || x.op == "||" && lb {
			return lb, nil
		}
		r, err := eval(x.r, sc)
		if err != nil {
			return nil, err
		}
		rb, ok := r.(bool)
		if !ok {
			return nil, fmt.Errorf("operand of %s is %T, not bool", x.op, r)
		}
		return rb, nil
	}
	r, err := eval(x.r, sc)
	if err != nil {
		return nil, err
	}
	switch x.op {
	case "+", "-", "*":
		return arith(x.op, l, r)
	default:
		return compare(x.op, l, r)
	}
}

func call(x *callExpr, sc *scope) (any, error) {
	switch x.fn {
	case "notBlank":
		v, err := value(x.args[0], sc)
		if err != nil {
			return nil, err
		}
		return notBlank(v), nil
	case "notNull":
		v, err := value(x.args[0], sc)
		if err != nil {
			return nil, err
		}
		return defined(v) && !isNil(v), nil
	default: // join
		v, err := eval(x.args[0], sc)
		if err != nil {
			return nil, err
		}
		return join(v, x.args[1:], sc)
	}
}

func builtin(x *builtinExpr, sc *scope) (any, error) {
	if x.name == "has_content" {
		v, err := value(x.x, sc)
		if err != nil {
			return nil, err
		}
		return hasContent(v), nil
	}
	v, err := eval(x.x, sc)
	if err != nil {
		return nil, err
	}
	if x.name == "size" {
		n, ok := size(v)
		if !ok {
			return nil, fmt.Errorf("?size of %T", v)
		}
		return int64(n), nil
	}
	return join(v, x.args, sc)
}

func join(v any, args []expr, sc *scope) (any, error) {
	sep := ","
	if len(args) > 0 {
		s, err := eval(args[0], sc)
		if err != nil {
			return nil, err
		}
		sep = text(s)
	}
	if isNil(v) {
		return joined{sep: sep}, nil
	}
	elems, ok := elements(v)
	if !ok {
		return nil, fmt.Errorf("join of %T, not a list", v)
	}
	return joined{elems: elems, sep: sep}, nil
}
