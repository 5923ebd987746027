package template

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Expression AST.
type (
	expr interface{ String() string }

	litExpr struct {
		val any // decimal.Decimal, string, bool or nil
		src string
	}
	identExpr struct{ name string }
	fieldExpr struct {
		x    expr
		name string
	}
	callExpr struct {
		fn   string
		args []expr
	}
	// builtinExpr is a postfix x?name or x?name(args).
	builtinExpr struct {
		x    expr
		name string
		args []expr
	}
	existsExpr struct{ x expr } // x??
	unaryExpr  struct {
		op string
		x  expr
	}
	binaryExpr struct {
		op   string
		l, r expr
	}
)

func (e *litExpr) String() string     { return e.src }
func (e *identExpr) String() string   { return e.name }
func (e *fieldExpr) String() string   { return e.x.String() + "." + e.name }
func (e *existsExpr) String() string  { return e.x.String() + "??" }
func (e *unaryExpr) String() string   { return e.op + e.x.String() }
func (e *binaryExpr) String() string  { return "(" + e.l.String() + " " + e.op + " " + e.r.String() + ")" }
func (e *callExpr) String() string    { return e.fn + "(" + joinExprs(e.args) + ")" }
func (e *builtinExpr) String() string { return e.x.String() + "?" + e.name + "(" + joinExprs(e.args) + ")" }

func joinExprs(es []expr) string {
	s := make([]string, len(es))
	for i, e := range es {
		s[i] = e.String()
	}
	return strings.Join(s, ", ")
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokNumber
	tokString
	tokIdent
	tokOp
)

type token struct {
	kind tokKind
	val  string
	pos  int
}

// Word operators.
var keywords = map[string]string{
	"and": "&&",
	"or":  "||",
	"not": "!",
	"gt":  ">",
	"gte": ">=",
	"lt":  "<",
	"lte": "<=",
	"eq":  "==",
	"ne":  "!=",
}

var symbols = []string{"??", "&&", "||", "==", "!=", "<=", ">=", "(", ")", ",", ".", "?", "!", "<", ">", "+", "-", "*", "="}

func tokenize(s string) ([]token, error) {
	var toks []token
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case r >= '0' && r <= '9':
			j := i
			for j < len(s) && (s[j] >= '0' && s[j] <= '9' || s[j] == '.' && j+1 < len(s) && s[j+1] >= '0' && s[j+1] <= '9') {
				j++
			}
			toks = append(toks, token{kind: tokNumber, val: s[i:j], pos: i})
			i = j
		case r == '\'' || r == '"':
			str, n, err := unquote(s[i:])
			if err != nil {
				return nil, fmt.Errorf("%v at offset %d", err, i)
			}
			toks = append(toks, token{kind: tokString, val: str, pos: i})
			i += n
		case r == '_' || unicode.IsLetter(r):
			j := i
			for j < len(s) {
				r, n := utf8.DecodeRuneInString(s[j:])
				if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
					break
				}
				j += n
			}
			word := s[i:j]
			if op, ok := keywords[word]; ok {
				toks = append(toks, token{kind: tokOp, val: op, pos: i})
			} else {
				toks = append(toks, token{kind: tokIdent, val: word, pos: i})
			}
			i = j
		default:
			op := ""
			for _, sym := range symbols {
				if strings.HasPrefix(s[i:], sym) {
					op = sym
					break
				}
			}
			if op == "" {
				return nil, fmt.Errorf("unexpected %q at offset %d", r, i)
			}
			toks = append(toks, token{kind: tokOp, val: op, pos: i})
			i += len(op)
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(s)}), nil
}

// unquote reads a quoted literal at the start of s and returns its value and
// the number of bytes consumed. Backslash escapes the next byte.
func unquote(s string) (string, int, error) {
	var (
		b     strings.Builder
		quote = s[0]
	)
	for i := 1; i < len(s); i++ {
		switch ch := s[i]; {
		case ch == '\\' && i+1 < len(s):
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(s[i])
			}
		case ch == quote:
			return b.String(), i + 1, nil
		default:
			b.WriteByte(ch)
		}
	}
	return "", 0, fmt.Errorf("unterminated string")
}

type exprParser struct {
	toks []token
	pos  int
}

// parseExpr parses a complete expression.
func parseExpr(s string) (expr, error) {
	toks, err := tokenize(s)
	if err != nil {
		return nil, err
	}
	p := &exprParser{toks: toks}
	e, err := p.or()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %q at offset %d", t.val, t.pos)
	}
	return e, nil
}

func (p *exprParser) peek() token { return p.toks[p.pos] }

func (p *exprParser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *exprParser) accept(ops ...string) (string, bool) {
	t := p.peek()
	if t.kind != tokOp {
		return "", false
	}
	for _, op := range ops {
		if t.val == op {
			p.pos++
			return op, true
		}
	}
	return "", false
}

func (p *exprParser) expect(op string) error {
	if _, ok := p.accept(op); !ok {
		t := p.peek()
		if t.kind == tokEOF {
			return fmt.Errorf("expected %q at end of expression", op)
		}
		return fmt.Errorf("expected %q, found %q at offset %d", op, t.val, t.pos)
	}
	return nil
}

func (p *exprParser) or() (expr, error) {
	l, err := p.and()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.accept("||"); !ok {
			return l, nil
		}
		r, err := p.and()
		if err != nil {
			return nil, err
		}
		l = &binaryExpr{op: "||", l: l, r: r}
	}
}

func (p *exprParser) and() (expr, error) {
	l, err := p.not()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.accept("&&"); !ok {
			return l, nil
		}
		r, err := p.not()
		if err != nil {
			return nil, err
		}
		l = &binaryExpr{op: "&&", l: l, r: r}
	}
}

func (p *exprParser) not() (expr, error) {
	if _, ok := p.accept("!"); ok {
		x, err := p.not()
		if err != nil {
			return nil, err
		}
		return &unaryExpr{op: "!", x: x}, nil
	}
	return p.relation()
}

func (p *exprParser) relation() (expr, error) {
	l, err := p.additive()
	if err != nil {
		return nil, err
	}
	op, ok := p.accept("==", "!=", "<", "<=", ">", ">=", "=")
	if !ok {
		return l, nil
	}
	if op == "=" {
		op = "=="
	}
	r, err := p.additive()
	if err != nil {
		return nil, err
	}
	return &binaryExpr{op: op, l: l, r: r}, nil
}

func (p *exprParser) additive() (expr, error) {
	l, err := p.multiplicative()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.accept("+", "-")
		if !ok {
			return l, nil
		}
		r, err := p.multiplicative()
		if err != nil {
			return nil, err
		}
		l = &binaryExpr{op: op, l: l, r: r}
	}
}

func (p *exprParser) multiplicative() (expr, error) {
	l, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.accept("*"); !ok {
			return l, nil
		}
		r, err := p.unary()
		if err != nil {
			return nil, err
		}
		l = &binaryExpr{op: "*", l: l, r: r}
	}
}

func (p *exprParser) unary() (expr, error) {
	if _, ok := p.accept("-"); ok {
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &unaryExpr{op: "-", x: x}, nil
	}
	return p.postfix()
}

func (p *exprParser) postfix() (expr, error) {
	x, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.peekOp("."):
			p.next()
			t := p.next()
			if t.kind != tokIdent {
				return nil, fmt.Errorf("expected field name after '.' at offset %d", t.pos)
			}
			x = &fieldExpr{x: x, name: t.val}
		case p.peekOp("??"):
			p.next()
			x = &existsExpr{x: x}
		case p.peekOp("?"):
			p.next()
			t := p.next()
			if t.kind != tokIdent {
				return nil, fmt.Errorf("expected built-in after '?' at offset %d", t.pos)
			}
			b := &builtinExpr{x: x, name: t.val}
			if p.peekOp("(") {
				if b.args, err = p.arguments(); err != nil {
					return nil, err
				}
			}
			if err := checkBuiltin(b); err != nil {
				return nil, err
			}
			x = b
		default:
			return x, nil
		}
	}
}

func (p *exprParser) peekOp(op string) bool {
	t := p.peek()
	return t.kind == tokOp && t.val == op
}

func (p *exprParser) arguments() ([]expr, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var args []expr
	if _, ok := p.accept(")"); ok {
		return args, nil
	}
	for {
		a, err := p.or()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if _, ok := p.accept(","); !ok {
			break
		}
	}
	return args, p.expect(")")
}

func (p *exprParser) primary() (expr, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		d, err := decimal.NewFromString(t.val)
		if err != nil {
			return nil, fmt.Errorf("bad number %q at offset %d", t.val, t.pos)
		}
		return &litExpr{val: d, src: t.val}, nil
	case tokString:
		return &litExpr{val: t.val, src: fmt.Sprintf("%q", t.val)}, nil
	case tokIdent:
		switch t.val {
		case "true", "false":
			return &litExpr{val: t.val == "true", src: t.val}, nil
		case "null", "nil":
			return &litExpr{src: t.val}, nil
		}
		if p.peekOp("(") {
			args, err := p.arguments()
			if err != nil {
				return nil, err
			}
			c := &callExpr{fn: t.val, args: args}
			if err := checkCall(c); err != nil {
				return nil, err
			}
			return c, nil
		}
		return &identExpr{name: t.val}, nil
	case tokOp:
		if t.val == "(" {
			e, err := p.or()
			if err != nil {
				return nil, err
			}
			return e, p.expect(")")
		}
		return nil, fmt.Errorf("unexpected %q at offset %d", t.val, t.pos)
	}
	return nil, fmt.Errorf("unexpected end of expression")
}

// Functions and their accepted argument counts.
var (
	functions = map[string][2]int{
		"notBlank": {1, 1},
		"notNull":  {1, 1},
		"join":     {1, 2},
	}
	builtins = map[string][2]int{
		"join":        {0, 1},
		"size":        {0, 0},
		"has_content": {0, 0},
	}
)

func checkCall(c *callExpr) error {
	n, ok := functions[c.fn]
	if !ok {
		return fmt.Errorf("unknown function %s", c.fn)
	}
	if len(c.args) < n[0] || len(c.args) > n[1] {
		return fmt.Errorf("%s takes %s, got %d", c.fn, arity(n), len(c.args))
	}
	return nil
}

func checkBuiltin(b *builtinExpr) error {
	n, ok := builtins[b.name]
	if !ok {
		return fmt.Errorf("unknown built-in ?%s", b.name)
	}
	if len(b.args) < n[0] || len(b.args) > n[1] {
		return fmt.Errorf("?%s takes %s, got %d", b.name, arity(n), len(b.args))
	}
	return nil
}

func arity(n [2]int) string {
	if n[0] == n[1] {
		return fmt.Sprintf("%d argument(s)", n[0])
	}
	return fmt.Sprintf("%d to %d arguments", n[0], n[1])
}
