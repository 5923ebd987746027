package template

import (
	"fmt"
	"regexp"
	"strings"
)

type (
	node interface{ pos() (int, int) }

	at struct{ line, col int }

	textNode struct {
		at
		text string
	}
	// exprNode is ${expr}, or @{expr} when raw is set.
	exprNode struct {
		at
		x   expr
		raw bool
	}
	ifNode struct {
		at
		conds  []expr
		bodies [][]node
		els    []node
	}
	listNode struct {
		at
		list expr
		name string
		body []node
	}
	// assignNode binds x, or the rendered body when x is nil.
	assignNode struct {
		at
		name string
		x    expr
		body []node
	}
)

func (a at) pos() (int, int) { return a.line, a.col }

func atItem(it item) at { return at{line: it.line, col: it.col} }

var (
	listRe   = regexp.MustCompile(`^(.+)\s+as\s+([A-Za-z_]\w*)$`)
	assignRe = regexp.MustCompile(`^([A-Za-z_]\w*)\s*=\s*(.+)$`)
	nameRe   = regexp.MustCompile(`^[A-Za-z_]\w*$`)
)

type parser struct {
	items []item
	pos   int
}

// parse builds the node tree of one segment.
func parse(items []item) ([]node, error) {
	p := &parser{items: items}
	nodes, end, err := p.nodes()
	if err != nil {
		return nil, err
	}
	if end != nil {
		return nil, errorf(end.line, end.col, "unexpected %s", end.kind)
	}
	return nodes, nil
}

// nodes parses until a closing or continuation directive, which is returned
// unconsumed by the caller's point of view (nil at end of input).
func (p *parser) nodes() ([]node, *item, error) {
	var out []node
	for p.pos < len(p.items) {
		it := p.items[p.pos]
		p.pos++
		switch it.kind {
		case itemText:
			out = append(out, &textNode{at: atItem(it), text: it.val})
		case itemInterp, itemRaw:
			x, err := compileExpr(it)
			if err != nil {
				return nil, nil, err
			}
			out = append(out, &exprNode{at: atItem(it), x: x, raw: it.kind == itemRaw})
		case itemIf:
			n, err := p.ifBlock(it)
			if err != nil {
				return nil, nil, err
			}
			out = append(out, n)
		case itemList:
			n, err := p.listBlock(it)
			if err != nil {
				return nil, nil, err
			}
			out = append(out, n)
		case itemAssign:
			n, err := p.assign(it)
			if err != nil {
				return nil, nil, err
			}
			out = append(out, n)
		default:
			return out, &it, nil
		}
	}
	return out, nil, nil
}

func compileExpr(it item) (expr, error) {
	x, err := parseExpr(it.val)
	if err != nil {
		return nil, errorf(it.line, it.col, "%s: %v", it.kind, err)
	}
	return x, nil
}

func (p *parser) ifBlock(open item) (node, error) {
	n := &ifNode{at: atItem(open)}
	cond := open
	for {
		x, err := compileExpr(cond)
		if err != nil {
			return nil, err
		}
		body, end, err := p.nodes()
		if err != nil {
			return nil, err
		}
		n.conds = append(n.conds, x)
		n.bodies = append(n.bodies, body)
		if end == nil {
			return nil, errorf(open.line, open.col, "unclosed <#if>")
		}
		switch end.kind {
		case itemElseIf:
			cond = *end
			continue
		case itemElse:
			els, end2, err := p.nodes()
			if err != nil {
				return nil, err
			}
			if end2 == nil {
				return nil, errorf(open.line, open.col, "unclosed <#if>")
			}
			if end2.kind != itemEndIf {
				return nil, errorf(end2.line, end2.col, "unexpected %s after <#else>", end2.kind)
			}
			n.els = els
			return n, nil
		case itemEndIf:
			return n, nil
		default:
			return nil, errorf(end.line, end.col, "unexpected %s inside <#if>", end.kind)
		}
	}
}

func (p *parser) listBlock(open item) (node, error) {
	m := listRe.FindStringSubmatch(open.val)
	if m == nil {
		return nil, errorf(open.line, open.col, `<#list> expects "<list> as <name>", got %q`, open.val)
	}
	x, err := parseExpr(strings.TrimSpace(m[1]))
	if err != nil {
		return nil, errorf(open.line, open.col, "<#list>: %v", err)
	}
	body, end, err := p.nodes()
	if err != nil {
		return nil, err
	}
	if end == nil {
		return nil, errorf(open.line, open.col, "unclosed <#list>")
	}
	if end.kind != itemEndList {
		return nil, errorf(end.line, end.col, "unexpected %s inside <#list>", end.kind)
	}
	return &listNode{at: atItem(open), list: x, name: m[2], body: body}, nil
}

func (p *parser) assign(open item) (node, error) {
	if nameRe.MatchString(open.val) {
		body, end, err := p.nodes()
		if err != nil {
			return nil, err
		}
		if end == nil {
			return nil, errorf(open.line, open.col, "unclosed <#assign %s>", open.val)
		}
		if end.kind != itemEndAssign {
			return nil, errorf(end.line, end.col, "unexpected %s inside <#assign>", end.kind)
		}
		return &assignNode{at: atItem(open), name: open.val, body: body}, nil
	}
	m := assignRe.FindStringSubmatch(open.val)
	if m == nil {
		return nil, errorf(open.line, open.col, `<#assign> expects "<name>=<expr>" or "<name>", got %q`, open.val)
	}
	x, err := parseExpr(m[2])
	if err != nil {
		return nil, errorf(open.line, open.col, "<#assign>: %v", err)
	}
	return &assignNode{at: atItem(open), name: m[1], x: x}, nil
}

// dump renders a node tree for tests and debugging.
func dump(nodes []node) string {
	var b strings.Builder
	for _, n := range nodes {
		switch n := n.(type) {
		case *textNode:
			fmt.Fprintf(&b, "%q", n.text)
		case *exprNode:
			fmt.Fprintf(&b, "${%s}", n.x)
		case *ifNode:
			for i, c := range n.conds {
				fmt.Fprintf(&b, "[if %s: %s]", c, dump(n.bodies[i]))
			}
			if n.els != nil {
				fmt.Fprintf(&b, "[else: %s]", dump(n.els))
			}
		case *listNode:
			fmt.Fprintf(&b, "[list %s as %s: %s]", n.list, n.name, dump(n.body))
		case *assignNode:
			if n.x != nil {
				fmt.Fprintf(&b, "[assign %s=%s]", n.name, n.x)
			} else {
				fmt.Fprintf(&b, "[assign %s: %s]", n.name, dump(n.body))
			}
		}
	}
	return b.String()
}
