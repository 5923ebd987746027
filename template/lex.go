package template

import (
	"fmt"
	"strings"
)

// Template text markers.
const (
	CommentPrefix = "//"
	UnionMarker   = "--union--"
)

type itemKind int

const (
	itemText      itemKind = iota
	itemInterp             // ${expr}
	itemRaw                // @{expr}
	itemIf                 // <#if expr>
	itemElseIf             // <#elseif expr>
	itemElse               // <#else>
	itemEndIf              // </#if>
	itemList               // <#list expr as name>
	itemEndList            // </#list>
	itemAssign             // <#assign name=expr> or <#assign name>
	itemEndAssign          // </#assign>
)

var itemNames = map[itemKind]string{
	itemText:      "text",
	itemInterp:    "${...}",
	itemRaw:       "@{...}",
	itemIf:        "<#if>",
	itemElseIf:    "<#elseif>",
	itemElse:      "<#else>",
	itemEndIf:     "</#if>",
	itemList:      "<#list>",
	itemEndList:   "</#list>",
	itemAssign:    "<#assign>",
	itemEndAssign: "</#assign>",
}

func (k itemKind) String() string { return itemNames[k] }

func (k itemKind) directive() bool {
	return k >= itemIf
}

type item struct {
	kind itemKind
	val  string
	line int // 1-based line of the source text
	col  int // 1-based byte column
}

// source is one union segment: its lines with their original line numbers.
type source struct {
	lines []string // each line including its trailing newline, if any
	nums  []int
}

// split drops comment lines and cuts the text at union marker lines.
func split(text string) []source {
	var (
		out = []source{{}}
		cur = &out[0]
	)
	for i, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, CommentPrefix):
			continue
		case strings.EqualFold(trimmed, UnionMarker):
			out = append(out, source{})
			cur = &out[len(out)-1]
			continue
		}
		cur.lines = append(cur.lines, line)
		cur.nums = append(cur.nums, i+1)
	}
	return out
}

// lex tokenizes one segment line by line. Directive tags never span lines.
// A line holding only directives and blanks produces no text, so block
// delimiters on their own lines leave no trace in the output.
func lex(src source) ([]item, error) {
	var items []item
	for i, line := range src.lines {
		body, nl := strings.CutSuffix(line, "\n")
		lineItems, err := lexLine(body, src.nums[i])
		if err != nil {
			return nil, err
		}
		if standalone(lineItems) {
			for _, it := range lineItems {
				if it.kind != itemText {
					items = append(items, it)
				}
			}
			continue
		}
		items = append(items, lineItems...)
		if nl {
			items = append(items, item{kind: itemText, val: "\n", line: src.nums[i], col: len(body) + 1})
		}
	}
	return merge(items), nil
}

func standalone(items []item) bool {
	directives := 0
	for _, it := range items {
		switch {
		case it.kind.directive():
			directives++
		case it.kind == itemText && strings.TrimSpace(it.val) == "":
		default:
			return false
		}
	}
	return directives > 0
}

// merge joins adjacent text items.
func merge(items []item) []item {
	out := items[:0]
	for _, it := range items {
		if n := len(out); n > 0 && it.kind == itemText && out[n-1].kind == itemText {
			out[n-1].val += it.val
			continue
		}
		out = append(out, it)
	}
	return out
}

type lexError struct {
	line, col int
	msg       string
}

func (e *lexError) Error() string { return e.msg }

func errorf(line, col int, format string, args ...any) *lexError {
	return &lexError{line: line, col: col, msg: fmt.Sprintf(format, args...)}
}

var openers = []string{"${", "@{", "<#", "</#"}

func lexLine(s string, line int) ([]item, error) {
	var (
		items []item
		pos   int
	)
	for pos < len(s) {
		start, opener := nextOpener(s, pos)
		if start < 0 {
			items = append(items, item{kind: itemText, val: s[pos:], line: line, col: pos + 1})
			break
		}
		if start > pos {
			items = append(items, item{kind: itemText, val: s[pos:start], line: line, col: pos + 1})
		}
		col := start + 1
		switch opener {
		case "${", "@{":
			end, ok := scanClose(s, start+2, '}')
			if !ok {
				return nil, errorf(line, col, "unterminated %s", opener)
			}
			kind := itemInterp
			if opener == "@{" {
				kind = itemRaw
			}
			expr := strings.TrimSpace(s[start+2 : end])
			if expr == "" {
				return nil, errorf(line, col, "empty %s}", opener)
			}
			items = append(items, item{kind: kind, val: expr, line: line, col: col})
			pos = end + 1
		default:
			it, end, err := lexTag(s, start, opener == "</#", line)
			if err != nil {
				return nil, err
			}
			items = append(items, it)
			pos = end
		}
	}
	return items, nil
}

func nextOpener(s string, from int) (int, string) {
	best, which := -1, ""
	for _, o := range openers {
		if i := strings.Index(s[from:], o); i >= 0 && (best < 0 || from+i < best) {
			best, which = from+i, o
		}
	}
	return best, which
}

// scanClose returns the offset of the first closing rune at nesting depth
// zero, skipping quoted strings.
func scanClose(s string, from int, closing byte) (int, bool) {
	var (
		depth int
		quote byte
	)
	for i := from; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote != 0:
			if ch == '\\' {
				i++
			} else if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			quote = ch
		case ch == '(' || ch == '{':
			depth++
		case (ch == ')' || ch == '}') && depth > 0:
			depth--
		case ch == closing && depth == 0:
			return i, true
		}
	}
	return 0, false
}

var (
	startTags = map[string]itemKind{"if": itemIf, "elseif": itemElseIf, "else": itemElse, "list": itemList, "assign": itemAssign}
	endTags   = map[string]itemKind{"if": itemEndIf, "list": itemEndList, "assign": itemEndAssign}
)

func lexTag(s string, start int, closing bool, line int) (item, int, error) {
	col := start + 1
	p := start + 2
	if closing {
		p = start + 3
	}
	name := p
	for name < len(s) && isLetter(s[name]) {
		name++
	}
	tag := s[p:name]
	end, ok := scanClose(s, name, '>')
	if !ok {
		return item{}, 0, errorf(line, col, "unterminated tag <#%s", tag)
	}
	body := strings.TrimSpace(s[name:end])
	tags := startTags
	if closing {
		tags = endTags
	}
	kind, ok := tags[tag]
	if !ok {
		if closing {
			return item{}, 0, errorf(line, col, "unknown tag </#%s>", tag)
		}
		return item{}, 0, errorf(line, col, "unknown tag <#%s>", tag)
	}
	switch kind {
	case itemIf, itemElseIf, itemList, itemAssign:
		if body == "" {
			return item{}, 0, errorf(line, col, "%s requires an expression", kind)
		}
	default:
		if body != "" {
			return item{}, 0, errorf(line, col, "unexpected %q in %s", body, kind)
		}
	}
	return item{kind: kind, val: body, line: line, col: col}, end + 1, nil
}

func isLetter(b byte) bool {
	return 'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z'
}
