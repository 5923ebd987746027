package planner

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/syssam/lightdao"
	"github.com/syssam/lightdao/query/handler"
	"github.com/syssam/lightdao/schema"
)

// Match is what a strategy extracted from a method name.
type Match struct {
	Tail       string // part handed to the handler chain
	Projection string // name between the prefix and "By", if any
}

// Strategy is one method-name pattern.
type Strategy struct {
	Name string
	// Accept reports whether the strategy handles a method name.
	Accept func(name string) (Match, bool)
	// Build runs the handler chain on the tail and returns the SELECT list.
	Build func(p *Planner, c *handler.Context, m Match) (string, error)
	// Return overrides the declared return. Nil keeps it.
	Return func(m *schema.Method) schema.Return
}

// WithStrategies replaces the strategy list.
func WithStrategies(ss ...*Strategy) Option {
	return func(p *Planner) {
		p.strategies = ss
	}
}

// Strategies returns the default strategies in priority order.
func Strategies() []*Strategy {
	return []*Strategy{CountBy, SumOf, FindAll, FindAny, FindByID, FindBy, FindProjection}
}

var (
	errNoSumField = errors.New("getSumOf names no field")
	errNoFields   = errors.New("findAny requires a field selection")

	findAnyRe  = regexp.MustCompile(`^findAny\d*By(.*)$`)
	findByIDRe = regexp.MustCompile(`^find(\w*)ById$`)
)

// CountBy handles getCountBy<tail>: select count(*).
var CountBy = &Strategy{
	Name:   "countBy",
	Accept: prefixed("getCountBy"),
	Build: func(_ *Planner, c *handler.Context, m Match) (string, error) {
		return "count(*)", handler.Default().Run(c, m.Tail)
	},
	Return: scalarOr[int64],
}

// SumOf handles getSumOf<Field>[By<tail>]: select sum(field).
var SumOf = &Strategy{
	Name: "sumOf",
	Accept: func(name string) (Match, bool) {
		rest, ok := cutPrefix(name, "getSumOf")
		if !ok {
			return Match{}, false
		}
		head, tail, found := cutBy(rest)
		if !found {
			return Match{Projection: rest}, true
		}
		return Match{Projection: head, Tail: tail}, true
	},
	Build: func(p *Planner, c *handler.Context, m Match) (string, error) {
		if m.Projection == "" {
			return "", lightdao.NewInitializationError(c.Method.Signature(), c.Method.Name, errNoSumField)
		}
		return "sum(" + p.dialect.Quote(c.Column(m.Projection)) + ")", handler.Default().Run(c, m.Tail)
	},
	Return: scalarOr[decimal.Decimal],
}

// FindAll handles findAll<tail>. Only Limit, OrderBy and GroupBy apply.
var FindAll = &Strategy{
	Name:   "findAll",
	Accept: prefixed("findAll"),
	Build: func(p *Planner, c *handler.Context, m Match) (string, error) {
		return p.fields(c, c.Method.Fields), handler.Positional().Run(c, m.Tail)
	},
}

// FindAny handles findAny<N>By<tail> with an explicit field selection.
var FindAny = &Strategy{
	Name: "findAny",
	Accept: func(name string) (Match, bool) {
		sm := findAnyRe.FindStringSubmatch(name)
		if sm == nil {
			return Match{}, false
		}
		return Match{Tail: sm[1]}, true
	},
	Build: func(p *Planner, c *handler.Context, m Match) (string, error) {
		if len(c.Method.Fields) == 0 {
			return "", lightdao.NewInitializationError(c.Method.Signature(), c.Method.Name, errNoFields)
		}
		return p.fields(c, c.Method.Fields), handler.Default().Run(c, m.Tail)
	},
}

// FindByID handles find<Projection?>ById, a primary-key equality fast path.
// Names that also order or group fall through to the generic strategies.
var FindByID = &Strategy{
	Name: "findById",
	Accept: func(name string) (Match, bool) {
		if strings.Contains(name, "OrderBy") || strings.Contains(name, "GroupBy") {
			return Match{}, false
		}
		sm := findByIDRe.FindStringSubmatch(name)
		if sm == nil {
			return Match{}, false
		}
		return Match{Projection: sm[1]}, true
	},
	Build: func(p *Planner, c *handler.Context, m Match) (string, error) {
		args, err := c.Args.Take(1)
		if err != nil {
			return "", err
		}
		c.Spec.EQ(c.Method.Entity.PK(), args[0])
		return p.projection(c, m.Projection), nil
	},
	Return: func(m *schema.Method) schema.Return {
		if m.Return == (schema.Return{}) {
			return schema.One()
		}
		return m.Return
	},
}

// FindBy handles findBy<tail> and findOneBy<tail> with a * projection.
var FindBy = &Strategy{
	Name: "findBy",
	Accept: func(name string) (Match, bool) {
		if tail, ok := cutPrefix(name, "findOneBy"); ok {
			return Match{Tail: tail}, true
		}
		if tail, ok := cutPrefix(name, "findBy"); ok {
			return Match{Tail: tail}, true
		}
		return Match{}, false
	},
	Build: func(_ *Planner, c *handler.Context, m Match) (string, error) {
		return "*", handler.Default().Run(c, m.Tail)
	},
	Return: func(m *schema.Method) schema.Return {
		if strings.HasPrefix(m.Name, "findOneBy") && m.Return.Kind == schema.ReturnList {
			return schema.One()
		}
		return m.Return
	},
}

// FindProjection handles find<Projection>By<tail>. The SELECT list comes
// from the method's field selection, else from the projection name.
var FindProjection = &Strategy{
	Name: "findProjection",
	Accept: func(name string) (Match, bool) {
		rest, ok := cutPrefix(name, "find")
		if !ok {
			return Match{}, false
		}
		head, tail, found := cutBy(rest)
		if !found || head == "" {
			return Match{}, false
		}
		return Match{Projection: head, Tail: tail}, true
	},
	Build: func(p *Planner, c *handler.Context, m Match) (string, error) {
		sel := p.projection(c, m.Projection)
		if len(c.Method.Fields) > 0 {
			sel = p.fields(c, c.Method.Fields)
		}
		return sel, handler.Default().Run(c, m.Tail)
	},
}

// projection renders the SELECT list for a name-embedded projection: "*"
// for none, "One", "All" or the entity name, else the named column.
func (p *Planner) projection(c *handler.Context, name string) string {
	e := c.Method.Entity
	switch {
	case name == "", name == "One", name == "All":
		return "*"
	case e != nil && strings.EqualFold(name, e.Name):
		return "*"
	}
	return p.dialect.SecurityFields(c.Column(name))
}

func scalarOr[T any](m *schema.Method) schema.Return {
	switch m.Return.Kind {
	case schema.ReturnScalar, schema.ReturnScalarList:
		return m.Return
	}
	return schema.Scalar[T]()
}

func prefixed(prefix string) func(string) (Match, bool) {
	return func(name string) (Match, bool) {
		tail, ok := cutPrefix(name, prefix)
		return Match{Tail: tail}, ok
	}
}

// cutPrefix strips prefix when it ends on a word boundary: the rest is
// empty or does not start with a lowercase rune.
func cutPrefix(name, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(name, prefix)
	if !ok {
		return "", false
	}
	if r, _ := utf8.DecodeRuneInString(rest); rest != "" && unicode.IsLower(r) {
		return "", false
	}
	return rest, true
}

// cutBy splits s at its first "By" that starts a word: not at offset 0 and
// followed by the end of s or a non-lowercase rune.
func cutBy(s string) (head, tail string, ok bool) {
	for from := 1; from < len(s); {
		i := strings.Index(s[from:], "By")
		if i < 0 {
			return "", "", false
		}
		i += from
		rest := s[i+2:]
		if r, _ := utf8.DecodeRuneInString(rest); rest == "" || !unicode.IsLower(r) {
			return s[:i], rest, true
		}
		from = i + 1
	}
	return "", "", false
}
