// Package handler compiles the tail of a DAO method name into predicates on
// a query.Spec through an ordered chain of handlers.
//
// A Handler either claims the tail (it mutates the spec, consumes positional
// arguments and returns without calling next) or forwards a possibly
// shortened tail to the next handler. Chains are immutable and safe to share
// between goroutines; the Context passed through them is per invocation.
package handler

import (
	"errors"
	"slices"

	"github.com/syssam/lightdao"
	"github.com/syssam/lightdao/query"
	"github.com/syssam/lightdao/query/naming"
	"github.com/syssam/lightdao/schema"
)

// Next hands a tail to the remaining handlers of the chain.
type Next func(tail string) error

// Handler is one link of a chain.
type Handler interface {
	Handle(c *Context, tail string, next Next) error
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(c *Context, tail string, next Next) error

// Handle calls f(c, tail, next).
func (f HandlerFunc) Handle(c *Context, tail string, next Next) error {
	return f(c, tail, next)
}

// Context carries the per-invocation state seen by every handler.
type Context struct {
	Method   *schema.Method
	Spec     *query.Spec
	Args     *Args
	Resolver *naming.Resolver
}

var defaultResolver = naming.NewResolver()

// NewContext returns a Context. A nil resolver selects a process-wide one.
func NewContext(m *schema.Method, spec *query.Spec, args *Args, r *naming.Resolver) *Context {
	if r == nil {
		r = defaultResolver
	}
	return &Context{Method: m, Spec: spec, Args: args, Resolver: r}
}

// Column resolves a field token of the current method to its column.
func (c *Context) Column(token string) string {
	return c.Resolver.Column(c.Method, token)
}

// HasField reports whether the method's entity declares token.
func (c *Context) HasField(token string) bool {
	return c.Resolver.HasField(c.Method, token)
}

// WithSpec returns a copy of c writing into spec. Arguments stay shared.
func (c *Context) WithSpec(spec *query.Spec) *Context {
	cc := *c
	cc.Spec = spec
	return &cc
}

func (c *Context) signature() string {
	return c.Method.Signature()
}

// planError attaches the method signature to err. Errors that already are
// InitializationErrors are rebuilt rather than mutated, since the tokenizer
// memoizes and shares them.
func (c *Context) planError(text string, err error) error {
	var ie *lightdao.InitializationError
	if errors.As(err, &ie) {
		if ie.Method != "" {
			return err
		}
		return lightdao.NewInitializationError(c.signature(), ie.Text, ie.Err)
	}
	return lightdao.NewInitializationError(c.signature(), text, err)
}

var errUnhandled = errors.New("no handler accepts this name segment")

// Chain is an immutable ordered list of handlers.
type Chain struct {
	handlers []Handler
}

// NewChain returns a chain running hs in order.
func NewChain(hs ...Handler) *Chain {
	return &Chain{handlers: slices.Clone(hs)}
}

// With returns a new chain with hs appended.
func (ch *Chain) With(hs ...Handler) *Chain {
	return &Chain{handlers: append(slices.Clone(ch.handlers), hs...)}
}

// Len returns the number of handlers.
func (ch *Chain) Len() int {
	return len(ch.handlers)
}

// Run passes tail through the chain. A tail that is still non-empty after
// the last handler forwarded it is an InitializationError.
func (ch *Chain) Run(c *Context, tail string) error {
	return ch.step(c, 0)(tail)
}

func (ch *Chain) step(c *Context, i int) Next {
	return func(tail string) error {
		if i >= len(ch.handlers) {
			if tail != "" {
				return c.planError(tail, errUnhandled)
			}
			return nil
		}
		return ch.handlers[i].Handle(c, tail, ch.step(c, i+1))
	}
}

var (
	simpleChain     = NewChain(simpleHandlers()...)
	positionalChain = NewChain(Limit(), OrderBy(), GroupBy())
	defaultChain    = positionalChain.With(And(simpleChain)).With(simpleHandlers()...)
)

// Default returns the full chain: Limit, OrderBy, GroupBy, And, then the
// simple handlers ending with Eq.
func Default() *Chain { return defaultChain }

// Positional returns the chain of pre-position handlers only. Any tail left
// after them is an error.
func Positional() *Chain { return positionalChain }

// Simple returns the chain of simple handlers ending with Eq.
func Simple() *Chain { return simpleChain }
