package term

import (
	"fmt"
	"math"
)

// Context is the process-local registry that owns the interning tables
// for expressions and variables. It is created before any term
// construction and must outlive every formula referencing its
// expressions; it has no explicit release step. A Context is not
// safe for concurrent mutation; independent verification runs need
// independent Contexts (see §5 of the design).
type Context struct {
	exprs     map[string]*Expr
	variables map[string]*Variable
	undefs    map[string]*Expr
	nextVarID uint64
}

// NewContext creates an empty, ready-to-use Context.
func NewContext() *Context {
	return &Context{
		exprs:     make(map[string]*Expr),
		variables: make(map[string]*Variable),
		undefs:    make(map[string]*Expr),
	}
}

// NewVariable registers a fresh variable named name with type t. It
// fails if the name is already registered in this Context — name
// uniqueness is enforced per Context, matching §3's Variable invariant.
func (c *Context) NewVariable(name string, t Type) (*Variable, error) {
	if _, exists := c.variables[name]; exists {
		return nil, fmt.Errorf("term: variable %q already registered in this context", name)
	}
	v := &Variable{Name: name, Type: t}
	v.ref = &Expr{Kind: VarRef, Type: t, Var: v}
	c.variables[name] = v
	return v, nil
}

// Lookup returns a previously registered variable by name.
func (c *Context) Lookup(name string) (*Variable, bool) {
	v, ok := c.variables[name]
	return v, ok
}

// Variables returns every variable registered in this Context. The
// order is unspecified; callers that need determinism should sort by
// Name.
func (c *Context) Variables() []*Variable {
	out := make([]*Variable, 0, len(c.variables))
	for _, v := range c.variables {
		out = append(out, v)
	}
	return out
}

// UndefOf returns the single canonical Undef literal for t, interning
// it on first request.
func (c *Context) UndefOf(t Type) *Expr {
	key := "undef:" + t.String()
	if e, ok := c.undefs[key]; ok {
		return e
	}
	e := &Expr{Kind: Undef, Type: t}
	c.undefs[key] = e
	return e
}

// intern returns the canonical node for the given shape, constructing
// and storing it on first request. Two calls with the same kind, type
// and operand identities are guaranteed to return the same pointer —
// this is the hash-consing invariant of §3/§8.
func (c *Context) intern(e *Expr) *Expr {
	key := exprKey(e)
	if existing, ok := c.exprs[key]; ok {
		return existing
	}
	c.exprs[key] = e
	return e
}

func exprKey(e *Expr) string {
	switch e.Kind {
	case BoolLit:
		return fmt.Sprintf("bool:%t", e.BoolVal)
	case BvLit:
		return fmt.Sprintf("bv:%s:%s", e.Type, e.BvVal.Text(16))
	case IntLit:
		return fmt.Sprintf("int:%s", e.IntVal.Text(16))
	case FloatLit:
		return fmt.Sprintf("float:%s:%x", e.Type, math.Float64bits(e.FloatVal))
	case VarRef:
		return "var:" + e.Var.Name
	}
	key := fmt.Sprintf("%d:%s", e.Kind, e.Type)
	for _, op := range e.Operands {
		key += fmt.Sprintf(":%p", op)
	}
	return key
}
