// Package cfa implements the control-flow automaton: a directed graph
// of Locations connected by guarded Transitions, each either an
// assignment or a call into a nested Cfa. Cfa owns the naming
// discipline that keeps variables from one automaton from colliding
// with another's once both are flattened into a single term.Context.
package cfa

import (
	"fmt"

	"github.com/iancoleman/strcase"

	"bmc/term"
)

// LocationID identifies a Location within a single Cfa.
type LocationID int

// Location is a node of the automaton. Entry and exit locations are
// distinguished by the Cfa that owns them, not by any field here.
type Location struct {
	ID       LocationID
	Name     string
	Incoming []*Transition
	Outgoing []*Transition
}

// Transition is a directed edge guarded by a Bool expression, carrying
// exactly one of an assignment list or a call into another Cfa — the
// tagged variant described for Transition{Assign,Call}.
type Transition struct {
	Source *Location
	Target *Location
	Guard  *term.Expr

	Assign *AssignTransition
	Call   *CallTransition
}

// Assignment pairs a target variable with the expression it receives.
// A Transition's Assign list is semantically parallel: every right-hand
// side is evaluated against the pre-transition state before any
// assignment takes effect.
type Assignment struct {
	Variable *term.Variable
	Value    *term.Expr
}

// AssignTransition carries the parallel assignment list of an
// assignment-kind Transition.
type AssignTransition struct {
	Assignments []Assignment
}

// InputBinding and OutputBinding pair a callee-side formal with a
// caller-side expression (for inputs) or variable (for outputs).
type InputBinding struct {
	Formal *term.Variable
	Value  *term.Expr
}

type OutputBinding struct {
	Formal *term.Variable
	Result *term.Variable
}

// CallTransition carries a nested-Cfa invocation: the callee and the
// input/output binding lists that connect caller and callee variables.
type CallTransition struct {
	Callee  *Cfa
	Inputs  []InputBinding
	Outputs []OutputBinding
}

// Cfa is one control-flow automaton: its locations, its transitions,
// and the three variable roles (§3's formal inputs, outputs, locals)
// tracked separately from the underlying term.Context that owns their
// expressions. A Cfa may nest other Cfas one level deep via
// CallTransition, forming a call graph.
type Cfa struct {
	Name   string
	ctx    *term.Context
	parent *Cfa

	locations []*Location
	nextLoc   LocationID
	entry     *Location
	exit      *Location

	Inputs  []*term.Variable
	Outputs []*term.Variable
	Locals  []*term.Variable
}

// NewCfa creates an empty automaton named name, backed by ctx for
// variable registration and expression construction. parent is nil for
// a top-level Cfa; a non-nil parent causes variable names to be
// prefixed with the parent's full name path (nested CFAs prepend their
// parent's name).
func NewCfa(ctx *term.Context, name string, parent *Cfa) *Cfa {
	c := &Cfa{Name: name, ctx: ctx, parent: parent}
	c.entry = c.CreateLocation("entry")
	c.exit = c.CreateLocation("exit")
	return c
}

// Entry and Exit return the automaton's distinguished locations.
func (c *Cfa) Entry() *Location { return c.entry }
func (c *Cfa) Exit() *Location  { return c.exit }

// Locations returns every location created in this Cfa, in creation
// order.
func (c *Cfa) Locations() []*Location { return c.locations }

// CreateLocation adds a fresh, edge-less Location named name (for
// diagnostics only — locations are otherwise identified by ID).
func (c *Cfa) CreateLocation(name string) *Location {
	loc := &Location{ID: c.nextLoc, Name: name}
	c.nextLoc++
	c.locations = append(c.locations, loc)
	return loc
}

// CreateAssignTransition adds a guarded parallel-assignment edge from
// src to tgt and maintains the adjacency invariant on both endpoints.
func (c *Cfa) CreateAssignTransition(src, tgt *Location, guard *term.Expr, assignments []Assignment) *Transition {
	t := &Transition{
		Source: src,
		Target: tgt,
		Guard:  guard,
		Assign: &AssignTransition{Assignments: assignments},
	}
	c.link(src, tgt, t)
	return t
}

// CreateCallTransition adds a guarded call edge from src to tgt
// invoking callee with the given input/output bindings, maintaining
// the adjacency invariant on both endpoints.
func (c *Cfa) CreateCallTransition(src, tgt *Location, guard *term.Expr, callee *Cfa, inputs []InputBinding, outputs []OutputBinding) *Transition {
	t := &Transition{
		Source: src,
		Target: tgt,
		Guard:  guard,
		Call:   &CallTransition{Callee: callee, Inputs: inputs, Outputs: outputs},
	}
	c.link(src, tgt, t)
	return t
}

func (c *Cfa) link(src, tgt *Location, t *Transition) {
	src.Outgoing = append(src.Outgoing, t)
	tgt.Incoming = append(tgt.Incoming, t)
}

// qualifiedName builds the C-name/name path for a variable registered
// in this Cfa, prepending every ancestor's name so nested Cfas never
// collide with their parent's or siblings' variables.
func (c *Cfa) qualifiedName(name string) string {
	segments := []string{name}
	for cur := c; cur != nil; cur = cur.parent {
		segments = append([]string{cur.Name}, segments...)
	}
	return strcase.ToDelimited(joinSegments(segments), '/')
}

func joinSegments(segments []string) string {
	out := segments[0]
	for _, s := range segments[1:] {
		out += " " + s
	}
	return out
}

// AddInput registers a formal input parameter of type t, named name
// locally but stored in the context as this Cfa's qualified path.
func (c *Cfa) AddInput(name string, t term.Type) (*term.Variable, error) {
	v, err := c.addVariable(name, t)
	if err != nil {
		return nil, err
	}
	c.Inputs = append(c.Inputs, v)
	return v, nil
}

// AddOutput registers a formal output of type t.
func (c *Cfa) AddOutput(name string, t term.Type) (*term.Variable, error) {
	v, err := c.addVariable(name, t)
	if err != nil {
		return nil, err
	}
	c.Outputs = append(c.Outputs, v)
	return v, nil
}

// AddLocal registers a local variable of type t.
func (c *Cfa) AddLocal(name string, t term.Type) (*term.Variable, error) {
	v, err := c.addVariable(name, t)
	if err != nil {
		return nil, err
	}
	c.Locals = append(c.Locals, v)
	return v, nil
}

func (c *Cfa) addVariable(name string, t term.Type) (*term.Variable, error) {
	qualified := c.qualifiedName(name)
	v, err := c.ctx.NewVariable(qualified, t)
	if err != nil {
		return nil, fmt.Errorf("cfa %q: %w", c.Name, err)
	}
	return v, nil
}

// CheckAdjacencyInvariant verifies, for every transition, that it
// appears in its source's Outgoing list and its target's Incoming
// list — the bidirectional consistency invariant of §3. It exists for
// tests and debug assertions; the mutation methods above already
// maintain the invariant by construction.
func (c *Cfa) CheckAdjacencyInvariant() error {
	for _, loc := range c.locations {
		for _, t := range loc.Outgoing {
			if !containsTransition(t.Target.Incoming, t) {
				return fmt.Errorf("cfa %q: transition %p missing from target %s's incoming list", c.Name, t, t.Target.Name)
			}
		}
		for _, t := range loc.Incoming {
			if !containsTransition(t.Source.Outgoing, t) {
				return fmt.Errorf("cfa %q: transition %p missing from source %s's outgoing list", c.Name, t, t.Source.Name)
			}
		}
	}
	return nil
}

func containsTransition(list []*Transition, t *Transition) bool {
	for _, other := range list {
		if other == t {
			return true
		}
	}
	return false
}
