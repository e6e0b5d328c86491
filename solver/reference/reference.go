// Package reference implements solver.Solver with a brute-force
// decision procedure over Bool and fixed-width Bv variables: it tries
// concrete assignments and leans on term.Substitute's constant folding
// to evaluate the formula for each one, backtracking over the
// remaining variables until a satisfying assignment is found or the
// search space is exhausted. This stands in for gazer's real SMT
// backend (out of the core's scope per §1/§6) — it is deliberately not
// a production decision procedure: no CNF/Tseitin transform, no
// unit propagation, no conflict-driven learning, just a bounded
// exhaustive search used by the test suite and as cmd/bmc's solver.
package reference

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"bmc/solver"
	"bmc/term"
)

// maxSearchSpace bounds the product of every variable's domain size
// this solver will actually enumerate. Past this bound Run reports
// solver.Unknown instead of iterating for an unreasonable time — the
// honest behavior for a reference implementation, not a silent wrong
// answer.
const maxSearchSpace = 1 << 20

// Solver is a solver.Solver backed by exhaustive search.
type Solver struct {
	ctx       *term.Context
	builder   *term.Builder
	conjuncts []*term.Expr
	model     *model
}

// New creates a reference Solver that interns evaluation literals into
// ctx. ctx should be the same Context the formulas being added were
// built from.
func New(ctx *term.Context) *Solver {
	return &Solver{ctx: ctx, builder: term.NewBuilder(ctx)}
}

// Add conjoins e, which must be Bool-typed, onto the formula this run
// will decide.
func (s *Solver) Add(e *term.Expr) error {
	if !term.IsBool(e.Type) {
		return &solver.Error{Cause: fmt.Errorf("reference: Add requires a Bool expression, got %s", e.Type)}
	}
	s.conjuncts = append(s.conjuncts, e)
	return nil
}

// Run decides satisfiability by trying concrete assignments to every
// free variable in the accumulated formula. Bool variables try
// true/false; Bv(w) variables normally try every value in [0, 2^w), but
// when a variable is used only as the direct operand of equality
// comparisons against literals (as a predecessor selector is: compared
// for equality against each candidate branch index and nothing else),
// only those literals plus one "none of the above" witness are tried —
// see bvDomain. An Int-typed free variable, or a search space larger
// than maxSearchSpace even after this reduction, yields solver.Unknown
// rather than a wrong or unbounded answer.
func (s *Solver) Run(ctx context.Context) (solver.Status, error) {
	formula, err := s.builder.And(s.conjuncts...)
	if err != nil {
		return solver.Unknown, &solver.Error{Cause: err}
	}
	if formula.Kind == term.BoolLit {
		if formula.BoolVal {
			s.model = &model{}
			return solver.SAT, nil
		}
		return solver.UNSAT, nil
	}

	vars := freeVariables(formula)
	domains := make(map[*term.Variable][]*term.Expr, len(vars))
	space := 1
	for _, v := range vars {
		switch t := v.Type.(type) {
		case term.BoolType:
			domains[v] = domain(s.builder, v.Type)
		case term.BvType:
			// A full [0, 2^w) domain is sized before bvDomain builds it.
			if literals, sound := eqLiterals(formula, v); (!sound || len(literals) == 0) && (t.Width >= 63 || domainSize(t) > maxSearchSpace) {
				return solver.Unknown, nil
			}
			domains[v] = bvDomain(s.builder, formula, v)
		default:
			// Int, Float and Array variables have no finite domain this
			// brute-force search can enumerate.
			return solver.Unknown, nil
		}
		space *= len(domains[v])
		if space > maxSearchSpace {
			return solver.Unknown, nil
		}
	}

	assignment := make(map[*term.Variable]*term.Expr, len(vars))
	found, err := s.search(ctx, formula, vars, domains, 0, assignment)
	if err != nil {
		return solver.Unknown, &solver.Error{Cause: err}
	}
	if found == nil {
		return solver.UNSAT, nil
	}
	s.model = &model{values: found}
	return solver.SAT, nil
}

func (s *Solver) search(ctx context.Context, formula *term.Expr, vars []*term.Variable, domains map[*term.Variable][]*term.Expr, i int, assignment map[*term.Variable]*term.Expr) (map[*term.Variable]*term.Expr, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if i == len(vars) {
		evaluated, err := term.Substitute(s.builder, formula, assignment)
		if err != nil {
			return nil, err
		}
		if evaluated.Kind != term.BoolLit {
			return nil, fmt.Errorf("reference: formula did not fully evaluate (missing variable assignment)")
		}
		if evaluated.BoolVal {
			copied := make(map[*term.Variable]*term.Expr, len(assignment))
			for k, v := range assignment {
				copied[k] = v
			}
			return copied, nil
		}
		return nil, nil
	}

	v := vars[i]
	for _, lit := range domains[v] {
		assignment[v] = lit
		found, err := s.search(ctx, formula, vars, domains, i+1, assignment)
		if err != nil {
			delete(assignment, v)
			return nil, err
		}
		if found != nil {
			delete(assignment, v)
			return found, nil
		}
	}
	delete(assignment, v)
	return nil, nil
}

// Model returns the satisfying assignment from the most recent SAT run,
// or an empty model if the run was not SAT.
func (s *Solver) Model() solver.Model {
	if s.model == nil {
		return &model{}
	}
	return s.model
}

// Dump renders the accumulated formula as an s-expression, for the
// dump-solver-formula option.
func (s *Solver) Dump() (string, error) {
	formula, err := s.builder.And(s.conjuncts...)
	if err != nil {
		return "", err
	}
	return formula.String(), nil
}

// ModelString renders the last satisfying assignment as `name = value`
// lines, sorted by name, for the dump-model option.
func (s *Solver) ModelString() string {
	if s.model == nil {
		return ""
	}
	names := make([]string, 0, len(s.model.values))
	byName := make(map[string]*term.Expr, len(s.model.values))
	for v, lit := range s.model.values {
		names = append(names, v.Name)
		byName[v.Name] = lit
	}
	sort.Strings(names)
	out := ""
	for _, n := range names {
		out += fmt.Sprintf("%s = %s\n", n, byName[n].String())
	}
	return out
}

type model struct {
	values map[*term.Variable]*term.Expr
}

func (m *model) BoolValue(v *term.Variable) (bool, bool) {
	lit, ok := m.values[v]
	if !ok || lit.Kind != term.BoolLit {
		return false, false
	}
	return lit.BoolVal, true
}

func (m *model) BvValue(v *term.Variable) (*big.Int, bool) {
	lit, ok := m.values[v]
	if !ok || lit.Kind != term.BvLit {
		return nil, false
	}
	return lit.BvVal, true
}

func (m *model) IntValue(v *term.Variable) (*big.Int, bool) {
	lit, ok := m.values[v]
	if !ok || lit.Kind != term.IntLit {
		return nil, false
	}
	return lit.IntVal, true
}

func domainSize(t term.Type) int {
	switch tt := t.(type) {
	case term.BoolType:
		return 2
	case term.BvType:
		return 1 << uint(tt.Width)
	default:
		return 1
	}
}

func domain(b *term.Builder, t term.Type) []*term.Expr {
	switch tt := t.(type) {
	case term.BoolType:
		return []*term.Expr{b.False(), b.True()}
	case term.BvType:
		out := make([]*term.Expr, 0, 1<<uint(tt.Width))
		for i := 0; i < (1 << uint(tt.Width)); i++ {
			out = append(out, b.BvConst(tt.Width, big.NewInt(int64(i))))
		}
		return out
	default:
		return nil
	}
}

// bvDomain returns the values of a Bv-typed variable v worth trying
// while deciding formula. When every occurrence of v in formula is as
// the direct operand of an equality comparison against a literal (the
// shape a predecessor-selector variable always takes: compared for
// equality against each candidate branch index, nothing else), the
// only values that can change the formula's truth are those literals
// plus one witness standing in for "none of the above" — any other
// assignment makes every one of those equalities false, same as the
// witness. That keeps a 32-bit selector's effective domain down to the
// handful of predecessors actually in play instead of 2^32.
//
// Falls back to the type's full [0, 2^width) domain when v is used any
// other way (arithmetic, ordering, bitwise ops, or equality against a
// non-literal) — eliding anything there would be unsound.
func bvDomain(b *term.Builder, formula *term.Expr, v *term.Variable) []*term.Expr {
	width := v.Type.(term.BvType).Width
	literals, sound := eqLiterals(formula, v)
	if !sound || len(literals) == 0 {
		return domain(b, v.Type)
	}

	full := domainSize(v.Type)
	if len(literals) >= full {
		return literals
	}

	used := make(map[string]bool, len(literals))
	for _, lit := range literals {
		used[lit.BvVal.String()] = true
	}

	out := make([]*term.Expr, len(literals), len(literals)+1)
	copy(out, literals)
	for i := 0; i < full; i++ {
		n := big.NewInt(int64(i))
		if !used[n.String()] {
			out = append(out, b.BvConst(width, n))
			break
		}
	}
	return out
}

// eqLiterals collects the literal expressions v is compared for
// equality against anywhere in formula. sound is false as soon as v
// turns up used any other way (as an operand of something other than
// a direct Eq-against-literal), meaning the collected literals alone
// cannot stand in for v's full domain.
func eqLiterals(formula *term.Expr, v *term.Variable) (literals []*term.Expr, sound bool) {
	seen := make(map[*term.Expr]bool)
	sound = true
	var walk func(e *term.Expr)
	walk = func(e *term.Expr) {
		if e.Kind == term.VarRef {
			if e.Var == v {
				sound = false
			}
			return
		}
		if e.Kind == term.Eq && len(e.Operands) == 2 {
			a, bOp := e.Operands[0], e.Operands[1]
			if a.Kind == term.VarRef && a.Var == v && bOp.IsLiteral() {
				if !seen[bOp] {
					seen[bOp] = true
					literals = append(literals, bOp)
				}
				return
			}
			if bOp.Kind == term.VarRef && bOp.Var == v && a.IsLiteral() {
				if !seen[a] {
					seen[a] = true
					literals = append(literals, a)
				}
				return
			}
		}
		for _, op := range e.Operands {
			walk(op)
		}
	}
	walk(formula)
	return literals, sound
}

// freeVariables collects every distinct variable referenced in e, in
// stable name order so search order (and therefore which model is
// found first among several) is deterministic across runs.
func freeVariables(e *term.Expr) []*term.Variable {
	seen := make(map[*term.Variable]bool)
	var walk func(*term.Expr)
	walk = func(e *term.Expr) {
		if e.Kind == term.VarRef {
			seen[e.Var] = true
			return
		}
		for _, op := range e.Operands {
			walk(op)
		}
	}
	walk(e)

	out := make([]*term.Variable, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
