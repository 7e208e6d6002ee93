package sat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

// checkEvery is how many clauses pass between context checks while compiling.
const checkEvery = 1 << 14

// ErrModelInvalid is wrapped by the reason recorded when a malformed constraint is posted.
var ErrModelInvalid = errors.New("model invalid")

// Var is a boolean decision variable declared on a Model.
type Var int32

// Lit is a variable or its negation.
type Lit struct {
	Var     Var
	Negated bool
}

func (v Var) Pos() Lit { return Lit{Var: v} }
func (v Var) Neg() Lit { return Lit{Var: v, Negated: true} }
func (l Lit) Not() Lit { return Lit{Var: l.Var, Negated: !l.Negated} }

// Term is a weighted literal of a linear expression.
type Term struct {
	Lit    Lit
	Weight int
}

// Sum builds the unit-weight expression over vars.
func Sum(vars ...Var) []Term {
	terms := make([]Term, len(vars))
	for i, v := range vars {
		terms[i] = Term{Lit: v.Pos(), Weight: 1}
	}
	return terms
}

// Model accumulates boolean variables and constraints over them, compiles them to
// CNF and hands the result to a SATSolver. A Model is not safe for concurrent use.
type Model struct {
	solver      SATSolver
	circuit     *logic.C
	vars        []z.Lit
	roots       [][]z.Lit
	constraints int
	invalid     error

	status  Status
	values  []bool
	pending <-chan struct{}
}

func NewModel(solver SATSolver) *Model {
	return &Model{
		solver:  solver,
		circuit: logic.NewC(),
	}
}

func (m *Model) NewBool() Var {
	m.vars = append(m.vars, m.circuit.Lit())
	return Var(len(m.vars) - 1)
}

func (m *Model) NumVars() int        { return len(m.vars) }
func (m *Model) NumConstraints() int { return m.constraints }

// Invalid returns the reason the model was rejected, if any.
func (m *Model) Invalid() error { return m.invalid }

// AddLinear posts lo <= Σ weight·lit <= hi.
func (m *Model) AddLinear(terms []Term, lo, hi int) {
	m.constraints++
	if m.invalid != nil || !m.bounds(lo, hi) {
		return
	}
	lits, ok := m.literals(terms)
	if !ok {
		return
	}

	total := len(lits)
	switch {
	case lo > total || hi < 0:
		m.clause(m.circuit.F)
	case lo <= 0 && hi >= total:
	case hi == 0:
		for _, lit := range lits {
			m.clause(lit.Not())
		}
	case hi == 1:
		m.atMostOne(lits)
		if lo == 1 {
			m.clause(lits...)
		}
	default:
		upper, lower := hi < total, lo > 0
		width := lo
		if upper {
			width = hi + 1
		}
		atLeast := m.counter(lits, width, upper, lower)
		if lower {
			m.clause(atLeast[lo])
		}
		if upper {
			m.clause(atLeast[hi+1].Not())
		}
	}
}

// AddReified posts b ⇔ (lo <= Σ weight·lit <= hi).
func (m *Model) AddReified(b Lit, terms []Term, lo, hi int) {
	m.constraints++
	if m.invalid != nil || !m.bounds(lo, hi) {
		return
	}
	indicator, ok := m.lit(b)
	if !ok {
		return
	}
	lits, ok := m.literals(terms)
	if !ok {
		return
	}

	total := len(lits)
	var body z.Lit
	switch {
	case lo > total || hi < 0:
		body = m.circuit.F
	case lo <= 0 && hi >= total:
		body = m.circuit.T
	default:
		width := lo
		if hi < total {
			width = hi + 1
		}
		atLeast := m.counter(lits, width, true, true)
		lower, upper := m.circuit.T, m.circuit.T
		if lo > 0 {
			lower = atLeast[lo]
		}
		if hi < total {
			upper = atLeast[hi+1].Not()
		}
		body = m.circuit.And(lower, upper)
	}
	m.clause(indicator.Not(), body)
	m.clause(indicator, body.Not())
}

// AddClause posts the disjunction of lits. An empty clause makes the model infeasible.
func (m *Model) AddClause(lits ...Lit) {
	m.constraints++
	if m.invalid != nil {
		return
	}
	clause := make([]z.Lit, 0, len(lits))
	for _, l := range lits {
		lit, ok := m.lit(l)
		if !ok {
			return
		}
		clause = append(clause, lit)
	}
	if len(clause) == 0 {
		clause = append(clause, m.circuit.F)
	}
	m.roots = append(m.roots, clause)
}

// Compile lowers the circuit and the asserted roots to CNF.
func (m *Model) Compile() SAT {
	instance, _ := m.CompileContext(context.Background())
	return instance
}

// CompileContext is Compile giving up with ctx.Err() once ctx is done.
func (m *Model) CompileContext(ctx context.Context) (SAT, error) {
	adder := &clauseAdder{clauses: make([][]int64, 0, len(m.roots)+m.circuit.Len())}
	m.circuit.ToCnf(adder)
	for i, root := range m.roots {
		if i%checkEvery == 0 && ctx.Err() != nil {
			return SAT{}, ctx.Err()
		}
		adder.clause(root...)
	}
	for _, v := range m.vars {
		adder.observe(v)
	}
	return SAT{Variables: uint64(adder.maxVar), Clauses: adder.clauses}, nil
}

// Solve compiles the model and runs the solver within budget. A zero budget leaves
// ctx as the only bound. The returned error is only set when the engine itself fails.
func (m *Model) Solve(ctx context.Context, budget time.Duration) (Status, error) {
	m.values = nil
	m.pending = nil
	if m.invalid != nil {
		m.status = StatusModelInvalid
		return m.status, nil
	}

	if budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}
	instance, err := m.CompileContext(ctx)
	if err != nil {
		m.status = StatusUnknown
		return m.status, nil
	}

	result, err := m.solver.Solve(ctx, instance)
	m.pending = result.Pending
	if err != nil {
		m.status = StatusUnknown
		return m.status, fmt.Errorf("%s engine failed: %w", m.solver.Name(), err)
	}

	m.status = result.Status
	if result.Status.Solved() {
		m.values = make([]bool, instance.Variables+1)
		for _, literal := range result.Solution {
			if literal > 0 && uint64(literal) <= instance.Variables {
				m.values[literal] = true
			}
		}
	}
	return m.status, nil
}

// Pending is closed once an engine abandoned by the last Solve stops working. It is nil
// when nothing outlived Solve.
func (m *Model) Pending() <-chan struct{} { return m.pending }

// Value reads v from the last solved assignment. It is false when no assignment exists.
func (m *Model) Value(v Var) bool {
	if m.values == nil || int(v) < 0 || int(v) >= len(m.vars) {
		return false
	}
	dimacs := m.vars[v].Dimacs()
	index := dimacs
	if index < 0 {
		index = -index
	}
	if index >= len(m.values) {
		return dimacs < 0
	}
	return m.values[index] != (dimacs < 0)
}

func (m *Model) invalidate(format string, args ...any) {
	if m.invalid == nil {
		m.invalid = fmt.Errorf("%w: %s", ErrModelInvalid, fmt.Sprintf(format, args...))
	}
}

func (m *Model) lit(l Lit) (z.Lit, bool) {
	if l.Var < 0 || int(l.Var) >= len(m.vars) {
		m.invalidate("unknown variable %d", l.Var)
		return z.LitNull, false
	}
	lit := m.vars[l.Var]
	if l.Negated {
		lit = lit.Not()
	}
	return lit, true
}

func (m *Model) literals(terms []Term) ([]z.Lit, bool) {
	lits := make([]z.Lit, 0, len(terms))
	for _, term := range terms {
		if term.Weight < 0 {
			m.invalidate("negative weight %d", term.Weight)
			return nil, false
		}
		lit, ok := m.lit(term.Lit)
		if !ok {
			return nil, false
		}
		for range term.Weight {
			lits = append(lits, lit)
		}
	}
	return lits, true
}

func (m *Model) bounds(lo, hi int) bool {
	if lo > hi {
		m.invalidate("empty bounds [%d, %d]", lo, hi)
		return false
	}
	return true
}

// clause asserts lits, dropping false constants and skipping clauses a true constant satisfies.
func (m *Model) clause(lits ...z.Lit) {
	clause := make([]z.Lit, 0, len(lits))
	for _, lit := range lits {
		switch lit {
		case m.circuit.T:
			return
		case m.circuit.F:
		default:
			clause = append(clause, lit)
		}
	}
	if len(clause) == 0 {
		clause = append(clause, m.circuit.F)
	}
	m.roots = append(m.roots, clause)
}

// counter is a sequential counter over lits. The returned atLeast[j], for j in
// [0, width], is forced true when j or more lits hold (upward) and is only true
// when j or more lits hold (downward). Its size is linear in len(lits)·width.
func (m *Model) counter(lits []z.Lit, width int, upward, downward bool) []z.Lit {
	previous := make([]z.Lit, width+1)
	previous[0] = m.circuit.T
	for j := 1; j <= width; j++ {
		previous[j] = m.circuit.F
	}

	for i, lit := range lits {
		current := make([]z.Lit, width+1)
		current[0] = m.circuit.T
		for j := 1; j <= width; j++ {
			if j > i+1 {
				current[j] = m.circuit.F
				continue
			}
			s := m.circuit.Lit()
			current[j] = s
			if upward {
				m.clause(previous[j].Not(), s)
				m.clause(lit.Not(), previous[j-1].Not(), s)
			}
			if downward {
				m.clause(s.Not(), previous[j], lit)
				m.clause(s.Not(), previous[j], previous[j-1])
			}
		}
		previous = current
	}
	return previous
}

// EstimateLinear bounds the clauses AddLinear emits for n unit-weight literals.
func EstimateLinear(n, lo, hi int) int {
	switch {
	case lo > hi:
		return 0
	case lo > n || hi < 0:
		return 1
	case lo <= 0 && hi >= n:
		return 0
	case hi == 0:
		return n
	case hi == 1:
		if lo == 1 {
			return estimateAtMostOne(n) + 1
		}
		return estimateAtMostOne(n)
	}
	perCell := 0
	width := lo
	if hi < n {
		perCell += 2
		width = hi + 1
	}
	if lo > 0 {
		perCell += 2
	}
	return n*width*perCell + 2
}

func estimateAtMostOne(n int) int {
	switch {
	case n < 2:
		return 0
	case n <= 4:
		return n * (n - 1) / 2
	default:
		return 3*n - 4
	}
}

// atMostOne uses the sequential counter encoding, which stays linear in len(lits).
func (m *Model) atMostOne(lits []z.Lit) {
	if len(lits) < 2 {
		return
	}
	if len(lits) <= 4 {
		for i := range lits {
			for j := i + 1; j < len(lits); j++ {
				m.roots = append(m.roots, []z.Lit{lits[i].Not(), lits[j].Not()})
			}
		}
		return
	}

	previous := m.circuit.Lit()
	m.roots = append(m.roots, []z.Lit{lits[0].Not(), previous})
	for i := 1; i < len(lits)-1; i++ {
		current := m.circuit.Lit()
		m.roots = append(m.roots,
			[]z.Lit{lits[i].Not(), current},
			[]z.Lit{previous.Not(), current},
			[]z.Lit{lits[i].Not(), previous.Not()},
		)
		previous = current
	}
	m.roots = append(m.roots, []z.Lit{lits[len(lits)-1].Not(), previous.Not()})
}

func unitWeights(terms []Term) bool {
	for _, term := range terms {
		if term.Weight != 1 {
			return false
		}
	}
	return true
}

// clauseAdder collects the clauses emitted by the circuit in DIMACS numbering.
type clauseAdder struct {
	clauses [][]int64
	current []int64
	maxVar  int
}

func (a *clauseAdder) Add(lit z.Lit) {
	if lit == z.LitNull {
		a.clauses = append(a.clauses, a.current)
		a.current = nil
		return
	}
	a.observe(lit)
	a.current = append(a.current, int64(lit.Dimacs()))
}

func (a *clauseAdder) clause(lits ...z.Lit) {
	for _, lit := range lits {
		a.Add(lit)
	}
	a.Add(z.LitNull)
}

func (a *clauseAdder) observe(lit z.Lit) {
	if v := int(lit.Var()); v > a.maxVar {
		a.maxVar = v
	}
}
