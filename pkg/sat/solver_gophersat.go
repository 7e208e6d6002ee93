package sat

import (
	"context"

	"github.com/crillab/gophersat/solver"
	"github.com/samber/lo"
)

type gophersatSolver struct{}

// NewGophersatSolver returns the pure-Go gophersat engine. gophersat cannot be
// interrupted, so when the deadline passes the search keeps running in its goroutine
// and StatusUnknown is reported with Result.Pending closing when the search ends.
// Callers bounding concurrent searches should hold their slot until then.
func NewGophersatSolver() SATSolver {
	return &gophersatSolver{}
}

func (s *gophersatSolver) Name() string { return EngineGophersat }

func (s *gophersatSolver) Solve(ctx context.Context, instance SAT) (Result, error) {
	if ctx.Err() != nil {
		return Result{Status: StatusUnknown}, nil
	}

	clauses := lo.Map(instance.Clauses, func(clause []int64, _ int) []int {
		return lo.Map(clause, func(literal int64, _ int) int { return int(literal) })
	})
	engine := solver.New(solver.ParseSlice(clauses))

	done := make(chan solver.Status, 1)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		done <- engine.Solve()
	}()

	select {
	case <-ctx.Done():
		return Result{Status: StatusUnknown, Pending: finished}, nil
	case status := <-done:
		switch status {
		case solver.Sat:
			model := engine.Model()
			solution := make(SATSolution, 0, len(model))
			for i, value := range model {
				literal := int64(i + 1)
				if !value {
					literal = -literal
				}
				solution = append(solution, literal)
			}
			return Result{Status: StatusOptimal, Solution: solution}, nil
		case solver.Unsat:
			return Result{Status: StatusInfeasible}, nil
		default:
			return Result{Status: StatusUnknown}, nil
		}
	}
}
