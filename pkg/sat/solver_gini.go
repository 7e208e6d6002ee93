package sat

import (
	"context"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
)

type giniSolver struct{}

// NewGiniSolver returns the in-process CDCL engine. It honours the context deadline
// as its time budget.
func NewGiniSolver() SATSolver {
	return &giniSolver{}
}

func (solver *giniSolver) Name() string { return EngineGini }

func (solver *giniSolver) Solve(ctx context.Context, instance SAT) (Result, error) {
	if ctx.Err() != nil {
		return Result{Status: StatusUnknown}, nil
	}

	g := gini.NewVc(int(instance.Variables), len(instance.Clauses))
	for _, clause := range instance.Clauses {
		for _, literal := range clause {
			g.Add(z.Dimacs2Lit(int(literal)))
		}
		g.Add(z.LitNull)
	}

	var outcome int
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return Result{Status: StatusUnknown}, nil
		}
		outcome = g.Try(remaining)
	} else {
		outcome = g.Solve()
	}

	switch outcome {
	case 1:
		solution := make(SATSolution, 0, instance.Variables)
		for v := z.Var(1); v <= g.MaxVar(); v++ {
			if g.Value(v.Pos()) {
				solution = append(solution, int64(v))
			} else {
				solution = append(solution, -int64(v))
			}
		}
		return Result{Status: StatusOptimal, Solution: solution}, nil
	case -1:
		return Result{Status: StatusInfeasible}, nil
	default:
		return Result{Status: StatusUnknown}, nil
	}
}
