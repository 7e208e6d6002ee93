package sat

import (
	"context"
	"fmt"
	"strings"
)

// SATSolution lists one signed literal per assigned variable, positive when the variable is true.
type SATSolution []int64

// SAT is a CNF instance using DIMACS literal numbering.
type SAT struct {
	Variables uint64
	Clauses   [][]int64
}

func (s SAT) ToDIMACS() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "p cnf %d %d\n", s.Variables, len(s.Clauses))
	for _, clause := range s.Clauses {
		for _, literal := range clause {
			fmt.Fprintf(&builder, "%d ", literal)
		}
		builder.WriteString("0\n")
	}
	return builder.String()
}

type Status int

const (
	StatusUnknown Status = iota
	StatusOptimal
	StatusFeasible
	StatusInfeasible
	StatusModelInvalid
)

func (status Status) String() string {
	switch status {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusFeasible:
		return "FEASIBLE"
	case StatusInfeasible:
		return "INFEASIBLE"
	case StatusModelInvalid:
		return "MODEL_INVALID"
	default:
		return "UNKNOWN"
	}
}

// Solved reports whether the status carries an assignment.
func (status Status) Solved() bool {
	return status == StatusOptimal || status == StatusFeasible
}

// Result is the outcome of one engine run. Solution is nil unless Status is solved.
type Result struct {
	Status   Status
	Solution SATSolution
	// Pending is set when the engine is still searching after Solve returned. It is
	// closed once that search stops.
	Pending <-chan struct{}
}

// SATSolver decides a CNF instance. Running out of time is not an error: it is
// reported as StatusUnknown. Errors are reserved for engine failures.
type SATSolver interface {
	Name() string
	Solve(ctx context.Context, instance SAT) (Result, error)
}
