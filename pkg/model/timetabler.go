package model

import (
	"context"
	"fmt"
	"time"

	"github.com/limaJavier/timetabler/pkg/sat"
)

const (
	StrategyEmbedded  = "embedded"
	StrategyPostponed = "postponed"
)

type Timetabler interface {
	// Build encodes input, solves it and decodes the assignment. Infeasibility and
	// timeouts are reported through Outcome.Status, not as errors.
	Build(ctx context.Context, input ModelInput) (Outcome, error)

	Verify(timetable Timetable, input ModelInput) error
}

type Outcome struct {
	Status      sat.Status
	Timetable   Timetable // nil unless Status is solved
	Variables   int
	Constraints int
	Elapsed     time.Duration
	// Reason is why the model was rejected when Status is StatusModelInvalid.
	Reason error
	// Pending is closed once a search abandoned at the deadline stops. Nil when none is left.
	Pending <-chan struct{}
}

// NewTimetabler picks the encoding by strategy name.
func NewTimetabler(strategy string, solver sat.SATSolver, budget time.Duration) (Timetabler, error) {
	switch strategy {
	case "", StrategyEmbedded:
		return NewEmbeddedRoomTimetabler(solver, budget), nil
	case StrategyPostponed:
		return NewIsolatedRoomTimetabler(solver, budget), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", strategy)
	}
}
