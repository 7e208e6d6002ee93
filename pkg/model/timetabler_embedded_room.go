package model

import (
	"context"
	"time"

	"github.com/limaJavier/timetabler/pkg/sat"
)

type embeddedRoomTimetabler struct {
	solver sat.SATSolver
	budget time.Duration
}

// NewEmbeddedRoomTimetabler decides rooms inside the SAT model: every occupancy
// variable names its classroom.
func NewEmbeddedRoomTimetabler(solver sat.SATSolver, budget time.Duration) Timetabler {
	return &embeddedRoomTimetabler{
		solver: solver,
		budget: budget,
	}
}

func (timetabler *embeddedRoomTimetabler) Build(ctx context.Context, input ModelInput) (Outcome, error) {
	start := time.Now()
	ctx, cancel := withBudget(ctx, timetabler.budget)
	defer cancel()

	//** Build model
	model := sat.NewModel(timetabler.solver)
	state := newConstraintState(model, input, len(input.Classrooms), 1)
	if err := buildModel(ctx, model, state, rules); err != nil {
		if expired(err) {
			return unfinishedOutcome(model, start), nil
		}
		return Outcome{}, err
	}

	//** Solve model
	status, err := model.Solve(ctx, 0)
	outcome := Outcome{
		Status:      status,
		Variables:   model.NumVars(),
		Constraints: model.NumConstraints(),
		Elapsed:     time.Since(start),
		Reason:      model.Invalid(),
		Pending:     model.Pending(),
	}
	if err != nil {
		return outcome, err
	}

	//** Decode assignment
	if status.Solved() {
		outcome.Timetable = decodeTimetable(input, func(pair, room, day, slot int) bool {
			return model.Value(state.occupied(pair, room, day, slot))
		})
	}
	outcome.Elapsed = time.Since(start)
	return outcome, nil
}

func (timetabler *embeddedRoomTimetabler) Verify(timetable Timetable, input ModelInput) error {
	return verify(timetable, input)
}
