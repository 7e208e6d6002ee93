package model

import (
	"context"
	"time"

	"github.com/limaJavier/timetabler/pkg/sat"
)

type isolatedRoomTimetabler struct {
	solver sat.SATSolver
	budget time.Duration
}

// NewIsolatedRoomTimetabler leaves rooms out of the SAT model, only bounding the
// lectures per slot by the number of classrooms. Rooms are matched afterwards.
func NewIsolatedRoomTimetabler(solver sat.SATSolver, budget time.Duration) Timetabler {
	return &isolatedRoomTimetabler{
		solver: solver,
		budget: budget,
	}
}

func (timetabler *isolatedRoomTimetabler) Build(ctx context.Context, input ModelInput) (Outcome, error) {
	start := time.Now()
	ctx, cancel := withBudget(ctx, timetabler.budget)
	defer cancel()

	//** Build model
	model := sat.NewModel(timetabler.solver)
	state := newConstraintState(model, input, 1, len(input.Classrooms))
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
	if err != nil || !status.Solved() {
		return outcome, err
	}

	//** Assign rooms
	rooms, err := roomAssignment(input, func(pair, day, slot int) bool {
		return model.Value(state.occupied(pair, 0, day, slot))
	})
	if err != nil {
		return outcome, err
	}

	//** Decode assignment
	outcome.Timetable = decodeTimetable(input, func(pair, room, day, slot int) bool {
		assigned, ok := rooms[[3]int{pair, day, slot}]
		return ok && assigned == room
	})
	outcome.Elapsed = time.Since(start)
	return outcome, nil
}

func (timetabler *isolatedRoomTimetabler) Verify(timetable Timetable, input ModelInput) error {
	return verify(timetable, input)
}
