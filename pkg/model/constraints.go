package model

import (
	"context"

	"github.com/limaJavier/timetabler/pkg/sat"
)

type constraintState struct {
	input ModelInput

	occupancy     indexer // slot, day, room, pair
	busy          indexer // slot, day, teacher
	occupancyVars []sat.Var
	busyVars      []sat.Var

	rooms        int // size of the room dimension of occupancy
	roomCapacity int // lectures one entry of the room dimension holds per slot
}

func newConstraintState(model *sat.Model, input ModelInput, rooms, roomCapacity int) constraintState {
	shape := input.Shape
	state := constraintState{
		input:        input,
		occupancy:    newIndexer(shape.SlotsPerDay, shape.Days, rooms, len(input.Pairs)),
		busy:         newIndexer(shape.SlotsPerDay, shape.Days, len(input.Teachers)),
		rooms:        rooms,
		roomCapacity: roomCapacity,
	}
	state.occupancyVars = make([]sat.Var, state.occupancy.Size())
	for i := range state.occupancyVars {
		state.occupancyVars[i] = model.NewBool()
	}
	state.busyVars = make([]sat.Var, state.busy.Size())
	for i := range state.busyVars {
		state.busyVars[i] = model.NewBool()
	}
	return state
}

func (state constraintState) occupied(pair, room, day, slot int) sat.Var {
	return state.occupancyVars[state.occupancy.Index(slot, day, room, pair)]
}

func (state constraintState) teacherBusy(teacher, day, slot int) sat.Var {
	return state.busyVars[state.busy.Index(slot, day, teacher)]
}

type linearConstraint struct {
	terms  []sat.Term
	lo, hi int
}

// constraintBatch is what a rule produces. Rules run concurrently, so they only
// describe constraints and never touch the model.
type constraintBatch struct {
	linear  []linearConstraint
	clauses [][]sat.Lit
}

// post adds the batch to model, stopping with ctx.Err() once ctx is done.
func (batch constraintBatch) post(ctx context.Context, model *sat.Model) error {
	for _, c := range batch.linear {
		if err := ctx.Err(); err != nil {
			return err
		}
		model.AddLinear(c.terms, c.lo, c.hi)
	}
	for i, clause := range batch.clauses {
		if i%1024 == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		model.AddClause(clause...)
	}
	return nil
}

type rule func(state constraintState) constraintBatch

// rules are posted in this order regardless of which finishes first.
var rules = []rule{
	lectureConstraints,
	teacherConstraints,
	roomConstraints,
	lunchConstraints,
	consecutiveConstraints,
}

// Each subject is taught exactly its weekly lecture count, summed over its eligible teachers.
func lectureConstraints(state constraintState) constraintBatch {
	shape := state.input.Shape
	batch := constraintBatch{}
	for index, subject := range state.input.Subjects {
		vars := make([]sat.Var, 0)
		for _, pair := range state.input.PairsOfSubject(index) {
			for room := range state.rooms {
				for day := range shape.Days {
					for slot := range shape.SlotsPerDay {
						vars = append(vars, state.occupied(pair, room, day, slot))
					}
				}
			}
		}
		batch.linear = append(batch.linear, linearConstraint{terms: sat.Sum(vars...), lo: subject.LecturesPerWeek, hi: subject.LecturesPerWeek})
	}
	return batch
}

// A teacher gives at most one lecture per slot.
func teacherConstraints(state constraintState) constraintBatch {
	shape := state.input.Shape
	batch := constraintBatch{}
	for teacher := range state.input.Teachers {
		for day := range shape.Days {
			for slot := range shape.SlotsPerDay {
				terms := sat.Sum(state.teacherSlotVars(teacher, day, slot)...)
				if len(terms) == 0 {
					continue
				}
				batch.linear = append(batch.linear, linearConstraint{terms: terms, lo: 0, hi: 1})
			}
		}
	}
	return batch
}

// A room hosts at most roomCapacity lectures per slot.
func roomConstraints(state constraintState) constraintBatch {
	shape := state.input.Shape
	batch := constraintBatch{}
	for room := range state.rooms {
		for day := range shape.Days {
			for slot := range shape.SlotsPerDay {
				vars := make([]sat.Var, 0, len(state.input.Pairs))
				for pair := range state.input.Pairs {
					vars = append(vars, state.occupied(pair, room, day, slot))
				}
				batch.linear = append(batch.linear, linearConstraint{terms: sat.Sum(vars...), lo: 0, hi: state.roomCapacity})
			}
		}
	}
	return batch
}

// Nothing is scheduled in the lunch slot.
func lunchConstraints(state constraintState) constraintBatch {
	shape := state.input.Shape
	batch := constraintBatch{}
	for pair := range state.input.Pairs {
		for room := range state.rooms {
			for day := range shape.Days {
				batch.clauses = append(batch.clauses, []sat.Lit{state.occupied(pair, room, day, shape.LunchSlot).Neg()})
			}
		}
	}
	return batch
}

// TeacherBusy(t, d, sl) holds exactly when t lectures in that slot, and no teacher is
// busy for more than MaxConsecutive slots in a row within a day. Teachers give at most
// one lecture per slot, so busy is the disjunction of the slot's occupancy.
func consecutiveConstraints(state constraintState) constraintBatch {
	shape := state.input.Shape
	window := shape.MaxConsecutive + 1
	batch := constraintBatch{}
	for teacher := range state.input.Teachers {
		for day := range shape.Days {
			for slot := range shape.SlotsPerDay {
				busy := state.teacherBusy(teacher, day, slot)
				vars := state.teacherSlotVars(teacher, day, slot)
				clause := make([]sat.Lit, 0, len(vars)+1)
				clause = append(clause, busy.Neg())
				for _, v := range vars {
					clause = append(clause, v.Pos())
					batch.clauses = append(batch.clauses, []sat.Lit{v.Neg(), busy.Pos()})
				}
				batch.clauses = append(batch.clauses, clause)
			}
			for start := 0; start+window <= shape.SlotsPerDay; start++ {
				clause := make([]sat.Lit, 0, window)
				for slot := start; slot < start+window; slot++ {
					clause = append(clause, state.teacherBusy(teacher, day, slot).Neg())
				}
				batch.clauses = append(batch.clauses, clause)
			}
		}
	}
	return batch
}

func (state constraintState) teacherSlotVars(teacher, day, slot int) []sat.Var {
	vars := make([]sat.Var, 0)
	for _, pair := range state.input.PairsOfTeacher(teacher) {
		for room := range state.rooms {
			vars = append(vars, state.occupied(pair, room, day, slot))
		}
	}
	return vars
}
