package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/limaJavier/timetabler/pkg/sat"

	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

type unassignableError struct {
	day, slot, lectures, matched int
}

func (err unassignableError) Error() string {
	return fmt.Sprintf("not all lectures can be assigned a room: day %d slot %d has %d lectures but only %d rooms matched", err.day, err.slot, err.lectures, err.matched)
}

// buildModel runs every rule concurrently and posts their constraints in rule order.
func buildModel(ctx context.Context, model *sat.Model, state constraintState, rules []rule) error {
	batches := make([]constraintBatch, len(rules))

	group, ctx := errgroup.WithContext(ctx)
	for i, generate := range rules {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			batches[i] = generate(state)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return fmt.Errorf("cannot build model: %w", err)
	}

	for _, batch := range batches {
		if err := batch.post(ctx, model); err != nil {
			return fmt.Errorf("cannot build model: %w", err)
		}
	}
	return nil
}

// withBudget bounds the whole build, from variable creation to decoding, by budget.
// A zero budget adds no deadline.
func withBudget(ctx context.Context, budget time.Duration) (context.Context, context.CancelFunc) {
	if budget <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, budget)
}

// unfinishedOutcome reports a build the budget cut short before solving.
func unfinishedOutcome(model *sat.Model, start time.Time) Outcome {
	return Outcome{
		Status:      sat.StatusUnknown,
		Variables:   model.NumVars(),
		Constraints: model.NumConstraints(),
		Elapsed:     time.Since(start),
	}
}

// expired reports whether err is a deadline passing rather than a cancellation.
func expired(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// roomAssignment matches the lectures held in each slot with classrooms. The result maps
// (pair, day, slot) to a classroom index.
func roomAssignment(input ModelInput, active func(pair, day, slot int) bool) (map[[3]int]int, error) {
	shape := input.Shape
	rooms := make(map[[3]int]int)

	for day := range shape.Days {
		for slot := range shape.SlotsPerDay {
			pairs := lo.Filter(lo.Range(len(input.Pairs)), func(pair int, _ int) bool {
				return active(pair, day, slot)
			})
			if len(pairs) == 0 {
				continue
			}

			assignments, err := assignRooms(pairs, len(input.Classrooms))
			if err != nil {
				if unassignable, ok := err.(unassignableError); ok {
					unassignable.day, unassignable.slot = day, slot
					return nil, unassignable
				}
				return nil, err
			}
			for pair, room := range assignments {
				rooms[[3]int{pair, day, slot}] = room
			}
		}
	}
	return rooms, nil
}

func assignRooms(pairs []int, classrooms int) (map[int]int, error) {
	// Every classroom can host every lecture
	neighbors := func(any, any) (bool, error) {
		return true, nil
	}

	pairsAny := lo.Map(pairs, func(pair int, _ int) any { return pair })
	roomsAny := lo.Map(lo.Range(classrooms), func(room int, _ int) any { return room })

	graph, err := bipartitegraph.NewBipartiteGraph(pairsAny, roomsAny, neighbors)
	if err != nil {
		return nil, err
	}

	matching := graph.LargestMatching()

	// Check the matching covers every lecture
	if len(matching) < len(pairs) {
		return nil, unassignableError{lectures: len(pairs), matched: len(matching)}
	}

	assignments := make(map[int]int, len(pairs))
	for _, edge := range matching {
		pairIndex, roomIndex := edge.Node1, edge.Node2-len(pairs)
		assignments[pairs[pairIndex]] = roomIndex
	}
	return assignments, nil
}
