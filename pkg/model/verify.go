package model

import (
	"errors"
	"fmt"
)

// ErrInvalidTimetable is wrapped by every violation verify reports.
var ErrInvalidTimetable = errors.New("invalid timetable")

// VerifyTimetable checks a timetable against every scheduling rule independently of
// how it was produced.
func VerifyTimetable(timetable Timetable, input ModelInput) error {
	return verify(timetable, input)
}

func verify(timetable Timetable, input ModelInput) error {
	shape := input.Shape
	violation := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidTimetable, fmt.Sprintf(format, args...))
	}

	if len(timetable) != shape.Days {
		return violation("expected %d days, got %d", shape.Days, len(timetable))
	}

	subjectIndex := make(map[string]int, len(input.Subjects))
	for i, subject := range input.Subjects {
		subjectIndex[subject.Code] = i
	}
	eligible := make(map[[2]string]bool, len(input.Pairs))
	for _, pair := range input.Pairs {
		eligible[[2]string{input.Subjects[pair.Subject].Code, input.Teachers[pair.Teacher].Name}] = true
	}
	classrooms := make(map[string]bool, len(input.Classrooms))
	for _, classroom := range input.Classrooms {
		classrooms[classroom.Name] = true
	}

	lectures := make([]int, len(input.Subjects))
	for day, slots := range timetable {
		if len(slots) != shape.SlotsPerDay {
			return violation("day %d has %d slots, expected %d", day, len(slots), shape.SlotsPerDay)
		}

		run := make(map[string]int) // consecutive busy slots per teacher
		for slot, events := range slots {
			busy := make(map[string]bool)
			occupiedRooms := make(map[string]bool)
			lunchMarkers := 0

			for _, event := range events {
				if event.IsLunch() {
					lunchMarkers++
					continue
				}
				if slot == shape.LunchSlot {
					return violation("%s is scheduled during lunch on day %d", event.SubjectCode, day)
				}
				subject, ok := subjectIndex[event.SubjectCode]
				if !ok {
					return violation("unknown subject %q on day %d slot %d", event.SubjectCode, day, slot)
				}
				if !eligible[[2]string{event.SubjectCode, event.Teacher}] {
					return violation("%s may not teach %s", event.Teacher, event.SubjectCode)
				}
				if !classrooms[event.Classroom] {
					return violation("unknown classroom %q on day %d slot %d", event.Classroom, day, slot)
				}
				if busy[event.Teacher] {
					return violation("%s teaches twice on day %d slot %d", event.Teacher, day, slot)
				}
				if occupiedRooms[event.Classroom] {
					return violation("%s is double-booked on day %d slot %d", event.Classroom, day, slot)
				}
				busy[event.Teacher] = true
				occupiedRooms[event.Classroom] = true
				lectures[subject]++
			}

			expectedMarkers := 0
			if slot == shape.LunchSlot {
				expectedMarkers = 1
			}
			if lunchMarkers != expectedMarkers {
				return violation("day %d slot %d has %d lunch markers, expected %d", day, slot, lunchMarkers, expectedMarkers)
			}

			for _, teacher := range input.Teachers {
				if !busy[teacher.Name] {
					run[teacher.Name] = 0
					continue
				}
				if run[teacher.Name]++; run[teacher.Name] > shape.MaxConsecutive {
					return violation("%s teaches more than %d consecutive slots on day %d", teacher.Name, shape.MaxConsecutive, day)
				}
			}
		}
	}

	for i, subject := range input.Subjects {
		if lectures[i] != subject.LecturesPerWeek {
			return violation("%s has %d lectures, expected %d", subject.Code, lectures[i], subject.LecturesPerWeek)
		}
	}
	return nil
}
