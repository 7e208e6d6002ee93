package model

import (
	"fmt"
	"strings"

	"github.com/limaJavier/timetabler/pkg/sat"
	"github.com/samber/lo"
)

// Diagnosis codes.
const (
	DiagnosisDemand       = "INFEASIBLE_DEMAND"
	DiagnosisResources    = "INFEASIBLE_RESOURCES"
	DiagnosisModelInvalid = "MODEL_INVALID"
	DiagnosisTimeout      = "SOLVER_TIMEOUT"
)

// demandRatio separates demand-driven infeasibility from resource shortage.
const demandRatio = 0.8

type Details struct {
	TotalLecturesNeeded   int      `json:"total_lectures_needed"`
	AvailableSlots        int      `json:"available_slots"`
	NumTeachers           int      `json:"num_teachers"`
	NumClassrooms         int      `json:"num_classrooms"`
	SolverStatus          string   `json:"solver_status"`
	TeacherWeeklyCapacity int      `json:"teacher_weekly_capacity"`
	OverloadedTeachers    []string `json:"overloaded_teachers,omitempty"`
}

// Diagnosis explains a solve that produced no timetable.
type Diagnosis struct {
	Code    string
	Message string
	Details Details
}

// Diagnose builds the user-facing explanation for a non-solved status.
func Diagnose(input ModelInput, status sat.Status) Diagnosis {
	shape := input.Shape
	total := input.TotalLectures()
	available := shape.AvailableSlots()
	capacity := shape.TeacherWeeklyCapacity()

	details := Details{
		TotalLecturesNeeded:   total,
		AvailableSlots:        available,
		NumTeachers:           len(input.Teachers),
		NumClassrooms:         len(input.Classrooms),
		SolverStatus:          status.String(),
		TeacherWeeklyCapacity: capacity,
	}
	if input.PairMode {
		details.OverloadedTeachers = lo.FilterMap(input.Teachers, func(teacher Teacher, i int) (string, bool) {
			return teacher.Name, input.TeacherLoad(i) > capacity
		})
	}

	diagnosis := Diagnosis{Details: details}
	switch status {
	case sat.StatusInfeasible:
		if float64(total) > demandRatio*float64(available) {
			diagnosis.Code = DiagnosisDemand
			diagnosis.Message = fmt.Sprintf(
				"Schedule is over-constrained. You need %d lecture slots but only %d available (after lunch break). Consider: 1) Reducing lectures_per_week for some subjects, 2) Adding more teachers, or 3) Adding more classrooms.",
				total, available,
			)
		} else {
			diagnosis.Code = DiagnosisResources
			diagnosis.Message = fmt.Sprintf(
				"Cannot create a valid schedule with current constraints. Try: 1) Adding more teachers (%d available), 2) Adding more classrooms (%d available), or 3) Reducing the lectures_per_week requirement.",
				len(input.Teachers), len(input.Classrooms),
			)
		}
		if len(details.OverloadedTeachers) > 0 {
			diagnosis.Message += fmt.Sprintf(
				" Teachers above the weekly capacity of %d lectures: %s.",
				capacity, strings.Join(details.OverloadedTeachers, ", "),
			)
		}
	case sat.StatusModelInvalid:
		diagnosis.Code = DiagnosisModelInvalid
		diagnosis.Message = "Internal error: The scheduling model is invalid. Please contact support."
	default:
		diagnosis.Code = DiagnosisTimeout
		diagnosis.Message = fmt.Sprintf(
			"Solver timeout or unknown issue (status: %s). The problem might be too complex. Try simplifying the schedule.",
			status,
		)
	}
	return diagnosis
}
