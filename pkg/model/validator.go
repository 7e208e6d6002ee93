package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/limaJavier/timetabler/pkg/sat"
)

var (
	ErrNoTeachingResource = errors.New("no teaching resource")
	ErrNoRoomResource     = errors.New("no room resource")
	ErrNoSubjects         = errors.New("no subjects")
	ErrOverDemand         = errors.New("over-constrained by demand")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrRequestTooLarge    = errors.New("request too large")
)

// ValidationError rejects a request before any model is built. Message is meant for end users.
type ValidationError struct {
	Kind    error
	Message string
	// Demand figures, set for ErrOverDemand.
	TotalLectures  int
	AvailableSlots int
}

func (err *ValidationError) Error() string { return err.Message }
func (err *ValidationError) Unwrap() error { return err.Kind }

// Limits bounds request sizes. Zero disables a limit.
type Limits struct {
	MaxSubjects   int `mapstructure:"max_subjects"`
	MaxTeachers   int `mapstructure:"max_teachers"`
	MaxClassrooms int `mapstructure:"max_classrooms"`
	// MaxClauses caps EstimateClauses, which tracks the memory a build needs.
	MaxClauses int `mapstructure:"max_clauses"`
}

func DefaultLimits() Limits {
	return Limits{
		MaxSubjects:   200,
		MaxTeachers:   200,
		MaxClassrooms: 100,
		MaxClauses:    4_000_000,
	}
}

// Validation is an accepted request ready for model building.
type Validation struct {
	Input      ModelInput
	Advisories []string
}

type Validator struct {
	shape    Shape
	limits   Limits
	validate *validator.Validate
}

func NewValidator(shape Shape, limits Limits) (*Validator, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schedule shape: %w", err)
	}
	return &Validator{
		shape:    shape,
		limits:   limits,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// Validate runs the resource and demand checks in order, then normalizes the request
// into a ModelInput. The first failing check wins.
func (v *Validator) Validate(request Request) (Validation, error) {
	if request.PairMode() && (len(request.Subjects) > 0 || len(request.Teachers) > 0) {
		return Validation{}, invalid(ErrInvalidRequest, "Provide either subjects and teachers or subject_teacher_pairs, not both.")
	}

	subjects, teachers := request.Subjects, request.Teachers
	if request.PairMode() {
		subjects = lo.Map(request.SubjectTeacherPairs, func(pair SubjectTeacherPair, _ int) Subject { return pair.Subject })
		teachers = lo.UniqBy(
			lo.Map(request.SubjectTeacherPairs, func(pair SubjectTeacherPair, _ int) Teacher { return pair.Teacher }),
			func(teacher Teacher) string { return teacher.Name },
		)
	}

	//** Resource and demand checks
	if len(teachers) == 0 {
		if request.PairMode() {
			return Validation{}, invalid(ErrNoTeachingResource, "No subject-teacher pairs available. Please add at least one pair.")
		}
		return Validation{}, invalid(ErrNoTeachingResource, "No teachers available. Please add at least one teacher.")
	}
	if len(request.Classrooms) == 0 {
		return Validation{}, invalid(ErrNoRoomResource, "No classrooms available. Please add at least one classroom.")
	}
	if len(subjects) == 0 {
		return Validation{}, invalid(ErrNoSubjects, "No subjects available. Please add at least one subject.")
	}

	total := lo.SumBy(subjects, func(subject Subject) int { return subject.LecturesPerWeek })
	available := v.shape.AvailableSlots()
	if total > available {
		return Validation{}, &ValidationError{
			Kind: ErrOverDemand,
			Message: fmt.Sprintf(
				"Too many lectures required! Need %d slots but only %d available (%d days × %d slots after lunch). Please reduce lectures_per_week for some subjects.",
				total, available, v.shape.Days, v.shape.SlotsPerDay-1,
			),
			TotalLectures:  total,
			AvailableSlots: available,
		}
	}

	//** Normalization
	if err := v.checkFields(subjects, teachers, request.Classrooms); err != nil {
		return Validation{}, err
	}
	if err := v.checkLimits(len(subjects), len(teachers), len(request.Classrooms)); err != nil {
		return Validation{}, err
	}
	if duplicates := lo.FindDuplicatesBy(request.Classrooms, func(classroom Classroom) string { return classroom.Name }); len(duplicates) > 0 {
		return Validation{}, invalid(ErrInvalidRequest, fmt.Sprintf("Classroom %q is listed more than once.", duplicates[0].Name))
	}

	var input ModelInput
	if request.PairMode() {
		bySubject, err := bindSubjects(request.SubjectTeacherPairs, teachers)
		if err != nil {
			return Validation{}, err
		}
		subjects = lo.Map(bySubject, func(b binding, _ int) Subject { return b.subject })
		teacherOf := lo.Map(bySubject, func(b binding, _ int) int { return b.teacher })
		input = newModelInput(v.shape, subjects, teachers, request.Classrooms, boundPairs(teacherOf), true)
	} else {
		if err := checkUnique(subjects, teachers); err != nil {
			return Validation{}, err
		}
		input = newModelInput(v.shape, subjects, teachers, request.Classrooms, openPairs(len(subjects), len(teachers)), false)
	}

	if v.limits.MaxClauses > 0 {
		if estimated := EstimateClauses(input); estimated > v.limits.MaxClauses {
			return Validation{}, invalid(ErrRequestTooLarge, fmt.Sprintf("Request too large: the model would need about %d clauses, the limit is %d.", estimated, v.limits.MaxClauses))
		}
	}

	validation := Validation{Input: input}
	capacity := float64(min(len(teachers), len(request.Classrooms)) * available)
	if float64(total) > 0.7*capacity {
		validation.Advisories = append(validation.Advisories, fmt.Sprintf(
			"High resource utilization: %d lectures with %d teachers and %d classrooms.",
			total, len(teachers), len(request.Classrooms),
		))
	}
	return validation, nil
}

func (v *Validator) checkFields(subjects []Subject, teachers []Teacher, classrooms []Classroom) error {
	fields := struct {
		Subjects   []Subject   `validate:"dive"`
		Teachers   []Teacher   `validate:"dive"`
		Classrooms []Classroom `validate:"dive"`
	}{subjects, teachers, classrooms}

	err := v.validate.Struct(fields)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return invalid(ErrInvalidRequest, err.Error())
	}
	problems := lo.Map(fieldErrors, func(fieldError validator.FieldError, _ int) string {
		return fmt.Sprintf("%s failed on %s", strings.TrimPrefix(fieldError.Namespace(), "."), fieldError.Tag())
	})
	return invalid(ErrInvalidRequest, "Invalid request: "+strings.Join(problems, "; ")+".")
}

func (v *Validator) checkLimits(subjects, teachers, classrooms int) error {
	exceeds := func(count, limit int) bool { return limit > 0 && count > limit }
	switch {
	case exceeds(subjects, v.limits.MaxSubjects):
		return invalid(ErrRequestTooLarge, fmt.Sprintf("Request too large: %d subjects, the limit is %d.", subjects, v.limits.MaxSubjects))
	case exceeds(teachers, v.limits.MaxTeachers):
		return invalid(ErrRequestTooLarge, fmt.Sprintf("Request too large: %d teachers, the limit is %d.", teachers, v.limits.MaxTeachers))
	case exceeds(classrooms, v.limits.MaxClassrooms):
		return invalid(ErrRequestTooLarge, fmt.Sprintf("Request too large: %d classrooms, the limit is %d.", classrooms, v.limits.MaxClassrooms))
	}
	return nil
}

type binding struct {
	subject Subject
	teacher int
}

// bindSubjects maps each subject to its single teacher. A subject listed twice is
// rejected whether or not the teacher differs.
func bindSubjects(pairs []SubjectTeacherPair, teachers []Teacher) ([]binding, error) {
	teacherIndex := make(map[string]int, len(teachers))
	for i, teacher := range teachers {
		teacherIndex[teacher.Name] = i
	}

	bindings := make([]binding, 0, len(pairs))
	seen := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		if previous, ok := seen[pair.Subject.Code]; ok {
			if previous != pair.Teacher.Name {
				return nil, invalid(ErrInvalidRequest, fmt.Sprintf("Subject %q is bound to more than one teacher (%s, %s).", pair.Subject.Code, previous, pair.Teacher.Name))
			}
			return nil, invalid(ErrInvalidRequest, fmt.Sprintf("Subject %q is paired with %s more than once.", pair.Subject.Code, pair.Teacher.Name))
		}
		seen[pair.Subject.Code] = pair.Teacher.Name
		bindings = append(bindings, binding{subject: pair.Subject, teacher: teacherIndex[pair.Teacher.Name]})
	}
	return bindings, nil
}

func checkUnique(subjects []Subject, teachers []Teacher) error {
	if duplicates := lo.FindDuplicatesBy(subjects, func(subject Subject) string { return subject.Code }); len(duplicates) > 0 {
		return invalid(ErrInvalidRequest, fmt.Sprintf("Subject code %q is used more than once.", duplicates[0].Code))
	}
	if duplicates := lo.FindDuplicatesBy(teachers, func(teacher Teacher) string { return teacher.Name }); len(duplicates) > 0 {
		return invalid(ErrInvalidRequest, fmt.Sprintf("Teacher %q is listed more than once.", duplicates[0].Name))
	}
	return nil
}

// EstimateClauses bounds the CNF size of the larger of the two room strategies,
// counting clauses the way each rule posts them.
func EstimateClauses(input ModelInput) int {
	rooms := len(input.Classrooms)
	return max(estimateClauses(input, rooms, 1), estimateClauses(input, 1, rooms))
}

func estimateClauses(input ModelInput, rooms, roomCapacity int) int {
	shape := input.Shape
	cells := shape.Days * shape.SlotsPerDay
	clauses := 1

	for index, subject := range input.Subjects {
		n := len(input.PairsOfSubject(index)) * rooms * cells
		clauses += sat.EstimateLinear(n, subject.LecturesPerWeek, subject.LecturesPerWeek)
	}
	for teacher := range input.Teachers {
		n := len(input.PairsOfTeacher(teacher)) * rooms
		clauses += cells * (sat.EstimateLinear(n, 0, 1) + n + 1)
	}
	clauses += rooms * cells * sat.EstimateLinear(len(input.Pairs), 0, roomCapacity)
	clauses += len(input.Pairs) * rooms * shape.Days
	clauses += len(input.Teachers) * shape.Days * max(0, shape.SlotsPerDay-shape.MaxConsecutive)
	return clauses
}

func invalid(kind error, message string) *ValidationError {
	return &ValidationError{Kind: kind, Message: message}
}
