package service

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/limaJavier/timetabler/internal/dto"
	appErrors "github.com/limaJavier/timetabler/internal/errors"
	"github.com/limaJavier/timetabler/pkg/export"
	"github.com/limaJavier/timetabler/pkg/model"
	"github.com/limaJavier/timetabler/pkg/sat"
)

type spySolver struct {
	sat.SATSolver
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func newSpySolver(inner sat.SATSolver) *spySolver {
	return &spySolver{SATSolver: inner}
}

func (s *spySolver) Solve(ctx context.Context, instance sat.SAT) (sat.Result, error) {
	s.calls.Add(1)
	if s.started != nil {
		s.started <- struct{}{}
		<-s.release
	}
	return s.SATSolver.Solve(ctx, instance)
}

type stubSolver struct {
	result sat.Result
	err    error
}

func (s stubSolver) Name() string { return "stub" }
func (s stubSolver) Solve(context.Context, sat.SAT) (sat.Result, error) {
	return s.result, s.err
}

func newService(t *testing.T, shape model.Shape, solver sat.SATSolver, cfg GeneratorConfig, logger *zap.Logger) (*GeneratorService, *MetricsService) {
	t.Helper()
	validator, err := model.NewValidator(shape, model.Limits{})
	require.NoError(t, err)
	if cfg.TimeBudget == 0 {
		cfg.TimeBudget = 30 * time.Second
	}
	metrics := NewMetricsService()
	svc, err := NewGeneratorService(validator, solver, cfg, metrics, logger)
	require.NoError(t, err)
	return svc, metrics
}

func singleLectureRequest() dto.GenerateRequest {
	return dto.GenerateRequest{
		Subjects:   []model.Subject{{Name: "Mathematics", Code: "MATH101", LecturesPerWeek: 1}},
		Teachers:   []model.Teacher{{Name: "Alice"}},
		Classrooms: []model.Classroom{{Name: "Room A", Capacity: 30}},
	}
}

func overloadedRequest() dto.GenerateRequest {
	return dto.GenerateRequest{
		SubjectTeacherPairs: []model.SubjectTeacherPair{
			{Subject: model.Subject{Name: "Mathematics", Code: "MATH101", LecturesPerWeek: 3}, Teacher: model.Teacher{Name: "Alice"}},
			{Subject: model.Subject{Name: "Physics", Code: "PHY101", LecturesPerWeek: 2}, Teacher: model.Teacher{Name: "Alice"}},
		},
		Classrooms: []model.Classroom{{Name: "Room A"}, {Name: "Room B"}},
	}
}

func TestGenerateSingleLecture(t *testing.T) {
	g := gomega.NewWithT(t)
	svc, metrics := newService(t, model.DefaultShape(), sat.NewGiniSolver(), GeneratorConfig{}, nil)

	//** Act
	response, err := svc.Generate(context.Background(), singleLectureRequest())

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, dto.StatusSuccess, response.Status)
	assert.Equal(t, "Timetable generated successfully!", response.Message)
	assert.NotEmpty(t, response.SolveID)

	g.Expect(response.Timetable).To(gomega.HaveLen(5))
	g.Expect(response.Timetable.Assignments()).To(gomega.ConsistOf(gomega.HaveField("Event", model.Event{
		Subject: "Mathematics", SubjectCode: "MATH101", Teacher: "Alice", Classroom: "Room A",
	})))
	for _, day := range response.Timetable {
		g.Expect(day[model.DefaultShape().LunchSlot]).To(gomega.Equal([]model.Event{{Event: model.LunchBreak}}))
	}

	assert.Equal(t, 1, testutil.CollectAndCount(metrics.solveDuration))
}

func TestGenerateValidationSkipsSolver(t *testing.T) {
	solver := newSpySolver(sat.NewGiniSolver())
	svc, metrics := newService(t, model.DefaultShape(), solver, GeneratorConfig{}, nil)
	request := singleLectureRequest()
	request.Teachers = nil

	//** Act
	response, err := svc.Generate(context.Background(), request)

	//** Assert
	assert.Nil(t, response)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "No teachers available. Please add at least one teacher.", appErr.Message)
	assert.Nil(t, appErr.Details)
	assert.ErrorIs(t, err, model.ErrNoTeachingResource)
	assert.Zero(t, solver.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.rejections.WithLabelValues("validation")))
}

func TestGenerateInfeasible(t *testing.T) {
	shape := model.Shape{Days: 1, SlotsPerDay: 8, LunchSlot: 4, MaxConsecutive: 1}
	svc, _ := newService(t, shape, sat.NewGiniSolver(), GeneratorConfig{Strategy: model.StrategyPostponed}, nil)

	//** Act
	_, err := svc.Generate(context.Background(), overloadedRequest())

	//** Assert
	appErr := appErrors.FromError(err)
	assert.Equal(t, model.DiagnosisResources, appErr.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
	details, ok := appErr.Details.(model.Details)
	require.True(t, ok)
	assert.Equal(t, model.Details{
		TotalLecturesNeeded:   5,
		AvailableSlots:        7,
		NumTeachers:           1,
		NumClassrooms:         2,
		SolverStatus:          "INFEASIBLE",
		TeacherWeeklyCapacity: 4,
		OverloadedTeachers:    []string{"Alice"},
	}, details)
	assert.Equal(t, []string{"High resource utilization: 5 lectures with 1 teachers and 2 classrooms."}, appErr.Advisories)
}

func TestGenerateTimeoutAndEngineFailure(t *testing.T) {
	cases := map[string]struct {
		solver sat.SATSolver
		code   string
		status int
	}{
		"unknown": {stubSolver{result: sat.Result{Status: sat.StatusUnknown}}, model.DiagnosisTimeout, http.StatusUnprocessableEntity},
		"failure": {stubSolver{err: errors.New("exit status 1")}, appErrors.ErrSolverFailure.Code, http.StatusInternalServerError},
	}

	for name, tc := range cases {
		svc, _ := newService(t, model.DefaultShape(), tc.solver, GeneratorConfig{}, nil)

		_, err := svc.Generate(context.Background(), singleLectureRequest())

		appErr := appErrors.FromError(err)
		assert.Equal(t, tc.code, appErr.Code, name)
		assert.Equal(t, tc.status, appErr.Status, name)
	}
}

func TestGenerateLogsAdvisory(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	svc, _ := newService(t, model.DefaultShape(), sat.NewGiniSolver(), GeneratorConfig{}, zap.New(core))
	request := singleLectureRequest()
	request.Subjects[0].LecturesPerWeek = 25

	//** Act
	response, err := svc.Generate(context.Background(), request)

	//** Assert
	require.NoError(t, err)
	require.Len(t, response.Advisories, 1)
	assert.Equal(t, 1, logs.FilterMessage("resource advisory").FilterLevelExact(zapcore.WarnLevel).Len())
	assert.Equal(t, 1, logs.FilterMessage("solve finished").Len())
}

func TestGenerateRejectsWhenBusy(t *testing.T) {
	solver := newSpySolver(sat.NewGiniSolver())
	solver.started = make(chan struct{})
	solver.release = make(chan struct{})
	svc, metrics := newService(t, model.DefaultShape(), solver, GeneratorConfig{MaxConcurrent: 1, QueueTimeout: 20 * time.Millisecond}, nil)

	first := make(chan error, 1)
	go func() {
		_, err := svc.Generate(context.Background(), singleLectureRequest())
		first <- err
	}()
	<-solver.started

	//** Act
	_, err := svc.Generate(context.Background(), singleLectureRequest())

	//** Assert
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrBusy.Code, appErr.Code)
	assert.Equal(t, http.StatusTooManyRequests, appErr.Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.solvesInFlight))

	close(solver.release)
	require.NoError(t, <-first)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.solvesInFlight))
	assert.Equal(t, int32(1), solver.calls.Load())
}

func TestGenerateHoldsSlotWhileEngineSearches(t *testing.T) {
	pending := make(chan struct{})
	solver := stubSolver{result: sat.Result{Status: sat.StatusUnknown, Pending: pending}}
	svc, metrics := newService(t, model.DefaultShape(), solver, GeneratorConfig{MaxConcurrent: 1, QueueTimeout: 20 * time.Millisecond}, nil)

	//** Act
	_, first := svc.Generate(context.Background(), singleLectureRequest())
	_, second := svc.Generate(context.Background(), singleLectureRequest())

	//** Assert
	assert.Equal(t, model.DiagnosisTimeout, appErrors.FromError(first).Code)
	assert.Equal(t, appErrors.ErrBusy.Code, appErrors.FromError(second).Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.solvesInFlight))

	close(pending)
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.solvesInFlight) == 0
	}, time.Second, 5*time.Millisecond)
	_, third := svc.Generate(context.Background(), singleLectureRequest())
	assert.Equal(t, model.DiagnosisTimeout, appErrors.FromError(third).Code)
}

func TestExport(t *testing.T) {
	svc, _ := newService(t, model.DefaultShape(), sat.NewGiniSolver(), GeneratorConfig{}, nil)

	result, err := svc.Export(context.Background(), singleLectureRequest(), export.FormatCSV)

	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Contains(t, string(result.Content), "Mathematics,MATH101,Alice,Room A")
	assert.Regexp(t, `^timetable-.+\.csv$`, result.Filename)
}

func TestNewGeneratorServiceRejectsUnknownStrategy(t *testing.T) {
	validator, err := model.NewValidator(model.DefaultShape(), model.Limits{})
	require.NoError(t, err)

	_, err = NewGeneratorService(validator, sat.NewGiniSolver(), GeneratorConfig{Strategy: "hybrid"}, nil, nil)

	assert.Error(t, err)
}
