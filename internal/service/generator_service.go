package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/limaJavier/timetabler/internal/dto"
	appErrors "github.com/limaJavier/timetabler/internal/errors"
	"github.com/limaJavier/timetabler/pkg/export"
	"github.com/limaJavier/timetabler/pkg/model"
	"github.com/limaJavier/timetabler/pkg/sat"
)

const (
	successMessage = "Timetable generated successfully!"
	exportTitle    = "Weekly timetable"
)

// GeneratorConfig tunes how solves are admitted and bounded.
type GeneratorConfig struct {
	Strategy      string
	TimeBudget    time.Duration
	MaxConcurrent int
	QueueTimeout  time.Duration
}

// GeneratorService validates requests, bounds concurrent solves and turns solver
// outcomes into responses or typed errors.
type GeneratorService struct {
	validator    *model.Validator
	timetabler   model.Timetabler
	engine       string
	strategy     string
	limiter      *semaphore.Weighted
	queueTimeout time.Duration
	metrics      *MetricsService
	logger       *zap.Logger
}

func NewGeneratorService(validator *model.Validator, solver sat.SATSolver, cfg GeneratorConfig, metrics *MetricsService, logger *zap.Logger) (*GeneratorService, error) {
	strategy := cfg.Strategy
	if strategy == "" {
		strategy = model.StrategyEmbedded
	}
	timetabler, err := model.NewTimetabler(strategy, solver, cfg.TimeBudget)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &GeneratorService{
		validator:    validator,
		timetabler:   timetabler,
		engine:       solver.Name(),
		strategy:     strategy,
		limiter:      semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		queueTimeout: cfg.QueueTimeout,
		metrics:      metrics,
		logger:       logger,
	}, nil
}

// Generate returns a timetable for request. Failures are *errors.Error values:
// validation failures carry no details, post-solve failures carry model.Details and
// the request's advisories.
func (s *GeneratorService) Generate(ctx context.Context, request dto.GenerateRequest) (*dto.GenerateResponse, error) {
	validation, err := s.validator.Validate(request)
	if err != nil {
		s.metrics.RecordRejection("validation")
		var validationErr *model.ValidationError
		if errors.As(err, &validationErr) {
			clone := appErrors.Clone(appErrors.ErrValidation, validationErr.Message)
			clone.Err = validationErr
			return nil, clone
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	for _, advisory := range validation.Advisories {
		s.logger.Warn("resource advisory", zap.String("advisory", advisory))
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}

	solveID := uuid.NewString()
	input := validation.Input
	outcome, err := s.timetabler.Build(ctx, input)
	s.releaseAfter(solveID, release, outcome.Pending)
	if err != nil {
		s.metrics.ObserveSolve("ERROR", s.engine, s.strategy, outcome.Elapsed, outcome.Variables)
		s.logger.Error("solve failed", zap.String("solve_id", solveID), zap.String("engine", s.engine), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrSolverFailure.Code, appErrors.ErrSolverFailure.Status, appErrors.ErrSolverFailure.Message)
	}

	s.metrics.ObserveSolve(outcome.Status.String(), s.engine, s.strategy, outcome.Elapsed, outcome.Variables)
	s.logger.Info("solve finished",
		zap.String("solve_id", solveID),
		zap.String("status", outcome.Status.String()),
		zap.String("engine", s.engine),
		zap.String("strategy", s.strategy),
		zap.Int("variables", outcome.Variables),
		zap.Int("constraints", outcome.Constraints),
		zap.Duration("duration", outcome.Elapsed),
	)

	if !outcome.Status.Solved() {
		return nil, s.diagnose(solveID, input, outcome, validation.Advisories)
	}

	if err := s.timetabler.Verify(outcome.Timetable, input); err != nil {
		s.logger.Error("decoded timetable failed verification", zap.String("solve_id", solveID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}

	return &dto.GenerateResponse{
		Status:     dto.StatusSuccess,
		Message:    successMessage,
		Timetable:  outcome.Timetable,
		Advisories: validation.Advisories,
		SolveID:    solveID,
	}, nil
}

// Export generates a timetable and renders it in format.
func (s *GeneratorService) Export(ctx context.Context, request dto.GenerateRequest, format export.Format) (*dto.ExportResult, error) {
	generated, err := s.Generate(ctx, request)
	if err != nil {
		return nil, err
	}
	content, contentType, err := export.Render(generated.Timetable, format, exportTitle)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "cannot render timetable")
	}
	return &dto.ExportResult{
		Content:     content,
		ContentType: contentType,
		Filename:    fmt.Sprintf("timetable-%s.%s", generated.SolveID, format),
	}, nil
}

// acquire waits up to queueTimeout for a solver slot.
func (s *GeneratorService) acquire(ctx context.Context) (func(), error) {
	waitCtx := ctx
	if s.queueTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, s.queueTimeout)
		defer cancel()
	}

	if err := s.limiter.Acquire(waitCtx, 1); err != nil {
		s.metrics.RecordRejection("busy")
		if ctx.Err() != nil {
			return nil, appErrors.Wrap(ctx.Err(), appErrors.ErrBusy.Code, appErrors.ErrBusy.Status, "Request cancelled while waiting for the solver.")
		}
		s.logger.Warn("solver queue timeout", zap.Duration("queue_timeout", s.queueTimeout))
		return nil, appErrors.Wrap(err, appErrors.ErrBusy.Code, appErrors.ErrBusy.Status, appErrors.ErrBusy.Message)
	}

	done := s.metrics.SolveStarted()
	return func() {
		done()
		s.limiter.Release(1)
	}, nil
}

// releaseAfter frees the solver slot once pending closes, so a search the engine could
// not stop at the deadline still counts against MaxConcurrent.
func (s *GeneratorService) releaseAfter(solveID string, release func(), pending <-chan struct{}) {
	if pending == nil {
		release()
		return
	}
	s.logger.Warn("engine still searching past the deadline, holding its slot", zap.String("solve_id", solveID), zap.String("engine", s.engine))
	go func() {
		<-pending
		release()
	}()
}

func (s *GeneratorService) diagnose(solveID string, input model.ModelInput, outcome model.Outcome, advisories []string) error {
	diagnosis := model.Diagnose(input, outcome.Status)

	base := appErrors.ErrTimeout
	switch outcome.Status {
	case sat.StatusInfeasible:
		base = appErrors.ErrInfeasible
	case sat.StatusModelInvalid:
		base = appErrors.ErrModelInvalid
		s.logger.Error("model invalid",
			zap.String("solve_id", solveID),
			zap.Int("variables", outcome.Variables),
			zap.Int("constraints", outcome.Constraints),
			zap.Error(outcome.Reason),
		)
	}

	err := appErrors.WithDetails(base, diagnosis.Message, diagnosis.Details, outcome.Reason)
	err.Code = diagnosis.Code
	err.Advisories = advisories
	return err
}
