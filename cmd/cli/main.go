package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/limaJavier/timetabler/internal/config"
	"github.com/limaJavier/timetabler/internal/logger"
	"github.com/limaJavier/timetabler/pkg/export"
	"github.com/limaJavier/timetabler/pkg/model"
	"github.com/limaJavier/timetabler/pkg/sat"
)

// Exit codes follow the SAT competition convention for the solved cases.
const (
	exitSatisfiable   = 10
	exitVerification  = 15
	exitUnsatisfiable = 20
	exitUnknown       = 30
)

var (
	validStrategies = []string{model.StrategyEmbedded, model.StrategyPostponed}
	validFormats    = []string{"json", string(export.FormatCSV), string(export.FormatPDF)}
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Define arguments
	strategyPtr := flag.String("strategy", cfg.Solver.Strategy, `Strategy to build the timetable. Allowed values are:
- "embedded" (rooms are decided by the SAT model) and
- "postponed" (the SAT model only bounds lectures per slot by the number of rooms; rooms are matched afterwards)`)
	solverPtr := flag.String("solver", cfg.Solver.Engine, `SAT engine to use: "gini", "gophersat" or "exec:<binary>" for an external DIMACS solver such as "exec:kissat"`)
	configPtr := flag.String("config", cfg.Solver.ConfigFile, "JSON file mapping external solver names to executable paths")
	budgetPtr := flag.Duration("budget", cfg.Solver.TimeBudget, "Time budget for the solver")
	filePathPtr := flag.String("file", "", "Path to the input file")
	outFilePathPtr := flag.String("out", "", "Path to the file where the output will be written; if empty, it'll be written into the Standard Output")
	formatPtr := flag.String("format", "json", `Output format: "json", "csv" or "pdf"`)
	teacherPtr := flag.String("teacher", "", "Only output the lectures of this teacher")
	verbosePtr := flag.Bool("verbose", false, "Log at debug level")
	flag.Parse()
	strategy := strings.ToLower(*strategyPtr)
	format := strings.ToLower(*formatPtr)

	cfg.Log.Format = "console"
	if *verbosePtr {
		cfg.Log.Level = "debug"
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	// Validate arguments
	if !slices.Contains(validStrategies, strategy) {
		logr.Fatal("invalid strategy", zap.String("strategy", strategy))
	} else if !slices.Contains(validFormats, format) {
		logr.Fatal("invalid format", zap.String("format", format))
	} else if *filePathPtr == "" {
		logr.Fatal("an input file must be specified")
	} else if format == string(export.FormatPDF) && *outFilePathPtr == "" {
		logr.Fatal("pdf output needs -out")
	}

	// Extract input
	request, err := model.RequestFromJson(*filePathPtr)
	if err != nil {
		logr.Fatal("cannot parse input file", zap.Error(err))
	}
	validator, err := model.NewValidator(cfg.Schedule, cfg.Limits)
	if err != nil {
		logr.Fatal("invalid schedule configuration", zap.Error(err))
	}
	validation, err := validator.Validate(request)
	if err != nil {
		var validationErr *model.ValidationError
		if errors.As(err, &validationErr) {
			fmt.Fprintln(os.Stderr, validationErr.Message)
			os.Exit(1)
		}
		logr.Fatal("validation failed", zap.Error(err))
	}
	for _, advisory := range validation.Advisories {
		logr.Warn(advisory)
	}

	// Initialize engines
	paths, err := sat.LoadSolverPaths(*configPtr)
	if err != nil {
		logr.Fatal("cannot load solver paths", zap.Error(err))
	}
	solver, err := sat.NewSolver(strings.ToLower(*solverPtr), paths)
	if err != nil {
		logr.Fatal("cannot create solver", zap.Error(err))
	}
	timetabler, err := model.NewTimetabler(strategy, solver, *budgetPtr)
	if err != nil {
		logr.Fatal("cannot create timetabler", zap.Error(err))
	}

	// Build timetable
	input := validation.Input
	outcome, err := timetabler.Build(context.Background(), input)
	if err != nil {
		logr.Fatal("an error occurred during timetable construction", zap.Error(err))
	}
	logr.Info("solve finished",
		zap.String("status", outcome.Status.String()),
		zap.String("engine", solver.Name()),
		zap.Int("variables", outcome.Variables),
		zap.Int("constraints", outcome.Constraints),
		zap.Duration("duration", outcome.Elapsed),
	)

	if !outcome.Status.Solved() {
		diagnosis := model.Diagnose(input, outcome.Status)
		fmt.Fprintln(os.Stderr, diagnosis.Message)
		if outcome.Status == sat.StatusInfeasible {
			os.Exit(exitUnsatisfiable)
		}
		os.Exit(exitUnknown)
	}

	// Verify timetable correctness
	if err := timetabler.Verify(outcome.Timetable, input); err != nil {
		logr.Error("verification failed", zap.Error(err))
		os.Exit(exitVerification)
	}

	timetable := outcome.Timetable
	if *teacherPtr != "" {
		timetable = timetable.ForTeacher(*teacherPtr)
	}

	// Build output from timetable
	var content []byte
	if format == "json" {
		content, err = json.MarshalIndent(timetable, "", "  ")
	} else {
		content, _, err = export.Render(timetable, export.Format(format), "Weekly timetable")
	}
	if err != nil {
		logr.Fatal("an error occurred while building output", zap.Error(err))
	}

	if *outFilePathPtr == "" {
		fmt.Println(string(content))
	} else if err := os.WriteFile(*outFilePathPtr, content, 0666); err != nil {
		logr.Fatal("an error occurred while writing to the output file", zap.Error(err))
	}

	os.Exit(exitSatisfiable)
}
