package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/limaJavier/timetabler/pkg/model"
	"github.com/limaJavier/timetabler/pkg/sat"
)

const (
	satisfiableTestDirectory   = "testdata/satisfiable/"
	unsatisfiableTestDirectory = "testdata/unsatisfiable/"
	MB                         = 1024 * 1024
)

type ResultType int

const (
	solved ResultType = iota
	unsatisfiable
	timeout
	failed
	wrong
)

var resultTypes = map[ResultType]string{
	solved:        "solved",
	unsatisfiable: "unsatisfiable",
	timeout:       "timeout",
	failed:        "failed",
	wrong:         "wrong",
}

type TestMetadata struct {
	Name        string
	Satisfiable bool
	Subjects    int
	Teachers    int
	Pairs       int
	Classrooms  int
	Lectures    int
	input       model.ModelInput
}

type BenchmarkResult struct {
	Solver      string
	Strategy    string
	Test        TestMetadata
	Duration    time.Duration
	Memory      float32
	Variables   int
	Constraints int
	Result      ResultType
}

func main() {
	solversPtr := flag.String("solvers", strings.Join([]string{sat.EngineGini, sat.EngineGophersat}, ","), "Comma separated engines to compare, e.g. gini,gophersat,exec:kissat")
	strategiesPtr := flag.String("strategies", strings.Join([]string{model.StrategyEmbedded, model.StrategyPostponed}, ","), "Comma separated strategies to compare")
	configPtr := flag.String("config", "", "JSON file mapping external solver names to executable paths")
	budgetPtr := flag.Duration("budget", 60*time.Second, "Time budget per run")
	outPtr := flag.String("out", "benchmark_results.csv", "CSV file to write")
	flag.Parse()

	validator, err := model.NewValidator(model.DefaultShape(), model.Limits{})
	if err != nil {
		log.Fatalf("cannot create validator: %v", err)
	}
	tests := getTests(validator, satisfiableTestDirectory, unsatisfiableTestDirectory)

	paths, err := sat.LoadSolverPaths(*configPtr)
	if err != nil {
		log.Fatalf("cannot load solver paths: %v", err)
	}
	solvers := splitList(*solversPtr)
	strategies := splitList(*strategiesPtr)
	results := make([]BenchmarkResult, 0, len(tests)*len(strategies)*len(solvers))

	for _, test := range tests {
		for _, strategy := range strategies {
			for _, engine := range solvers {
				fmt.Printf("Benchmarking test \"%v\" with strategy \"%v\" and solver \"%v\"\n", test.Name, strategy, engine)

				solver, err := sat.NewSolver(engine, paths)
				if err != nil {
					log.Fatalf("cannot create solver: %v", err)
				}
				timetabler, err := model.NewTimetabler(strategy, solver, *budgetPtr)
				if err != nil {
					log.Fatalf("cannot create timetabler: %v", err)
				}

				result := measure(timetabler, test)
				result.Solver = engine
				result.Strategy = strategy
				results = append(results, result)
			}
		}
	}

	file, err := os.Create(*outPtr)
	if err != nil {
		log.Fatalf("cannot create CSV file: %v", err)
	}
	defer file.Close()
	if err := toCsv(file, results); err != nil {
		log.Fatalf("cannot write CSV file: %v", err)
	}
}

func getTests(validator *model.Validator, satisfiableDirectory, unsatisfiableDirectory string) []TestMetadata {
	tests := make([]TestMetadata, 0)
	for _, tuple := range lo.Zip2([]string{satisfiableDirectory, unsatisfiableDirectory}, []bool{true, false}) {
		directory, satisfiable := tuple.A, tuple.B
		testFiles, err := os.ReadDir(directory)
		if err != nil {
			log.Fatalf("cannot read directory: %v", err)
		}

		for _, file := range testFiles {
			filename := filepath.Join(directory, file.Name())
			request, err := model.RequestFromJson(filename)
			if err != nil {
				log.Fatalf("cannot parse input file: %v", err)
			}
			validation, err := validator.Validate(request)
			if err != nil {
				log.Fatalf("input file %v is rejected before solving: %v", filename, err)
			}
			input := validation.Input

			tests = append(tests, TestMetadata{
				Name:        filename,
				Satisfiable: satisfiable,
				Subjects:    len(input.Subjects),
				Teachers:    len(input.Teachers),
				Pairs:       len(input.Pairs),
				Classrooms:  len(input.Classrooms),
				Lectures:    input.TotalLectures(),
				input:       input,
			})
		}
	}

	return tests
}

// measure runs one build in-process. Memory is the heap allocated during the run.
func measure(timetabler model.Timetabler, test TestMetadata) BenchmarkResult {
	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)

	start := time.Now()
	outcome, err := timetabler.Build(context.Background(), test.input)
	duration := time.Since(start)

	runtime.ReadMemStats(&after)

	result := BenchmarkResult{
		Test:        test,
		Duration:    duration,
		Memory:      float32(after.TotalAlloc-before.TotalAlloc) / MB,
		Variables:   outcome.Variables,
		Constraints: outcome.Constraints,
		Result:      classify(outcome, err, test.Satisfiable),
	}
	if result.Result == solved && timetabler.Verify(outcome.Timetable, test.input) != nil {
		result.Result = wrong
	}
	return result
}

func classify(outcome model.Outcome, err error, satisfiable bool) ResultType {
	switch {
	case err != nil || outcome.Status == sat.StatusModelInvalid:
		return failed
	case outcome.Status.Solved():
		if !satisfiable {
			return wrong
		}
		return solved
	case outcome.Status == sat.StatusInfeasible:
		if satisfiable {
			return wrong
		}
		return unsatisfiable
	default:
		return timeout
	}
}

func toCsv(out io.Writer, results []BenchmarkResult) error {
	writer := csv.NewWriter(out)

	header := []string{"Solver", "Strategy", "Test", "Satisfiable", "Subjects", "Teachers", "Pairs", "Classrooms", "Lectures", "Variables", "Constraints", "Duration(ms)", "Memory(MB)", "Result"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("cannot write CSV header: %w", err)
	}

	for _, result := range results {
		record := []string{
			result.Solver,
			result.Strategy,
			result.Test.Name,
			fmt.Sprintf("%v", result.Test.Satisfiable),
			fmt.Sprintf("%d", result.Test.Subjects),
			fmt.Sprintf("%d", result.Test.Teachers),
			fmt.Sprintf("%d", result.Test.Pairs),
			fmt.Sprintf("%d", result.Test.Classrooms),
			fmt.Sprintf("%d", result.Test.Lectures),
			fmt.Sprintf("%d", result.Variables),
			fmt.Sprintf("%d", result.Constraints),
			fmt.Sprintf("%d", result.Duration.Milliseconds()),
			fmt.Sprintf("%.1f", result.Memory),
			resultTypes[result.Result],
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("cannot write CSV record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func splitList(raw string) []string {
	return lo.Compact(lo.Map(strings.Split(raw, ","), func(item string, _ int) string {
		return strings.ToLower(strings.TrimSpace(item))
	}))
}
