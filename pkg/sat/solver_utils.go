package sat

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
)

const (
	EngineGini      = "gini"
	EngineGophersat = "gophersat"

	execPrefix = "exec:"
)

// NewSolver resolves an engine name. Names of the form "exec:<binary>" look the
// binary up in paths, falling back to the binary name itself so PATH lookup applies.
func NewSolver(engine string, paths map[string]string) (SATSolver, error) {
	switch {
	case engine == "" || engine == EngineGini:
		return NewGiniSolver(), nil
	case engine == EngineGophersat:
		return NewGophersatSolver(), nil
	case strings.HasPrefix(engine, execPrefix):
		name := strings.TrimPrefix(engine, execPrefix)
		if name == "" {
			return nil, fmt.Errorf("engine %q names no binary", engine)
		}
		path, ok := paths[name]
		if !ok {
			path = name
		}
		return NewExecSolver(name, path), nil
	default:
		return nil, fmt.Errorf("unknown solver engine %q", engine)
	}
}

// LoadSolverPaths reads a JSON object mapping binary names to executable paths.
func LoadSolverPaths(file string) (map[string]string, error) {
	if file == "" {
		return map[string]string{}, nil
	}
	bytes, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("cannot read solver config: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(bytes, &raw); err != nil {
		return nil, fmt.Errorf("cannot parse solver config: %w", err)
	}

	var paths map[string]string
	if err := mapstructure.Decode(raw, &paths); err != nil {
		return nil, fmt.Errorf("invalid solver config: %w", err)
	}
	return paths, nil
}

func parseSolution(solverOutput string) (SATSolution, error) {
	fields := lo.FlatMap(
		lo.Filter(strings.Split(solverOutput, "\n"), func(line string, _ int) bool {
			return len(line) > 0 && line[0] == 'v'
		}),
		func(line string, _ int) []string {
			return strings.Fields(line[1:])
		},
	)

	solution := make(SATSolution, 0, len(fields))
	for _, field := range fields {
		value, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid literal in solver output: %v", err)
		}
		if value == 0 {
			break
		}
		solution = append(solution, value)
	}
	return solution, nil
}
