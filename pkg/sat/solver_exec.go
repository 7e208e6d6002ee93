package sat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Arguments each known binary needs to read DIMACS from stdin and print a
// competition-format model on stdout.
var defaultArguments = map[string][]string{
	"kissat":        {"-q", "--relaxed"},
	"cadical":       {"-q"},
	"cryptominisat": {"--verb=0"},
}

type execSolver struct {
	name      string
	path      string
	arguments []string
}

// NewExecSolver wraps an external competition-format binary: DIMACS is fed on
// stdin, exit code 10 means satisfiable and 20 unsatisfiable.
func NewExecSolver(name, path string, arguments ...string) SATSolver {
	if len(arguments) == 0 {
		arguments = defaultArguments[name]
	}
	return &execSolver{name: name, path: path, arguments: arguments}
}

func (solver *execSolver) Name() string { return execPrefix + solver.name }

func (solver *execSolver) Solve(ctx context.Context, instance SAT) (Result, error) {
	dimacs := instance.ToDIMACS() // Transform SAT into DIMACS-CNF string format

	cmd := exec.CommandContext(ctx, solver.path, solver.arguments...)
	cmd.Stdin = strings.NewReader(dimacs)

	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() != nil {
		return Result{Status: StatusUnknown}, nil
	}
	if cmd.ProcessState == nil {
		return Result{}, fmt.Errorf("cannot start %v: %w", solver.name, err)
	}

	switch cmd.ProcessState.ExitCode() {
	case 10:
		solution, err := parseSolution(stdOut.String())
		if err != nil {
			return Result{}, err
		}
		return Result{Status: StatusFeasible, Solution: solution}, nil
	case 20:
		return Result{Status: StatusInfeasible}, nil
	default:
		if err == nil {
			err = errors.New("no verdict")
		}
		return Result{}, fmt.Errorf("an error occurred during %v execution: %v : %v", solver.name, err, stderr.String())
	}
}
