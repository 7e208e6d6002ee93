package sat

import (
	"bufio"
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDirectory = "testdata"

func TestGini(t *testing.T) {
	solver := NewGiniSolver()
	t.Run("Fixture instances", func(t *testing.T) {
		fixtureExecution(t, solver)
	})
	t.Run("Random instances", func(t *testing.T) {
		randomExecution(t, solver)
	})
}

func TestGophersat(t *testing.T) {
	solver := NewGophersatSolver()
	t.Run("Fixture instances", func(t *testing.T) {
		fixtureExecution(t, solver)
	})
	t.Run("Random instances", func(t *testing.T) {
		randomExecution(t, solver)
	})
}

func TestKissat(t *testing.T) {
	path, err := exec.LookPath("kissat")
	if err != nil {
		t.Skip("kissat is not installed")
	}
	solver := NewExecSolver("kissat", path)
	t.Run("Fixture instances", func(t *testing.T) {
		fixtureExecution(t, solver)
	})
}

func TestEnginesAgree(t *testing.T) {
	random := rand.New(rand.NewPCG(7, 11))
	for range 40 {
		//** Arrange
		instance := generateSATInstance(random, 12, 50)

		//** Act
		giniResult, err := NewGiniSolver().Solve(context.Background(), instance)
		require.NoError(t, err)
		gophersatResult, err := NewGophersatSolver().Solve(context.Background(), instance)
		require.NoError(t, err)

		//** Assert
		assert.Equal(t, giniResult.Status, gophersatResult.Status)
	}
}

func TestExpiredContext(t *testing.T) {
	instance, err := parseDIMACSFile(filepath.Join(testDirectory, "satisfiable.cnf"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, solver := range []SATSolver{NewGiniSolver(), NewGophersatSolver()} {
		result, err := solver.Solve(ctx, instance)
		require.NoError(t, err)
		assert.Equal(t, StatusUnknown, result.Status, solver.Name())
		assert.Nil(t, result.Solution)
	}
}

func TestGophersatAbandonedSearchIsPending(t *testing.T) {
	// Ten pigeons in nine holes keeps gophersat busy well past the deadline.
	const pigeons, holes = 10, 9
	variable := func(pigeon, hole int) int64 { return int64(pigeon*holes + hole + 1) }
	instance := SAT{Variables: pigeons * holes}
	for pigeon := range pigeons {
		clause := make([]int64, 0, holes)
		for hole := range holes {
			clause = append(clause, variable(pigeon, hole))
		}
		instance.Clauses = append(instance.Clauses, clause)
	}
	for hole := range holes {
		for i := range pigeons {
			for j := i + 1; j < pigeons; j++ {
				instance.Clauses = append(instance.Clauses, []int64{-variable(i, hole), -variable(j, hole)})
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	result, err := NewGophersatSolver().Solve(ctx, instance)

	require.NoError(t, err)
	assert.Equal(t, StatusUnknown, result.Status)
	assert.NotNil(t, result.Pending)

	finished, err := NewGophersatSolver().Solve(context.Background(), SAT{Variables: 1, Clauses: [][]int64{{1}}})
	require.NoError(t, err)
	assert.Nil(t, finished.Pending)
}

func TestMissingBinary(t *testing.T) {
	solver := NewExecSolver("kissat", "/nonexistent/kissat")
	_, err := solver.Solve(context.Background(), SAT{Variables: 1, Clauses: [][]int64{{1}}})
	assert.Error(t, err)
}

func TestNewSolver(t *testing.T) {
	cases := []struct {
		engine string
		name   string
	}{
		{"", EngineGini},
		{"gini", EngineGini},
		{"gophersat", EngineGophersat},
		{"exec:kissat", "exec:kissat"},
	}
	for _, c := range cases {
		solver, err := NewSolver(c.engine, map[string]string{"kissat": "/opt/kissat"})
		require.NoError(t, err)
		assert.Equal(t, c.name, solver.Name())
	}

	_, err := NewSolver("minisat", nil)
	assert.Error(t, err)
	_, err = NewSolver("exec:", nil)
	assert.Error(t, err)
}

func TestLoadSolverPaths(t *testing.T) {
	file := filepath.Join(t.TempDir(), "solvers.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"kissat": "/usr/local/bin/kissat"}`), 0o644))

	paths, err := LoadSolverPaths(file)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"kissat": "/usr/local/bin/kissat"}, paths)

	paths, err = LoadSolverPaths("")
	require.NoError(t, err)
	assert.Empty(t, paths)

	_, err = LoadSolverPaths(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestParseSolution(t *testing.T) {
	output := "c comment\ns SATISFIABLE\nv 1 -2 3\nv -4 5 0\n"
	solution, err := parseSolution(output)
	require.NoError(t, err)
	assert.Equal(t, SATSolution{1, -2, 3, -4, 5}, solution)

	_, err = parseSolution("v 1 x 0\n")
	assert.Error(t, err)
}

func TestToDIMACS(t *testing.T) {
	instance := SAT{Variables: 3, Clauses: [][]int64{{1, -2}, {3}}}
	assert.Equal(t, "p cnf 3 2\n1 -2 0\n3 0\n", instance.ToDIMACS())
}

func fixtureExecution(t *testing.T, solver SATSolver) {
	expected := map[string]Status{
		"satisfiable.cnf":    StatusOptimal,
		"pigeonhole-3-2.cnf": StatusInfeasible,
	}

	for name, status := range expected {
		//** Arrange
		instance, err := parseDIMACSFile(filepath.Join(testDirectory, name))
		require.NoError(t, err)

		//** Act
		result, err := solver.Solve(context.Background(), instance)
		require.NoError(t, err)

		//** Assert
		assert.Equal(t, status.Solved(), result.Status.Solved(), name)
		if status == StatusInfeasible {
			assert.Equal(t, StatusInfeasible, result.Status, name)
		} else {
			assert.True(t, assertSATSolution(instance, result.Solution), name)
		}
	}
}

func randomExecution(t *testing.T, solver SATSolver) {
	random := rand.New(rand.NewPCG(1, 2))
	for range 20 {
		//** Arrange
		instance := generateSATInstance(random, 20, 40)

		//** Act
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		result, err := solver.Solve(ctx, instance)
		cancel()
		require.NoError(t, err)

		//** Assert
		if result.Status.Solved() {
			assert.True(t, assertSATSolution(instance, result.Solution))
		} else {
			assert.Equal(t, StatusInfeasible, result.Status)
		}
	}
}

func generateSATInstance(random *rand.Rand, literals uint64, clauses int) SAT {
	satInstance := SAT{
		Variables: literals,
		Clauses:   make([][]int64, clauses),
	}

	for i := range clauses {
		satInstance.Clauses[i] = make([]int64, 0, 3)
		for range 3 {
			var sign int64 = 1
			if random.Float32() < 0.5 {
				sign = -1
			}
			satInstance.Clauses[i] = append(satInstance.Clauses[i], sign*(1+random.Int64N(int64(literals))))
		}
	}

	return satInstance
}

func parseDIMACSFile(fileName string) (SAT, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return SAT{}, fmt.Errorf("could not open file: %w", err)
	}
	defer file.Close()

	var sat SAT
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "c") {
			continue
		}
		if strings.HasPrefix(line, "p cnf") {
			parts := strings.Fields(line)
			if len(parts) != 4 {
				return SAT{}, fmt.Errorf("invalid problem line: %s", line)
			}
			vars, err := strconv.ParseUint(parts[2], 10, 64)
			if err != nil {
				return SAT{}, fmt.Errorf("invalid variable count: %w", err)
			}
			sat.Variables = vars
			continue
		}

		var clause []int64
		for _, field := range strings.Fields(line) {
			lit, err := strconv.ParseInt(field, 10, 64)
			if err != nil {
				return SAT{}, fmt.Errorf("invalid literal '%s': %w", field, err)
			}
			if lit == 0 {
				break
			}
			clause = append(clause, lit)
		}
		if len(clause) > 0 {
			sat.Clauses = append(sat.Clauses, clause)
		}
	}

	if err := scanner.Err(); err != nil {
		return SAT{}, fmt.Errorf("error reading file: %w", err)
	}
	return sat, nil
}

// assertSATSolution checks the solution is consistent and satisfies every clause.
func assertSATSolution(satInstance SAT, satSolution SATSolution) bool {
	literals := make(map[int64]bool)
	for _, literal := range satSolution {
		if literals[literal] || literals[-literal] {
			return false
		}
		literals[literal] = true
	}

	for _, clause := range satInstance.Clauses {
		satisfied := false
		for _, literal := range clause {
			if literals[literal] {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false
		}
	}

	return true
}
