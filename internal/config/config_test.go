package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limaJavier/timetabler/pkg/model"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, model.DefaultShape(), cfg.Schedule)
	assert.Equal(t, SolverConfig{
		Engine:        "gini",
		Strategy:      model.StrategyEmbedded,
		TimeBudget:    30 * time.Second,
		MaxConcurrent: 2,
		QueueTimeout:  5 * time.Second,
	}, cfg.Solver)
	assert.Equal(t, model.DefaultLimits(), cfg.Limits)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SCHEDULE_DAYS", "6")
	t.Setenv("SCHEDULE_LUNCH_SLOT", "3")
	t.Setenv("SOLVER_ENGINE", "EXEC:kissat")
	t.Setenv("SOLVER_STRATEGY", "postponed")
	t.Setenv("SOLVER_TIME_BUDGET", "2s")
	t.Setenv("SOLVER_QUEUE_TIMEOUT", "not-a-duration")
	t.Setenv("SOLVER_MAX_CONCURRENT", "0")
	t.Setenv("LIMIT_MAX_CLAUSES", "5000")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, ,http://b.example")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Schedule.Days)
	assert.Equal(t, 3, cfg.Schedule.LunchSlot)
	assert.Equal(t, "exec:kissat", cfg.Solver.Engine)
	assert.Equal(t, model.StrategyPostponed, cfg.Solver.Strategy)
	assert.Equal(t, 2*time.Second, cfg.Solver.TimeBudget)
	assert.Equal(t, 5*time.Second, cfg.Solver.QueueTimeout)
	assert.Equal(t, 1, cfg.Solver.MaxConcurrent)
	assert.Equal(t, 5000, cfg.Limits.MaxClauses)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORS.AllowedOrigins)
}
