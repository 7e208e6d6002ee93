package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/limaJavier/timetabler/pkg/model"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env  string
	Port int

	CORS     CORSConfig
	Log      LogConfig
	Schedule model.Shape
	Solver   SolverConfig
	Limits   model.Limits
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SolverConfig selects the engine and bounds how many solves run at once.
type SolverConfig struct {
	Engine        string
	Strategy      string
	TimeBudget    time.Duration
	MaxConcurrent int
	QueueTimeout  time.Duration
	// ConfigFile maps external solver names to executables, see sat.LoadSolverPaths.
	ConfigFile string
}

// Load reads .env when present and lets the environment override it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Schedule = model.Shape{
		Days:           v.GetInt("SCHEDULE_DAYS"),
		SlotsPerDay:    v.GetInt("SCHEDULE_SLOTS_PER_DAY"),
		LunchSlot:      v.GetInt("SCHEDULE_LUNCH_SLOT"),
		MaxConsecutive: v.GetInt("SCHEDULE_MAX_CONSECUTIVE"),
	}

	maxConcurrent := v.GetInt("SOLVER_MAX_CONCURRENT")
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	cfg.Solver = SolverConfig{
		Engine:        strings.ToLower(v.GetString("SOLVER_ENGINE")),
		Strategy:      strings.ToLower(v.GetString("SOLVER_STRATEGY")),
		TimeBudget:    parseDuration(v.GetString("SOLVER_TIME_BUDGET"), 30*time.Second),
		MaxConcurrent: maxConcurrent,
		QueueTimeout:  parseDuration(v.GetString("SOLVER_QUEUE_TIMEOUT"), 5*time.Second),
		ConfigFile:    v.GetString("SOLVER_CONFIG_FILE"),
	}

	cfg.Limits = model.Limits{
		MaxSubjects:   v.GetInt("LIMIT_MAX_SUBJECTS"),
		MaxTeachers:   v.GetInt("LIMIT_MAX_TEACHERS"),
		MaxClassrooms: v.GetInt("LIMIT_MAX_CLASSROOMS"),
		MaxClauses:    v.GetInt("LIMIT_MAX_CLAUSES"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	shape := model.DefaultShape()

	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULE_DAYS", shape.Days)
	v.SetDefault("SCHEDULE_SLOTS_PER_DAY", shape.SlotsPerDay)
	v.SetDefault("SCHEDULE_LUNCH_SLOT", shape.LunchSlot)
	v.SetDefault("SCHEDULE_MAX_CONSECUTIVE", shape.MaxConsecutive)

	v.SetDefault("SOLVER_ENGINE", "gini")
	v.SetDefault("SOLVER_STRATEGY", model.StrategyEmbedded)
	v.SetDefault("SOLVER_TIME_BUDGET", "30s")
	v.SetDefault("SOLVER_MAX_CONCURRENT", 2)
	v.SetDefault("SOLVER_QUEUE_TIMEOUT", "5s")
	v.SetDefault("SOLVER_CONFIG_FILE", "")

	limits := model.DefaultLimits()
	v.SetDefault("LIMIT_MAX_SUBJECTS", limits.MaxSubjects)
	v.SetDefault("LIMIT_MAX_TEACHERS", limits.MaxTeachers)
	v.SetDefault("LIMIT_MAX_CLASSROOMS", limits.MaxClassrooms)
	v.SetDefault("LIMIT_MAX_CLAUSES", limits.MaxClauses)
}

// viper reports a missing explicit config file as a path error, not ConfigFileNotFoundError.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
