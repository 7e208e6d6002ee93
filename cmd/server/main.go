package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/limaJavier/timetabler/internal/config"
	"github.com/limaJavier/timetabler/internal/logger"
	"github.com/limaJavier/timetabler/internal/server"
	"github.com/limaJavier/timetabler/internal/service"
	"github.com/limaJavier/timetabler/pkg/model"
	"github.com/limaJavier/timetabler/pkg/sat"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	paths, err := sat.LoadSolverPaths(cfg.Solver.ConfigFile)
	if err != nil {
		logr.Fatal("failed to load solver paths", zap.Error(err))
	}
	solver, err := sat.NewSolver(cfg.Solver.Engine, paths)
	if err != nil {
		logr.Fatal("failed to init solver", zap.Error(err))
	}
	validator, err := model.NewValidator(cfg.Schedule, cfg.Limits)
	if err != nil {
		logr.Fatal("failed to init validator", zap.Error(err))
	}

	metrics := service.NewMetricsService()
	generator, err := service.NewGeneratorService(validator, solver, service.GeneratorConfig{
		Strategy:      cfg.Solver.Strategy,
		TimeBudget:    cfg.Solver.TimeBudget,
		MaxConcurrent: cfg.Solver.MaxConcurrent,
		QueueTimeout:  cfg.Solver.QueueTimeout,
	}, metrics, logr)
	if err != nil {
		logr.Fatal("failed to init generator", zap.Error(err))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.NewRouter(cfg, logr, generator, metrics),
		ReadHeaderTimeout: 10 * time.Second,
		// A request may queue for a slot and then spend the whole budget solving.
		WriteTimeout: cfg.Solver.QueueTimeout + cfg.Solver.TimeBudget + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting",
			"addr", addr,
			"env", cfg.Env,
			"engine", solver.Name(),
			"strategy", cfg.Solver.Strategy,
			"time_budget", cfg.Solver.TimeBudget,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("shutdown failed", zap.Error(err))
	}
}
