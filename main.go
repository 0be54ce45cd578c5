package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ringpulse/config"
	"ringpulse/health"
	"ringpulse/insight"
	"ringpulse/logging"
	"ringpulse/monitor"
	"ringpulse/store"
)

func main() {
	cfg, err := config.Load(configPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to open database", zap.String("path", cfg.Database.Path), zap.Error(err))
	}
	defer db.Close()
	logger.Info("database ready", zap.String("path", cfg.Database.Path))

	engine, err := insight.NewEngine(insight.Config{
		AnomalyThreshold:   cfg.Analysis.AnomalyThreshold,
		ChangePointWindow:  cfg.Analysis.ChangePointWindow,
		ClusterCount:       cfg.Analysis.ClusterCount,
		PCAComponents:      cfg.Analysis.PCAComponents,
		EigenMaxIterations: cfg.Analysis.EigenMaxIterations,
		CacheSize:          cfg.Analysis.CacheSize,
		Seed:               cfg.Analysis.Seed,
	}, logger.Named("insight"))
	if err != nil {
		logger.Fatal("failed to build engine", zap.Error(err))
	}

	hub := monitor.NewHub(logger.Named("monitor"))
	go hub.Run()
	defer hub.Stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWebSocket)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Monitor.Port),
		Handler: mux,
	}
	go func() {
		logger.Info("monitor listening", zap.Int("port", cfg.Monitor.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("monitor server failed", zap.Error(err))
		}
	}()

	svc := &service{
		logger: logger,
		db:     db,
		engine: engine,
		hub:    hub,
		path:   cfg.Records.Path,
	}
	// Analyze whatever is already there, then follow the file.
	svc.runOnce()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		err := config.Watch(ctx, cfg.Records.Path, svc.runOnce, func(err error) {
			logger.Warn("records watcher error", zap.Error(err))
		})
		if err != nil && err != context.Canceled {
			logger.Error("records watcher stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("monitor server forced down", zap.Error(err))
	}
}

func configPath() string {
	if path := os.Getenv("RINGPULSE_CONFIG"); path != "" {
		return path
	}
	return "config.yaml"
}

type service struct {
	logger *zap.Logger
	db     *store.Store
	engine *insight.Engine
	hub    *monitor.Hub
	path   string
}

// runOnce loads the records file, persists the records, analyzes them, and
// broadcasts the resulting report. Failures are logged, never fatal: a bad
// write to the records file must not take the service down.
func (s *service) runOnce() {
	records, err := loadRecords(s.path)
	if err != nil {
		s.logger.Warn("records not loaded", zap.String("path", s.path), zap.Error(err))
		return
	}
	if err := s.db.SaveRecords(records); err != nil {
		s.logger.Error("records not persisted", zap.Error(err))
	}

	runID, err := s.db.BeginRun(time.Now(), len(records))
	if err != nil {
		s.logger.Error("run not recorded", zap.Error(err))
	}

	report, err := s.engine.Analyze(records)
	if err != nil {
		s.logger.Warn("analysis failed", zap.Int("records", len(records)), zap.Error(err))
		if runID != 0 {
			s.db.FinishRun(runID, time.Now(), 0, "failed")
		}
		return
	}

	if !report.FromCache {
		if err := s.db.SaveInsights(runID, report.Insights); err != nil {
			s.logger.Error("insights not persisted", zap.Error(err))
		}
	}
	if runID != 0 {
		status := "ok"
		if report.FromCache {
			status = "cached"
		}
		if err := s.db.FinishRun(runID, time.Now(), len(report.Insights), status); err != nil {
			s.logger.Error("run not closed", zap.Error(err))
		}
	}

	if err := s.hub.BroadcastReport(report); err != nil {
		s.logger.Warn("report not broadcast", zap.Error(err))
	}
	s.logger.Info("analysis run finished",
		zap.Int("records", len(records)),
		zap.Int("insights", len(report.Insights)),
		zap.Bool("cached", report.FromCache))
}

// loadRecords reads a JSON array of daily records and sorts it by date; the
// exporting app appends out of order after sync gaps.
func loadRecords(path string) ([]health.DailyRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []health.DailyRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
	return records, nil
}
