package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-analyzer/internal/config"
	"github.com/dgnsrekt/gex-analyzer/internal/notify"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Setup logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Error("failed to load .env", zap.Error(err))
		return 1
	}

	// Load daemon config
	daemonCfg, err := LoadDaemonConfig()
	if err != nil {
		logger.Error("failed to load daemon config", zap.Error(err))
		return 1
	}

	logger.Info("daemon configuration loaded",
		zap.Int("scheduleHour", daemonCfg.ScheduleHour),
		zap.Int("scheduleMinute", daemonCfg.ScheduleMinute),
		zap.String("timezone", daemonCfg.Timezone),
		zap.String("configPath", daemonCfg.ConfigPath),
		zap.String("stateFile", daemonCfg.StateFile),
		zap.Bool("runOnStartup", daemonCfg.RunOnStartup),
		zap.Bool("export", daemonCfg.Export),
	)

	// Load analyzer config
	cfg, err := config.Load(daemonCfg.ConfigPath)
	if err != nil {
		logger.Error("failed to load analyzer config", zap.Error(err))
		return 1
	}
	if err := cfg.RequireSource(); err != nil {
		logger.Error("invalid source configuration", zap.Error(err))
		return 1
	}

	notifyCfg := notify.LoadConfig()
	if err := notifyCfg.Validate(); err != nil {
		logger.Error("invalid notification configuration", zap.Error(err))
		return 1
	}
	notifier := notify.New(notifyCfg, logger)

	logger.Info("analyzer configuration loaded",
		zap.String("outputDir", cfg.Output.Directory),
		zap.Int("workers", cfg.Batch.Workers),
		zap.Strings("symbols", cfg.Batch.Symbols),
		zap.String("expiry", cfg.Batch.Expiry),
		zap.Bool("notifications", notifyCfg.Enabled),
	)

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	scheduler := NewScheduler(daemonCfg.ScheduleHour, daemonCfg.ScheduleMinute, daemonCfg.Timezone)
	tracker := NewRunTracker(daemonCfg.StateFile)

	logger.Info("daemon started",
		zap.String("schedule", fmt.Sprintf("%02d:%02d %s", daemonCfg.ScheduleHour, daemonCfg.ScheduleMinute, daemonCfg.Timezone)),
		zap.String("lastRun", tracker.LastRun()),
	)

	tick := func(now time.Time) {
		if !scheduler.Due(now, tracker.LastRun()) {
			return
		}
		session := scheduler.SessionDate(now)
		if _, err := executeBatch(ctx, cfg, daemonCfg.Export, notifier, session, logger); err != nil {
			logger.Error("batch failed", zap.Error(err), zap.String("session", session))
			return
		}
		// Update tracker to prevent a second run for this session
		if err := tracker.SetLastRun(session); err != nil {
			logger.Error("failed to update tracker", zap.Error(err))
		}
	}

	if daemonCfg.RunOnStartup {
		logger.Info("checking for missed session on startup")
		tick(time.Now())
	}

	// Main loop - check every minute
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			tick(now)

		case <-ctx.Done():
			logger.Info("received shutdown signal, shutting down")
			return 0
		}
	}
}
