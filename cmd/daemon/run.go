package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-analyzer/internal/analysis"
	"github.com/dgnsrekt/gex-analyzer/internal/api"
	"github.com/dgnsrekt/gex-analyzer/internal/batch"
	"github.com/dgnsrekt/gex-analyzer/internal/config"
	"github.com/dgnsrekt/gex-analyzer/internal/export"
	"github.com/dgnsrekt/gex-analyzer/internal/notify"
)

// executeBatch analyzes every configured symbol once and notifies on the
// outcome. Returns the batch result and any error that occurred.
func executeBatch(ctx context.Context, cfg *config.Config, withExport bool, notifier notify.Notifier, session string, logger *zap.Logger) (*batch.BatchResult, error) {
	logger.Info("starting batch analysis", zap.String("session", session))
	start := time.Now()

	client := api.NewClient(
		cfg.Source.BaseURL,
		cfg.Source.APIKey,
		cfg.Source.RatePerSecond,
		cfg.Source.Timeout(),
		cfg.Source.RetryDelayDuration(),
		cfg.Source.RetryCount,
		logger,
	)

	analyzer, err := analysis.New(cfg.Analysis(), logger)
	if err != nil {
		return nil, err
	}

	var exporter batch.Exporter
	if withExport {
		exporter = export.New(cfg.Output.Directory, cfg.Output.IncludeMetadata, logger)
	}

	symbols := cfg.Batch.Symbols
	if len(symbols) == 0 {
		symbols = config.DefaultSymbols
	}
	tasks := batch.TasksFor(symbols, cfg.Batch.Expiry)
	logger.Info("generated tasks", zap.Int("count", len(tasks)))

	mgr := batch.NewManager(client, analyzer, exporter, cfg.Batch.Workers, logger)
	result, err := mgr.Execute(ctx, tasks)
	duration := time.Since(start)

	if err == nil && result.Failed > 0 {
		err = fmt.Errorf("%d analyses failed", result.Failed)
	}

	if result != nil {
		logger.Info("batch complete",
			zap.Int("total", result.Total),
			zap.Int("success", result.Success),
			zap.Int("not_found", result.NotFound),
			zap.Int("failed", result.Failed),
		)
		for _, e := range result.Errors {
			logger.Error("analysis error", zap.String("error", e))
		}
	}

	if err != nil {
		if result == nil {
			result = &batch.BatchResult{Total: len(tasks)}
		}
		if nerr := notifier.SendFailure(context.Background(), result, session, duration, err); nerr != nil {
			logger.Warn("failed to send failure notification", zap.Error(nerr))
		}
		return result, err
	}

	if nerr := notifier.SendSuccess(ctx, result, session, duration); nerr != nil {
		logger.Warn("failed to send success notification", zap.Error(nerr))
	}
	return result, nil
}
