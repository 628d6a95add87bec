package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-analyzer/internal/batch"
	"github.com/dgnsrekt/gex-analyzer/internal/config"
	"github.com/dgnsrekt/gex-analyzer/internal/notify"
)

func batchCmd() *cobra.Command {
	var (
		dryRun  bool
		symbols []string
		expiry  string
		workers int
		opts    outputOptions
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Fetch and analyze many symbols concurrently",
		Long: `Fetch a chain per symbol from the configured source and analyze each one.

Requires GEX_API_KEY. Symbols and expiry default to the batch section of the
config. When NTFY_ENABLED=true a summary is sent to ntfy on completion.

Examples:
  gex batch
  gex batch --symbols SPX,QQQ --expiry 2025-11-21 --export
  gex batch --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			effectiveSymbols := cfg.Batch.Symbols
			if len(symbols) > 0 {
				effectiveSymbols = symbols
			}
			if len(effectiveSymbols) == 0 {
				effectiveSymbols = config.DefaultSymbols
			}
			if expiry == "" {
				expiry = cfg.Batch.Expiry
			}
			if workers < 1 {
				workers = cfg.Batch.Workers
			}

			// Validate before touching the network
			if err := config.ValidateBatch(effectiveSymbols, expiry); err != nil {
				return err
			}

			tasks := batch.TasksFor(effectiveSymbols, expiry)
			logger.Info("generated tasks", zap.Int("count", len(tasks)))

			if dryRun {
				for _, t := range tasks {
					fmt.Printf("Would analyze: %s\n", t)
				}
				return nil
			}

			notifyCfg := notify.LoadConfig()
			if err := notifyCfg.Validate(); err != nil {
				return err
			}
			notifier := notify.New(notifyCfg, logger)

			client, err := newAPIClient()
			if err != nil {
				return err
			}
			analyzer, err := newAnalyzer()
			if err != nil {
				return err
			}

			var exporter batch.Exporter
			if opts.export {
				exporter = newExporter(opts)
			}

			start := time.Now()
			mgr := batch.NewManager(client, analyzer, exporter, workers, logger)
			result, runErr := mgr.Execute(ctx, tasks)
			duration := time.Since(start)

			if result != nil {
				if err := printBatch(result, opts.jsonOut); err != nil {
					return err
				}
			}

			return finishBatch(ctx, notifier, result, expiry, duration, runErr)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be analyzed")
	cmd.Flags().StringSliceVar(&symbols, "symbols", nil, "override symbols from config")
	cmd.Flags().StringVar(&expiry, "expiry", "", "expiry selector: all, nearest or YYYY-MM-DD")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent analyses (default from config)")
	addOutputFlags(cmd, &opts)

	return cmd
}

func printBatch(result *batch.BatchResult, jsonOut bool) error {
	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Headlines())
	}
	for _, h := range result.Headlines() {
		fmt.Println(notify.FormatHeadline(h))
	}
	return nil
}

// finishBatch logs the outcome, sends the notification and turns failures
// into the command's error.
func finishBatch(ctx context.Context, notifier notify.Notifier, result *batch.BatchResult, label string, duration time.Duration, runErr error) error {
	if result == nil {
		result = &batch.BatchResult{}
	}

	logger.Info("batch complete",
		zap.Int("total", result.Total),
		zap.Int("success", result.Success),
		zap.Int("not_found", result.NotFound),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", duration),
	)

	if runErr == nil && result.Failed == 0 {
		if err := notifier.SendSuccess(ctx, result, label, duration); err != nil {
			logger.Warn("failed to send success notification", zap.Error(err))
		}
		return nil
	}

	for _, e := range result.Errors {
		logger.Error("analysis error", zap.String("error", e))
	}

	// The run context may already be cancelled
	notifyCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := notifier.SendFailure(notifyCtx, result, label, duration, runErr); err != nil {
		logger.Warn("failed to send failure notification", zap.Error(err))
	}

	if runErr != nil {
		return runErr
	}
	return fmt.Errorf("%d analyses failed", result.Failed)
}
