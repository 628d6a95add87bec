package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-analyzer/internal/analysis"
	"github.com/dgnsrekt/gex-analyzer/internal/api"
	"github.com/dgnsrekt/gex-analyzer/internal/chain"
	"github.com/dgnsrekt/gex-analyzer/internal/export"
)

// outputOptions are shared by every command that produces a report.
type outputOptions struct {
	jsonOut   bool
	export    bool
	outputDir string
}

func addOutputFlags(cmd *cobra.Command, opts *outputOptions) {
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print the full report as JSON instead of text")
	cmd.Flags().BoolVar(&opts.export, "export", false, "write CSV/JSON export bundle")
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "export directory (default from config)")
}

func newAnalyzer() (*analysis.Analyzer, error) {
	return analysis.New(cfg.Analysis(), logger)
}

func newExporter(opts outputOptions) *export.Exporter {
	dir := cfg.Output.Directory
	if opts.outputDir != "" {
		dir = opts.outputDir
	}
	return export.New(dir, cfg.Output.IncludeMetadata, logger)
}

func newAPIClient() (*api.HTTPClient, error) {
	if err := cfg.RequireSource(); err != nil {
		return nil, err
	}
	return api.NewClient(
		cfg.Source.BaseURL,
		cfg.Source.APIKey,
		cfg.Source.RatePerSecond,
		cfg.Source.Timeout(),
		cfg.Source.RetryDelayDuration(),
		cfg.Source.RetryCount,
		logger,
	), nil
}

// analyzeAndPrint runs the pipeline on c, prints the result and optionally
// exports it.
func analyzeAndPrint(ctx context.Context, c *chain.Chain, now time.Time, opts outputOptions) error {
	analyzer, err := newAnalyzer()
	if err != nil {
		return err
	}

	report, err := analyzer.Analyze(ctx, c, now)
	if err != nil {
		return err
	}

	for _, s := range report.Skipped {
		logger.Debug("skipped contract", zap.Float64("strike", s.Contract.Strike), zap.String("reason", s.Reason))
	}

	if opts.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
	} else {
		fmt.Print(renderReport(report, now))
	}

	if opts.export {
		dir, err := newExporter(opts).Export(report)
		if err != nil {
			return fmt.Errorf("exporting report: %w", err)
		}
		logger.Info("report exported", zap.String("dir", dir))
		if !opts.jsonOut {
			fmt.Printf("\nExported to %s\n", dir)
		}
	}

	return nil
}
