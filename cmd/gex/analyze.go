package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-analyzer/internal/batch"
	"github.com/dgnsrekt/gex-analyzer/internal/chain"
)

func analyzeCmd() *cobra.Command {
	var (
		spot   float64
		symbol string
		expiry string
		opts   outputOptions
	)

	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Analyze an options chain file",
		Long: `Compute gamma exposure, walls and market metrics for an options chain.

Supported formats: .csv, .json (snapshot with spot), .jsonl, .jsonl.zst

CSV files need the columns strike, expiry_date, option_type and
open_interest. Formats without a spot price require --spot.

Examples:
  # Analyze a JSON snapshot
  gex analyze spx.json

  # Analyze a CSV export at a given price
  gex analyze --spot 4500 chain.csv

  # Only the nearest expiry, with a CSV/JSON export bundle
  gex analyze --spot 4500 --expiry nearest --export chain.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := chain.LoadFile(args[0], logger)
			if err != nil {
				return err
			}

			if symbol != "" {
				c.Symbol = strings.ToUpper(symbol)
			}
			if spot != 0 {
				c = c.WithSpot(spot, time.Time{})
			}
			if !(c.Spot > 0) {
				return fmt.Errorf("%s has no spot price; pass --spot", args[0])
			}

			if expiry != "" {
				c, err = batch.Task{Symbol: c.Symbol, Expiry: expiry}.Select(c)
				if err != nil {
					return err
				}
			}

			logger.Info("chain loaded",
				zap.String("file", args[0]),
				zap.String("symbol", c.Symbol),
				zap.Int("contracts", len(c.Contracts)),
				zap.Float64("spot", c.Spot),
			)

			return analyzeAndPrint(cmd.Context(), c, time.Now(), opts)
		},
	}

	cmd.Flags().Float64Var(&spot, "spot", 0, "current underlying price (overrides the file)")
	cmd.Flags().StringVar(&symbol, "symbol", "", "override the chain symbol")
	cmd.Flags().StringVar(&expiry, "expiry", "", "restrict to an expiry: nearest or YYYY-MM-DD")
	addOutputFlags(cmd, &opts)

	return cmd
}
