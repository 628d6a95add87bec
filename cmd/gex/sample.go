package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-analyzer/internal/chain"
)

func sampleCmd() *cobra.Command {
	var (
		symbol  string
		spot    float64
		strikes int
		days    int
		seed    uint64
		save    string
		opts    outputOptions
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Analyze a synthetic options chain",
		Long: `Generate a synthetic chain around a price and analyze it.

Strikes span 90%-110% of the price; the expiry is rolled forward to the
next NYSE business day. Defaults come from the sample section of the config.

Examples:
  gex sample
  gex sample --symbol SPY --spot 450 --strikes 30 --days 7
  gex sample --save sample.jsonl.zst`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("spot") {
				spot = cfg.Sample.Spot
			}
			if !cmd.Flags().Changed("strikes") {
				strikes = cfg.Sample.NumStrikes
			}
			if !cmd.Flags().Changed("days") {
				days = cfg.Sample.DaysToExpiry
			}
			if !cmd.Flags().Changed("seed") {
				seed = cfg.Sample.Seed
			}

			gen, err := chain.NewGenerator(strings.ToUpper(symbol), strikes, days, seed)
			if err != nil {
				return err
			}

			now := time.Now()
			c, err := gen.Generate(spot, now)
			if err != nil {
				return err
			}

			if save != "" {
				if err := chain.SaveFile(save, c); err != nil {
					return fmt.Errorf("saving sample chain: %w", err)
				}
				logger.Info("sample chain saved", zap.String("file", save), zap.Int("contracts", len(c.Contracts)))
			}

			return analyzeAndPrint(cmd.Context(), c, now, opts)
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "SPX", "symbol for the synthetic chain")
	cmd.Flags().Float64Var(&spot, "spot", 0, "underlying price")
	cmd.Flags().IntVar(&strikes, "strikes", 0, "number of strikes")
	cmd.Flags().IntVar(&days, "days", 0, "calendar days to expiry")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed")
	cmd.Flags().StringVar(&save, "save", "", "also write the generated chain to this file")
	addOutputFlags(cmd, &opts)

	return cmd
}
