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

func fetchCmd() *cobra.Command {
	var expiry string

	cmd := &cobra.Command{
		Use:   "fetch SYMBOL [OUTPUT]",
		Short: "Download an options chain snapshot",
		Long: `Fetch a chain from the configured source and save it locally.

The output format follows the file extension (.json, .jsonl, .jsonl.zst).
Defaults to SYMBOL_YYYY-MM-DD.json.

Examples:
  gex fetch SPX
  gex fetch SPX spx.jsonl.zst --expiry nearest`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := strings.ToUpper(args[0])
			output := fmt.Sprintf("%s_%s.json", symbol, time.Now().Format("2006-01-02"))
			if len(args) == 2 {
				output = args[1]
			}
			if _, err := chain.FormatOf(output); err != nil {
				return err
			}

			client, err := newAPIClient()
			if err != nil {
				return err
			}

			c, err := client.FetchChain(cmd.Context(), symbol)
			if err != nil {
				return err
			}

			if expiry != "" {
				c, err = batch.Task{Symbol: symbol, Expiry: expiry}.Select(c)
				if err != nil {
					return err
				}
			}

			if err := chain.SaveFile(output, c); err != nil {
				return fmt.Errorf("saving chain: %w", err)
			}

			s := c.Summary()
			logger.Info("chain saved",
				zap.String("file", output),
				zap.Int("contracts", s.TotalContracts),
				zap.Int("strikes", s.UniqueStrikes),
				zap.Int("expiries", s.UniqueExpiries),
			)
			fmt.Printf("Saved %d contracts for %s to %s\n", s.TotalContracts, symbol, output)
			return nil
		},
	}

	cmd.Flags().StringVar(&expiry, "expiry", "", "restrict to an expiry: nearest or YYYY-MM-DD")

	return cmd
}
