package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-analyzer/internal/chain"
)

func convertCmd() *cobra.Command {
	var (
		to   string
		keep bool
	)

	cmd := &cobra.Command{
		Use:   "convert PATH",
		Short: "Convert chain files between formats",
		Long: `Convert chain files to another format.

PATH is a single file or a directory; directories are walked and every
chain file not already in the target format is converted. Originals are
deleted after a successful conversion unless --keep is set.

Examples:
  # Compress a CSV export
  gex convert --to jsonl.zst chain.csv

  # Convert every file under data/
  gex convert --to jsonl data/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := chain.Format(strings.TrimPrefix(to, "."))
			switch target {
			case chain.FormatJSON, chain.FormatJSONL, chain.FormatJSONLZstd:
			default:
				return fmt.Errorf("%w: cannot convert to %q", chain.ErrUnsupportedFormat, to)
			}
			return convertChains(args[0], target, keep)
		},
	}

	cmd.Flags().StringVar(&to, "to", string(chain.FormatJSONLZstd), "target format: json, jsonl or jsonl.zst")
	cmd.Flags().BoolVar(&keep, "keep", false, "keep the original files")

	return cmd
}

func convertChains(root string, target chain.Format, keep bool) error {
	var converted, skipped, failed int

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Skip directories, staging areas and non-chain files
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".staging") {
				return filepath.SkipDir
			}
			return nil
		}
		format, err := chain.FormatOf(path)
		if err != nil || format == target {
			return nil
		}

		outPath := convertedPath(path, format, target)

		// Skip if the target already exists
		if _, err := os.Stat(outPath); err == nil {
			logger.Debug("skipping, target exists", zap.String("file", path))
			skipped++
			return nil
		}

		logger.Info("converting", zap.String("file", path), zap.String("to", outPath))

		if err := convertFile(path, outPath); err != nil {
			logger.Error("conversion failed", zap.String("file", path), zap.Error(err))
			failed++
			return nil // Continue with other files
		}

		if !keep {
			if err := os.Remove(path); err != nil {
				logger.Warn("failed to delete original", zap.String("file", path), zap.Error(err))
			}
		}

		converted++
		return nil
	})

	if err != nil {
		return fmt.Errorf("walking %s: %w", root, err)
	}

	logger.Info("conversion complete",
		zap.Int("converted", converted),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)

	if failed > 0 {
		return fmt.Errorf("%d files failed to convert", failed)
	}

	return nil
}

// convertedPath swaps the format extension, e.g. a.csv -> a.jsonl.zst.
func convertedPath(path string, from, to chain.Format) string {
	base := path
	lower := strings.ToLower(path)
	for _, ext := range []string{"." + string(from), ".zst"} {
		if strings.HasSuffix(lower, ext) {
			base = path[:len(path)-len(ext)]
			break
		}
	}
	return base + "." + string(to)
}

func convertFile(inPath, outPath string) error {
	c, err := chain.LoadFile(inPath, logger)
	if err != nil {
		return err
	}
	return chain.SaveFile(outPath, c)
}
