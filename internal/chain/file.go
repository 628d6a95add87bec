package chain

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-analyzer/internal/staging"
)

// Format is a chain file encoding.
type Format string

const (
	FormatCSV       Format = "csv"
	FormatJSON      Format = "json"
	FormatJSONL     Format = "jsonl"
	FormatJSONLZstd Format = "jsonl.zst"
)

// FormatOf picks the format from a file name.
func FormatOf(path string) (Format, error) {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".jsonl.zst"), strings.HasSuffix(name, ".zst"):
		return FormatJSONLZstd, nil
	case strings.HasSuffix(name, ".jsonl"):
		return FormatJSONL, nil
	case strings.HasSuffix(name, ".json"):
		return FormatJSON, nil
	case strings.HasSuffix(name, ".csv"):
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
}

// LoadFile reads a chain from disk. Only JSON snapshots carry a spot price;
// other formats return Spot 0 and the symbol of the first contract.
func LoadFile(path string, logger *zap.Logger) (*Chain, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat chain file: %w", err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes > %d", ErrTooLarge, info.Size(), MaxFileSize)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening chain file: %w", err)
	}
	defer f.Close()

	c, err := Read(f, format, logger)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", filepath.Base(path), err)
	}
	if c.AsOf.IsZero() {
		c.AsOf = info.ModTime().UTC()
	}
	return c, nil
}

// Read decodes a chain in the given format.
func Read(r io.Reader, format Format, logger *zap.Logger) (*Chain, error) {
	c := &Chain{}
	switch format {
	case FormatCSV:
		res, err := ReadCSV(r, logger)
		if err != nil {
			return nil, err
		}
		c.Contracts = res.Contracts
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(c); err != nil {
			return nil, fmt.Errorf("decoding chain: %w", err)
		}
	case FormatJSONL:
		contracts, err := ReadJSONL(r)
		if err != nil {
			return nil, err
		}
		c.Contracts = contracts
	case FormatJSONLZstd:
		contracts, err := ReadJSONLZstd(r)
		if err != nil {
			return nil, err
		}
		c.Contracts = contracts
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	if len(c.Contracts) == 0 {
		return nil, ErrEmpty
	}
	if c.Symbol == "" {
		c.Symbol = c.Contracts[0].Symbol
	}
	return c, nil
}

// SaveFile atomically writes c in the format implied by path.
func SaveFile(path string, c *Chain) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}

	return staging.WriteFile(path, func(w io.Writer) error {
		switch format {
		case FormatJSON:
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(c)
		case FormatJSONL:
			return WriteJSONL(w, c.Contracts)
		case FormatJSONLZstd:
			return WriteJSONLZstd(w, c.Contracts)
		default:
			return fmt.Errorf("%w: cannot write %s", ErrUnsupportedFormat, format)
		}
	})
}

// WithSpot returns a copy of c priced at spot.
func (c *Chain) WithSpot(spot float64, asOf time.Time) *Chain {
	out := *c
	out.Spot = spot
	if !asOf.IsZero() {
		out.AsOf = asOf
	}
	return &out
}
