// Package export writes analysis reports as CSV and JSON bundles.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-analyzer/internal/analysis"
	"github.com/dgnsrekt/gex-analyzer/internal/staging"
)

var ErrNoData = errors.New("no data to export")

const (
	ExposuresFile = "gamma_exposures.csv"
	WallsFile     = "walls.csv"
	MetricsFile   = "metrics.csv"
	ReportFile    = "report.json"
	SummaryFile   = "export_summary.txt"
)

// Exporter writes each report into its own directory under the output
// root. Files are staged first and only appear once all are written.
type Exporter struct {
	staging      *staging.Manager
	withMetadata bool
	logger       *zap.Logger
}

func New(outputDir string, withMetadata bool, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{
		staging:      staging.NewManager(outputDir),
		withMetadata: withMetadata,
		logger:       logger,
	}
}

// BundleID names the directory for r: symbol, generation time and a short
// report ID so repeated runs never collide.
func BundleID(r *analysis.Report) string {
	id := r.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s_%s_%s", strings.ToUpper(r.Symbol), r.GeneratedAt.UTC().Format("20060102_150405"), id)
}

// Export writes the bundle and returns its final directory.
func (e *Exporter) Export(r *analysis.Report) (string, error) {
	id := BundleID(r)
	if err := e.staging.PrepareStaging(id); err != nil {
		return "", fmt.Errorf("preparing staging: %w", err)
	}

	files, err := e.writeAll(id, r)
	if err != nil {
		_ = e.staging.CleanupStaging(id)
		return "", err
	}

	if err := e.staging.CommitStaging(id); err != nil {
		_ = e.staging.CleanupStaging(id)
		return "", err
	}

	dir := e.staging.BundleDir(id)
	e.logger.Info("exported report",
		zap.String("symbol", r.Symbol),
		zap.String("dir", dir),
		zap.Strings("files", files))
	return dir, nil
}

func (e *Exporter) writeAll(id string, r *analysis.Report) ([]string, error) {
	var files []string
	write := func(name string, fn func(io.Writer) error) error {
		if _, err := e.staging.WriteToStaging(id, name, fn); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		files = append(files, name)
		return nil
	}

	if len(r.Exposures) > 0 {
		if err := write(ExposuresFile, func(w io.Writer) error {
			return WriteExposuresCSV(w, r.Symbol, r.Exposures, r.GeneratedAt, e.withMetadata)
		}); err != nil {
			return nil, err
		}
	}
	if len(r.Walls.CallWalls)+len(r.Walls.PutWalls) > 0 {
		if err := write(WallsFile, func(w io.Writer) error {
			return WriteWallsCSV(w, r.Symbol, r.Walls, r.GeneratedAt, e.withMetadata)
		}); err != nil {
			return nil, err
		}
	}
	if r.Summary != nil {
		if err := write(MetricsFile, func(w io.Writer) error {
			return WriteMetricsCSV(w, r.Symbol, r.Summary, r.GeneratedAt, e.withMetadata)
		}); err != nil {
			return nil, err
		}
	}
	if err := write(ReportFile, func(w io.Writer) error {
		return WriteReportJSON(w, r)
	}); err != nil {
		return nil, err
	}

	sort.Strings(files)
	if err := write(SummaryFile, func(w io.Writer) error {
		return WriteSummary(w, r, files)
	}); err != nil {
		return nil, err
	}
	return files, nil
}

func WriteReportJSON(w io.Writer, r *analysis.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

// WriteSummary writes a plain-text index of the bundle.
func WriteSummary(w io.Writer, r *analysis.Report, files []string) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s Gamma Exposure - Export Summary\n", r.Symbol))
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")
	sb.WriteString(fmt.Sprintf("Report ID: %s\n", r.ID))
	sb.WriteString(fmt.Sprintf("Export Date: %s\n", r.GeneratedAt.Format(timestampLayout)))
	sb.WriteString(fmt.Sprintf("Current Price: %s\n\n", formatFixed(r.Spot, pricePlaces)))

	sb.WriteString("Exported Files:\n")
	sb.WriteString(strings.Repeat("-", 20) + "\n")
	for _, f := range files {
		sb.WriteString(f + "\n")
	}

	sb.WriteString("\nData Summary:\n")
	sb.WriteString(strings.Repeat("-", 20) + "\n")
	if s := r.Summary; s != nil {
		sb.WriteString(fmt.Sprintf("Total Strikes: %d\n", s.DataQuality.TotalStrikes))
		sb.WriteString(fmt.Sprintf("Strikes with Exposure: %d\n", s.DataQuality.StrikesWithExposure))
		sb.WriteString(fmt.Sprintf("Total Open Interest: %s\n", formatGrouped(float64(s.DataQuality.TotalOpenInterest))))
		sb.WriteString(fmt.Sprintf("Total Net Gamma: %s\n", formatGrouped(s.CoreMetrics.TotalNetGamma)))
		sb.WriteString(fmt.Sprintf("Gamma Weighted Avg Strike: %s\n", formatFixed(s.CoreMetrics.GammaWeightedAvgStrike, 0)))
	}
	sb.WriteString(fmt.Sprintf("Environment: %s\n", r.Environment.Description))
	if len(r.Skipped) > 0 {
		sb.WriteString(fmt.Sprintf("Skipped Contracts: %d\n", len(r.Skipped)))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
