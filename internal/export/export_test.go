package export

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-analyzer/internal/analysis"
	"github.com/dgnsrekt/gex-analyzer/internal/chain"
	"github.com/dgnsrekt/gex-analyzer/internal/gamma"
	"github.com/dgnsrekt/gex-analyzer/internal/walls"
)

var testNow = time.Date(2025, 11, 14, 16, 0, 0, 0, time.UTC)

func sampleReport(t *testing.T) *analysis.Report {
	t.Helper()
	gen, err := chain.NewGenerator("SPX", 20, 30, 11)
	require.NoError(t, err)
	c, err := gen.Generate(4500, testNow)
	require.NoError(t, err)

	a, err := analysis.New(analysis.DefaultConfig(), zap.NewNop())
	require.NoError(t, err)
	r, err := a.Analyze(context.Background(), c, testNow)
	require.NoError(t, err)
	return r
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "1234.50", formatFixed(1234.5, 2))
	assert.Equal(t, "-0.13", formatFixed(-0.126, 2))
	assert.Equal(t, "+Inf", formatFixed(math.Inf(1), 2))
	assert.Equal(t, "-1,234,568", formatGrouped(-1234567.5))
	assert.Equal(t, "999", formatGrouped(999))
	assert.Equal(t, "1,000", formatGrouped(1000))
}

func TestWriteExposuresCSV(t *testing.T) {
	var buf bytes.Buffer
	exposures := []gamma.StrikeExposure{
		{Strike: 4500, CallExposure: -1000.256, PutExposure: 500, NetExposure: -500.256, TotalOpenInterest: 10},
	}

	require.NoError(t, WriteExposuresCSV(&buf, "SPX", exposures, testNow, true))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "# SPX Gamma Exposure Data Export\n"))
	assert.Contains(t, out, "strike,call_gamma_exposure,put_gamma_exposure,net_gamma_exposure,total_open_interest\n")
	assert.Contains(t, out, "4500.00,-1000.26,500.00,-500.26,10\n")

	buf.Reset()
	require.NoError(t, WriteExposuresCSV(&buf, "SPX", exposures, testNow, false))
	assert.True(t, strings.HasPrefix(buf.String(), "strike,"))

	assert.ErrorIs(t, WriteExposuresCSV(&buf, "SPX", nil, testNow, true), ErrNoData)
}

func TestWriteWallsCSV(t *testing.T) {
	var buf bytes.Buffer
	found := walls.Walls{
		CallWalls: []walls.Level{{Strike: 4600, ExposureValue: -50, Type: walls.CallWall, DistanceFromSpot: 100, SignificanceRank: 1}},
		PutWalls: []walls.Level{
			{Strike: 4400, ExposureValue: 70, Type: walls.PutWall, DistanceFromSpot: 100, SignificanceRank: 2},
			{Strike: 4450, ExposureValue: 90, Type: walls.PutWall, DistanceFromSpot: 50, SignificanceRank: 1},
		},
	}

	require.NoError(t, WriteWallsCSV(&buf, "SPX", found, testNow, false))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "call_wall,4600.00,-50.00,100.00,1", lines[1])
	assert.Equal(t, "put_wall,4450.00,90.00,50.00,1", lines[2])
	assert.Equal(t, "put_wall,4400.00,70.00,100.00,2", lines[3])

	assert.ErrorIs(t, WriteWallsCSV(&buf, "SPX", walls.Walls{}, testNow, false), ErrNoData)
}

func TestWriteMetricsCSV(t *testing.T) {
	r := sampleReport(t)

	var buf bytes.Buffer
	require.NoError(t, WriteMetricsCSV(&buf, "SPX", r.Summary, testNow, true))
	out := buf.String()
	assert.Contains(t, out, "category,metric,value,description\n")
	assert.Contains(t, out, "core_metrics,total_net_gamma,")
	assert.Contains(t, out, "percentiles,p10,")
	assert.Contains(t, out, "concentration,herfindahl_index,")
	assert.Less(t, strings.Index(out, "percentiles,p10,"), strings.Index(out, "percentiles,p90,"))
}

func TestExporter(t *testing.T) {
	r := sampleReport(t)
	outDir := t.TempDir()

	dir, err := New(outDir, true, zap.NewNop()).Export(r)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, BundleID(r)), dir)

	for _, name := range []string{ExposuresFile, MetricsFile, ReportFile, SummaryFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	raw, err := os.ReadFile(filepath.Join(dir, ReportFile))
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, r.ID, decoded["id"])

	summary, err := os.ReadFile(filepath.Join(dir, SummaryFile))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "Report ID: "+r.ID)

	_, err = os.Stat(filepath.Join(outDir, ".staging", BundleID(r)))
	assert.True(t, os.IsNotExist(err))
}
