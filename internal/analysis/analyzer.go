// Package analysis runs the full gamma exposure pipeline over a chain
// snapshot and caches the resulting reports for callers that want it.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-analyzer/internal/chain"
	"github.com/dgnsrekt/gex-analyzer/internal/gamma"
	"github.com/dgnsrekt/gex-analyzer/internal/metrics"
	"github.com/dgnsrekt/gex-analyzer/internal/walls"
)

var ErrNoSpot = errors.New("chain has no spot price")

// Config holds every tunable of the pipeline.
type Config struct {
	Gamma           gamma.Params
	MinSignificance float64
	MaxWalls        int
	NearbyPct       float64
	Percentiles     []float64
}

func DefaultConfig() Config {
	return Config{
		Gamma:           gamma.DefaultParams(),
		MinSignificance: walls.DefaultMinSignificance,
		MaxWalls:        walls.DefaultMaxWalls,
		NearbyPct:       walls.DefaultNearbyPct,
		Percentiles:     metrics.DefaultPercentiles,
	}
}

// Analyzer wires the calculator, wall detector and metrics engine. It keeps
// no per-call state and may be shared across goroutines.
type Analyzer struct {
	cfg      Config
	calc     *gamma.Calculator
	detector *walls.Detector
	engine   *metrics.Engine
	logger   *zap.Logger
}

func New(cfg Config, logger *zap.Logger) (*Analyzer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	calc, err := gamma.NewCalculator(cfg.Gamma, logger)
	if err != nil {
		return nil, err
	}
	detector, err := walls.NewDetector(cfg.MinSignificance, cfg.MaxWalls)
	if err != nil {
		return nil, err
	}
	engine, err := metrics.NewEngine(cfg.Percentiles)
	if err != nil {
		return nil, err
	}
	if cfg.NearbyPct <= 0 {
		cfg.NearbyPct = walls.DefaultNearbyPct
	}

	return &Analyzer{
		cfg:      cfg,
		calc:     calc,
		detector: detector,
		engine:   engine,
		logger:   logger,
	}, nil
}

func (a *Analyzer) Config() Config {
	return a.cfg
}

// Analyze computes a full report for c priced at c.Spot as of now.
func (a *Analyzer) Analyze(ctx context.Context, c *chain.Chain, now time.Time) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !(c.Spot > 0) {
		return nil, fmt.Errorf("%w: %s", ErrNoSpot, c.Symbol)
	}

	agg, err := a.calc.AggregateByStrike(c.Contracts, c.Spot, now)
	if err != nil {
		return nil, fmt.Errorf("aggregating %s: %w", c.Symbol, err)
	}

	found := a.detector.FindAll(agg.Exposures, c.Spot)
	market, err := a.engine.MarketMetrics(agg.Exposures)
	if err != nil {
		return nil, fmt.Errorf("market metrics for %s: %w", c.Symbol, err)
	}
	summary, err := a.engine.Summary(agg.Exposures, c.Spot)
	if err != nil {
		return nil, fmt.Errorf("metrics summary for %s: %w", c.Symbol, err)
	}

	report := &Report{
		ID:            uuid.NewString(),
		Symbol:        c.Symbol,
		Spot:          c.Spot,
		AsOf:          c.AsOf,
		GeneratedAt:   now,
		ContractCount: len(c.Contracts),
		Exposures:     agg.Exposures,
		Skipped:       agg.Skipped,
		Portfolio:     gamma.PortfolioOf(agg.Exposures),
		Walls:         found,
		WallSummary:   walls.Summarize(found, c.Spot),
		NearbyWalls:   walls.Nearby(found.All(), c.Spot, a.cfg.NearbyPct),
		Metrics:       market,
		Environment:   metrics.GammaEnvironment(agg.Exposures, c.Spot),
		Summary:       summary,
		ExpectedMove:  ComputeExpectedMove(c.Contracts, c.Spot, now),
	}

	a.logger.Debug("analysis complete",
		zap.String("id", report.ID),
		zap.String("symbol", report.Symbol),
		zap.Int("strikes", len(report.Exposures)),
		zap.Int("skipped", len(report.Skipped)),
		zap.String("environment", string(report.Environment.Environment)))

	return report, nil
}
