package analysis

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-analyzer/internal/chain"
	"github.com/dgnsrekt/gex-analyzer/internal/gamma"
	"github.com/dgnsrekt/gex-analyzer/internal/metrics"
	"github.com/dgnsrekt/gex-analyzer/internal/options"
)

var testNow = time.Date(2025, 11, 14, 16, 0, 0, 0, time.UTC)

func sampleChain(t *testing.T) *chain.Chain {
	t.Helper()
	gen, err := chain.NewGenerator("SPX", 20, 30, 1)
	require.NoError(t, err)
	c, err := gen.Generate(4500, testNow)
	require.NoError(t, err)
	return c
}

func newAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	a, err := New(DefaultConfig(), zap.NewNop())
	require.NoError(t, err)
	return a
}

func TestAnalyze(t *testing.T) {
	a := newAnalyzer(t)
	c := sampleChain(t)

	r, err := a.Analyze(context.Background(), c, testNow)
	require.NoError(t, err)

	_, err = uuid.Parse(r.ID)
	assert.NoError(t, err)
	assert.Equal(t, "SPX", r.Symbol)
	assert.Equal(t, 40, r.ContractCount)
	assert.Len(t, r.Exposures, 20)
	assert.Empty(t, r.Skipped)

	for i := 1; i < len(r.Exposures); i++ {
		assert.Less(t, r.Exposures[i-1].Strike, r.Exposures[i].Strike)
	}
	assert.LessOrEqual(t, len(r.Walls.CallWalls), 5)
	assert.LessOrEqual(t, len(r.Walls.PutWalls), 5)
	assert.InDelta(t, r.Portfolio.TotalNetExposure, r.Metrics.TotalNetGamma, 1e-6)
	assert.Equal(t, metrics.Classify(r.Metrics.TotalNetGamma), r.Environment.Environment)
	require.NotNil(t, r.ExpectedMove)
	require.NotNil(t, r.Summary)

	for _, l := range r.NearbyWalls {
		assert.LessOrEqual(t, l.DistanceFromSpot, 450.0)
	}

	h := r.Headline()
	assert.Equal(t, "SPX", h.Symbol)
	assert.Equal(t, len(r.Walls.CallWalls), h.CallWalls)

	_, err = json.Marshal(r)
	assert.NoError(t, err)
}

func TestAnalyze_NoSpot(t *testing.T) {
	a := newAnalyzer(t)
	c := sampleChain(t)
	c.Spot = 0

	_, err := a.Analyze(context.Background(), c, testNow)
	assert.ErrorIs(t, err, ErrNoSpot)
}

func TestAnalyze_Cancelled(t *testing.T) {
	a := newAnalyzer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Analyze(ctx, sampleChain(t), testNow)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyze_CallsOnlyRatioEncodes(t *testing.T) {
	a := newAnalyzer(t)
	c := &chain.Chain{Symbol: "XYZ", Spot: 100, Contracts: []options.Contract{
		{Symbol: "XYZ", Strike: 100, Expiry: testNow.AddDate(0, 0, 30), Type: options.Call, OpenInterest: 100, ImpliedVolatility: 0.3},
	}}

	r, err := a.Analyze(context.Background(), c, testNow)
	require.NoError(t, err)
	assert.True(t, r.Metrics.CallPutGammaRatio.IsInf())
	assert.Empty(t, r.Walls.PutWalls)
	assert.Len(t, r.Walls.CallWalls, 1)
	assert.Equal(t, metrics.Negative, r.Environment.Environment)

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"call_put_gamma_ratio":"+Inf"`)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gamma.RiskFreeRate = 2
	_, err := New(cfg, nil)
	assert.ErrorIs(t, err, gamma.ErrInvalidParams)

	cfg = DefaultConfig()
	cfg.MaxWalls = 0
	_, err = New(cfg, nil)
	assert.Error(t, err)
}

func TestComputeExpectedMove(t *testing.T) {
	expiry := time.Date(2025, 12, 19, 16, 0, 0, 0, time.UTC)
	contracts := []options.Contract{
		{Strike: 100, Expiry: expiry, Type: options.Call, ImpliedVolatility: 0.20},
		{Strike: 100, Expiry: expiry, Type: options.Put, ImpliedVolatility: 0.30},
	}

	m := ComputeExpectedMove(contracts, 100, testNow)
	require.NotNil(t, m)
	assert.InDelta(t, 0.25, m.ATMImpliedVol, 1e-12)
	assert.Equal(t, 35.0, m.DaysToExpiry)

	want := 100 * 0.25 * math.Sqrt(35.0/365)
	assert.InDelta(t, want, m.Move1SD, 1e-9)
	assert.InDelta(t, 2*want, m.Move2SD, 1e-9)
	assert.InDelta(t, 100+want, m.Upper1SD, 1e-9)
	assert.InDelta(t, 100-2*want, m.Lower2SD, 1e-9)
	assert.Equal(t, 68.2, m.Probability1SD)
	assert.Equal(t, 95.4, m.Probability2SD)

	assert.Nil(t, ComputeExpectedMove(nil, 100, testNow))
}

func TestComputeExpectedMove_ExpiredUsesOneDay(t *testing.T) {
	contracts := []options.Contract{
		{Strike: 100, Expiry: testNow.AddDate(0, 0, -3), Type: options.Call, ImpliedVolatility: 0.2},
	}
	m := ComputeExpectedMove(contracts, 100, testNow)
	require.NotNil(t, m)
	assert.Equal(t, 1.0, m.DaysToExpiry)
}

func TestComputeExpectedMove_ZoneIndependent(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	expiry := time.Date(2025, 12, 19, 16, 0, 0, 0, est)
	now := time.Date(2025, 11, 14, 20, 0, 0, 0, est)

	local := ComputeExpectedMove([]options.Contract{
		{Strike: 100, Expiry: expiry, Type: options.Call, ImpliedVolatility: 0.2},
	}, 100, now)
	utc := ComputeExpectedMove([]options.Contract{
		{Strike: 100, Expiry: expiry.UTC(), Type: options.Call, ImpliedVolatility: 0.2},
	}, 100, now.UTC())

	require.NotNil(t, local)
	require.NotNil(t, utc)
	assert.Equal(t, utc.DaysToExpiry, local.DaysToExpiry)
	assert.Equal(t, 34.0, local.DaysToExpiry)
}

func TestCache(t *testing.T) {
	a := newAnalyzer(t)
	c := sampleChain(t)
	cfg := a.Config()

	key := Fingerprint(c.Contracts, c.Spot, cfg)
	assert.Equal(t, key, Fingerprint(c.Contracts, c.Spot, cfg))
	assert.NotEqual(t, key, Fingerprint(c.Contracts, c.Spot+1, cfg))

	other := cfg
	other.MaxWalls = 3
	assert.NotEqual(t, key, Fingerprint(c.Contracts, c.Spot, other))

	cache := NewCache(2)
	_, ok := cache.Get(key)
	assert.False(t, ok)

	r, err := a.Analyze(context.Background(), c, testNow)
	require.NoError(t, err)
	cache.Put(key, r)

	got, ok := cache.Get(key)
	require.True(t, ok)
	assert.Equal(t, r.ID, got.ID)

	cache.Put(CacheKey(1), r)
	cache.Put(CacheKey(2), r)
	assert.Equal(t, 2, cache.Len())
	_, ok = cache.Get(key)
	assert.False(t, ok, "oldest entry should be evicted")

	assert.Equal(t, 2, cache.Reset())
	assert.Equal(t, 0, cache.Len())
}

func TestKeyFor_IncludesEvaluationTime(t *testing.T) {
	c := sampleChain(t)
	cfg := DefaultConfig()

	key := KeyFor(c, testNow, cfg)
	assert.Equal(t, key, KeyFor(c, testNow, cfg))
	assert.NotEqual(t, key, KeyFor(c, testNow.Add(time.Hour), cfg))
}
