package metrics

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgnsrekt/gex-analyzer/internal/gamma"
)

func strike(s, call, put float64, oi int64) gamma.StrikeExposure {
	return gamma.StrikeExposure{Strike: s, CallExposure: call, PutExposure: put, NetExposure: call + put, TotalOpenInterest: oi}
}

func TestGammaEnvironment_Empty(t *testing.T) {
	env := GammaEnvironment(nil, 100)
	assert.Equal(t, Neutral, env.Environment)
	assert.Equal(t, "No gamma data available", env.Description)
	assert.Nil(t, env.GammaFlipLevel)
	assert.Equal(t, "Very Weak", env.Strength.Level)
}

func TestGammaEnvironment_Classification(t *testing.T) {
	pos := GammaEnvironment([]gamma.StrikeExposure{strike(100, -10, 30, 100)}, 100)
	assert.Equal(t, Positive, pos.Environment)
	assert.Contains(t, pos.Description, "Positive Gamma Environment")

	neg := GammaEnvironment([]gamma.StrikeExposure{strike(100, -30, 10, 100)}, 100)
	assert.Equal(t, Negative, neg.Environment)

	neutral := GammaEnvironment([]gamma.StrikeExposure{strike(100, -10, 10, 100)}, 100)
	assert.Equal(t, Neutral, neutral.Environment)
	assert.Equal(t, 1, neutral.NeutralStrikes)
}

func TestEnvironmentStrength(t *testing.T) {
	assert.Equal(t, 0.0, EnvironmentStrength(1000, 0, 10))
	assert.Equal(t, 0.0, EnvironmentStrength(1000, 100, 0))
	assert.InDelta(t, 0.5, EnvironmentStrength(-5000, 100, 100), 1e-12)
}

func TestClassifyStrength(t *testing.T) {
	tests := []struct {
		value  float64
		level  string
		impact string
	}{
		{0.5, "Very Strong", "Very High"},
		{0.10, "Very Strong", "Very High"},
		{0.07, "Strong", "High"},
		{0.02, "Moderate", "Medium"},
		{0.015, "Weak", "Low"},
		{0.001, "Very Weak", "Very Low"},
	}
	for _, tt := range tests {
		s := ClassifyStrength(tt.value)
		assert.Equal(t, tt.level, s.Level, "value %v", tt.value)
		assert.Equal(t, tt.impact, s.VolatilityImpact, "value %v", tt.value)
	}
}

func TestFlipLevel_Scenario(t *testing.T) {
	flip := FlipLevel([]gamma.StrikeExposure{
		{Strike: 95, NetExposure: 500},
		{Strike: 100, NetExposure: -300},
	})
	require.NotNil(t, flip)
	assert.Equal(t, 97.5, *flip)
}

func TestFlipLevel_PicksStrongestPair(t *testing.T) {
	flip := FlipLevel([]gamma.StrikeExposure{
		{Strike: 90, NetExposure: 10},
		{Strike: 95, NetExposure: -10},
		{Strike: 100, NetExposure: 0},
		{Strike: 105, NetExposure: -400},
		{Strike: 110, NetExposure: 600},
	})
	require.NotNil(t, flip)
	assert.Equal(t, 107.5, *flip)
}

func TestFlipLevel_ZeroDoesNotCount(t *testing.T) {
	assert.Nil(t, FlipLevel([]gamma.StrikeExposure{
		{Strike: 95, NetExposure: 100},
		{Strike: 100, NetExposure: 0},
		{Strike: 105, NetExposure: 200},
	}))
	assert.Nil(t, FlipLevel(nil))
}

func TestFlipLevel_BetweenStraddlingStrikes(t *testing.T) {
	var exposures []gamma.StrikeExposure
	for i := 0; i < 10; i++ {
		net := 100.0
		if i >= 6 {
			net = -100
		}
		exposures = append(exposures, gamma.StrikeExposure{Strike: float64(90 + i), NetExposure: net})
	}
	flip := FlipLevel(exposures)
	require.NotNil(t, flip)
	assert.Greater(t, *flip, 95.0)
	assert.Less(t, *flip, 96.0)
}

func TestCallPutGammaRatio(t *testing.T) {
	assert.Equal(t, Ratio(0), CallPutGammaRatio(nil))
	assert.True(t, CallPutGammaRatio([]gamma.StrikeExposure{strike(100, -10, 0, 1)}).IsInf())
	assert.InDelta(t, 2.0, float64(CallPutGammaRatio([]gamma.StrikeExposure{
		strike(100, -20, 5, 1),
		strike(105, 0, 5, 1),
	})), 1e-12)
}

func TestRatio_JSON(t *testing.T) {
	b, err := json.Marshal(Ratio(math.Inf(1)))
	require.NoError(t, err)
	assert.Equal(t, `"+Inf"`, string(b))

	var r Ratio
	require.NoError(t, json.Unmarshal(b, &r))
	assert.True(t, r.IsInf())

	require.NoError(t, json.Unmarshal([]byte("1.5"), &r))
	assert.Equal(t, Ratio(1.5), r)
}

func TestMaxExposures(t *testing.T) {
	maxCall, maxPut := MaxExposures([]gamma.StrikeExposure{
		strike(95, -100, 300, 1),
		strike(100, -500, 100, 1),
		strike(105, 0, 0, 1),
	})
	assert.Equal(t, -500.0, maxCall)
	assert.Equal(t, 300.0, maxPut)

	maxCall, maxPut = MaxExposures(nil)
	assert.Equal(t, 0.0, maxCall)
	assert.Equal(t, 0.0, maxPut)
}

func TestConcentration(t *testing.T) {
	var exposures []gamma.StrikeExposure
	for i := 1; i <= 12; i++ {
		exposures = append(exposures, gamma.StrikeExposure{Strike: float64(i), NetExposure: float64(i * 10)})
	}
	c := ConcentrationOf(exposures)
	assert.LessOrEqual(t, c.Top5, c.Top10)
	assert.LessOrEqual(t, c.Top10, 1.0)
	assert.Greater(t, c.HHI, 0.0)

	single := ConcentrationOf([]gamma.StrikeExposure{{Strike: 1, NetExposure: -5}})
	assert.InDelta(t, 1.0, single.Top5, 1e-12)
	assert.InDelta(t, 1.0, single.HHI, 1e-12)

	assert.Equal(t, Concentration{}, ConcentrationOf(nil))
}

func TestStrikeDistribution(t *testing.T) {
	c := StrikeDistribution([]gamma.StrikeExposure{
		{Strike: 1, NetExposure: 5},
		{Strike: 2, NetExposure: -5},
		{Strike: 3, NetExposure: 0},
		{Strike: 4, NetExposure: 1},
	})
	assert.Equal(t, 2, c.PositiveStrikes)
	assert.Equal(t, 1, c.NegativeStrikes)
	assert.Equal(t, 1, c.NeutralStrikes)
	assert.InDelta(t, 50.0, c.PositivePct, 1e-12)
	assert.InDelta(t, 25.0, c.NeutralPct, 1e-12)
}

func TestEngine_Statistics(t *testing.T) {
	e, err := NewEngine(nil)
	require.NoError(t, err)

	s, err := e.Statistics([]gamma.StrikeExposure{
		{Strike: 1, NetExposure: 1},
		{Strike: 2, NetExposure: 2},
		{Strike: 3, NetExposure: 3},
		{Strike: 4, NetExposure: 4},
	})
	require.NoError(t, err)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), s.Std, 1e-12)
	assert.InDelta(t, 2.5, s.Median, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.InDelta(t, 0.0, s.Skewness, 1e-12)
	assert.InDelta(t, -1.36, s.Kurtosis, 1e-12)

	flat, err := e.Statistics([]gamma.StrikeExposure{{Strike: 1, NetExposure: 7}, {Strike: 2, NetExposure: 7}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, flat.Skewness)
	assert.Equal(t, 0.0, flat.Kurtosis)

	empty, err := e.Statistics(nil)
	require.NoError(t, err)
	assert.Equal(t, Statistics{}, empty)
}

func TestEngine_Percentiles(t *testing.T) {
	e, err := NewEngine(nil)
	require.NoError(t, err)

	var exposures []gamma.StrikeExposure
	for i := 1; i <= 5; i++ {
		exposures = append(exposures, gamma.StrikeExposure{Strike: float64(i), NetExposure: float64(i * 10)})
	}

	p, err := e.PercentilesOf(exposures)
	require.NoError(t, err)
	assert.InDelta(t, 14.0, p["p10"], 1e-9)
	assert.InDelta(t, 20.0, p["p25"], 1e-9)
	assert.InDelta(t, 30.0, p["p50"], 1e-9)
	assert.InDelta(t, 46.0, p["p90"], 1e-9)

	_, err = NewEngine([]float64{101})
	assert.ErrorIs(t, err, ErrMetrics)
}

func TestEngine_Summary(t *testing.T) {
	e, err := NewEngine(nil)
	require.NoError(t, err)

	s, err := e.Summary([]gamma.StrikeExposure{
		strike(95, -100, 400, 50),
		strike(100, -200, 200, 60),
		strike(105, -300, 100, 70),
	}, 100)
	require.NoError(t, err)

	assert.InDelta(t, 100.0, s.CoreMetrics.TotalNetGamma, 1e-9)
	assert.Equal(t, 3, s.DataQuality.TotalStrikes)
	assert.Equal(t, 2, s.DataQuality.StrikesWithExposure)
	assert.Equal(t, int64(180), s.DataQuality.TotalOpenInterest)
	assert.Len(t, s.Percentiles, 5)
	assert.Equal(t, 100.0, s.CurrentPrice)

	empty, err := e.Summary(nil, 100)
	require.NoError(t, err)
	assert.Equal(t, 0.0, empty.CoreMetrics.TotalNetGamma)
	assert.Equal(t, 0.0, empty.Percentiles["p50"])
}

func TestMarketMetrics_Validate(t *testing.T) {
	assert.ErrorIs(t, MarketMetrics{CallPutGammaRatio: -1}.Validate(), ErrInvalidMetric)
	assert.ErrorIs(t, MarketMetrics{GammaExposureStd: -1}.Validate(), ErrInvalidMetric)
	assert.NoError(t, MarketMetrics{CallPutGammaRatio: Ratio(math.Inf(1))}.Validate())
}
