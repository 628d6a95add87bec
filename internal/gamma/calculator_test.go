package gamma

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-analyzer/internal/options"
)

var testNow = time.Date(2025, 11, 14, 16, 0, 0, 0, time.UTC)

func newTestCalculator(t *testing.T) *Calculator {
	t.Helper()
	calc, err := NewCalculator(DefaultParams(), zap.NewNop())
	require.NoError(t, err)
	return calc
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"rate above one", func(p *Params) { p.RiskFreeRate = 1.5 }},
		{"negative rate", func(p *Params) { p.RiskFreeRate = -0.01 }},
		{"zero multiplier", func(p *Params) { p.ContractMultiplier = 0 }},
		{"inverted vol bounds", func(p *Params) { p.MinVolatility = 3 }},
		{"default vol out of bounds", func(p *Params) { p.DefaultVolatility = 5 }},
		{"zero min time", func(p *Params) { p.MinTimeToExpiry = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			_, err := NewCalculator(p, nil)
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func TestTimeToExpiry_Clamps(t *testing.T) {
	calc := newTestCalculator(t)
	p := calc.Params()

	assert.Equal(t, p.MinTimeToExpiry, calc.TimeToExpiry(testNow.AddDate(0, 0, -30), testNow))
	assert.Equal(t, p.MinTimeToExpiry, calc.TimeToExpiry(testNow, testNow))
	assert.Equal(t, p.MaxTimeToExpiry, calc.TimeToExpiry(testNow.AddDate(50, 0, 0), testNow))

	got := calc.TimeToExpiry(testNow.Add(time.Duration(365.25*24)*time.Hour), testNow)
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestVolatility(t *testing.T) {
	calc := newTestCalculator(t)

	assert.Equal(t, 0.20, calc.Volatility(0))
	assert.Equal(t, 0.20, calc.Volatility(-1))
	assert.Equal(t, 0.01, calc.Volatility(0.001))
	assert.Equal(t, 2.0, calc.Volatility(7))
	assert.Equal(t, 0.35, calc.Volatility(0.35))
}

func TestGamma_ATM(t *testing.T) {
	calc := newTestCalculator(t)

	g, err := calc.Gamma(100, 100, 30.0/365, 0.20, options.Call)
	require.NoError(t, err)
	assert.InDelta(t, 0.0692, g, 1e-3)
}

func TestGamma_CallPutIdentical(t *testing.T) {
	calc := newTestCalculator(t)

	for _, strike := range []float64{80, 95, 100, 105, 130} {
		call, err := calc.Gamma(100, strike, 0.25, 0.3, options.Call)
		require.NoError(t, err)
		put, err := calc.Gamma(100, strike, 0.25, 0.3, options.Put)
		require.NoError(t, err)
		assert.Equal(t, call, put)
	}
}

func TestGamma_InvalidInput(t *testing.T) {
	calc := newTestCalculator(t)

	_, err := calc.Gamma(0, 100, 0.1, 0.2, options.Call)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = calc.Gamma(100, -5, 0.1, 0.2, options.Call)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = calc.Gamma(100, 100, 0, 0.2, options.Call)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = calc.Gamma(100, 100, 0.1, 5, options.Call)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = calc.Gamma(100, 100, 0.1, 0.2, "future")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGamma_NonFinite(t *testing.T) {
	calc := newTestCalculator(t)

	_, err := calc.Gamma(math.Inf(1), math.Inf(1), 0.1, 0.2, options.Put)
	assert.ErrorIs(t, err, ErrComputation)
}

func TestExposure_SignConvention(t *testing.T) {
	calc := newTestCalculator(t)

	call, err := calc.Exposure(0.05, 1000, 100, options.Call)
	require.NoError(t, err)
	put, err := calc.Exposure(0.05, 1000, 100, options.Put)
	require.NoError(t, err)

	assert.InDelta(t, -500000.0, call, 1e-6)
	assert.InDelta(t, 500000.0, put, 1e-6)
}

func TestContractExposure_FallsBackToDefaultVolatility(t *testing.T) {
	calc := newTestCalculator(t)
	c := options.Contract{
		Symbol:       "SPX",
		Strike:       100,
		Expiry:       testNow.AddDate(0, 0, 30),
		Type:         options.Put,
		OpenInterest: 10,
	}

	res := calc.ContractExposure(c, 100, testNow)
	require.True(t, res.OK())
	assert.Equal(t, 0.20, res.Volatility)
	assert.Greater(t, res.Exposure, 0.0)
}
