// Package gamma implements the Black-Scholes gamma engine and the strike
// aggregator that turns a chain of contracts into per-strike dealer exposure.
//
// Dealers are modeled as net short the listed options: call contracts add
// negative exposure and put contracts add positive exposure.
package gamma

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-analyzer/internal/options"
)

var invSqrt2Pi = 1 / math.Sqrt(2*math.Pi)

// Calculator computes gamma and signed exposure for single contracts.
// It holds only immutable parameters and is safe for concurrent use.
type Calculator struct {
	params Params
	logger *zap.Logger
}

// NewCalculator validates params before returning a calculator.
func NewCalculator(params Params, logger *zap.Logger) (*Calculator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{params: params, logger: logger}, nil
}

func (c *Calculator) Params() Params {
	return c.params
}

// TimeToExpiry returns the year fraction between now and expiry, clamped to
// the configured bounds. Expired contracts clamp to the minimum.
func (c *Calculator) TimeToExpiry(expiry, now time.Time) float64 {
	years := expiry.Sub(now).Seconds() / secondsPerYear
	return clamp(years, c.params.MinTimeToExpiry, c.params.MaxTimeToExpiry)
}

// Volatility substitutes the default for non-positive input and clamps to bounds.
func (c *Calculator) Volatility(iv float64) float64 {
	if !(iv > 0) {
		iv = c.params.DefaultVolatility
	}
	return clamp(iv, c.params.MinVolatility, c.params.MaxVolatility)
}

// Gamma is the Black-Scholes gamma. It does not depend on the option type.
func (c *Calculator) Gamma(spot, strike, t, sigma float64, typ options.Type) (float64, error) {
	switch {
	case !(spot > 0):
		return 0, fmt.Errorf("%w: spot %v must be positive", ErrInvalidInput, spot)
	case !(strike > 0) || math.IsInf(strike, 0):
		return 0, fmt.Errorf("%w: strike %v must be positive and finite", ErrInvalidInput, strike)
	case !(t > 0):
		return 0, fmt.Errorf("%w: time to expiry %v must be positive", ErrInvalidInput, t)
	case sigma < c.params.MinVolatility || sigma > c.params.MaxVolatility || math.IsNaN(sigma):
		return 0, fmt.Errorf("%w: volatility %v outside [%v, %v]", ErrInvalidInput,
			sigma, c.params.MinVolatility, c.params.MaxVolatility)
	case !typ.Valid():
		return 0, fmt.Errorf("%w: option type %q", ErrInvalidInput, typ)
	}

	sqrtT := math.Sqrt(t)
	d1 := (math.Log(spot/strike) + (c.params.RiskFreeRate+0.5*sigma*sigma)*t) / (sigma * sqrtT)
	g := normPDF(d1) / (spot * sigma * sqrtT)

	if math.IsNaN(g) || math.IsInf(g, 0) {
		return 0, fmt.Errorf("%w: spot=%v strike=%v t=%v sigma=%v", ErrComputation, spot, strike, t, sigma)
	}
	return g, nil
}

// Exposure scales gamma to dollar exposure and applies the dealer sign:
// negative for calls, positive for puts.
func (c *Calculator) Exposure(gamma float64, openInterest int64, spot float64, typ options.Type) (float64, error) {
	if openInterest < 0 {
		return 0, fmt.Errorf("%w: open interest %d cannot be negative", ErrInvalidInput, openInterest)
	}
	raw := gamma * float64(openInterest) * c.params.ContractMultiplier * spot
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0, fmt.Errorf("%w: exposure for gamma=%v oi=%d", ErrComputation, gamma, openInterest)
	}

	switch typ {
	case options.Call:
		return -raw, nil
	case options.Put:
		return raw, nil
	default:
		return 0, fmt.Errorf("%w: option type %q", ErrInvalidInput, typ)
	}
}

// ContractResult is the per-contract outcome. Err is set when the contract
// was skipped; the numeric fields are then zero.
type ContractResult struct {
	Contract     options.Contract `json:"contract"`
	TimeToExpiry float64          `json:"time_to_expiry"`
	Volatility   float64          `json:"volatility"`
	Gamma        float64          `json:"gamma"`
	Exposure     float64          `json:"exposure"`
	Err          error            `json:"-"`
}

func (r ContractResult) OK() bool {
	return r.Err == nil
}

// ContractExposure runs the full single-contract pipeline.
func (c *Calculator) ContractExposure(contract options.Contract, spot float64, now time.Time) ContractResult {
	res := ContractResult{Contract: contract}

	t := c.TimeToExpiry(contract.Expiry, now)
	sigma := c.Volatility(contract.ImpliedVolatility)

	g, err := c.Gamma(spot, contract.Strike, t, sigma, contract.Type)
	if err != nil {
		res.Err = err
		return res
	}
	exp, err := c.Exposure(g, contract.OpenInterest, spot, contract.Type)
	if err != nil {
		res.Err = err
		return res
	}

	res.TimeToExpiry = t
	res.Volatility = sigma
	res.Gamma = g
	res.Exposure = exp
	return res
}

func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) * invSqrt2Pi
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
