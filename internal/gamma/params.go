package gamma

import (
	"fmt"
	"math"
)

const secondsPerYear = 365.25 * 86400

// Params configures the Black-Scholes engine. Time bounds are in years.
type Params struct {
	RiskFreeRate       float64 `json:"risk_free_rate" mapstructure:"risk_free_rate"`
	ContractMultiplier float64 `json:"contract_multiplier" mapstructure:"contract_multiplier"`
	DefaultVolatility  float64 `json:"default_volatility" mapstructure:"default_volatility"`
	MinVolatility      float64 `json:"min_volatility" mapstructure:"min_volatility"`
	MaxVolatility      float64 `json:"max_volatility" mapstructure:"max_volatility"`
	MinTimeToExpiry    float64 `json:"min_time_to_expiry" mapstructure:"min_time_to_expiry"`
	MaxTimeToExpiry    float64 `json:"max_time_to_expiry" mapstructure:"max_time_to_expiry"`
}

// DefaultParams returns the canonical bounds: one calendar day to five years,
// volatility between 1% and 200%.
func DefaultParams() Params {
	return Params{
		RiskFreeRate:       0.05,
		ContractMultiplier: 100,
		DefaultVolatility:  0.20,
		MinVolatility:      0.01,
		MaxVolatility:      2.0,
		MinTimeToExpiry:    1.0 / 365.25,
		MaxTimeToExpiry:    5.0,
	}
}

func (p Params) Validate() error {
	switch {
	case math.IsNaN(p.RiskFreeRate) || p.RiskFreeRate < 0 || p.RiskFreeRate > 1:
		return fmt.Errorf("%w: risk-free rate %v must be in [0, 1]", ErrInvalidParams, p.RiskFreeRate)
	case !(p.ContractMultiplier > 0):
		return fmt.Errorf("%w: contract multiplier %v must be positive", ErrInvalidParams, p.ContractMultiplier)
	case !(p.MinVolatility > 0) || p.MinVolatility > p.MaxVolatility:
		return fmt.Errorf("%w: volatility bounds [%v, %v] invalid", ErrInvalidParams, p.MinVolatility, p.MaxVolatility)
	case p.DefaultVolatility < p.MinVolatility || p.DefaultVolatility > p.MaxVolatility:
		return fmt.Errorf("%w: default volatility %v outside [%v, %v]", ErrInvalidParams,
			p.DefaultVolatility, p.MinVolatility, p.MaxVolatility)
	case !(p.MinTimeToExpiry > 0) || p.MinTimeToExpiry > p.MaxTimeToExpiry:
		return fmt.Errorf("%w: time-to-expiry bounds [%v, %v] invalid", ErrInvalidParams,
			p.MinTimeToExpiry, p.MaxTimeToExpiry)
	}
	return nil
}
