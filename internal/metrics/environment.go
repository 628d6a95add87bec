package metrics

import (
	"math"

	"github.com/dgnsrekt/gex-analyzer/internal/gamma"
)

// Environment classifies aggregate dealer gamma.
type Environment string

const (
	Positive Environment = "positive"
	Negative Environment = "negative"
	Neutral  Environment = "neutral"
)

// Classify maps total net gamma to an environment. Zero is neutral.
func Classify(totalNetGamma float64) Environment {
	switch {
	case totalNetGamma > 0:
		return Positive
	case totalNetGamma < 0:
		return Negative
	default:
		return Neutral
	}
}

func (e Environment) Description() string {
	switch e {
	case Positive:
		return "Positive Gamma Environment - Market makers provide support (buy dips, sell rallies)"
	case Negative:
		return "Negative Gamma Environment - Market makers amplify moves (sell dips, buy rallies)"
	default:
		return "Neutral Gamma Environment - Balanced gamma exposure"
	}
}

// Interpretation describes the expected dealer hedging behavior.
func (e Environment) Interpretation() string {
	switch e {
	case Positive:
		return "Dealers hedge against the move, favoring mean reversion and lower realized volatility"
	case Negative:
		return "Dealers hedge with the move, favoring trending price action and higher realized volatility"
	default:
		return "No directional dealer hedging bias"
	}
}

const noDataDescription = "No gamma data available"

// Strength is the tier of environment strength.
type Strength struct {
	Level            string  `json:"level"`
	Value            float64 `json:"value"`
	Description      string  `json:"description"`
	VolatilityImpact string  `json:"volatility_impact"`
}

var strengthTiers = []struct {
	min         float64
	level       string
	impact      string
	description string
}{
	{0.10, "Very Strong", "Very High", "Extremely powerful gamma forces - expect significant market maker impact"},
	{0.05, "Strong", "High", "Strong gamma forces - market makers will have notable impact on price action"},
	{0.02, "Moderate", "Medium", "Moderate gamma forces - noticeable but not dominant market maker influence"},
	{0.01, "Weak", "Low", "Weak gamma forces - limited market maker impact on price action"},
}

// ClassifyStrength buckets a strength value into one of five tiers.
func ClassifyStrength(strength float64) Strength {
	for _, tier := range strengthTiers {
		if strength >= tier.min {
			return Strength{Level: tier.level, Value: strength, Description: tier.description, VolatilityImpact: tier.impact}
		}
	}
	return Strength{
		Level:            "Very Weak",
		Value:            strength,
		Description:      "Minimal gamma forces - negligible market maker impact",
		VolatilityImpact: "Very Low",
	}
}

// EnvironmentStrength is |total| / (price * open interest), 0 when either is 0.
func EnvironmentStrength(totalNetGamma, price float64, totalOpenInterest int64) float64 {
	if price == 0 || totalOpenInterest == 0 {
		return 0
	}
	return math.Abs(totalNetGamma) / (price * float64(totalOpenInterest))
}

// StrikeCounts partitions strikes by the sign of net exposure.
type StrikeCounts struct {
	PositiveStrikes int     `json:"positive_strikes"`
	NegativeStrikes int     `json:"negative_strikes"`
	NeutralStrikes  int     `json:"neutral_strikes"`
	PositivePct     float64 `json:"positive_percentage"`
	NegativePct     float64 `json:"negative_percentage"`
	NeutralPct      float64 `json:"neutral_percentage"`
}

func StrikeDistribution(exposures []gamma.StrikeExposure) StrikeCounts {
	var c StrikeCounts
	for _, e := range exposures {
		switch {
		case e.NetExposure > 0:
			c.PositiveStrikes++
		case e.NetExposure < 0:
			c.NegativeStrikes++
		default:
			c.NeutralStrikes++
		}
	}
	if n := float64(len(exposures)); n > 0 {
		c.PositivePct = float64(c.PositiveStrikes) / n * 100
		c.NegativePct = float64(c.NegativeStrikes) / n * 100
		c.NeutralPct = float64(c.NeutralStrikes) / n * 100
	}
	return c
}

// EnvironmentSummary is the full gamma-environment classification.
type EnvironmentSummary struct {
	Environment       Environment `json:"environment"`
	Description       string      `json:"description"`
	Interpretation    string      `json:"interpretation"`
	TotalNetGamma     float64     `json:"total_net_gamma"`
	Strength          Strength    `json:"strength"`
	GammaFlipLevel    *float64    `json:"gamma_flip_level"`
	TotalOpenInterest int64       `json:"total_open_interest"`
	StrikeCounts
}

// GammaEnvironment recomputes the classification from scratch. Exposures
// must be sorted ascending by strike.
func GammaEnvironment(exposures []gamma.StrikeExposure, price float64) EnvironmentSummary {
	if len(exposures) == 0 {
		return EnvironmentSummary{
			Environment:    Neutral,
			Description:    noDataDescription,
			Interpretation: Neutral.Interpretation(),
			Strength:       ClassifyStrength(0),
		}
	}

	total := TotalNetGamma(exposures)
	var oi int64
	for _, e := range exposures {
		oi += e.TotalOpenInterest
	}

	env := Classify(total)
	return EnvironmentSummary{
		Environment:       env,
		Description:       env.Description(),
		Interpretation:    env.Interpretation(),
		TotalNetGamma:     total,
		Strength:          ClassifyStrength(EnvironmentStrength(total, price, oi)),
		GammaFlipLevel:    FlipLevel(exposures),
		TotalOpenInterest: oi,
		StrikeCounts:      StrikeDistribution(exposures),
	}
}
