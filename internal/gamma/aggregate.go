package gamma

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-analyzer/internal/options"
)

// SkippedContract records a contract dropped from aggregation.
type SkippedContract struct {
	Contract options.Contract `json:"contract"`
	Reason   string           `json:"reason"`
	Err      error            `json:"-"`
}

// Aggregation is the batch outcome: the per-strike exposures plus every
// contract that contributed nothing because its computation failed.
type Aggregation struct {
	Exposures []StrikeExposure  `json:"exposures"`
	Skipped   []SkippedContract `json:"skipped"`
}

type strikeAccumulator struct {
	call, put    float64
	openInterest int64
}

// AggregateByStrike groups contracts by exact strike and sums signed exposure.
// A failing contract is logged and listed in Skipped; it adds neither exposure
// nor open interest. The output is sorted ascending by strike.
func (c *Calculator) AggregateByStrike(contracts []options.Contract, spot float64, now time.Time) (*Aggregation, error) {
	if !(spot > 0) || math.IsInf(spot, 0) {
		return nil, fmt.Errorf("%w: spot %v must be positive", ErrInvalidInput, spot)
	}

	agg := &Aggregation{Exposures: []StrikeExposure{}, Skipped: []SkippedContract{}}
	if len(contracts) == 0 {
		return agg, nil
	}

	byStrike := make(map[float64]*strikeAccumulator)
	for _, contract := range contracts {
		res := c.ContractExposure(contract, spot, now)
		if !res.OK() {
			c.logger.Warn("skipping contract",
				zap.String("symbol", contract.Symbol),
				zap.Float64("strike", contract.Strike),
				zap.String("type", string(contract.Type)),
				zap.Error(res.Err))
			agg.Skipped = append(agg.Skipped, SkippedContract{
				Contract: contract,
				Reason:   res.Err.Error(),
				Err:      res.Err,
			})
			continue
		}

		acc, ok := byStrike[contract.Strike]
		if !ok {
			acc = &strikeAccumulator{}
			byStrike[contract.Strike] = acc
		}
		if contract.Type == options.Call {
			acc.call += res.Exposure
		} else {
			acc.put += res.Exposure
		}
		acc.openInterest += contract.OpenInterest
	}

	strikes := make([]float64, 0, len(byStrike))
	for s := range byStrike {
		strikes = append(strikes, s)
	}
	sort.Float64s(strikes)

	for _, s := range strikes {
		acc := byStrike[s]
		exp, err := NewStrikeExposure(s, acc.call, acc.put, acc.call+acc.put, acc.openInterest)
		if err != nil {
			return nil, fmt.Errorf("building exposure for strike %v: %w", s, err)
		}
		agg.Exposures = append(agg.Exposures, exp)
	}

	if len(agg.Skipped) > 0 {
		c.logger.Warn("contracts skipped during aggregation",
			zap.Int("skipped", len(agg.Skipped)),
			zap.Int("total", len(contracts)))
	}

	return agg, nil
}

// Portfolio is the chain-level rollup of strike exposures.
type Portfolio struct {
	TotalNetExposure  float64 `json:"total_net_gamma_exposure"`
	TotalCallExposure float64 `json:"total_call_gamma_exposure"`
	TotalPutExposure  float64 `json:"total_put_gamma_exposure"`
	TotalOpenInterest int64   `json:"total_open_interest"`
	// WeightedAvgStrike weights each strike by |net exposure|; zero-weight
	// strikes are excluded so opposite exposures do not cancel.
	WeightedAvgStrike float64 `json:"gamma_weighted_avg_strike"`
	StrikeCount       int     `json:"strike_count"`
}

func PortfolioOf(exposures []StrikeExposure) Portfolio {
	p := Portfolio{StrikeCount: len(exposures)}

	var weighted, weights float64
	for _, e := range exposures {
		p.TotalNetExposure += e.NetExposure
		p.TotalCallExposure += e.CallExposure
		p.TotalPutExposure += e.PutExposure
		p.TotalOpenInterest += e.TotalOpenInterest

		w := math.Abs(e.NetExposure)
		if w > 0 {
			weighted += e.Strike * w
			weights += w
		}
	}
	if weights > 0 {
		p.WeightedAvgStrike = weighted / weights
	}
	return p
}
