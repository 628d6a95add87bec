package metrics

import (
	"fmt"
	"math"

	"github.com/dgnsrekt/gex-analyzer/internal/gamma"
)

// MarketMetrics is the validated scalar bundle for one chain.
type MarketMetrics struct {
	TotalNetGamma          float64 `json:"total_net_gamma"`
	GammaWeightedAvgStrike float64 `json:"gamma_weighted_avg_strike"`
	CallPutGammaRatio      Ratio   `json:"call_put_gamma_ratio"`
	MaxCallExposure        float64 `json:"max_call_exposure"`
	MaxPutExposure         float64 `json:"max_put_exposure"`
	GammaExposureStd       float64 `json:"gamma_exposure_std"`
}

func (m MarketMetrics) Validate() error {
	if math.IsNaN(float64(m.CallPutGammaRatio)) || m.CallPutGammaRatio < 0 {
		return fmt.Errorf("%w: call/put ratio %v cannot be negative", ErrInvalidMetric, m.CallPutGammaRatio)
	}
	if m.GammaWeightedAvgStrike < 0 {
		return fmt.Errorf("%w: weighted average strike %v cannot be negative", ErrInvalidMetric, m.GammaWeightedAvgStrike)
	}
	if math.IsNaN(m.GammaExposureStd) || m.GammaExposureStd < 0 {
		return fmt.Errorf("%w: exposure std %v cannot be negative", ErrInvalidMetric, m.GammaExposureStd)
	}
	return nil
}

// MarketMetrics builds and validates the scalar bundle.
func (e *Engine) MarketMetrics(exposures []gamma.StrikeExposure) (MarketMetrics, error) {
	st, err := e.Statistics(exposures)
	if err != nil {
		return MarketMetrics{}, err
	}

	maxCall, maxPut := MaxExposures(exposures)
	m := MarketMetrics{
		TotalNetGamma:          TotalNetGamma(exposures),
		GammaWeightedAvgStrike: GammaWeightedAverageStrike(exposures),
		CallPutGammaRatio:      CallPutGammaRatio(exposures),
		MaxCallExposure:        maxCall,
		MaxPutExposure:         maxPut,
		GammaExposureStd:       st.Std,
	}
	if err := m.Validate(); err != nil {
		return MarketMetrics{}, err
	}
	return m, nil
}

type DataQuality struct {
	TotalStrikes        int   `json:"total_strikes"`
	StrikesWithExposure int   `json:"strikes_with_exposure"`
	TotalOpenInterest   int64 `json:"total_open_interest"`
}

// Summary is the full metrics report for one chain.
type Summary struct {
	CoreMetrics   MarketMetrics      `json:"core_metrics"`
	CurrentPrice  float64            `json:"current_price"`
	Statistics    Statistics         `json:"statistics"`
	Percentiles   map[string]float64 `json:"percentiles"`
	Concentration Concentration      `json:"concentration"`
	DataQuality   DataQuality        `json:"data_quality"`
}

func (e *Engine) Summary(exposures []gamma.StrikeExposure, price float64) (*Summary, error) {
	core, err := e.MarketMetrics(exposures)
	if err != nil {
		return nil, fmt.Errorf("core metrics: %w", err)
	}
	st, err := e.Statistics(exposures)
	if err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}
	pct, err := e.PercentilesOf(exposures)
	if err != nil {
		return nil, fmt.Errorf("percentiles: %w", err)
	}

	dq := DataQuality{TotalStrikes: len(exposures)}
	for _, x := range exposures {
		if x.NetExposure != 0 {
			dq.StrikesWithExposure++
		}
		dq.TotalOpenInterest += x.TotalOpenInterest
	}

	return &Summary{
		CoreMetrics:   core,
		CurrentPrice:  price,
		Statistics:    st,
		Percentiles:   pct,
		Concentration: ConcentrationOf(exposures),
		DataQuality:   dq,
	}, nil
}
