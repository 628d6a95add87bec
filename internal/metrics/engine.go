// Package metrics derives scalar summaries and the gamma-environment
// classification from per-strike exposures. Every function accepts an empty
// list and answers with zero values.
package metrics

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/montanaflynn/stats"

	"github.com/dgnsrekt/gex-analyzer/internal/gamma"
)

var DefaultPercentiles = []float64{10, 25, 50, 75, 90}

// Engine computes distribution statistics over net exposure.
type Engine struct {
	Percentiles []float64
}

func NewEngine(percentiles []float64) (*Engine, error) {
	if len(percentiles) == 0 {
		percentiles = DefaultPercentiles
	}
	for _, p := range percentiles {
		if math.IsNaN(p) || p < 0 || p > 100 {
			return nil, fmt.Errorf("%w: percentile %v outside [0, 100]", ErrMetrics, p)
		}
	}
	ps := make([]float64, len(percentiles))
	copy(ps, percentiles)
	return &Engine{Percentiles: ps}, nil
}

// Statistics describes the distribution of net exposure across strikes.
// Skewness is the biased sample skewness and Kurtosis the biased Fisher
// (excess) kurtosis; both are 0 when variance is 0.
type Statistics struct {
	Mean     float64 `json:"mean"`
	Std      float64 `json:"std"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"kurtosis"`
}

func netValues(exposures []gamma.StrikeExposure) stats.Float64Data {
	data := make(stats.Float64Data, len(exposures))
	for i, e := range exposures {
		data[i] = e.NetExposure
	}
	return data
}

func (e *Engine) Statistics(exposures []gamma.StrikeExposure) (Statistics, error) {
	if len(exposures) == 0 {
		return Statistics{}, nil
	}
	data := netValues(exposures)

	var (
		s   Statistics
		err error
	)
	if s.Mean, err = stats.Mean(data); err != nil {
		return Statistics{}, fmt.Errorf("%w: mean: %v", ErrMetrics, err)
	}
	if s.Std, err = stats.StandardDeviationPopulation(data); err != nil {
		return Statistics{}, fmt.Errorf("%w: standard deviation: %v", ErrMetrics, err)
	}
	if s.Min, err = stats.Min(data); err != nil {
		return Statistics{}, fmt.Errorf("%w: min: %v", ErrMetrics, err)
	}
	if s.Max, err = stats.Max(data); err != nil {
		return Statistics{}, fmt.Errorf("%w: max: %v", ErrMetrics, err)
	}
	if s.Median, err = stats.Median(data); err != nil {
		return Statistics{}, fmt.Errorf("%w: median: %v", ErrMetrics, err)
	}
	s.Skewness, s.Kurtosis = moments(data, s.Mean)
	return s, nil
}

func moments(data []float64, mean float64) (skew, kurt float64) {
	var m2, m3, m4 float64
	for _, x := range data {
		d := x - mean
		d2 := d * d
		m2 += d2
		m3 += d2 * d
		m4 += d2 * d2
	}
	n := float64(len(data))
	m2, m3, m4 = m2/n, m3/n, m4/n
	if m2 == 0 {
		return 0, 0
	}
	return m3 / math.Pow(m2, 1.5), m4/(m2*m2) - 3
}

// PercentileKey formats p as a summary key, e.g. 10 -> "p10", 12.5 -> "p12.5".
func PercentileKey(p float64) string {
	return "p" + strconv.FormatFloat(p, 'f', -1, 64)
}

// PercentilesOf interpolates linearly between the closest ranks of the
// sorted values, matching the common "linear" definition.
func (e *Engine) PercentilesOf(exposures []gamma.StrikeExposure) (map[string]float64, error) {
	out := make(map[string]float64, len(e.Percentiles))
	if len(exposures) == 0 {
		for _, p := range e.Percentiles {
			out[PercentileKey(p)] = 0
		}
		return out, nil
	}

	sorted := netValues(exposures)
	sort.Float64s(sorted)
	for _, p := range e.Percentiles {
		v, err := percentile(sorted, p)
		if err != nil {
			return nil, err
		}
		out[PercentileKey(p)] = v
	}
	return out, nil
}

func percentile(sorted []float64, p float64) (float64, error) {
	if math.IsNaN(p) || p < 0 || p > 100 {
		return 0, fmt.Errorf("%w: percentile %v outside [0, 100]", ErrMetrics, p)
	}
	h := float64(len(sorted)-1) * p / 100
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1], nil
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i]), nil
}
