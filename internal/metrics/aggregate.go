package metrics

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"

	"github.com/dgnsrekt/gex-analyzer/internal/gamma"
)

func TotalNetGamma(exposures []gamma.StrikeExposure) float64 {
	var total float64
	for _, e := range exposures {
		total += e.NetExposure
	}
	return total
}

func GammaWeightedAverageStrike(exposures []gamma.StrikeExposure) float64 {
	return gamma.PortfolioOf(exposures).WeightedAvgStrike
}

// Ratio is a non-negative ratio that may be +Inf. It encodes +Inf as the
// JSON string "+Inf".
type Ratio float64

func (r Ratio) IsInf() bool {
	return math.IsInf(float64(r), 1)
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	if r.IsInf() {
		return []byte(`"+Inf"`), nil
	}
	return json.Marshal(float64(r))
}

func (r *Ratio) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*r = Ratio(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*r = Ratio(f)
	return nil
}

// CallPutGammaRatio is Σ|call| / Σ|put|. With no put gamma it is +Inf when
// calls carry gamma and 0 otherwise.
func CallPutGammaRatio(exposures []gamma.StrikeExposure) Ratio {
	var calls, puts float64
	for _, e := range exposures {
		calls += math.Abs(e.CallExposure)
		puts += math.Abs(e.PutExposure)
	}
	if puts == 0 {
		if calls > 0 {
			return Ratio(math.Inf(1))
		}
		return 0
	}
	return Ratio(calls / puts)
}

// MaxExposures returns the most negative call exposure and the most positive
// put exposure, each 0 when none qualify.
func MaxExposures(exposures []gamma.StrikeExposure) (maxCall, maxPut float64) {
	for _, e := range exposures {
		if e.CallExposure < maxCall {
			maxCall = e.CallExposure
		}
		if e.PutExposure > maxPut {
			maxPut = e.PutExposure
		}
	}
	return maxCall, maxPut
}

// FlipLevel returns the midpoint of the adjacent strike pair with a strict
// sign change in net exposure and the largest combined magnitude, or nil.
// Exposures must be sorted ascending by strike.
func FlipLevel(exposures []gamma.StrikeExposure) *float64 {
	var (
		found bool
		best  float64
		level float64
	)
	for i := 0; i+1 < len(exposures); i++ {
		a, b := exposures[i], exposures[i+1]
		if !((a.NetExposure > 0 && b.NetExposure < 0) || (a.NetExposure < 0 && b.NetExposure > 0)) {
			continue
		}
		force := math.Abs(a.NetExposure) + math.Abs(b.NetExposure)
		if !found || force > best {
			found = true
			best = force
			level = (a.Strike + b.Strike) / 2
		}
	}
	if !found {
		return nil
	}
	return &level
}

// Concentration measures how much of total |net exposure| sits in the largest strikes.
type Concentration struct {
	Top5  float64 `json:"top_5_concentration"`
	Top10 float64 `json:"top_10_concentration"`
	HHI   float64 `json:"herfindahl_index"`
}

func ConcentrationOf(exposures []gamma.StrikeExposure) Concentration {
	mags := make([]float64, 0, len(exposures))
	var total float64
	for _, e := range exposures {
		m := math.Abs(e.NetExposure)
		mags = append(mags, m)
		total += m
	}
	if total == 0 {
		return Concentration{}
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(mags)))

	var c Concentration
	for i, m := range mags {
		share := m / total
		if i < 5 {
			c.Top5 += share
		}
		if i < 10 {
			c.Top10 += share
		}
		c.HHI += share * share
	}
	return c
}
