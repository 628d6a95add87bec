// Package walls finds strikes where dealer gamma is concentrated enough to
// act as support or resistance.
package walls

import (
	"fmt"
	"math"
	"sort"

	"github.com/dgnsrekt/gex-analyzer/internal/gamma"
)

const (
	DefaultMinSignificance = 0.05
	DefaultMaxWalls        = 5
	DefaultNearbyPct       = 0.10
)

// Detector holds the wall thresholds. It is stateless between calls.
type Detector struct {
	MinSignificance float64 `json:"min_significance_threshold"`
	MaxWalls        int     `json:"max_walls"`
}

func NewDetector(minSignificance float64, maxWalls int) (*Detector, error) {
	if math.IsNaN(minSignificance) || minSignificance < 0 || minSignificance > 1 {
		return nil, fmt.Errorf("%w: min significance %v must be in [0, 1]", ErrInvalidDetector, minSignificance)
	}
	if maxWalls < 1 {
		return nil, fmt.Errorf("%w: max walls %d must be >= 1", ErrInvalidDetector, maxWalls)
	}
	return &Detector{MinSignificance: minSignificance, MaxWalls: maxWalls}, nil
}

func DefaultDetector() *Detector {
	return &Detector{MinSignificance: DefaultMinSignificance, MaxWalls: DefaultMaxWalls}
}

// Walls groups both sides of a detection pass.
type Walls struct {
	CallWalls []Level `json:"call_walls"`
	PutWalls  []Level `json:"put_walls"`
}

// All returns call walls followed by put walls.
func (w Walls) All() []Level {
	all := make([]Level, 0, len(w.CallWalls)+len(w.PutWalls))
	all = append(all, w.CallWalls...)
	return append(all, w.PutWalls...)
}

// Retag returns a copy with distances recomputed against spot.
func (w Walls) Retag(spot float64) Walls {
	return Walls{
		CallWalls: WithDistances(w.CallWalls, spot),
		PutWalls:  WithDistances(w.PutWalls, spot),
	}
}

type candidate struct {
	strike    float64
	exposure  float64
	magnitude float64
}

// CallWalls returns strikes with negative call exposure whose magnitude is at
// least MinSignificance of the side total, strongest first.
func (d *Detector) CallWalls(exposures []gamma.StrikeExposure, spot float64) []Level {
	cands := make([]candidate, 0)
	for _, e := range exposures {
		if e.CallExposure < 0 {
			cands = append(cands, candidate{e.Strike, e.CallExposure, math.Abs(e.CallExposure)})
		}
	}
	return d.rank(cands, CallWall, spot)
}

// PutWalls is the mirror of CallWalls over positive put exposure.
func (d *Detector) PutWalls(exposures []gamma.StrikeExposure, spot float64) []Level {
	cands := make([]candidate, 0)
	for _, e := range exposures {
		if e.PutExposure > 0 {
			cands = append(cands, candidate{e.Strike, e.PutExposure, e.PutExposure})
		}
	}
	return d.rank(cands, PutWall, spot)
}

func (d *Detector) FindAll(exposures []gamma.StrikeExposure, spot float64) Walls {
	return Walls{
		CallWalls: d.CallWalls(exposures, spot),
		PutWalls:  d.PutWalls(exposures, spot),
	}
}

func (d *Detector) rank(cands []candidate, typ Type, spot float64) []Level {
	levels := []Level{}

	var total float64
	for _, c := range cands {
		total += c.magnitude
	}
	if total == 0 {
		return levels
	}

	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].magnitude > cands[j].magnitude
	})

	threshold := total * d.MinSignificance
	for _, c := range cands {
		if len(levels) >= d.MaxWalls || c.magnitude < threshold {
			break
		}
		levels = append(levels, Level{
			Strike:           c.strike,
			ExposureValue:    c.exposure,
			Type:             typ,
			DistanceFromSpot: distance(c.strike, spot),
			SignificanceRank: len(levels) + 1,
		})
	}
	return levels
}

// WithDistances returns a copy of levels with distances measured from spot.
func WithDistances(levels []Level, spot float64) []Level {
	out := make([]Level, len(levels))
	for i, l := range levels {
		l.DistanceFromSpot = distance(l.Strike, spot)
		out[i] = l
	}
	return out
}

// Nearby keeps walls within spot*maxDistancePct of spot.
func Nearby(levels []Level, spot, maxDistancePct float64) []Level {
	limit := spot * maxDistancePct
	out := []Level{}
	for _, l := range levels {
		if l.DistanceFromSpot <= limit {
			out = append(out, l)
		}
	}
	return out
}

// RankBySignificance scores each wall by |exposure| / |total| and returns a
// new list ordered by score with ranks reassigned from 1. A zero total leaves
// the order and ranks unchanged.
func RankBySignificance(levels []Level, totalExposure float64) []Level {
	out := make([]Level, len(levels))
	copy(out, levels)
	if len(out) == 0 || totalExposure == 0 {
		return out
	}

	denom := math.Abs(totalExposure)
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].ExposureValue)/denom > math.Abs(out[j].ExposureValue)/denom
	})
	for i := range out {
		out[i].SignificanceRank = i + 1
	}
	return out
}
