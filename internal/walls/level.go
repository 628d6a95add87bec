package walls

import (
	"fmt"
	"math"
)

// Type distinguishes resistance (call) walls from support (put) walls.
type Type string

const (
	CallWall Type = "call_wall"
	PutWall  Type = "put_wall"
)

func (t Type) Valid() bool {
	return t == CallWall || t == PutWall
}

// Level is one detected wall.
type Level struct {
	Strike           float64 `json:"strike"`
	ExposureValue    float64 `json:"exposure_value"`
	Type             Type    `json:"wall_type"`
	DistanceFromSpot float64 `json:"distance_from_spot"`
	SignificanceRank int     `json:"significance_rank"`
}

func NewLevel(strike, exposure float64, typ Type, distance float64, rank int) (Level, error) {
	switch {
	case !(strike > 0):
		return Level{}, fmt.Errorf("%w: strike %v must be positive", ErrInvalidLevel, strike)
	case rank < 1:
		return Level{}, fmt.Errorf("%w: rank %d must be >= 1", ErrInvalidLevel, rank)
	case !(distance >= 0):
		return Level{}, fmt.Errorf("%w: distance %v cannot be negative", ErrInvalidLevel, distance)
	case !typ.Valid():
		return Level{}, fmt.Errorf("%w: type %q", ErrInvalidLevel, typ)
	}
	return Level{
		Strike:           strike,
		ExposureValue:    exposure,
		Type:             typ,
		DistanceFromSpot: distance,
		SignificanceRank: rank,
	}, nil
}

// DistancePct is the distance from spot as a percentage of spot.
func (l Level) DistancePct(spot float64) float64 {
	if spot <= 0 {
		return 0
	}
	return l.DistanceFromSpot / spot * 100
}

func distance(strike, spot float64) float64 {
	return math.Abs(strike - spot)
}
