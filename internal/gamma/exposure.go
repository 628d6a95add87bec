package gamma

import (
	"fmt"
	"math"
)

// NetTolerance bounds |call + put - net| for a StrikeExposure.
const NetTolerance = 1e-6

// StrikeExposure is the aggregated dealer exposure at one strike.
type StrikeExposure struct {
	Strike            float64 `json:"strike"`
	CallExposure      float64 `json:"call_gamma_exposure"`
	PutExposure       float64 `json:"put_gamma_exposure"`
	NetExposure       float64 `json:"net_gamma_exposure"`
	TotalOpenInterest int64   `json:"total_open_interest"`
}

// NewStrikeExposure validates the record invariants.
func NewStrikeExposure(strike, call, put, net float64, openInterest int64) (StrikeExposure, error) {
	if !(strike > 0) || math.IsInf(strike, 0) {
		return StrikeExposure{}, fmt.Errorf("%w: strike %v must be positive", ErrInvariant, strike)
	}
	if openInterest < 0 {
		return StrikeExposure{}, fmt.Errorf("%w: open interest %d cannot be negative", ErrInvariant, openInterest)
	}
	if d := math.Abs(call + put - net); !(d <= NetTolerance) {
		return StrikeExposure{}, fmt.Errorf("%w: net %v != call %v + put %v", ErrInvariant, net, call, put)
	}
	return StrikeExposure{
		Strike:            strike,
		CallExposure:      call,
		PutExposure:       put,
		NetExposure:       net,
		TotalOpenInterest: openInterest,
	}, nil
}
