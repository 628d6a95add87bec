package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/dgnsrekt/gex-analyzer/internal/options"
)

const atmContracts = 10

// ExpectedMove is the implied-volatility move estimate for the chain.
type ExpectedMove struct {
	CurrentPrice   float64 `json:"current_price"`
	ATMImpliedVol  float64 `json:"atm_implied_volatility"`
	AvgImpliedVol  float64 `json:"avg_implied_volatility"`
	DaysToExpiry   float64 `json:"days_to_expiry"`
	Move1SD        float64 `json:"expected_move_1sd"`
	Move2SD        float64 `json:"expected_move_2sd"`
	MovePct1SD     float64 `json:"move_pct_1sd"`
	MovePct2SD     float64 `json:"move_pct_2sd"`
	Upper1SD       float64 `json:"upper_1sd"`
	Lower1SD       float64 `json:"lower_1sd"`
	Upper2SD       float64 `json:"upper_2sd"`
	Lower2SD       float64 `json:"lower_2sd"`
	Probability1SD float64 `json:"probability_1sd"`
	Probability2SD float64 `json:"probability_2sd"`
}

// ComputeExpectedMove averages the IV of the contracts closest to spot and
// the whole-day time to expiry (at least one day, measured from midnight).
// It returns nil for an empty chain or a non-positive spot.
func ComputeExpectedMove(contracts []options.Contract, spot float64, now time.Time) *ExpectedMove {
	if len(contracts) == 0 || !(spot > 0) {
		return nil
	}

	byDistance := make([]options.Contract, len(contracts))
	copy(byDistance, contracts)
	sort.SliceStable(byDistance, func(i, j int) bool {
		return math.Abs(byDistance[i].Strike-spot) < math.Abs(byDistance[j].Strike-spot)
	})

	n := min(atmContracts, len(byDistance))
	var atmIV float64
	for _, c := range byDistance[:n] {
		atmIV += c.ImpliedVolatility
	}
	atmIV /= float64(n)

	today := midnight(now)
	var ivSum, dteSum float64
	for _, c := range contracts {
		ivSum += c.ImpliedVolatility
		days := math.Floor(midnight(c.Expiry).Sub(today).Hours() / 24)
		dteSum += math.Max(1, days)
	}
	dte := dteSum / float64(len(contracts))

	move := spot * atmIV * math.Sqrt(dte/365)
	return &ExpectedMove{
		CurrentPrice:   spot,
		ATMImpliedVol:  atmIV,
		AvgImpliedVol:  ivSum / float64(len(contracts)),
		DaysToExpiry:   dte,
		Move1SD:        move,
		Move2SD:        2 * move,
		MovePct1SD:     move / spot * 100,
		MovePct2SD:     2 * move / spot * 100,
		Upper1SD:       spot + move,
		Lower1SD:       spot - move,
		Upper2SD:       spot + 2*move,
		Lower2SD:       spot - 2*move,
		Probability1SD: 68.2,
		Probability2SD: 95.4,
	}
}

// midnight truncates to the UTC calendar day so expiries and now compare in one zone.
func midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
