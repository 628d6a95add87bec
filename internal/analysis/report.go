package analysis

import (
	"time"

	"github.com/dgnsrekt/gex-analyzer/internal/gamma"
	"github.com/dgnsrekt/gex-analyzer/internal/metrics"
	"github.com/dgnsrekt/gex-analyzer/internal/walls"
)

// Report is everything derived from one chain snapshot.
type Report struct {
	ID            string                     `json:"id"`
	Symbol        string                     `json:"symbol"`
	Spot          float64                    `json:"spot"`
	AsOf          time.Time                  `json:"as_of"`
	GeneratedAt   time.Time                  `json:"generated_at"`
	ContractCount int                        `json:"contract_count"`
	Exposures     []gamma.StrikeExposure     `json:"exposures"`
	Skipped       []gamma.SkippedContract    `json:"skipped"`
	Portfolio     gamma.Portfolio            `json:"portfolio"`
	Walls         walls.Walls                `json:"walls"`
	WallSummary   walls.Summary              `json:"wall_summary"`
	NearbyWalls   []walls.Level              `json:"nearby_walls"`
	Metrics       metrics.MarketMetrics      `json:"market_metrics"`
	Environment   metrics.EnvironmentSummary `json:"environment"`
	Summary       *metrics.Summary           `json:"metrics_summary"`
	ExpectedMove  *ExpectedMove              `json:"expected_move,omitempty"`
}

// Headline is the one-line view of a report used by batch runs.
type Headline struct {
	Symbol      string              `json:"symbol"`
	Price       float64             `json:"price"`
	Contracts   int                 `json:"contracts"`
	Environment metrics.Environment `json:"environment"`
	Strength    string              `json:"strength"`
	NetGamma    float64             `json:"net_gamma"`
	FlipLevel   *float64            `json:"flip_level"`
	CallWalls   int                 `json:"call_walls"`
	PutWalls    int                 `json:"put_walls"`
	TopCallWall *float64            `json:"top_call_wall"`
	TopPutWall  *float64            `json:"top_put_wall"`
}

func (r *Report) Headline() Headline {
	h := Headline{
		Symbol:      r.Symbol,
		Price:       r.Spot,
		Contracts:   r.ContractCount,
		Environment: r.Environment.Environment,
		Strength:    r.Environment.Strength.Level,
		NetGamma:    r.Metrics.TotalNetGamma,
		FlipLevel:   r.Environment.GammaFlipLevel,
		CallWalls:   len(r.Walls.CallWalls),
		PutWalls:    len(r.Walls.PutWalls),
	}
	if len(r.Walls.CallWalls) > 0 {
		s := r.Walls.CallWalls[0].Strike
		h.TopCallWall = &s
	}
	if len(r.Walls.PutWalls) > 0 {
		s := r.Walls.PutWalls[0].Strike
		h.TopPutWall = &s
	}
	return h
}
