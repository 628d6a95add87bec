package chain

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/scmhub/calendar"

	"github.com/dgnsrekt/gex-analyzer/internal/options"
)

const (
	DefaultNumStrikes   = 20
	DefaultDaysToExpiry = 30
)

// Generator builds synthetic chains around a spot price. Expiries land on
// the NYSE close of a business day.
type Generator struct {
	Symbol       string
	NumStrikes   int
	DaysToExpiry int

	rng      *rand.Rand
	nyse     *calendar.Calendar
	location *time.Location
}

// NewGenerator returns a generator seeded for reproducible output.
func NewGenerator(symbol string, numStrikes, daysToExpiry int, seed uint64) (*Generator, error) {
	if numStrikes < 2 {
		return nil, fmt.Errorf("num strikes must be >= 2, got %d", numStrikes)
	}
	if daysToExpiry < 0 {
		return nil, fmt.Errorf("days to expiry cannot be negative, got %d", daysToExpiry)
	}
	if symbol == "" {
		symbol = defaultSymbol
	}

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}

	return &Generator{
		Symbol:       symbol,
		NumStrikes:   numStrikes,
		DaysToExpiry: daysToExpiry,
		rng:          rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		nyse:         calendar.XNYS(),
		location:     loc,
	}, nil
}

// Expiry rolls now + DaysToExpiry forward to the next NYSE business day.
func (g *Generator) Expiry(now time.Time) time.Time {
	d := now.In(g.location).AddDate(0, 0, g.DaysToExpiry)
	day := time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, g.location)
	for i := 0; i < 10 && !g.nyse.IsBusinessDay(day); i++ {
		day = day.AddDate(0, 0, 1)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 16, 0, 0, 0, g.location)
}

// Generate creates one call and one put per strike, strikes spaced evenly
// over [0.9, 1.1] of spot and rounded to whole points.
func (g *Generator) Generate(spot float64, now time.Time) (*Chain, error) {
	if !(spot > 0) {
		return nil, fmt.Errorf("spot %v must be positive", spot)
	}

	expiry := g.Expiry(now)
	lo, hi := spot*0.9, spot*1.1
	step := (hi - lo) / float64(g.NumStrikes-1)

	c := &Chain{
		Symbol:    g.Symbol,
		Spot:      spot,
		AsOf:      now,
		Contracts: make([]options.Contract, 0, 2*g.NumStrikes),
	}
	for i := 0; i < g.NumStrikes; i++ {
		strike := math.Round(lo + float64(i)*step)
		intrinsic := spot - strike
		for _, typ := range []options.Type{options.Call, options.Put} {
			if typ == options.Put {
				intrinsic = strike - spot
			}
			contract, err := options.NewContract(options.Contract{
				Symbol:            g.Symbol,
				Strike:            strike,
				Expiry:            expiry,
				Type:              typ,
				OpenInterest:      int64(100 + g.rng.IntN(4900)),
				Volume:            int64(g.rng.IntN(1000)),
				Bid:               math.Max(0.1, intrinsic+g.rng.NormFloat64()*10),
				Ask:               math.Max(0.2, intrinsic+g.rng.NormFloat64()*10+0.5),
				LastPrice:         math.Max(0.15, intrinsic+g.rng.NormFloat64()*10+0.25),
				ImpliedVolatility: math.Max(0.1, 0.2+g.rng.NormFloat64()*0.05),
			})
			if err != nil {
				return nil, fmt.Errorf("generating strike %v: %w", strike, err)
			}
			c.Contracts = append(c.Contracts, contract)
		}
	}
	return c, nil
}
