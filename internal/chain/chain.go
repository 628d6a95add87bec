// Package chain loads, persists and synthesizes options chain snapshots.
package chain

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/dgnsrekt/gex-analyzer/internal/options"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported chain file format")
	ErrMissingColumns    = errors.New("missing required columns")
	ErrEmpty             = errors.New("chain contains no contracts")
	ErrTooLarge          = errors.New("chain file too large")
)

// MaxFileSize caps chain files accepted by LoadFile.
const MaxFileSize = 50 << 20

// Chain is a materialized snapshot handed to the analytics core. Spot may be
// zero when the source does not carry a price (e.g. CSV).
type Chain struct {
	Symbol    string             `json:"symbol"`
	Spot      float64            `json:"spot"`
	AsOf      time.Time          `json:"as_of"`
	Contracts []options.Contract `json:"contracts"`
}

// Summary describes what was loaded.
type Summary struct {
	TotalContracts    int       `json:"total_contracts"`
	UniqueStrikes     int       `json:"unique_strikes"`
	MinStrike         float64   `json:"min_strike"`
	MaxStrike         float64   `json:"max_strike"`
	MinExpiry         time.Time `json:"min_expiry"`
	MaxExpiry         time.Time `json:"max_expiry"`
	UniqueExpiries    int       `json:"unique_expiries"`
	Calls             int       `json:"calls"`
	Puts              int       `json:"puts"`
	TotalOpenInterest int64     `json:"total_open_interest"`
	AvgImpliedVol     float64   `json:"avg_implied_volatility"`
}

func (c *Chain) Summary() Summary {
	s := Summary{TotalContracts: len(c.Contracts)}
	if len(c.Contracts) == 0 {
		return s
	}

	strikes := make(map[float64]struct{})
	expiries := make(map[time.Time]struct{})
	s.MinStrike = math.Inf(1)
	s.MaxStrike = math.Inf(-1)

	var ivSum float64
	for _, k := range c.Contracts {
		strikes[k.Strike] = struct{}{}
		expiries[k.Expiry] = struct{}{}
		s.MinStrike = math.Min(s.MinStrike, k.Strike)
		s.MaxStrike = math.Max(s.MaxStrike, k.Strike)
		if s.MinExpiry.IsZero() || k.Expiry.Before(s.MinExpiry) {
			s.MinExpiry = k.Expiry
		}
		if k.Expiry.After(s.MaxExpiry) {
			s.MaxExpiry = k.Expiry
		}
		if k.Type == options.Call {
			s.Calls++
		} else {
			s.Puts++
		}
		s.TotalOpenInterest += k.OpenInterest
		ivSum += k.ImpliedVolatility
	}
	s.UniqueStrikes = len(strikes)
	s.UniqueExpiries = len(expiries)
	s.AvgImpliedVol = ivSum / float64(len(c.Contracts))
	return s
}

// Expiries returns the distinct expiries, ascending.
func (c *Chain) Expiries() []time.Time {
	seen := make(map[time.Time]struct{})
	var out []time.Time
	for _, k := range c.Contracts {
		if _, ok := seen[k.Expiry]; ok {
			continue
		}
		seen[k.Expiry] = struct{}{}
		out = append(out, k.Expiry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// FilterExpiry returns a copy holding only contracts expiring on the same
// calendar day as expiry.
func (c *Chain) FilterExpiry(expiry time.Time) *Chain {
	out := &Chain{Symbol: c.Symbol, Spot: c.Spot, AsOf: c.AsOf}
	y, m, d := expiry.Date()
	for _, k := range c.Contracts {
		ky, km, kd := k.Expiry.Date()
		if ky == y && km == m && kd == d {
			out.Contracts = append(out.Contracts, k)
		}
	}
	return out
}
