package options

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Type is the option right: call or put.
type Type string

const (
	Call Type = "call"
	Put  Type = "put"
)

// ParseType normalizes s and returns the matching option type.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case Call:
		return Call, nil
	case Put:
		return Put, nil
	default:
		return "", &ValidationError{Field: "option_type", Value: s, Reason: "must be 'call' or 'put'"}
	}
}

// Valid reports whether t is one of the two option rights.
func (t Type) Valid() bool {
	return t == Call || t == Put
}

// Contract is a single listed option. Build it with NewContract so the
// invariants hold; the zero value is not a valid contract.
type Contract struct {
	Symbol            string    `json:"symbol"`
	Strike            float64   `json:"strike"`
	Expiry            time.Time `json:"expiry_date"`
	Type              Type      `json:"option_type"`
	OpenInterest      int64     `json:"open_interest"`
	Volume            int64     `json:"volume"`
	Bid               float64   `json:"bid"`
	Ask               float64   `json:"ask"`
	LastPrice         float64   `json:"last_price"`
	ImpliedVolatility float64   `json:"implied_volatility"`
}

// NewContract validates c and returns it. Invalid input is rejected, never coerced.
func NewContract(c Contract) (Contract, error) {
	if err := c.Validate(); err != nil {
		return Contract{}, err
	}
	return c, nil
}

// Validate checks the construction invariants of a contract.
func (c Contract) Validate() error {
	if !c.Type.Valid() {
		return &ValidationError{Field: "option_type", Value: string(c.Type), Reason: "must be 'call' or 'put'"}
	}
	if c.Strike <= 0 || math.IsNaN(c.Strike) || math.IsInf(c.Strike, 0) {
		return &ValidationError{Field: "strike", Value: fmt.Sprint(c.Strike), Reason: "must be positive"}
	}
	if c.OpenInterest < 0 {
		return &ValidationError{Field: "open_interest", Value: fmt.Sprint(c.OpenInterest), Reason: "cannot be negative"}
	}
	if c.ImpliedVolatility < 0 || math.IsNaN(c.ImpliedVolatility) {
		return &ValidationError{Field: "implied_volatility", Value: fmt.Sprint(c.ImpliedVolatility), Reason: "cannot be negative"}
	}
	return nil
}

func (c Contract) String() string {
	return fmt.Sprintf("%s %g %s", c.Symbol, c.Strike, c.Type)
}

// UnmarshalJSON decodes a contract and runs construction validation, so a
// decoded contract is always valid. Option type is case-insensitive and the
// expiry accepts RFC 3339 or a bare YYYY-MM-DD date.
func (c *Contract) UnmarshalJSON(b []byte) error {
	var raw struct {
		Symbol            string  `json:"symbol"`
		Strike            float64 `json:"strike"`
		Expiry            string  `json:"expiry_date"`
		Type              string  `json:"option_type"`
		OpenInterest      int64   `json:"open_interest"`
		Volume            int64   `json:"volume"`
		Bid               float64 `json:"bid"`
		Ask               float64 `json:"ask"`
		LastPrice         float64 `json:"last_price"`
		ImpliedVolatility float64 `json:"implied_volatility"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	typ, err := ParseType(raw.Type)
	if err != nil {
		return err
	}
	expiry, err := ParseExpiry(raw.Expiry)
	if err != nil {
		return err
	}

	parsed, err := NewContract(Contract{
		Symbol:            raw.Symbol,
		Strike:            raw.Strike,
		Expiry:            expiry,
		Type:              typ,
		OpenInterest:      raw.OpenInterest,
		Volume:            raw.Volume,
		Bid:               raw.Bid,
		Ask:               raw.Ask,
		LastPrice:         raw.LastPrice,
		ImpliedVolatility: raw.ImpliedVolatility,
	})
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

var expiryLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseExpiry parses an expiry timestamp. Date-only values resolve to
// midnight UTC of that day.
func ParseExpiry(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ValidationError{Field: "expiry_date", Value: s, Reason: "unrecognized date format"}
}
