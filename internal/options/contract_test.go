package options

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validContract() Contract {
	return Contract{
		Symbol:            "SPX",
		Strike:            4500,
		Expiry:            time.Date(2025, 12, 19, 0, 0, 0, 0, time.UTC),
		Type:              Call,
		OpenInterest:      1000,
		ImpliedVolatility: 0.2,
	}
}

func TestParseType(t *testing.T) {
	typ, err := ParseType("  CALL ")
	require.NoError(t, err)
	assert.Equal(t, Call, typ)

	typ, err = ParseType("Put")
	require.NoError(t, err)
	assert.Equal(t, Put, typ)

	_, err = ParseType("straddle")
	assert.ErrorIs(t, err, ErrInvalidContract)
}

func TestNewContract_Valid(t *testing.T) {
	c, err := NewContract(validContract())
	require.NoError(t, err)
	assert.Equal(t, 4500.0, c.Strike)
}

func TestNewContract_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Contract)
		field  string
	}{
		{"zero strike", func(c *Contract) { c.Strike = 0 }, "strike"},
		{"negative strike", func(c *Contract) { c.Strike = -10 }, "strike"},
		{"negative open interest", func(c *Contract) { c.OpenInterest = -1 }, "open_interest"},
		{"negative iv", func(c *Contract) { c.ImpliedVolatility = -0.1 }, "implied_volatility"},
		{"bad type", func(c *Contract) { c.Type = "future" }, "option_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validContract()
			tt.mutate(&c)

			_, err := NewContract(c)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidContract))

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestContract_UnmarshalJSON(t *testing.T) {
	payload := `{"symbol":"SPX","strike":4500,"expiry_date":"2025-12-19","option_type":"PUT","open_interest":250,"implied_volatility":0.18}`

	var c Contract
	require.NoError(t, json.Unmarshal([]byte(payload), &c))
	assert.Equal(t, Put, c.Type)
	assert.Equal(t, int64(250), c.OpenInterest)
	assert.Equal(t, time.Date(2025, 12, 19, 0, 0, 0, 0, time.UTC), c.Expiry)
}

func TestContract_UnmarshalJSONRejectsInvalid(t *testing.T) {
	payload := `{"symbol":"SPX","strike":-1,"expiry_date":"2025-12-19","option_type":"call","open_interest":1}`

	var c Contract
	err := json.Unmarshal([]byte(payload), &c)
	assert.ErrorIs(t, err, ErrInvalidContract)
}

func TestParseExpiry(t *testing.T) {
	for _, s := range []string{"2025-12-19", "2025-12-19T16:00:00Z", "2025-12-19 16:00:00"} {
		_, err := ParseExpiry(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseExpiry("19/12/2025")
	assert.Error(t, err)
}
