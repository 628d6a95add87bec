package export

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Decimal places used in exported files.
const (
	pricePlaces    = 2
	exposurePlaces = 2
	ratioPlaces    = 6
)

// formatFixed renders v with a fixed number of places. Non-finite values,
// which decimal cannot represent, are written the way strconv spells them.
func formatFixed(v float64, places int32) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

// formatGrouped renders v rounded to whole units with thousands separators.
func formatGrouped(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := decimal.NewFromFloat(v).Round(0).StringFixed(0)

	neg := len(s) > 0 && s[0] == '-'
	if neg {
		s = s[1:]
	}
	out := make([]byte, 0, len(s)+len(s)/3+1)
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
