package chain

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-analyzer/internal/options"
)

var requiredColumns = []string{"strike", "expiry_date", "option_type", "open_interest"}

const (
	defaultSymbol = "SPX"
	defaultIV     = 0.2
	// Values above this are percentages, not decimals.
	percentIVCutoff = 10.0
)

// CSVResult holds the parsed contracts and the rows that were dropped.
type CSVResult struct {
	Contracts  []options.Contract
	Dropped    int
	Normalized int
	Warnings   []string
}

// ReadCSV parses an options chain with a header row. Rows with a missing or
// invalid strike, type, expiry or open interest are dropped and counted.
func ReadCSV(r io.Reader, logger *zap.Logger) (*CSVResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	res := &CSVResult{}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		row := csvRow{cols: cols, record: record}
		contract, normalized, err := row.contract()
		if err != nil {
			res.Dropped++
			res.Warnings = append(res.Warnings, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		if normalized {
			res.Normalized++
		}
		res.Contracts = append(res.Contracts, contract)
	}

	if res.Dropped > 0 {
		logger.Warn("dropped rows with critical missing data", zap.Int("rows", res.Dropped))
	}
	if res.Normalized > 0 {
		logger.Info("normalized percentage implied volatility", zap.Int("rows", res.Normalized))
	}
	if len(res.Contracts) == 0 {
		return nil, ErrEmpty
	}
	return res, nil
}

type csvRow struct {
	cols   map[string]int
	record []string
}

func (r csvRow) get(col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func (r csvRow) float(col string, def float64) (float64, error) {
	s := r.get(col)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, fmt.Errorf("%s %q is not a number", col, s)
	}
	return v, nil
}

// count parses a whole, non-negative quantity. Integral floats such as
// "1200.0" are accepted; fractions and out-of-range values are not.
func (r csvRow) count(col string) (int64, error) {
	s := r.get(col)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		v, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || v != math.Trunc(v) || math.Abs(v) >= math.MaxInt64 {
			return 0, fmt.Errorf("%s %q is not a whole number", col, s)
		}
		n = int64(v)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s %d cannot be negative", col, n)
	}
	return n, nil
}

func (r csvRow) contract() (options.Contract, bool, error) {
	strike, err := r.float("strike", math.NaN())
	if err != nil {
		return options.Contract{}, false, err
	}
	if math.IsNaN(strike) {
		return options.Contract{}, false, errors.New("strike is missing")
	}

	typ, err := options.ParseType(r.get("option_type"))
	if err != nil {
		return options.Contract{}, false, err
	}

	expiry, err := options.ParseExpiry(r.get("expiry_date"))
	if err != nil {
		return options.Contract{}, false, err
	}

	oi, err := r.count("open_interest")
	if err != nil {
		return options.Contract{}, false, err
	}
	volume, err := r.count("volume")
	if err != nil {
		return options.Contract{}, false, err
	}
	bid, err := r.float("bid", 0)
	if err != nil {
		return options.Contract{}, false, err
	}
	ask, err := r.float("ask", 0)
	if err != nil {
		return options.Contract{}, false, err
	}
	last, err := r.float("last_price", 0)
	if err != nil {
		return options.Contract{}, false, err
	}
	iv, err := r.float("implied_volatility", defaultIV)
	if err != nil {
		return options.Contract{}, false, err
	}

	normalized := false
	if iv > percentIVCutoff {
		iv /= 100
		normalized = true
	}

	symbol := r.get("symbol")
	if symbol == "" {
		symbol = defaultSymbol
	}

	c, err := options.NewContract(options.Contract{
		Symbol:            symbol,
		Strike:            strike,
		Expiry:            expiry,
		Type:              typ,
		OpenInterest:      oi,
		Volume:            volume,
		Bid:               bid,
		Ask:               ask,
		LastPrice:         last,
		ImpliedVolatility: iv,
	})
	return c, normalized, err
}
