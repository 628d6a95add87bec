package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dgnsrekt/gex-analyzer/internal/gamma"
	"github.com/dgnsrekt/gex-analyzer/internal/metrics"
	"github.com/dgnsrekt/gex-analyzer/internal/walls"
)

const timestampLayout = "2006-01-02 15:04:05"

func writeHeader(w io.Writer, lines []string) error {
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "# %s\n", l); err != nil {
			return err
		}
	}
	return nil
}

func writeRows(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}

// WriteExposuresCSV writes one row per strike.
func WriteExposuresCSV(w io.Writer, symbol string, exposures []gamma.StrikeExposure, generated time.Time, withMetadata bool) error {
	if len(exposures) == 0 {
		return ErrNoData
	}

	if withMetadata {
		var total float64
		for _, e := range exposures {
			total += e.NetExposure
		}
		if err := writeHeader(w, []string{
			fmt.Sprintf("%s Gamma Exposure Data Export", symbol),
			"Generated: " + generated.Format(timestampLayout),
			fmt.Sprintf("Total Strikes: %d", len(exposures)),
			"Total Net Gamma: " + formatGrouped(total),
			"",
			"Columns:",
			"strike - Strike price",
			"call_gamma_exposure - Gamma exposure from call options",
			"put_gamma_exposure - Gamma exposure from put options",
			"net_gamma_exposure - Net gamma exposure (call + put)",
			"total_open_interest - Total open interest at strike",
			"",
		}); err != nil {
			return err
		}
	}

	rows := [][]string{{"strike", "call_gamma_exposure", "put_gamma_exposure", "net_gamma_exposure", "total_open_interest"}}
	for _, e := range exposures {
		rows = append(rows, []string{
			formatFixed(e.Strike, pricePlaces),
			formatFixed(e.CallExposure, exposurePlaces),
			formatFixed(e.PutExposure, exposurePlaces),
			formatFixed(e.NetExposure, exposurePlaces),
			strconv.FormatInt(e.TotalOpenInterest, 10),
		})
	}
	return writeRows(w, rows)
}

// WriteWallsCSV writes call and put walls ordered by type then rank.
func WriteWallsCSV(w io.Writer, symbol string, found walls.Walls, generated time.Time, withMetadata bool) error {
	levels := found.All()
	if len(levels) == 0 {
		return ErrNoData
	}
	sort.SliceStable(levels, func(i, j int) bool {
		if levels[i].Type != levels[j].Type {
			return levels[i].Type < levels[j].Type
		}
		return levels[i].SignificanceRank < levels[j].SignificanceRank
	})

	if withMetadata {
		if err := writeHeader(w, []string{
			fmt.Sprintf("%s Gamma Wall Data Export", symbol),
			"Generated: " + generated.Format(timestampLayout),
			fmt.Sprintf("Call Walls: %d", len(found.CallWalls)),
			fmt.Sprintf("Put Walls: %d", len(found.PutWalls)),
			"",
			"Columns:",
			"wall_type - Type of wall (call_wall or put_wall)",
			"strike - Strike price of the wall",
			"exposure_value - Gamma exposure value at the wall",
			"distance_from_spot - Distance from current spot price",
			"significance_rank - Ranking by significance (1 = most significant)",
			"",
		}); err != nil {
			return err
		}
	}

	rows := [][]string{{"wall_type", "strike", "exposure_value", "distance_from_spot", "significance_rank"}}
	for _, l := range levels {
		rows = append(rows, []string{
			string(l.Type),
			formatFixed(l.Strike, pricePlaces),
			formatFixed(l.ExposureValue, exposurePlaces),
			formatFixed(l.DistanceFromSpot, pricePlaces),
			strconv.Itoa(l.SignificanceRank),
		})
	}
	return writeRows(w, rows)
}

var metricDescriptions = map[string]string{
	"total_net_gamma":           "Total net gamma exposure across all strikes",
	"gamma_weighted_avg_strike": "Gamma-weighted average strike price",
	"call_put_gamma_ratio":      "Ratio of call to put gamma exposure",
	"max_call_exposure":         "Maximum call gamma exposure (most negative)",
	"max_put_exposure":          "Maximum put gamma exposure (most positive)",
	"gamma_exposure_std":        "Standard deviation of gamma exposure",
	"mean":                      "Mean gamma exposure",
	"std":                       "Standard deviation of gamma exposure",
	"min":                       "Minimum gamma exposure",
	"max":                       "Maximum gamma exposure",
	"median":                    "Median gamma exposure",
	"skewness":                  "Skewness of gamma exposure distribution",
	"kurtosis":                  "Kurtosis of gamma exposure distribution",
	"top_5_concentration":       "Share of exposure in top 5 strikes",
	"top_10_concentration":      "Share of exposure in top 10 strikes",
	"herfindahl_index":          "Herfindahl-Hirschman concentration index",
}

func describe(metric string) string {
	if d, ok := metricDescriptions[metric]; ok {
		return d
	}
	return "No description available"
}

// WriteMetricsCSV flattens a metrics summary into category/metric/value rows.
func WriteMetricsCSV(w io.Writer, symbol string, s *metrics.Summary, generated time.Time, withMetadata bool) error {
	if s == nil {
		return ErrNoData
	}

	if withMetadata {
		if err := writeHeader(w, []string{
			fmt.Sprintf("%s Gamma Exposure Metrics Export", symbol),
			"Generated: " + generated.Format(timestampLayout),
			"Current Price: " + formatFixed(s.CurrentPrice, pricePlaces),
			"",
			"Categories:",
			"core_metrics - Primary gamma exposure metrics",
			"statistics - Statistical measures of exposure distribution",
			"percentiles - Percentile values of exposure distribution",
			"concentration - Concentration measures",
			"",
		}); err != nil {
			return err
		}
	}

	rows := [][]string{{"category", "metric", "value", "description"}}
	add := func(category, metric, value string) {
		rows = append(rows, []string{category, metric, value, describe(metric)})
	}

	core := s.CoreMetrics
	add("core_metrics", "total_net_gamma", formatFixed(core.TotalNetGamma, exposurePlaces))
	add("core_metrics", "gamma_weighted_avg_strike", formatFixed(core.GammaWeightedAvgStrike, pricePlaces))
	add("core_metrics", "call_put_gamma_ratio", formatFixed(float64(core.CallPutGammaRatio), ratioPlaces))
	add("core_metrics", "max_call_exposure", formatFixed(core.MaxCallExposure, exposurePlaces))
	add("core_metrics", "max_put_exposure", formatFixed(core.MaxPutExposure, exposurePlaces))
	add("core_metrics", "gamma_exposure_std", formatFixed(core.GammaExposureStd, exposurePlaces))

	st := s.Statistics
	add("statistics", "mean", formatFixed(st.Mean, exposurePlaces))
	add("statistics", "std", formatFixed(st.Std, exposurePlaces))
	add("statistics", "min", formatFixed(st.Min, exposurePlaces))
	add("statistics", "max", formatFixed(st.Max, exposurePlaces))
	add("statistics", "median", formatFixed(st.Median, exposurePlaces))
	add("statistics", "skewness", formatFixed(st.Skewness, ratioPlaces))
	add("statistics", "kurtosis", formatFixed(st.Kurtosis, ratioPlaces))

	keys := make([]string, 0, len(s.Percentiles))
	for k := range s.Percentiles {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.ParseFloat(strings.TrimPrefix(keys[i], "p"), 64)
		b, _ := strconv.ParseFloat(strings.TrimPrefix(keys[j], "p"), 64)
		return a < b
	})
	for _, k := range keys {
		rows = append(rows, []string{
			"percentiles", k, formatFixed(s.Percentiles[k], exposurePlaces),
			fmt.Sprintf("Percentile %s of gamma exposure distribution", strings.TrimPrefix(k, "p")),
		})
	}

	c := s.Concentration
	add("concentration", "top_5_concentration", formatFixed(c.Top5, ratioPlaces))
	add("concentration", "top_10_concentration", formatFixed(c.Top10, ratioPlaces))
	add("concentration", "herfindahl_index", formatFixed(c.HHI, ratioPlaces))

	return writeRows(w, rows)
}
