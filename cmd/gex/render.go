package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/dgnsrekt/gex-analyzer/internal/analysis"
	"github.com/dgnsrekt/gex-analyzer/internal/walls"
)

const (
	ruleWidth  = 80
	labelWidth = 28
	wallColumn = 38
)

// renderReport formats a report for the terminal.
func renderReport(r *analysis.Report, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", ruleWidth) + "\n")
	sb.WriteString(fmt.Sprintf(" %s Gamma Exposure Analysis\n", r.Symbol))
	sb.WriteString(strings.Repeat("=", ruleWidth) + "\n")
	metric(&sb, "Price", fmt.Sprintf("%.2f", r.Spot))
	metric(&sb, "Contracts", fmt.Sprintf("%d (%d strikes, %d skipped)", r.ContractCount, len(r.Exposures), len(r.Skipped)))
	if !r.AsOf.IsZero() {
		metric(&sb, "As of", fmt.Sprintf("%s (%s)", r.AsOf.Format("2006-01-02 15:04 MST"), humanize.RelTime(r.AsOf, now, "ago", "from now")))
	}

	renderEnvironment(&sb, r)
	renderMetrics(&sb, r)
	renderWalls(&sb, r)
	renderExpectedMove(&sb, r.ExpectedMove)

	if len(r.Skipped) > 0 {
		section(&sb, "Skipped Contracts")
		for i, s := range r.Skipped {
			if i == 5 {
				sb.WriteString(fmt.Sprintf("... and %d more\n", len(r.Skipped)-5))
				break
			}
			sb.WriteString(fmt.Sprintf("%s %g %s: %s\n", s.Contract.Symbol, s.Contract.Strike, s.Contract.Type, s.Reason))
		}
	}

	return sb.String()
}

func section(sb *strings.Builder, title string) {
	sb.WriteString("\n" + title + "\n")
	sb.WriteString(strings.Repeat("-", 60) + "\n")
}

// metric writes "label....... value".
func metric(sb *strings.Builder, label, value string) {
	dots := labelWidth - len(label)
	if dots < 1 {
		dots = 1
	}
	sb.WriteString(label + strings.Repeat(".", dots) + " " + value + "\n")
}

func renderEnvironment(sb *strings.Builder, r *analysis.Report) {
	env := r.Environment
	section(sb, "Gamma Environment")

	metric(sb, "Environment", env.Description)
	metric(sb, "Strength", fmt.Sprintf("%s (%.4f) | volatility impact: %s",
		env.Strength.Level, env.Strength.Value, env.Strength.VolatilityImpact))

	if env.GammaFlipLevel != nil {
		flip := *env.GammaFlipLevel
		metric(sb, "Flip level", fmt.Sprintf("%s (%+.1f%%)", humanize.Commaf(math.Round(flip)), pct(flip-r.Spot, r.Spot)))
	} else {
		metric(sb, "Flip level", "none")
	}

	metric(sb, "Strikes", fmt.Sprintf("%d positive (%.0f%%) | %d negative (%.0f%%) | %d neutral",
		env.PositiveStrikes, env.PositivePct, env.NegativeStrikes, env.NegativePct, env.NeutralStrikes))
	sb.WriteString(env.Interpretation + "\n")
}

func renderMetrics(sb *strings.Builder, r *analysis.Report) {
	m := r.Metrics
	section(sb, "Key Metrics")

	ratio := "inf"
	if !m.CallPutGammaRatio.IsInf() {
		ratio = fmt.Sprintf("%.2f", float64(m.CallPutGammaRatio))
	}

	metric(sb, "Net gamma", humanize.Commaf(math.Round(m.TotalNetGamma)))
	metric(sb, "Call/put ratio", ratio)
	metric(sb, "Weighted avg strike", humanize.Commaf(math.Round(m.GammaWeightedAvgStrike)))
	metric(sb, "Max call exposure", humanize.Commaf(math.Round(m.MaxCallExposure)))
	metric(sb, "Max put exposure", humanize.Commaf(math.Round(m.MaxPutExposure)))
	metric(sb, "Gamma std dev", humanize.Commaf(math.Round(m.GammaExposureStd)))
	metric(sb, "Total open interest", humanize.Comma(r.Portfolio.TotalOpenInterest))

	if r.Summary != nil {
		c := r.Summary.Concentration
		metric(sb, "Concentration", fmt.Sprintf("top5 %.1f%% | top10 %.1f%% | HHI %.4f", c.Top5*100, c.Top10*100, c.HHI))
	}
}

func renderWalls(sb *strings.Builder, r *analysis.Report) {
	section(sb, "Gamma Walls")

	calls, puts := r.Walls.CallWalls, r.Walls.PutWalls
	if len(calls) == 0 && len(puts) == 0 {
		sb.WriteString("No significant gamma walls identified\n")
		return
	}

	sb.WriteString(fmt.Sprintf("%-*s %s\n", wallColumn, "Call walls (resistance)", "Put walls (support)"))
	rows := max(len(calls), len(puts))
	for i := 0; i < rows; i++ {
		var left, right string
		if i < len(calls) {
			left = wallCell(calls[i], r.Spot)
		}
		if i < len(puts) {
			right = wallCell(puts[i], r.Spot)
		}
		sb.WriteString(strings.TrimRight(fmt.Sprintf("%-*s %s", wallColumn, left, right), " ") + "\n")
	}

	if n := r.WallSummary.NearestWall; n != nil {
		metric(sb, "Nearest wall", fmt.Sprintf("%s %g (%.1f%% away)", n.Type, n.Strike, n.DistancePct))
	}
}

func wallCell(l walls.Level, spot float64) string {
	return fmt.Sprintf("#%d %g (%+.1f%%) %s", l.SignificanceRank, l.Strike, pct(l.Strike-spot, spot), humanize.Commaf(math.Round(l.ExposureValue)))
}

func renderExpectedMove(sb *strings.Builder, m *analysis.ExpectedMove) {
	section(sb, "Expected Move")
	if m == nil {
		sb.WriteString("Not available\n")
		return
	}

	metric(sb, "ATM implied vol", fmt.Sprintf("%.2f%%", m.ATMImpliedVol*100))
	metric(sb, "Days to expiry", fmt.Sprintf("%.1f", m.DaysToExpiry))
	metric(sb, fmt.Sprintf("1 SD (%.1f%%)", m.Probability1SD), fmt.Sprintf("+/-%.2f (%.2f%%) range %.2f - %.2f", m.Move1SD, m.MovePct1SD, m.Lower1SD, m.Upper1SD))
	metric(sb, fmt.Sprintf("2 SD (%.1f%%)", m.Probability2SD), fmt.Sprintf("+/-%.2f (%.2f%%) range %.2f - %.2f", m.Move2SD, m.MovePct2SD, m.Lower2SD, m.Upper2SD))
}

func pct(diff, base float64) float64 {
	if base == 0 {
		return 0
	}
	return diff / base * 100
}
