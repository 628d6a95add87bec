package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgnsrekt/gex-analyzer/internal/analysis"
	"github.com/dgnsrekt/gex-analyzer/internal/batch"
)

// maxHeadlines bounds how many symbols are listed in one message body.
const maxHeadlines = 10

// FormatSuccessMessage creates a success notification body.
func FormatSuccessMessage(result *batch.BatchResult, duration time.Duration) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Total: %d symbols\n", result.Total))
	sb.WriteString(fmt.Sprintf("Success: %d\n", result.Success))
	sb.WriteString(fmt.Sprintf("Not Found: %d\n", result.NotFound))
	sb.WriteString(fmt.Sprintf("Duration: %s", duration.Round(time.Second)))

	writeHeadlines(&sb, result.Headlines())

	return sb.String()
}

// FormatFailureMessage creates a failure notification body.
func FormatFailureMessage(result *batch.BatchResult, duration time.Duration, err error) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Total: %d symbols\n", result.Total))
	sb.WriteString(fmt.Sprintf("Success: %d\n", result.Success))
	sb.WriteString(fmt.Sprintf("Failed: %d\n", result.Failed))
	sb.WriteString(fmt.Sprintf("Not Found: %d\n", result.NotFound))
	sb.WriteString(fmt.Sprintf("Duration: %s", duration.Round(time.Second)))

	if err != nil {
		sb.WriteString(fmt.Sprintf("\n\nError: %v", err))
	}

	// Include first 3 error messages if available
	if len(result.Errors) > 0 {
		sb.WriteString("\n\nErrors:\n")
		limit := 3
		if len(result.Errors) < limit {
			limit = len(result.Errors)
		}
		for i := 0; i < limit; i++ {
			sb.WriteString(fmt.Sprintf("- %s\n", result.Errors[i]))
		}
		if len(result.Errors) > 3 {
			sb.WriteString(fmt.Sprintf("... and %d more errors", len(result.Errors)-3))
		}
	}

	return sb.String()
}

// FormatHeadline renders one symbol as a single line, e.g.
// "SPX 4500.00 positive (strong) flip 4475.00 call 4550 put 4400".
func FormatHeadline(h analysis.Headline) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s %.2f %s", h.Symbol, h.Price, h.Environment))
	if h.Strength != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", h.Strength))
	}
	if h.FlipLevel != nil {
		sb.WriteString(fmt.Sprintf(" flip %.2f", *h.FlipLevel))
	}
	if h.TopCallWall != nil {
		sb.WriteString(fmt.Sprintf(" call %g", *h.TopCallWall))
	}
	if h.TopPutWall != nil {
		sb.WriteString(fmt.Sprintf(" put %g", *h.TopPutWall))
	}

	return sb.String()
}

func writeHeadlines(sb *strings.Builder, headlines []analysis.Headline) {
	if len(headlines) == 0 {
		return
	}

	sb.WriteString("\n\n")
	for i, h := range headlines {
		if i == maxHeadlines {
			sb.WriteString(fmt.Sprintf("... and %d more symbols", len(headlines)-maxHeadlines))
			return
		}
		sb.WriteString(FormatHeadline(h))
		sb.WriteString("\n")
	}
}
