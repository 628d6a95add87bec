package batch

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgnsrekt/gex-analyzer/internal/analysis"
	"github.com/dgnsrekt/gex-analyzer/internal/chain"
)

const (
	ExpiryAll     = "all"
	ExpiryNearest = "nearest"
)

// Task is one symbol to analyze. Expiry is "all", "nearest" or a
// YYYY-MM-DD date restricting the chain to that expiry.
type Task struct {
	Symbol string
	Expiry string
}

func (t Task) String() string {
	if t.Expiry == "" || t.Expiry == ExpiryAll {
		return t.Symbol
	}
	return fmt.Sprintf("%s@%s", t.Symbol, t.Expiry)
}

// Select narrows c to the task's expiry.
func (t Task) Select(c *chain.Chain) (*chain.Chain, error) {
	switch strings.ToLower(t.Expiry) {
	case "", ExpiryAll:
		return c, nil
	case ExpiryNearest:
		expiries := c.Expiries()
		if len(expiries) == 0 {
			return nil, chain.ErrEmpty
		}
		return c.FilterExpiry(expiries[0]), nil
	}

	day, err := time.Parse("2006-01-02", t.Expiry)
	if err != nil {
		return nil, fmt.Errorf("invalid expiry %q: %w", t.Expiry, err)
	}
	selected := c.FilterExpiry(day)
	if len(selected.Contracts) == 0 {
		return nil, fmt.Errorf("%w: no contracts expire on %s", chain.ErrEmpty, t.Expiry)
	}
	return selected, nil
}

// TasksFor builds one task per symbol sharing an expiry selector.
func TasksFor(symbols []string, expiry string) []Task {
	tasks := make([]Task, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		tasks = append(tasks, Task{Symbol: s, Expiry: expiry})
	}
	return tasks
}

type TaskResult struct {
	Task       Task
	Success    bool
	NotFound   bool
	Report     *analysis.Report
	ExportPath string
	Error      error
}
