// Package batch analyzes many symbols concurrently. Each symbol gets its
// own chain and report; nothing is shared between analyses.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-analyzer/internal/analysis"
	"github.com/dgnsrekt/gex-analyzer/internal/api"
)

// Exporter persists a finished report and returns where it went.
type Exporter interface {
	Export(r *analysis.Report) (string, error)
}

type Manager struct {
	client   api.Client
	analyzer *analysis.Analyzer
	exporter Exporter
	workers  int
	now      func() time.Time
	logger   *zap.Logger
}

type BatchResult struct {
	Total    int
	Success  int
	NotFound int
	Failed   int
	Errors   []string
	// Reports are ordered by symbol.
	Reports []*analysis.Report
}

// Headlines returns one summary row per successful report.
func (r *BatchResult) Headlines() []analysis.Headline {
	out := make([]analysis.Headline, 0, len(r.Reports))
	for _, rep := range r.Reports {
		out = append(out, rep.Headline())
	}
	return out
}

// NewManager wires a batch runner. exporter may be nil.
func NewManager(client api.Client, analyzer *analysis.Analyzer, exporter Exporter, workers int, logger *zap.Logger) *Manager {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		client:   client,
		analyzer: analyzer,
		exporter: exporter,
		workers:  workers,
		now:      time.Now,
		logger:   logger,
	}
}

func (m *Manager) Execute(ctx context.Context, tasks []Task) (*BatchResult, error) {
	result := &BatchResult{Total: len(tasks)}

	if len(tasks) == 0 {
		return result, nil
	}

	jobs := make(chan Task, len(tasks))
	results := make(chan TaskResult, len(tasks))

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < m.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			m.worker(ctx, workerID, jobs, results)
		}(i)
	}

	// Send jobs
	go func() {
		defer close(jobs)
		for _, task := range tasks {
			select {
			case <-ctx.Done():
				return
			case jobs <- task:
			}
		}
	}()

	// Wait for workers and close results
	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results
	for r := range results {
		switch {
		case r.NotFound:
			result.NotFound++
		case r.Success:
			result.Success++
			result.Reports = append(result.Reports, r.Report)
		default:
			result.Failed++
			if r.Error != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", r.Task, r.Error))
			}
		}
	}

	sort.Slice(result.Reports, func(i, j int) bool {
		return result.Reports[i].Symbol < result.Reports[j].Symbol
	})
	sort.Strings(result.Errors)

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func (m *Manager) worker(ctx context.Context, id int, jobs <-chan Task, results chan<- TaskResult) {
	for task := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		result := m.processTask(ctx, task)

		select {
		case <-ctx.Done():
			return
		case results <- result:
		}
	}
}

func (m *Manager) processTask(ctx context.Context, task Task) TaskResult {
	result := TaskResult{Task: task}

	m.logger.Info("analyzing", zap.String("task", task.String()))

	snapshot, err := m.client.FetchChain(ctx, task.Symbol)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			m.logger.Debug("not found", zap.String("task", task.String()))
			result.NotFound = true
			return result
		}
		result.Error = err
		return result
	}

	selected, err := task.Select(snapshot)
	if err != nil {
		result.Error = err
		return result
	}

	report, err := m.analyzer.Analyze(ctx, selected, m.now())
	if err != nil {
		result.Error = err
		return result
	}
	result.Report = report

	if m.exporter != nil {
		path, err := m.exporter.Export(report)
		if err != nil {
			result.Error = fmt.Errorf("exporting: %w", err)
			return result
		}
		result.ExportPath = path
	}

	result.Success = true
	m.logger.Info("analyzed",
		zap.String("task", task.String()),
		zap.String("environment", string(report.Environment.Environment)),
		zap.Int("skipped", len(report.Skipped)))

	return result
}
