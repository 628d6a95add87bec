package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-analyzer/internal/batch"
	"github.com/dgnsrekt/gex-analyzer/internal/metrics"
)

const sendTimeout = 30 * time.Second

// Notifier reports the outcome of a batch analysis run. label identifies
// the run, e.g. a session date or expiry selector.
type Notifier interface {
	SendSuccess(ctx context.Context, result *batch.BatchResult, label string, duration time.Duration) error
	SendFailure(ctx context.Context, result *batch.BatchResult, label string, duration time.Duration, err error) error
}

// message is one ntfy publish.
type message struct {
	title    string
	body     string
	priority string
	tags     []string
}

// Client publishes to an ntfy topic.
type Client struct {
	httpClient *http.Client
	config     *Config
	logger     *zap.Logger
}

var _ Notifier = (*Client)(nil)

func NewClient(cfg *Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: sendTimeout},
		config:     cfg,
		logger:     logger,
	}
}

func (c *Client) SendSuccess(ctx context.Context, result *batch.BatchResult, label string, duration time.Duration) error {
	if !c.config.Enabled || c.config.FailuresOnly {
		return nil
	}

	msg := message{
		title:    fmt.Sprintf("GEX Analysis Complete: %s", label),
		body:     FormatSuccessMessage(result, duration),
		priority: c.config.Priority,
		tags:     append(slices.Clone(c.config.Tags), "white_check_mark"),
	}

	// Short-gamma markets get flagged so they stand out in the feed.
	if n := negativeCount(result); n > 0 && c.config.EscalateNegative {
		msg.priority = "high"
		msg.tags = append(msg.tags, "warning")
		c.logger.Debug("batch includes negative gamma symbols", zap.Int("count", n))
	}

	return c.publish(ctx, msg)
}

func (c *Client) SendFailure(ctx context.Context, result *batch.BatchResult, label string, duration time.Duration, err error) error {
	if !c.config.Enabled {
		return nil
	}

	return c.publish(ctx, message{
		title:    fmt.Sprintf("GEX Analysis Failed: %s", label),
		body:     FormatFailureMessage(result, duration, err),
		priority: "high",
		tags:     append(slices.Clone(c.config.Tags), "x"),
	})
}

func (c *Client) publish(ctx context.Context, msg message) error {
	topicURL := strings.TrimSuffix(c.config.Server, "/") + "/" + c.config.Topic

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, topicURL, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Title", msg.title)
	req.Header.Set("Priority", msg.priority)
	req.Header.Set("Tags", strings.Join(msg.tags, ","))
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("failed to send notification", zap.Error(err))
		return fmt.Errorf("sending notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		c.logger.Warn("notification rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("topic", c.config.Topic),
		)
		return fmt.Errorf("notification failed with status: %d", resp.StatusCode)
	}

	c.logger.Debug("notification sent", zap.String("title", msg.title), zap.String("priority", msg.priority))
	return nil
}

func negativeCount(result *batch.BatchResult) int {
	n := 0
	for _, h := range result.Headlines() {
		if h.Environment == metrics.Negative {
			n++
		}
	}
	return n
}

// NoopNotifier is used when notifications are disabled.
type NoopNotifier struct{}

func (NoopNotifier) SendSuccess(context.Context, *batch.BatchResult, string, time.Duration) error {
	return nil
}

func (NoopNotifier) SendFailure(context.Context, *batch.BatchResult, string, time.Duration, error) error {
	return nil
}

// New creates the appropriate notifier based on config.
func New(cfg *Config, logger *zap.Logger) Notifier {
	if !cfg.Enabled {
		return NoopNotifier{}
	}
	return NewClient(cfg, logger)
}
