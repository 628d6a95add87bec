package notify

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
)

// Priorities accepted by ntfy, lowest first.
var Priorities = []string{"min", "low", "default", "high", "urgent"}

// Config holds ntfy settings, read from NTFY_* environment variables.
type Config struct {
	Enabled  bool
	Server   string // default https://ntfy.sh
	Topic    string // required when enabled
	Priority string
	Tags     []string
	Token    string // access token for private topics

	// FailuresOnly suppresses notifications for clean runs.
	FailuresOnly bool
	// EscalateNegative raises clean runs to high priority when any symbol
	// sits in a negative gamma environment.
	EscalateNegative bool
}

func LoadConfig() *Config {
	return &Config{
		Enabled:          envBool("NTFY_ENABLED", false),
		Server:           envString("NTFY_SERVER", "https://ntfy.sh"),
		Topic:            os.Getenv("NTFY_TOPIC"),
		Priority:         strings.ToLower(envString("NTFY_PRIORITY", "default")),
		Tags:             splitTags(envString("NTFY_TAGS", "chart_with_upwards_trend")),
		Token:            os.Getenv("NTFY_TOKEN"),
		FailuresOnly:     envBool("NTFY_FAILURES_ONLY", false),
		EscalateNegative: envBool("NTFY_ESCALATE_NEGATIVE", true),
	}
}

// Validate checks configuration is valid when enabled.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Topic == "" {
		return fmt.Errorf("NTFY_TOPIC is required when NTFY_ENABLED=true")
	}
	if !slices.Contains(Priorities, c.Priority) {
		return fmt.Errorf("invalid NTFY_PRIORITY: %s (valid: %s)", c.Priority, strings.Join(Priorities, ", "))
	}
	return nil
}

func splitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return b
}
