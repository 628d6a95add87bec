package config

import "github.com/dgnsrekt/gex-analyzer/internal/batch"

// Expiry selectors accepted by batch runs besides a YYYY-MM-DD date.
const (
	ExpiryAll     = batch.ExpiryAll
	ExpiryNearest = batch.ExpiryNearest
)

// DefaultSymbols lists the symbols analyzed when none are configured.
var DefaultSymbols = []string{
	"SPX", "NDX", "RUT", "SPY", "QQQ", "IWM",
	"AAPL", "TSLA", "NVDA", "META", "AMZN", "GOOGL",
}
