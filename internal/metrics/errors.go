package metrics

import "errors"

var (
	ErrMetrics       = errors.New("metrics computation failed")
	ErrInvalidMetric = errors.New("invalid market metrics")
)
