package api

import "errors"

var (
	ErrNotFound    = errors.New("chain not found for this symbol")
	ErrRateLimited = errors.New("rate limited by API")
	ErrAuthFailed  = errors.New("authentication failed")
)
