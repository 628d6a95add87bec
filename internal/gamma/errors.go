package gamma

import "errors"

var (
	ErrInvalidParams = errors.New("invalid calculator parameters")
	ErrInvalidInput  = errors.New("invalid gamma input")
	ErrComputation   = errors.New("gamma computation produced a non-finite result")
	ErrInvariant     = errors.New("strike exposure invariant violated")
)
