package walls

import "errors"

var (
	ErrInvalidLevel    = errors.New("invalid wall level")
	ErrInvalidDetector = errors.New("invalid wall detector configuration")
)
