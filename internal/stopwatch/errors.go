package stopwatch

import "errors"

var (
	ErrInvalidTransition = errors.New("invalid stopwatch transition")
	ErrIndexOutOfRange   = errors.New("lap index out of range")
)
