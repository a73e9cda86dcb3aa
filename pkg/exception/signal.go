package exception

import "errors"

var (
	ErrSignalQueueFull     = errors.New("signal: queue full")
	ErrSignalQueueClosed   = errors.New("signal: queue closed")
	ErrSignalUnknownAction = errors.New("signal: unknown action")
	ErrSignalInvalidBody   = errors.New("signal: invalid request body")
)
