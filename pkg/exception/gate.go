package exception

import "errors"

var (
	ErrGateUninitialized = errors.New("gate: not initialized")
	ErrGateNotConnected  = errors.New("gate: downstream not connected")
	ErrGateTornDown      = errors.New("gate: torn down")
)
