package exception

import "errors"

var (
	ErrDownstreamClosed      = errors.New("downstream: connection closed")
	ErrDownstreamUnavailable = errors.New("downstream: endpoint unavailable")
)
