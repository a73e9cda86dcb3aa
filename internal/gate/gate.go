package gate

import (
	"context"
	"sync"

	"main/internal/model"
	"main/pkg/exception"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

// Client is the downstream trading connection. Its implementations
// are not safe for concurrent use; nothing outside the gate may ever
// touch one.
type Client interface {
	Connect(ctx context.Context) error
	IsConnected() bool
	Submit(ctx context.Context, intent model.OrderIntent) error
	Close() error
}

// State tracks the gate lifecycle.
type State uint8

const (
	StateUninitialized State = iota
	StateInitialized
	StateConnected
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "uninitialized"
	}
}

// Gate serializes every access to the single downstream connection.
// One mutex covers connect, submit and teardown; it is held only for
// the connectivity check plus the call itself. There is no automatic
// reconnect on the order path: after a failed connect, submits skip
// until an explicit Connect succeeds.
type Gate struct {
	mu     sync.Mutex
	client Client
	state  State
}

func New(client Client) *Gate {
	state := StateUninitialized
	if client != nil {
		state = StateInitialized
	}
	return &Gate{client: client, state: state}
}

// Connect dials downstream. Errors are logged and reported as false,
// never propagated.
func (g *Gate) Connect(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client == nil {
		logs.Warn("gate connect skipped: no downstream client")
		return false
	}
	if err := g.client.Connect(ctx); err != nil {
		g.state = StateDisconnected
		logs.Warnf("connect downstream, err: %+v", err)
		return false
	}
	g.state = StateConnected
	logs.Info("downstream connected")
	return true
}

// Submit places one order intent. Connectivity is re-checked on every
// call; when the connection is down the submission is skipped, not
// retried.
func (g *Gate) Submit(ctx context.Context, intent model.OrderIntent) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client == nil {
		return exception.ErrGateUninitialized
	}
	if g.state != StateConnected || !g.client.IsConnected() {
		g.state = StateDisconnected
		return exception.ErrGateNotConnected
	}
	if err := g.client.Submit(ctx, intent); err != nil {
		return errors.Wrap(err, "submit downstream")
	}
	return nil
}

// State returns the current lifecycle state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Teardown closes the downstream connection. Close errors are logged
// and swallowed.
func (g *Gate) Teardown() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client == nil {
		return
	}
	if err := g.client.Close(); err != nil {
		logs.Warnf("close downstream, err: %+v", err)
	}
	g.state = StateInitialized
}
