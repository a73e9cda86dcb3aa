package gate

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"main/internal/model"
	"main/pkg/exception"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yanun0323/errors"
)

type fakeClient struct {
	connectErr error
	submitErr  error
	connected  bool

	submits  atomic.Int64
	inFlight atomic.Int64
	overlap  atomic.Bool
	closed   bool
}

func (f *fakeClient) Connect(context.Context) error {
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeClient) IsConnected() bool { return f.connected }

func (f *fakeClient) Submit(context.Context, model.OrderIntent) error {
	if f.inFlight.Add(1) > 1 {
		f.overlap.Store(true)
	}
	time.Sleep(time.Millisecond)
	f.inFlight.Add(-1)
	f.submits.Add(1)
	return f.submitErr
}

func (f *fakeClient) Close() error {
	f.closed = true
	f.connected = false
	return nil
}

func TestSubmitWithoutConnectSkips(t *testing.T) {
	client := &fakeClient{}
	g := New(client)

	err := g.Submit(t.Context(), model.OrderIntent{AccountID: "A"})
	assert.ErrorIs(t, err, exception.ErrGateNotConnected)
	assert.Zero(t, client.submits.Load())
}

func TestConnectFailureThenSubmitSkipsUntilConnect(t *testing.T) {
	client := &fakeClient{connectErr: errors.New("refused")}
	g := New(client)

	require.False(t, g.Connect(t.Context()))
	assert.Equal(t, StateDisconnected, g.State())

	err := g.Submit(t.Context(), model.OrderIntent{AccountID: "A"})
	assert.ErrorIs(t, err, exception.ErrGateNotConnected)
	assert.Zero(t, client.submits.Load())

	client.connectErr = nil
	require.True(t, g.Connect(t.Context()))
	assert.Equal(t, StateConnected, g.State())

	require.NoError(t, g.Submit(t.Context(), model.OrderIntent{AccountID: "A"}))
	assert.Equal(t, int64(1), client.submits.Load())
}

func TestSubmitErrorWrapped(t *testing.T) {
	client := &fakeClient{submitErr: errors.New("rejected")}
	g := New(client)
	require.True(t, g.Connect(t.Context()))

	err := g.Submit(t.Context(), model.OrderIntent{AccountID: "A"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, exception.ErrGateNotConnected)
}

func TestNilClient(t *testing.T) {
	g := New(nil)
	assert.Equal(t, StateUninitialized, g.State())
	assert.False(t, g.Connect(t.Context()))
	assert.ErrorIs(t, g.Submit(t.Context(), model.OrderIntent{}), exception.ErrGateUninitialized)
}

func TestTeardown(t *testing.T) {
	client := &fakeClient{}
	g := New(client)
	require.True(t, g.Connect(t.Context()))

	g.Teardown()
	assert.True(t, client.closed)
	assert.Equal(t, StateInitialized, g.State())
}

// The downstream client is not safe for concurrent use; the gate must
// never let two submissions touch it at once.
func TestSubmitsSerialized(t *testing.T) {
	client := &fakeClient{}
	g := New(client)
	require.True(t, g.Connect(t.Context()))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.Submit(context.Background(), model.OrderIntent{AccountID: "A"})
		}()
	}
	wg.Wait()

	assert.False(t, client.overlap.Load(), "concurrent access to the downstream client")
	assert.Equal(t, int64(16), client.submits.Load())
}
