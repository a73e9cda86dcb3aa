package dispatch

import (
	"testing"

	"main/internal/model"
	"main/pkg/exception"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFull(t *testing.T) {
	q := NewQueue(1)
	require.NoError(t, q.TryPublish(model.Signal{Ticker: "GC"}))
	assert.ErrorIs(t, q.TryPublish(model.Signal{Ticker: "CL"}), exception.ErrSignalQueueFull)
}

func TestQueueClosed(t *testing.T) {
	q := NewQueue(4)
	q.Close()
	assert.ErrorIs(t, q.TryPublish(model.Signal{Ticker: "GC"}), exception.ErrSignalQueueClosed)
}

func TestQueueDrainsBufferedAfterClose(t *testing.T) {
	q := NewQueue(4)
	require.NoError(t, q.TryPublish(model.Signal{Ticker: "GC"}))
	require.NoError(t, q.TryPublish(model.Signal{Ticker: "CL"}))
	q.Close()

	var seen []string
	q.Run(t.Context(), func(sig model.Signal) {
		seen = append(seen, sig.Ticker)
	})
	assert.Equal(t, []string{"GC", "CL"}, seen)
}
