package dispatch

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"main/internal/config"
	"main/internal/dedup"
	"main/internal/model"
	"main/internal/model/enum"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yanun0323/decimal"
	"github.com/yanun0323/errors"
)

type fakeSubmitter struct {
	mu      sync.Mutex
	intents []model.OrderIntent
	failFor map[string]error
}

func (f *fakeSubmitter) Submit(_ context.Context, intent model.OrderIntent) error {
	f.mu.Lock()
	f.intents = append(f.intents, intent)
	f.mu.Unlock()
	if err, ok := f.failFor[intent.AccountID]; ok {
		return err
	}
	return nil
}

func (f *fakeSubmitter) submitted() []model.OrderIntent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.OrderIntent, len(f.intents))
	copy(out, f.intents)
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out
}

type fakeSink struct {
	mu      sync.Mutex
	signals []model.OutboundSignal
}

func (f *fakeSink) Publish(sig model.OutboundSignal) {
	f.mu.Lock()
	f.signals = append(f.signals, sig)
	f.mu.Unlock()
}

func newTestDispatcher(mappings map[string]config.Mapping, accounts []config.Account, submitter Submitter, sinks ...Sink) *Dispatcher {
	store := config.NewStore(mappings, accounts)
	return New(store, dedup.New(dedup.DefaultWindow), submitter, 16, sinks...)
}

func TestUnknownActionProducesNoIntents(t *testing.T) {
	submitter := &fakeSubmitter{}
	d := newTestDispatcher(nil, []config.Account{{ID: "A", OrderType: enum.OrderTypeMarket, Enabled: true}}, submitter)

	d.Process(t.Context(), model.Signal{Ticker: "GC", Action: "close"})
	d.Process(t.Context(), model.Signal{Ticker: "GC", Action: ""})

	assert.Empty(t, submitter.submitted())
}

func TestDisabledAccountsFiltered(t *testing.T) {
	submitter := &fakeSubmitter{}
	accounts := []config.Account{
		{ID: "A", OrderType: enum.OrderTypeMarket, Enabled: true},
		{ID: "B", OrderType: enum.OrderTypeMarket, Enabled: false},
		{ID: "C", OrderType: enum.OrderTypeLimit, Enabled: true},
	}
	d := newTestDispatcher(nil, accounts, submitter)

	d.Process(t.Context(), model.Signal{Ticker: "GC", Action: "buy", Interval: 15})

	intents := submitter.submitted()
	require.Len(t, intents, 2)
	assert.Equal(t, "A", intents[0].AccountID)
	assert.Equal(t, "C", intents[1].AccountID)
}

func TestAccountFailureIsolated(t *testing.T) {
	submitter := &fakeSubmitter{failFor: map[string]error{"A": errors.New("rejected")}}
	accounts := []config.Account{
		{ID: "A", OrderType: enum.OrderTypeMarket, Enabled: true},
		{ID: "C", OrderType: enum.OrderTypeMarket, Enabled: true},
	}
	d := newTestDispatcher(nil, accounts, submitter)

	d.Process(t.Context(), model.Signal{Ticker: "GC", Action: "sell"})

	intents := submitter.submitted()
	require.Len(t, intents, 2)
	assert.Equal(t, "A", intents[0].AccountID)
	assert.Equal(t, "C", intents[1].AccountID)
}

func TestFanOutExample(t *testing.T) {
	submitter := &fakeSubmitter{}
	mappings := map[string]config.Mapping{"GC": {Target: "MGC", Quantity: 2}}
	accounts := []config.Account{
		{ID: "A", OrderType: enum.OrderTypeMarket, Enabled: true},
		{ID: "B", OrderType: enum.OrderTypeLimit, Enabled: true},
	}
	d := newTestDispatcher(mappings, accounts, submitter)

	d.Process(t.Context(), model.Signal{
		Ticker:   "GC",
		Action:   "buy",
		Price:    decimal.Require("2050.5"),
		HasPrice: true,
	})

	intents := submitter.submitted()
	require.Len(t, intents, 2)

	a := intents[0]
	assert.Equal(t, "MGC", a.Instrument)
	assert.Equal(t, enum.DirectionBuy, a.Direction)
	assert.Equal(t, 2, a.Quantity)
	assert.Equal(t, enum.OrderTypeMarket, a.OrderType)
	assert.Equal(t, "0", a.LimitPrice.String())

	b := intents[1]
	assert.Equal(t, "MGC", b.Instrument)
	assert.Equal(t, enum.DirectionBuy, b.Direction)
	assert.Equal(t, 2, b.Quantity)
	assert.Equal(t, enum.OrderTypeLimit, b.OrderType)
	assert.Equal(t, "2050.5", b.LimitPrice.String())
}

func TestLimitWithoutPriceFallsBackToMarket(t *testing.T) {
	submitter := &fakeSubmitter{}
	accounts := []config.Account{{ID: "B", OrderType: enum.OrderTypeLimit, Enabled: true}}
	d := newTestDispatcher(nil, accounts, submitter)

	d.Process(t.Context(), model.Signal{Ticker: "GC", Action: "buy"})

	intents := submitter.submitted()
	require.Len(t, intents, 1)
	assert.Equal(t, enum.OrderTypeMarket, intents[0].OrderType)
	assert.Equal(t, "0", intents[0].LimitPrice.String())
}

func TestUnmappedTickerPassesThrough(t *testing.T) {
	submitter := &fakeSubmitter{}
	accounts := []config.Account{{ID: "A", OrderType: enum.OrderTypeMarket, Enabled: true}}
	d := newTestDispatcher(nil, accounts, submitter)

	d.Process(t.Context(), model.Signal{Ticker: "ZB", Action: "sell"})

	intents := submitter.submitted()
	require.Len(t, intents, 1)
	assert.Equal(t, "ZB", intents[0].Instrument)
	assert.Equal(t, 1, intents[0].Quantity)
}

func TestDuplicateSignalDropped(t *testing.T) {
	submitter := &fakeSubmitter{}
	accounts := []config.Account{{ID: "A", OrderType: enum.OrderTypeMarket, Enabled: true}}
	d := newTestDispatcher(nil, accounts, submitter)

	sig := model.Signal{Ticker: "GC", Action: "buy", Interval: 15}
	d.Process(t.Context(), sig)
	d.Process(t.Context(), sig)

	assert.Len(t, submitter.submitted(), 1)
}

func TestSinksReceiveMappedSignal(t *testing.T) {
	submitter := &fakeSubmitter{}
	sink := &fakeSink{}
	mappings := map[string]config.Mapping{"GC": {Target: "MGC", Quantity: 2}}
	d := newTestDispatcher(mappings, nil, submitter, sink)

	d.Process(t.Context(), model.Signal{Ticker: "GC", Action: "buy", Interval: 10})

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.signals, 1)
	assert.Equal(t, "MGC", sink.signals[0].Ticker)
	assert.Equal(t, "buy", sink.signals[0].Action)
	assert.Empty(t, submitter.submitted())
}

func TestQueueHandsOffToProcess(t *testing.T) {
	submitter := &fakeSubmitter{}
	accounts := []config.Account{{ID: "A", OrderType: enum.OrderTypeMarket, Enabled: true}}
	d := newTestDispatcher(nil, accounts, submitter)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go d.Run(ctx)

	require.NoError(t, d.Enqueue(model.Signal{Ticker: "GC", Action: "buy"}))

	require.Eventually(t, func() bool {
		return len(submitter.submitted()) == 1
	}, time.Second, 10*time.Millisecond)
}
