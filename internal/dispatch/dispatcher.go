package dispatch

import (
	"context"
	"sync"
	"sync/atomic"

	"main/internal/config"
	"main/internal/dedup"
	"main/internal/model"
	"main/internal/model/enum"

	"github.com/yanun0323/logs"
)

// Submitter places one order intent downstream. The gate implements
// it; tests substitute fakes.
type Submitter interface {
	Submit(ctx context.Context, intent model.OrderIntent) error
}

// Sink receives every mapped signal that survived dedup, independent
// of whether any account order came out of it.
type Sink interface {
	Publish(sig model.OutboundSignal)
}

// Dispatcher turns inbound signals into per-account order intents and
// fans them out. Intent construction runs in parallel across
// accounts; only the final submission is serialized, inside the gate.
type Dispatcher struct {
	store     *config.Store
	dedup     *dedup.Deduplicator
	submitter Submitter
	sinks     []Sink

	queue   *Queue
	running atomic.Bool
}

func New(store *config.Store, dd *dedup.Deduplicator, submitter Submitter, queueCap int, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		store:     store,
		dedup:     dd,
		submitter: submitter,
		sinks:     sinks,
		queue:     NewQueue(queueCap),
	}
}

// Enqueue hands a decoded signal to the pipeline without blocking.
func (d *Dispatcher) Enqueue(sig model.Signal) error {
	return d.queue.TryPublish(sig)
}

// Run drains the queue until the context is done. Safe to call once.
func (d *Dispatcher) Run(ctx context.Context) {
	if d.running.Swap(true) {
		return
	}
	d.queue.Run(ctx, func(sig model.Signal) {
		d.Process(ctx, sig)
	})
}

// Close stops the queue from accepting new signals.
func (d *Dispatcher) Close() {
	d.queue.Close()
}

// Process runs one signal through dedup, mapping and account fan-out.
// It never returns an error: every failure ends as a logged outcome.
func (d *Dispatcher) Process(ctx context.Context, sig model.Signal) {
	action, ok := enum.ParseAction(sig.Action)
	if !ok {
		logs.Warnf("drop signal for %s, unknown action %q", sig.Ticker, sig.Action)
		return
	}
	direction, _ := enum.DirectionOf(action)

	if !d.dedup.ShouldProcess(sig) {
		logs.Debugf("drop duplicate signal: %s %s interval=%d", sig.Ticker, sig.Action, sig.Interval)
		return
	}

	mapping := d.store.Mapping(sig.Ticker)
	if mapping.Target != sig.Ticker {
		logs.Infof("ticker mapped: %s -> %s", sig.Ticker, mapping.Target)
	}

	out := sig.Outbound(mapping.Target)
	for _, sink := range d.sinks {
		sink.Publish(out)
	}

	accounts := d.store.Accounts()
	enabled := accounts[:0]
	for _, account := range accounts {
		if account.Enabled {
			enabled = append(enabled, account)
		}
	}
	if len(enabled) == 0 {
		logs.Debugf("no enabled accounts, signal %s %s not traded", sig.Ticker, sig.Action)
		return
	}

	var wg sync.WaitGroup
	for _, account := range enabled {
		wg.Add(1)
		go func(account config.Account) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logs.Errorf("submit order for account %s panicked: %+v", account.ID, r)
				}
			}()

			intent := buildIntent(sig, mapping, direction, account)
			if err := d.submitter.Submit(ctx, intent); err != nil {
				logs.Warnf("submit order for account %s, err: %+v", account.ID, err)
				return
			}
			logs.Infof("order submitted: account=%s %s %s x%d %s",
				account.ID, intent.Direction, intent.Instrument, intent.Quantity, intent.OrderType)
		}(account)
	}
	wg.Wait()
}

// buildIntent derives one account's order from the signal. A limit
// account without a signal price falls back to market semantics.
func buildIntent(sig model.Signal, mapping config.Mapping, direction enum.Direction, account config.Account) model.OrderIntent {
	orderType := account.OrderType
	limitPrice := model.ZeroPrice
	if account.OrderType == enum.OrderTypeLimit {
		if sig.HasPrice {
			limitPrice = sig.Price
		} else {
			orderType = enum.OrderTypeMarket
		}
	}
	return model.OrderIntent{
		AccountID:  account.ID,
		Instrument: mapping.Target,
		Direction:  direction,
		Quantity:   mapping.Quantity,
		OrderType:  orderType,
		LimitPrice: limitPrice,
	}
}
