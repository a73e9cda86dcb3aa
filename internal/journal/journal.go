package journal

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"main/internal/model"
	"main/pkg/conn"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

const _defaultQueueCap = 256

// Record is one received signal, kept for operator audit. Order
// history is deliberately not persisted; only the inbound side is.
type Record struct {
	ID         uint   `gorm:"primaryKey"`
	Ticker     string `gorm:"index"`
	Action     string
	Price      string
	Interval   int
	ReceivedAt time.Time
}

func (Record) TableName() string {
	return "signal_journal"
}

// Journal writes received signals to PostgreSQL off the dispatch
// path: Publish enqueues without blocking and a single writer drains.
type Journal struct {
	client  *conn.Client
	queue   chan Record
	running atomic.Bool
}

func New(dsn string) (*Journal, error) {
	client, err := conn.New(conn.Option{ConnString: dsn})
	if err != nil {
		return nil, errors.Wrap(err, "open journal db")
	}
	if err := client.DB().AutoMigrate(&Record{}); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "migrate journal table")
	}
	return &Journal{
		client: client,
		queue:  make(chan Record, _defaultQueueCap),
	}, nil
}

// Publish enqueues one signal for persistence. Implements
// dispatch.Sink; a full queue drops the record with a warning rather
// than stalling the pipeline.
func (j *Journal) Publish(sig model.OutboundSignal) {
	record := Record{
		Ticker:     sig.Ticker,
		Action:     sig.Action,
		ReceivedAt: time.Now(),
	}
	if sig.Price != nil {
		record.Price = fmt.Sprint(sig.Price)
	}
	if interval, ok := sig.Interval.(int); ok {
		record.Interval = interval
	}

	select {
	case j.queue <- record:
	default:
		logs.Warnf("journal queue full, dropping record for %s", sig.Ticker)
	}
}

// Run drains the queue until the context is done. Safe to call once.
func (j *Journal) Run(ctx context.Context) {
	if j.running.Swap(true) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case record := <-j.queue:
			if err := j.client.DB().WithContext(ctx).Create(&record).Error; err != nil {
				logs.Warnf("insert journal record for %s, err: %+v", record.Ticker, err)
			}
		}
	}
}

// Close releases the database pool.
func (j *Journal) Close() error {
	return j.client.Close()
}
