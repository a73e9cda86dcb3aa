package dedup

import (
	"strings"
	"sync"
	"time"

	"main/internal/model"
)

const DefaultWindow = 2 * time.Second

// Key identifies one economic event: repeated alerts for the same
// ticker, action and interval are the same event.
type Key struct {
	Ticker   string
	Action   string
	Interval int
}

// Deduplicator suppresses repeated signals inside a short window.
// Entries older than twice the window are evicted opportunistically
// whenever a new signal is recorded.
type Deduplicator struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[Key]time.Time
	now    func() time.Time
}

func New(window time.Duration) *Deduplicator {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Deduplicator{
		window: window,
		seen:   make(map[Key]time.Time),
		now:    time.Now,
	}
}

// ShouldProcess reports whether the signal is the first occurrence of
// its key inside the window, recording it when it is. It cannot fail:
// absent state means "not a duplicate".
func (d *Deduplicator) ShouldProcess(sig model.Signal) bool {
	key := Key{
		Ticker:   strings.ToUpper(strings.TrimSpace(sig.Ticker)),
		Action:   strings.ToLower(strings.TrimSpace(sig.Action)),
		Interval: sig.Interval,
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if last, ok := d.seen[key]; ok && now.Sub(last) < d.window {
		return false
	}
	d.seen[key] = now

	for k, last := range d.seen {
		if now.Sub(last) > 2*d.window {
			delete(d.seen, k)
		}
	}
	return true
}
