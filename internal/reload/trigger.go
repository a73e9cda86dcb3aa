package reload

import (
	"sync"
	"time"

	"github.com/yanun0323/logs"
)

const (
	DefaultDebounce = 2 * time.Second
	DefaultSettle   = 500 * time.Millisecond
)

// State tracks where the trigger is between notifications.
type State uint8

const (
	StateIdle State = iota
	StateDebouncing
	StateApplying
)

func (s State) String() string {
	switch s {
	case StateDebouncing:
		return "debouncing"
	case StateApplying:
		return "applying"
	default:
		return "idle"
	}
}

// Trigger turns bursts of change notifications into single reloads.
// A notification inside the debounce window of the last accepted one
// is ignored; an accepted one waits out the settle delay, so the
// external writer can finish, before the apply function runs.
// The trigger is decoupled from whatever produces the notifications.
type Trigger struct {
	mu           sync.Mutex
	state        State
	debounce     time.Duration
	settle       time.Duration
	lastAccepted time.Time
	apply        func()
	now          func() time.Time
}

func NewTrigger(debounce, settle time.Duration, apply func()) *Trigger {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Trigger{
		debounce: debounce,
		settle:   settle,
		apply:    apply,
		now:      time.Now,
	}
}

// Notify reports a change. Returns whether the notification was
// accepted (and a reload scheduled) or swallowed by the debounce.
func (t *Trigger) Notify() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if !t.lastAccepted.IsZero() && now.Sub(t.lastAccepted) < t.debounce {
		logs.Debug("change notification ignored inside debounce window")
		return false
	}
	t.lastAccepted = now
	t.state = StateDebouncing
	time.AfterFunc(t.settle, t.fire)
	return true
}

// State returns the current trigger state.
func (t *Trigger) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Trigger) fire() {
	t.mu.Lock()
	t.state = StateApplying
	t.mu.Unlock()

	t.apply()

	t.mu.Lock()
	t.state = StateIdle
	t.mu.Unlock()
}
