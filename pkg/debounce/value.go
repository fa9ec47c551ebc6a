package debounce

import (
	"slices"
	"sync"
	"time"
)

// Option configures a Value.
type Option func(*config)

type config struct {
	clock Clock
}

// WithClock sets the clock used to schedule settlements.
// Default: SystemClock.
func WithClock(clock Clock) Option {
	return func(c *config) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// pending is the single settlement slot owned by a Value.
type pending[T any] struct {
	gen    uint64
	value  T
	timer  Timer
	active bool
}

// Value holds a debounced value of type T.
// All methods are safe for concurrent use.
type Value[T any] struct {
	clock Clock

	mu       sync.Mutex
	current  T
	gen      uint64
	slot     pending[T]
	disposed bool
	commits  uint64
	handlers []func(T)

	// notifyMu serializes OnSettle delivery; delivered is the commit number
	// of the last value handed to handlers.
	notifyMu  sync.Mutex
	delivered uint64
}

// New creates a Value whose Current is initial until the first settlement.
func New[T any](initial T, opts ...Option) *Value[T] {
	cfg := config{clock: SystemClock{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Value[T]{
		clock:   cfg.clock,
		current: initial,
	}
}

// Current returns the last settled value.
func (v *Value[T]) Current() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Pending reports whether a settlement is scheduled.
func (v *Value[T]) Pending() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.slot.active
}

// OnSettle registers fn to run after each settlement, outside the Value's
// lock. Handlers see settlements in commit order; a handler run that would
// deliver an older value than one already delivered is skipped. fn may call
// Update but must not call Flush.
func (v *Value[T]) OnSettle(fn func(T)) {
	if fn == nil {
		return
	}
	v.mu.Lock()
	v.handlers = append(v.handlers, fn)
	v.mu.Unlock()
}

// Update cancels any pending settlement and schedules value to settle after
// delay. Negative delays are treated as zero. The settlement never happens
// inside Update, even for a zero delay.
func (v *Value[T]) Update(value T, delay time.Duration) {
	if delay < 0 {
		delay = 0
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.disposed {
		return
	}

	v.cancelLocked()
	v.gen++
	gen := v.gen
	v.slot = pending[T]{gen: gen, value: value, active: true}

	// The callback blocks on mu until this Update returns, so assigning the
	// timer after scheduling is safe even if it fires immediately.
	v.slot.timer = v.clock.AfterFunc(delay, func() {
		v.settle(gen)
	})
}

// Flush commits the pending value now, if there is one, and reports whether
// it did.
func (v *Value[T]) Flush() bool {
	v.mu.Lock()
	if v.disposed || !v.slot.active {
		v.mu.Unlock()
		return false
	}
	gen := v.slot.gen
	v.mu.Unlock()
	return v.settle(gen)
}

// Dispose cancels the pending settlement and drops registered handlers.
// It is safe to call more than once.
func (v *Value[T]) Dispose() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.disposed {
		return
	}
	v.cancelLocked()
	v.disposed = true
	v.handlers = nil
}

// cancelLocked stops the pending timer and clears the slot.
func (v *Value[T]) cancelLocked() {
	if v.slot.timer != nil {
		v.slot.timer.Stop()
	}
	v.slot = pending[T]{}
}

// settle commits the slot value if gen still owns the slot.
func (v *Value[T]) settle(gen uint64) bool {
	v.mu.Lock()
	if v.disposed || !v.slot.active || v.slot.gen != gen {
		v.mu.Unlock()
		return false
	}
	if v.slot.timer != nil {
		v.slot.timer.Stop()
	}
	value := v.slot.value
	v.current = value
	v.slot = pending[T]{}
	v.commits++
	commit := v.commits
	handlers := slices.Clone(v.handlers)
	v.mu.Unlock()

	v.notify(commit, value, handlers)
	return true
}

func (v *Value[T]) notify(commit uint64, value T, handlers []func(T)) {
	if len(handlers) == 0 {
		return
	}
	v.notifyMu.Lock()
	defer v.notifyMu.Unlock()
	if commit <= v.delivered {
		return
	}
	v.delivered = commit
	for _, fn := range handlers {
		fn(value)
	}
}
