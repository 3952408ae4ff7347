package session

import (
	"sync"
	"time"
)

// Remaining computes the whole seconds left in a timed attempt, clamped
// at zero: total minus time accumulated before the last resume minus time
// elapsed since the recorded start.
func Remaining(totalSeconds int, timing Timing, now time.Time) int {
	elapsed := int(now.Sub(timing.StartedAt).Seconds())
	remaining := totalSeconds - timing.AccumulatedSpentSeconds - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Countdown evaluates the remaining time once per second while scheduled
// and fires onExpire exactly once when it reaches zero. It is an explicit
// schedule/cancel pair: the owner must Cancel whenever the session leaves
// InProgress or is torn down, so no tick fires into a stale session.
type Countdown struct {
	total    int
	timing   Timing
	now      func() time.Time
	onExpire func()

	mu      sync.Mutex
	cancel  chan struct{}
	running bool
	fired   bool
}

// NewCountdown creates a countdown over the given timing window. now is
// the time source (time.Now in production, a fake in tests); onExpire is
// invoked at most once, from the tick that first observes zero remaining.
func NewCountdown(totalSeconds int, timing Timing, now func() time.Time, onExpire func()) *Countdown {
	if now == nil {
		now = time.Now
	}
	return &Countdown{
		total:    totalSeconds,
		timing:   timing,
		now:      now,
		onExpire: onExpire,
	}
}

// Schedule starts the 1 Hz tick loop. Scheduling an already-running
// countdown is a no-op.
func (c *Countdown) Schedule() {
	c.mu.Lock()
	if c.running || c.fired {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.cancel = make(chan struct{})
	cancel := c.cancel
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-cancel:
				return
			case <-ticker.C:
				c.Tick()
			}
		}
	}()
}

// Cancel stops the tick loop. Safe to call repeatedly.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		close(c.cancel)
		c.running = false
	}
}

// Tick evaluates the remaining time once and fires the expiry callback if
// it has hit zero and has not fired before. Exported so tests can drive
// virtual time deterministically instead of sleeping.
func (c *Countdown) Tick() int {
	remaining := Remaining(c.total, c.timing, c.now())

	fire := false
	c.mu.Lock()
	if remaining == 0 && !c.fired {
		c.fired = true
		fire = true
	}
	c.mu.Unlock()

	if fire {
		c.Cancel()
		if c.onExpire != nil {
			c.onExpire()
		}
	}
	return remaining
}
