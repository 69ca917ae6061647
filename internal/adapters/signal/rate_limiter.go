package signal

import (
	"sync"
	"time"

	"github.com/dkeye/Relay/internal/core"
)

const (
	defaultRateEvents   = 60
	defaultRateInterval = 10 * time.Second
)

// EventRateLimiter is a per-connection sliding window over inbound events.
type EventRateLimiter struct {
	mu       sync.Mutex
	history  map[core.ConnID][]time.Time
	limit    int
	interval time.Duration
}

func NewEventRateLimiter(limit int, interval time.Duration) *EventRateLimiter {
	if limit <= 0 {
		limit = defaultRateEvents
	}
	if interval <= 0 {
		interval = defaultRateInterval
	}
	return &EventRateLimiter{
		history:  make(map[core.ConnID][]time.Time),
		limit:    limit,
		interval: interval,
	}
}

func (rl *EventRateLimiter) Allow(id core.ConnID, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	windowStart := now.Add(-rl.interval)
	attempts := rl.history[id]

	fresh := attempts[:0]
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[id] = fresh
		return false
	}
	rl.history[id] = append(fresh, now)
	return true
}

// Forget drops the history of a closed connection.
func (rl *EventRateLimiter) Forget(id core.ConnID) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.history, id)
}
