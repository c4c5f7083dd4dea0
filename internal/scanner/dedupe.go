package scanner

import (
	"sync"
	"time"
)

// cooldownSet suppresses repeat detections of the same value. Entries are
// added before downstream processing starts and expire after a fixed window
// whether or not that processing succeeded, so a value becomes scannable
// again without the set growing without bound.
type cooldownSet struct {
	mu     sync.Mutex
	seen   map[string]struct{}
	window time.Duration
}

func newCooldownSet(window time.Duration) *cooldownSet {
	return &cooldownSet{
		seen:   make(map[string]struct{}),
		window: window,
	}
}

// TryAdd marks value as seen. It returns false when value is still inside
// its cooldown window; on true, expiry is already scheduled.
func (c *cooldownSet) TryAdd(value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.seen[value]; ok {
		return false
	}
	c.seen[value] = struct{}{}
	time.AfterFunc(c.window, func() {
		c.mu.Lock()
		delete(c.seen, value)
		c.mu.Unlock()
	})
	return true
}

// Len reports the number of values currently in cooldown.
func (c *cooldownSet) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}
