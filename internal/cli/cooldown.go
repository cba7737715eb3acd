package cli

import "time"

// cooldown throttles code resends per purpose and address.
type cooldown struct {
	wait time.Duration
	now  func() time.Time
	last map[string]time.Time
}

func newCooldown(wait time.Duration) *cooldown {
	return &cooldown{wait: wait, now: time.Now, last: make(map[string]time.Time)}
}

// remaining is how long key must still wait; zero means a resend is allowed.
func (c *cooldown) remaining(key string) time.Duration {
	t, ok := c.last[key]
	if !ok {
		return 0
	}
	left := c.wait - c.now().Sub(t)
	if left < 0 {
		return 0
	}
	return left
}

func (c *cooldown) mark(key string) {
	c.last[key] = c.now()
}
