package state

import (
	"sync"
	"time"
)

// Clock supplies the block timestamp in unix seconds.
type Clock interface {
	Now() uint64
}

type SystemClock struct{}

func (SystemClock) Now() uint64 {
	return uint64(time.Now().Unix())
}

// ManualClock is a settable clock for simulations and tests.
type ManualClock struct {
	mu  sync.Mutex
	now uint64
}

func NewManualClock(now uint64) *ManualClock {
	return &ManualClock{now: now}
}

func (c *ManualClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Set(now uint64) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += uint64(d / time.Second)
	c.mu.Unlock()
}
