package pipeline

import (
	"fmt"
	"sync"
)

// Counter is a thread-safe progress counter shared by every worker in
// a pool. Max is set once when the queue is filled, then only read.
type Counter struct {
	mu      sync.Mutex
	current int
	max     int
}

// SetMax records the total number of items. Call it before the pool
// starts; it is not meant to be raced with Increment.
func (c *Counter) SetMax(max int) {
	c.mu.Lock()
	c.max = max
	c.mu.Unlock()
}

// Increment bumps the counter and returns the post-increment value
// together with the max.
func (c *Counter) Increment() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current++
	return c.current, c.max
}

// Get returns the current value.
func (c *Counter) Get() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Counter) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("%d/%d", c.current, c.max)
}
