package mocks

import (
	"sync"
	"time"

	"github.com/mcoot/bullsgame/internal/dependencies/clock"
)

// MockClock is a manually driven Clock, safe to share with room goroutines
type MockClock struct {
	mu      sync.Mutex
	current time.Time
	delay   time.Duration
}

var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock starting at t
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{current: t}
}

// Now returns the mocked time, after sleeping for the configured delay
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	current, delay := c.current, c.delay
	c.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	return current
}

// Since measures against the mocked time
func (c *MockClock) Since(t time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.Sub(t)
}

// SetDelay makes every later Now call block for d, standing in for a
// slow dependency inside a room command
func (c *MockClock) SetDelay(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delay = d
}

// Advance moves the clock forward by d
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// Set moves the clock to t
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}
