package testutil

import (
	"sync"
	"time"
)

// Epoch is the instant a DeterministicClock reports at seq 0.
var Epoch = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// DefaultStep is how far a DeterministicClock advances per reading.
const DefaultStep = time.Millisecond

// DeterministicClock is a fake wall clock for tests.
//
// Every call to Now advances a logical counter by one and returns
// Epoch + seq*step, so a harness run against a fresh clock always reports the
// same start time and the same per-check durations.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu   sync.Mutex
	seq  int64
	step time.Duration
}

// NewDeterministicClock creates a clock starting at seq 0 that advances by DefaultStep.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{step: DefaultStep}
}

// NewDeterministicClockWithStep creates a clock that advances by step per reading.
func NewDeterministicClockWithStep(step time.Duration) *DeterministicClock {
	return &DeterministicClock{step: step}
}

// Next increments and returns the next sequence number.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the current sequence number without incrementing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Now advances the clock and returns the corresponding instant.
// The first call on a fresh clock returns Epoch + step.
func (c *DeterministicClock) Now() time.Time {
	seq := c.Next()
	return Epoch.Add(time.Duration(seq) * c.step)
}

// Reset rewinds the clock to seq 0.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
