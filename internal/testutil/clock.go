package testutil

import (
	"sync"
	"time"
)

// StepClock is a deterministic wall clock for tests.
//
// Every call to Now advances the clock by a fixed step, so a duration
// measured between two consecutive calls is always exactly one step.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type StepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// Epoch is the starting instant of a new StepClock.
var Epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// NewStepClock creates a clock starting at Epoch that advances by step.
func NewStepClock(step time.Duration) *StepClock {
	return &StepClock{now: Epoch, step: step}
}

// Now returns the current instant and then advances the clock.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

// Reset returns the clock to Epoch.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = Epoch
}

// FixedRunID returns the same run identifier every time.
//
// If id is empty, Generate returns "test-run-default".
type FixedRunID struct {
	id string
}

// NewFixedRunID creates a fixed run identifier generator.
func NewFixedRunID(id string) *FixedRunID {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunID{id: id}
}

// Generate returns the fixed identifier.
func (g *FixedRunID) Generate() string {
	return g.id
}
