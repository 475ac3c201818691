package core

import "time"

type Clock struct {
	startTime time.Time
	lastTick  time.Time
	elapsed   time.Duration
	running   bool
}

func NewClock() *Clock {
	return &Clock{}
}

// Starts the provided clock. Resets elapsed time.
func (c *Clock) Start() {
	c.startTime = time.Now()
	c.lastTick = c.startTime
	c.elapsed = 0
	c.running = true
}

// Tick updates elapsed time and returns the seconds since the previous
// tick. Has no effect on a stopped clock.
func (c *Clock) Tick() float64 {
	if !c.running {
		return 0
	}
	now := time.Now()
	delta := now.Sub(c.lastTick)
	c.lastTick = now
	c.elapsed = now.Sub(c.startTime)
	return delta.Seconds()
}

// Stops the provided clock. Does not reset elapsed time.
func (c *Clock) Stop() {
	c.running = false
}

func (c *Clock) Elapsed() time.Duration {
	return c.elapsed
}
