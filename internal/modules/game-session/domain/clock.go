package domain

import "time"

// ClockState holds both sides' remaining time. Only the side to move is
// charged, and only between Start and Stop.
type ClockState struct {
	remaining [2]time.Duration
	lastTick  time.Time
	running   bool
}

func NewClockState(base time.Duration) ClockState {
	return ClockState{remaining: [2]time.Duration{base, base}}
}

func (c *ClockState) Start(now time.Time) {
	c.lastTick = now
	c.running = true
}

// Stop charges the side to move for the time since the last tick and
// returns what it has left, floored at zero.
func (c *ClockState) Stop(side Color, now time.Time) time.Duration {
	if c.running {
		c.charge(side, now)
		c.running = false
	}
	return c.remaining[side.index()]
}

func (c *ClockState) AddIncrement(side Color, d time.Duration) {
	if d > 0 {
		c.remaining[side.index()] += d
	}
}

// Remaining returns the live remaining time for side without mutating
// state.
func (c *ClockState) Remaining(side Color, turn Color, now time.Time) time.Duration {
	left := c.remaining[side.index()]
	if c.running && side == turn {
		left -= now.Sub(c.lastTick)
	}
	if left < 0 {
		return 0
	}
	return left
}

func (c *ClockState) TimeLeft(turn Color, now time.Time) TimeLeft {
	return TimeLeft{
		White: c.Remaining(White, turn, now).Milliseconds(),
		Black: c.Remaining(Black, turn, now).Milliseconds(),
	}
}

func (c *ClockState) charge(side Color, now time.Time) {
	elapsed := now.Sub(c.lastTick)
	if elapsed < 0 {
		elapsed = 0
	}

	i := side.index()
	c.remaining[i] -= elapsed
	if c.remaining[i] < 0 {
		c.remaining[i] = 0
	}
	c.lastTick = now
}
