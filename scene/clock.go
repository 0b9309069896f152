package scene

// Clock paces how often a viewer advances its source.
type Clock struct {
	StepsPerSecond float32
	Paused         bool

	acc float32
}

// NewClock returns a running clock.
func NewClock(stepsPerSecond float32) *Clock {
	return &Clock{StepsPerSecond: stepsPerSecond}
}

// Due accumulates dt seconds and returns how many steps are owed. A paused
// clock owes nothing and does not accumulate.
func (c *Clock) Due(dt float32) int {
	if c.Paused || c.StepsPerSecond <= 0 {
		return 0
	}
	c.acc += dt * c.StepsPerSecond
	n := int(c.acc)
	c.acc -= float32(n)
	return n
}

// Toggle flips pause and returns the new state.
func (c *Clock) Toggle() bool {
	c.Paused = !c.Paused
	c.acc = 0
	return c.Paused
}

// Reset drops any partial step.
func (c *Clock) Reset() { c.acc = 0 }
