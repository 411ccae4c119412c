package sim

import "time"

// Clock is a fake m24c32.Clock. Every call to Now moves it forward by
// Step, so a polling loop makes progress without sleeping.
type Clock struct {
	T    time.Time
	Step time.Duration
}

func NewClock(step time.Duration) *Clock {
	return &Clock{T: time.Unix(0, 0), Step: step}
}

func (c *Clock) Now() time.Time {
	t := c.T
	c.T = c.T.Add(c.Step)
	return t
}

func (c *Clock) Advance(d time.Duration) {
	c.T = c.T.Add(d)
}
