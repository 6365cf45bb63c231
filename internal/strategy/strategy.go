package strategy

import "solar-battery-sim/internal/model"

// Context is what a strategy sees for one interval. Battery state is
// deliberately absent: the integrator owns it and enforces its limits.
type Context struct {
	Index   int
	Row     model.TimeSeriesRow
	SolarKW float64
}

// NetLoadKW is load minus solar; positive means a deficit.
func (c Context) NetLoadKW() float64 {
	return c.Row.LoadKW - c.SolarKW
}

// Clock is the interval's time of day.
func (c Context) Clock() model.ClockTime {
	return model.ClockOf(c.Row.Timestamp)
}

// Strategy maps one interval to a target battery power, unconstrained by
// inverter ratings or state of charge.
type Strategy interface {
	Name() string
	Decide(ctx Context) model.Dispatch
}
