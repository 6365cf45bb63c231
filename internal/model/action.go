package model

// Action is a human-friendly operating mode for a timestep.
// Keep these values stable; they are intended for CSV output.
type Action string

const (
	ActionCharging    Action = "CHARGING"
	ActionIdle        Action = "IDLE"
	ActionDischarging Action = "DISCHARGING"
)

// ActionFromPowerKW classifies a realized battery power
// (positive = discharging).
func ActionFromPowerKW(powerKW float64) Action {
	switch {
	case powerKW < 0:
		return ActionCharging
	case powerKW > 0:
		return ActionDischarging
	default:
		return ActionIdle
	}
}

// DispatchMode is the branch of the dispatch policy that produced a target.
type DispatchMode string

const (
	ModeVPPDischarge      DispatchMode = "VPP_DISCHARGE"
	ModeOffpeakCharge     DispatchMode = "OFFPEAK_CHARGE"
	ModePeakShave         DispatchMode = "PEAK_SHAVE"
	ModeShoulderBalance   DispatchMode = "SHOULDER_BALANCE"
	ModeSelfConsumption   DispatchMode = "SELF_CONSUMPTION"
	ModeScheduleCharge    DispatchMode = "SCHEDULE_CHARGE"
	ModeScheduleDischarge DispatchMode = "SCHEDULE_DISCHARGE"
	ModeIdle              DispatchMode = "IDLE"
)

// Dispatch is a requested battery power for one interval.
// Convention: positive kW = discharge to the AC side, negative kW = charge.
type Dispatch struct {
	PowerKW float64
	Mode    DispatchMode
}
