package strategy

import (
	"math"
	"strings"

	"solar-battery-sim/internal/model"
)

// ScheduleParams implements a simple daily time-window strategy:
// - Charge during [ChargeStart, ChargeEnd)
// - Discharge during [DischargeStart, DischargeEnd)
// - Otherwise IDLE
//
// Times are read in the location of each row's timestamp.
type ScheduleParams struct {
	ChargeStart      string  `mapstructure:"charge_start"`       // "HH:MM"
	ChargeEnd        string  `mapstructure:"charge_end"`         // "HH:MM" (optional; default = DischargeStart)
	DischargeStart   string  `mapstructure:"discharge_start"`    // "HH:MM"
	DischargeEnd     string  `mapstructure:"discharge_end"`      // "HH:MM"
	ChargePowerKW    float64 `mapstructure:"charge_power_kw"`    // magnitude; treated as charge (negative)
	DischargePowerKW float64 `mapstructure:"discharge_power_kw"` // magnitude; treated as discharge (positive)
}

// DefaultScheduleParams charges on midday solar and discharges through the
// evening at the battery's ratings.
func DefaultScheduleParams(battery model.BatteryParams) ScheduleParams {
	return ScheduleParams{
		ChargeStart:      "10:00",
		DischargeStart:   "17:00",
		DischargeEnd:     "21:00",
		ChargePowerKW:    battery.MaxChargeKW,
		DischargePowerKW: battery.MaxDischargeKW,
	}
}

type ScheduleStrategy struct {
	Params ScheduleParams

	charge    model.Window
	discharge model.Window
}

// NewScheduleStrategy parses the windows up front. Windows with equal
// bounds are rejected.
func NewScheduleStrategy(p ScheduleParams) (*ScheduleStrategy, error) {
	if strings.TrimSpace(p.ChargeEnd) == "" {
		p.ChargeEnd = p.DischargeStart
	}
	charge, err := model.ParseWindow(p.ChargeStart, p.ChargeEnd)
	if err != nil {
		return nil, &model.ConfigError{Field: "dispatch.params.charge", Reason: err.Error()}
	}
	discharge, err := model.ParseWindow(p.DischargeStart, p.DischargeEnd)
	if err != nil {
		return nil, &model.ConfigError{Field: "dispatch.params.discharge", Reason: err.Error()}
	}
	if charge.Degenerate() {
		return nil, model.ConfigErrorf("dispatch.params.charge", "start and end must differ, got %s", charge)
	}
	if discharge.Degenerate() {
		return nil, model.ConfigErrorf("dispatch.params.discharge", "start and end must differ, got %s", discharge)
	}
	return &ScheduleStrategy{Params: p, charge: charge, discharge: discharge}, nil
}

func (s *ScheduleStrategy) Name() string { return string(model.StrategySchedule) }

func (s *ScheduleStrategy) Decide(ctx Context) model.Dispatch {
	t := ctx.Clock()
	if s.charge.Contains(t) {
		return model.Dispatch{PowerKW: -math.Abs(s.Params.ChargePowerKW), Mode: model.ModeScheduleCharge}
	}
	if s.discharge.Contains(t) {
		return model.Dispatch{PowerKW: math.Abs(s.Params.DischargePowerKW), Mode: model.ModeScheduleDischarge}
	}
	return model.Dispatch{PowerKW: 0, Mode: model.ModeIdle}
}
