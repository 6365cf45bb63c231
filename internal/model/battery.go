package model

import (
	"errors"
	"math"
)

// BatteryState captures mutable state. It lives for exactly one run.
type BatteryState struct {
	// SOCKWh is the stored energy.
	SOCKWh float64
	// ThroughputKWh is the DC-side energy moved in and out so far.
	ThroughputKWh float64
}

// Battery bundles params + state and integrates dispatch requests into
// realized power and state of charge.
type Battery struct {
	Params BatteryParams
	State  BatteryState

	eff float64
}

// NewBattery validates params and starts the battery at InitialSOC,
// clamped into [MinSOC, MaxSOC].
func NewBattery(params BatteryParams) (*Battery, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	soc := clamp(params.InitialSOC*params.CapacityKWh, params.MinSOCKWh(), params.MaxSOCKWh())
	return &Battery{
		Params: params,
		State:  BatteryState{SOCKWh: soc},
		eff:    params.OneWayEfficiency(),
	}, nil
}

// IntervalResult captures what happened in one interval.
type IntervalResult struct {
	PowerKW       float64 // realized power, may be clipped
	ChargedKWh    float64 // AC energy absorbed while charging
	DischargedKWh float64 // AC energy delivered while discharging
	ThroughputKWh float64 // ChargedKWh + DischargedKWh
	LossKWh       float64 // conversion loss of this interval
	SOCStartKWh   float64
	SOCEndKWh     float64
}

// ClipDispatch enforces the inverter ratings, without applying SOC constraints.
func (b *Battery) ClipDispatch(d Dispatch) Dispatch {
	d.PowerKW = clamp(d.PowerKW, -b.Params.MaxChargeKW, b.Params.MaxDischargeKW)
	return d
}

// ApplyDispatch applies a dispatch for a single interval, enforcing:
// - inverter ratings
// - SOC headroom, including the one-way conversion loss
//
// dtHours is the interval length in hours.
func (b *Battery) ApplyDispatch(d Dispatch, dtHours float64) (IntervalResult, error) {
	if dtHours <= 0 {
		return IntervalResult{}, errors.New("dtHours must be > 0")
	}

	p := b.ClipDispatch(d).PowerKW
	soc := b.State.SOCKWh
	res := IntervalResult{SOCStartKWh: soc}

	if p < 0 {
		headroom := math.Max(0, b.Params.MaxSOCKWh()-soc)
		p = math.Max(p, -(headroom / (b.eff * dtHours)))
		stored := -p * b.eff * dtHours
		soc += stored

		res.ChargedKWh = -p * dtHours
		res.LossKWh = res.ChargedKWh - stored
		b.State.ThroughputKWh += stored
	} else {
		available := math.Max(0, soc-b.Params.MinSOCKWh())
		p = math.Min(p, available*b.eff/dtHours)
		withdrawn := p / b.eff * dtHours
		soc -= withdrawn

		res.DischargedKWh = p * dtHours
		res.LossKWh = withdrawn - res.DischargedKWh
		b.State.ThroughputKWh += withdrawn
	}

	// Rounding can leave soc a hair outside the bounds.
	soc = clamp(soc, b.Params.MinSOCKWh(), b.Params.MaxSOCKWh())
	soc = clamp(soc, 0, b.Params.CapacityKWh)
	b.State.SOCKWh = soc

	res.PowerKW = p
	res.ThroughputKWh = res.ChargedKWh + res.DischargedKWh
	res.SOCEndKWh = soc
	return res, nil
}

// SOCKWh returns the stored energy.
func (b *Battery) SOCKWh() float64 { return b.State.SOCKWh }

// SOCPercent returns the stored energy as a percentage of capacity.
func (b *Battery) SOCPercent() float64 {
	return b.State.SOCKWh / b.Params.CapacityKWh * 100
}

// Cycles returns equivalent full cycles: DC throughput over twice the capacity.
func (b *Battery) Cycles() float64 {
	return b.State.ThroughputKWh / (2 * b.Params.CapacityKWh)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
