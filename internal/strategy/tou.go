package strategy

import (
	"solar-battery-sim/internal/model"
	"solar-battery-sim/internal/tariff"
)

// TOUOptions toggles the policy choices of the tou_vpp strategy.
type TOUOptions struct {
	// SupportLoadInShoulder discharges to cover a deficit during shoulder.
	// When false, shoulder only charges from a solar surplus.
	SupportLoadInShoulder bool `mapstructure:"support_load_in_shoulder"`
	// ChargeSurplusInPeak lets peak absorb a solar surplus instead of idling.
	ChargeSurplusInPeak bool `mapstructure:"charge_surplus_in_peak"`
}

func DefaultTOUOptions() TOUOptions {
	return TOUOptions{SupportLoadInShoulder: true}
}

// TOUStrategy is a price-triggered VPP dispatch layered over a
// time-of-use baseline. First match wins:
//  1. price above threshold: full discharge
//  2. offpeak: full charge
//  3. peak: cover the deficit, otherwise idle
//  4. shoulder: follow net load
type TOUStrategy struct {
	PriceThreshold float64
	MaxChargeKW    float64
	MaxDischargeKW float64
	Tariff         *tariff.Schedule
	Options        TOUOptions
}

func (s *TOUStrategy) Name() string { return string(model.StrategyTOUVPP) }

func (s *TOUStrategy) Decide(ctx Context) model.Dispatch {
	if ctx.Row.PriceImport > s.PriceThreshold {
		return model.Dispatch{PowerKW: s.MaxDischargeKW, Mode: model.ModeVPPDischarge}
	}

	net := ctx.NetLoadKW()
	switch s.Tariff.Classify(ctx.Clock()) {
	case tariff.Offpeak:
		return model.Dispatch{PowerKW: -s.MaxChargeKW, Mode: model.ModeOffpeakCharge}
	case tariff.Peak:
		if net > 0 || s.Options.ChargeSurplusInPeak {
			return model.Dispatch{PowerKW: net, Mode: model.ModePeakShave}
		}
		return model.Dispatch{PowerKW: 0, Mode: model.ModePeakShave}
	default:
		if net > 0 && !s.Options.SupportLoadInShoulder {
			return model.Dispatch{PowerKW: 0, Mode: model.ModeShoulderBalance}
		}
		return model.Dispatch{PowerKW: net, Mode: model.ModeShoulderBalance}
	}
}
