package model

import "math"

// SolarParams describes the PV array.
// Units:
// - CapacityKW: kWp at 1000 W/m2 and 25 C
// - TempCoeff: fractional output change per C above 25 C (negative)
// - PerformanceRatio: (0,1]
type SolarParams struct {
	CapacityKW       float64
	TempCoeff        float64
	PerformanceRatio float64
}

// BatteryParams defines the physical parameters of the battery.
// Units:
// - CapacityKWh: kWh
// - MaxChargeKW / MaxDischargeKW: kW at the AC side
// - RoundTripEfficiency: (0,1]
// - SOC values: fraction 0..1 of CapacityKWh
type BatteryParams struct {
	Name                string
	CapacityKWh         float64
	RoundTripEfficiency float64
	InitialSOC          float64
	MinSOC              float64
	MaxSOC              float64
	MaxChargeKW         float64
	MaxDischargeKW      float64
}

func (p BatteryParams) MinSOCKWh() float64 { return p.MinSOC * p.CapacityKWh }
func (p BatteryParams) MaxSOCKWh() float64 { return p.MaxSOC * p.CapacityKWh }

// OneWayEfficiency splits the round-trip loss evenly between the charge
// and discharge legs.
func (p BatteryParams) OneWayEfficiency() float64 {
	return math.Sqrt(p.RoundTripEfficiency)
}

func (p BatteryParams) Validate() error {
	if !(p.CapacityKWh > 0) {
		return ConfigErrorf("battery.capacity_kwh", "must be > 0, got %v", p.CapacityKWh)
	}
	if !(p.RoundTripEfficiency > 0 && p.RoundTripEfficiency <= 1) {
		return ConfigErrorf("battery.round_trip_efficiency", "must be in (0, 1], got %v", p.RoundTripEfficiency)
	}
	if !inUnit(p.InitialSOC) {
		return ConfigErrorf("battery.initial_soc", "must be in [0, 1], got %v", p.InitialSOC)
	}
	if !inUnit(p.MinSOC) || !inUnit(p.MaxSOC) || p.MinSOC >= p.MaxSOC {
		return ConfigErrorf("battery.min_soc", "must satisfy 0 <= min_soc < max_soc <= 1, got %v/%v", p.MinSOC, p.MaxSOC)
	}
	if !(p.MaxChargeKW >= 0) {
		return ConfigErrorf("battery.max_charge_kw", "must be >= 0, got %v", p.MaxChargeKW)
	}
	if !(p.MaxDischargeKW >= 0) {
		return ConfigErrorf("battery.max_discharge_kw", "must be >= 0, got %v", p.MaxDischargeKW)
	}
	return nil
}

// PriceSource selects where the import rate of an interval comes from.
type PriceSource string

const (
	// PriceSourceTOU bills imports at the rate of the interval's tariff period.
	PriceSourceTOU PriceSource = "tou"
	// PriceSourceSpot bills imports at the row's price_import times SpotScale.
	PriceSourceSpot PriceSource = "spot"
)

// TariffParams holds the time-of-use schedule and billing rates.
// Shoulder is every time of day that is neither offpeak nor peak.
type TariffParams struct {
	Offpeak Window
	Peak    Window

	ImportSource PriceSource
	OffpeakRate  float64
	PeakRate     float64
	ShoulderRate float64
	SpotScale    float64

	ExportRate float64
}

func (p TariffParams) Validate() error {
	if p.Offpeak.Degenerate() {
		return ConfigErrorf("tariff.offpeak", "start and end must differ, got %s", p.Offpeak)
	}
	if p.Peak.Degenerate() {
		return ConfigErrorf("tariff.peak", "start and end must differ, got %s", p.Peak)
	}
	switch p.ImportSource {
	case PriceSourceTOU:
		for field, v := range map[string]float64{
			"tariff.import_price.offpeak":  p.OffpeakRate,
			"tariff.import_price.peak":     p.PeakRate,
			"tariff.import_price.shoulder": p.ShoulderRate,
		} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return ConfigErrorf(field, "must be finite")
			}
		}
	case PriceSourceSpot:
		if !(p.SpotScale > 0) || math.IsInf(p.SpotScale, 0) {
			return ConfigErrorf("tariff.import_price.spot_scale", "must be > 0, got %v", p.SpotScale)
		}
	default:
		return ConfigErrorf("tariff.import_price.source", "unknown source %q", p.ImportSource)
	}
	if !(p.ExportRate >= 0) || math.IsInf(p.ExportRate, 0) {
		return ConfigErrorf("tariff.export_price", "must be >= 0, got %v", p.ExportRate)
	}
	return nil
}

// StrategyName identifies a dispatch policy.
type StrategyName string

const (
	StrategyTOUVPP          StrategyName = "tou_vpp"
	StrategySelfConsumption StrategyName = "self_consumption"
	StrategySchedule        StrategyName = "schedule"
)

// Strategies lists every dispatch policy the simulator can build.
var Strategies = []StrategyName{StrategyTOUVPP, StrategySelfConsumption, StrategySchedule}

// DispatchParams selects the dispatch policy. Options carries the
// policy-specific settings, decoded by the strategy package.
type DispatchParams struct {
	Strategy       StrategyName
	PriceThreshold float64
	Options        map[string]any
}

func (p DispatchParams) Validate() error {
	known := false
	for _, s := range Strategies {
		if s == p.Strategy {
			known = true
			break
		}
	}
	if !known {
		return ConfigErrorf("dispatch.name", "unknown strategy %q", p.Strategy)
	}
	if math.IsNaN(p.PriceThreshold) {
		return ConfigErrorf("dispatch.price_threshold", "must be a number")
	}
	return nil
}

// SimulationParams is the validated, immutable input of one run.
type SimulationParams struct {
	Solar    SolarParams
	Battery  BatteryParams
	Tariff   TariffParams
	Dispatch DispatchParams
}

// Validate rejects parameter combinations that cannot be simulated.
// All failures are *ConfigError.
func (p SimulationParams) Validate() error {
	if !(p.Solar.CapacityKW > 0) || math.IsInf(p.Solar.CapacityKW, 0) {
		return ConfigErrorf("solar.capacity_kw", "must be > 0, got %v", p.Solar.CapacityKW)
	}
	if !(p.Solar.TempCoeff <= 0) {
		return ConfigErrorf("solar.temp_coeff", "must be <= 0, got %v", p.Solar.TempCoeff)
	}
	if !(p.Solar.PerformanceRatio > 0 && p.Solar.PerformanceRatio <= 1) {
		return ConfigErrorf("solar.performance_ratio", "must be in (0, 1], got %v", p.Solar.PerformanceRatio)
	}
	if err := p.Battery.Validate(); err != nil {
		return err
	}
	if err := p.Tariff.Validate(); err != nil {
		return err
	}
	return p.Dispatch.Validate()
}

func inUnit(x float64) bool {
	return x >= 0 && x <= 1
}
