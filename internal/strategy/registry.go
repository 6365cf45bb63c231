package strategy

import (
	"solar-battery-sim/internal/model"
	"solar-battery-sim/internal/tariff"

	"github.com/mitchellh/mapstructure"
)

// FromParams builds the strategy named by p.Dispatch, decoding its
// options from p.Dispatch.Options. Unknown names and undecodable options
// are reported as *model.ConfigError.
func FromParams(p model.SimulationParams) (Strategy, error) {
	switch p.Dispatch.Strategy {
	case model.StrategyTOUVPP:
		opts := DefaultTOUOptions()
		if err := decodeOptions(p.Dispatch.Options, &opts); err != nil {
			return nil, err
		}
		return &TOUStrategy{
			PriceThreshold: p.Dispatch.PriceThreshold,
			MaxChargeKW:    p.Battery.MaxChargeKW,
			MaxDischargeKW: p.Battery.MaxDischargeKW,
			Tariff:         tariff.New(p.Tariff),
			Options:        opts,
		}, nil
	case model.StrategySelfConsumption:
		if err := decodeOptions(p.Dispatch.Options, &struct{}{}); err != nil {
			return nil, err
		}
		return &SelfConsumptionStrategy{}, nil
	case model.StrategySchedule:
		sp := DefaultScheduleParams(p.Battery)
		if err := decodeOptions(p.Dispatch.Options, &sp); err != nil {
			return nil, err
		}
		return NewScheduleStrategy(sp)
	default:
		return nil, model.ConfigErrorf("dispatch.name", "unknown strategy %q", p.Dispatch.Strategy)
	}
}

// decodeOptions accepts YAML/JSON scalars loosely (ints for floats,
// strings for bools) but rejects keys the strategy does not know.
func decodeOptions(in map[string]any, out any) error {
	if len(in) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(in); err != nil {
		return &model.ConfigError{Field: "dispatch.params", Reason: err.Error()}
	}
	return nil
}
