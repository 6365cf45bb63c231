package strategy

import "solar-battery-sim/internal/model"

// SelfConsumptionStrategy stores every solar surplus and covers every
// deficit, ignoring prices and tariff periods.
type SelfConsumptionStrategy struct{}

func (s *SelfConsumptionStrategy) Name() string { return string(model.StrategySelfConsumption) }

func (s *SelfConsumptionStrategy) Decide(ctx Context) model.Dispatch {
	return model.Dispatch{PowerKW: ctx.NetLoadKW(), Mode: model.ModeSelfConsumption}
}
