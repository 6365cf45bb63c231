package strategy

import (
	"testing"
	"time"

	"solar-battery-sim/internal/model"
	"solar-battery-sim/internal/tariff"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func params(t *testing.T) model.SimulationParams {
	t.Helper()
	off, err := model.ParseWindow("22:00", "06:00")
	require.NoError(t, err)
	peak, err := model.ParseWindow("17:00", "21:00")
	require.NoError(t, err)
	return model.SimulationParams{
		Solar: model.SolarParams{CapacityKW: 5, TempCoeff: -0.004, PerformanceRatio: 1},
		Battery: model.BatteryParams{
			CapacityKWh:         10,
			RoundTripEfficiency: 0.95,
			InitialSOC:          0.5,
			MinSOC:              0.1,
			MaxSOC:              0.9,
			MaxChargeKW:         5,
			MaxDischargeKW:      5,
		},
		Tariff: model.TariffParams{
			Offpeak:      off,
			Peak:         peak,
			ImportSource: model.PriceSourceSpot,
			SpotScale:    0.001,
		},
		Dispatch: model.DispatchParams{Strategy: model.StrategyTOUVPP, PriceThreshold: 800},
	}
}

func ctxAt(hhmm string, price, load, solar float64) Context {
	ts, err := time.Parse("2006-01-02 15:04", "2023-07-01 "+hhmm)
	if err != nil {
		panic(err)
	}
	return Context{
		Row:     model.TimeSeriesRow{Timestamp: ts, LoadKW: load, PriceImport: price},
		SolarKW: solar,
	}
}

func touStrategy(t *testing.T, opts TOUOptions) *TOUStrategy {
	p := params(t)
	return &TOUStrategy{
		PriceThreshold: 800,
		MaxChargeKW:    5,
		MaxDischargeKW: 5,
		Tariff:         tariff.New(p.Tariff),
		Options:        opts,
	}
}

func TestTOUStrategy_Decide(t *testing.T) {
	s := touStrategy(t, DefaultTOUOptions())
	assert.Equal(t, "tou_vpp", s.Name())

	tests := []struct {
		name string
		ctx  Context
		want model.Dispatch
	}{
		{"offpeak forces charge", ctxAt("23:30", 500, 2, 0), model.Dispatch{PowerKW: -5, Mode: model.ModeOffpeakCharge}},
		{"offpeak charges despite surplus", ctxAt("05:55", 500, 0.5, 3), model.Dispatch{PowerKW: -5, Mode: model.ModeOffpeakCharge}},
		{"vpp overrides offpeak", ctxAt("23:30", 900, 2, 0), model.Dispatch{PowerKW: 5, Mode: model.ModeVPPDischarge}},
		{"vpp overrides shoulder surplus", ctxAt("12:00", 801, 1, 4), model.Dispatch{PowerKW: 5, Mode: model.ModeVPPDischarge}},
		{"price equal to threshold is not vpp", ctxAt("23:30", 800, 2, 0), model.Dispatch{PowerKW: -5, Mode: model.ModeOffpeakCharge}},
		{"peak shaves deficit", ctxAt("18:00", 500, 3, 1), model.Dispatch{PowerKW: 2, Mode: model.ModePeakShave}},
		{"peak idles on surplus", ctxAt("17:00", 500, 1, 3), model.Dispatch{PowerKW: 0, Mode: model.ModePeakShave}},
		{"shoulder charges surplus", ctxAt("12:00", 500, 1, 4), model.Dispatch{PowerKW: -3, Mode: model.ModeShoulderBalance}},
		{"shoulder supports load", ctxAt("21:30", 500, 2.5, 0), model.Dispatch{PowerKW: 2.5, Mode: model.ModeShoulderBalance}},
		{"shoulder just before offpeak", ctxAt("21:59", 500, 1, 0), model.Dispatch{PowerKW: 1, Mode: model.ModeShoulderBalance}},
		{"shoulder after offpeak end", ctxAt("06:30", 500, 1, 0), model.Dispatch{PowerKW: 1, Mode: model.ModeShoulderBalance}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Decide(tt.ctx))
		})
	}
}

func TestTOUStrategy_Options(t *testing.T) {
	s := touStrategy(t, TOUOptions{SupportLoadInShoulder: false, ChargeSurplusInPeak: true})

	assert.Equal(t, model.Dispatch{PowerKW: 0, Mode: model.ModeShoulderBalance}, s.Decide(ctxAt("12:00", 500, 3, 1)))
	assert.Equal(t, model.Dispatch{PowerKW: -2, Mode: model.ModeShoulderBalance}, s.Decide(ctxAt("12:00", 500, 1, 3)))
	assert.Equal(t, model.Dispatch{PowerKW: -2, Mode: model.ModePeakShave}, s.Decide(ctxAt("18:00", 500, 1, 3)))
	assert.Equal(t, model.Dispatch{PowerKW: 2, Mode: model.ModePeakShave}, s.Decide(ctxAt("18:00", 500, 3, 1)))
}

func TestSelfConsumptionStrategy(t *testing.T) {
	s := &SelfConsumptionStrategy{}
	assert.Equal(t, "self_consumption", s.Name())
	assert.Equal(t, model.Dispatch{PowerKW: -2, Mode: model.ModeSelfConsumption}, s.Decide(ctxAt("12:00", 2000, 1, 3)))
	assert.Equal(t, model.Dispatch{PowerKW: 1.5, Mode: model.ModeSelfConsumption}, s.Decide(ctxAt("23:00", 0, 1.5, 0)))
}

func TestScheduleStrategy(t *testing.T) {
	s, err := NewScheduleStrategy(ScheduleParams{
		ChargeStart:      "10:00",
		DischargeStart:   "17:00",
		DischargeEnd:     "20:00",
		ChargePowerKW:    3,
		DischargePowerKW: -4, // sign is ignored
	})
	require.NoError(t, err)
	assert.Equal(t, "schedule", s.Name())

	assert.Equal(t, model.Dispatch{PowerKW: -3, Mode: model.ModeScheduleCharge}, s.Decide(ctxAt("10:00", 0, 0, 0)))
	assert.Equal(t, model.Dispatch{PowerKW: -3, Mode: model.ModeScheduleCharge}, s.Decide(ctxAt("16:55", 0, 0, 0)))
	assert.Equal(t, model.Dispatch{PowerKW: 4, Mode: model.ModeScheduleDischarge}, s.Decide(ctxAt("17:00", 0, 0, 0)))
	assert.Equal(t, model.Dispatch{PowerKW: 0, Mode: model.ModeIdle}, s.Decide(ctxAt("20:00", 0, 0, 0)))
	assert.Equal(t, model.Dispatch{PowerKW: 0, Mode: model.ModeIdle}, s.Decide(ctxAt("03:00", 0, 0, 0)))
}

func TestNewScheduleStrategy_Invalid(t *testing.T) {
	_, err := NewScheduleStrategy(ScheduleParams{ChargeStart: "25:00", DischargeStart: "17:00", DischargeEnd: "20:00"})
	assert.ErrorIs(t, err, model.ErrInvalidConfig)

	_, err = NewScheduleStrategy(ScheduleParams{ChargeStart: "10:00", DischargeStart: "17:00", DischargeEnd: "17:00"})
	assert.ErrorIs(t, err, model.ErrInvalidConfig)
}

func TestFromParams(t *testing.T) {
	t.Run("tou_vpp defaults", func(t *testing.T) {
		s, err := FromParams(params(t))
		require.NoError(t, err)
		tou, ok := s.(*TOUStrategy)
		require.True(t, ok)
		assert.Equal(t, DefaultTOUOptions(), tou.Options)
		assert.Equal(t, 800.0, tou.PriceThreshold)
		assert.Equal(t, 5.0, tou.MaxDischargeKW)
	})

	t.Run("tou_vpp options decode loosely", func(t *testing.T) {
		p := params(t)
		p.Dispatch.Options = map[string]any{
			"support_load_in_shoulder": "false",
			"charge_surplus_in_peak":   true,
		}
		s, err := FromParams(p)
		require.NoError(t, err)
		assert.Equal(t, TOUOptions{SupportLoadInShoulder: false, ChargeSurplusInPeak: true}, s.(*TOUStrategy).Options)
	})

	t.Run("unknown option", func(t *testing.T) {
		p := params(t)
		p.Dispatch.Options = map[string]any{"soc_steps": 200}
		_, err := FromParams(p)
		var cerr *model.ConfigError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, "dispatch.params", cerr.Field)
	})

	t.Run("schedule with yaml ints", func(t *testing.T) {
		p := params(t)
		p.Dispatch.Strategy = model.StrategySchedule
		p.Dispatch.Options = map[string]any{
			"charge_start":       "09:00",
			"discharge_start":    "18:00",
			"discharge_end":      "22:00",
			"discharge_power_kw": 3,
		}
		s, err := FromParams(p)
		require.NoError(t, err)
		sched := s.(*ScheduleStrategy)
		assert.Equal(t, 3.0, sched.Params.DischargePowerKW)
		assert.Equal(t, 5.0, sched.Params.ChargePowerKW)
		assert.Equal(t, "18:00", sched.Params.ChargeEnd)
	})

	t.Run("self_consumption", func(t *testing.T) {
		p := params(t)
		p.Dispatch.Strategy = model.StrategySelfConsumption
		s, err := FromParams(p)
		require.NoError(t, err)
		assert.IsType(t, &SelfConsumptionStrategy{}, s)
	})

	t.Run("unknown strategy", func(t *testing.T) {
		p := params(t)
		p.Dispatch.Strategy = "oracle"
		_, err := FromParams(p)
		assert.ErrorIs(t, err, model.ErrInvalidConfig)
	})
}
