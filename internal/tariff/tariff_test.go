package tariff

import (
	"testing"
	"time"

	"solar-battery-sim/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touParams(t *testing.T) model.TariffParams {
	t.Helper()
	off, err := model.ParseWindow("22:00", "06:00")
	require.NoError(t, err)
	peak, err := model.ParseWindow("17:00", "21:00")
	require.NoError(t, err)
	return model.TariffParams{
		Offpeak:      off,
		Peak:         peak,
		ImportSource: model.PriceSourceTOU,
		OffpeakRate:  0.10,
		PeakRate:     0.40,
		ShoulderRate: 0.20,
		ExportRate:   0.05,
	}
}

func at(hhmm string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", "2024-03-10 "+hhmm)
	if err != nil {
		panic(err)
	}
	return t
}

func TestClassify(t *testing.T) {
	s := New(touParams(t))
	tests := []struct {
		at   string
		want Period
	}{
		{"23:30", Offpeak},
		{"02:00", Offpeak},
		{"06:00", Shoulder},
		{"12:00", Shoulder},
		{"17:00", Peak},
		{"20:55", Peak},
		{"21:00", Shoulder},
		{"21:59", Shoulder},
		{"22:00", Offpeak},
	}
	for _, tt := range tests {
		t.Run(tt.at, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Classify(model.ClockOf(at(tt.at))))
		})
	}
}

func TestClassify_OffpeakWinsOverlap(t *testing.T) {
	p := touParams(t)
	p.Peak = model.Window{Start: 5 * 60, End: 9 * 60}
	s := New(p)
	assert.Equal(t, Offpeak, s.Classify(5*60+30))
	assert.Equal(t, Peak, s.Classify(6*60))
}

func TestImportRate(t *testing.T) {
	s := New(touParams(t))
	assert.Equal(t, 0.10, s.ImportRate(model.TimeSeriesRow{Timestamp: at("23:00"), PriceImport: 900}))
	assert.Equal(t, 0.40, s.ImportRate(model.TimeSeriesRow{Timestamp: at("18:00")}))
	assert.Equal(t, 0.20, s.ImportRate(model.TimeSeriesRow{Timestamp: at("10:00")}))

	p := touParams(t)
	p.ImportSource = model.PriceSourceSpot
	p.SpotScale = 0.001
	spot := New(p)
	assert.InDelta(t, 0.9, spot.ImportRate(model.TimeSeriesRow{Timestamp: at("10:00"), PriceImport: 900}), 1e-12)
}

func TestCost(t *testing.T) {
	s := New(touParams(t))
	dt := model.IntervalHours

	imp := s.Cost(model.TimeSeriesRow{Timestamp: at("18:00")}, 6, dt)
	assert.InDelta(t, 0.5, imp.ImportKWh, 1e-12)
	assert.Zero(t, imp.ExportKWh)
	assert.InDelta(t, 0.2, imp.ImportCost, 1e-12)
	assert.InDelta(t, 0.2, imp.NetCost, 1e-12)

	exp := s.Cost(model.TimeSeriesRow{Timestamp: at("12:00")}, -12, dt)
	assert.Zero(t, exp.ImportKWh)
	assert.InDelta(t, 1.0, exp.ExportKWh, 1e-12)
	assert.InDelta(t, 0.05, exp.ExportRevenue, 1e-12)
	assert.InDelta(t, -0.05, exp.NetCost, 1e-12)
	assert.Equal(t, 0.05, s.ExportRate())

	zero := s.Cost(model.TimeSeriesRow{Timestamp: at("12:00")}, 0, dt)
	assert.Equal(t, Charge{}, zero)
}
