package data

import (
	"math"
	"math/rand"
	"time"

	"solar-battery-sim/internal/model"
)

// Synthetic generates days of plausible 5-minute rows: a clear-sky
// irradiance arch dimmed by daily cloud cover, a household load with
// morning and evening peaks, and a spot price with an occasional evening
// spike above 800. The same seed always yields the same rows.
func Synthetic(start time.Time, days int, seed int64) []model.TimeSeriesRow {
	rng := rand.New(rand.NewSource(seed))
	rows := make([]model.TimeSeriesRow, 0, days*model.IntervalsPerDay)

	for d := 0; d < days; d++ {
		cloud := 0.55 + 0.45*rng.Float64()
		spike := rng.Float64() < 0.3
		for i := 0; i < model.IntervalsPerDay; i++ {
			ts := start.Add(time.Duration(d*model.IntervalsPerDay+i) * model.IntervalMinutes * time.Minute)
			h := float64(i*model.IntervalMinutes) / 60

			irr := 0.0
			if h > 6 && h < 18 {
				irr = 1000 * math.Sin(math.Pi*(h-6)/12) * cloud
			}
			temp := 24 + 7*math.Sin(math.Pi*(h-9)/12)

			load := 0.4 + 0.1*rng.Float64()
			if h >= 6 && h < 8 {
				load += 0.8
			}
			if h >= 17 && h < 22 {
				load += 1.6
			}

			price := 450 + 40*rng.Float64()
			if h >= 17 && h < 21 {
				price += 250
			}
			if spike && h >= 19 && h < 19.5 {
				price = 950
			}

			rows = append(rows, model.TimeSeriesRow{
				Timestamp:     ts,
				IrradianceWm2: irr,
				TemperatureC:  temp,
				LoadKW:        load,
				PriceImport:   price,
			})
		}
	}
	return rows
}
