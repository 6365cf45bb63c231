// Package solar converts irradiance and ambient temperature into PV output.
package solar

import (
	"context"
	"math"
	"runtime"

	"solar-battery-sim/internal/model"

	"golang.org/x/sync/errgroup"
)

const (
	// StandardIrradiance is the irradiance at which CapacityKW is rated.
	StandardIrradiance = 1000.0
	// StandardTempC is the cell temperature at which CapacityKW is rated.
	StandardTempC = 25.0

	// rows per goroutine in Series; one month of 5-minute intervals
	chunkSize = 30 * model.IntervalsPerDay
)

// Array is a PV array with a linear temperature derating.
type Array struct {
	params model.SolarParams
}

func New(params model.SolarParams) Array {
	return Array{params: params}
}

// OutputKW returns the instantaneous output for one interval, never negative.
// A NaN irradiance is read as darkness and a NaN temperature as 25 C.
func (a Array) OutputKW(irradianceWm2, temperatureC float64) float64 {
	if math.IsNaN(irradianceWm2) {
		return 0
	}
	if math.IsNaN(temperatureC) {
		temperatureC = StandardTempC
	}
	out := a.params.CapacityKW *
		(irradianceWm2 / StandardIrradiance) *
		(1 + a.params.TempCoeff*(temperatureC-StandardTempC)) *
		a.params.PerformanceRatio
	if !(out > 0) {
		return 0
	}
	return out
}

// Series computes OutputKW for every row. Rows are independent, so the
// series is split into chunks computed concurrently.
func (a Array) Series(ctx context.Context, rows []model.TimeSeriesRow) ([]float64, error) {
	out := make([]float64, len(rows))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for start := 0; start < len(rows); start += chunkSize {
		end := min(start+chunkSize, len(rows))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				out[i] = a.OutputKW(rows[i].IrradianceWm2, rows[i].TemperatureC)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
