package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"solar-battery-sim/internal/model"
	"solar-battery-sim/internal/solar"
)

// ErrNoData means the catalog has nothing for a request.
var ErrNoData = errors.New("no data")

// Day-of-year offsets in a non-leap master year.
const (
	feb28Start = 58 * model.IntervalsPerDay
	feb29Start = 59 * model.IntervalsPerDay
)

// MergeRequest selects a location, a point and an inclusive year range.
type MergeRequest struct {
	Location  string `json:"location"`
	Point     string `json:"point"`
	StartYear int    `json:"start_year"`
	EndYear   int    `json:"end_year"`
	// LoadProfile names a file in load_profile/. When empty the picker
	// chooses.
	LoadProfile string `json:"load_profile,omitempty"`
}

// ProfilePicker chooses one of the available load profile files.
type ProfilePicker func(files []string) string

// RandomPicker picks uniformly with rng.
func RandomPicker(rng *rand.Rand) ProfilePicker {
	return func(files []string) string {
		return files[rng.Intn(len(files))]
	}
}

// Dataset is a merged multi-year series.
type Dataset struct {
	Request     MergeRequest          `json:"request"`
	LoadProfile string                `json:"load_profile"`
	Years       []int                 `json:"years"`
	Rows        []model.TimeSeriesRow `json:"-"`
}

// Merge builds a multi-year series. Each year's price file is the time
// backbone; the one-year solar and load masters are laid onto it, with
// Feb 28 repeated in leap years, then cut or edge-padded to the price
// length. Years without a price file are skipped.
func (c *Catalog) Merge(req MergeRequest, pick ProfilePicker) (*Dataset, error) {
	if req.EndYear < req.StartYear {
		return nil, model.ConfigErrorf("end_year", "must be >= start_year, got %d < %d", req.EndYear, req.StartYear)
	}

	solarPath, err := c.SolarFile(req.Location, req.Point)
	if err != nil {
		return nil, err
	}
	irr, temp, err := readSolarFile(solarPath)
	if err != nil {
		return nil, err
	}

	profile := req.LoadProfile
	if profile == "" {
		files, err := c.LoadProfiles()
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("%w: no load profiles", ErrNoData)
		}
		if pick == nil {
			pick = RandomPicker(rand.New(rand.NewSource(time.Now().UnixNano())))
		}
		profile = pick(files)
	}
	profilePath, err := c.join(loadProfileDir, profile)
	if err != nil {
		return nil, err
	}
	load, err := readLoadFile(profilePath)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{Request: req, LoadProfile: profile}
	for year := req.StartYear; year <= req.EndYear; year++ {
		pricePath, err := c.join(req.Location, priceDir, fmt.Sprintf("%d.csv", year))
		if err != nil {
			return nil, err
		}
		prices, err := readPriceFile(pricePath)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}

		n := len(prices)
		yIrr, yTemp, yLoad := irr, temp, load
		if isLeap(year) {
			yIrr, yTemp, yLoad = spliceLeapDay(irr), spliceLeapDay(temp), spliceLeapDay(load)
		}
		yIrr, yTemp, yLoad = fit(yIrr, n), fit(yTemp, n), fit(yLoad, n)

		for i, p := range prices {
			ds.Rows = append(ds.Rows, model.TimeSeriesRow{
				Timestamp:     p.ts,
				IrradianceWm2: yIrr[i],
				TemperatureC:  yTemp[i],
				LoadKW:        yLoad[i],
				PriceImport:   p.price,
			})
		}
		ds.Years = append(ds.Years, year)
	}

	if len(ds.Rows) == 0 {
		return nil, fmt.Errorf("%w: no price files for %s %d-%d", ErrNoData, req.Location, req.StartYear, req.EndYear)
	}
	return ds, nil
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// spliceLeapDay copies Feb 28 in as Feb 29. Masters too short to reach
// March are returned as is.
func spliceLeapDay(a []float64) []float64 {
	if len(a) < feb29Start {
		return a
	}
	out := make([]float64, 0, len(a)+model.IntervalsPerDay)
	out = append(out, a[:feb29Start]...)
	out = append(out, a[feb28Start:feb29Start]...)
	return append(out, a[feb29Start:]...)
}

// fit truncates a to n values or pads it by repeating its last value.
func fit(a []float64, n int) []float64 {
	if len(a) >= n {
		return a[:n]
	}
	out := make([]float64, n)
	copy(out, a)
	last := math.NaN()
	if len(a) > 0 {
		last = a[len(a)-1]
	}
	for i := len(a); i < n; i++ {
		out[i] = last
	}
	return out
}

type pricePoint struct {
	ts    time.Time
	price float64
}

func readCSV(path string) (header []string, records [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.TrimLeadingSpace = true
	header, err = cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, &model.SchemaError{Row: -1, Field: "header", Reason: filepath.Base(path) + " is empty"}
	}
	if err != nil {
		return nil, nil, err
	}
	records, err = cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return header, records, nil
}

func readSolarFile(path string) (irr, temp []float64, err error) {
	header, records, err := readCSV(path)
	if err != nil {
		return nil, nil, err
	}
	cols, err := findColumns(header,
		map[string][]string{"irradiance": irradianceColumn},
		map[string][]string{"temperature": temperatureColumn})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	tc, hasTemp := cols["temperature"]

	irr = make([]float64, len(records))
	temp = make([]float64, len(records))
	for i, rec := range records {
		irr[i] = parseOptional(rec[cols["irradiance"]])
		temp[i] = solar.StandardTempC
		if hasTemp {
			temp[i] = parseOptional(rec[tc])
		}
	}
	return irr, temp, nil
}

func readLoadFile(path string) ([]float64, error) {
	header, records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	cols, err := findColumns(header, map[string][]string{"load_kw": loadColumn}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", path, &model.SchemaError{Row: -1, Field: "load_kw", Reason: "no rows"})
	}
	out := make([]float64, len(records))
	for i, rec := range records {
		v, err := parseRequired(rec[cols["load_kw"]])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, &model.SchemaError{Row: i, Field: "load_kw", Reason: err.Error()})
		}
		out[i] = v
	}
	return out, nil
}

// readPriceFile returns the file's rows sorted by timestamp.
func readPriceFile(path string) ([]pricePoint, error) {
	header, records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	cols, err := findColumns(header, map[string][]string{
		"timestamp":    timestampColumn,
		"price_import": priceColumn,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	out := make([]pricePoint, len(records))
	for i, rec := range records {
		ts, err := parseTimestamp(rec[cols["timestamp"]], time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, &model.SchemaError{Row: i, Field: "timestamp", Reason: err.Error()})
		}
		price, err := parseRequired(rec[cols["price_import"]])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, &model.SchemaError{Row: i, Field: "price_import", Reason: err.Error()})
		}
		out[i] = pricePoint{ts: ts, price: price}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ts.Before(out[j].ts) })
	return out, nil
}
