package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"solar-battery-sim/internal/model"
)

// RowParser turns an encoded time series into simulation rows.
type RowParser interface {
	Parse(r io.Reader) ([]model.TimeSeriesRow, error)
}

// Column name fragments, matched case-insensitively. The first header
// containing any fragment wins. waktu, suhu, beban and harga are the
// Indonesian headers of the bundled dataset exports.
var (
	timestampColumn   = []string{"timestamp", "datetime", "time", "date", "waktu"}
	irradianceColumn  = []string{"irradiance", "glob"}
	temperatureColumn = []string{"temperature", "amb", "suhu"}
	loadColumn        = []string{"load", "beban"}
	priceColumn       = []string{"price", "harga"}
)

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
}

// CSVParser reads a merged series: a header naming timestamp, irradiance,
// load and price columns, temperature optional.
type CSVParser struct {
	// Location applies to timestamps without an offset. UTC when nil.
	Location *time.Location
}

func (p CSVParser) Parse(r io.Reader) ([]model.TimeSeriesRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &model.SchemaError{Row: -1, Field: "header", Reason: "empty input"}
	}
	if err != nil {
		return nil, err
	}

	cols, err := findColumns(header, map[string][]string{
		"timestamp":    timestampColumn,
		"irradiance":   irradianceColumn,
		"load_kw":      loadColumn,
		"price_import": priceColumn,
	}, map[string][]string{
		"temperature": temperatureColumn,
	})
	if err != nil {
		return nil, err
	}

	var rows []model.TimeSeriesRow
	for i := 0; ; i++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &model.SchemaError{Row: i, Field: "record", Reason: err.Error()}
		}

		ts, err := p.parseTimestamp(rec[cols["timestamp"]])
		if err != nil {
			return nil, &model.SchemaError{Row: i, Field: "timestamp", Reason: err.Error()}
		}
		load, err := parseRequired(rec[cols["load_kw"]])
		if err != nil {
			return nil, &model.SchemaError{Row: i, Field: "load_kw", Reason: err.Error()}
		}
		price, err := parseRequired(rec[cols["price_import"]])
		if err != nil {
			return nil, &model.SchemaError{Row: i, Field: "price_import", Reason: err.Error()}
		}
		temp := math.NaN()
		if c, ok := cols["temperature"]; ok {
			temp = parseOptional(rec[c])
		}

		rows = append(rows, model.TimeSeriesRow{
			Timestamp:     ts,
			IrradianceWm2: parseOptional(rec[cols["irradiance"]]),
			TemperatureC:  temp,
			LoadKW:        load,
			PriceImport:   price,
		})
	}

	if err := model.ValidateRows(rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (p CSVParser) parseTimestamp(s string) (time.Time, error) {
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	return parseTimestamp(s, loc)
}

func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// findColumns maps each role to its column index. A missing required role
// is a header-level schema error.
func findColumns(header []string, required, optional map[string][]string) (map[string]int, error) {
	used := map[int]bool{}
	out := map[string]int{}
	lookup := func(role string, fragments []string) bool {
		for _, frag := range fragments {
			for i, h := range header {
				if used[i] {
					continue
				}
				if strings.Contains(strings.ToLower(strings.TrimSpace(h)), frag) {
					used[i] = true
					out[role] = i
					return true
				}
			}
		}
		return false
	}

	// Fixed order so "load_profile" is never taken for something else.
	for _, role := range []string{"timestamp", "irradiance", "load_kw", "price_import"} {
		fr, ok := required[role]
		if !ok {
			continue
		}
		if !lookup(role, fr) {
			return nil, &model.SchemaError{Row: -1, Field: role, Reason: "column not found"}
		}
	}
	for role, fr := range optional {
		lookup(role, fr)
	}
	return out, nil
}

func parseRequired(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("must be finite, got %q", s)
	}
	return v, nil
}

// parseOptional reads a weather value; anything unreadable or not finite
// is missing.
func parseOptional(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

// LoadRows reads a row file, choosing the parser from the extension:
// .json for JSON, anything else as CSV.
func LoadRows(path string) ([]model.TimeSeriesRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var p RowParser = CSVParser{}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		p = JSONParser{}
	}
	rows, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}
