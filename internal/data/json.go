package data

import (
	"encoding/json"
	"io"
	"math"
	"os"
	"time"

	"solar-battery-sim/internal/model"
)

// RowRecord is the JSON form of a row. Weather fields may be null or
// omitted; load_kw and price_import may not.
type RowRecord struct {
	Timestamp   time.Time `json:"timestamp"`
	Irradiance  *float64  `json:"irradiance,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	LoadKW      *float64  `json:"load_kw"`
	PriceImport *float64  `json:"price_import"`
}

// ToRows converts records, reporting the first unusable one as a
// *model.SchemaError.
func ToRows(records []RowRecord) ([]model.TimeSeriesRow, error) {
	rows := make([]model.TimeSeriesRow, 0, len(records))
	for i, rec := range records {
		if rec.LoadKW == nil {
			return nil, &model.SchemaError{Row: i, Field: "load_kw", Reason: "missing"}
		}
		if rec.PriceImport == nil {
			return nil, &model.SchemaError{Row: i, Field: "price_import", Reason: "missing"}
		}
		rows = append(rows, model.TimeSeriesRow{
			Timestamp:     rec.Timestamp,
			IrradianceWm2: orNaN(rec.Irradiance),
			TemperatureC:  orNaN(rec.Temperature),
			LoadKW:        *rec.LoadKW,
			PriceImport:   *rec.PriceImport,
		})
	}
	if err := model.ValidateRows(rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// FromRows is the inverse of ToRows; missing weather values become null.
func FromRows(rows []model.TimeSeriesRow) []RowRecord {
	out := make([]RowRecord, len(rows))
	for i, r := range rows {
		load, price := r.LoadKW, r.PriceImport
		out[i] = RowRecord{
			Timestamp:   r.Timestamp,
			Irradiance:  finiteOrNil(r.IrradianceWm2),
			Temperature: finiteOrNil(r.TemperatureC),
			LoadKW:      &load,
			PriceImport: &price,
		}
	}
	return out
}

// JSONParser reads a JSON array of RowRecord.
type JSONParser struct{}

func (JSONParser) Parse(r io.Reader) ([]model.TimeSeriesRow, error) {
	var records []RowRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, &model.SchemaError{Row: -1, Field: "body", Reason: err.Error()}
	}
	return ToRows(records)
}

// WriteRowsJSON writes rows in the form JSONParser reads.
func WriteRowsJSON(path string, rows []model.TimeSeriesRow) error {
	raw, err := json.MarshalIndent(FromRows(rows), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
