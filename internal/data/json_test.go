package data

import (
	"math"
	"strings"
	"testing"

	"solar-battery-sim/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONParser(t *testing.T) {
	in := `[
	  {"timestamp": "2023-01-01T00:00:00Z", "irradiance": 0, "temperature": 24, "load_kw": 0.5, "price_import": 500},
	  {"timestamp": "2023-01-01T00:05:00Z", "irradiance": null, "load_kw": 0.5, "price_import": 500}
	]`
	rows, err := JSONParser{}.Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 24.0, rows[0].TemperatureC)
	assert.True(t, math.IsNaN(rows[1].IrradianceWm2))
	assert.True(t, math.IsNaN(rows[1].TemperatureC))
}

func TestJSONParser_Errors(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		row   int
		field string
	}{
		{"not json", `{`, -1, "body"},
		{"missing load", `[{"timestamp": "2023-01-01T00:00:00Z", "price_import": 1}]`, 0, "load_kw"},
		{"missing price", `[{"timestamp": "2023-01-01T00:00:00Z", "load_kw": 1}]`, 0, "price_import"},
		{"missing timestamp", `[{"load_kw": 1, "price_import": 1}]`, 0, "timestamp"},
		{"empty", `[]`, -1, "rows"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := JSONParser{}.Parse(strings.NewReader(tt.in))
			var serr *model.SchemaError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tt.row, serr.Row)
			assert.Equal(t, tt.field, serr.Field)
		})
	}
}

func TestFromRows(t *testing.T) {
	rows := Synthetic(mustTime(t, "2023-01-01T00:00:00Z"), 1, 1)
	rows[3].TemperatureC = math.NaN()

	recs := FromRows(rows)
	require.Len(t, recs, len(rows))
	assert.Nil(t, recs[3].Temperature)
	require.NotNil(t, recs[4].Temperature)

	back, err := ToRows(recs)
	require.NoError(t, err)
	assert.Equal(t, rows[10], back[10])
}
