package power

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climo-likelihood/internal/domain"
)

const samplePayload = `{
  "type": "Feature",
  "geometry": {"type": "Point", "coordinates": [-77.04, 38.9, 12.3]},
  "header": {"title": "NASA/POWER Daily Point", "fill_value": -999.0, "start": "20240101", "end": "20240103"},
  "properties": {
    "parameter": {
      "T2M_MAX": {"20240102": 5.5, "20240101": 4.1, "20240103": -999},
      "T2M_MIN": {"20240101": -2.0, "20240102": -1.5},
      "WS10M": {"20240101": 3.2, "20240102": null, "20240103": 8.1},
      "PRECTOTCORR": {"20240101": 0.0, "20240102": 12.4, "20240103": 0.3}
    }
  },
  "messages": []
}`

func TestDecode(t *testing.T) {
	series, err := Decode([]byte(samplePayload), 38.9, -77.04)
	require.NoError(t, err)

	assert.Equal(t, 38.9, series.Lat)
	assert.Equal(t, -77.04, series.Lon)
	require.Len(t, series.Records, 3)

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), series.Records[0].Date)
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), series.Records[2].Date)

	first := series.Records[0]
	assert.Equal(t, 4.1, first.TMax)
	assert.Equal(t, -2.0, first.TMin)
	assert.Equal(t, 3.2, first.WindSpeed)
	assert.Equal(t, 0.0, first.Precip)

	second := series.Records[1]
	assert.True(t, math.IsNaN(second.WindSpeed), "null decodes as missing")
	assert.Equal(t, 12.4, second.Precip)

	third := series.Records[2]
	assert.True(t, math.IsNaN(third.TMax), "fill value decodes as missing")
	assert.True(t, math.IsNaN(third.TMin), "absent date decodes as missing")
	assert.Equal(t, 8.1, third.WindSpeed)
}

func TestDecode_CustomFillValue(t *testing.T) {
	data := `{"header": {"fill_value": -99}, "properties": {"parameter": {
		"T2M_MAX": {"20240101": -99, "20240102": -999}, "T2M_MIN": {}, "WS10M": {}, "PRECTOTCORR": {}}}}`

	series, err := Decode([]byte(data), 0, 0)
	require.NoError(t, err)

	assert.True(t, math.IsNaN(series.Records[0].TMax))
	assert.Equal(t, -999.0, series.Records[1].TMax)
}

func TestDecode_MissingParameters(t *testing.T) {
	for _, data := range []string{
		`{"header": {}, "properties": {}}`,
		`{"header": {}, "properties": {"parameter": {}}}`,
		`{}`,
	} {
		_, err := Decode([]byte(data), 0, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "properties.parameter")
	}
}

func TestDecode_MissingVariable(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		missing []string
	}{
		{
			name:    "only minimum temperature",
			data:    `{"properties": {"parameter": {"T2M_MIN": {"20240101": 1.5}}}}`,
			missing: []string{"T2M_MAX", "WS10M", "PRECTOTCORR"},
		},
		{
			name:    "precipitation absent",
			data:    `{"properties": {"parameter": {"T2M_MAX": {}, "T2M_MIN": {}, "WS10M": {"20240101": 2}}}}`,
			missing: []string{"PRECTOTCORR"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data), 0, 0)
			require.Error(t, err)
			assert.ErrorIs(t, err, errMissingParameters)
			for _, v := range tt.missing {
				assert.Contains(t, err.Error(), v)
			}
			assert.NotContains(t, err.Error(), "T2M_MIN")
		})
	}
}

func TestDecode_InvalidJSON(t *testing.T) {
	_, err := Decode([]byte("{not json"), 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode POWER response")
}

func TestDecode_InvalidDateKey(t *testing.T) {
	data := `{"properties": {"parameter": {"T2M_MAX": {"2024-01-01": 1}, "T2M_MIN": {}, "WS10M": {}, "PRECTOTCORR": {}}}}`
	_, err := Decode([]byte(data), 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2024-01-01")
}

func TestNewPayload_WritesFillValueForMissing(t *testing.T) {
	rec := domain.NewDailyRecord(time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC))
	rec.TMax = 12.5
	series := domain.TimeSeries{Lat: 1, Lon: 2, Records: []domain.DailyRecord{rec}}

	data, err := json.Marshal(NewPayload(series))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	params := raw["properties"].(map[string]any)["parameter"].(map[string]any)
	assert.Equal(t, 12.5, params["T2M_MAX"].(map[string]any)["20200229"])
	assert.Equal(t, DefaultFillValue, params["WS10M"].(map[string]any)["20200229"])

	decoded, err := Decode(data, 1, 2)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(decoded.Records[0].WindSpeed))
}

func TestDescribeError(t *testing.T) {
	assert.Equal(t, "a; b", describeError([]byte(`{"messages": ["a", "b"]}`)))
	assert.Equal(t, "bad latitude", describeError([]byte(`{"message": "bad latitude"}`)))
	assert.Equal(t, "upstream down", describeError([]byte("upstream down")))
}
