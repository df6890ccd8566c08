package domain

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDate = time.Date(2024, time.July, 4, 0, 0, 0, 0, time.UTC)

// julyFourthSeries returns one record per year on 4 July, 2000 through
// 2019, with the first hot days above 32 °C and the rest at 25 °C.
func julyFourthSeries(hot int) TimeSeries {
	series := TimeSeries{Lat: 38.9, Lon: -77.04}
	for i := 0; i < 20; i++ {
		r := NewDailyRecord(time.Date(2000+i, time.July, 4, 0, 0, 0, 0, time.UTC))
		r.TMax = 25
		if i < hot {
			r.TMax = 35
		}
		r.TMin = 18
		r.WindSpeed = 3
		r.Precip = 0
		series.Records = append(series.Records, r)
	}
	// Far outside the window; must not be counted.
	far := NewDailyRecord(time.Date(2010, time.January, 15, 0, 0, 0, 0, time.UTC))
	far.TMax = 40
	series.Records = append(series.Records, far)
	return series
}

func testRequest(conditions ...Condition) Request {
	return Request{
		Lat:        38.9,
		Lon:        -77.04,
		Date:       testDate,
		WindowDays: DefaultWindowDays,
		Units:      "si",
		Conditions: conditions,
	}
}

func TestEstimate_EndToEnd(t *testing.T) {
	result, err := Estimate(julyFourthSeries(6), testRequest(AllConditions...), DefaultSettings())
	require.NoError(t, err)

	hot := result.Results[ConditionHot]
	assert.Equal(t, 20, hot.N)
	assert.InDelta(t, 0.30, hot.Probability, 1e-12)
	assert.InDelta(t, 0.3322, hot.Interval.Center, 1e-4)
	assert.InDelta(t, 0.1455, hot.Interval.Lower, 1e-4)
	assert.InDelta(t, 0.5190, hot.Interval.Upper, 1e-4)
	assert.Equal(t, "Tmax > 32 °C", hot.Threshold)

	assert.Equal(t, "Tmin < 0 °C", result.Results[ConditionCold].Threshold)
	assert.Equal(t, "WS10M > 7 m/s", result.Results[ConditionWind].Threshold)
	assert.Equal(t, "Precip > 10 mm/day", result.Results[ConditionWet].Threshold)
	assert.Equal(t, 0.0, result.Results[ConditionCold].Probability)

	assert.Equal(t, []string{DatasetLabel}, result.Metadata.Datasets)
	assert.Equal(t, "2024-07-04 ±7d across years 19810101–20241231", result.Metadata.Period)
	assert.Equal(t, "Day-of-year ±k window across archive; Wilson 95% CI", result.Metadata.Method)
	assert.Equal(t, 21, result.Metadata.SeriesDays)
	assert.Equal(t, 20, result.Metadata.WindowSamples)
	assert.Equal(t, DefaultZ, result.Metadata.ConfidenceZ)
}

func TestEstimate_SubsetReturnsOnlyRequested(t *testing.T) {
	result, err := Estimate(julyFourthSeries(6), testRequest(ConditionCold), DefaultSettings())
	require.NoError(t, err)

	assert.Len(t, result.Results, 1)
	assert.Contains(t, result.Results, ConditionCold)
}

func TestEstimate_UnknownConditionIgnored(t *testing.T) {
	result, err := Estimate(julyFourthSeries(6), testRequest(Condition("humid"), ConditionHot), DefaultSettings())
	require.NoError(t, err)

	assert.Equal(t, []string{"hot"}, result.ConditionNames())
}

func TestEstimate_NoConditions(t *testing.T) {
	result, err := Estimate(julyFourthSeries(6), testRequest(), DefaultSettings())
	require.NoError(t, err)
	assert.Empty(t, result.Results)
}

func TestEstimate_Idempotent(t *testing.T) {
	series := julyFourthSeries(6)
	req := testRequest(AllConditions...)

	first, err := Estimate(series, req, DefaultSettings())
	require.NoError(t, err)
	second, err := Estimate(series, req, DefaultSettings())
	require.NoError(t, err)

	for _, c := range AllConditions {
		a, b := first.Results[c], second.Results[c]
		assert.Equal(t, math.Float64bits(a.Probability), math.Float64bits(b.Probability))
		assert.Equal(t, math.Float64bits(a.Interval.Center), math.Float64bits(b.Interval.Center))
		assert.Equal(t, math.Float64bits(a.Interval.Lower), math.Float64bits(b.Interval.Lower))
		assert.Equal(t, math.Float64bits(a.Interval.Upper), math.Float64bits(b.Interval.Upper))
		assert.Equal(t, a.N, b.N)
	}
}

func TestEstimate_EmptyWindowIsUndefined(t *testing.T) {
	req := testRequest(ConditionHot)
	req.Date = time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC)

	result, err := Estimate(julyFourthSeries(6), req, DefaultSettings())
	require.NoError(t, err)

	hot := result.Results[ConditionHot]
	assert.Equal(t, 0, hot.N)
	assert.True(t, math.IsNaN(hot.Probability))
	assert.False(t, hot.Interval.Defined())
}

func TestEstimate_CustomSettings(t *testing.T) {
	settings := DefaultSettings()
	settings.Thresholds[ConditionHot] = ConditionHot.WithThresholdValue(20)
	settings.Z = ZForConfidence(0.9)
	settings.ConfidenceLevel = 0.9
	settings.ArchiveStart, settings.ArchiveEnd = "20000101", "20191231"

	result, err := Estimate(julyFourthSeries(6), testRequest(ConditionHot), settings)
	require.NoError(t, err)

	hot := result.Results[ConditionHot]
	assert.Equal(t, 1.0, hot.Probability)
	assert.Equal(t, "Tmax > 20 °C", hot.Threshold)
	assert.Equal(t, "Day-of-year ±k window across archive; Wilson 90% CI", result.Metadata.Method)
	assert.Equal(t, "2024-07-04 ±7d across years 20000101–20191231", result.Metadata.Period)
}

func TestEstimate_InvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Request, *Settings)
		contains string
	}{
		{"zero date", func(r *Request, _ *Settings) { r.Date = time.Time{} }, "missing date"},
		{"negative window", func(r *Request, _ *Settings) { r.WindowDays = -1 }, "negative"},
		{"zero z", func(_ *Request, s *Settings) { s.Z = 0 }, "not positive"},
		{"NaN z", func(_ *Request, s *Settings) { s.Z = math.NaN() }, "not positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testRequest(ConditionHot)
			settings := DefaultSettings()
			tt.mutate(&req, &settings)

			_, err := Estimate(julyFourthSeries(6), req, settings)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestLikelihoodResult_JSON(t *testing.T) {
	req := testRequest(ConditionHot, ConditionWet)
	series := julyFourthSeries(6)
	for i := range series.Records {
		series.Records[i].Precip = math.NaN()
	}

	result, err := Estimate(series, req, DefaultSettings())
	require.NoError(t, err)
	result.Metadata.Provider = "nasa-power"
	result.Metadata.GeneratedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	query := decoded["query"].(map[string]any)
	assert.Equal(t, "2024-07-04", query["date"])
	assert.Equal(t, []any{"hot", "wet"}, query["vars"])
	assert.Equal(t, float64(7), query["window_days"])

	results := decoded["results"].(map[string]any)
	hot := results["hot"].(map[string]any)
	assert.InDelta(t, 0.3, hot["prob"], 1e-12)
	assert.Len(t, hot["ci"], 2)
	assert.Equal(t, float64(20), hot["n"])

	wet := results["wet"].(map[string]any)
	assert.Nil(t, wet["prob"])
	assert.Equal(t, []any{nil, nil}, wet["ci"])
	assert.Nil(t, wet["center"])
	assert.Equal(t, float64(0), wet["n"])
	assert.Nil(t, wet["summary"].(map[string]any)["mean"])

	meta := decoded["metadata"].(map[string]any)
	assert.Equal(t, "nasa-power", meta["provider"])
	assert.Equal(t, "2026-01-02T03:04:05Z", meta["generated_at"])
	assert.NotContains(t, meta, "place_name")
}

func TestLikelihoodResult_Key(t *testing.T) {
	result := LikelihoodResult{Query: testRequest()}
	assert.Equal(t, "38.9,-77.04|2024-07-04", result.Key())
}
