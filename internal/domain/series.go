package domain

import (
	"math"
	"time"
)

// Variable names one daily POWER parameter.
type Variable string

const (
	VariableTMax   Variable = "T2M_MAX"
	VariableTMin   Variable = "T2M_MIN"
	VariableWind   Variable = "WS10M"
	VariablePrecip Variable = "PRECTOTCORR"
)

// Variables lists the parameters every TimeSeries carries, in request order.
var Variables = []Variable{VariableTMax, VariableTMin, VariableWind, VariablePrecip}

// DailyRecord holds one archived day. Missing values are NaN.
type DailyRecord struct {
	Date      time.Time
	TMax      float64 // °C
	TMin      float64 // °C
	WindSpeed float64 // m/s
	Precip    float64 // mm/day
}

// NewDailyRecord returns a record for date with every variable missing.
func NewDailyRecord(date time.Time) DailyRecord {
	nan := math.NaN()
	return DailyRecord{Date: date, TMax: nan, TMin: nan, WindSpeed: nan, Precip: nan}
}

// Value returns the record's value for v, or NaN for an unknown variable.
func (r DailyRecord) Value(v Variable) float64 {
	switch v {
	case VariableTMax:
		return r.TMax
	case VariableTMin:
		return r.TMin
	case VariableWind:
		return r.WindSpeed
	case VariablePrecip:
		return r.Precip
	default:
		return math.NaN()
	}
}

// Set stores value for v. Unknown variables are ignored.
func (r *DailyRecord) Set(v Variable, value float64) {
	switch v {
	case VariableTMax:
		r.TMax = value
	case VariableTMin:
		r.TMin = value
	case VariableWind:
		r.WindSpeed = value
	case VariablePrecip:
		r.Precip = value
	}
}

// TimeSeries is the date-ordered daily archive for one point.
// It is read-only once returned by a provider.
type TimeSeries struct {
	Lat     float64
	Lon     float64
	Records []DailyRecord
}

// Dates returns the series' date index.
func (s TimeSeries) Dates() []time.Time {
	dates := make([]time.Time, len(s.Records))
	for i, r := range s.Records {
		dates[i] = r.Date
	}
	return dates
}

// Column returns the values of v at the given record indices.
func (s TimeSeries) Column(v Variable, indices []int) []float64 {
	out := make([]float64, len(indices))
	for i, idx := range indices {
		out[i] = s.Records[idx].Value(v)
	}
	return out
}

// Span returns the first and last dates, or zero times for an empty series.
func (s TimeSeries) Span() (time.Time, time.Time) {
	if len(s.Records) == 0 {
		return time.Time{}, time.Time{}
	}
	return s.Records[0].Date, s.Records[len(s.Records)-1].Date
}
