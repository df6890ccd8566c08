package power

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/climo-likelihood/internal/domain"
)

// DateLayout is the POWER daily date key format.
const DateLayout = "20060102"

// DefaultFillValue is POWER's missing-data sentinel when the header omits one.
const DefaultFillValue = -999.0

var errMissingParameters = errors.New("POWER response missing 'properties.parameter'")

// Payload is the daily point response body:
//
//	{"header": {"fill_value": -999, ...},
//	 "properties": {"parameter": {"T2M_MAX": {"19810101": 4.1, ...}, ...}},
//	 "messages": [...]}
type Payload struct {
	Type       string     `json:"type,omitempty"`
	Geometry   *Geometry  `json:"geometry,omitempty"`
	Header     Header     `json:"header"`
	Properties Properties `json:"properties"`
	Messages   []string   `json:"messages,omitempty"`
}

// Geometry is the GeoJSON point echoed by POWER, [lon, lat, elevation].
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

type Header struct {
	Title     string   `json:"title,omitempty"`
	Sources   []string `json:"sources,omitempty"`
	FillValue *float64 `json:"fill_value,omitempty"`
	Start     string   `json:"start,omitempty"`
	End       string   `json:"end,omitempty"`
}

// Properties maps parameter name to date key to value. Values may be null.
type Properties struct {
	Parameter map[string]map[string]*float64 `json:"parameter"`
}

// errorBody is the subset of a non-2xx POWER response worth reporting.
type errorBody struct {
	Messages []string `json:"messages"`
	Message  string   `json:"message"`
	Detail   any      `json:"detail"`
}

// Decode parses a daily point response into a date-ordered TimeSeries. Every
// requested parameter must be present. The date index is the sorted union of
// every parameter's keys; a variable absent on a date, null, or equal to the
// fill value is NaN.
func Decode(data []byte, lat, lon float64) (domain.TimeSeries, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.TimeSeries{}, fmt.Errorf("decode POWER response: %w", err)
	}
	return p.TimeSeries(lat, lon)
}

// TimeSeries converts the payload into a domain.TimeSeries.
func (p Payload) TimeSeries(lat, lon float64) (domain.TimeSeries, error) {
	if len(p.Properties.Parameter) == 0 {
		return domain.TimeSeries{}, errMissingParameters
	}
	var missing []string
	for _, v := range domain.Variables {
		if _, ok := p.Properties.Parameter[string(v)]; !ok {
			missing = append(missing, string(v))
		}
	}
	if len(missing) > 0 {
		return domain.TimeSeries{}, fmt.Errorf("%w: no %s", errMissingParameters, strings.Join(missing, ", "))
	}

	fill := DefaultFillValue
	if p.Header.FillValue != nil {
		fill = *p.Header.FillValue
	}

	keys := make(map[string]struct{})
	for _, byDate := range p.Properties.Parameter {
		for k := range byDate {
			keys[k] = struct{}{}
		}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	series := domain.TimeSeries{Lat: lat, Lon: lon, Records: make([]domain.DailyRecord, 0, len(sorted))}
	for _, key := range sorted {
		date, err := time.Parse(DateLayout, key)
		if err != nil {
			return domain.TimeSeries{}, fmt.Errorf("parse POWER date %q: %w", key, err)
		}
		rec := domain.NewDailyRecord(date)
		for _, v := range domain.Variables {
			if val := p.Properties.Parameter[string(v)][key]; val != nil && *val != fill {
				rec.Set(v, *val)
			}
		}
		series.Records = append(series.Records, rec)
	}
	return series, nil
}

// NewPayload builds a payload from a time series, writing NaN as the fill
// value. It is the inverse of TimeSeries for fixtures and tests.
func NewPayload(series domain.TimeSeries) Payload {
	fill := DefaultFillValue
	params := make(map[string]map[string]*float64, len(domain.Variables))
	for _, v := range domain.Variables {
		params[string(v)] = make(map[string]*float64, len(series.Records))
	}
	for _, rec := range series.Records {
		key := rec.Date.Format(DateLayout)
		for _, v := range domain.Variables {
			val := rec.Value(v)
			if math.IsNaN(val) {
				val = fill
			}
			params[string(v)][key] = &val
		}
	}

	p := Payload{
		Type:       "Feature",
		Geometry:   &Geometry{Type: "Point", Coordinates: []float64{series.Lon, series.Lat}},
		Header:     Header{Title: "NASA/POWER Daily Point", Sources: []string{"MERRA2"}, FillValue: &fill},
		Properties: Properties{Parameter: params},
	}
	if start, end := series.Span(); !start.IsZero() {
		p.Header.Start = start.Format(DateLayout)
		p.Header.End = end.Format(DateLayout)
	}
	return p
}

// describeError extracts a readable reason from a non-2xx response body.
func describeError(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		switch {
		case len(eb.Messages) > 0:
			return strings.Join(eb.Messages, "; ")
		case eb.Message != "":
			return eb.Message
		case eb.Detail != nil:
			return fmt.Sprint(eb.Detail)
		}
	}
	const maxBody = 256
	if len(body) > maxBody {
		body = body[:maxBody]
	}
	return string(body)
}
