package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format used on the wire.
const DateLayout = "2006-01-02"

// DatasetLabel describes the archive every result is computed from.
const DatasetLabel = "NASA POWER: T2M_MAX, T2M_MIN, WS10M, PRECTOTCORR"

// Request is one likelihood query.
type Request struct {
	Lat        float64
	Lon        float64
	Date       time.Time
	WindowDays int
	Units      string
	Conditions []Condition
}

// Wants reports whether c was requested.
func (r Request) Wants(c Condition) bool {
	for _, rc := range r.Conditions {
		if rc == c {
			return true
		}
	}
	return false
}

// MarshalJSON echoes the query with the date in calendar form.
func (r Request) MarshalJSON() ([]byte, error) {
	vars := make([]string, len(r.Conditions))
	for i, c := range r.Conditions {
		vars[i] = string(c)
	}
	return json.Marshal(struct {
		Lat        float64  `json:"lat"`
		Lon        float64  `json:"lon"`
		Date       string   `json:"date"`
		WindowDays int      `json:"window_days"`
		Units      string   `json:"units"`
		Vars       []string `json:"vars"`
	}{r.Lat, r.Lon, r.Date.Format(DateLayout), r.WindowDays, r.Units, vars})
}

// Settings carries deployment configuration into Estimate.
type Settings struct {
	Thresholds map[Condition]Threshold
	// Z is the normal quantile for intervals.
	Z float64
	// ConfidenceLevel is only used for the method text; zero means 0.95.
	ConfidenceLevel float64
	// ArchiveStart and ArchiveEnd label the fetched period (YYYYMMDD).
	ArchiveStart string
	ArchiveEnd   string
}

// DefaultSettings returns the default thresholds at 95% confidence.
func DefaultSettings() Settings {
	return Settings{
		Thresholds:      DefaultThresholds(),
		Z:               DefaultZ,
		ConfidenceLevel: 0.95,
		ArchiveStart:    "19810101",
		ArchiveEnd:      "20241231",
	}
}

// ConditionResult is the estimate for one condition. Probability is hits/n.
// With n == 0 the probability and interval are NaN.
type ConditionResult struct {
	Probability float64
	Interval    Interval
	Threshold   string
	N           int
	Summary     SampleSummary
}

// Metadata describes how a result was produced.
type Metadata struct {
	Datasets      []string
	WindowDays    int
	Period        string
	Method        string
	ConfidenceZ   float64
	SeriesDays    int
	WindowSamples int
	Provider      string
	PlaceName     string
	GeoSource     string
	GeneratedAt   time.Time
}

// LikelihoodResult is the complete answer to a Request.
type LikelihoodResult struct {
	Query    Request
	Results  map[Condition]ConditionResult
	Metadata Metadata
}

// Estimate computes per-condition exceedance probabilities for req over series.
// The window is selected once and shared by every requested condition.
// Conditions absent from settings.Thresholds are skipped.
func Estimate(series TimeSeries, req Request, settings Settings) (LikelihoodResult, error) {
	if req.Date.IsZero() {
		return LikelihoodResult{}, fmt.Errorf("estimate: missing date: %w", ErrInvalidInput)
	}
	if req.WindowDays < 0 {
		return LikelihoodResult{}, fmt.Errorf("estimate: window_days %d is negative: %w", req.WindowDays, ErrInvalidInput)
	}
	if !(settings.Z > 0) || math.IsInf(settings.Z, 0) {
		return LikelihoodResult{}, fmt.Errorf("estimate: z %v is not positive: %w", settings.Z, ErrInvalidInput)
	}

	indices := SelectWindow(series.Dates(), req.Date, req.WindowDays)

	results := make(map[Condition]ConditionResult, len(req.Conditions))
	for _, c := range AllConditions {
		if !req.Wants(c) {
			continue
		}
		threshold, ok := settings.Thresholds[c]
		if !ok {
			continue
		}
		sample := series.Column(c.Variable(), indices)
		p, n := EstimateExceedance(sample, threshold.Value, threshold.Direction)
		results[c] = ConditionResult{
			Probability: p,
			Interval:    WilsonInterval(p, n, settings.Z),
			Threshold:   c.Label(threshold),
			N:           n,
			Summary:     Summarize(sample),
		}
	}

	return LikelihoodResult{
		Query:   req,
		Results: results,
		Metadata: Metadata{
			Datasets:      []string{DatasetLabel},
			WindowDays:    req.WindowDays,
			Period:        periodText(req, settings),
			Method:        methodText(settings),
			ConfidenceZ:   settings.Z,
			SeriesDays:    len(series.Records),
			WindowSamples: len(indices),
		},
	}, nil
}

func periodText(req Request, s Settings) string {
	return fmt.Sprintf("%s ±%dd across years %s–%s", req.Date.Format(DateLayout), req.WindowDays, s.ArchiveStart, s.ArchiveEnd)
}

func methodText(s Settings) string {
	level := s.ConfidenceLevel
	if level <= 0 || level >= 1 {
		level = 0.95
	}
	pct := strconv.FormatFloat(math.Round(level*1000)/10, 'f', -1, 64)
	return "Day-of-year ±k window across archive; Wilson " + pct + "% CI"
}

// nullable renders NaN and ±Inf as JSON null.
type nullable float64

func (f nullable) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// MarshalJSON writes prob, ci, center, threshold, n and summary.
func (r ConditionResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Prob      nullable      `json:"prob"`
		CI        [2]nullable   `json:"ci"`
		Center    nullable      `json:"center"`
		Threshold string        `json:"threshold"`
		N         int           `json:"n"`
		Summary   SampleSummary `json:"summary"`
	}{
		Prob:      nullable(r.Probability),
		CI:        [2]nullable{nullable(r.Interval.Lower), nullable(r.Interval.Upper)},
		Center:    nullable(r.Interval.Center),
		Threshold: r.Threshold,
		N:         r.N,
		Summary:   r.Summary,
	})
}

func (s SampleSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Mean   nullable `json:"mean"`
		Median nullable `json:"median"`
		P10    nullable `json:"p10"`
		P90    nullable `json:"p90"`
		Min    nullable `json:"min"`
		Max    nullable `json:"max"`
	}{nullable(s.Mean), nullable(s.Median), nullable(s.P10), nullable(s.P90), nullable(s.Min), nullable(s.Max)})
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	out := struct {
		Datasets      []string `json:"datasets"`
		WindowDays    int      `json:"window_days"`
		Period        string   `json:"period"`
		Method        string   `json:"method"`
		ConfidenceZ   float64  `json:"confidence_z"`
		SeriesDays    int      `json:"series_days"`
		WindowSamples int      `json:"window_samples"`
		Provider      string   `json:"provider,omitempty"`
		PlaceName     string   `json:"place_name,omitempty"`
		GeoSource     string   `json:"geo_source,omitempty"`
		GeneratedAt   string   `json:"generated_at,omitempty"`
	}{
		Datasets:      m.Datasets,
		WindowDays:    m.WindowDays,
		Period:        m.Period,
		Method:        m.Method,
		ConfidenceZ:   m.ConfidenceZ,
		SeriesDays:    m.SeriesDays,
		WindowSamples: m.WindowSamples,
		Provider:      m.Provider,
		PlaceName:     m.PlaceName,
		GeoSource:     m.GeoSource,
	}
	if !m.GeneratedAt.IsZero() {
		out.GeneratedAt = m.GeneratedAt.UTC().Format(time.RFC3339)
	}
	return json.Marshal(out)
}

func (r LikelihoodResult) MarshalJSON() ([]byte, error) {
	results := make(map[string]ConditionResult, len(r.Results))
	for c, cr := range r.Results {
		results[string(c)] = cr
	}
	return json.Marshal(struct {
		Query    Request                    `json:"query"`
		Results  map[string]ConditionResult `json:"results"`
		Metadata Metadata                   `json:"metadata"`
	}{r.Query, results, r.Metadata})
}

// ConditionNames returns the result's condition names in evaluation order.
func (r LikelihoodResult) ConditionNames() []string {
	names := make([]string, 0, len(r.Results))
	for _, c := range AllConditions {
		if _, ok := r.Results[c]; ok {
			names = append(names, string(c))
		}
	}
	return names
}

// Key identifies the queried point and date, e.g. "38.9,-77.04|2024-07-04".
func (r LikelihoodResult) Key() string {
	var b strings.Builder
	b.WriteString(strconv.FormatFloat(r.Query.Lat, 'f', -1, 64))
	b.WriteByte(',')
	b.WriteString(strconv.FormatFloat(r.Query.Lon, 'f', -1, 64))
	b.WriteByte('|')
	b.WriteString(r.Query.Date.Format(DateLayout))
	return b.String()
}
