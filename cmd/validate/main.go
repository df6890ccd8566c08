// Command validate checks a POWER daily-point fixture against the
// likelihood estimator. For every day of a leap year it verifies window
// coverage, interval invariants, and idempotence, and it confirms that an
// empty series yields undefined results.
//
// Usage:
//
//	go run ./cmd/validate -fixture data/mock/power_dc.json -window 7
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/climo-likelihood/internal/adapter/power"
	"github.com/couchcryptid/climo-likelihood/internal/domain"
)

// sweepYear is a leap year so the sweep covers day 366.
const sweepYear = 2024

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// maxErrors caps the per-phase error list so one systematic fault does not
// flood the report.
const maxErrors = 20

func main() {
	fixture := flag.String("fixture", "", "path to a POWER daily-point JSON payload")
	window := flag.Int("window", domain.DefaultWindowDays, "window half-width in days")
	flag.Parse()

	if *fixture == "" || *window < 0 {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*fixture, *window))
}

func run(path string, window int) int {
	fmt.Println("=== Likelihood Fixture Validation ===")
	fmt.Println()

	series, err := loadSeries(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load fixture: %v\n", err)
		return 1
	}

	settings := domain.DefaultSettings()
	targets := sweepTargets()

	phases := []*phase{
		validateOrdering(series),
		validateWindowCoverage(series, targets, window),
		validateIntervals(series, targets, window, settings),
		validateEmptySeries(settings),
		validateIdempotence(series, targets, window, settings),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	start, end := series.Span()
	fmt.Println()
	fmt.Printf("Series: %d days (%s to %s) at %.4f,%.4f; %d targets, window ±%dd\n",
		len(series.Records), start.Format(domain.DateLayout), end.Format(domain.DateLayout),
		series.Lat, series.Lon, len(targets), window)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

func loadSeries(path string) (domain.TimeSeries, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.TimeSeries{}, err
	}
	var payload power.Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return domain.TimeSeries{}, fmt.Errorf("decode payload: %w", err)
	}
	var lat, lon float64
	if payload.Geometry != nil && len(payload.Geometry.Coordinates) >= 2 {
		lon, lat = payload.Geometry.Coordinates[0], payload.Geometry.Coordinates[1]
	}
	return payload.TimeSeries(lat, lon)
}

func sweepTargets() []time.Time {
	start := time.Date(sweepYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	targets := make([]time.Time, 0, domain.DayOfYearPeriod)
	for d := start; d.Year() == sweepYear; d = d.AddDate(0, 0, 1) {
		targets = append(targets, d)
	}
	return targets
}

func request(target time.Time, window int) domain.Request {
	return domain.Request{Date: target, WindowDays: window, Units: "si", Conditions: domain.AllConditions}
}

// ── Phases ──

func validateOrdering(series domain.TimeSeries) *phase {
	p := &phase{name: "Series ordering"}
	fmt.Println("Phase 1: Series ordering")

	if len(series.Records) == 0 {
		p.errorf("series is empty")
		return p
	}
	for i := 1; i < len(series.Records) && len(p.errors) < maxErrors; i++ {
		prev, cur := series.Records[i-1].Date, series.Records[i].Date
		if !cur.After(prev) {
			p.errorf("record %d (%s) does not follow %s", i, cur.Format(domain.DateLayout), prev.Format(domain.DateLayout))
		}
	}

	missing := 0
	for _, r := range series.Records {
		for _, v := range domain.Variables {
			if math.IsNaN(r.Value(v)) {
				missing++
			}
		}
	}
	fmt.Printf("  %d records, %d missing values\n", len(series.Records), missing)
	return p
}

func validateWindowCoverage(series domain.TimeSeries, targets []time.Time, window int) *phase {
	p := &phase{name: "Window coverage"}
	fmt.Println("Phase 2: Window coverage")

	dates := series.Dates()
	minSel, maxSel := math.MaxInt, 0
	for _, target := range targets {
		selected := make(map[int]bool)
		for _, i := range domain.SelectWindow(dates, target, window) {
			selected[i] = true
		}
		minSel, maxSel = min(minSel, len(selected)), max(maxSel, len(selected))

		for i, d := range dates {
			dist := domain.CircularDayDistance(d.YearDay(), target.YearDay())
			if (dist <= window) != selected[i] {
				p.errorf("target %s: %s at distance %d selected=%v",
					target.Format(domain.DateLayout), d.Format(domain.DateLayout), dist, selected[i])
				if len(p.errors) >= maxErrors {
					return p
				}
			}
		}
	}
	fmt.Printf("  window sizes: min=%d max=%d\n", minSel, maxSel)
	return p
}

func validateIntervals(series domain.TimeSeries, targets []time.Time, window int, settings domain.Settings) *phase {
	p := &phase{name: "Probability and interval invariants"}
	fmt.Println("Phase 3: Probability and interval invariants")

	undefined := 0
	for _, target := range targets {
		result, err := domain.Estimate(series, request(target, window), settings)
		if err != nil {
			p.errorf("target %s: %v", target.Format(domain.DateLayout), err)
			continue
		}
		for _, c := range domain.AllConditions {
			r, ok := result.Results[c]
			if !ok {
				p.errorf("target %s: missing %s", target.Format(domain.DateLayout), c)
				continue
			}
			if r.N == 0 {
				undefined++
				if !math.IsNaN(r.Probability) || r.Interval.Defined() {
					p.errorf("target %s %s: n=0 but result is defined", target.Format(domain.DateLayout), c)
				}
				continue
			}
			ci := r.Interval
			if r.Probability < 0 || r.Probability > 1 ||
				!(ci.Lower >= 0 && ci.Lower <= ci.Center && ci.Center <= ci.Upper && ci.Upper <= 1) {
				p.errorf("target %s %s: p=%v ci=[%v, %v] center=%v n=%d",
					target.Format(domain.DateLayout), c, r.Probability, ci.Lower, ci.Upper, ci.Center, r.N)
			}
		}
		if len(p.errors) >= maxErrors {
			break
		}
	}
	fmt.Printf("  %d undefined condition results\n", undefined)
	return p
}

func validateEmptySeries(settings domain.Settings) *phase {
	p := &phase{name: "Empty series yields undefined results"}
	fmt.Println("Phase 4: Empty series yields undefined results")

	target := time.Date(sweepYear, time.July, 4, 0, 0, 0, 0, time.UTC)
	result, err := domain.Estimate(domain.TimeSeries{}, request(target, domain.DefaultWindowDays), settings)
	if err != nil {
		p.errorf("estimate: %v", err)
		return p
	}
	for _, c := range domain.AllConditions {
		r := result.Results[c]
		if r.N != 0 || !math.IsNaN(r.Probability) || r.Interval.Defined() {
			p.errorf("%s: n=%d p=%v defined=%v", c, r.N, r.Probability, r.Interval.Defined())
		}
	}
	return p
}

func validateIdempotence(series domain.TimeSeries, targets []time.Time, window int, settings domain.Settings) *phase {
	p := &phase{name: "Idempotence"}
	fmt.Println("Phase 5: Idempotence")

	// Every 30th day keeps the phase fast on long archives.
	for i := 0; i < len(targets); i += 30 {
		req := request(targets[i], window)
		first, err1 := domain.Estimate(series, req, settings)
		second, err2 := domain.Estimate(series, req, settings)
		if err1 != nil || err2 != nil {
			p.errorf("target %s: %v / %v", targets[i].Format(domain.DateLayout), err1, err2)
			continue
		}
		for _, c := range domain.AllConditions {
			a, b := first.Results[c], second.Results[c]
			if !sameBits(a.Probability, b.Probability) || !sameBits(a.Interval.Lower, b.Interval.Lower) ||
				!sameBits(a.Interval.Upper, b.Interval.Upper) || a.N != b.N {
				p.errorf("target %s %s: results differ", targets[i].Format(domain.DateLayout), c)
			}
		}
	}
	return p
}

func sameBits(a, b float64) bool {
	return math.Float64bits(a) == math.Float64bits(b)
}
