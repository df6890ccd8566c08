// Command genmock writes a synthetic NASA POWER daily-point payload for
// offline development and tests. The series has a seasonal temperature
// cycle, gusty wind, intermittent rain, and occasional fill values. Output
// is deterministic for a given seed.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/power_dc.json -lat 38.9 -lon -77.04
//
// Serve it with POWER_FIXTURE=data/mock/power_dc.json.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/couchcryptid/climo-likelihood/internal/adapter/power"
	"github.com/couchcryptid/climo-likelihood/internal/domain"
)

// referenceNow anchors the default archive end so output does not depend
// on when the command runs.
var referenceNow = time.Date(2025, time.January, 1, 6, 0, 0, 0, time.UTC)

type options struct {
	lat, lon   float64
	startYear  int
	endYear    int
	seed       uint64
	fillRate   float64
	wetDayRate float64
}

func main() {
	if err := run(clockwork.NewFakeClockAt(referenceNow)); err != nil {
		log.Fatal(err)
	}
}

func run(clock clockwork.Clock) error {
	out := flag.String("out", "", "output path for the POWER JSON fixture")
	opts := options{}
	flag.Float64Var(&opts.lat, "lat", 38.9, "latitude")
	flag.Float64Var(&opts.lon, "lon", -77.04, "longitude")
	flag.IntVar(&opts.startYear, "start-year", 1981, "first archive year")
	flag.IntVar(&opts.endYear, "end-year", 0, "last archive year (default: last complete year)")
	flag.Uint64Var(&opts.seed, "seed", 42, "random seed")
	flag.Float64Var(&opts.fillRate, "fill-rate", 0.002, "fraction of values replaced by the fill value")
	flag.Float64Var(&opts.wetDayRate, "wet-rate", 0.3, "fraction of days with precipitation")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if opts.endYear == 0 {
		opts.endYear = clock.Now().Year() - 1
	}
	if opts.endYear < opts.startYear {
		return fmt.Errorf("end-year %d before start-year %d", opts.endYear, opts.startYear)
	}

	series := generate(opts)
	if err := writeJSON(*out, power.NewPayload(series)); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote %d days (%d-%d) to %s", len(series.Records), opts.startYear, opts.endYear, *out)

	printStats(series)
	return nil
}

func generate(opts options) domain.TimeSeries {
	src := rand.NewSource(opts.seed)
	noise := distuv.Normal{Mu: 0, Sigma: 2.5, Src: src}
	gust := distuv.Normal{Mu: 0, Sigma: 1.8, Src: src}
	rain := distuv.Exponential{Rate: 1.0 / 7.0, Src: src}
	wet := distuv.Bernoulli{P: opts.wetDayRate, Src: src}
	fill := distuv.Bernoulli{P: opts.fillRate, Src: src}

	// Southern hemisphere seasons are shifted by half a year.
	phase := 0.0
	if opts.lat < 0 {
		phase = math.Pi
	}
	amplitude := 4 + 0.25*math.Abs(opts.lat)
	base := 28 - 0.4*math.Abs(opts.lat)

	series := domain.TimeSeries{Lat: opts.lat, Lon: opts.lon}
	start := time.Date(opts.startYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(opts.endYear, time.December, 31, 0, 0, 0, 0, time.UTC)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		season := math.Sin(2*math.Pi*(float64(d.YearDay())-105)/365.25 + phase)
		mean := base + amplitude*season

		rec := domain.NewDailyRecord(d)
		rec.TMax = round2(mean + 5 + noise.Rand())
		rec.TMin = round2(mean - 5 + noise.Rand())
		rec.WindSpeed = round2(math.Max(0, 3.5-season+math.Abs(gust.Rand())))
		rec.Precip = 0
		if wet.Rand() == 1 {
			rec.Precip = round2(rain.Rand())
		}
		for _, v := range domain.Variables {
			if fill.Rand() == 1 {
				rec.Set(v, math.NaN())
			}
		}
		series.Records = append(series.Records, rec)
	}
	return series
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// printStats reports the default-threshold exceedance rate over the whole
// archive, useful when updating test assertions.
func printStats(series domain.TimeSeries) {
	all := make([]int, len(series.Records))
	for i := range all {
		all[i] = i
	}

	fmt.Println("\n=== Archive-wide exceedance at default thresholds ===")
	thresholds := domain.DefaultThresholds()
	for _, c := range domain.AllConditions {
		t := thresholds[c]
		sample := series.Column(c.Variable(), all)
		p, n := domain.EstimateExceedance(sample, t.Value, t.Direction)
		s := domain.Summarize(sample)
		fmt.Printf("%-5s %-20s p=%.4f n=%d mean=%.2f p10=%.2f p90=%.2f\n",
			c, c.Label(t), p, n, s.Mean, s.P10, s.P90)
	}
}
