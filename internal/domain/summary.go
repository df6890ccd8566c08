package domain

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SampleSummary describes the windowed values of one variable. It is
// informational and never feeds the probability estimate.
type SampleSummary struct {
	Mean   float64
	Median float64
	P10    float64
	P90    float64
	Min    float64
	Max    float64
}

// Summarize computes descriptive statistics over the finite values of sample.
// Every field is NaN when there are none.
func Summarize(sample []float64) SampleSummary {
	finite := make([]float64, 0, len(sample))
	for _, v := range sample {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		nan := math.NaN()
		return SampleSummary{Mean: nan, Median: nan, P10: nan, P90: nan, Min: nan, Max: nan}
	}

	sort.Float64s(finite)
	return SampleSummary{
		Mean:   stat.Mean(finite, nil),
		Median: stat.Quantile(0.5, stat.Empirical, finite, nil),
		P10:    stat.Quantile(0.1, stat.Empirical, finite, nil),
		P90:    stat.Quantile(0.9, stat.Empirical, finite, nil),
		Min:    floats.Min(finite),
		Max:    floats.Max(finite),
	}
}
