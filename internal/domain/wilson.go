package domain

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultZ is the two-sided 95% normal quantile used for intervals.
const DefaultZ = 1.96

// Interval is a confidence interval around a proportion.
type Interval struct {
	Center float64
	Lower  float64
	Upper  float64
}

// undefinedInterval is returned when there is no valid sample.
func undefinedInterval() Interval {
	nan := math.NaN()
	return Interval{Center: nan, Lower: nan, Upper: nan}
}

// Defined reports whether the interval carries values.
func (i Interval) Defined() bool {
	return !math.IsNaN(i.Center)
}

// WilsonInterval computes the Wilson score interval for proportion p over n
// trials at normal quantile z:
//
//	denom  = 1 + z²/n
//	center = (p + z²/(2n)) / denom
//	half   = z·sqrt(p(1-p)/n + z²/(4n²)) / denom
//
// Bounds are clamped to [0, 1]. For n <= 0 or a non-finite p every field is NaN.
func WilsonInterval(p float64, n int, z float64) Interval {
	if n <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
		return undefinedInterval()
	}

	nf := float64(n)
	z2 := z * z
	denom := 1 + z2/nf
	center := (p + z2/(2*nf)) / denom
	half := z * math.Sqrt(p*(1-p)/nf+z2/(4*nf*nf)) / denom

	return Interval{
		Center: center,
		Lower:  math.Max(0, center-half),
		Upper:  math.Min(1, center+half),
	}
}

// ZForConfidence returns the two-sided standard normal quantile for a
// confidence level in (0, 1), e.g. 0.95 -> 1.95996. Out-of-range levels
// return DefaultZ.
func ZForConfidence(level float64) float64 {
	if !(level > 0 && level < 1) {
		return DefaultZ
	}
	return distuv.UnitNormal.Quantile(1 - (1-level)/2)
}
