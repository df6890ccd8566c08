package domain

import "math"

// EstimateExceedance returns the fraction of finite values strictly beyond
// threshold in direction dir, together with the number of finite values n.
// NaN and ±Inf are excluded from both counts. With no finite values it
// returns (NaN, 0).
func EstimateExceedance(sample []float64, threshold float64, dir Direction) (float64, int) {
	var n, hits int
	for _, v := range sample {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		n++
		if exceeds(v, threshold, dir) {
			hits++
		}
	}
	if n == 0 {
		return math.NaN(), 0
	}
	return float64(hits) / float64(n), n
}

func exceeds(v, threshold float64, dir Direction) bool {
	switch dir {
	case DirectionGreater:
		return v > threshold
	case DirectionLess:
		return v < threshold
	default:
		return false
	}
}
