package domain

import "time"

// DefaultWindowDays is the half-width k used when a query does not set one.
const DefaultWindowDays = 7

// DayOfYearPeriod is the wrap length for circular day-of-year distance. It is
// used for every year; leap years are not corrected.
const DayOfYearPeriod = 366

// CircularDayDistance returns min(|d-t|, 366-|d-t|) for day-of-year values d and t.
func CircularDayDistance(d, t int) int {
	diff := d - t
	if diff < 0 {
		diff = -diff
	}
	if wrapped := DayOfYearPeriod - diff; wrapped < diff {
		return wrapped
	}
	return diff
}

// SelectWindow returns the indices of dates whose day-of-year lies within k
// days of target's day-of-year. A negative k selects nothing; any k of half
// the period or more selects every date.
func SelectWindow(dates []time.Time, target time.Time, k int) []int {
	t := target.YearDay()
	span := 2*min(max(k, 0), DayOfYearPeriod/2) + 1
	selected := make([]int, 0, min(len(dates), len(dates)/DayOfYearPeriod*span))
	for i, d := range dates {
		if CircularDayDistance(d.YearDay(), t) <= k {
			selected = append(selected, i)
		}
	}
	return selected
}
