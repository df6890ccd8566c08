// Package domain estimates historical weather-condition likelihoods from daily
// reanalysis data.
//
// # Data Source
//
// Daily series come from the NASA POWER daily point API
// (https://power.larc.nasa.gov/api/temporal/daily/point), community "AG",
// covering a fixed multi-decade archive (1981-01-01 through 2024-12-31 by
// default). Four parameters are requested:
//
//	T2M_MAX      daily maximum 2 m air temperature   °C
//	T2M_MIN      daily minimum 2 m air temperature   °C
//	WS10M        daily mean 10 m wind speed          m/s
//	PRECTOTCORR  bias-corrected total precipitation  mm/day
//
// POWER encodes missing values with a numeric fill value (-999 unless the
// response header says otherwise). The adapter decodes fill values to NaN and
// every statistic in this package skips non-finite values, so a missing day
// shrinks the sample instead of counting as zero.
//
// # Day-of-Year Window
//
// A query targets a calendar date, not a year. Every archived day whose
// day-of-year lies within ±k days of the target day-of-year is selected, with
// wraparound at the year boundary:
//
//	dist(d, t) = min(|d - t|, 366 - |d - t|)
//
// The period is 366 for every year. Leap and non-leap years are not
// distinguished, so near the boundary a non-leap year can be off by one day.
// This matches the archived behavior and is kept deliberately. See
// [CircularDayDistance].
//
// # Conditions
//
//	hot   T2M_MAX     > 32 °C
//	cold  T2M_MIN     < 0 °C
//	wind  WS10M       > 7 m/s
//	wet   PRECTOTCORR > 10 mm/day
//
// Thresholds are deployment configuration ([Settings]); comparisons are always
// strict, so a value equal to the threshold is never a hit.
//
// # Estimation
//
// The probability is the empirical exceedance frequency hits/n over the
// windowed days. Its 95% interval is the Wilson score interval with z = 1.96,
// clamped to [0, 1]. When n == 0 the probability and interval are NaN, and the
// JSON encoding renders them as null.
//
// All functions in this package are pure. The same window index set is shared
// by every condition of a query so results stay comparable.
package domain
