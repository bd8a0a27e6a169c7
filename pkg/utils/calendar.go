package utils

import "time"

// IsTradingDay reports whether t falls on a weekday. Exchange holidays are
// not modeled; the simulated calendar only skips weekends.
func IsTradingDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// SeasonStart returns the first candidate trading date of a simulated year.
func SeasonStart(year int) time.Time {
	return time.Date(year, time.January, 2, 0, 0, 0, 0, time.UTC)
}

// NextTradingDay returns the first trading day strictly after t.
func NextTradingDay(t time.Time) time.Time {
	t = t.AddDate(0, 0, 1)
	for !IsTradingDay(t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}
