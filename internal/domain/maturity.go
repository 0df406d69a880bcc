package domain

import (
	"math"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	daysPerYear = 365.25
)

// YearsToMaturity converts a maturity date into a year fraction using an
// ACT/365.25 day count on whole days. A maturity in the past yields exactly 0,
// never a negative fraction.
func YearsToMaturity(maturity, now time.Time) float64 {
	days := int(maturity.Sub(now).Hours() / 24)
	years := float64(days) / daysPerYear
	return math.Max(years, 0)
}

// ParseMaturity parses a YYYY-MM-DD date string. Invalid input yields a
// ParseError.
func ParseMaturity(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, &ParseError{Value: s, Cause: err}
	}
	return t, nil
}

// round2 rounds to two decimal places, the precision every monetary output of
// the engine is reported at.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
