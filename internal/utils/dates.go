package utils

import (
	"fmt"
	"time"
)

const hoursPerYear = 24 * 365

// YearsUntil converts a YYYY-MM-DD expiry date into an ACT/365 year fraction
// from now, for requests that carry an expiry date instead of a year count.
func YearsUntil(expiry string) (float64, error) {
	return YearsUntilFrom(expiry, time.Now())
}

// YearsUntilFrom is YearsUntil with an explicit valuation time.
func YearsUntilFrom(expiry string, now time.Time) (float64, error) {
	exp, err := time.Parse("2006-01-02", expiry)
	if err != nil {
		return 0, fmt.Errorf("invalid expiry date %q: want YYYY-MM-DD", expiry)
	}
	// Options stop trading at the end of the expiration day.
	exp = exp.Add(24 * time.Hour)
	t := exp.Sub(now).Hours() / hoursPerYear
	if t < 0 {
		return 0, fmt.Errorf("expiry date %s is in the past", expiry)
	}
	return t, nil
}

// NextOptionsExpiration returns the next standard monthly expiration, the
// third Friday:
// - Third Friday of the current month if we haven't reached the expiration week yet
// - Third Friday of next month if we're in or past the expiration week
func NextOptionsExpiration() string {
	return nextOptionsExpirationFrom(time.Now())
}

func nextOptionsExpirationFrom(today time.Time) string {
	third := thirdFriday(today.Year(), today.Month(), today.Location())

	// If current day is in the week of the 3rd Friday or past it, roll to
	// next month's 3rd Friday.
	weekStart := third.AddDate(0, 0, -7)
	if !today.Before(weekStart) {
		next := today.AddDate(0, 1, 0)
		third = thirdFriday(next.Year(), next.Month(), today.Location())
	}
	return third.Format("2006-01-02")
}

func thirdFriday(year int, month time.Month, loc *time.Location) time.Time {
	day := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	for day.Weekday() != time.Friday {
		day = day.AddDate(0, 0, 1)
	}
	return day.AddDate(0, 0, 14)
}
