// Package expiry turns expiry dates into day-counts and status tiers.
//
// Nothing here reads the wall clock: callers pass "today" explicitly.
package expiry

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/foxxcyber/pex/internal/models"
)

// DateLayout is the fixed-width wire format of expiry dates
const DateLayout = "2006-01-02"

// DisplayLayout is the pt-BR date format used in reports
const DisplayLayout = "02/01/2006"

var ErrInvalidDate = errors.New("invalid date")

// ParseDate parses a YYYY-MM-DD string as a civil date at midnight UTC
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// Today truncates a clock reading to midnight in its own location
func Today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// civilDays returns the day number of a calendar date, independent of zone
func civilDays(y int, m time.Month, d int) int {
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// DaysToExpiry returns whole calendar days from today's local date to the
// expiry date: negative when past, zero when it expires today.
// Both sides are compared as civil dates so DST shifts cannot move the result.
func DaysToExpiry(expiryDate string, today time.Time) (int, error) {
	exp, err := ParseDate(expiryDate)
	if err != nil {
		return 0, err
	}
	ty, tm, td := today.Date()
	ey, em, ed := exp.Date()
	return civilDays(ey, em, ed) - civilDays(ty, tm, td), nil
}

// StatusFromDays maps a day-count to its tier
func StatusFromDays(days int) models.Status {
	switch {
	case days < 0:
		return models.StatusExpired
	case days <= models.CriticalWindowDays:
		return models.StatusCritical
	default:
		return models.StatusSafe
	}
}

// Classify computes both derived fields for an expiry date
func Classify(expiryDate string, today time.Time) (int, models.Status, error) {
	days, err := DaysToExpiry(expiryDate, today)
	if err != nil {
		return 0, "", err
	}
	return days, StatusFromDays(days), nil
}

// AddDays returns the YYYY-MM-DD date n days after today's calendar date
func AddDays(today time.Time, n int) string {
	y, m, d := today.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, time.UTC).Format(DateLayout)
}

// FormatDisplay renders a YYYY-MM-DD date as dd/mm/yyyy.
// Unparseable input is returned unchanged.
func FormatDisplay(expiryDate string) string {
	t, err := ParseDate(expiryDate)
	if err != nil {
		return expiryDate
	}
	return t.Format(DisplayLayout)
}

// Normalize parses and re-formats a date so stored values are fixed-width
func Normalize(s string) (string, error) {
	t, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return t.Format(DateLayout), nil
}
