// Package maintenance holds the date arithmetic behind maintenance
// scheduling: parsing period strings, computing next service dates, and
// classifying assets by how close the next date is.
package maintenance

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Health labels derived from the next maintenance date.
const (
	HealthOverdue      = "Overdue"
	HealthDueSoon      = "Due Soon"
	HealthUpToDate     = "Up to Date"
	HealthNotScheduled = "Not Scheduled"
)

// Period is a maintenance interval expressed in calendar units, so that
// "1 month" from Jan 31 lands on the calendar month boundary rather than a
// fixed number of days.
type Period struct {
	Days   int
	Months int
}

// IsZero reports whether the period carries no interval at all.
func (p Period) IsZero() bool {
	return p.Days == 0 && p.Months == 0
}

// ParsePeriod parses a human period string such as "14 days", "2 weeks",
// "3 months" or "1 year". The unit may be singular or plural and casing is
// ignored. An empty string is a valid zero period (no schedule).
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Period{}, nil
	}

	fields := strings.Fields(strings.ToLower(s))
	if len(fields) != 2 {
		return Period{}, fmt.Errorf("invalid maintenance period %q", s)
	}

	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 1 {
		return Period{}, fmt.Errorf("invalid maintenance period %q", s)
	}

	switch strings.TrimSuffix(fields[1], "s") {
	case "day":
		return Period{Days: n}, nil
	case "week":
		return Period{Days: n * 7}, nil
	case "month":
		return Period{Months: n}, nil
	case "year":
		return Period{Months: n * 12}, nil
	default:
		return Period{}, fmt.Errorf("invalid maintenance period %q", s)
	}
}

// NextDate returns the next service date after from. AddDate normalizes
// overflowed months (Jan 31 + 1 month = Mar 3), which matches how the
// scheduling has always behaved.
func (p Period) NextDate(from time.Time) time.Time {
	return from.AddDate(0, p.Months, p.Days)
}

// Classify labels an asset's maintenance health. next is the asset's next
// maintenance date (nil when none is scheduled), now the reference instant
// and dueSoonDays the width of the warning window. Dates are compared by
// calendar day in UTC so that a date due "today" is not overdue.
func Classify(next *time.Time, now time.Time, dueSoonDays int) string {
	if next == nil || next.IsZero() {
		return HealthNotScheduled
	}

	days := DaysUntil(*next, now)
	switch {
	case days < 0:
		return HealthOverdue
	case days <= dueSoonDays:
		return HealthDueSoon
	default:
		return HealthUpToDate
	}
}

// DaysUntil returns the number of whole calendar days from now until t,
// negative when t is in the past.
func DaysUntil(t, now time.Time) int {
	t = truncateDay(t.UTC())
	now = truncateDay(now.UTC())
	return int(t.Sub(now).Hours() / 24)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
