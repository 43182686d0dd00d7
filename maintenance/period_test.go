package maintenance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in   string
		want Period
	}{
		{"14 days", Period{Days: 14}},
		{"1 day", Period{Days: 1}},
		{"2 weeks", Period{Days: 14}},
		{"1 week", Period{Days: 7}},
		{"3 months", Period{Months: 3}},
		{"1 month", Period{Months: 1}},
		{"1 year", Period{Months: 12}},
		{"2 Years", Period{Months: 24}},
		{"  6 MONTHS  ", Period{Months: 6}},
		{"", Period{}},
	}
	for _, tt := range tests {
		got, err := ParsePeriod(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestParsePeriodInvalid(t *testing.T) {
	for _, in := range []string{
		"months", "3", "0 days", "-1 week", "three months", "3 fortnights", "1 month extra",
	} {
		_, err := ParsePeriod(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestNextDate(t *testing.T) {
	p := Period{Months: 3}
	assert.Equal(t, date(2026, time.April, 15), p.NextDate(date(2026, time.January, 15)))

	// Month-end overflow normalizes forward, per time.AddDate.
	p = Period{Months: 1}
	assert.Equal(t, date(2026, time.March, 3), p.NextDate(date(2026, time.January, 31)))

	p = Period{Days: 14}
	assert.Equal(t, date(2026, time.January, 15), p.NextDate(date(2026, time.January, 1)))
}

func TestClassify(t *testing.T) {
	now := date(2026, time.June, 15)

	assert.Equal(t, HealthNotScheduled, Classify(nil, now, 14))

	past := date(2026, time.June, 1)
	assert.Equal(t, HealthOverdue, Classify(&past, now, 14))

	// Due today is not overdue.
	today := date(2026, time.June, 15)
	assert.Equal(t, HealthDueSoon, Classify(&today, now, 14))

	edge := date(2026, time.June, 29)
	assert.Equal(t, HealthDueSoon, Classify(&edge, now, 14))

	beyond := date(2026, time.June, 30)
	assert.Equal(t, HealthUpToDate, Classify(&beyond, now, 14))
}

func TestClassifyIgnoresTimeOfDay(t *testing.T) {
	// Late on the due day is still due today, not overdue.
	now := time.Date(2026, time.June, 15, 23, 30, 0, 0, time.UTC)
	next := time.Date(2026, time.June, 15, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, HealthDueSoon, Classify(&next, now, 14))
}

func TestDaysUntil(t *testing.T) {
	now := date(2026, time.June, 15)
	assert.Equal(t, 0, DaysUntil(date(2026, time.June, 15), now))
	assert.Equal(t, 10, DaysUntil(date(2026, time.June, 25), now))
	assert.Equal(t, -5, DaysUntil(date(2026, time.June, 10), now))
}
