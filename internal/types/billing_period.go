package types

import (
	"fmt"
	"time"
)

// BillingPeriod is one calendar month in UTC.
// Start is the first instant of the month and End the last second of it, both inclusive.
type BillingPeriod struct {
	Start time.Time
	End   time.Time
}

// NewBillingPeriod builds the billing period of the given month.
func NewBillingPeriod(year int, month time.Month) BillingPeriod {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return BillingPeriod{
		Start: start,
		End:   start.AddDate(0, 1, 0).Add(-time.Second),
	}
}

func (p BillingPeriod) Year() int {
	return p.Start.Year()
}

func (p BillingPeriod) Month() time.Month {
	return p.Start.Month()
}

// LastDay is the number of days in the period.
func (p BillingPeriod) LastDay() int {
	return p.End.Day()
}

// StartDate is the first calendar day of the period.
func (p BillingPeriod) StartDate() time.Time {
	return DateOf(p.Start)
}

// EndDate is the last calendar day of the period.
func (p BillingPeriod) EndDate() time.Time {
	return DateOf(p.End)
}

// Day returns the calendar date of the given day of month.
func (p BillingPeriod) Day(day int) time.Time {
	return time.Date(p.Year(), p.Month(), day, 0, 0, 0, 0, time.UTC)
}

// JournalExternalID is the vendor id of the journal holding this period's charges.
func (p BillingPeriod) JournalExternalID() string {
	return fmt.Sprintf("%04d%02d", p.Year(), int(p.Month()))
}

// JournalName is the display name of the journal, e.g. "Jun 2025 charges".
func (p BillingPeriod) JournalName() string {
	return fmt.Sprintf("%s charges", p.Start.Format("Jan 2006"))
}

// JournalDueDate is the first day of the following month.
func (p BillingPeriod) JournalDueDate() time.Time {
	return p.Start.AddDate(0, 1, 0)
}

// Clamp restricts the closed date range [from, to] to the period.
// ok is false when nothing of the range falls inside the period.
func (p BillingPeriod) Clamp(from, to time.Time) (time.Time, time.Time, bool) {
	from, to = DateOf(from), DateOf(to)
	if from.Before(p.StartDate()) {
		from = p.StartDate()
	}
	if to.After(p.EndDate()) {
		to = p.EndDate()
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func (p BillingPeriod) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year(), int(p.Month()))
}

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysOfMonth lists the day-of-month of every calendar day in [from, to].
func DaysOfMonth(from, to time.Time) []int {
	var days []int
	for d := DateOf(from); !d.After(DateOf(to)); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Day())
	}
	return days
}
