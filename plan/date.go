package plan

import "time"

// =============================================================================
// DATE - Calendar date (day granularity)
// =============================================================================

// Date is a calendar date in UTC. The engine never cares about time of day;
// every Date is normalized to midnight UTC.
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an arbitrary time to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses "2006-01-02".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool  { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool  { return d.Time.Equal(other.Time) }
func (d Date) IsZero() bool           { return d.Time.IsZero() }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }

// AddMonths adds calendar months. time.AddDate normalizes overflow (Jan 31
// plus one month is Mar 2/3); the engine only calls this on first-of-month
// dates, where no overflow can occur.
func (d Date) AddMonths(n int) Date { return Date{Time: d.Time.AddDate(0, n, 0)} }

// Properties
func (d Date) Year() int         { return d.Time.Year() }
func (d Date) Month() time.Month { return d.Time.Month() }
func (d Date) Day() int          { return d.Time.Day() }

// FirstOfMonth returns the first day of d's month.
func (d Date) FirstOfMonth() Date { return NewDate(d.Year(), d.Month(), 1) }

// DaysInMonth returns the number of days in d's month (handles leap years).
func (d Date) DaysInMonth() int {
	return NewDate(d.Year(), d.Month()+1, 1).AddDays(-1).Day()
}

// WithDayClamped returns d with its day-of-month set to day, clamped to the
// last day of the month. DueDay 31 in February yields Feb 28 (or 29), never
// an overflow into March.
func (d Date) WithDayClamped(day int) Date {
	last := d.DaysInMonth()
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return NewDate(d.Year(), d.Month(), day)
}

func (d Date) String() string { return d.Time.Format("2006-01-02") }

// PeriodKey returns the month marker used as the de-duplication key for
// recurring generation ("2026-03").
func (d Date) PeriodKey() string { return d.Time.Format("2006-01") }
