package plan_test

import (
	"testing"
	"time"

	"github.com/procura/payments-engine/plan"
)

func TestDate_DaysInMonth(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2026, time.January, 31},
		{2026, time.February, 28},
		{2028, time.February, 29}, // leap year
		{2026, time.April, 30},
		{2100, time.February, 28}, // century non-leap
	}

	for _, tc := range cases {
		d := plan.NewDate(tc.year, tc.month, 1)
		if got := d.DaysInMonth(); got != tc.want {
			t.Errorf("DaysInMonth(%d-%02d) = %d, want %d", tc.year, tc.month, got, tc.want)
		}
	}
}

func TestDate_WithDayClamped(t *testing.T) {
	feb := plan.NewDate(2026, time.February, 1)

	if got := feb.WithDayClamped(31).String(); got != "2026-02-28" {
		t.Errorf("clamp 31 in Feb = %s, want 2026-02-28", got)
	}
	if got := feb.WithDayClamped(15).String(); got != "2026-02-15" {
		t.Errorf("clamp 15 in Feb = %s, want 2026-02-15", got)
	}
	if got := feb.WithDayClamped(0).String(); got != "2026-02-01" {
		t.Errorf("clamp 0 in Feb = %s, want 2026-02-01", got)
	}
}

func TestDate_PeriodKey(t *testing.T) {
	d := plan.NewDate(2026, time.March, 17)
	if d.PeriodKey() != "2026-03" {
		t.Errorf("PeriodKey = %s, want 2026-03", d.PeriodKey())
	}

	// Same month, different days, same period.
	other := plan.NewDate(2026, time.March, 1)
	if d.PeriodKey() != other.PeriodKey() {
		t.Error("period keys within one month must match")
	}
}

func TestDate_AddMonthsOnFirstOfMonth(t *testing.T) {
	jan := plan.NewDate(2026, time.January, 1)
	if got := jan.AddMonths(13).String(); got != "2027-02-01" {
		t.Errorf("Jan 1 + 13 months = %s, want 2027-02-01", got)
	}
}
