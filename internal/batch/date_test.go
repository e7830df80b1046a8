package batch

import (
	"testing"
	"time"
)

func fixedNow(hour, minute int) func() time.Time {
	return func() time.Time {
		return time.Date(2025, 3, 10, hour, minute, 0, 0, JST)
	}
}

func TestResolveTargetDateExplicit(t *testing.T) {
	target, err := ResolveTargetDate(DateOptions{Explicit: "2025-03-02", Now: fixedNow(12, 0)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := target.Format("2006-01-02"); got != "2025-03-02" {
		t.Fatalf("target = %s", got)
	}
}

func TestResolveTargetDateExplicitSundayRuns(t *testing.T) {
	// 2025-03-09 is a Sunday; no weekend skipping.
	target, err := ResolveTargetDate(DateOptions{Explicit: "2025-03-09", Now: fixedNow(12, 0)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.Weekday() != time.Sunday {
		t.Fatalf("weekday = %v", target.Weekday())
	}
}

func TestResolveTargetDateRejectsFuture(t *testing.T) {
	if _, err := ResolveTargetDate(DateOptions{Explicit: "2025-03-11", Now: fixedNow(12, 0)}); err == nil {
		t.Fatal("expected error for future date")
	}
}

func TestResolveTargetDateRejectsMalformed(t *testing.T) {
	if _, err := ResolveTargetDate(DateOptions{Explicit: "03/10/2025", Now: fixedNow(12, 0)}); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestResolveTargetDateFlags(t *testing.T) {
	today, err := ResolveTargetDate(DateOptions{Today: true, Now: fixedNow(12, 0)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := today.Format("2006-01-02"); got != "2025-03-10" {
		t.Fatalf("today = %s", got)
	}

	yesterday, err := ResolveTargetDate(DateOptions{Yesterday: true, Now: fixedNow(12, 0)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := yesterday.Format("2006-01-02"); got != "2025-03-09" {
		t.Fatalf("yesterday = %s", got)
	}
}

func TestResolveTargetDateTimeBased(t *testing.T) {
	cases := []struct {
		name   string
		hour   int
		minute int
		want   string
	}{
		{"after night threshold", 22, 30, "2025-03-09"},
		{"early morning", 2, 0, "2025-03-09"},
		{"daytime catch-up", 7, 0, "2025-03-08"},
		{"just before threshold", 21, 59, "2025-03-08"},
		{"exactly at threshold", 22, 0, "2025-03-09"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			target, err := ResolveTargetDate(DateOptions{
				AutoMode:       AutoModeTimeBased,
				NightBatchTime: "22:00",
				Now:            fixedNow(tc.hour, tc.minute),
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := target.Format("2006-01-02"); got != tc.want {
				t.Fatalf("target = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestResolveTargetDateFixedModes(t *testing.T) {
	target, err := ResolveTargetDate(DateOptions{AutoMode: AutoModeTodayOnly, Now: fixedNow(12, 0)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := target.Format("2006-01-02"); got != "2025-03-10" {
		t.Fatalf("today_only = %s", got)
	}

	target, err = ResolveTargetDate(DateOptions{AutoMode: AutoModeYesterdayOnly, Now: fixedNow(12, 0)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := target.Format("2006-01-02"); got != "2025-03-09" {
		t.Fatalf("yesterday_only = %s", got)
	}

	if _, err := ResolveTargetDate(DateOptions{AutoMode: "weekly"}); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestParseClockFallback(t *testing.T) {
	if got := parseClock("21:30", 22*60); got != 21*60+30 {
		t.Fatalf("parseClock = %d", got)
	}
	if got := parseClock("nonsense", 22*60); got != 22*60 {
		t.Fatalf("fallback = %d", got)
	}
	if got := parseClock("25:00", 22*60); got != 22*60 {
		t.Fatalf("out of range = %d", got)
	}
}
