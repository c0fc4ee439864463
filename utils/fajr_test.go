package utils

import (
	"strings"
	"testing"
	"time"
)

func cairoTime(t *testing.T, year int, month time.Month, day, hour, min, sec int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Africa/Cairo")
	if err != nil {
		t.Fatalf("load Africa/Cairo: %v", err)
	}
	return time.Date(year, month, day, hour, min, sec, 0, loc)
}

func TestEvaluateFajrWindowOpen(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
	}{
		{"window start inclusive", cairoTime(t, 2025, time.March, 10, 4, 40, 0)},
		{"fajr time itself", cairoTime(t, 2025, time.March, 10, 5, 10, 0)},
		{"window end inclusive", cairoTime(t, 2025, time.March, 10, 6, 10, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status := EvaluateFajrWindow(tc.now)
			if !status.IsOpen {
				t.Fatalf("expected window open at %v, message=%q", tc.now, status.Message)
			}
			if status.Countdown != "" {
				t.Fatalf("open window must not carry a countdown, got %q", status.Countdown)
			}
		})
	}
}

func TestEvaluateFajrWindowEveryMinute(t *testing.T) {
	start := cairoTime(t, 2025, time.March, 10, 4, 40, 0)
	for m := 0; m <= 90; m++ {
		if status := EvaluateFajrWindow(start.Add(time.Duration(m) * time.Minute)); !status.IsOpen {
			t.Fatalf("minute %d inside window reported closed", m)
		}
	}
}

func TestEvaluateFajrWindowNotYetOpen(t *testing.T) {
	status := EvaluateFajrWindow(cairoTime(t, 2025, time.March, 10, 2, 40, 0))
	if status.IsOpen {
		t.Fatal("expected window closed before start")
	}
	if status.Countdown != "2 ساعة و 0 دقيقة" {
		t.Fatalf("unexpected countdown %q", status.Countdown)
	}
}

func TestEvaluateFajrWindowCountdownCeiling(t *testing.T) {
	// 39m30s before the window opens must round up to 40 whole minutes.
	status := EvaluateFajrWindow(cairoTime(t, 2025, time.March, 10, 4, 0, 30))
	if status.IsOpen {
		t.Fatal("expected window closed before start")
	}
	if status.Countdown != "40 دقيقة" {
		t.Fatalf("unexpected countdown %q", status.Countdown)
	}

	// One second before the window the countdown still shows a full minute,
	// never zero.
	status = EvaluateFajrWindow(cairoTime(t, 2025, time.March, 10, 4, 39, 59))
	if status.IsOpen {
		t.Fatal("expected window closed one second before start")
	}
	if status.Countdown != "1 دقيقة" {
		t.Fatalf("unexpected countdown %q", status.Countdown)
	}
}

func TestEvaluateFajrWindowClosedForToday(t *testing.T) {
	status := EvaluateFajrWindow(cairoTime(t, 2025, time.March, 10, 6, 10, 1))
	if status.IsOpen {
		t.Fatal("expected window closed after end")
	}
	if !strings.Contains(status.Message, "انتهى") {
		t.Fatalf("expected closed-for-today message, got %q", status.Message)
	}
	if status.Countdown != "موعدنا غداً" {
		t.Fatalf("unexpected countdown placeholder %q", status.Countdown)
	}
}

func TestSameCairoDay(t *testing.T) {
	morning := cairoTime(t, 2025, time.March, 10, 5, 0, 0)
	evening := cairoTime(t, 2025, time.March, 10, 23, 59, 59)
	nextDay := cairoTime(t, 2025, time.March, 11, 0, 0, 0)

	if !SameCairoDay(morning, evening) {
		t.Fatal("same Cairo day reported different")
	}
	if SameCairoDay(evening, nextDay) {
		t.Fatal("midnight boundary reported same day")
	}

	// The comparison must use Cairo civil days even when the instants are
	// expressed in another zone.
	utc := morning.UTC()
	if !SameCairoDay(utc, evening) {
		t.Fatal("UTC-expressed instant compared in the wrong zone")
	}
}

func TestWasYesterday(t *testing.T) {
	now := cairoTime(t, 2025, time.March, 1, 5, 0, 0)
	if !WasYesterday(cairoTime(t, 2025, time.February, 28, 23, 0, 0), now) {
		t.Fatal("month boundary yesterday not detected")
	}
	if WasYesterday(cairoTime(t, 2025, time.February, 27, 5, 0, 0), now) {
		t.Fatal("two days ago reported as yesterday")
	}
	if WasYesterday(now, now) {
		t.Fatal("today reported as yesterday")
	}
}
