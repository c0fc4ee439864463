package utils

import (
	"fmt"
	"time"
	// Bundle tzdata so Africa/Cairo resolves inside minimal containers.
	_ "time/tzdata"
)

// All calendar-day arithmetic runs against Cairo civil time regardless of
// the server's or the caller's zone.
const referenceTimezone = "Africa/Cairo"

// Fajr time for Alexandria, Egypt (seasonal average). Fixed by design, not
// configurable.
const (
	fajrHour   = 5
	fajrMinute = 10
)

// Check-in opens 30 minutes before Fajr and closes 60 minutes after it,
// inclusive on both ends.
const (
	windowBefore = 30 * time.Minute
	windowAfter  = 60 * time.Minute
)

var cairo = mustLoadCairo()

func mustLoadCairo() *time.Location {
	loc, err := time.LoadLocation(referenceTimezone)
	if err != nil {
		// Egypt observes EET (UTC+2) with DST suspended most years.
		return time.FixedZone("EET", 2*60*60)
	}
	return loc
}

// CairoNow returns the current instant in the reference timezone.
func CairoNow() time.Time {
	return time.Now().In(cairo)
}

// FajrStatus is the evaluated state of today's check-in window.
type FajrStatus struct {
	IsOpen    bool   `json:"is_open"`
	Message   string `json:"message"`
	FajrTime  string `json:"fajr_time"`
	Countdown string `json:"countdown"`
}

// EvaluateFajrWindow decides whether check-in is currently allowed. It is a
// pure function of the given instant and is safe to call on every poll.
func EvaluateFajrWindow(now time.Time) FajrStatus {
	now = now.In(cairo)
	fajrToday := time.Date(now.Year(), now.Month(), now.Day(), fajrHour, fajrMinute, 0, 0, cairo)
	windowStart := fajrToday.Add(-windowBefore)
	windowEnd := fajrToday.Add(windowAfter)

	switch {
	case !now.Before(windowStart) && !now.After(windowEnd):
		return FajrStatus{
			IsOpen:   true,
			Message:  fmt.Sprintf("الوقت متاح الآن لتسجيل صلاة الفجر. يغلق التسجيل الساعة %s", formatClock(windowEnd)),
			FajrTime: formatClock(fajrToday),
		}
	case now.Before(windowStart):
		return FajrStatus{
			IsOpen:    false,
			Message:   fmt.Sprintf("لم يحن موعد التسجيل بعد. يفتح قبل الفجر بـ 30 دقيقة (%s).", formatClock(windowStart)),
			FajrTime:  formatClock(fajrToday),
			Countdown: formatCountdown(windowStart.Sub(now)),
		}
	default:
		return FajrStatus{
			IsOpen:    false,
			Message:   "انتهى وقت تسجيل صلاة الفجر لهذا اليوم. الموعد القادم فجر الغد إن شاء الله.",
			FajrTime:  formatClock(fajrToday),
			Countdown: "موعدنا غداً",
		}
	}
}

// formatCountdown renders the remaining wait as whole minutes, rounded up
// so it never shows zero while the window is still ahead.
func formatCountdown(d time.Duration) string {
	mins := int((d + time.Minute - 1) / time.Minute)
	if mins < 1 {
		mins = 1
	}
	hours := mins / 60
	mins = mins % 60
	if hours > 0 {
		return fmt.Sprintf("%d ساعة و %d دقيقة", hours, mins)
	}
	return fmt.Sprintf("%d دقيقة", mins)
}

// formatClock renders a 12-hour Arabic clock reading such as "05:10 ص".
func formatClock(t time.Time) string {
	suffix := "ص"
	hour := t.Hour()
	if hour >= 12 {
		suffix = "م"
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}
	return fmt.Sprintf("%02d:%02d %s", hour12, t.Minute(), suffix)
}

// SameCairoDay reports whether two instants fall on the same Cairo calendar day.
func SameCairoDay(a, b time.Time) bool {
	a, b = a.In(cairo), b.In(cairo)
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// WasYesterday reports whether last falls on the Cairo calendar day
// immediately before now's.
func WasYesterday(last, now time.Time) bool {
	return SameCairoDay(last, now.In(cairo).AddDate(0, 0, -1))
}
