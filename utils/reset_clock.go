package utils

import (
	"fmt"
	"sync"
	"time"
	// keep zone database available even on scratch containers
	_ "time/tzdata"

	"github.com/coinpulse/backend/config"
)

// Now is the single time source for all daily-reset logic. Tests swap it to
// pin the clock; production code must never read time.Now directly for
// eligibility decisions.
var Now = time.Now

const dayLayout = "2006-01-02"

var (
	resetLoc     *time.Location
	resetLocOnce sync.Once
)

// ResetLocation returns the fixed reference timezone that defines "today" for
// every daily-reset rule, independent of the caller's location.
func ResetLocation() *time.Location {
	resetLocOnce.Do(func() {
		name := config.Get().ResetTimezone
		loc, err := time.LoadLocation(name)
		if err != nil {
			if Sugar != nil {
				Sugar.Errorf("invalid reset timezone %q, falling back to UTC: %v", name, err)
			}
			loc = time.UTC
		}
		resetLoc = loc
	})
	return resetLoc
}

// TodayDate returns the current calendar date in the reference timezone as YYYY-MM-DD.
func TodayDate() string {
	return DayOf(Now())
}

// DayOf projects a stored UTC instant onto the reference timezone's calendar
// date. Conversion goes through the zone database, so daylight-saving
// transitions classify correctly (a fixed UTC offset would not).
func DayOf(t time.Time) string {
	return t.In(ResetLocation()).Format(dayLayout)
}

// NextMidnight returns the next 00:00:00 wall-clock instant in the reference timezone.
func NextMidnight() time.Time {
	now := Now().In(ResetLocation())
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
}

// MsUntilMidnight returns non-negative milliseconds from now until the next
// reference-timezone midnight, used for "try again in Xh Ym" hints.
func MsUntilMidnight() int64 {
	ms := NextMidnight().Sub(Now()).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}

// FormatRemaining renders a millisecond countdown as "13h 5m" for user-facing
// rejection messages.
func FormatRemaining(ms int64) string {
	hours := ms / (1000 * 60 * 60)
	minutes := (ms % (1000 * 60 * 60)) / (1000 * 60)
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
