package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/username/workdays-api/pkg/dateutil"
)

// TimeOfDay is a wall-clock time with minute precision
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM"
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("time of day %q must be HH:MM", s)
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q", s)
	}

	return TimeOfDay{Hour: h, Minute: m}, nil
}

// Minutes returns minutes since midnight
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// On returns date's calendar day at this time of day
func (t TimeOfDay) On(date time.Time) time.Time {
	return dateutil.AtClock(date, t.Hour, t.Minute)
}

// Sub returns the whole minutes from from's wall clock up to t, ignoring seconds
func (t TimeOfDay) Sub(from time.Time) time.Duration {
	return time.Duration(t.Minutes()-minuteOfDay(from)) * time.Minute
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// minuteOfDay ignores seconds, matching the minute-granular boundary checks
func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// WorkingHours is the daily work window in local civil time.
// The lunch interval is excluded from working time.
type WorkingHours struct {
	Start      TimeOfDay
	LunchStart TimeOfDay
	LunchEnd   TimeOfDay
	End        TimeOfDay
}

// DefaultWorkingHours is 08:00-12:00 and 13:00-17:00
var DefaultWorkingHours = WorkingHours{
	Start:      TimeOfDay{Hour: 8},
	LunchStart: TimeOfDay{Hour: 12},
	LunchEnd:   TimeOfDay{Hour: 13},
	End:        TimeOfDay{Hour: 17},
}

// Validate checks Start < LunchStart < LunchEnd < End
func (w WorkingHours) Validate() error {
	if !(w.Start.Minutes() < w.LunchStart.Minutes() &&
		w.LunchStart.Minutes() < w.LunchEnd.Minutes() &&
		w.LunchEnd.Minutes() < w.End.Minutes()) {
		return fmt.Errorf("working hours must satisfy start < lunch_start < lunch_end < end, got %s/%s/%s/%s",
			w.Start, w.LunchStart, w.LunchEnd, w.End)
	}
	return nil
}

// DailyHours returns the working time of one full business day
func (w WorkingHours) DailyHours() time.Duration {
	morning := w.LunchStart.Minutes() - w.Start.Minutes()
	afternoon := w.End.Minutes() - w.LunchEnd.Minutes()
	return time.Duration(morning+afternoon) * time.Minute
}

// InMorning reports whether t is in [Start, LunchStart)
func (w WorkingHours) InMorning(t time.Time) bool {
	m := minuteOfDay(t)
	return m >= w.Start.Minutes() && m < w.LunchStart.Minutes()
}

// InAfternoon reports whether t is in [LunchEnd, End)
func (w WorkingHours) InAfternoon(t time.Time) bool {
	m := minuteOfDay(t)
	return m >= w.LunchEnd.Minutes() && m < w.End.Minutes()
}

// InLunch reports whether t is in [LunchStart, LunchEnd)
func (w WorkingHours) InLunch(t time.Time) bool {
	m := minuteOfDay(t)
	return m >= w.LunchStart.Minutes() && m < w.LunchEnd.Minutes()
}

// BeforeStart reports whether t is earlier than Start
func (w WorkingHours) BeforeStart(t time.Time) bool {
	return minuteOfDay(t) < w.Start.Minutes()
}

// AtOrAfterEnd reports whether t is at or later than End
func (w WorkingHours) AtOrAfterEnd(t time.Time) bool {
	return minuteOfDay(t) >= w.End.Minutes()
}
