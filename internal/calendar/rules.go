// Package calendar answers working-time questions in local civil time:
// whether an instant is a business day or a working hour, how much working
// time is left in the current block, and where an arbitrary instant
// normalizes to.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/username/workdays-api/pkg/dateutil"
	"go.uber.org/zap"
)

const (
	DefaultUTCOffsetHours = -5
	DefaultZoneName       = "COT"
	DefaultMaxIterations  = 3650
)

// ErrIterationLimit is returned when a day walk exceeds the configured cap,
// which only happens with corrupt holiday data.
var ErrIterationLimit = errors.New("business day search exceeded iteration limit")

// HolidayChecker reports whether a local calendar date is a holiday
type HolidayChecker interface {
	IsHoliday(ctx context.Context, t time.Time) bool
}

// Config holds the calendar constants
type Config struct {
	Location      *time.Location
	Hours         WorkingHours
	MaxIterations int
	Clock         dateutil.Clock
}

// DefaultConfig returns UTC-5, 08:00-17:00 with a 12:00-13:00 lunch
func DefaultConfig() Config {
	return Config{
		Location:      dateutil.FixedZone(DefaultZoneName, DefaultUTCOffsetHours),
		Hours:         DefaultWorkingHours,
		MaxIterations: DefaultMaxIterations,
		Clock:         dateutil.RealClock{},
	}
}

// Rules evaluates calendar predicates against a holiday source
type Rules struct {
	holidays      HolidayChecker
	loc           *time.Location
	hours         WorkingHours
	maxIterations int
	clock         dateutil.Clock
	logger        *zap.Logger
}

// NewRules creates Rules. Zero-valued config fields take their defaults.
func NewRules(holidays HolidayChecker, cfg Config, logger *zap.Logger) (*Rules, error) {
	def := DefaultConfig()
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	if cfg.Hours == (WorkingHours{}) {
		cfg.Hours = def.Hours
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = def.MaxIterations
	}
	if cfg.Clock == nil {
		cfg.Clock = def.Clock
	}
	if err := cfg.Hours.Validate(); err != nil {
		return nil, err
	}

	return &Rules{
		holidays:      holidays,
		loc:           cfg.Location,
		hours:         cfg.Hours,
		maxIterations: cfg.MaxIterations,
		clock:         cfg.Clock,
		logger:        logger,
	}, nil
}

// Location returns the local civil time zone
func (r *Rules) Location() *time.Location {
	return r.loc
}

// Hours returns the working hours window
func (r *Rules) Hours() WorkingHours {
	return r.hours
}

// MaxIterations returns the cap applied to every day walk
func (r *Rules) MaxIterations() int {
	return r.maxIterations
}

// Now returns the current instant in local civil time
func (r *Rules) Now() time.Time {
	return r.UTCToLocal(r.clock.Now())
}

// UTCToLocal converts an instant to local civil time
func (r *Rules) UTCToLocal(t time.Time) time.Time {
	return t.In(r.loc)
}

// LocalToUTC converts an instant to UTC
func (r *Rules) LocalToUTC(t time.Time) time.Time {
	return t.UTC()
}

// IsWeekday is true Monday-Friday on the local calendar
func (r *Rules) IsWeekday(t time.Time) bool {
	return dateutil.IsWeekday(r.UTCToLocal(t))
}

// IsBusinessDay is true for a local weekday that is not a holiday
func (r *Rules) IsBusinessDay(ctx context.Context, t time.Time) bool {
	local := r.UTCToLocal(t)
	if !dateutil.IsWeekday(local) {
		return false
	}
	return !r.holidays.IsHoliday(ctx, local)
}

// IsWorkingHour is true in [Start, LunchStart) or [LunchEnd, End)
func (r *Rules) IsWorkingHour(t time.Time) bool {
	local := r.UTCToLocal(t)
	return r.hours.InMorning(local) || r.hours.InAfternoon(local)
}

// AvailableHoursInDay returns the working time left until the end of the
// current block, or zero outside business days and working hours.
func (r *Rules) AvailableHoursInDay(ctx context.Context, t time.Time) time.Duration {
	local := r.UTCToLocal(t)
	if !r.IsBusinessDay(ctx, local) {
		return 0
	}

	switch {
	case r.hours.InMorning(local):
		return r.hours.LunchStart.Sub(local)
	case r.hours.InAfternoon(local):
		return r.hours.End.Sub(local)
	}
	return 0
}

// AdjustToNearestWorkingTime maps t onto the last valid working instant at
// or before it:
//   - non-business day: End of the previous business day
//   - before Start: End of the previous business day
//   - at or after End: End of the same day
//   - during lunch: LunchStart of the same day
//
// Anything else is returned unchanged.
func (r *Rules) AdjustToNearestWorkingTime(ctx context.Context, t time.Time) (time.Time, error) {
	local := r.UTCToLocal(t)

	if !r.IsBusinessDay(ctx, local) || r.hours.BeforeStart(local) {
		prev, err := r.PreviousBusinessDay(ctx, local)
		if err != nil {
			return time.Time{}, err
		}
		return r.hours.End.On(prev), nil
	}

	switch {
	case r.hours.AtOrAfterEnd(local):
		return r.hours.End.On(local), nil
	case r.hours.InLunch(local):
		return r.hours.LunchStart.On(local), nil
	}

	return local, nil
}

// PreviousBusinessDay returns the latest business day strictly before t's
// local date, at midnight.
func (r *Rules) PreviousBusinessDay(ctx context.Context, t time.Time) (time.Time, error) {
	day := dateutil.StartOfDay(r.UTCToLocal(t))
	for i := 0; i < r.maxIterations; i++ {
		day = day.AddDate(0, 0, -1)
		if r.IsBusinessDay(ctx, day) {
			return day, nil
		}
	}

	r.logger.Error("No previous business day found",
		zap.Time("from", t),
		zap.Int("max_iterations", r.maxIterations))
	return time.Time{}, fmt.Errorf("previous business day before %s: %w", dateutil.DateKey(t), ErrIterationLimit)
}

// NextBusinessDay returns the first business day strictly after t's local
// date, at Start.
func (r *Rules) NextBusinessDay(ctx context.Context, t time.Time) (time.Time, error) {
	day := dateutil.StartOfDay(r.UTCToLocal(t))
	for i := 0; i < r.maxIterations; i++ {
		day = day.AddDate(0, 0, 1)
		if r.IsBusinessDay(ctx, day) {
			return r.hours.Start.On(day), nil
		}
	}

	r.logger.Error("No next business day found",
		zap.Time("from", t),
		zap.Int("max_iterations", r.maxIterations))
	return time.Time{}, fmt.Errorf("next business day after %s: %w", dateutil.DateKey(t), ErrIterationLimit)
}
