// Package businesstime advances an instant by business days and business
// hours on top of the calendar rules.
package businesstime

import (
	"context"
	"fmt"
	"time"

	"github.com/username/workdays-api/internal/calendar"
	"github.com/username/workdays-api/pkg/dateutil"
	"go.uber.org/zap"
)

// Result is the outcome of one CalculateBusinessDate call.
// Instants are in local civil time.
type Result struct {
	ResultInstant        time.Time
	AdjustedStartInstant time.Time
	DaysProcessed        int
	HoursProcessed       int
}

// ResultUTC returns the result instant in UTC, as reported to callers
func (r Result) ResultUTC() time.Time {
	return r.ResultInstant.UTC()
}

// Calculator runs the day and hour phases
type Calculator struct {
	rules  *calendar.Rules
	logger *zap.Logger
}

// NewCalculator creates a new Calculator
func NewCalculator(rules *calendar.Rules, logger *zap.Logger) *Calculator {
	return &Calculator{
		rules:  rules,
		logger: logger,
	}
}

// Rules returns the calendar rules in use
func (c *Calculator) Rules() *calendar.Rules {
	return c.rules
}

// CalculateBusinessDate normalizes start, then adds days and hours in that order.
//
// The day phase keeps start's original wall-clock time, while the hour phase
// walks from wherever the day phase left the cursor.
func (c *Calculator) CalculateBusinessDate(ctx context.Context, start time.Time, days, hours int) (Result, error) {
	if err := ValidateParameters(days, hours); err != nil {
		return Result{}, err
	}

	local := c.rules.UTCToLocal(start)

	adjusted, err := c.rules.AdjustToNearestWorkingTime(ctx, local)
	if err != nil {
		return Result{}, fmt.Errorf("failed to adjust start: %w", err)
	}

	cursor := adjusted

	if days > 0 {
		cursor, err = c.advanceDays(ctx, cursor, days)
		if err != nil {
			return Result{}, fmt.Errorf("failed to add %d business days: %w", days, err)
		}
		cursor = dateutil.WithClockOf(cursor, local)
	}

	if hours > 0 {
		cursor, err = c.AddBusinessHours(ctx, cursor, hours)
		if err != nil {
			return Result{}, fmt.Errorf("failed to add %d business hours: %w", hours, err)
		}
	}

	c.logger.Debug("Business date calculated",
		zap.Time("start", local),
		zap.Time("adjusted_start", adjusted),
		zap.Int("days", days),
		zap.Int("hours", hours),
		zap.Time("result", cursor))

	return Result{
		ResultInstant:        cursor,
		AdjustedStartInstant: adjusted,
		DaysProcessed:        days,
		HoursProcessed:       hours,
	}, nil
}

// AddBusinessDays moves start forward by days business days, keeping its wall-clock time
func (c *Calculator) AddBusinessDays(ctx context.Context, start time.Time, days int) (time.Time, error) {
	local := c.rules.UTCToLocal(start)
	if days <= 0 {
		return local, nil
	}
	if days > MaxDays {
		return time.Time{}, &ParameterError{Field: "days", Message: fmt.Sprintf("parameter 'days' must not exceed %d", MaxDays)}
	}

	cursor, err := c.advanceDays(ctx, local, days)
	if err != nil {
		return time.Time{}, err
	}
	return dateutil.WithClockOf(cursor, local), nil
}

// advanceDays steps one calendar day at a time, counting business days.
// The returned instant carries cursor's clock; callers pin the time of day.
func (c *Calculator) advanceDays(ctx context.Context, cursor time.Time, days int) (time.Time, error) {
	maxGap := c.rules.MaxIterations()
	counted, gap := 0, 0

	for counted < days {
		if err := ctx.Err(); err != nil {
			return time.Time{}, err
		}

		cursor = cursor.AddDate(0, 0, 1)
		if c.rules.IsBusinessDay(ctx, cursor) {
			counted++
			gap = 0
			continue
		}

		gap++
		if gap >= maxGap {
			return time.Time{}, fmt.Errorf("after %s: %w", dateutil.DateKey(cursor), ErrIterationLimit)
		}
	}

	return cursor, nil
}

// AddBusinessHours consumes hours of working time starting at start.
// Lunch consumes nothing; leaving the afternoon block continues at Start of
// the next business day.
func (c *Calculator) AddBusinessHours(ctx context.Context, start time.Time, hours int) (time.Time, error) {
	if hours > MaxHours {
		return time.Time{}, &ParameterError{Field: "hours", Message: fmt.Sprintf("parameter 'hours' must not exceed %d", MaxHours)}
	}

	cursor := c.rules.UTCToLocal(start)
	wh := c.rules.Hours()
	remaining := time.Duration(hours) * time.Hour

	var err error
	for remaining > 0 {
		if err = ctx.Err(); err != nil {
			return time.Time{}, err
		}

		if !c.rules.IsBusinessDay(ctx, cursor) {
			if cursor, err = c.rules.NextBusinessDay(ctx, cursor); err != nil {
				return time.Time{}, err
			}
			continue
		}

		var boundary calendar.TimeOfDay
		inMorning := false

		switch {
		case wh.BeforeStart(cursor), wh.AtOrAfterEnd(cursor):
			if cursor, err = c.rules.NextBusinessDay(ctx, cursor); err != nil {
				return time.Time{}, err
			}
			continue
		case wh.InLunch(cursor):
			cursor = wh.LunchEnd.On(cursor)
			continue
		case wh.InMorning(cursor):
			boundary = wh.LunchStart
			inMorning = true
		default:
			boundary = wh.End
		}

		available := boundary.Sub(cursor)
		if remaining <= available {
			cursor = cursor.Add(remaining.Round(time.Minute))
			remaining = 0
			break
		}

		remaining -= available
		if inMorning {
			cursor = wh.LunchEnd.On(cursor)
		} else if cursor, err = c.rules.NextBusinessDay(ctx, cursor); err != nil {
			return time.Time{}, err
		}
	}

	return cursor, nil
}
