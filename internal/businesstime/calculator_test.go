package businesstime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/workdays-api/internal/calendar"
	"github.com/username/workdays-api/internal/holiday"
	"github.com/username/workdays-api/pkg/dateutil"
	"go.uber.org/zap"
)

var cot = dateutil.FixedZone("COT", -5)

var testHolidays = []string{
	"2025-01-01", "2025-01-06", "2025-03-24",
	"2025-04-17", "2025-04-18", "2025-05-01",
}

func local(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, cot)
}

func newTestCalculator(t *testing.T) *Calculator {
	t.Helper()

	fetcher := holiday.FetcherFunc(func(ctx context.Context) ([]string, error) {
		return testHolidays, nil
	})
	source := holiday.NewSource(fetcher, 24*time.Hour, dateutil.RealClock{}, nil, zap.NewNop())

	rules, err := calendar.NewRules(source, calendar.Config{Location: cot}, zap.NewNop())
	require.NoError(t, err)

	return NewCalculator(rules, zap.NewNop())
}

type everyDay struct{}

func (everyDay) IsHoliday(context.Context, time.Time) bool { return true }

func TestCalculateBusinessDate(t *testing.T) {
	calc := newTestCalculator(t)

	tests := []struct {
		name  string
		start time.Time
		days  int
		hours int
		want  time.Time
	}{
		{"Friday plus one day skips weekend", local(2025, 1, 10, 10, 0), 1, 0, local(2025, 1, 13, 10, 0)},
		{"four hours over lunch", local(2025, 1, 15, 9, 0), 0, 4, local(2025, 1, 15, 14, 0)},
		{"three hours ends at lunch", local(2025, 1, 15, 9, 0), 0, 3, local(2025, 1, 15, 12, 0)},
		{"full day from start", local(2025, 1, 15, 8, 0), 0, 8, local(2025, 1, 15, 17, 0)},
		{"end of day rollover", local(2025, 1, 15, 16, 30), 0, 1, local(2025, 1, 16, 8, 30)},
		{"Saturday plus one hour", local(2025, 1, 18, 14, 0), 0, 1, local(2025, 1, 20, 9, 0)},
		{"holiday Monday skipped", local(2025, 1, 3, 16, 0), 0, 2, local(2025, 1, 7, 9, 0)},
		{"Easter holidays skipped by days", local(2025, 4, 16, 10, 0), 1, 0, local(2025, 4, 21, 10, 0)},
		{"Easter holidays skipped by hours", local(2025, 4, 16, 16, 0), 0, 2, local(2025, 4, 21, 9, 0)},
		{"days then hours", local(2025, 1, 15, 10, 0), 1, 3, local(2025, 1, 16, 14, 0)},
		// the day phase keeps Sunday's 18:00 wall clock
		{"Sunday evening plus one day", local(2025, 1, 19, 18, 0), 1, 0, local(2025, 1, 20, 18, 0)},
		// 07:00 survives the day phase, so the hour phase starts on the next business day
		{"pre-start clock restored before hours", local(2025, 1, 14, 7, 0), 1, 1, local(2025, 1, 15, 9, 0)},
		{"UTC input", time.Date(2025, 1, 15, 14, 0, 0, 0, time.UTC), 0, 4, local(2025, 1, 15, 14, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := calc.CalculateBusinessDate(context.Background(), tt.start, tt.days, tt.hours)
			require.NoError(t, err)

			assert.True(t, res.ResultInstant.Equal(tt.want), "got %v, want %v", res.ResultInstant, tt.want)
			assert.False(t, res.ResultInstant.Before(res.AdjustedStartInstant))
			assert.Equal(t, tt.days, res.DaysProcessed)
			assert.Equal(t, tt.hours, res.HoursProcessed)
			assert.Equal(t, time.UTC, res.ResultUTC().Location())
		})
	}
}

func TestCalculateBusinessDate_AdjustedStart(t *testing.T) {
	calc := newTestCalculator(t)

	res, err := calc.CalculateBusinessDate(context.Background(), local(2025, 1, 18, 15, 0), 0, 1)
	require.NoError(t, err)

	assert.True(t, res.AdjustedStartInstant.Equal(local(2025, 1, 17, 17, 0)))
	assert.True(t, res.ResultInstant.Equal(local(2025, 1, 20, 9, 0)))
}

func TestAddBusinessHours_IgnoresSeconds(t *testing.T) {
	calc := newTestCalculator(t)
	start := time.Date(2025, 1, 15, 16, 30, 45, 0, cot)

	got, err := calc.AddBusinessHours(context.Background(), start, 1)
	require.NoError(t, err)
	assert.True(t, got.Equal(local(2025, 1, 16, 8, 30)), "got %v", got)
}

func TestAddBusinessDays(t *testing.T) {
	calc := newTestCalculator(t)
	ctx := context.Background()

	got, err := calc.AddBusinessDays(ctx, local(2025, 1, 10, 10, 15), 5)
	require.NoError(t, err)
	assert.True(t, got.Equal(local(2025, 1, 17, 10, 15)), "got %v", got)

	same, err := calc.AddBusinessDays(ctx, local(2025, 1, 10, 10, 15), 0)
	require.NoError(t, err)
	assert.True(t, same.Equal(local(2025, 1, 10, 10, 15)))
}

func TestCalculateBusinessDate_IterationLimit(t *testing.T) {
	rules, err := calendar.NewRules(everyDay{}, calendar.Config{Location: cot, MaxIterations: 30}, zap.NewNop())
	require.NoError(t, err)
	calc := NewCalculator(rules, zap.NewNop())
	ctx := context.Background()

	_, err = calc.CalculateBusinessDate(ctx, local(2025, 1, 15, 10, 0), 1, 0)
	assert.ErrorIs(t, err, ErrIterationLimit)

	_, err = calc.AddBusinessDays(ctx, local(2025, 1, 15, 10, 0), 1)
	assert.ErrorIs(t, err, ErrIterationLimit)

	_, err = calc.AddBusinessHours(ctx, local(2025, 1, 15, 10, 0), 1)
	assert.ErrorIs(t, err, ErrIterationLimit)
}

func TestCalculateBusinessDate_OversizedHours(t *testing.T) {
	calc := newTestCalculator(t)
	ctx := context.Background()
	start := local(2025, 1, 15, 10, 0)

	_, err := calc.CalculateBusinessDate(ctx, start, 0, 3000000)
	assert.ErrorIs(t, err, ErrInvalidParameters)

	_, err = calc.AddBusinessHours(ctx, start, 3000000)
	assert.ErrorIs(t, err, ErrInvalidParameters)

	_, err = calc.AddBusinessDays(ctx, start, MaxDays+1)
	assert.ErrorIs(t, err, ErrInvalidParameters)
}

func TestCalculateBusinessDate_LargeHoursMoveForward(t *testing.T) {
	calc := newTestCalculator(t)
	start := local(2025, 1, 15, 10, 0)

	res, err := calc.CalculateBusinessDate(context.Background(), start, 0, 2000)
	require.NoError(t, err)

	// 2000h is 250 full days, so roughly a year later
	assert.True(t, res.ResultInstant.After(start.AddDate(0, 11, 0)), "got %v", res.ResultInstant)
}

func TestCalculateBusinessDate_Cancelled(t *testing.T) {
	calc := newTestCalculator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := calc.CalculateBusinessDate(ctx, local(2025, 1, 15, 10, 0), MaxDays, 0)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = calc.AddBusinessHours(ctx, local(2025, 1, 15, 10, 0), 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidateParameters(t *testing.T) {
	tests := []struct {
		name    string
		days    int
		hours   int
		wantErr bool
		field   string
	}{
		{"days only", 1, 0, false, ""},
		{"hours only", 0, 1, false, ""},
		{"both", 2, 3, false, ""},
		{"neither", 0, 0, true, ""},
		{"negative days", -1, 0, true, "days"},
		{"negative hours", 1, -2, true, "hours"},
		{"days at limit", MaxDays, 0, false, ""},
		{"hours at limit", 0, MaxHours, false, ""},
		{"too many days", MaxDays + 1, 0, true, "days"},
		{"too many hours", 0, MaxHours + 1, true, "hours"},
		// would wrap time.Duration negative if accepted
		{"hours past duration range", 0, 3000000, true, "hours"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateParameters(tt.days, tt.hours)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidParameters))

			var perr *ParameterError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.field, perr.Field)
		})
	}

	_, err := newTestCalculator(t).CalculateBusinessDate(context.Background(), local(2025, 1, 15, 10, 0), 0, 0)
	assert.ErrorIs(t, err, ErrInvalidParameters)
}
