// Package holiday acquires the set of non-business dates.
//
// A Source caches the remote list for a fixed window and never surfaces
// fetch errors: callers always get a usable set, possibly stale or taken
// from the static fallback list.
package holiday

import (
	"context"
	"sync"
	"time"

	"github.com/username/workdays-api/pkg/dateutil"
	"go.uber.org/zap"
)

const (
	DefaultCacheTTL = 24 * time.Hour

	// DefaultRetryBackoff is how long stale data is served after a failed
	// refresh before the next lookup tries the remote again
	DefaultRetryBackoff = time.Minute
)

// Snapshot is one immutable state of the holiday cache
type Snapshot struct {
	Holidays     Set
	LastFetch    time.Time
	Valid        bool
	FromFallback bool

	lastAttempt time.Time
}

// Source owns the holiday cache
type Source struct {
	fetcher  Fetcher
	clock    dateutil.Clock
	cacheTTL time.Duration
	backoff  time.Duration
	fallback []string
	logger   *zap.Logger

	cacheMu sync.RWMutex
	cache   *Snapshot // replaced as a whole, never mutated

	fetchMu sync.Mutex // at most one fetch in flight
}

// NewSource creates a Source. A nil clock means the system clock and a nil
// fallback means the built-in list.
func NewSource(fetcher Fetcher, cacheTTL time.Duration, clock dateutil.Clock, fallback []string, logger *zap.Logger) *Source {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	if clock == nil {
		clock = dateutil.RealClock{}
	}
	if fallback == nil {
		fallback = DefaultFallback()
	}

	return &Source{
		fetcher:  fetcher,
		clock:    clock,
		cacheTTL: cacheTTL,
		backoff:  DefaultRetryBackoff,
		fallback: fallback,
		logger:   logger,
		cache:    &Snapshot{Holidays: Set{}},
	}
}

// SetRetryBackoff changes the pause after a failed refresh. Zero or less
// disables it, so every lookup on stale data tries the remote again.
// Call it before the Source is shared.
func (s *Source) SetRetryBackoff(d time.Duration) {
	if d < 0 {
		d = 0
	}
	s.backoff = d
}

// Holidays returns the current holiday set, refreshing it when stale
func (s *Source) Holidays(ctx context.Context) Set {
	if snap, ok := s.fresh(); ok {
		s.logger.Debug("Using cached holidays", zap.Int("count", snap.Holidays.Len()))
		return snap.Holidays
	}

	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()

	// Another caller may have refreshed while we waited
	if snap, ok := s.fresh(); ok {
		return snap.Holidays
	}

	return s.refreshLocked(ctx).Holidays
}

// IsHoliday reports whether the local calendar date of t is a holiday
func (s *Source) IsHoliday(ctx context.Context, t time.Time) bool {
	return s.Holidays(ctx).Contains(t)
}

// IsBusinessDay reports whether t falls on a weekday that is not a holiday
func (s *Source) IsBusinessDay(ctx context.Context, t time.Time) bool {
	if !dateutil.IsWeekday(t) {
		return false
	}
	return !s.IsHoliday(ctx, t)
}

// Refresh forces one fetch attempt regardless of cache age
func (s *Source) Refresh(ctx context.Context) Snapshot {
	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()

	return *s.refreshLocked(ctx)
}

// Snapshot returns the current cache state without triggering I/O
func (s *Source) Snapshot() Snapshot {
	return *s.load()
}

// ClearCache resets the cache to its empty, invalid state
func (s *Source) ClearCache() {
	s.store(&Snapshot{Holidays: Set{}})
	s.logger.Info("Holiday cache cleared")
}

func (s *Source) fresh() (*Snapshot, bool) {
	snap := s.load()
	if !snap.Valid {
		return snap, false
	}

	now := s.clock.Now()
	if now.Sub(snap.LastFetch) < s.cacheTTL {
		return snap, true
	}
	if s.backoff > 0 && !snap.lastAttempt.IsZero() && now.Sub(snap.lastAttempt) < s.backoff {
		return snap, true
	}
	return snap, false
}

// refreshLocked must be called with fetchMu held
func (s *Source) refreshLocked(ctx context.Context) *Snapshot {
	now := s.clock.Now()

	dates, err := s.fetcher.Fetch(ctx)
	if err == nil {
		err = validateDates(dates)
	}

	if err == nil {
		snap := &Snapshot{
			Holidays:  NewSet(dates),
			LastFetch: now,
			Valid:     true,
		}
		s.store(snap)
		s.logger.Info("Holidays fetched", zap.Int("count", snap.Holidays.Len()))
		return snap
	}

	current := s.load()
	if current.Valid {
		// Stale real data beats the static list
		s.logger.Warn("Failed to fetch holidays, serving cached data",
			zap.Time("last_fetch", current.LastFetch),
			zap.Bool("from_fallback", current.FromFallback),
			zap.Error(err))

		retained := *current
		retained.lastAttempt = now
		s.store(&retained)
		return &retained
	}

	snap := &Snapshot{
		Holidays:     NewSet(s.fallback),
		LastFetch:    now,
		Valid:        true,
		FromFallback: true,
	}
	s.store(snap)
	s.logger.Warn("Failed to fetch holidays, using fallback list",
		zap.Int("count", snap.Holidays.Len()),
		zap.Error(err))
	return snap
}

func (s *Source) load() *Snapshot {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return s.cache
}

func (s *Source) store(snap *Snapshot) {
	s.cacheMu.Lock()
	s.cache = snap
	s.cacheMu.Unlock()
}
