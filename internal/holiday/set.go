package holiday

import (
	"fmt"
	"sort"
	"time"

	"github.com/username/workdays-api/pkg/dateutil"
)

// Set is a set of YYYY-MM-DD calendar dates interpreted in local civil time
type Set map[string]struct{}

// NewSet builds a Set from date strings. Duplicates collapse.
func NewSet(dates []string) Set {
	s := make(Set, len(dates))
	for _, d := range dates {
		s[d] = struct{}{}
	}
	return s
}

// Contains reports whether the calendar date of t (in t's location) is in the set
func (s Set) Contains(t time.Time) bool {
	_, ok := s[dateutil.DateKey(t)]
	return ok
}

// Len returns the number of dates
func (s Set) Len() int {
	return len(s)
}

// Dates returns the dates in ascending order
func (s Set) Dates() []string {
	out := make([]string, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// validateDates rejects an empty list or any entry that is not a YYYY-MM-DD date
func validateDates(dates []string) error {
	if len(dates) == 0 {
		return fmt.Errorf("holiday list is empty")
	}
	for i, d := range dates {
		if _, err := dateutil.ParseDate(d, time.UTC); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return nil
}
