package holiday

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// builtinFallback lists Colombian public holidays for 2025-2026.
// Used only when no remote fetch has ever succeeded.
var builtinFallback = []string{
	"2025-01-01", "2025-01-06", "2025-03-24", "2025-04-17", "2025-04-18",
	"2025-05-01", "2025-06-02", "2025-06-23", "2025-06-30", "2025-08-07",
	"2025-08-18", "2025-10-13", "2025-11-03", "2025-11-17", "2025-12-08",
	"2025-12-25", "2026-01-01", "2026-01-12", "2026-03-23", "2026-04-02",
	"2026-04-03", "2026-05-01", "2026-05-18", "2026-06-08", "2026-06-15",
	"2026-06-29", "2026-07-20", "2026-08-07", "2026-08-17", "2026-10-12",
	"2026-11-02", "2026-11-16", "2026-12-08", "2026-12-25",
}

// DefaultFallback returns a copy of the built-in fallback list
func DefaultFallback() []string {
	out := make([]string, len(builtinFallback))
	copy(out, builtinFallback)
	return out
}

// fallbackFile is the YAML layout of a fallback holiday file:
//
//	holidays:
//	  - "2027-01-01"
//	  - "2027-01-11"
type fallbackFile struct {
	Holidays []string `yaml:"holidays"`
}

// LoadFallbackFile reads a fallback holiday list from a YAML file
func LoadFallbackFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fallback file: %w", err)
	}

	var file fallbackFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse fallback file: %w", err)
	}

	if err := validateDates(file.Holidays); err != nil {
		return nil, fmt.Errorf("invalid fallback file %s: %w", path, err)
	}

	return file.Holidays, nil
}
