// Package extraction recovers the identity fields from reconstructed
// e-Aadhaar document text.
package extraction

import (
	"fmt"

	"github.com/a3tai/mcp-aadhaar-reader/internal/identity"
)

// FallbackPolicy decides what the fallback tier accepts as an ID number
type FallbackPolicy string

const (
	// FallbackStrict accepts only candidates passing the full ID validation
	FallbackStrict FallbackPolicy = "strict"
	// FallbackLenient accepts the first 12-digit run regardless of checksum
	FallbackLenient FallbackPolicy = "lenient"
)

// Defaults
const (
	DefaultContextWindow    = 150
	DefaultGenderDateWindow = 50
)

// Options tunes the field extractors
type Options struct {
	// ContextWindow is the number of characters inspected on each side of an ID candidate
	ContextWindow int `json:"context_window"`
	// GenderDateWindow is how far after a gender keyword a date is taken as the birth date
	GenderDateWindow int `json:"gender_date_window"`
	// MaxBirthYear is the latest accepted birth year
	MaxBirthYear int `json:"max_birth_year"`
	// FallbackPolicy controls the fallback tier's ID acceptance
	FallbackPolicy FallbackPolicy `json:"fallback_policy"`
	// Denylist holds words that never appear in a name
	Denylist identity.Denylist `json:"-"`
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{
		ContextWindow:    DefaultContextWindow,
		GenderDateWindow: DefaultGenderDateWindow,
		MaxBirthYear:     identity.DefaultMaxBirthYear,
		FallbackPolicy:   FallbackStrict,
		Denylist:         identity.NewDenylist(),
	}
}

// Validate checks the options for consistency
func (o Options) Validate() error {
	if o.ContextWindow <= 0 {
		return fmt.Errorf("context window must be positive, got %d", o.ContextWindow)
	}
	if o.GenderDateWindow <= 0 {
		return fmt.Errorf("gender-date window must be positive, got %d", o.GenderDateWindow)
	}
	if o.MaxBirthYear < identity.MinBirthYear {
		return fmt.Errorf("max birth year must be at least %d, got %d", identity.MinBirthYear, o.MaxBirthYear)
	}
	switch o.FallbackPolicy {
	case FallbackStrict, FallbackLenient:
	default:
		return fmt.Errorf("unknown fallback policy %q (want strict or lenient)", o.FallbackPolicy)
	}
	return nil
}

// WithDefaults fills zero values from DefaultOptions
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.ContextWindow <= 0 {
		o.ContextWindow = d.ContextWindow
	}
	if o.GenderDateWindow <= 0 {
		o.GenderDateWindow = d.GenderDateWindow
	}
	if o.MaxBirthYear == 0 {
		o.MaxBirthYear = d.MaxBirthYear
	}
	if o.FallbackPolicy == "" {
		o.FallbackPolicy = d.FallbackPolicy
	}
	if o.Denylist == nil {
		o.Denylist = d.Denylist
	}
	return o
}
