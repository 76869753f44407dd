package selector

import (
	"fmt"
	"slices"

	"github.com/arloliu/bitrec/errs"
	"github.com/arloliu/bitrec/internal/options"
)

// DefaultUnaryLimit is the largest symbol for which unary coding is considered.
const DefaultUnaryLimit = 64

// PolicyConfig controls which candidate codes are evaluated.
type PolicyConfig struct {
	// GolombDivisors replaces the divisors derived from the column mean when non-empty.
	GolombDivisors []uint64
	// RiceMin and RiceMax bound the Rice widths when RiceRange is set.
	RiceMin, RiceMax uint8
	RiceRange        bool
	// UnaryLimit is the largest symbol for which unary is a candidate.
	UnaryLimit uint64
	// TruncatedBinary enables the truncated binary candidate.
	TruncatedBinary bool
}

func defaultPolicy() PolicyConfig {
	return PolicyConfig{
		UnaryLimit:      DefaultUnaryLimit,
		TruncatedBinary: true,
	}
}

// Option is a functional option for PolicyConfig.
type Option = options.Option[*PolicyConfig]

// WithGolombDivisors evaluates exactly the given Golomb divisors.
func WithGolombDivisors(divisors ...uint64) Option {
	return options.New(func(cfg *PolicyConfig) error {
		if len(divisors) == 0 || slices.Contains(divisors, 0) {
			return fmt.Errorf("golomb divisors %v: %w", divisors, errs.ErrInvalidParameter)
		}
		cfg.GolombDivisors = slices.Clone(divisors)

		return nil
	})
}

// WithRiceRange evaluates Rice widths in [lo, hi].
func WithRiceRange(lo, hi uint8) Option {
	return options.New(func(cfg *PolicyConfig) error {
		if lo > hi || hi > 63 {
			return fmt.Errorf("rice range [%d, %d]: %w", lo, hi, errs.ErrInvalidParameter)
		}
		cfg.RiceMin, cfg.RiceMax, cfg.RiceRange = lo, hi, true

		return nil
	})
}

// WithUnaryLimit sets the largest symbol for which unary is considered. Zero disables
// the unary candidate unless every symbol is zero.
func WithUnaryLimit(limit uint64) Option {
	return options.NoError(func(cfg *PolicyConfig) {
		cfg.UnaryLimit = limit
	})
}

// WithTruncatedBinary enables or disables the truncated binary candidate.
func WithTruncatedBinary(enabled bool) Option {
	return options.NoError(func(cfg *PolicyConfig) {
		cfg.TruncatedBinary = enabled
	})
}
