// Package unique decides whether a stream contains a repeated value using two passes and
// memory bounded by the false positive count of a Bloom filter.
//
// Pass 1 adds every value to a filter. A value the filter already reports as present is
// only a candidate, since the filter has false positives; it becomes a definite duplicate
// when it is already among the candidates. A pass 1 that leaves no candidates proves the
// stream unique. Otherwise pass 2 rescans the stream and counts only the candidates; a
// candidate sighted twice is a duplicate.
//
// Checker exposes the passes step by step, Check drives them over a re-iterable
// sequence, and Consumer plugs the check into a pipeline.
package unique

import (
	"errors"
	"fmt"
	"iter"

	"github.com/c2h5oh/datasize"

	"github.com/arloliu/bitrec/bloom"
	"github.com/arloliu/bitrec/errs"
	"github.com/arloliu/bitrec/hashing"
	"github.com/arloliu/bitrec/internal/candidates"
	"github.com/arloliu/bitrec/internal/options"
	"github.com/arloliu/bitrec/pipeline"
)

// DefaultFalsePositiveRate is the filter false positive probability used by default.
const DefaultFalsePositiveRate = 0.01

// Config holds the checker settings.
type Config struct {
	FalsePositiveRate float64
	Strategy          hashing.Strategy
	MaxFilterSize     datasize.ByteSize
	Logger            *pipeline.Logger
}

// Option is a functional option for Config.
type Option = options.Option[*Config]

// WithFalsePositiveRate sets the filter false positive probability. Lower rates mean a
// larger filter and fewer candidates.
func WithFalsePositiveRate(p float64) Option {
	return options.New(func(cfg *Config) error {
		if !(p > 0 && p < 1) {
			return fmt.Errorf("false positive rate %v: %w", p, errs.ErrInvalidParameter)
		}
		cfg.FalsePositiveRate = p

		return nil
	})
}

// WithStrategy sets the filter position strategy.
func WithStrategy(s hashing.Strategy) Option {
	return options.NoError(func(cfg *Config) {
		cfg.Strategy = s
	})
}

// WithMaxFilterSize caps the filter memory.
func WithMaxFilterSize(size datasize.ByteSize) Option {
	return options.NoError(func(cfg *Config) {
		cfg.MaxFilterSize = size
	})
}

// WithLogger sets the logger for pass events.
func WithLogger(l *pipeline.Logger) Option {
	return options.NoError(func(cfg *Config) {
		cfg.Logger = l
	})
}

// Checker runs the two-pass check for values of type T. It is not safe for concurrent use.
type Checker[T any] struct {
	enc      hashing.Encoder[T]
	expected uint64
	cfg      Config
	phase    Phase
	h        hashing.Hasher
}

// New creates a Checker for about expected values.
func New[T any](expected uint64, enc hashing.Encoder[T], opts ...Option) (*Checker[T], error) {
	if enc == nil {
		return nil, fmt.Errorf("nil encoder: %w", errs.ErrInvalidParameter)
	}

	cfg := Config{FalsePositiveRate: DefaultFalsePositiveRate}
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = pipeline.NoopLogger()
	}

	return &Checker[T]{
		enc:      enc,
		expected: max(expected, 1),
		cfg:      cfg,
		phase:    PrePass1{},
	}, nil
}

// Phase returns the current phase.
func (c *Checker[T]) Phase() Phase { return c.phase }

// Verdict returns the outcome so far.
func (c *Checker[T]) Verdict() Verdict {
	switch c.phase.(type) {
	case *PostPass2:
		return Unique
	case *DuplicateFound[T]:
		return Duplicate
	default:
		return Undecided
	}
}

// NeedsPass reports whether another pass has to be started.
func (c *Checker[T]) NeedsPass() bool {
	switch c.phase.(type) {
	case PrePass1, *BetweenPasses:
		return true
	default:
		return false
	}
}

// Duplicate returns the repeated value once one has been found.
func (c *Checker[T]) Duplicate() (*DuplicateFound[T], bool) {
	d, ok := c.phase.(*DuplicateFound[T])
	return d, ok
}

// BeginPass starts pass 1 or pass 2.
func (c *Checker[T]) BeginPass() error {
	switch p := c.phase.(type) {
	case PrePass1:
		var fopts []bloom.Option
		if c.cfg.Strategy != nil {
			fopts = append(fopts, bloom.WithStrategy(c.cfg.Strategy))
		}
		if c.cfg.MaxFilterSize > 0 {
			fopts = append(fopts, bloom.WithMaxSize(c.cfg.MaxFilterSize))
		}
		filter, err := bloom.New(c.expected, c.cfg.FalsePositiveRate, c.enc, fopts...)
		if err != nil {
			return err
		}
		c.phase = &InPass1[T]{filter: filter, candidates: candidates.NewTracker()}
		c.cfg.Logger.Debug("pass 1 started",
			"filter", filter.Size().HumanReadable(), "hashes", filter.NumHashes())

		return nil
	case *BetweenPasses:
		c.phase = &InPass2{candidates: p.candidates}
		return nil
	default:
		return errs.State("unique.BeginPass", c.phase)
	}
}

func (c *Checker[T]) key(v T) ([]byte, uint64) {
	c.h.Reset()
	c.enc(&c.h, v)

	return c.h.Data(), c.h.Sum64()
}

// Observe feeds one value of the current pass. It returns true when v proves the stream
// contains a duplicate; the checker then holds no working memory and accepts no more
// values.
func (c *Checker[T]) Observe(v T) (bool, error) {
	switch p := c.phase.(type) {
	case *InPass1[T]:
		index := p.values
		p.values++
		if !p.filter.Add(v) {
			return false, nil
		}

		key, hash := c.key(v)
		if err := p.candidates.Track(key, hash); err != nil {
			if !errors.Is(err, errs.ErrDuplicateValue) {
				return false, err
			}
			c.found(v, 1, index)

			return true, nil
		}

		return false, nil
	case *InPass2:
		index := p.values
		p.values++

		key, hash := c.key(v)
		if _, repeated := p.candidates.Sighting(key, hash); repeated {
			c.found(v, 2, index)
			return true, nil
		}

		return false, nil
	default:
		return false, errs.State("unique.Observe", c.phase)
	}
}

func (c *Checker[T]) found(v T, pass int, index uint64) {
	c.phase = &DuplicateFound[T]{Value: v, Pass: pass, Index: index}
	c.cfg.Logger.Info("duplicate found", "pass", pass, "index", index)
}

// EndPass finishes the current pass.
func (c *Checker[T]) EndPass() error {
	switch p := c.phase.(type) {
	case *InPass1[T]:
		n := p.candidates.Count()
		c.cfg.Logger.Debug("pass complete", "pass", 1, "values", p.values,
			"candidates", n, "fpp", p.filter.FalsePositiveRate())
		if p.candidates.HasCollision() {
			// exact keys still decide duplicates
			c.cfg.Logger.Warn("candidate hash collision", "candidates", n)
		}
		if n == 0 {
			c.phase = &PostPass2{Passes: 1}
			c.cfg.Logger.Info("stream is unique", "passes", 1)

			return nil
		}
		c.phase = &BetweenPasses{candidates: p.candidates}

		return nil
	case *InPass2:
		c.cfg.Logger.Debug("pass complete", "pass", 2, "values", p.values)
		c.phase = &PostPass2{Passes: 2}
		c.cfg.Logger.Info("stream is unique", "passes", 2)

		return nil
	default:
		return errs.State("unique.EndPass", c.phase)
	}
}

// Check runs the full check over seq, which must yield the same values on every
// iteration. It stops iterating as soon as a duplicate is found.
func Check[T any](seq iter.Seq[T], enc hashing.Encoder[T], expected uint64, opts ...Option) (Verdict, error) {
	c, err := New(expected, enc, opts...)
	if err != nil {
		return Undecided, err
	}

	for c.NeedsPass() {
		if err := c.BeginPass(); err != nil {
			return Undecided, err
		}
		for v := range seq {
			dup, err := c.Observe(v)
			if err != nil {
				return Undecided, err
			}
			if dup {
				return Duplicate, nil
			}
		}
		if err := c.EndPass(); err != nil {
			return Undecided, err
		}
	}

	return c.Verdict(), nil
}
