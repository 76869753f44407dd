// Package bloom implements a Bloom membership filter over any value type that has a
// hashing.Encoder.
//
// The filter answers "definitely absent" or "possibly present". It never reports a false
// negative. Sized with New, the false positive rate after inserting the expected number
// of elements is close to the requested probability.
package bloom

import (
	"fmt"
	"math"

	"github.com/c2h5oh/datasize"

	"github.com/arloliu/bitrec/bitarray"
	"github.com/arloliu/bitrec/errs"
	"github.com/arloliu/bitrec/hashing"
	"github.com/arloliu/bitrec/internal/options"
)

// Config holds the filter options.
type Config struct {
	// Strategy derives the bit positions of a value.
	Strategy hashing.Strategy
	// MaxSize caps the bit array size. Zero means no cap.
	MaxSize datasize.ByteSize
}

// Option is a functional option for Config.
type Option = options.Option[*Config]

// WithStrategy sets the position strategy. The default is double hashing.
func WithStrategy(s hashing.Strategy) Option {
	return options.New(func(cfg *Config) error {
		if s == nil {
			return fmt.Errorf("nil strategy: %w", errs.ErrInvalidParameter)
		}
		cfg.Strategy = s

		return nil
	})
}

// WithMaxSize rejects filters whose bit array would exceed size.
func WithMaxSize(size datasize.ByteSize) Option {
	return options.NoError(func(cfg *Config) {
		cfg.MaxSize = size
	})
}

// Filter is a Bloom filter for values of type T. It is not safe for concurrent use.
type Filter[T any] struct {
	bits *bitarray.BitArray
	hash *hashing.MultiHash[T]
}

// OptimalSize returns the capacity in bits and the number of hashes that give a false
// positive rate of fpp after inserting expected elements.
//
// capacity = ceil(-expected * ln(fpp) / ln(2)^2), hashes = max(1, round(capacity/expected * ln(2)))
func OptimalSize(expected uint64, fpp float64) (capacity uint64, hashes int, err error) {
	if expected == 0 {
		return 0, 0, fmt.Errorf("expected elements 0: %w", errs.ErrInvalidParameter)
	}
	if !(fpp > 0 && fpp < 1) {
		return 0, 0, fmt.Errorf("false positive probability %v: %w", fpp, errs.ErrInvalidParameter)
	}

	m := math.Ceil(-float64(expected) * math.Log(fpp) / (math.Ln2 * math.Ln2))
	if m >= math.MaxUint64 {
		return 0, 0, fmt.Errorf("filter for %d elements at %v: %w", expected, fpp, errs.ErrCapacity)
	}
	capacity = max(uint64(m), 1)
	hashes = max(int(math.Round(float64(capacity)/float64(expected)*math.Ln2)), 1)
	hashes = int(min(uint64(hashes), capacity))

	return capacity, hashes, nil
}

// New creates a filter sized for expected elements at false positive probability fpp.
func New[T any](expected uint64, fpp float64, enc hashing.Encoder[T], opts ...Option) (*Filter[T], error) {
	capacity, hashes, err := OptimalSize(expected, fpp)
	if err != nil {
		return nil, err
	}

	return NewBySize(capacity, hashes, enc, opts...)
}

// NewBySize creates a filter of capacity bits using hashes positions per value.
func NewBySize[T any](capacity uint64, hashes int, enc hashing.Encoder[T], opts ...Option) (*Filter[T], error) {
	cfg := Config{Strategy: hashing.DoubleHashing{Seed: hashing.DefaultSeed}}
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	if cfg.MaxSize > 0 && (capacity+7)/8 > cfg.MaxSize.Bytes() {
		return nil, fmt.Errorf("filter of %s exceeds %s: %w",
			datasize.ByteSize((capacity+7)/8).HumanReadable(), cfg.MaxSize.HumanReadable(), errs.ErrCapacity)
	}

	mh, err := hashing.NewMultiHash(enc, cfg.Strategy, hashes, capacity)
	if err != nil {
		return nil, err
	}

	return &Filter[T]{bits: bitarray.New(capacity), hash: mh}, nil
}

// Add inserts v and reports whether all of its bits were already set, that is whether
// v was possibly present before the call. Adding a value twice changes nothing.
func (f *Filter[T]) Add(v T) bool {
	present := true
	for _, p := range f.hash.Positions(v) {
		// positions are always below the capacity
		was, _ := f.bits.TestAndSet(p)
		present = present && was
	}

	return present
}

// MightContain reports whether v is possibly present. False means v was never added.
func (f *Filter[T]) MightContain(v T) bool {
	for _, p := range f.hash.Positions(v) {
		if !f.bits.Get(p) {
			return false
		}
	}

	return true
}

// Capacity returns the number of bits.
func (f *Filter[T]) Capacity() uint64 { return f.bits.Size() }

// NumHashes returns the number of positions per value.
func (f *Filter[T]) NumHashes() int { return f.hash.K() }

// Ones returns the number of set bits.
func (f *Filter[T]) Ones() uint64 { return f.bits.Count() }

// FalsePositiveRate returns the current false positive probability (ones/capacity)^k.
func (f *Filter[T]) FalsePositiveRate() float64 {
	return math.Pow(float64(f.Ones())/float64(f.Capacity()), float64(f.NumHashes()))
}

// Size returns the memory held by the bit array.
func (f *Filter[T]) Size() datasize.ByteSize {
	return datasize.ByteSize(f.bits.LenBytes())
}

// Union adds every element of other to f. Both filters must share capacity, hash count
// and strategy.
func (f *Filter[T]) Union(other *Filter[T]) error {
	if f.NumHashes() != other.NumHashes() || f.hash.Strategy() != other.hash.Strategy() {
		return fmt.Errorf("filters use different hashing: %w", errs.ErrInvalidParameter)
	}

	return f.bits.Or(other.bits)
}

// Reset clears every bit.
func (f *Filter[T]) Reset() {
	f.bits.Clear()
}
