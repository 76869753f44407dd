package hashing

import (
	"fmt"
	"math/big"

	"github.com/cespare/xxhash/v2"
	"github.com/twmb/murmur3"

	"github.com/arloliu/bitrec/combin"
	"github.com/arloliu/bitrec/errs"
	"github.com/arloliu/bitrec/internal/endian"
)

// DefaultSeed is the seed used when a strategy is created without one.
const DefaultSeed uint64 = 9001

// Strategy derives k positions in [0, n) from the field bytes of one value.
type Strategy interface {
	// Positions appends k positions to dst and returns the extended slice.
	Positions(dst []uint64, data []byte, k int, n uint64) []uint64
	// Distinct reports whether the k positions are always pairwise distinct.
	Distinct() bool
}

// DoubleHashing derives positions from two xxHash64 digests: h0 seeded with Seed and h1
// seeded with h0. Position i is ((h0 + i*h1) >> 1) mod n for i in [1, k].
type DoubleHashing struct {
	Seed uint64
}

var _ Strategy = DoubleHashing{}

func (s DoubleHashing) Positions(dst []uint64, data []byte, k int, n uint64) []uint64 {
	d := xxhash.NewWithSeed(s.Seed)
	_, _ = d.Write(data)
	h0 := d.Sum64()

	d.ResetWithSeed(h0)
	_, _ = d.Write(data)
	h1 := d.Sum64()

	for i := 1; i <= k; i++ {
		dst = append(dst, ((h0+uint64(i)*h1)>>1)%n)
	}

	return dst
}

func (DoubleHashing) Distinct() bool { return false }

// Seeded hashes the data k times with murmur3, using seeds Seed, Seed+1, ..., Seed+k-1.
type Seeded struct {
	Seed uint64
}

var _ Strategy = Seeded{}

func (s Seeded) Positions(dst []uint64, data []byte, k int, n uint64) []uint64 {
	for i := range k {
		dst = append(dst, murmur3.SeedSum64(s.Seed+uint64(i), data)%n)
	}

	return dst
}

func (Seeded) Distinct() bool { return false }

// Distinct treats a wide murmur3 digest of the data as a rank in the combinatorial number
// system and unranks it into k pairwise distinct positions. The digest is widened with
// further 128-bit blocks until it exceeds C(n, k) by at least 64 bits, which keeps the
// modulo bias negligible.
type Distinct struct {
	Seed uint64
}

var _ Strategy = Distinct{}

func (s Distinct) Positions(dst []uint64, data []byte, k int, n uint64) []uint64 {
	space := combin.Binomial(n, uint64(k))
	blocks := (space.BitLen() + 64 + 127) / 128

	digest := make([]byte, 0, blocks*16)
	for b := range blocks {
		seed := s.Seed + uint64(b)
		hi, lo := murmur3.SeedSum128(seed, seed, data)
		digest = endian.Big().AppendUint64(digest, hi)
		digest = endian.Big().AppendUint64(digest, lo)
	}

	rank := new(big.Int).SetBytes(digest)
	rank.Mod(rank, space)

	subset, err := combin.Unrank(rank, k, n)
	if err != nil {
		// rank < C(n, k) and k <= n are guaranteed by the callers
		panic(err)
	}

	return append(dst, subset...)
}

func (Distinct) Distinct() bool { return true }

// MultiHash computes k positions in [0, n) for values of type T.
// It reuses internal buffers and is not safe for concurrent use.
type MultiHash[T any] struct {
	enc      Encoder[T]
	strategy Strategy
	k        int
	n        uint64
	h        Hasher
	out      []uint64
}

// NewMultiHash creates a MultiHash. It requires 1 <= k <= n.
func NewMultiHash[T any](enc Encoder[T], strategy Strategy, k int, n uint64) (*MultiHash[T], error) {
	if enc == nil || strategy == nil {
		return nil, fmt.Errorf("nil encoder or strategy: %w", errs.ErrInvalidParameter)
	}
	if k < 1 || n < 1 || uint64(k) > n {
		return nil, fmt.Errorf("%d positions in [0, %d): %w", k, n, errs.ErrInvalidParameter)
	}

	return &MultiHash[T]{
		enc:      enc,
		strategy: strategy,
		k:        k,
		n:        n,
		out:      make([]uint64, 0, k),
	}, nil
}

// K returns the number of positions per value.
func (m *MultiHash[T]) K() int { return m.k }

// N returns the size of the position range.
func (m *MultiHash[T]) N() uint64 { return m.n }

// Strategy returns the position strategy.
func (m *MultiHash[T]) Strategy() Strategy { return m.strategy }

// Positions returns the positions of v. The slice is reused by the next call.
func (m *MultiHash[T]) Positions(v T) []uint64 {
	m.h.Reset()
	m.enc(&m.h, v)
	m.out = m.strategy.Positions(m.out[:0], m.h.Data(), m.k, m.n)

	return m.out
}

// Key returns the field bytes and xxHash64 of v. The bytes identify v exactly and are
// reused by the next call.
func (m *MultiHash[T]) Key(v T) ([]byte, uint64) {
	m.h.Reset()
	m.enc(&m.h, v)

	return m.h.Data(), m.h.Sum64()
}
