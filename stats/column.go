package stats

import (
	"math"
	"math/bits"
	"slices"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/cespare/xxhash/v2"

	"github.com/arloliu/bitrec/record"
	"github.com/arloliu/bitrec/ucode"
)

// EscapeBits is the cost of the raw ordinal that follows an escape symbol.
const EscapeBits = 64

// ColumnStats summarises one column. It is a value snapshot; the bucket slice is private
// and only handed out as a copy.
type ColumnStats struct {
	Name     string
	Type     record.Type
	Nullable bool
	// Count is the number of non-null values.
	Count uint64
	Nulls uint64
	// Min and Max are ordinals; both are zero when Count is zero.
	Min uint64
	Max uint64
	// Distinct counts distinct values. String and byte columns count distinct content
	// digests.
	Distinct uint64
	// PayloadBytes is the total length of string and byte values.
	PayloadBytes uint64
	// MeanSymbol is the mean of ordinal-Min over non-null values.
	MeanSymbol float64
	// BucketShift is log2 of the histogram bucket width.
	BucketShift uint8

	buckets []Bucket
}

// Records returns Count+Nulls.
func (c ColumnStats) Records() uint64 { return c.Count + c.Nulls }

// Range returns Max-Min, the largest value symbol offset.
func (c ColumnStats) Range() uint64 { return c.Max - c.Min }

// Exact reports whether the histogram holds one bucket per distinct ordinal.
func (c ColumnStats) Exact() bool { return c.BucketShift == 0 }

// Buckets returns a copy of the frequency histogram.
func (c ColumnStats) Buckets() []Bucket { return slices.Clone(c.buckets) }

// ExpectedBits returns the bits needed to code every record of the column with code when
// the first reserved symbols are taken by the null marker (symbol 0, nullable columns
// only) and the escape (symbol reserved-1). Value ordinals map to reserved+ordinal-Min.
// Values outside the code's domain cost the escape plus EscapeBits. String and byte
// payloads add 8 bits per byte.
//
// The result is exact when Exact() is true and an estimate using bucket midpoints
// otherwise. It saturates at math.MaxUint64, which also marks a code that cannot
// represent the column at all.
func (c ColumnStats) ExpectedBits(code ucode.Code, reserved uint64) uint64 {
	var total saturating

	if c.Nulls > 0 {
		total.add(c.Nulls, code.BitLength(0))
	}

	escape := uint64(math.MaxUint64)
	if reserved > 0 && ucode.InDomain(code, reserved-1) {
		escape = code.BitLength(reserved-1) + EscapeBits
	}

	for _, b := range c.buckets {
		cost := escape
		if sym, carry := bits.Add64(reserved, b.Mid()-c.Min, 0); carry == 0 && ucode.InDomain(code, sym) {
			cost = code.BitLength(sym)
		}
		total.add(b.Count, cost)
	}

	total.add(c.PayloadBytes, 8)

	return total.v
}

type saturating struct{ v uint64 }

func (s *saturating) add(count, cost uint64) {
	hi, lo := bits.Mul64(count, cost)
	sum, carry := bits.Add64(s.v, lo, 0)
	if hi != 0 || carry != 0 {
		s.v = math.MaxUint64
		return
	}
	s.v = sum
}

// accumulator gathers the statistics of one column during a pass.
type accumulator struct {
	col      record.Column
	count    uint64
	nulls    uint64
	min, max uint64
	sumHi    uint64
	sumLo    uint64
	payload  uint64
	distinct *roaring64.Bitmap
	hist     *histogram
}

func newAccumulator(col record.Column, maxBuckets int) *accumulator {
	return &accumulator{
		col:      col,
		min:      math.MaxUint64,
		distinct: roaring64.New(),
		hist:     newHistogram(maxBuckets),
	}
}

func (a *accumulator) add(v any) error {
	if v == nil {
		a.nulls++
		return nil
	}

	o, err := record.Ordinal(a.col.Type, v)
	if err != nil {
		return err
	}

	a.count++
	a.min = min(a.min, o)
	a.max = max(a.max, o)

	var carry uint64
	a.sumLo, carry = bits.Add64(a.sumLo, o, 0)
	a.sumHi += carry

	switch x := v.(type) {
	case string:
		a.payload += o
		a.distinct.Add(xxhash.Sum64String(x))
	case []byte:
		a.payload += o
		a.distinct.Add(xxhash.Sum64(x))
	default:
		a.distinct.Add(o)
	}
	a.hist.add(o)

	return nil
}

func (a *accumulator) snapshot() ColumnStats {
	cs := ColumnStats{
		Name:         a.col.Name,
		Type:         a.col.Type,
		Nullable:     a.col.Nullable,
		Count:        a.count,
		Nulls:        a.nulls,
		PayloadBytes: a.payload,
		Distinct:     a.distinct.GetCardinality(),
		BucketShift:  a.hist.shift,
	}
	if a.count == 0 {
		return cs
	}

	cs.Min, cs.Max = a.min, a.max
	cs.buckets = a.hist.freeze(a.min, a.max)

	// mean of (o - min) from the 128-bit ordinal sum
	hi, lo := bits.Mul64(a.count, a.min)
	lo, borrow := bits.Sub64(a.sumLo, lo, 0)
	hi, _ = bits.Sub64(a.sumHi, hi, borrow)
	cs.MeanSymbol = (float64(hi)*0x1p64 + float64(lo)) / float64(a.count)

	return cs
}
