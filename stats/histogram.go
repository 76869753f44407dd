package stats

import (
	"cmp"
	"slices"
)

// DefaultMaxBuckets bounds the frequency histogram of each column.
const DefaultMaxBuckets = 4096

// Bucket counts the ordinals in [Lo, Hi].
type Bucket struct {
	Lo    uint64 `json:"lo"`
	Hi    uint64 `json:"hi"`
	Count uint64 `json:"count"`
}

// Mid returns the midpoint of the bucket, rounded down.
func (b Bucket) Mid() uint64 {
	return b.Lo + (b.Hi-b.Lo)/2
}

// histogram maps ordinal>>shift to a frequency. When it grows beyond max entries the
// bucket width doubles and neighbouring entries merge.
type histogram struct {
	shift   uint8
	max     int
	buckets map[uint64]uint64
}

func newHistogram(maxBuckets int) *histogram {
	return &histogram{max: maxBuckets, buckets: make(map[uint64]uint64)}
}

func (h *histogram) add(o uint64) {
	h.buckets[o>>h.shift]++
	for len(h.buckets) > h.max {
		h.coarsen()
	}
}

func (h *histogram) coarsen() {
	merged := make(map[uint64]uint64, len(h.buckets)/2+1)
	for k, v := range h.buckets {
		merged[k>>1] += v
	}
	h.buckets = merged
	h.shift++
}

// span is the bucket width minus one.
func (h *histogram) span() uint64 {
	return ^uint64(0) >> (64 - h.shift)
}

// freeze returns the buckets sorted by Lo, clamped to [lo, hi].
func (h *histogram) freeze(lo, hi uint64) []Bucket {
	out := make([]Bucket, 0, len(h.buckets))
	span := h.span()
	for k, v := range h.buckets {
		start := k << h.shift
		b := Bucket{Lo: max(start, lo), Hi: min(start+span, hi), Count: v}
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b Bucket) int { return cmp.Compare(a.Lo, b.Lo) })

	return out
}
