// Package hashing turns values into deterministic digests and derives several hash
// positions from one value.
//
// A Hasher collects the salient fields of a value in order; equal field sequences always
// produce equal digests. Variable-length fields are length-prefixed, so ("ab", "c") and
// ("a", "bc") hash differently. An Encoder describes how a value of some type is fed to a
// Hasher, and a Strategy expands the collected bytes into k positions in [0, n).
package hashing

import (
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/twmb/murmur3"

	"github.com/arloliu/bitrec/internal/endian"
)

// Field tags written ahead of record fields.
const (
	tagNull byte = iota
	tagInt64
	tagUint64
	tagFloat64
	tagBool
	tagString
	tagBytes
)

// Hasher accumulates fields for hashing. The zero value is ready to use.
type Hasher struct {
	buf []byte
}

// NewHasher creates a Hasher with room for size bytes of fields.
func NewHasher(size int) *Hasher {
	return &Hasher{buf: make([]byte, 0, size)}
}

// Reset discards all fields but keeps the buffer.
func (h *Hasher) Reset() {
	h.buf = h.buf[:0]
}

// Uint64 appends v.
func (h *Hasher) Uint64(v uint64) {
	h.buf = endian.Big().AppendUint64(h.buf, v)
}

// Int64 appends v.
func (h *Hasher) Int64(v int64) {
	h.Uint64(uint64(v))
}

// Float64 appends the IEEE bits of f, so negative zero and zero differ as they do in
// the record codec.
func (h *Hasher) Float64(f float64) {
	h.Uint64(math.Float64bits(f))
}

// Bool appends b.
func (h *Hasher) Bool(b bool) {
	if b {
		h.buf = append(h.buf, 1)
		return
	}
	h.buf = append(h.buf, 0)
}

// String appends the length of s followed by its bytes.
func (h *Hasher) String(s string) {
	h.Uint64(uint64(len(s)))
	h.buf = append(h.buf, s...)
}

// Bytes appends the length of p followed by its contents.
func (h *Hasher) Bytes(p []byte) {
	h.Uint64(uint64(len(p)))
	h.buf = append(h.buf, p...)
}

// Data returns the collected field bytes. The slice is only valid until the next call
// that modifies h.
func (h *Hasher) Data() []byte {
	return h.buf
}

// Sum64 returns the xxHash64 digest of the collected fields.
func (h *Hasher) Sum64() uint64 {
	return xxhash.Sum64(h.buf)
}

// Sum128 returns the 128-bit murmur3 digest of the collected fields.
func (h *Hasher) Sum128() (hi, lo uint64) {
	return murmur3.Sum128(h.buf)
}

// Hash64 returns the xxHash64 of a single string.
func Hash64(s string) uint64 {
	return xxhash.Sum64String(s)
}
