package ucode

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/arloliu/bitrec/bitio"
	"github.com/arloliu/bitrec/errs"
)

// TruncatedBinary is the minimal prefix-free code for the alphabet [0, m).
//
// With k = floor(log2 m) and u = 2^(k+1) - m, the first u values get k-bit codewords and
// the remaining m-u values get (k+1)-bit codewords holding n+u.
type TruncatedBinary struct {
	m uint64
	k int
	u uint64
}

var _ Code = TruncatedBinary{}

// NewTruncatedBinary creates a truncated binary code for an alphabet of m >= 1 values.
func NewTruncatedBinary(m uint64) (TruncatedBinary, error) {
	if m == 0 {
		return TruncatedBinary{}, fmt.Errorf("truncated binary alphabet 0: %w", errs.ErrInvalidParameter)
	}

	k := bits.Len64(m) - 1
	// for k == 63 the shift yields 0 and the subtraction wraps to 2^64 - m
	u := (uint64(1) << (k + 1)) - m

	return TruncatedBinary{m: m, k: k, u: u}, nil
}

// Size returns the alphabet size m.
func (t TruncatedBinary) Size() uint64 { return t.m }

func (t TruncatedBinary) Encode(w bitio.BitWriter, n uint64) (uint64, error) {
	if n >= t.m {
		return 0, errs.Domain("TruncatedBinary.Encode", n, fmt.Sprintf("alphabet size %d", t.m))
	}

	if n < t.u {
		return uint64(t.k), w.WriteBits(n, t.k)
	}

	return uint64(t.k + 1), w.WriteBits(n+t.u, t.k+1)
}

func (t TruncatedBinary) Decode(r bitio.BitReader) (uint64, error) {
	x, err := r.ReadBits(t.k)
	if err != nil {
		return 0, err
	}
	if x < t.u {
		return x, nil
	}

	bit, err := r.ReadBit()
	if err != nil {
		return 0, err
	}

	return (x<<1 | uint64(bit)) - t.u, nil
}

func (t TruncatedBinary) BitLength(n uint64) uint64 {
	if n >= t.m {
		return 0
	}
	if n < t.u {
		return uint64(t.k)
	}

	return uint64(t.k + 1)
}

func (t TruncatedBinary) Max() (uint64, bool) { return t.m - 1, true }

func (t TruncatedBinary) Spec() Spec { return Spec{Kind: KindTruncatedBinary, Param: t.m} }

func (t TruncatedBinary) Equal(other Code) bool { return Equal(t, other) }

// Fixed writes every value as a w-bit binary number.
type Fixed struct {
	w int
}

var _ Code = Fixed{}

// NewFixed creates a fixed-width code with 0 <= width <= 64.
func NewFixed(width uint8) (Fixed, error) {
	if width > 64 {
		return Fixed{}, fmt.Errorf("fixed width %d: %w", width, errs.ErrWidthRange)
	}

	return Fixed{w: int(width)}, nil
}

// Width returns the codeword width.
func (f Fixed) Width() int { return f.w }

func (f Fixed) Encode(w bitio.BitWriter, n uint64) (uint64, error) {
	if hi, _ := f.Max(); n > hi {
		return 0, errs.Domain("Fixed.Encode", n, fmt.Sprintf("width %d", f.w))
	}

	return uint64(f.w), w.WriteBits(n, f.w)
}

func (f Fixed) Decode(r bitio.BitReader) (uint64, error) {
	return r.ReadBits(f.w)
}

func (f Fixed) BitLength(n uint64) uint64 {
	if hi, _ := f.Max(); n > hi {
		return 0
	}

	return uint64(f.w)
}

func (f Fixed) Max() (uint64, bool) {
	if f.w == 64 {
		return math.MaxUint64, true
	}

	return (uint64(1) << f.w) - 1, true
}

func (f Fixed) Spec() Spec { return Spec{Kind: KindFixed, Param: uint64(f.w)} }

func (f Fixed) Equal(other Code) bool { return Equal(f, other) }
