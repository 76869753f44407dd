package ucode

import (
	"fmt"
	"math/bits"

	"github.com/arloliu/bitrec/bitio"
	"github.com/arloliu/bitrec/errs"
)

// Golomb encodes n as unary(n/d) followed by truncated-binary(n mod d) over an alphabet of
// size d. The unary part is one-extended.
type Golomb struct {
	d   uint64
	rem TruncatedBinary
}

var _ Code = Golomb{}

// NewGolomb creates a Golomb code with divisor d >= 1.
func NewGolomb(d uint64) (Golomb, error) {
	if d == 0 {
		return Golomb{}, fmt.Errorf("golomb divisor 0: %w", errs.ErrInvalidParameter)
	}

	rem, _ := NewTruncatedBinary(d)

	return Golomb{d: d, rem: rem}, nil
}

// Divisor returns d.
func (g Golomb) Divisor() uint64 { return g.d }

func (g Golomb) Encode(w bitio.BitWriter, n uint64) (uint64, error) {
	q, r := n/g.d, n%g.d
	if err := writeUnary(w, q, 1); err != nil {
		return 0, err
	}

	nbits, err := g.rem.Encode(w, r)
	if err != nil {
		return 0, err
	}

	return q + 1 + nbits, nil
}

func (g Golomb) Decode(r bitio.BitReader) (uint64, error) {
	q, err := readUnary(r, 1)
	if err != nil {
		return 0, err
	}

	rem, err := g.rem.Decode(r)
	if err != nil {
		return 0, err
	}

	hi, lo := bits.Mul64(q, g.d)
	sum, carry := bits.Add64(lo, rem, 0)
	if hi != 0 || carry != 0 {
		return 0, errs.Domain("Golomb.Decode", q, "value overflows 64 bits")
	}

	return sum, nil
}

func (g Golomb) BitLength(n uint64) uint64 {
	q := n / g.d
	if q > maxUnary-64 {
		return 0
	}

	return q + 1 + g.rem.BitLength(n%g.d)
}

func (Golomb) Max() (uint64, bool) { return maxUnary, false }

func (g Golomb) Spec() Spec { return Spec{Kind: KindGolomb, Param: g.d} }

func (g Golomb) Equal(other Code) bool { return Equal(g, other) }

// Rice is Golomb coding with divisor 2^b, written as unary(n>>b) followed by the low b
// bits of n. Its output is bit-identical to Golomb(2^b).
type Rice struct {
	b uint8
}

var _ Code = Rice{}

// NewRice creates a Rice code with 0 <= b <= 63.
func NewRice(b uint8) (Rice, error) {
	if b > 63 {
		return Rice{}, fmt.Errorf("rice width %d: %w", b, errs.ErrInvalidParameter)
	}

	return Rice{b: b}, nil
}

// Width returns b.
func (c Rice) Width() uint8 { return c.b }

func (c Rice) Encode(w bitio.BitWriter, n uint64) (uint64, error) {
	q := n >> c.b
	if err := writeUnary(w, q, 1); err != nil {
		return 0, err
	}
	if err := w.WriteBits(n, int(c.b)); err != nil {
		return 0, err
	}

	return q + 1 + uint64(c.b), nil
}

func (c Rice) Decode(r bitio.BitReader) (uint64, error) {
	q, err := readUnary(r, 1)
	if err != nil {
		return 0, err
	}
	if c.b > 0 && q > (^uint64(0))>>c.b {
		return 0, errs.Domain("Rice.Decode", q, "value overflows 64 bits")
	}

	low, err := r.ReadBits(int(c.b))
	if err != nil {
		return 0, err
	}

	return q<<c.b | low, nil
}

func (c Rice) BitLength(n uint64) uint64 {
	q := n >> c.b
	if q > maxUnary-64 {
		return 0
	}

	return q + 1 + uint64(c.b)
}

func (Rice) Max() (uint64, bool) { return maxUnary, false }

func (c Rice) Spec() Spec { return Spec{Kind: KindRice, Param: uint64(c.b)} }

func (c Rice) Equal(other Code) bool { return Equal(c, other) }
