package ucode

import (
	"math"

	"github.com/arloliu/bitrec/bitio"
	"github.com/arloliu/bitrec/errs"
)

// Extension selects the run bit of a unary codeword.
type Extension uint8

const (
	// OneExtended writes n ones followed by a zero.
	OneExtended Extension = 0
	// ZeroExtended writes n zeros followed by a one.
	ZeroExtended Extension = 1
)

// maxUnary keeps codeword lengths representable in a uint64.
const maxUnary = math.MaxUint64 - 1

// Unary is the unary code.
type Unary struct {
	run uint8 // bit repeated n times
}

var _ Code = Unary{}

// NewUnary creates a unary code.
func NewUnary(ext Extension) Unary {
	if ext == ZeroExtended {
		return Unary{run: 0}
	}

	return Unary{run: 1}
}

func (u Unary) Encode(w bitio.BitWriter, n uint64) (uint64, error) {
	if err := writeUnary(w, n, u.run); err != nil {
		return 0, err
	}

	return n + 1, nil
}

func (u Unary) Decode(r bitio.BitReader) (uint64, error) {
	return readUnary(r, u.run)
}

func (Unary) BitLength(n uint64) uint64 {
	if n > maxUnary {
		return 0
	}

	return n + 1
}

func (Unary) Max() (uint64, bool) { return maxUnary, false }

func (u Unary) Spec() Spec {
	if u.run == 0 {
		return Spec{Kind: KindUnary, Param: uint64(ZeroExtended)}
	}

	return Spec{Kind: KindUnary, Param: uint64(OneExtended)}
}

func (u Unary) Equal(other Code) bool { return Equal(u, other) }

func writeUnary(w bitio.BitWriter, n uint64, run uint8) error {
	if n > maxUnary {
		return errs.Domain("Unary.Encode", n, "codeword length overflows")
	}
	if err := w.WriteBooleans(run == 1, n); err != nil {
		return err
	}

	return w.WriteBit(run ^ 1)
}

func readUnary(r bitio.BitReader, run uint8) (uint64, error) {
	n, err := r.ReadRun(run, maxUnary)
	if err != nil {
		return 0, err
	}

	// the run stopped at a differing bit, which is the terminator
	if _, err := r.ReadBit(); err != nil {
		return 0, err
	}

	return n, nil
}
