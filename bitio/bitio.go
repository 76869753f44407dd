// Package bitio reads and writes individual bits and width-bounded integers against byte
// slices, word slices, streams and files.
//
// Bit order is most-significant-bit first everywhere: WriteBits(v, w) emits the low w bits
// of v starting with bit w-1, and the first bit written to a byte-oriented store becomes the
// high bit of the first byte.
//
// All readers and writers are built from the same pair of 64-bit accumulators. Writers
// collect bits in a uint64 and hand whole bytes (or whole words) to their backing store;
// readers refill a uint64 from their source and hand out bits from its high end. Backing
// stores only differ in how bytes are moved, so each one is a small sink or source type.
//
// None of the types in this package are safe for concurrent use.
package bitio

import (
	"fmt"
	"math"

	"github.com/arloliu/bitrec/errs"
)

// MaxWidth is the widest value accepted by WriteBits and ReadBits.
const MaxWidth = 64

// noLimit marks a reader or writer without a declared size.
const noLimit = math.MaxUint64

// BitWriter is implemented by every bit sink.
type BitWriter interface {
	// WriteBit writes a single bit; bit must be 0 or 1.
	WriteBit(bit uint8) error
	// WriteBits writes the low width bits of value, high bit first. 0 <= width <= 64.
	WriteBits(value uint64, width int) error
	// WriteBooleans writes count copies of the same bit.
	WriteBooleans(value bool, count uint64) error
	// Position returns the number of bits written so far.
	Position() uint64
	// Flush completes a partial trailing byte with pad bits (0 or 1) and pushes buffered
	// bytes to the backing store.
	Flush(pad uint8) error
}

// BitReader is implemented by every bit source.
type BitReader interface {
	// ReadBit reads a single bit.
	ReadBit() (uint8, error)
	// ReadBits reads width bits, high bit first, into the low bits of the result.
	ReadBits(width int) (uint64, error)
	// ReadRun consumes consecutive bits equal to bit, stopping before the first differing
	// bit, after limit bits, or at the end of the stream. It returns the run length.
	ReadRun(bit uint8, limit uint64) (uint64, error)
	// SkipBits advances the position by n bits.
	SkipBits(n uint64) error
	// Position returns the number of bits consumed so far.
	Position() uint64
}

// Seeker is implemented by readers that can reposition.
//
// Readers that only move forward report CanSeekBackward() == false and return
// errs.ErrBackwardSeek for a position behind the current one.
type Seeker interface {
	Seek(pos uint64) error
	CanSeekBackward() bool
}

func checkWidth(op string, width int) error {
	if width < 0 || width > MaxWidth {
		return fmt.Errorf("%s: width %d: %w", op, width, errs.ErrWidthRange)
	}

	return nil
}

func checkBit(op string, bit uint8) error {
	if bit > 1 {
		return errs.Domain(op, bit, "bit must be 0 or 1")
	}

	return nil
}

// lowMask returns a mask of the low width bits.
func lowMask(width int) uint64 {
	if width >= 64 {
		return math.MaxUint64
	}

	return (uint64(1) << width) - 1
}
