package coded

import (
	"fmt"

	"github.com/arloliu/bitrec/errs"
	"github.com/arloliu/bitrec/ucode"
)

// bitCounter is a BitWriter that only counts.
type bitCounter struct {
	n uint64
}

func (c *bitCounter) WriteBit(bit uint8) error {
	if bit > 1 {
		return errs.Domain("WriteBit", bit, "bit must be 0 or 1")
	}
	c.n++

	return nil
}

func (c *bitCounter) WriteBits(_ uint64, width int) error {
	if width < 0 || width > 64 {
		return fmt.Errorf("WriteBits: width %d: %w", width, errs.ErrWidthRange)
	}
	c.n += uint64(width)

	return nil
}

func (c *bitCounter) WriteBooleans(_ bool, count uint64) error {
	c.n += count
	return nil
}

func (c *bitCounter) Position() uint64 { return c.n }

func (c *bitCounter) Flush(pad uint8) error {
	if pad > 1 {
		return errs.Domain("Flush", pad, "pad must be 0 or 1")
	}
	c.n = (c.n + 7) &^ 7

	return nil
}

// Sizer has the Writer method set but only accumulates the number of bits each call would
// write. Domain errors are reported exactly as a Writer reports them.
type Sizer struct {
	*Writer
	counter *bitCounter
}

// NewSizer creates a sizer for code.
func NewSizer(code ucode.Code) *Sizer {
	counter := &bitCounter{}

	return &Sizer{Writer: NewWriter(counter, code), counter: counter}
}

// Bits returns the accumulated bit count.
func (s *Sizer) Bits() uint64 { return s.counter.n }

// Reset zeroes the count.
func (s *Sizer) Reset() { s.counter.n = 0 }
