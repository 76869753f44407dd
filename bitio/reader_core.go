package bitio

import (
	"errors"
	"fmt"
	"io"
	"math/bits"

	"github.com/arloliu/bitrec/errs"
)

// source feeds a reader accumulator.
type source interface {
	// fill returns up to 64 left-aligned bits and the number of valid bits. It returns
	// io.EOF once the source is exhausted.
	fill() (word uint64, nbits int, err error)
}

// seekableSource can restart at an arbitrary bit position.
type seekableSource interface {
	source
	// seek moves to the fill unit containing bit pos and returns the offset of pos inside
	// that unit.
	seek(pos uint64) (skip int, err error)
	backward() bool
}

// readerCore hands out bits from the high end of a 64-bit buffer refilled from a source.
type readerCore struct {
	bitBuf   uint64 // left-aligned unread bits
	bitCount int    // number of valid bits in bitBuf
	pos      uint64 // bits consumed
	limit    uint64 // declared size in bits
	src      source
}

func newReaderCore(src source, limit uint64) readerCore {
	return readerCore{src: src, limit: limit}
}

func (c *readerCore) endOfStream(op string, want uint64) error {
	return fmt.Errorf("%s: %d bits at position %d: %w", op, want, c.pos, errs.ErrEndOfStream)
}

// refill loads the next unit from the source when the buffer is empty.
func (c *readerCore) refill(op string) error {
	if c.bitCount > 0 {
		return nil
	}

	word, n, err := c.src.fill()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return c.endOfStream(op, 1)
		}

		return err
	}
	if n == 0 {
		return c.endOfStream(op, 1)
	}

	c.bitBuf = word
	c.bitCount = n

	return nil
}

func (c *readerCore) consume(n int) {
	if n == 64 {
		c.bitBuf = 0
	} else {
		c.bitBuf <<= n
	}
	c.bitCount -= n
	c.pos += uint64(n)
}

func (c *readerCore) readBit() (uint8, error) {
	if c.pos >= c.limit {
		return 0, c.endOfStream("ReadBit", 1)
	}
	if err := c.refill("ReadBit"); err != nil {
		return 0, err
	}

	bit := uint8(c.bitBuf >> 63)
	c.consume(1)

	return bit, nil
}

func (c *readerCore) readBits(width int) (uint64, error) {
	if err := checkWidth("ReadBits", width); err != nil {
		return 0, err
	}
	if width == 0 {
		return 0, nil
	}
	if c.limit-c.pos < uint64(width) {
		return 0, c.endOfStream("ReadBits", uint64(width))
	}

	if width <= c.bitCount {
		result := c.bitBuf >> (64 - width)
		c.consume(width)

		return result, nil
	}

	var result uint64
	for width > 0 {
		if err := c.refill("ReadBits"); err != nil {
			return 0, err
		}

		n := min(width, c.bitCount)
		result = (result << n) | (c.bitBuf >> (64 - n))
		c.consume(n)
		width -= n
	}

	return result, nil
}

// readRun counts leading bits equal to bit using the buffer's leading-zero count.
func (c *readerCore) readRun(bit uint8, limit uint64) (uint64, error) {
	if err := checkBit("ReadRun", bit); err != nil {
		return 0, err
	}

	if limit > 0 && c.pos >= c.limit {
		return 0, c.endOfStream("ReadRun", 1)
	}
	limit = min(limit, c.limit-c.pos)

	var run uint64
	for run < limit {
		if err := c.refill("ReadRun"); err != nil {
			if run > 0 && errors.Is(err, errs.ErrEndOfStream) {
				return run, nil
			}

			return run, err
		}

		word := c.bitBuf
		if bit == 1 {
			word = ^word
		}

		n := min(bits.LeadingZeros64(word), c.bitCount)
		n = int(min(uint64(n), limit-run))
		c.consume(n)
		run += uint64(n)

		if c.bitCount > 0 {
			break
		}
	}

	return run, nil
}

func (c *readerCore) skip(n uint64) error {
	if c.limit-c.pos < n {
		return c.endOfStream("SkipBits", n)
	}
	if n <= uint64(c.bitCount) {
		c.consume(int(n))
		return nil
	}
	if ss, ok := c.src.(seekableSource); ok {
		return c.seekTo(ss, c.pos+n)
	}

	for n > 0 {
		w := int(min(n, 64))
		if _, err := c.readBits(w); err != nil {
			return err
		}
		n -= uint64(w)
	}

	return nil
}

func (c *readerCore) seek(pos uint64) error {
	if ss, ok := c.src.(seekableSource); ok {
		if pos < c.pos && !ss.backward() {
			return fmt.Errorf("Seek to %d from %d: %w", pos, c.pos, errs.ErrBackwardSeek)
		}
		if pos > c.limit {
			return fmt.Errorf("Seek to %d past %d: %w", pos, c.limit, errs.ErrSeekRange)
		}

		return c.seekTo(ss, pos)
	}

	if pos < c.pos {
		return fmt.Errorf("Seek to %d from %d: %w", pos, c.pos, errs.ErrBackwardSeek)
	}

	return c.skip(pos - c.pos)
}

func (c *readerCore) seekTo(ss seekableSource, pos uint64) error {
	skip, err := ss.seek(pos)
	if err != nil {
		return err
	}

	c.bitBuf = 0
	c.bitCount = 0
	c.pos = pos - uint64(skip)
	if skip == 0 {
		return nil
	}

	if err := c.refill("Seek"); err != nil {
		return err
	}
	if skip > c.bitCount {
		return c.endOfStream("Seek", uint64(skip))
	}
	c.consume(skip)

	return nil
}

func (c *readerCore) canSeekBackward() bool {
	ss, ok := c.src.(seekableSource)
	return ok && ss.backward()
}
