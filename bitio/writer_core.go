package bitio

import (
	"fmt"

	"github.com/arloliu/bitrec/errs"
)

// sink receives whole bytes from a writer accumulator.
type sink interface {
	// emit receives nbits left-aligned bits of word; nbits is a positive multiple of 8, at
	// most 64.
	emit(word uint64, nbits int) error
}

// writerCore accumulates bits in a 64-bit buffer and emits them to a sink when the buffer
// fills up or on flush.
type writerCore struct {
	bitBuf   uint64 // pending bits, right-aligned
	bitCount int    // number of valid bits in bitBuf
	pos      uint64 // bits written, including flush padding
	capacity uint64 // maximum pos in bits
	out      sink
}

func newWriterCore(out sink, capacity uint64) writerCore {
	return writerCore{out: out, capacity: capacity}
}

func (c *writerCore) reserve(op string, n uint64) error {
	if c.capacity-c.pos < n {
		return fmt.Errorf("%s: %d bits at position %d exceed %d: %w", op, n, c.pos, c.capacity, errs.ErrCapacity)
	}

	return nil
}

func (c *writerCore) writeBit(bit uint8) error {
	if err := checkBit("WriteBit", bit); err != nil {
		return err
	}

	return c.writeBits(uint64(bit), 1)
}

// writeBits appends the low width bits of value.
//
// Writes that straddle the 64-bit buffer are split: the high part fills the buffer, which is
// emitted, and the low part starts the next one.
func (c *writerCore) writeBits(value uint64, width int) error {
	if err := checkWidth("WriteBits", width); err != nil {
		return err
	}
	if width == 0 {
		return nil
	}
	if err := c.reserve("WriteBits", uint64(width)); err != nil {
		return err
	}

	value &= lowMask(width)
	available := 64 - c.bitCount

	if width <= available {
		c.bitBuf = (c.bitBuf << width) | value
		c.bitCount += width
		c.pos += uint64(width)
		if c.bitCount == 64 {
			return c.emitFull()
		}

		return nil
	}

	lowBits := width - available
	c.bitBuf = (c.bitBuf << available) | (value >> lowBits)
	c.bitCount = 64
	c.pos += uint64(available)
	if err := c.emitFull(); err != nil {
		return err
	}

	c.bitBuf = value & lowMask(lowBits)
	c.bitCount = lowBits
	c.pos += uint64(lowBits)

	return nil
}

func (c *writerCore) writeBooleans(value bool, count uint64) error {
	if err := c.reserve("WriteBooleans", count); err != nil {
		return err
	}

	var word uint64
	if value {
		word = lowMask(64)
	}

	for count > 0 {
		n := min(count, 64)
		if err := c.writeBits(word, int(n)); err != nil {
			return err
		}
		count -= n
	}

	return nil
}

func (c *writerCore) emitFull() error {
	word := c.bitBuf
	c.bitBuf = 0
	c.bitCount = 0

	return c.out.emit(word, 64)
}

// flush pads the pending bits to a byte boundary and emits them.
func (c *writerCore) flush(pad uint8) error {
	if err := checkBit("Flush", pad); err != nil {
		return err
	}
	if c.bitCount == 0 {
		return nil
	}

	padBits := (8 - c.bitCount%8) % 8
	if padBits > 0 {
		var fill uint64
		if pad == 1 {
			fill = lowMask(padBits)
		}
		c.bitBuf = (c.bitBuf << padBits) | fill
		c.bitCount += padBits
		c.pos += uint64(padBits)
	}

	nbits := c.bitCount
	aligned := c.bitBuf << (64 - nbits)
	c.bitBuf = 0
	c.bitCount = 0

	return c.out.emit(aligned, nbits)
}

// pending returns the buffered bits as zero-padded bytes without changing state.
func (c *writerCore) pending() []byte {
	if c.bitCount == 0 {
		return nil
	}

	aligned := c.bitBuf << (64 - c.bitCount)
	numBytes := (c.bitCount + 7) / 8
	out := make([]byte, numBytes)
	for i := range numBytes {
		out[i] = byte(aligned >> (56 - i*8))
	}

	return out
}

func (c *writerCore) reset() {
	c.bitBuf = 0
	c.bitCount = 0
	c.pos = 0
}

// appendWord appends the first nbits/8 bytes of a left-aligned word to dst.
func appendWord(dst []byte, word uint64, nbits int) []byte {
	for i := range nbits / 8 {
		dst = append(dst, byte(word>>(56-i*8)))
	}

	return dst
}
