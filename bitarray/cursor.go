package bitarray

import (
	"fmt"

	"github.com/arloliu/bitrec/bitio"
	"github.com/arloliu/bitrec/errs"
)

var (
	_ bitio.BitWriter = (*Writer)(nil)
	_ bitio.BitReader = (*Reader)(nil)
	_ bitio.Seeker    = (*Writer)(nil)
	_ bitio.Seeker    = (*Reader)(nil)
)

type cursor struct {
	arr *BitArray
	pos uint64
	gen uint64
}

func (c *cursor) check(op string) error {
	if c.gen != c.arr.gen {
		return fmt.Errorf("%s: %w", op, errs.ErrStaleCursor)
	}

	return nil
}

func (c *cursor) seek(pos uint64) error {
	if err := c.check("Seek"); err != nil {
		return err
	}
	if pos > c.arr.size {
		return fmt.Errorf("Seek to %d past %d: %w", pos, c.arr.size, errs.ErrSeekRange)
	}
	c.pos = pos

	return nil
}

// Writer writes bits into a BitArray, either overwriting or XOR-ing existing bits.
type Writer struct {
	cursor
	xor bool
}

// Writer returns an overwriting cursor at position 0.
func (a *BitArray) Writer() *Writer {
	return &Writer{cursor: cursor{arr: a, gen: a.gen}}
}

// XorWriter returns a cursor at position 0 that XORs written bits into the array.
// Writing the same bits twice at the same position restores the original contents.
func (a *BitArray) XorWriter() *Writer {
	return &Writer{cursor: cursor{arr: a, gen: a.gen}, xor: true}
}

// WriteBit writes a single bit.
func (w *Writer) WriteBit(bit uint8) error {
	if bit > 1 {
		return errs.Domain("WriteBit", bit, "bit must be 0 or 1")
	}

	return w.WriteBits(uint64(bit), 1)
}

// WriteBits writes the low width bits of value, high bit first.
func (w *Writer) WriteBits(value uint64, width int) error {
	if width < 0 || width > bitio.MaxWidth {
		return fmt.Errorf("WriteBits: width %d: %w", width, errs.ErrWidthRange)
	}
	if err := w.check("WriteBits"); err != nil {
		return err
	}
	if w.arr.size-w.pos < uint64(width) {
		return fmt.Errorf("WriteBits: %d bits at position %d exceed %d: %w", width, w.pos, w.arr.size, errs.ErrCapacity)
	}

	for i := width - 1; i >= 0; i-- {
		w.put(value>>uint(i)&1 == 1)
	}
	w.commit()

	return nil
}

// WriteBooleans writes count copies of value.
func (w *Writer) WriteBooleans(value bool, count uint64) error {
	if err := w.check("WriteBooleans"); err != nil {
		return err
	}
	if w.arr.size-w.pos < count {
		return fmt.Errorf("WriteBooleans: %d bits at position %d exceed %d: %w", count, w.pos, w.arr.size, errs.ErrCapacity)
	}

	for range count {
		w.put(value)
	}
	w.commit()

	return nil
}

func (w *Writer) put(bit bool) {
	idx := uint(w.pos)
	switch {
	case w.xor:
		if bit {
			w.arr.bits.Flip(idx)
		}
	default:
		w.arr.bits.SetTo(idx, bit)
	}
	w.pos++
}

// commit records the writer's own mutation so it does not invalidate itself.
func (w *Writer) commit() {
	w.arr.touch()
	w.gen = w.arr.gen
}

// Position returns the cursor position in bits.
func (w *Writer) Position() uint64 { return w.pos }

// Flush pads the cursor to the next byte boundary with pad bits, within the array size.
func (w *Writer) Flush(pad uint8) error {
	if pad > 1 {
		return errs.Domain("Flush", pad, "pad must be 0 or 1")
	}

	n := (8 - w.pos%8) % 8
	n = min(n, w.arr.size-w.pos)

	return w.WriteBooleans(pad == 1, n)
}

// Seek moves the cursor to pos.
func (w *Writer) Seek(pos uint64) error { return w.seek(pos) }

// CanSeekBackward reports true.
func (*Writer) CanSeekBackward() bool { return true }

// Reader reads bits from a BitArray.
type Reader struct {
	cursor
}

// Reader returns a reading cursor at position 0.
func (a *BitArray) Reader() *Reader {
	return &Reader{cursor: cursor{arr: a, gen: a.gen}}
}

func (r *Reader) endOfStream(op string, want uint64) error {
	return fmt.Errorf("%s: %d bits at position %d: %w", op, want, r.pos, errs.ErrEndOfStream)
}

// ReadBit reads one bit.
func (r *Reader) ReadBit() (uint8, error) {
	v, err := r.ReadBits(1)
	return uint8(v), err
}

// ReadBits reads width bits, high bit first.
func (r *Reader) ReadBits(width int) (uint64, error) {
	if width < 0 || width > bitio.MaxWidth {
		return 0, fmt.Errorf("ReadBits: width %d: %w", width, errs.ErrWidthRange)
	}
	if err := r.check("ReadBits"); err != nil {
		return 0, err
	}
	if r.arr.size-r.pos < uint64(width) {
		return 0, r.endOfStream("ReadBits", uint64(width))
	}

	var v uint64
	for range width {
		v <<= 1
		if r.arr.bits.Test(uint(r.pos)) {
			v |= 1
		}
		r.pos++
	}

	return v, nil
}

// ReadRun consumes consecutive bits equal to bit, up to limit.
func (r *Reader) ReadRun(bit uint8, limit uint64) (uint64, error) {
	if bit > 1 {
		return 0, errs.Domain("ReadRun", bit, "bit must be 0 or 1")
	}
	if err := r.check("ReadRun"); err != nil {
		return 0, err
	}
	if limit > 0 && r.pos >= r.arr.size {
		return 0, r.endOfStream("ReadRun", 1)
	}

	want := bit == 1
	var run uint64
	for run < limit && r.pos < r.arr.size && r.arr.bits.Test(uint(r.pos)) == want {
		r.pos++
		run++
	}

	return run, nil
}

// SkipBits advances by n bits.
func (r *Reader) SkipBits(n uint64) error {
	if err := r.check("SkipBits"); err != nil {
		return err
	}
	if r.arr.size-r.pos < n {
		return r.endOfStream("SkipBits", n)
	}
	r.pos += n

	return nil
}

// Position returns the cursor position in bits.
func (r *Reader) Position() uint64 { return r.pos }

// Seek moves the cursor to pos.
func (r *Reader) Seek(pos uint64) error { return r.seek(pos) }

// CanSeekBackward reports true.
func (*Reader) CanSeekBackward() bool { return true }
