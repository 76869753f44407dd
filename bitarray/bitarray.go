// Package bitarray provides a fixed-capacity mutable bit array with bitwise set operations,
// a byte-addressable view and bit cursors that implement the bitio reader and writer
// interfaces.
//
// Bit i of the array is byte i/8, bit 7-i%8 of the byte view, so a cursor writing from
// position 0 produces the same bytes as a bitio.ByteWriter.
//
// The array owns its storage. Cursors borrow it and become stale once the array is
// modified by anything other than the cursor itself; a stale cursor returns
// errs.ErrStaleCursor instead of reading or writing.
package bitarray

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/arloliu/bitrec/errs"
)

// BitArray is a fixed-size sequence of bits. The size never changes after New.
type BitArray struct {
	bits *bitset.BitSet
	size uint64
	gen  uint64
}

// New creates an all-zero array of size bits.
func New(size uint64) *BitArray {
	return &BitArray{bits: bitset.New(uint(size)), size: size}
}

// FromBytes creates an array of len(data)*8 bits holding data.
func FromBytes(data []byte) *BitArray {
	a := New(uint64(len(data)) * 8)
	for i, b := range data {
		a.setByte(uint64(i), b)
	}

	return a
}

// Size returns the number of bits.
func (a *BitArray) Size() uint64 { return a.size }

// LenBytes returns the size of the byte view, rounding up.
func (a *BitArray) LenBytes() uint64 { return (a.size + 7) / 8 }

func (a *BitArray) touch() { a.gen++ }

func (a *BitArray) checkIndex(op string, i uint64) error {
	if i >= a.size {
		return fmt.Errorf("%s: index %d of %d bits: %w", op, i, a.size, errs.ErrCapacity)
	}

	return nil
}

// Get returns bit i. Out-of-range indexes read as false.
func (a *BitArray) Get(i uint64) bool {
	return i < a.size && a.bits.Test(uint(i))
}

// Set sets bit i to v.
func (a *BitArray) Set(i uint64, v bool) error {
	if err := a.checkIndex("Set", i); err != nil {
		return err
	}

	a.bits.SetTo(uint(i), v)
	a.touch()

	return nil
}

// TestAndSet sets bit i and reports whether it was already set.
func (a *BitArray) TestAndSet(i uint64) (bool, error) {
	if err := a.checkIndex("TestAndSet", i); err != nil {
		return false, err
	}

	if a.bits.Test(uint(i)) {
		return true, nil
	}
	a.bits.Set(uint(i))
	a.touch()

	return false, nil
}

// Count returns the number of set bits.
func (a *BitArray) Count() uint64 { return uint64(a.bits.Count()) }

// Equal reports whether both arrays have the same size and bits.
func (a *BitArray) Equal(other *BitArray) bool {
	if other == nil || a.size != other.size {
		return false
	}

	return a.bits.Equal(other.bits)
}

// Contains reports whether every set bit of other is also set in a.
func (a *BitArray) Contains(other *BitArray) bool {
	if other == nil || a.size != other.size {
		return false
	}

	return a.bits.IsSuperSet(other.bits)
}

func (a *BitArray) compatible(op string, other *BitArray) error {
	if other == nil || a.size != other.size {
		otherSize := uint64(0)
		if other != nil {
			otherSize = other.size
		}

		return fmt.Errorf("%s: %d and %d bits: %w", op, a.size, otherSize, errs.ErrIncompatibleSize)
	}

	return nil
}

// And keeps only the bits also set in other.
func (a *BitArray) And(other *BitArray) error {
	if err := a.compatible("And", other); err != nil {
		return err
	}

	a.bits.InPlaceIntersection(other.bits)
	a.touch()

	return nil
}

// Or sets every bit set in other.
func (a *BitArray) Or(other *BitArray) error {
	if err := a.compatible("Or", other); err != nil {
		return err
	}

	a.bits.InPlaceUnion(other.bits)
	a.touch()

	return nil
}

// Xor flips every bit set in other.
func (a *BitArray) Xor(other *BitArray) error {
	if err := a.compatible("Xor", other); err != nil {
		return err
	}

	a.bits.InPlaceSymmetricDifference(other.bits)
	a.touch()

	return nil
}

// Clear resets every bit to zero.
func (a *BitArray) Clear() {
	a.bits.ClearAll()
	a.touch()
}

// Clone returns an independent copy.
func (a *BitArray) Clone() *BitArray {
	return &BitArray{bits: a.bits.Clone(), size: a.size}
}

// ByteAt returns byte i of the byte view. Bits past Size read as zero.
func (a *BitArray) ByteAt(i uint64) (byte, error) {
	if i >= a.LenBytes() {
		return 0, fmt.Errorf("ByteAt: byte %d of %d: %w", i, a.LenBytes(), errs.ErrCapacity)
	}

	var b byte
	base := i * 8
	for j := range uint64(8) {
		b <<= 1
		if a.Get(base + j) {
			b |= 1
		}
	}

	return b, nil
}

// SetByte overwrites byte i of the byte view. Bits past Size are ignored.
func (a *BitArray) SetByte(i uint64, b byte) error {
	if i >= a.LenBytes() {
		return fmt.Errorf("SetByte: byte %d of %d: %w", i, a.LenBytes(), errs.ErrCapacity)
	}

	a.setByte(i, b)
	a.touch()

	return nil
}

func (a *BitArray) setByte(i uint64, b byte) {
	base := i * 8
	for j := range uint64(8) {
		idx := base + j
		if idx >= a.size {
			return
		}
		a.bits.SetTo(uint(idx), b&(0x80>>j) != 0)
	}
}

// Bytes returns a copy of the byte view.
func (a *BitArray) Bytes() []byte {
	out := make([]byte, a.LenBytes())
	for i := range out {
		out[i], _ = a.ByteAt(uint64(i))
	}

	return out
}

// String renders the bits as a 0/1 string.
func (a *BitArray) String() string {
	buf := make([]byte, a.size)
	for i := range a.size {
		buf[i] = '0'
		if a.bits.Test(uint(i)) {
			buf[i] = '1'
		}
	}

	return string(buf)
}
