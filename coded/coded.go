// Package coded binds one extended universal code to a bit reader or writer and exposes
// typed operations: non-negative and signed integers, arbitrary-precision integers,
// doubles, count-prefixed byte strings and integer slices.
//
// A Sizer answers how many bits the same calls would write, without any I/O.
package coded

import (
	"fmt"
	"math"
	"math/big"

	"golang.org/x/exp/constraints"

	"github.com/arloliu/bitrec/bitio"
	"github.com/arloliu/bitrec/errs"
	"github.com/arloliu/bitrec/ucode"
)

// Writer writes typed values through a code.
type Writer struct {
	w    bitio.BitWriter
	code ucode.Extended
}

// NewWriter binds code to w.
func NewWriter(w bitio.BitWriter, code ucode.Code) *Writer {
	return &Writer{w: w, code: ucode.Extend(code)}
}

// Code returns the bound code.
func (cw *Writer) Code() ucode.Code { return cw.code.Code }

// Position returns the underlying writer position.
func (cw *Writer) Position() uint64 { return cw.w.Position() }

// WriteUint64 writes v.
func (cw *Writer) WriteUint64(v uint64) error {
	_, err := cw.code.Encode(cw.w, v)
	return err
}

// WritePositiveInt writes a non-negative v; a negative v is a domain error.
func (cw *Writer) WritePositiveInt(v int32) error {
	return cw.WritePositiveLong(int64(v))
}

// WritePositiveLong writes a non-negative v; a negative v is a domain error.
func (cw *Writer) WritePositiveLong(v int64) error {
	if v < 0 {
		return errs.Domain("WritePositiveLong", v, "negative value")
	}

	return cw.WriteUint64(uint64(v))
}

// WriteInt writes a signed v.
func (cw *Writer) WriteInt(v int32) error {
	return cw.WriteLong(int64(v))
}

// WriteLong writes a signed v.
func (cw *Writer) WriteLong(v int64) error {
	_, err := cw.code.EncodeInt64(cw.w, v)
	return err
}

// WriteBool writes v as a single raw bit.
func (cw *Writer) WriteBool(v bool) error {
	var bit uint8
	if v {
		bit = 1
	}

	return cw.w.WriteBit(bit)
}

// WriteFloat64 writes the sortable bit pattern of f.
func (cw *Writer) WriteFloat64(f float64) error {
	_, err := cw.code.EncodeFloat64(cw.w, f)
	return err
}

// WriteBigInt writes v as its 64-bit word count through the code, a sign bit, and the
// magnitude words high word first.
func (cw *Writer) WriteBigInt(v *big.Int) error {
	if v == nil {
		return errs.Domain("WriteBigInt", v, "nil integer")
	}

	words := magnitudeWords(v)
	if err := cw.WriteUint64(uint64(len(words))); err != nil {
		return err
	}
	if err := cw.WriteBool(v.Sign() < 0); err != nil {
		return err
	}

	for _, word := range words {
		if err := cw.w.WriteBits(word, 64); err != nil {
			return err
		}
	}

	return nil
}

// WriteBytes writes len(p) followed by each byte through the code.
func (cw *Writer) WriteBytes(p []byte) error {
	if err := cw.WriteUint64(uint64(len(p))); err != nil {
		return err
	}
	_, err := cw.code.EncodeBytes(cw.w, p)

	return err
}

// WriteString writes len(s) followed by each byte through the code.
func (cw *Writer) WriteString(s string) error {
	return cw.WriteBytes([]byte(s))
}

// magnitudeWords returns |v| as big-endian 64-bit words with no leading zero word.
func magnitudeWords(v *big.Int) []uint64 {
	abs := new(big.Int).Abs(v)
	n := (abs.BitLen() + 63) / 64
	words := make([]uint64, n)

	mask := new(big.Int).SetUint64(math.MaxUint64)
	tmp := new(big.Int)
	for i := n - 1; i >= 0; i-- {
		words[i] = tmp.And(abs, mask).Uint64()
		abs.Rsh(abs, 64)
	}

	return words
}

// Reader reads typed values through a code.
type Reader struct {
	r    bitio.BitReader
	code ucode.Extended
}

// NewReader binds code to r.
func NewReader(r bitio.BitReader, code ucode.Code) *Reader {
	return &Reader{r: r, code: ucode.Extend(code)}
}

// Position returns the underlying reader position.
func (cr *Reader) Position() uint64 { return cr.r.Position() }

// ReadUint64 reads a value written by WriteUint64.
func (cr *Reader) ReadUint64() (uint64, error) {
	return cr.code.Decode(cr.r)
}

// ReadPositiveInt reads a value written by WritePositiveInt.
func (cr *Reader) ReadPositiveInt() (int32, error) {
	v, err := cr.ReadUint64()
	if err != nil {
		return 0, err
	}
	if v > math.MaxInt32 {
		return 0, errs.Domain("ReadPositiveInt", v, "exceeds int32")
	}

	return int32(v), nil
}

// ReadPositiveLong reads a value written by WritePositiveLong.
func (cr *Reader) ReadPositiveLong() (int64, error) {
	v, err := cr.ReadUint64()
	if err != nil {
		return 0, err
	}
	if v > math.MaxInt64 {
		return 0, errs.Domain("ReadPositiveLong", v, "exceeds int64")
	}

	return int64(v), nil
}

// ReadInt reads a value written by WriteInt.
func (cr *Reader) ReadInt() (int32, error) {
	v, err := cr.ReadLong()
	if err != nil {
		return 0, err
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, errs.Domain("ReadInt", v, "exceeds int32")
	}

	return int32(v), nil
}

// ReadLong reads a value written by WriteLong.
func (cr *Reader) ReadLong() (int64, error) {
	return cr.code.DecodeInt64(cr.r)
}

// ReadBool reads a value written by WriteBool.
func (cr *Reader) ReadBool() (bool, error) {
	bit, err := cr.r.ReadBit()
	return bit == 1, err
}

// ReadFloat64 reads a value written by WriteFloat64.
func (cr *Reader) ReadFloat64() (float64, error) {
	return cr.code.DecodeFloat64(cr.r)
}

// ReadBigInt reads a value written by WriteBigInt.
func (cr *Reader) ReadBigInt() (*big.Int, error) {
	n, err := cr.ReadUint64()
	if err != nil {
		return nil, err
	}
	neg, err := cr.ReadBool()
	if err != nil {
		return nil, err
	}

	v := new(big.Int)
	word := new(big.Int)
	for range n {
		w, err := cr.r.ReadBits(64)
		if err != nil {
			return nil, err
		}
		v.Lsh(v, 64)
		v.Or(v, word.SetUint64(w))
	}
	if neg {
		v.Neg(v)
	}

	return v, nil
}

// ReadBytes reads a value written by WriteBytes.
func (cr *Reader) ReadBytes() ([]byte, error) {
	n, err := cr.readCount("ReadBytes")
	if err != nil {
		return nil, err
	}

	return cr.code.DecodeBytes(cr.r, n)
}

// ReadString reads a value written by WriteString.
func (cr *Reader) ReadString() (string, error) {
	p, err := cr.ReadBytes()
	return string(p), err
}

// maxCount bounds decoded slice lengths so a corrupt prefix cannot allocate unbounded
// memory.
const maxCount = 1 << 32

func (cr *Reader) readCount(op string) (int, error) {
	n, err := cr.ReadUint64()
	if err != nil {
		return 0, err
	}
	if n > maxCount {
		return 0, errs.Domain(op, n, fmt.Sprintf("count exceeds %d", uint64(maxCount)))
	}

	return int(n), nil
}

// WritePositiveSlice writes len(s) followed by each element; negative elements are a
// domain error.
func WritePositiveSlice[T constraints.Integer](cw *Writer, s []T) error {
	if err := cw.WriteUint64(uint64(len(s))); err != nil {
		return err
	}

	for _, v := range s {
		if v < 0 {
			return errs.Domain("WritePositiveSlice", v, "negative value")
		}
		if err := cw.WriteUint64(uint64(v)); err != nil {
			return err
		}
	}

	return nil
}

// ReadPositiveSlice reads a slice written by WritePositiveSlice.
func ReadPositiveSlice[T constraints.Integer](cr *Reader) ([]T, error) {
	n, err := cr.readCount("ReadPositiveSlice")
	if err != nil {
		return nil, err
	}

	out := make([]T, n)
	for i := range out {
		v, err := cr.ReadUint64()
		if err != nil {
			return nil, err
		}
		t := T(v)
		if t < 0 || uint64(t) != v {
			return nil, errs.Domain("ReadPositiveSlice", v, "exceeds element type")
		}
		out[i] = t
	}

	return out, nil
}

// WriteSignedSlice writes len(s) followed by each element zig-zag mapped.
func WriteSignedSlice[T constraints.Signed](cw *Writer, s []T) error {
	if err := cw.WriteUint64(uint64(len(s))); err != nil {
		return err
	}

	for _, v := range s {
		if err := cw.WriteLong(int64(v)); err != nil {
			return err
		}
	}

	return nil
}

// ReadSignedSlice reads a slice written by WriteSignedSlice.
func ReadSignedSlice[T constraints.Signed](cr *Reader) ([]T, error) {
	n, err := cr.readCount("ReadSignedSlice")
	if err != nil {
		return nil, err
	}

	out := make([]T, n)
	for i := range out {
		v, err := cr.ReadLong()
		if err != nil {
			return nil, err
		}
		t := T(v)
		if int64(t) != v {
			return nil, errs.Domain("ReadSignedSlice", v, "exceeds element type")
		}
		out[i] = t
	}

	return out, nil
}
