package ucode

import (
	"math"

	"github.com/arloliu/bitrec/bitio"
)

// ZigZag maps signed integers onto the non-negative integers: 0, -1, 1, -2, ... become
// 0, 1, 2, 3, ...
func ZigZag(v int64) uint64 {
	return uint64(v<<1) ^ uint64(v>>63)
}

// UnZigZag inverts ZigZag.
func UnZigZag(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

// SortableFloat maps a float64 to a uint64 whose unsigned order matches the numeric order
// of the float: negative values have every bit flipped, others only the sign bit.
func SortableFloat(f float64) uint64 {
	b := math.Float64bits(f)
	if b>>63 == 1 {
		return ^b
	}

	return b | 1<<63
}

// UnsortableFloat inverts SortableFloat.
func UnsortableFloat(u uint64) float64 {
	if u>>63 == 1 {
		return math.Float64frombits(u &^ (1 << 63))
	}

	return math.Float64frombits(^u)
}

// Extended lifts a non-negative integer code to signed integers, doubles and fixed-length
// byte sequences.
type Extended struct {
	Code
}

// Extend wraps c.
func Extend(c Code) Extended {
	return Extended{Code: c}
}

// EncodeInt64 writes the zig-zag mapping of v.
func (e Extended) EncodeInt64(w bitio.BitWriter, v int64) (uint64, error) {
	return e.Encode(w, ZigZag(v))
}

// DecodeInt64 reads a value written by EncodeInt64.
func (e Extended) DecodeInt64(r bitio.BitReader) (int64, error) {
	u, err := e.Decode(r)
	if err != nil {
		return 0, err
	}

	return UnZigZag(u), nil
}

// Int64BitLength returns the bits EncodeInt64 writes for v.
func (e Extended) Int64BitLength(v int64) uint64 {
	return e.BitLength(ZigZag(v))
}

// EncodeFloat64 writes the sortable bit pattern of f.
func (e Extended) EncodeFloat64(w bitio.BitWriter, f float64) (uint64, error) {
	return e.Encode(w, SortableFloat(f))
}

// DecodeFloat64 reads a value written by EncodeFloat64.
func (e Extended) DecodeFloat64(r bitio.BitReader) (float64, error) {
	u, err := e.Decode(r)
	if err != nil {
		return 0, err
	}

	return UnsortableFloat(u), nil
}

// Float64BitLength returns the bits EncodeFloat64 writes for f.
func (e Extended) Float64BitLength(f float64) uint64 {
	return e.BitLength(SortableFloat(f))
}

// EncodeBytes writes every byte of p through the code. The length is not written.
func (e Extended) EncodeBytes(w bitio.BitWriter, p []byte) (uint64, error) {
	var total uint64
	for _, b := range p {
		n, err := e.Encode(w, uint64(b))
		if err != nil {
			return total, err
		}
		total += n
	}

	return total, nil
}

// DecodeBytes reads n bytes written by EncodeBytes.
func (e Extended) DecodeBytes(r bitio.BitReader, n int) ([]byte, error) {
	out := make([]byte, n)
	for i := range out {
		v, err := e.Decode(r)
		if err != nil {
			return nil, err
		}
		if v > math.MaxUint8 {
			return nil, errDecodedByte(v)
		}
		out[i] = byte(v)
	}

	return out, nil
}

// BytesBitLength returns the bits EncodeBytes writes for p.
func (e Extended) BytesBitLength(p []byte) uint64 {
	var total uint64
	for _, b := range p {
		total += e.BitLength(uint64(b))
	}

	return total
}

// EncodeString writes the bytes of s.
func (e Extended) EncodeString(w bitio.BitWriter, s string) (uint64, error) {
	return e.EncodeBytes(w, []byte(s))
}

// DecodeString reads n bytes as a string.
func (e Extended) DecodeString(r bitio.BitReader, n int) (string, error) {
	p, err := e.DecodeBytes(r, n)
	return string(p), err
}
