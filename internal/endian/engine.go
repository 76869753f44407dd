// Package endian selects the byte order used when word-backed bit buffers are exported
// to, or imported from, byte slices.
//
// Bit order inside a word is always most-significant-bit first; the engine only decides
// how each 64-bit word is laid out in memory.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines binary.ByteOrder and binary.AppendByteOrder.
//
// binary.LittleEndian and binary.BigEndian both satisfy it.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// Native returns the host byte order.
func Native() EndianEngine {
	// 0x0100 stores 0x01 first on big-endian hosts.
	var i uint16 = 0x0100
	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// Little returns the little-endian engine.
func Little() EndianEngine {
	return binary.LittleEndian
}

// Big returns the big-endian engine. Exporting words with it yields the same bytes a
// byte-backed bit writer produces for the same bits.
func Big() EndianEngine {
	return binary.BigEndian
}

// AppendWords appends every word of words to dst using engine.
func AppendWords(dst []byte, words []uint64, engine EndianEngine) []byte {
	for _, w := range words {
		dst = engine.AppendUint64(dst, w)
	}

	return dst
}

// Words decodes data into 64-bit words. A trailing partial word is zero-padded.
func Words(data []byte, engine EndianEngine) []uint64 {
	n := (len(data) + 7) / 8
	words := make([]uint64, n)
	for i := range n {
		start := i * 8
		if start+8 <= len(data) {
			words[i] = engine.Uint64(data[start : start+8])
			continue
		}

		var tail [8]byte
		copy(tail[:], data[start:])
		words[i] = engine.Uint64(tail[:])
	}

	return words
}
