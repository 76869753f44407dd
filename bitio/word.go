package bitio

import (
	"io"

	"github.com/arloliu/bitrec/internal/endian"
	"github.com/arloliu/bitrec/internal/pool"
)

// WordWriter writes bits into a slice of 64-bit words, first bit in the high bit of the
// first word.
type WordWriter struct {
	writerCore
	sink *wordSink
}

type wordSink struct {
	words []uint64
	fixed bool
}

func (s *wordSink) emit(word uint64, _ int) error {
	s.words = append(s.words, word)
	return nil
}

// NewWordWriter creates a growable word writer backed by a pooled slice.
func NewWordWriter() *WordWriter {
	s := &wordSink{words: pool.GetWords()}

	return &WordWriter{writerCore: newWriterCore(s, noLimit), sink: s}
}

// NewFixedWordWriter creates a writer limited to n words.
func NewFixedWordWriter(n int) *WordWriter {
	s := &wordSink{words: make([]uint64, 0, n), fixed: true}

	return &WordWriter{writerCore: newWriterCore(s, uint64(n)*64), sink: s}
}

// WriteBit writes a single bit.
func (w *WordWriter) WriteBit(bit uint8) error { return w.writeBit(bit) }

// WriteBits writes the low width bits of value.
func (w *WordWriter) WriteBits(value uint64, width int) error { return w.writeBits(value, width) }

// WriteBooleans writes count copies of value.
func (w *WordWriter) WriteBooleans(value bool, count uint64) error {
	return w.writeBooleans(value, count)
}

// Position returns the number of bits written.
func (w *WordWriter) Position() uint64 { return w.pos }

// Flush pads the trailing partial word with pad bits, so the position moves to the next
// word boundary.
func (w *WordWriter) Flush(pad uint8) error {
	if err := checkBit("Flush", pad); err != nil {
		return err
	}
	if w.bitCount == 0 {
		return nil
	}

	var fill uint64
	if pad == 1 {
		fill = lowMask(64)
	}

	return w.writeBits(fill, 64-w.bitCount)
}

// Words returns the written words. A pending partial word is included zero-padded without
// flushing the writer.
func (w *WordWriter) Words() []uint64 {
	if w.bitCount == 0 {
		return w.sink.words
	}

	words := w.sink.words
	return append(words[:len(words):len(words)], w.bitBuf<<(64-w.bitCount))
}

// AppendBytes appends every written word to dst using engine, eight bytes per word.
//
// With endian.Big the bytes of a ByteWriter fed the same bits are a prefix of the output.
func (w *WordWriter) AppendBytes(dst []byte, engine endian.EndianEngine) []byte {
	return endian.AppendWords(dst, w.Words(), engine)
}

// WriteTo writes the big-endian bytes that hold written bits.
func (w *WordWriter) WriteTo(dst io.Writer) (int64, error) {
	used := int((w.pos + 7) / 8)
	n, err := dst.Write(w.AppendBytes(nil, endian.Big())[:used])

	return int64(n), err
}

// Release returns a growable writer's slice to the pool.
func (w *WordWriter) Release() {
	if !w.sink.fixed && w.sink.words != nil {
		pool.PutWords(w.sink.words)
		w.sink.words = nil
	}
}

// WordReader reads bits from a slice of 64-bit words.
type WordReader struct {
	readerCore
}

var (
	_ BitReader = (*WordReader)(nil)
	_ Seeker    = (*WordReader)(nil)
)

type wordSource struct {
	words []uint64
	next  int
}

func (s *wordSource) fill() (uint64, int, error) {
	if s.next >= len(s.words) {
		return 0, 0, io.EOF
	}
	word := s.words[s.next]
	s.next++

	return word, 64, nil
}

func (s *wordSource) seek(pos uint64) (int, error) {
	s.next = int(pos / 64)
	return int(pos % 64), nil
}

func (*wordSource) backward() bool { return true }

// NewWordReader reads all bits of words.
func NewWordReader(words []uint64) *WordReader {
	return NewWordReaderSize(words, uint64(len(words))*64)
}

// NewWordReaderSize reads the first size bits of words.
func NewWordReaderSize(words []uint64, size uint64) *WordReader {
	size = min(size, uint64(len(words))*64)

	return &WordReader{readerCore: newReaderCore(&wordSource{words: words}, size)}
}

// NewWordReaderBytes decodes data with engine and reads its first size bits.
func NewWordReaderBytes(data []byte, size uint64, engine endian.EndianEngine) *WordReader {
	return NewWordReaderSize(endian.Words(data, engine), min(size, uint64(len(data))*8))
}

// ReadBit reads one bit.
func (r *WordReader) ReadBit() (uint8, error) { return r.readBit() }

// ReadBits reads width bits.
func (r *WordReader) ReadBits(width int) (uint64, error) { return r.readBits(width) }

// ReadRun consumes a run of bits equal to bit.
func (r *WordReader) ReadRun(bit uint8, limit uint64) (uint64, error) { return r.readRun(bit, limit) }

// SkipBits advances by n bits.
func (r *WordReader) SkipBits(n uint64) error { return r.skip(n) }

// Position returns the number of bits consumed.
func (r *WordReader) Position() uint64 { return r.pos }

// Seek moves to bit position pos.
func (r *WordReader) Seek(pos uint64) error { return r.seek(pos) }

// CanSeekBackward reports true.
func (r *WordReader) CanSeekBackward() bool { return r.canSeekBackward() }
