package bitio

import (
	"encoding/binary"
	"io"

	"github.com/arloliu/bitrec/internal/pool"
)

// ByteWriter writes bits into a byte slice.
//
// A writer from NewByteWriter grows a pooled buffer on demand; a writer from
// NewFixedByteWriter fills a caller-supplied slice and fails with errs.ErrCapacity once it
// is full.
type ByteWriter struct {
	writerCore
	sink *byteSink
}

var (
	_ BitWriter = (*ByteWriter)(nil)
	_ BitWriter = (*WordWriter)(nil)
)

type byteSink struct {
	buf   *pool.ByteBuffer // growable mode
	fixed []byte           // fixed mode
	n     int              // bytes written in fixed mode
}

func (s *byteSink) emit(word uint64, nbits int) error {
	if s.fixed == nil {
		if nbits == 64 {
			s.buf.Grow(8)
			s.buf.B = binary.BigEndian.AppendUint64(s.buf.B, word)

			return nil
		}
		s.buf.B = appendWord(s.buf.B, word, nbits)

		return nil
	}

	// capacity is checked by the writer before any bit is accepted
	for i := range nbits / 8 {
		s.fixed[s.n] = byte(word >> (56 - i*8))
		s.n++
	}

	return nil
}

func (s *byteSink) bytes() []byte {
	if s.fixed == nil {
		return s.buf.Bytes()
	}

	return s.fixed[:s.n]
}

// NewByteWriter creates a growable writer backed by a pooled buffer.
//
// Call Release when the writer's bytes are no longer referenced to return the buffer to
// the pool.
func NewByteWriter() *ByteWriter {
	s := &byteSink{buf: pool.GetBitBuffer()}

	return &ByteWriter{writerCore: newWriterCore(s, noLimit), sink: s}
}

// NewFixedByteWriter creates a writer over buf with a capacity of len(buf)*8 bits.
func NewFixedByteWriter(buf []byte) *ByteWriter {
	if buf == nil {
		buf = []byte{}
	}
	s := &byteSink{fixed: buf}

	return &ByteWriter{writerCore: newWriterCore(s, uint64(len(buf))*8), sink: s}
}

// WriteBit writes a single bit.
func (w *ByteWriter) WriteBit(bit uint8) error { return w.writeBit(bit) }

// WriteBits writes the low width bits of value.
func (w *ByteWriter) WriteBits(value uint64, width int) error { return w.writeBits(value, width) }

// WriteBooleans writes count copies of value.
func (w *ByteWriter) WriteBooleans(value bool, count uint64) error {
	return w.writeBooleans(value, count)
}

// Position returns the number of bits written.
func (w *ByteWriter) Position() uint64 { return w.pos }

// Flush pads the trailing partial byte with pad bits.
func (w *ByteWriter) Flush(pad uint8) error { return w.flush(pad) }

// Capacity returns the capacity in bits, or 0 for a growable writer.
func (w *ByteWriter) Capacity() uint64 {
	if w.sink.fixed == nil {
		return 0
	}

	return w.capacity
}

// Bytes returns the written bytes. Unflushed trailing bits are included zero-padded,
// without flushing the writer.
//
// The returned slice aliases the writer's buffer when there are no pending bits and is
// valid until the next write, Reset or Release.
func (w *ByteWriter) Bytes() []byte {
	out := w.sink.bytes()
	tail := w.pending()
	if len(tail) == 0 {
		return out
	}

	return append(out[:len(out):len(out)], tail...)
}

// WriteTo flushes with zero padding and copies the bytes to dst.
func (w *ByteWriter) WriteTo(dst io.Writer) (int64, error) {
	if err := w.flush(0); err != nil {
		return 0, err
	}
	n, err := dst.Write(w.sink.bytes())

	return int64(n), err
}

// Reset discards all written bits and keeps the backing memory.
func (w *ByteWriter) Reset() {
	w.reset()
	if w.sink.fixed == nil {
		w.sink.buf.Reset()
	} else {
		w.sink.n = 0
	}
}

// Release returns a growable writer's buffer to the pool. The writer must not be used
// afterwards.
func (w *ByteWriter) Release() {
	if w.sink.buf != nil {
		pool.PutBitBuffer(w.sink.buf)
		w.sink.buf = nil
	}
}

// ByteReader reads bits from a byte slice. It seeks in both directions.
type ByteReader struct {
	readerCore
}

var (
	_ BitReader = (*ByteReader)(nil)
	_ Seeker    = (*ByteReader)(nil)
)

type byteSource struct {
	data []byte
	next int
}

// fill mirrors the decoder refill: eight bytes at once when available, otherwise the tail
// left-aligned.
func (s *byteSource) fill() (uint64, int, error) {
	if s.next >= len(s.data) {
		return 0, 0, io.EOF
	}

	avail := len(s.data) - s.next
	if avail >= 8 {
		word := binary.BigEndian.Uint64(s.data[s.next : s.next+8])
		s.next += 8

		return word, 64, nil
	}

	var word uint64
	for i := range avail {
		word = (word << 8) | uint64(s.data[s.next+i])
	}
	s.next += avail
	word <<= (8 - avail) * 8

	return word, avail * 8, nil
}

func (s *byteSource) seek(pos uint64) (int, error) {
	s.next = int(pos / 8)
	return int(pos % 8), nil
}

func (*byteSource) backward() bool { return true }

// NewByteReader reads all of data.
func NewByteReader(data []byte) *ByteReader {
	return NewByteReaderSize(data, uint64(len(data))*8)
}

// NewByteReaderSize reads the first size bits of data. A size past the end of data is
// clamped.
func NewByteReaderSize(data []byte, size uint64) *ByteReader {
	size = min(size, uint64(len(data))*8)

	return &ByteReader{readerCore: newReaderCore(&byteSource{data: data}, size)}
}

// ReadBit reads one bit.
func (r *ByteReader) ReadBit() (uint8, error) { return r.readBit() }

// ReadBits reads width bits.
func (r *ByteReader) ReadBits(width int) (uint64, error) { return r.readBits(width) }

// ReadRun consumes a run of bits equal to bit.
func (r *ByteReader) ReadRun(bit uint8, limit uint64) (uint64, error) { return r.readRun(bit, limit) }

// SkipBits advances by n bits.
func (r *ByteReader) SkipBits(n uint64) error { return r.skip(n) }

// Position returns the number of bits consumed.
func (r *ByteReader) Position() uint64 { return r.pos }

// Size returns the declared size in bits.
func (r *ByteReader) Size() uint64 { return r.limit }

// Seek moves to bit position pos.
func (r *ByteReader) Seek(pos uint64) error { return r.seek(pos) }

// CanSeekBackward reports true.
func (r *ByteReader) CanSeekBackward() bool { return r.canSeekBackward() }
