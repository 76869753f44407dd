package bitio

import (
	"errors"
	"io"

	ibitio "github.com/icza/bitio"

	"github.com/arloliu/bitrec/errs"
)

// StreamWriter writes bits to an io.Writer. Whole bytes go through an icza/bitio writer,
// which buffers the destination when it is not an io.ByteWriter.
type StreamWriter struct {
	writerCore
	bw     *ibitio.Writer
	closed bool
}

var _ BitWriter = (*StreamWriter)(nil)

type streamSink struct {
	bw *ibitio.Writer
}

func (s streamSink) emit(word uint64, nbits int) error {
	if err := s.bw.WriteBits(word>>(64-nbits), uint8(nbits)); err != nil {
		return errs.IO("write", "", err)
	}

	return nil
}

// NewStreamWriter creates a writer over w. Close must be called to push buffered bytes;
// it does not close w.
func NewStreamWriter(w io.Writer) *StreamWriter {
	bw := ibitio.NewWriter(w)

	return &StreamWriter{writerCore: newWriterCore(streamSink{bw: bw}, noLimit), bw: bw}
}

// WriteBit writes a single bit.
func (w *StreamWriter) WriteBit(bit uint8) error { return w.writeBit(bit) }

// WriteBits writes the low width bits of value.
func (w *StreamWriter) WriteBits(value uint64, width int) error { return w.writeBits(value, width) }

// WriteBooleans writes count copies of value.
func (w *StreamWriter) WriteBooleans(value bool, count uint64) error {
	return w.writeBooleans(value, count)
}

// Position returns the number of bits written.
func (w *StreamWriter) Position() uint64 { return w.pos }

// Flush pads the trailing partial byte with pad bits.
func (w *StreamWriter) Flush(pad uint8) error { return w.flush(pad) }

// Close flushes with zero padding and pushes buffered bytes to the destination.
func (w *StreamWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.flush(0); err != nil {
		return err
	}

	return errs.IO("close", "", w.bw.Close())
}

// StreamReader reads bits from an io.Reader. It only moves forward: Seek to an earlier
// position returns errs.ErrBackwardSeek.
type StreamReader struct {
	readerCore
}

var (
	_ BitReader = (*StreamReader)(nil)
	_ Seeker    = (*StreamReader)(nil)
)

type streamSource struct {
	br *ibitio.Reader
}

func (s streamSource) fill() (uint64, int, error) {
	var word uint64
	n := 0
	for n < 8 {
		b, err := s.br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return 0, 0, errs.IO("read", "", err)
		}
		word = (word << 8) | uint64(b)
		n++
	}
	if n == 0 {
		return 0, 0, io.EOF
	}
	word <<= (8 - n) * 8

	return word, n * 8, nil
}

// NewStreamReader reads r until it is exhausted.
func NewStreamReader(r io.Reader) *StreamReader {
	return NewStreamReaderSize(r, noLimit)
}

// NewStreamReaderSize reads at most size bits from r.
func NewStreamReaderSize(r io.Reader, size uint64) *StreamReader {
	return &StreamReader{readerCore: newReaderCore(streamSource{br: ibitio.NewReader(r)}, size)}
}

// ReadBit reads one bit.
func (r *StreamReader) ReadBit() (uint8, error) { return r.readBit() }

// ReadBits reads width bits.
func (r *StreamReader) ReadBits(width int) (uint64, error) { return r.readBits(width) }

// ReadRun consumes a run of bits equal to bit.
func (r *StreamReader) ReadRun(bit uint8, limit uint64) (uint64, error) { return r.readRun(bit, limit) }

// SkipBits advances by n bits.
func (r *StreamReader) SkipBits(n uint64) error { return r.skip(n) }

// Position returns the number of bits consumed.
func (r *StreamReader) Position() uint64 { return r.pos }

// Seek skips forward to pos.
func (r *StreamReader) Seek(pos uint64) error { return r.seek(pos) }

// CanSeekBackward reports false.
func (r *StreamReader) CanSeekBackward() bool { return false }
