package bitio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/c2h5oh/datasize"
	"golang.org/x/exp/mmap"

	"github.com/arloliu/bitrec/errs"
	"github.com/arloliu/bitrec/internal/options"
)

// DefaultFileBufferSize is the write buffer of a FileWriter.
const DefaultFileBufferSize = 64 * datasize.KB

// FileConfig configures a FileWriter.
type FileConfig struct {
	BufferSize datasize.ByteSize
	Perm       os.FileMode
}

// FileOption configures a FileWriter.
type FileOption = options.Option[*FileConfig]

// WithBufferSize sets the write buffer size. It must be at least 16 bytes.
func WithBufferSize(size datasize.ByteSize) FileOption {
	return options.New(func(c *FileConfig) error {
		if size < 16 {
			return fmt.Errorf("buffer size %s too small", size.HumanReadable())
		}
		c.BufferSize = size

		return nil
	})
}

// WithPerm sets the permission bits of a created file.
func WithPerm(perm os.FileMode) FileOption {
	return options.NoError(func(c *FileConfig) {
		c.Perm = perm
	})
}

// FileWriter writes bits to a file through a buffered writer. It owns exactly one file
// handle, released by Close.
type FileWriter struct {
	writerCore
	path   string
	f      *os.File
	bw     *bufio.Writer
	closed bool
}

var _ BitWriter = (*FileWriter)(nil)

type fileSink struct {
	path string
	bw   *bufio.Writer
	tmp  [8]byte
}

func (s *fileSink) emit(word uint64, nbits int) error {
	binary.BigEndian.PutUint64(s.tmp[:], word)
	if _, err := s.bw.Write(s.tmp[:nbits/8]); err != nil {
		return errs.IO("write", s.path, err)
	}

	return nil
}

// CreateFile creates or truncates path and returns a writer over it.
func CreateFile(path string, opts ...FileOption) (*FileWriter, error) {
	cfg := &FileConfig{BufferSize: DefaultFileBufferSize, Perm: 0o644}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, cfg.Perm)
	if err != nil {
		return nil, errs.IO("create", path, err)
	}

	bw := bufio.NewWriterSize(f, int(cfg.BufferSize.Bytes()))
	w := &FileWriter{path: path, f: f, bw: bw}
	w.writerCore = newWriterCore(&fileSink{path: path, bw: bw}, noLimit)

	return w, nil
}

// WriteBit writes a single bit.
func (w *FileWriter) WriteBit(bit uint8) error { return w.writeBit(bit) }

// WriteBits writes the low width bits of value.
func (w *FileWriter) WriteBits(value uint64, width int) error { return w.writeBits(value, width) }

// WriteBooleans writes count copies of value.
func (w *FileWriter) WriteBooleans(value bool, count uint64) error {
	return w.writeBooleans(value, count)
}

// Position returns the number of bits written.
func (w *FileWriter) Position() uint64 { return w.pos }

// Flush pads the trailing partial byte with pad bits and flushes the buffer to the file.
func (w *FileWriter) Flush(pad uint8) error {
	if err := w.flush(pad); err != nil {
		return err
	}

	return errs.IO("flush", w.path, w.bw.Flush())
}

// Path returns the file path.
func (w *FileWriter) Path() string { return w.path }

// Close flushes with zero padding and closes the file. The handle is released even when
// the flush fails.
func (w *FileWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	flushErr := w.Flush(0)
	closeErr := errs.IO("close", w.path, w.f.Close())
	if flushErr != nil {
		return flushErr
	}

	return closeErr
}

// FileReader reads bits from a memory-mapped file and seeks in both directions. It owns
// exactly one mapping, released by Close.
type FileReader struct {
	readerCore
	path string
	ra   *mmap.ReaderAt
}

var (
	_ BitReader = (*FileReader)(nil)
	_ Seeker    = (*FileReader)(nil)
)

type mmapSource struct {
	path string
	ra   *mmap.ReaderAt
	next int64
	tmp  [8]byte
}

func (s *mmapSource) fill() (uint64, int, error) {
	if s.next >= int64(s.ra.Len()) {
		return 0, 0, io.EOF
	}

	n, err := s.ra.ReadAt(s.tmp[:], s.next)
	if n == 0 && err != nil {
		if err == io.EOF {
			return 0, 0, io.EOF
		}

		return 0, 0, errs.IO("read", s.path, err)
	}
	s.next += int64(n)

	var word uint64
	for i := range n {
		word = (word << 8) | uint64(s.tmp[i])
	}
	word <<= (8 - n) * 8

	return word, n * 8, nil
}

func (s *mmapSource) seek(pos uint64) (int, error) {
	s.next = int64(pos / 8)
	return int(pos % 8), nil
}

func (*mmapSource) backward() bool { return true }

// OpenFile maps path for reading.
func OpenFile(path string) (*FileReader, error) {
	return OpenFileSize(path, noLimit)
}

// OpenFileSize maps path and reads at most size bits of it.
func OpenFileSize(path string, size uint64) (*FileReader, error) {
	ra, err := mmap.Open(path)
	if err != nil {
		return nil, errs.IO("open", path, err)
	}

	size = min(size, uint64(ra.Len())*8)
	r := &FileReader{path: path, ra: ra}
	r.readerCore = newReaderCore(&mmapSource{path: path, ra: ra}, size)

	return r, nil
}

// ReadBit reads one bit.
func (r *FileReader) ReadBit() (uint8, error) { return r.readBit() }

// ReadBits reads width bits.
func (r *FileReader) ReadBits(width int) (uint64, error) { return r.readBits(width) }

// ReadRun consumes a run of bits equal to bit.
func (r *FileReader) ReadRun(bit uint8, limit uint64) (uint64, error) { return r.readRun(bit, limit) }

// SkipBits advances by n bits.
func (r *FileReader) SkipBits(n uint64) error { return r.skip(n) }

// Position returns the number of bits consumed.
func (r *FileReader) Position() uint64 { return r.pos }

// Size returns the readable size in bits.
func (r *FileReader) Size() uint64 { return r.limit }

// Seek moves to bit position pos.
func (r *FileReader) Seek(pos uint64) error { return r.seek(pos) }

// CanSeekBackward reports true.
func (r *FileReader) CanSeekBackward() bool { return r.canSeekBackward() }

// Close unmaps the file.
func (r *FileReader) Close() error {
	if r.ra == nil {
		return nil
	}
	err := r.ra.Close()
	r.ra = nil

	return errs.IO("close", r.path, err)
}
