package bitio

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/bitrec/errs"
	"github.com/arloliu/bitrec/internal/endian"
)

type writeOp struct {
	value uint64
	width int
}

var sampleOps = []writeOp{
	{1, 1}, {0, 1}, {5, 3}, {0xABCD, 16}, {0, 0}, {0x7F, 7},
	{0xDEADBEEFCAFEBABE, 64}, {3, 2}, {0x1FFFFFFFFF, 37}, {0, 13},
}

func writeSample(t *testing.T, w BitWriter) uint64 {
	t.Helper()

	var total uint64
	for _, op := range sampleOps {
		require.NoError(t, w.WriteBits(op.value, op.width))
		total += uint64(op.width)
	}
	require.Equal(t, total, w.Position())

	return total
}

func readSample(t *testing.T, r BitReader) {
	t.Helper()

	for _, op := range sampleOps {
		got, err := r.ReadBits(op.width)
		require.NoError(t, err)
		require.Equal(t, op.value&lowMask(op.width), got, "width %d", op.width)
	}
}

func TestByteWriter_MSBFirst(t *testing.T) {
	w := NewByteWriter()
	defer w.Release()

	require.NoError(t, w.WriteBit(1))
	require.NoError(t, w.WriteBits(0b010, 3))
	require.NoError(t, w.WriteBits(0xF, 4))
	require.NoError(t, w.WriteBits(0b1, 1))
	require.Equal(t, uint64(9), w.Position())

	require.Equal(t, []byte{0xAF, 0x80}, w.Bytes())

	require.NoError(t, w.Flush(1))
	require.Equal(t, uint64(16), w.Position())
	require.Equal(t, []byte{0xAF, 0xFF}, w.Bytes())
}

func TestByteWriter_RoundTrip(t *testing.T) {
	w := NewByteWriter()
	defer w.Release()

	total := writeSample(t, w)
	require.NoError(t, w.Flush(0))

	r := NewByteReaderSize(w.Bytes(), total)
	readSample(t, r)

	_, err := r.ReadBit()
	require.ErrorIs(t, err, errs.ErrEndOfStream)
}

func TestByteWriter_WidthRange(t *testing.T) {
	w := NewByteWriter()
	defer w.Release()

	require.ErrorIs(t, w.WriteBits(0, 65), errs.ErrWidthRange)
	require.ErrorIs(t, w.WriteBits(0, -1), errs.ErrWidthRange)
	require.ErrorIs(t, w.WriteBit(2), errs.ErrDomain)
	require.Equal(t, uint64(0), w.Position())
}

func TestFixedByteWriter_Capacity(t *testing.T) {
	buf := make([]byte, 2)
	w := NewFixedByteWriter(buf)
	require.Equal(t, uint64(16), w.Capacity())

	require.NoError(t, w.WriteBits(0xFFF, 12))
	err := w.WriteBits(0x1F, 5)
	require.ErrorIs(t, err, errs.ErrCapacity)
	require.Equal(t, uint64(12), w.Position())

	require.NoError(t, w.WriteBits(0x0, 4))
	require.NoError(t, w.Flush(0))
	require.Equal(t, []byte{0xFF, 0xF0}, buf)
	require.ErrorIs(t, w.WriteBit(1), errs.ErrCapacity)
}

func TestWriteBooleans(t *testing.T) {
	w := NewByteWriter()
	defer w.Release()

	require.NoError(t, w.WriteBooleans(true, 70))
	require.NoError(t, w.WriteBooleans(false, 3))
	require.NoError(t, w.WriteBit(1))
	require.Equal(t, uint64(74), w.Position())

	r := NewByteReaderSize(w.Bytes(), w.Position())
	run, err := r.ReadRun(1, 1000)
	require.NoError(t, err)
	require.Equal(t, uint64(70), run)

	run, err = r.ReadRun(0, 2)
	require.NoError(t, err)
	require.Equal(t, uint64(2), run)

	run, err = r.ReadRun(0, 1000)
	require.NoError(t, err)
	require.Equal(t, uint64(1), run)

	bit, err := r.ReadBit()
	require.NoError(t, err)
	require.Equal(t, uint8(1), bit)

	_, err = r.ReadRun(1, 10)
	require.ErrorIs(t, err, errs.ErrEndOfStream)
}

func TestByteReader_ZeroWidthAtEnd(t *testing.T) {
	r := NewByteReader(nil)

	v, err := r.ReadBits(0)
	require.NoError(t, err)
	require.Zero(t, v)

	run, err := r.ReadRun(0, 0)
	require.NoError(t, err)
	require.Zero(t, run)

	_, err = r.ReadBits(1)
	require.ErrorIs(t, err, errs.ErrEndOfStream)
}

func TestByteReader_Seek(t *testing.T) {
	data := []byte{0x12, 0x34, 0x56, 0x78, 0x9A, 0xBC, 0xDE, 0xF0, 0x11, 0x22}
	r := NewByteReader(data)
	require.True(t, r.CanSeekBackward())

	require.NoError(t, r.Seek(68))
	v, err := r.ReadBits(8)
	require.NoError(t, err)
	require.Equal(t, uint64(0x12), v)
	require.Equal(t, uint64(76), r.Position())

	require.NoError(t, r.Seek(4))
	v, err = r.ReadBits(12)
	require.NoError(t, err)
	require.Equal(t, uint64(0x234), v)

	require.NoError(t, r.SkipBits(60))
	v, err = r.ReadBits(4)
	require.NoError(t, err)
	require.Equal(t, uint64(0x2), v)

	require.ErrorIs(t, r.Seek(81), errs.ErrSeekRange)
	require.ErrorIs(t, r.SkipBits(100), errs.ErrEndOfStream)
}

func TestWordWriter_MatchesByteWriter(t *testing.T) {
	bw := NewByteWriter()
	defer bw.Release()
	ww := NewWordWriter()
	defer ww.Release()

	writeSample(t, bw)
	total := writeSample(t, ww)

	big := ww.AppendBytes(nil, endian.Big())
	require.Len(t, big, 24)
	require.Equal(t, bw.Bytes(), big[:len(bw.Bytes())])

	var out bytes.Buffer
	_, err := ww.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, bw.Bytes(), out.Bytes())

	r := NewWordReaderSize(ww.Words(), total)
	readSample(t, r)

	little := ww.AppendBytes(nil, endian.Little())
	lr := NewWordReaderBytes(little, total, endian.Little())
	readSample(t, lr)
}

func TestWordWriter_FlushPadsWord(t *testing.T) {
	w := NewFixedWordWriter(2)
	require.NoError(t, w.WriteBits(0b101, 3))
	require.NoError(t, w.Flush(1))
	require.Equal(t, uint64(64), w.Position())
	require.Equal(t, []uint64{0xBFFFFFFFFFFFFFFF}, w.Words())

	require.NoError(t, w.WriteBits(0, 64))
	require.ErrorIs(t, w.WriteBit(0), errs.ErrCapacity)
}

func TestWordReader_SeekBackward(t *testing.T) {
	r := NewWordReader([]uint64{0x8000000000000001, 0xF000000000000000})

	require.NoError(t, r.Seek(63))
	v, err := r.ReadBits(5)
	require.NoError(t, err)
	require.Equal(t, uint64(0b11111), v)

	require.NoError(t, r.Seek(0))
	bit, err := r.ReadBit()
	require.NoError(t, err)
	require.Equal(t, uint8(1), bit)
}

func TestStream_RoundTrip(t *testing.T) {
	var out bytes.Buffer
	w := NewStreamWriter(&out)
	total := writeSample(t, w)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	require.Equal(t, int((total+7)/8), out.Len())

	r := NewStreamReaderSize(bytes.NewReader(out.Bytes()), total)
	require.False(t, r.CanSeekBackward())
	readSample(t, r)
	require.ErrorIs(t, r.Seek(0), errs.ErrBackwardSeek)
}

func TestStreamReader_ForwardSeek(t *testing.T) {
	r := NewStreamReader(bytes.NewReader([]byte{0x00, 0x0F, 0xF0}))

	require.NoError(t, r.Seek(12))
	v, err := r.ReadBits(8)
	require.NoError(t, err)
	require.Equal(t, uint64(0xFF), v)

	_, err = r.ReadBits(8)
	require.ErrorIs(t, err, errs.ErrEndOfStream)
}

func TestFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bits")

	w, err := CreateFile(path, WithBufferSize(64))
	require.NoError(t, err)
	require.Equal(t, path, w.Path())
	total := writeSample(t, w)
	require.NoError(t, w.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, int64((total+7)/8), info.Size())

	r, err := OpenFileSize(path, total)
	require.NoError(t, err)
	defer r.Close()

	readSample(t, r)
	require.NoError(t, r.Seek(1))
	v, err := r.ReadBits(4)
	require.NoError(t, err)
	require.Equal(t, uint64(0b0101), v)
}

func TestFile_Errors(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "missing.bits"))
	require.ErrorIs(t, err, errs.ErrIO)

	var ioErr *errs.IOError
	require.ErrorAs(t, err, &ioErr)

	_, err = CreateFile(filepath.Join(t.TempDir(), "x.bits"), WithBufferSize(1))
	require.Error(t, err)
}
