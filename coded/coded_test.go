package coded

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/bitrec/bitio"
	"github.com/arloliu/bitrec/errs"
	"github.com/arloliu/bitrec/ucode"
)

func riceCode(t *testing.T, b uint8) ucode.Code {
	t.Helper()
	c, err := ucode.NewRice(b)
	require.NoError(t, err)

	return c
}

// writeAll exercises every typed write against cw.
func writeAll(t *testing.T, cw *Writer, huge *big.Int) {
	t.Helper()

	require.NoError(t, cw.WritePositiveInt(42))
	require.NoError(t, cw.WritePositiveLong(1<<40))
	require.NoError(t, cw.WriteInt(-7))
	require.NoError(t, cw.WriteLong(math.MinInt64/3))
	require.NoError(t, cw.WriteUint64(3))
	require.NoError(t, cw.WriteBool(true))
	require.NoError(t, cw.WriteFloat64(-2.5))
	require.NoError(t, cw.WriteString("bits"))
	require.NoError(t, cw.WriteBytes(nil))
	require.NoError(t, cw.WriteBigInt(huge))
	require.NoError(t, cw.WriteBigInt(big.NewInt(0)))
	require.NoError(t, WritePositiveSlice(cw, []uint16{1, 2, 300}))
	require.NoError(t, WriteSignedSlice(cw, []int8{-128, 0, 127}))
}

func TestWriterReader_RoundTrip(t *testing.T) {
	huge, ok := new(big.Int).SetString("-123456789012345678901234567890123456789", 10)
	require.True(t, ok)

	fixed, err := ucode.NewFixed(64)
	require.NoError(t, err)

	// wide parameters keep the unary part short for 64-bit patterns such as doubles
	for _, code := range []ucode.Code{riceCode(t, 60), fixed} {
		w := bitio.NewByteWriter()
		cw := NewWriter(w, code)
		writeAll(t, cw, huge)

		sizer := NewSizer(code)
		writeAll(t, sizer.Writer, huge)
		require.Equal(t, cw.Position(), sizer.Bits(), "%s", code.Spec())

		cr := NewReader(bitio.NewByteReaderSize(w.Bytes(), w.Position()), code)

		i32, err := cr.ReadPositiveInt()
		require.NoError(t, err)
		require.Equal(t, int32(42), i32)

		i64, err := cr.ReadPositiveLong()
		require.NoError(t, err)
		require.Equal(t, int64(1<<40), i64)

		s32, err := cr.ReadInt()
		require.NoError(t, err)
		require.Equal(t, int32(-7), s32)

		s64, err := cr.ReadLong()
		require.NoError(t, err)
		require.Equal(t, int64(math.MinInt64/3), s64)

		u, err := cr.ReadUint64()
		require.NoError(t, err)
		require.Equal(t, uint64(3), u)

		b, err := cr.ReadBool()
		require.NoError(t, err)
		require.True(t, b)

		f, err := cr.ReadFloat64()
		require.NoError(t, err)
		require.Equal(t, -2.5, f)

		s, err := cr.ReadString()
		require.NoError(t, err)
		require.Equal(t, "bits", s)

		p, err := cr.ReadBytes()
		require.NoError(t, err)
		require.Empty(t, p)

		bi, err := cr.ReadBigInt()
		require.NoError(t, err)
		require.Zero(t, huge.Cmp(bi))

		zero, err := cr.ReadBigInt()
		require.NoError(t, err)
		require.Zero(t, zero.Sign())

		us, err := ReadPositiveSlice[uint16](cr)
		require.NoError(t, err)
		require.Equal(t, []uint16{1, 2, 300}, us)

		ss, err := ReadSignedSlice[int8](cr)
		require.NoError(t, err)
		require.Equal(t, []int8{-128, 0, 127}, ss)

		require.Equal(t, w.Position(), cr.Position())
		w.Release()
	}
}

func TestWriter_NegativePositive(t *testing.T) {
	cw := NewWriter(bitio.NewByteWriter(), riceCode(t, 2))

	require.ErrorIs(t, cw.WritePositiveInt(-1), errs.ErrDomain)
	require.ErrorIs(t, cw.WritePositiveLong(math.MinInt64), errs.ErrDomain)
	require.ErrorIs(t, WritePositiveSlice(cw, []int{1, -2}), errs.ErrDomain)
	require.ErrorIs(t, cw.WriteBigInt(nil), errs.ErrDomain)
}

func TestReader_ElementOverflow(t *testing.T) {
	w := bitio.NewByteWriter()
	defer w.Release()

	cw := NewWriter(w, riceCode(t, 40))
	require.NoError(t, WritePositiveSlice(cw, []int{70000}))
	require.NoError(t, cw.WriteLong(1<<40))

	cr := NewReader(bitio.NewByteReaderSize(w.Bytes(), w.Position()), riceCode(t, 40))
	_, err := ReadPositiveSlice[uint16](cr)
	require.ErrorIs(t, err, errs.ErrDomain)

	_, err = cr.ReadInt()
	require.ErrorIs(t, err, errs.ErrDomain)
}

func TestSizer_BoundedDomain(t *testing.T) {
	tb, err := ucode.NewTruncatedBinary(10)
	require.NoError(t, err)

	s := NewSizer(tb)
	require.NoError(t, s.WriteUint64(9))
	require.Equal(t, uint64(4), s.Bits())
	require.ErrorIs(t, s.WriteUint64(10), errs.ErrDomain)

	s.Reset()
	require.Zero(t, s.Bits())
}
