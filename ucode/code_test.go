package ucode

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/bitrec/bitarray"
	"github.com/arloliu/bitrec/bitio"
	"github.com/arloliu/bitrec/errs"
)

func mustGolomb(t *testing.T, d uint64) Golomb {
	t.Helper()
	g, err := NewGolomb(d)
	require.NoError(t, err)

	return g
}

func mustRice(t *testing.T, b uint8) Rice {
	t.Helper()
	r, err := NewRice(b)
	require.NoError(t, err)

	return r
}

func mustTruncated(t *testing.T, m uint64) TruncatedBinary {
	t.Helper()
	c, err := NewTruncatedBinary(m)
	require.NoError(t, err)

	return c
}

// roundTrip encodes every value in sequence, then decodes them back and checks that
// BitLength matched each write.
func roundTrip(t *testing.T, c Code, values []uint64) {
	t.Helper()

	w := bitio.NewByteWriter()
	defer w.Release()

	var total uint64
	for _, v := range values {
		before := w.Position()
		n, err := c.Encode(w, v)
		require.NoError(t, err, "%s encode %d", c.Spec(), v)
		require.Equal(t, w.Position()-before, n, "%s bits written for %d", c.Spec(), v)
		require.Equal(t, c.BitLength(v), n, "%s BitLength(%d)", c.Spec(), v)
		total += n
	}

	r := bitio.NewByteReaderSize(w.Bytes(), total)
	for _, v := range values {
		got, err := c.Decode(r)
		require.NoError(t, err, "%s decode %d", c.Spec(), v)
		require.Equal(t, v, got, "%s", c.Spec())
	}
	require.Equal(t, total, r.Position())
}

func seq(n uint64) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = uint64(i)
	}

	return out
}

func TestGolomb_Vectors(t *testing.T) {
	tests := []struct {
		d    uint64
		n    uint64
		want string
	}{
		{4, 5, "1001"},
		{4, 4, "1000"},
		{4, 3, "011"},
		{4, 0, "000"},
		{10, 5, "0101"},
		{10, 6, "01100"},
		{10, 9, "01111"},
		{10, 10, "10000"},
		{3, 0, "00"},
		{3, 1, "010"},
		{3, 2, "011"},
		{1, 3, "1110"},
	}

	for _, tt := range tests {
		got, err := BitString(mustGolomb(t, tt.d), tt.n)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "Golomb(%d).encode(%d)", tt.d, tt.n)
	}
}

func TestGolomb_RoundTrip(t *testing.T) {
	for d := uint64(1); d <= 40; d++ {
		roundTrip(t, mustGolomb(t, d), seq(200))
	}

	roundTrip(t, mustGolomb(t, 1<<40+3), []uint64{0, 1, 1 << 40, 1<<42 + 17, math.MaxUint64 >> 20})
}

func TestRice_MatchesGolomb(t *testing.T) {
	for b := uint8(0); b <= 12; b++ {
		rice := mustRice(t, b)
		golomb := mustGolomb(t, 1<<b)
		require.True(t, rice.Equal(golomb))

		for n := uint64(0); n < 300; n++ {
			rs, err := BitString(rice, n)
			require.NoError(t, err)
			gs, err := BitString(golomb, n)
			require.NoError(t, err)
			require.Equal(t, gs, rs, "Rice(%d) vs Golomb(%d) at %d", b, 1<<b, n)
		}
		roundTrip(t, rice, seq(300))
	}

	_, err := NewRice(64)
	require.ErrorIs(t, err, errs.ErrInvalidParameter)
}

func TestTruncatedBinary_Lengths(t *testing.T) {
	for m := uint64(1); m <= 130; m++ {
		c := mustTruncated(t, m)
		k := uint64(0)
		for uint64(1)<<(k+1) <= m {
			k++
		}
		short := (uint64(1) << (k + 1)) - m

		var shortCount uint64
		for n := range m {
			l := c.BitLength(n)
			switch l {
			case k:
				shortCount++
			case k + 1:
			default:
				t.Fatalf("TruncatedBinary(%d) length %d for %d", m, l, n)
			}
		}
		require.Equal(t, short, shortCount, "TruncatedBinary(%d)", m)
		roundTrip(t, c, seq(m))
	}
}

func TestTruncatedBinary_Domain(t *testing.T) {
	c := mustTruncated(t, 5)

	w := bitio.NewByteWriter()
	defer w.Release()
	_, err := c.Encode(w, 5)
	require.ErrorIs(t, err, errs.ErrDomain)
	require.Zero(t, w.Position())
	require.Zero(t, c.BitLength(5))

	hi, bounded := c.Max()
	require.True(t, bounded)
	require.Equal(t, uint64(4), hi)

	_, err = NewTruncatedBinary(0)
	require.ErrorIs(t, err, errs.ErrInvalidParameter)

	wide := mustTruncated(t, math.MaxUint64)
	roundTrip(t, wide, []uint64{0, 1, math.MaxUint64 - 1, 1 << 63})
}

func TestUnary(t *testing.T) {
	one := NewUnary(OneExtended)
	s, err := BitString(one, 3)
	require.NoError(t, err)
	require.Equal(t, "1110", s)

	zero := NewUnary(ZeroExtended)
	s, err = BitString(zero, 3)
	require.NoError(t, err)
	require.Equal(t, "0001", s)

	roundTrip(t, one, []uint64{0, 5, 63, 64, 65, 200, 1})
	roundTrip(t, zero, []uint64{0, 5, 63, 64, 65, 200, 1})

	require.True(t, one.Equal(mustGolomb(t, 1)))
	require.False(t, one.Equal(zero))
}

func TestFixed(t *testing.T) {
	f, err := NewFixed(12)
	require.NoError(t, err)
	roundTrip(t, f, []uint64{0, 4095, 17})

	w := bitio.NewByteWriter()
	defer w.Release()
	_, err = f.Encode(w, 4096)
	require.ErrorIs(t, err, errs.ErrDomain)

	_, err = NewFixed(65)
	require.ErrorIs(t, err, errs.ErrWidthRange)

	f64, err := NewFixed(64)
	require.NoError(t, err)
	roundTrip(t, f64, []uint64{math.MaxUint64, 0})

	require.True(t, f.Equal(mustTruncated(t, 4096)))
}

func TestFromSpec(t *testing.T) {
	specs := []Spec{
		{Kind: KindUnary, Param: 1},
		{Kind: KindGolomb, Param: 7},
		{Kind: KindRice, Param: 3},
		{Kind: KindTruncatedBinary, Param: 11},
		{Kind: KindFixed, Param: 9},
	}
	for _, s := range specs {
		c, err := FromSpec(s)
		require.NoError(t, err)
		require.Equal(t, s, c.Spec())
	}

	for _, s := range []Spec{
		{Kind: KindUnary, Param: 2},
		{Kind: KindGolomb, Param: 0},
		{Kind: KindRice, Param: 300},
		{Kind: KindTruncatedBinary, Param: 0},
		{Kind: Kind(0x9), Param: 1},
	} {
		_, err := FromSpec(s)
		require.ErrorIs(t, err, errs.ErrInvalidParameter, "%v", s)
	}
}

func TestKind_Text(t *testing.T) {
	text, err := KindTruncatedBinary.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "TruncatedBinary", string(text))

	var k Kind
	require.NoError(t, k.UnmarshalText([]byte("rice")))
	require.Equal(t, KindRice, k)
	require.Error(t, k.UnmarshalText([]byte("huffman")))
}

func TestXorWrite_RestoresZero(t *testing.T) {
	codes := []Code{
		NewUnary(OneExtended),
		NewUnary(ZeroExtended),
		mustGolomb(t, 10),
		mustRice(t, 4),
		mustTruncated(t, 1000),
		Fixed{w: 10},
		Fixed{w: 64},
	}
	values := []uint64{0, 1, 7, 99, 512, 999}

	for _, c := range codes {
		for _, v := range values {
			nbits := c.BitLength(v)
			arr := bitarray.New(nbits + 8)

			_, err := c.Encode(arr.Writer(), v)
			require.NoError(t, err)

			_, err = c.Encode(arr.XorWriter(), v)
			require.NoError(t, err)
			require.Zero(t, arr.Count(), "%s value %d", c.Spec(), v)
		}
	}
}

func TestXorWrite_RestoresZeroExtended(t *testing.T) {
	xorTwice := func(t *testing.T, nbits uint64, write func(w bitio.BitWriter) (uint64, error)) {
		t.Helper()
		arr := bitarray.New(nbits + 8)

		n, err := write(arr.Writer())
		require.NoError(t, err)
		require.Equal(t, nbits, n)
		require.Positive(t, arr.Count())

		_, err = write(arr.XorWriter())
		require.NoError(t, err)
		require.Zero(t, arr.Count())
	}

	ints := Extend(mustGolomb(t, 6))
	for _, v := range []int64{-1, 1, -300, 4096, -70000} {
		xorTwice(t, ints.Int64BitLength(v), func(w bitio.BitWriter) (uint64, error) {
			return ints.EncodeInt64(w, v)
		})
	}

	floats := Extend(Fixed{w: 64})
	for _, v := range []float64{-0.5, 1, math.Inf(-1), math.MaxFloat64, math.SmallestNonzeroFloat64} {
		xorTwice(t, floats.Float64BitLength(v), func(w bitio.BitWriter) (uint64, error) {
			return floats.EncodeFloat64(w, v)
		})
	}

	for _, c := range []Code{Fixed{w: 8}, mustRice(t, 5), NewUnary(ZeroExtended)} {
		e := Extend(c)
		p := []byte("bits\x01\xff")
		xorTwice(t, e.BytesBitLength(p), func(w bitio.BitWriter) (uint64, error) {
			return e.EncodeBytes(w, p)
		})
		xorTwice(t, e.BytesBitLength([]byte("héllo")), func(w bitio.BitWriter) (uint64, error) {
			return e.EncodeString(w, "héllo")
		})
	}
}

func TestExtended(t *testing.T) {
	e := Extend(mustRice(t, 2))
	w := bitio.NewByteWriter()
	defer w.Release()

	ints := []int64{0, -1, 1, -64, 63, 1000}
	for _, v := range ints {
		n, err := e.EncodeInt64(w, v)
		require.NoError(t, err)
		require.Equal(t, e.Int64BitLength(v), n)
	}

	f := Extend(Fixed{w: 64})
	floats := []float64{0, -0.5, math.Inf(1), math.Inf(-1), 3.25, -1e300}
	for _, v := range floats {
		n, err := f.EncodeFloat64(w, v)
		require.NoError(t, err)
		require.Equal(t, f.Float64BitLength(v), n)
	}

	b := Extend(Fixed{w: 8})
	n, err := b.EncodeString(w, "héllo")
	require.NoError(t, err)
	require.Equal(t, uint64(6*8), n)
	require.Equal(t, n, b.BytesBitLength([]byte("héllo")))

	r := bitio.NewByteReaderSize(w.Bytes(), w.Position())
	for _, v := range ints {
		got, err := e.DecodeInt64(r)
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
	for _, v := range floats {
		got, err := f.DecodeFloat64(r)
		require.NoError(t, err)
		require.Equal(t, math.Float64bits(v), math.Float64bits(got))
	}
	s, err := b.DecodeString(r, 6)
	require.NoError(t, err)
	require.Equal(t, "héllo", s)
}

func TestSortableFloat_Order(t *testing.T) {
	values := []float64{math.Inf(-1), -1e10, -1, -1e-300, 0, 1e-300, 1, 1e10, math.Inf(1)}
	for i := 1; i < len(values); i++ {
		require.Less(t, SortableFloat(values[i-1]), SortableFloat(values[i]))
	}
	require.Equal(t, uint64(1), ZigZag(-1))
	require.Equal(t, int64(math.MinInt64), UnZigZag(ZigZag(math.MinInt64)))
}
