package endian

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNative(t *testing.T) {
	native := Native()
	require.True(t, native == binary.LittleEndian || native == binary.BigEndian)
}

func TestAppendWords_RoundTrip(t *testing.T) {
	words := []uint64{0x0123456789ABCDEF, 0, ^uint64(0)}

	for _, engine := range []EndianEngine{Little(), Big()} {
		data := AppendWords(nil, words, engine)
		require.Len(t, data, 24)
		require.Equal(t, words, Words(data, engine))
	}
}

func TestAppendWords_BigMatchesBitOrder(t *testing.T) {
	data := AppendWords(nil, []uint64{0xA000000000000000}, Big())
	require.Equal(t, byte(0xA0), data[0])
}

func TestWords_PartialTail(t *testing.T) {
	words := Words([]byte{0xFF, 0x01}, Big())
	require.Equal(t, []uint64{0xFF01000000000000}, words)
}
