package errs

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubState string

func (s stubState) String() string { return string(s) }

func TestDomainError(t *testing.T) {
	err := Domain("TruncatedBinary.Encode", uint64(9), "alphabet size 4")

	require.ErrorIs(t, err, ErrDomain)
	require.Contains(t, err.Error(), "alphabet size 4")

	var de *DomainError
	require.True(t, errors.As(err, &de))
	require.Equal(t, uint64(9), de.Value)
}

func TestIOError(t *testing.T) {
	err := IO("read", "/tmp/data.bits", io.ErrUnexpectedEOF)

	require.ErrorIs(t, err, ErrIO)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	require.Contains(t, err.Error(), "/tmp/data.bits")

	require.NoError(t, IO("read", "", nil))
}

func TestStateError(t *testing.T) {
	err := State("Consume", stubState("Prepared"))

	require.ErrorIs(t, err, ErrState)
	require.Equal(t, "Consume: not allowed in state Prepared", err.Error())
}
