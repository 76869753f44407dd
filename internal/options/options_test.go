package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type target struct {
	width int
	name  string
}

var errBadWidth = errors.New("bad width")

func withWidth(w int) Option[*target] {
	return Named("width", func(t *target) error {
		if w < 0 {
			return errBadWidth
		}
		t.width = w

		return nil
	})
}

func withName(n string) Option[*target] {
	return NoError(func(t *target) { t.name = n })
}

func TestApply(t *testing.T) {
	tg := &target{}

	err := Apply(tg, withWidth(8), withName("rice"), nil)
	require.NoError(t, err)
	require.Equal(t, 8, tg.width)
	require.Equal(t, "rice", tg.name)
}

func TestApply_StopsOnError(t *testing.T) {
	tg := &target{}

	err := Apply(tg, withWidth(-1), withName("never"))
	require.ErrorIs(t, err, errBadWidth)
	require.Equal(t, "width: bad width", err.Error())
	require.Empty(t, tg.name)
}

func TestNew(t *testing.T) {
	tg := &target{}
	opt := New(func(t *target) error {
		t.width = 3
		return nil
	})

	require.NoError(t, Apply[*target](tg, opt))
	require.Equal(t, 3, tg.width)
}
