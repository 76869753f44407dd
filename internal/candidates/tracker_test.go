package candidates

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/bitrec/errs"
)

func TestNewTracker(t *testing.T) {
	tracker := NewTracker()

	require.NotNil(t, tracker)
	require.Equal(t, 0, tracker.Count())
	require.False(t, tracker.HasCollision())
	tracked, _ := tracker.Sighting([]byte("x"), 1)
	require.False(t, tracked)
}

func TestTracker_Track(t *testing.T) {
	tracker := NewTracker()

	require.NoError(t, tracker.Track([]byte("alpha"), 0x1234567890abcdef))
	require.NoError(t, tracker.Track([]byte("beta"), 0xfedcba0987654321))
	require.Equal(t, 2, tracker.Count())
	require.False(t, tracker.HasCollision())
	require.ErrorIs(t, tracker.Track([]byte("alpha"), 0x1234567890abcdef), errs.ErrDuplicateValue)
	require.NoError(t, tracker.Track([]byte("alpha"), 0xfedcba0987654321))
	require.True(t, tracker.HasCollision())
}

func TestTracker_Track_Collision(t *testing.T) {
	tracker := NewTracker()

	require.NoError(t, tracker.Track([]byte("alpha"), 42))
	// Same hash, different key: both kept
	require.NoError(t, tracker.Track([]byte("gamma"), 42))
	require.True(t, tracker.HasCollision())
	require.Equal(t, 2, tracker.Count())
	require.ErrorIs(t, tracker.Track([]byte("alpha"), 42), errs.ErrDuplicateValue)
	require.ErrorIs(t, tracker.Track([]byte("gamma"), 42), errs.ErrDuplicateValue)
}

func TestTracker_Track_Duplicate(t *testing.T) {
	tracker := NewTracker()

	require.NoError(t, tracker.Track([]byte("alpha"), 42))
	err := tracker.Track([]byte("alpha"), 42)
	require.ErrorIs(t, err, errs.ErrDuplicateValue)
	require.False(t, tracker.HasCollision())
	require.Equal(t, 1, tracker.Count())
}

func TestTracker_Sighting(t *testing.T) {
	tracker := NewTracker()
	require.NoError(t, tracker.Track([]byte("alpha"), 42))
	require.NoError(t, tracker.Track([]byte("gamma"), 42))

	tracked, repeated := tracker.Sighting([]byte("omega"), 42)
	require.False(t, tracked)
	require.False(t, repeated)

	tracked, repeated = tracker.Sighting([]byte("gamma"), 42)
	require.True(t, tracked)
	require.False(t, repeated)

	tracked, repeated = tracker.Sighting([]byte("alpha"), 42)
	require.True(t, tracked)
	require.False(t, repeated)

	tracked, repeated = tracker.Sighting([]byte("gamma"), 42)
	require.True(t, tracked)
	require.True(t, repeated)
}
