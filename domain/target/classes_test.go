package target

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClass(t *testing.T) {
	cases := []struct {
		in   string
		want ClassID
	}{
		{"person", ClassPerson},
		{"  Teddy Bear ", 77},
		{"16", 16},
		{"0", ClassPerson},
	}
	for _, c := range cases {
		got, err := ParseClass(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
	for _, bad := range []string{"", "unicorn", "80", "-1"} {
		_, err := ParseClass(bad)
		assert.True(t, errors.Is(err, ErrUnknownClass), bad)
	}
}

func TestClassTableRoundTrip(t *testing.T) {
	assert.Equal(t, 80, NumClasses)
	for i := 0; i < NumClasses; i++ {
		id := ClassID(i)
		assert.Equal(t, id, ClassFromName(id.String()))
	}
	assert.Equal(t, "unknown", ClassUnknown.String())
}

func TestDefaultIgnoredClasses(t *testing.T) {
	names := DefaultIgnoredClasses()
	assert.Len(t, names, NumClasses-12)
	assert.NotContains(t, names, "person")
	assert.NotContains(t, names, "handbag")
	assert.Contains(t, names, "teddy bear")
	assert.Contains(t, names, "car")
}

func TestIgnoreSetToggle(t *testing.T) {
	s := NewIgnoreSet()
	assert.True(t, s.Toggle(ClassPerson))
	assert.True(t, s.Contains(ClassPerson))
	assert.False(t, s.Toggle(ClassPerson))
	assert.False(t, s.Contains(ClassPerson))

	s.Add(ClassUnknown)
	assert.Equal(t, 0, s.Len())
}

func TestIgnoreSetFromNames(t *testing.T) {
	s, unknown := NewIgnoreSetFromNames([]string{"Car", "16", "spaceship"})
	assert.Equal(t, []string{"spaceship"}, unknown)
	assert.Equal(t, []string{"car", "dog"}, s.Names())
}

func TestIgnoreSetSnapshotIsCopy(t *testing.T) {
	s := NewIgnoreSet(ClassPerson)
	snap := s.Snapshot()
	s.Remove(ClassPerson)
	_, ok := snap[ClassPerson]
	assert.True(t, ok)
}

func TestNewRect(t *testing.T) {
	r, err := NewRect(1, 2, 11, 22)
	require.NoError(t, err)
	assert.Equal(t, 10.0, r.Width())
	assert.Equal(t, 20.0, r.Height())
	x, y := r.Center()
	assert.Equal(t, 6.0, x)
	assert.Equal(t, 12.0, y)

	_, err = NewRect(5, 5, 5, 10)
	assert.ErrorIs(t, err, ErrInvalidRect)
}
