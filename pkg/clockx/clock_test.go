package clockx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClock_New_DefaultCapacity(t *testing.T) {
	c := New(0)
	require.Equal(t, 1, c.Capacity())
	require.Equal(t, 0, c.Size())
}

func TestClock_SetEvictable_TracksSize(t *testing.T) {
	c := New(3)

	// not touched yet -> ignored
	c.SetEvictable(1, true)
	require.Equal(t, 0, c.Size())

	c.Touch(1)
	require.Equal(t, 0, c.Size())
	c.SetEvictable(1, true)
	c.SetEvictable(1, true)
	require.Equal(t, 1, c.Size())
	c.SetEvictable(1, false)
	require.Equal(t, 0, c.Size())
}

func TestClock_Evict_NoneEvictable(t *testing.T) {
	c := New(2)
	c.Touch(0)
	c.Touch(1)

	id, ok := c.Evict()
	require.False(t, ok)
	require.Equal(t, -1, id)
}

func TestClock_Evict_SecondChance(t *testing.T) {
	c := New(3)
	for i := 0; i < 3; i++ {
		c.Touch(i)
		c.SetEvictable(i, true)
	}

	// every ref bit is set: the first sweep clears them, then slot 0 goes
	v, ok := c.Evict()
	require.True(t, ok)
	require.Equal(t, 0, v)
	require.Equal(t, 2, c.Size())

	// slot 1 is used again, so slot 2 is the next victim
	c.Touch(1)
	v, ok = c.Evict()
	require.True(t, ok)
	require.Equal(t, 2, v)

	v, ok = c.Evict()
	require.True(t, ok)
	require.Equal(t, 1, v)

	_, ok = c.Evict()
	require.False(t, ok)
}

func TestClock_Remove(t *testing.T) {
	c := New(3)
	c.Touch(0)
	c.Touch(1)
	c.SetEvictable(0, true)
	c.SetEvictable(1, true)

	c.Remove(0)
	require.Equal(t, 1, c.Size())
	c.Remove(0)
	require.Equal(t, 1, c.Size())

	// present but pinned
	c.Touch(2)
	c.Remove(2)
	require.Equal(t, 1, c.Size())

	v, ok := c.Evict()
	require.True(t, ok)
	require.Equal(t, 1, v)
}

func TestClock_BoundsChecks(t *testing.T) {
	c := New(2)
	c.Touch(-1)
	c.Touch(2)
	c.SetEvictable(-1, true)
	c.SetEvictable(2, true)
	c.Remove(-1)
	c.Remove(2)
	require.Equal(t, 0, c.Size())
}
