package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClockReplacer(t *testing.T) {
	t.Run("victim selection follows clock order", func(t *testing.T) {
		replacer := NewClockReplacer(3)

		for frameId := 0; frameId < 3; frameId++ {
			replacer.Track(frameId)
			replacer.SetEvictable(frameId, true)
		}
		assert.Equal(t, 3, replacer.Size())

		// all reference bits are set, so the first sweep clears them and the
		// hand wraps back to frame 0
		victim, ok := replacer.Victim()
		assert.True(t, ok)
		assert.Equal(t, 0, victim)

		victim, ok = replacer.Victim()
		assert.True(t, ok)
		assert.Equal(t, 1, victim)

		victim, ok = replacer.Victim()
		assert.True(t, ok)
		assert.Equal(t, 2, victim)

		_, ok = replacer.Victim()
		assert.False(t, ok)
	})

	t.Run("re-tracked frame gets a second chance", func(t *testing.T) {
		replacer := NewClockReplacer(3)

		for frameId := 0; frameId < 3; frameId++ {
			replacer.Track(frameId)
			replacer.SetEvictable(frameId, true)
		}

		victim, ok := replacer.Victim()
		assert.True(t, ok)
		assert.Equal(t, 0, victim)

		// frame 1 is accessed again; the sweep must pass it over and take
		// frame 2 instead
		replacer.Track(1)

		victim, ok = replacer.Victim()
		assert.True(t, ok)
		assert.Equal(t, 2, victim)

		victim, ok = replacer.Victim()
		assert.True(t, ok)
		assert.Equal(t, 1, victim)
	})

	t.Run("non-evictable frames are never selected", func(t *testing.T) {
		replacer := NewClockReplacer(3)

		replacer.Track(0)
		replacer.Track(1)
		replacer.SetEvictable(1, true)

		assert.Equal(t, 1, replacer.Size())

		victim, ok := replacer.Victim()
		assert.True(t, ok)
		assert.Equal(t, 1, victim)

		_, ok = replacer.Victim()
		assert.False(t, ok)
	})

	t.Run("set evictable is ignored for untracked frames", func(t *testing.T) {
		replacer := NewClockReplacer(3)

		replacer.SetEvictable(2, true)
		assert.Equal(t, 0, replacer.Size())

		_, ok := replacer.Victim()
		assert.False(t, ok)
	})

	t.Run("remove drops a frame from tracking", func(t *testing.T) {
		replacer := NewClockReplacer(2)

		replacer.Track(0)
		replacer.SetEvictable(0, true)
		assert.Equal(t, 1, replacer.Size())

		replacer.Remove(0)
		assert.Equal(t, 0, replacer.Size())

		_, ok := replacer.Victim()
		assert.False(t, ok)
	})

	t.Run("toggling evictable keeps the count consistent", func(t *testing.T) {
		replacer := NewClockReplacer(2)

		replacer.Track(0)
		replacer.SetEvictable(0, true)
		replacer.SetEvictable(0, true)
		assert.Equal(t, 1, replacer.Size())

		replacer.SetEvictable(0, false)
		replacer.SetEvictable(0, false)
		assert.Equal(t, 0, replacer.Size())
	})
}
