package snapshot

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeenWindowAbsorbsDuplicates(t *testing.T) {
	w := newSeenWindow(4)
	assert.True(t, w.Add("a"))
	assert.True(t, w.Add("b"))
	assert.False(t, w.Add("a"))
	assert.False(t, w.Add("b"))
	assert.Equal(t, 2, w.Len())
}

func TestSeenWindowEvictsOldestFirst(t *testing.T) {
	w := newSeenWindow(3)
	for _, id := range []string{"a", "b", "c"} {
		assert.True(t, w.Add(id))
	}
	// Window is full; adding "d" evicts "a".
	assert.True(t, w.Add("d"))
	assert.Equal(t, 3, w.Len())
	assert.True(t, w.Add("a"), "evicted id should count as new again")
	assert.False(t, w.Add("c"), "recent id must still be remembered")
}

func TestSeenWindowEmptyIDAlwaysNew(t *testing.T) {
	w := newSeenWindow(2)
	assert.True(t, w.Add(""))
	assert.True(t, w.Add(""))
	assert.Equal(t, 0, w.Len())
}

func TestSeenWindowStaysBounded(t *testing.T) {
	w := newSeenWindow(8)
	for i := 0; i < 1000; i++ {
		w.Add(fmt.Sprintf("ev-%d", i))
	}
	assert.Equal(t, 8, w.Len())
}

func TestSeenWindowMinimumCapacity(t *testing.T) {
	w := newSeenWindow(0)
	assert.True(t, w.Add("a"))
	assert.True(t, w.Add("b"))
	assert.Equal(t, 1, w.Len())
}
