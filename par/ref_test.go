package par_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolkov/parslice/par"
)

func TestRefs_Element(t *testing.T) {
	s := par.WithValue(0, 6)
	r := s.Refs()

	*r.GetMut(1) = 5
	*r.GetMutUnchecked(2) = 6

	assert.Equal(t, 5, *r.Get(1))
	assert.Equal(t, 6, *r.GetUnchecked(2))
	assert.Same(t, r.Get(1), r.GetMut(1))
}

func TestRefs_ChunkCapacity(t *testing.T) {
	s := par.WithFunc(6, func(i int) int { return i })
	r := s.Refs()

	c := r.ChunkMut(1, 2)
	require.Len(t, c, 2)
	assert.Equal(t, 2, cap(c))

	// Appending must not spill into index 3.
	_ = append(c, 99)
	assert.Equal(t, 3, *r.Get(3))

	assert.Equal(t, 2, cap(r.ChunkUnchecked(3, 2)))
	assert.Equal(t, 2, cap(r.ChunkMutUnchecked(3, 2)))
	assert.Equal(t, []int{4, 5}, r.Chunk(4, 2))
	assert.Empty(t, r.Chunk(6, 0))
}

func TestRefs_Bounds(t *testing.T) {
	r := par.WithValue(0, 3).Refs()

	assert.ErrorIs(t, boundsErr(t, func() { r.Get(3) }), par.ErrIndexOutOfRange)
	assert.ErrorIs(t, boundsErr(t, func() { r.GetMut(-1) }), par.ErrIndexOutOfRange)
	assert.ErrorIs(t, boundsErr(t, func() { r.Chunk(2, 2) }), par.ErrRangeOutOfBounds)
	assert.ErrorIs(t, boundsErr(t, func() { r.ChunkMut(-1, 1) }), par.ErrRangeOutOfBounds)
}

// TestRefs_DisjointMutableChunks gives each goroutine its own mutable range.
func TestRefs_DisjointMutableChunks(t *testing.T) {
	const n, per = 64, 16
	s := par.WithValue(0, n)
	r := s.Refs()

	var wg sync.WaitGroup
	for start := 0; start < n; start += per {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, p := 0, r.ChunkMut(start, per); i < per; i++ {
				p[i] = start
			}
		}()
	}
	wg.Wait()

	out := s.IntoSlice()
	for i, x := range out {
		assert.Equal(t, i/per*per, x, "out[%d]", i)
	}
}
