package par_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolkov/parslice/par"
)

func TestValues_GetSet(t *testing.T) {
	s := par.WithFunc(5, func(i int) int { return i })
	v := s.Values()

	v.Set(2, 100)
	assert.Equal(t, 100, v.Get(2))
	v.SetUnchecked(4, 400)
	assert.Equal(t, 400, v.GetUnchecked(4))

	assert.Equal(t, []int{0, 1, 100, 3, 400}, s.IntoSlice(), "Set must not touch other indices")
}

func TestValues_Replace(t *testing.T) {
	s := par.WithValue("old", 2)
	v := s.Values()

	assert.Equal(t, "old", v.Replace(0, "new"))
	assert.Equal(t, "old", v.ReplaceUnchecked(1, "newer"))
	assert.Equal(t, []string{"new", "newer"}, s.IntoSlice())
}

func TestValues_Swap(t *testing.T) {
	s := par.WithFunc(4, func(i int) int { return i })
	v := s.Values()

	v.Swap(0, 3)
	v.SwapUnchecked(1, 1)
	assert.Equal(t, []int{3, 1, 2, 0}, s.IntoSlice())
}

func TestValues_Chunks(t *testing.T) {
	s := par.WithFunc(6, func(i int) int { return i * i })
	v := s.Values()

	got := v.GetChunk(2, 3)
	assert.Equal(t, []int{4, 9, 16}, got)

	got[0] = -1
	assert.Equal(t, 4, v.Get(2), "GetChunk must return a copy")

	dst := make([]int, 2)
	assert.Equal(t, []int{16, 25}, v.GetChunkInto(4, dst))
	assert.Equal(t, []int{1, 4}, v.GetChunkUnchecked(1, 2))

	v.SetChunk(0, []int{7, 8})
	v.SetChunkUnchecked(5, []int{9})

	if diff := cmp.Diff([]int{7, 8, 4, 9, 16, 9}, s.IntoSlice()); diff != "" {
		t.Errorf("buffer mismatch (-want +got):\n%s", diff)
	}
}

func TestValues_EmptyChunk(t *testing.T) {
	v := par.WithValue(1, 3).Values()

	assert.Empty(t, v.GetChunk(3, 0))
	assert.NotPanics(t, func() { v.SetChunk(3, nil) })
}

func TestValues_Bounds(t *testing.T) {
	tests := []struct {
		name string
		call func(v par.Values[int])
		want error
	}{
		{"Get -1", func(v par.Values[int]) { v.Get(-1) }, par.ErrIndexOutOfRange},
		{"Get len", func(v par.Values[int]) { v.Get(4) }, par.ErrIndexOutOfRange},
		{"Set len", func(v par.Values[int]) { v.Set(4, 1) }, par.ErrIndexOutOfRange},
		{"Replace", func(v par.Values[int]) { v.Replace(9, 1) }, par.ErrIndexOutOfRange},
		{"GetChunk overrun", func(v par.Values[int]) { v.GetChunk(3, 2) }, par.ErrRangeOutOfBounds},
		{"GetChunk negative", func(v par.Values[int]) { v.GetChunk(0, -1) }, par.ErrRangeOutOfBounds},
		{"GetChunkInto", func(v par.Values[int]) { v.GetChunkInto(2, make([]int, 3)) }, par.ErrRangeOutOfBounds},
		{"SetChunk", func(v par.Values[int]) { v.SetChunk(1, []int{9, 9, 9, 9}) }, par.ErrRangeOutOfBounds},
		{"Swap second", func(v par.Values[int]) { v.Swap(0, 4) }, par.ErrIndexOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := par.WithFunc(4, func(i int) int { return i })

			err := boundsErr(t, func() { tt.call(s.Values()) })
			require.NotNil(t, err, "expected a panic")
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 4, err.Len)

			// A failed call writes nothing.
			assert.Equal(t, []int{0, 1, 2, 3}, s.IntoSlice())
		})
	}
}

func TestValues_ImplementsValueIndex(t *testing.T) {
	var idx par.ValueIndex[int] = par.WithValue(0, 3).Values()
	idx.Set(1, 5)
	assert.Equal(t, 5, idx.Get(1))
}

func BenchmarkValues_Set(b *testing.B) {
	v := par.WithValue(0, 1024).Values()
	for i := 0; i < b.N; i++ {
		v.Set(i&1023, i)
	}
}

func BenchmarkValues_SetUnchecked(b *testing.B) {
	v := par.WithValue(0, 1024).Values()
	for i := 0; i < b.N; i++ {
		v.SetUnchecked(i&1023, i)
	}
}
