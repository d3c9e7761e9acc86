package par_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolkov/parslice/par"
)

func TestPointers_Addresses(t *testing.T) {
	s := par.WithFunc(4, func(i int) int64 { return int64(i) })
	p := s.Pointers()

	base := uintptr(p.Addr(0))
	for i := 0; i < p.Len(); i++ {
		assert.Equal(t, base+uintptr(i)*8, uintptr(p.Addr(i)), "Addr(%d)", i)
		assert.Equal(t, p.Addr(i), p.AddrUnchecked(i))
		assert.Equal(t, p.Ptr(i), p.PtrUnchecked(i))
	}

	*p.Ptr(3) = 30
	assert.Equal(t, int64(30), *(*int64)(p.Addr(3)))
}

func TestPointers_Chunk(t *testing.T) {
	s := par.WithFunc(6, func(i int) int { return i })
	p := s.Pointers()

	ptr, n := p.ChunkPtr(2, 3)
	require.Equal(t, 3, n)
	chunk := unsafe.Slice(ptr, n)
	for i := range chunk {
		chunk[i] *= 10
	}

	addr, n := p.ChunkAddr(2, 3)
	assert.Equal(t, 3, n)
	assert.Equal(t, unsafe.Pointer(ptr), addr)

	uaddr, _ := p.ChunkAddrUnchecked(2, 3)
	uptr, _ := p.ChunkPtrUnchecked(2, 3)
	assert.Equal(t, addr, uaddr)
	assert.Equal(t, ptr, uptr)

	assert.Equal(t, []int{0, 1, 20, 30, 40, 5}, s.IntoSlice())
}

func TestPointers_Bounds(t *testing.T) {
	p := par.WithValue(0, 2).Pointers()

	for name, f := range map[string]func(){
		"Addr":     func() { p.Addr(2) },
		"Ptr":      func() { p.Ptr(-1) },
		"ChunkPtr": func() { p.ChunkPtr(1, 2) },
		"ChunkAdr": func() { p.ChunkAddr(3, 0) },
	} {
		t.Run(name, func(t *testing.T) {
			assert.NotNil(t, boundsErr(t, f))
		})
	}
}
