package par

import "unsafe"

// The six capability sets below describe the accessor tiers independently.
// None embeds another: a reference is not a refined value accessor, it is an
// alternative view with a different contract. Code that only needs one tier
// should accept the matching interface, which also lets it run unchanged
// against the race-checking implementation returned by Slice.Checked.

// PointerIndex is the element-granularity address-only tier.
type PointerIndex[T any] interface {
	Len() int
	Addr(i int) unsafe.Pointer
	AddrUnchecked(i int) unsafe.Pointer
	Ptr(i int) *T
	PtrUnchecked(i int) *T
	ChunkAddr(start, n int) (unsafe.Pointer, int)
	ChunkPtr(start, n int) (*T, int)
}

// ValueIndex is the element-granularity copy-in/copy-out tier.
type ValueIndex[T any] interface {
	Len() int
	Get(i int) T
	GetUnchecked(i int) T
	Set(i int, value T)
	SetUnchecked(i int, value T)
	Replace(i int, value T) T
	GetChunk(start, n int) []T
	GetChunkInto(start int, dst []T) []T
	SetChunk(start int, values []T)
}

// RefIndex is the element-granularity reference tier.
type RefIndex[T any] interface {
	Len() int
	Get(i int) *T
	GetUnchecked(i int) *T
	GetMut(i int) *T
	GetMutUnchecked(i int) *T
	Chunk(start, n int) []T
	ChunkMut(start, n int) []T
}

// PointerChunkIndex is the chunk-granularity address-only tier.
type PointerChunkIndex[T any] interface {
	Len() int
	ChunkSize() int
	Bounds(k int) (start, end int)
	Ptr(k int) (*T, int)
	PtrUnchecked(k int) (*T, int)
}

// ValueChunkIndex is the chunk-granularity copy-in/copy-out tier.
type ValueChunkIndex[T any] interface {
	Len() int
	ChunkSize() int
	Bounds(k int) (start, end int)
	Get(k int) []T
	GetUnchecked(k int) []T
	GetInto(k int, dst []T) []T
	Set(k int, values []T)
	SetUnchecked(k int, values []T)
}

// RefChunkIndex is the chunk-granularity reference tier.
type RefChunkIndex[T any] interface {
	Len() int
	ChunkSize() int
	Bounds(k int) (start, end int)
	Get(k int) []T
	GetUnchecked(k int) []T
	GetMut(k int) []T
	GetMutUnchecked(k int) []T
}

var (
	_ PointerIndex[int]      = Pointers[int]{}
	_ ValueIndex[int]        = Values[int]{}
	_ RefIndex[int]          = Refs[int]{}
	_ PointerChunkIndex[int] = ChunkPointers[int]{}
	_ ValueChunkIndex[int]   = ChunkValues[int]{}
	_ RefChunkIndex[int]     = ChunkRefs[int]{}
	_ ValueIndex[int]        = CheckedValues[int]{}
)
