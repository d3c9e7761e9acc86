package par

// Refs is the reference tier of a Slice: it hands out pointers and
// sub-slices that alias the storage directly.
//
// This is the most ergonomic tier and the most demanding one. On top of the
// no-data-race rule of the value tier, for as long as a returned pointer or
// slice is in use the caller must guarantee that
//
//   - at most one mutable reference (GetMut, ChunkMut) covers a given index,
//     across all goroutines, and
//   - a mutable reference never coexists with any other reference, mutable
//     or shared, to the same index.
//
// Two chunk references conflict as soon as their ranges overlap, whether or
// not the overlapping indices are ever touched. Breaking either rule is
// undefined behavior even if no torn value is ever observed. Go cannot
// express read-only pointers, so the split between Get and GetMut is a
// contract, not a type.
//
// Returned sub-slices have their capacity clipped to their length, so
// append never writes past the chunk.
type Refs[T any] struct {
	s *Slice[T]
}

// Refs returns the reference tier of s.
func (s *Slice[T]) Refs() Refs[T] {
	return Refs[T]{s: s}
}

// Len returns the number of elements.
func (r Refs[T]) Len() int {
	return len(r.s.data)
}

// Get returns a shared reference to element i. The caller must not write
// through it.
//
// Panics with a *BoundsError unless 0 <= i < Len().
func (r Refs[T]) Get(i int) *T {
	checkIndex("Refs.Get", len(r.s.data), i)
	return &r.s.data[i]
}

// GetUnchecked is Get without the bounds check.
func (r Refs[T]) GetUnchecked(i int) *T {
	return r.s.elem(i)
}

// GetMut returns an exclusive reference to element i.
//
// Panics with a *BoundsError unless 0 <= i < Len().
func (r Refs[T]) GetMut(i int) *T {
	checkIndex("Refs.GetMut", len(r.s.data), i)
	return &r.s.data[i]
}

// GetMutUnchecked is GetMut without the bounds check.
func (r Refs[T]) GetMutUnchecked(i int) *T {
	return r.s.elem(i)
}

// Chunk returns a shared reference to the range [start, start+n).
//
// Panics with a *BoundsError unless the range lies within the Slice.
func (r Refs[T]) Chunk(start, n int) []T {
	checkRange("Refs.Chunk", len(r.s.data), start, n)
	return r.s.data[start : start+n : start+n]
}

// ChunkUnchecked is Chunk without the bounds check.
func (r Refs[T]) ChunkUnchecked(start, n int) []T {
	return r.s.span(start, n)
}

// ChunkMut returns an exclusive reference to the range [start, start+n).
//
// Panics with a *BoundsError unless the range lies within the Slice.
func (r Refs[T]) ChunkMut(start, n int) []T {
	checkRange("Refs.ChunkMut", len(r.s.data), start, n)
	return r.s.data[start : start+n : start+n]
}

// ChunkMutUnchecked is ChunkMut without the bounds check.
func (r Refs[T]) ChunkMutUnchecked(start, n int) []T {
	return r.s.span(start, n)
}
