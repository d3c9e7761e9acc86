package par

// Values is the copy-in/copy-out tier of a Slice.
//
// Reads return copies and writes consume values; no pointer into the storage
// ever reaches the caller, so there are no reference lifetimes to reason
// about. The caller must only guarantee the absence of data races: a write
// to index i must not run concurrently with any other access to index i,
// from any goroutine. Concurrent reads of the same index are fine.
//
// Chunk operations apply the same rule to every index of the range.
//
// The ...Unchecked variants skip the bounds check; an out-of-range index is
// undefined behavior.
type Values[T any] struct {
	s *Slice[T]
}

// Values returns the copy-in/copy-out tier of s.
func (s *Slice[T]) Values() Values[T] {
	return Values[T]{s: s}
}

// Len returns the number of elements.
func (v Values[T]) Len() int {
	return len(v.s.data)
}

// Get returns a copy of element i.
//
// Panics with a *BoundsError unless 0 <= i < Len().
func (v Values[T]) Get(i int) T {
	checkIndex("Values.Get", len(v.s.data), i)
	return *v.s.elem(i)
}

// GetUnchecked is Get without the bounds check.
func (v Values[T]) GetUnchecked(i int) T {
	return *v.s.elem(i)
}

// Set overwrites element i with value. No other element is affected.
//
// Panics with a *BoundsError unless 0 <= i < Len().
func (v Values[T]) Set(i int, value T) {
	checkIndex("Values.Set", len(v.s.data), i)
	*v.s.elem(i) = value
}

// SetUnchecked is Set without the bounds check.
func (v Values[T]) SetUnchecked(i int, value T) {
	*v.s.elem(i) = value
}

// Replace overwrites element i with value and returns the previous value.
//
// Panics with a *BoundsError unless 0 <= i < Len().
func (v Values[T]) Replace(i int, value T) T {
	checkIndex("Values.Replace", len(v.s.data), i)
	p := v.s.elem(i)
	old := *p
	*p = value
	return old
}

// ReplaceUnchecked is Replace without the bounds check.
func (v Values[T]) ReplaceUnchecked(i int, value T) T {
	p := v.s.elem(i)
	old := *p
	*p = value
	return old
}

// GetChunk returns a newly allocated copy of the range [start, start+n).
//
// Panics with a *BoundsError unless the range lies within the Slice.
func (v Values[T]) GetChunk(start, n int) []T {
	checkRange("Values.GetChunk", len(v.s.data), start, n)
	out := make([]T, n)
	copy(out, v.s.span(start, n))
	return out
}

// GetChunkUnchecked is GetChunk without the bounds check.
func (v Values[T]) GetChunkUnchecked(start, n int) []T {
	out := make([]T, n)
	copy(out, v.s.span(start, n))
	return out
}

// GetChunkInto copies the range [start, start+len(dst)) into dst and
// returns dst. It allocates nothing.
//
// Panics with a *BoundsError unless the range lies within the Slice.
func (v Values[T]) GetChunkInto(start int, dst []T) []T {
	checkRange("Values.GetChunkInto", len(v.s.data), start, len(dst))
	copy(dst, v.s.span(start, len(dst)))
	return dst
}

// SetChunk copies values into the range [start, start+len(values)).
// Elements outside the range are not affected.
//
// The range is validated before anything is written, so a panicking call
// leaves the Slice untouched.
//
// Panics with a *BoundsError unless the range lies within the Slice.
func (v Values[T]) SetChunk(start int, values []T) {
	checkRange("Values.SetChunk", len(v.s.data), start, len(values))
	copy(v.s.span(start, len(values)), values)
}

// SetChunkUnchecked is SetChunk without the bounds check.
func (v Values[T]) SetChunkUnchecked(start int, values []T) {
	copy(v.s.span(start, len(values)), values)
}

// Swap exchanges elements i and j. Both indices count as written.
//
// Panics with a *BoundsError unless both indices are within the Slice.
func (v Values[T]) Swap(i, j int) {
	checkIndex("Values.Swap", len(v.s.data), i)
	checkIndex("Values.Swap", len(v.s.data), j)
	v.SwapUnchecked(i, j)
}

// SwapUnchecked is Swap without the bounds check.
func (v Values[T]) SwapUnchecked(i, j int) {
	a, b := v.s.elem(i), v.s.elem(j)
	*a, *b = *b, *a
}
