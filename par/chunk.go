package par

// Chunked partitions a Slice into consecutive, non-overlapping chunks of a
// fixed size. Chunk k covers [k*size, min((k+1)*size, N)); only the last
// chunk may be shorter.
//
// The chunk count follows the length of the Slice, so a view taken before
// IntoSlice has no chunks afterwards.
//
// Chunks are addressed by chunk index through the same three tiers as
// elements: ChunkPointers, ChunkValues and ChunkRefs. Because chunks of one
// partitioning never overlap, handing distinct chunk indices to distinct
// goroutines satisfies both the no-data-race rule and the aliasing rule
// without further reasoning.
type Chunked[T any] struct {
	s    *Slice[T]
	size int
}

// ChunkBy partitions s into chunks of size elements.
//
// Panics with a *BoundsError wrapping ErrChunkSize if size <= 0.
func (s *Slice[T]) ChunkBy(size int) Chunked[T] {
	if size <= 0 {
		panic(&BoundsError{Op: "ChunkBy", Index: size, Err: ErrChunkSize})
	}
	return Chunked[T]{s: s, size: size}
}

// Partition splits s into at most count chunks of ceil(N/count) elements.
//
// Fewer than count chunks are produced when N is not large enough to give
// every chunk an element (for example N=6, count=4 yields 3 chunks of 2).
//
// Panics with a *BoundsError wrapping ErrChunkSize if count <= 0.
func (s *Slice[T]) Partition(count int) Chunked[T] {
	if count <= 0 {
		panic(&BoundsError{Op: "Partition", Index: count, Err: ErrChunkSize})
	}
	size := max(ceilDiv(len(s.data), count), 1)
	return Chunked[T]{s: s, size: size}
}

// Len returns the number of chunks.
func (c Chunked[T]) Len() int {
	return c.count()
}

func (c Chunked[T]) count() int {
	return ceilDiv(len(c.s.data), c.size)
}

// ChunkSize returns the size of every chunk but possibly the last.
func (c Chunked[T]) ChunkSize() int {
	return c.size
}

// NumElements returns the number of elements across all chunks.
func (c Chunked[T]) NumElements() int {
	return len(c.s.data)
}

// Bounds returns the half-open element range [start, end) of chunk k.
//
// Panics with a *BoundsError unless 0 <= k < Len().
func (c Chunked[T]) Bounds(k int) (start, end int) {
	checkIndex("Chunked.Bounds", c.count(), k)
	return c.bounds(k)
}

func (c Chunked[T]) bounds(k int) (start, end int) {
	start = k * c.size
	end = min(start+c.size, len(c.s.data))
	return start, end
}

// Pointers returns the address-only tier over chunks.
func (c Chunked[T]) Pointers() ChunkPointers[T] {
	return ChunkPointers[T]{c: c}
}

// Values returns the copy-in/copy-out tier over chunks.
func (c Chunked[T]) Values() ChunkValues[T] {
	return ChunkValues[T]{c: c}
}

// Refs returns the reference tier over chunks.
func (c Chunked[T]) Refs() ChunkRefs[T] {
	return ChunkRefs[T]{c: c}
}

// ChunkPointers is the address-only tier over the chunks of a Chunked.
// Same contract as Pointers.
type ChunkPointers[T any] struct {
	c Chunked[T]
}

// Len returns the number of chunks.
func (p ChunkPointers[T]) Len() int { return p.c.count() }

// ChunkSize returns the nominal chunk size.
func (p ChunkPointers[T]) ChunkSize() int { return p.c.size }

// Bounds returns the element range of chunk k.
func (p ChunkPointers[T]) Bounds(k int) (start, end int) { return p.c.Bounds(k) }

// Ptr returns a pointer to the first element of chunk k and the chunk length.
//
// Panics with a *BoundsError unless 0 <= k < Len().
func (p ChunkPointers[T]) Ptr(k int) (*T, int) {
	checkIndex("ChunkPointers.Ptr", p.c.count(), k)
	start, end := p.c.bounds(k)
	return p.c.s.elem(start), end - start
}

// PtrUnchecked is Ptr without the bounds check.
func (p ChunkPointers[T]) PtrUnchecked(k int) (*T, int) {
	start, end := p.c.bounds(k)
	return p.c.s.elem(start), end - start
}

// ChunkValues is the copy-in/copy-out tier over the chunks of a Chunked.
// Same contract as Values, applied to every element of the chunk.
type ChunkValues[T any] struct {
	c Chunked[T]
}

// Len returns the number of chunks.
func (v ChunkValues[T]) Len() int { return v.c.count() }

// ChunkSize returns the nominal chunk size.
func (v ChunkValues[T]) ChunkSize() int { return v.c.size }

// Bounds returns the element range of chunk k.
func (v ChunkValues[T]) Bounds(k int) (start, end int) { return v.c.Bounds(k) }

// Get returns a newly allocated copy of chunk k.
//
// Panics with a *BoundsError unless 0 <= k < Len().
func (v ChunkValues[T]) Get(k int) []T {
	checkIndex("ChunkValues.Get", v.c.count(), k)
	return v.GetUnchecked(k)
}

// GetUnchecked is Get without the bounds check.
func (v ChunkValues[T]) GetUnchecked(k int) []T {
	start, end := v.c.bounds(k)
	out := make([]T, end-start)
	copy(out, v.c.s.span(start, end-start))
	return out
}

// GetInto copies chunk k into dst and returns dst.
//
// Panics with a *BoundsError unless 0 <= k < Len() and len(dst) equals the
// length of chunk k.
func (v ChunkValues[T]) GetInto(k int, dst []T) []T {
	checkIndex("ChunkValues.GetInto", v.c.count(), k)
	start, end := v.c.bounds(k)
	checkChunkLength("ChunkValues.GetInto", k, end-start, len(dst))
	copy(dst, v.c.s.span(start, end-start))
	return dst
}

// Set copies values into chunk k.
//
// Panics with a *BoundsError unless 0 <= k < Len() and len(values) equals
// the length of chunk k. Nothing is written when it panics.
func (v ChunkValues[T]) Set(k int, values []T) {
	checkIndex("ChunkValues.Set", v.c.count(), k)
	start, end := v.c.bounds(k)
	checkChunkLength("ChunkValues.Set", k, end-start, len(values))
	copy(v.c.s.span(start, end-start), values)
}

// SetUnchecked is Set without any check.
func (v ChunkValues[T]) SetUnchecked(k int, values []T) {
	start, _ := v.c.bounds(k)
	copy(v.c.s.span(start, len(values)), values)
}

// ChunkRefs is the reference tier over the chunks of a Chunked.
// Same contract as Refs: each returned chunk is a single reference.
type ChunkRefs[T any] struct {
	c Chunked[T]
}

// Len returns the number of chunks.
func (r ChunkRefs[T]) Len() int { return r.c.count() }

// ChunkSize returns the nominal chunk size.
func (r ChunkRefs[T]) ChunkSize() int { return r.c.size }

// Bounds returns the element range of chunk k.
func (r ChunkRefs[T]) Bounds(k int) (start, end int) { return r.c.Bounds(k) }

// Get returns a shared reference to chunk k.
//
// Panics with a *BoundsError unless 0 <= k < Len().
func (r ChunkRefs[T]) Get(k int) []T {
	checkIndex("ChunkRefs.Get", r.c.count(), k)
	return r.GetUnchecked(k)
}

// GetUnchecked is Get without the bounds check.
func (r ChunkRefs[T]) GetUnchecked(k int) []T {
	start, end := r.c.bounds(k)
	return r.c.s.span(start, end-start)
}

// GetMut returns an exclusive reference to chunk k.
//
// Panics with a *BoundsError unless 0 <= k < Len().
func (r ChunkRefs[T]) GetMut(k int) []T {
	checkIndex("ChunkRefs.GetMut", r.c.count(), k)
	return r.GetMutUnchecked(k)
}

// GetMutUnchecked is GetMut without the bounds check.
func (r ChunkRefs[T]) GetMutUnchecked(k int) []T {
	start, end := r.c.bounds(k)
	return r.c.s.span(start, end-start)
}

func checkChunkLength(op string, k, want, got int) {
	if want != got {
		panic(&BoundsError{Op: op, Index: k, Count: got, Len: want, Err: ErrChunkLength})
	}
}

// ceilDiv returns ceil(a/b) for a >= 0 and b > 0 without overflowing.
func ceilDiv(a, b int) int {
	q := a / b
	if a%b != 0 {
		q++
	}
	return q
}
