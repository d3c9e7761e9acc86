package par

import "unsafe"

// Pointers is the address-only tier of a Slice.
//
// Every method is pure address arithmetic: nothing is read or written and no
// element is touched, so all of them are safe to call from any number of
// goroutines at any time during the Slice's lifetime.
//
// Dereferencing a returned address is entirely the caller's responsibility
// and must itself respect the rules of the tier the caller is emulating:
// no data races for copy-style access, plus the aliasing rule for anything
// that behaves like a long-lived reference.
//
// The ...Unchecked variants skip the bounds check. Passing an out-of-range
// index to them is undefined behavior as soon as the result is used, since
// Go only permits pointer arithmetic within the original allocation.
type Pointers[T any] struct {
	s *Slice[T]
}

// Pointers returns the address-only tier of s.
func (s *Slice[T]) Pointers() Pointers[T] {
	return Pointers[T]{s: s}
}

// Len returns the number of elements.
func (p Pointers[T]) Len() int {
	return len(p.s.data)
}

// Addr returns the address of element i for read-only use.
//
// Panics with a *BoundsError unless 0 <= i < Len().
func (p Pointers[T]) Addr(i int) unsafe.Pointer {
	checkIndex("Pointers.Addr", len(p.s.data), i)
	return unsafe.Pointer(p.s.elem(i))
}

// AddrUnchecked is Addr without the bounds check.
func (p Pointers[T]) AddrUnchecked(i int) unsafe.Pointer {
	return unsafe.Pointer(p.s.elem(i))
}

// Ptr returns a pointer to element i through which the caller may write.
//
// Panics with a *BoundsError unless 0 <= i < Len().
func (p Pointers[T]) Ptr(i int) *T {
	checkIndex("Pointers.Ptr", len(p.s.data), i)
	return p.s.elem(i)
}

// PtrUnchecked is Ptr without the bounds check.
func (p Pointers[T]) PtrUnchecked(i int) *T {
	return p.s.elem(i)
}

// ChunkAddr returns the address of element start and the chunk length n,
// describing the range [start, start+n) for read-only use.
//
// Panics with a *BoundsError unless the range lies within the Slice.
func (p Pointers[T]) ChunkAddr(start, n int) (unsafe.Pointer, int) {
	checkRange("Pointers.ChunkAddr", len(p.s.data), start, n)
	return unsafe.Pointer(p.s.elem(start)), n
}

// ChunkAddrUnchecked is ChunkAddr without the bounds check.
func (p Pointers[T]) ChunkAddrUnchecked(start, n int) (unsafe.Pointer, int) {
	return unsafe.Pointer(p.s.elem(start)), n
}

// ChunkPtr returns a pointer to element start and the chunk length n,
// describing the writable range [start, start+n).
//
// Use unsafe.Slice(ptr, n) to view the range as a slice; doing so creates a
// reference and falls under the rules of the reference tier.
//
// Panics with a *BoundsError unless the range lies within the Slice.
func (p Pointers[T]) ChunkPtr(start, n int) (*T, int) {
	checkRange("Pointers.ChunkPtr", len(p.s.data), start, n)
	return p.s.elem(start), n
}

// ChunkPtrUnchecked is ChunkPtr without the bounds check.
func (p Pointers[T]) ChunkPtrUnchecked(start, n int) (*T, int) {
	return p.s.elem(start), n
}
