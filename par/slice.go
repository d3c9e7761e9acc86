package par

import (
	"fmt"
	"unsafe"
)

// Slice is a fixed-length buffer of N elements that may be accessed from many
// goroutines at once without synchronization.
//
// A Slice owns one contiguous allocation, created once by WithValue, WithFunc
// or FromSlice and never reallocated. Share it by pointer; its fields are
// never written after construction, so the handle itself is race-free.
// Element-level exclusivity is NOT provided: it is the caller's obligation,
// and the accessor tier chosen at each call site decides exactly what the
// caller must guarantee:
//
//   - [Slice.Pointers]: address computation only. Always safe to call.
//   - [Slice.Values]: copy-in/copy-out. The caller must rule out data races.
//   - [Slice.Refs]: pointers and sub-slices into the storage. The caller must
//     rule out data races AND keep at most one live mutable reference (and
//     no other reference) per index.
//
// The tiers are independent views of the same storage and may be mixed
// freely; the caller carries the union of every contract it invokes.
//
// Data races and aliasing violations are never detected by the fast tiers.
// Use [Slice.Checked] in tests to have them reported.
type Slice[T any] struct {
	data []T
}

// WithValue returns a Slice of n elements, each a copy of value.
//
// Panics with a *BoundsError wrapping ErrNegativeLength if n < 0. Running out
// of memory is fatal, as for any Go allocation.
func WithValue[T any](value T, n int) *Slice[T] {
	data := alloc[T]("WithValue", n)
	for i := range data {
		data[i] = value
	}
	return &Slice[T]{data: data}
}

// WithFunc returns a Slice of n elements where element i is f(i).
//
// f is called exactly once per index. The calls currently happen in
// ascending order on the calling goroutine, but f must not depend on that:
// it should be a pure function of its argument.
//
// Panics with a *BoundsError wrapping ErrNegativeLength if n < 0.
func WithFunc[T any](n int, f func(i int) T) *Slice[T] {
	data := alloc[T]("WithFunc", n)
	for i := range data {
		data[i] = f(i)
	}
	return &Slice[T]{data: data}
}

// FromSlice adopts s as the storage of a new Slice without copying.
//
// Ownership moves into the returned Slice: the caller must stop using s
// directly until the storage is handed back by IntoSlice. The capacity is
// clipped to len(s).
func FromSlice[T any](s []T) *Slice[T] {
	return &Slice[T]{data: s[:len(s):len(s)]}
}

// IntoSlice hands the storage back as an ordinary slice, without copying,
// with every element in its original position.
//
// The Slice is consumed: afterwards Len reports 0 and every bounds-checked
// accessor panics. IntoSlice must not run concurrently with any accessor;
// call it once every worker has finished. This is the way back to ordinary
// Go code, where the race detector and the type system apply again.
func (s *Slice[T]) IntoSlice() []T {
	data := s.data
	s.data = nil
	return data
}

// Len returns the number of elements. It never changes before IntoSlice.
func (s *Slice[T]) Len() int {
	return len(s.data)
}

// IsEmpty reports whether Len is zero.
func (s *Slice[T]) IsEmpty() bool {
	return len(s.data) == 0
}

// String returns a short description; it does not read any element.
func (s *Slice[T]) String() string {
	var zero T
	return fmt.Sprintf("par.Slice[%T](len=%d)", zero, len(s.data))
}

// elem returns a pointer to element i using plain address arithmetic.
//
// No bounds check. Only valid for 0 <= i < Len().
func (s *Slice[T]) elem(i int) *T {
	return (*T)(unsafe.Add(unsafe.Pointer(unsafe.SliceData(s.data)), uintptr(i)*sizeOf[T]()))
}

// span returns the sub-slice [start, start+n) without bounds checks.
//
// Capacity equals n, so appending to the result reallocates instead of
// overwriting the following elements.
func (s *Slice[T]) span(start, n int) []T {
	if n == 0 {
		return s.data[:0:0]
	}
	return unsafe.Slice(s.elem(start), n)
}

func sizeOf[T any]() uintptr {
	var zero T
	return unsafe.Sizeof(zero)
}

func alloc[T any](op string, n int) []T {
	if n < 0 {
		panic(&BoundsError{Op: op, Index: n, Err: ErrNegativeLength})
	}
	return make([]T, n)
}
