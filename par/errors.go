package par

import (
	"errors"
	"fmt"
)

// Sentinel errors. Checked accessors panic with a *BoundsError wrapping one
// of the range sentinels; the checked mode returns or panics with errors
// wrapping ErrAliasing and ErrRace.
var (
	// ErrIndexOutOfRange reports an element index outside [0, Len()).
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrRangeOutOfBounds reports a chunk [start, start+n) not contained in [0, Len()).
	ErrRangeOutOfBounds = errors.New("range out of bounds")

	// ErrNegativeLength reports a construction request for a negative length.
	ErrNegativeLength = errors.New("negative length")

	// ErrChunkSize reports a non-positive chunk size or chunk count.
	ErrChunkSize = errors.New("invalid chunk size")

	// ErrChunkLength reports a value sequence whose length differs from the chunk length.
	ErrChunkLength = errors.New("value length does not match chunk length")

	// ErrAliasing reports a reference that would overlap a live conflicting reference.
	ErrAliasing = errors.New("aliasing violation")

	// ErrRace reports an unsynchronized conflicting access found by the checker.
	ErrRace = errors.New("data race")
)

// BoundsError is the panic value of every bounds-checked accessor.
//
// The buffer is never modified before the check runs, so recovering from a
// BoundsError leaves the storage exactly as it was.
//
// Example:
//
//	defer func() {
//		if err, ok := recover().(error); ok && errors.Is(err, par.ErrIndexOutOfRange) {
//			// handle
//		}
//	}()
type BoundsError struct {
	Op    string // Accessor that failed, e.g. "Values.Get".
	Index int    // Offending index, or range start for chunk operations.
	Count int    // Range length for chunk operations, 0 for element operations.
	Len   int    // Length of the indexed collection at the time of the call.
	Err   error  // One of the range sentinels.
}

// Error implements the error interface.
func (e *BoundsError) Error() string {
	switch {
	case errors.Is(e.Err, ErrRangeOutOfBounds):
		return fmt.Sprintf("parslice: %s: range [%d, %d) invalid for slice of len %d",
			e.Op, e.Index, e.Index+e.Count, e.Len)
	case errors.Is(e.Err, ErrNegativeLength):
		return fmt.Sprintf("parslice: %s: negative length %d", e.Op, e.Index)
	case errors.Is(e.Err, ErrChunkSize):
		return fmt.Sprintf("parslice: %s: chunk size %d must be positive", e.Op, e.Index)
	case errors.Is(e.Err, ErrChunkLength):
		return fmt.Sprintf("parslice: %s: value of len %d for chunk %d of len %d",
			e.Op, e.Count, e.Index, e.Len)
	default:
		return fmt.Sprintf("parslice: %s: index %d invalid for slice of len %d",
			e.Op, e.Index, e.Len)
	}
}

// Unwrap returns the sentinel error.
func (e *BoundsError) Unwrap() error {
	return e.Err
}

// checkIndex panics unless 0 <= i < n.
func checkIndex(op string, n, i int) {
	if uint(i) >= uint(n) {
		panic(&BoundsError{Op: op, Index: i, Len: n, Err: ErrIndexOutOfRange})
	}
}

// checkRange panics unless [start, start+count) lies within [0, n).
//
// Written so that start+count cannot overflow.
func checkRange(op string, n, start, count int) {
	if start < 0 || count < 0 || start > n || count > n-start {
		panic(&BoundsError{Op: op, Index: start, Count: count, Len: n, Err: ErrRangeOutOfBounds})
	}
}
