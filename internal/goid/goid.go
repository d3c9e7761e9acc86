// Package goid extracts the current goroutine ID.
//
// The checker identifies the goroutine behind every recorded access by this
// ID. It parses the first line of runtime.Stack, which works on every Go
// version and architecture at a cost of roughly a microsecond per call. That
// is acceptable for a debugging mode and avoids depending on the layout of
// the runtime's g struct.
package goid

import "runtime"

// Current returns the ID of the calling goroutine.
//
// Returns:
//   - int64: Goroutine ID (always positive), or 0 if parsing fails
func Current() int64 {
	// Format: "goroutine 123 [running]:\n..."
	// Only the first line is needed.
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return Parse(buf[:n])
}

// Parse extracts the goroutine ID from stack trace bytes.
//
// Expected format: "goroutine 123 [running]:..."
// Returns 123 for that input, or 0 if the prefix is missing or no digits
// follow it.
func Parse(buf []byte) int64 {
	const prefix = "goroutine "

	if len(buf) < len(prefix) || string(buf[:len(prefix)]) != prefix {
		return 0
	}

	var id int64
	for _, c := range buf[len(prefix):] {
		if c < '0' || c > '9' {
			// Usually the space before "[running]".
			break
		}
		id = id*10 + int64(c-'0')
	}
	return id
}
