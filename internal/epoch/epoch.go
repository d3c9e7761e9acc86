// Package epoch implements the 64-bit logical timestamps of the checker.
//
// An Epoch names one goroutine at one phase:
//   - Top 32 bits: goroutine ID (truncated)
//   - Bottom 32 bits: phase number
//
// A phase is the stretch of logical time between two barriers declared by
// the caller. The checker does not observe the caller's synchronization, so
// it treats every barrier as a full happens-before edge and nothing else:
// two accesses are ordered exactly when they come from the same goroutine
// or from different phases.
//
// The zero Epoch means "never accessed". Phases start at 1 and goroutine IDs
// are positive, so no real access encodes to zero.
package epoch

import "strconv"

// Epoch is a 64-bit logical timestamp encoding goroutine ID and phase.
// Layout: [GID:32][Phase:32]
//
// Example: 0x0000000700000002 represents goroutine 7 in phase 2.
type Epoch uint64

const (
	// PhaseBits is the number of bits allocated for the phase.
	PhaseBits = 32
	// PhaseMask is the bitmask for extracting the phase (0xFFFFFFFF).
	PhaseMask = (1 << PhaseBits) - 1
)

// New creates an epoch from a goroutine ID and a phase.
//
//go:nosplit
func New(gid uint32, phase uint32) Epoch {
	return Epoch(uint64(gid)<<PhaseBits | uint64(phase))
}

// FromGoroutine creates an epoch from a full goroutine ID, keeping its low
// 32 bits.
//
//go:nosplit
func FromGoroutine(gid int64, phase uint32) Epoch {
	return New(uint32(gid), phase) //nolint:gosec // G115: intentional truncation
}

// Decode extracts the goroutine ID and phase.
//
//go:nosplit
func (e Epoch) Decode() (gid uint32, phase uint32) {
	gid = uint32(e >> PhaseBits)
	phase = uint32(e & PhaseMask)
	return
}

// GID returns the goroutine ID.
func (e Epoch) GID() uint32 {
	return uint32(e >> PhaseBits)
}

// Phase returns the phase number.
func (e Epoch) Phase() uint32 {
	return uint32(e & PhaseMask)
}

// IsZero reports whether e is the "never accessed" epoch.
func (e Epoch) IsZero() bool {
	return e == 0
}

// Concurrent reports whether an access at e and an access at other are
// unordered: both real, same phase, different goroutines.
//
// This is the O(1) check behind every race decision.
//
//go:nosplit
func (e Epoch) Concurrent(other Epoch) bool {
	if e == 0 || other == 0 {
		return false
	}
	return e&PhaseMask == other&PhaseMask && e>>PhaseBits != other>>PhaseBits
}

// String returns "phase@gid", e.g. "2@7". Only used for reports.
func (e Epoch) String() string {
	gid, phase := e.Decode()
	return strconv.FormatUint(uint64(phase), 10) + "@" + strconv.FormatUint(uint64(gid), 10)
}
