// Package shadow implements the per-element shadow cells of the checker.
//
// Every element of a checked buffer has exactly one Cell, stored in a flat
// array indexed like the buffer itself. There is no address hashing: the
// buffer length is known up front and never changes, so an arena of cells
// gives O(1) lookup with no collisions and no allocation on the hot path.
//
// # Cell contents
//
// A Cell records:
//   - W: the epoch of the last write
//   - R: the epoch of the last read, plus a second distinct reader once the
//     cell is read-shared within a phase
//   - the live borrows of the reference tier (shared count or exclusive)
//     and the goroutines holding them
//   - optional stack hashes of the last write and read
//
// # Race rules
//
// Within one phase, accesses from different goroutines are unordered:
//   - write after write from another goroutine: write-write race
//   - write after read from another goroutine: read-write race
//   - read after write from another goroutine: write-read race
//
// A barrier (a new phase) orders everything before it against everything
// after it.
//
// # Thread Safety
//
// All Cell methods are safe for concurrent use. All state of a cell is
// protected by its own mutex.
//
// Reset is NOT safe for concurrent use and must only run while no other
// goroutine touches the shadow.
package shadow
