// Package detector finds data races and aliasing violations on the
// elements of one checked buffer.
//
// The buffer forwards every checked element access (OnRead, OnWrite and
// their range forms) and every reference acquisition (Acquire, Release) to
// its Detector. The detector keeps one shadow cell per element and decides,
// for each access, whether it is ordered with the previous accesses to the
// same element.
//
// # Phases
//
// Unlike an instrumenting race detector, the buffer never observes the
// caller's synchronization. Ordering is therefore expressed by phases: all
// accesses between two calls to Barrier belong to one phase, and accesses
// in different phases are ordered. Within one phase:
//
//  1. Two writes by different goroutines are a write-write race.
//  2. A write after a read by another goroutine is a read-write race.
//  3. A read after a write by another goroutine is a write-read race.
//  4. Accesses by a single goroutine are always ordered.
//
// Callers place a Barrier wherever their own code synchronizes all workers,
// typically right after sync.WaitGroup.Wait.
//
// # Aliasing
//
// Acquire registers a live reference on a range: shared (any number may
// coexist) or exclusive (no other reference may coexist). An overlapping
// conflicting acquisition fails and produces an aliasing report. A value
// access from another goroutine to an element under a conflicting live
// reference is reported as aliasing too.
//
// # Reports
//
// Reports are deduplicated by (kind, index, goroutine pair), printed in the
// format of the Go race detector, logged through log/slog, and counted in
// the Prometheus collectors of internal/metrics.
//
// # Thread Safety
//
// All methods except Reset are safe for concurrent use.
package detector
