package par

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kolkov/parslice/internal/detector"
	"github.com/kolkov/parslice/internal/metrics"
)

// CheckOption configures a checked view.
type CheckOption func(*checkConfig)

type checkConfig struct {
	opts        detector.Options
	registerer  prometheus.Registerer
	onRace      func(Report)
	panicOnRace bool
}

// WithSampleRate records only one in rate accesses. Rates 0 and 1 record all.
func WithSampleRate(rate uint64) CheckOption {
	return func(c *checkConfig) { c.opts.SampleRate = rate }
}

// WithStacks captures a stack trace on every recorded access, so reports
// show where both conflicting accesses happened.
func WithStacks(enabled bool) CheckOption {
	return func(c *checkConfig) { c.opts.CaptureStacks = enabled }
}

// WithOutput sets the writer reports are printed to. The default is
// os.Stderr; nil disables printing.
func WithOutput(w io.Writer) CheckOption {
	return func(c *checkConfig) { c.opts.Output = w }
}

// WithLogger logs one warning per report to l.
func WithLogger(l *slog.Logger) CheckOption {
	return func(c *checkConfig) { c.opts.Logger = l }
}

// WithRegisterer exports the checker's Prometheus collectors to reg.
// Checked views sharing a registry share their series.
func WithRegisterer(reg prometheus.Registerer) CheckOption {
	return func(c *checkConfig) { c.registerer = reg }
}

// WithRaceHandler calls f once per unique report.
func WithRaceHandler(f func(Report)) CheckOption {
	return func(c *checkConfig) { c.onRace = f }
}

// WithPanicOnRace makes the first access that produces a report panic with
// a *RaceError, after the report is printed and handled.
func WithPanicOnRace(enabled bool) CheckOption {
	return func(c *checkConfig) { c.panicOnRace = enabled }
}

// Checked is a race-checking view of a Slice, meant for tests and
// debugging runs.
//
// Every access made through it is recorded per element and checked
// against the contracts of the value and reference tiers:
//
//   - Two accesses to one index from different goroutines in the same
//     phase, at least one of them a write, are a data race.
//   - A borrow overlapping a conflicting live borrow is an aliasing
//     violation and is refused with a *BorrowError.
//   - A value access from another goroutine to an index under a
//     conflicting live borrow is an aliasing violation.
//
// The checker cannot see the caller's synchronization. Call Barrier at
// every point where all workers are joined (after sync.WaitGroup.Wait,
// between the levels of a level-synchronous algorithm); accesses on
// opposite sides of a barrier are ordered.
//
// Accesses made through the fast tiers of the underlying Slice are not
// recorded.
type Checked[T any] struct {
	s *Slice[T]
	d *detector.Detector
}

// Checked returns a race-checking view of s.
//
// If the Prometheus collectors cannot be registered the view still works,
// without metrics, and the failure is logged.
func (s *Slice[T]) Checked(opts ...CheckOption) *Checked[T] {
	cfg := checkConfig{opts: detector.Options{Output: os.Stderr}}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.registerer != nil {
		m := metrics.New()
		if err := m.Register(cfg.registerer); err != nil {
			logger := cfg.opts.Logger
			if logger == nil {
				logger = slog.Default()
			}
			logger.Warn("checked slice metrics disabled", "error", err)
		} else {
			cfg.opts.Metrics = m
		}
	}

	if cfg.onRace != nil || cfg.panicOnRace {
		onRace, panicOnRace := cfg.onRace, cfg.panicOnRace
		cfg.opts.OnRace = func(r *detector.Report) {
			pub := publicReport(r)
			if onRace != nil {
				onRace(pub)
			}
			if panicOnRace {
				panic(&RaceError{Report: pub})
			}
		}
	}

	return &Checked[T]{s: s, d: detector.New(len(s.data), cfg.opts)}
}

// Len returns the number of elements.
func (c *Checked[T]) Len() int {
	return len(c.s.data)
}

// Slice returns the underlying Slice.
func (c *Checked[T]) Slice() *Slice[T] {
	return c.s
}

// Barrier starts a new phase: every access recorded before the call is
// considered ordered with every access recorded after it. Returns the new
// phase number.
func (c *Checked[T]) Barrier() uint32 {
	return c.d.Barrier()
}

// Phase returns the current phase number, starting at 1.
func (c *Checked[T]) Phase() uint32 {
	return c.d.Phase()
}

// Races returns the number of unique reports so far.
func (c *Checked[T]) Races() int {
	return c.d.Races()
}

// Reports returns the unique reports so far, oldest first.
func (c *Checked[T]) Reports() []Report {
	rs := c.d.Reports()
	out := make([]Report, len(rs))
	for i, r := range rs {
		out[i] = publicReport(r)
	}
	return out
}

// CheckStats summarizes a checked view.
type CheckStats struct {
	Phase      uint32
	Races      int
	SampleRate uint64 // One checked access in SampleRate is recorded.
	Accesses   uint64 // Checked accesses seen, including skipped ones.
	Recorded   uint64 // Accesses recorded in shadow memory.
	Written    int    // Elements with a recorded write in their history.
	Read       int    // Elements with a recorded read in their history.
	Shared     int    // Elements read by several goroutines in one phase.
	Borrowed   int    // Elements under a live borrow.
	Stacks     int    // Distinct stack traces stored.
}

// Stats scans the checker state. O(Len()); not for hot paths.
func (c *Checked[T]) Stats() CheckStats {
	st := c.d.Stats()
	return CheckStats{
		Phase:      st.Phase,
		Races:      st.Races,
		SampleRate: st.SampleRate,
		Accesses:   st.Sampler.TotalAccesses,
		Recorded:   st.Sampler.SampledAccesses,
		Written:    st.Shadow.Written,
		Read:       st.Shadow.Read,
		Shared:     st.Shadow.Shared,
		Borrowed:   st.Shadow.Borrowed,
		Stacks:     st.Stacks,
	}
}

// DetectionChance returns the probability that a race which recurs on
// occurrences checked accesses is recorded at least once. It is 1 unless a
// sample rate above 1 is in effect.
func (c *Checked[T]) DetectionChance(occurrences int) float64 {
	return c.d.DetectionChance(occurrences)
}

// Reset forgets all recorded history, reports and live borrows.
// It must not run concurrently with any other method.
func (c *Checked[T]) Reset() {
	c.d.Reset()
}

// Release ends a borrow. Calling it more than once has no further effect.
type Release func()

// Borrow returns a shared reference to [start, start+n). The caller must
// not write through it and must call the returned Release when done.
//
// If the range overlaps a live mutable borrow, nothing is borrowed and a
// *BorrowError wrapping ErrAliasing is returned. Panics with a *BoundsError
// unless the range lies within the Slice.
func (c *Checked[T]) Borrow(start, n int) ([]T, Release, error) {
	return c.borrow("Checked.Borrow", start, n, false)
}

// BorrowMut returns an exclusive reference to [start, start+n).
//
// If the range overlaps any live borrow, nothing is borrowed and a
// *BorrowError wrapping ErrAliasing is returned. Panics with a *BoundsError
// unless the range lies within the Slice.
func (c *Checked[T]) BorrowMut(start, n int) ([]T, Release, error) {
	return c.borrow("Checked.BorrowMut", start, n, true)
}

func (c *Checked[T]) borrow(op string, start, n int, exclusive bool) ([]T, Release, error) {
	checkRange(op, len(c.s.data), start, n)

	loan, r := c.d.Acquire(start, n, exclusive)
	if r != nil {
		return nil, nil, &BorrowError{Op: op, Start: start, Count: n, Report: publicReport(r)}
	}

	var once sync.Once
	release := func() {
		once.Do(func() { c.d.Release(loan) })
	}
	return c.s.data[start : start+n : start+n], release, nil
}

// Values returns the checked copy-in/copy-out tier.
func (c *Checked[T]) Values() CheckedValues[T] {
	return CheckedValues[T]{c: c}
}

// CheckedValues is the copy-in/copy-out tier of a Checked view. It has the
// contract and behavior of Values and records every access.
type CheckedValues[T any] struct {
	c *Checked[T]
}

// Len returns the number of elements.
func (v CheckedValues[T]) Len() int {
	return len(v.c.s.data)
}

// Get returns a copy of element i.
//
// Panics with a *BoundsError unless 0 <= i < Len().
func (v CheckedValues[T]) Get(i int) T {
	checkIndex("CheckedValues.Get", len(v.c.s.data), i)
	v.c.d.OnRead(i)
	return *v.c.s.elem(i)
}

// GetUnchecked is Get. Indices are always validated by the checker.
func (v CheckedValues[T]) GetUnchecked(i int) T {
	return v.Get(i)
}

// Set overwrites element i with value.
//
// Panics with a *BoundsError unless 0 <= i < Len().
func (v CheckedValues[T]) Set(i int, value T) {
	checkIndex("CheckedValues.Set", len(v.c.s.data), i)
	v.c.d.OnWrite(i)
	*v.c.s.elem(i) = value
}

// SetUnchecked is Set. Indices are always validated by the checker.
func (v CheckedValues[T]) SetUnchecked(i int, value T) {
	v.Set(i, value)
}

// Replace overwrites element i and returns the previous value. It is
// recorded as a single write.
//
// Panics with a *BoundsError unless 0 <= i < Len().
func (v CheckedValues[T]) Replace(i int, value T) T {
	checkIndex("CheckedValues.Replace", len(v.c.s.data), i)
	v.c.d.OnWrite(i)
	p := v.c.s.elem(i)
	old := *p
	*p = value
	return old
}

// GetChunk returns a newly allocated copy of [start, start+n).
//
// Panics with a *BoundsError unless the range lies within the Slice.
func (v CheckedValues[T]) GetChunk(start, n int) []T {
	checkRange("CheckedValues.GetChunk", len(v.c.s.data), start, n)
	v.c.d.OnReadRange(start, n)
	out := make([]T, n)
	copy(out, v.c.s.span(start, n))
	return out
}

// GetChunkInto copies [start, start+len(dst)) into dst and returns dst.
//
// Panics with a *BoundsError unless the range lies within the Slice.
func (v CheckedValues[T]) GetChunkInto(start int, dst []T) []T {
	checkRange("CheckedValues.GetChunkInto", len(v.c.s.data), start, len(dst))
	v.c.d.OnReadRange(start, len(dst))
	copy(dst, v.c.s.span(start, len(dst)))
	return dst
}

// SetChunk copies values into [start, start+len(values)).
//
// Panics with a *BoundsError unless the range lies within the Slice.
func (v CheckedValues[T]) SetChunk(start int, values []T) {
	checkRange("CheckedValues.SetChunk", len(v.c.s.data), start, len(values))
	v.c.d.OnWriteRange(start, len(values))
	copy(v.c.s.span(start, len(values)), values)
}

// Report describes one data race or aliasing violation found by a
// Checked view.
type Report struct {
	// Kind is "write-write", "read-write", "write-read" or "aliasing".
	Kind string

	// Index is the element both accesses touched.
	Index int

	// Op and PreviousOp name the two operations: "read", "write",
	// "borrow" or "mutable borrow". For aliasing reports the previous
	// operation is the live borrow.
	Op, PreviousOp string

	// Goroutine and PreviousGoroutine identify the goroutines involved.
	Goroutine, PreviousGoroutine int64

	// Phase is the phase the current access happened in.
	Phase uint32

	// Text is the report formatted like the output of the Go race detector.
	Text string
}

func publicReport(r *detector.Report) Report {
	return Report{
		Kind:              r.Kind.String(),
		Index:             r.Current.Index,
		Op:                strings.ToLower(r.Current.Op.String()),
		PreviousOp:        strings.ToLower(r.Previous.Op.String()),
		Goroutine:         int64(r.Current.Goroutine),
		PreviousGoroutine: int64(r.Previous.Goroutine),
		Phase:             r.Current.Epoch.Phase(),
		Text:              r.String(),
	}
}

// RaceError is the panic value of a checked access when WithPanicOnRace
// is set. It wraps ErrAliasing for aliasing reports and ErrRace otherwise.
type RaceError struct {
	Report Report
}

// Error implements the error interface.
func (e *RaceError) Error() string {
	return fmt.Sprintf("parslice: %s (%s) at index %d between goroutines %d and %d",
		e.Unwrap(), e.Report.Kind, e.Report.Index, e.Report.PreviousGoroutine, e.Report.Goroutine)
}

// Unwrap returns ErrAliasing or ErrRace.
func (e *RaceError) Unwrap() error {
	if e.Report.Kind == "aliasing" {
		return ErrAliasing
	}
	return ErrRace
}

// BorrowError reports a refused borrow.
type BorrowError struct {
	Op     string // "Checked.Borrow" or "Checked.BorrowMut".
	Start  int
	Count  int
	Report Report // The aliasing report; Index is the first conflicting element.
}

// Error implements the error interface.
func (e *BorrowError) Error() string {
	return fmt.Sprintf("parslice: %s: range [%d, %d) overlaps live %s by goroutine %d at index %d",
		e.Op, e.Start, e.Start+e.Count, e.Report.PreviousOp, e.Report.PreviousGoroutine, e.Report.Index)
}

// Unwrap returns ErrAliasing.
func (e *BorrowError) Unwrap() error {
	return ErrAliasing
}
