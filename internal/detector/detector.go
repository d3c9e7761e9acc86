package detector

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/kolkov/parslice/internal/epoch"
	"github.com/kolkov/parslice/internal/goid"
	"github.com/kolkov/parslice/internal/metrics"
	"github.com/kolkov/parslice/internal/shadow"
	"github.com/kolkov/parslice/internal/stackdepot"
)

// Options configures a Detector.
type Options struct {
	// SampleRate records one in SampleRate accesses. 0 and 1 record all.
	SampleRate uint64

	// CaptureStacks records a stack trace on every recorded access, so that
	// reports show where the previous access happened. Without it only the
	// current access of a report has a stack.
	CaptureStacks bool

	// Output receives formatted reports. nil disables printing.
	Output io.Writer

	// Logger receives one warning per report. nil disables logging.
	Logger *slog.Logger

	// OnRace is called once per unique report, after it is recorded and
	// printed. It may panic; the detector holds no lock while calling it.
	OnRace func(*Report)

	// Metrics receives access, borrow and race counts. nil disables them.
	Metrics *metrics.Collectors
}

// Detector checks the accesses to one buffer of a fixed length.
type Detector struct {
	opts    Options
	shadow  *shadow.Shadow
	depot   *stackdepot.Depot
	sampler *Sampler

	// phase is the current phase, starting at 1 so that no valid epoch is zero.
	phase atomic.Uint32

	// reported holds the keys of reports already emitted.
	reported sync.Map

	races atomic.Int64

	// mu serializes output and protects reports.
	mu      sync.Mutex
	reports []*Report
}

// New creates a detector for a buffer of n elements.
func New(n int, opts Options) *Detector {
	d := &Detector{
		opts:   opts,
		shadow: shadow.New(n),
		depot:  stackdepot.New(),
		sampler: NewSampler(SamplerConfig{
			Enabled: opts.SampleRate > 1,
			Rate:    opts.SampleRate,
		}),
	}
	d.phase.Store(1)
	return d
}

// Len returns the number of elements tracked.
func (d *Detector) Len() int {
	return d.shadow.Len()
}

// current returns the epoch of the calling goroutine in the current phase.
func (d *Detector) current() epoch.Epoch {
	return epoch.FromGoroutine(goid.Current(), d.phase.Load())
}

// capture records the stack above the detector entry point that called it.
func (d *Detector) capture() uint64 {
	if !d.opts.CaptureStacks {
		return 0
	}
	// Skip capture and the On* method.
	return d.depot.Capture(2)
}

// OnRead records a read of element i.
func (d *Detector) OnRead(i int) {
	if !d.sampler.ShouldSample() {
		return
	}
	d.opts.Metrics.Access("read", 1)
	d.read(i, 1, d.current(), d.capture())
}

// OnWrite records a write of element i.
func (d *Detector) OnWrite(i int) {
	if !d.sampler.ShouldSample() {
		return
	}
	d.opts.Metrics.Access("write", 1)
	d.write(i, 1, d.current(), d.capture())
}

// OnReadRange records a read of every element of [start, start+n).
// A range counts as one access for sampling.
func (d *Detector) OnReadRange(start, n int) {
	if n == 0 || !d.sampler.ShouldSample() {
		return
	}
	d.opts.Metrics.Access("read", n)
	d.read(start, n, d.current(), d.capture())
}

// OnWriteRange records a write of every element of [start, start+n).
func (d *Detector) OnWriteRange(start, n int) {
	if n == 0 || !d.sampler.ShouldSample() {
		return
	}
	d.opts.Metrics.Access("write", n)
	d.write(start, n, d.current(), d.capture())
}

func (d *Detector) read(start, n int, cur epoch.Epoch, stack uint64) {
	for i := start; i < start+n; i++ {
		c := d.shadow.Cell(i)
		if live, ok := c.Conflicting(cur, false); ok {
			d.aliasing(OpRead, i, cur, stack, live)
		}
		if conflict, prev := c.OnRead(cur, stack); conflict != shadow.None {
			d.race(kindOf(conflict), OpRead, i, cur, stack, prev)
		}
	}
}

func (d *Detector) write(start, n int, cur epoch.Epoch, stack uint64) {
	for i := start; i < start+n; i++ {
		c := d.shadow.Cell(i)
		if live, ok := c.Conflicting(cur, true); ok {
			d.aliasing(OpWrite, i, cur, stack, live)
		}
		if conflict, prev := c.OnWrite(cur, stack); conflict != shadow.None {
			d.race(kindOf(conflict), OpWrite, i, cur, stack, prev)
		}
	}
}

// Loan is a live reference granted by Acquire. Pass it to Release.
type Loan struct {
	start     int
	n         int
	exclusive bool
	by        epoch.Epoch
}

// Acquire registers a live reference on [start, start+n).
//
// On success the reference also counts as a read (shared) or a write
// (exclusive) of the whole range, and the loan is returned. If any element
// is under a conflicting live reference, nothing is acquired and the
// aliasing report is returned, whether or not it was a duplicate.
//
// If recording the accesses panics (a race handler may do so), the cells
// are released before the panic propagates.
func (d *Detector) Acquire(start, n int, exclusive bool) (*Loan, *Report) {
	l := &Loan{start: start, n: n, exclusive: exclusive, by: d.current()}
	stack := d.capture()

	op := OpBorrow
	if exclusive {
		op = OpBorrowMut
	}

	for i := start; i < start+n; i++ {
		c := d.shadow.Cell(i)
		var live shadow.Loan
		var ok bool
		if exclusive {
			live, ok = c.AcquireExclusive(l.by)
		} else {
			live, ok = c.AcquireShared(l.by)
		}
		if ok {
			continue
		}

		d.releaseCells(&Loan{start: start, n: i - start, exclusive: exclusive, by: l.by})
		return nil, d.aliasing(op, i, l.by, stack, live)
	}

	recorded := false
	defer func() {
		if !recorded {
			d.releaseCells(l)
		}
	}()

	mode := "shared"
	if exclusive {
		mode = "exclusive"
		d.opts.Metrics.Access("write", n)
		d.write(start, n, l.by, stack)
	} else {
		d.opts.Metrics.Access("read", n)
		d.read(start, n, l.by, stack)
	}
	recorded = true
	d.opts.Metrics.Borrow(mode)
	return l, nil
}

// Release drops a reference previously granted by Acquire. It may be
// called from any goroutine.
func (d *Detector) Release(l *Loan) {
	d.releaseCells(l)
	d.opts.Metrics.Release()
}

func (d *Detector) releaseCells(l *Loan) {
	for i := l.start; i < l.start+l.n; i++ {
		if l.exclusive {
			d.shadow.Cell(i).ReleaseExclusive(l.by)
		} else {
			d.shadow.Cell(i).ReleaseShared(l.by)
		}
	}
}

// Barrier starts a new phase and returns it. Every access recorded before
// the call is ordered with every access recorded after it.
func (d *Detector) Barrier() uint32 {
	return d.phase.Add(1)
}

// Phase returns the current phase.
func (d *Detector) Phase() uint32 {
	return d.phase.Load()
}

func (d *Detector) race(kind Kind, op Op, i int, cur epoch.Epoch, stack uint64, prev shadow.Access) {
	if stack == 0 {
		// Reports always carry the current stack; detector frames are
		// filtered when it is formatted.
		stack = d.depot.Capture(0)
	}
	prevOp := OpWrite
	if kind == ReadWrite {
		prevOp = OpRead
	}
	d.emit(newReport(kind,
		d.access(op, i, cur, stack),
		d.access(prevOp, i, prev.Epoch, prev.Stack),
	))
}

func (d *Detector) aliasing(op Op, i int, cur epoch.Epoch, stack uint64, live shadow.Loan) *Report {
	if stack == 0 {
		stack = d.depot.Capture(0)
	}
	liveOp := OpBorrow
	if live.Exclusive {
		liveOp = OpBorrowMut
	}
	r := newReport(Aliasing,
		d.access(op, i, cur, stack),
		d.access(liveOp, i, live.Holder, 0),
	)
	d.emit(r)
	return r
}

func (d *Detector) access(op Op, i int, e epoch.Epoch, stack uint64) Access {
	return Access{
		Op:        op,
		Index:     i,
		Goroutine: e.GID(),
		Epoch:     e,
		Stack:     d.depot.Get(stack),
	}
}

// emit records r unless an equivalent report was already emitted.
func (d *Detector) emit(r *Report) {
	if _, dup := d.reported.LoadOrStore(r.Key, struct{}{}); dup {
		return
	}

	d.races.Add(1)
	d.opts.Metrics.Race(r.Kind.String())

	d.mu.Lock()
	d.reports = append(d.reports, r)
	if d.opts.Output != nil {
		r.Format(d.opts.Output)
	}
	d.mu.Unlock()

	if d.opts.Logger != nil {
		d.opts.Logger.Warn("conflicting access detected",
			"kind", r.Kind.String(),
			"index", r.Current.Index,
			"goroutine", r.Current.Goroutine,
			"prev_goroutine", r.Previous.Goroutine,
			"phase", r.Current.Epoch.Phase())
	}

	if d.opts.OnRace != nil {
		d.opts.OnRace(r)
	}
}

// Races returns the number of unique reports so far.
func (d *Detector) Races() int {
	return int(d.races.Load())
}

// Reports returns the unique reports so far, oldest first.
func (d *Detector) Reports() []*Report {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Report, len(d.reports))
	copy(out, d.reports)
	return out
}

// Stats summarizes the detector state.
type Stats struct {
	Phase      uint32
	Races      int
	Stacks     int    // Distinct stack traces stored.
	SampleRate uint64 // One access in SampleRate is recorded.
	Sampler    SamplerStats
	Shadow     shadow.Stats
}

// Stats scans the shadow memory. Diagnostics only.
func (d *Detector) Stats() Stats {
	return Stats{
		Phase:      d.Phase(),
		Races:      d.Races(),
		Stacks:     d.depot.Len(),
		SampleRate: d.sampler.EffectiveRate(),
		Sampler:    d.sampler.Stats(),
		Shadow:     d.shadow.Stats(),
	}
}

// DetectionChance returns the probability that a race repeated on
// occurrences accesses is recorded at least once under the sample rate.
func (d *Detector) DetectionChance(occurrences int) float64 {
	return d.sampler.ExpectedDetectionRate(occurrences)
}

// Reset forgets all history, reports and live references and returns to
// phase 1.
//
// Thread Safety: NOT safe for concurrent use with any other method.
func (d *Detector) Reset() {
	d.shadow.Reset()
	d.depot.Reset()
	d.reported.Clear()
	d.races.Store(0)
	d.phase.Store(1)

	d.mu.Lock()
	d.reports = nil
	d.mu.Unlock()
}
