// Package stackdepot stores and deduplicates the stack traces attached to
// checked accesses.
//
// Every recorded access carries a 64-bit hash instead of its trace; the
// trace itself is stored once per distinct stack in a Depot and looked up
// only when a report is formatted.
//
// Design:
//   - Fixed-size traces (MaxFrames program counters)
//   - FNV-1a hash of the program counters as the key
//   - sync.Map storage, one Depot per checked buffer
//
// Usage:
//
//	d := stackdepot.New()
//	h := d.Capture(0)
//	...
//	fmt.Print(d.Get(h).Format())
package stackdepot

import (
	"fmt"
	"hash/fnv"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"unsafe"
)

// MaxFrames is the maximum number of frames kept per trace.
const MaxFrames = 16

// Trace is a captured stack trace.
type Trace struct {
	PC [MaxFrames]uintptr
	N  int // Number of valid entries in PC.
}

// Depot is a deduplicating store of traces.
//
// Thread Safety: All methods except Reset are safe for concurrent use.
type Depot struct {
	traces sync.Map // uint64 (hash) → *Trace
	count  atomic.Int64
}

// New returns an empty depot.
func New() *Depot {
	return &Depot{}
}

// Capture records the stack of its caller and returns the trace hash.
//
// skip is the number of additional frames to omit above the caller, so
// Capture(0) starts at the function calling Capture. Returns 0 when no
// frame is available.
func (d *Depot) Capture(skip int) uint64 {
	var pcs [MaxFrames]uintptr
	// Skip runtime.Callers and Capture.
	n := runtime.Callers(skip+2, pcs[:])
	if n == 0 {
		return 0
	}

	h := hashStack(pcs[:n])
	if _, exists := d.traces.Load(h); exists {
		return h
	}

	if _, loaded := d.traces.LoadOrStore(h, &Trace{PC: pcs, N: n}); !loaded {
		d.count.Add(1)
	}
	return h
}

// Get returns the trace stored under h, or nil if h is 0 or unknown.
func (d *Depot) Get(h uint64) *Trace {
	if h == 0 {
		return nil
	}
	v, ok := d.traces.Load(h)
	if !ok {
		return nil
	}
	return v.(*Trace)
}

// Len returns the number of distinct traces stored.
func (d *Depot) Len() int {
	return int(d.count.Load())
}

// Reset drops every trace.
//
// Thread Safety: NOT safe for concurrent calls with Capture.
func (d *Depot) Reset() {
	d.traces.Clear()
	d.count.Store(0)
}

// hashStack computes the FNV-1a hash of program counters.
func hashStack(pcs []uintptr) uint64 {
	h := fnv.New64a()
	for _, pc := range pcs {
		//nolint:gosec // G103: reading the PC value as bytes for hashing
		b := (*[unsafe.Sizeof(uintptr(0))]byte)(unsafe.Pointer(&pc))[:]
		_, _ = h.Write(b) // hash.Hash never fails.
	}
	return h.Sum64()
}

// Frames returns the program counters of the trace.
func (t *Trace) Frames() []uintptr {
	if t == nil {
		return nil
	}
	return t.PC[:t.N]
}

// Format renders the trace the way the Go race detector prints stacks:
//
//	  main.worker()
//	      /path/to/file.go:45 +0x3b
//
// Frames for which skip returns true are omitted. A nil skip keeps every
// frame except runtime internals.
func (t *Trace) Format(skip func(function string) bool) string {
	if t == nil || t.N == 0 {
		return "  <unknown>\n"
	}

	frames := runtime.CallersFrames(t.PC[:t.N])

	var buf strings.Builder
	for {
		frame, more := frames.Next()
		if frame.PC == 0 {
			break
		}

		if strings.HasPrefix(frame.Function, "runtime.") || (skip != nil && skip(frame.Function)) {
			if !more {
				break
			}
			continue
		}

		fmt.Fprintf(&buf, "  %s()\n", frame.Function)
		fmt.Fprintf(&buf, "      %s:%d +0x%x\n", frame.File, frame.Line, frame.PC-frame.Entry)

		if !more {
			break
		}
	}

	if buf.Len() == 0 {
		return "  <runtime internal>\n"
	}
	return buf.String()
}
