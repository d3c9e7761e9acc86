package detector

import (
	"fmt"
	"io"
	"strings"

	"github.com/kolkov/parslice/internal/epoch"
	"github.com/kolkov/parslice/internal/shadow"
	"github.com/kolkov/parslice/internal/stackdepot"
)

// Kind classifies a report.
type Kind uint8

const (
	// WriteWrite is a write concurrent with an earlier write.
	WriteWrite Kind = iota + 1
	// ReadWrite is a write concurrent with an earlier read.
	ReadWrite
	// WriteRead is a read concurrent with an earlier write.
	WriteRead
	// Aliasing is an access or reference overlapping a conflicting live reference.
	Aliasing
)

// String returns the kind name, also used as the metrics label.
func (k Kind) String() string {
	switch k {
	case WriteWrite:
		return "write-write"
	case ReadWrite:
		return "read-write"
	case WriteRead:
		return "write-read"
	case Aliasing:
		return "aliasing"
	default:
		return "unknown"
	}
}

func kindOf(c shadow.Conflict) Kind {
	switch c {
	case shadow.WriteWrite:
		return WriteWrite
	case shadow.ReadWrite:
		return ReadWrite
	case shadow.WriteRead:
		return WriteRead
	default:
		return 0
	}
}

// Op is the operation of one side of a report.
type Op uint8

const (
	// OpRead is a value read.
	OpRead Op = iota + 1
	// OpWrite is a value write.
	OpWrite
	// OpBorrow is a shared reference.
	OpBorrow
	// OpBorrowMut is an exclusive reference.
	OpBorrowMut
)

// String returns the capitalized operation name used in report headers.
func (o Op) String() string {
	switch o {
	case OpRead:
		return "Read"
	case OpWrite:
		return "Write"
	case OpBorrow:
		return "Borrow"
	case OpBorrowMut:
		return "Mutable borrow"
	default:
		return "Access"
	}
}

// Access is one side of a report.
type Access struct {
	Op        Op
	Index     int
	Goroutine uint32
	Epoch     epoch.Epoch
	Stack     *stackdepot.Trace // nil when not captured
}

// Report describes one data race or aliasing violation.
type Report struct {
	Kind     Kind
	Current  Access // The access that detected the conflict.
	Previous Access // The earlier access or the live reference.

	// Key identifies the report for deduplication.
	// Format: "{kind}:{index}:{gid1}:{gid2}" with gid1 <= gid2.
	Key string
}

func newReport(kind Kind, cur, prev Access) *Report {
	return &Report{
		Kind:     kind,
		Current:  cur,
		Previous: prev,
		Key:      dedupKey(kind, cur.Index, cur.Goroutine, prev.Goroutine),
	}
}

// dedupKey sorts the goroutine IDs so that (A, B) and (B, A) collapse.
func dedupKey(kind Kind, index int, gid1, gid2 uint32) string {
	return fmt.Sprintf("%s:%d:%d:%d", kind, index, min(gid1, gid2), max(gid1, gid2))
}

// Format writes the report in the layout of the Go race detector:
//
//	==================
//	WARNING: DATA RACE
//	Write at index 3 by goroutine 7:
//	  main.worker()
//	      /path/to/file.go:10 +0x48
//	  [phase 2]
//
//	Previous write at index 3 by goroutine 6:
//	  main.worker()
//	      /path/to/file.go:10 +0x48
//	  [phase 2]
//	==================
//
//nolint:errcheck // best-effort diagnostic output
func (r *Report) Format(w io.Writer) {
	fmt.Fprintf(w, "==================\n")
	if r.Kind == Aliasing {
		fmt.Fprintf(w, "WARNING: ALIASING VIOLATION\n")
	} else {
		fmt.Fprintf(w, "WARNING: DATA RACE\n")
	}

	fmt.Fprintf(w, "%s at index %d by goroutine %d:\n",
		r.Current.Op, r.Current.Index, r.Current.Goroutine)
	fmt.Fprint(w, formatStack(r.Current.Stack))
	fmt.Fprintf(w, "  [phase %d]\n", r.Current.Epoch.Phase())
	fmt.Fprintf(w, "\n")

	prefix := "Previous"
	if r.Kind == Aliasing {
		prefix = "Live"
	}
	fmt.Fprintf(w, "%s %s at index %d by goroutine %d:\n",
		prefix, strings.ToLower(r.Previous.Op.String()), r.Previous.Index, r.Previous.Goroutine)
	fmt.Fprint(w, formatStack(r.Previous.Stack))
	fmt.Fprintf(w, "  [phase %d]\n", r.Previous.Epoch.Phase())

	fmt.Fprintf(w, "==================\n")
}

// String returns the formatted report.
func (r *Report) String() string {
	var buf strings.Builder
	r.Format(&buf)
	return buf.String()
}

func formatStack(t *stackdepot.Trace) string {
	if t == nil {
		return "  (stack not captured)\n"
	}
	return t.Format(internalFrame)
}

// internalFrame hides the checker's own frames from report stacks.
func internalFrame(function string) bool {
	return strings.Contains(function, "/internal/detector.(*Detector)") ||
		strings.Contains(function, "/parslice/par.")
}
