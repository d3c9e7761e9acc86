package shadow

import (
	"sync"

	"github.com/kolkov/parslice/internal/epoch"
)

// Conflict classifies the outcome of recording an access.
type Conflict uint8

const (
	// None means the access is ordered with every earlier access.
	None Conflict = iota
	// WriteWrite means a write is concurrent with an earlier write.
	WriteWrite
	// ReadWrite means a write is concurrent with an earlier read.
	ReadWrite
	// WriteRead means a read is concurrent with an earlier write.
	WriteRead
)

// String returns the conflict name used in reports.
func (c Conflict) String() string {
	switch c {
	case None:
		return "none"
	case WriteWrite:
		return "write-write"
	case ReadWrite:
		return "read-write"
	case WriteRead:
		return "write-read"
	default:
		return "unknown"
	}
}

// exclusive is the borrow count of a live mutable borrow.
const exclusive = -1

// Cell is the shadow state of one buffer element.
//
// Memory layout is dominated by the mutex, four epochs and the holder list.
// Cells are allocated once per checked buffer and never freed individually.
type Cell struct {
	mu sync.Mutex

	w      epoch.Epoch // Last write.
	r      epoch.Epoch // Last read.
	rOther epoch.Epoch // Another reader of the same phase, set once read-shared.
	shared bool        // Read by more than one goroutine in r's phase.

	wStack uint64 // Stack hash of the last write, 0 if not captured.
	rStack uint64 // Stack hash of the last read, 0 if not captured.

	// borrow is 0 when free, n > 0 for n live shared borrows,
	// and -1 for one live exclusive borrow.
	borrow int32

	// holders has one entry per goroutine with a live borrow. The slice
	// keeps its capacity across releases.
	holders []holder
}

type holder struct {
	at epoch.Epoch // Latest acquisition by this goroutine.
	n  int32       // Live borrows by this goroutine.
}

// Access is a previous access returned alongside a conflict.
type Access struct {
	Epoch epoch.Epoch
	Stack uint64
}

// Loan describes a live borrow that blocked an operation.
type Loan struct {
	Holder    epoch.Epoch
	Exclusive bool
}
// OnRead records a read at cur and reports a conflict with the last write.
//
// On conflict the cell is left unchanged, so the first race on an element
// keeps being reported against the same write.
func (c *Cell) OnRead(cur epoch.Epoch, stack uint64) (Conflict, Access) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.w.Concurrent(cur) {
		return WriteRead, Access{Epoch: c.w, Stack: c.wStack}
	}

	switch {
	case c.r.IsZero() || c.r.Phase() != cur.Phase():
		// First read of this phase.
		c.shared = false
		c.rOther = 0
	case c.r.GID() != cur.GID():
		// Second reader: remember the previous one for later reports.
		c.shared = true
		c.rOther = c.r
	}
	c.r = cur
	c.rStack = stack
	return None, Access{}
}

// OnWrite records a write at cur and reports a conflict with the last write
// or any read of the current phase.
//
// A successful write clears read tracking: it orders every earlier read.
// On conflict the cell is left unchanged.
func (c *Cell) OnWrite(cur epoch.Epoch, stack uint64) (Conflict, Access) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.w.Concurrent(cur) {
		return WriteWrite, Access{Epoch: c.w, Stack: c.wStack}
	}

	if !c.r.IsZero() && c.r.Phase() == cur.Phase() {
		if c.r.GID() != cur.GID() {
			return ReadWrite, Access{Epoch: c.r, Stack: c.rStack}
		}
		if c.shared {
			return ReadWrite, Access{Epoch: c.rOther}
		}
	}

	c.w = cur
	c.wStack = stack
	c.r = 0
	c.rOther = 0
	c.rStack = 0
	c.shared = false
	return None, Access{}
}

// AcquireShared registers a shared borrow by the goroutine of by. It fails
// while an exclusive borrow is live and returns that borrow.
func (c *Cell) AcquireShared(by epoch.Epoch) (Loan, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.borrow == exclusive {
		return Loan{Holder: c.holders[0].at, Exclusive: true}, false
	}
	c.borrow++
	for i := range c.holders {
		if c.holders[i].at.GID() == by.GID() {
			c.holders[i].at = by
			c.holders[i].n++
			return Loan{}, true
		}
	}
	c.holders = append(c.holders, holder{at: by, n: 1})
	return Loan{}, true
}

// AcquireExclusive registers an exclusive borrow. It fails while any borrow
// is live and returns one of them, preferring another goroutine's.
func (c *Cell) AcquireExclusive(by epoch.Epoch) (Loan, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.borrow != 0 {
		return c.blocking(by), false
	}
	c.borrow = exclusive
	c.holders = append(c.holders[:0], holder{at: by, n: 1})
	return Loan{}, true
}

// ReleaseShared drops one shared borrow taken by the goroutine of by.
func (c *Cell) ReleaseShared(by epoch.Epoch) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.borrow <= 0 {
		return
	}
	for i := range c.holders {
		if c.holders[i].at.GID() != by.GID() {
			continue
		}
		c.borrow--
		if c.holders[i].n--; c.holders[i].n == 0 {
			c.holders = append(c.holders[:i], c.holders[i+1:]...)
		}
		return
	}
}

// ReleaseExclusive drops the exclusive borrow taken by the goroutine of by.
func (c *Cell) ReleaseExclusive(by epoch.Epoch) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.borrow == exclusive && c.holders[0].at.GID() == by.GID() {
		c.borrow = 0
		c.holders = c.holders[:0]
	}
}

// Borrows returns the borrow count: 0 free, n > 0 shared, -1 exclusive.
func (c *Cell) Borrows() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.borrow
}

// Conflicting returns the live borrow that an access at cur violates, if
// any. Any access from another goroutine violates an exclusive borrow. A
// write violates a shared borrow held by any other goroutine.
func (c *Cell) Conflicting(cur epoch.Epoch, write bool) (Loan, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.borrow == exclusive:
		if h := c.holders[0].at; h.GID() != cur.GID() {
			return Loan{Holder: h, Exclusive: true}, true
		}
	case c.borrow > 0 && write:
		for _, h := range c.holders {
			if h.at.GID() != cur.GID() {
				return Loan{Holder: h.at}, true
			}
		}
	}
	return Loan{}, false
}

// blocking returns a live borrow, preferring one held by another goroutine.
// c.mu must be held and c.borrow must not be 0.
func (c *Cell) blocking(by epoch.Epoch) Loan {
	excl := c.borrow == exclusive
	for _, h := range c.holders {
		if h.at.GID() != by.GID() {
			return Loan{Holder: h.at, Exclusive: excl}
		}
	}
	return Loan{Holder: c.holders[0].at, Exclusive: excl}
}

// reset returns the cell to the never-accessed state.
func (c *Cell) reset() {
	c.mu.Lock()
	c.w, c.r, c.rOther = 0, 0, 0
	c.shared = false
	c.wStack, c.rStack = 0, 0
	c.borrow = 0
	c.holders = nil
	c.mu.Unlock()
}
