package shadow

// Shadow is the arena of cells for one checked buffer.
type Shadow struct {
	cells []Cell
}

// New allocates n zero cells. n must not be negative.
func New(n int) *Shadow {
	return &Shadow{cells: make([]Cell, n)}
}

// Len returns the number of cells.
func (s *Shadow) Len() int {
	return len(s.cells)
}

// Cell returns the cell of element i. It panics if i is out of range.
//
//go:nosplit
func (s *Shadow) Cell(i int) *Cell {
	return &s.cells[i]
}

// Stats summarizes the cells.
type Stats struct {
	Written  int // Cells with a recorded write.
	Read     int // Cells with a recorded read in their current phase.
	Shared   int // Cells read by more than one goroutine in one phase.
	Borrowed int // Cells with a live borrow.
}

// Stats scans every cell. Diagnostics only, not for hot paths.
func (s *Shadow) Stats() Stats {
	var st Stats
	for i := range s.cells {
		c := &s.cells[i]
		c.mu.Lock()
		if !c.w.IsZero() {
			st.Written++
		}
		if !c.r.IsZero() {
			st.Read++
		}
		if c.shared {
			st.Shared++
		}
		if c.borrow != 0 {
			st.Borrowed++
		}
		c.mu.Unlock()
	}
	return st
}

// Reset clears every cell.
//
// Thread Safety: NOT safe for concurrent access during Reset().
func (s *Shadow) Reset() {
	for i := range s.cells {
		s.cells[i].reset()
	}
}
