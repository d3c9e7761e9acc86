package shadow

import (
	"testing"

	"github.com/kolkov/parslice/internal/epoch"
)

func TestShadow_New(t *testing.T) {
	s := New(16)
	if s.Len() != 16 {
		t.Fatalf("Len() = %d, want 16", s.Len())
	}
	if s.Cell(0) == s.Cell(1) {
		t.Error("Cell(0) and Cell(1) are the same cell")
	}
	if s.Cell(3) != s.Cell(3) {
		t.Error("Cell(3) returned different cells")
	}
}

func TestShadow_CellOutOfRange(t *testing.T) {
	s := New(2)
	defer func() {
		if recover() == nil {
			t.Error("Cell(2) did not panic")
		}
	}()
	s.Cell(2)
}

func TestShadow_StatsAndReset(t *testing.T) {
	s := New(4)

	s.Cell(0).OnWrite(epoch.New(1, 1), 0)
	s.Cell(1).OnRead(epoch.New(1, 1), 0)
	s.Cell(1).OnRead(epoch.New(2, 1), 0)
	s.Cell(2).AcquireExclusive(epoch.New(1, 1))

	st := s.Stats()
	want := Stats{Written: 1, Read: 1, Shared: 1, Borrowed: 1}
	if st != want {
		t.Errorf("Stats() = %+v, want %+v", st, want)
	}

	s.Reset()

	if st := s.Stats(); st != (Stats{}) {
		t.Errorf("Stats() after Reset = %+v, want zero", st)
	}
}

func BenchmarkCell_OnWrite(b *testing.B) {
	var c Cell
	e := epoch.New(1, 1)
	for i := 0; i < b.N; i++ {
		c.OnWrite(e, 0)
	}
}

func BenchmarkCell_OnRead(b *testing.B) {
	var c Cell
	e := epoch.New(1, 1)
	for i := 0; i < b.N; i++ {
		c.OnRead(e, 0)
	}
}
