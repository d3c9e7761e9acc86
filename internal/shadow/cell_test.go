package shadow

import (
	"sync"
	"testing"

	"github.com/kolkov/parslice/internal/epoch"
)

// TestCell_ZeroValue verifies that a new cell has no history.
func TestCell_ZeroValue(t *testing.T) {
	var c Cell

	if c.w != 0 || c.r != 0 || c.shared {
		t.Errorf("new cell has history: w=%s r=%s shared=%t", c.w, c.r, c.shared)
	}
	if c.Borrows() != 0 {
		t.Errorf("Borrows() = %d, want 0", c.Borrows())
	}
}

func TestCell_OnWrite(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(c *Cell)
		write    epoch.Epoch
		want     Conflict
		wantPrev epoch.Epoch
	}{
		{
			name:  "first write",
			setup: func(*Cell) {},
			write: epoch.New(1, 1),
			want:  None,
		},
		{
			name:  "same goroutine rewrite",
			setup: func(c *Cell) { c.OnWrite(epoch.New(1, 1), 0) },
			write: epoch.New(1, 1),
			want:  None,
		},
		{
			name:     "other goroutine same phase",
			setup:    func(c *Cell) { c.OnWrite(epoch.New(1, 1), 0) },
			write:    epoch.New(2, 1),
			want:     WriteWrite,
			wantPrev: epoch.New(1, 1),
		},
		{
			name:  "other goroutine next phase",
			setup: func(c *Cell) { c.OnWrite(epoch.New(1, 1), 0) },
			write: epoch.New(2, 2),
			want:  None,
		},
		{
			name:     "after foreign read same phase",
			setup:    func(c *Cell) { c.OnRead(epoch.New(1, 1), 0) },
			write:    epoch.New(2, 1),
			want:     ReadWrite,
			wantPrev: epoch.New(1, 1),
		},
		{
			name:  "after own read same phase",
			setup: func(c *Cell) { c.OnRead(epoch.New(2, 1), 0) },
			write: epoch.New(2, 1),
			want:  None,
		},
		{
			name: "after shared read including own",
			setup: func(c *Cell) {
				c.OnRead(epoch.New(1, 1), 0)
				c.OnRead(epoch.New(2, 1), 0)
			},
			write:    epoch.New(2, 1),
			want:     ReadWrite,
			wantPrev: epoch.New(1, 1),
		},
		{
			name:  "after foreign read previous phase",
			setup: func(c *Cell) { c.OnRead(epoch.New(1, 1), 0) },
			write: epoch.New(2, 2),
			want:  None,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Cell
			tt.setup(&c)

			got, prev := c.OnWrite(tt.write, 0)
			if got != tt.want {
				t.Fatalf("OnWrite(%s) = %v, want %v", tt.write, got, tt.want)
			}
			if got != None && prev.Epoch != tt.wantPrev {
				t.Errorf("previous access = %s, want %s", prev.Epoch, tt.wantPrev)
			}
			if got == None && c.w != tt.write {
				t.Errorf("last write = %s, want %s", c.w, tt.write)
			}
		})
	}
}

func TestCell_OnRead(t *testing.T) {
	var c Cell

	if got, _ := c.OnRead(epoch.New(1, 1), 0); got != None {
		t.Fatalf("first read = %v, want None", got)
	}

	c.OnWrite(epoch.New(2, 2), 7)

	got, prev := c.OnRead(epoch.New(3, 2), 0)
	if got != WriteRead {
		t.Fatalf("read after concurrent write = %v, want WriteRead", got)
	}
	if prev.Epoch != epoch.New(2, 2) || prev.Stack != 7 {
		t.Errorf("previous access = %+v, want write at %s with stack 7", prev, epoch.New(2, 2))
	}

	// The conflicting read is not recorded.
	if c.r != 0 {
		t.Errorf("last read = %s after conflict, want 0", c.r)
	}

	if got, _ := c.OnRead(epoch.New(3, 3), 0); got != None {
		t.Errorf("read in later phase = %v, want None", got)
	}
}

// TestCell_ReadShared verifies promotion to read-shared and its reset on a new phase.
func TestCell_ReadShared(t *testing.T) {
	var c Cell

	c.OnRead(epoch.New(1, 1), 0)
	if c.shared {
		t.Fatal("shared after one reader")
	}

	c.OnRead(epoch.New(2, 1), 0)
	if !c.shared {
		t.Fatal("not shared after two readers in one phase")
	}

	c.OnRead(epoch.New(2, 2), 0)
	if c.shared {
		t.Error("still shared after phase change")
	}
}

func TestCell_Borrows(t *testing.T) {
	var c Cell
	a, b := epoch.New(1, 1), epoch.New(2, 1)

	if _, ok := c.AcquireShared(a); !ok {
		t.Fatal("AcquireShared(a) failed on free cell")
	}
	if _, ok := c.AcquireShared(b); !ok {
		t.Fatal("AcquireShared(b) failed on shared cell")
	}
	if c.Borrows() != 2 {
		t.Errorf("Borrows() = %d, want 2", c.Borrows())
	}
	live, ok := c.AcquireExclusive(a)
	if ok {
		t.Error("AcquireExclusive() succeeded while shared borrows are live")
	}
	if live.Holder != b || live.Exclusive {
		t.Errorf("blocking borrow = %+v, want shared borrow by %s", live, b)
	}

	c.ReleaseShared(a)
	c.ReleaseShared(b)

	if _, ok := c.AcquireExclusive(a); !ok {
		t.Fatal("AcquireExclusive() failed on free cell")
	}
	live, ok = c.AcquireShared(b)
	if ok {
		t.Error("AcquireShared() succeeded while exclusive borrow is live")
	}
	if live.Holder != a || !live.Exclusive {
		t.Errorf("blocking borrow = %+v, want exclusive borrow by %s", live, a)
	}
	if _, ok := c.AcquireExclusive(b); ok {
		t.Error("AcquireExclusive() succeeded twice")
	}

	c.ReleaseExclusive(b)
	if c.Borrows() != -1 {
		t.Errorf("Borrows() = %d after release by a non-holder, want -1", c.Borrows())
	}
	c.ReleaseExclusive(a)
	if c.Borrows() != 0 {
		t.Errorf("Borrows() = %d after release, want 0", c.Borrows())
	}
}

func TestCell_Conflicting(t *testing.T) {
	a, b, x := epoch.New(1, 1), epoch.New(2, 1), epoch.New(3, 1)

	tests := []struct {
		name   string
		setup  func(c *Cell)
		cur    epoch.Epoch
		write  bool
		want   bool
		holder epoch.Epoch
	}{
		{"free", func(*Cell) {}, x, true, false, 0},
		{"read under foreign exclusive", func(c *Cell) { c.AcquireExclusive(a) }, x, false, true, a},
		{"own exclusive", func(c *Cell) { c.AcquireExclusive(a) }, a, true, false, 0},
		{"read under shared", func(c *Cell) { c.AcquireShared(a) }, x, false, false, 0},
		{"write under foreign shared", func(c *Cell) { c.AcquireShared(a) }, x, true, true, a},
		{"write by sole shared holder", func(c *Cell) { c.AcquireShared(a); c.AcquireShared(a) }, a, true, false, 0},
		{"write by one of two holders", func(c *Cell) { c.AcquireShared(a); c.AcquireShared(b) }, a, true, true, b},
		{"holder left after release", func(c *Cell) {
			c.AcquireShared(a)
			c.AcquireShared(x)
			c.ReleaseShared(x)
		}, x, true, true, a},
		{"all released", func(c *Cell) {
			c.AcquireShared(a)
			c.ReleaseShared(a)
		}, x, true, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Cell
			tt.setup(&c)

			live, got := c.Conflicting(tt.cur, tt.write)
			if got != tt.want {
				t.Fatalf("Conflicting(%s, write=%t) = %t, want %t", tt.cur, tt.write, got, tt.want)
			}
			if got && live.Holder != tt.holder {
				t.Errorf("holder = %s, want %s", live.Holder, tt.holder)
			}
		})
	}
}

// TestCell_ConcurrentExclusive verifies that exactly one of many racing
// goroutines wins an exclusive borrow.
func TestCell_ConcurrentExclusive(t *testing.T) {
	const workers = 32

	var c Cell
	var wins sync.WaitGroup
	won := make(chan uint32, workers)

	wins.Add(workers)
	for w := 1; w <= workers; w++ {
		go func(gid uint32) {
			defer wins.Done()
			if _, ok := c.AcquireExclusive(epoch.New(gid, 1)); ok {
				won <- gid
			}
		}(uint32(w))
	}
	wins.Wait()
	close(won)

	count := 0
	for range won {
		count++
	}
	if count != 1 {
		t.Errorf("%d goroutines acquired the exclusive borrow, want 1", count)
	}
}
