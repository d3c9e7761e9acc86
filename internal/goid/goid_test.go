package goid

import (
	"sync"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int64
	}{
		{"running", "goroutine 123 [running]:\nmain.main()", 123},
		{"single digit", "goroutine 1 [running]:", 1},
		{"no trailer", "goroutine 42", 42},
		{"empty", "", 0},
		{"short", "gorout", 0},
		{"wrong prefix", "thread 12 [running]", 0},
		{"no digits", "goroutine [running]", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse([]byte(tt.in)); got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

// TestCurrent_Stable verifies that the ID does not change within a goroutine.
func TestCurrent_Stable(t *testing.T) {
	first := Current()
	if first <= 0 {
		t.Fatalf("Current() = %d, want > 0", first)
	}
	if second := Current(); second != first {
		t.Errorf("Current() = %d on second call, want %d", second, first)
	}
}

// TestCurrent_Distinct verifies that concurrently live goroutines see distinct IDs.
func TestCurrent_Distinct(t *testing.T) {
	const workers = 8

	ids := make([]int64, workers)
	var ready, done sync.WaitGroup
	ready.Add(workers)
	done.Add(workers)
	release := make(chan struct{})

	for w := 0; w < workers; w++ {
		go func(w int) {
			defer done.Done()
			ids[w] = Current()
			ready.Done()
			<-release // Keep every goroutine alive until all IDs are taken.
		}(w)
	}

	ready.Wait()
	close(release)
	done.Wait()

	seen := make(map[int64]bool, workers)
	for w, id := range ids {
		if id <= 0 {
			t.Errorf("worker %d: Current() = %d, want > 0", w, id)
		}
		if seen[id] {
			t.Errorf("worker %d: duplicate goroutine ID %d", w, id)
		}
		seen[id] = true
	}
}

func BenchmarkCurrent(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = Current()
	}
}
