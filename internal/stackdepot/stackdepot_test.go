package stackdepot

import (
	"strings"
	"sync"
	"testing"
)

//go:noinline
func captureHere(d *Depot) uint64 {
	return d.Capture(0)
}

func TestCapture_Dedup(t *testing.T) {
	d := New()

	var hashes [3]uint64
	for i := range hashes {
		hashes[i] = captureHere(d)
	}

	if hashes[0] == 0 {
		t.Fatal("Capture() = 0, want non-zero hash")
	}
	if hashes[0] != hashes[1] || hashes[1] != hashes[2] {
		t.Errorf("same call site produced hashes %v, want identical", hashes)
	}
	if d.Len() != 1 {
		t.Errorf("Len() = %d, want 1", d.Len())
	}
}

func TestCapture_DistinctSites(t *testing.T) {
	d := New()

	h1 := d.Capture(0)
	h2 := d.Capture(0)

	if h1 == h2 {
		t.Errorf("different call sites produced the same hash %#x", h1)
	}
	if d.Len() != 2 {
		t.Errorf("Len() = %d, want 2", d.Len())
	}
}

func TestGet(t *testing.T) {
	d := New()

	if d.Get(0) != nil {
		t.Error("Get(0) != nil")
	}
	if d.Get(12345) != nil {
		t.Error("Get(unknown) != nil")
	}

	h := captureHere(d)
	tr := d.Get(h)
	if tr == nil {
		t.Fatal("Get() = nil for captured hash")
	}
	if len(tr.Frames()) == 0 {
		t.Error("Frames() is empty")
	}
}

func TestFormat(t *testing.T) {
	d := New()
	out := d.Get(captureHere(d)).Format(nil)

	if !strings.Contains(out, "stackdepot.captureHere()") {
		t.Errorf("Format() missing caller frame:\n%s", out)
	}
	if !strings.Contains(out, "stackdepot.TestFormat()") {
		t.Errorf("Format() missing test frame:\n%s", out)
	}
	if !strings.Contains(out, "stackdepot_test.go:") {
		t.Errorf("Format() missing file:line:\n%s", out)
	}
}

func TestFormat_Skip(t *testing.T) {
	d := New()
	tr := d.Get(captureHere(d))

	out := tr.Format(func(fn string) bool {
		return strings.HasSuffix(fn, ".captureHere")
	})
	if strings.Contains(out, "captureHere") {
		t.Errorf("Format() kept skipped frame:\n%s", out)
	}
}

func TestFormat_Nil(t *testing.T) {
	var tr *Trace
	if got := tr.Format(nil); got != "  <unknown>\n" {
		t.Errorf("Format() on nil = %q, want <unknown>", got)
	}
}

func TestReset(t *testing.T) {
	d := New()
	h := captureHere(d)

	d.Reset()

	if d.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", d.Len())
	}
	if d.Get(h) != nil {
		t.Error("Get() after Reset returned a trace")
	}
}

func TestCapture_Concurrent(t *testing.T) {
	d := New()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				captureHere(d)
			}
		}()
	}
	wg.Wait()

	// One site, but the goroutine entry frames are identical too.
	if d.Len() != 1 {
		t.Errorf("Len() = %d, want 1", d.Len())
	}
}

func BenchmarkCapture(b *testing.B) {
	d := New()
	for i := 0; i < b.N; i++ {
		captureHere(d)
	}
}
