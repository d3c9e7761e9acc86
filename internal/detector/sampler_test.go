package detector

import (
	"sync"
	"testing"
)

func TestSampler_Disabled(t *testing.T) {
	for _, cfg := range []SamplerConfig{{}, {Enabled: true, Rate: 1}, {Enabled: false, Rate: 10}, {Enabled: true}} {
		s := NewSampler(cfg)
		for i := 0; i < 100; i++ {
			if !s.ShouldSample() {
				t.Fatalf("config %+v: ShouldSample() = false, want every access", cfg)
			}
		}
		if s.IsEnabled() {
			t.Errorf("config %+v: IsEnabled() = true", cfg)
		}
		if s.EffectiveRate() != 1 {
			t.Errorf("config %+v: EffectiveRate() = %d, want 1", cfg, s.EffectiveRate())
		}
	}
}

func TestSampler_Rate(t *testing.T) {
	s := NewSampler(SamplerConfig{Enabled: true, Rate: 10})

	sampled := 0
	for i := 0; i < 1000; i++ {
		if s.ShouldSample() {
			sampled++
		}
	}
	if sampled != 100 {
		t.Errorf("sampled %d of 1000, want 100", sampled)
	}

	st := s.Stats()
	if st.TotalAccesses != 1000 || st.SampledAccesses != 100 || st.SkippedAccesses != 900 {
		t.Errorf("Stats() = %+v, want 1000/100/900", st)
	}
}

func TestSampler_Concurrent(t *testing.T) {
	s := NewSampler(SamplerConfig{Enabled: true, Rate: 4})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				s.ShouldSample()
			}
		}()
	}
	wg.Wait()

	st := s.Stats()
	if st.TotalAccesses != 8000 {
		t.Errorf("TotalAccesses = %d, want 8000", st.TotalAccesses)
	}
	if st.SampledAccesses != 2000 {
		t.Errorf("SampledAccesses = %d, want 2000", st.SampledAccesses)
	}
}

func TestSampler_ExpectedDetectionRate(t *testing.T) {
	if got := NewSampler(SamplerConfig{}).ExpectedDetectionRate(5); got != 1 {
		t.Errorf("disabled rate = %v, want 1", got)
	}

	s := NewSampler(SamplerConfig{Enabled: true, Rate: 10})
	low := s.ExpectedDetectionRate(1)
	high := s.ExpectedDetectionRate(100)

	if low < 0.099 || low > 0.101 {
		t.Errorf("ExpectedDetectionRate(1) = %v, want 0.1", low)
	}
	if high <= low || high > 1 {
		t.Errorf("ExpectedDetectionRate(100) = %v, want in (%v, 1]", high, low)
	}
}

// TestSampler_StatsUnderLoad verifies that a snapshot taken while other
// goroutines sample never reports more recorded than total accesses.
func TestSampler_StatsUnderLoad(t *testing.T) {
	s := NewSampler(SamplerConfig{})

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					s.ShouldSample()
				}
			}
		}()
	}

	for i := 0; i < 10000; i++ {
		st := s.Stats()
		if st.SampledAccesses > st.TotalAccesses {
			t.Errorf("SampledAccesses = %d > TotalAccesses = %d", st.SampledAccesses, st.TotalAccesses)
			break
		}
		if st.SkippedAccesses > st.TotalAccesses {
			t.Errorf("SkippedAccesses = %d wrapped around", st.SkippedAccesses)
			break
		}
	}
	close(stop)
	wg.Wait()
}
