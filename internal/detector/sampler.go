package detector

import (
	"math"
	"sync/atomic"
)

// SamplerConfig configures access sampling.
//
// Sampling trades detection rate for speed: with Rate R only one in R
// checked accesses is recorded in shadow memory. Races that recur on many
// accesses (the common case in loops over a buffer) are still found with
// high probability.
type SamplerConfig struct {
	// Enabled determines if sampling is active.
	// When false, every access is recorded.
	Enabled bool

	// Rate is the sampling period.
	//   - Rate=1: record every access (same as Enabled=false)
	//   - Rate=10: record 1 in 10 accesses
	//   - Rate=100: record 1 in 100 accesses
	Rate uint64
}

// Sampler selects which accesses are recorded.
//
// An atomic counter is incremented on every access and an access is
// recorded when the counter is a multiple of the rate. Concurrent
// goroutines interleave on the counter, which spreads the selection
// without a random number generator.
//
// Thread Safety: All methods are safe for concurrent calls.
type Sampler struct {
	config SamplerConfig

	// tracePos is incremented on every access.
	tracePos atomic.Uint64

	total   atomic.Uint64
	sampled atomic.Uint64
}

// SamplerStats reports how many accesses were seen and recorded.
type SamplerStats struct {
	TotalAccesses   uint64 // All accesses.
	SampledAccesses uint64 // Accesses that were recorded.
	SkippedAccesses uint64 // Accesses dropped by sampling.
}

// NewSampler creates a Sampler. A rate of 0 is treated as 1.
func NewSampler(config SamplerConfig) *Sampler {
	if config.Rate == 0 {
		config.Rate = 1
	}
	return &Sampler{config: config}
}

// ShouldSample reports whether the current access should be recorded.
//
// Hot path: called once per checked access or range.
//
//go:nosplit
func (s *Sampler) ShouldSample() bool {
	s.total.Add(1)

	if !s.config.Enabled || s.config.Rate <= 1 {
		s.sampled.Add(1)
		return true
	}

	if s.tracePos.Add(1)%s.config.Rate != 0 {
		return false
	}
	s.sampled.Add(1)
	return true
}

// Stats returns a snapshot of the sampling counters.
//
// sampled is loaded first: total is incremented before sampled, so the
// later load of total never falls below it.
func (s *Sampler) Stats() SamplerStats {
	sampled := s.sampled.Load()
	total := s.total.Load()
	return SamplerStats{
		TotalAccesses:   total,
		SampledAccesses: sampled,
		SkippedAccesses: total - sampled,
	}
}

// IsEnabled reports whether sampling drops any access.
func (s *Sampler) IsEnabled() bool {
	return s.config.Enabled && s.config.Rate > 1
}

// EffectiveRate returns the sampling period in use, 1 when disabled.
func (s *Sampler) EffectiveRate() uint64 {
	if !s.IsEnabled() {
		return 1
	}
	return s.config.Rate
}

// ExpectedDetectionRate returns the probability that a race occurring on
// accessesPerRace accesses is seen at least once:
//
//	P(detect) = 1 - (1 - 1/R)^N
func (s *Sampler) ExpectedDetectionRate(accessesPerRace int) float64 {
	if !s.IsEnabled() || accessesPerRace <= 0 {
		return 1.0
	}
	miss := math.Pow(1-1/float64(s.config.Rate), float64(accessesPerRace))
	return 1 - math.Min(math.Max(miss, 0), 1)
}
