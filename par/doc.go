// Package par provides fixed-length slices that many goroutines may read and
// write at the same time without synchronization.
//
// Go already lets any goroutine touch any element of an ordinary slice; what
// it does not provide is a vocabulary for the guarantees such code relies on.
// A [Slice] makes those guarantees explicit: every access goes through one of
// three accessor tiers, and each tier states exactly what the caller must
// ensure for the access to be sound.
//
// # Quick Start
//
// Fill even and odd positions from two goroutines:
//
//	s := par.WithValue(0, 6)
//	v := s.Values()
//
//	var wg sync.WaitGroup
//	for w := 0; w < 2; w++ {
//		wg.Add(1)
//		go func(w int) {
//			defer wg.Done()
//			for i := w; i < v.Len(); i += 2 {
//				v.Set(i, []int{42, 69}[w])
//			}
//		}(w)
//	}
//	wg.Wait()
//
//	fmt.Println(s.IntoSlice()) // [42 69 42 69 42 69]
//
// # Accessor Tiers
//
// The tiers are ordered by how much the caller must guarantee:
//
//	Tier        Access                     Caller guarantees
//	Pointers    addresses only             nothing until dereferenced
//	Values      copy in / copy out         no data races
//	Refs        *T and []T into storage    no data races, no aliasing
//
// A data race is two accesses to the same index from different goroutines,
// not ordered by synchronization, at least one of them a write. The aliasing
// rule additionally forbids a live mutable reference coexisting with any
// other reference to the same index; overlapping chunk references conflict
// even if the shared indices are never touched.
//
// Every tier exists at element granularity ([Slice.Pointers], [Slice.Values],
// [Slice.Refs]) and at chunk granularity through [Slice.ChunkBy] or
// [Slice.Partition]. Chunks of one partitioning never overlap, so handing
// distinct chunk indices to distinct goroutines satisfies both rules.
//
// The six capability sets are the interfaces [PointerIndex], [ValueIndex],
// [RefIndex], [PointerChunkIndex], [ValueChunkIndex] and [RefChunkIndex].
// None of them embeds another.
//
// # Bounds Checking
//
// Every accessor validates its index or range and panics with a
// [*BoundsError] before touching the storage, so a recovered panic leaves
// the buffer unchanged. The ...Unchecked variants skip the check; calling
// them with an invalid index is undefined behavior.
//
// # Checked Mode
//
// The fast tiers never detect misuse. In tests, wrap a Slice with
// [Slice.Checked] to record every access and report data races and aliasing
// violations the way the Go race detector does:
//
//	c := s.Checked(par.WithPanicOnRace(true))
//	v := c.Values() // implements ValueIndex[T]
//	... workers ...
//	wg.Wait()
//	c.Barrier()
//
// The checker cannot observe the caller's synchronization; [Checked.Barrier]
// marks the points where all workers are joined.
//
// # Typical Use
//
// Level-synchronous parallel algorithms write each output index exactly once
// per level under an external protocol (an atomic visited flag, a disjoint
// partition). Package bfs computes breadth-first distances this way over a
// [ValueIndex], and runs unchanged against a checked view in tests.
package par
