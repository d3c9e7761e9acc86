package bfs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
	"golang.org/x/sys/cpu"

	"github.com/kolkov/parslice/par"
)

var (
	// ErrStartOutOfRange reports a start node outside the graph.
	ErrStartOutOfRange = errors.New("bfs: start node out of range")

	// ErrLengthMismatch reports a distance buffer whose length differs from
	// the number of nodes.
	ErrLengthMismatch = errors.New("bfs: distance buffer length mismatch")
)

// Unreached is the distance of nodes not reachable from the start node.
const Unreached = -1

// Option configures Distances and DistancesInto.
type Option func(*config)

type config struct {
	workers int
	sync    func()
	logger  *slog.Logger
}

// WithWorkers sets the number of worker goroutines. Values below 1 select
// runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(c *config) { c.workers = n }
}

// WithSync registers f to be called on the calling goroutine at every point
// where all workers have been joined: once after the buffer is initialized
// and once after every level. Pass the Barrier of a checked view here.
func WithSync(f func()) Option {
	return func(c *config) { c.sync = f }
}

// WithLogger logs one debug record per level.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// frontier is one worker's next-level buffer, padded so that workers
// appending concurrently do not share cache lines.
type frontier struct {
	_     cpu.CacheLinePad
	nodes []int
	_     cpu.CacheLinePad
}

// Distances returns the BFS distance of every node from start, computed by
// a level-synchronous parallel search. Unreachable nodes get Unreached.
//
// It returns ctx.Err() if ctx is canceled; cancellation is checked between
// levels.
func Distances(ctx context.Context, g Graph, start int, opts ...Option) ([]int, error) {
	s := par.WithValue(Unreached, g.NumNodes())
	if err := DistancesInto(ctx, g, start, s.Values(), opts...); err != nil {
		return nil, err
	}
	return s.IntoSlice(), nil
}

// DistancesInto is Distances writing into dists, which must have exactly
// g.NumNodes() elements. Every element is overwritten.
//
// Workers write dists concurrently without locks; each index is written by
// exactly one goroutine per run.
func DistancesInto(ctx context.Context, g Graph, start int, dists par.ValueIndex[int], opts ...Option) error {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.workers < 1 {
		cfg.workers = runtime.GOMAXPROCS(0)
	}

	n := g.NumNodes()
	if dists.Len() != n {
		return fmt.Errorf("%w: buffer has %d elements, graph has %d nodes", ErrLengthMismatch, dists.Len(), n)
	}
	if start < 0 || start >= n {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrStartOutOfRange, start, n)
	}

	fill := make([]int, n)
	for i := range fill {
		fill[i] = Unreached
	}
	dists.SetChunk(0, fill)
	cfg.barrier()

	visited := make([]atomic.Bool, n)
	visited[start].Store(true)

	current := []int{start}
	next := make([]frontier, cfg.workers)

	for dist := 0; len(current) > 0; dist++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		var cursor atomic.Int64
		var wg sync.WaitGroup
		for w := range next {
			wg.Add(1)
			go func(out *frontier) {
				defer wg.Done()
				out.nodes = out.nodes[:0]
				for {
					i := int(cursor.Add(1) - 1)
					if i >= len(current) {
						return
					}
					node := current[i]
					dists.Set(node, dist)
					for _, succ := range g.Successors(node) {
						if !visited[succ].Swap(true) {
							out.nodes = append(out.nodes, succ)
						}
					}
				}
			}(&next[w])
		}
		wg.Wait()
		cfg.barrier()

		if cfg.logger != nil {
			cfg.logger.Debug("bfs level done", "distance", dist, "nodes", len(current))
		}

		current = current[:0]
		for w := range next {
			current = append(current, next[w].nodes...)
		}
	}
	return nil
}

func (c *config) barrier() {
	if c.sync != nil {
		c.sync()
	}
}

// Sequential computes the same distances as Distances on the calling
// goroutine, with a FIFO queue. It is the reference implementation.
func Sequential(g Graph, start int) ([]int, error) {
	n := g.NumNodes()
	if start < 0 || start >= n {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrStartOutOfRange, start, n)
	}

	dists := make([]int, n)
	for i := range dists {
		dists[i] = Unreached
	}
	dists[start] = 0

	q := queue.New()
	q.Add(start)
	for q.Length() > 0 {
		node := q.Remove().(int)
		for _, succ := range g.Successors(node) {
			if dists[succ] == Unreached {
				dists[succ] = dists[node] + 1
				q.Add(succ)
			}
		}
	}
	return dists, nil
}
