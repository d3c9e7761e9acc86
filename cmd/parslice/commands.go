package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kolkov/parslice/bfs"
	"github.com/kolkov/parslice/par"
)

var errNotCompatible = errors.New("version requirement not satisfied")

// checkOptions builds the options of a checked view from the config.
// Reports are printed to errOut and logged.
func checkOptions(cfg Config, errOut io.Writer, logger *slog.Logger, reg prometheus.Registerer) []par.CheckOption {
	return []par.CheckOption{
		par.WithOutput(errOut),
		par.WithLogger(logger),
		par.WithRegisterer(reg),
		par.WithSampleRate(cfg.SampleRate),
		par.WithStacks(cfg.Stacks),
	}
}

// cmdFill writes 42 to even and 69 to odd positions from two goroutines.
func cmdFill(out, errOut io.Writer, args []string) int {
	g := newFlagSet("fill")
	g.lenFlag()
	g.checkedFlags()

	cfg, err := g.parse(args)
	if err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}
	logger := newLogger(errOut, cfg)
	report := newRunReport("fill", cfg)

	s := par.WithValue(0, cfg.Len)
	var values par.ValueIndex[int] = s.Values()

	var checked *par.Checked[int]
	var reg *prometheus.Registry
	if cfg.Checked {
		reg = prometheus.NewRegistry()
		checked = s.Checked(checkOptions(cfg, errOut, logger, reg)...)
		values = checked.Values()
	}

	fillEvenOdd(values, 42, 69)

	if checked != nil {
		checked.Barrier()
		report.Races = checked.Reports()
	}

	result := s.IntoSlice()
	fprintln(out, result)
	report.Result = result
	logger.Debug("fill done", "len", len(result), "checked", cfg.Checked)

	code := finishReport(errOut, report, reg)
	if len(report.Races) > 0 {
		return 1
	}
	return code
}

// fillEvenOdd sets even indices to even and odd indices to odd, one
// goroutine per parity.
func fillEvenOdd(v par.ValueIndex[int], even, odd int) {
	var wg sync.WaitGroup
	for parity, value := range []int{even, odd} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := parity; i < v.Len(); i += 2 {
				v.Set(i, value)
			}
		}()
	}
	wg.Wait()
}

// cmdChunks builds the buffer of squares and copies a chunk out of it.
func cmdChunks(out, errOut io.Writer, args []string) int {
	g := newFlagSet("chunks")
	g.lenFlag()
	start := g.fs.Int("start", 2, "first index of the chunk")
	count := g.fs.Int("count", 3, "number of elements in the chunk")
	size := g.fs.Int("size", 0, "also list every chunk of this size")

	cfg, err := g.parse(args)
	if err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}
	report := newRunReport("chunks", cfg)

	s := par.WithFunc(cfg.Len, func(i int) int { return i * i })

	chunk, err := getChunk(s.Values(), *start, *count)
	if err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}
	fprintln(out, chunk)
	result := map[string]any{"chunk": chunk}

	if *size > 0 {
		chunks := s.ChunkBy(*size)
		all := make([][]int, chunks.Len())
		for k := range all {
			all[k] = chunks.Values().Get(k)
			lo, hi := chunks.Bounds(k)
			fprintf(out, "chunk %d [%d, %d): %v\n", k, lo, hi, all[k])
		}
		result["chunks"] = all
	}

	report.Result = result
	return finishReport(errOut, report, nil)
}

// getChunk turns the bounds panic of GetChunk into an error.
func getChunk(v par.Values[int], start, n int) (chunk []int, err error) {
	defer func() {
		if r := recover(); r != nil {
			be, ok := r.(*par.BoundsError)
			if !ok {
				panic(r)
			}
			err = be
		}
	}()
	return v.GetChunk(start, n), nil
}

// bfsResult is the result section of a bfs report.
type bfsResult struct {
	Nodes       int  `json:"nodes"`
	Levels      int  `json:"levels"`
	MaxDistance int  `json:"max_distance"` //nolint:tagliatelle // snake_case report
	Matches     bool `json:"matches_sequential"`
}

// cmdBFS computes distances on a complete binary tree in parallel and
// compares them with the sequential reference.
func cmdBFS(out, errOut io.Writer, args []string) int {
	g := newFlagSet("bfs")
	g.fs.IntVar(&g.cfg.Depth, "depth", g.cfg.Depth, "number of tree levels")
	g.fs.IntVar(&g.cfg.Workers, "workers", 0, "worker goroutines (0 = GOMAXPROCS)")
	g.checkedFlags()

	cfg, err := g.parse(args)
	if err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}
	logger := newLogger(errOut, cfg)
	report := newRunReport("bfs", cfg)

	tree, err := bfs.NewTree(cfg.Depth)
	if err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := []bfs.Option{bfs.WithWorkers(cfg.Workers), bfs.WithLogger(logger)}
	s := par.WithValue(0, tree.NumNodes())

	var checked *par.Checked[int]
	var reg *prometheus.Registry
	if cfg.Checked {
		reg = prometheus.NewRegistry()
		checked = s.Checked(checkOptions(cfg, errOut, logger, reg)...)
		opts = append(opts, bfs.WithSync(func() { checked.Barrier() }))
		err = bfs.DistancesInto(ctx, tree, 0, checked.Values(), opts...)
	} else {
		err = bfs.DistancesInto(ctx, tree, 0, s.Values(), opts...)
	}
	if err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}

	dists := s.IntoSlice()
	want, err := bfs.Sequential(tree, 0)
	if err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}

	res := bfsResult{
		Nodes:       len(dists),
		Levels:      cfg.Depth,
		MaxDistance: slices.Max(dists),
		Matches:     slices.Equal(dists, want),
	}
	races := 0
	if checked != nil {
		report.Races = checked.Reports()
		races = len(report.Races)
	}
	fprintf(out, "nodes=%d levels=%d max_distance=%d matches=%t races=%d\n",
		res.Nodes, res.Levels, res.MaxDistance, res.Matches, races)
	report.Result = res

	code := finishReport(errOut, report, reg)
	if !res.Matches {
		fprintln(errOut, "error: parallel distances differ from the sequential reference")
		return 1
	}
	if races > 0 {
		return 1
	}
	return code
}

// cmdVersion prints the version and optionally checks a requirement.
func cmdVersion(out, errOut io.Writer, args []string) int {
	g := newFlagSet("version")
	require := g.fs.String("require", "", "fail unless this semantic version is satisfied")

	if _, err := g.parse(args); err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}

	info := par.GetInfo()
	fprintf(out, "parslice version %s (%s)\n", info.Version, info.Checker)

	if *require == "" {
		return 0
	}
	ok, err := par.Compatible(*require)
	if err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}
	if !ok {
		fprintln(errOut, "error:", fmt.Errorf("%w: have %s, need %s", errNotCompatible, info.Version, *require))
		return 1
	}
	return 0
}
