package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/peterh/liner"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kolkov/parslice/par"
)

var (
	errUsage      = errors.New("usage")
	errNotChecked = errors.New("not available without --checked")
)

var replCommands = []string{
	"get", "set", "replace", "chunk", "setchunk", "fill", "show", "len",
	"go", "borrow", "borrowmut", "release", "barrier", "races", "stats",
	"help", "quit",
}

// repl is an interactive shell over one integer buffer.
type repl struct {
	s       *par.Slice[int]
	values  par.ValueIndex[int]
	checked *par.Checked[int]
	loans   []par.Release
	out     io.Writer
}

// newREPL builds a shell over s, routed through c when c is not nil.
func newREPL(out io.Writer, c *par.Checked[int], s *par.Slice[int]) *repl {
	r := &repl{s: s, values: s.Values(), out: out}
	if c != nil {
		r.checked = c
		r.values = c.Values()
	}
	return r
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".parslice_history")
}

// cmdREPL runs the shell. A terminal on stdin gets line editing and
// history; any other reader is consumed line by line.
func cmdREPL(in io.Reader, out, errOut io.Writer, args []string) int {
	g := newFlagSet("repl")
	g.lenFlag()
	g.checkedFlags()

	cfg, err := g.parse(args)
	if err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}
	logger := newLogger(errOut, cfg)
	report := newRunReport("repl", cfg)

	s := par.WithValue(0, cfg.Len)
	var checked *par.Checked[int]
	var reg *prometheus.Registry
	if cfg.Checked {
		reg = prometheus.NewRegistry()
		checked = s.Checked(checkOptions(cfg, errOut, logger, reg)...)
	}
	r := newREPL(out, checked, s)

	if f, ok := in.(*os.File); ok && f == os.Stdin {
		err = r.runTerminal()
	} else {
		err = r.runReader(in)
	}
	r.releaseAll()
	if err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}

	if checked != nil {
		report.Races = checked.Reports()
	}
	report.Result = s.IntoSlice()
	return finishReport(errOut, report, reg)
}

func (r *repl) runTerminal() error {
	state := liner.NewLiner()
	defer state.Close()

	state.SetCtrlCAborts(true)
	state.SetCompleter(func(line string) []string {
		var out []string
		for _, c := range replCommands {
			if strings.HasPrefix(c, strings.ToLower(line)) {
				out = append(out, c)
			}
		}
		return out
	})

	path := historyFile()
	if f, err := os.Open(path); err == nil { //nolint:gosec // history path under $HOME
		_, _ = state.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if path == "" {
			return
		}
		if f, err := os.Create(path); err == nil { //nolint:gosec // history path under $HOME
			_, _ = state.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fprintf(r.out, "parslice repl (len=%d, checked=%t)\n", r.s.Len(), r.checked != nil)
	fprintln(r.out, "Type 'help' for available commands.")

	for {
		line, err := state.Prompt("parslice> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		state.AppendHistory(line)
		if r.exec(line) {
			return nil
		}
	}
}

func (r *repl) runReader(in io.Reader) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if r.exec(sc.Text()) {
			return nil
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

// exec runs one line and reports whether the shell should stop.
func (r *repl) exec(line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	if cmd == "quit" || cmd == "exit" || cmd == "q" {
		return true
	}
	if err := r.dispatch(cmd, args); err != nil {
		fprintln(r.out, "error:", err)
	}
	return false
}

func (r *repl) dispatch(cmd string, args []string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			var be *par.BoundsError
			if e, ok := p.(error); ok && errors.As(e, &be) {
				err = be
				return
			}
			var re *par.RaceError
			if e, ok := p.(error); ok && errors.As(e, &re) {
				err = re
				return
			}
			panic(p)
		}
	}()

	switch cmd {
	case "help", "?":
		r.printHelp()
	case "len":
		fprintln(r.out, r.values.Len())
	case "show":
		fprintln(r.out, r.values.GetChunk(0, r.values.Len()))
	case "get":
		ints, err := parseInts(args, 1, "get <i>")
		if err != nil {
			return err
		}
		fprintln(r.out, r.values.Get(ints[0]))
	case "set":
		ints, err := parseInts(args, 2, "set <i> <v>")
		if err != nil {
			return err
		}
		r.values.Set(ints[0], ints[1])
	case "replace":
		ints, err := parseInts(args, 2, "replace <i> <v>")
		if err != nil {
			return err
		}
		fprintln(r.out, r.values.Replace(ints[0], ints[1]))
	case "chunk":
		ints, err := parseInts(args, 2, "chunk <start> <n>")
		if err != nil {
			return err
		}
		fprintln(r.out, r.values.GetChunk(ints[0], ints[1]))
	case "setchunk":
		if len(args) < 1 {
			return fmt.Errorf("%w: setchunk <start> <v>...", errUsage)
		}
		ints, err := parseInts(args, len(args), "setchunk <start> <v>...")
		if err != nil {
			return err
		}
		r.values.SetChunk(ints[0], ints[1:])
	case "fill":
		ints, err := parseInts(args, 1, "fill <v>")
		if err != nil {
			return err
		}
		vals := make([]int, r.values.Len())
		for i := range vals {
			vals[i] = ints[0]
		}
		r.values.SetChunk(0, vals)
	case "go":
		return r.goExec(args)
	case "borrow", "borrowmut":
		return r.borrow(cmd, args)
	case "release":
		r.releaseAll()
	case "barrier":
		c, err := r.requireChecked()
		if err != nil {
			return err
		}
		fprintln(r.out, "phase", c.Barrier())
	case "races":
		c, err := r.requireChecked()
		if err != nil {
			return err
		}
		for _, rep := range c.Reports() {
			fprintf(r.out, "%s at index %d (goroutines %d, %d, phase %d)\n",
				rep.Kind, rep.Index, rep.Goroutine, rep.PreviousGoroutine, rep.Phase)
		}
		fprintln(r.out, c.Races(), "race(s)")
	case "stats":
		c, err := r.requireChecked()
		if err != nil {
			return err
		}
		st := c.Stats()
		fprintf(r.out, "phase=%d races=%d accesses=%d written=%d read=%d borrowed=%d\n",
			st.Phase, st.Races, st.Accesses, st.Written, st.Read, st.Borrowed)
		fprintf(r.out, "sample_rate=%d recorded=%d detect_1=%.3f detect_10=%.3f\n",
			st.SampleRate, st.Recorded, c.DetectionChance(1), c.DetectionChance(10))
	default:
		return fmt.Errorf("unknown command %q (type 'help' for commands)", cmd)
	}
	return nil
}

// goExec runs a command on a new goroutine and waits for it. The checker
// is not told about the wait, so the next conflicting access from the
// shell is reported unless a barrier comes first.
func (r *repl) goExec(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: go <command> [args]", errUsage)
	}
	var wg sync.WaitGroup
	var err error
	wg.Add(1)
	go func() {
		defer wg.Done()
		err = r.dispatch(strings.ToLower(args[0]), args[1:])
	}()
	wg.Wait()
	return err
}

func (r *repl) borrow(cmd string, args []string) error {
	c, err := r.requireChecked()
	if err != nil {
		return err
	}
	ints, err := parseInts(args, 2, cmd+" <start> <n>")
	if err != nil {
		return err
	}
	borrowFn := c.Borrow
	if cmd == "borrowmut" {
		borrowFn = c.BorrowMut
	}
	view, release, err := borrowFn(ints[0], ints[1])
	if err != nil {
		return err
	}
	r.loans = append(r.loans, release)
	fprintln(r.out, view)
	return nil
}

func (r *repl) releaseAll() {
	for _, release := range r.loans {
		release()
	}
	r.loans = nil
}

func (r *repl) requireChecked() (*par.Checked[int], error) {
	if r.checked == nil {
		return nil, errNotChecked
	}
	return r.checked, nil
}

func (r *repl) printHelp() {
	fprint(r.out, `Commands:
  get <i>                 print element i
  set <i> <v>             write v to element i
  replace <i> <v>         write v and print the previous value
  chunk <start> <n>       print n elements from start
  setchunk <start> <v>... write values from start
  fill <v>                write v everywhere
  show, len               print the buffer or its length
  go <command> [args]     run a command on another goroutine
  borrow <start> <n>      take a shared borrow (checked)
  borrowmut <start> <n>   take an exclusive borrow (checked)
  release                 release every borrow
  barrier                 start a new phase (checked)
  races, stats            show the checker state (checked)
  quit                    leave
`)
}

func parseInts(args []string, n int, usage string) ([]int, error) {
	if len(args) != n {
		return nil, fmt.Errorf("%w: %s", errUsage, usage)
	}
	out := make([]int, n)
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %q is not an integer", errUsage, usage, a)
		}
		out[i] = v
	}
	return out, nil
}
