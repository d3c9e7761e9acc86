// Command parslice runs the scenarios of package par, optionally under the
// race-checking mode, and pokes at a buffer interactively.
//
// Usage:
//
//	parslice fill    [--len N] [--checked]
//	parslice chunks  [--len N] [--start S] [--count C] [--size K]
//	parslice bfs     [--depth D] [--workers W] [--checked] [--sample-rate R] [--stacks]
//	parslice repl    [--len N] [--checked]
//	parslice version [--require vX.Y.Z]
//
// Every command accepts the global flags --config <file.jsonc>,
// --log-level <debug|info|warn|error> and --out <report.json>.
package main

import (
	"io"
	"os"
	"strings"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code.
func run(args []string, in io.Reader, out, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 1
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "fill":
		return cmdFill(out, errOut, rest)
	case "chunks":
		return cmdChunks(out, errOut, rest)
	case "bfs":
		return cmdBFS(out, errOut, rest)
	case "repl":
		return cmdREPL(in, out, errOut, rest)
	case "version", "--version", "-v":
		return cmdVersion(out, errOut, rest)
	case "help", "--help", "-h":
		printUsage(out)
		return 0
	default:
		fprintln(errOut, "error: unknown command:", cmd)
		printUsage(errOut)
		return 1
	}
}

func printUsage(w io.Writer) {
	fprint(w, strings.TrimLeft(`
parslice - shared slices with tiered access contracts

USAGE:
    parslice <command> [flags]

COMMANDS:
    fill       Fill even and odd positions from two goroutines
    chunks     Copy a chunk out of a buffer of squares
    bfs        Parallel BFS distances on a complete binary tree
    repl       Interactive buffer shell
    version    Show version information
    help       Show this help message

GLOBAL FLAGS:
    --config string      JSONC config file
    --log-level string   debug, info, warn or error (default "info")
    --out string         Write a JSON run report to this file

EXAMPLES:
    parslice fill --len 10 --checked
    parslice bfs --depth 12 --workers 8 --checked --out report.json
    parslice version --require v0.1.0
`, "\n"))
}
