package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"
	"github.com/tailscale/hujson"
)

var (
	errConfigRead    = errors.New("cannot read config file")
	errConfigInvalid = errors.New("invalid config")
)

// Config holds the settings shared by all commands. Every field can come
// from the config file; flags given on the command line win.
type Config struct {
	LogLevel   string `json:"log_level,omitempty"`   //nolint:tagliatelle // snake_case for config file
	Out        string `json:"out,omitempty"`
	Len        int    `json:"len,omitempty"`
	Depth      int    `json:"depth,omitempty"`
	Workers    int    `json:"workers,omitempty"`
	Checked    bool   `json:"checked,omitempty"`
	SampleRate uint64 `json:"sample_rate,omitempty"` //nolint:tagliatelle // snake_case for config file
	Stacks     bool   `json:"stacks,omitempty"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Len:      6,
		Depth:    8,
	}
}

// globalFlags registers the flags every command accepts.
type globalFlags struct {
	fs         *flag.FlagSet
	configPath string
	cfg        Config
}

// newFlagSet creates the flag set of a command with the global flags and
// the per-command flags selected by the caller.
func newFlagSet(name string) *globalFlags {
	g := &globalFlags{fs: flag.NewFlagSet(name, flag.ContinueOnError), cfg: DefaultConfig()}
	g.fs.SetOutput(io.Discard)

	g.fs.StringVar(&g.configPath, "config", "", "JSONC config file")
	g.fs.StringVar(&g.cfg.LogLevel, "log-level", g.cfg.LogLevel, "debug, info, warn or error")
	g.fs.StringVar(&g.cfg.Out, "out", "", "write a JSON run report to this file")
	return g
}

func (g *globalFlags) lenFlag() {
	g.fs.IntVar(&g.cfg.Len, "len", g.cfg.Len, "buffer length")
}

func (g *globalFlags) checkedFlags() {
	g.fs.BoolVar(&g.cfg.Checked, "checked", false, "run under the race-checking mode")
	g.fs.Uint64Var(&g.cfg.SampleRate, "sample-rate", 0, "record one in N checked accesses")
	g.fs.BoolVar(&g.cfg.Stacks, "stacks", false, "capture stacks on every checked access")
}

// parse parses args, then loads the config file and applies every value
// not explicitly set by a flag.
func (g *globalFlags) parse(args []string) (Config, error) {
	if err := g.fs.Parse(args); err != nil {
		return Config{}, err
	}
	if g.configPath == "" {
		return g.cfg, validateConfig(g.cfg)
	}

	fileCfg, err := loadConfigFile(g.configPath)
	if err != nil {
		return Config{}, err
	}
	cfg := mergeConfig(g.cfg, fileCfg, g.fs.Changed)
	return cfg, validateConfig(cfg)
}

func loadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s: %w", errConfigRead, path, err)
	}
	cfg, err := parseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}
	return cfg, nil
}

func parseConfig(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return cfg, nil
}

// mergeConfig overlays file values on flags, except for flags the user set.
func mergeConfig(flags, file Config, changed func(name string) bool) Config {
	out := flags
	if file.LogLevel != "" && !changed("log-level") {
		out.LogLevel = file.LogLevel
	}
	if file.Out != "" && !changed("out") {
		out.Out = file.Out
	}
	if file.Len != 0 && !changed("len") {
		out.Len = file.Len
	}
	if file.Depth != 0 && !changed("depth") {
		out.Depth = file.Depth
	}
	if file.Workers != 0 && !changed("workers") {
		out.Workers = file.Workers
	}
	if file.Checked && !changed("checked") {
		out.Checked = true
	}
	if file.SampleRate != 0 && !changed("sample-rate") {
		out.SampleRate = file.SampleRate
	}
	if file.Stacks && !changed("stacks") {
		out.Stacks = true
	}
	return out
}

func validateConfig(cfg Config) error {
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return err
	}
	if cfg.Len < 0 {
		return fmt.Errorf("%w: len %d must not be negative", errConfigInvalid, cfg.Len)
	}
	if cfg.Depth < 1 || cfg.Depth > 24 {
		return fmt.Errorf("%w: depth %d not in [1, 24]", errConfigInvalid, cfg.Depth)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("%w: workers %d must not be negative", errConfigInvalid, cfg.Workers)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", errConfigInvalid, s)
	}
	return level, nil
}

// newLogger returns a text logger on w at the configured level.
func newLogger(w io.Writer, cfg Config) *slog.Logger {
	level, _ := parseLevel(cfg.LogLevel)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
