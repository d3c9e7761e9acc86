package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kolkov/parslice/par"
)

// RunReport is the JSON document written by --out.
type RunReport struct {
	RunID     string             `json:"run_id"`     //nolint:tagliatelle // snake_case report
	Command   string             `json:"command"`
	Version   string             `json:"version"`
	StartedAt time.Time          `json:"started_at"` //nolint:tagliatelle // snake_case report
	Duration  string             `json:"duration"`
	Config    Config             `json:"config"`
	Result    any                `json:"result,omitempty"`
	Races     []par.Report       `json:"races,omitempty"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// newRunReport stamps a report with a fresh run id.
func newRunReport(command string, cfg Config) *RunReport {
	return &RunReport{
		RunID:     uuid.NewString(),
		Command:   command,
		Version:   par.Version,
		StartedAt: time.Now().UTC(),
		Config:    cfg,
	}
}

// finish records the duration and the metrics gathered from reg, if any.
func (r *RunReport) finish(reg *prometheus.Registry) error {
	r.Duration = time.Since(r.StartedAt).String()
	if reg == nil {
		return nil
	}
	m, err := gatherMetrics(reg)
	if err != nil {
		return err
	}
	r.Metrics = m
	return nil
}

// write stores the report at path atomically: readers see either the old
// file or the complete new one.
func (r *RunReport) write(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	data = append(data, '\n')
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

// gatherMetrics flattens counters and gauges into "name{label=value}" keys.
func gatherMetrics(reg *prometheus.Registry) (map[string]float64, error) {
	families, err := reg.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	out := make(map[string]float64)
	for _, f := range families {
		for _, m := range f.GetMetric() {
			key := f.GetName()
			if labels := m.GetLabel(); len(labels) > 0 {
				pairs := make([]string, 0, len(labels))
				for _, l := range labels {
					pairs = append(pairs, l.GetName()+"="+l.GetValue())
				}
				sort.Strings(pairs)
				key += "{" + strings.Join(pairs, ",") + "}"
			}
			switch {
			case m.GetCounter() != nil:
				out[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[key] = m.GetGauge().GetValue()
			}
		}
	}
	return out, nil
}

// finishReport writes the report if the user asked for one.
func finishReport(errOut io.Writer, r *RunReport, reg *prometheus.Registry) int {
	if r.Config.Out == "" {
		return 0
	}
	if err := r.finish(reg); err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}
	if err := r.write(r.Config.Out); err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}
	return 0
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func fprintf(w io.Writer, format string, a ...any) {
	_, _ = fmt.Fprintf(w, format, a...)
}

func fprint(w io.Writer, a ...any) {
	_, _ = fmt.Fprint(w, a...)
}
