package harness

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Outcome is how a single test ended.
type Outcome string

const (
	Passed  Outcome = "PASS"
	Skipped Outcome = "SKIP"
	Failed  Outcome = "FAIL"
	Errored Outcome = "ERROR"
)

// Label returns the outcome as printed on the "---" result line.
func (o Outcome) Label() string {
	return string(o)
}

// Counters holds the process-wide totals. Only the suite updates them, one
// test at a time.
type Counters struct {
	Successes int `json:"successes"`
	Errors    int `json:"errors"`
	Failures  int `json:"failures"`
}

// Run is the number of tests that have been counted.
func (c Counters) Run() int {
	return c.Successes + c.Errors + c.Failures
}

// Summary is the end-of-run line.
func (c Counters) Summary() string {
	if c.Errors == 0 && c.Failures == 0 {
		return fmt.Sprintf("all %d tests passed", c.Successes)
	}
	return fmt.Sprintf("succeeded=%d errors=%d failures=%d", c.Successes, c.Errors, c.Failures)
}

// Result aggregates test outcomes. A skipped test counts as a success.
type Result struct {
	mu       sync.Mutex
	counters Counters
}

// AddSuccess increments the success counter.
func (r *Result) AddSuccess() {
	r.mu.Lock()
	r.counters.Successes++
	r.mu.Unlock()
}

// AddError increments the error counter.
func (r *Result) AddError() {
	r.mu.Lock()
	r.counters.Errors++
	r.mu.Unlock()
}

// AddFailure increments the failure counter.
func (r *Result) AddFailure() {
	r.mu.Lock()
	r.counters.Failures++
	r.mu.Unlock()
}

// Add counts one outcome.
func (r *Result) Add(o Outcome) {
	switch o {
	case Errored:
		r.AddError()
	case Failed:
		r.AddFailure()
	default:
		r.AddSuccess()
	}
}

// Counters returns a snapshot of the totals.
func (r *Result) Counters() Counters {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters
}

// WasSuccessful reports whether no test errored or failed.
func (r *Result) WasSuccessful() bool {
	c := r.Counters()
	return c.Errors == 0 && c.Failures == 0
}

// Reporter receives every finished test and writes a report at the end of
// the run.
type Reporter interface {
	ReportTest(name string, outcome Outcome, duration time.Duration, output []byte)
	SetResult(counters Counters)
	Output(dir string) error
}

// Reporters fans calls out to several reporters.
type Reporters []Reporter

func (reps Reporters) ReportTest(name string, outcome Outcome, duration time.Duration, output []byte) {
	for _, r := range reps {
		r.ReportTest(name, outcome, duration, output)
	}
}

func (reps Reporters) SetResult(counters Counters) {
	for _, r := range reps {
		r.SetResult(counters)
	}
}

func (reps Reporters) Output(dir string) error {
	for _, r := range reps {
		if err := r.Output(dir); err != nil {
			return err
		}
	}
	return nil
}

type jsonReporter struct {
	Tests    []jsonTest `json:"tests"`
	Result   Counters   `json:"result"`
	Summary  string     `json:"summary"`
	RunID    string     `json:"run_id"`
	Version  string     `json:"version"`
	filename string

	mutex sync.Mutex
}

type jsonTest struct {
	Name     string        `json:"name"`
	Result   Outcome       `json:"result"`
	Duration time.Duration `json:"duration"`
	Output   string        `json:"output"`
}

// NewJSONReporter returns a Reporter that writes every test result and the
// final counters to filename inside the output directory.
func NewJSONReporter(filename, runID, version string) Reporter {
	return &jsonReporter{
		filename: filename,
		RunID:    runID,
		Version:  version,
	}
}

func (r *jsonReporter) ReportTest(name string, outcome Outcome, duration time.Duration, output []byte) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.Tests = append(r.Tests, jsonTest{
		Name:     name,
		Result:   outcome,
		Duration: duration,
		Output:   string(output),
	})
}

func (r *jsonReporter) SetResult(counters Counters) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.Result = counters
	r.Summary = counters.Summary()
}

func (r *jsonReporter) Output(dir string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, r.filename))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
