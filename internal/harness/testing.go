package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

// H is a type passed to Test functions to manage test state and support
// formatted test logs. Logs are accumulated during execution and dumped to
// the suite's writer when the test finishes with a failure or error, or
// always when the suite is verbose.
//
// A test ends when its Test function returns or calls any of the methods
// FailNow, Fatal, Fatalf, SkipNow, Skip, Skipf or Abort. Those methods must
// be called only from the goroutine running the Test function.
type H struct {
	mu       sync.RWMutex // guards output, failed, errored, skipped and done.
	output   bytes.Buffer // Output generated by test.
	ctx      context.Context
	cancel   context.CancelFunc
	chatty   bool // A copy of the verbose option.
	failed   bool // Test has failed.
	errored  bool // Test could not run to completion.
	skipped  bool // Test has been skipped.
	done     bool // Test and its cleanups have completed.
	err      error
	name     string    // Full dotted name of test.
	start    time.Time // Time test started
	duration time.Duration

	cleanups  []func()
	outputDir string
}

func newH(parent context.Context, name string, chatty bool, outputDir string) *H {
	h := &H{
		name:      name,
		chatty:    chatty,
		outputDir: outputDir,
	}
	h.ctx, h.cancel = context.WithCancel(parent)
	return h
}

// Name returns the dotted name of the running test, e.g. "Media.TestMediaLists".
func (h *H) Name() string {
	return h.name
}

// Context returns the context for the current test.
// The context is cancelled when the test and its cleanups finish.
func (h *H) Context() context.Context {
	return h.ctx
}

// Verbose reports whether the suite runs in verbose mode.
func (h *H) Verbose() bool {
	return h.chatty
}

// OutputDir is where the test may write artifacts such as screenshots.
func (h *H) OutputDir() string {
	return h.outputDir
}

// Helper is a no-op kept so testify can call it.
func (h *H) Helper() {}

// Fail marks the function as having failed but continues execution.
func (h *H) Fail() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done {
		panic("Fail in goroutine after " + h.name + " has completed")
	}
	h.failed = true
}

// Failed reports whether the function has failed.
func (h *H) Failed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.failed
}

// FailNow marks the function as having failed and stops its execution.
// Execution will continue at the next test (after this test's cleanups).
func (h *H) FailNow() {
	h.Fail()
	runtime.Goexit()
}

// Abort records err as an error (not a failure) and stops the test.
// Use it when a precondition is missing and the test cannot proceed.
func (h *H) Abort(err error) {
	h.log(fmt.Sprintf("error: %v", err))
	h.setError(err)
	runtime.Goexit()
}

// Errored reports whether the test ended with an error.
func (h *H) Errored() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.errored
}

// Err returns the error recorded by Abort or a panic, if any.
func (h *H) Err() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.err
}

func (h *H) setError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errored = true
	if h.err == nil {
		h.err = err
	}
}

// log generates the output.
func (h *H) log(s string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	for _, line := range strings.SplitAfter(s, "\n") {
		if line == "" {
			continue
		}
		h.output.WriteString("    ")
		h.output.WriteString(line)
	}
}

// Log formats its arguments using default formatting, analogous to Println,
// and records the text in the test log.
func (h *H) Log(args ...interface{}) { h.log(fmt.Sprintln(args...)) }

// Logf formats its arguments according to the format, analogous to Printf,
// and records the text in the test log.
func (h *H) Logf(format string, args ...interface{}) { h.log(fmt.Sprintf(format, args...)) }

// Error is equivalent to Log followed by Fail.
func (h *H) Error(args ...interface{}) {
	h.log(fmt.Sprintln(args...))
	h.Fail()
}

// Errorf is equivalent to Logf followed by Fail.
func (h *H) Errorf(format string, args ...interface{}) {
	h.log(fmt.Sprintf(format, args...))
	h.Fail()
}

// Fatal is equivalent to Log followed by FailNow.
func (h *H) Fatal(args ...interface{}) {
	h.log(fmt.Sprintln(args...))
	h.FailNow()
}

// Fatalf is equivalent to Logf followed by FailNow.
func (h *H) Fatalf(format string, args ...interface{}) {
	h.log(fmt.Sprintf(format, args...))
	h.FailNow()
}

// Skip is equivalent to Log followed by SkipNow.
func (h *H) Skip(args ...interface{}) {
	h.log(fmt.Sprintln(args...))
	h.SkipNow()
}

// Skipf is equivalent to Logf followed by SkipNow.
func (h *H) Skipf(format string, args ...interface{}) {
	h.log(fmt.Sprintf(format, args...))
	h.SkipNow()
}

// SkipNow marks the test as having been skipped and stops its execution.
// If a test fails and is then skipped, it is still considered to have failed.
func (h *H) SkipNow() {
	h.mu.Lock()
	h.skipped = true
	h.mu.Unlock()
	runtime.Goexit()
}

// Skipped reports whether the test was skipped.
func (h *H) Skipped() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.skipped
}

// Cleanup registers a function to be called when the test completes,
// whether it returned, failed, was aborted or panicked. Cleanups run in
// last added, first called order.
func (h *H) Cleanup(f func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cleanups = append(h.cleanups, f)
}

// Duration is the wall time the test and its cleanups took.
func (h *H) Duration() time.Duration {
	return h.duration
}

// Output returns the accumulated test log.
func (h *H) Output() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]byte(nil), h.output.Bytes()...)
}

// outcome classifies the finished test. Errors take precedence over
// failures; a skipped test that did not fail counts as a success.
func (h *H) outcome() Outcome {
	switch {
	case h.Errored():
		return Errored
	case h.Failed():
		return Failed
	case h.Skipped():
		return Skipped
	default:
		return Passed
	}
}

// protect runs f on its own goroutine so that runtime.Goexit (FailNow,
// SkipNow, Abort) and panics end only f. A panic is recorded as an error.
func (h *H) protect(f func(*H)) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				h.log(fmt.Sprintf("panic: %v\n%s", r, stack))
				h.setError(&PanicError{Value: r, Stack: stack})
			}
		}()
		f(h)
	}()
	<-done
}

// run executes the test function followed by its cleanups.
func (h *H) run(fn Test) {
	h.start = time.Now()
	h.protect(fn)

	h.mu.Lock()
	cleanups := h.cleanups
	h.cleanups = nil
	h.mu.Unlock()
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanup := cleanups[i]
		h.protect(func(*H) { cleanup() })
	}

	h.duration = time.Since(h.start)
	h.cancel()
	h.mu.Lock()
	h.done = true
	h.mu.Unlock()
}

// report writes the result line and, when warranted, the test log.
func (h *H) report(w io.Writer) {
	outcome := h.outcome()
	format := "--- %s: %s (%s)\n"
	dstr := fmtDuration(h.duration)
	if outcome == Errored || outcome == Failed || h.chatty {
		fmt.Fprintf(w, format, outcome.Label(), h.name, dstr)
		h.mu.RLock()
		w.Write(h.output.Bytes())
		h.mu.RUnlock()
	}
}

// fmtDuration returns a string representing d in the form "87.00s".
func fmtDuration(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// PanicError is recorded when a test function panics.
type PanicError struct {
	Value interface{}
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
