package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/cdr-admin-test/internal/common"
)

const (
	defaultOutputDir = "test-results"
)

var (
	ErrSuiteEmpty  = errors.New("harness: no tests to run")
	ErrSuiteFailed = errors.New("harness: test suite failed")
)

// Options
type Options struct {
	// Directory for reports, crash files and per-test artifacts.
	OutputDir string

	// Report as tests are run; default is silent for success.
	Verbose bool

	// Run only tests matching these dotted selectors.
	Match []string

	// Where "=== RUN" and "--- PASS" lines go. Defaults to os.Stdout.
	Out io.Writer

	Logger    arbor.ILogger
	Reporters Reporters
}

// init fills in any default values that shouldn't be the zero value.
func (o *Options) init() {
	if o.OutputDir == "" {
		o.OutputDir = defaultOutputDir
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.Logger == nil {
		o.Logger = arbor.NewNoOpLogger()
	}
}

// Suite manages the sequential execution of a set of test groups.
type Suite struct {
	opts   Options
	groups []*Group
	result Result
}

// NewSuite creates a new test suite.
// All parameters in Options cannot be modified once given to Suite.
func NewSuite(opts Options, groups ...*Group) *Suite {
	opts.init()
	return &Suite{
		opts:   opts,
		groups: groups,
	}
}

// Result returns the aggregated counters for the run.
func (s *Suite) Result() *Result {
	return &s.result
}

// Run runs the selected tests of every group, ordered by group name and then
// test name. Returns ErrSuiteEmpty when no test matched and ErrSuiteFailed
// when any test failed or errored.
func (s *Suite) Run(ctx context.Context) (err error) {
	m, err := newMatcher(s.opts.Match)
	if err != nil {
		return err
	}

	defer func() {
		s.opts.Reporters.SetResult(s.result.Counters())
		if reportErr := s.opts.Reporters.Output(s.opts.OutputDir); reportErr != nil && err == nil {
			err = reportErr
		}
	}()

	groups := append([]*Group(nil), s.groups...)
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })

	ran := 0
	for _, g := range groups {
		var selected []string
		for _, name := range g.Tests.List() {
			if m.matches(g.Name, name) {
				selected = append(selected, name)
			}
		}
		if len(selected) == 0 {
			continue
		}
		ran += len(selected)
		s.runGroup(ctx, g, selected)
	}

	if ran == 0 {
		return ErrSuiteEmpty
	}
	if !s.result.WasSuccessful() {
		return ErrSuiteFailed
	}
	return nil
}

func (s *Suite) runGroup(ctx context.Context, g *Group, names []string) {
	logger := s.opts.Logger
	logger.Info().Str("suite", g.Name).Int("tests", len(names)).Msg("Suite started")
	start := time.Now()
	before := s.result.Counters()

	if g.SetupGroup != nil {
		g.SetupGroup()
	}

	for _, name := range names {
		s.runTest(ctx, fullName(g.Name, name), g.Tests[name])
	}

	after := s.result.Counters()
	stats := GroupStats{
		Ran:      after.Run() - before.Run(),
		Errors:   after.Errors - before.Errors,
		Failures: after.Failures - before.Failures,
		Elapsed:  time.Since(start),
	}
	if g.TeardownGroup != nil {
		g.TeardownGroup(stats)
	}

	logger.Info().Str("suite", g.Name).Dur("elapsed", stats.Elapsed).Msgf("Suite finished in %.3f seconds", stats.Elapsed.Seconds())
	if stats.Errors > 0 || stats.Failures > 0 {
		logger.Warn().
			Int("successes", after.Successes).
			Int("errors", after.Errors).
			Int("failures", after.Failures).
			Msg("Interim counters")
	}
}

func (s *Suite) runTest(ctx context.Context, name string, fn Test) {
	if s.opts.Verbose {
		fmt.Fprintf(s.opts.Out, "=== RUN   %s\n", name)
	}

	h := newH(ctx, name, s.opts.Verbose, s.opts.OutputDir)
	h.run(fn)

	var perr *PanicError
	if errors.As(h.Err(), &perr) {
		if path := common.WriteCrashFile(s.opts.OutputDir, name, perr.Value, perr.Stack); path != "" {
			h.Logf("crash report written to %s", path)
		}
	}

	outcome := h.outcome()
	s.result.Add(outcome)
	h.report(s.opts.Out)
	s.opts.Reporters.ReportTest(name, outcome, h.duration, h.Output())

	logger := s.opts.Logger
	switch outcome {
	case Errored:
		logger.Error().Err(h.Err()).Str("test", name).Dur("elapsed", h.duration).Msg("Test errored")
	case Failed:
		logger.Warn().Str("test", name).Dur("elapsed", h.duration).Msg("Test failed")
	default:
		logger.Info().Str("test", name).Str("outcome", string(outcome)).Dur("elapsed", h.duration).Msg("Test finished")
	}
}
