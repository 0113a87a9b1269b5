package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSuite(t *testing.T, out *bytes.Buffer, match []string, groups ...*Group) *Suite {
	t.Helper()
	return NewSuite(Options{
		OutputDir: t.TempDir(),
		Match:     match,
		Out:       out,
		Verbose:   true,
	}, groups...)
}

func TestSuite_CountsOutcomes(t *testing.T) {
	var group Group
	group.Name = "Mixed"
	group.Tests.Add("TestPass", func(h *H) {})
	group.Tests.Add("TestSkip", func(h *H) { h.Skip("account missing") })
	group.Tests.Add("TestFail", func(h *H) { h.Errorf("expected %q", "Media Lists") })
	group.Tests.Add("TestFatal", func(h *H) { h.Fatalf("stop here") })
	group.Tests.Add("TestAbort", func(h *H) { h.Abort(errors.New("browser not installed")) })
	group.Tests.Add("TestPanic", func(h *H) { panic("boom") })

	var out bytes.Buffer
	suite := newTestSuite(t, &out, nil, &group)
	err := suite.Run(context.Background())
	require.ErrorIs(t, err, ErrSuiteFailed)

	c := suite.Result().Counters()
	assert.Equal(t, 2, c.Successes)
	assert.Equal(t, 2, c.Errors)
	assert.Equal(t, 2, c.Failures)
	assert.Equal(t, 6, c.Run())
	assert.Equal(t, "succeeded=2 errors=2 failures=2", c.Summary())

	text := out.String()
	assert.Contains(t, text, "=== RUN   Mixed.TestPass")
	assert.Contains(t, text, "--- PASS: Mixed.TestPass")
	assert.Contains(t, text, "--- SKIP: Mixed.TestSkip")
	assert.Contains(t, text, "--- FAIL: Mixed.TestFail")
	assert.Contains(t, text, "--- ERROR: Mixed.TestAbort")
	assert.Contains(t, text, "--- ERROR: Mixed.TestPanic")
	assert.Contains(t, text, "browser not installed")
}

func TestSuite_AllPassed(t *testing.T) {
	var group Group
	group.Name = "Good"
	group.Tests.Add("TestA", func(h *H) {})
	group.Tests.Add("TestB", func(h *H) { h.Log("fine") })

	var out bytes.Buffer
	suite := newTestSuite(t, &out, nil, &group)
	require.NoError(t, suite.Run(context.Background()))
	assert.Equal(t, "all 2 tests passed", suite.Result().Counters().Summary())
}

func TestSuite_Empty(t *testing.T) {
	var group Group
	group.Name = "Media"
	group.Tests.Add("TestMediaLists", func(h *H) {})

	var out bytes.Buffer
	suite := newTestSuite(t, &out, []string{"Glossary"}, &group)
	assert.ErrorIs(t, suite.Run(context.Background()), ErrSuiteEmpty)
}

func TestSuite_OrderAndHooks(t *testing.T) {
	var order []string
	record := func(name string) Test {
		return func(h *H) { order = append(order, name) }
	}

	var stats GroupStats
	b := &Group{Name: "B"}
	b.Tests.Add("TestTwo", record("B.TestTwo"))
	b.Tests.Add("TestOne", record("B.TestOne"))
	b.SetupGroup = func() { order = append(order, "setup B") }
	b.TeardownGroup = func(s GroupStats) {
		stats = s
		order = append(order, "teardown B")
	}
	a := &Group{Name: "A"}
	a.Tests.Add("TestOnly", func(h *H) {
		order = append(order, "A.TestOnly")
		h.Fail()
	})

	var out bytes.Buffer
	suite := newTestSuite(t, &out, nil, b, a)
	require.ErrorIs(t, suite.Run(context.Background()), ErrSuiteFailed)

	assert.Equal(t, []string{
		"A.TestOnly",
		"setup B",
		"B.TestOne",
		"B.TestTwo",
		"teardown B",
	}, order)
	assert.Equal(t, 2, stats.Ran)
	assert.Equal(t, 0, stats.Failures)
}

func TestH_CleanupRunsLIFOAfterFailure(t *testing.T) {
	var order []string
	var group Group
	group.Name = "Cleanup"
	group.Tests.Add("TestCleanup", func(h *H) {
		h.Cleanup(func() { order = append(order, "close browser") })
		h.Cleanup(func() { order = append(order, "remove temp file") })
		h.FailNow()
		order = append(order, "unreachable")
	})
	group.Tests.Add("TestPanicCleanup", func(h *H) {
		h.Cleanup(func() { order = append(order, "after panic") })
		panic("driver exploded")
	})

	var out bytes.Buffer
	suite := newTestSuite(t, &out, nil, &group)
	_ = suite.Run(context.Background())

	assert.Equal(t, []string{"remove temp file", "close browser", "after panic"}, order)
}

func TestH_PanicInCleanupIsError(t *testing.T) {
	var group Group
	group.Name = "Cleanup"
	group.Tests.Add("TestBadCleanup", func(h *H) {
		h.Cleanup(func() { panic("quit failed") })
	})

	var out bytes.Buffer
	suite := newTestSuite(t, &out, nil, &group)
	require.ErrorIs(t, suite.Run(context.Background()), ErrSuiteFailed)
	assert.Equal(t, 1, suite.Result().Counters().Errors)
}

func TestH_ContextCancelledAfterRun(t *testing.T) {
	var ctx context.Context
	var group Group
	group.Name = "Ctx"
	group.Tests.Add("TestCtx", func(h *H) { ctx = h.Context() })

	var out bytes.Buffer
	suite := newTestSuite(t, &out, nil, &group)
	require.NoError(t, suite.Run(context.Background()))
	require.NotNil(t, ctx)
	assert.Error(t, ctx.Err())
}

func TestH_TestifyFailureIsFailure(t *testing.T) {
	var group Group
	group.Name = "Testify"
	group.Tests.Add("TestRequire", func(h *H) {
		require.Equal(h, "success", "error")
	})
	group.Tests.Add("TestAssert", func(h *H) {
		assert.Contains(h, "Mapping deleted", "Mapping to CDR")
	})

	var out bytes.Buffer
	suite := newTestSuite(t, &out, nil, &group)
	require.ErrorIs(t, suite.Run(context.Background()), ErrSuiteFailed)
	c := suite.Result().Counters()
	assert.Equal(t, 2, c.Failures)
	assert.Equal(t, 0, c.Errors)
}

func TestSuite_PanicWritesCrashFile(t *testing.T) {
	var group Group
	group.Name = "Crash"
	group.Tests.Add("TestPanic", func(h *H) { panic("nil page") })

	dir := t.TempDir()
	var out bytes.Buffer
	suite := NewSuite(Options{OutputDir: dir, Out: &out}, &group)
	require.ErrorIs(t, suite.Run(context.Background()), ErrSuiteFailed)

	matches, err := filepath.Glob(filepath.Join(dir, "crash-Crash.TestPanic-*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "nil page")
}

func TestSuite_QuietHidesPasses(t *testing.T) {
	var group Group
	group.Name = "Quiet"
	group.Tests.Add("TestPass", func(h *H) { h.Log("hidden") })
	group.Tests.Add("TestFail", func(h *H) { h.Error("shown") })

	var out bytes.Buffer
	suite := NewSuite(Options{OutputDir: t.TempDir(), Out: &out}, &group)
	_ = suite.Run(context.Background())

	text := out.String()
	assert.NotContains(t, text, "=== RUN")
	assert.NotContains(t, text, "hidden")
	assert.Contains(t, text, "--- FAIL: Quiet.TestFail")
	assert.Contains(t, text, "    shown")
}

func TestJSONReporter(t *testing.T) {
	var group Group
	group.Name = "Report"
	group.Tests.Add("TestPass", func(h *H) {})
	group.Tests.Add("TestFail", func(h *H) { h.Fail() })

	dir := t.TempDir()
	var out bytes.Buffer
	suite := NewSuite(Options{
		OutputDir: dir,
		Out:       &out,
		Reporters: Reporters{NewJSONReporter("report.json", "run_1", "dev")},
	}, &group)
	_ = suite.Run(context.Background())

	data, err := os.ReadFile(filepath.Join(dir, "report.json"))
	require.NoError(t, err)

	var report struct {
		Tests []struct {
			Name     string        `json:"name"`
			Result   Outcome       `json:"result"`
			Duration time.Duration `json:"duration"`
		} `json:"tests"`
		Result  Counters `json:"result"`
		Summary string   `json:"summary"`
		RunID   string   `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal(data, &report))
	require.Len(t, report.Tests, 2)
	assert.Equal(t, "Report.TestFail", report.Tests[0].Name)
	assert.Equal(t, Failed, report.Tests[0].Result)
	assert.Equal(t, Passed, report.Tests[1].Result)
	assert.Equal(t, Counters{Successes: 1, Failures: 1}, report.Result)
	assert.Equal(t, "succeeded=1 errors=0 failures=1", report.Summary)
	assert.Equal(t, "run_1", report.RunID)
}

func TestMatcher(t *testing.T) {
	tests := []struct {
		name      string
		selectors []string
		group     string
		test      string
		want      bool
	}{
		{"empty selects all", nil, "Media", "TestMediaLists", true},
		{"group name", []string{"Media"}, "Media", "TestMediaLists", true},
		{"other group", []string{"Glossary"}, "Media", "TestMediaLists", false},
		{"full name", []string{"Media.TestMediaLists"}, "Media", "TestMediaLists", true},
		{"full name mismatch", []string{"Media.TestOther"}, "Media", "TestMediaLists", false},
		{"glob", []string{"Glossary.*Audio*"}, "Glossary", "TestAudioReviewReport", true},
		{"glob mismatch", []string{"Glossary.*Audio*"}, "Glossary", "TestPhrases", false},
		{"group prefix is not a match", []string{"Med"}, "Media", "TestMediaLists", false},
		{"any of several", []string{"Drugs", "Media"}, "Media", "TestMediaLists", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := newMatcher(tt.selectors)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.matches(tt.group, tt.test))
		})
	}
}

func TestMatcher_BadPattern(t *testing.T) {
	_, err := newMatcher([]string{"Media.[Test"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "bad selector"))
}

func TestTests_AddDuplicatePanics(t *testing.T) {
	var ts Tests
	ts.Add("TestA", func(h *H) {})
	assert.Panics(t, func() { ts.Add("TestA", func(h *H) {}) })
	assert.Equal(t, []string{"TestA"}, ts.List())
}
