package harness

import (
	"fmt"
	"sort"
	"time"
)

// Test is a single test function.
type Test func(*H)

// Tests is a set of test functions that can be given to a Group.
type Tests map[string]Test

// Add inserts the given Test into the set, initializing Tests if needed.
// If a test with the given name already exists Add will panic.
func (ts *Tests) Add(name string, test Test) {
	if *ts == nil {
		*ts = make(Tests)
	} else if _, ok := (*ts)[name]; ok {
		panic(fmt.Errorf("harness: duplicate test %q", name))
	}
	(*ts)[name] = test
}

// List returns a sorted list of test names.
func (ts Tests) List() []string {
	names := make([]string, 0, len(ts))
	for name := range ts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Group is a named set of tests with optional hooks run once before the
// first and once after the last selected test of the group.
type Group struct {
	Name  string
	Tests Tests

	SetupGroup    func()
	TeardownGroup func(stats GroupStats)
}

// GroupStats summarizes one group's run for its teardown hook.
type GroupStats struct {
	Ran      int
	Errors   int
	Failures int
	Elapsed  time.Duration
}
