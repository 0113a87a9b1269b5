package harness

import (
	"fmt"
	"path"
	"strings"
)

// matcher selects tests by dotted name. An empty selector list selects
// everything.
type matcher struct {
	selectors []string
}

func newMatcher(selectors []string) (*matcher, error) {
	m := &matcher{}
	for _, sel := range selectors {
		sel = strings.TrimSpace(sel)
		if sel == "" {
			continue
		}
		if _, err := path.Match(sel, ""); err != nil {
			return nil, fmt.Errorf("harness: bad selector %q: %w", sel, err)
		}
		m.selectors = append(m.selectors, sel)
	}
	return m, nil
}

// fullName joins a group and test name.
func fullName(group, test string) string {
	return group + "." + test
}

// matches reports whether the test group.test is selected. A selector
// matches when it equals the group name, equals the full dotted name, or is
// a glob pattern matching the full dotted name.
func (m *matcher) matches(group, test string) bool {
	if len(m.selectors) == 0 {
		return true
	}
	name := fullName(group, test)
	for _, sel := range m.selectors {
		if sel == group || sel == name {
			return true
		}
		if ok, _ := path.Match(sel, name); ok {
			return true
		}
	}
	return false
}
