package suites

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/cdr-admin-test/internal/common"
	"github.com/ternarybob/cdr-admin-test/internal/harness"
	"github.com/ternarybob/cdr-admin-test/internal/services/testdata"
	"github.com/ternarybob/cdr-admin-test/internal/testbase"
)

func testDeps(t *testing.T) *testbase.Deps {
	t.Helper()
	config := common.NewDefaultConfig()
	config.Session = "test-session"
	return testbase.NewDeps(config, arbor.NewNoOpLogger(), t.TempDir())
}

func TestAll(t *testing.T) {
	groups := All(testDeps(t))

	var names []string
	seen := map[string]bool{}
	for _, g := range groups {
		names = append(names, g.Name)
		assert.NotEmpty(t, g.Tests, "group %s", g.Name)
		for _, name := range g.Tests.List() {
			assert.True(t, strings.HasPrefix(name, "Test"), "%s/%s", g.Name, name)
			assert.False(t, seen[name], "duplicate test %s", name)
			seen[name] = true
		}
	}
	assert.Equal(t, []string{
		"Citations", "Developer", "Drugs", "General", "Glossary",
		"Management", "Media", "Publishing", "Summaries", "Terminology",
	}, names)
}

func TestScenarioTestsRegistered(t *testing.T) {
	tests := map[string]string{}
	for _, g := range All(testDeps(t)) {
		for _, name := range g.Tests.List() {
			tests[name] = g.Name
		}
	}
	for name, group := range map[string]string{
		"TestCreateVersionDelete":      "Summaries",
		"TestExternalMappingLifecycle": "Glossary",
		"TestNewTabDetection":          "General",
		"TestSummaryMailerWorkbook":    "Summaries",
		"TestAdHocQuery":               "Developer",
		"TestPermissions":              "Management",
	} {
		assert.Equal(t, group, tests[name], name)
	}
}

func TestDateRange(t *testing.T) {
	start, end := dateRange(30)
	require.Len(t, start, len("2006-01-02"))
	require.Len(t, end, len("2006-01-02"))
	assert.Less(t, start, end)
}

func TestSortedFold(t *testing.T) {
	assert.True(t, sortedFold(nil))
	assert.True(t, sortedFold([]string{"adams", "Baker", "baker", "Clark"}))
	assert.False(t, sortedFold([]string{"Baker", "adams"}))
	assert.False(t, sortedFold([]string{"Zinc Summary", "Adult Summary"}))
}

func TestDistinct(t *testing.T) {
	assert.Equal(t, 0, distinct(nil))
	assert.Equal(t, 2, distinct([]string{"A", "a", "b"}))
}

func TestCurrentBoard(t *testing.T) {
	boards := []testdata.Board{{ID: 1, Name: "Old"}, {ID: 2, Name: "Now", Current: true}}
	assert.Equal(t, 2, currentBoard(boards).ID)
	assert.Equal(t, 1, currentBoard(boards[:1]).ID)
}

func TestPermissionQueries(t *testing.T) {
	assert.Equal(t, "SELECT id FROM action WHERE name = 'AUTOMATED TEST ACTION'", actionQuery(testActionName))
	assert.Equal(t, "SELECT id FROM grp WHERE name = 'O''Brien'", groupQuery("O'Brien"))
	assert.Contains(t, membershipQuery(testUserName, testGroupName), "u.name = 'Automated Test User'")
	assert.Contains(t, membershipQuery(testUserName, testGroupName), "g.name = 'Automated Test Group'")
	assert.Contains(t, grantQuery(testGroupName, testActionName), "JOIN grp_action p ON p.grp = g.id")
}

func TestGroupTeardownLogs(t *testing.T) {
	g := newGroup("Example", testDeps(t))
	require.NotNil(t, g.TeardownGroup)
	assert.NotPanics(t, func() {
		g.TeardownGroup(harness.GroupStats{Ran: 2, Failures: 1})
	})
}
