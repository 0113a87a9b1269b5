// Package suites holds the regression tests for the CDR admin pages,
// one harness group per area of the admin menus.
package suites

import (
	"time"

	"github.com/ternarybob/cdr-admin-test/internal/harness"
	"github.com/ternarybob/cdr-admin-test/internal/pagecheck"
	"github.com/ternarybob/cdr-admin-test/internal/testbase"
)

// group collects tests that each get a fresh Base.
type group struct {
	*harness.Group
	deps *testbase.Deps
}

func newGroup(name string, deps *testbase.Deps) *group {
	logger := deps.Logger
	return &group{
		Group: &harness.Group{
			Name:  name,
			Tests: harness.Tests{},
			TeardownGroup: func(stats harness.GroupStats) {
				logger.Info().
					Str("suite", name).
					Int("ran", stats.Ran).
					Int("errors", stats.Errors).
					Int("failures", stats.Failures).
					Msg("Suite results")
			},
		},
		deps: deps,
	}
}

func (g *group) add(name string, fn func(b *testbase.Base)) {
	deps := g.deps
	g.Tests.Add(name, func(h *harness.H) {
		fn(testbase.New(h, deps))
	})
}

// All returns every test group.
func All(deps *testbase.Deps) []*harness.Group {
	return []*harness.Group{
		citations(deps),
		developer(deps),
		drugs(deps),
		general(deps),
		glossary(deps),
		management(deps),
		media(deps),
		publishing(deps),
		summaries(deps),
		terminology(deps),
	}
}

// report runs a report script directly with the given parameters and
// checks its title.
func report(b *testbase.Base, script, title string, pairs ...string) {
	b.NavigateTo(script, append([]string{"Request", "Submit"}, pairs...)...)
	b.Check.Title(title)
	b.Check.PageNotHas("Traceback")
}

// form opens a script's request form and checks that it is a framework
// page with no report tables.
func form(b *testbase.Base, script, title string) {
	b.NavigateTo(script)
	b.Check.Title(title)
	b.Check.PageHas(pagecheck.USWDSMarker)
	b.Check.NonTabularReport()
}

// dateRange returns start and end dates covering the last days days.
func dateRange(days int) (string, string) {
	end := time.Now()
	start := end.AddDate(0, 0, -days)
	return start.Format(time.DateOnly), end.Format(time.DateOnly)
}
