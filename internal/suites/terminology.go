package suites

import (
	"github.com/ternarybob/cdr-admin-test/internal/harness"
	"github.com/ternarybob/cdr-admin-test/internal/testbase"
)

func terminology(deps *testbase.Deps) *harness.Group {
	g := newGroup("Terminology", deps)

	g.add("TestTermSearchForm", func(b *testbase.Base) {
		form(b, "TermSearch.py", "Term")
	})

	g.add("TestTermHierarchyTree", func(b *testbase.Base) {
		b.NavigateTo("TermHierarchyTree.py")
		b.Check.Title("Term Hierarchy Tree")
		b.Check.NonTabularReport()
		b.Check.PageNotHas("Traceback")
	})

	g.add("TestDiseaseDiagnosisTerms", func(b *testbase.Base) {
		report(b, "DiseaseDiagnosisTerms.py", "CDR Cancer Diagnosis Hierarchy Report")
		b.Check.NonTabularReport()
	})

	g.add("TestInterventionAndProcedureTerms", func(b *testbase.Base) {
		report(b, "InterventionAndProcedureTerms.py", "CDR Intervention or Procedure Index Terms",
			"IncludeAlternateNames", "True")
		b.Check.NonTabularReport()
	})

	g.add("TestTermHierarchy", func(b *testbase.Base) {
		form(b, "TermHierarchy.py", "Terminology Hierarchy Display")
	})

	return g.Group
}
