package suites

import (
	"github.com/ternarybob/cdr-admin-test/internal/harness"
	"github.com/ternarybob/cdr-admin-test/internal/testbase"
)

const testCitationTitle = "Automated Test Citation"

func citations(deps *testbase.Deps) *harness.Group {
	g := newGroup("Citations", deps)

	g.add("TestCitationSearchForm", func(b *testbase.Base) {
		form(b, "CiteSearch.py", "Citation")
		b.Check.PageHas("PMID")
	})

	g.add("TestNewCitationsReport", func(b *testbase.Base) {
		start, end := dateRange(30)
		report(b, "NewCitations.py", "New Citations Report", "start", start, "end", end)
		b.Check.SingleTableReport()
		b.Check.TablesInGridContainer()
		b.Check.FirstTable().CheckHeaders(b.H,
			"CDR ID", "Document Title", "Created By", "Creation Date", "Last Version Pub?", "PMID")
	})

	g.add("TestNonJournalArticleCitations", func(b *testbase.Base) {
		form(b, "SummariesWithNonJournalArticleCitations.py", "Summaries With Non-Journal Article Citations Report")
		b.SetChecked(testbase.OptionID("type", "Book"), true)
		b.SubmitForm(true)
		b.Check.Title("Summaries With Non-Journal Article Citations Report")
		b.Check.FirstTable().CheckHeaders(b.H,
			"Summary ID", "Summary Title", "Summary Sec Title", "Citation Type", "Citation ID", "Citation Title")
	})

	g.add("TestCitationStatusChangesForm", func(b *testbase.Base) {
		form(b, "UpdatePreMedlineCitations.py", "Citation Status Changes")
	})

	g.add("TestCitationLifecycle", func(b *testbase.Base) {
		b.RemoveLeftovers("Citation", testCitationTitle+"%")
		id := b.CreateTestCitation(testCitationTitle)
		b.NavigateTo("QcReport.py", "DocId", testbase.CanonicalID(id), "DocVersion", "-1")
		b.Check.PageHas(testCitationTitle)
		b.DeleteDoc(id, "")
	})

	return g.Group
}
