package suites

import (
	"github.com/ternarybob/cdr-admin-test/internal/harness"
	"github.com/ternarybob/cdr-admin-test/internal/testbase"
)

const testMediaTitle = "Automated Test Media Document"

func media(deps *testbase.Deps) *harness.Group {
	g := newGroup("Media", deps)

	g.add("TestMediaLists", func(b *testbase.Base) {
		report(b, "MediaLists.py", "Media Lists",
			"diagnosis", "all",
			"category", "all",
			"options", "show_id",
			"language", "en",
		)
		b.Check.SingleTableReport()
		b.Check.TablesInGridContainer()
		table := b.Check.FirstTable()
		table.CheckHeaders(b.H, "Doc ID", "Doc Title")
		if len(table.Rows()) == 0 {
			b.H.Fatalf("media list is empty")
		}
	})

	g.add("TestMediaKeywordSearch", func(b *testbase.Base) {
		report(b, "MediaKeywordSearchReport.py", "Media Keyword Search Report", "term", "cancer")
		b.Check.FirstTable().CheckHeaders(b.H, "CDR ID", "Title", "Terms")
	})

	g.add("TestImageProcessingStatus", func(b *testbase.Base) {
		start, end := dateRange(365)
		report(b, "ImageMediaProcessingStatusReport.py", "Media (Images) Processing Status Report",
			"start", start, "end", end)
		b.Check.FirstTable().CheckHeaders(b.H,
			"CDR ID", "Media Title", "Diagnosis", "Processing Status", "Processing Status Date")
	})

	g.add("TestMediaPermissionsForm", func(b *testbase.Base) {
		form(b, "MediaPermissionsReport.py", "Media Permissions Report")
	})

	g.add("TestMediaCaptionContentForm", func(b *testbase.Base) {
		form(b, "MediaCaptionContent.py", "Media Caption and Content Report")
	})

	g.add("TestMediaInSummaryForm", func(b *testbase.Base) {
		form(b, "MediaInSummary.py", "Media in Summary Report")
	})

	g.add("TestPublishedMediaForm", func(b *testbase.Base) {
		form(b, "PublishedMediaDocuments.py", "Media Doc Publishing Report")
	})

	g.add("TestMediaLifecycle", func(b *testbase.Base) {
		b.RemoveLeftovers("Media", testMediaTitle+"%")
		id := b.CreateTestMediaDoc(testMediaTitle)
		b.NavigateTo("QcReport.py", "DocId", testbase.CanonicalID(id), "DocVersion", "-1")
		b.Check.PageHas(testMediaTitle)
		b.DeleteDoc(id, "")
	})

	return g.Group
}
