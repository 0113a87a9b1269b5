package suites

import (
	"slices"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/cdr-admin-test/internal/harness"
	"github.com/ternarybob/cdr-admin-test/internal/pagecheck"
	"github.com/ternarybob/cdr-admin-test/internal/testbase"
)

func general(deps *testbase.Deps) *harness.Group {
	g := newGroup("General", deps)

	g.add("TestNewTabDetection", func(b *testbase.Base) {
		before := b.Browser.OpenTabs()
		form(b, "UnchangedDocs.py", "Unchanged Documents")
		b.SetField("days", "3650")
		handle := b.SubmitForm(true)

		require.NotEmpty(b.H, handle)
		assert.NotContains(b.H, before, handle)
		assert.Contains(b.H, b.Browser.OpenTabs(), handle)
		assert.Equal(b.H, handle, b.Browser.Current())
		b.Check.Regex(`Documents Unchanged for 3650 Days as of`)
		b.Check.FirstTable().CheckHeaders(b.H, "Doc ID", "Doc Title", "Last Change")
	})

	g.add("TestAdminMenu", func(b *testbase.Base) {
		b.NavigateTo("Admin.py")
		b.Check.Title("Main Menu")
		b.Check.PageHas(pagecheck.USWDSMarker)
	})

	g.add("TestDocumentVersionHistory", func(b *testbase.Base) {
		summary := b.GetTestSummary(testbase.SummaryFilter{})
		report(b, "DocVersionHistory.py", "Document Version History Report",
			"DocId", testbase.CanonicalID(summary.ID))
		b.Check.PageHas(summary.Title)
		b.Check.FirstTable().CheckHeaders(b.H, "Ver", "Comment", "Date", "User", "Val", "Pub?")
	})

	g.add("TestDocumentsModified", func(b *testbase.Base) {
		start, end := dateRange(30)
		report(b, "DocumentsModified.py", "Documents Modified Report",
			"doctype", "Summary", "start", start, "end", end)
		b.Check.FirstTable().CheckHeaders(b.H, "Doc ID", "Doc Title", "Last Version", "Publishable")
	})

	g.add("TestLinkedDocs", func(b *testbase.Base) {
		summary := b.GetTestSummary(testbase.SummaryFilter{})
		report(b, "LinkedDocs.py", "Linked Documents Report",
			"doc_id", testbase.CanonicalID(summary.ID))
		b.Check.PageHas(summary.Title)
	})

	g.add("TestNewDocuments", func(b *testbase.Base) {
		start, end := dateRange(90)
		report(b, "NewDocReport.py", "New Documents Report",
			"type", "Summary", "start", start, "end", end)
		for _, table := range b.Check.Tables() {
			table.CheckHeaders(b.H, "Status", "Count")
		}
	})

	g.add("TestPDQContentCounts", func(b *testbase.Base) {
		b.NavigateTo("PDQContentCounts.py")
		b.Check.Title("PDQ Content Counts")
		b.Check.TableCaption("Counts")
		b.Check.FirstTable().CheckHeaders(b.H, "Documents", "Count")
		rows := b.Check.FirstTable().Rows()
		assert.True(b.H, slices.ContainsFunc(rows, func(row []string) bool {
			return len(row) > 0 && row[0] != ""
		}), "no content counts")
	})

	return g.Group
}
