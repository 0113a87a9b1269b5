package suites

import (
	"sort"
	"strconv"
	"strings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/cdr-admin-test/internal/harness"
	"github.com/ternarybob/cdr-admin-test/internal/testbase"
)

const (
	testSummaryTitle = "Test English Summary"
	testSVPCTitle    = "Automated Test SVPC Summary"
	mailerSheet      = "Summary Mailer Report"
	mailerHeaderRow  = 3
)

var mailerHeaders = []string{"Mailer ID", "Board Member", "Summary", "Sent", "Response", "Changes", "Comments"}

func summaries(deps *testbase.Deps) *harness.Group {
	g := newGroup("Summaries", deps)

	g.add("TestCreateVersionDelete", func(b *testbase.Base) {
		b.RemoveLeftovers("Summary", testSummaryTitle+"%")
		id := b.CreateTestSummary(testbase.SummaryOptions{Title: testSummaryTitle})
		require.Positive(b.H, id)
		b.DeleteDoc(testbase.CanonicalID(id), "")
	})

	g.add("TestSVPCModuleFixture", func(b *testbase.Base) {
		b.RemoveLeftovers("Summary", testSVPCTitle+"%")
		id := b.CreateTestSummary(testbase.SummaryOptions{Title: testSVPCTitle, SVPC: true, Module: true})
		b.NavigateTo("QcReport.py", "DocId", testbase.CanonicalID(id), "DocVersion", "-1")
		b.Check.PageHas(testSVPCTitle)
		b.DeleteDoc(id, "")
	})

	g.add("TestSummaryMailerWorkbook", func(b *testbase.Base) {
		board := b.GetTestBoard()
		book := b.FetchWorkbook("SummaryMailerReport.py",
			"flavor", "standard",
			"sort", "member",
			"show", "last",
			"board", strconv.Itoa(board.ID),
		)
		assert.Equal(b.H, mailerSheet, book.ActiveTitle())

		headers, err := book.Row(mailerHeaderRow)
		require.NoError(b.H, err)
		require.GreaterOrEqual(b.H, len(headers), len(mailerHeaders))
		assert.Equal(b.H, mailerHeaders, headers[:len(mailerHeaders)])

		members, err := book.Column(mailerHeaderRow, "Board Member")
		require.NoError(b.H, err)
		assert.True(b.H, sortedFold(members), "board members out of order: %q", members)

		titles, err := book.Column(mailerHeaderRow, "Summary")
		require.NoError(b.H, err)
		if distinct(titles) > 1 {
			assert.False(b.H, sortedFold(titles), "summaries unexpectedly sorted")
		}
	})

	g.add("TestSummariesLists", func(b *testbase.Base) {
		summary := b.GetTestSummary(testbase.SummaryFilter{})
		if len(summary.Boards) == 0 {
			b.H.Skipf("summary CDR%d has no board", summary.ID)
		}
		report(b, "SummariesLists.py", "Summaries Lists",
			"board", strconv.Itoa(summary.Boards[0].ID),
			"audience", "Health Professional",
			"language", "English",
			"show_id", "Y",
		)
		b.Check.PageHas(summary.Title)
		b.Check.PageHas(testbase.CanonicalID(summary.ID))
	})

	g.add("TestSummaryMetadata", func(b *testbase.Base) {
		summary := b.GetTestSummary(testbase.SummaryFilter{})
		report(b, "SummaryMetaData.py", "Summary Metadata Report",
			"method", "id", "doc-id", testbase.CanonicalID(summary.ID))
		b.Check.PageHas(summary.Title)
	})

	g.add("TestModuleQcReport", func(b *testbase.Base) {
		module := b.GetTestModule()
		b.NavigateTo("QcReport.py", "DocId", testbase.CanonicalID(module.ID), "DocVersion", "-1")
		b.Check.PageHas(module.Title)
	})

	g.add("TestSummaryComprehensiveReviewDates", func(b *testbase.Base) {
		board := b.GetTestBoard()
		report(b, "SummaryCRD.py", "Summaries Comprehensive Review Dates", "board", strconv.Itoa(board.ID), "show_id", "Y")
		b.Check.EveryTableHeaders("CDR ID", "Summary Title", "Date", "Status", "Comment")
	})

	g.add("TestSVPCSummaries", func(b *testbase.Base) {
		start, end := dateRange(3650)
		report(b, "SVPCSummariesReport.py", "SVPC Summaries Report", "start", start, "end", end)
		b.Check.FirstTable().CheckHeaders(b.H, "CDR ID", "Title", "Summary Type", "Publication Date")
	})

	g.add("TestSummaryTypeChangeForm", func(b *testbase.Base) {
		form(b, "SummaryTypeChangeReport.py", "Summaries Type of Change")
	})

	g.add("TestSummaryCommentsForm", func(b *testbase.Base) {
		form(b, "SummaryComments.py", "Summary Comments Report")
	})

	g.add("TestTocListsForm", func(b *testbase.Base) {
		form(b, "SummariesTocReport.py", "Summary TOC Lists")
	})

	return g.Group
}

// sortedFold reports whether values are in case-insensitive ascending order.
func sortedFold(values []string) bool {
	return sort.SliceIsSorted(values, func(i, j int) bool {
		return strings.ToLower(values[i]) < strings.ToLower(values[j])
	})
}

func distinct(values []string) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[strings.ToLower(v)] = struct{}{}
	}
	return len(seen)
}
