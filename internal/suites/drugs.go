package suites

import (
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ternarybob/cdr-admin-test/internal/harness"
	"github.com/ternarybob/cdr-admin-test/internal/testbase"
)

// drugMatcherTimeout covers the EVS lookups behind the drug term matcher.
const drugMatcherTimeout = 600 * time.Second

func drugs(deps *testbase.Deps) *harness.Group {
	g := newGroup("Drugs", deps)

	g.add("TestDrugDescriptionForm", func(b *testbase.Base) {
		form(b, "DrugDescriptionReport.py", "Drug Description Report")
	})

	g.add("TestDrugIndicationsForm", func(b *testbase.Base) {
		form(b, "DrugIndicationsReport.py", "Drug Indications")
	})

	g.add("TestDrugReviewReport", func(b *testbase.Base) {
		start, end := dateRange(90)
		report(b, "DrugReviewReport.py", "Drug Review Report", "start", start, "end", end)
	})

	g.add("TestDrugComprehensiveReviewDates", func(b *testbase.Base) {
		form(b, "DrugCRD.py", "Drugs Comprehensive Review Dates")
		b.Click(testbase.OptionID("show_id", "Y"))
		handle := b.SubmitForm(true)
		require.NotEmpty(b.H, handle, "report did not open a new tab")
		b.Check.Title("Drugs Comprehensive Review Dates")
		b.Check.EveryTableHeaders("CDR ID", "Doc Title", "Date")
	})

	g.add("TestDISProcessingStatus", func(b *testbase.Base) {
		start, end := dateRange(365)
		report(b, "DISProcessingStatusReport.py", "DIS Processing Status Report", "start", start, "end", end)
		b.Check.FirstTable().CheckHeaders(b.H,
			"CDR ID", "DIS Title", "Processing Status Value", "Processing Status Date", "Entered By")
	})

	g.add("TestDISByDrugType", func(b *testbase.Base) {
		form(b, "DISByDrugType.py", "Drug Information Summary report by drug type.")
		b.SubmitForm(true)
		b.Check.SingleTableReport()
		b.Check.FirstTable().CheckHeaders(b.H, "CDR ID", "Title of DIS", "Drug Types", "Publishable?")
	})

	g.add("TestDISTypeChangeForm", func(b *testbase.Base) {
		form(b, "DISTypeChangeReport.py", "DIS Type of Change")
	})

	g.add("TestDrugDateLastModified", func(b *testbase.Base) {
		form(b, "DrugDateLastModified.py", "Drug Information Summary Date Last Modified")
	})

	g.add("TestMatchDrugTermsByName", func(b *testbase.Base) {
		b.SetPageLoadTimeout(drugMatcherTimeout)
		b.NavigateTo("MatchDrugTermsByName.py")
		b.Check.Title("Match Drug Terms By Name")
		b.Check.Regex(`Drug Terms Which Can Be Linked With EVS Concepts \(\d+\)`)
		b.Check.Regex(`Concepts Importable As New CDR Drug Terms \(\d+\)`)
	})

	return g.Group
}
