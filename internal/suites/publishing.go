package suites

import (
	"github.com/ternarybob/cdr-admin-test/internal/harness"
	"github.com/ternarybob/cdr-admin-test/internal/testbase"
)

func publishing(deps *testbase.Deps) *harness.Group {
	g := newGroup("Publishing", deps)

	g.add("TestPublishingJobStatus", func(b *testbase.Base) {
		start, end := dateRange(30)
		report(b, "PubStatus.py", "Publishing Status", "start", start, "end", end)
		b.Check.FirstTable().CheckHeaders(b.H, "Job ID", "Job Type", "Job Status", "Job Start", "Job Finish")
	})

	g.add("TestPublishingStatisticsByDate", func(b *testbase.Base) {
		start, end := dateRange(90)
		report(b, "PubStatsByDate.py", "Publishing Job Statistics by Date",
			"start", start, "end", end)
	})

	g.add("TestManagePublishingStatusForm", func(b *testbase.Base) {
		form(b, "ManagePubStatus.py", "Manage Publishing Job Status")
	})

	g.add("TestFailBatchJobForm", func(b *testbase.Base) {
		b.NavigateTo("FailBatchJob.py")
		b.Check.Title("Mark Stuck Publishing or Batch Job as Failed")
		b.Check.PageNotHas("Traceback")
	})

	g.add("TestRepublishForm", func(b *testbase.Base) {
		form(b, "Republish.py", "Re-Publish CDR Documents to Cancer.gov")
	})

	g.add("TestGatekeeperStatusForm", func(b *testbase.Base) {
		form(b, "GateKeeperStatus.py", "GateKeeper Status")
	})

	g.add("TestBatchJobStatus", func(b *testbase.Base) {
		b.NavigateTo("getBatchStatus.py")
		b.Check.Title("Batch Job Status")
		b.Check.PageNotHas("Traceback")
	})

	g.add("TestPublishingMenu", func(b *testbase.Base) {
		b.NavigateTo("publishing.py")
		b.Check.Title("Publishing")
		b.Check.NonTabularReport()
	})

	return g.Group
}
