package suites

import (
	"path/filepath"
	"strconv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/cdr-admin-test/internal/harness"
	"github.com/ternarybob/cdr-admin-test/internal/pagecheck"
	"github.com/ternarybob/cdr-admin-test/internal/testbase"
)

const (
	testSchemaName = "automated-test-schema.xsd"
	testSchema     = `<?xml version="1.0" encoding="UTF-8"?>
<xsd:schema xmlns:xsd="http://www.w3.org/2001/XMLSchema">
  <xsd:element name="AutomatedTestDocument" type="xsd:string"/>
</xsd:schema>
`
	testerQuery = "SELECT id, name FROM usr WHERE name LIKE '%tester%'"
)

func developer(deps *testbase.Deps) *harness.Group {
	g := newGroup("Developer", deps)

	g.add("TestAdHocQuery", func(b *testbase.Base) {
		rows := b.RunQuery(testerQuery)
		for i, row := range rows {
			require.Len(b.H, row, 2, "row %d", i)
			_, err := strconv.Atoi(row[0])
			assert.NoError(b.H, err, "row %d id", i)
		}
	})

	g.add("TestDatabaseTables", func(b *testbase.Base) {
		b.NavigateTo("db-tables.py")
		b.Check.Title("Database Tables and Views")
		b.Check.PageHas("<dt>document</dt>")
		b.Check.NonTabularReport()
	})

	g.add("TestGroupMembership", func(b *testbase.Base) {
		b.RequireUser("tester")
		report(b, "show-group-membership.py", "CDR Group Membership")
		b.Check.SingleTableReport()
		b.Check.Regex(`<caption>.*Groups as of .*</caption>`)
		b.Check.PageHas("tester")
	})

	g.add("TestLogonAddresses", func(b *testbase.Base) {
		start, end := dateRange(7)
		report(b, "LogonAddresses.py", "CDR Ticket Request IP Addresses", "start", start, "end", end)
		b.Check.TableCaption("CDR Logons and Ticket Requests")
	})

	g.add("TestServerHealthCheck", func(b *testbase.Base) {
		b.NavigateTo("check-cdr-tier-settings.py")
		b.Check.Title("CDR Server Health Check")
		b.Check.MultiTableReport()
		b.Check.TableCaption("Host Name Mappings")
		b.Check.TableCaption("Database Credentials")
	})

	g.add("TestTierSettingsForm", func(b *testbase.Base) {
		b.NavigateTo("fetch-tier-settings.py", "prompt", "yes")
		b.Check.Title("Tier Settings")
		b.Check.PageHas("Checksums for relevant file system content")
	})

	g.add("TestLogViewerForm", func(b *testbase.Base) {
		form(b, "log-tail.py", "Log Viewer")
	})

	g.add("TestStoredQueriesForm", func(b *testbase.Base) {
		b.NavigateTo("CdrQueries.py")
		b.Check.Title("CDR Stored Database Queries")
		b.Check.PageHas(pagecheck.USWDSMarker)
	})

	g.add("TestPostSchema", func(b *testbase.Base) {
		b.RemoveLeftovers("schema", testSchemaName)
		path := b.TempFile(testSchemaName, testSchema)
		require.Equal(b.H, testSchemaName, filepath.Base(path))

		form(b, "post-schema.py", "Post CDR Schema")
		b.Upload("file", path)
		b.SetField("comment", testbase.FixtureComment)
		b.Click(testbase.OptionID("action", "add"))
		b.SubmitForm(false)
		b.Check.PageHas("Schema posted successfully.")

		ids := b.FindDocIDs("schema", testSchemaName)
		require.Len(b.H, ids, 1)
		b.DeleteDoc(ids[0], "")
	})

	return g.Group
}
