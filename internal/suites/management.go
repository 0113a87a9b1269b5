package suites

import (
	"fmt"
	"strconv"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/cdr-admin-test/internal/browser"
	"github.com/ternarybob/cdr-admin-test/internal/harness"
	"github.com/ternarybob/cdr-admin-test/internal/services/testdata"
	"github.com/ternarybob/cdr-admin-test/internal/testbase"
)

const (
	testActionName   = "AUTOMATED TEST ACTION"
	testGroupName    = "Automated Test Group"
	testUserName     = "Automated Test User"
	testUserFullName = "Automated Test User Account"

	editActionScript = "EditAction.py"
	editGroupScript  = "EditGroup.py"
)

func actionQuery(name string) string {
	return "SELECT id FROM action WHERE name = " + testbase.SQLString(name)
}

func groupQuery(name string) string {
	return "SELECT id FROM grp WHERE name = " + testbase.SQLString(name)
}

func membershipQuery(user, group string) string {
	return "SELECT u.id FROM usr u" +
		" JOIN grp_usr m ON m.usr = u.id" +
		" JOIN grp g ON g.id = m.grp" +
		" WHERE u.name = " + testbase.SQLString(user) +
		" AND g.name = " + testbase.SQLString(group)
}

func grantQuery(group, action string) string {
	return "SELECT g.id FROM grp g" +
		" JOIN grp_action p ON p.grp = g.id" +
		" JOIN action a ON a.id = p.action" +
		" WHERE g.name = " + testbase.SQLString(group) +
		" AND a.name = " + testbase.SQLString(action)
}

func management(deps *testbase.Deps) *harness.Group {
	g := newGroup("Management", deps)

	g.add("TestPermissions", func(b *testbase.Base) {
		removePermissionFixtures(b)

		b.NavigateTo(editActionScript)
		b.SetField("name", testActionName)
		b.SetField("comment", testbase.FixtureComment)
		b.Press(browser.ButtonID("Save New Action"), false)
		b.Check.PageHas(fmt.Sprintf("Action '%s' successfully added", testActionName))
		assert.Len(b.H, b.RunQuery(actionQuery(testActionName)), 1)

		b.NavigateTo(editGroupScript)
		b.SetField("name", testGroupName)
		b.SetField("description", testbase.FixtureComment)
		b.SetChecked(testbase.OptionID("action", testActionName), true)
		b.Press(browser.ButtonID("Save Changes"), false)
		b.Check.PageHas(fmt.Sprintf("Group '%s' successfully added", testGroupName))
		assert.Len(b.H, b.RunQuery(grantQuery(testGroupName, testActionName)), 1)

		b.NavigateTo(testbase.EditUserScript)
		b.SetField("name", testUserName)
		b.SetField("full_name", testUserFullName)
		b.SetField("comment", testbase.FixtureComment)
		b.SetChecked(testbase.GroupCheckboxID(testGroupName), true)
		b.Press(browser.ButtonID("Save New User Account"), false)
		b.Check.PageHas(fmt.Sprintf("New user %s saved successfully", testUserName))
		assert.Len(b.H, b.RunQuery(membershipQuery(testUserName, testGroupName)), 1)

		b.RemoveUserFromGroup(testUserName, testGroupName)
		assert.Empty(b.H, b.RunQuery(membershipQuery(testUserName, testGroupName)))
		b.AddUserToGroup(testUserName, testGroupName)
		assert.Len(b.H, b.RunQuery(membershipQuery(testUserName, testGroupName)), 1)

		removePermissionFixtures(b)
		assert.Empty(b.H, b.RunQuery(testbase.UserQuery(testUserName)))
		assert.Empty(b.H, b.RunQuery(groupQuery(testGroupName)))
		assert.Empty(b.H, b.RunQuery(actionQuery(testActionName)))
	})

	g.add("TestBoardRoster", func(b *testbase.Base) {
		member := b.GetTestBoardMember()
		if len(member.Boards) == 0 {
			b.H.Skipf("board member CDR%d has no boards", member.ID)
		}
		board := currentBoard(member.Boards)
		report(b, "BoardRoster.py", "PDQ Board Roster Report",
			"board", strconv.Itoa(board.ID), "type", "full")
		b.Check.PageHas(member.Person.Surname)
	})

	g.add("TestBoardRosterSummary", func(b *testbase.Base) {
		board := b.GetTestBoard()
		report(b, "BoardRoster.py", "PDQ Board Roster Report",
			"board", strconv.Itoa(board.ID), "type", "summary")
		b.Check.FirstTable().CheckHeaders(b.H, "Name")
	})

	g.add("TestBoardManagersMenu", func(b *testbase.Base) {
		b.NavigateTo("BoardManagers.py")
		b.Check.Title("Board Managers")
		b.Check.PageHas("Summary Mailer Report")
		b.Check.NonTabularReport()
	})

	g.add("TestBoardMeetingDates", func(b *testbase.Base) {
		start, end := dateRange(365)
		report(b, "BoardMeetingDates.py", "PDQ Editorial Board Meetings",
			"board", "all", "report_type", "display_by_date", "start", start, "end", end)
		b.Check.FirstTable().CheckHeaders(b.H, "Date", "Day", "Time", "WebEx", "Board")
	})

	g.add("TestMailerCheckin", func(b *testbase.Base) {
		start, end := dateRange(365)
		report(b, "MailerCheckinReport.py", "Mailer Checkin", "start", start, "end", end)
		for _, table := range b.Check.Tables() {
			table.CheckHeaders(b.H, "Change Category", "Count")
		}
	})

	return g.Group
}

// currentBoard prefers a board the member still sits on.
func currentBoard(boards []testdata.Board) testdata.Board {
	for _, board := range boards {
		if board.Current {
			return board
		}
	}
	return boards[0]
}

// removePermissionFixtures deletes whichever permission fixtures exist.
// An inactivated account keeps its usr row with expired set, which
// UserQuery does not match.
func removePermissionFixtures(b *testbase.Base) {
	if len(b.RunQuery(testbase.UserQuery(testUserName))) > 0 {
		b.NavigateTo(testbase.EditUserScript, "usr", testUserName)
		b.Press(browser.ButtonID("Inactivate Account"), false)
	}
	if len(b.RunQuery(groupQuery(testGroupName))) > 0 {
		b.NavigateTo(editGroupScript, "grp", testGroupName)
		b.Press(browser.ButtonID("Delete Group"), false)
	}
	if len(b.RunQuery(actionQuery(testActionName))) > 0 {
		b.NavigateTo(editActionScript, "action", testActionName)
		b.Press(browser.ButtonID("Delete Action"), false)
	}
}
