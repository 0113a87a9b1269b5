package testbase

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/ternarybob/cdr-admin-test/internal/services/testdata"
	"github.com/ternarybob/cdr-admin-test/internal/services/workbook"
)

// SummaryFilter selects a pre-existing summary. Empty fields take the
// defaults: English, Treatment, Health professionals.
type SummaryFilter struct {
	Language string
	Type     string
	Audience string
}

func (f SummaryFilter) withDefaults() SummaryFilter {
	if f.Language == "" {
		f.Language = "English"
	}
	if f.Type == "" {
		f.Type = "Treatment"
	}
	if f.Audience == "" {
		f.Audience = "Health professionals"
	}
	return f
}

// PickSummary returns the first summary matching f.
func PickSummary(all testdata.Summaries, f SummaryFilter) (testdata.Summary, error) {
	f = f.withDefaults()
	summaries := all[f.Language][f.Type][f.Audience]
	if len(summaries) == 0 {
		return testdata.Summary{}, fmt.Errorf("no %s %s summary for %s", f.Language, f.Type, f.Audience)
	}
	return summaries[0], nil
}

// FirstSummary walks the nested groups in key order and returns the first
// summary found.
func FirstSummary(all testdata.Summaries) (testdata.Summary, error) {
	for _, language := range sortedKeys(all) {
		types := all[language]
		for _, summaryType := range sortedKeys(types) {
			audiences := types[summaryType]
			for _, audience := range sortedKeys(audiences) {
				if list := audiences[audience]; len(list) > 0 {
					return list[0], nil
				}
			}
		}
	}
	return testdata.Summary{}, fmt.Errorf("no summaries")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetTestSummary returns a pre-existing summary matching f.
func (b *Base) GetTestSummary(f SummaryFilter) testdata.Summary {
	all, err := b.TestData.Summaries(b.H.Context())
	if err != nil {
		b.H.Abort(err)
	}
	summary, err := PickSummary(all, f)
	if err != nil {
		b.H.Abort(err)
	}
	return summary
}

// GetTestBoard returns the first board of the default test summary.
func (b *Base) GetTestBoard() testdata.Board {
	summary := b.GetTestSummary(SummaryFilter{})
	if len(summary.Boards) == 0 {
		b.H.Abort(fmt.Errorf("summary CDR%d has no boards", summary.ID))
	}
	return summary.Boards[0]
}

// GetTestModule returns a summary usable only as a module.
func (b *Base) GetTestModule() testdata.Summary {
	all, err := b.TestData.Modules(b.H.Context())
	if err != nil {
		b.H.Abort(err)
	}
	module, err := FirstSummary(all)
	if err != nil {
		b.H.Abort(fmt.Errorf("modules: %w", err))
	}
	return module
}

// GetTestGlossaryTerm returns a glossary term name with a Spanish name
// when one is available.
func (b *Base) GetTestGlossaryTerm() testdata.GlossaryTerm {
	terms, err := b.TestData.GlossaryTerms(b.H.Context())
	if err != nil {
		b.H.Abort(err)
	}
	term, ok := PickGlossaryTerm(terms)
	if !ok {
		b.H.Abort(fmt.Errorf("no glossary terms"))
	}
	return term
}

// PickGlossaryTerm prefers the first term with a Spanish name.
func PickGlossaryTerm(terms []testdata.GlossaryTerm) (testdata.GlossaryTerm, bool) {
	if len(terms) == 0 {
		return testdata.GlossaryTerm{}, false
	}
	for _, term := range terms {
		if len(term.SpanishNames) > 0 {
			return term, true
		}
	}
	return terms[0], true
}

// GetTestBoardMember returns a board member, preferring one currently
// serving on a board.
func (b *Base) GetTestBoardMember() testdata.BoardMember {
	members, err := b.TestData.BoardMembers(b.H.Context())
	if err != nil {
		b.H.Abort(err)
	}
	member, ok := PickBoardMember(members)
	if !ok {
		b.H.Abort(fmt.Errorf("no board members"))
	}
	return member
}

// PickBoardMember prefers the first member with a current board.
func PickBoardMember(members []testdata.BoardMember) (testdata.BoardMember, bool) {
	if len(members) == 0 {
		return testdata.BoardMember{}, false
	}
	for _, member := range members {
		for _, board := range member.Boards {
			if board.Current {
				return member, true
			}
		}
	}
	return members[0], true
}

// RunQuery runs sql through the query page.
func (b *Base) RunQuery(sql string) [][]string {
	rows, err := b.Query.Run(b.H.Context(), sql)
	if err != nil {
		b.H.Abort(err)
	}
	return rows
}

// SQLString quotes s as a SQL string literal.
func SQLString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// DocIDsQuery finds active documents of doctype whose title is LIKE pattern.
func DocIDsQuery(doctype, titlePattern string) string {
	return "SELECT d.id FROM document d" +
		" JOIN doc_type t ON t.id = d.doc_type" +
		" WHERE t.name = " + SQLString(doctype) +
		" AND d.title LIKE " + SQLString(titlePattern) +
		" AND d.active_status = 'A'" +
		" ORDER BY d.id"
}

// FindDocIDs returns the ids of active documents of doctype whose title is
// LIKE titlePattern, for removing what an earlier run left behind.
func (b *Base) FindDocIDs(doctype, titlePattern string) []int {
	return b.intColumn(DocIDsQuery(doctype, titlePattern))
}

// RemoveLeftovers deletes any active document left by an earlier run.
func (b *Base) RemoveLeftovers(doctype, titlePattern string) {
	for _, id := range b.FindDocIDs(doctype, titlePattern) {
		b.CleanupDoc(id)
	}
}

// UserQuery finds an active account by name.
func UserQuery(name string) string {
	return "SELECT id, name FROM usr WHERE name = " + SQLString(name) + " AND expired IS NULL"
}

// RequireUser returns the id of the named account, skipping the test when
// the account does not exist on this tier.
func (b *Base) RequireUser(name string) int {
	ids := b.intColumn(UserQuery(name))
	if len(ids) == 0 {
		b.H.Skipf("prerequisite account %q not found", name)
	}
	return ids[0]
}

func (b *Base) intColumn(sql string) []int {
	ids, err := IntColumn(b.RunQuery(sql))
	if err != nil {
		b.H.Abort(err)
	}
	return ids
}

// IntColumn parses the first column of each row as an integer.
func IntColumn(rows [][]string) ([]int, error) {
	ids := make([]int, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			return nil, fmt.Errorf("empty result row")
		}
		id, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", row[0])
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// FetchWorkbook requests a report as a workbook. The workbook is closed at
// teardown.
func (b *Base) FetchWorkbook(script string, pairs ...string) *workbook.Workbook {
	values, err := params(pairs)
	if err != nil {
		b.H.Abort(err)
	}
	return b.fetchWorkbook(script, values)
}

// FetchWorkbookURL fetches a workbook from a full URL, such as a link on
// the current page.
func (b *Base) FetchWorkbookURL(rawURL string) *workbook.Workbook {
	return b.fetchWorkbook(rawURL, nil)
}

func (b *Base) fetchWorkbook(target string, values url.Values) *workbook.Workbook {
	book, err := b.Workbooks.Fetch(b.H.Context(), target, values, false)
	if err != nil {
		b.H.Abort(err)
	}
	b.H.Cleanup(func() { book.Close() })
	return book
}
