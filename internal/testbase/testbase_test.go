package testbase

import (
	"regexp"
	"testing"

	"github.com/clbanning/mxj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/cdr-admin-test/internal/services/testdata"
)

func TestSummaryXML_Defaults(t *testing.T) {
	doc, err := SummaryXML(SummaryOptions{})
	require.NoError(t, err)

	m, err := mxj.NewMapXml([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "Test English Summary", mustString(t, m, "Summary.SummaryTitle"))
	assert.Equal(t, "Treatment", mustString(t, m, "Summary.SummaryMetaData.SummaryType"))
	assert.Equal(t, "Patients", mustString(t, m, "Summary.SummaryMetaData.SummaryAudience"))
	assert.Equal(t, "English", mustString(t, m, "Summary.SummaryMetaData.SummaryLanguage"))
	assert.NotContains(t, doc, "SVPC")
	assert.NotContains(t, doc, "ModuleOnly")
}

func TestSummaryXML_Flags(t *testing.T) {
	doc, err := SummaryXML(SummaryOptions{Title: "SVPC & Module", SVPC: true, Module: true})
	require.NoError(t, err)
	assert.Contains(t, doc, `SVPC="Yes"`)
	assert.Contains(t, doc, `ModuleOnly="Yes"`)
	assert.Contains(t, doc, "<SummaryTitle>SVPC &amp; Module</SummaryTitle>")
}

func TestFixtureXML(t *testing.T) {
	gtn, err := GlossaryTermNameXML("test term")
	require.NoError(t, err)
	assert.Equal(t, "<GlossaryTermName><TermName><TermNameString>test term</TermNameString></TermName><TermNameStatus>Approved</TermNameStatus></GlossaryTermName>", gtn)

	media, err := MediaXML("")
	require.NoError(t, err)
	assert.Contains(t, media, "<MediaTitle>Test Media Document</MediaTitle>")
	assert.Contains(t, media, "<PhysicalMedia><ImageData><ImageType>diagram</ImageType></ImageData></PhysicalMedia>")

	citation, err := CitationXML("A Book")
	require.NoError(t, err)
	assert.Equal(t, "<Citation><PDQCitation><CitationType>Book</CitationType><CitationTitle>A Book</CitationTitle></PDQCitation></Citation>", citation)
}

func mustString(t *testing.T, m mxj.Map, path string) string {
	t.Helper()
	v, err := m.ValueForPath(path)
	require.NoError(t, err, path)
	s, ok := v.(string)
	require.True(t, ok, path)
	return s
}

func TestDeletedPattern(t *testing.T) {
	re := regexp.MustCompile(deletedPattern("CDR0000012345"))
	assert.True(t, re.MatchString("<li class=\"info\">CDR0000012345 deleted successfully</li>"))
	assert.True(t, re.MatchString("CDR0000012345 has been deleted successfully."))
	assert.False(t, re.MatchString("CDR0000012346 deleted successfully"))
	assert.False(t, re.MatchString("CDR0000012345: document is locked"))
}

func TestGroupCheckboxID(t *testing.T) {
	assert.Equal(t, "group-automated-test-group", GroupCheckboxID("Automated Test Group"))
	assert.Equal(t, "group-gp-mailers", GroupCheckboxID("GP Mailers"))
	assert.Equal(t, "options-validate", OptionID("options", "validate"))
	assert.Equal(t, "selection_method-title", OptionID("selection_method", "Title"))
}

func TestParams(t *testing.T) {
	values, err := params([]string{"Request", "Submit", "DocId", "CDR0000012345"})
	require.NoError(t, err)
	assert.Equal(t, "Submit", values.Get("Request"))
	assert.Equal(t, "CDR0000012345", values.Get("DocId"))

	values, err = params(nil)
	require.NoError(t, err)
	assert.NotNil(t, values)

	_, err = params([]string{"Request"})
	assert.Error(t, err)
}

func TestArtifactName(t *testing.T) {
	assert.Equal(t, "Media.TestLists", artifactName("Media.TestLists"))
	assert.Equal(t, "Media.Test_a_b", artifactName("Media.Test a/b"))
}

func testSummaries() testdata.Summaries {
	return testdata.Summaries{
		"English": {
			"Treatment": {
				"Health professionals": {{ID: 62787, Title: "Adult Hodgkin Lymphoma Treatment", Boards: []testdata.Board{{ID: 28327, Name: "PDQ Adult Treatment Editorial Board"}}}},
				"Patients":             {{ID: 62966, Title: "Adult Hodgkin Lymphoma Treatment"}},
			},
		},
		"Spanish": {
			"Supportive care": {
				"Patients": {{ID: 256762, Title: "Fatiga"}},
			},
		},
	}
}

func TestPickSummary(t *testing.T) {
	all := testSummaries()

	summary, err := PickSummary(all, SummaryFilter{})
	require.NoError(t, err)
	assert.Equal(t, 62787, summary.ID)

	summary, err = PickSummary(all, SummaryFilter{Audience: "Patients"})
	require.NoError(t, err)
	assert.Equal(t, 62966, summary.ID)

	_, err = PickSummary(all, SummaryFilter{Language: "Spanish"})
	assert.Error(t, err)
}

func TestFirstSummary(t *testing.T) {
	summary, err := FirstSummary(testSummaries())
	require.NoError(t, err)
	assert.Equal(t, 62787, summary.ID)

	_, err = FirstSummary(testdata.Summaries{"English": {"Treatment": {"Patients": nil}}})
	assert.Error(t, err)
}

func TestPickGlossaryTerm(t *testing.T) {
	_, ok := PickGlossaryTerm(nil)
	assert.False(t, ok)

	terms := []testdata.GlossaryTerm{
		{ID: 1, EnglishName: "alpha"},
		{ID: 2, EnglishName: "beta", SpanishNames: []testdata.SpanishName{{Name: "beta"}}},
	}
	term, ok := PickGlossaryTerm(terms)
	assert.True(t, ok)
	assert.Equal(t, 2, term.ID)

	term, _ = PickGlossaryTerm(terms[:1])
	assert.Equal(t, 1, term.ID)
}

func TestPickBoardMember(t *testing.T) {
	members := []testdata.BoardMember{
		{ID: 10, Boards: []testdata.Board{{ID: 1, Current: false}}},
		{ID: 11, Boards: []testdata.Board{{ID: 1, Current: true}}},
	}
	member, ok := PickBoardMember(members)
	assert.True(t, ok)
	assert.Equal(t, 11, member.ID)

	member, ok = PickBoardMember(members[:1])
	assert.True(t, ok)
	assert.Equal(t, 10, member.ID)

	_, ok = PickBoardMember(nil)
	assert.False(t, ok)
}

func TestSQLBuilders(t *testing.T) {
	assert.Equal(t, "'O''Brien'", SQLString("O'Brien"))
	assert.Equal(t,
		"SELECT d.id FROM document d JOIN doc_type t ON t.id = d.doc_type WHERE t.name = 'Summary' AND d.title LIKE 'Test%' AND d.active_status = 'A' ORDER BY d.id",
		DocIDsQuery("Summary", "Test%"))
	assert.Equal(t, "SELECT id, name FROM usr WHERE name = 'tester' AND expired IS NULL", UserQuery("tester"))
}

func TestIntColumn(t *testing.T) {
	ids, err := IntColumn([][]string{{"12", "tester"}, {"7", "translation_tester"}})
	require.NoError(t, err)
	assert.Equal(t, []int{12, 7}, ids)

	ids, err = IntColumn(nil)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = IntColumn([][]string{{"twelve"}})
	assert.Error(t, err)
	_, err = IntColumn([][]string{{}})
	assert.Error(t, err)
}
