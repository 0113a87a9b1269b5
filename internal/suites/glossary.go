package suites

import (
	"fmt"
	"strconv"

	"github.com/ternarybob/cdr-admin-test/internal/browser"
	"github.com/ternarybob/cdr-admin-test/internal/cdrapi"
	"github.com/ternarybob/cdr-admin-test/internal/harness"
	"github.com/ternarybob/cdr-admin-test/internal/testbase"
)

const (
	testMappingPhrase = "test phrase for mapping"
	testMappingTerm   = "automated test mapping term"
	testGlossaryTerm  = "automated test glossary term"

	externalMapScript = "EditExternalMap.py"
	noMappingsFound   = "No mappings found matching the filtering criteria."
)

func glossary(deps *testbase.Deps) *harness.Group {
	g := newGroup("Glossary", deps)

	g.add("TestExternalMappingLifecycle", externalMappingLifecycle)

	g.add("TestGlossaryTermLifecycle", func(b *testbase.Base) {
		b.RemoveLeftovers("GlossaryTermName", testGlossaryTerm+"%")
		id := b.CreateTestGTN(testGlossaryTerm)
		b.NavigateTo("QcReport.py", "DocId", testbase.CanonicalID(id), "DocVersion", "-1")
		b.Check.PageHas(testGlossaryTerm)
		b.DeleteDoc(id, "")
	})

	g.add("TestKeywordSearch", func(b *testbase.Base) {
		term := b.GetTestGlossaryTerm()
		report(b, "GlossaryKeywordSearchReport.py", "Glossary Keyword Search Report",
			"term", term.EnglishName, "language", "English", "audience", "Patient")
		b.Check.SingleTableReport()
		b.Check.FirstTable().CheckHeaders(b.H, "GTN ID", "GTC ID", "Term Names", "Definitions")
		b.Check.PageHas(term.EnglishName)
	})

	g.add("TestPronunciationByStem", func(b *testbase.Base) {
		term := b.GetTestGlossaryTerm()
		stem := term.EnglishName
		if len(stem) > 4 {
			stem = stem[:4]
		}
		report(b, "PronunciationByWordStem.py", "Pronunciation by Term Stem Report", "term_stem", stem)
		b.Check.FirstTable().CheckHeaders(b.H,
			"Doc ID", "Term Name", "Pronunciation", "Pronunciation Resource", "Comments")
	})

	g.add("TestTermPhrasesForm", func(b *testbase.Base) {
		form(b, "GlossaryTermPhrases.py", "Glossary Term Phrases Report")
		b.Check.PageHas("Document ID")
	})

	g.add("TestProcessingStatusForm", func(b *testbase.Base) {
		form(b, "GlossaryProcessingStatusReport.py", "Glossary Processing Status Report")
	})

	g.add("TestNameDocsModifiedForm", func(b *testbase.Base) {
		form(b, "GlossaryNameDocsModified.py", "Glossary Term Name Documents Modified Report")
	})

	g.add("TestConceptDocsModifiedForm", func(b *testbase.Base) {
		form(b, "GlossaryConceptDocsModified.py", "GTC Documents Modified Report")
	})

	g.add("TestHealthProfessionalTermsForm", func(b *testbase.Base) {
		form(b, "HPGlossaryTermsReport.py", "Health Professional Glossary Terms Report")
	})

	g.add("TestNewlyPublishedTerms", func(b *testbase.Base) {
		form(b, "NewlyPublishedGlossaryTerms.py", "New Published Glossary Terms")
	})

	return g.Group
}

// openMappings shows the external map editor filtered to the test phrase.
func openMappings(b *testbase.Base) {
	b.NavigateTo(externalMapScript,
		"usage", "0",
		"value_pattern", testMappingPhrase,
		"Request", "Get Values",
	)
	b.Check.Title("External Map Editor")
}

func saveMappings(b *testbase.Base) {
	b.Press(browser.ButtonID("Save Changes"), false)
}

func mappingField(mappingID int) string {
	return fmt.Sprintf(`input[name="cdrid-%d"]`, mappingID)
}

func mappingDeleteBox(mappingID int) string {
	return fmt.Sprintf(`input[name="delete"][value="%d"]`, mappingID)
}

// externalMappingLifecycle links a new mapping to a glossary term, unlinks
// and deletes it, then removes the term.
func externalMappingLifecycle(b *testbase.Base) {
	b.RemoveLeftovers("GlossaryTermName", testMappingTerm+"%")
	removeLeftoverMappings(b)

	termID := b.CreateTestGTN(testMappingTerm)
	mappingID := b.CreateExternalMapping(testMappingPhrase, cdrapi.MappingOptions{})
	b.Logf("mapping %d for %q", mappingID, testMappingPhrase)

	openMappings(b)
	b.SetNamedField(mappingField(mappingID), testbase.CanonicalID(termID))
	saveMappings(b)
	b.Check.PageHas(fmt.Sprintf("Mapping to CDR%d added", termID))

	b.SetNamedField(mappingField(mappingID), "")
	saveMappings(b)
	b.Check.PageHas(fmt.Sprintf("Mapping to CDR%d removed", termID))

	b.ClickLink(mappingDeleteBox(mappingID))
	saveMappings(b)
	b.Check.PageHas("Mapping deleted")

	openMappings(b)
	b.Check.PageHas(noMappingsFound)

	b.DeleteDoc(termID, "")
}

// removeLeftoverMappings deletes any mapping of the test phrase left by an
// earlier run.
func removeLeftoverMappings(b *testbase.Base) {
	rows := b.RunQuery("SELECT id FROM external_map WHERE value = " + testbase.SQLString(testMappingPhrase))
	if len(rows) == 0 {
		return
	}
	openMappings(b)
	for _, row := range rows {
		id, err := strconv.Atoi(row[0])
		if err != nil {
			b.H.Abort(fmt.Errorf("external_map id %q: %w", row[0], err))
		}
		b.SetNamedField(mappingField(id), "")
		b.ClickLink(mappingDeleteBox(id))
	}
	saveMappings(b)
	b.Logf("removed %d leftover mapping(s)", len(rows))
}
