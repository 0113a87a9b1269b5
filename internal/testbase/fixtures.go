package testbase

import (
	"encoding/xml"
	"errors"
	"fmt"
	"regexp"

	"github.com/ternarybob/cdr-admin-test/internal/browser"
	"github.com/ternarybob/cdr-admin-test/internal/cdrapi"
	"github.com/ternarybob/cdr-admin-test/internal/common"
)

const (
	// FixtureComment marks every document the tests create.
	FixtureComment = "created by automated test"

	DefaultDeleteReason = "deleted by automated test"
	CleanupReason       = "removing leftover automated test fixture"

	DeleteScript   = "del-some-docs.py"
	EditUserScript = "EditUser.py"
)

// SummaryOptions shapes the minimal Summary built by CreateTestSummary.
type SummaryOptions struct {
	Title       string
	Description string
	SVPC        bool // single-view page content summary
	Module      bool // usable only as a module of other summaries
}

type summaryDoc struct {
	XMLName    xml.Name        `xml:"Summary"`
	SVPC       string          `xml:"SVPC,attr,omitempty"`
	ModuleOnly string          `xml:"ModuleOnly,attr,omitempty"`
	MetaData   summaryMetaData `xml:"SummaryMetaData"`
	Title      string          `xml:"SummaryTitle"`
	Section    docSection      `xml:"SummarySection"`
}

type summaryMetaData struct {
	Type        string `xml:"SummaryType"`
	Audience    string `xml:"SummaryAudience"`
	Language    string `xml:"SummaryLanguage"`
	Description string `xml:"SummaryDescription"`
}

type docSection struct {
	Title string `xml:"Title"`
	Para  string `xml:"Para"`
}

type glossaryTermNameDoc struct {
	XMLName xml.Name `xml:"GlossaryTermName"`
	Name    string   `xml:"TermName>TermNameString"`
	Status  string   `xml:"TermNameStatus"`
}

type mediaDoc struct {
	XMLName   xml.Name `xml:"Media"`
	Title     string   `xml:"MediaTitle"`
	ImageType string   `xml:"PhysicalMedia>ImageData>ImageType"`
}

type citationDoc struct {
	XMLName xml.Name `xml:"Citation"`
	Type    string   `xml:"PDQCitation>CitationType"`
	Title   string   `xml:"PDQCitation>CitationTitle"`
}

func yes(flag bool) string {
	if flag {
		return "Yes"
	}
	return ""
}

func marshalDoc(doc interface{}) (string, error) {
	body, err := xml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to build document: %w", err)
	}
	return string(body), nil
}

// SummaryXML returns a minimal English patient treatment summary.
func SummaryXML(opts SummaryOptions) (string, error) {
	if opts.Title == "" {
		opts.Title = "Test English Summary"
	}
	if opts.Description == "" {
		opts.Description = "Summary " + FixtureComment
	}
	return marshalDoc(summaryDoc{
		SVPC:       yes(opts.SVPC),
		ModuleOnly: yes(opts.Module),
		MetaData: summaryMetaData{
			Type:        "Treatment",
			Audience:    "Patients",
			Language:    "English",
			Description: opts.Description,
		},
		Title:   opts.Title,
		Section: docSection{Title: "Test Section", Para: "Test paragraph."},
	})
}

// GlossaryTermNameXML returns a GlossaryTermName with a single name.
func GlossaryTermNameXML(name string) (string, error) {
	if name == "" {
		name = "test glossary term"
	}
	return marshalDoc(glossaryTermNameDoc{Name: name, Status: "Approved"})
}

// MediaXML returns a Media document with only a title and image type.
func MediaXML(title string) (string, error) {
	if title == "" {
		title = "Test Media Document"
	}
	return marshalDoc(mediaDoc{Title: title, ImageType: "diagram"})
}

// CitationXML returns a book citation with only a title.
func CitationXML(title string) (string, error) {
	if title == "" {
		title = "Test Citation"
	}
	return marshalDoc(citationDoc{Type: "Book", Title: title})
}

// apiFailed turns a save error into a test outcome: a status other than
// success is a failure, anything else keeps the test from running on.
func (b *Base) apiFailed(what string, err error) {
	if errors.Is(err, cdrapi.ErrCommandFailed) {
		b.H.Fatalf("%s: %v", what, err)
	}
	b.H.Abort(fmt.Errorf("%s: %w", what, err))
}

// SaveDoc stores docXML through the API and returns the document id.
func (b *Base) SaveDoc(docXML, doctype string, opts cdrapi.SaveOptions) int {
	id, err := b.API.SaveDoc(b.H.Context(), docXML, doctype, opts)
	if err != nil {
		b.apiFailed("save "+doctype, err)
	}
	return id
}

func (b *Base) createDoc(doctype, title string, build func() (string, error)) int {
	docXML, err := build()
	if err != nil {
		b.H.Abort(err)
	}
	id := b.SaveDoc(docXML, doctype, cdrapi.SaveOptions{
		Title:   title,
		Unlock:  true,
		Version: true,
		Comment: FixtureComment,
	})
	b.Logf("created %s %s", doctype, common.CanonicalID(id))
	return id
}

// CreateTestSummary creates a Summary and returns its id.
func (b *Base) CreateTestSummary(opts SummaryOptions) int {
	return b.createDoc("Summary", opts.Title, func() (string, error) { return SummaryXML(opts) })
}

// CreateTestGTN creates a GlossaryTermName and returns its id.
func (b *Base) CreateTestGTN(name string) int {
	return b.createDoc("GlossaryTermName", name, func() (string, error) { return GlossaryTermNameXML(name) })
}

// CreateTestMediaDoc creates a Media document and returns its id.
func (b *Base) CreateTestMediaDoc(title string) int {
	return b.createDoc("Media", title, func() (string, error) { return MediaXML(title) })
}

// CreateTestCitation creates a Citation and returns its id.
func (b *Base) CreateTestCitation(title string) int {
	return b.createDoc("Citation", title, func() (string, error) { return CitationXML(title) })
}

// CreateExternalMapping adds a mapping for value and returns its id.
func (b *Base) CreateExternalMapping(value string, opts cdrapi.MappingOptions) int {
	id, err := b.API.CreateExternalMapping(b.H.Context(), value, opts)
	if err != nil {
		b.apiFailed("add external mapping", err)
	}
	return id
}

// deletedPattern matches the deletion page's confirmation for cdrID.
func deletedPattern(cdrID string) string {
	return regexp.QuoteMeta(cdrID) + ` (has been )?deleted successfully`
}

func (b *Base) canonical(id interface{}) string {
	cdrID, err := common.NormalizeID(id)
	if err != nil {
		b.H.Abort(err)
	}
	return cdrID
}

// submitDeletion fills in the bulk deletion form. Validation is turned off
// so link errors cannot keep a fixture alive.
func (b *Base) submitDeletion(cdrID, reason string) {
	b.NavigateTo(DeleteScript)
	b.SetField("ids", cdrID)
	b.SetField("reason", reason)
	b.SetChecked(OptionID("options", "validate"), false)
	b.SubmitForm(false)
}

// DeleteDoc marks a document deleted and checks for the confirmation.
func (b *Base) DeleteDoc(id interface{}, reason string) {
	if reason == "" {
		reason = DefaultDeleteReason
	}
	cdrID := b.canonical(id)
	b.submitDeletion(cdrID, reason)
	b.Check.Regex(deletedPattern(cdrID))
}

// CleanupDoc deletes a leftover fixture. A deletion that does not go
// through is logged and left for the next run.
func (b *Base) CleanupDoc(id interface{}) {
	cdrID := b.canonical(id)
	b.submitDeletion(cdrID, CleanupReason)
	source, err := b.Browser.PageSource()
	if err == nil && regexp.MustCompile(deletedPattern(cdrID)).MatchString(source) {
		b.Logf("removed leftover %s", cdrID)
		return
	}
	b.logger.Warn().Err(err).Str("cdr_id", cdrID).Str("test", b.H.Name()).Msg("Leftover fixture not deleted")
}

// OptionID is the id the admin pages give the checkbox or radio button
// named name with the given value, e.g. "options-validate".
func OptionID(name, value string) string {
	return name + "-" + browser.Slug(value)
}

// GroupCheckboxID is the id of a group's checkbox on the user editor.
func GroupCheckboxID(group string) string {
	return OptionID("group", group)
}

// AddUserToGroup makes user a member of group.
func (b *Base) AddUserToGroup(user, group string) {
	b.setGroupMembership(user, group, true)
}

// RemoveUserFromGroup takes user out of group.
func (b *Base) RemoveUserFromGroup(user, group string) {
	b.setGroupMembership(user, group, false)
}

func (b *Base) setGroupMembership(user, group string, member bool) {
	b.NavigateTo(EditUserScript, "usr", user)
	b.SetChecked(GroupCheckboxID(group), member)
	b.Press(browser.ButtonID("Save Changes"), false)
	b.Check.PageHas(fmt.Sprintf("Changes to %s saved successfully", user))
}
