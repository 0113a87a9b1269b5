package pagecheck

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// USWDSMarker is the stylesheet reference every framework page carries.
const USWDSMarker = "/uswds/css/uswds.min.css"

// Page is the browser view the checks run against.
type Page interface {
	PageSource() (string, error)
	Count(selector string) (int, error)
	SetImplicitWait(d time.Duration) time.Duration
}

// TestingT is where check results go. Failed checks call Errorf then
// FailNow; a page that cannot be read at all calls Abort.
type TestingT interface {
	Errorf(format string, args ...interface{})
	FailNow()
	Helper()
	Abort(err error)
}

// Checker asserts facts about the active tab.
type Checker struct {
	t    TestingT
	page Page
}

// New returns a Checker reporting to t.
func New(t TestingT, page Page) *Checker {
	return &Checker{t: t, page: page}
}

func (c *Checker) failf(format string, args ...interface{}) {
	c.t.Helper()
	c.t.Errorf(format, args...)
	c.t.FailNow()
}

// Source returns the page source, aborting the test if it is unavailable.
func (c *Checker) Source() string {
	c.t.Helper()
	source, err := c.page.PageSource()
	if err != nil {
		c.t.Abort(fmt.Errorf("page source unavailable: %w", err))
	}
	return source
}

func (c *Checker) count(selector string) int {
	c.t.Helper()
	n, err := c.page.Count(selector)
	if err != nil {
		c.t.Abort(err)
	}
	return n
}

// countNow counts matches without waiting for any to appear.
func (c *Checker) countNow(selector string) int {
	c.t.Helper()
	prev := c.page.SetImplicitWait(0)
	defer c.page.SetImplicitWait(prev)
	return c.count(selector)
}

// Title checks for <h1>title</h1>.
func (c *Checker) Title(title string) {
	c.t.Helper()
	want := "<h1>" + title + "</h1>"
	if !strings.Contains(c.Source(), want) {
		c.failf("page title %q not found", title)
	}
}

// PageHas checks that text appears in the page source.
func (c *Checker) PageHas(text string) {
	c.t.Helper()
	if !strings.Contains(c.Source(), text) {
		c.failf("page does not contain %q", text)
	}
}

// PageNotHas checks that text does not appear in the page source.
func (c *Checker) PageNotHas(text string) {
	c.t.Helper()
	if strings.Contains(c.Source(), text) {
		c.failf("page unexpectedly contains %q", text)
	}
}

// compile makes . match newlines and ^/$ match at line breaks.
func compile(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("(?ms)" + pattern)
}

// Regex checks that pattern matches somewhere in the page source.
func (c *Checker) Regex(pattern string) {
	c.t.Helper()
	re, err := compile(pattern)
	if err != nil {
		c.t.Abort(fmt.Errorf("bad pattern %q: %w", pattern, err))
		return
	}
	if !re.MatchString(c.Source()) {
		c.failf("page does not match %q", pattern)
	}
}

// NotRegex checks that pattern matches nowhere in the page source.
func (c *Checker) NotRegex(pattern string) {
	c.t.Helper()
	re, err := compile(pattern)
	if err != nil {
		c.t.Abort(fmt.Errorf("bad pattern %q: %w", pattern, err))
		return
	}
	if re.MatchString(c.Source()) {
		c.failf("page unexpectedly matches %q", pattern)
	}
}

// document parses the current page source.
func (c *Checker) document() *goquery.Document {
	c.t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(c.Source()))
	if err != nil {
		c.t.Abort(fmt.Errorf("failed to parse page: %w", err))
	}
	return doc
}

// TableCaption checks for a table caption span with exactly text.
func (c *Checker) TableCaption(text string) {
	c.t.Helper()
	found := false
	c.document().Find("table > caption > span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Text()) == text {
			found = true
		}
		return !found
	})
	if !found {
		c.failf("no table caption %q", text)
	}
}

// SingleTableReport checks that the page has exactly one table.
func (c *Checker) SingleTableReport() {
	c.t.Helper()
	if n := c.count("table"); n != 1 {
		c.failf("expected one table, found %d", n)
	}
}

// MultiTableReport checks that the page has more than one table.
func (c *Checker) MultiTableReport() {
	c.t.Helper()
	if n := c.count("table"); n < 2 {
		c.failf("expected multiple tables, found %d", n)
	}
}

// NonTabularReport checks that the page has no tables.
func (c *Checker) NonTabularReport() {
	c.t.Helper()
	if n := c.countNow("table"); n != 0 {
		c.failf("expected no tables, found %d", n)
	}
}

// PlainReport checks that the page is not built on the USWDS framework.
func (c *Checker) PlainReport() {
	c.t.Helper()
	if strings.Contains(c.Source(), USWDSMarker) {
		c.failf("page uses the USWDS framework")
	}
}

// TablesInGridContainer checks that report tables sit inside the grid.
func (c *Checker) TablesInGridContainer() {
	c.t.Helper()
	if c.count("main div.grid-container table") == 0 {
		c.failf("no table inside main div.grid-container")
	}
}

// WideReport checks that a table has been let out of the grid.
func (c *Checker) WideReport() {
	c.t.Helper()
	if c.count("main > table") == 0 {
		c.failf("no main > table")
	}
}

// NotFound checks that nothing matches selector, without waiting.
func (c *Checker) NotFound(selector string) {
	c.t.Helper()
	if n := c.countNow(selector); n != 0 {
		c.failf("expected no %q elements, found %d", selector, n)
	}
}

// Tables returns every table on the page.
func (c *Checker) Tables() []*Table {
	c.t.Helper()
	var tables []*Table
	c.document().Find("table").Each(func(_ int, s *goquery.Selection) {
		tables = append(tables, NewTable(s))
	})
	return tables
}

// FirstTable returns the first table on the page, failing if there is none.
func (c *Checker) FirstTable() *Table {
	c.t.Helper()
	tables := c.Tables()
	if len(tables) == 0 {
		c.failf("page has no tables")
		return nil
	}
	return tables[0]
}

// EveryTableHeaders checks the headers of every table on the page. A page
// with no tables fails.
func (c *Checker) EveryTableHeaders(expected ...string) {
	c.t.Helper()
	tables := c.Tables()
	if len(tables) == 0 {
		c.failf("page has no tables")
		return
	}
	for _, table := range tables {
		table.CheckHeaders(c.t, expected...)
	}
}
