package testbase

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/cdr-admin-test/internal/browser"
	"github.com/ternarybob/cdr-admin-test/internal/common"
	"github.com/ternarybob/cdr-admin-test/internal/harness"
	"github.com/ternarybob/cdr-admin-test/internal/pagecheck"
)

// Base is the per-test scaffolding: one browser, the tabs the test has
// opened, and the navigation, fixture and assertion helpers built on them.
type Base struct {
	*Deps

	H       *harness.H
	Browser *browser.Session
	Check   *pagecheck.Checker

	started   time.Time
	logger    arbor.ILogger
	tempFiles []string
}

// New starts a browser for h and registers the teardown that closes it.
// A browser that cannot be started aborts the test.
func New(h *harness.H, deps *Deps) *Base {
	b := &Base{
		Deps:    deps,
		H:       h,
		started: time.Now(),
		logger:  deps.Logger,
	}

	session, err := browser.NewSession(h.Context(), deps.Config, deps.Logger)
	if err != nil {
		h.Abort(err)
	}
	b.Browser = session
	b.Check = pagecheck.New(h, session)
	h.Cleanup(b.tearDown)
	return b
}

// tearDown saves artifacts for a test that did not pass, then closes the
// browser and removes temporary files.
func (b *Base) tearDown() {
	if b.H.Failed() || b.H.Errored() {
		b.saveArtifacts()
	}
	if err := b.Browser.Close(); err != nil {
		b.logger.Warn().Err(err).Str("test", b.H.Name()).Msg("Failed to close browser")
	}
	for _, path := range b.tempFiles {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			b.logger.Warn().Err(err).Str("file", path).Msg("Failed to remove temporary file")
		}
	}
	b.logger.Info().Msgf("%s elapsed time: %s", b.H.Name(), time.Since(b.started).Round(time.Millisecond))
}

// ArtifactDir is where a failing test's screenshot and page source go.
func (b *Base) ArtifactDir() string {
	return filepath.Join(b.H.OutputDir(), artifactName(b.H.Name()))
}

func artifactName(testName string) string {
	return strings.NewReplacer("/", "_", " ", "_").Replace(testName)
}

func (b *Base) saveArtifacts() {
	dir := b.ArtifactDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		b.logger.Warn().Err(err).Str("dir", dir).Msg("Failed to create artifact directory")
		return
	}
	if err := b.Browser.Screenshot(filepath.Join(dir, "screenshot.png")); err != nil {
		b.logger.Warn().Err(err).Str("test", b.H.Name()).Msg("Failed to save screenshot")
	}
	source, err := b.Browser.PageSource()
	if err != nil {
		b.logger.Warn().Err(err).Str("test", b.H.Name()).Msg("Failed to read page source")
		return
	}
	if err := os.WriteFile(filepath.Join(dir, "page.html"), []byte(source), 0644); err != nil {
		b.logger.Warn().Err(err).Str("test", b.H.Name()).Msg("Failed to save page source")
		return
	}
	b.H.Logf("artifacts saved to %s", dir)
}

// params turns key/value pairs into query values.
func params(pairs []string) (url.Values, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("odd number of parameter strings: %q", pairs)
	}
	values := url.Values{}
	for i := 0; i < len(pairs); i += 2 {
		values.Add(pairs[i], pairs[i+1])
	}
	return values, nil
}

// NavigateTo loads a CGI script in the current tab with the given
// key/value query parameters and returns the tab's handle.
func (b *Base) NavigateTo(script string, pairs ...string) target.ID {
	values, err := params(pairs)
	if err != nil {
		b.H.Abort(err)
	}
	handle, err := b.Browser.NavigateTo(script, values)
	if err != nil {
		b.H.Abort(err)
	}
	return handle
}

// SubmitForm presses the standard submit button. With newTab set it
// returns the handle of the tab the report opened in.
func (b *Base) SubmitForm(newTab bool) target.ID {
	return b.Press(browser.SubmitButton, newTab)
}

// Press clicks the form button with the given id.
func (b *Base) Press(buttonID string, newTab bool) target.ID {
	handle, err := b.Browser.Press(buttonID, newTab)
	if err != nil {
		b.H.Abort(err)
	}
	return handle
}

// Click clicks an element by id from script.
func (b *Base) Click(id string) {
	if err := b.Browser.Click(id); err != nil {
		b.H.Abort(err)
	}
}

// ClickLink follows a link or presses a button with a native click.
func (b *Base) ClickLink(selector string) {
	if err := b.Browser.ClickNative(selector); err != nil {
		b.H.Abort(err)
	}
}

// SetField replaces the value of a text field or textarea.
func (b *Base) SetField(id, value string) {
	if err := b.Browser.SetFieldValue(id, value); err != nil {
		b.H.Abort(err)
	}
}

// SetNamedField replaces the value of the first field matching selector.
func (b *Base) SetNamedField(selector, value string) {
	if err := b.Browser.SetValue(selector, value); err != nil {
		b.H.Abort(err)
	}
}

// Upload attaches a local file to a file input.
func (b *Base) Upload(id, path string) {
	if err := b.Browser.UploadFile(id, path); err != nil {
		b.H.Abort(err)
	}
}

// Select picks the given values in a picklist.
func (b *Base) Select(id string, values ...string) {
	if err := b.Browser.SelectValues(id, values...); err != nil {
		b.H.Abort(err)
	}
}

// SelectVersion picks the first version whose label contains substr and
// fails the test when there is none.
func (b *Base) SelectVersion(substr, id string) {
	if !b.Browser.SelectVersion(substr, id) {
		b.H.Fatalf("no version matching %q", substr)
	}
}

// SetChecked makes a checkbox's state match checked.
func (b *Base) SetChecked(id string, checked bool) {
	current, err := b.Browser.IsChecked(id)
	if err != nil {
		b.H.Abort(err)
	}
	if current != checked {
		b.Click(id)
	}
}

// SelectNewTab switches to the tab opened by the last action.
func (b *Base) SelectNewTab() target.ID {
	return b.Browser.SelectNewTab()
}

// SwitchTo returns to a tab the test opened earlier.
func (b *Base) SwitchTo(handle target.ID) {
	if err := b.Browser.SwitchTo(handle); err != nil {
		b.H.Abort(err)
	}
}

// SetPageLoadTimeout raises or lowers the navigation timeout for this test.
func (b *Base) SetPageLoadTimeout(d time.Duration) {
	b.Browser.SetPageLoadTimeout(d)
}

// TempFile writes content to a file named name in a fresh temporary
// directory and removes it at teardown.
func (b *Base) TempFile(name, content string) string {
	dir, err := os.MkdirTemp("", "cdr-admin-test-")
	if err != nil {
		b.H.Abort(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		b.H.Abort(err)
	}
	b.tempFiles = append(b.tempFiles, path, dir)
	return path
}

// Logf writes to both the test log and the run log.
func (b *Base) Logf(format string, args ...interface{}) {
	b.H.Logf(format, args...)
	b.logger.Debug().Str("test", b.H.Name()).Msgf(format, args...)
}

// CanonicalID is a shortcut for the "CDR" plus ten digits form of id.
func CanonicalID(id int) string {
	return common.CanonicalID(id)
}
