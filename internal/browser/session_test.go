package browser

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/cdr-admin-test/internal/common"
)

// chromePath finds a browser to drive, skipping the test when there is none.
// CDR_CHROME_PATH overrides the search.
func chromePath(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}
	if path := os.Getenv("CDR_CHROME_PATH"); path != "" {
		return path
	}
	for _, name := range []string{"chromium", "chromium-browser", "google-chrome", "google-chrome-stable", "headless-shell"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	t.Skip("Chrome not found, skipping browser test")
	return ""
}

const adminFormPage = `<!DOCTYPE html>
<html><head><title>Admin</title></head><body><main>
<h1>Drug Review Report</h1>
<form id="report" action="Report.py" method="get" target="_blank">
<input type="hidden" name="Session" value="%[1]s">
<button type="submit" id="submit-button-submit" name="Request" value="Submit">Submit</button>
</form>
<form id="later" action="Report.py" method="get" target="_blank"></form>
<button type="button" id="submit-button-later"
  onclick="setTimeout(() => document.getElementById('later').submit(), 300)">Later</button>
<form action="Form.py" method="get">
<input type="hidden" name="Session" value="%[1]s">
<input type="hidden" name="step" value="2">
<button type="submit" id="submit-button-save-changes">Save Changes</button>
</form>
<button type="button" id="submit-button-nothing">Nothing</button>
</main></body></html>`

const adminReportPage = `<!DOCTYPE html>
<html><body><main>
<h1>Drug Review Report</h1>
<table><thead><tr><th>CDR ID</th></tr></thead><tbody><tr><td>CDR0000012345</td></tr></tbody></table>
</main></body></html>`

const lateTablePage = `<!DOCTYPE html>
<html><body><main><h1>Late Table</h1><div id="slot"></div>
<script>setTimeout(() => {
	document.getElementById("slot").innerHTML = "<table><tr><td>1</td></tr></table>";
}, 500)</script>
</main></body></html>`

// adminSite serves a few pages shaped like the admin CGI scripts and
// remembers the Session parameter of every request.
type adminSite struct {
	*httptest.Server

	mu       sync.Mutex
	sessions []string
}

func newAdminSite(t *testing.T) *adminSite {
	t.Helper()
	site := &adminSite{}
	mux := http.NewServeMux()
	page := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			site.mu.Lock()
			site.sessions = append(site.sessions, r.URL.Query().Get("Session"))
			site.mu.Unlock()
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			out := body
			if strings.Contains(out, "%[1]s") {
				out = fmt.Sprintf(out, r.URL.Query().Get("Session"))
			}
			fmt.Fprint(w, out)
		}
	}
	mux.HandleFunc("/cgi-bin/cdr/Form.py", page(adminFormPage))
	mux.HandleFunc("/cgi-bin/cdr/Report.py", page(adminReportPage))
	mux.HandleFunc("/cgi-bin/cdr/LateTable.py", page(lateTablePage))
	site.Server = httptest.NewTLSServer(mux)
	t.Cleanup(site.Close)
	return site
}

func (a *adminSite) Sessions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.sessions...)
}

func newTestSession(t *testing.T, site *adminSite) *Session {
	t.Helper()
	config := common.NewDefaultConfig()
	config.Host = site.Listener.Addr().String()
	config.Session = "guest-session"
	config.Browser.ChromePath = chromePath(t)
	config.Browser.ImplicitWait = "5s"
	config.Browser.PageLoadTimeout = "30s"

	s, err := NewSession(t.Context(), config, arbor.NewNoOpLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSession_NavigateToRecordsTab(t *testing.T) {
	site := newAdminSite(t)
	s := newTestSession(t, site)

	handle, err := s.NavigateTo("Form.py", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, handle)
	assert.Equal(t, handle, s.Current())
	assert.Equal(t, []target.ID{handle}, s.OpenTabs())
	assert.Contains(t, site.Sessions(), "guest-session")

	// Reloading the same tab does not add it twice.
	again, err := s.Open(site.URL + "/cgi-bin/cdr/Form.py?Session=guest-session")
	require.NoError(t, err)
	assert.Equal(t, handle, again)
	assert.Len(t, s.OpenTabs(), 1)

	source, err := s.PageSource()
	require.NoError(t, err)
	assert.Contains(t, source, "<body")
	assert.Contains(t, source, "<h1>Drug Review Report</h1>")
}

func TestSession_SubmitFormOpensNewTab(t *testing.T) {
	site := newAdminSite(t)
	s := newTestSession(t, site)

	formTab, err := s.NavigateTo("Form.py", nil)
	require.NoError(t, err)

	reportTab, err := s.SubmitForm(true)
	require.NoError(t, err)
	require.NotEmpty(t, reportTab)
	assert.NotEqual(t, formTab, reportTab)
	assert.Equal(t, reportTab, s.Current())
	assert.Equal(t, []target.ID{formTab, reportTab}, s.OpenTabs())

	n, err := s.Count("table")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Going back to the form works on a tab the session already knows.
	require.NoError(t, s.SwitchTo(formTab))
	source, err := s.PageSource()
	require.NoError(t, err)
	assert.Contains(t, source, `id="submit-button-submit"`)
}

func TestSession_SelectNewTabWaitsForLateTab(t *testing.T) {
	site := newAdminSite(t)
	s := newTestSession(t, site)

	formTab, err := s.NavigateTo("Form.py", nil)
	require.NoError(t, err)

	// The tab opens after the first look has been made.
	reportTab, err := s.Press(ButtonID("Later"), true)
	require.NoError(t, err)
	require.NotEmpty(t, reportTab)
	assert.Equal(t, reportTab, s.Current())
	assert.Equal(t, []target.ID{formTab, reportTab}, s.OpenTabs())
}

func TestSession_SelectNewTabWithoutNewTab(t *testing.T) {
	site := newAdminSite(t)
	s := newTestSession(t, site)

	formTab, err := s.NavigateTo("Form.py", nil)
	require.NoError(t, err)

	handle, err := s.Press(ButtonID("Nothing"), true)
	require.NoError(t, err)
	assert.Empty(t, handle)
	assert.Equal(t, formTab, s.Current())
	assert.Equal(t, []target.ID{formTab}, s.OpenTabs())
}

func TestSession_PressReloadsInPlace(t *testing.T) {
	site := newAdminSite(t)
	s := newTestSession(t, site)

	formTab, err := s.NavigateTo("Form.py", nil)
	require.NoError(t, err)

	handle, err := s.Press(ButtonID("Save Changes"), false)
	require.NoError(t, err)
	assert.Empty(t, handle)
	assert.Equal(t, formTab, s.Current())

	loc, err := s.Location()
	require.NoError(t, err)
	assert.Contains(t, loc, "step=2")
}

func TestSession_ClickMissingElement(t *testing.T) {
	site := newAdminSite(t)
	s := newTestSession(t, site)

	_, err := s.NavigateTo("Form.py", nil)
	require.NoError(t, err)

	s.SetImplicitWait(200 * time.Millisecond)
	err = s.Click("submit-button-missing")
	assert.ErrorIs(t, err, ErrNoSuchElement)
}

func TestSession_CountHonoursImplicitWait(t *testing.T) {
	site := newAdminSite(t)
	s := newTestSession(t, site)

	assert.Equal(t, 5*time.Second, s.SetImplicitWait(5*time.Second))

	_, err := s.NavigateTo("LateTable.py", nil)
	require.NoError(t, err)

	n, err := s.Count("table")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	prev := s.SetImplicitWait(0)
	assert.Equal(t, 5*time.Second, prev)
	assert.Equal(t, time.Duration(0), s.ImplicitWait())

	start := time.Now()
	n, err = s.Count("ul")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSession_CloseTwice(t *testing.T) {
	site := newAdminSite(t)
	s := newTestSession(t, site)

	_, err := s.NavigateTo("Form.py", nil)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	var n int
	assert.Error(t, s.Evaluate("1", &n))
}
