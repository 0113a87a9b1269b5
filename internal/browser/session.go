package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/cdr-admin-test/internal/common"
)

const (
	// SubmitButton is the id of the standard form's submit button.
	SubmitButton = "submit-button-submit"

	// DefaultVersionPicklist is the id of the version picklist on
	// document report forms.
	DefaultVersionPicklist = "DocVersion"

	retryDelay       = time.Second
	maxReloadWait    = 30 * time.Second
	sourceRetries    = 10
	sourceRetryDelay = 500 * time.Millisecond
)

// ErrNoSuchElement is returned when an element lookup times out.
var ErrNoSuchElement = errors.New("no such element")

type tab struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// Session is one browser owned by one test. It tracks every tab the test
// has touched so a freshly opened tab can be told apart from the rest.
type Session struct {
	config *common.TestConfig
	logger arbor.ILogger

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu              sync.Mutex
	tabs            map[target.ID]*tab
	current         target.ID
	open            *TabSet
	implicitWait    time.Duration
	pageLoadTimeout time.Duration
	closed          bool
}

// NewSession starts a browser for one test. The caller must Close it.
func NewSession(parent context.Context, config *common.TestConfig, logger arbor.ILogger) (*Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, AllocatorOptions(config.Browser, config.Verbose)...)

	var ctxOpts []chromedp.ContextOption
	if config.Verbose {
		ctxOpts = append(ctxOpts, chromedp.WithLogf(func(format string, args ...interface{}) {
			logger.Debug().Msgf("chromedp: "+format, args...)
		}))
	}
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, ctxOpts...)

	// Run with no actions launches the browser and attaches the first tab.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	first := chromedp.FromContext(browserCtx).Target.TargetID
	s := &Session{
		config:          config,
		logger:          logger,
		allocCancel:     allocCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		tabs:            map[target.ID]*tab{first: {ctx: browserCtx, cancel: browserCancel}},
		current:         first,
		open:            NewTabSet(),
		implicitWait:    config.Browser.ImplicitWaitDuration(),
		pageLoadTimeout: config.Browser.PageLoadTimeoutDuration(),
	}
	logger.Debug().Str("tab", string(first)).Msg("Browser started")
	return s, nil
}

// Close shuts the browser down. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	for id, t := range s.tabs {
		if t.ctx != s.browserCtx {
			t.cancel()
		}
		delete(s.tabs, id)
	}
	err := chromedp.Cancel(s.browserCtx)
	s.browserCancel()
	s.allocCancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("browser cancel: %w", err)
	}
	return nil
}

// SetImplicitWait sets how long element lookups wait for a match. It
// returns the previous value.
func (s *Session) SetImplicitWait(d time.Duration) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.implicitWait
	s.implicitWait = d
	return prev
}

// ImplicitWait returns the current element lookup wait.
func (s *Session) ImplicitWait() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.implicitWait
}

// SetPageLoadTimeout sets how long a navigation may take.
func (s *Session) SetPageLoadTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageLoadTimeout = d
}

// Current returns the active tab.
func (s *Session) Current() target.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// OpenTabs returns every tab the test has touched, oldest first.
func (s *Session) OpenTabs() []target.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open.List()
}

// currentCtx returns the chromedp context for the active tab. Once the
// session is closed it returns the cancelled browser context, so every
// action fails instead of reaching a tab that is gone.
func (s *Session) currentCtx() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tabs[s.current]
	if !ok {
		return s.browserCtx
	}
	return t.ctx
}

// waitCtx bounds an element lookup by the implicit wait.
func (s *Session) waitCtx() (context.Context, context.CancelFunc) {
	ctx := s.currentCtx()
	wait := s.ImplicitWait()
	if wait <= 0 {
		// chromedp queries never give up on their own.
		wait = 100 * time.Millisecond
	}
	return context.WithTimeout(ctx, wait)
}

func byID(id string) string {
	return fmt.Sprintf(`[id=%q]`, id)
}

// NavigateTo opens a CGI script in the active tab, with the session token
// added, and returns the tab's handle.
func (s *Session) NavigateTo(script string, params url.Values) (target.ID, error) {
	return s.Open(s.config.CGIURL(script, params))
}

// Open loads rawURL in the active tab.
func (s *Session) Open(rawURL string) (target.ID, error) {
	s.mu.Lock()
	timeout := s.pageLoadTimeout
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(s.currentCtx(), timeout)
	defer cancel()

	s.logger.Debug().Str("url", rawURL).Msg("Navigating")
	if err := chromedp.Run(ctx, chromedp.Navigate(rawURL)); err != nil {
		return "", fmt.Errorf("navigate to %s: %w", rawURL, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.open.Add(s.current)
	return s.current, nil
}

// SubmitForm clicks the standard submit button. With newTab set it returns
// the tab the submission opened; otherwise the page changes in place and
// the returned handle is empty.
func (s *Session) SubmitForm(newTab bool) (target.ID, error) {
	return s.Press(SubmitButton, newTab)
}

// Press clicks a form button by id and waits for the result, either a
// reload of the current tab or, with newTab set, a tab of its own.
func (s *Session) Press(buttonID string, newTab bool) (target.ID, error) {
	if !newTab {
		if err := s.Evaluate(markPageScript, nil); err != nil {
			s.logger.Debug().Err(err).Msg("Failed to mark page before submit")
		}
	}
	if err := s.Click(buttonID); err != nil {
		return "", err
	}
	if !newTab {
		s.waitForReload()
		return "", nil
	}
	return s.SelectNewTab(), nil
}

// ButtonID returns the id the admin pages give the button labelled label,
// e.g. "Save Changes" becomes "submit-button-save-changes".
func ButtonID(label string) string {
	return "submit-button-" + Slug(label)
}

// Slug lowercases s and joins its alphanumeric runs with hyphens, the
// way the admin pages derive element ids from values.
func Slug(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}

// reloadTimeout bounds the wait for a reload by the page load timeout and
// by maxReloadWait, whichever is shorter.
func reloadTimeout(pageLoad time.Duration) time.Duration {
	if pageLoad <= 0 || pageLoad > maxReloadWait {
		return maxReloadWait
	}
	return pageLoad
}

// waitForReload waits until the marked page has been replaced and the new
// one has finished loading. Giving up is not an error: a form that fails
// client-side checks never leaves the page.
func (s *Session) waitForReload() {
	s.mu.Lock()
	timeout := reloadTimeout(s.pageLoadTimeout)
	s.mu.Unlock()

	var done bool
	err := chromedp.Run(s.currentCtx(), chromedp.Poll(reloadedScript, &done,
		chromedp.WithPollingTimeout(timeout),
		chromedp.WithPollingInterval(250*time.Millisecond),
	))
	if err != nil {
		s.logger.Debug().Err(err).Msg("Page did not reload after submit")
	}
}

// Click clicks the element with the given id from script rather than with
// a synthesized mouse event. Framework-styled radio buttons and checkboxes
// hide the real input, which a mouse event cannot reach. One retry is made
// after a short pause.
func (s *Session) Click(id string) error {
	err := s.jsClick(id)
	if err == nil {
		return nil
	}
	s.logger.Debug().Err(err).Str("id", id).Msg("Click failed, retrying")
	time.Sleep(retryDelay)
	if err := s.jsClick(id); err != nil {
		return fmt.Errorf("click %s: %w", id, err)
	}
	return nil
}

func (s *Session) jsClick(id string) error {
	ctx, cancel := s.waitCtx()
	defer cancel()

	var clicked bool
	err := chromedp.Run(ctx,
		chromedp.WaitReady(byID(id), chromedp.ByQuery),
		chromedp.Evaluate(fmt.Sprintf(clickScript, jsString(id)), &clicked),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", ErrNoSuchElement, id)
		}
		return err
	}
	if !clicked {
		return fmt.Errorf("%w: %s", ErrNoSuchElement, id)
	}
	return nil
}

// ClickNative clicks the first element matching a CSS selector with a
// real mouse event. Use it for ordinary links and buttons.
func (s *Session) ClickNative(selector string) error {
	ctx, cancel := s.waitCtx()
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

// SetFieldValue replaces the value of an input or textarea.
func (s *Session) SetFieldValue(id, value string) error {
	return s.SetValue(byID(id), value)
}

// SetValue replaces the value of the first element matching a CSS
// selector, for fields that carry a name but no id.
func (s *Session) SetValue(selector, value string) error {
	ctx, cancel := s.waitCtx()
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.SetValue(selector, value, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("set %s: %w", selector, err)
	}
	return nil
}

// UploadFile attaches a local file to a file input.
func (s *Session) UploadFile(id, path string) error {
	ctx, cancel := s.waitCtx()
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.SetUploadFiles(byID(id), []string{path}, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("upload %s to %s: %w", path, id, err)
	}
	return nil
}

// SelectValues selects the options with the given values in a picklist,
// deselecting the rest.
func (s *Session) SelectValues(id string, values ...string) error {
	ctx, cancel := s.waitCtx()
	defer cancel()

	var matched int
	err := chromedp.Run(ctx,
		chromedp.WaitReady(byID(id), chromedp.ByQuery),
		chromedp.Evaluate(fmt.Sprintf(selectValuesScript, jsString(id), jsStrings(values)), &matched),
	)
	if err != nil {
		return fmt.Errorf("select %s: %w", id, err)
	}
	if matched != len(values) {
		return fmt.Errorf("select %s: %d of %d values found", id, matched, len(values))
	}
	return nil
}

// SelectVersion picks the first option of the picklist whose text
// contains substr. An empty id means the standard version picklist.
func (s *Session) SelectVersion(substr, id string) bool {
	if id == "" {
		id = DefaultVersionPicklist
	}
	ctx, cancel := s.waitCtx()
	defer cancel()

	var found bool
	err := chromedp.Run(ctx,
		chromedp.WaitReady(byID(id), chromedp.ByQuery),
		chromedp.Evaluate(fmt.Sprintf(selectVersionScript, jsString(id), jsString(substr)), &found),
	)
	if err != nil {
		s.logger.Warn().Err(err).Str("id", id).Msg("Version picklist unavailable")
		return false
	}
	return found
}

// IsChecked reports whether the checkbox or radio button is checked.
func (s *Session) IsChecked(id string) (bool, error) {
	ctx, cancel := s.waitCtx()
	defer cancel()

	var checked bool
	err := chromedp.Run(ctx,
		chromedp.WaitReady(byID(id), chromedp.ByQuery),
		chromedp.Evaluate(fmt.Sprintf(checkedScript, jsString(id)), &checked),
	)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", id, err)
	}
	return checked, nil
}

// Evaluate runs a script in the active tab.
func (s *Session) Evaluate(script string, res interface{}) error {
	return chromedp.Run(s.currentCtx(), chromedp.Evaluate(script, res))
}

// Location returns the active tab's URL.
func (s *Session) Location() (string, error) {
	var loc string
	err := chromedp.Run(s.currentCtx(), chromedp.Location(&loc))
	return loc, err
}

// SwitchTo makes a known tab current.
func (s *Session) SwitchTo(id target.ID) error {
	s.mu.Lock()
	_, known := s.tabs[id]
	s.mu.Unlock()

	if !known {
		if err := s.attach(id); err != nil {
			return err
		}
	}

	s.mu.Lock()
	ctx := s.tabs[id].ctx
	s.current = id
	s.mu.Unlock()

	if err := chromedp.Run(ctx, target.ActivateTarget(id)); err != nil {
		return fmt.Errorf("activate tab %s: %w", id, err)
	}
	return nil
}

// attach creates a chromedp context for a tab the browser opened by itself.
func (s *Session) attach(id target.ID) error {
	ctx, cancel := chromedp.NewContext(s.browserCtx, chromedp.WithTargetID(id))
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		return fmt.Errorf("attach tab %s: %w", id, err)
	}
	s.mu.Lock()
	s.tabs[id] = &tab{ctx: ctx, cancel: cancel}
	s.mu.Unlock()
	return nil
}

// handles lists the browser's page tabs.
func (s *Session) handles() ([]target.ID, error) {
	infos, err := chromedp.Targets(s.browserCtx)
	if err != nil {
		return nil, err
	}
	return pageTargets(infos), nil
}

// SelectNewTab finds the first tab not yet touched by the test, records
// it and makes it current. If none has appeared it waits briefly and looks
// once more; it returns an empty handle when there is still none.
func (s *Session) SelectNewTab() target.ID {
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			time.Sleep(retryDelay)
		}
		handles, err := s.handles()
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to list tabs")
			continue
		}
		s.mu.Lock()
		id, ok := s.open.FirstNew(handles)
		s.mu.Unlock()
		if !ok {
			continue
		}
		if err := s.SwitchTo(id); err != nil {
			s.logger.Warn().Err(err).Str("tab", string(id)).Msg("Failed to switch to new tab")
			return ""
		}
		s.mu.Lock()
		s.open.Add(id)
		s.mu.Unlock()
		return id
	}
	s.logger.Warn().Strs("open_tabs", tabStrings(s.OpenTabs())).Msg("No new tab found")
	return ""
}

// PageSource returns the active tab's HTML. It polls briefly until the
// body element is present so a half-loaded page is not returned.
func (s *Session) PageSource() (string, error) {
	var source string
	var err error
	for i := 0; i < sourceRetries; i++ {
		err = chromedp.Run(s.currentCtx(), chromedp.OuterHTML("html", &source, chromedp.ByQuery))
		if err == nil && strings.Contains(source, "<body") {
			return source, nil
		}
		time.Sleep(sourceRetryDelay)
	}
	if err != nil {
		return "", fmt.Errorf("page source: %w", err)
	}
	return source, nil
}

// Count returns the number of elements matching a CSS selector. It waits
// up to the implicit wait for at least one match and returns 0 when none
// turns up.
func (s *Session) Count(selector string) (int, error) {
	deadline := time.Now().Add(s.ImplicitWait())
	for {
		var nodes []*cdp.Node
		err := chromedp.Run(s.currentCtx(), chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)))
		if err != nil {
			return 0, fmt.Errorf("count %s: %w", selector, err)
		}
		if len(nodes) > 0 || !time.Now().Before(deadline) {
			return len(nodes), nil
		}
		time.Sleep(250 * time.Millisecond)
	}
}

// Screenshot saves a full-page PNG of the active tab to path.
func (s *Session) Screenshot(path string) error {
	var buf []byte
	if err := chromedp.Run(s.currentCtx(), chromedp.FullScreenshot(&buf, 90)); err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return fmt.Errorf("failed to save screenshot: %w", err)
	}
	return nil
}

func tabStrings(ids []target.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
