package common

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// TestConfig is the process-wide configuration for a regression run.
// It is populated once at startup and read-only afterwards.
type TestConfig struct {
	Host    string   `toml:"host" validate:"required,hostname|hostname_port"` // CGI tier, e.g. cdr-qa.cancer.gov
	API     string   `toml:"api" validate:"required,hostname|hostname_port"`  // XML API tier
	Session string   `toml:"-" validate:"required"`                           // never read from disk
	Verbose bool     `toml:"verbose"`
	Tests   []string `toml:"tests"` // optional selectors, "Suite" or "Suite.Method"

	Browser BrowserConfig `toml:"browser"`
	Logging LoggingConfig `toml:"logging"`
	Output  OutputConfig  `toml:"output"`
}

// BrowserConfig controls the automated browser each test gets.
type BrowserConfig struct {
	Headless        bool   `toml:"headless"`
	ImplicitWait    string `toml:"implicit_wait"`     // e.g. "15s" - how long element lookups wait
	PageLoadTimeout string `toml:"page_load_timeout"` // e.g. "5m"
	WindowWidth     int    `toml:"window_width" validate:"gte=0"`
	WindowHeight    int    `toml:"window_height" validate:"gte=0"`
	ChromePath      string `toml:"chrome_path"` // empty = let chromedp find it
}

type LoggingConfig struct {
	Level string `toml:"level" validate:"omitempty,oneof=trace debug info warn error"`
	File  string `toml:"file"`
}

type OutputConfig struct {
	Dir string `toml:"dir"` // screenshots, page dumps, crash files
}

// NewDefaultConfig returns the configuration used when no file is given.
func NewDefaultConfig() *TestConfig {
	return &TestConfig{
		Browser: BrowserConfig{
			Headless:        true,
			ImplicitWait:    "15s",
			PageLoadTimeout: "5m",
			WindowWidth:     1920,
			WindowHeight:    1080,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "test-cdr-admin.log",
		},
		Output: OutputConfig{
			Dir: "test-results",
		},
	}
}

// LoadFromFile layers a TOML file over the defaults. An empty path is not an error.
func LoadFromFile(path string) (*TestConfig, error) {
	config := NewDefaultConfig()
	if path == "" {
		return config, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return config, nil
}

// ApplyFlagOverrides installs the command-line values, which always win.
func ApplyFlagOverrides(config *TestConfig, host, api, session string, verbose bool, tests []string) {
	if host != "" {
		config.Host = host
	}
	if api != "" {
		config.API = api
	}
	if session != "" {
		config.Session = session
	}
	if verbose {
		config.Verbose = true
		config.Logging.Level = "debug"
	}
	if len(tests) > 0 {
		config.Tests = append([]string(nil), tests...)
	}
}

// Validate checks the configuration before any test runs.
func (c *TestConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	for name, value := range map[string]string{
		"browser.implicit_wait":     c.Browser.ImplicitWait,
		"browser.page_load_timeout": c.Browser.PageLoadTimeout,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, value, err)
		}
	}
	return nil
}

// ImplicitWaitDuration returns the element lookup wait, defaulting to 15s.
func (b BrowserConfig) ImplicitWaitDuration() time.Duration {
	return parseDurationOr(b.ImplicitWait, 15*time.Second)
}

// PageLoadTimeoutDuration returns the navigation timeout, defaulting to 5m.
func (b BrowserConfig) PageLoadTimeoutDuration() time.Duration {
	return parseDurationOr(b.PageLoadTimeout, 5*time.Minute)
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// CGIBase is the root of the admin CGI scripts.
func (c *TestConfig) CGIBase() string {
	return fmt.Sprintf("https://%s/cgi-bin/cdr/", c.Host)
}

// APIURL is the endpoint for CdrCommandSet envelopes.
func (c *TestConfig) APIURL() string {
	return fmt.Sprintf("https://%s/", c.API)
}

// CGIURL builds a script URL carrying the session token. A Session value
// already present in params is left alone.
func (c *TestConfig) CGIURL(script string, params url.Values) string {
	values := url.Values{}
	for k, v := range params {
		values[k] = append([]string(nil), v...)
	}
	if values.Get("Session") == "" {
		values.Set("Session", c.Session)
	}
	script = strings.TrimPrefix(script, "/")
	return c.CGIBase() + script + "?" + values.Encode()
}
