package browser

import (
	"sort"

	"github.com/chromedp/chromedp"

	"github.com/ternarybob/cdr-admin-test/internal/common"
)

// allocatorFlags returns the command-line switches for the browser. Chrome's
// own logging switch is only passed when the run is verbose.
func allocatorFlags(cfg common.BrowserConfig, verbose bool) map[string]interface{} {
	flags := map[string]interface{}{
		"headless":                  cfg.Headless,
		"ignore-certificate-errors": true,
		"disable-gpu":               true,
	}
	if verbose {
		flags["enable-logging"] = true
		flags["v"] = "1"
	}
	return flags
}

// AllocatorOptions builds the exec allocator options for a test's browser.
func AllocatorOptions(cfg common.BrowserConfig, verbose bool) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption(nil), chromedp.DefaultExecAllocatorOptions[:]...)

	flags := allocatorFlags(cfg, verbose)
	names := make([]string, 0, len(flags))
	for name := range flags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		opts = append(opts, chromedp.Flag(name, flags[name]))
	}

	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight))
	}
	if cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromePath))
	}
	return opts
}
