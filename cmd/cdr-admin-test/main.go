package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/cdr-admin-test/internal/common"
	"github.com/ternarybob/cdr-admin-test/internal/harness"
	"github.com/ternarybob/cdr-admin-test/internal/suites"
	"github.com/ternarybob/cdr-admin-test/internal/testbase"
)

const reportFile = "results.json"

var (
	// Command-line flags
	configFile string
	host       string
	api        string
	session    string
	verbose    bool
	tests      []string
)

var rootCmd = &cobra.Command{
	Use:   "cdr-admin-test [flags] [Suite | Suite.Test ...]",
	Short: "Regression tests for the CDR administrative web interface",
	Long: "Drives a headless browser through the CDR admin CGI pages on a live tier,\n" +
		"creating and deleting its own fixture documents through the CDR API.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "TOML configuration file")
	flags.StringVar(&host, "host", "", "CGI tier host name (overrides config)")
	flags.StringVar(&api, "api", "", "CDR API host name (overrides config)")
	flags.StringVar(&session, "session", "", "CDR session token (required)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Report each test as it runs and log at debug level")
	flags.StringArrayVarP(&tests, "tests", "t", nil, "Run only matching tests, e.g. Summaries or Summaries.TestCreate* (repeatable)")
	rootCmd.MarkFlagRequired("session")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if msg := unreported(err); msg != "" {
			fmt.Fprintln(os.Stderr, "Error:", msg)
		}
		os.Exit(1)
	}
}

// reportedError wraps an error run has already logged.
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error {
	return e.error
}

// unreported returns the message main must print for err, or "" when run
// has already logged it. Flag and argument errors from cobra come back
// here unlogged.
func unreported(err error) string {
	var reported reportedError
	if err == nil || errors.As(err, &reported) {
		return ""
	}
	return err.Error()
}

// runDir is the per-run output directory under the configured one.
func runDir(config *common.TestConfig, runID string) string {
	return filepath.Join(config.Output.Dir, runID)
}

func run(cmd *cobra.Command, args []string) error {
	// Startup sequence: config file, flag overrides, validation, logger, banner.
	config, err := common.LoadFromFile(configFile)
	if err != nil {
		common.GetLogger().Error().Str("path", configFile).Err(err).Msg("Failed to load configuration")
		return reportedError{err}
	}
	common.ApplyFlagOverrides(config, host, api, session, verbose, append(tests, args...))
	if err := config.Validate(); err != nil {
		common.GetLogger().Error().Err(err).Msg("Configuration rejected")
		return reportedError{err}
	}

	logger := common.SetupLogger(config)
	common.PrintBanner()

	runID := common.NewRunID()
	outputDir := runDir(config, runID)

	logger.Info().
		Str("host", config.Host).
		Str("api", config.API).
		Str("run_id", runID).
		Strs("tests", config.Tests).
		Str("output", outputDir).
		Str("log_file", common.GetLogFilePath(logger)).
		Msg("Starting CDR admin regression run")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	suite := harness.NewSuite(harness.Options{
		OutputDir: outputDir,
		Verbose:   config.Verbose,
		Match:     config.Tests,
		Logger:    logger,
		Reporters: harness.Reporters{
			harness.NewJSONReporter(reportFile, runID, common.GetFullVersion()),
		},
	}, suites.All(testbase.NewDeps(config, logger, outputDir))...)

	start := time.Now()
	err = suite.Run(ctx)
	counters := suite.Result().Counters()
	logger.Info().
		Dur("elapsed", time.Since(start)).
		Int("run", counters.Run()).
		Msg(counters.Summary())
	fmt.Println(counters.Summary())

	return finish(logger, err)
}

func finish(logger arbor.ILogger, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, harness.ErrSuiteEmpty):
		logger.Warn().Msg("No tests matched the selectors")
	case errors.Is(err, harness.ErrSuiteFailed):
		logger.Error().Msg("Regression run failed")
	default:
		logger.Error().Err(err).Msg("Regression run could not complete")
	}
	return reportedError{err}
}
