package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/cdr-admin-test/internal/common"
	"github.com/ternarybob/cdr-admin-test/internal/harness"
)

func TestRunDir_LeavesConfigAlone(t *testing.T) {
	config := common.NewDefaultConfig()
	config.Host = "cdr-qa.cancer.gov"
	config.API = "cdrapi-qa.cancer.gov"
	config.Session = "guest-session"
	require.NoError(t, config.Validate())

	dir := runDir(config, "20261017-101500-ab12cd34")
	assert.Equal(t, filepath.Join("test-results", "20261017-101500-ab12cd34"), dir)
	assert.Equal(t, "test-results", config.Output.Dir)
	assert.Equal(t, dir, runDir(config, "20261017-101500-ab12cd34"))
}

func TestExecute_MissingSessionIsPrintedOnce(t *testing.T) {
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs([]string{"--host", "cdr-qa.cancer.gov"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		host = ""
	})

	err := rootCmd.Execute()
	require.Error(t, err)

	// cobra stays quiet and main prints the message itself.
	assert.Empty(t, errOut.String())
	assert.Contains(t, unreported(err), "session")
}

func TestUnreported(t *testing.T) {
	assert.Empty(t, unreported(nil))
	assert.Equal(t, "unknown flag: --hots", unreported(errors.New("unknown flag: --hots")))

	logger := arbor.NewNoOpLogger()
	assert.Nil(t, finish(logger, nil))

	err := finish(logger, harness.ErrSuiteFailed)
	assert.ErrorIs(t, err, harness.ErrSuiteFailed)
	assert.Empty(t, unreported(err))

	err = finish(logger, harness.ErrSuiteEmpty)
	assert.ErrorIs(t, err, harness.ErrSuiteEmpty)
	assert.Empty(t, unreported(err))
}
