package common

import (
	"fmt"

	"github.com/ternarybob/banner"
)

// Set via -ldflags during build.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// GetFullVersion returns version with commit info
func GetFullVersion() string {
	return fmt.Sprintf("%s (commit: %s)", Version, GitCommit)
}

// PrintBanner displays the runner banner
func PrintBanner() {
	banner.Print("CDR Admin Tests", Version)
}
