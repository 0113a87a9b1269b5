package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/cdr-admin-test/internal/common"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cdr-admin-test version %s\n", common.GetFullVersion())
	},
}
