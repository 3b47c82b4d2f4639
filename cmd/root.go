// Package cmd implements the shotrec Cobra command tree.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// Version, Commit, and Date are set at build time via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "shotrec",
	Short: "Record browser screenshots after every automation command",
	Long: `shotrec - screenshot recording for browser automation scripts

Runs step scripts against Chrome and captures a screenshot after every
command, so a failing run can be replayed frame by frame. Screenshots are
written to <dir>/<test-name>/ and can be packaged into a zip archive or
deleted once the script has finished.

Examples:
  # Run scripts, package screenshots of failing tests
  shotrec run --on-failure package login.yaml search.yaml

  # Package or delete the screenshots of a previous run
  shotrec package login_test
  shotrec clean login_test

  # Check scripts without running them
  shotrec validate login.yaml`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. An interrupt cancels running scripts.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() { //nolint:gochecknoinits
	rootCmd.SetVersionTemplate(fmt.Sprintf("shotrec version {{.Version}} (commit: %s, built: %s)\n", Commit, Date))
}
