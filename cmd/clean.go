package cmd

import (
	"fmt"

	"github.com/shotrec/shotrec/internal/recorder"
	"github.com/spf13/cobra"
)

var (
	cleanDirFlag    string
	cleanConfigFlag string
)

var cleanCmd = &cobra.Command{
	Use:   "clean <test-name>...",
	Short: "Delete the screenshots recorded for one or more tests",
	Long: `Delete the .png files under <dir>/<test-name>/ and, once it is empty,
the directory itself.

Files that are not screenshots are left alone; the directory is then kept
and a warning is printed. Cleaning a test that has no screenshots is not
an error.

Examples:
  shotrec clean login_test
  shotrec clean --dir build/screenshots login_test search_test`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClean,
}

func init() { //nolint:gochecknoinits // Standard cobra pattern
	cleanCmd.Flags().StringVar(&cleanDirFlag, "dir", "", "Base directory for screenshots")
	cleanCmd.Flags().StringVar(&cleanConfigFlag, "config", "", "Path to a shotrec config file")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	dir, err := screenshotsDir(cleanConfigFlag, cleanDirFlag)
	if err != nil {
		return err
	}

	for _, name := range args {
		rec, err := recorder.New(dir, name)
		if err != nil {
			return err
		}
		gone, err := rec.DeleteRecordedScreenshots()
		if err != nil {
			return fmt.Errorf("failed to clean %s: %w", name, err)
		}
		if !gone {
			fmt.Fprintf(cmd.ErrOrStderr(), "shotrec: warning: %s still contains other files\n", rec.Dir())
			continue
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "shotrec: removed screenshots for %s\n", name)
	}
	return nil
}
