package cmd

import (
	"fmt"

	"github.com/shotrec/shotrec/internal/recorder"
	"github.com/spf13/cobra"
)

var (
	packageDirFlag    string
	packageConfigFlag string
)

var packageCmd = &cobra.Command{
	Use:   "package <test-name>...",
	Short: "Zip the screenshots recorded for one or more tests",
	Long: `Package the screenshots of each named test into <dir>/<test-name>.zip.

The archive contains every file under <dir>/<test-name>/ and replaces any
previous archive of the same name. Tests without a screenshot directory
are reported and skipped.

Examples:
  shotrec package login_test
  shotrec package --dir build/screenshots login_test search_test`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPackage,
}

func init() { //nolint:gochecknoinits // Standard cobra pattern
	packageCmd.Flags().StringVar(&packageDirFlag, "dir", "", "Base directory for screenshots")
	packageCmd.Flags().StringVar(&packageConfigFlag, "config", "", "Path to a shotrec config file")
	rootCmd.AddCommand(packageCmd)
}

func runPackage(cmd *cobra.Command, args []string) error {
	dir, err := screenshotsDir(packageConfigFlag, packageDirFlag)
	if err != nil {
		return err
	}

	for _, name := range args {
		rec, err := recorder.New(dir, name)
		if err != nil {
			return err
		}
		archive, err := rec.PackageRecordedScreenshots()
		if err != nil {
			return fmt.Errorf("failed to package %s: %w", name, err)
		}
		if archive == "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "shotrec: no screenshots recorded for %s\n", name)
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), archive)
	}
	return nil
}

// screenshotsDir returns dirFlag when set, otherwise the configured
// screenshot directory.
func screenshotsDir(configPath, dirFlag string) (string, error) {
	if dirFlag != "" {
		return dirFlag, nil
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return "", err
	}
	return cfg.Screenshots.Dir, nil
}
