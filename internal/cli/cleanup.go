package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentpack-labs/agentpack/internal/cleanup"
)

var (
	cleanupProject string
	cleanupRegion  string
	cleanupPrefix  string
	cleanupMaxAge  time.Duration
	cleanupDryRun  bool
)

func init() {
	cleanupCmd.Flags().StringVar(&cleanupProject, "project", "", "Cloud project ID")
	cleanupCmd.Flags().StringVar(&cleanupRegion, "region", "", "Engine region")
	cleanupCmd.Flags().StringVar(&cleanupPrefix, "prefix", "", "Only delete engines whose display name has this prefix")
	cleanupCmd.Flags().DurationVar(&cleanupMaxAge, "max-age", 0, "Only delete engines older than this (e.g. 24h)")
	cleanupCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false, "List matching engines without deleting")
	rootCmd.AddCommand(cleanupCmd)
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete stale CI engines in bulk",
	Long: `Delete deployed engines matching a display-name prefix and age cutoff.
Intended for CI pipelines that deploy throwaway engines per run.

Example:
  agentpack cleanup --prefix ci- --max-age 24h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cleanupPrefix == "" && cleanupMaxAge == 0 {
			return fmt.Errorf("refusing to delete all engines: pass --prefix and/or --max-age")
		}

		project, err := resolveProject(cleanupProject, nil)
		if err != nil {
			return err
		}
		region, err := resolveRegion(cleanupRegion, nil)
		if err != nil {
			return err
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		cleaner := cleanup.New(newEngineClient(project, region), cleanup.Options{
			Prefix: cleanupPrefix,
			MaxAge: cleanupMaxAge,
			DryRun: cleanupDryRun,
		}, logger)

		result, err := cleaner.Run(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println(result.Summary())
		if result.Failures() {
			return fmt.Errorf("%d engine(s) could not be deleted", len(result.Failed))
		}
		return nil
	},
}
