package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentpack-labs/agentpack/internal/catalog"
	"github.com/agentpack-labs/agentpack/internal/config"
)

func init() {
	catalogCmd.AddCommand(catalogUpdateCmd)
	catalogCmd.AddCommand(catalogInfoCmd)
	catalogCmd.AddCommand(catalogListCmd)
	rootCmd.AddCommand(catalogCmd)
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the template catalog",
	Long: `Manage the remote catalog of agent project templates.

The catalog is a shallow clone of the template repository's templates/
directory, stored under the user config directory. Templates from the
catalog are consumed via 'create --template <path>'.`,
}

var catalogUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Clone or refresh the template catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.EnsureDir(); err != nil {
			return err
		}
		dir := config.CatalogDir()

		fmt.Fprintf(cmd.OutOrStdout(), "Updating catalog at %s...\n", dir)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := catalog.Clone(dir); err != nil {
				return fmt.Errorf("cloning catalog: %w", err)
			}
		} else if err := catalog.Update(dir); err != nil {
			return fmt.Errorf("updating catalog: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Catalog updated successfully.")
		return nil
	},
}

var catalogInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show catalog status and location",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := config.CatalogDir()
		fmt.Fprintf(cmd.OutOrStdout(), "Catalog path: %s\n", dir)
		fmt.Fprintf(cmd.OutOrStdout(), "Repo URL:     %s\n", catalog.RepoURL())

		if _, err := os.Stat(dir); os.IsNotExist(err) {
			fmt.Fprintln(cmd.OutOrStdout(), "Status:       not installed")
			fmt.Fprintf(cmd.OutOrStdout(), "\nRun '%s catalog update' to install.\n", rootCmd.Use)
			return nil
		}

		lastUpdated := catalog.ReadFreshnessMarker(dir)
		if lastUpdated.IsZero() {
			fmt.Fprintln(cmd.OutOrStdout(), "Last updated: unknown")
		} else {
			age := time.Since(lastUpdated).Truncate(time.Minute)
			fmt.Fprintf(cmd.OutOrStdout(), "Last updated: %s (%s ago)\n", lastUpdated.Format(time.RFC3339), age)
		}

		if catalog.IsStale(dir, catalog.DefaultMaxAge) {
			fmt.Fprintf(cmd.OutOrStdout(), "Status:       stale (run '%s catalog update')\n", rootCmd.Use)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "Status:       up to date")
		}
		return nil
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates available in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := config.CatalogDir()
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("catalog not installed: run '%s catalog update' first", rootCmd.Use)
		}

		templates, err := catalog.List(dir)
		if err != nil {
			return err
		}
		if len(templates) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No templates in catalog.")
			return nil
		}
		for _, t := range templates {
			fmt.Fprintln(cmd.OutOrStdout(), t)
		}
		return nil
	},
}
