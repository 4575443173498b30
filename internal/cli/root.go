package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentpack-labs/agentpack/internal/branding"
	"github.com/agentpack-labs/agentpack/internal/catalog"
	"github.com/agentpack-labs/agentpack/internal/config"
	"github.com/agentpack-labs/agentpack/internal/updater"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` scaffolds, deploys, and operates generative-AI agent projects:
chat, RAG, and live-audio agents on the vendor's agent platform, with a local
playground, a websocket relay, load testing, and CI cleanup.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Skip banners for commands that manage their own state and for
		// long-running servers.
		switch cmd.Name() {
		case "update", "self-update", "catalog", "relay", "playground":
			return
		}

		// Non-blocking banner from cached version check.
		u := updater.New(buildVersion)
		u.CheckAndPrintBanner(os.Stderr, config.Dir())

		// Catalog freshness warning, no network.
		catalogDir := config.CatalogDir()
		if _, err := os.Stat(catalogDir); err == nil {
			if catalog.IsStale(catalogDir, catalog.DefaultMaxAge) {
				fmt.Fprintf(os.Stderr, "Template catalog is more than 7 days old. Run '%s catalog update'.\n", branding.CLIName())
			}
		}
	},
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return rootCmd.Execute()
}
