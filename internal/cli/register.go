package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentpack-labs/agentpack/internal/discovery"
)

var (
	registerProject  string
	registerEngine   string
	registerName     string
	registerDesc     string
	registerToolDesc string
)

func init() {
	registerCmd.Flags().StringVar(&registerProject, "project", "", "Cloud project ID")
	registerCmd.Flags().StringVar(&registerEngine, "engine", "", "Full engine resource name to register (required)")
	registerCmd.Flags().StringVar(&registerName, "display-name", "", "Display name for the agent entry")
	registerCmd.Flags().StringVar(&registerDesc, "description", "", "Agent description shown to users")
	registerCmd.Flags().StringVar(&registerToolDesc, "tool-description", "", "Description shown to the routing model")
	registerCmd.MarkFlagRequired("engine")
	rootCmd.AddCommand(registerCmd)

	unregisterCmd.Flags().StringVar(&registerProject, "project", "", "Cloud project ID")
	rootCmd.AddCommand(unregisterCmd)
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a deployed engine with the assistant",
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := resolveProject(registerProject, nil)
		if err != nil {
			return err
		}

		displayName := registerName
		if displayName == "" {
			// Fall back to the trailing resource ID.
			displayName = trailingID(registerEngine)
		}
		toolDesc := registerToolDesc
		if toolDesc == "" {
			toolDesc = registerDesc
		}

		agent, err := discovery.NewClient(project, tokenSource()).
			Register(cmd.Context(), displayName, registerDesc, toolDesc, registerEngine)
		if err != nil {
			return err
		}
		fmt.Printf("Registered agent %s\n", agent.Name)
		return nil
	},
}

var unregisterCmd = &cobra.Command{
	Use:   "unregister <agent-name>",
	Short: "Remove an agent entry from the assistant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := resolveProject(registerProject, nil)
		if err != nil {
			return err
		}
		if err := discovery.NewClient(project, tokenSource()).Unregister(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Unregistered %s\n", args[0])
		return nil
	},
}

func trailingID(resource string) string {
	for i := len(resource) - 1; i >= 0; i-- {
		if resource[i] == '/' {
			return resource[i+1:]
		}
	}
	return resource
}
