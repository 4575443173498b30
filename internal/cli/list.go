package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/agentpack-labs/agentpack/internal/discovery"
)

var (
	listProject string
	listRegion  string
	listJSON    bool
)

func init() {
	listCmd.PersistentFlags().StringVar(&listProject, "project", "", "Cloud project ID")
	listCmd.PersistentFlags().StringVar(&listRegion, "region", "", "Engine region")
	listCmd.PersistentFlags().BoolVar(&listJSON, "json", false, "Output JSON")
	listCmd.AddCommand(listEnginesCmd)
	listCmd.AddCommand(listAgentsCmd)
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List deployed engines and registered agents",
}

var listEnginesCmd = &cobra.Command{
	Use:   "engines",
	Short: "List deployed agent engines",
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := resolveProject(listProject, nil)
		if err != nil {
			return err
		}
		region, err := resolveRegion(listRegion, nil)
		if err != nil {
			return err
		}

		engines, err := newEngineClient(project, region).ListEngines(cmd.Context())
		if err != nil {
			return err
		}

		if listJSON {
			return json.NewEncoder(os.Stdout).Encode(engines)
		}
		if len(engines) == 0 {
			fmt.Println("No engines deployed.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDISPLAY NAME\tCREATED")
		for i := range engines {
			e := &engines[i]
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.ID(), e.DisplayName, e.CreateTime.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var listAgentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List agents registered with the assistant",
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := resolveProject(listProject, nil)
		if err != nil {
			return err
		}

		agents, err := discovery.NewClient(project, tokenSource()).List(cmd.Context())
		if err != nil {
			return err
		}

		if listJSON {
			return json.NewEncoder(os.Stdout).Encode(agents)
		}
		if len(agents) == 0 {
			fmt.Println("No agents registered.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDISPLAY NAME\tENGINE")
		for i := range agents {
			a := &agents[i]
			engineRes := ""
			if a.Definition != nil {
				engineRes = a.Definition.ProvisionedReasoningEngine.ReasoningEngine
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", a.Name, a.DisplayName, engineRes)
		}
		return w.Flush()
	},
}
