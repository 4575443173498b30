package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	queryProject string
	queryRegion  string
	queryMessage string
	querySession string
	queryJSON    bool
)

func init() {
	queryCmd.Flags().StringVar(&queryProject, "project", "", "Cloud project ID")
	queryCmd.Flags().StringVar(&queryRegion, "region", "", "Engine region")
	queryCmd.Flags().StringVarP(&queryMessage, "message", "m", "", "Message to send (required)")
	queryCmd.Flags().StringVar(&querySession, "session", "", "Session ID for multi-turn conversations")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "Output the raw response as JSON")
	queryCmd.MarkFlagRequired("message")
	rootCmd.AddCommand(queryCmd)
}

var queryCmd = &cobra.Command{
	Use:   "query <engine-id>",
	Short: "Send a message to a deployed engine",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := resolveProject(queryProject, nil)
		if err != nil {
			return err
		}
		region, err := resolveRegion(queryRegion, nil)
		if err != nil {
			return err
		}

		input := map[string]interface{}{"message": queryMessage}
		if querySession != "" {
			input["session_id"] = querySession
		}

		resp, err := newEngineClient(project, region).QueryEngine(cmd.Context(), args[0], input)
		if err != nil {
			return err
		}

		if queryJSON {
			return json.NewEncoder(os.Stdout).Encode(resp)
		}
		switch out := resp.Output.(type) {
		case string:
			fmt.Println(out)
		default:
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
		}
		return nil
	},
}
