package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	deleteProject string
	deleteRegion  string
	deleteForce   bool
)

func init() {
	deleteCmd.PersistentFlags().StringVar(&deleteProject, "project", "", "Cloud project ID")
	deleteCmd.PersistentFlags().StringVar(&deleteRegion, "region", "", "Engine region")
	deleteEngineCmd.Flags().BoolVar(&deleteForce, "force", false, "Delete even if the engine has child resources")
	deleteCmd.AddCommand(deleteEngineCmd)
	rootCmd.AddCommand(deleteCmd)
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete deployed resources",
}

var deleteEngineCmd = &cobra.Command{
	Use:   "engine <id>",
	Short: "Delete a deployed agent engine",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := resolveProject(deleteProject, nil)
		if err != nil {
			return err
		}
		region, err := resolveRegion(deleteRegion, nil)
		if err != nil {
			return err
		}

		client := newEngineClient(project, region)
		ctx := cmd.Context()

		op, err := client.DeleteEngine(ctx, args[0], deleteForce)
		if err != nil {
			return err
		}
		op, err = client.WaitOperation(ctx, op, 2*time.Second, 5*time.Minute)
		if err != nil {
			return err
		}
		if op.Error != nil {
			return fmt.Errorf("delete failed: %s", op.Error.Message)
		}
		fmt.Printf("Deleted engine %s\n", args[0])
		return nil
	},
}
