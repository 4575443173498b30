package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentpack-labs/agentpack/internal/loadtest"
)

var (
	ltTarget   string
	ltUsers    int
	ltRequests int
	ltMessage  string
	ltRampUp   time.Duration
	ltTimeout  time.Duration
	ltJSON     bool
)

func init() {
	loadtestCmd.Flags().StringVar(&ltTarget, "target", "", "Chat endpoint URL to exercise (required)")
	loadtestCmd.Flags().IntVar(&ltUsers, "users", 1, "Concurrent simulated users")
	loadtestCmd.Flags().IntVar(&ltRequests, "requests", 10, "Requests per user")
	loadtestCmd.Flags().StringVar(&ltMessage, "message", "", "Chat message each request sends")
	loadtestCmd.Flags().DurationVar(&ltRampUp, "ramp-up", 0, "Delay between user launches")
	loadtestCmd.Flags().DurationVar(&ltTimeout, "timeout", 60*time.Second, "Per-request timeout")
	loadtestCmd.Flags().BoolVar(&ltJSON, "json", false, "Output stats as JSON")
	loadtestCmd.MarkFlagRequired("target")
	rootCmd.AddCommand(loadtestCmd)
}

var loadtestCmd = &cobra.Command{
	Use:   "loadtest",
	Short: "Load-test a chat endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := loadtest.Options{
			Target:   ltTarget,
			Users:    ltUsers,
			Requests: ltRequests,
			Message:  ltMessage,
			RampUp:   ltRampUp,
			Timeout:  ltTimeout,
		}
		runner, err := loadtest.NewRunner(opts, slog.New(slog.NewTextHandler(os.Stderr, nil)))
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Running %d users x %d requests against %s\n", opts.Users, opts.Requests, opts.Target)
		stats, err := runner.Run(cmd.Context())
		if err != nil {
			return err
		}

		if ltJSON {
			return json.NewEncoder(os.Stdout).Encode(stats)
		}
		fmt.Print(loadtest.TextReport(opts, stats))
		return nil
	},
}
