package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/agentpack-labs/agentpack/internal/relay"
)

var (
	relayDir    string
	relayListen string
)

func init() {
	relayCmd.Flags().StringVar(&relayDir, "dir", "", "Agent project directory (default: current directory)")
	relayCmd.Flags().StringVar(&relayListen, "listen", "", "Listen address (overrides relay.yaml)")
	rootCmd.AddCommand(relayCmd)
}

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run the websocket relay for live-audio agents",
	Long: `Run a local websocket relay that bridges browser audio clients to the
upstream live API. The relay injects the model setup frame, forwards audio
both ways, and dispatches tool calls locally.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

		m, dir, err := loadManifest(relayDir)
		if err != nil {
			return err
		}

		// Project-local .env carries the upstream URL and token in dev.
		if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !os.IsNotExist(err) {
			logger.Warn("loading .env", "error", err)
		}

		cfg, err := relay.LoadConfig(filepath.Join(dir, "relay.yaml"), m)
		if err != nil {
			return err
		}
		if relayListen != "" {
			cfg.Listen = relayListen
		}

		tools := relay.NewToolRegistry()
		srv := relay.NewServer(cfg, tools, tokenSource(), logger)

		httpSrv := &http.Server{
			Addr:              cfg.Listen,
			Handler:           srv.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errc := make(chan error, 1)
		go func() {
			logger.Info("relay listening", "addr", cfg.Listen, "model", cfg.Model)
			errc <- httpSrv.ListenAndServe()
		}()

		select {
		case err := <-errc:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "Shutting down...")
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutCtx)
		}
	},
}
