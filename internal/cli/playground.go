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

	"github.com/agentpack-labs/agentpack/internal/config"
	"github.com/agentpack-labs/agentpack/internal/playground"
)

var (
	pgListen   string
	pgBackend  string
	pgEngine   string
	pgProject  string
	pgRegion   string
	pgDBPath   string
	pgInMemory bool
)

func init() {
	playgroundCmd.Flags().StringVar(&pgListen, "listen", ":8080", "Listen address")
	playgroundCmd.Flags().StringVar(&pgBackend, "backend", "", "Streaming backend URL (local agent server)")
	playgroundCmd.Flags().StringVar(&pgEngine, "engine", "", "Deployed engine ID to chat with")
	playgroundCmd.Flags().StringVar(&pgProject, "project", "", "Cloud project ID (with --engine)")
	playgroundCmd.Flags().StringVar(&pgRegion, "region", "", "Engine region (with --engine)")
	playgroundCmd.Flags().StringVar(&pgDBPath, "db", "", "Session database path (default: <config dir>/playground.db)")
	playgroundCmd.Flags().BoolVar(&pgInMemory, "memory", false, "Keep sessions in memory only")
	rootCmd.AddCommand(playgroundCmd)
}

var playgroundCmd = &cobra.Command{
	Use:   "playground",
	Short: "Run the local chat playground UI",
	Long: `Serve a browser chat UI against a local agent server or a deployed
engine. Conversations and feedback are stored in a local sqlite database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			logger.Warn("loading .env", "error", err)
		}

		backend, err := playgroundBackend()
		if err != nil {
			return err
		}

		store, err := playgroundStore()
		if err != nil {
			return err
		}
		defer store.Close()

		srv := playground.NewServer(store, backend, logger)
		httpSrv := &http.Server{
			Addr:              pgListen,
			Handler:           srv.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errc := make(chan error, 1)
		go func() {
			logger.Info("playground listening", "addr", pgListen)
			fmt.Printf("Playground running at http://localhost%s\n", pgListen)
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

func playgroundBackend() (playground.Backend, error) {
	switch {
	case pgBackend != "" && pgEngine != "":
		return nil, fmt.Errorf("--backend and --engine are mutually exclusive")
	case pgBackend != "":
		return &playground.HTTPBackend{URL: pgBackend}, nil
	case pgEngine != "":
		project, err := resolveProject(pgProject, nil)
		if err != nil {
			return nil, err
		}
		region, err := resolveRegion(pgRegion, nil)
		if err != nil {
			return nil, err
		}
		return &playground.EngineBackend{
			Client: newEngineClient(project, region),
			Name:   pgEngine,
		}, nil
	default:
		return nil, fmt.Errorf("pass --backend <url> for a local agent or --engine <id> for a deployed one")
	}
}

func playgroundStore() (playground.Repository, error) {
	if pgInMemory {
		return playground.NewMemory(), nil
	}
	path := pgDBPath
	if path == "" {
		if err := config.EnsureDir(); err != nil {
			return nil, err
		}
		path = filepath.Join(config.Dir(), "playground.db")
	}
	return playground.NewSQLite(path)
}
