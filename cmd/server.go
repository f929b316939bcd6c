package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/caserelay/caserelay/internal/activity"
	"github.com/caserelay/caserelay/internal/casestudy"
	"github.com/caserelay/caserelay/internal/config"
	"github.com/caserelay/caserelay/internal/db"
	"github.com/caserelay/caserelay/internal/document"
	"github.com/caserelay/caserelay/internal/editor"
	"github.com/caserelay/caserelay/internal/llm"
	"github.com/caserelay/caserelay/internal/remote"
	"github.com/caserelay/caserelay/internal/server"
	"github.com/caserelay/caserelay/internal/web"
)

var serverPort int

// llmRequestsPerMinute caps calls to the model API across all sessions.
const llmRequestsPerMinute = 60

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the caserelay web server",
	Long:  `Starts the caserelay server: document upload, AI case-study generation, and the browser editor.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serverPort != 0 {
			cfg.Port = serverPort
		}

		// Create LLM provider. A nil provider is not fatal: drafts come from
		// the heuristic fallback generator instead.
		llmProvider, err := createLLMProviderFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating LLM provider: %w", err)
		}
		if llmProvider == nil {
			fmt.Fprintf(os.Stderr, "Warning: %s not set, generating drafts without a model\n",
				config.APIKeyEnvVar(cfg.Provider))
		} else {
			llmProvider = llm.NewRateLimitedProvider(llmProvider, llmRequestsPerMinute)
		}

		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return fmt.Errorf("creating data dir: %w", err)
		}
		if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
			return fmt.Errorf("creating upload dir: %w", err)
		}

		// Open database.
		dbPath := filepath.Join(cfg.DataDir, "caserelay.db")
		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		// Remote processing client, only when a backend is configured.
		var remoteClient *remote.Client
		if cfg.Remote.URL != "" {
			remoteClient = remote.NewClient(cfg.Remote.URL, cfg.Remote.APIKey,
				remote.WithTimeouts(
					time.Duration(cfg.Remote.TimeoutShortSec)*time.Second,
					time.Duration(cfg.Remote.TimeoutMediumSec)*time.Second,
					time.Duration(cfg.Remote.TimeoutLongSec)*time.Second,
				))
		}

		// Create server and register all feature routes.
		srv := server.New(server.Config{
			Port:     cfg.Port,
			DataDir:  cfg.DataDir,
			AllowAll: cfg.AllowAll,
		}, database, llmProvider, cfg.Model)

		sessions := registerAllRoutes(srv, cfg, remoteClient)

		// Graceful shutdown: flush pending editor saves before closing.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			sessions.CloseAll(shutdownCtx)
			srv.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(os.Stderr, "caserelay server v%s starting on port %d\n", Version, cfg.Port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "  Uploads: %s\n", cfg.Upload.Dir)
		if remoteClient != nil {
			fmt.Fprintf(os.Stderr, "  Remote processing: %s\n", cfg.Remote.URL)
		}

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

// registerAllRoutes wires up all feature routes and returns the editor session
// manager so shutdown can flush pending saves.
func registerAllRoutes(srv *server.Server, cfg *config.Config, remoteClient *remote.Client) *editor.Manager {
	r := srv.Router()
	database := srv.Database()

	docStore := document.NewStore(database)
	csStore := casestudy.NewStore(database)
	actStore := activity.NewStore(database)

	gen := casestudy.NewGenerator(srv.LLMProvider(), srv.LLMModel())
	sessions := editor.NewManager(database, csStore, cfg.Editor.AutosaveDebounceMS)
	alerts := editor.NewAlertQueue(cfg.Editor.AlertMaxVisible, cfg.Editor.AlertDisplayMS)

	// Documents: upload, extraction and draft generation.
	drafts := casestudy.NewDraftService(csStore, docStore, gen, actStore)
	processor := document.NewProcessor(remoteClient)
	tracker := document.NewStatusTracker()
	document.NewHandler(docStore, processor, tracker, drafts, actStore, cfg.Upload).RegisterRoutes(r)

	// Case studies: improvement, regeneration, autosave and export.
	casestudy.NewHandler(csStore, docStore, gen, remoteClient, sessions, alerts, actStore).RegisterRoutes(r)

	// Browser UI.
	web.NewHandler(docStore, csStore, sessions, cfg.Editor).RegisterRoutes(r)

	// Activity feed.
	activity.RegisterRoutes(r, actStore)

	return sessions
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serverCmd)
}
