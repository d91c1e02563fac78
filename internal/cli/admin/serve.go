package admin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloo-solutions/docsmith/internal/api/handlers"
	"github.com/cloo-solutions/docsmith/internal/config"
	"github.com/cloo-solutions/docsmith/internal/jobs"
	"github.com/cloo-solutions/docsmith/internal/server"
	"github.com/cloo-solutions/docsmith/internal/telemetry"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and web UI",
		Long:  "Start the docsmith API server and web UI on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().Bool("no-reconcile", false, "Skip the ingestion journal reconcile pass on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.SentryDSN != "" {
		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if cfg.Environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	app, err := Build(ctx, cfg, BuildOptions{SkipMigrations: noMigrate, EnsureBucket: true})
	if err != nil {
		return err
	}
	defer app.Close()

	if noReconcile, _ := cmd.Flags().GetBool("no-reconcile"); !noReconcile {
		report, err := app.Reconcile.Reconcile(ctx)
		if err != nil {
			return fmt.Errorf("failed to reconcile index: %w", err)
		}
		log.Printf("reconcile: rolled_forward=%d rolled_back=%d orphaned_chunks=%d",
			report.RolledForward, report.RolledBack, report.OrphanedChunks)
	}

	var reconcileWorker *jobs.Worker
	if cfg.ReconcileInterval > 0 {
		// The startup pass already ran with no ingestion in flight; later
		// passes skip records young enough to belong to a live request.
		app.Reconcile.SetMinAge(cfg.ReconcileInterval)
		reconcileWorker = jobs.NewWorker("reconcile", jobs.NewReconcileProcessor(app.Reconcile), cfg.ReconcileInterval)
		go reconcileWorker.Start(ctx)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewHandler(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if reconcileWorker != nil {
		reconcileWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// NewHandler builds the HTTP router for app.
func NewHandler(app *App) http.Handler {
	var prober handlers.ConfluenceProber
	if app.Confluence != nil {
		prober = app.Confluence
	}
	status := handlers.NewStatusHandler(app.Documents, prober, handlers.StatusInfo{
		Backend:     app.Config.VectorBackend,
		Embedder:    app.Embedder.ModelName(),
		LLMProvider: app.LLM.Name(),
	})

	return server.NewRouter(server.RouterConfig{
		APIToken:        app.Config.APIToken,
		MaxBodyBytes:    app.Config.MaxUploadBytes,
		DocumentHandler: handlers.NewDocumentHandler(app.Ingestion, app.Documents),
		SearchHandler:   handlers.NewSearchHandler(app.Retrieval),
		GenerateHandler: handlers.NewGenerateHandler(app.Generator, app.Export),
		StatusHandler:   status,
		UIHandler:       handlers.NewUIHandler(app.Ingestion, app.Retrieval, app.Generator, status),
	})
}
