package admin

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/odclabs/kiosk/internal/api/handlers"
	"github.com/odclabs/kiosk/internal/config"
	"github.com/odclabs/kiosk/internal/jobs"
	"github.com/odclabs/kiosk/internal/server"
	"github.com/odclabs/kiosk/internal/service"
	"github.com/odclabs/kiosk/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the kiosk API server",
		Long:  "Start the kiosk question-answering API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

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
	a, err := buildApp(ctx, cfg, !noMigrate, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	classifier := service.NewClassifier(a.client)
	generator := service.NewGenerator(a.client)
	pipelineCfg := service.PipelineConfig{
		TopK:          cfg.RetrievalTopK,
		HistoryWindow: cfg.HistoryWindow,
	}
	sessions := service.NewSessionManager(func() *service.Pipeline {
		return service.NewPipeline(classifier, a.retriever, generator, pipelineCfg)
	}, cfg.SessionIdleTTL)

	evictionWorker := jobs.NewWorker("session-eviction", jobs.NewEvictionTask(sessions), 5*time.Minute)
	go evictionWorker.Start(ctx)

	var rebuildWorker *jobs.Worker
	if cfg.RebuildInterval > 0 {
		var syncer jobs.CorpusSyncer
		if a.syncer != nil {
			syncer = corpusSyncAdapter{client: a.syncer}
		}
		task := jobs.NewRebuildTask(syncer, a.rebuilder, cfg.CorpusDir)
		rebuildWorker = jobs.NewWorker("index-rebuild", task, cfg.RebuildInterval)
		go rebuildWorker.Start(ctx)
	}

	router := server.NewRouter(server.RouterConfig{
		AskHandler:     handlers.NewAskHandler(sessions, cfg.DefaultLanguage),
		RebuildHandler: handlers.NewRebuildHandler(a.rebuilder),
		AdminToken:     cfg.AdminToken,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	evictionWorker.Stop()
	if rebuildWorker != nil {
		rebuildWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}
