package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/account-mirror/internal/api/handlers"
	"github.com/dvloznov/account-mirror/internal/api/middleware"
	"github.com/dvloznov/account-mirror/internal/config"
	"github.com/dvloznov/account-mirror/internal/jobs"
	jobsmem "github.com/dvloznov/account-mirror/internal/jobs/inmemory"
	"github.com/dvloznov/account-mirror/internal/logger"
	"github.com/dvloznov/account-mirror/internal/provider"
	"github.com/dvloznov/account-mirror/internal/store"
	"github.com/dvloznov/account-mirror/internal/store/bigquery"
	"github.com/dvloznov/account-mirror/internal/store/inmemory"
	"github.com/dvloznov/account-mirror/internal/syncer"
)

func main() {
	var (
		configPath = flag.String("config", "config.toml", "Path to config file")
		port       = flag.Int("port", 0, "HTTP server port (overrides config)")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()
	ctx := logger.WithContext(context.Background(), log)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	accessToken := os.Getenv(cfg.Provider.AccessTokenEnv)
	if accessToken == "" {
		log.Fatal().Str("env", cfg.Provider.AccessTokenEnv).Msg("Access token not set")
	}

	recordStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open record store")
	}
	defer recordStore.Close()

	feed := provider.NewClient(
		cfg.Provider.BaseURL,
		os.Getenv(cfg.Provider.ClientIDEnv),
		os.Getenv(cfg.Provider.SecretEnv),
	)

	syncSvc := syncer.NewService(feed, recordStore, accessToken)

	// Initialize job infrastructure
	jobStore := jobsmem.NewStore()
	jobQueue := jobsmem.NewQueue(cfg.Server.QueueBufferSize, jobStore)

	// Start worker in background to process jobs
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job jobs.Job) error {
		syncJob, ok := job.(*jobs.SyncJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", syncJob.JobID).
			Str("item_id", syncJob.ItemID).
			Bool("full_resync", syncJob.FullResync).
			Msg("Processing sync job")

		summary, err := syncSvc.RunCycle(logger.WithContext(ctx, log), syncer.Options{
			FullResync: syncJob.FullResync,
		})
		if err != nil {
			log.Error().
				Err(err).
				Str("job_id", syncJob.JobID).
				Msg("Sync cycle failed")
			return err
		}

		log.Info().
			Str("job_id", syncJob.JobID).
			Int("added", summary.Counts.Added).
			Int("modified", summary.Counts.Modified).
			Int("removed", summary.Counts.Removed).
			Msg("Sync job completed")

		return nil
	}

	// Start job consumer in background
	go func() {
		log.Info().Msg("Starting job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	// Initialize handlers
	syncHandler := handlers.NewSyncHandler(jobQueue, cfg.Store.ItemID, log)
	recordsHandler := handlers.NewRecordsHandler(recordStore, log)
	accountsHandler := handlers.NewAccountsHandler(syncSvc, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("/api/sync", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			syncHandler.TriggerSync(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/records", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			recordsHandler.ListRecords(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/accounts", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			accountsHandler.ListTotals(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					middleware.Auth(os.Getenv("MIRROR_API_TOKEN"))(mux),
				),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for the in-flight job
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}

func openStore(ctx context.Context, cfg *config.Config) (store.RecordStore, error) {
	if cfg.Store.Backend == "bigquery" {
		return bigquery.NewRecordStore(ctx, bigquery.Config{
			ProjectID: cfg.Store.ProjectID,
			DatasetID: cfg.Store.DatasetID,
			ItemID:    cfg.Store.ItemID,
		})
	}
	return inmemory.NewStore(), nil
}
