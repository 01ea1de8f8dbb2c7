package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/account-mirror/internal/config"
	"github.com/dvloznov/account-mirror/internal/logger"
	"github.com/dvloznov/account-mirror/internal/provider"
	"github.com/dvloznov/account-mirror/internal/store"
	"github.com/dvloznov/account-mirror/internal/store/bigquery"
	"github.com/dvloznov/account-mirror/internal/store/inmemory"
	"github.com/dvloznov/account-mirror/internal/syncer"
)

// The worker runs a sync cycle on a fixed interval, keeping the mirror
// fresh without an operator in the loop. Cycles never overlap: the next
// tick waits for the previous cycle to finish.
func main() {
	var (
		configPath = flag.String("config", "config.toml", "Path to config file")
		interval   = flag.Duration("interval", 6*time.Hour, "Time between sync cycles")
	)
	flag.Parse()

	log := logger.New()
	ctx := logger.WithContext(context.Background(), log)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
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

	svc := syncer.NewService(feed, recordStore, accessToken)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("Shutting down worker...")
		cancel()
	}()

	log.Info().Dur("interval", *interval).Msg("Starting sync worker")

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	runOnce(runCtx, svc)

	for {
		select {
		case <-runCtx.Done():
			log.Info().Msg("Worker exited")
			return
		case <-ticker.C:
			runOnce(runCtx, svc)
		}
	}
}

func runOnce(ctx context.Context, svc *syncer.Service) {
	log := logger.FromContext(ctx)

	summary, err := svc.RunCycle(ctx, syncer.Options{})
	if err != nil {
		// Log and wait for the next tick; transient feed errors should
		// not kill the worker.
		log.Error().Err(err).Msg("Sync cycle failed")
		return
	}

	log.Info().
		Int("added", summary.Counts.Added).
		Int("modified", summary.Counts.Modified).
		Int("removed", summary.Counts.Removed).
		Int("total_records", summary.TotalRecords).
		Msg("Scheduled sync complete")
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
