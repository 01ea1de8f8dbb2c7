package main

import (
	"context"
	"flag"
	"os"

	"github.com/dvloznov/account-mirror/internal/categorize"
	"github.com/dvloznov/account-mirror/internal/config"
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
		full       = flag.Bool("full", false, "Ignore the saved cursor and re-fetch the full history")
		dryRun     = flag.Bool("dry-run", false, "Fetch and reconcile but do not persist anything")
		suggest    = flag.Bool("suggest", false, "Ask the model to categorize uncategorized records after the cycle")
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

	summary, err := svc.RunCycle(ctx, syncer.Options{
		FullResync: *full,
		DryRun:     *dryRun,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Sync cycle failed")
	}

	log.Info().
		Int("added", summary.Counts.Added).
		Int("modified", summary.Counts.Modified).
		Int("removed", summary.Counts.Removed).
		Int("total_records", summary.TotalRecords).
		Msg("Sync complete")

	if *suggest && !*dryRun {
		if err := runSuggestions(ctx, recordStore); err != nil {
			log.Fatal().Err(err).Msg("Category suggestion failed")
		}
	}
}

// runSuggestions sends uncategorized records to the model and persists
// any accepted suggestions.
func runSuggestions(ctx context.Context, recordStore store.RecordStore) error {
	log := logger.FromContext(ctx)

	records, err := recordStore.LoadAll(ctx)
	if err != nil {
		return err
	}

	suggester := categorize.NewGeminiSuggester()
	suggestions, err := suggester.SuggestCategories(ctx, records)
	if err != nil {
		return err
	}

	applied := categorize.ApplySuggestions(ctx, records, suggestions)
	if applied == 0 {
		log.Info().Msg("No suggestions to apply")
		return nil
	}

	if err := recordStore.ReplaceAll(ctx, records); err != nil {
		return err
	}

	log.Info().Int("applied", applied).Msg("Applied category suggestions")
	return nil
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
