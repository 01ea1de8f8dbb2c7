package main

import (
	"context"
	"flag"
	"os"

	"github.com/dvloznov/account-mirror/internal/config"
	"github.com/dvloznov/account-mirror/internal/export"
	"github.com/dvloznov/account-mirror/internal/logger"
	"github.com/dvloznov/account-mirror/internal/notionexport"
	"github.com/dvloznov/account-mirror/internal/store"
	"github.com/dvloznov/account-mirror/internal/store/bigquery"
	"github.com/dvloznov/account-mirror/internal/store/inmemory"
)

func main() {
	var (
		configPath = flag.String("config", "config.toml", "Path to config file")
		toNotion   = flag.Bool("notion", false, "Mirror records into the configured Notion database")
		toGCS      = flag.Bool("gcs", true, "Upload a CSV snapshot to the configured bucket")
		dryRun     = flag.Bool("dry-run", false, "Log what would change in Notion without writing")
	)
	flag.Parse()

	log := logger.New()
	ctx := logger.WithContext(context.Background(), log)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	recordStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open record store")
	}
	defer recordStore.Close()

	records, err := recordStore.LoadAll(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load records")
	}

	if len(records) == 0 {
		log.Warn().Msg("No records to export; run a sync first")
		return
	}

	if *toGCS {
		if cfg.Export.Bucket == "" {
			log.Fatal().Msg("No export bucket configured")
		}

		exporter := export.NewExporter(export.NewGCSStorageService(), cfg.Export.Bucket, cfg.Export.Prefix)
		uri, err := exporter.ExportSnapshot(ctx, records)
		if err != nil {
			log.Fatal().Err(err).Msg("Snapshot export failed")
		}
		log.Info().Str("uri", uri).Msg("Snapshot uploaded")
	}

	if *toNotion {
		if cfg.Notion.DatabaseID == "" {
			log.Fatal().Msg("No Notion database configured")
		}

		token := os.Getenv(cfg.Notion.TokenEnv)
		if token == "" {
			log.Fatal().Str("env", cfg.Notion.TokenEnv).Msg("Notion token not set")
		}

		client := notionexport.NewNotionClient(token)
		if err := notionexport.ExportRecords(ctx, client, cfg.Notion.DatabaseID, records, *dryRun); err != nil {
			log.Fatal().Err(err).Msg("Notion export failed")
		}
	}
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
