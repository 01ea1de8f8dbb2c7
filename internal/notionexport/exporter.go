package notionexport

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/account-mirror/internal/logger"
	"github.com/dvloznov/account-mirror/internal/mirror"
)

// ExportRecords mirrors the record set into a Notion database.
// Pages are keyed by the Transaction ID title property: stale pages are
// archived, known records update their page, new records get one created.
// Running it twice against an unchanged record set is a no-op.
func ExportRecords(ctx context.Context, notionClient NotionService, notionDBID string, records []*mirror.Record, dryRun bool) error {
	log := logger.FromContext(ctx)

	log.Info().
		Int("record_count", len(records)).
		Bool("dry_run", dryRun).
		Msg("Starting record export to Notion")

	validIDs := make(map[string]bool, len(records))
	for _, rec := range records {
		validIDs[rec.ID] = true
	}

	notionPages, err := queryAllNotionPages(ctx, notionClient, notionDBID)
	if err != nil {
		return fmt.Errorf("failed to query Notion pages: %w", err)
	}

	log.Info().Int("notion_page_count", len(notionPages)).Msg("Retrieved existing Notion pages")

	// Map transaction ID to its page for updates
	existingPages := make(map[string]string)
	for _, page := range notionPages {
		txID := extractTransactionID(page)
		if txID != "" {
			existingPages[txID] = string(page.ID)
		}
	}

	// Archive stale pages (those not in the current record set)
	var deleted int
	for _, page := range notionPages {
		txID := extractTransactionID(page)

		if txID == "" || !validIDs[txID] {
			if dryRun {
				log.Info().
					Str("transaction_id", txID).
					Str("page_id", string(page.ID)).
					Msg("[DRY RUN] Would archive stale Notion page")
				deleted++
				continue
			}

			if err := notionClient.DeletePage(ctx, string(page.ID)); err != nil {
				log.Warn().
					Err(err).
					Str("transaction_id", txID).
					Str("page_id", string(page.ID)).
					Msg("Failed to archive stale Notion page")
				continue
			}
			deleted++
		}
	}

	if deleted > 0 {
		log.Info().Int("deleted", deleted).Msg("Archived stale Notion pages")
	}

	var created, updated int
	for _, rec := range records {
		pageID, exists := existingPages[rec.ID]

		if dryRun {
			if exists {
				updated++
			} else {
				created++
			}
			continue
		}

		props := RecordToNotionProperties(rec)

		if exists {
			if _, err := notionClient.UpdatePage(ctx, pageID, props); err != nil {
				log.Warn().
					Err(err).
					Str("transaction_id", rec.ID).
					Str("page_id", pageID).
					Msg("Failed to update Notion page")
				// Continue processing other records
				continue
			}
			updated++
		} else {
			page, err := notionClient.CreatePage(ctx, notionDBID, props)
			if err != nil {
				log.Warn().
					Err(err).
					Str("transaction_id", rec.ID).
					Msg("Failed to create Notion page")
				continue
			}
			log.Debug().
				Str("transaction_id", rec.ID).
				Str("page_id", string(page.ID)).
				Msg("Created Notion page")
			created++
		}
	}

	log.Info().
		Int("deleted", deleted).
		Int("created", created).
		Int("updated", updated).
		Int("total", len(records)).
		Msg("Record export completed")

	return nil
}

// queryAllNotionPages retrieves every page in a Notion database, following
// the API's pagination cursor.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}

		// Only set StartCursor if we have a cursor value
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}
