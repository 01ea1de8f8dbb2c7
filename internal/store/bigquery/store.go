package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/account-mirror/internal/mirror"
	"github.com/dvloznov/account-mirror/internal/store"
)

const (
	recordsTable   = "records"
	syncStateTable = "sync_state"
)

// Config identifies where one item's mirror lives.
type Config struct {
	ProjectID string
	DatasetID string

	// ItemID keys the cursor row in sync_state; one row per linked item.
	ItemID string
}

// RecordStore is the BigQuery-backed implementation of store.RecordStore.
// It holds a shared BigQuery client to avoid creating a new connection
// for each operation.
type RecordStore struct {
	client *bigquery.Client
	cfg    Config
}

// NewRecordStore creates a new RecordStore with a shared BigQuery client.
func NewRecordStore(ctx context.Context, cfg Config) (*RecordStore, error) {
	client, err := bigquery.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("NewRecordStore: creating client: %w", err)
	}
	return &RecordStore{client: client, cfg: cfg}, nil
}

// Close closes the BigQuery client connection.
func (s *RecordStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// LoadAll returns the mirrored record set in persisted display order.
func (s *RecordStore) LoadAll(ctx context.Context) ([]*mirror.Record, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT
			position,
			transaction_id,
			pending_id,
			record_date,
			amount,
			pending,
			account,
			name,
			category,
			subcategory,
			channel,
			internal,
			notes,
			updated_ts
		FROM %s.%s
		ORDER BY position
	`, s.cfg.DatasetID, recordsTable))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("LoadAll: query read: %w", err)
	}

	var records []*mirror.Record
	for {
		var row recordRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("LoadAll: iter next: %w", err)
		}
		records = append(records, fromRow(&row))
	}

	return records, nil
}

// ReplaceAll swaps the stored content for the given set, preserving its
// order through the position column. BigQuery offers no multi-statement
// transaction through the streaming API, so the delete and the insert are
// two jobs; a reader racing the window between them sees an empty set,
// never a half-merged one.
func (s *RecordStore) ReplaceAll(ctx context.Context, records []*mirror.Record) error {
	if err := s.runQuery(ctx, fmt.Sprintf(`DELETE FROM %s.%s WHERE true`, s.cfg.DatasetID, recordsTable), nil); err != nil {
		return fmt.Errorf("ReplaceAll: clearing records: %w", err)
	}

	if len(records) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]*recordRow, len(records))
	for i, rec := range records {
		rows[i] = toRow(rec, i, now)
	}

	table := s.client.DatasetInProject(s.cfg.ProjectID, s.cfg.DatasetID).Table(recordsTable)
	if err := table.Inserter().Put(ctx, rows); err != nil {
		return fmt.Errorf("ReplaceAll: inserting rows: %w", err)
	}

	return nil
}

// LoadCursor returns the persisted sync cursor for this item, or the
// empty string when none has been saved yet.
func (s *RecordStore) LoadCursor(ctx context.Context) (string, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT cursor
		FROM %s.%s
		WHERE item_id = @item_id
		LIMIT 1
	`, s.cfg.DatasetID, syncStateTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "item_id", Value: s.cfg.ItemID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return "", fmt.Errorf("LoadCursor: query read: %w", err)
	}

	var row struct {
		Cursor string `bigquery:"cursor"`
	}
	err = it.Next(&row)
	if err == iterator.Done {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("LoadCursor: iter next: %w", err)
	}

	return row.Cursor, nil
}

// SaveCursor persists the cursor for this item, creating the sync_state
// row on first save.
func (s *RecordStore) SaveCursor(ctx context.Context, cursor string) error {
	query := fmt.Sprintf(`
		MERGE %s.%s state
		USING (SELECT @item_id AS item_id) incoming
		ON state.item_id = incoming.item_id
		WHEN MATCHED THEN
			UPDATE SET cursor = @cursor, updated_ts = @updated_ts
		WHEN NOT MATCHED THEN
			INSERT (item_id, cursor, updated_ts)
			VALUES (@item_id, @cursor, @updated_ts)
	`, s.cfg.DatasetID, syncStateTable)

	params := []bigquery.QueryParameter{
		{Name: "item_id", Value: s.cfg.ItemID},
		{Name: "cursor", Value: cursor},
		{Name: "updated_ts", Value: time.Now()},
	}

	if err := s.runQuery(ctx, query, params); err != nil {
		return fmt.Errorf("SaveCursor: %w", err)
	}
	return nil
}

// runQuery runs a DML statement and waits for the job to finish.
func (s *RecordStore) runQuery(ctx context.Context, query string, params []bigquery.QueryParameter) error {
	q := s.client.Query(query)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}

	return nil
}

// Ensure RecordStore implements the RecordStore interface.
var _ store.RecordStore = (*RecordStore)(nil)
