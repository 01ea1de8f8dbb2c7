package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/storage"

	"github.com/dvloznov/account-mirror/internal/logger"
	"github.com/dvloznov/account-mirror/internal/mirror"
)

// csvHeader is the column order of exported snapshots. Downstream
// spreadsheets key on these names, so the order is part of the format.
var csvHeader = []string{
	"transaction_id",
	"pending_id",
	"date",
	"amount",
	"pending",
	"account",
	"description",
	"category",
	"subcategory",
	"channel",
	"internal",
	"notes",
}

// StorageService is an interface for snapshot storage operations.
// This interface enables mocking and testing of GCS uploads.
type StorageService interface {
	Upload(ctx context.Context, bucketName, objectName string, data []byte) error
}

// GCSStorageService is the concrete implementation of StorageService
// that interacts with Google Cloud Storage.
type GCSStorageService struct{}

// NewGCSStorageService creates a new instance of GCSStorageService.
func NewGCSStorageService() *GCSStorageService {
	return &GCSStorageService{}
}

// Upload writes data to a GCS bucket under the given object name.
// It assumes Application Default Credentials are configured (gcloud auth application-default login).
func (s *GCSStorageService) Upload(ctx context.Context, bucketName, objectName string, data []byte) error {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	defer func() {
		// Ensure the writer is closed even on early returns
		_ = w.Close()
	}()

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write to GCS writer: %w", err)
	}

	// Close to finalize the upload
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}

	return nil
}

// RecordsToCSV encodes records into CSV in their given order.
func RecordsToCSV(records []*mirror.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("RecordsToCSV: writing header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rec.ID,
			rec.PendingID,
			rec.Date.String(),
			rec.Amount.String(),
			strconv.FormatBool(rec.Pending),
			rec.Account,
			rec.Name,
			rec.Category,
			rec.Subcategory,
			rec.Channel,
			strconv.FormatBool(rec.Internal),
			rec.Notes,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("RecordsToCSV: writing row for %s: %w", rec.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("RecordsToCSV: flushing: %w", err)
	}

	return buf.Bytes(), nil
}

// Exporter uploads CSV snapshots of the mirror to a bucket.
type Exporter struct {
	storage StorageService
	bucket  string
	prefix  string
}

// NewExporter creates a new Exporter.
func NewExporter(storage StorageService, bucket, prefix string) *Exporter {
	return &Exporter{
		storage: storage,
		bucket:  bucket,
		prefix:  prefix,
	}
}

// ExportSnapshot encodes records as CSV and uploads them under a
// timestamped object name. It returns the GCS URI of the snapshot.
func (e *Exporter) ExportSnapshot(ctx context.Context, records []*mirror.Record) (string, error) {
	log := logger.FromContext(ctx)

	data, err := RecordsToCSV(records)
	if err != nil {
		return "", fmt.Errorf("ExportSnapshot: %w", err)
	}

	objectName := fmt.Sprintf("records-%s.csv", time.Now().UTC().Format("20060102-150405"))
	if e.prefix != "" {
		objectName = e.prefix + "/" + objectName
	}

	if err := e.storage.Upload(ctx, e.bucket, objectName, data); err != nil {
		return "", fmt.Errorf("ExportSnapshot: uploading %s: %w", objectName, err)
	}

	uri := fmt.Sprintf("gs://%s/%s", e.bucket, objectName)

	log.Info().
		Str("uri", uri).
		Int("record_count", len(records)).
		Int("bytes", len(data)).
		Msg("Exported snapshot")

	return uri, nil
}
