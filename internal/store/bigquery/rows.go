package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/account-mirror/internal/mirror"
)

// amountScale is the decimal precision kept when converting BigQuery
// NUMERIC values back into domain amounts.
const amountScale = 9

// recordRow is the BigQuery row shape of one mirrored transaction.
// position persists display order so LoadAll can return the set exactly
// as the last ReplaceAll wrote it.
type recordRow struct {
	Position int64 `bigquery:"position"`

	TransactionID string              `bigquery:"transaction_id"` // REQUIRED
	PendingID     bigquery.NullString `bigquery:"pending_id"`     // NULLABLE

	RecordDate bigquery.NullDate `bigquery:"record_date"` // REQUIRED in schema
	Amount     *big.Rat          `bigquery:"amount"`      // REQUIRED NUMERIC
	Pending    bool              `bigquery:"pending"`

	Account string `bigquery:"account"`
	Name    string `bigquery:"name"`

	Category    string `bigquery:"category"`
	Subcategory string `bigquery:"subcategory"`
	Channel     string `bigquery:"channel"`

	Internal bool   `bigquery:"internal"`
	Notes    string `bigquery:"notes"`

	UpdatedTS time.Time `bigquery:"updated_ts"`
}

func toRow(rec *mirror.Record, position int, now time.Time) *recordRow {
	row := &recordRow{
		Position:      int64(position),
		TransactionID: rec.ID,
		RecordDate:    bigquery.NullDate{Date: rec.Date, Valid: true},
		Amount:        rec.Amount.Rat(),
		Pending:       rec.Pending,
		Account:       rec.Account,
		Name:          rec.Name,
		Category:      rec.Category,
		Subcategory:   rec.Subcategory,
		Channel:       rec.Channel,
		Internal:      rec.Internal,
		Notes:         rec.Notes,
		UpdatedTS:     now,
	}
	if rec.PendingID != "" {
		row.PendingID = bigquery.NullString{StringVal: rec.PendingID, Valid: true}
	}
	return row
}

func fromRow(row *recordRow) *mirror.Record {
	rec := &mirror.Record{
		ID:          row.TransactionID,
		Date:        row.RecordDate.Date,
		Pending:     row.Pending,
		Account:     row.Account,
		Name:        row.Name,
		Category:    row.Category,
		Subcategory: row.Subcategory,
		Channel:     row.Channel,
		Internal:    row.Internal,
		Notes:       row.Notes,
	}
	if row.PendingID.Valid {
		rec.PendingID = row.PendingID.StringVal
	}
	if row.Amount != nil {
		rec.Amount = decimal.NewFromBigRat(row.Amount, amountScale)
	}
	return rec
}
