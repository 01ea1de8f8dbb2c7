package mirror

import (
	"sort"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

const (
	// UnknownCategory is assigned when the upstream payload carries no
	// category path. It doubles as the marker the category suggester
	// looks for: anything else is treated as user-corrected.
	UnknownCategory = "UNKNOWN"

	// UnknownAccount is assigned when a transaction's account id does not
	// resolve against the fetched account snapshot.
	UnknownAccount = "UNKNOWN"
)

// Record is the store's unit of persistence: one mirrored transaction.
//
// ID, PendingID, Date, Amount, Pending, Account and Name are
// upstream-authoritative and fully overwritten on modification.
// Category, Subcategory and Channel are derived from upstream on first
// creation only and preserved afterwards when non-empty, so a user
// correction in the store survives later upstream modifications.
// Internal and Notes are user-owned and never written from upstream data
// once defaulted.
type Record struct {
	ID        string          `json:"id"`
	PendingID string          `json:"pendingId,omitempty"`
	Date      civil.Date      `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Pending   bool            `json:"pending"`
	Account   string          `json:"account"`
	Name      string          `json:"name"`

	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Channel     string `json:"channel"`

	Internal bool   `json:"internal"`
	Notes    string `json:"notes"`
}

// SortRecords re-establishes display order: date descending, ties keeping
// their current relative order. Because insertions place newer records
// ahead of equal-dated older ones, the stable sort preserves the
// most-recently-inserted-first tie break.
func SortRecords(records []*Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.After(records[j].Date)
	})
}

// insertOrdered places rec immediately before the first existing record
// with an equal-or-earlier date, appending when none exists.
func insertOrdered(records []*Record, rec *Record) []*Record {
	for i, r := range records {
		if !r.Date.After(rec.Date) {
			records = append(records, nil)
			copy(records[i+1:], records[i:])
			records[i] = rec
			return records
		}
	}
	return append(records, rec)
}
