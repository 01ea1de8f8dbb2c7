package mirror

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/account-mirror/internal/provider"
)

// DataShapeError reports a malformed upstream payload for a single entry.
// It fails that entry's mapping only, never the whole cycle.
type DataShapeError struct {
	TransactionID string
	Field         string
	Reason        string
}

func (e *DataShapeError) Error() string {
	return fmt.Sprintf("malformed transaction %s: field %q: %s", e.TransactionID, e.Field, e.Reason)
}

// ToRecord converts a provider-native transaction into the store's record
// shape, applying the merge policy:
//
//   - always overwritten from upstream: ID, PendingID, Date, Amount
//     (sign-inverted), Pending, Account, Name;
//   - preserve-if-present: Category, Subcategory, Channel — re-derived from
//     upstream only when the existing record carries no value;
//   - user-owned: Internal, Notes — copied verbatim from the existing
//     record, defaulted on create (false, "").
//
// existing is nil on the new-record path. The account reference is
// resolved against the fetched snapshot; an unmatched account id maps to
// the UnknownAccount sentinel rather than failing.
func ToRecord(txn provider.Transaction, existing *Record, accounts []provider.Account) (*Record, error) {
	date, err := civil.ParseDate(txn.Date)
	if err != nil {
		return nil, &DataShapeError{TransactionID: txn.TransactionID, Field: "date", Reason: err.Error()}
	}
	if txn.TransactionID == "" {
		return nil, &DataShapeError{Field: "transactionId", Reason: "missing"}
	}

	rec := &Record{
		ID:        txn.TransactionID,
		PendingID: txn.PendingTransactionID,
		Date:      date,
		Amount:    txn.Amount.Neg(),
		Pending:   txn.Pending,
		Account:   resolveAccountName(txn.AccountID, accounts),
		Name:      txn.Name,
	}

	if existing == nil {
		rec.Category, rec.Subcategory = splitCategoryPath(txn.Category)
		rec.Channel = txn.PaymentChannel
		rec.Internal = false
		rec.Notes = ""
		return rec, nil
	}

	rec.Category = existing.Category
	rec.Subcategory = existing.Subcategory
	rec.Channel = existing.Channel
	if rec.Category == "" && rec.Subcategory == "" {
		rec.Category, rec.Subcategory = splitCategoryPath(txn.Category)
	}
	if rec.Channel == "" {
		rec.Channel = txn.PaymentChannel
	}
	rec.Internal = existing.Internal
	rec.Notes = existing.Notes
	if rec.PendingID == "" {
		rec.PendingID = existing.PendingID
	}

	return rec, nil
}

// splitCategoryPath maps the upstream category path onto the record's two
// classification fields: head is the category, the remaining elements
// joined by single spaces form the subcategory. An absent path maps both
// to the UnknownCategory sentinel.
func splitCategoryPath(path []string) (category, subcategory string) {
	if len(path) == 0 {
		return UnknownCategory, UnknownCategory
	}
	return path[0], strings.Join(path[1:], " ")
}

func resolveAccountName(accountID string, accounts []provider.Account) string {
	for _, acc := range accounts {
		if acc.AccountID == accountID {
			return acc.Name
		}
	}
	return UnknownAccount
}
