package mirror

import "github.com/dvloznov/account-mirror/internal/provider"

// Resolve determines which existing record, if any, an incoming feed entry
// corresponds to. Matching order, first match wins:
//
//  1. a record whose ID equals the incoming pendingTransactionId — a
//     posted transaction settling a previously stored pending one; the
//     matched record is promoted rather than duplicated;
//  2. a record whose ID equals the incoming transactionId — a direct
//     update of an already-posted or already-matched record.
//
// Returns the index of the match and whether one was found. The linear
// scan is deliberate: per-sync sets stay small at personal transaction
// volumes. Anyone mirroring beyond a few thousand records should index
// records by ID and PendingID instead.
func Resolve(incoming provider.Transaction, records []*Record) (int, bool) {
	if incoming.PendingTransactionID != "" {
		for i, r := range records {
			if r.ID == incoming.PendingTransactionID {
				return i, true
			}
		}
	}
	for i, r := range records {
		if r.ID == incoming.TransactionID {
			return i, true
		}
	}
	return 0, false
}
