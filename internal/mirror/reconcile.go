package mirror

import (
	"context"

	"github.com/dvloznov/account-mirror/internal/logger"
	"github.com/dvloznov/account-mirror/internal/provider"
)

// Counts summarizes one reconciliation for the operator. The numbers are
// the delta's input list lengths, not how many entries actually changed
// the store; they feed reporting only, never further logic.
type Counts struct {
	Added    int `json:"added"`
	Modified int `json:"modified"`
	Removed  int `json:"removed"`
}

// Apply merges a fetched delta onto the existing record set and returns
// the next set. The input slice is never mutated; callers can treat the
// whole merge as a single logical transaction by persisting the returned
// set wholesale.
//
// Order matters: removals run first so that a lifecycle transition and a
// removal inside the same sync cannot double-count, modifications run
// against the remaining set, and additions run against the set as it
// stands after modifications. Since every step is keyed on stable ids,
// re-applying the same delta to the same pre-delta state yields the same
// record set.
func Apply(ctx context.Context, existing []*Record, delta *provider.Delta) ([]*Record, Counts) {
	log := logger.FromContext(ctx)

	working := make([]*Record, len(existing))
	copy(working, existing)

	// Removals: match by posted id or by the id the record held while
	// pending. An unmatched removal is a no-op.
	for _, rem := range delta.Removed {
		for i, r := range working {
			if r.ID == rem.TransactionID || (r.PendingID != "" && r.PendingID == rem.TransactionID) {
				working = append(working[:i], working[i+1:]...)
				break
			}
		}
	}

	// Modifications: replace matched records in place via the mapper's
	// existing-record path. The feed may reference transactions this
	// store never captured; those are dropped as benign.
	for _, txn := range delta.Modified {
		i, ok := Resolve(txn, working)
		if !ok {
			log.Debug().
				Str("transaction_id", txn.TransactionID).
				Msg("Dropping modification with no matching record")
			continue
		}
		mapped, err := ToRecord(txn, working[i], delta.Accounts)
		if err != nil {
			log.Warn().Err(err).
				Str("transaction_id", txn.TransactionID).
				Msg("Skipping malformed modification")
			continue
		}
		working[i] = mapped
	}

	// Additions: a match here is a pending record being promoted to its
	// posted form; otherwise insert a new record at its date position.
	for _, txn := range delta.Added {
		if i, ok := Resolve(txn, working); ok {
			mapped, err := ToRecord(txn, working[i], delta.Accounts)
			if err != nil {
				log.Warn().Err(err).
					Str("transaction_id", txn.TransactionID).
					Msg("Skipping malformed promotion")
				continue
			}
			working[i] = mapped
			continue
		}
		mapped, err := ToRecord(txn, nil, delta.Accounts)
		if err != nil {
			log.Warn().Err(err).
				Str("transaction_id", txn.TransactionID).
				Msg("Skipping malformed addition")
			continue
		}
		working = insertOrdered(working, mapped)
	}

	// Modifications may have moved a record's date, so the ordering
	// invariant is re-established rather than trusted.
	SortRecords(working)

	return working, Counts{
		Added:    len(delta.Added),
		Modified: len(delta.Modified),
		Removed:  len(delta.Removed),
	}
}
