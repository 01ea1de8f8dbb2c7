package mirror

import (
	"context"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/account-mirror/internal/provider"
)

func date(day int) civil.Date {
	return civil.Date{Year: 2025, Month: 6, Day: day}
}

func record(id string, day int) *Record {
	return &Record{
		ID:       id,
		Date:     date(day),
		Amount:   decimal.NewFromInt(-10),
		Account:  "Checking",
		Name:     "RECORD " + id,
		Category: "Food",
	}
}

func ids(records []*Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestApplyAddsInDateOrder(t *testing.T) {
	ctx := context.Background()

	existing := []*Record{
		record("txn-a", 10),
		record("txn-b", 5),
	}

	delta := &provider.Delta{
		Added: []provider.Transaction{
			{TransactionID: "txn-new", AccountID: "acc-1", Name: "NEW", Date: "2025-06-07", Amount: decimal.NewFromInt(3)},
		},
		Accounts: testAccounts,
	}

	next, counts := Apply(ctx, existing, delta)

	want := []string{"txn-a", "txn-new", "txn-b"}
	got := ids(next)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: %v, want %v", got, want)
		}
	}
	if counts.Added != 1 || counts.Modified != 0 || counts.Removed != 0 {
		t.Errorf("unexpected counts: %+v", counts)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	ctx := context.Background()

	existing := []*Record{record("txn-a", 10), record("txn-b", 5)}

	delta := &provider.Delta{
		Removed: []provider.RemovedTransaction{{TransactionID: "txn-a"}},
		Added: []provider.Transaction{
			{TransactionID: "txn-new", AccountID: "acc-1", Name: "NEW", Date: "2025-06-01", Amount: decimal.NewFromInt(1)},
		},
	}

	Apply(ctx, existing, delta)

	if len(existing) != 2 || existing[0].ID != "txn-a" || existing[1].ID != "txn-b" {
		t.Errorf("input slice mutated: %v", ids(existing))
	}
}

func TestApplyRemovals(t *testing.T) {
	ctx := context.Background()

	settled := record("posted-b", 5)
	settled.PendingID = "pending-b"

	existing := []*Record{
		record("txn-a", 10),
		settled,
	}

	delta := &provider.Delta{
		Removed: []provider.RemovedTransaction{
			{TransactionID: "txn-a"},
			{TransactionID: "pending-b"}, // removal keyed on the old pending id
			{TransactionID: "txn-ghost"}, // never stored, must be a no-op
		},
	}

	next, counts := Apply(ctx, existing, delta)

	if len(next) != 0 {
		t.Errorf("expected empty set, got %v", ids(next))
	}
	if counts.Removed != 3 {
		t.Errorf("counts report input length, got %d", counts.Removed)
	}
}

func TestApplyModificationReordersByDate(t *testing.T) {
	ctx := context.Background()

	existing := []*Record{
		record("txn-a", 10),
		record("txn-b", 5),
	}

	delta := &provider.Delta{
		Modified: []provider.Transaction{
			{TransactionID: "txn-b", AccountID: "acc-1", Name: "MOVED", Date: "2025-06-20", Amount: decimal.NewFromInt(7)},
		},
		Accounts: testAccounts,
	}

	next, _ := Apply(ctx, existing, delta)

	if next[0].ID != "txn-b" || next[1].ID != "txn-a" {
		t.Fatalf("date-descending order not re-established: %v", ids(next))
	}
	if next[0].Name != "MOVED" || !next[0].Amount.Equal(decimal.NewFromInt(-7)) {
		t.Errorf("modification not applied: %+v", next[0])
	}
}

func TestApplyDropsUnmatchedModification(t *testing.T) {
	ctx := context.Background()

	existing := []*Record{record("txn-a", 10)}

	delta := &provider.Delta{
		Modified: []provider.Transaction{
			{TransactionID: "txn-ghost", AccountID: "acc-1", Name: "GHOST", Date: "2025-06-01", Amount: decimal.NewFromInt(1)},
		},
	}

	next, _ := Apply(ctx, existing, delta)

	if len(next) != 1 || next[0].ID != "txn-a" {
		t.Errorf("unmatched modification changed the set: %v", ids(next))
	}
}

func TestApplyPendingPromotion(t *testing.T) {
	ctx := context.Background()

	pending := record("pending-1", 5)
	pending.Pending = true
	pending.Category = "Dining"
	pending.Subcategory = "Coffee"
	pending.Internal = true
	pending.Notes = "card trip"

	existing := []*Record{pending}

	delta := &provider.Delta{
		Added: []provider.Transaction{
			{
				TransactionID:        "posted-1",
				PendingTransactionID: "pending-1",
				AccountID:            "acc-1",
				Name:                 "SETTLED",
				Date:                 "2025-06-06",
				Amount:               decimal.RequireFromString("10.05"),
				Category:             []string{"Food and Drink"},
			},
		},
		Accounts: testAccounts,
	}

	next, _ := Apply(ctx, existing, delta)

	if len(next) != 1 {
		t.Fatalf("promotion duplicated the record: %v", ids(next))
	}

	got := next[0]
	if got.ID != "posted-1" || got.PendingID != "pending-1" {
		t.Errorf("ids not promoted: id=%q pendingId=%q", got.ID, got.PendingID)
	}
	if got.Pending {
		t.Error("record still pending after promotion")
	}
	if got.Category != "Dining" || got.Subcategory != "Coffee" {
		t.Errorf("user classification lost: %q/%q", got.Category, got.Subcategory)
	}
	if !got.Internal || got.Notes != "card trip" {
		t.Errorf("user-owned fields lost: internal=%v notes=%q", got.Internal, got.Notes)
	}
	if !got.Amount.Equal(decimal.RequireFromString("-10.05")) {
		t.Errorf("amount not updated: %s", got.Amount)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()

	existing := []*Record{
		record("txn-a", 10),
		record("txn-b", 5),
	}

	delta := &provider.Delta{
		Added: []provider.Transaction{
			{TransactionID: "txn-new", AccountID: "acc-1", Name: "NEW", Date: "2025-06-07", Amount: decimal.NewFromInt(3)},
		},
		Modified: []provider.Transaction{
			{TransactionID: "txn-b", AccountID: "acc-1", Name: "EDITED", Date: "2025-06-05", Amount: decimal.NewFromInt(9)},
		},
		Removed:  []provider.RemovedTransaction{{TransactionID: "txn-a"}},
		Accounts: testAccounts,
	}

	first, _ := Apply(ctx, existing, delta)
	second, _ := Apply(ctx, existing, delta)

	if len(first) != len(second) {
		t.Fatalf("replay changed set size: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !recordsEqual(first[i], second[i]) {
			t.Errorf("replay diverged at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func recordsEqual(a, b *Record) bool {
	return a.ID == b.ID &&
		a.PendingID == b.PendingID &&
		a.Date == b.Date &&
		a.Amount.Equal(b.Amount) &&
		a.Pending == b.Pending &&
		a.Account == b.Account &&
		a.Name == b.Name &&
		a.Category == b.Category &&
		a.Subcategory == b.Subcategory &&
		a.Channel == b.Channel &&
		a.Internal == b.Internal &&
		a.Notes == b.Notes
}

func TestApplySkipsMalformedEntries(t *testing.T) {
	ctx := context.Background()

	existing := []*Record{record("txn-a", 10)}

	delta := &provider.Delta{
		Added: []provider.Transaction{
			{TransactionID: "txn-bad", AccountID: "acc-1", Name: "BAD DATE", Date: "June 7th", Amount: decimal.NewFromInt(1)},
			{TransactionID: "txn-good", AccountID: "acc-1", Name: "GOOD", Date: "2025-06-01", Amount: decimal.NewFromInt(1)},
		},
	}

	next, counts := Apply(ctx, existing, delta)

	got := ids(next)
	if len(got) != 2 || got[1] != "txn-good" {
		t.Errorf("expected bad entry skipped and good entry kept: %v", got)
	}
	// Counts come from the input lists, not from what survived mapping.
	if counts.Added != 2 {
		t.Errorf("unexpected added count: %d", counts.Added)
	}
}
