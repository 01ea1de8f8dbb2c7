package syncer

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/account-mirror/internal/mirror"
	"github.com/dvloznov/account-mirror/internal/provider"
	"github.com/dvloznov/account-mirror/internal/store/inmemory"
)

// scriptedFeed returns one page per call, in order.
type scriptedFeed struct {
	pages []*provider.SyncResponse
	err   error
	calls int
}

func (f *scriptedFeed) SyncPage(ctx context.Context, accessToken, cursor string) (*provider.SyncResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.calls >= len(f.pages) {
		return nil, errors.New("no more scripted pages")
	}
	page := f.pages[f.calls]
	f.calls++
	return page, nil
}

func (f *scriptedFeed) ExchangePublicToken(ctx context.Context, publicToken string) (*provider.TokenExchangeResponse, error) {
	return nil, errors.New("not implemented")
}

func onePage(added ...provider.Transaction) *provider.SyncResponse {
	return &provider.SyncResponse{
		Added: added,
		Accounts: []provider.Account{
			{
				AccountID: "acc-1",
				Name:      "Checking",
				Type:      "depository",
				Balances:  provider.Balances{Current: decimal.NewFromInt(1000)},
			},
		},
		NextCursor: "cursor-next",
	}
}

func txn(id, date string) provider.Transaction {
	return provider.Transaction{
		TransactionID: id,
		AccountID:     "acc-1",
		Name:          "TXN " + id,
		Date:          date,
		Amount:        decimal.NewFromInt(5),
	}
}

func TestRunCyclePersistsRecordsAndCursor(t *testing.T) {
	ctx := context.Background()
	recordStore := inmemory.NewStore()
	feed := &scriptedFeed{pages: []*provider.SyncResponse{
		onePage(txn("txn-1", "2025-06-02"), txn("txn-2", "2025-06-01")),
	}}

	svc := NewService(feed, recordStore, "token")

	summary, err := svc.RunCycle(ctx, Options{})
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if summary.Counts.Added != 2 || summary.TotalRecords != 2 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if summary.NextCursor != "cursor-next" {
		t.Errorf("unexpected cursor in summary: %q", summary.NextCursor)
	}

	records, _ := recordStore.LoadAll(ctx)
	if len(records) != 2 || records[0].ID != "txn-1" {
		t.Errorf("records not persisted in order: %+v", records)
	}

	cursor, _ := recordStore.LoadCursor(ctx)
	if cursor != "cursor-next" {
		t.Errorf("cursor not persisted: %q", cursor)
	}
}

func TestRunCycleFetchFailureLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	recordStore := inmemory.NewStore()

	// Seed the store with a prior cycle's state.
	seed := []*mirror.Record{{ID: "txn-old", Amount: decimal.NewFromInt(-1)}}
	if err := recordStore.ReplaceAll(ctx, seed); err != nil {
		t.Fatal(err)
	}
	if err := recordStore.SaveCursor(ctx, "cursor-old"); err != nil {
		t.Fatal(err)
	}

	feed := &scriptedFeed{err: errors.New("connection reset")}
	svc := NewService(feed, recordStore, "token")

	if _, err := svc.RunCycle(ctx, Options{}); err == nil {
		t.Fatal("expected error, got nil")
	}

	records, _ := recordStore.LoadAll(ctx)
	if len(records) != 1 || records[0].ID != "txn-old" {
		t.Errorf("store mutated on failed cycle: %+v", records)
	}
	cursor, _ := recordStore.LoadCursor(ctx)
	if cursor != "cursor-old" {
		t.Errorf("cursor mutated on failed cycle: %q", cursor)
	}
}

func TestRunCycleDryRun(t *testing.T) {
	ctx := context.Background()
	recordStore := inmemory.NewStore()
	feed := &scriptedFeed{pages: []*provider.SyncResponse{
		onePage(txn("txn-1", "2025-06-02")),
	}}

	svc := NewService(feed, recordStore, "token")

	summary, err := svc.RunCycle(ctx, Options{DryRun: true})
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if !summary.DryRun || summary.TotalRecords != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}

	records, _ := recordStore.LoadAll(ctx)
	if len(records) != 0 {
		t.Errorf("dry run persisted records: %+v", records)
	}
	cursor, _ := recordStore.LoadCursor(ctx)
	if cursor != "" {
		t.Errorf("dry run persisted cursor: %q", cursor)
	}
}

func TestRunCycleSuccessiveCyclesMerge(t *testing.T) {
	ctx := context.Background()
	recordStore := inmemory.NewStore()

	feed := &scriptedFeed{pages: []*provider.SyncResponse{
		onePage(txn("txn-1", "2025-06-02")),
		{
			Modified: []provider.Transaction{
				{
					TransactionID: "txn-1",
					AccountID:     "acc-1",
					Name:          "TXN txn-1 RENAMED",
					Date:          "2025-06-02",
					Amount:        decimal.NewFromInt(8),
				},
			},
			NextCursor: "cursor-2",
		},
	}}

	svc := NewService(feed, recordStore, "token")

	if _, err := svc.RunCycle(ctx, Options{}); err != nil {
		t.Fatalf("first cycle: %v", err)
	}
	if _, err := svc.RunCycle(ctx, Options{}); err != nil {
		t.Fatalf("second cycle: %v", err)
	}

	records, _ := recordStore.LoadAll(ctx)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Name != "TXN txn-1 RENAMED" || !records[0].Amount.Equal(decimal.NewFromInt(-8)) {
		t.Errorf("modification not merged: %+v", records[0])
	}

	cursor, _ := recordStore.LoadCursor(ctx)
	if cursor != "cursor-2" {
		t.Errorf("cursor not advanced: %q", cursor)
	}
}

func TestAccountTotals(t *testing.T) {
	ctx := context.Background()
	recordStore := inmemory.NewStore()
	feed := &scriptedFeed{pages: []*provider.SyncResponse{onePage()}}

	svc := NewService(feed, recordStore, "token")

	// Before any cycle there is no snapshot to derive from.
	totals, err := svc.AccountTotals(ctx)
	if err != nil {
		t.Fatalf("AccountTotals: %v", err)
	}
	if totals != nil {
		t.Errorf("expected nil totals before first cycle, got %+v", totals)
	}

	if _, err := svc.RunCycle(ctx, Options{}); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	totals, err = svc.AccountTotals(ctx)
	if err != nil {
		t.Fatalf("AccountTotals: %v", err)
	}
	if len(totals) != 1 || totals[0].AccountID != "acc-1" {
		t.Fatalf("unexpected totals: %+v", totals)
	}
	if !totals[0].Current.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("unexpected current balance: %s", totals[0].Current)
	}
}
