package mirror

import (
	"errors"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/account-mirror/internal/provider"
)

var testAccounts = []provider.Account{
	{AccountID: "acc-1", Name: "Checking", Type: "depository"},
	{AccountID: "acc-2", Name: "Credit Card", Type: "credit"},
}

func TestToRecordNew(t *testing.T) {
	txn := provider.Transaction{
		TransactionID:  "txn-1",
		AccountID:      "acc-1",
		Name:           "COFFEE SHOP",
		Date:           "2025-06-02",
		Amount:         decimal.RequireFromString("12.50"),
		Pending:        true,
		Category:       []string{"Food and Drink", "Restaurants", "Coffee Shop"},
		PaymentChannel: "in store",
	}

	rec, err := ToRecord(txn, nil, testAccounts)
	if err != nil {
		t.Fatalf("ToRecord: %v", err)
	}

	if rec.ID != "txn-1" {
		t.Errorf("unexpected ID: %q", rec.ID)
	}
	if rec.Date != (civil.Date{Year: 2025, Month: 6, Day: 2}) {
		t.Errorf("unexpected date: %v", rec.Date)
	}
	if !rec.Amount.Equal(decimal.RequireFromString("-12.50")) {
		t.Errorf("amount not sign-inverted: %s", rec.Amount)
	}
	if !rec.Pending {
		t.Error("pending flag lost")
	}
	if rec.Account != "Checking" {
		t.Errorf("account not resolved: %q", rec.Account)
	}
	if rec.Category != "Food and Drink" {
		t.Errorf("unexpected category: %q", rec.Category)
	}
	if rec.Subcategory != "Restaurants Coffee Shop" {
		t.Errorf("unexpected subcategory: %q", rec.Subcategory)
	}
	if rec.Channel != "in store" {
		t.Errorf("unexpected channel: %q", rec.Channel)
	}
	if rec.Internal || rec.Notes != "" {
		t.Errorf("user-owned fields not defaulted: internal=%v notes=%q", rec.Internal, rec.Notes)
	}
}

func TestToRecordSentinels(t *testing.T) {
	txn := provider.Transaction{
		TransactionID: "txn-1",
		AccountID:     "acc-unknown",
		Name:          "MYSTERY",
		Date:          "2025-06-02",
		Amount:        decimal.NewFromInt(5),
	}

	rec, err := ToRecord(txn, nil, testAccounts)
	if err != nil {
		t.Fatalf("ToRecord: %v", err)
	}

	if rec.Account != UnknownAccount {
		t.Errorf("expected unknown account sentinel, got %q", rec.Account)
	}
	if rec.Category != UnknownCategory || rec.Subcategory != UnknownCategory {
		t.Errorf("expected unknown category sentinels, got %q/%q", rec.Category, rec.Subcategory)
	}
}

func TestToRecordPreservesUserFields(t *testing.T) {
	existing := &Record{
		ID:          "txn-1",
		Date:        civil.Date{Year: 2025, Month: 6, Day: 1},
		Amount:      decimal.NewFromInt(-10),
		Category:    "Dining",
		Subcategory: "Coffee",
		Channel:     "card",
		Internal:    true,
		Notes:       "team breakfast",
	}

	txn := provider.Transaction{
		TransactionID:  "txn-1",
		AccountID:      "acc-1",
		Name:           "COFFEE SHOP POSTED",
		Date:           "2025-06-02",
		Amount:         decimal.RequireFromString("11.00"),
		Category:       []string{"Food and Drink", "Restaurants"},
		PaymentChannel: "in store",
	}

	rec, err := ToRecord(txn, existing, testAccounts)
	if err != nil {
		t.Fatalf("ToRecord: %v", err)
	}

	// Upstream-authoritative fields overwritten
	if rec.Name != "COFFEE SHOP POSTED" {
		t.Errorf("name not updated: %q", rec.Name)
	}
	if !rec.Amount.Equal(decimal.RequireFromString("-11.00")) {
		t.Errorf("amount not updated: %s", rec.Amount)
	}
	if rec.Date != (civil.Date{Year: 2025, Month: 6, Day: 2}) {
		t.Errorf("date not updated: %v", rec.Date)
	}

	// User classification preserved over the upstream path
	if rec.Category != "Dining" || rec.Subcategory != "Coffee" || rec.Channel != "card" {
		t.Errorf("classification overwritten: %q/%q/%q", rec.Category, rec.Subcategory, rec.Channel)
	}
	if !rec.Internal || rec.Notes != "team breakfast" {
		t.Errorf("user-owned fields lost: internal=%v notes=%q", rec.Internal, rec.Notes)
	}
}

func TestToRecordRederivesEmptyClassification(t *testing.T) {
	existing := &Record{
		ID:     "txn-1",
		Date:   civil.Date{Year: 2025, Month: 6, Day: 1},
		Amount: decimal.NewFromInt(-10),
	}

	txn := provider.Transaction{
		TransactionID:  "txn-1",
		AccountID:      "acc-1",
		Name:           "COFFEE SHOP",
		Date:           "2025-06-02",
		Amount:         decimal.NewFromInt(10),
		Category:       []string{"Food and Drink"},
		PaymentChannel: "online",
	}

	rec, err := ToRecord(txn, existing, testAccounts)
	if err != nil {
		t.Fatalf("ToRecord: %v", err)
	}

	if rec.Category != "Food and Drink" || rec.Subcategory != "" {
		t.Errorf("classification not re-derived: %q/%q", rec.Category, rec.Subcategory)
	}
	if rec.Channel != "online" {
		t.Errorf("channel not re-derived: %q", rec.Channel)
	}
}

func TestToRecordKeepsPendingIDThroughPromotion(t *testing.T) {
	existing := &Record{
		ID:        "posted-1",
		PendingID: "pending-1",
		Date:      civil.Date{Year: 2025, Month: 6, Day: 1},
		Amount:    decimal.NewFromInt(-10),
	}

	txn := provider.Transaction{
		TransactionID: "posted-1",
		AccountID:     "acc-1",
		Name:          "SETTLED",
		Date:          "2025-06-02",
		Amount:        decimal.NewFromInt(10),
	}

	rec, err := ToRecord(txn, existing, testAccounts)
	if err != nil {
		t.Fatalf("ToRecord: %v", err)
	}

	if rec.PendingID != "pending-1" {
		t.Errorf("pending id lost on update: %q", rec.PendingID)
	}
}

func TestToRecordMalformed(t *testing.T) {
	tests := []struct {
		name string
		txn  provider.Transaction
	}{
		{
			name: "bad date",
			txn: provider.Transaction{
				TransactionID: "txn-1",
				Date:          "02/06/2025",
			},
		},
		{
			name: "missing transaction id",
			txn: provider.Transaction{
				Date: "2025-06-02",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToRecord(tt.txn, nil, testAccounts)
			var shapeErr *DataShapeError
			if !errors.As(err, &shapeErr) {
				t.Fatalf("expected DataShapeError, got %v", err)
			}
		})
	}
}

func TestSplitCategoryPath(t *testing.T) {
	tests := []struct {
		name    string
		path    []string
		wantCat string
		wantSub string
	}{
		{"empty", nil, UnknownCategory, UnknownCategory},
		{"single element", []string{"Travel"}, "Travel", ""},
		{"two elements", []string{"Travel", "Taxi"}, "Travel", "Taxi"},
		{"three elements", []string{"Food and Drink", "Restaurants", "Coffee Shop"}, "Food and Drink", "Restaurants Coffee Shop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, sub := splitCategoryPath(tt.path)
			if cat != tt.wantCat || sub != tt.wantSub {
				t.Errorf("splitCategoryPath(%v) = %q/%q, want %q/%q", tt.path, cat, sub, tt.wantCat, tt.wantSub)
			}
		})
	}
}
