package mirror

import (
	"testing"

	"github.com/dvloznov/account-mirror/internal/provider"
)

func TestResolve(t *testing.T) {
	records := []*Record{
		{ID: "pending-1"},
		{ID: "posted-2", PendingID: "pending-2"},
		{ID: "posted-3"},
	}

	tests := []struct {
		name      string
		incoming  provider.Transaction
		wantIndex int
		wantFound bool
	}{
		{
			name: "pending id match wins",
			incoming: provider.Transaction{
				TransactionID:        "posted-1",
				PendingTransactionID: "pending-1",
			},
			wantIndex: 0,
			wantFound: true,
		},
		{
			name: "direct id match",
			incoming: provider.Transaction{
				TransactionID: "posted-3",
			},
			wantIndex: 2,
			wantFound: true,
		},
		{
			name: "pending id set but already promoted falls through to direct match",
			incoming: provider.Transaction{
				TransactionID:        "posted-2",
				PendingTransactionID: "pending-2",
			},
			wantIndex: 1,
			wantFound: true,
		},
		{
			name: "no match",
			incoming: provider.Transaction{
				TransactionID:        "posted-9",
				PendingTransactionID: "pending-9",
			},
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i, ok := Resolve(tt.incoming, records)
			if ok != tt.wantFound {
				t.Fatalf("Resolve found=%v, want %v", ok, tt.wantFound)
			}
			if ok && i != tt.wantIndex {
				t.Errorf("Resolve index=%d, want %d", i, tt.wantIndex)
			}
		})
	}
}

func TestResolvePendingTakesPriorityOverDirect(t *testing.T) {
	// Both tiers would match different records; the pending match must win.
	records := []*Record{
		{ID: "posted-1"},
		{ID: "pending-1"},
	}

	incoming := provider.Transaction{
		TransactionID:        "posted-1",
		PendingTransactionID: "pending-1",
	}

	i, ok := Resolve(incoming, records)
	if !ok || i != 1 {
		t.Errorf("Resolve = (%d, %v), want pending record at index 1", i, ok)
	}
}
