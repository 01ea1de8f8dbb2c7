package syncer

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/account-mirror/internal/logger"
	"github.com/dvloznov/account-mirror/internal/mirror"
	"github.com/dvloznov/account-mirror/internal/provider"
	"github.com/dvloznov/account-mirror/internal/store"
)

// Summary reports one completed sync cycle to the operator.
type Summary struct {
	Counts       mirror.Counts `json:"counts"`
	TotalRecords int           `json:"totalRecords"`
	NextCursor   string        `json:"nextCursor"`
	DryRun       bool          `json:"dryRun,omitempty"`
}

// Options tune a single cycle.
type Options struct {
	// FullResync ignores the persisted cursor and re-fetches the feed
	// from the beginning.
	FullResync bool

	// DryRun fetches and reconciles but persists neither records nor
	// cursor.
	DryRun bool
}

// Service runs sync cycles for one linked item. It holds no durable state
// of its own: everything flows from the feed through the reconciliation
// engine into the record store. The last fetched account snapshot is
// cached in memory for the totals endpoint only.
//
// The service does not serialize cycles itself; callers must ensure at
// most one cycle runs at a time against a given store, or cursor
// persistence and store replacement would race.
type Service struct {
	feed        provider.FeedService
	store       store.RecordStore
	accessToken string

	mu           sync.RWMutex
	lastAccounts []provider.Account
}

// NewService creates a sync service over the given feed and store.
func NewService(feed provider.FeedService, recordStore store.RecordStore, accessToken string) *Service {
	return &Service{
		feed:        feed,
		store:       recordStore,
		accessToken: accessToken,
	}
}

// RunCycle executes one full sync cycle: load cursor, drive the feed to
// exhaustion, reconcile the delta onto the existing set, persist the new
// set and then the cursor. Any fetch-stage failure returns before any
// mutation, so the store and cursor are all-or-nothing relative to the
// cycle.
func (s *Service) RunCycle(ctx context.Context, opts Options) (*Summary, error) {
	log := logger.FromContext(ctx)

	cursor := ""
	if !opts.FullResync {
		var err error
		cursor, err = s.store.LoadCursor(ctx)
		if err != nil {
			return nil, fmt.Errorf("RunCycle: loading cursor: %w", err)
		}
	}

	log.Info().
		Bool("full_resync", cursor == "").
		Bool("dry_run", opts.DryRun).
		Msg("Starting sync cycle")

	delta, err := provider.SyncAll(ctx, s.feed, s.accessToken, cursor)
	if err != nil {
		return nil, fmt.Errorf("RunCycle: fetching delta: %w", err)
	}

	existing, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("RunCycle: loading records: %w", err)
	}

	next, counts := mirror.Apply(ctx, existing, delta)

	if !opts.DryRun {
		if err := s.store.ReplaceAll(ctx, next); err != nil {
			return nil, fmt.Errorf("RunCycle: replacing records: %w", err)
		}
		if err := s.store.SaveCursor(ctx, delta.NextCursor); err != nil {
			return nil, fmt.Errorf("RunCycle: saving cursor: %w", err)
		}
	}

	s.mu.Lock()
	s.lastAccounts = delta.Accounts
	s.mu.Unlock()

	log.Info().
		Int("added", counts.Added).
		Int("modified", counts.Modified).
		Int("removed", counts.Removed).
		Int("total_records", len(next)).
		Bool("dry_run", opts.DryRun).
		Msg("Sync cycle completed")

	return &Summary{
		Counts:       counts,
		TotalRecords: len(next),
		NextCursor:   delta.NextCursor,
		DryRun:       opts.DryRun,
	}, nil
}

// AccountTotals derives balance totals from the most recent cycle's
// account snapshot. Returns nil before the first successful cycle.
func (s *Service) AccountTotals(ctx context.Context) ([]*mirror.AccountTotals, error) {
	s.mu.RLock()
	accounts := s.lastAccounts
	s.mu.RUnlock()

	log := logger.FromContext(ctx)

	var totals []*mirror.AccountTotals
	for _, acc := range accounts {
		t, err := mirror.Totals(acc)
		if err != nil {
			log.Warn().Err(err).Str("account_id", acc.AccountID).Msg("Skipping account with malformed balances")
			continue
		}
		totals = append(totals, t)
	}
	return totals, nil
}
