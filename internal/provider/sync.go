package provider

import (
	"context"
	"fmt"

	"github.com/dvloznov/account-mirror/internal/logger"
)

// maxSyncPages bounds a single cycle against a provider that never stops
// reporting hasMore. A healthy feed exhausts in a handful of pages.
const maxSyncPages = 1000

// SyncAll drives the paginated delta feed to exhaustion, starting from the
// given cursor (empty for a full resync). Pages are concatenated into flat
// added/modified/removed sequences; the account snapshot is captured from
// the first page that returns a non-empty account list, since later pages
// repeat it.
//
// Any page failure — transport, decode, or an application-level errorCode —
// aborts the loop and discards all accumulated partial results, so the
// caller's previously persisted cursor stays valid and the next attempt
// re-fetches the same window.
func SyncAll(ctx context.Context, feed FeedService, accessToken, cursor string) (*Delta, error) {
	log := logger.FromContext(ctx)

	delta := &Delta{}
	pages := 0

	for {
		resp, err := feed.SyncPage(ctx, accessToken, cursor)
		if err != nil {
			return nil, fmt.Errorf("SyncAll: page %d: %w", pages+1, err)
		}
		if resp.ErrorCode != "" {
			return nil, fmt.Errorf("SyncAll: page %d: %w", pages+1, &UpstreamError{
				Code:    resp.ErrorCode,
				Message: resp.ErrorMessage,
			})
		}

		delta.Added = append(delta.Added, resp.Added...)
		delta.Modified = append(delta.Modified, resp.Modified...)
		delta.Removed = append(delta.Removed, resp.Removed...)
		if len(delta.Accounts) == 0 && len(resp.Accounts) > 0 {
			delta.Accounts = resp.Accounts
		}

		pages++
		log.Debug().
			Int("page", pages).
			Int("added", len(resp.Added)).
			Int("modified", len(resp.Modified)).
			Int("removed", len(resp.Removed)).
			Bool("has_more", resp.HasMore).
			Msg("Fetched sync page")

		cursor = resp.NextCursor
		if !resp.HasMore {
			break
		}
		if pages >= maxSyncPages {
			return nil, fmt.Errorf("SyncAll: provider still reports more data after %d pages", pages)
		}
	}

	delta.NextCursor = cursor

	log.Info().
		Int("pages", pages).
		Int("added", len(delta.Added)).
		Int("modified", len(delta.Modified)).
		Int("removed", len(delta.Removed)).
		Int("accounts", len(delta.Accounts)).
		Msg("Delta feed exhausted")

	return delta, nil
}
