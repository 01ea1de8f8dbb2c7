package provider

import "context"

// FeedService defines the interface for talking to the upstream provider.
// This interface enables mocking and testing of sync and linking logic
// without network access.
type FeedService interface {
	// SyncPage fetches one page of the incremental change feed for the
	// given access token, resuming after the given cursor. An empty
	// cursor requests the feed from the beginning.
	SyncPage(ctx context.Context, accessToken, cursor string) (*SyncResponse, error)

	// ExchangePublicToken trades a short-lived public token for a
	// long-lived access token and item id.
	ExchangePublicToken(ctx context.Context, publicToken string) (*TokenExchangeResponse, error)
}
