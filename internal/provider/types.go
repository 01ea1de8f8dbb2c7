package provider

import "github.com/shopspring/decimal"

// Transaction is one entry of the upstream change feed, in the provider's
// native shape. Dates are kept as the raw "YYYY-MM-DD" string so that a
// malformed date fails only the affected entry's mapping, not page decoding.
type Transaction struct {
	TransactionID        string          `json:"transactionId"`
	PendingTransactionID string          `json:"pendingTransactionId,omitempty"`
	AccountID            string          `json:"accountId"`
	Name                 string          `json:"name"`
	Date                 string          `json:"date"`
	Amount               decimal.Decimal `json:"amount"`
	Pending              bool            `json:"pending"`
	Category             []string        `json:"category"`
	PaymentChannel       string          `json:"paymentChannel"`
}

// RemovedTransaction identifies an entry deleted upstream.
type RemovedTransaction struct {
	TransactionID string `json:"transactionId"`
}

// Balances carries the provider's balance figures for one account.
// Available and Limit are nil when the provider reports them as null.
type Balances struct {
	Current   decimal.Decimal  `json:"current"`
	Available *decimal.Decimal `json:"available"`
	Limit     *decimal.Decimal `json:"limit"`
}

// Account is the provider's account snapshot. It is consumed for account
// name resolution and totals display; the engine never persists it.
type Account struct {
	AccountID string   `json:"accountId"`
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Balances  Balances `json:"balances"`
}

// SyncRequest is the body of one page request against the delta endpoint.
type SyncRequest struct {
	ClientID    string `json:"clientId"`
	Secret      string `json:"secret"`
	AccessToken string `json:"accessToken"`
	Cursor      string `json:"cursor,omitempty"`
}

// SyncResponse is one page of the delta feed.
type SyncResponse struct {
	Added        []Transaction        `json:"added"`
	Modified     []Transaction        `json:"modified"`
	Removed      []RemovedTransaction `json:"removed"`
	Accounts     []Account            `json:"accounts"`
	HasMore      bool                 `json:"hasMore"`
	NextCursor   string               `json:"nextCursor"`
	ErrorCode    string               `json:"errorCode,omitempty"`
	ErrorMessage string               `json:"errorMessage,omitempty"`
}

// Delta is the flattened result of driving the feed to exhaustion:
// all pages concatenated, the first non-empty account snapshot, and the
// cursor to persist once the cycle completes.
type Delta struct {
	Added      []Transaction
	Modified   []Transaction
	Removed    []RemovedTransaction
	Accounts   []Account
	NextCursor string
}

// TokenExchangeRequest is the body of a public-token exchange.
type TokenExchangeRequest struct {
	ClientID    string `json:"clientId"`
	Secret      string `json:"secret"`
	PublicToken string `json:"publicToken"`
}

// TokenExchangeResponse carries the long-lived credentials for an item.
type TokenExchangeResponse struct {
	AccessToken  string `json:"accessToken"`
	ItemID       string `json:"itemId"`
	ErrorCode    string `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}
