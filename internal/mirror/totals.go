package mirror

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/account-mirror/internal/provider"
)

// AccountTotals is the derived balance triple handed to the presentation
// layer for one account.
type AccountTotals struct {
	AccountID string          `json:"accountId"`
	Name      string          `json:"name"`
	Current   decimal.Decimal `json:"current"`
	Available decimal.Decimal `json:"available"`
	Pending   decimal.Decimal `json:"pending"`
}

// Totals derives available/current/pending figures from an account
// snapshot. Credit balances are liabilities, so they are inverted and
// reported as negative spend capacity consumed. For every other account
// type a null available balance collapses available onto current with
// zero pending.
func Totals(account provider.Account) (*AccountTotals, error) {
	totals := &AccountTotals{
		AccountID: account.AccountID,
		Name:      account.Name,
	}

	if strings.EqualFold(account.Type, "credit") {
		if account.Balances.Limit == nil || account.Balances.Available == nil {
			return nil, fmt.Errorf("Totals: credit account %s is missing limit or available balance", account.AccountID)
		}
		totals.Available = account.Balances.Limit.Sub(*account.Balances.Available).Neg()
		totals.Current = account.Balances.Current.Neg()
		totals.Pending = totals.Available.Sub(totals.Current)
		return totals, nil
	}

	if account.Balances.Available == nil {
		totals.Available = account.Balances.Current
		totals.Current = account.Balances.Current
		totals.Pending = decimal.Zero
		return totals, nil
	}

	totals.Available = *account.Balances.Available
	totals.Current = account.Balances.Current
	totals.Pending = totals.Available.Sub(totals.Current)
	return totals, nil
}
