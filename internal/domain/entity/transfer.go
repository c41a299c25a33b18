package entity

import "fmt"

// TransferEntry is one side of a transfer: a signed amount applied to an account.
type TransferEntry struct {
	Account AccountID `json:"account"`
	Amount  Amount    `json:"amount"`
}

// Transfer moves value between accounts. Its entries must sum to zero.
type Transfer struct {
	Entries []TransferEntry `json:"entries"`
}

// NewTransfer builds the matched debit/credit pair for moving amount from
// one account to another.
func NewTransfer(from, to AccountID, amount Amount) Transfer {
	return Transfer{
		Entries: []TransferEntry{
			{Account: from, Amount: -amount},
			{Account: to, Amount: amount},
		},
	}
}

// Sum returns the sum of all entries.
func (t Transfer) Sum() Amount {
	var sum Amount
	for _, e := range t.Entries {
		sum += e.Amount
	}
	return sum
}

// Validate validates the transfer
func (t Transfer) Validate() error {
	if len(t.Entries) < 2 {
		return fmt.Errorf("%w: need at least two entries, got %d", ErrUnbalancedTransfer, len(t.Entries))
	}
	seen := make(map[AccountID]struct{}, len(t.Entries))
	for _, e := range t.Entries {
		if err := e.Account.Validate(); err != nil {
			return err
		}
		if e.Amount == 0 {
			return fmt.Errorf("%w: zero entry for %s", ErrInvalidAmount, e.Account)
		}
		if _, dup := seen[e.Account]; dup {
			return fmt.Errorf("%w: account %s appears twice", ErrUnbalancedTransfer, e.Account)
		}
		seen[e.Account] = struct{}{}
	}
	if sum := t.Sum(); sum != 0 {
		return fmt.Errorf("%w: sum is %d", ErrUnbalancedTransfer, sum)
	}
	return nil
}

// Debits returns the entries with negative amounts.
func (t Transfer) Debits() []TransferEntry {
	var out []TransferEntry
	for _, e := range t.Entries {
		if e.Amount < 0 {
			out = append(out, e)
		}
	}
	return out
}
