package entity

import (
	"fmt"
	"strconv"
	"strings"
)

// AccountID identifies a ledger account. Its format belongs to the ledger
// backend; the simulators use shard.realm.num, e.g. 0.0.1001.
type AccountID string

// ParseAccountID parses and validates a shard.realm.num account id.
func ParseAccountID(s string) (AccountID, error) {
	id := AccountID(strings.TrimSpace(s))
	if err := id.Validate(); err != nil {
		return "", err
	}
	parts := strings.Split(string(id), ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("%w: %q", ErrInvalidAccountID, string(id))
	}
	for _, p := range parts {
		if _, err := strconv.ParseUint(p, 10, 64); err != nil {
			return "", fmt.Errorf("%w: %q", ErrInvalidAccountID, string(id))
		}
	}
	return id, nil
}

// Validate only rejects an empty id.
func (id AccountID) Validate() error {
	if strings.TrimSpace(string(id)) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidAccountID)
	}
	return nil
}

// Num returns the account number component.
func (id AccountID) Num() uint64 {
	i := strings.LastIndexByte(string(id), '.')
	n, _ := strconv.ParseUint(string(id)[i+1:], 10, 64)
	return n
}

func (id AccountID) String() string {
	return string(id)
}

// Account is a ledger account as held by the in-memory ledger.
type Account struct {
	ID        AccountID
	PublicKey string
	Balance   Amount
}

// AccountCreate is a request to create a new account funded by the payer.
type AccountCreate struct {
	PublicKey      string
	InitialBalance Amount
}

// Validate validates the create-account request.
func (c AccountCreate) Validate() error {
	if strings.TrimSpace(c.PublicKey) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidPublicKey)
	}
	if c.InitialBalance < 0 {
		return fmt.Errorf("%w: initial balance %d", ErrInvalidAmount, c.InitialBalance)
	}
	return nil
}

// LedgerEntry represents a single balance change applied by a transaction.
type LedgerEntry struct {
	TransactionID string
	Account       AccountID
	Amount        Amount
}
