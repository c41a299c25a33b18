package entity

import "errors"

// Workflow failure classes. Every error surfaced by a workflow step wraps
// exactly one of these.
var (
	ErrConfiguration        = errors.New("configuration error")
	ErrClientInitialization = errors.New("client initialization error")
	ErrQuery                = errors.New("query error")
	ErrProvisioning         = errors.New("provisioning error")
	ErrTransfer             = errors.New("transfer error")
)

var (
	ErrMissingAccountID  = errors.New("missing required value: MY_ACCOUNT_ID")
	ErrMissingPrivateKey = errors.New("missing required value: MY_PRIVATE_KEY")
)

// Ledger errors
var (
	ErrInvalidAccountID    = errors.New("invalid account id")
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountExists       = errors.New("account already exists")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient payer balance")
	ErrUnbalancedTransfer  = errors.New("transfer entries do not sum to zero")
	ErrFeeCeilingExceeded  = errors.New("transaction fee exceeds max fee")
	ErrReceiptNotFound     = errors.New("receipt not found")
	ErrInvalidPublicKey    = errors.New("invalid public key")
	ErrUnauthorizedDebit   = errors.New("debited account is not the payer")
)
