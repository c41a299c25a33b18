package http

import (
	"errors"
	"net/http"

	"ledgerflow.com/internal/domain/entity"
	"ledgerflow.com/internal/infrastructure/validator"
)

// Wire types of the devnet API.

// AccountResponse is returned by GET /v1/accounts/{id}
type AccountResponse struct {
	ID        entity.AccountID `json:"id"`
	PublicKey string           `json:"publicKey"`
}

// BalanceResponse is returned by GET /v1/accounts/{id}/balance
type BalanceResponse struct {
	AccountID entity.AccountID `json:"accountId"`
	Balance   entity.Amount    `json:"balance"`
}

// CreateAccountRequest is the body of POST /v1/accounts
type CreateAccountRequest struct {
	PublicKey      string        `json:"publicKey"`
	InitialBalance entity.Amount `json:"initialBalance"`
	MaxFee         entity.Amount `json:"maxFee"`
}

// TransferRequest is the body of POST /v1/transfers
type TransferRequest struct {
	Entries []entity.TransferEntry `json:"entries"`
	MaxFee  entity.Amount          `json:"maxFee"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error  string        `json:"error"`
	Status entity.Status `json:"status"`
}

var (
	errRateLimited   = errors.New("rate limit exceeded")
	errMalformedBody = errors.New("malformed request body")
)

// errorStatuses maps ledger errors to HTTP and ledger statuses. Order
// matters: the first match wins.
var errorStatuses = []struct {
	err    error
	code   int
	status entity.Status
}{
	{validator.ErrUnauthenticated, http.StatusUnauthorized, entity.StatusInvalidSignature},
	{entity.ErrUnauthorizedDebit, http.StatusForbidden, entity.StatusInvalidSignature},
	{errRateLimited, http.StatusTooManyRequests, entity.StatusBusy},
	{entity.ErrReceiptNotFound, http.StatusNotFound, entity.StatusReceiptNotFound},
	{entity.ErrAccountNotFound, http.StatusNotFound, entity.StatusInvalidAccountID},
	{entity.ErrInsufficientBalance, http.StatusUnprocessableEntity, entity.StatusInsufficientPayerBalance},
	{entity.ErrFeeCeilingExceeded, http.StatusUnprocessableEntity, entity.StatusInsufficientTxFee},
	{entity.ErrInvalidAccountID, http.StatusBadRequest, entity.StatusInvalidAccountID},
	{entity.ErrUnbalancedTransfer, http.StatusBadRequest, entity.StatusInvalidTransaction},
	{entity.ErrInvalidAmount, http.StatusBadRequest, entity.StatusInvalidTransaction},
	{entity.ErrInvalidPublicKey, http.StatusBadRequest, entity.StatusInvalidTransaction},
	{errMalformedBody, http.StatusBadRequest, entity.StatusInvalidTransaction},
}

// StatusForError returns the HTTP code and ledger status for err.
func StatusForError(err error) (int, entity.Status) {
	for _, s := range errorStatuses {
		if errors.Is(err, s.err) {
			return s.code, s.status
		}
	}
	return http.StatusInternalServerError, entity.StatusInternalError
}

// ErrorForStatus returns the ledger error for a status reported by the
// server, or nil if the status is unknown. Statuses shared by several
// errors resolve to the first one listed.
func ErrorForStatus(code int, status entity.Status) error {
	for _, s := range errorStatuses {
		if s.code == code && s.status == status {
			return s.err
		}
	}
	return nil
}
