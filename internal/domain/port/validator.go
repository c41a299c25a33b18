package port

import (
	"context"
	"net/http"

	"ledgerflow.com/internal/domain/entity"
)

// RequestValidator is the port for signed write request validation. It
// returns the authenticated payer account.
type RequestValidator interface {
	ValidateRequest(ctx context.Context, r *http.Request, body []byte) (entity.AccountID, error)
}
