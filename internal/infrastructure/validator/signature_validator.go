package validator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"ledgerflow.com/internal/domain/entity"
	"ledgerflow.com/internal/domain/port"
	"ledgerflow.com/internal/infrastructure/keys"
	"ledgerflow.com/internal/infrastructure/logger"
)

// Signed request headers.
const (
	HeaderAccountID = "X-Account-ID"
	HeaderTimestamp = "X-Timestamp"
	HeaderNonce     = "X-Nonce"
	HeaderSignature = "X-Signature"
)

// ErrUnauthenticated is wrapped by every validation failure.
var ErrUnauthenticated = errors.New("request not authenticated")

// nonceTTL must exceed twice the timestamp tolerance for replays to be caught.
const nonceTTL = time.Hour

// NonceStore tracks used nonces to prevent replay attacks
type NonceStore struct {
	mu     sync.Mutex
	nonces map[string]time.Time
}

// NewNonceStore creates a new nonce store
func NewNonceStore() *NonceStore {
	return &NonceStore{
		nonces: make(map[string]time.Time),
	}
}

// IsValid checks if a nonce is valid (not seen before) and records it
func (ns *NonceStore) IsValid(nonce string, timestamp time.Time) bool {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if seen, exists := ns.nonces[nonce]; exists {
		if time.Since(seen) <= nonceTTL {
			return false
		}
		delete(ns.nonces, nonce)
	}

	ns.nonces[nonce] = timestamp

	if len(ns.nonces) > 10000 {
		ns.cleanup()
	}

	return true
}

// cleanup removes expired nonces
func (ns *NonceStore) cleanup() {
	now := time.Now()
	for nonce, timestamp := range ns.nonces {
		if now.Sub(timestamp) > nonceTTL {
			delete(ns.nonces, nonce)
		}
	}
}

type accountLookup interface {
	GetAccount(ctx context.Context, id entity.AccountID) (*entity.Account, error)
}

// SignatureValidator implements the RequestValidator port. Requests are
// signed with the ed25519 key of the paying account.
type SignatureValidator struct {
	accounts           accountLookup
	nonceStore         *NonceStore
	timestampTolerance time.Duration
	logger             logger.Logger
	now                func() time.Time
}

// NewSignatureValidator creates a new signature validator
func NewSignatureValidator(
	accounts accountLookup,
	timestampTolerance time.Duration,
	logger logger.Logger,
) port.RequestValidator {
	return &SignatureValidator{
		accounts:           accounts,
		nonceStore:         NewNonceStore(),
		timestampTolerance: timestampTolerance,
		logger:             logger,
		now:                time.Now,
	}
}

// SigningMessage builds the bytes covered by X-Signature:
// method \n path \n timestamp \n nonce \n body.
func SigningMessage(method, path, timestamp, nonce string, body []byte) []byte {
	msg := make([]byte, 0, len(method)+len(path)+len(timestamp)+len(nonce)+len(body)+4)
	msg = append(msg, method...)
	msg = append(msg, '\n')
	msg = append(msg, path...)
	msg = append(msg, '\n')
	msg = append(msg, timestamp...)
	msg = append(msg, '\n')
	msg = append(msg, nonce...)
	msg = append(msg, '\n')
	return append(msg, body...)
}

// ValidateRequest validates the signature headers and returns the payer.
func (v *SignatureValidator) ValidateRequest(ctx context.Context, r *http.Request, body []byte) (entity.AccountID, error) {
	accountHeader := r.Header.Get(HeaderAccountID)
	timestampStr := r.Header.Get(HeaderTimestamp)
	nonce := r.Header.Get(HeaderNonce)
	signature := r.Header.Get(HeaderSignature)

	for _, h := range []struct{ name, value string }{
		{HeaderAccountID, accountHeader},
		{HeaderTimestamp, timestampStr},
		{HeaderNonce, nonce},
		{HeaderSignature, signature},
	} {
		if h.value == "" {
			return "", fmt.Errorf("%w: missing %s header", ErrUnauthenticated, h.name)
		}
	}

	payer, err := entity.ParseAccountID(accountHeader)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	timestamp, err := strconv.ParseInt(timestampStr, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: invalid %s format: %w", ErrUnauthenticated, HeaderTimestamp, err)
	}
	requestTime := time.Unix(timestamp, 0)

	now := v.now()
	timeDiff := now.Sub(requestTime)
	if timeDiff < 0 {
		timeDiff = -timeDiff
	}
	if timeDiff > v.timestampTolerance {
		v.logger.LogWarning(ctx, "Request timestamp out of tolerance",
			"timestamp", timestamp,
			"current_time", now.Unix(),
			"difference_seconds", timeDiff.Seconds(),
			"tolerance_seconds", v.timestampTolerance.Seconds())
		return "", fmt.Errorf("%w: timestamp out of tolerance: difference is %v, max allowed is %v",
			ErrUnauthenticated, timeDiff, v.timestampTolerance)
	}

	account, err := v.accounts.GetAccount(ctx, payer)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	msg := SigningMessage(r.Method, r.URL.Path, timestampStr, nonce, body)
	if !keys.Verify(account.PublicKey, msg, signature) {
		v.logger.LogWarning(ctx, "Invalid signature",
			"account", payer,
			"path", r.URL.Path)
		return "", fmt.Errorf("%w: invalid signature", ErrUnauthenticated)
	}

	// Nonces are recorded only for correctly signed requests.
	if !v.nonceStore.IsValid(payer.String()+"/"+nonce, requestTime) {
		v.logger.LogWarning(ctx, "Duplicate nonce detected (replay attack)",
			"account", payer,
			"nonce", nonce,
			"timestamp", timestamp)
		return "", fmt.Errorf("%w: duplicate nonce detected: possible replay attack", ErrUnauthenticated)
	}

	return payer, nil
}
