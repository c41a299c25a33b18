package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ledgerflow.com/internal/domain/entity"
	"ledgerflow.com/internal/domain/port"
	"ledgerflow.com/internal/infrastructure/logger"
	"ledgerflow.com/internal/infrastructure/ratelimiter"
)

const maxBodyBytes = 64 << 10

// Handler serves the devnet ledger API
type Handler struct {
	ledger    port.LedgerRepository
	validator port.RequestValidator
	limiter   *ratelimiter.MapLimiter
	metrics   *Metrics
	gatherer  prometheus.Gatherer
	logger    logger.Logger
}

// NewHandler creates a new HTTP handler. limiter may be nil to disable
// rate limiting.
func NewHandler(
	ledger port.LedgerRepository,
	validator port.RequestValidator,
	limiter *ratelimiter.MapLimiter,
	registry *prometheus.Registry,
	logger logger.Logger,
) *Handler {
	return &Handler{
		ledger:    ledger,
		validator: validator,
		limiter:   limiter,
		metrics:   NewMetrics(registry),
		gatherer:  registry,
		logger:    logger,
	}
}

// HandleGetAccount handles GET /v1/accounts/{id}
func (h *Handler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := entity.AccountID(r.PathValue("id"))

	account, err := h.ledger.GetAccount(ctx, id)
	if err != nil {
		h.writeError(w, r, "Failed to get account", err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, AccountResponse{ID: account.ID, PublicKey: account.PublicKey})
}

// HandleGetBalance handles GET /v1/accounts/{id}/balance
func (h *Handler) HandleGetBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := entity.AccountID(r.PathValue("id"))

	balance, err := h.ledger.GetBalance(ctx, id)
	if err != nil {
		h.writeError(w, r, "Failed to get balance", err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, BalanceResponse{AccountID: id, Balance: balance})

	RequestLogger(ctx, h.logger).LogInfo(ctx, "Balance retrieved",
		"account", id)
}

// HandleCreateAccount handles signed POST /v1/accounts
func (h *Handler) HandleCreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payer, body, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req CreateAccountRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeError(w, r, "Invalid JSON body", fmt.Errorf("%w: %w", errMalformedBody, err))
		return
	}

	sub, err := h.ledger.CreateAccount(ctx, payer, entity.AccountCreate{
		PublicKey:      req.PublicKey,
		InitialBalance: req.InitialBalance,
	}, req.MaxFee)
	if err != nil {
		_, status := StatusForError(err)
		h.metrics.ObserveTransaction("account_create", status.String())
		h.writeError(w, r, "Failed to create account", err)
		return
	}
	h.metrics.ObserveTransaction("account_create", entity.StatusSuccess.String())

	h.writeJSON(w, r, http.StatusAccepted, sub)

	RequestLogger(ctx, h.logger).LogInfo(ctx, "Account create accepted",
		"payer", payer,
		"transaction_id", sub.TransactionID)
}

// HandleTransfer handles signed POST /v1/transfers
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payer, body, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req TransferRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeError(w, r, "Invalid JSON body", fmt.Errorf("%w: %w", errMalformedBody, err))
		return
	}

	sub, err := h.ledger.Transfer(ctx, payer, entity.Transfer{Entries: req.Entries}, req.MaxFee)
	if err != nil {
		_, status := StatusForError(err)
		h.metrics.ObserveTransaction("transfer", status.String())
		h.writeError(w, r, "Failed to transfer", err)
		return
	}
	h.metrics.ObserveTransaction("transfer", entity.StatusSuccess.String())

	h.writeJSON(w, r, http.StatusAccepted, sub)

	RequestLogger(ctx, h.logger).LogInfo(ctx, "Transfer accepted",
		"payer", payer,
		"transaction_id", sub.TransactionID)
}

// HandleGetReceipt handles GET /v1/receipts/{txid}
func (h *Handler) HandleGetReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.ledger.GetReceipt(r.Context(), r.PathValue("txid"))
	if err != nil {
		h.writeError(w, r, "Failed to get receipt", err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, receipt)
}

// HandleHealth handles GET /healthz
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// authenticate reads the body, validates the signature and applies the
// per-payer rate limit. It writes the error response itself.
func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (entity.AccountID, []byte, bool) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		RequestLogger(ctx, h.logger).LogError(ctx, "Failed to read request body", err)
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return "", nil, false
	}

	payer, err := h.validator.ValidateRequest(ctx, r, body)
	if err != nil {
		h.writeError(w, r, "Request validation failed", err)
		return "", nil, false
	}

	if !h.limiter.Allow(payer.String(), time.Now()) {
		h.writeError(w, r, "Rate limited", errRateLimited)
		return "", nil, false
	}

	return payer, body, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		RequestLogger(r.Context(), h.logger).LogError(r.Context(), "Failed to encode response", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	code, status := StatusForError(err)
	requestLogger := RequestLogger(r.Context(), h.logger)
	if code >= http.StatusInternalServerError {
		requestLogger.LogError(r.Context(), msg, err)
	} else {
		requestLogger.LogWarning(r.Context(), msg, "error", err.Error(), "status", status)
	}
	h.writeJSON(w, r, code, ErrorResponse{Error: err.Error(), Status: status})
}

// SetupRoutes sets up all HTTP routes
func (h *Handler) SetupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	wrap := func(next http.HandlerFunc) http.HandlerFunc {
		return RequestIDMiddleware(LoggingMiddleware(next, h.logger, h.metrics), h.logger)
	}

	mux.HandleFunc("GET /v1/accounts/{id}", wrap(h.HandleGetAccount))
	mux.HandleFunc("GET /v1/accounts/{id}/balance", wrap(h.HandleGetBalance))
	mux.HandleFunc("POST /v1/accounts", wrap(h.HandleCreateAccount))
	mux.HandleFunc("POST /v1/transfers", wrap(h.HandleTransfer))
	mux.HandleFunc("GET /v1/receipts/{txid}", wrap(h.HandleGetReceipt))
	mux.HandleFunc("GET /healthz", h.HandleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	return mux
}
