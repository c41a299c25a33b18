// Package devnet talks to a `ledgerflow devnet` server over HTTP.
package devnet

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"ledgerflow.com/internal/domain/entity"
	"ledgerflow.com/internal/domain/port"
	httphandler "ledgerflow.com/internal/infrastructure/http"
	"ledgerflow.com/internal/infrastructure/keys"
	"ledgerflow.com/internal/infrastructure/logger"
	"ledgerflow.com/internal/infrastructure/validator"
)

// Network is the network name served by this package.
const Network = "devnet"

const defaultPollInterval = 200 * time.Millisecond

// APIError is a non-2xx response from the devnet server. It unwraps to the
// matching ledger error when the status is known.
type APIError struct {
	Code    int
	Status  entity.Status
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("devnet: %d %s: %s", e.Code, e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return httphandler.ErrorForStatus(e.Code, e.Status)
}

// Connector implements the LedgerConnector port for a devnet server.
type Connector struct {
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
	logger       logger.Logger
}

// NewConnector creates a connector for the server at baseURL. httpClient
// may be nil.
func NewConnector(baseURL string, httpClient *http.Client, logger logger.Logger) *Connector {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Connector{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   httpClient,
		pollInterval: defaultPollInterval,
		logger:       logger,
	}
}

// Connect performs the handshake: the operator account must exist on the
// server and be controlled by the operator key.
func (c *Connector) Connect(ctx context.Context, _ string, creds entity.Credentials, ceilings entity.Ceilings) (port.LedgerClient, error) {
	if err := ceilings.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrClientInitialization, err)
	}
	if _, err := url.ParseRequestURI(c.baseURL); err != nil {
		return nil, fmt.Errorf("%w: devnet url: %w", entity.ErrClientInitialization, err)
	}
	priv, err := keys.ParsePrivateKey(creds.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: operator key: %w", entity.ErrClientInitialization, err)
	}

	client := &Client{
		baseURL:      c.baseURL,
		httpClient:   c.httpClient,
		pollInterval: c.pollInterval,
		operator:     creds.AccountID,
		key:          priv,
		ceilings:     ceilings,
	}

	var account httphandler.AccountResponse
	if err := client.do(ctx, http.MethodGet, "/v1/accounts/"+url.PathEscape(string(creds.AccountID)), nil, false, &account); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrClientInitialization, err)
	}
	if !keys.SamePublicKey(account.PublicKey, keys.PublicKeyHex(priv)) {
		return nil, fmt.Errorf("%w: operator key does not match account %s", entity.ErrClientInitialization, creds.AccountID)
	}

	c.logger.LogInfo(ctx, "Ledger client created",
		"network", Network,
		"url", c.baseURL,
		"operator", creds.AccountID)

	return client, nil
}

// Client implements the LedgerClient port against the devnet API.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
	operator     entity.AccountID
	key          ed25519.PrivateKey
	ceilings     entity.Ceilings
}

func (c *Client) Operator() entity.AccountID {
	return c.operator
}

func (c *Client) QueryBalance(ctx context.Context, id entity.AccountID) (entity.Amount, error) {
	var resp httphandler.BalanceResponse
	if err := c.do(ctx, http.MethodGet, "/v1/accounts/"+url.PathEscape(string(id))+"/balance", nil, false, &resp); err != nil {
		return 0, err
	}
	return resp.Balance, nil
}

func (c *Client) CreateAccount(ctx context.Context, req entity.AccountCreate) (entity.Submission, error) {
	var sub entity.Submission
	err := c.do(ctx, http.MethodPost, "/v1/accounts", httphandler.CreateAccountRequest{
		PublicKey:      req.PublicKey,
		InitialBalance: req.InitialBalance,
		MaxFee:         c.ceilings.MaxTransactionFee,
	}, true, &sub)
	return sub, err
}

func (c *Client) Transfer(ctx context.Context, t entity.Transfer) (entity.Submission, error) {
	var sub entity.Submission
	err := c.do(ctx, http.MethodPost, "/v1/transfers", httphandler.TransferRequest{
		Entries: t.Entries,
		MaxFee:  c.ceilings.MaxTransactionFee,
	}, true, &sub)
	return sub, err
}

// AwaitReceipt polls until the receipt is available or ctx is done.
func (c *Client) AwaitReceipt(ctx context.Context, s entity.Submission) (*entity.Receipt, error) {
	path := "/v1/receipts/" + url.PathEscape(s.TransactionID)
	for {
		var receipt entity.Receipt
		err := c.do(ctx, http.MethodGet, path, nil, false, &receipt)
		if err == nil {
			return &receipt, nil
		}
		if !errors.Is(err, entity.ErrReceiptNotFound) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for receipt of %s: %w", s.TransactionID, ctx.Err())
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// do sends a request and decodes the JSON response into out. Signed
// requests carry the operator signature headers.
func (c *Client) do(ctx context.Context, method, path string, in any, signed bool, out any) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if signed {
		c.sign(req, body)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: failed to read response: %w", method, path, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr httphandler.ErrorResponse
		if err := json.Unmarshal(raw, &apiErr); err != nil || apiErr.Status == "" {
			return &APIError{Code: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		return &APIError{Code: resp.StatusCode, Status: apiErr.Status, Message: apiErr.Error}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
	}
	return nil
}

func (c *Client) sign(req *http.Request, body []byte) {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	nonce := uuid.NewString()
	msg := validator.SigningMessage(req.Method, req.URL.Path, timestamp, nonce, body)

	req.Header.Set(validator.HeaderAccountID, string(c.operator))
	req.Header.Set(validator.HeaderTimestamp, timestamp)
	req.Header.Set(validator.HeaderNonce, nonce)
	req.Header.Set(validator.HeaderSignature, keys.Sign(c.key, msg))
}
