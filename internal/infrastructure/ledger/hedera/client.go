// Package hedera adapts the Hiero SDK to the LedgerClient port.
package hedera

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	hiero "github.com/hiero-ledger/hiero-sdk-go/v2/sdk"

	"ledgerflow.com/internal/domain/entity"
	"ledgerflow.com/internal/domain/port"
	"ledgerflow.com/internal/infrastructure/logger"
)

// Networks lists the public networks reachable through the SDK.
var Networks = []string{"testnet", "previewnet", "mainnet"}

var errUnknownSubmission = errors.New("unknown submission")

// Connector implements the LedgerConnector port with the Hiero SDK.
type Connector struct {
	logger    logger.Logger
	handshake func(*hiero.Client, hiero.AccountID) error
}

// NewConnector creates a new SDK connector
func NewConnector(logger logger.Logger) *Connector {
	return &Connector{logger: logger, handshake: operatorBalanceHandshake}
}

// operatorBalanceHandshake runs the free balance query for the operator, so
// an unreachable network or unknown operator fails at connect time.
func operatorBalanceHandshake(client *hiero.Client, operatorID hiero.AccountID) error {
	_, err := hiero.NewAccountBalanceQuery().
		SetAccountID(operatorID).
		Execute(client)
	return err
}

// Connect builds an SDK client for the network with the operator and the
// fee ceilings set as client defaults.
func (c *Connector) Connect(ctx context.Context, network string, creds entity.Credentials, ceilings entity.Ceilings) (port.LedgerClient, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrClientInitialization, err)
	}
	if err := ceilings.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrClientInitialization, err)
	}

	operatorID, err := hiero.AccountIDFromString(string(creds.AccountID))
	if err != nil {
		return nil, fmt.Errorf("%w: operator account id: %w", entity.ErrClientInitialization, err)
	}
	operatorKey, err := hiero.PrivateKeyFromString(creds.PrivateKey)
	if err != nil {
		// Don't wrap the SDK error, it may echo the key.
		return nil, fmt.Errorf("%w: operator private key could not be parsed", entity.ErrClientInitialization)
	}

	client, err := hiero.ClientForName(strings.ToLower(network))
	if err != nil {
		return nil, fmt.Errorf("%w: network %q: %w", entity.ErrClientInitialization, network, err)
	}
	client.SetOperator(operatorID, operatorKey)
	if err := client.SetDefaultMaxTransactionFee(hiero.HbarFromTinybar(int64(ceilings.MaxTransactionFee))); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: max transaction fee: %w", entity.ErrClientInitialization, err)
	}
	if err := client.SetDefaultMaxQueryPayment(hiero.HbarFromTinybar(int64(ceilings.MaxQueryPayment))); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: max query payment: %w", entity.ErrClientInitialization, err)
	}

	if err := c.handshake(client, operatorID); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: handshake with %s for operator %s: %w",
			entity.ErrClientInitialization, network, creds.AccountID, err)
	}

	c.logger.LogInfo(ctx, "Ledger client created",
		"network", network,
		"operator", creds.AccountID,
		"max_transaction_fee", int64(ceilings.MaxTransactionFee),
		"max_query_payment", int64(ceilings.MaxQueryPayment))

	return newClient(client, creds.AccountID), nil
}

func newClient(client *hiero.Client, operator entity.AccountID) *Client {
	return &Client{
		client:    client,
		operator:  operator,
		responses: make(map[string]hiero.TransactionResponse),
		getReceipt: func(resp hiero.TransactionResponse) (hiero.TransactionReceipt, error) {
			return resp.GetReceipt(client)
		},
	}
}

// Client implements the LedgerClient port. Transaction responses are kept
// until their receipt has been fetched.
type Client struct {
	client   *hiero.Client
	operator entity.AccountID

	mu         sync.Mutex
	responses  map[string]hiero.TransactionResponse
	getReceipt func(hiero.TransactionResponse) (hiero.TransactionReceipt, error)
}

func (c *Client) Operator() entity.AccountID {
	return c.operator
}

func (c *Client) QueryBalance(ctx context.Context, id entity.AccountID) (entity.Amount, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	accountID, err := hiero.AccountIDFromString(string(id))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", entity.ErrInvalidAccountID, err)
	}
	balance, err := hiero.NewAccountBalanceQuery().
		SetAccountID(accountID).
		Execute(c.client)
	if err != nil {
		return 0, err
	}
	return entity.Amount(balance.Hbars.AsTinybar()), nil
}

func (c *Client) CreateAccount(ctx context.Context, req entity.AccountCreate) (entity.Submission, error) {
	if err := ctx.Err(); err != nil {
		return entity.Submission{}, err
	}
	if err := req.Validate(); err != nil {
		return entity.Submission{}, err
	}
	publicKey, err := hiero.PublicKeyFromStringEd25519(req.PublicKey)
	if err != nil {
		return entity.Submission{}, fmt.Errorf("%w: %w", entity.ErrInvalidPublicKey, err)
	}
	resp, err := hiero.NewAccountCreateTransaction().
		SetKey(publicKey).
		SetInitialBalance(hiero.HbarFromTinybar(int64(req.InitialBalance))).
		Execute(c.client)
	if err != nil {
		return entity.Submission{}, err
	}
	return c.track(resp), nil
}

func (c *Client) Transfer(ctx context.Context, t entity.Transfer) (entity.Submission, error) {
	if err := ctx.Err(); err != nil {
		return entity.Submission{}, err
	}
	if err := t.Validate(); err != nil {
		return entity.Submission{}, err
	}
	tx := hiero.NewTransferTransaction()
	for _, e := range t.Entries {
		accountID, err := hiero.AccountIDFromString(string(e.Account))
		if err != nil {
			return entity.Submission{}, fmt.Errorf("%w: %w", entity.ErrInvalidAccountID, err)
		}
		tx.AddHbarTransfer(accountID, hiero.HbarFromTinybar(int64(e.Amount)))
	}
	resp, err := tx.Execute(c.client)
	if err != nil {
		return entity.Submission{}, err
	}
	return c.track(resp), nil
}

// AwaitReceipt blocks until the SDK returns the receipt. The SDK polls with
// its own timeout; ctx is only checked before the call. A receipt with a
// failure status is returned without an error. The submission is forgotten
// whatever the outcome.
func (c *Client) AwaitReceipt(ctx context.Context, s entity.Submission) (*entity.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	resp, ok := c.responses[s.TransactionID]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownSubmission, s.TransactionID)
	}

	defer func() {
		c.mu.Lock()
		delete(c.responses, s.TransactionID)
		c.mu.Unlock()
	}()

	receipt, err := c.getReceipt(resp)
	if err != nil {
		var statusErr hiero.ErrHederaReceiptStatus
		if errors.As(err, &statusErr) {
			return receiptFromStatusError(s.TransactionID, statusErr), nil
		}
		return nil, err
	}

	return toReceipt(s.TransactionID, receipt), nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) track(resp hiero.TransactionResponse) entity.Submission {
	id := resp.TransactionID.String()
	c.mu.Lock()
	c.responses[id] = resp
	c.mu.Unlock()
	return entity.Submission{TransactionID: id}
}

func receiptFromStatusError(transactionID string, e hiero.ErrHederaReceiptStatus) *entity.Receipt {
	out := toReceipt(transactionID, e.Receipt)
	out.Status = entity.Status(e.Status.String())
	return out
}

func toReceipt(transactionID string, r hiero.TransactionReceipt) *entity.Receipt {
	out := &entity.Receipt{
		TransactionID: transactionID,
		Status:        entity.Status(r.Status.String()),
	}
	if r.AccountID != nil {
		id := entity.AccountID(r.AccountID.String())
		out.AccountID = &id
	}
	return out
}
