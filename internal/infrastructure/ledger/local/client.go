// Package local runs the workflow against an in-process ledger.
package local

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"ledgerflow.com/internal/domain/entity"
	"ledgerflow.com/internal/domain/port"
	"ledgerflow.com/internal/infrastructure/keys"
	"ledgerflow.com/internal/infrastructure/logger"
	"ledgerflow.com/internal/infrastructure/repository"
)

// Network is the network name served by this package.
const Network = "local"

var errClosed = errors.New("client is closed")

// Connector implements the LedgerConnector port for the local network.
type Connector struct {
	logger          logger.Logger
	ledger          port.LedgerRepository
	operatorBalance entity.Amount
	fee             entity.Amount
}

// NewConnector creates a connector that builds a fresh in-memory ledger on
// every Connect, with the operator as a genesis account holding
// operatorBalance.
func NewConnector(logger logger.Logger, operatorBalance, fee entity.Amount) *Connector {
	return &Connector{
		logger:          logger,
		operatorBalance: operatorBalance,
		fee:             fee,
	}
}

// NewConnectorForLedger creates a connector over an existing ledger. The
// operator account must already exist in it.
func NewConnectorForLedger(logger logger.Logger, ledger port.LedgerRepository) *Connector {
	return &Connector{logger: logger, ledger: ledger}
}

// Connect builds a client for the operator and verifies that the operator
// key controls the operator account.
func (c *Connector) Connect(ctx context.Context, _ string, creds entity.Credentials, ceilings entity.Ceilings) (port.LedgerClient, error) {
	if err := ceilings.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrClientInitialization, err)
	}
	priv, err := keys.ParsePrivateKey(creds.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: operator key: %w", entity.ErrClientInitialization, err)
	}
	publicKey := keys.PublicKeyHex(priv)

	ledger := c.ledger
	if ledger == nil {
		ledger = repository.NewInMemoryLedger(c.logger, c.fee)
		if err := ledger.AddGenesisAccount(ctx, creds.AccountID, publicKey, c.operatorBalance); err != nil {
			return nil, fmt.Errorf("%w: %w", entity.ErrClientInitialization, err)
		}
	}

	account, err := ledger.GetAccount(ctx, creds.AccountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrClientInitialization, err)
	}
	if !keys.SamePublicKey(account.PublicKey, publicKey) {
		return nil, fmt.Errorf("%w: operator key does not match account %s", entity.ErrClientInitialization, creds.AccountID)
	}

	return &Client{
		ledger:   ledger,
		operator: creds.AccountID,
		ceilings: ceilings,
	}, nil
}

// Client implements the LedgerClient port over a LedgerRepository.
type Client struct {
	ledger   port.LedgerRepository
	operator entity.AccountID
	ceilings entity.Ceilings
	closed   atomic.Bool
}

// Ledger exposes the backing ledger.
func (c *Client) Ledger() port.LedgerRepository {
	return c.ledger
}

func (c *Client) Operator() entity.AccountID {
	return c.operator
}

func (c *Client) QueryBalance(ctx context.Context, id entity.AccountID) (entity.Amount, error) {
	if err := c.ready(ctx); err != nil {
		return 0, err
	}
	return c.ledger.GetBalance(ctx, id)
}

func (c *Client) CreateAccount(ctx context.Context, req entity.AccountCreate) (entity.Submission, error) {
	if err := c.ready(ctx); err != nil {
		return entity.Submission{}, err
	}
	return c.ledger.CreateAccount(ctx, c.operator, req, c.ceilings.MaxTransactionFee)
}

func (c *Client) Transfer(ctx context.Context, t entity.Transfer) (entity.Submission, error) {
	if err := c.ready(ctx); err != nil {
		return entity.Submission{}, err
	}
	return c.ledger.Transfer(ctx, c.operator, t, c.ceilings.MaxTransactionFee)
}

func (c *Client) AwaitReceipt(ctx context.Context, s entity.Submission) (*entity.Receipt, error) {
	if err := c.ready(ctx); err != nil {
		return nil, err
	}
	return c.ledger.GetReceipt(ctx, s.TransactionID)
}

func (c *Client) Close() error {
	c.closed.Store(true)
	return nil
}

func (c *Client) ready(ctx context.Context) error {
	if c.closed.Load() {
		return errClosed
	}
	return ctx.Err()
}
