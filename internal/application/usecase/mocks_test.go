package usecase

import (
	"context"
	"fmt"
	"io"
	"sync"

	"ledgerflow.com/internal/domain/entity"
	"ledgerflow.com/internal/domain/port"
	"ledgerflow.com/internal/infrastructure/logger"
)

func testLogger() logger.Logger {
	return logger.NewLogger(io.Discard, "error")
}

// mockLedgerClient is a mock implementation of LedgerClient
type mockLedgerClient struct {
	mu    sync.Mutex
	calls []string

	operator          entity.AccountID
	queryBalanceFunc  func(ctx context.Context, id entity.AccountID) (entity.Amount, error)
	createAccountFunc func(ctx context.Context, req entity.AccountCreate) (entity.Submission, error)
	transferFunc      func(ctx context.Context, t entity.Transfer) (entity.Submission, error)
	awaitReceiptFunc  func(ctx context.Context, s entity.Submission) (*entity.Receipt, error)
	closed            bool
}

func (m *mockLedgerClient) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockLedgerClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockLedgerClient) QueryBalance(ctx context.Context, id entity.AccountID) (entity.Amount, error) {
	m.record("QueryBalance")
	if m.queryBalanceFunc != nil {
		return m.queryBalanceFunc(ctx, id)
	}
	return 0, nil
}

func (m *mockLedgerClient) CreateAccount(ctx context.Context, req entity.AccountCreate) (entity.Submission, error) {
	m.record("CreateAccount")
	if m.createAccountFunc != nil {
		return m.createAccountFunc(ctx, req)
	}
	return entity.Submission{TransactionID: "tx-create"}, nil
}

func (m *mockLedgerClient) Transfer(ctx context.Context, t entity.Transfer) (entity.Submission, error) {
	m.record("Transfer")
	if m.transferFunc != nil {
		return m.transferFunc(ctx, t)
	}
	return entity.Submission{TransactionID: "tx-transfer"}, nil
}

func (m *mockLedgerClient) AwaitReceipt(ctx context.Context, s entity.Submission) (*entity.Receipt, error) {
	m.record("AwaitReceipt")
	if m.awaitReceiptFunc != nil {
		return m.awaitReceiptFunc(ctx, s)
	}
	return &entity.Receipt{TransactionID: s.TransactionID, Status: entity.StatusSuccess}, nil
}

func (m *mockLedgerClient) Operator() entity.AccountID {
	return m.operator
}

func (m *mockLedgerClient) Close() error {
	m.record("Close")
	m.closed = true
	return nil
}

// mockConnector is a mock implementation of LedgerConnector
type mockConnector struct {
	connectCalls int
	connectFunc  func(ctx context.Context, network string, creds entity.Credentials, ceilings entity.Ceilings) (port.LedgerClient, error)
}

func (m *mockConnector) Connect(ctx context.Context, network string, creds entity.Credentials, ceilings entity.Ceilings) (port.LedgerClient, error) {
	m.connectCalls++
	if m.connectFunc != nil {
		return m.connectFunc(ctx, network, creds, ceilings)
	}
	return &mockLedgerClient{operator: creds.AccountID}, nil
}

// mockCredentialSource is a mock implementation of CredentialSource
type mockCredentialSource struct {
	creds entity.Credentials
	err   error
}

func (m *mockCredentialSource) Load() (entity.Credentials, error) {
	if m.err != nil {
		return entity.Credentials{}, m.err
	}
	return m.creds, m.creds.Validate()
}

// sequenceKeyGenerator returns a distinct keypair on every call
type sequenceKeyGenerator struct {
	n   int
	err error
}

func (g *sequenceKeyGenerator) Generate() (entity.KeyPair, error) {
	if g.err != nil {
		return entity.KeyPair{}, g.err
	}
	g.n++
	return entity.KeyPair{
		PrivateKey: fmt.Sprintf("priv-%d", g.n),
		PublicKey:  fmt.Sprintf("pub-%d", g.n),
	}, nil
}
