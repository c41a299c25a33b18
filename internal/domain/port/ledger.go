package port

import (
	"context"

	"ledgerflow.com/internal/domain/entity"
)

// LedgerClient is the port for a connected ledger client. A client is bound
// to one network and one operator; the operator pays for every transaction.
type LedgerClient interface {
	QueryBalance(ctx context.Context, id entity.AccountID) (entity.Amount, error)
	CreateAccount(ctx context.Context, req entity.AccountCreate) (entity.Submission, error)
	Transfer(ctx context.Context, t entity.Transfer) (entity.Submission, error)
	AwaitReceipt(ctx context.Context, s entity.Submission) (*entity.Receipt, error)
	Operator() entity.AccountID
	Close() error
}

// LedgerConnector is the port for building a LedgerClient.
type LedgerConnector interface {
	Connect(ctx context.Context, network string, creds entity.Credentials, ceilings entity.Ceilings) (LedgerClient, error)
}

// KeyGenerator is the port for local keypair generation.
type KeyGenerator interface {
	Generate() (entity.KeyPair, error)
}

// CredentialSource is the port for loading operator credentials.
type CredentialSource interface {
	Load() (entity.Credentials, error)
}
