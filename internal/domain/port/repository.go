package port

import (
	"context"

	"ledgerflow.com/internal/domain/entity"
)

// LedgerRepository is the port for the in-memory ledger state backing the
// local and devnet networks. Mutations are charged to the payer.
type LedgerRepository interface {
	AddGenesisAccount(ctx context.Context, id entity.AccountID, publicKey string, balance entity.Amount) error
	CreateAccount(ctx context.Context, payer entity.AccountID, req entity.AccountCreate, maxFee entity.Amount) (entity.Submission, error)
	Transfer(ctx context.Context, payer entity.AccountID, t entity.Transfer, maxFee entity.Amount) (entity.Submission, error)
	GetReceipt(ctx context.Context, transactionID string) (*entity.Receipt, error)
	GetBalance(ctx context.Context, id entity.AccountID) (entity.Amount, error)
	GetAccount(ctx context.Context, id entity.AccountID) (*entity.Account, error)
}
