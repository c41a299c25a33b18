package usecase

import (
	"context"
	"fmt"
	"time"

	"ledgerflow.com/internal/domain/entity"
	"ledgerflow.com/internal/domain/port"
)

// ProvisionedAccount is an account created by ProvisionAccountUseCase.
type ProvisionedAccount struct {
	ID            entity.AccountID
	Keys          entity.KeyPair
	TransactionID string
}

// ProvisionAccountUseCase creates a fresh account funded by the operator.
// Every call generates a new keypair, so retries never reuse a key.
type ProvisionAccountUseCase struct {
	keys           port.KeyGenerator
	initialBalance entity.Amount
	receiptTimeout time.Duration
}

// NewProvisionAccountUseCase creates a new ProvisionAccountUseCase. A zero
// receiptTimeout leaves the receipt wait bounded only by ctx.
func NewProvisionAccountUseCase(keys port.KeyGenerator, initialBalance entity.Amount, receiptTimeout time.Duration) *ProvisionAccountUseCase {
	return &ProvisionAccountUseCase{
		keys:           keys,
		initialBalance: initialBalance,
		receiptTimeout: receiptTimeout,
	}
}

// Execute generates a keypair, submits the account creation and waits for
// its receipt.
func (uc *ProvisionAccountUseCase) Execute(ctx context.Context, client port.LedgerClient) (*ProvisionedAccount, error) {
	keyPair, err := uc.keys.Generate()
	if err != nil {
		return nil, fmt.Errorf("%w: key generation: %w", entity.ErrProvisioning, err)
	}

	req := entity.AccountCreate{PublicKey: keyPair.PublicKey, InitialBalance: uc.initialBalance}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrProvisioning, err)
	}

	submission, err := client.CreateAccount(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: create account: %w", entity.ErrProvisioning, err)
	}

	receipt, err := awaitReceipt(ctx, client, submission, uc.receiptTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: receipt for %s: %w", entity.ErrProvisioning, submission.TransactionID, err)
	}
	if !receipt.Succeeded() {
		return nil, fmt.Errorf("%w: create account %s: status %s", entity.ErrProvisioning, submission.TransactionID, receipt.Status)
	}
	if receipt.AccountID == nil || *receipt.AccountID == "" {
		return nil, fmt.Errorf("%w: receipt for %s carries no account id", entity.ErrProvisioning, submission.TransactionID)
	}

	return &ProvisionedAccount{
		ID:            *receipt.AccountID,
		Keys:          keyPair,
		TransactionID: submission.TransactionID,
	}, nil
}

func awaitReceipt(ctx context.Context, client port.LedgerClient, s entity.Submission, timeout time.Duration) (*entity.Receipt, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return client.AwaitReceipt(ctx, s)
}
