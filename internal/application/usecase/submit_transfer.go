package usecase

import (
	"context"
	"fmt"
	"time"

	"ledgerflow.com/internal/domain/entity"
	"ledgerflow.com/internal/domain/port"
)

// SubmitTransferUseCase moves funds between two accounts
type SubmitTransferUseCase struct {
	receiptTimeout time.Duration
}

// NewSubmitTransferUseCase creates a new SubmitTransferUseCase
func NewSubmitTransferUseCase(receiptTimeout time.Duration) *SubmitTransferUseCase {
	return &SubmitTransferUseCase{receiptTimeout: receiptTimeout}
}

// Execute submits a balanced transfer of amount from one account to another.
func (uc *SubmitTransferUseCase) Execute(ctx context.Context, client port.LedgerClient, from, to entity.AccountID, amount entity.Amount) (entity.Submission, error) {
	if amount <= 0 {
		return entity.Submission{}, fmt.Errorf("%w: %w: %d", entity.ErrTransfer, entity.ErrInvalidAmount, amount)
	}

	transfer := entity.NewTransfer(from, to, amount)
	if err := transfer.Validate(); err != nil {
		return entity.Submission{}, fmt.Errorf("%w: %w", entity.ErrTransfer, err)
	}

	submission, err := client.Transfer(ctx, transfer)
	if err != nil {
		return entity.Submission{}, fmt.Errorf("%w: %s -> %s: %w", entity.ErrTransfer, from, to, err)
	}
	return submission, nil
}

// Confirm waits for the receipt of a submitted transfer. A receipt with a
// failure status is returned together with an error.
func (uc *SubmitTransferUseCase) Confirm(ctx context.Context, client port.LedgerClient, submission entity.Submission) (*entity.Receipt, error) {
	receipt, err := awaitReceipt(ctx, client, submission, uc.receiptTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: receipt for %s: %w", entity.ErrTransfer, submission.TransactionID, err)
	}
	if !receipt.Succeeded() {
		return receipt, fmt.Errorf("%w: transfer %s: status %s", entity.ErrTransfer, submission.TransactionID, receipt.Status)
	}
	return receipt, nil
}
