package usecase

import (
	"context"
	"fmt"

	"ledgerflow.com/internal/domain/entity"
	"ledgerflow.com/internal/domain/port"
)

// GetBalanceUseCase handles balance retrieval
type GetBalanceUseCase struct{}

// NewGetBalanceUseCase creates a new GetBalanceUseCase
func NewGetBalanceUseCase() *GetBalanceUseCase {
	return &GetBalanceUseCase{}
}

// Execute retrieves the balance of an account in smallest units
func (uc *GetBalanceUseCase) Execute(ctx context.Context, client port.LedgerClient, id entity.AccountID) (entity.Amount, error) {
	if err := id.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %w", entity.ErrQuery, err)
	}

	balance, err := client.QueryBalance(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("%w: balance of %s: %w", entity.ErrQuery, id, err)
	}
	return balance, nil
}
