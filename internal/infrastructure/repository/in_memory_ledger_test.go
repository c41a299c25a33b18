package repository

import (
	"context"
	"errors"
	"io"
	"testing"

	"ledgerflow.com/internal/domain/entity"
	"ledgerflow.com/internal/infrastructure/keys"
	"ledgerflow.com/internal/infrastructure/logger"
)

const operator entity.AccountID = "0.0.2"

func newTestLedger(t *testing.T, operatorBalance, fee entity.Amount) *InMemoryLedger {
	t.Helper()
	ledger := NewInMemoryLedger(logger.NewLogger(io.Discard, "error"), fee).(*InMemoryLedger)
	if err := ledger.AddGenesisAccount(context.Background(), operator, newPublicKey(t), operatorBalance); err != nil {
		t.Fatalf("AddGenesisAccount() error = %v", err)
	}
	return ledger
}

func newPublicKey(t *testing.T) string {
	t.Helper()
	kp, err := keys.NewGenerator().Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	return kp.PublicKey
}

func mustCreate(t *testing.T, l *InMemoryLedger, initial entity.Amount) entity.AccountID {
	t.Helper()
	ctx := context.Background()
	sub, err := l.CreateAccount(ctx, operator, entity.AccountCreate{PublicKey: newPublicKey(t), InitialBalance: initial}, 0)
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	receipt, err := l.GetReceipt(ctx, sub.TransactionID)
	if err != nil {
		t.Fatalf("GetReceipt() error = %v", err)
	}
	if !receipt.Succeeded() || receipt.AccountID == nil {
		t.Fatalf("receipt = %+v, want SUCCESS with account id", receipt)
	}
	return *receipt.AccountID
}

func TestInMemoryLedger_AddGenesisAccount(t *testing.T) {
	ledger := newTestLedger(t, 5000, 0)
	ctx := context.Background()

	tests := []struct {
		name      string
		id        entity.AccountID
		publicKey string
		balance   entity.Amount
		wantErr   error
	}{
		{name: "duplicate", id: operator, publicKey: newPublicKey(t), balance: 1, wantErr: entity.ErrAccountExists},
		{name: "bad id", id: "two", publicKey: newPublicKey(t), balance: 1, wantErr: entity.ErrInvalidAccountID},
		{name: "bad key", id: "0.0.3", publicKey: "abc", balance: 1, wantErr: entity.ErrInvalidPublicKey},
		{name: "negative balance", id: "0.0.3", publicKey: newPublicKey(t), balance: -1, wantErr: entity.ErrInvalidAmount},
		{name: "second genesis", id: "0.0.3", publicKey: newPublicKey(t), balance: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ledger.AddGenesisAccount(ctx, tt.id, tt.publicKey, tt.balance)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("AddGenesisAccount() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	balance, err := ledger.GetBalance(ctx, operator)
	if err != nil || balance != 5000 {
		t.Errorf("GetBalance(operator) = %d, %v, want 5000", balance, err)
	}
}

func TestInMemoryLedger_CreateAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("debits payer and assigns sequential ids", func(t *testing.T) {
		ledger := newTestLedger(t, 5000, 0)

		a := mustCreate(t, ledger, 1000)
		b := mustCreate(t, ledger, 1000)

		if a != "0.0.1001" || b != "0.0.1002" {
			t.Errorf("account ids = %s, %s, want 0.0.1001, 0.0.1002", a, b)
		}
		if got, _ := ledger.GetBalance(ctx, operator); got != 3000 {
			t.Errorf("operator balance = %d, want 3000", got)
		}
		if got, _ := ledger.GetBalance(ctx, a); got != 1000 {
			t.Errorf("new account balance = %d, want 1000", got)
		}
	})

	t.Run("rejections leave no trace", func(t *testing.T) {
		ledger := newTestLedger(t, 500, 10)

		tests := []struct {
			name    string
			payer   entity.AccountID
			req     entity.AccountCreate
			maxFee  entity.Amount
			wantErr error
		}{
			{
				name:    "insufficient balance",
				payer:   operator,
				req:     entity.AccountCreate{PublicKey: newPublicKey(t), InitialBalance: 1000},
				maxFee:  10,
				wantErr: entity.ErrInsufficientBalance,
			},
			{
				name:    "fee above ceiling",
				payer:   operator,
				req:     entity.AccountCreate{PublicKey: newPublicKey(t), InitialBalance: 1},
				maxFee:  9,
				wantErr: entity.ErrFeeCeilingExceeded,
			},
			{
				name:    "unknown payer",
				payer:   "0.0.77",
				req:     entity.AccountCreate{PublicKey: newPublicKey(t), InitialBalance: 1},
				maxFee:  10,
				wantErr: entity.ErrAccountNotFound,
			},
			{
				name:    "invalid key",
				payer:   operator,
				req:     entity.AccountCreate{PublicKey: "nope", InitialBalance: 1},
				maxFee:  10,
				wantErr: entity.ErrInvalidPublicKey,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := ledger.CreateAccount(ctx, tt.payer, tt.req, tt.maxFee)
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("CreateAccount() error = %v, wantErr %v", err, tt.wantErr)
				}
			})
		}

		if got, _ := ledger.GetBalance(ctx, operator); got != 500 {
			t.Errorf("operator balance = %d, want 500", got)
		}
		if n := len(ledger.Entries()); n != 0 {
			t.Errorf("entries = %d, want 0", n)
		}
	})

	t.Run("fee charged to payer", func(t *testing.T) {
		ledger := newTestLedger(t, 5000, 10)
		if _, err := ledger.CreateAccount(ctx, operator, entity.AccountCreate{PublicKey: newPublicKey(t), InitialBalance: 1000}, 10); err != nil {
			t.Fatalf("CreateAccount() error = %v", err)
		}
		if got, _ := ledger.GetBalance(ctx, operator); got != 3990 {
			t.Errorf("operator balance = %d, want 3990", got)
		}
	})
}

func TestInMemoryLedger_Transfer(t *testing.T) {
	ctx := context.Background()

	t.Run("moves funds", func(t *testing.T) {
		ledger := newTestLedger(t, 5000, 0)
		a := mustCreate(t, ledger, 1000)
		b := mustCreate(t, ledger, 1000)

		sub, err := ledger.Transfer(ctx, operator, entity.NewTransfer(operator, a, 100), 0)
		if err != nil {
			t.Fatalf("Transfer() error = %v", err)
		}
		receipt, err := ledger.GetReceipt(ctx, sub.TransactionID)
		if err != nil || !receipt.Succeeded() {
			t.Fatalf("GetReceipt() = %+v, %v", receipt, err)
		}

		want := map[entity.AccountID]entity.Amount{operator: 2900, a: 1100, b: 1000}
		for id, amount := range want {
			if got, _ := ledger.GetBalance(ctx, id); got != amount {
				t.Errorf("balance(%s) = %d, want %d", id, got, amount)
			}
		}
	})

	t.Run("entries of each transaction sum to zero", func(t *testing.T) {
		ledger := newTestLedger(t, 5000, 0)
		a := mustCreate(t, ledger, 1000)
		if _, err := ledger.Transfer(ctx, operator, entity.NewTransfer(operator, a, 100), 0); err != nil {
			t.Fatalf("Transfer() error = %v", err)
		}

		sums := make(map[string]entity.Amount)
		for _, e := range ledger.Entries() {
			sums[e.TransactionID] += e.Amount
		}
		if len(sums) != 2 {
			t.Fatalf("transactions = %d, want 2", len(sums))
		}
		for id, sum := range sums {
			if sum != 0 {
				t.Errorf("transaction %s entries sum to %d", id, sum)
			}
		}
	})

	t.Run("rejections", func(t *testing.T) {
		ledger := newTestLedger(t, 2050, 0)
		a := mustCreate(t, ledger, 1000)
		b := mustCreate(t, ledger, 1000)

		tests := []struct {
			name    string
			tr      entity.Transfer
			wantErr error
		}{
			{name: "insufficient balance", tr: entity.NewTransfer(operator, a, 100), wantErr: entity.ErrInsufficientBalance},
			{name: "unknown destination", tr: entity.NewTransfer(operator, "0.0.9999", 10), wantErr: entity.ErrAccountNotFound},
			{name: "debit of another account", tr: entity.NewTransfer(a, b, 10), wantErr: entity.ErrUnauthorizedDebit},
			{name: "unbalanced", tr: entity.Transfer{Entries: []entity.TransferEntry{{Account: operator, Amount: -10}, {Account: a, Amount: 11}}}, wantErr: entity.ErrUnbalancedTransfer},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := ledger.Transfer(ctx, operator, tt.tr, 0)
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Transfer() error = %v, wantErr %v", err, tt.wantErr)
				}
			})
		}

		want := map[entity.AccountID]entity.Amount{operator: 50, a: 1000, b: 1000}
		for id, amount := range want {
			if got, _ := ledger.GetBalance(ctx, id); got != amount {
				t.Errorf("balance(%s) = %d, want %d", id, got, amount)
			}
		}
	})

	t.Run("fee pushes payer below zero", func(t *testing.T) {
		ledger := newTestLedger(t, 1105, 5)
		a := mustCreateWithFee(t, ledger, 1000, 5)

		_, err := ledger.Transfer(ctx, operator, entity.NewTransfer(operator, a, 100), 5)
		if !errors.Is(err, entity.ErrInsufficientBalance) {
			t.Errorf("Transfer() error = %v, want ErrInsufficientBalance", err)
		}
	})
}

func mustCreateWithFee(t *testing.T, l *InMemoryLedger, initial, maxFee entity.Amount) entity.AccountID {
	t.Helper()
	sub, err := l.CreateAccount(context.Background(), operator, entity.AccountCreate{PublicKey: newPublicKey(t), InitialBalance: initial}, maxFee)
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	receipt, _ := l.GetReceipt(context.Background(), sub.TransactionID)
	return *receipt.AccountID
}

func TestInMemoryLedger_Lookups(t *testing.T) {
	ledger := newTestLedger(t, 5000, 0)
	ctx := context.Background()

	if _, err := ledger.GetBalance(ctx, "0.0.404"); !errors.Is(err, entity.ErrAccountNotFound) {
		t.Errorf("GetBalance() error = %v, want ErrAccountNotFound", err)
	}
	if _, err := ledger.GetAccount(ctx, "0.0.404"); !errors.Is(err, entity.ErrAccountNotFound) {
		t.Errorf("GetAccount() error = %v, want ErrAccountNotFound", err)
	}
	if _, err := ledger.GetReceipt(ctx, "0.0.2@nope"); !errors.Is(err, entity.ErrReceiptNotFound) {
		t.Errorf("GetReceipt() error = %v, want ErrReceiptNotFound", err)
	}

	acc, err := ledger.GetAccount(ctx, operator)
	if err != nil {
		t.Fatalf("GetAccount() error = %v", err)
	}
	acc.Balance = 0
	if got, _ := ledger.GetBalance(ctx, operator); got != 5000 {
		t.Errorf("GetAccount() returned shared state, balance now %d", got)
	}
}

func TestInMemoryLedger_ConcurrentAccess(t *testing.T) {
	ledger := newTestLedger(t, 100_000, 0)
	a := mustCreate(t, ledger, 0)
	ctx := context.Background()

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func() {
			ledger.Transfer(ctx, operator, entity.NewTransfer(operator, a, 1), 0)
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	balance, err := ledger.GetBalance(ctx, a)
	if err != nil {
		t.Fatalf("GetBalance() error = %v", err)
	}
	if balance != 10 {
		t.Errorf("Balance = %d, want 10", balance)
	}
}
