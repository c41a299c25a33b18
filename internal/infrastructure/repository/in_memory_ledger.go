package repository

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/shopspring/decimal"

	"ledgerflow.com/internal/domain/entity"
	"ledgerflow.com/internal/domain/port"
	"ledgerflow.com/internal/infrastructure/keys"
	"ledgerflow.com/internal/infrastructure/logger"
	"ledgerflow.com/internal/infrastructure/txid"
)

// FirstAccountNum is the number assigned to the first created account.
const FirstAccountNum = 1001

const shardRealm = "0.0."

var maxAmount = decimal.NewFromInt(math.MaxInt64)

// InMemoryLedger implements the LedgerRepository port. Transactions reach
// consensus at submission: a transaction that passes its checks is applied
// and receipted immediately, otherwise it is rejected with an error and
// leaves no trace.
type InMemoryLedger struct {
	mu       sync.RWMutex
	accounts map[entity.AccountID]*entity.Account
	entries  []entity.LedgerEntry
	receipts map[string]*entity.Receipt
	nextNum  uint64
	sequence uint64
	fee      entity.Amount
	logger   logger.Logger
}

// NewInMemoryLedger creates a new in-memory ledger charging a flat fee per
// transaction to the payer.
func NewInMemoryLedger(logger logger.Logger, fee entity.Amount) port.LedgerRepository {
	return &InMemoryLedger{
		accounts: make(map[entity.AccountID]*entity.Account),
		entries:  make([]entity.LedgerEntry, 0),
		receipts: make(map[string]*entity.Receipt),
		nextNum:  FirstAccountNum,
		fee:      fee,
		logger:   logger,
	}
}

// AddGenesisAccount creates a pre-funded account outside of any transaction.
func (l *InMemoryLedger) AddGenesisAccount(ctx context.Context, id entity.AccountID, publicKey string, balance entity.Amount) error {
	if _, err := entity.ParseAccountID(string(id)); err != nil {
		return err
	}
	if _, err := keys.ParsePublicKey(publicKey); err != nil {
		return err
	}
	if balance < 0 {
		return fmt.Errorf("%w: genesis balance %d", entity.ErrInvalidAmount, balance)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.accounts[id]; exists {
		return fmt.Errorf("%w: %s", entity.ErrAccountExists, id)
	}
	l.accounts[id] = &entity.Account{ID: id, PublicKey: publicKey, Balance: balance}
	if n := id.Num(); n >= l.nextNum {
		l.nextNum = n + 1
	}

	l.logger.LogInfo(ctx, "Genesis account created",
		"account", id,
		"public_key", publicKey,
		"balance", int64(balance))

	return nil
}

// CreateAccount creates a new account funded by the payer.
func (l *InMemoryLedger) CreateAccount(ctx context.Context, payer entity.AccountID, req entity.AccountCreate, maxFee entity.Amount) (entity.Submission, error) {
	if err := req.Validate(); err != nil {
		return entity.Submission{}, err
	}
	if _, err := keys.ParsePublicKey(req.PublicKey); err != nil {
		return entity.Submission{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	payerAccount, err := l.chargeable(payer, maxFee)
	if err != nil {
		return entity.Submission{}, err
	}

	debit, err := addAmounts(req.InitialBalance, l.fee)
	if err != nil {
		return entity.Submission{}, err
	}
	if payerAccount.Balance < debit {
		return entity.Submission{}, fmt.Errorf("%w: %s has %d, needs %d",
			entity.ErrInsufficientBalance, payer, payerAccount.Balance, debit)
	}

	l.sequence++
	id, err := txid.ForAccountCreate(payer, l.sequence, req, maxFee).ID()
	if err != nil {
		return entity.Submission{}, err
	}

	newID := entity.AccountID(fmt.Sprintf("%s%d", shardRealm, l.nextNum))
	l.nextNum++

	payerAccount.Balance -= debit
	l.accounts[newID] = &entity.Account{ID: newID, PublicKey: req.PublicKey, Balance: req.InitialBalance}
	l.entries = append(l.entries,
		entity.LedgerEntry{TransactionID: id, Account: payer, Amount: -debit},
		entity.LedgerEntry{TransactionID: id, Account: newID, Amount: req.InitialBalance},
	)
	l.receipts[id] = &entity.Receipt{TransactionID: id, Status: entity.StatusSuccess, AccountID: &newID}

	l.logger.LogInfo(ctx, "Account created",
		"transaction_id", id,
		"payer", payer,
		"account", newID,
		"initial_balance", int64(req.InitialBalance))

	return entity.Submission{TransactionID: id}, nil
}

// Transfer applies a balanced transfer. Only the payer may be debited.
func (l *InMemoryLedger) Transfer(ctx context.Context, payer entity.AccountID, t entity.Transfer, maxFee entity.Amount) (entity.Submission, error) {
	if err := t.Validate(); err != nil {
		return entity.Submission{}, err
	}
	for _, d := range t.Debits() {
		if d.Account != payer {
			return entity.Submission{}, fmt.Errorf("%w: %s", entity.ErrUnauthorizedDebit, d.Account)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.chargeable(payer, maxFee); err != nil {
		return entity.Submission{}, err
	}

	// Compute every resulting balance before touching state.
	next := make(map[entity.AccountID]entity.Amount, len(t.Entries)+1)
	for _, e := range t.Entries {
		acc, ok := l.accounts[e.Account]
		if !ok {
			return entity.Submission{}, fmt.Errorf("%w: %s", entity.ErrAccountNotFound, e.Account)
		}
		balance, err := addAmounts(acc.Balance, e.Amount)
		if err != nil {
			return entity.Submission{}, err
		}
		next[e.Account] = balance
	}
	if _, ok := next[payer]; !ok {
		next[payer] = l.accounts[payer].Balance
	}
	next[payer] -= l.fee
	for id, balance := range next {
		if balance < 0 {
			return entity.Submission{}, fmt.Errorf("%w: %s has %d",
				entity.ErrInsufficientBalance, id, l.accounts[id].Balance)
		}
	}

	l.sequence++
	id, err := txid.ForTransfer(payer, l.sequence, t, maxFee).ID()
	if err != nil {
		return entity.Submission{}, err
	}

	for acc, balance := range next {
		l.accounts[acc].Balance = balance
	}
	for _, e := range t.Entries {
		l.entries = append(l.entries, entity.LedgerEntry{TransactionID: id, Account: e.Account, Amount: e.Amount})
	}
	if l.fee > 0 {
		l.entries = append(l.entries, entity.LedgerEntry{TransactionID: id, Account: payer, Amount: -l.fee})
	}
	l.receipts[id] = &entity.Receipt{TransactionID: id, Status: entity.StatusSuccess}

	l.logger.LogInfo(ctx, "Transfer applied",
		"transaction_id", id,
		"payer", payer,
		"entries", len(t.Entries))

	return entity.Submission{TransactionID: id}, nil
}

// GetReceipt returns the receipt of a transaction
func (l *InMemoryLedger) GetReceipt(_ context.Context, transactionID string) (*entity.Receipt, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	r, ok := l.receipts[transactionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrReceiptNotFound, transactionID)
	}
	receiptCopy := *r
	return &receiptCopy, nil
}

// GetBalance returns the balance of an account
func (l *InMemoryLedger) GetBalance(_ context.Context, id entity.AccountID) (entity.Amount, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	acc, ok := l.accounts[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", entity.ErrAccountNotFound, id)
	}
	return acc.Balance, nil
}

// GetAccount returns a copy of an account
func (l *InMemoryLedger) GetAccount(_ context.Context, id entity.AccountID) (*entity.Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	acc, ok := l.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrAccountNotFound, id)
	}
	accountCopy := *acc
	return &accountCopy, nil
}

// Entries returns a copy of the audit trail.
func (l *InMemoryLedger) Entries() []entity.LedgerEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]entity.LedgerEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// chargeable returns the payer account if it exists and the flat fee fits
// under maxFee. Callers hold l.mu.
func (l *InMemoryLedger) chargeable(payer entity.AccountID, maxFee entity.Amount) (*entity.Account, error) {
	acc, ok := l.accounts[payer]
	if !ok {
		return nil, fmt.Errorf("%w: payer %s", entity.ErrAccountNotFound, payer)
	}
	if l.fee > maxFee {
		return nil, fmt.Errorf("%w: fee %d, max fee %d", entity.ErrFeeCeilingExceeded, l.fee, maxFee)
	}
	return acc, nil
}

// addAmounts adds two amounts using the shopspring/decimal library so that
// int64 overflow is reported instead of wrapping.
func addAmounts(a, b entity.Amount) (entity.Amount, error) {
	sum := decimal.NewFromInt(int64(a)).Add(decimal.NewFromInt(int64(b)))
	if sum.Abs().GreaterThan(maxAmount) {
		return 0, fmt.Errorf("%w: %d + %d overflows", entity.ErrInvalidAmount, a, b)
	}
	return entity.Amount(sum.IntPart()), nil
}
