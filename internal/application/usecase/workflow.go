package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"ledgerflow.com/internal/domain/entity"
	"ledgerflow.com/internal/domain/port"
	"ledgerflow.com/internal/infrastructure/logger"
)

// State is a step of the provisioning and transfer workflow.
type State int

const (
	StateInit State = iota
	StateInitialBalanceCheck
	StateProvisionAccountA
	StateProvisionAccountB
	StateTransfer
	StateConfirmTransfer
	StateFinalBalanceCheck
	StateCompleted
	StateAborted
)

var stateNames = map[State]string{
	StateInit:                "Init",
	StateInitialBalanceCheck: "InitialBalanceCheck",
	StateProvisionAccountA:   "ProvisionAccountA",
	StateProvisionAccountB:   "ProvisionAccountB",
	StateTransfer:            "Transfer",
	StateConfirmTransfer:     "ConfirmTransfer",
	StateFinalBalanceCheck:   "FinalBalanceCheck",
	StateCompleted:           "Completed",
	StateAborted:             "Aborted",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether the workflow stops in this state.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateAborted
}

// WorkflowSettings are the fixed inputs of a run.
type WorkflowSettings struct {
	Network        string
	Ceilings       entity.Ceilings
	InitialBalance entity.Amount
	TransferAmount entity.Amount
	ReceiptTimeout time.Duration
}

// Report describes the outcome of a run. Fields for steps that were not
// reached are left zero.
type Report struct {
	RunID                  string
	Network                string
	State                  State
	FailedAt               State
	Operator               entity.AccountID
	OperatorInitialBalance entity.Amount
	AccountA               *ProvisionedAccount
	AccountB               *ProvisionedAccount
	TransferReceipt        *entity.Receipt
	FinalBalances          map[entity.AccountID]entity.Amount
}

// Workflow runs the operator balance check, provisions two accounts, moves
// funds from the operator to the first one and reports final balances.
// It halts on the first error. Accounts created before a failure are left
// on the ledger.
type Workflow struct {
	credentials port.CredentialSource
	connector   port.LedgerConnector
	settings    WorkflowSettings
	balance     *GetBalanceUseCase
	provision   *ProvisionAccountUseCase
	transfer    *SubmitTransferUseCase
	logger      logger.Logger
	out         io.Writer
}

// NewWorkflow creates a new Workflow. Progress lines are written to out.
func NewWorkflow(
	credentials port.CredentialSource,
	connector port.LedgerConnector,
	keys port.KeyGenerator,
	settings WorkflowSettings,
	logger logger.Logger,
	out io.Writer,
) *Workflow {
	return &Workflow{
		credentials: credentials,
		connector:   connector,
		settings:    settings,
		balance:     NewGetBalanceUseCase(),
		provision:   NewProvisionAccountUseCase(keys, settings.InitialBalance, settings.ReceiptTimeout),
		transfer:    NewSubmitTransferUseCase(settings.ReceiptTimeout),
		logger:      logger,
		out:         out,
	}
}

type run struct {
	*Workflow
	report     *Report
	submission entity.Submission
	log        logger.Logger
}

// Run executes the workflow. The returned report is never nil.
func (w *Workflow) Run(ctx context.Context) (*Report, error) {
	r := &run{
		Workflow: w,
		report: &Report{
			RunID:         uuid.NewString(),
			Network:       w.settings.Network,
			State:         StateInit,
			FinalBalances: make(map[entity.AccountID]entity.Amount),
		},
	}
	r.log = w.logger.WithRunID(r.report.RunID)
	r.log.LogInfo(ctx, "Workflow started", "network", w.settings.Network)

	client, err := r.init(ctx)
	if err != nil {
		return r.abort(ctx, err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			r.log.LogWarning(ctx, "Failed to close ledger client", "error", err.Error())
		}
	}()

	steps := []struct {
		state State
		fn    func(context.Context, port.LedgerClient) error
	}{
		{StateInitialBalanceCheck, r.initialBalanceCheck},
		{StateProvisionAccountA, func(ctx context.Context, c port.LedgerClient) error {
			return r.provisionAccount(ctx, c, &r.report.AccountA)
		}},
		{StateProvisionAccountB, func(ctx context.Context, c port.LedgerClient) error {
			return r.provisionAccount(ctx, c, &r.report.AccountB)
		}},
		{StateTransfer, r.submitTransfer},
		{StateConfirmTransfer, r.confirmTransfer},
		{StateFinalBalanceCheck, r.finalBalanceCheck},
	}

	for _, step := range steps {
		r.report.State = step.state
		r.log.LogInfo(ctx, "Workflow step", "state", step.state.String())
		if err := step.fn(ctx, client); err != nil {
			return r.abort(ctx, err)
		}
	}

	r.report.State = StateCompleted
	r.log.LogInfo(ctx, "Workflow completed",
		"account_a", string(r.report.AccountA.ID),
		"account_b", string(r.report.AccountB.ID))
	fmt.Fprintln(r.out, "Execution completed")
	return r.report, nil
}

func (r *run) init(ctx context.Context) (port.LedgerClient, error) {
	creds, err := r.credentials.Load()
	if err != nil {
		if !errors.Is(err, entity.ErrConfiguration) {
			err = fmt.Errorf("%w: %w", entity.ErrConfiguration, err)
		}
		return nil, err
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	client, err := r.connector.Connect(ctx, r.settings.Network, creds, r.settings.Ceilings)
	if err != nil {
		if !errors.Is(err, entity.ErrClientInitialization) {
			err = fmt.Errorf("%w: %w", entity.ErrClientInitialization, err)
		}
		return nil, err
	}

	r.report.Operator = client.Operator()
	r.log.LogInfo(ctx, "Ledger client connected",
		"network", r.settings.Network,
		"operator", string(r.report.Operator))
	return client, nil
}

func (r *run) initialBalanceCheck(ctx context.Context, client port.LedgerClient) error {
	balance, err := r.balance.Execute(ctx, client, r.report.Operator)
	if err != nil {
		return err
	}
	r.report.OperatorInitialBalance = balance
	r.log.LogInfo(ctx, "Operator balance", "account", string(r.report.Operator), "balance", int64(balance))
	fmt.Fprintf(r.out, "Operator %s balance: %s\n", r.report.Operator, balance)
	return nil
}

func (r *run) provisionAccount(ctx context.Context, client port.LedgerClient, slot **ProvisionedAccount) error {
	account, err := r.provision.Execute(ctx, client)
	if err != nil {
		return err
	}
	*slot = account
	r.log.LogInfo(ctx, "Account provisioned",
		"account", string(account.ID),
		"transaction_id", account.TransactionID,
		"public_key", account.Keys.PublicKey)
	fmt.Fprintf(r.out, "New account ID: %s\n", account.ID)

	balance, err := r.balance.Execute(ctx, client, account.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Account %s balance: %s\n", account.ID, balance)
	return nil
}

func (r *run) submitTransfer(ctx context.Context, client port.LedgerClient) error {
	submission, err := r.transfer.Execute(ctx, client, r.report.Operator, r.report.AccountA.ID, r.settings.TransferAmount)
	if err != nil {
		return err
	}
	r.submission = submission
	r.log.LogInfo(ctx, "Transfer submitted",
		"transaction_id", submission.TransactionID,
		"from", string(r.report.Operator),
		"to", string(r.report.AccountA.ID),
		"amount", int64(r.settings.TransferAmount))
	return nil
}

func (r *run) confirmTransfer(ctx context.Context, client port.LedgerClient) error {
	receipt, err := r.transfer.Confirm(ctx, client, r.submission)
	if receipt != nil {
		r.report.TransferReceipt = receipt
		fmt.Fprintf(r.out, "Transfer from operator to %s: %s\n", r.report.AccountA.ID, receipt.Status)
	}
	if err != nil {
		return err
	}
	r.log.LogInfo(ctx, "Transfer confirmed",
		"transaction_id", r.submission.TransactionID,
		"status", receipt.Status.String())
	return nil
}

func (r *run) finalBalanceCheck(ctx context.Context, client port.LedgerClient) error {
	for _, account := range []*ProvisionedAccount{r.report.AccountA, r.report.AccountB} {
		balance, err := r.balance.Execute(ctx, client, account.ID)
		if err != nil {
			return err
		}
		r.report.FinalBalances[account.ID] = balance
		r.log.LogInfo(ctx, "Final balance", "account", string(account.ID), "balance", int64(balance))
		fmt.Fprintf(r.out, "Account %s balance: %s\n", account.ID, balance)
	}
	return nil
}

func (r *run) abort(ctx context.Context, err error) (*Report, error) {
	r.report.FailedAt = r.report.State
	r.report.State = StateAborted
	r.log.LogError(ctx, "Workflow aborted", err, "state", r.report.FailedAt.String())
	fmt.Fprintf(r.out, "Execution aborted at %s\n", r.report.FailedAt)
	return r.report, err
}
