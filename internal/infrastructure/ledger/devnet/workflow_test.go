package devnet

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ledgerflow.com/internal/application/usecase"
	"ledgerflow.com/internal/domain/entity"
	"ledgerflow.com/internal/infrastructure/keys"
)

type staticCredentials entity.Credentials

func (c staticCredentials) Load() (entity.Credentials, error) {
	creds := entity.Credentials(c)
	return creds, creds.Validate()
}

func runWorkflow(t *testing.T, network *testNetwork, out *bytes.Buffer) (*usecase.Report, error) {
	t.Helper()
	connector := NewConnector(network.server.URL, network.server.Client(), network.log)
	settings := usecase.WorkflowSettings{
		Network:        Network,
		Ceilings:       entity.Ceilings{MaxTransactionFee: 100},
		InitialBalance: 1000,
		TransferAmount: 100,
		ReceiptTimeout: 5 * time.Second,
	}
	wf := usecase.NewWorkflow(staticCredentials(network.creds), connector, keys.NewGenerator(), settings, network.log, out)
	return wf.Run(context.Background())
}

func TestWorkflow_OverDevnet(t *testing.T) {
	network := newTestNetwork(t, 100_000, 5)
	var out bytes.Buffer

	report, err := runWorkflow(t, network, &out)
	if err != nil {
		t.Fatalf("Run() error = %v\noutput:\n%s", err, out.String())
	}
	if report.State != usecase.StateCompleted {
		t.Fatalf("State = %v, want Completed", report.State)
	}
	if got := report.FinalBalances[report.AccountA.ID]; got != 1100 {
		t.Errorf("account A balance = %d, want 1100", got)
	}
	if got := report.FinalBalances[report.AccountB.ID]; got != 1000 {
		t.Errorf("account B balance = %d, want 1000", got)
	}

	// two creations and one transfer, each paying the flat fee
	operator, err := network.ledger.GetBalance(context.Background(), "0.0.2")
	if err != nil {
		t.Fatalf("GetBalance() error = %v", err)
	}
	if want := entity.Amount(100_000 - 2*1000 - 100 - 3*5); operator != want {
		t.Errorf("operator balance = %d, want %d", operator, want)
	}
	if !strings.Contains(out.String(), "Transfer from operator to "+string(report.AccountA.ID)+": SUCCESS") {
		t.Errorf("output missing transfer status\noutput:\n%s", out.String())
	}
}

func TestWorkflow_OverDevnetTransferRejected(t *testing.T) {
	network := newTestNetwork(t, 2050, 0)
	var out bytes.Buffer

	report, err := runWorkflow(t, network, &out)
	if !errors.Is(err, entity.ErrTransfer) {
		t.Fatalf("Run() error = %v, want ErrTransfer", err)
	}
	if report.FailedAt != usecase.StateTransfer {
		t.Errorf("FailedAt = %v, want Transfer", report.FailedAt)
	}
	for _, account := range []*usecase.ProvisionedAccount{report.AccountA, report.AccountB} {
		balance, err := network.ledger.GetBalance(context.Background(), account.ID)
		if err != nil {
			t.Fatalf("GetBalance(%s) error = %v", account.ID, err)
		}
		if balance != 1000 {
			t.Errorf("balance of %s = %d, want 1000", account.ID, balance)
		}
	}
}
