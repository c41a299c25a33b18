package devnet

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ledgerflow.com/internal/domain/entity"
	"ledgerflow.com/internal/domain/port"
	httphandler "ledgerflow.com/internal/infrastructure/http"
	"ledgerflow.com/internal/infrastructure/keys"
	"ledgerflow.com/internal/infrastructure/logger"
	"ledgerflow.com/internal/infrastructure/repository"
	"ledgerflow.com/internal/infrastructure/validator"
)

type testNetwork struct {
	server *httptest.Server
	ledger port.LedgerRepository
	creds  entity.Credentials
	log    logger.Logger
}

func newTestNetwork(t *testing.T, operatorBalance, fee entity.Amount) *testNetwork {
	t.Helper()
	log := logger.NewLogger(io.Discard, "error")
	ledger := repository.NewInMemoryLedger(log, fee)

	kp, err := keys.NewGenerator().Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if err := ledger.AddGenesisAccount(context.Background(), "0.0.2", kp.PublicKey, operatorBalance); err != nil {
		t.Fatalf("AddGenesisAccount() error = %v", err)
	}

	handler := httphandler.NewHandler(
		ledger,
		validator.NewSignatureValidator(ledger, time.Minute, log),
		nil,
		prometheus.NewRegistry(),
		log,
	)
	server := httptest.NewServer(handler.SetupRoutes())
	t.Cleanup(server.Close)

	return &testNetwork{
		server: server,
		ledger: ledger,
		creds:  entity.Credentials{AccountID: "0.0.2", PrivateKey: kp.PrivateKey},
		log:    log,
	}
}

func (n *testNetwork) connect(t *testing.T, ceilings entity.Ceilings) port.LedgerClient {
	t.Helper()
	client, err := NewConnector(n.server.URL, n.server.Client(), n.log).Connect(context.Background(), Network, n.creds, ceilings)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestClient_RoundTrip(t *testing.T) {
	network := newTestNetwork(t, 5000, 0)
	client := network.connect(t, entity.Ceilings{})
	ctx := context.Background()

	balance, err := client.QueryBalance(ctx, "0.0.2")
	if err != nil || balance != 5000 {
		t.Fatalf("QueryBalance() = %d, %v, want 5000", balance, err)
	}

	kp, _ := keys.NewGenerator().Generate()
	sub, err := client.CreateAccount(ctx, entity.AccountCreate{PublicKey: kp.PublicKey, InitialBalance: 1000})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	receipt, err := client.AwaitReceipt(ctx, sub)
	if err != nil {
		t.Fatalf("AwaitReceipt() error = %v", err)
	}
	if !receipt.Succeeded() || receipt.AccountID == nil {
		t.Fatalf("receipt = %+v, want SUCCESS with account id", receipt)
	}
	newID := *receipt.AccountID

	sub, err = client.Transfer(ctx, entity.NewTransfer("0.0.2", newID, 100))
	if err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}
	if receipt, err := client.AwaitReceipt(ctx, sub); err != nil || !receipt.Succeeded() {
		t.Fatalf("AwaitReceipt() = %+v, %v", receipt, err)
	}

	if got, _ := client.QueryBalance(ctx, newID); got != 1100 {
		t.Errorf("QueryBalance(new) = %d, want 1100", got)
	}
	if got, _ := client.QueryBalance(ctx, "0.0.2"); got != 3900 {
		t.Errorf("QueryBalance(operator) = %d, want 3900", got)
	}
}

func TestClient_ErrorsUnwrapToLedgerErrors(t *testing.T) {
	network := newTestNetwork(t, 50, 0)
	client := network.connect(t, entity.Ceilings{})
	ctx := context.Background()

	_, err := client.Transfer(ctx, entity.NewTransfer("0.0.2", "0.0.2", 10))
	if !errors.Is(err, entity.ErrUnbalancedTransfer) {
		t.Errorf("Transfer(self) error = %v, want ErrUnbalancedTransfer", err)
	}

	kp, _ := keys.NewGenerator().Generate()
	_, err = client.CreateAccount(ctx, entity.AccountCreate{PublicKey: kp.PublicKey, InitialBalance: 1000})
	if !errors.Is(err, entity.ErrInsufficientBalance) {
		t.Errorf("CreateAccount() error = %v, want ErrInsufficientBalance", err)
	}

	_, err = client.QueryBalance(ctx, "0.0.404")
	if !errors.Is(err, entity.ErrAccountNotFound) {
		t.Errorf("QueryBalance() error = %v, want ErrAccountNotFound", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != 404 || apiErr.Status != entity.StatusInvalidAccountID {
		t.Errorf("QueryBalance() error = %#v, want 404 INVALID_ACCOUNT_ID", err)
	}
}

func TestClient_FeeCeiling(t *testing.T) {
	network := newTestNetwork(t, 5000, 10)
	ctx := context.Background()

	low := network.connect(t, entity.Ceilings{MaxTransactionFee: 5})
	kp, _ := keys.NewGenerator().Generate()
	if _, err := low.CreateAccount(ctx, entity.AccountCreate{PublicKey: kp.PublicKey, InitialBalance: 1}); !errors.Is(err, entity.ErrFeeCeilingExceeded) {
		t.Errorf("CreateAccount() error = %v, want ErrFeeCeilingExceeded", err)
	}

	enough := network.connect(t, entity.Ceilings{MaxTransactionFee: 10})
	if _, err := enough.CreateAccount(ctx, entity.AccountCreate{PublicKey: kp.PublicKey, InitialBalance: 1}); err != nil {
		t.Errorf("CreateAccount() error = %v", err)
	}
}

func TestClient_AwaitReceiptTimesOut(t *testing.T) {
	network := newTestNetwork(t, 5000, 0)
	connector := NewConnector(network.server.URL, network.server.Client(), network.log)
	connector.pollInterval = 5 * time.Millisecond
	client, err := connector.Connect(context.Background(), Network, network.creds, entity.Ceilings{})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.AwaitReceipt(ctx, entity.Submission{TransactionID: "0.0.2@missing"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("AwaitReceipt() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestConnector_Handshake(t *testing.T) {
	network := newTestNetwork(t, 5000, 0)
	ctx := context.Background()
	connector := NewConnector(network.server.URL, network.server.Client(), network.log)

	other, _ := keys.NewGenerator().Generate()
	tests := []struct {
		name  string
		creds entity.Credentials
	}{
		{name: "foreign key", creds: entity.Credentials{AccountID: "0.0.2", PrivateKey: other.PrivateKey}},
		{name: "unknown operator", creds: entity.Credentials{AccountID: "0.0.3", PrivateKey: network.creds.PrivateKey}},
		{name: "unparsable key", creds: entity.Credentials{AccountID: "0.0.2", PrivateKey: "zz"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := connector.Connect(ctx, Network, tt.creds, entity.Ceilings{})
			if !errors.Is(err, entity.ErrClientInitialization) {
				t.Errorf("Connect() error = %v, want ErrClientInitialization", err)
			}
		})
	}

	unreachable := NewConnector("http://127.0.0.1:1", nil, network.log)
	if _, err := unreachable.Connect(ctx, Network, network.creds, entity.Ceilings{}); !errors.Is(err, entity.ErrClientInitialization) {
		t.Errorf("Connect(unreachable) error = %v, want ErrClientInitialization", err)
	}
}
