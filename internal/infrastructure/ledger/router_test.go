package ledger

import (
	"context"
	"errors"
	"testing"

	"ledgerflow.com/internal/domain/entity"
	"ledgerflow.com/internal/domain/port"
)

type mockConnector struct {
	calls    int
	networks []string
}

func (m *mockConnector) Connect(_ context.Context, network string, _ entity.Credentials, _ entity.Ceilings) (port.LedgerClient, error) {
	m.calls++
	m.networks = append(m.networks, network)
	return nil, nil
}

func TestRouter_Connect(t *testing.T) {
	sdk := &mockConnector{}
	local := &mockConnector{}
	router := NewRouter().Register(sdk, "testnet", "mainnet").Register(local, "local")

	ctx := context.Background()
	for _, network := range []string{"testnet", "MAINNET", "local"} {
		if _, err := router.Connect(ctx, network, entity.Credentials{}, entity.Ceilings{}); err != nil {
			t.Errorf("Connect(%s) error = %v", network, err)
		}
	}

	if sdk.calls != 2 || local.calls != 1 {
		t.Errorf("calls = sdk %d, local %d, want 2 and 1", sdk.calls, local.calls)
	}

	_, err := router.Connect(ctx, "moon", entity.Credentials{}, entity.Ceilings{})
	if !errors.Is(err, entity.ErrClientInitialization) {
		t.Errorf("Connect(moon) error = %v, want ErrClientInitialization", err)
	}

	if got := router.Networks(); len(got) != 3 || got[0] != "local" {
		t.Errorf("Networks() = %v", got)
	}
}
