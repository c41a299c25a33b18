package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"ledgerflow.com/internal/application/usecase"
	"ledgerflow.com/internal/domain/entity"
	"ledgerflow.com/internal/domain/port"
	"ledgerflow.com/internal/infrastructure/config"
	"ledgerflow.com/internal/infrastructure/keys"
	"ledgerflow.com/internal/infrastructure/ledger"
	"ledgerflow.com/internal/infrastructure/ledger/devnet"
	"ledgerflow.com/internal/infrastructure/ledger/hedera"
	"ledgerflow.com/internal/infrastructure/ledger/local"
	"ledgerflow.com/internal/infrastructure/logger"
)

const runDir = "run"

var runNetwork string //nolint:gochecknoglobals

var runCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:          "run",
	Short:        "Run the account provisioning and transfer workflow.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadConfig(configDir(runDir))
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if runNetwork != "" {
			cfg.Network.Name = strings.ToLower(runNetwork)
		}

		// stdout carries the progress lines, logs go to stderr
		appLogger := logger.NewLogger(cmd.ErrOrStderr(), cfg.Log.Level)

		ceilings, err := cfg.Ceilings()
		if err != nil {
			return err
		}

		appLogger.LogInfo(context.TODO(), "Configuration loaded",
			"network", cfg.Network.Name,
			"max_transaction_fee", int64(ceilings.MaxTransactionFee),
			"max_query_payment", int64(ceilings.MaxQueryPayment),
			"receipt_timeout", cfg.Workflow.ReceiptTimeout.String())

		workflow := usecase.NewWorkflow(
			config.NewEnvCredentialSource(cfg.Workflow.DotEnvFile),
			newConnector(cfg, appLogger),
			keys.NewGenerator(),
			usecase.WorkflowSettings{
				Network:        cfg.Network.Name,
				Ceilings:       ceilings,
				InitialBalance: entity.Amount(cfg.Workflow.InitialBalance),
				TransferAmount: entity.Amount(cfg.Workflow.TransferAmount),
				ReceiptTimeout: cfg.Workflow.ReceiptTimeout,
			},
			appLogger,
			cmd.OutOrStdout(),
		)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		_, err = workflow.Run(ctx)
		return err
	},
}

// newConnector registers every supported backend by network name.
func newConnector(cfg *config.Config, appLogger logger.Logger) port.LedgerConnector {
	return ledger.NewRouter().
		Register(hedera.NewConnector(appLogger), hedera.Networks...).
		Register(local.NewConnector(appLogger, cfg.LocalOperatorBalance(), entity.Amount(cfg.Local.TransactionFee)), local.Network).
		Register(devnet.NewConnector(cfg.Network.DevnetURL, nil, appLogger), devnet.Network)
}

func init() { //nolint:gochecknoinits
	runCmd.Flags().StringVarP(&runNetwork, "network", "n", "",
		"ledger network: testnet, previewnet, mainnet, local or devnet (overrides network.name)")
	rootCmd.AddCommand(runCmd)
}
