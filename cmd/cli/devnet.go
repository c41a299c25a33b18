package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"ledgerflow.com/internal/domain/entity"
	"ledgerflow.com/internal/infrastructure/config"
	httphandler "ledgerflow.com/internal/infrastructure/http"
	"ledgerflow.com/internal/infrastructure/logger"
	"ledgerflow.com/internal/infrastructure/ratelimiter"
	"ledgerflow.com/internal/infrastructure/repository"
	"ledgerflow.com/internal/infrastructure/validator"
)

const devnetDir = "devnet"

var devnetCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "devnet",
	Short: "Run the in-memory devnet ledger server.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Load configuration
		cfg, err := config.LoadConfig(configDir(devnetDir))
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		appLogger := logger.NewLogger(cmd.OutOrStdout(), cfg.Log.Level)

		if cfg.Devnet.OperatorPublicKey == "" {
			err := fmt.Errorf("%w: devnet.operatorPublicKey is empty (generate one with `ledgerflow keygen`)", entity.ErrConfiguration)
			appLogger.LogError(context.TODO(), "Failed to load config", err)
			return err
		}

		appLogger.LogInfo(context.TODO(), "Configuration loaded",
			"port", cfg.Devnet.Port,
			"operator", cfg.Devnet.OperatorAccountID,
			"transaction_fee", cfg.Devnet.TransactionFee,
			"timestamp_tolerance", cfg.Devnet.TimestampTolerance.String())

		// Initialize infrastructure adapters
		ledgerRepo := repository.NewInMemoryLedger(appLogger, entity.Amount(cfg.Devnet.TransactionFee))
		if err := ledgerRepo.AddGenesisAccount(
			context.TODO(),
			entity.AccountID(cfg.Devnet.OperatorAccountID),
			cfg.Devnet.OperatorPublicKey,
			cfg.DevnetOperatorBalance(),
		); err != nil {
			appLogger.LogError(context.TODO(), "Failed to create genesis account", err)
			return fmt.Errorf("%w: genesis account: %w", entity.ErrConfiguration, err)
		}

		requestValidator := validator.NewSignatureValidator(
			ledgerRepo,
			cfg.Devnet.TimestampTolerance,
			appLogger,
		)
		limiter := ratelimiter.New(cfg.Devnet.RateLimit, cfg.Devnet.RateBurst, 10*time.Minute)

		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		// Initialize HTTP handler
		handler := httphandler.NewHandler(
			ledgerRepo,
			requestValidator,
			limiter,
			registry,
			appLogger,
		)

		// Setup routes
		mux := handler.SetupRoutes()

		// Create HTTP server
		addr := ":" + cfg.Devnet.Port
		server := &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		// Channel to capture termination signals
		signalChan := make(chan os.Signal, 1)
		signal.Notify(signalChan, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)

		// Error channel to capture errors from server
		errChan := make(chan error, 1)

		go func() {
			appLogger.LogInfo(context.TODO(), "Starting devnet server", "address", addr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()

		// Graceful shutdown
		select {
		case <-signalChan:
			appLogger.LogInfo(context.TODO(), "Received termination signal. Initiating graceful shutdown...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				appLogger.LogError(context.TODO(), "Server forced to shutdown", err)
				return err
			}

			appLogger.LogInfo(context.TODO(), "Server stopped gracefully")
		case err := <-errChan:
			appLogger.LogError(context.TODO(), "Server error", err)
			return err
		}

		return nil
	},
}

func init() { //nolint:gochecknoinits
	rootCmd.AddCommand(devnetCmd)
}
