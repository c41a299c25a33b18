package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"ledgerflow.com/internal/domain/entity"
)

// Config holds the application configuration
type Config struct {
	Network  Network  `mapstructure:"network"`
	Workflow Workflow `mapstructure:"workflow"`
	Local    Local    `mapstructure:"local"`
	Devnet   Devnet   `mapstructure:"devnet"`
	Log      Log      `mapstructure:"log"`
}

// Network configuration. Fee ceilings are whole coins.
type Network struct {
	Name              string `mapstructure:"name"`
	DevnetURL         string `mapstructure:"devnetURL"`
	MaxTransactionFee string `mapstructure:"maxTransactionFee"`
	MaxQueryPayment   string `mapstructure:"maxQueryPayment"`
}

// Workflow configuration. Amounts are smallest units.
type Workflow struct {
	InitialBalance int64         `mapstructure:"initialBalance"`
	TransferAmount int64         `mapstructure:"transferAmount"`
	ReceiptTimeout time.Duration `mapstructure:"receiptTimeout"`
	DotEnvFile     string        `mapstructure:"dotEnvFile"`
}

// Local network configuration
type Local struct {
	OperatorBalance string `mapstructure:"operatorBalance"`
	TransactionFee  int64  `mapstructure:"transactionFee"`
}

// Devnet server configuration
type Devnet struct {
	Port               string        `mapstructure:"port"`
	OperatorAccountID  string        `mapstructure:"operatorAccountId"`
	OperatorPublicKey  string        `mapstructure:"operatorPublicKey"`
	OperatorBalance    string        `mapstructure:"operatorBalance"`
	TransactionFee     int64         `mapstructure:"transactionFee"`
	TimestampTolerance time.Duration `mapstructure:"timestampTolerance"`
	RateLimit          float64       `mapstructure:"rateLimit"`
	RateBurst          int           `mapstructure:"rateBurst"`
}

// Log configuration
type Log struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("network.name", "testnet")
	v.SetDefault("network.devnetURL", "http://localhost:8080")
	v.SetDefault("network.maxTransactionFee", "100")
	v.SetDefault("network.maxQueryPayment", "50")
	v.SetDefault("workflow.initialBalance", 1000)
	v.SetDefault("workflow.transferAmount", 100)
	v.SetDefault("workflow.receiptTimeout", "2m")
	v.SetDefault("workflow.dotEnvFile", ".env")
	v.SetDefault("local.operatorBalance", "10000")
	v.SetDefault("local.transactionFee", 0)
	v.SetDefault("devnet.port", "8080")
	v.SetDefault("devnet.operatorAccountId", "0.0.2")
	v.SetDefault("devnet.operatorPublicKey", "")
	v.SetDefault("devnet.operatorBalance", "10000")
	v.SetDefault("devnet.transactionFee", 0)
	v.SetDefault("devnet.timestampTolerance", "5m")
	v.SetDefault("devnet.rateLimit", 20.0)
	v.SetDefault("devnet.rateBurst", 40)
	v.SetDefault("log.level", "info")
}

// LoadConfig loads configuration from YAML files in configDir.
// app-config.yaml holds the base values and ${CONFIG_ENV}.yaml (default
// local.yaml) is merged on top. LEDGERFLOW_* environment variables
// override both, e.g. LEDGERFLOW_NETWORK_NAME=local.
func LoadConfig(configDir string) (*Config, error) {
	configEnv := os.Getenv("CONFIG_ENV")
	if configEnv == "" {
		configEnv = "local"
	}

	v := viper.New()
	setDefaults(v)

	for _, name := range []string{"app-config.yaml", configEnv + ".yaml"} {
		path := filepath.Join(configDir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("%w: failed to read config file %s: %w", entity.ErrConfiguration, path, err)
		}
	}

	v.SetEnvPrefix("LEDGERFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("network.name", "LEDGERFLOW_NETWORK_NAME", "LEDGERFLOW_NETWORK")
	_ = v.BindEnv("network.devnetURL", "LEDGERFLOW_NETWORK_DEVNETURL", "LEDGERFLOW_DEVNET_URL")
	_ = v.BindEnv("log.level", "LEDGERFLOW_LOG_LEVEL", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal config: %w", entity.ErrConfiguration, err)
	}
	cfg.Network.Name = strings.ToLower(strings.TrimSpace(cfg.Network.Name))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Network.Name == "" {
		return fmt.Errorf("%w: network.name is empty", entity.ErrConfiguration)
	}
	if _, err := c.Ceilings(); err != nil {
		return err
	}
	if c.Workflow.InitialBalance < 0 {
		return fmt.Errorf("%w: workflow.initialBalance must not be negative", entity.ErrConfiguration)
	}
	if c.Workflow.TransferAmount <= 0 {
		return fmt.Errorf("%w: workflow.transferAmount must be positive", entity.ErrConfiguration)
	}
	if c.Workflow.ReceiptTimeout < 0 {
		return fmt.Errorf("%w: workflow.receiptTimeout must not be negative", entity.ErrConfiguration)
	}
	if _, err := coins("local.operatorBalance", c.Local.OperatorBalance); err != nil {
		return err
	}
	if _, err := coins("devnet.operatorBalance", c.Devnet.OperatorBalance); err != nil {
		return err
	}
	if c.Local.TransactionFee < 0 || c.Devnet.TransactionFee < 0 {
		return fmt.Errorf("%w: transaction fees must not be negative", entity.ErrConfiguration)
	}
	return nil
}

// Ceilings converts the configured coin ceilings to smallest units.
func (c *Config) Ceilings() (entity.Ceilings, error) {
	fee, err := coins("network.maxTransactionFee", c.Network.MaxTransactionFee)
	if err != nil {
		return entity.Ceilings{}, err
	}
	payment, err := coins("network.maxQueryPayment", c.Network.MaxQueryPayment)
	if err != nil {
		return entity.Ceilings{}, err
	}
	return entity.Ceilings{MaxTransactionFee: fee, MaxQueryPayment: payment}, nil
}

// LocalOperatorBalance returns the genesis balance of the local network operator.
func (c *Config) LocalOperatorBalance() entity.Amount {
	a, _ := coins("local.operatorBalance", c.Local.OperatorBalance)
	return a
}

// DevnetOperatorBalance returns the genesis balance of the devnet operator.
func (c *Config) DevnetOperatorBalance() entity.Amount {
	a, _ := coins("devnet.operatorBalance", c.Devnet.OperatorBalance)
	return a
}

func coins(key, value string) (entity.Amount, error) {
	a, err := entity.AmountFromCoins(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", entity.ErrConfiguration, key, err)
	}
	if a < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative", entity.ErrConfiguration, key)
	}
	return a, nil
}
