package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the orchestrator configuration
type Config struct {
	Server      ServerConfig           `mapstructure:"server"`
	Database    DatabaseConfig         `mapstructure:"database"`
	Chains      map[string]ChainConfig `mapstructure:"chains"`
	Aptos       AptosConfig            `mapstructure:"aptos"`
	Attestation AttestationConfig      `mapstructure:"attestation"`
	Bridge      BridgeConfig           `mapstructure:"bridge"`
	Auth        AuthConfig             `mapstructure:"auth"`
	Monitoring  MonitoringConfig       `mapstructure:"monitoring"`
	Logging     LoggingConfig          `mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig contains database connection settings. When Host is empty the
// orchestrator runs with the in-memory bridge store instead of Postgres.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// ChainConfig contains settings for one EVM source chain
type ChainConfig struct {
	RPCURL             string        `mapstructure:"rpc_url"`
	ChainID            int64         `mapstructure:"chain_id"`
	USDCContract       string        `mapstructure:"usdc_contract"`
	TokenMessenger     string        `mapstructure:"token_messenger"`
	MessageTransmitter string        `mapstructure:"message_transmitter"`
	CCTPDomain         uint32        `mapstructure:"cctp_domain"`
	ReceiptTimeout     time.Duration `mapstructure:"receipt_timeout"`
}

// AptosConfig contains destination chain settings
type AptosConfig struct {
	NodeURL            string        `mapstructure:"node_url"`
	CCTPDomain         uint32        `mapstructure:"cctp_domain"`
	USDCType           string        `mapstructure:"usdc_type"`
	MessageTransmitter string        `mapstructure:"message_transmitter"`
	VaultModule        string        `mapstructure:"vault_module"`
	ServiceAccountKey  string        `mapstructure:"service_account_key"`
	MaxGasAmount       uint64        `mapstructure:"max_gas_amount"`
	GasUnitPrice       uint64        `mapstructure:"gas_unit_price"`
	TransactionTimeout time.Duration `mapstructure:"transaction_timeout"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
}

// AttestationConfig contains Circle attestation service settings
type AttestationConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// BridgeConfig contains attestation polling and strategy settings.
// Zero values fall back to the poll policy defaults in pkg/bridge.
type BridgeConfig struct {
	FastInterval         time.Duration    `mapstructure:"fast_interval"`
	SlowInterval         time.Duration    `mapstructure:"slow_interval"`
	FastAttempts         int              `mapstructure:"fast_attempts"`
	MaxAttempts          int              `mapstructure:"max_attempts"`
	MaxConsecutiveErrors int              `mapstructure:"max_consecutive_errors"`
	ErrorBackoffBase     time.Duration    `mapstructure:"error_backoff_base"`
	ErrorBackoffCap      time.Duration    `mapstructure:"error_backoff_cap"`
	Protocols            []ProtocolConfig `mapstructure:"protocols"`
}

// ProtocolConfig describes a yield protocol candidate for vault allocation
type ProtocolConfig struct {
	Name string  `mapstructure:"name"`
	APY  float64 `mapstructure:"apy"`
	TVL  float64 `mapstructure:"tvl"`
}

// AuthConfig holds API authentication configuration. When JWTSecret is empty
// the mutating endpoints are unauthenticated.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// MonitoringConfig contains monitoring and metrics settings
type MonitoringConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.idle_timeout", "60s")
	viper.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.database", "cctp_orchestrator")

	// Attestation defaults (Circle Iris sandbox)
	viper.SetDefault("attestation.base_url", "https://iris-api-sandbox.circle.com")
	viper.SetDefault("attestation.request_timeout", "30s")

	// Aptos defaults
	viper.SetDefault("aptos.cctp_domain", 9)
	viper.SetDefault("aptos.max_gas_amount", 20000)
	viper.SetDefault("aptos.gas_unit_price", 100)
	viper.SetDefault("aptos.transaction_timeout", "60s")
	viper.SetDefault("aptos.request_timeout", "30s")

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output_path", "stdout")
}

func validate(config *Config) error {
	if len(config.Chains) == 0 {
		return fmt.Errorf("at least one source chain is required")
	}
	for name, chain := range config.Chains {
		if chain.RPCURL == "" {
			return fmt.Errorf("chains.%s.rpc_url is required", name)
		}
		if chain.TokenMessenger == "" {
			return fmt.Errorf("chains.%s.token_messenger is required", name)
		}
		if chain.USDCContract == "" {
			return fmt.Errorf("chains.%s.usdc_contract is required", name)
		}
	}
	if config.Aptos.NodeURL == "" {
		return fmt.Errorf("aptos.node_url is required")
	}
	if config.Aptos.MessageTransmitter == "" {
		return fmt.Errorf("aptos.message_transmitter is required")
	}
	if config.Attestation.BaseURL == "" {
		return fmt.Errorf("attestation.base_url is required")
	}
	return nil
}

// GetConnectionString returns a PostgreSQL connection string
func (c *DatabaseConfig) GetConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
