package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/tonlotto/lottery-indexer/internal/domain"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// APIConfig holds toncenter API configuration
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LotteryConfig holds lottery contract configuration
type LotteryConfig struct {
	ContractAddress    string                    `mapstructure:"contract_address"`
	Variant            domain.ContractVariant    `mapstructure:"variant"`
	PageLimit          int                       `mapstructure:"page_limit"`
	PageDelay          time.Duration             `mapstructure:"page_delay"`
	ReferralPrecedence domain.ReferralPrecedence `mapstructure:"referral_precedence"`
}

// SinkConfig holds record sink configuration
type SinkConfig struct {
	Kind    string `mapstructure:"kind"`     // "csv" or "postgres"
	CSVPath string `mapstructure:"csv_path"` // used when kind is "csv"
}

// StateConfig holds cursor state configuration
type StateConfig struct {
	Kind string `mapstructure:"kind"` // "file" or "postgres"
	Path string `mapstructure:"path"` // used when kind is "file"
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // Maximum number of open connections to the database
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // Maximum amount of time a connection may be reused (e.g., "5m", "1h")
}

// NATSConfig holds NATS JetStream configuration. Publishing is optional: an
// empty URL disables it.
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	SubjectPrefix  string        `mapstructure:"subject_prefix"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
}

// IndexerConfig holds configuration for the indexer service
type IndexerConfig struct {
	BaseConfig `mapstructure:",squash"`
	API        APIConfig      `mapstructure:"api"`
	Lottery    LotteryConfig  `mapstructure:"lottery"`
	Sink       SinkConfig     `mapstructure:"sink"`
	State      StateConfig    `mapstructure:"state"`
	Database   DatabaseConfig `mapstructure:"database"`
	NATS       NATSConfig     `mapstructure:"nats"`
}

// RevalidateConfig holds configuration for the revalidate tool
type RevalidateConfig struct {
	BaseConfig `mapstructure:",squash"`
	Lottery    LotteryConfig `mapstructure:"lottery"`
	Sink       SinkConfig    `mapstructure:"sink"`
	ReportPath string        `mapstructure:"report_path"`
}

// LoadIndexerConfig loads configuration for the indexer service
func LoadIndexerConfig(configFile string, envPath string) (*IndexerConfig, error) {
	v := configureViper("indexer", configFile, envPath)

	// Set defaults
	v.SetDefault("api.base_url", "https://toncenter.com/api/v3")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("lottery.variant", "ton")
	v.SetDefault("lottery.page_limit", 100)
	v.SetDefault("lottery.page_delay", "1s")
	v.SetDefault("lottery.referral_precedence", "jetton")
	v.SetDefault("sink.kind", "csv")
	v.SetDefault("sink.csv_path", "lottery_transactions.csv")
	v.SetDefault("state.kind", "file")
	v.SetDefault("state.path", "indexer_state.json")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "LOTTERY_EVENTS")
	v.SetDefault("nats.subject_prefix", "lottery.tx")
	v.SetDefault("nats.connection_name", "lottery-indexer")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config IndexerConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateLottery(&config.Lottery); err != nil {
		return nil, err
	}
	switch config.Sink.Kind {
	case "csv", "postgres":
	default:
		return nil, fmt.Errorf("invalid sink.kind %q: must be csv or postgres", config.Sink.Kind)
	}
	switch config.State.Kind {
	case "file", "postgres":
	default:
		return nil, fmt.Errorf("invalid state.kind %q: must be file or postgres", config.State.Kind)
	}
	if config.Sink.Kind == "postgres" || config.State.Kind == "postgres" {
		if config.Database.Host == "" {
			return nil, errors.New("database.host is required")
		}
		if config.Database.DBName == "" {
			return nil, errors.New("database.dbname is required")
		}
	}

	return &config, nil
}

// LoadRevalidateConfig loads configuration for the revalidate tool
func LoadRevalidateConfig(configFile string, envPath string) (*RevalidateConfig, error) {
	v := configureViper("revalidate", configFile, envPath)

	// Set defaults
	v.SetDefault("lottery.variant", "ton")
	v.SetDefault("lottery.referral_precedence", "jetton")
	v.SetDefault("sink.kind", "csv")
	v.SetDefault("sink.csv_path", "lottery_transactions.csv")
	v.SetDefault("report_path", "validation_report.json")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config RevalidateConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateLottery(&config.Lottery); err != nil {
		return nil, err
	}

	return &config, nil
}

// validateLottery rejects misconfiguration at startup: a wrong variant or a
// garbage contract address would otherwise silently classify nothing.
func validateLottery(cfg *LotteryConfig) error {
	if cfg.ContractAddress == "" {
		return errors.New("lottery.contract_address is required")
	}
	if _, err := domain.NormalizeAddress(cfg.ContractAddress); err != nil {
		return fmt.Errorf("invalid lottery.contract_address: %w", err)
	}
	if !domain.IsValidVariant(cfg.Variant) {
		return fmt.Errorf("invalid lottery.variant %q: must be ton or jetton", cfg.Variant)
	}
	if cfg.ReferralPrecedence != "" && !domain.IsValidReferralPrecedence(cfg.ReferralPrecedence) {
		return fmt.Errorf("invalid lottery.referral_precedence %q: must be jetton or ton", cfg.ReferralPrecedence)
	}
	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search for config.yaml in multiple locations:
		// 1. Current directory
		v.AddConfigPath(".")
		// 2. Service-specific directory (e.g., cmd/indexer/)
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		// 3. Config directory
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("LOTTERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	commonKeys := []string{
		"debug",
		"sentry_dsn",
		// API
		"api.base_url",
		"api.api_key",
		"api.timeout",
		// Lottery
		"lottery.contract_address",
		"lottery.variant",
		"lottery.page_limit",
		"lottery.page_delay",
		"lottery.referral_precedence",
		// Sink
		"sink.kind",
		"sink.csv_path",
		// State
		"state.kind",
		"state.path",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.subject_prefix",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		// Revalidate specific
		"report_path",
	}

	for _, key := range commonKeys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
