package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	PublisherLog   = "log"
	PublisherRedis = "redis"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Events    EventsConfig    `yaml:"events"`
	JWT       JWTConfig       `yaml:"jwt"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Log       LogConfig       `yaml:"log"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StoreConfig selects where ledger state lives.
type StoreConfig struct {
	Type string `yaml:"type"` // "memory" or "postgres"
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	Database    string `yaml:"database"`
	SSLMode     string `yaml:"ssl_mode"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

// RedisConfig contains the event fan-out connection.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// EventsConfig selects the publisher used by the outbox relay.
type EventsConfig struct {
	Publisher string `yaml:"publisher"` // "log" or "redis"
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
	Issuer            string `yaml:"issuer"`
}

// LedgerConfig names the accounts the service acts as.
type LedgerConfig struct {
	OwnerAccount       string `yaml:"owner_account"`
	SaleManagerAccount string `yaml:"sale_manager_account"`
	RewardsAccount     string `yaml:"rewards_account"`
	RefundWindowDays   int64  `yaml:"refund_window_days"`
	AutoLink           bool   `yaml:"auto_link"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	FinalizeExpiredSales  string `yaml:"finalize_expired_sales"`
	ReportRefundWindows   string `yaml:"report_refund_windows"`
	ReportUnallocatedPool string `yaml:"report_unallocated_pool"`
	CheckLockedTotals     string `yaml:"check_locked_totals"`
	FlushEvents           string `yaml:"flush_events"`
}

// Load reads configuration from a YAML file. A .env file in the working directory
// is applied to the environment first when present.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies environment overrides and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Store and events
	if val := os.Getenv("STORE_TYPE"); val != "" {
		c.Store.Type = val
	}
	if val := os.Getenv("EVENTS_PUBLISHER"); val != "" {
		c.Events.Publisher = val
	}

	// Redis
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}
	if val := os.Getenv("REDIS_CHANNEL"); val != "" {
		c.Redis.Channel = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Ledger
	if val := os.Getenv("LEDGER_OWNER_ACCOUNT"); val != "" {
		c.Ledger.OwnerAccount = val
	}
	if val := os.Getenv("LEDGER_REFUND_WINDOW_DAYS"); val != "" {
		fmt.Sscanf(val, "%d", &c.Ledger.RefundWindowDays)
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Store validation
	if c.Store.Type == "" {
		c.Store.Type = StoreMemory
	}
	switch c.Store.Type {
	case StoreMemory:
	case StorePostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	default:
		return fmt.Errorf("unsupported store type: %q", c.Store.Type)
	}

	// Events validation
	if c.Events.Publisher == "" {
		c.Events.Publisher = PublisherLog
	}
	switch c.Events.Publisher {
	case PublisherLog:
	case PublisherRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required for the redis publisher")
		}
		if c.Redis.Channel == "" {
			c.Redis.Channel = "ledger-events"
		}
	default:
		return fmt.Errorf("unsupported events publisher: %q", c.Events.Publisher)
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "carshare-ledger"
	}

	// Ledger validation
	if strings.TrimSpace(c.Ledger.OwnerAccount) == "" {
		return fmt.Errorf("ledger owner account is required")
	}
	if c.Ledger.SaleManagerAccount == "" {
		c.Ledger.SaleManagerAccount = "sale-manager"
	}
	if c.Ledger.RewardsAccount == "" {
		c.Ledger.RewardsAccount = "rewards-engine"
	}
	if c.Ledger.SaleManagerAccount == c.Ledger.RewardsAccount {
		return fmt.Errorf("sale manager and rewards accounts must differ")
	}
	if c.Ledger.RefundWindowDays < 0 {
		return fmt.Errorf("invalid refund window: %d days", c.Ledger.RefundWindowDays)
	}
	if c.Ledger.RefundWindowDays == 0 {
		c.Ledger.RefundWindowDays = 14
	}

	// Scheduler defaults
	if c.Scheduler.FinalizeExpiredSales == "" {
		c.Scheduler.FinalizeExpiredSales = "0 */5 * * * *" // every 5 minutes
	}
	if c.Scheduler.ReportRefundWindows == "" {
		c.Scheduler.ReportRefundWindows = "0 0 3 * * *" // 3 AM UTC
	}
	if c.Scheduler.ReportUnallocatedPool == "" {
		c.Scheduler.ReportUnallocatedPool = "0 0 4 * * *" // 4 AM UTC
	}
	if c.Scheduler.CheckLockedTotals == "" {
		c.Scheduler.CheckLockedTotals = "0 30 4 * * *" // 4:30 AM UTC
	}
	if c.Scheduler.FlushEvents == "" {
		c.Scheduler.FlushEvents = "*/30 * * * * *" // every 30 seconds
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
