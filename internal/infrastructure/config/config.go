package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Ledger    LedgerConfig
	Scheduler SchedulerConfig
	Retention RetentionConfig
	Swagger   SwaggerConfig
	Telemetry TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	LogLevel        string
	SlowThreshold   time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds the settings used to verify admin bearer tokens
type JWTConfig struct {
	Secret    string
	Issuer    string
	AdminRole string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	IdempotencyTTL    time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// LedgerConfig holds the Soroban RPC endpoint and the contract addresses
type LedgerConfig struct {
	RPCURL                   string
	NetworkPassphrase        string
	BaseFee                  int64
	TxTimeout                time.Duration
	PollInterval             time.Duration
	PollAttempts             int
	RequestTimeout           time.Duration
	RateLimit                float64 // requests per second towards the RPC node, 0 = unlimited
	RateBurst                int
	MarketplaceContractID    string
	EscrowContractID         string
	USDCContractID           string
	ApprovalExpirationLedger uint32
}

// SchedulerConfig holds background job configuration
type SchedulerConfig struct {
	Enabled            bool
	MaxConcurrentJobs  int
	JobTimeout         time.Duration
	RetryAttempts      int
	RetryDelay         time.Duration
	CleanupHour        int
	CleanupMinute      int
	PendingInterval    time.Duration
	PendingMaxAttempts int
	PendingBatchSize   int
	ReceiptInterval    time.Duration
	ExpiryInterval     time.Duration
}

// RetentionConfig holds mirror retention settings
type RetentionConfig struct {
	TransactionDays int
}

// SwaggerConfig holds Swagger documentation endpoint configuration
type SwaggerConfig struct {
	Enabled     bool
	RequireAuth bool     // require an admin token
	AllowedIPs  []string // IPs or CIDRs; empty allows all
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsEnabled    bool
	MetricsInterval   time.Duration
	DBTraceEnabled    bool // Enable database query tracing (otelgorm)
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with LEDGER_ prefix (e.g., LEDGER_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	return fromViper(v)
}

// fromViper builds, defaults and validates a Config from a prepared viper instance
func fromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			LogLevel:        v.GetString("database.log_level"),
			SlowThreshold:   v.GetDuration("database.slow_threshold"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:    v.GetString("jwt.secret"),
			Issuer:    v.GetString("jwt.issuer"),
			AdminRole: v.GetString("jwt.admin_role"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			ShutdownTimeout:   v.GetDuration("http.shutdown_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			IdempotencyTTL:    v.GetDuration("http.idempotency_ttl"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Ledger: LedgerConfig{
			RPCURL:                   v.GetString("ledger.rpc_url"),
			NetworkPassphrase:        v.GetString("ledger.network_passphrase"),
			BaseFee:                  v.GetInt64("ledger.base_fee"),
			TxTimeout:                v.GetDuration("ledger.tx_timeout"),
			PollInterval:             v.GetDuration("ledger.poll_interval"),
			PollAttempts:             v.GetInt("ledger.poll_attempts"),
			RequestTimeout:           v.GetDuration("ledger.request_timeout"),
			RateLimit:                v.GetFloat64("ledger.rate_limit"),
			RateBurst:                v.GetInt("ledger.rate_burst"),
			MarketplaceContractID:    v.GetString("ledger.marketplace_contract_id"),
			EscrowContractID:         v.GetString("ledger.escrow_contract_id"),
			USDCContractID:           v.GetString("ledger.usdc_contract_id"),
			ApprovalExpirationLedger: v.GetUint32("ledger.approval_expiration_ledger"),
		},
		Scheduler: SchedulerConfig{
			Enabled:            v.GetBool("scheduler.enabled"),
			MaxConcurrentJobs:  v.GetInt("scheduler.max_concurrent_jobs"),
			JobTimeout:         v.GetDuration("scheduler.job_timeout"),
			RetryAttempts:      v.GetInt("scheduler.retry_attempts"),
			RetryDelay:         v.GetDuration("scheduler.retry_delay"),
			CleanupHour:        v.GetInt("scheduler.cleanup_hour"),
			CleanupMinute:      v.GetInt("scheduler.cleanup_minute"),
			PendingInterval:    v.GetDuration("scheduler.pending_interval"),
			PendingMaxAttempts: v.GetInt("scheduler.pending_max_attempts"),
			PendingBatchSize:   v.GetInt("scheduler.pending_batch_size"),
			ReceiptInterval:    v.GetDuration("scheduler.receipt_interval"),
			ExpiryInterval:     v.GetDuration("scheduler.expiry_interval"),
		},
		Retention: RetentionConfig{
			TransactionDays: v.GetInt("retention.transaction_days"),
		},
		Swagger: SwaggerConfig{
			Enabled:     v.GetBool("swagger.enabled"),
			RequireAuth: v.GetBool("swagger.require_auth"),
			AllowedIPs:  v.GetStringSlice("swagger.allowed_ips"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
		},
	}

	// cleanup_hour = 0 is a legitimate midnight run, so only an unset key gets the default
	if !v.IsSet("scheduler.cleanup_hour") {
		cfg.Scheduler.CleanupHour = 3
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "ledger-coordinator"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "marketplace"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}
	if cfg.Database.SlowThreshold == 0 {
		cfg.Database.SlowThreshold = 200 * time.Millisecond
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "ledger-coordinator"
	}
	if cfg.JWT.AdminRole == "" {
		cfg.JWT.AdminRole = "admin"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	// A buy can spend up to PollAttempts * PollInterval waiting for confirmation
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 90 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.HTTP.IdempotencyTTL == 0 {
		cfg.HTTP.IdempotencyTTL = 24 * time.Hour
	}
	// NOTE: CORS origins get no "*" fallback. An empty list allows no cross-origin requests.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID", "Idempotency-Key"}
	}
	if cfg.Ledger.RPCURL == "" {
		cfg.Ledger.RPCURL = "https://soroban-testnet.stellar.org"
	}
	if cfg.Ledger.NetworkPassphrase == "" {
		cfg.Ledger.NetworkPassphrase = "Test SDF Network ; September 2015"
	}
	if cfg.Ledger.BaseFee == 0 {
		cfg.Ledger.BaseFee = 1000000
	}
	if cfg.Ledger.TxTimeout == 0 {
		cfg.Ledger.TxTimeout = 300 * time.Second
	}
	if cfg.Ledger.PollInterval == 0 {
		cfg.Ledger.PollInterval = time.Second
	}
	if cfg.Ledger.PollAttempts == 0 {
		cfg.Ledger.PollAttempts = 30
	}
	if cfg.Ledger.RequestTimeout == 0 {
		cfg.Ledger.RequestTimeout = 15 * time.Second
	}
	if cfg.Ledger.RateBurst == 0 {
		cfg.Ledger.RateBurst = 10
	}
	if cfg.Ledger.ApprovalExpirationLedger == 0 {
		cfg.Ledger.ApprovalExpirationLedger = 5256000
	}
	if cfg.Scheduler.MaxConcurrentJobs == 0 {
		cfg.Scheduler.MaxConcurrentJobs = 3
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 10 * time.Minute
	}
	if cfg.Scheduler.RetryAttempts == 0 {
		cfg.Scheduler.RetryAttempts = 3
	}
	if cfg.Scheduler.RetryDelay == 0 {
		cfg.Scheduler.RetryDelay = time.Minute
	}
	if cfg.Scheduler.PendingInterval == 0 {
		cfg.Scheduler.PendingInterval = 30 * time.Second
	}
	if cfg.Scheduler.PendingMaxAttempts == 0 {
		cfg.Scheduler.PendingMaxAttempts = 120
	}
	if cfg.Scheduler.PendingBatchSize == 0 {
		cfg.Scheduler.PendingBatchSize = 50
	}
	if cfg.Scheduler.ReceiptInterval == 0 {
		cfg.Scheduler.ReceiptInterval = 5 * time.Minute
	}
	if cfg.Scheduler.ExpiryInterval == 0 {
		cfg.Scheduler.ExpiryInterval = 10 * time.Minute
	}
	if cfg.Retention.TransactionDays == 0 {
		cfg.Retention.TransactionDays = 365
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Ledger.PollAttempts < 1 {
		return fmt.Errorf("ledger.poll_attempts must be at least 1")
	}
	if c.Ledger.RateLimit < 0 {
		return fmt.Errorf("ledger.rate_limit cannot be negative")
	}
	if c.Scheduler.CleanupHour < 0 || c.Scheduler.CleanupHour > 23 {
		return fmt.Errorf("scheduler.cleanup_hour must be between 0 and 23, got %d", c.Scheduler.CleanupHour)
	}
	if c.Scheduler.CleanupMinute < 0 || c.Scheduler.CleanupMinute > 59 {
		return fmt.Errorf("scheduler.cleanup_minute must be between 0 and 59, got %d", c.Scheduler.CleanupMinute)
	}
	if c.Retention.TransactionDays < 1 {
		return fmt.Errorf("retention.transaction_days must be positive")
	}

	if c.App.Env == "production" {
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Ledger.MarketplaceContractID == "" || c.Ledger.EscrowContractID == "" || c.Ledger.USDCContractID == "" {
			return fmt.Errorf("ledger contract ids are required in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Swagger.Enabled {
			return fmt.Errorf("swagger must be disabled in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
