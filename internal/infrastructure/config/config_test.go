package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "ledger-coordinator", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "marketplace", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)

		assert.Equal(t, "Test SDF Network ; September 2015", cfg.Ledger.NetworkPassphrase)
		assert.Equal(t, int64(1000000), cfg.Ledger.BaseFee)
		assert.Equal(t, 300*time.Second, cfg.Ledger.TxTimeout)
		assert.Equal(t, time.Second, cfg.Ledger.PollInterval)
		assert.Equal(t, 30, cfg.Ledger.PollAttempts)
		assert.Equal(t, uint32(5256000), cfg.Ledger.ApprovalExpirationLedger)

		assert.Equal(t, 3, cfg.Scheduler.CleanupHour)
		assert.Equal(t, 0, cfg.Scheduler.CleanupMinute)
		assert.Equal(t, 120, cfg.Scheduler.PendingMaxAttempts)
		assert.Equal(t, 30*time.Second, cfg.Scheduler.PendingInterval)
		assert.Equal(t, 365, cfg.Retention.TransactionDays)
		assert.Equal(t, "admin", cfg.JWT.AdminRole)
	})

	t.Run("loads values from environment variables with LEDGER prefix", func(t *testing.T) {
		t.Setenv("LEDGER_APP_PORT", "9000")
		t.Setenv("LEDGER_DATABASE_HOST", "testdb.local")
		t.Setenv("LEDGER_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("LEDGER_LEDGER_RPC_URL", "http://localhost:8000/soroban/rpc")
		t.Setenv("LEDGER_LEDGER_POLL_ATTEMPTS", "5")
		t.Setenv("LEDGER_LEDGER_MARKETPLACE_CONTRACT_ID", "CMARKET")
		t.Setenv("LEDGER_SCHEDULER_PENDING_INTERVAL", "10s")
		t.Setenv("LEDGER_RETENTION_TRANSACTION_DAYS", "30")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, "http://localhost:8000/soroban/rpc", cfg.Ledger.RPCURL)
		assert.Equal(t, 5, cfg.Ledger.PollAttempts)
		assert.Equal(t, "CMARKET", cfg.Ledger.MarketplaceContractID)
		assert.Equal(t, 10*time.Second, cfg.Scheduler.PendingInterval)
		assert.Equal(t, 30, cfg.Retention.TransactionDays)
	})

	t.Run("explicit midnight cleanup hour is kept", func(t *testing.T) {
		t.Setenv("LEDGER_SCHEDULER_CLEANUP_HOUR", "0")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 0, cfg.Scheduler.CleanupHour)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		t.Setenv("LEDGER_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("LEDGER_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects an out of range cleanup hour", func(t *testing.T) {
		t.Setenv("LEDGER_SCHEDULER_CLEANUP_HOUR", "24")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cleanup_hour")
	})
}

func TestValidate_Production(t *testing.T) {
	base := func() *Config {
		v := viper.New()
		v.Set("app.env", "production")
		v.Set("jwt.secret", "0123456789abcdef0123456789abcdef")
		v.Set("database.password", "secret")
		v.Set("database.sslmode", "require")
		v.Set("ledger.marketplace_contract_id", "CMARKET")
		v.Set("ledger.escrow_contract_id", "CESCROW")
		v.Set("ledger.usdc_contract_id", "CUSDC")
		cfg, err := fromViper(v)
		require.NoError(t, err)
		return cfg
	}

	t.Run("valid production config passes", func(t *testing.T) {
		assert.NoError(t, base().validate())
	})

	t.Run("short jwt secret fails", func(t *testing.T) {
		cfg := base()
		cfg.JWT.Secret = "short"
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret")
	})

	t.Run("missing contract ids fail", func(t *testing.T) {
		cfg := base()
		cfg.Ledger.EscrowContractID = ""
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "contract ids")
	})

	t.Run("swagger is refused", func(t *testing.T) {
		cfg := base()
		cfg.Swagger.Enabled = true
		assert.Error(t, cfg.validate())
	})
}

func TestValidate_SamplingRatio(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Telemetry.SamplingRatio = 1.5
	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sampling_ratio")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "app",
		Password: "p@ss word",
		DBName:   "marketplace",
		SSLMode:  "disable",
	}
	assert.Equal(t, "postgres://app:p%40ss%20word@db:5432/marketplace?sslmode=disable", d.DSN())
}

func TestRedisConfig_Addr(t *testing.T) {
	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: 6380}.Addr())
}
