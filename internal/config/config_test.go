package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
server:
  host: 0.0.0.0
  port: 8080
jwt:
  secret: 0123456789abcdef0123456789abcdef
`

const validYAML = baseYAML + `
ledger:
  owner_account: "0xowner"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.Store.Type)
	assert.Equal(t, PublisherLog, cfg.Events.Publisher)
	assert.Equal(t, "sale-manager", cfg.Ledger.SaleManagerAccount)
	assert.Equal(t, "rewards-engine", cfg.Ledger.RewardsAccount)
	assert.Equal(t, int64(14), cfg.Ledger.RefundWindowDays)
	assert.Equal(t, 60, cfg.JWT.AccessTokenExpiry)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "0 */5 * * * *", cfg.Scheduler.FinalizeExpiredSales)
	assert.NotEmpty(t, cfg.Scheduler.FlushEvents)
	assert.Equal(t, "0.0.0.0:8080", cfg.GetServerAddress())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LEDGER_REFUND_WINDOW_DAYS", "3")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, int64(3), cfg.Ledger.RefundWindowDays)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Postgres(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML+`
store:
  type: postgres
database:
  host: db
  port: 5432
  user: ledger
  password: secret
  database: carshare
`))
	require.NoError(t, err)
	assert.Equal(t, "postgres://ledger:secret@db:5432/carshare?sslmode=disable", cfg.GetDatabaseConnectionString())
}

func TestLoad_Invalid(t *testing.T) {
	owner := "ledger:\n  owner_account: o\n"
	tests := []struct {
		name  string
		extra string
		want  string
	}{
		{"no owner", "", "owner account is required"},
		{"unknown store", owner + "store:\n  type: sqlite\n", "unsupported store type"},
		{"postgres without host", owner + "store:\n  type: postgres\n", "database host is required"},
		{"redis without addr", owner + "events:\n  publisher: redis\n", "redis address is required"},
		{"same custody accounts", "ledger:\n  owner_account: o\n  sale_manager_account: x\n  rewards_account: x\n", "must differ"},
		{"negative refund window", "ledger:\n  owner_account: o\n  refund_window_days: -1\n", "invalid refund window"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, baseYAML+tt.extra))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestGetSecurityLevel(t *testing.T) {
	assert.Equal(t, SecurityPublic, GetSecurityLevel("GET", "/api/v1/sales/{id}"))
	assert.Equal(t, SecurityAccess, GetSecurityLevel("POST", "/api/v1/sales/{id}/investments"))
	assert.Equal(t, SecurityAccess, GetSecurityLevel("DELETE", "/api/v1/unknown"))
}
