package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `session_key: "secret"`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:3003", cfg.Listen)
	assert.Equal(t, 172800, cfg.SessionMaxAge)
	assert.Equal(t, 4, cfg.TimezoneOffsetHours)
	assert.Equal(t, DatabaseBackendJSON, cfg.Database.Backend)
	assert.Equal(t, "./data", cfg.Database.DataDir)
	assert.Equal(t, CacheTypeMemory, cfg.Cache.Type)
	assert.Equal(t, 300, cfg.GetCacheTTL())
	assert.Equal(t, "*/15 * * * *", cfg.Scheduler.SuspensionSweepSchedule)
	assert.False(t, cfg.Email.Enabled)
}

func TestLoad_SanitizesValues(t *testing.T) {
	path := writeConfig(t, `
session_key: "secret"
server_url: " http://localhost:3003/ "
admin_users: ["alice", "  ", " bob "]
ntfy:
  server_url: "https://ntfy.example.com/"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3003", cfg.ServerURL)
	assert.Equal(t, "https://ntfy.example.com", cfg.Ntfy.ServerURL)
	assert.Equal(t, []string{"alice", "bob"}, cfg.AdminUsers)
	assert.True(t, cfg.IsConfiguredAdmin("alice"))
	assert.False(t, cfg.IsConfiguredAdmin("Alice"))
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, `session_key: "secret"`)
	t.Setenv("LIFETRACK_LISTEN", "127.0.0.1:9999")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.Listen)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			SessionKey:          "secret",
			SessionMaxAge:       3600,
			TimezoneOffsetHours: 4,
			Database:            &DatabaseConfig{Backend: DatabaseBackendJSON, DataDir: "./data"},
			Cache:               &CacheConfig{Type: CacheTypeMemory},
			Scheduler: &SchedulerConfig{
				SuspensionSweepSchedule: "*/15 * * * *",
				BackupSchedule:          "0 3 * * *",
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing session key",
			mutate:  func(c *Config) { c.SessionKey = "" },
			wantErr: "session key is required",
		},
		{
			name:    "timezone out of range",
			mutate:  func(c *Config) { c.TimezoneOffsetHours = 20 },
			wantErr: "timezone offset",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Database.Backend = "mongo" },
			wantErr: "unknown database backend",
		},
		{
			name: "sqlite without path",
			mutate: func(c *Config) {
				c.Database.Backend = DatabaseBackendSQLite
				c.Database.Path = ""
			},
			wantErr: "database path is required",
		},
		{
			name: "redis without url",
			mutate: func(c *Config) {
				c.Cache.Type = CacheTypeRedis
			},
			wantErr: "Redis URL is required",
		},
		{
			name:    "email without host",
			mutate:  func(c *Config) { c.Email = &EmailConfig{Enabled: true, FromEmail: "a@b.c"} },
			wantErr: "SMTP host is required",
		},
		{
			name:    "bad cron",
			mutate:  func(c *Config) { c.Scheduler.BackupSchedule = "daily" },
			wantErr: "backup schedule must be a valid cron expression",
		},
		{
			name:   "nil cache falls back to memory",
			mutate: func(c *Config) { c.Cache = nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := validateConfig(c)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, c.Cache)
		})
	}
}
