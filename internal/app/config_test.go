package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, 100, cfg.Server.RateLimit.Requests)
	require.Equal(t, time.Minute, cfg.Server.RateLimit.Window)

	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "./data/fieldsight.sqlite", cfg.Database.Path)

	require.Equal(t, 24*time.Hour, cfg.Collab.HistoryIdleTTL)
	require.Equal(t, "@hourly", cfg.Collab.PruneSchedule)

	require.Equal(t, 90, cfg.Maintenance.NotificationRetentionDays)
	require.Equal(t, 180, cfg.Maintenance.ActivityRetentionDays)
	require.Equal(t, "@daily", cfg.Maintenance.NotificationSchedule)
	require.Equal(t, "@daily", cfg.Maintenance.ActivitySchedule)

	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
	require.True(t, cfg.Monitoring.Health.Enabled)

	require.Equal(t, "fieldsight", cfg.Auth.JWT.Issuer)
	require.Equal(t, 12*time.Hour, cfg.Auth.JWT.TTL)

	require.False(t, cfg.Email.SMTP.Enabled)
	require.Equal(t, 10*time.Second, cfg.Email.SMTP.Timeout)
}

func TestLoadConfigReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	contents := []byte(`
server:
  port: 9100
  log_level: debug
collab:
  history_idle_ttl: 90m
  prune_schedule: "@every 10m"
maintenance:
  notification_retention_days: 14
auth:
  jwt:
    secret: file-secret
    session_ttl: 2h
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), contents, 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, 90*time.Minute, cfg.Collab.HistoryIdleTTL)
	require.Equal(t, "@every 10m", cfg.Collab.PruneSchedule)
	require.Equal(t, 14, cfg.Maintenance.NotificationRetentionDays)
	require.Equal(t, "file-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, 2*time.Hour, cfg.Auth.JWT.TTL)

	// Unset keys keep their defaults.
	require.Equal(t, 180, cfg.Maintenance.ActivityRetentionDays)
}

func TestLoadConfigEnvironmentOverride(t *testing.T) {
	t.Setenv("FIELDSIGHT_SERVER_PORT", "9550")
	t.Setenv("FIELDSIGHT_DATABASE_DRIVER", "postgres")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 9550, cfg.Server.Port)
	require.Equal(t, "postgres", cfg.Database.Driver)
}
