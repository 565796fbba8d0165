package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10, cfg.Moderation.ReportTTLDays)
	assert.Equal(t, 10*24*time.Hour, cfg.ReportTTL())
	assert.Equal(t, time.Hour, cfg.SweepInterval())
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	raw := `
server:
  addr: ":9090"
mysql:
  dsn: "file-dsn"
moderation:
  report_ttl_days: 3
  sweep_interval_sec: 60
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	t.Setenv("MYSQL_DSN", "env-dsn")
	t.Setenv("REPORT_TTL_DAYS", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	// 环境变量优先于文件
	assert.Equal(t, "env-dsn", cfg.MySQL.DSN)
	assert.Equal(t, 5*24*time.Hour, cfg.ReportTTL())
	assert.Equal(t, time.Minute, cfg.SweepInterval())
}

func TestLoadSanitizesBadValues(t *testing.T) {
	raw := `
moderation:
  report_ttl_days: -1
  sweep_interval_sec: 0
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Moderation.ReportTTLDays)
	assert.Equal(t, 3600, cfg.Moderation.SweepIntervalSec)
}
