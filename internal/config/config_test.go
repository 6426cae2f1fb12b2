package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp runs the test from an empty directory so no stray .env is loaded.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, ":8080", cfg.GetServerAddress())
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 50, cfg.Dashboard.RollupLimit)
	assert.Equal(t, 6, cfg.Dashboard.TrendHours)
	assert.Equal(t, 2, cfg.Dashboard.DetailTimeUnits)
	assert.Equal(t, 15*time.Second, cfg.Redis.CacheTTL)
	assert.Empty(t, cfg.Redis.URL)
	assert.Equal(t, time.UTC, cfg.StoreLocation())
	assert.Equal(t, time.UTC, cfg.DisplayLocation())
}

func TestLoadConfigFromEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", "/var/lib/cowrie/cowrie.db")
	t.Setenv("ROLLUP_LIMIT", "25")
	t.Setenv("TREND_HOURS", "12")
	t.Setenv("CACHE_TTL", "1m")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, ":9090", cfg.GetServerAddress())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/var/lib/cowrie/cowrie.db", cfg.Database.DSN)
	assert.Equal(t, 25, cfg.Dashboard.RollupLimit)
	assert.Equal(t, 12, cfg.Dashboard.TrendHours)
	assert.Equal(t, time.Minute, cfg.Redis.CacheTTL)
}

func TestLoadConfigReadsDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DB_DRIVER=postgres\nDB_DSN=postgres://cowrie@db/cowrie\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("DB_DRIVER")
		os.Unsetenv("DB_DSN")
	})

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://cowrie@db/cowrie", cfg.Database.DSN)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"driver":           {"DB_DRIVER": "oracle"},
		"store timezone":   {"STORE_TIMEZONE": "Mars/Olympus"},
		"display timezone": {"DISPLAY_TIMEZONE": "Nowhere/City"},
		"rollup limit":     {"ROLLUP_LIMIT": "0"},
		"trend hours":      {"TREND_HOURS": "1000"},
		"time units":       {"DETAIL_TIME_UNITS": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			chdirTemp(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestFixedOffsetTimezone(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{StoreTimezone: "Etc/GMT-2"}, Dashboard: DashboardConfig{DisplayTimezone: "UTC"}}
	_, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, cfg.StoreLocation()).Zone()
	assert.Equal(t, 2*60*60, offset)
}
