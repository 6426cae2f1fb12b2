package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeydash/internal/config"
)

func TestExtractHostPort(t *testing.T) {
	cases := map[string]string{
		"localhost":             "localhost:9000",
		"localhost:9001":        "localhost:9001",
		"tcp://ch.internal":     "ch.internal:9000",
		"https://ch.example.io": "ch.example.io:9440",
		"http://ch:8123/":       "ch:8123",
	}
	for in, want := range cases {
		assert.Equal(t, want, extractHostPort(in), in)
	}
	assert.Equal(t, "ch.example.io", extractHostname("https://ch.example.io"))
}

func TestNewStoreDBSQLite(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          filepath.Join(t.TempDir(), "cowrie.db"),
		MaxOpenConns: 4,
		MaxIdleConns: 2,
	}}

	db, err := NewStoreDB(cfg)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, 4, db.Stats().MaxOpenConnections)
}

func TestNewStoreDBUnknownDriver(t *testing.T) {
	_, err := NewStoreDB(&config.Config{Database: config.DatabaseConfig{Driver: "oracle", DSN: "x"}})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestLoadCertPool(t *testing.T) {
	_, err := loadCertPool(filepath.Join(t.TempDir(), "missing.crt"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.crt")
	require.NoError(t, os.WriteFile(bad, []byte("not a cert"), 0o600))
	_, err = loadCertPool(bad)
	assert.ErrorContains(t, err, "failed to append CA cert")
}
