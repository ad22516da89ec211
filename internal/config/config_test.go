package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.DatabaseType)
	assert.Equal(t, "sql", cfg.StoreBackend)
	assert.Equal(t, "crackle-date", cfg.StorePrefix)
	assert.Equal(t, 100*time.Millisecond, cfg.SaveDebounce)
	assert.Equal(t, 3, cfg.MaxHintsPerDay)
	assert.Equal(t, "America/New_York", cfg.Location().String())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STORE_BACKEND", "badger")
	t.Setenv("BADGER_PATH", "/tmp/crackle")
	t.Setenv("SAVE_DEBOUNCE", "250ms")
	t.Setenv("MAX_HINTS_PER_DAY", "5")
	t.Setenv("PUZZLE_TIMEZONE", "UTC")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,127.0.0.1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "badger", cfg.StoreBackend)
	assert.Equal(t, "/tmp/crackle", cfg.BadgerPath)
	assert.Equal(t, 250*time.Millisecond, cfg.SaveDebounce)
	assert.Equal(t, 5, cfg.MaxHintsPerDay)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.TrustedProxies)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown backend", key: "STORE_BACKEND", value: "etcd"},
		{name: "unknown database", key: "DATABASE_TYPE", value: "oracle"},
		{name: "negative hints", key: "MAX_HINTS_PER_DAY", value: "-1"},
		{name: "bad time zone", key: "PUZZLE_TIMEZONE", value: "Mars/Olympus_Mons"},
		{name: "bad log level", key: "LOG_LEVEL", value: "chatty"},
		{name: "bad trusted proxy", key: "TRUSTED_PROXIES", value: "10.0.0.0/8,proxy.local"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadRequiresURLForServerDatabases(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "postgres")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://localhost/crackle")
	_, err = Load()
	assert.NoError(t, err)
}
