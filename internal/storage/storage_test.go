package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crackledate/internal/config"
	"crackledate/internal/logging"
)

// exerciseStore runs the behaviour every backend must share
func exerciseStore(t *testing.T, s Store, prefix string) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, prefix+"stats")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, prefix+"stats", "one"))
	require.NoError(t, s.Set(ctx, prefix+"stats", "two"))
	v, ok, err := s.Get(ctx, prefix+"stats")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "two", v)

	require.NoError(t, s.SetMany(ctx, map[string]string{
		prefix + "game":  "g",
		prefix + "prefs": "p",
	}))
	keys, err := s.Keys(ctx, prefix)
	require.NoError(t, err)
	assert.Equal(t, []string{prefix + "game", prefix + "prefs", prefix + "stats"}, keys)

	require.NoError(t, s.Delete(ctx, prefix+"game", prefix+"missing"))
	_, ok, err = s.Get(ctx, prefix+"game")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, s.Set(ctx, "", "x"), ErrKeyEmpty)
	assert.ErrorIs(t, s.SetMany(ctx, map[string]string{"": "x"}), ErrKeyEmpty)

	require.NoError(t, s.Delete(ctx, prefix+"stats", prefix+"prefs"))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory(), "crackle-date-")
}

func TestBadgerStoreInMemory(t *testing.T) {
	s, err := OpenBadger(BadgerConfig{InMemory: true})
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s, "crackle-date-")
}

func TestBadgerStorePersists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenBadger(BadgerConfig{Path: dir})
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "crackle-date-stats", "kept"))
	require.NoError(t, s.Close())

	s, err = OpenBadger(BadgerConfig{Path: dir})
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get(ctx, "crackle-date-stats")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "kept", v)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	s, err := NewRedis(context.Background(), RedisConfig{Addr: addr})
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s, "crackle-date-test-")
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()
	log := logging.Discard()

	s, err := Open(ctx, &config.Config{StoreBackend: "memory"}, log)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	_, err = Open(ctx, &config.Config{StoreBackend: "etcd"}, log)
	assert.Error(t, err)

	if testing.Short() {
		return
	}
	s, err = Open(ctx, &config.Config{StoreBackend: "badger", BadgerPath: t.TempDir()}, log)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestOpenSQLiteStore(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{StoreBackend: "sql", DatabaseType: "sqlite", DatabasePath: filepath.Join(t.TempDir(), "crackle.db")}

	s, err := Open(ctx, cfg, logging.Discard())
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "crackle-date-game", `{"version":2}`))
	require.NoError(t, s.Close())

	s, err = Open(ctx, cfg, logging.Discard())
	require.NoError(t, err)
	defer s.Close()
	v, ok, err := s.Get(ctx, "crackle-date-game")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"version":2}`, v)

	_, err = Open(ctx, &config.Config{StoreBackend: "sql", DatabaseType: "oracle"}, logging.Discard())
	assert.ErrorContains(t, err, "unsupported database type")
}
