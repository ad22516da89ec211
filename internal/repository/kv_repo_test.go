package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crackledate/internal/database"
)

func newTestRepo(t *testing.T) *KVRepository {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping sqlite test in short mode")
	}
	db, err := database.Initialize(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	_, err = db.RunMigrations(context.Background())
	require.NoError(t, err)

	repo := NewKVRepository(db)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestKVRepositoryRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, ok, err := repo.Get(ctx, "crackle-date-stats")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Set(ctx, "crackle-date-stats", `{"currentStreak":1}`))
	require.NoError(t, repo.Set(ctx, "crackle-date-stats", `{"currentStreak":2}`))

	v, ok, err := repo.Get(ctx, "crackle-date-stats")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"currentStreak":2}`, v)
}

func TestKVRepositorySetManyAndDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SetMany(ctx, map[string]string{
		"crackle-date-stats": "s",
		"crackle-date-game":  "g",
		"crackle-date-prefs": "p",
		"other-key":          "o",
	}))

	keys, err := repo.Keys(ctx, "crackle-date-")
	require.NoError(t, err)
	assert.Equal(t, []string{"crackle-date-game", "crackle-date-prefs", "crackle-date-stats"}, keys)

	require.NoError(t, repo.Delete(ctx, "crackle-date-stats", "crackle-date-game", "missing"))

	keys, err = repo.Keys(ctx, "crackle-date-")
	require.NoError(t, err)
	assert.Equal(t, []string{"crackle-date-prefs"}, keys)
}
