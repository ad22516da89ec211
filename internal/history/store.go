// Package history persists day-keyed game records, stats and preferences
// through a storage.Store.
//
// Storage failures never reach the caller of the Load and Save methods:
// they are logged, loads fall back to defaults and saves report false.
// Snapshot and Restore return errors for callers that must know, such as
// backup import.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"crackledate/internal/logging"
	"crackledate/internal/models"
	"crackledate/internal/stats"
	"crackledate/internal/storage"
)

// DefaultPrefix is the key prefix used when none is configured
const DefaultPrefix = "crackle-date"

// Keys names the three persisted records
type Keys struct {
	Prefix string
	Stats  string
	Game   string
	Prefs  string
}

// KeysFor returns the record keys under prefix
func KeysFor(prefix string) Keys {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Keys{
		Prefix: prefix + "-",
		Stats:  prefix + "-stats",
		Game:   prefix + "-game",
		Prefs:  prefix + "-prefs",
	}
}

// Snapshot is every persisted record, decoded and normalized
type Snapshot struct {
	Stats models.GameStats
	Game  *models.GameData
	Prefs models.Preferences
}

// Store reads and writes game records
type Store struct {
	kv   storage.Store
	keys Keys
	log  *slog.Logger
}

// NewStore returns a Store over kv using keys under prefix
func NewStore(kv storage.Store, prefix string, logger *slog.Logger) *Store {
	return &Store{kv: kv, keys: KeysFor(prefix), log: logging.OrDiscard(logger)}
}

// Keys returns the record keys in use
func (s *Store) Keys() Keys { return s.keys }

// LoadGame returns the history record, or an empty one when it is missing,
// unreadable or corrupt
func (s *Store) LoadGame(ctx context.Context) *models.GameData {
	data, err := s.readGame(ctx)
	if err != nil {
		s.log.Warn("failed to load game history, using defaults", "key", s.keys.Game, "error", err)
		return models.NewGameData()
	}
	return data
}

// SaveGame writes the whole history record
func (s *Store) SaveGame(ctx context.Context, data *models.GameData) bool {
	return s.save(ctx, s.keys.Game, data)
}

// LoadStats returns stored stats with derived fields recomputed
func (s *Store) LoadStats(ctx context.Context) models.GameStats {
	st, err := s.readStats(ctx)
	if err != nil {
		s.log.Warn("failed to load stats, using defaults", "key", s.keys.Stats, "error", err)
		return models.NewGameStats()
	}
	return st
}

// SaveStats writes stats after recomputing derived fields
func (s *Store) SaveStats(ctx context.Context, st models.GameStats) bool {
	return s.save(ctx, s.keys.Stats, stats.Recalculate(st))
}

// LoadPreferences returns stored preferences, or first-run defaults
func (s *Store) LoadPreferences(ctx context.Context) models.Preferences {
	p, err := s.readPrefs(ctx)
	if err != nil {
		s.log.Warn("failed to load preferences, using defaults", "key", s.keys.Prefs, "error", err)
		return models.DefaultPreferences()
	}
	return p
}

// SavePreferences writes preferences with the legacy darkMode flag in sync
func (s *Store) SavePreferences(ctx context.Context, p models.Preferences) bool {
	p.Normalize()
	return s.save(ctx, s.keys.Prefs, p)
}

// Clear removes stats and history. Preferences survive a reset.
func (s *Store) Clear(ctx context.Context) bool {
	if err := s.kv.Delete(ctx, s.keys.Stats, s.keys.Game); err != nil {
		s.log.Warn("failed to clear game data", "error", err)
		return false
	}
	return true
}

// Records lists the keys stored under the prefix, sorted
func (s *Store) Records(ctx context.Context) ([]string, error) {
	keys, err := s.kv.Keys(ctx, s.keys.Prefix)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return keys, nil
}

// Snapshot reads every record. Unlike the Load methods it reports storage
// and decoding failures.
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	st, err := s.readStats(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	game, err := s.readGame(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	prefs, err := s.readPrefs(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Stats: st, Game: game, Prefs: prefs}, nil
}

// Restore writes all three records in one atomic batch
func (s *Store) Restore(ctx context.Context, snap Snapshot) error {
	game := snap.Game
	if game == nil {
		game = models.NewGameData()
	}
	prefs := snap.Prefs
	prefs.Normalize()

	values := make(map[string]string, 3)
	for key, v := range map[string]any{
		s.keys.Stats: stats.Recalculate(snap.Stats),
		s.keys.Game:  game,
		s.keys.Prefs: prefs,
	} {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		values[key] = string(b)
	}
	if err := s.kv.SetMany(ctx, values); err != nil {
		return models.NewGameError(models.ErrStorageUnavailable, fmt.Sprintf("restore failed: %v", err))
	}
	return nil
}

func (s *Store) save(ctx context.Context, key string, v any) bool {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Warn("failed to encode record", "key", key, "error", err)
		return false
	}
	if err := s.kv.Set(ctx, key, string(b)); err != nil {
		s.log.Warn("failed to save record", "key", key, "error", err)
		return false
	}
	return true
}

// read returns the raw value for key; missing keys read as nil
func (s *Store) read(ctx context.Context, key string) ([]byte, error) {
	v, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, models.NewGameError(models.ErrStorageUnavailable, fmt.Sprintf("read %s: %v", key, err))
	}
	if !ok {
		return nil, nil
	}
	return []byte(v), nil
}

func (s *Store) readGame(ctx context.Context) (*models.GameData, error) {
	raw, err := s.read(ctx, s.keys.Game)
	if err != nil {
		return nil, err
	}
	return MigrateGame(raw)
}

func (s *Store) readStats(ctx context.Context) (models.GameStats, error) {
	raw, err := s.read(ctx, s.keys.Stats)
	if err != nil {
		return models.GameStats{}, err
	}
	return DecodeStats(raw)
}

func (s *Store) readPrefs(ctx context.Context) (models.Preferences, error) {
	raw, err := s.read(ctx, s.keys.Prefs)
	if err != nil {
		return models.Preferences{}, err
	}
	return DecodePreferences(raw)
}

// DecodeStats parses a stats record and recomputes derived fields. Empty
// input yields zeroed stats.
func DecodeStats(raw []byte) (models.GameStats, error) {
	st := models.NewGameStats()
	if len(raw) == 0 || string(raw) == "null" {
		return st, nil
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		return models.GameStats{}, fmt.Errorf("decode stats: %w", err)
	}
	return stats.Recalculate(st), nil
}

// DecodePreferences parses a preferences record, deriving themeMode from
// the legacy darkMode flag when it is missing. Empty input yields defaults.
func DecodePreferences(raw []byte) (models.Preferences, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return models.DefaultPreferences(), nil
	}
	p := models.DefaultPreferences()
	p.ThemeMode = ""
	if err := json.Unmarshal(raw, &p); err != nil {
		return models.Preferences{}, fmt.Errorf("decode preferences: %w", err)
	}
	p.Normalize()
	return p, nil
}
