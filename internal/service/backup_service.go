package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"crackledate/internal/history"
	"crackledate/internal/logging"
	"crackledate/internal/models"
	"crackledate/internal/stats"
)

// BundleVersion is written to every export
const BundleVersion = "2"

// maxBundleSize bounds how much of an import stream is read
const maxBundleSize = 16 << 20

// acceptedVersions lists bundle versions Import understands. Version 1.0
// bundles carry the legacy single-day gameData shape.
var acceptedVersions = map[string]bool{"": true, "1": true, "1.0": true, "2": true}

// BackupData represents a complete export bundle
type BackupData struct {
	Version    string             `json:"version"`
	ExportDate time.Time          `json:"exportDate"`
	Stats      models.GameStats   `json:"stats"`
	GameData   *models.GameData   `json:"gameData"`
	Prefs      models.Preferences `json:"prefs"`
}

// rawBundle defers decoding of each record to the history adapters
type rawBundle struct {
	Version    json.RawMessage `json:"version"`
	ExportDate *time.Time      `json:"exportDate"`
	Stats      json.RawMessage `json:"stats"`
	GameData   json.RawMessage `json:"gameData"`
	Prefs      json.RawMessage `json:"prefs"`
}

// ImportSummary describes a parsed bundle
type ImportSummary struct {
	Version      string     `json:"version"`
	ExportDate   *time.Time `json:"exportDate,omitempty"`
	Days         int        `json:"days"`
	Solutions    int        `json:"solutions"`
	StatsRebuilt bool       `json:"statsRebuilt"`
}

// BackupService handles export and import of every persisted record
type BackupService struct {
	store *history.Store
	now   func() time.Time
	log   *slog.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(store *history.Store, logger *slog.Logger) *BackupService {
	return &BackupService{store: store, now: time.Now, log: logging.OrDiscard(logger)}
}

// Export creates a complete backup to a file
func (s *BackupService) Export(ctx context.Context, outputPath string) error {
	s.log.Info("starting export", "path", outputPath)

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(ctx, file); err != nil {
		return err
	}

	s.log.Info("export completed", "path", outputPath)
	return nil
}

// ExportToWriter writes the bundle to an io.Writer (useful for HTTP responses)
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) error {
	backup, err := s.Bundle(ctx)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	return nil
}

// Bundle reads every record into an export bundle
func (s *BackupService) Bundle(ctx context.Context) (*BackupData, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return &BackupData{
		Version:    BundleVersion,
		ExportDate: s.now().UTC(),
		Stats:      snap.Stats,
		GameData:   snap.Game,
		Prefs:      snap.Prefs,
	}, nil
}

// Import restores every record from a backup file
func (s *BackupService) Import(ctx context.Context, inputPath string) (*ImportSummary, error) {
	s.log.Info("starting import", "path", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(ctx, file)
}

// ImportFromReader restores every record from a bundle stream (for uploads).
// The bundle is fully parsed before anything is written and the three
// records are committed in one batch, so a malformed bundle changes nothing.
func (s *BackupService) ImportFromReader(ctx context.Context, r io.Reader) (*ImportSummary, error) {
	snap, summary, err := s.parse(r)
	if err != nil {
		s.log.Warn("import rejected", "error", err)
		return nil, err
	}
	if err := s.store.Restore(ctx, snap); err != nil {
		return nil, err
	}

	s.log.Info("import completed",
		"version", summary.Version,
		"days", summary.Days,
		"solutions", summary.Solutions,
		"stats_rebuilt", summary.StatsRebuilt,
	)
	return summary, nil
}

// Check parses a bundle without writing anything
func (s *BackupService) Check(r io.Reader) (*ImportSummary, error) {
	_, summary, err := s.parse(r)
	return summary, err
}

func (s *BackupService) parse(r io.Reader) (history.Snapshot, *ImportSummary, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxBundleSize+1))
	if err != nil {
		return history.Snapshot{}, nil, malformed("read failed: %v", err)
	}
	if len(raw) > maxBundleSize {
		return history.Snapshot{}, nil, malformed("bundle exceeds %d bytes", maxBundleSize)
	}

	var b rawBundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return history.Snapshot{}, nil, malformed("decode bundle: %v", err)
	}

	version, err := bundleVersion(b.Version)
	if err != nil {
		return history.Snapshot{}, nil, err
	}
	if isEmpty(b.GameData) && isEmpty(b.Stats) {
		return history.Snapshot{}, nil, malformed("bundle has neither gameData nor stats")
	}

	game, err := history.MigrateGame(b.GameData)
	if err != nil {
		return history.Snapshot{}, nil, malformed("gameData: %v", err)
	}
	prefs, err := history.DecodePreferences(b.Prefs)
	if err != nil {
		return history.Snapshot{}, nil, malformed("prefs: %v", err)
	}

	summary := &ImportSummary{Version: version, ExportDate: b.ExportDate, Days: len(game.History)}
	for _, day := range game.History {
		summary.Solutions += len(day.Solutions)
	}

	var st models.GameStats
	if isEmpty(b.Stats) {
		st = stats.Rebuild(game)
		summary.StatsRebuilt = true
	} else if st, err = history.DecodeStats(b.Stats); err != nil {
		return history.Snapshot{}, nil, malformed("stats: %v", err)
	}

	return history.Snapshot{Stats: st, Game: game, Prefs: prefs}, summary, nil
}

// bundleVersion accepts the version as a string or a number
func bundleVersion(raw json.RawMessage) (string, error) {
	if isEmpty(raw) {
		return "", nil
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", malformed("version must be a string or number")
		}
		v = n.String()
	}
	if !acceptedVersions[v] {
		return "", malformed("unsupported bundle version %q", v)
	}
	return v, nil
}

func isEmpty(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func malformed(format string, args ...any) error {
	return models.NewGameError(models.ErrImportMalformed, "Invalid backup: "+fmt.Sprintf(format, args...))
}
