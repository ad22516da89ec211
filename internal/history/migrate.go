package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"crackledate/internal/models"
	"crackledate/internal/puzzle"
)

// ErrUnsupportedVersion is returned for game records newer than this build
var ErrUnsupportedVersion = errors.New("unsupported game record version")

// errUnrecognized is returned for JSON that matches no known record shape
var errUnrecognized = errors.New("unrecognized game record")

// gameMigrations upgrade a raw record from version N to N+1
var gameMigrations = map[int]func([]byte) ([]byte, error){
	0: migrateV0ToV1,
	1: migrateV1ToV2,
}

// MigrateGame decodes a game record of any known version into the current
// schema, applying one adapter per version in sequence.
//
//	v0  {currentDate, equation, solutions, isValid, completedToday}
//	v1  {lastSelectedDate, history}
//	v2  {version: 2, lastSelectedDate, history}
func MigrateGame(raw []byte) (*models.GameData, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return models.NewGameData(), nil
	}

	version, err := detectGameVersion(raw)
	if err != nil {
		return nil, err
	}
	for v := version; v < models.GameDataVersion; v++ {
		raw, err = gameMigrations[v](raw)
		if err != nil {
			return nil, fmt.Errorf("migrate game record v%d: %w", v, err)
		}
	}

	data := models.NewGameData()
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("decode game record: %w", err)
	}
	data.Normalize()
	return data, nil
}

func detectGameVersion(raw []byte) (int, error) {
	var shape struct {
		Version     *json.RawMessage `json:"version"`
		CurrentDate *string          `json:"currentDate"`
		History     *json.RawMessage `json:"history"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil {
		return 0, fmt.Errorf("decode game record: %w", err)
	}

	switch {
	case shape.Version != nil:
		var v int
		if err := json.Unmarshal(*shape.Version, &v); err != nil {
			return 0, fmt.Errorf("game record version: %w", err)
		}
		if v < 1 || v > models.GameDataVersion {
			return 0, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
		}
		return v, nil
	case shape.History != nil:
		return 1, nil
	case shape.CurrentDate != nil:
		return 0, nil
	default:
		return 0, errUnrecognized
	}
}

type legacySolution struct {
	Equation   string            `json:"equation"`
	Score      int               `json:"score"`
	Timestamp  time.Time         `json:"timestamp"`
	Complexity models.Complexity `json:"complexity,omitempty"`
}

type gameV0 struct {
	CurrentDate    string           `json:"currentDate"`
	Equation       string           `json:"equation"`
	Solutions      []legacySolution `json:"solutions"`
	IsValid        bool             `json:"isValid"`
	CompletedToday bool             `json:"completedToday"`
}

type gameV1 struct {
	LastSelectedDate string                      `json:"lastSelectedDate"`
	History          map[string]*models.DayState `json:"history"`
}

// migrateV0ToV1 turns the single-day record into a one-entry history
func migrateV0ToV1(raw []byte) ([]byte, error) {
	var old gameV0
	if err := json.Unmarshal(raw, &old); err != nil {
		return nil, err
	}

	next := gameV1{History: map[string]*models.DayState{}}
	if old.CurrentDate != "" {
		day := &models.DayState{
			Equation:  old.Equation,
			Solutions: make([]models.Solution, 0, len(old.Solutions)),
			IsValid:   old.IsValid,
			Completed: old.CompletedToday,
		}
		for _, s := range old.Solutions {
			day.Solutions = append(day.Solutions, models.Solution{
				Equation:   s.Equation,
				Score:      s.Score,
				Timestamp:  s.Timestamp,
				Complexity: s.Complexity,
			})
		}
		next.LastSelectedDate = old.CurrentDate
		next.History[old.CurrentDate] = day
	}
	return json.Marshal(next)
}

// migrateV1ToV2 canonicalizes date keys, drops entries whose key is not a
// date and stamps the version
func migrateV1ToV2(raw []byte) ([]byte, error) {
	var old gameV1
	if err := json.Unmarshal(raw, &old); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(old.History))
	for key := range old.History {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	next := models.GameData{Version: 2, History: map[string]*models.DayState{}}
	for _, key := range keys {
		day := old.History[key]
		canonical, err := puzzle.Canonical(key)
		if err != nil || day == nil {
			continue
		}
		if existing, ok := next.History[canonical]; ok {
			existing.Solutions = append(existing.Solutions, day.Solutions...)
			sort.SliceStable(existing.Solutions, func(i, j int) bool {
				return existing.Solutions[i].Timestamp.Before(existing.Solutions[j].Timestamp)
			})
			continue
		}
		next.History[canonical] = day
	}
	if canonical, err := puzzle.Canonical(old.LastSelectedDate); err == nil {
		next.LastSelectedDate = canonical
	}
	return json.Marshal(next)
}
