package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"crackledate/internal/achievements"
	"crackledate/internal/config"
	"crackledate/internal/equation"
	"crackledate/internal/history"
	"crackledate/internal/logging"
	"crackledate/internal/models"
	"crackledate/internal/puzzle"
	"crackledate/internal/scoring"
	"crackledate/internal/security"
	"crackledate/internal/stats"
)

// DefaultMaxHints is the per-day hint allowance when none is configured
const DefaultMaxHints = 3

// Observer is notified of every submission, e.g. to record metrics
type Observer interface {
	ObserveSubmission(result models.ValidationResult, score int)
}

// Options configures a GameService. Zero values select defaults.
type Options struct {
	Location     *time.Location
	MaxHints     int
	SaveDebounce time.Duration
	Now          func() time.Time
	Evaluator    equation.Evaluator
	Signer       *security.ShareSigner
	Observer     Observer
	Logger       *slog.Logger
}

// OptionsFromConfig maps gameplay settings from cfg
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Location:     cfg.Location(),
		MaxHints:     cfg.MaxHintsPerDay,
		SaveDebounce: cfg.SaveDebounce,
	}
}

// State is a read-only view of the selected day
type State struct {
	Date           string            `json:"date"`
	Today          string            `json:"today"`
	Digits         []int             `json:"digits"`
	Equation       string            `json:"equation"`
	IsValid        bool              `json:"isValid"`
	Completed      bool              `json:"completed"`
	Solutions      []models.Solution `json:"solutions"`
	Score          int               `json:"score"`
	HintsUsed      int               `json:"hintsUsed"`
	HintsRemaining int               `json:"hintsRemaining"`
	Progress       equation.Progress `json:"progress"`
	NextInputs     []string          `json:"nextInputs"`
}

// SubmitResult is an accepted solution with its player-facing description
type SubmitResult struct {
	Solution    models.Solution  `json:"solution"`
	Description string           `json:"description"`
	Unlocked    []string         `json:"unlocked,omitempty"`
	Stats       models.GameStats `json:"stats"`
	State       State            `json:"state"`
}

// GameService is the single owner of the in-memory game state. Every
// mutation goes through one of its action methods under mu, and the
// history record is written back through a debounced save.
type GameService struct {
	store     *history.Store
	validator *equation.Validator
	signer    *security.ShareSigner
	observer  Observer
	log       *slog.Logger

	now      func() time.Time
	loc      *time.Location
	maxHints int
	debounce time.Duration

	mu    sync.Mutex
	game  *models.GameData
	stats models.GameStats
	prefs models.Preferences
	date  puzzle.Date
	timer *time.Timer
	dirty bool
}

// NewGameService creates a game service over store. Call Load before use.
func NewGameService(store *history.Store, opts Options) *GameService {
	s := &GameService{
		store:     store,
		validator: equation.NewValidator(opts.Evaluator),
		signer:    opts.Signer,
		observer:  opts.Observer,
		log:       logging.OrDiscard(opts.Logger),
		now:       opts.Now,
		loc:       opts.Location,
		maxHints:  opts.MaxHints,
		debounce:  opts.SaveDebounce,
		game:      models.NewGameData(),
		stats:     models.NewGameStats(),
		prefs:     models.DefaultPreferences(),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.maxHints <= 0 {
		s.maxHints = DefaultMaxHints
	}
	s.date = s.today()
	return s
}

// Load reads every record from the store and opens today's puzzle
func (s *GameService) Load(ctx context.Context) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTimerLocked()
	s.game = s.store.LoadGame(ctx)
	s.stats = s.store.LoadStats(ctx)
	s.prefs = s.store.LoadPreferences(ctx)
	s.date = s.today()
	s.game.LastSelectedDate = s.date.String()
	s.dirty = true
	s.flushLocked(ctx)

	s.log.Info("game loaded", "date", s.date.String(), "days", len(s.game.History))
	return s.stateLocked()
}

// Today returns the puzzle date for the current time
func (s *GameService) Today() puzzle.Date {
	return s.today()
}

// CurrentDate returns the selected puzzle date
func (s *GameService) CurrentDate() puzzle.Date {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.date
}

// State returns a view of the selected day
func (s *GameService) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// SelectDate switches to the puzzle for date. Dates after today are
// rejected with ErrInvalidDate.
func (s *GameService) SelectDate(ctx context.Context, date string) (State, error) {
	d, err := puzzle.Parse(date)
	if err != nil {
		return s.State(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if d.After(s.today()) {
		return s.stateLocked(), models.NewGameError(models.ErrInvalidDate, fmt.Sprintf("Puzzle for %s is not available yet", d))
	}
	s.date = d
	s.game.LastSelectedDate = d.String()
	s.scheduleSaveLocked(ctx)
	return s.stateLocked(), nil
}

// AppendToken adds one input to the equation if the digit gate accepts it.
// A rejected token leaves the equation unchanged.
func (s *GameService) AppendToken(ctx context.Context, token string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := s.dayLocked()
	if err := equation.ValidateToken(day.Equation, token, s.date.Digits()); err != nil {
		return s.stateLocked(), err
	}
	s.editLocked(ctx, day, day.Equation+token)
	return s.stateLocked(), nil
}

// SetEquation replaces the draft with free text. The text passes through
// the same digit gate as typed input, so out-of-order digits, a second =
// and foreign characters are dropped.
func (s *GameService) SetEquation(ctx context.Context, eq string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.editLocked(ctx, s.dayLocked(), equation.FilterInput(eq, "", s.date.Digits()))
	return s.stateLocked()
}

// FilterInput appends the acceptable part of pasted text to the draft
func (s *GameService) FilterInput(ctx context.Context, input string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := s.dayLocked()
	accepted := equation.FilterInput(input, day.Equation, s.date.Digits())
	if accepted != "" {
		s.editLocked(ctx, day, day.Equation+accepted)
	}
	return s.stateLocked()
}

// RemoveLastToken deletes the last input from the draft
func (s *GameService) RemoveLastToken(ctx context.Context) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := s.dayLocked()
	s.editLocked(ctx, day, equation.RemoveLastToken(day.Equation))
	return s.stateLocked()
}

// ClearEquation empties the draft
func (s *GameService) ClearEquation(ctx context.Context) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.editLocked(ctx, s.dayLocked(), "")
	return s.stateLocked()
}

// Submit validates the draft. A valid equation becomes a Solution, stats
// and achievements are updated and every record is saved immediately. An
// invalid one is counted as a wrong attempt and returned as a *GameError
// with the draft preserved.
func (s *GameService) Submit(ctx context.Context) (*SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := s.dayLocked()
	eq := strings.TrimSpace(day.Equation)
	if eq == "" {
		return nil, models.NewGameError(models.ErrIncompleteEquation, "Build an equation before submitting.")
	}

	result := s.validator.Validate(eq, s.date)
	score := scoring.Score(result)
	if s.observer != nil {
		s.observer.ObserveSubmission(result, score)
	}

	now := s.now()
	if !result.IsValid {
		day.IsValid = false
		day.WrongAttempts++
		s.scheduleSaveLocked(ctx)
		s.log.Debug("submission rejected", "date", s.date.String(), "kind", models.KindName(result.Err()))
		return nil, result.Err()
	}

	wrong := day.WrongAttempts
	sol := models.Solution{
		ID:            uuid.NewString(),
		Equation:      eq,
		Score:         score,
		Complexity:    result.Complexity,
		Timestamp:     now,
		WrongAttempts: &wrong,
	}
	if day.StartedAt != nil {
		ms := now.Sub(*day.StartedAt).Milliseconds()
		sol.TimeToSolve = &ms
	}

	firstOfDay := len(day.Solutions) == 0
	day.Solutions = append(day.Solutions, sol)
	day.IsValid = true
	day.Completed = true
	day.Equation = ""
	day.WrongAttempts = 0
	day.StartedAt = nil

	s.stats = stats.Update(s.stats, stats.Outcome{Won: true, Score: score, Date: s.date, FirstOfDay: firstOfDay})
	unlocked := achievements.RecordDates(&s.stats, s.date.String())

	s.dirty = true
	s.flushLocked(ctx)
	s.store.SaveStats(ctx, s.stats)

	s.log.Info("solution recorded",
		"date", s.date.String(),
		"score", score,
		"complexity", string(result.Complexity),
		"unlocked", unlocked,
	)
	return &SubmitResult{
		Solution:    sol,
		Description: scoring.Describe(score, result.Complexity),
		Unlocked:    unlocked,
		Stats:       s.statsLocked(),
		State:       s.stateLocked(),
	}, nil
}

// UseHint spends one of the day's hints and returns the hint text
func (s *GameService) UseHint(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := s.dayLocked()
	if day.HintsUsed >= s.maxHints {
		return "", models.NewGameError(models.ErrHintsExhausted, "You have used all available hints for today.")
	}
	day.HintsUsed++
	s.scheduleSaveLocked(ctx)
	return equation.InputHint(day.Equation, s.date.Digits()), nil
}

// Stats returns the aggregate stats with the streak as seen today
func (s *GameService) Stats() models.GameStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsLocked()
}

// Achievements evaluates every achievement rule against current stats
func (s *GameService) Achievements() []models.AchievementStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return achievements.Evaluate(s.stats)
}

// Preferences returns the current preferences
func (s *GameService) Preferences() models.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// SetPreferences replaces and saves the preferences
func (s *GameService) SetPreferences(ctx context.Context, p models.Preferences) models.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.Normalize()
	s.prefs = p
	s.store.SavePreferences(ctx, p)
	return p
}

// CycleThemeMode advances system → light → dark → system and saves
func (s *GameService) CycleThemeMode(ctx context.Context) models.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prefs.ThemeMode = s.prefs.ThemeMode.Next()
	s.prefs.Normalize()
	s.store.SavePreferences(ctx, s.prefs)
	return s.prefs
}

// AvailableDates lists every date with recorded history, newest first
func (s *GameService) AvailableDates() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	dates := make([]puzzle.Date, 0, len(s.game.History))
	for key := range s.game.History {
		if d, err := puzzle.Parse(key); err == nil {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })

	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.String()
	}
	return out
}

// Reset clears stats and history and reopens today. Preferences are kept.
func (s *GameService) Reset(ctx context.Context) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTimerLocked()
	s.store.Clear(ctx)
	s.game = models.NewGameData()
	s.stats = models.NewGameStats()
	s.date = s.today()
	s.game.LastSelectedDate = s.date.String()
	s.dirty = false

	s.log.Info("game data reset")
	return s.stateLocked()
}

// Flush writes a pending debounced save now
func (s *GameService) Flush(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked(ctx)
}

// Close flushes pending writes
func (s *GameService) Close(ctx context.Context) {
	s.Flush(ctx)
}

func (s *GameService) today() puzzle.Date {
	return puzzle.Today(s.now(), s.loc)
}

func (s *GameService) dayLocked() *models.DayState {
	return s.game.Day(s.date.String())
}

// editLocked replaces the draft, starting the solve timer on first edit
func (s *GameService) editLocked(ctx context.Context, day *models.DayState, eq string) {
	if day.StartedAt == nil && eq != "" {
		t := s.now()
		day.StartedAt = &t
	}
	day.Equation = eq
	day.IsValid = false
	s.scheduleSaveLocked(ctx)
}

func (s *GameService) scheduleSaveLocked(ctx context.Context) {
	s.dirty = true
	if s.debounce <= 0 {
		s.flushLocked(ctx)
		return
	}
	s.stopTimerLocked()
	s.timer = time.AfterFunc(s.debounce, func() {
		s.Flush(context.Background())
	})
}

func (s *GameService) flushLocked(ctx context.Context) {
	s.stopTimerLocked()
	if !s.dirty {
		return
	}
	s.dirty = false
	s.store.SaveGame(ctx, s.game)
}

func (s *GameService) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *GameService) statsLocked() models.GameStats {
	st := s.stats.Clone()
	st.CurrentStreak = stats.CurrentStreakAsOf(st, s.today())
	return st
}

func (s *GameService) stateLocked() State {
	day, ok := s.game.History[s.date.String()]
	if !ok {
		day = &models.DayState{Solutions: []models.Solution{}}
	}
	digits := s.date.Digits()
	return State{
		Date:           s.date.String(),
		Today:          s.today().String(),
		Digits:         digits,
		Equation:       day.Equation,
		IsValid:        day.IsValid,
		Completed:      day.Completed,
		Solutions:      append([]models.Solution{}, day.Solutions...),
		Score:          day.TotalScore(),
		HintsUsed:      day.HintsUsed,
		HintsRemaining: max(0, s.maxHints-day.HintsUsed),
		Progress:       equation.CheckProgress(day.Equation, digits),
		NextInputs:     equation.NextAllowedInputs(day.Equation, digits),
	}
}
