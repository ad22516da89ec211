package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crackledate/internal/history"
	"crackledate/internal/models"
	"crackledate/internal/security"
	"crackledate/internal/storage"
)

// clock is a settable time source
type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func sept(day int) time.Time {
	return time.Date(2025, time.September, day, 12, 0, 0, 0, time.UTC)
}

type recorder struct {
	results []models.ValidationResult
	scores  []int
}

func (r *recorder) ObserveSubmission(result models.ValidationResult, score int) {
	r.results = append(r.results, result)
	r.scores = append(r.scores, score)
}

type failingStore struct{}

var errOffline = errors.New("offline")

func (failingStore) Get(context.Context, string) (string, bool, error) { return "", false, errOffline }
func (failingStore) Set(context.Context, string, string) error         { return errOffline }
func (failingStore) SetMany(context.Context, map[string]string) error  { return errOffline }
func (failingStore) Delete(context.Context, ...string) error           { return errOffline }
func (failingStore) Keys(context.Context, string) ([]string, error)    { return nil, errOffline }
func (failingStore) Close() error                                      { return nil }

func newTestService(t *testing.T, kv storage.Store, opts Options) (*GameService, *clock) {
	t.Helper()
	c := &clock{t: sept(17)}
	opts.Now = c.Now
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	svc := NewGameService(history.NewStore(kv, "", nil), opts)
	svc.Load(context.Background())
	return svc, c
}

func TestSubmitRecordsSolution(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	svc, c := newTestService(t, kv, Options{})

	state := svc.SetEquation(ctx, "9+1+7=20+2-5")
	assert.True(t, state.Progress.Ready)

	c.Advance(30 * time.Second)
	res, err := svc.Submit(ctx)
	require.NoError(t, err)

	assert.Equal(t, 25, res.Solution.Score)
	assert.Equal(t, models.ComplexitySimple, res.Solution.Complexity)
	assert.Equal(t, "25 points - Good basic solution!", res.Description)
	assert.NotEmpty(t, res.Solution.ID)
	require.NotNil(t, res.Solution.TimeToSolve)
	assert.Equal(t, int64(30000), *res.Solution.TimeToSolve)
	require.NotNil(t, res.Solution.WrongAttempts)
	assert.Equal(t, 0, *res.Solution.WrongAttempts)
	assert.Equal(t, []string{"first-solution"}, res.Unlocked)

	assert.Equal(t, 1, res.Stats.CurrentStreak)
	assert.Equal(t, 25, res.Stats.DailyBestScores["9-17-2025"])
	assert.Empty(t, res.State.Equation)
	assert.True(t, res.State.Completed)
	assert.Equal(t, 25, res.State.Score)

	// a fresh service over the same store sees everything
	reloaded, _ := newTestService(t, kv, Options{})
	state = reloaded.State()
	require.Len(t, state.Solutions, 1)
	assert.Equal(t, "9+1+7=20+2-5", state.Solutions[0].Equation)
	assert.Equal(t, 25, reloaded.Stats().DailyBestScores["9-17-2025"])
	assert.Equal(t, "9-17-2025", reloaded.Stats().AchievementDates["first-solution"])
}

func TestSubmitRejectionKeepsDraft(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, storage.NewMemory(), Options{})

	svc.SetEquation(ctx, "9+1+7+2+0+2+5")
	_, err := svc.Submit(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrIncompleteEquation)
	assert.Equal(t, "Equation must contain an equals sign (=)", err.Error())
	assert.Equal(t, "9+1+7+2+0+2+5", svc.State().Equation)

	svc.SetEquation(ctx, "9+1+7=20+2+5")
	_, err = svc.Submit(ctx)
	assert.ErrorIs(t, err, models.ErrEvaluationMismatch)
	assert.Equal(t, "Left side (17) does not equal right side (27)", err.Error())

	svc.SetEquation(ctx, "9+1+7=20+2-5")
	res, err := svc.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, *res.Solution.WrongAttempts)

	// losses are not reported to the tracker
	assert.Equal(t, 1, res.Stats.GamesPlayed)
	assert.Equal(t, 1, res.Stats.GamesWon)
}

func TestSetEquationFiltersDraft(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	svc, _ := newTestService(t, kv, Options{})
	store := history.NewStore(kv, "", nil)

	tests := []struct {
		input string
		want  string
	}{
		{"1==abc9", "=9"},
		{"9+1=7=2", "9+1=72"},
		{"1+9=17", "+9=17"},
		{"9 × 1 + 7", "9 × 1 + 7"},
		{"9+1+7=20+2-5", "9+1+7=20+2-5"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			state := svc.SetEquation(ctx, tt.input)
			assert.Equal(t, tt.want, state.Equation)
			assert.Empty(t, state.Progress.Error)
			assert.Equal(t, tt.want, store.LoadGame(ctx).History["9-17-2025"].Equation)
		})
	}
}

func TestSubmitEmptyDraft(t *testing.T) {
	svc, _ := newTestService(t, storage.NewMemory(), Options{})

	_, err := svc.Submit(context.Background())
	assert.ErrorIs(t, err, models.ErrIncompleteEquation)
}

func TestSubmitTrivialSolution(t *testing.T) {
	ctx := context.Background()
	obs := &recorder{}
	svc, _ := newTestService(t, storage.NewMemory(), Options{Observer: obs})

	_, err := svc.SelectDate(ctx, "1-10-2020")
	require.NoError(t, err)
	svc.SetEquation(ctx, "1*1*0*2*0*2=0")

	_, err = svc.Submit(ctx)
	assert.ErrorIs(t, err, models.ErrTrivialSolution)
	assert.Equal(t, 0, svc.Stats().GamesPlayed)

	require.Len(t, obs.results, 1)
	assert.True(t, obs.results[0].MathematicallyCorrect)
	assert.Equal(t, 0, obs.scores[0])
}

func TestAppendTokenGate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, storage.NewMemory(), Options{})

	_, err := svc.AppendToken(ctx, "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInputRejected)
	assert.Equal(t, "Expected digit 9, got 1", err.Error())
	assert.Empty(t, svc.State().Equation)

	for _, tok := range []string{"9", "+", "1", "="} {
		_, err := svc.AppendToken(ctx, tok)
		require.NoError(t, err, tok)
	}
	state, err := svc.AppendToken(ctx, "=")
	assert.ErrorIs(t, err, models.ErrInputRejected)
	assert.Equal(t, "9+1=", state.Equation)
	assert.Equal(t, 7, *state.Progress.NextDigit)
	assert.NotContains(t, state.NextInputs, "=")
}

func TestEditingActions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, storage.NewMemory(), Options{})

	state := svc.FilterInput(ctx, "9+1x7")
	assert.Equal(t, "9+17", state.Equation)

	state = svc.RemoveLastToken(ctx)
	assert.Equal(t, "9+1", state.Equation)

	_, err := svc.AppendToken(ctx, "sqrt(")
	require.NoError(t, err)
	state = svc.RemoveLastToken(ctx)
	assert.Equal(t, "9+1", state.Equation)

	state = svc.ClearEquation(ctx)
	assert.Empty(t, state.Equation)
	assert.Equal(t, "Next digit: 9 (remaining: 9, 1, 7, 2, 0, 2, 5)", state.Progress.Hint)
}

func TestSelectDate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, storage.NewMemory(), Options{})

	_, err := svc.SelectDate(ctx, "9-18-2025")
	assert.ErrorIs(t, err, models.ErrInvalidDate)
	assert.Equal(t, "9-17-2025", svc.CurrentDate().String())

	_, err = svc.SelectDate(ctx, "13-01-2025")
	assert.ErrorIs(t, err, models.ErrInvalidDate)

	state, err := svc.SelectDate(ctx, "9-5-2025")
	require.NoError(t, err)
	assert.Equal(t, "9-05-2025", state.Date)
	assert.Equal(t, "9-17-2025", state.Today)
	assert.Equal(t, []int{9, 0, 5, 2, 0, 2, 5}, state.Digits)
}

func TestAvailableDatesNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, storage.NewMemory(), Options{})

	for _, d := range []string{"8-31-2025", "9-17-2025", "12-25-2024"} {
		_, err := svc.SelectDate(ctx, d)
		require.NoError(t, err)
		svc.SetEquation(ctx, d[:1])
	}
	assert.Equal(t, []string{"9-17-2025", "8-31-2025", "12-25-2024"}, svc.AvailableDates())
}

func TestUseHint(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, storage.NewMemory(), Options{MaxHints: 2})

	hint, err := svc.UseHint(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Next digit: 9 (remaining: 9, 1, 7, 2, 0, 2, 5)", hint)

	_, err = svc.UseHint(ctx)
	require.NoError(t, err)

	_, err = svc.UseHint(ctx)
	assert.ErrorIs(t, err, models.ErrHintsExhausted)

	state := svc.State()
	assert.Equal(t, 2, state.HintsUsed)
	assert.Equal(t, 0, state.HintsRemaining)
}

func TestStreakAcrossDays(t *testing.T) {
	ctx := context.Background()
	svc, c := newTestService(t, storage.NewMemory(), Options{})

	solve := func(eq string) *SubmitResult {
		t.Helper()
		svc.SetEquation(ctx, eq)
		res, err := svc.Submit(ctx)
		require.NoError(t, err)
		return res
	}

	solve("9+1+7=20+2-5")

	c.t = sept(18)
	_, err := svc.SelectDate(ctx, "9-18-2025")
	require.NoError(t, err)
	res := solve("9*1+8=20+2-5")
	assert.Equal(t, 2, res.Stats.CurrentStreak)

	c.t = sept(21)
	assert.Equal(t, 0, svc.Stats().CurrentStreak)

	_, err = svc.SelectDate(ctx, "9-21-2025")
	require.NoError(t, err)
	res = solve("9*2-1=20+2-5")
	assert.Equal(t, 1, res.Stats.CurrentStreak)
	assert.Equal(t, 2, res.Stats.MaxStreak)

	// backfilling a skipped day leaves the streak alone
	_, err = svc.SelectDate(ctx, "9-19-2025")
	require.NoError(t, err)
	res = solve("9-1+9=20+2-5")
	assert.Equal(t, 1, res.Stats.CurrentStreak)
	assert.Equal(t, "9-21-2025", res.Stats.LastPlayedDate)
	assert.Equal(t, 4, res.Stats.DaysPlayed)
}

func TestDailyBestKeepsHigherScore(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, storage.NewMemory(), Options{})

	svc.SetEquation(ctx, "(9-1)+7=20/2+5")
	first, err := svc.Submit(ctx)
	require.NoError(t, err)
	require.Equal(t, 35, first.Solution.Score)

	svc.SetEquation(ctx, "9+1+7=20+2-5")
	second, err := svc.Submit(ctx)
	require.NoError(t, err)

	assert.Equal(t, 35, second.Stats.DailyBestScores["9-17-2025"])
	assert.Equal(t, map[int]int{35: 1}, second.Stats.ScoreDistribution)
	assert.Equal(t, 60, second.State.Score)
	assert.Len(t, second.State.Solutions, 2)
}

func TestShare(t *testing.T) {
	ctx := context.Background()
	signer, err := security.NewShareSigner("secret")
	require.NoError(t, err)
	svc, _ := newTestService(t, storage.NewMemory(), Options{Signer: signer})

	_, err = svc.Share()
	assert.ErrorIs(t, err, models.ErrNothingToShare)

	svc.SetEquation(ctx, "9+1+7=20+2-5")
	_, err = svc.Submit(ctx)
	require.NoError(t, err)
	svc.SetEquation(ctx, "(9-1)+7=20/2+5")
	_, err = svc.Submit(ctx)
	require.NoError(t, err)

	card, err := svc.Share()
	require.NoError(t, err)
	assert.Equal(t, "Crackle Date 9-17-2025", card.Title)
	assert.Equal(t, "Crackle Date 9-17-2025\n"+
		"(9-1)+7=20/2+5 (35 pts)\n"+
		"9+1+7=20+2-5 (25 pts)\n"+
		"Total: 60 pts\n"+
		"🔥 Streak: 1", card.Text)

	claims, err := svc.VerifyShare(card.Token)
	require.NoError(t, err)
	assert.Equal(t, "9-17-2025", claims.Date)
	assert.Equal(t, 35, claims.BestScore)
	assert.Equal(t, 60, claims.TotalScore)
}

func TestResetKeepsPreferences(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	svc, _ := newTestService(t, kv, Options{})

	prefs := svc.CycleThemeMode(ctx)
	assert.Equal(t, models.ThemeLight, prefs.ThemeMode)
	svc.SetEquation(ctx, "9+1+7=20+2-5")
	_, err := svc.Submit(ctx)
	require.NoError(t, err)

	state := svc.Reset(ctx)
	assert.Empty(t, state.Solutions)
	assert.Equal(t, 0, svc.Stats().GamesPlayed)
	assert.Empty(t, svc.AvailableDates())

	reloaded, _ := newTestService(t, kv, Options{})
	assert.Equal(t, models.ThemeLight, reloaded.Preferences().ThemeMode)
	assert.Equal(t, 0, reloaded.Stats().GamesPlayed)
}

func TestPreferences(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, storage.NewMemory(), Options{})

	assert.Equal(t, models.DefaultPreferences(), svc.Preferences())

	p := svc.SetPreferences(ctx, models.Preferences{ThemeMode: models.ThemeDark, SoundEnabled: false})
	assert.True(t, p.DarkMode)

	assert.Equal(t, models.ThemeSystem, svc.CycleThemeMode(ctx).ThemeMode)
	assert.False(t, svc.Preferences().DarkMode)
}

func TestDebouncedSave(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	svc, _ := newTestService(t, kv, Options{SaveDebounce: time.Hour})
	store := history.NewStore(kv, "", nil)

	svc.SetEquation(ctx, "9+1")
	_, ok := store.LoadGame(ctx).History["9-17-2025"]
	assert.False(t, ok, "draft saved before debounce elapsed")

	svc.Flush(ctx)
	day, ok := store.LoadGame(ctx).History["9-17-2025"]
	require.True(t, ok)
	assert.Equal(t, "9+1", day.Equation)
	assert.NotNil(t, day.StartedAt)
}

func TestDebounceTimerFires(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	svc, _ := newTestService(t, kv, Options{SaveDebounce: 10 * time.Millisecond})
	store := history.NewStore(kv, "", nil)

	svc.SetEquation(ctx, "9+1")
	assert.Eventually(t, func() bool {
		day, ok := store.LoadGame(ctx).History["9-17-2025"]
		return ok && day.Equation == "9+1"
	}, time.Second, 5*time.Millisecond)
}

func TestStorageUnavailableKeepsPlaying(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, failingStore{}, Options{})

	svc.SetEquation(ctx, "9+1+7=20+2-5")
	res, err := svc.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25, res.Solution.Score)
	assert.Equal(t, 1, svc.Stats().CurrentStreak)
	assert.Equal(t, models.DefaultPreferences(), svc.Preferences())
}
