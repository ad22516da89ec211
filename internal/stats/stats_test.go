package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"crackledate/internal/models"
	"crackledate/internal/puzzle"
)

func win(s models.GameStats, date string, score int, first bool) models.GameStats {
	return Update(s, Outcome{Won: true, Score: score, Date: puzzle.MustParse(date), FirstOfDay: first})
}

func TestStreakAcrossGap(t *testing.T) {
	s := models.NewGameStats()

	s = win(s, "9-17-2025", 25, true)
	assert.Equal(t, 1, s.CurrentStreak)

	s = win(s, "9-18-2025", 25, true)
	assert.Equal(t, 2, s.CurrentStreak)

	s = win(s, "9-20-2025", 25, true)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 2, s.MaxStreak)
	assert.Equal(t, "9-20-2025", s.LastPlayedDate)
}

func TestStreakAcrossMonthEnd(t *testing.T) {
	s := models.NewGameStats()
	s = win(s, "12-31-2024", 25, true)
	s = win(s, "1-01-2025", 25, true)

	assert.Equal(t, 2, s.CurrentStreak)
}

func TestBestScorePerDay(t *testing.T) {
	s := models.NewGameStats()

	s = win(s, "9-17-2025", 55, true)
	s = win(s, "9-17-2025", 25, false)

	assert.Equal(t, 55, s.DailyBestScores["9-17-2025"])
	assert.Equal(t, map[int]int{55: 1}, s.ScoreDistribution)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 1, s.DaysPlayed)
	assert.Equal(t, 2, s.GamesWon)

	s = win(s, "9-17-2025", 95, false)
	assert.Equal(t, 95, s.DailyBestScores["9-17-2025"])
	assert.Equal(t, map[int]int{95: 1}, s.ScoreDistribution)
	assert.InDelta(t, 95.0, s.AverageScore, 1e-9)
}

func TestSameDaySecondFirstHoldsStreak(t *testing.T) {
	s := models.NewGameStats()
	s = win(s, "9-17-2025", 25, true)
	s = win(s, "9-18-2025", 25, true)

	// A replayed first solution on the same day keeps the streak.
	s = win(s, "9-18-2025", 35, true)
	assert.Equal(t, 2, s.CurrentStreak)
}

func TestBackfillNeutral(t *testing.T) {
	s := models.NewGameStats()
	s = win(s, "9-17-2025", 25, true)
	s = win(s, "9-18-2025", 25, true)

	before := s.CurrentStreak
	s = win(s, "9-10-2025", 95, true)

	assert.Equal(t, before, s.CurrentStreak)
	assert.Equal(t, "9-18-2025", s.LastPlayedDate)
	assert.Equal(t, 95, s.DailyBestScores["9-10-2025"])
	assert.Equal(t, 3, s.DaysPlayed)
}

func TestLossResetsStreak(t *testing.T) {
	s := models.NewGameStats()
	s = win(s, "9-17-2025", 25, true)
	s = win(s, "9-18-2025", 25, true)

	s = Update(s, Outcome{Won: false, Date: puzzle.MustParse("9-19-2025"), FirstOfDay: true})
	assert.Equal(t, 0, s.CurrentStreak)
	assert.Equal(t, 2, s.MaxStreak)
	assert.Equal(t, "9-18-2025", s.LastPlayedDate)
	assert.InDelta(t, 200.0/3.0, s.WinPercentage, 1e-9)

	// A backfilled loss leaves the streak alone.
	s = win(s, "9-20-2025", 25, true)
	s = Update(s, Outcome{Won: false, Date: puzzle.MustParse("9-01-2025"), FirstOfDay: true})
	assert.Equal(t, 1, s.CurrentStreak)
}

func TestUpdateDoesNotMutateInput(t *testing.T) {
	s := win(models.NewGameStats(), "9-17-2025", 25, true)
	_ = win(s, "9-18-2025", 35, true)

	assert.Len(t, s.DailyBestScores, 1)
	assert.Equal(t, 1, s.CurrentStreak)
}

func TestRecalculateFillsMaps(t *testing.T) {
	s := Recalculate(models.GameStats{CurrentStreak: 4, MaxStreak: 2})

	assert.NotNil(t, s.DailyBestScores)
	assert.NotNil(t, s.ScoreDistribution)
	assert.NotNil(t, s.AchievementDates)
	assert.Equal(t, 4, s.MaxStreak)
}

func TestRebuild(t *testing.T) {
	data := models.NewGameData()
	data.History["9-18-2025"] = &models.DayState{Solutions: []models.Solution{{Score: 25}, {Score: 55}}}
	data.History["9-17-2025"] = &models.DayState{Solutions: []models.Solution{{Score: 35}}}
	data.History["9-19-2025"] = &models.DayState{Equation: "9+"}

	s := Rebuild(data)

	assert.Equal(t, 2, s.CurrentStreak)
	assert.Equal(t, 2, s.MaxStreak)
	assert.Equal(t, 2, s.DaysPlayed)
	assert.Equal(t, 3, s.GamesWon)
	assert.Equal(t, "9-18-2025", s.LastPlayedDate)
	assert.Equal(t, map[int]int{35: 1, 55: 1}, s.ScoreDistribution)
}

func TestCurrentStreakAsOf(t *testing.T) {
	s := win(models.NewGameStats(), "9-17-2025", 25, true)
	s = win(s, "9-18-2025", 25, true)

	ny, _ := time.LoadLocation("America/New_York")
	assert.Equal(t, 2, CurrentStreakAsOf(s, puzzle.MustParse("9-18-2025")))
	assert.Equal(t, 2, CurrentStreakAsOf(s, puzzle.MustParse("9-19-2025")))
	assert.Equal(t, 0, CurrentStreakAsOf(s, puzzle.MustParse("9-20-2025")))
	assert.Equal(t, 0, CurrentStreakAsOf(models.NewGameStats(), puzzle.Today(time.Now(), ny)))
	assert.Equal(t, 2, s.CurrentStreak)
}
