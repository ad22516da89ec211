// Package achievements evaluates milestone rules against GameStats
package achievements

import (
	"fmt"

	"crackledate/internal/models"
)

// Rule is one achievement. Check must be a pure function of the stats.
type Rule struct {
	ID          string
	Title       string
	Description string
	Check       func(models.GameStats) (unlocked bool, progress string)
}

// Rules is the fixed achievement list, in display order
var Rules = []Rule{
	{
		ID:          "first-solution",
		Title:       "First Solution",
		Description: "Submit your first valid equation.",
		Check: func(s models.GameStats) (bool, string) {
			return s.DaysPlayed >= 1, fmt.Sprintf("%d/1 days", min(s.DaysPlayed, 1))
		},
	},
	{
		ID:          "streak-3",
		Title:       "3-Day Heater",
		Description: "Solve puzzles on three consecutive days.",
		Check:       streakRule(3),
	},
	{
		ID:          "streak-7",
		Title:       "Weeklong Wizard",
		Description: "Keep your daily streak alive for seven days.",
		Check:       streakRule(7),
	},
	{
		ID:          "weekly-warrior",
		Title:       "Weekly Warrior",
		Description: "Complete seven unique Crackle Date challenges.",
		Check: func(s models.GameStats) (bool, string) {
			return s.DaysPlayed >= 7, fmt.Sprintf("%d/7 days", min(s.DaysPlayed, 7))
		},
	},
	{
		ID:          "high-score-300",
		Title:       "High Roller",
		Description: "Earn a daily best score of 300 points.",
		Check: func(s models.GameStats) (bool, string) {
			best := s.BestScore()
			return best >= 300, fmt.Sprintf("%d pts", best)
		},
	},
}

func streakRule(days int) func(models.GameStats) (bool, string) {
	return func(s models.GameStats) (bool, string) {
		return s.MaxStreak >= days, fmt.Sprintf("%d/%d days", min(s.MaxStreak, days), days)
	}
}

// Evaluate returns the status of every rule. UnlockedOn is filled from the
// recorded achievement dates for unlocked rules only.
func Evaluate(s models.GameStats) []models.AchievementStatus {
	out := make([]models.AchievementStatus, 0, len(Rules))
	for _, r := range Rules {
		unlocked, progress := r.Check(s)
		status := models.AchievementStatus{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			Unlocked:    unlocked,
			Progress:    progress,
		}
		if unlocked {
			status.UnlockedOn = s.AchievementDates[r.ID]
		}
		out = append(out, status)
	}
	return out
}

// RecordDates stamps date on every unlocked rule that has no date yet and
// returns the ids it stamped. Existing dates are never overwritten.
func RecordDates(s *models.GameStats, date string) []string {
	if s.AchievementDates == nil {
		s.AchievementDates = map[string]string{}
	}
	var stamped []string
	for _, status := range Evaluate(*s) {
		if !status.Unlocked {
			continue
		}
		if _, ok := s.AchievementDates[status.ID]; ok {
			continue
		}
		s.AchievementDates[status.ID] = date
		stamped = append(stamped, status.ID)
	}
	return stamped
}
