// Package stats maintains streaks and score aggregates.
//
// Every function here is pure: it takes a GameStats snapshot and returns a
// new one, leaving persistence to the caller.
package stats

import (
	"sort"

	"crackledate/internal/models"
	"crackledate/internal/puzzle"
)

// Outcome is one submission reported to the tracker
type Outcome struct {
	Won   bool
	Score int
	Date  puzzle.Date

	// FirstOfDay is true for the first solution (or first attempt, for a
	// loss) recorded on Date
	FirstOfDay bool
}

// Update applies o to prev and returns the new stats.
//
// Streaks only move for the first result of a day that is not earlier than
// the last played date. LastPlayedDate never moves backwards.
func Update(prev models.GameStats, o Outcome) models.GameStats {
	s := prev.Clone()
	date := o.Date.String()

	last, hasLast := lastPlayed(s)
	backfill := hasLast && o.Date.Before(last)

	s.GamesPlayed++
	if o.Won {
		s.GamesWon++
	}

	if o.FirstOfDay && !backfill {
		switch {
		case !o.Won:
			s.CurrentStreak = 0
		case !hasLast:
			s.CurrentStreak = 1
		default:
			switch puzzle.DaysBetween(last, o.Date) {
			case 0:
				s.CurrentStreak = max(s.CurrentStreak, 1)
			case 1:
				s.CurrentStreak++
			default:
				s.CurrentStreak = 1
			}
		}
	}

	if o.Won {
		recordBest(&s, date, o.Score)
		if !hasLast || o.Date.After(last) {
			s.LastPlayedDate = date
		}
	}

	return Recalculate(s)
}

// recordBest keeps the highest score per day and moves the day between
// distribution buckets when it improves
func recordBest(s *models.GameStats, date string, score int) {
	old, had := s.DailyBestScores[date]
	if had && old >= score {
		return
	}
	if had {
		s.ScoreDistribution[old]--
		if s.ScoreDistribution[old] <= 0 {
			delete(s.ScoreDistribution, old)
		}
	}
	s.DailyBestScores[date] = score
	s.ScoreDistribution[score]++
}

// Recalculate fills nil maps and recomputes the fields derived from the
// daily bests and counters
func Recalculate(s models.GameStats) models.GameStats {
	if s.DailyBestScores == nil {
		s.DailyBestScores = map[string]int{}
	}
	if s.ScoreDistribution == nil {
		s.ScoreDistribution = map[int]int{}
	}
	if s.AchievementDates == nil {
		s.AchievementDates = map[string]string{}
	}
	if s.CurrentStreak < 0 {
		s.CurrentStreak = 0
	}
	s.MaxStreak = max(s.MaxStreak, s.CurrentStreak)

	// Records written before daily bests existed keep their stored average
	s.DaysPlayed = len(s.DailyBestScores)
	if s.DaysPlayed > 0 {
		total := 0
		for _, v := range s.DailyBestScores {
			total += v
		}
		s.AverageScore = float64(total) / float64(s.DaysPlayed)
	}

	s.WinPercentage = 0
	if s.GamesPlayed > 0 {
		s.WinPercentage = float64(s.GamesWon) / float64(s.GamesPlayed) * 100
	}
	return s
}

// Rebuild replays every recorded solution in date order. It is used when
// stats are missing but history survives, e.g. after importing a bundle
// without a stats record. Achievement dates are not reconstructed.
func Rebuild(data *models.GameData) models.GameStats {
	s := models.NewGameStats()
	if data == nil {
		return s
	}

	type day struct {
		date  puzzle.Date
		state *models.DayState
	}
	var days []day
	for key, state := range data.History {
		d, err := puzzle.Parse(key)
		if err != nil || state == nil || len(state.Solutions) == 0 {
			continue
		}
		days = append(days, day{date: d, state: state})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].date.Before(days[j].date) })

	for _, d := range days {
		for i, sol := range d.state.Solutions {
			s = Update(s, Outcome{Won: true, Score: sol.Score, Date: d.date, FirstOfDay: i == 0})
		}
	}
	return s
}

// CurrentStreakAsOf returns the streak to display on today. A streak whose
// last win is older than yesterday has lapsed and reads as 0; the stored
// value is left for the next win to reset.
func CurrentStreakAsOf(s models.GameStats, today puzzle.Date) int {
	last, ok := lastPlayed(s)
	if !ok {
		return 0
	}
	if puzzle.DaysBetween(last, today) > 1 {
		return 0
	}
	return s.CurrentStreak
}

func lastPlayed(s models.GameStats) (puzzle.Date, bool) {
	if s.LastPlayedDate == "" {
		return puzzle.Date{}, false
	}
	d, err := puzzle.Parse(s.LastPlayedDate)
	if err != nil {
		return puzzle.Date{}, false
	}
	return d, true
}
