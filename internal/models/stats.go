package models

// GameStats is the aggregate record derived from every recorded solution
type GameStats struct {
	GamesPlayed       int               `json:"gamesPlayed"`
	GamesWon          int               `json:"gamesWon"`
	CurrentStreak     int               `json:"currentStreak"`
	MaxStreak         int               `json:"maxStreak"`
	WinPercentage     float64           `json:"winPercentage"`
	AverageScore      float64           `json:"averageScore"`
	DaysPlayed        int               `json:"daysPlayed"`
	DailyBestScores   map[string]int    `json:"dailyBestScores"`
	ScoreDistribution map[int]int       `json:"scoreDistribution"`
	AchievementDates  map[string]string `json:"achievementDates"`
	LastPlayedDate    string            `json:"lastPlayedDate"`
}

// NewGameStats returns zeroed stats with initialized maps
func NewGameStats() GameStats {
	return GameStats{
		DailyBestScores:   map[string]int{},
		ScoreDistribution: map[int]int{},
		AchievementDates:  map[string]string{},
	}
}

// Clone returns a copy that shares no maps with s
func (s GameStats) Clone() GameStats {
	c := s
	c.DailyBestScores = make(map[string]int, len(s.DailyBestScores))
	for k, v := range s.DailyBestScores {
		c.DailyBestScores[k] = v
	}
	c.ScoreDistribution = make(map[int]int, len(s.ScoreDistribution))
	for k, v := range s.ScoreDistribution {
		c.ScoreDistribution[k] = v
	}
	c.AchievementDates = make(map[string]string, len(s.AchievementDates))
	for k, v := range s.AchievementDates {
		c.AchievementDates[k] = v
	}
	return c
}

// BestScore returns the highest daily best, or 0
func (s GameStats) BestScore() int {
	best := 0
	for _, v := range s.DailyBestScores {
		if v > best {
			best = v
		}
	}
	return best
}

// AchievementStatus is the evaluated state of one achievement rule
type AchievementStatus struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
	Progress    string `json:"progress,omitempty"`
	UnlockedOn  string `json:"unlockedOn,omitempty"`
}
