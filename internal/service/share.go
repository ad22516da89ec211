package service

import (
	"fmt"
	"strings"

	"crackledate/internal/models"
	"crackledate/internal/security"
)

// ShareCard is the shareable summary of one day's solutions
type ShareCard struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	Token string `json:"token,omitempty"`
}

// Share builds the summary for the selected day, newest solution first.
// The token is omitted when no signer is configured.
func (s *GameService) Share() (*ShareCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day, ok := s.game.History[s.date.String()]
	if !ok || len(day.Solutions) == 0 {
		return nil, models.NewGameError(models.ErrNothingToShare, "Solve a puzzle before sharing.")
	}

	streak := s.statsLocked().CurrentStreak
	title := "Crackle Date " + s.date.String()

	lines := []string{title}
	for i := len(day.Solutions) - 1; i >= 0; i-- {
		sol := day.Solutions[i]
		lines = append(lines, fmt.Sprintf("%s (%d pts)", sol.Equation, sol.Score))
	}
	lines = append(lines, fmt.Sprintf("Total: %d pts", day.TotalScore()))
	if streak > 0 {
		lines = append(lines, fmt.Sprintf("🔥 Streak: %d", streak))
	}

	card := &ShareCard{Title: title, Text: strings.Join(lines, "\n")}
	if s.signer != nil {
		token, err := s.signer.Sign(security.ShareClaims{
			Date:       s.date.String(),
			Solutions:  len(day.Solutions),
			BestScore:  day.BestScore(),
			TotalScore: day.TotalScore(),
			Streak:     streak,
		})
		if err != nil {
			return nil, err
		}
		card.Token = token
	}
	return card, nil
}

// VerifyShare checks a token produced by Share
func (s *GameService) VerifyShare(token string) (*security.ShareClaims, error) {
	if s.signer == nil {
		return nil, security.ErrInvalidShareToken
	}
	return s.signer.Verify(token)
}
