package security

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const shareIssuer = "crackle-date"

// ErrInvalidShareToken is returned when a share token fails verification
var ErrInvalidShareToken = errors.New("invalid share token")

// ShareClaims is the day summary carried by a share token
type ShareClaims struct {
	Date       string `json:"date"`
	Solutions  int    `json:"solutions"`
	BestScore  int    `json:"best"`
	TotalScore int    `json:"total"`
	Streak     int    `json:"streak,omitempty"`
	jwt.RegisteredClaims
}

// ShareSigner signs and verifies share tokens with HMAC-SHA256.
// Tokens are stateless, so any replica holding the secret can verify them.
type ShareSigner struct {
	secret []byte
	now    func() time.Time
}

// NewShareSigner creates a signer for secret. An empty secret gets a random
// per-process key, which means tokens do not survive a restart.
func NewShareSigner(secret string) (*ShareSigner, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate share secret: %w", err)
		}
	}
	return &ShareSigner{secret: key, now: time.Now}, nil
}

// Sign returns a compact token for c. ID and IssuedAt are filled in.
func (s *ShareSigner) Sign(c ShareClaims) (string, error) {
	c.Issuer = shareIssuer
	c.ID = uuid.NewString()
	c.IssuedAt = jwt.NewNumericDate(s.now())

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign share token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and issuer of token and returns its claims
func (s *ShareSigner) Verify(token string) (*ShareClaims, error) {
	claims := &ShareClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(shareIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShareToken, err)
	}
	return claims, nil
}
