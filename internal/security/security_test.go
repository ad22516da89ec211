package security

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareSignerRoundTrip(t *testing.T) {
	signer, err := NewShareSigner("test-secret")
	require.NoError(t, err)

	token, err := signer.Sign(ShareClaims{Date: "9-17-2025", Solutions: 2, BestScore: 35, TotalScore: 60, Streak: 3})
	require.NoError(t, err)

	claims, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "9-17-2025", claims.Date)
	assert.Equal(t, 2, claims.Solutions)
	assert.Equal(t, 35, claims.BestScore)
	assert.Equal(t, 60, claims.TotalScore)
	assert.Equal(t, 3, claims.Streak)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, "crackle-date", claims.Issuer)
}

func TestShareSignerRejectsForeignTokens(t *testing.T) {
	signer, err := NewShareSigner("test-secret")
	require.NoError(t, err)
	other, err := NewShareSigner("another-secret")
	require.NoError(t, err)

	token, err := other.Sign(ShareClaims{Date: "9-17-2025"})
	require.NoError(t, err)

	_, err = signer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidShareToken)

	_, err = signer.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidShareToken)
}

func TestShareSignerRandomSecret(t *testing.T) {
	a, err := NewShareSigner("")
	require.NoError(t, err)
	b, err := NewShareSigner("")
	require.NoError(t, err)

	token, err := a.Sign(ShareClaims{Date: "9-17-2025"})
	require.NoError(t, err)

	_, err = a.Verify(token)
	assert.NoError(t, err)
	_, err = b.Verify(token)
	assert.Error(t, err)
}

func TestSealRoundTrip(t *testing.T) {
	plain := []byte(`{"version":"2"}`)

	sealed, err := Seal(plain, "hunter2")
	require.NoError(t, err)
	assert.True(t, IsSealed(sealed))
	assert.NotContains(t, string(sealed), "version")

	got, err := Unseal(sealed, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, plain, got)

	_, err = Unseal(sealed, "wrong")
	assert.ErrorIs(t, err, ErrWrongPassphrase)

	_, err = Unseal(plain, "hunter2")
	assert.ErrorIs(t, err, ErrNotSealed)

	_, err = Seal(plain, "")
	assert.Error(t, err)
}

func TestRateLimiterBurst(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	defer rl.Stop()

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))

	// buckets are per client
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestGetClientIPIgnoresHeadersFromUntrustedPeers(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.7:51234"
	assert.Equal(t, "192.0.2.7", GetClientIP(r, nil))

	r.Header.Set("X-Real-IP", "198.51.100.2")
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "192.0.2.7", GetClientIP(r, nil))

	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.7", GetClientIP(r, trusted))
}

func TestGetClientIPBehindTrustedProxy(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8", "127.0.0.1"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		forwarded string
		realIP    string
		want      string
	}{
		{"single hop", "203.0.113.9", "", "203.0.113.9"},
		{"spoofed left hops are skipped", "1.2.3.4, 203.0.113.9", "", "203.0.113.9"},
		{"trusted hops are skipped", "203.0.113.9, 10.1.1.1", "", "203.0.113.9"},
		{"all hops trusted", "10.2.2.2, 10.1.1.1", "", "10.2.2.2"},
		{"real ip header", "", "198.51.100.2", "198.51.100.2"},
		{"no headers", "", "", "10.0.0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = "10.0.0.5:443"
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.want, GetClientIP(r, trusted))
		})
	}
}

func TestParseTrustedProxies(t *testing.T) {
	prefixes, err := ParseTrustedProxies([]string{"10.0.0.1", " 172.16.0.0/12 ", "", "::1"})
	require.NoError(t, err)
	assert.Len(t, prefixes, 3)

	_, err = ParseTrustedProxies([]string{"not-an-ip"})
	assert.Error(t, err)
	_, err = ParseTrustedProxies([]string{"10.0.0.0/99"})
	assert.Error(t, err)
}

func TestRateLimiterCannotBeDodgedWithForwardedFor(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Stop()

	request := func(forwarded string) *http.Request {
		r := httptest.NewRequest("POST", "/", nil)
		r.RemoteAddr = "192.0.2.7:51234"
		r.Header.Set("X-Forwarded-For", forwarded)
		return r
	}
	assert.True(t, rl.AllowRequest(request("203.0.113.1")))
	assert.False(t, rl.AllowRequest(request("203.0.113.2")))

	require.NoError(t, rl.TrustProxies([]string{"192.0.2.0/24"}))
	assert.True(t, rl.AllowRequest(request("203.0.113.3")))
	assert.False(t, rl.AllowRequest(request("203.0.113.3")))

	assert.Error(t, rl.TrustProxies([]string{"bogus"}))
}
