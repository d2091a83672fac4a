package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	t.Parallel()
	tok, err := IssueToken("s3cret", "recorder-1", time.Hour, time.Now())
	require.NoError(t, err)

	claims, err := ParseToken("s3cret", tok)
	require.NoError(t, err)
	assert.Equal(t, "recorder-1", claims.Subject)
	assert.Equal(t, Issuer, claims.Issuer)
}

func TestParseRejects(t *testing.T) {
	t.Parallel()
	now := time.Now()
	valid, err := IssueToken("s3cret", "recorder-1", time.Hour, now)
	require.NoError(t, err)
	expired, err := IssueToken("s3cret", "recorder-1", time.Minute, now.Add(-time.Hour))
	require.NoError(t, err)
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Issuer: Issuer, Subject: "x"}).
		SignedString([]byte("s3cret"))
	require.NoError(t, err)
	otherAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Issuer:    Issuer,
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	tests := []struct {
		name, secret, token string
	}{
		{"wrong secret", "other", valid},
		{"expired", "s3cret", expired},
		{"missing expiry", "s3cret", noExpiry},
		{"unexpected algorithm", "s3cret", otherAlg},
		{"garbage", "s3cret", "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseToken(tt.secret, tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestIssueTokenValidatesInput(t *testing.T) {
	t.Parallel()
	_, err := IssueToken("", "x", time.Hour, time.Now())
	assert.Error(t, err)
	_, err = IssueToken("s", "", time.Hour, time.Now())
	assert.Error(t, err)
}
