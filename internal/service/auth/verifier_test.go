package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-for-testing"

func TestNewHMACVerifierRejectsShortSecret(t *testing.T) {
	t.Parallel()

	_, err := NewHMACVerifier(config.AuthConfig{JWTSecret: "too-short"})
	assert.Error(t, err)

	v, err := NewHMACVerifier(config.AuthConfig{JWTSecret: testSecret})
	require.NoError(t, err)
	assert.NotNil(t, v)
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()
	verifier := newHMACVerifier([]byte(testSecret), func() time.Time { return fixedTime })

	sign := func(secret, tokenType string, issuedAt time.Time, lifetime time.Duration) string {
		token, err := SignToken(secret, userID, tokenType, issuedAt, lifetime)
		require.NoError(t, err)
		return token
	}

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"valid", sign(testSecret, AccessTokenType, fixedTime, time.Hour), nil},
		{"within clock skew", sign(testSecret, AccessTokenType, fixedTime.Add(-time.Hour), 59*time.Minute), nil},
		{"expired", sign(testSecret, AccessTokenType, fixedTime.Add(-2*time.Hour), time.Hour), ErrExpiredToken},
		{"wrong secret", sign("wrong-secret-that-is-long-enough-for-testing", AccessTokenType, fixedTime, time.Hour), ErrInvalidToken},
		{"refresh token", sign(testSecret, "refresh", fixedTime, time.Hour), ErrWrongTokenType},
		{"malformed", "not.a.jwt", ErrInvalidToken},
		{"empty", "", ErrMissingToken},
	}

	for _, tc := range tests {

		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			claims, err := verifier.ValidateToken(context.Background(), tc.token)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, userID, claims.UserID)
			assert.Equal(t, userID.String(), claims.Subject)
			assert.NotEmpty(t, claims.ID)
		})
	}
}

func TestValidateTokenRejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	verifier := newHMACVerifier([]byte(testSecret), time.Now)
	claims := jwtCustomClaims{
		UserID:    uuid.New(),
		TokenType: AccessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = verifier.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRequiresUserAndExpiry(t *testing.T) {
	t.Parallel()

	verifier := newHMACVerifier([]byte(testSecret), time.Now)

	noUser, err := SignToken(testSecret, uuid.Nil, AccessTokenType, time.Now(), time.Hour)
	require.NoError(t, err)
	_, err = verifier.ValidateToken(context.Background(), noUser)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtCustomClaims{
		UserID:    uuid.New(),
		TokenType: AccessTokenType,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = verifier.ValidateToken(context.Background(), noExpiry)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
