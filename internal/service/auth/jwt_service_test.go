package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/ladder-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	secret      = "test-secret-that-is-long-enough-for-testing"
	wrongSecret = "wrong-secret-that-is-long-enough-for-testing"
)

var fixedTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func sign(t *testing.T, key string, method jwt.SigningMethod, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func claimsFor(sub string, issued time.Time, lifetime time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   sub,
		IssuedAt:  jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(issued.Add(lifetime)),
		ID:        "token-1",
	}
}

func TestNewJWTService(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short"})
	assert.Error(t, err)

	svc, err := NewJWTService(config.AuthConfig{JWTSecret: secret})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	valid := claimsFor(userID.String(), fixedTime, time.Hour)
	notBefore := valid
	notBefore.NotBefore = jwt.NewNumericDate(fixedTime.Add(10 * time.Minute))
	noExpiry := valid
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name    string
		token   func(t *testing.T) string
		now     time.Time
		wantErr error
	}{
		{
			name:  "valid token",
			token: func(t *testing.T) string { return sign(t, secret, jwt.SigningMethodHS256, valid) },
			now:   fixedTime.Add(time.Minute),
		},
		{
			name:  "expired within clock skew",
			token: func(t *testing.T) string { return sign(t, secret, jwt.SigningMethodHS256, valid) },
			now:   fixedTime.Add(time.Hour + time.Minute),
		},
		{
			name:    "expired token",
			token:   func(t *testing.T) string { return sign(t, secret, jwt.SigningMethodHS256, valid) },
			now:     fixedTime.Add(2 * time.Hour),
			wantErr: ErrExpiredToken,
		},
		{
			name:    "not yet valid",
			token:   func(t *testing.T) string { return sign(t, secret, jwt.SigningMethodHS256, notBefore) },
			now:     fixedTime,
			wantErr: ErrTokenNotYetValid,
		},
		{
			name:    "invalid signature",
			token:   func(t *testing.T) string { return sign(t, wrongSecret, jwt.SigningMethodHS256, valid) },
			now:     fixedTime,
			wantErr: ErrInvalidToken,
		},
		{
			name:    "other hmac algorithm",
			token:   func(t *testing.T) string { return sign(t, secret, jwt.SigningMethodHS512, valid) },
			now:     fixedTime,
			wantErr: ErrInvalidToken,
		},
		{
			name:    "missing expiry",
			token:   func(t *testing.T) string { return sign(t, secret, jwt.SigningMethodHS256, noExpiry) },
			now:     fixedTime,
			wantErr: ErrInvalidToken,
		},
		{
			name: "subject is not a uuid",
			token: func(t *testing.T) string {
				return sign(t, secret, jwt.SigningMethodHS256, claimsFor("ada@example.com", fixedTime, time.Hour))
			},
			now:     fixedTime,
			wantErr: ErrInvalidSubject,
		},
		{
			name:    "malformed token",
			token:   func(*testing.T) string { return "this.is.not.a.valid.jwt.token" },
			now:     fixedTime,
			wantErr: ErrInvalidToken,
		},
		{
			name:    "empty token",
			token:   func(*testing.T) string { return "" },
			now:     fixedTime,
			wantErr: ErrMissingToken,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			now := tt.now
			svc, err := newHMACJWTService(secret, func() time.Time { return now }, DefaultClockSkew)
			require.NoError(t, err)

			claims, err := svc.ValidateToken(context.Background(), tt.token(t))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, userID, claims.UserID)
			assert.Equal(t, userID.String(), claims.Subject)
			assert.Equal(t, "token-1", claims.ID)
			assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
			assert.Equal(t, fixedTime.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
		})
	}
}
