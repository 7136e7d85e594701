package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPasetoKey = []byte("0123456789abcdef0123456789abcdef")

func tokenServices(t *testing.T) map[string]TokenService {
	t.Helper()
	p, err := NewPasetoService(testPasetoKey)
	require.NoError(t, err)
	j, err := NewJWTService([]byte("jwt-test-secret"))
	require.NoError(t, err)
	return map[string]TokenService{"paseto": p, "jwt": j}
}

func TestTokenService_RoundTrip(t *testing.T) {
	userID := uuid.New()

	for name, svc := range tokenServices(t) {
		t.Run(name, func(t *testing.T) {
			token, err := svc.CreateToken(userID, "ada@example.com", 30*24*time.Hour)
			require.NoError(t, err)

			claims, err := svc.VerifyToken(token)
			require.NoError(t, err)
			assert.Equal(t, userID, claims.UserID)
			assert.Equal(t, "ada@example.com", claims.Email)
			assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), claims.ExpiresAt, 5*time.Second)
		})
	}
}

func TestTokenService_Expired(t *testing.T) {
	for name, svc := range tokenServices(t) {
		t.Run(name, func(t *testing.T) {
			token, err := svc.CreateToken(uuid.New(), "ada@example.com", -time.Minute)
			require.NoError(t, err)

			_, err = svc.VerifyToken(token)
			assert.ErrorIs(t, err, ErrExpiredToken)
		})
	}
}

func TestTokenService_Garbage(t *testing.T) {
	for name, svc := range tokenServices(t) {
		t.Run(name, func(t *testing.T) {
			_, err := svc.VerifyToken("not-a-token")
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenService_WrongKey(t *testing.T) {
	p, _ := NewPasetoService(testPasetoKey)
	other, _ := NewPasetoService([]byte("fedcba9876543210fedcba9876543210"))
	token, err := p.CreateToken(uuid.New(), "ada@example.com", time.Hour)
	require.NoError(t, err)
	_, err = other.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	j, _ := NewJWTService([]byte("one"))
	otherJ, _ := NewJWTService([]byte("two"))
	token, err = j.CreateToken(uuid.New(), "ada@example.com", time.Hour)
	require.NoError(t, err)
	_, err = otherJ.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenServices_Validation(t *testing.T) {
	_, err := NewPasetoService([]byte("short"))
	assert.Error(t, err)

	_, err = NewJWTService(nil)
	assert.Error(t, err)
}
