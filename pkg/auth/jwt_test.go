package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventops/backoffice-api/internal/model"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	user := &model.User{
		Base:    model.Base{ID: uuid.New()},
		Email:   "admin@example.com",
		IsAdmin: true,
	}

	token, expiresAt, err := svc.GenerateToken(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.True(t, claims.IsAdmin)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	user := &model.User{Base: model.Base{ID: uuid.New()}, Email: "admin@example.com"}

	token, _, err := NewJWTService("secret-a", time.Hour).GenerateToken(user)
	require.NoError(t, err)

	_, err = NewJWTService("secret-b", time.Hour).ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	user := &model.User{Base: model.Base{ID: uuid.New()}, Email: "admin@example.com"}

	svc := &jwtService{secret: []byte("test-secret"), expiry: -time.Hour}
	token, _, err := svc.GenerateToken(user)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	_, err := svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}
