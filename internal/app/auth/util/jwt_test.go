package util

import (
	"testing"
	"time"

	"furnibles/internal/app/auth/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_GenerateAccessToken_Success(t *testing.T) {
	// Arrange
	jwtManager := NewJWTManager("test-secret-key", 15*time.Minute)
	userID := uuid.New()
	email := "seller@example.com"

	// Act
	token, err := jwtManager.GenerateAccessToken(userID, email, entity.RoleSeller)

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	// Проверяем что токен можно распарсить
	claims, err := jwtManager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, email, claims.Email)
	assert.Equal(t, entity.RoleSeller, claims.Role)
}

func TestJWTManager_ValidateToken_WrongSecret(t *testing.T) {
	// Arrange
	jwtManager := NewJWTManager("test-secret-key", 15*time.Minute)
	otherManager := NewJWTManager("different-secret", 15*time.Minute)

	token, err := jwtManager.GenerateAccessToken(uuid.New(), "buyer@example.com", entity.RoleBuyer)
	require.NoError(t, err)

	// Act
	claims, err := otherManager.ValidateToken(token)

	// Assert
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestJWTManager_ValidateToken_Expired(t *testing.T) {
	// Arrange - токен с отрицательным сроком жизни истекает сразу
	jwtManager := NewJWTManager("test-secret-key", -time.Minute)

	token, err := jwtManager.GenerateAccessToken(uuid.New(), "buyer@example.com", entity.RoleBuyer)
	require.NoError(t, err)

	// Act
	claims, err := jwtManager.ValidateToken(token)

	// Assert
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestJWTManager_ValidateToken_Garbage(t *testing.T) {
	jwtManager := NewJWTManager("test-secret-key", 15*time.Minute)

	claims, err := jwtManager.ValidateToken("not.a.jwt")

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestJWTManager_GenerateAccessToken_Unique(t *testing.T) {
	// Токены различаются за счёт IssuedAt (секундная гранулярность)
	jwtManager := NewJWTManager("test-secret-key", 15*time.Minute)
	userID := uuid.New()

	token1, err1 := jwtManager.GenerateAccessToken(userID, "buyer@example.com", entity.RoleBuyer)
	time.Sleep(1100 * time.Millisecond)
	token2, err2 := jwtManager.GenerateAccessToken(userID, "buyer@example.com", entity.RoleBuyer)

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.NotEqual(t, token1, token2)
}
