package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"furnibles/internal/app/auth/entity"
	"furnibles/internal/app/auth/repository/mocks"
	"furnibles/internal/app/auth/service"
	"furnibles/internal/app/auth/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Хелперы для создания тестового окружения

func newTestAuthHandler() (*AuthHandler, *mocks.MockUserRepository, *mocks.MockTokenRepository, *util.JWTManager) {
	userRepo := new(mocks.MockUserRepository)
	tokenRepo := new(mocks.MockTokenRepository)
	jwtManager := util.NewJWTManager("test-secret-key", 15*time.Minute)

	authService := service.NewAuthService(userRepo, tokenRepo, jwtManager, time.Hour)
	handler := NewAuthHandler(authService)

	return handler, userRepo, tokenRepo, jwtManager
}

func newVerifiedUser() *entity.User {
	hash, _ := util.HashPassword("password123")
	return &entity.User{
		ID:           uuid.New(),
		Email:        "buyer@example.com",
		PasswordHash: hash,
		Name:         "Test Buyer",
		Role:         entity.RoleBuyer,
		IsVerified:   true,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
}

func performJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// ==================== Register Tests ====================

func TestAuthHandler_Register_Success(t *testing.T) {
	handler, userRepo, _, _ := newTestAuthHandler()

	userRepo.On("GetByEmail", mock.Anything, "new@example.com").Return(nil, pgx.ErrNoRows)
	userRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.User")).Return(nil)

	router := gin.New()
	router.POST("/auth/register", handler.Register)

	rec := performJSON(router, http.MethodPost, "/auth/register", entity.RegisterRequest{
		Email:    "new@example.com",
		Password: "password123",
		Name:     "New User",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp entity.RegisterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.UserID)
	// Токенов в ответе нет: сначала подтверждение email
	assert.NotContains(t, rec.Body.String(), "access_token")
}

func TestAuthHandler_Register_WireContract(t *testing.T) {
	handler, userRepo, _, _ := newTestAuthHandler()

	userRepo.On("GetByEmail", mock.Anything, "wire@example.com").Return(nil, pgx.ErrNoRows)
	userRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.User")).Return(nil)

	router := gin.New()
	router.POST("/auth/register", handler.Register)

	// Сырые ключи JSON, как их шлёт клиент: единое поле name, не first/last
	rec := performJSON(router, http.MethodPost, "/auth/register", map[string]string{
		"email":    "wire@example.com",
		"password": "password123",
		"name":     "Wire Tester",
		"role":     "seller",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAuthHandler_Register_Duplicate(t *testing.T) {
	handler, userRepo, _, _ := newTestAuthHandler()

	userRepo.On("GetByEmail", mock.Anything, "buyer@example.com").Return(newVerifiedUser(), nil)

	router := gin.New()
	router.POST("/auth/register", handler.Register)

	rec := performJSON(router, http.MethodPost, "/auth/register", entity.RegisterRequest{
		Email:    "buyer@example.com",
		Password: "password123",
		Name:     "Duplicate",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAuthHandler_Register_InvalidBody(t *testing.T) {
	handler, _, _, _ := newTestAuthHandler()

	router := gin.New()
	router.POST("/auth/register", handler.Register)

	// Слишком короткий пароль
	rec := performJSON(router, http.MethodPost, "/auth/register", entity.RegisterRequest{
		Email:    "new@example.com",
		Password: "short",
		Name:     "New User",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ==================== Login Tests ====================

func TestAuthHandler_Login_Success(t *testing.T) {
	handler, userRepo, _, _ := newTestAuthHandler()

	user := newVerifiedUser()
	userRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
	userRepo.On("UpdateLastLogin", mock.Anything, user.ID, mock.AnythingOfType("time.Time")).Return(nil)

	router := gin.New()
	router.POST("/auth/login", handler.Login)

	rec := performJSON(router, http.MethodPost, "/auth/login", entity.LoginRequest{
		Email:    user.Email,
		Password: "password123",
	})

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp entity.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, user.Email, resp.User.Email)
	// Хэш пароля не утекает в ответ
	assert.NotContains(t, rec.Body.String(), "password_hash")
}

func TestAuthHandler_Login_Unverified(t *testing.T) {
	handler, userRepo, _, _ := newTestAuthHandler()

	user := newVerifiedUser()
	user.IsVerified = false
	userRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

	router := gin.New()
	router.POST("/auth/login", handler.Login)

	rec := performJSON(router, http.MethodPost, "/auth/login", entity.LoginRequest{
		Email:    user.Email,
		Password: "password123",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "not verified")
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	handler, userRepo, _, _ := newTestAuthHandler()

	user := newVerifiedUser()
	userRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

	router := gin.New()
	router.POST("/auth/login", handler.Login)

	rec := performJSON(router, http.MethodPost, "/auth/login", entity.LoginRequest{
		Email:    user.Email,
		Password: "wrong-password",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// ==================== Logout Tests ====================

func TestAuthHandler_Logout_Success(t *testing.T) {
	handler, _, tokenRepo, jwtManager := newTestAuthHandler()

	userID := uuid.New()
	token, _ := jwtManager.GenerateAccessToken(userID, "buyer@example.com", entity.RoleBuyer)
	tokenRepo.On("AddToBlacklist", mock.Anything, token, userID, mock.AnythingOfType("time.Time")).Return(nil)

	router := gin.New()
	router.POST("/auth/logout", handler.Logout)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	tokenRepo.AssertExpectations(t)
}

func TestAuthHandler_Logout_NoHeader(t *testing.T) {
	handler, _, _, _ := newTestAuthHandler()

	router := gin.New()
	router.POST("/auth/logout", handler.Logout)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ==================== Password Reset Tests ====================

func TestAuthHandler_ForgotPassword_SameResponseForAnyEmail(t *testing.T) {
	handler, userRepo, _, _ := newTestAuthHandler()

	known := newVerifiedUser()
	userRepo.On("GetByEmail", mock.Anything, known.Email).Return(known, nil)
	userRepo.On("Update", mock.Anything, mock.AnythingOfType("*entity.User")).Return(nil)
	userRepo.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, pgx.ErrNoRows)

	router := gin.New()
	router.POST("/auth/forgot-password", handler.ForgotPassword)

	recKnown := performJSON(router, http.MethodPost, "/auth/forgot-password", entity.ForgotPasswordRequest{Email: known.Email})
	recGhost := performJSON(router, http.MethodPost, "/auth/forgot-password", entity.ForgotPasswordRequest{Email: "ghost@example.com"})

	// Ответы идентичны: существование email не раскрывается
	assert.Equal(t, http.StatusOK, recKnown.Code)
	assert.Equal(t, http.StatusOK, recGhost.Code)
	assert.Equal(t, recKnown.Body.String(), recGhost.Body.String())
}

func TestAuthHandler_ResetPassword_InvalidToken(t *testing.T) {
	handler, userRepo, _, _ := newTestAuthHandler()

	userRepo.On("GetByResetToken", mock.Anything, "bogus").Return(nil, pgx.ErrNoRows)

	router := gin.New()
	router.POST("/auth/reset-password", handler.ResetPassword)

	rec := performJSON(router, http.MethodPost, "/auth/reset-password", entity.ResetPasswordRequest{
		Token:       "bogus",
		NewPassword: "new-password-1",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ==================== Verify Email Tests ====================

func TestAuthHandler_VerifyEmail_Success(t *testing.T) {
	handler, userRepo, _, _ := newTestAuthHandler()

	user := newVerifiedUser()
	user.IsVerified = false
	user.VerificationToken = "verify-token"
	userRepo.On("GetByVerificationToken", mock.Anything, "verify-token").Return(user, nil)
	userRepo.On("Update", mock.Anything, user).Return(nil)

	router := gin.New()
	router.POST("/auth/verify-email", handler.VerifyEmail)

	rec := performJSON(router, http.MethodPost, "/auth/verify-email", entity.VerifyEmailRequest{Token: "verify-token"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, user.IsVerified)
}
