package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"furnibles/internal/app/auth/entity"
	"furnibles/internal/app/auth/repository"
	"furnibles/internal/app/auth/repository/mocks"
	"furnibles/internal/app/auth/util"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Хелперы для создания тестовых данных
func newTestJWTManager() *util.JWTManager {
	return util.NewJWTManager("test-secret-key", 15*time.Minute)
}

func newTestService(userRepo *mocks.MockUserRepository, tokenRepo *mocks.MockTokenRepository) *AuthService {
	return NewAuthService(userRepo, tokenRepo, newTestJWTManager(), time.Hour)
}

func newTestUser() *entity.User {
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

// ==================== Register Tests ====================

func TestAuthService_Register_Success(t *testing.T) {
	ctx := context.Background()
	userRepo := new(mocks.MockUserRepository)
	tokenRepo := new(mocks.MockTokenRepository)

	userRepo.On("GetByEmail", ctx, "new@example.com").Return(nil, pgx.ErrNoRows)
	userRepo.On("Create", ctx, mock.AnythingOfType("*entity.User")).Return(nil)

	service := newTestService(userRepo, tokenRepo)

	user, err := service.Register(ctx, &entity.RegisterRequest{
		Email:    "new@example.com",
		Password: "password123",
		Name:     "New User",
	})

	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, entity.RoleBuyer, user.Role)
	assert.False(t, user.IsVerified, "new user must confirm email before login")
	assert.True(t, user.IsActive)
	assert.NotEmpty(t, user.VerificationToken)
	assert.NotEqual(t, "password123", user.PasswordHash)
	userRepo.AssertExpectations(t)
}

func TestAuthService_Register_SellerRole(t *testing.T) {
	ctx := context.Background()
	userRepo := new(mocks.MockUserRepository)
	tokenRepo := new(mocks.MockTokenRepository)

	userRepo.On("GetByEmail", ctx, "seller@example.com").Return(nil, pgx.ErrNoRows)
	userRepo.On("Create", ctx, mock.AnythingOfType("*entity.User")).Return(nil)

	service := newTestService(userRepo, tokenRepo)

	user, err := service.Register(ctx, &entity.RegisterRequest{
		Email:    "seller@example.com",
		Password: "password123",
		Name:     "Seller",
		Role:     entity.RoleSeller,
	})

	require.NoError(t, err)
	assert.Equal(t, entity.RoleSeller, user.Role)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	userRepo := new(mocks.MockUserRepository)
	tokenRepo := new(mocks.MockTokenRepository)

	userRepo.On("GetByEmail", ctx, "buyer@example.com").Return(newTestUser(), nil)

	service := newTestService(userRepo, tokenRepo)

	user, err := service.Register(ctx, &entity.RegisterRequest{
		Email:    "buyer@example.com",
		Password: "password123",
		Name:     "Duplicate",
	})

	assert.ErrorIs(t, err, ErrUserExists)
	assert.Nil(t, user)
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// ==================== Login Tests ====================

func TestAuthService_Login_Success(t *testing.T) {
	ctx := context.Background()
	userRepo := new(mocks.MockUserRepository)
	tokenRepo := new(mocks.MockTokenRepository)

	user := newTestUser()
	userRepo.On("GetByEmail", ctx, user.Email).Return(user, nil)
	userRepo.On("UpdateLastLogin", ctx, user.ID, mock.AnythingOfType("time.Time")).Return(nil)

	service := newTestService(userRepo, tokenRepo)

	resp, err := service.Login(ctx, &entity.LoginRequest{
		Email:    user.Email,
		Password: "password123",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, user.Email, resp.User.Email)

	// Выданный токен валиден и несёт правильные claims
	claims, err := service.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Role, claims.Role)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	ctx := context.Background()
	userRepo := new(mocks.MockUserRepository)
	tokenRepo := new(mocks.MockTokenRepository)

	user := newTestUser()
	userRepo.On("GetByEmail", ctx, user.Email).Return(user, nil)

	service := newTestService(userRepo, tokenRepo)

	resp, err := service.Login(ctx, &entity.LoginRequest{
		Email:    user.Email,
		Password: "wrong-password",
	})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, resp)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	ctx := context.Background()
	userRepo := new(mocks.MockUserRepository)
	tokenRepo := new(mocks.MockTokenRepository)

	userRepo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, pgx.ErrNoRows)

	service := newTestService(userRepo, tokenRepo)

	_, err := service.Login(ctx, &entity.LoginRequest{
		Email:    "ghost@example.com",
		Password: "password123",
	})

	// Тот же ответ, что и при неверном пароле - перебор email невозможен
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Login_UnverifiedEmail(t *testing.T) {
	ctx := context.Background()
	userRepo := new(mocks.MockUserRepository)
	tokenRepo := new(mocks.MockTokenRepository)

	user := newTestUser()
	user.IsVerified = false
	userRepo.On("GetByEmail", ctx, user.Email).Return(user, nil)

	service := newTestService(userRepo, tokenRepo)

	_, err := service.Login(ctx, &entity.LoginRequest{
		Email:    user.Email,
		Password: "password123",
	})

	assert.ErrorIs(t, err, ErrEmailNotVerified)
}

func TestAuthService_Login_InactiveAccount(t *testing.T) {
	ctx := context.Background()
	userRepo := new(mocks.MockUserRepository)
	tokenRepo := new(mocks.MockTokenRepository)

	user := newTestUser()
	user.IsActive = false
	userRepo.On("GetByEmail", ctx, user.Email).Return(user, nil)

	service := newTestService(userRepo, tokenRepo)

	_, err := service.Login(ctx, &entity.LoginRequest{
		Email:    user.Email,
		Password: "password123",
	})

	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestAuthService_Login_LastLoginFailureDoesNotBreakLogin(t *testing.T) {
	ctx := context.Background()
	userRepo := new(mocks.MockUserRepository)
	tokenRepo := new(mocks.MockTokenRepository)

	user := newTestUser()
	userRepo.On("GetByEmail", ctx, user.Email).Return(user, nil)
	userRepo.On("UpdateLastLogin", ctx, user.ID, mock.AnythingOfType("time.Time")).Return(errors.New("db down"))

	service := newTestService(userRepo, tokenRepo)

	resp, err := service.Login(ctx, &entity.LoginRequest{
		Email:    user.Email,
		Password: "password123",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

// ==================== Logout Tests ====================

func TestAuthService_Logout_BlacklistsToken(t *testing.T) {
	ctx := context.Background()
	userRepo := new(mocks.MockUserRepository)
	tokenRepo := new(mocks.MockTokenRepository)

	service := newTestService(userRepo, tokenRepo)

	user := newTestUser()
	token, err := service.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role)
	require.NoError(t, err)

	tokenRepo.On("AddToBlacklist", ctx, token, user.ID, mock.AnythingOfType("time.Time")).Return(nil)

	require.NoError(t, service.Logout(ctx, token))
	tokenRepo.AssertExpectations(t)
}

func TestAuthService_Logout_DoubleLogoutIdempotent(t *testing.T) {
	ctx := context.Background()
	userRepo := new(mocks.MockUserRepository)
	tokenRepo := new(mocks.MockTokenRepository)

	service := newTestService(userRepo, tokenRepo)

	user := newTestUser()
	token, err := service.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role)
	require.NoError(t, err)

	// Репозиторий идемпотентен (ON CONFLICT DO NOTHING), оба вызова успешны
	tokenRepo.On("AddToBlacklist", ctx, token, user.ID, mock.AnythingOfType("time.Time")).Return(nil).Twice()

	require.NoError(t, service.Logout(ctx, token))
	require.NoError(t, service.Logout(ctx, token))
	tokenRepo.AssertExpectations(t)
}

func TestAuthService_Logout_StoreFailureStillSucceeds(t *testing.T) {
	ctx := context.Background()
	userRepo := new(mocks.MockUserRepository)
	tokenRepo := new(mocks.MockTokenRepository)

	service := newTestService(userRepo, tokenRepo)

	user := newTestUser()
	token, err := service.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role)
	require.NoError(t, err)

	tokenRepo.On("AddToBlacklist", ctx, token, user.ID, mock.AnythingOfType("time.Time")).Return(errors.New("store down"))

	// Отзыв best-effort: пользователь всё равно разлогинен
	require.NoError(t, service.Logout(ctx, token))
}

func TestAuthService_Logout_InvalidTokenIsNoop(t *testing.T) {
	ctx := context.Background()
	userRepo := new(mocks.MockUserRepository)
	tokenRepo := new(mocks.MockTokenRepository)

	service := newTestService(userRepo, tokenRepo)

	require.NoError(t, service.Logout(ctx, "not-a-jwt"))
	tokenRepo.AssertNotCalled(t, "AddToBlacklist", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// ==================== Revocation Tests ====================

func TestAuthService_IsTokenRevoked_NotBlacklisted(t *testing.T) {
	ctx := context.Background()
	userRepo := new(mocks.MockUserRepository)
	tokenRepo := new(mocks.MockTokenRepository)

	tokenRepo.On("GetBlacklisted", ctx, "some-token").Return(nil, repository.ErrNotFound)

	service := newTestService(userRepo, tokenRepo)

	revoked, err := service.IsTokenRevoked(ctx, "some-token")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestAuthService_IsTokenRevoked_ActiveEntry(t *testing.T) {
	ctx := context.Background()
	userRepo := new(mocks.MockUserRepository)
	tokenRepo := new(mocks.MockTokenRepository)

	entry := &entity.BlacklistedToken{
		Token:     "revoked-token",
		UserID:    uuid.New(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	tokenRepo.On("GetBlacklisted", ctx, "revoked-token").Return(entry, nil)

	service := newTestService(userRepo, tokenRepo)

	revoked, err := service.IsTokenRevoked(ctx, "revoked-token")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestAuthService_IsTokenRevoked_ExpiredEntryLazilyRemoved(t *testing.T) {
	ctx := context.Background()
	userRepo := new(mocks.MockUserRepository)
	tokenRepo := new(mocks.MockTokenRepository)

	entry := &entity.BlacklistedToken{
		Token:     "stale-token",
		UserID:    uuid.New(),
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	tokenRepo.On("GetBlacklisted", ctx, "stale-token").Return(entry, nil)
	tokenRepo.On("RemoveFromBlacklist", ctx, "stale-token").Return(nil)

	service := newTestService(userRepo, tokenRepo)

	// Запись с истёкшим сроком: токен и так мёртв, запись удаляется лениво
	revoked, err := service.IsTokenRevoked(ctx, "stale-token")
	require.NoError(t, err)
	assert.False(t, revoked)
	tokenRepo.AssertCalled(t, "RemoveFromBlacklist", ctx, "stale-token")
}

func TestAuthService_IsTokenRevoked_StoreErrorPropagates(t *testing.T) {
	ctx := context.Background()
	userRepo := new(mocks.MockUserRepository)
	tokenRepo := new(mocks.MockTokenRepository)

	tokenRepo.On("GetBlacklisted", ctx, "any-token").Return(nil, errors.New("store down"))

	service := newTestService(userRepo, tokenRepo)

	// Решение fail-open принимает middleware, сервис ошибку не прячет
	_, err := service.IsTokenRevoked(ctx, "any-token")
	assert.Error(t, err)
}

// ==================== Password Reset Tests ====================

func TestAuthService_ForgotPassword_UnknownEmailSilent(t *testing.T) {
	ctx := context.Background()
	userRepo := new(mocks.MockUserRepository)
	tokenRepo := new(mocks.MockTokenRepository)

	userRepo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, pgx.ErrNoRows)

	service := newTestService(userRepo, tokenRepo)

	// Несуществующий email не отличим от существующего
	require.NoError(t, service.ForgotPassword(ctx, "ghost@example.com"))
	userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestAuthService_ForgotPassword_StoresResetToken(t *testing.T) {
	ctx := context.Background()
	userRepo := new(mocks.MockUserRepository)
	tokenRepo := new(mocks.MockTokenRepository)

	user := newTestUser()
	userRepo.On("GetByEmail", ctx, user.Email).Return(user, nil)
	userRepo.On("Update", ctx, mock.AnythingOfType("*entity.User")).Return(nil)

	service := newTestService(userRepo, tokenRepo)

	require.NoError(t, service.ForgotPassword(ctx, user.Email))
	assert.NotEmpty(t, user.ResetToken)
	require.NotNil(t, user.ResetTokenExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *user.ResetTokenExpiresAt, time.Minute)
}

func TestAuthService_ResetPassword_Success(t *testing.T) {
	ctx := context.Background()
	userRepo := new(mocks.MockUserRepository)
	tokenRepo := new(mocks.MockTokenRepository)

	user := newTestUser()
	expiresAt := time.Now().Add(time.Hour)
	user.ResetToken = "reset-token"
	user.ResetTokenExpiresAt = &expiresAt
	oldHash := user.PasswordHash

	userRepo.On("GetByResetToken", ctx, "reset-token").Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)

	service := newTestService(userRepo, tokenRepo)

	require.NoError(t, service.ResetPassword(ctx, "reset-token", "new-password-1"))
	assert.NotEqual(t, oldHash, user.PasswordHash)
	assert.Empty(t, user.ResetToken, "reset token must be single-use")
	assert.Nil(t, user.ResetTokenExpiresAt)
}

func TestAuthService_ResetPassword_ExpiredToken(t *testing.T) {
	ctx := context.Background()
	userRepo := new(mocks.MockUserRepository)
	tokenRepo := new(mocks.MockTokenRepository)

	user := newTestUser()
	expiresAt := time.Now().Add(-time.Minute)
	user.ResetToken = "stale-reset"
	user.ResetTokenExpiresAt = &expiresAt

	userRepo.On("GetByResetToken", ctx, "stale-reset").Return(user, nil)

	service := newTestService(userRepo, tokenRepo)

	err := service.ResetPassword(ctx, "stale-reset", "new-password-1")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
	userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestAuthService_ResetPassword_UnknownToken(t *testing.T) {
	ctx := context.Background()
	userRepo := new(mocks.MockUserRepository)
	tokenRepo := new(mocks.MockTokenRepository)

	userRepo.On("GetByResetToken", ctx, "unknown").Return(nil, pgx.ErrNoRows)

	service := newTestService(userRepo, tokenRepo)

	err := service.ResetPassword(ctx, "unknown", "new-password-1")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

// ==================== Email Verification Tests ====================

func TestAuthService_VerifyEmail_Success(t *testing.T) {
	ctx := context.Background()
	userRepo := new(mocks.MockUserRepository)
	tokenRepo := new(mocks.MockTokenRepository)

	user := newTestUser()
	user.IsVerified = false
	user.VerificationToken = "verify-token"

	userRepo.On("GetByVerificationToken", ctx, "verify-token").Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)

	service := newTestService(userRepo, tokenRepo)

	require.NoError(t, service.VerifyEmail(ctx, "verify-token"))
	assert.True(t, user.IsVerified)
	assert.Empty(t, user.VerificationToken, "verification token must be single-use")
}

func TestAuthService_VerifyEmail_UnknownToken(t *testing.T) {
	ctx := context.Background()
	userRepo := new(mocks.MockUserRepository)
	tokenRepo := new(mocks.MockTokenRepository)

	userRepo.On("GetByVerificationToken", ctx, "bogus").Return(nil, pgx.ErrNoRows)

	service := newTestService(userRepo, tokenRepo)

	err := service.VerifyEmail(ctx, "bogus")
	assert.ErrorIs(t, err, ErrInvalidVerifyToken)
}

// ==================== ChangePassword Tests ====================

func TestAuthService_ChangePassword_WrongCurrent(t *testing.T) {
	ctx := context.Background()
	userRepo := new(mocks.MockUserRepository)
	tokenRepo := new(mocks.MockTokenRepository)

	user := newTestUser()
	userRepo.On("GetByID", ctx, user.ID).Return(user, nil)

	service := newTestService(userRepo, tokenRepo)

	err := service.ChangePassword(ctx, user.ID, "wrong-current", "new-password-1")
	assert.ErrorIs(t, err, ErrPasswordMismatch)
	userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestAuthService_ChangePassword_Success(t *testing.T) {
	ctx := context.Background()
	userRepo := new(mocks.MockUserRepository)
	tokenRepo := new(mocks.MockTokenRepository)

	user := newTestUser()
	oldHash := user.PasswordHash
	userRepo.On("GetByID", ctx, user.ID).Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)

	service := newTestService(userRepo, tokenRepo)

	require.NoError(t, service.ChangePassword(ctx, user.ID, "password123", "new-password-1"))
	assert.NotEqual(t, oldHash, user.PasswordHash)
}
