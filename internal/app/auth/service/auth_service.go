package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"furnibles/internal/app/auth/entity"
	"furnibles/internal/app/auth/repository"
	"furnibles/internal/app/auth/util"
	"furnibles/pkg/logger"
	"furnibles/pkg/metrics"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AuthService обрабатывает бизнес-логику аутентификации
type AuthService struct {
	userRepo   repository.UserRepository
	tokenRepo  repository.TokenRepository
	jwtManager *util.JWTManager
	resetTTL   time.Duration
}

// NewAuthService создает новый сервис аутентификации
func NewAuthService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	jwtManager *util.JWTManager,
	resetTTL time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		jwtManager: jwtManager,
		resetTTL:   resetTTL,
	}
}

// Register регистрирует нового пользователя.
// Пользователь создаётся неподтверждённым и не логинится автоматически:
// сначала он должен подтвердить email одноразовым токеном.
func (s *AuthService) Register(ctx context.Context, req *entity.RegisterRequest) (*entity.User, error) {
	// Проверяем, существует ли пользователь с таким email
	existingUser, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, ErrUserExists
	}

	// Хэшируем пароль
	passwordHash, err := util.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Генерируем одноразовый токен подтверждения email
	verificationToken, err := util.GenerateOpaqueToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification token: %w", err)
	}

	role := req.Role
	if role == "" {
		role = entity.RoleBuyer
	}

	user := &entity.User{
		ID:                uuid.New(),
		Email:             req.Email,
		PasswordHash:      passwordHash,
		Name:              req.Name,
		Role:              role,
		IsVerified:        false,
		IsActive:          true,
		VerificationToken: verificationToken,
		CreatedAt:         time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Email-доставки нет: токен попадает в лог, как и в оригинальной системе
	logger.Info().
		Str("user_id", user.ID.String()).
		Str("verification_token", verificationToken).
		Msg("Verification token generated")

	metrics.AuthRegistrations.Inc()

	return user, nil
}

// Login выполняет вход пользователя
func (s *AuthService) Login(ctx context.Context, req *entity.LoginRequest) (*entity.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	// Пароль сравнивается только через bcrypt, plaintext никуда не попадает
	if !util.CheckPassword(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if !user.IsVerified {
		return nil, ErrEmailNotVerified
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	// Фиксируем время входа; сбой здесь не должен ломать логин
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("Failed to update last login")
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	metrics.AuthTokensIssued.Inc()

	return &entity.LoginResponse{
		AccessToken: accessToken,
		User:        user.Public(),
	}, nil
}

// ChangePassword меняет пароль после проверки текущего
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !util.CheckPassword(currentPassword, user.PasswordHash) {
		return ErrPasswordMismatch
	}

	passwordHash, err := util.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = passwordHash

	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

// RefreshToken переиздаёт access токен с теми же claims.
// Вызывается только для уже аутентифицированного пользователя.
func (s *AuthService) RefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}

	metrics.AuthTokensIssued.Inc()

	return accessToken, nil
}

// Logout отзывает access токен через чёрный список.
// Отзыв best-effort: ошибка записи в чёрный список логируется,
// но видимый пользователю logout всегда успешен.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		// Невалидный или истёкший токен отзывать не нужно
		return nil
	}

	if err := s.tokenRepo.AddToBlacklist(ctx, token, claims.UserID, claims.ExpiresAt.Time); err != nil {
		logger.Error().Err(err).Str("user_id", claims.UserID.String()).
			Msg("Failed to blacklist token, logout proceeds anyway")
		metrics.AuthBlacklistCheckFailures.Inc()
		return nil
	}

	metrics.AuthTokensRevoked.Inc()
	return nil
}

// ForgotPassword генерирует одноразовый токен сброса пароля.
// Ответ одинаков для существующего и несуществующего email,
// чтобы не раскрывать, какие адреса зарегистрированы.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			logger.Error().Err(err).Msg("Failed to look up email for password reset")
		}
		return nil
	}

	resetToken, err := util.GenerateOpaqueToken()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to generate reset token")
		return nil
	}

	expiresAt := time.Now().Add(s.resetTTL)
	user.ResetToken = resetToken
	user.ResetTokenExpiresAt = &expiresAt

	if err := s.userRepo.Update(ctx, user); err != nil {
		logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to store reset token")
		return nil
	}

	logger.Info().
		Str("user_id", user.ID.String()).
		Str("reset_token", resetToken).
		Msg("Password reset token generated")

	return nil
}

// ResetPassword устанавливает новый пароль по одноразовому токену
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.userRepo.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to get user by reset token: %w", err)
	}

	if user.ResetTokenExpiresAt == nil || time.Now().After(*user.ResetTokenExpiresAt) {
		return ErrInvalidResetToken
	}

	passwordHash, err := util.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// Токен одноразовый: сбрасываем вместе со сменой пароля
	user.PasswordHash = passwordHash
	user.ResetToken = ""
	user.ResetTokenExpiresAt = nil

	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

// VerifyEmail подтверждает email и потребляет токен подтверждения
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	user, err := s.userRepo.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInvalidVerifyToken
		}
		return fmt.Errorf("failed to get user by verification token: %w", err)
	}

	user.IsVerified = true
	user.VerificationToken = ""

	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

// GetUserByID получает пользователя для /auth/profile
func (s *AuthService) GetUserByID(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// ValidateToken проверяет подпись и срок действия JWT
func (s *AuthService) ValidateToken(token string) (*util.JWTClaims, error) {
	return s.jwtManager.ValidateToken(token)
}

// IsTokenRevoked проверяет токен по чёрному списку.
// Истёкшая запись лениво удаляется, токен при этом считается не отозванным.
// Ошибка хранилища пробрасывается наверх: решение fail-open принимает gate.
func (s *AuthService) IsTokenRevoked(ctx context.Context, token string) (bool, error) {
	entry, err := s.tokenRepo.GetBlacklisted(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}

	if time.Now().After(entry.ExpiresAt) {
		// Ленивая очистка: срок записи вышел, токен и так мёртв
		if err := s.tokenRepo.RemoveFromBlacklist(ctx, token); err != nil {
			logger.Warn().Err(err).Msg("Failed to remove expired blacklist entry")
		}
		return false, nil
	}

	return true, nil
}
