package service

import (
	"context"

	"furnibles/internal/app/auth/entity"
	"furnibles/internal/app/auth/util"

	"github.com/google/uuid"
)

// AuthServiceInterface - контракт сервиса аутентификации для handlers и middleware
type AuthServiceInterface interface {
	Register(ctx context.Context, req *entity.RegisterRequest) (*entity.User, error)
	Login(ctx context.Context, req *entity.LoginRequest) (*entity.LoginResponse, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
	RefreshToken(ctx context.Context, userID uuid.UUID) (string, error)
	Logout(ctx context.Context, token string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	VerifyEmail(ctx context.Context, token string) error
	GetUserByID(ctx context.Context, userID uuid.UUID) (*entity.User, error)
	ValidateToken(token string) (*util.JWTClaims, error)
	IsTokenRevoked(ctx context.Context, token string) (bool, error)
}
