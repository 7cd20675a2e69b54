package repository

import (
	"context"
	"errors"
	"time"

	"furnibles/internal/app/auth/entity"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("not found")
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*entity.User, error)
	GetByResetToken(ctx context.Context, token string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// TokenRepository - хранилище чёрного списка отозванных токенов.
// AddToBlacklist обязан быть идемпотентным: два конкурентных logout
// с одним токеном не должны приводить к ошибке или дублю.
type TokenRepository interface {
	AddToBlacklist(ctx context.Context, token string, userID uuid.UUID, expiresAt time.Time) error
	GetBlacklisted(ctx context.Context, token string) (*entity.BlacklistedToken, error)
	RemoveFromBlacklist(ctx context.Context, token string) error
	CleanupExpired(ctx context.Context) (int64, error)
}
