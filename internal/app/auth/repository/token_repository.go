package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"furnibles/internal/app/auth/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type tokenRepository struct {
	db *pgxpool.Pool
}

// NewTokenRepository создает PostgreSQL-репозиторий чёрного списка токенов
func NewTokenRepository(db *pgxpool.Pool) TokenRepository {
	return &tokenRepository{db: db}
}

// AddToBlacklist добавляет токен в чёрный список.
// ON CONFLICT DO NOTHING: повторный logout с тем же токеном не ошибка и не дубль.
func (r *tokenRepository) AddToBlacklist(ctx context.Context, token string, userID uuid.UUID, expiresAt time.Time) error {
	query := `
		INSERT INTO blacklisted_tokens (token, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (token) DO NOTHING
	`

	_, err := r.db.Exec(ctx, query, token, userID, expiresAt, time.Now())
	if err != nil {
		return fmt.Errorf("failed to add token to blacklist: %w", err)
	}

	return nil
}

// GetBlacklisted возвращает запись чёрного списка по точному значению токена.
// Возвращает ErrNotFound, если токен не отзывался. Срок действия записи
// здесь не проверяется: это решение принимает Revocation Gate.
func (r *tokenRepository) GetBlacklisted(ctx context.Context, token string) (*entity.BlacklistedToken, error) {
	query := `
		SELECT id, token, user_id, expires_at, created_at
		FROM blacklisted_tokens
		WHERE token = $1
	`

	var bt entity.BlacklistedToken
	err := r.db.QueryRow(ctx, query, token).Scan(
		&bt.ID,
		&bt.Token,
		&bt.UserID,
		&bt.ExpiresAt,
		&bt.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get blacklisted token: %w", err)
	}

	return &bt, nil
}

// RemoveFromBlacklist удаляет запись (ленивая очистка истёкших токенов)
func (r *tokenRepository) RemoveFromBlacklist(ctx context.Context, token string) error {
	query := `DELETE FROM blacklisted_tokens WHERE token = $1`

	if _, err := r.db.Exec(ctx, query, token); err != nil {
		return fmt.Errorf("failed to remove token from blacklist: %w", err)
	}

	return nil
}

// CleanupExpired удаляет все истёкшие записи чёрного списка
func (r *tokenRepository) CleanupExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM blacklisted_tokens WHERE expires_at < $1`

	result, err := r.db.Exec(ctx, query, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired blacklisted tokens: %w", err)
	}

	return result.RowsAffected(), nil
}
