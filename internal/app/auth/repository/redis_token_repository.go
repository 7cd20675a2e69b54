package repository

import (
	"context"
	"fmt"
	"time"

	"furnibles/internal/app/auth/entity"
	"furnibles/pkg/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const serviceName = "furnibles"

type redisTokenRepository struct {
	client *redis.Client
}

// NewRedisTokenRepository создает Redis-репозиторий чёрного списка.
// TTL делает ленивую очистку ненужной: истёкшие ключи Redis удаляет сам.
func NewRedisTokenRepository(client *redis.Client) TokenRepository {
	return &redisTokenRepository{client: client}
}

func blacklistKey(token string) string {
	return fmt.Sprintf("blacklist:%s", token)
}

// AddToBlacklist добавляет токен с TTL до его естественного истечения.
// SET идемпотентен, конкурентные logout безопасны.
func (r *redisTokenRepository) AddToBlacklist(ctx context.Context, token string, userID uuid.UUID, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// Токен уже истёк, отзывать нечего
		return nil
	}

	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	if err := r.client.Set(ctx, blacklistKey(token), userID.String(), ttl).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to add token to blacklist: %w", err)
	}

	return nil
}

// GetBlacklisted возвращает запись, если токен отозван и ещё не истёк
func (r *redisTokenRepository) GetBlacklisted(ctx context.Context, token string) (*entity.BlacklistedToken, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	defer timer.ObserveDuration()

	key := blacklistKey(token)

	userIDStr, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return nil, fmt.Errorf("failed to get blacklisted token: %w", err)
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in blacklist entry: %w", err)
	}

	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get blacklist entry TTL: %w", err)
	}

	return &entity.BlacklistedToken{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

// RemoveFromBlacklist удаляет запись
func (r *redisTokenRepository) RemoveFromBlacklist(ctx context.Context, token string) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpDel)
	defer timer.ObserveDuration()

	if err := r.client.Del(ctx, blacklistKey(token)).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return fmt.Errorf("failed to remove token from blacklist: %w", err)
	}

	return nil
}

// CleanupExpired - в Redis не нужно, истёкшие ключи удаляются по TTL
func (r *redisTokenRepository) CleanupExpired(ctx context.Context) (int64, error) {
	return 0, nil
}
