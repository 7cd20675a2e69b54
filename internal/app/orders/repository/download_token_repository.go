package repository

import (
	"context"
	"errors"
	"time"

	"furnibles/internal/app/orders/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type downloadTokenRepository struct {
	db *gorm.DB
}

// NewDownloadTokenRepository создает новый репозиторий токенов скачивания
func NewDownloadTokenRepository(db *gorm.DB) DownloadTokenRepository {
	return &downloadTokenRepository{db: db}
}

// Create создает токен скачивания
func (r *downloadTokenRepository) Create(ctx context.Context, token *entity.DownloadToken) error {
	result := r.db.WithContext(ctx).Create(token)
	return result.Error
}

// GetByToken получает токен по его значению
func (r *downloadTokenRepository) GetByToken(ctx context.Context, token string) (*entity.DownloadToken, error) {
	var dt entity.DownloadToken
	result := r.db.WithContext(ctx).First(&dt, "token = ?", token)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, result.Error
	}

	return &dt, nil
}

// GetByOrderAndProduct получает токен по ключу идемпотентности (заказ, товар)
func (r *downloadTokenRepository) GetByOrderAndProduct(ctx context.Context, orderID, productID uuid.UUID) (*entity.DownloadToken, error) {
	var dt entity.DownloadToken
	result := r.db.WithContext(ctx).
		First(&dt, "order_id = ? AND product_id = ?", orderID, productID)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, result.Error
	}

	return &dt, nil
}

// ListByOrder получает все токены заказа
func (r *downloadTokenRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]entity.DownloadToken, error) {
	var tokens []entity.DownloadToken
	result := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Find(&tokens)

	if result.Error != nil {
		return nil, result.Error
	}

	return tokens, nil
}

// ConsumeDownload атомарно списывает одно скачивание.
// Guarded UPDATE: при конкурентных запросах счётчик не перескочит лимит.
func (r *downloadTokenRepository) ConsumeDownload(ctx context.Context, token string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.DownloadToken{}).
		Where("token = ? AND downloads_used < download_limit", token).
		UpdateColumn("downloads_used", gorm.Expr("downloads_used + 1"))

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// DeleteExpired удаляет все истёкшие токены скачивания
func (r *downloadTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&entity.DownloadToken{})

	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}
