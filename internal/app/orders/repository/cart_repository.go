package repository

import (
	"context"

	"furnibles/internal/app/orders/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type cartRepository struct {
	db *gorm.DB
}

// NewCartRepository создает новый репозиторий корзины
func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

// Upsert добавляет позицию или обновляет существующую пару (покупатель, товар)
func (r *cartRepository) Upsert(ctx context.Context, item *entity.CartItem) error {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "buyer_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"seller_id", "title", "price_cents", "quantity",
		}),
	}).Create(item)

	return result.Error
}

// GetByBuyerID получает все позиции корзины покупателя
func (r *cartRepository) GetByBuyerID(ctx context.Context, buyerID uuid.UUID) ([]entity.CartItem, error) {
	var items []entity.CartItem
	result := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("created_at ASC").
		Find(&items)

	if result.Error != nil {
		return nil, result.Error
	}

	return items, nil
}

// Remove удаляет позицию из корзины
func (r *cartRepository) Remove(ctx context.Context, buyerID, productID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("buyer_id = ? AND product_id = ?", buyerID, productID).
		Delete(&entity.CartItem{})

	return result.Error
}

// Clear очищает корзину покупателя.
// Вызывается только после того, как заказ надёжно создан.
func (r *cartRepository) Clear(ctx context.Context, buyerID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Delete(&entity.CartItem{})

	return result.Error
}
