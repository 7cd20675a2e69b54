package repository

import (
	"context"
	"errors"

	"furnibles/internal/app/orders/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository создает новый репозиторий заказов
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create создает заказ вместе с позициями
func (r *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	result := r.db.WithContext(ctx).Create(order)
	return result.Error
}

// GetByID получает заказ с позициями по ID
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	var order entity.Order
	result := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, result.Error
	}

	return &order, nil
}

// GetByOrderNumber получает заказ по номеру.
// forUpdate=true блокирует строку до конца транзакции (SELECT ... FOR UPDATE)
func (r *orderRepository) GetByOrderNumber(ctx context.Context, number string, forUpdate bool) (*entity.Order, error) {
	query := r.db.WithContext(ctx).Preload("Items")
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var order entity.Order
	result := query.First(&order, "order_number = ?", number)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, result.Error
	}

	return &order, nil
}

// GetByBuyerID получает все заказы покупателя
func (r *orderRepository) GetByBuyerID(ctx context.Context, buyerID uuid.UUID) ([]entity.Order, error) {
	var orders []entity.Order
	result := r.db.WithContext(ctx).
		Preload("Items").
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&orders)

	if result.Error != nil {
		return nil, result.Error
	}

	return orders, nil
}

// UpdateStatus обновляет статус и платёжные поля заказа
func (r *orderRepository) UpdateStatus(ctx context.Context, order *entity.Order) error {
	result := r.db.WithContext(ctx).Model(order).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"status":       order.Status,
			"payment_ref":  order.PaymentRef,
			"paid_at":      order.PaidAt,
			"completed_at": order.CompletedAt,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// FindCompletedPurchase ищет завершённый заказ покупателя, содержащий товар.
// Используется Review Core как проверка «подтверждённой покупки».
func (r *orderRepository) FindCompletedPurchase(ctx context.Context, buyerID, productID uuid.UUID) (*entity.Order, *entity.OrderItem, error) {
	var item entity.OrderItem
	result := r.db.WithContext(ctx).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.buyer_id = ? AND orders.status = ? AND order_items.product_id = ?",
			buyerID, entity.OrderStatusCompleted, productID).
		First(&item)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotPurchased
		}
		return nil, nil, result.Error
	}

	var order entity.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", item.OrderID).Error; err != nil {
		return nil, nil, err
	}

	return &order, &item, nil
}
