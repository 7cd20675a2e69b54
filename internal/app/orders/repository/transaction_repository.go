package repository

import (
	"context"

	"furnibles/internal/app/orders/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository создает новый репозиторий леджера расчётов
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// CreateBatch создает пакет записей леджера
func (r *transactionRepository) CreateBatch(ctx context.Context, transactions []entity.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Create(&transactions)
	return result.Error
}

// ExistsForOrder проверяет, созданы ли записи леджера для заказа.
// Используется как защита от дублей при повторной доставке webhook.
func (r *transactionRepository) ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&entity.Transaction{}).
		Where("order_id = ?", orderID).
		Count(&count)

	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}

// ListBySeller получает записи леджера продавца
func (r *transactionRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]entity.Transaction, error) {
	var transactions []entity.Transaction
	result := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&transactions)

	if result.Error != nil {
		return nil, result.Error
	}

	return transactions, nil
}
