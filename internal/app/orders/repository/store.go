package repository

import (
	"context"

	"gorm.io/gorm"
)

type gormStore struct {
	db *gorm.DB
}

// NewStore создает GORM-хранилище заказов поверх PostgreSQL
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Orders() OrderRepository {
	return &orderRepository{db: s.db}
}

func (s *gormStore) Carts() CartRepository {
	return &cartRepository{db: s.db}
}

func (s *gormStore) DownloadTokens() DownloadTokenRepository {
	return &downloadTokenRepository{db: s.db}
}

func (s *gormStore) Transactions() TransactionRepository {
	return &transactionRepository{db: s.db}
}

// InTx выполняет fn в одной транзакции БД
func (s *gormStore) InTx(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
