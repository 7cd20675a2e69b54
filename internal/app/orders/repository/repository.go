package repository

import (
	"context"
	"errors"

	"furnibles/internal/app/orders/entity"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrTokenNotFound = errors.New("download token not found")
	ErrNotPurchased  = errors.New("no completed purchase found")
)

type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	// GetByOrderNumber с forUpdate=true берёт блокировку строки:
	// защита от конкурентной доставки одного webhook
	GetByOrderNumber(ctx context.Context, number string, forUpdate bool) (*entity.Order, error)
	GetByBuyerID(ctx context.Context, buyerID uuid.UUID) ([]entity.Order, error)
	UpdateStatus(ctx context.Context, order *entity.Order) error
	// FindCompletedPurchase ищет завершённый заказ покупателя, содержащий товар
	FindCompletedPurchase(ctx context.Context, buyerID, productID uuid.UUID) (*entity.Order, *entity.OrderItem, error)
}

type CartRepository interface {
	Upsert(ctx context.Context, item *entity.CartItem) error
	GetByBuyerID(ctx context.Context, buyerID uuid.UUID) ([]entity.CartItem, error)
	Remove(ctx context.Context, buyerID, productID uuid.UUID) error
	Clear(ctx context.Context, buyerID uuid.UUID) error
}

type DownloadTokenRepository interface {
	Create(ctx context.Context, token *entity.DownloadToken) error
	GetByToken(ctx context.Context, token string) (*entity.DownloadToken, error)
	GetByOrderAndProduct(ctx context.Context, orderID, productID uuid.UUID) (*entity.DownloadToken, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]entity.DownloadToken, error)
	// ConsumeDownload атомарно списывает одно скачивание;
	// false - лимит исчерпан
	ConsumeDownload(ctx context.Context, token string) (bool, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type TransactionRepository interface {
	CreateBatch(ctx context.Context, transactions []entity.Transaction) error
	ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]entity.Transaction, error)
}

// Store объединяет репозитории заказов и даёт транзакционную границу.
// Внутри InTx все репозитории работают через одну транзакцию БД:
// падение в середине последовательности откатывает её целиком.
type Store interface {
	Orders() OrderRepository
	Carts() CartRepository
	DownloadTokens() DownloadTokenRepository
	Transactions() TransactionRepository
	InTx(ctx context.Context, fn func(Store) error) error
}
