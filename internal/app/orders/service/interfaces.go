package service

import (
	"context"

	"furnibles/internal/app/orders/entity"

	"github.com/google/uuid"
)

// OrderServiceInterface определяет контракт сервиса заказов
type OrderServiceInterface interface {
	AddToCart(ctx context.Context, buyerID uuid.UUID, req *entity.AddCartItemRequest) error
	GetCart(ctx context.Context, buyerID uuid.UUID) (*entity.CartResponse, error)
	RemoveFromCart(ctx context.Context, buyerID, productID uuid.UUID) error
	Checkout(ctx context.Context, buyerID uuid.UUID) (*entity.Order, error)
	// HandlePaymentSucceeded идемпотентно обрабатывает webhook оплаты:
	// повторная доставка не создаёт дубликатов токенов и транзакций
	HandlePaymentSucceeded(ctx context.Context, req *entity.PaymentWebhookRequest) (*entity.Order, error)
	GetOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*entity.Order, error)
	ListUserOrders(ctx context.Context, buyerID uuid.UUID) ([]entity.Order, error)
	ListOrderDownloads(ctx context.Context, buyerID, orderID uuid.UUID) ([]entity.DownloadToken, error)
	CancelOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*entity.Order, error)
	RedeemDownload(ctx context.Context, buyerID uuid.UUID, token string) (*entity.DownloadGrant, error)
	// VerifyPurchase проверяет, что покупатель завершил покупку товара.
	// Используется сервисом отзывов перед созданием отзыва.
	VerifyPurchase(ctx context.Context, buyerID, productID uuid.UUID) (*entity.Order, *entity.OrderItem, error)
	ListSellerTransactions(ctx context.Context, sellerID uuid.UUID) ([]entity.Transaction, error)
	CleanupExpiredDownloads(ctx context.Context) (int64, error)
}
