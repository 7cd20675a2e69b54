package entity

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus представляет статусы заказа
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"    // Создан, ожидает оплаты
	OrderStatusProcessing OrderStatus = "processing" // Платёж в обработке у провайдера
	OrderStatusPaid       OrderStatus = "paid"       // Оплачен, идёт выдача токенов
	OrderStatusCompleted  OrderStatus = "completed"  // Токены выданы, можно оставлять отзыв
	OrderStatusCancelled  OrderStatus = "cancelled"  // Отменён
	OrderStatusRefunded   OrderStatus = "refunded"   // Возврат средств
	OrderStatusDisputed   OrderStatus = "disputed"   // Открыт спор
)

// IsTerminal сообщает, является ли статус финальным
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled || s == OrderStatusRefunded
}

// Order представляет заказ на цифровые чертежи.
// Все суммы в минорных единицах валюты (центы),
// инвариант: TotalCents = SubtotalCents + PlatformFeeCents.
type Order struct {
	ID               uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	OrderNumber      string      `json:"order_number" gorm:"type:varchar(32);uniqueIndex;not null"`
	BuyerID          uuid.UUID   `json:"buyer_id" gorm:"type:uuid;not null;index"`
	Status           OrderStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	SubtotalCents    int64       `json:"subtotal_cents" gorm:"not null"`
	PlatformFeeCents int64       `json:"platform_fee_cents" gorm:"not null"`
	TotalCents       int64       `json:"total_cents" gorm:"not null"`
	Currency         string      `json:"currency" gorm:"type:varchar(10);not null;default:'USD'"`
	PaymentRef       string      `json:"payment_ref,omitempty" gorm:"type:varchar(128)"`
	PaidAt           *time.Time  `json:"paid_at,omitempty"`
	CompletedAt      *time.Time  `json:"completed_at,omitempty"`
	CreatedAt        time.Time   `json:"created_at" gorm:"autoCreateTime"`
	Items            []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName указывает имя таблицы для GORM
func (Order) TableName() string {
	return "orders"
}

// OrderItem представляет позицию заказа.
// PriceCents - снимок цены на момент покупки, последующие изменения
// цены товара на него не влияют.
type OrderItem struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID  uuid.UUID `json:"product_id" gorm:"type:uuid;not null"`
	SellerID   uuid.UUID `json:"seller_id" gorm:"type:uuid;not null"`
	Title      string    `json:"title" gorm:"type:varchar(255);not null"`
	PriceCents int64     `json:"price_cents" gorm:"not null"`
	Quantity   int       `json:"quantity" gorm:"not null;check:quantity > 0"`
}

// TableName указывает имя таблицы для GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// SubtotalCents возвращает стоимость позиции
func (i *OrderItem) SubtotalCents() int64 {
	return i.PriceCents * int64(i.Quantity)
}

// CartItem представляет позицию корзины покупателя.
// Одна запись на пару (покупатель, товар).
type CartItem struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	BuyerID    uuid.UUID `json:"buyer_id" gorm:"type:uuid;not null;uniqueIndex:idx_cart_buyer_product"`
	ProductID  uuid.UUID `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:idx_cart_buyer_product"`
	SellerID   uuid.UUID `json:"seller_id" gorm:"type:uuid;not null"`
	Title      string    `json:"title" gorm:"type:varchar(255);not null"`
	PriceCents int64     `json:"price_cents" gorm:"not null"`
	Quantity   int       `json:"quantity" gorm:"not null;check:quantity > 0"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName указывает имя таблицы для GORM
func (CartItem) TableName() string {
	return "cart_items"
}

// DownloadToken - ограниченное по времени и числу скачиваний право
// на скачивание купленного чертежа. Уникальный индекс (order, product)
// служит ключом идемпотентности при повторной доставке webhook.
type DownloadToken struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Token         string    `json:"token" gorm:"type:varchar(64);uniqueIndex;not null"`
	OrderID       uuid.UUID `json:"order_id" gorm:"type:uuid;not null;uniqueIndex:idx_token_order_product"`
	ProductID     uuid.UUID `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:idx_token_order_product"`
	BuyerID       uuid.UUID `json:"buyer_id" gorm:"type:uuid;not null;index"`
	DownloadLimit int       `json:"download_limit" gorm:"not null"`
	DownloadsUsed int       `json:"downloads_used" gorm:"not null;default:0"`
	ExpiresAt     time.Time `json:"expires_at" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName указывает имя таблицы для GORM
func (DownloadToken) TableName() string {
	return "download_tokens"
}

// Remaining возвращает оставшееся число скачиваний
func (t *DownloadToken) Remaining() int {
	remaining := t.DownloadLimit - t.DownloadsUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TransactionType представляет тип записи в леджере
type TransactionType string

const (
	TransactionTypeSale        TransactionType = "sale"         // Выручка продавца (за вычетом комиссии)
	TransactionTypePlatformFee TransactionType = "platform_fee" // Комиссия площадки
)

// Transaction - запись леджера расчётов. Для каждой позиции заказа
// создаётся пара sale + platform_fee, сумма пары равна стоимости позиции.
type Transaction struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID       `json:"order_id" gorm:"type:uuid;not null;index"`
	OrderItemID uuid.UUID       `json:"order_item_id" gorm:"type:uuid;not null"`
	SellerID    uuid.UUID       `json:"seller_id" gorm:"type:uuid;not null;index"`
	Type        TransactionType `json:"type" gorm:"type:varchar(20);not null"`
	AmountCents int64           `json:"amount_cents" gorm:"not null"`
	CreatedAt   time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

// TableName указывает имя таблицы для GORM
func (Transaction) TableName() string {
	return "transactions"
}

// OrderEvent представляет событие заказа для Kafka
type OrderEvent struct {
	EventType        string      `json:"event_type"` // ORDER_CREATED, ORDER_PAID
	OrderID          uuid.UUID   `json:"order_id"`
	OrderNumber      string      `json:"order_number"`
	BuyerID          uuid.UUID   `json:"buyer_id"`
	TotalCents       int64       `json:"total_cents"`
	PlatformFeeCents int64       `json:"platform_fee_cents"`
	Currency         string      `json:"currency"`
	Status           OrderStatus `json:"status"`
	ItemsCount       int         `json:"items_count"`
	Timestamp        time.Time   `json:"timestamp"`
}
