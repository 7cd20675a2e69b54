package entity

import "github.com/google/uuid"

// AddCartItemRequest - запрос на добавление товара в корзину.
// Цена и продавец приходят из каталога (внешний коллаборатор),
// здесь фиксируется снимок.
type AddCartItemRequest struct {
	ProductID  uuid.UUID `json:"product_id" validate:"required"`
	SellerID   uuid.UUID `json:"seller_id" validate:"required"`
	Title      string    `json:"title" validate:"required"`
	PriceCents int64     `json:"price_cents" validate:"required,gt=0"`
	Quantity   int       `json:"quantity" validate:"required,gt=0"`
}

// PaymentWebhookRequest - уведомление платёжного провайдера об успешной оплате
type PaymentWebhookRequest struct {
	OrderNumber string `json:"order_number" validate:"required"`
	PaymentRef  string `json:"payment_ref" validate:"required"`
	Status      string `json:"status" validate:"required,oneof=succeeded"`
}

// CartResponse - корзина с промежуточным итогом
type CartResponse struct {
	Items         []CartItem `json:"items"`
	SubtotalCents int64      `json:"subtotal_cents"`
}

// DownloadGrant - результат успешного списания скачивания.
// Сам файл отдаёт файловое хранилище, здесь только метаданные права.
type DownloadGrant struct {
	ProductID uuid.UUID `json:"product_id"`
	OrderID   uuid.UUID `json:"order_id"`
	Remaining int       `json:"remaining_downloads"`
	ExpiresAt string    `json:"expires_at"`
}

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse - стандартный ответ об успехе
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
