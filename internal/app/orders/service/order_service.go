package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"furnibles/internal/app/orders/entity"
	"furnibles/internal/app/orders/repository"
	"furnibles/internal/infrastructure"
	"furnibles/pkg/logger"
	"furnibles/pkg/metrics"

	"github.com/google/uuid"
)

// OrderService обрабатывает бизнес-логику корзины, заказов,
// расчётов с продавцами и прав на скачивание
type OrderService struct {
	store         repository.Store
	kafkaProducer infrastructure.MessagePublisher
	feeBps        int64
	downloadLimit int
	downloadTTL   time.Duration
}

// NewOrderService создает новый сервис заказов с внедрением зависимостей.
// feeBps - комиссия площадки в базисных пунктах (1000 = 10%).
func NewOrderService(
	store repository.Store,
	kafkaProducer infrastructure.MessagePublisher,
	feeBps int64,
	downloadLimit int,
	downloadTTL time.Duration,
) *OrderService {
	return &OrderService{
		store:         store,
		kafkaProducer: kafkaProducer,
		feeBps:        feeBps,
		downloadLimit: downloadLimit,
		downloadTTL:   downloadTTL,
	}
}

// splitFee делит сумму на комиссию площадки и выручку продавца.
// Целочисленное деление с округлением половины вверх,
// инвариант: fee + net == subtotal.
func splitFee(subtotalCents, feeBps int64) (fee, net int64) {
	fee = (subtotalCents*feeBps + 5000) / 10000
	net = subtotalCents - fee
	return fee, net
}

// generateOrderNumber формирует читаемый номер заказа вида FRN-20260102-A1B2C3
func generateOrderNumber() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	suffix := strings.ToUpper(base64.RawURLEncoding.EncodeToString(buf))
	suffix = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return 'X'
	}, suffix)
	return fmt.Sprintf("FRN-%s-%s", time.Now().UTC().Format("20060102"), suffix)
}

// generateDownloadToken выдает криптографически случайный токен скачивания
func generateDownloadToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate download token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// AddToCart добавляет товар в корзину покупателя.
// Повторное добавление того же товара обновляет количество и снимок цены.
func (s *OrderService) AddToCart(ctx context.Context, buyerID uuid.UUID, req *entity.AddCartItemRequest) error {
	item := &entity.CartItem{
		ID:         uuid.New(),
		BuyerID:    buyerID,
		ProductID:  req.ProductID,
		SellerID:   req.SellerID,
		Title:      req.Title,
		PriceCents: req.PriceCents,
		Quantity:   req.Quantity,
	}

	if err := s.store.Carts().Upsert(ctx, item); err != nil {
		return fmt.Errorf("failed to add item to cart: %w", err)
	}

	return nil
}

// GetCart возвращает корзину покупателя с промежуточным итогом
func (s *OrderService) GetCart(ctx context.Context, buyerID uuid.UUID) (*entity.CartResponse, error) {
	items, err := s.store.Carts().GetByBuyerID(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	var subtotal int64
	for i := range items {
		subtotal += items[i].PriceCents * int64(items[i].Quantity)
	}

	return &entity.CartResponse{
		Items:         items,
		SubtotalCents: subtotal,
	}, nil
}

// RemoveFromCart удаляет товар из корзины
func (s *OrderService) RemoveFromCart(ctx context.Context, buyerID, productID uuid.UUID) error {
	if err := s.store.Carts().Remove(ctx, buyerID, productID); err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

// Checkout превращает корзину в заказ со статусом pending.
// 1. Фиксирует снимки цен из корзины в позициях заказа
// 2. Рассчитывает комиссию площадки от промежуточного итога
// 3. Сохраняет заказ и очищает корзину в одной транзакции
// 4. Отправляет событие ORDER_CREATED в Kafka
func (s *OrderService) Checkout(ctx context.Context, buyerID uuid.UUID) (*entity.Order, error) {
	cartItems, err := s.store.Carts().GetByBuyerID(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if len(cartItems) == 0 {
		return nil, ErrEmptyCart
	}

	order := &entity.Order{
		ID:          uuid.New(),
		OrderNumber: generateOrderNumber(),
		BuyerID:     buyerID,
		Status:      entity.OrderStatusPending,
		Currency:    "USD",
	}

	var subtotal int64
	items := make([]entity.OrderItem, 0, len(cartItems))
	for i := range cartItems {
		ci := cartItems[i]
		item := entity.OrderItem{
			ID:         uuid.New(),
			OrderID:    order.ID,
			ProductID:  ci.ProductID,
			SellerID:   ci.SellerID,
			Title:      ci.Title,
			PriceCents: ci.PriceCents,
			Quantity:   ci.Quantity,
		}
		items = append(items, item)
		subtotal += item.SubtotalCents()
	}

	fee, _ := splitFee(subtotal, s.feeBps)
	order.SubtotalCents = subtotal
	order.PlatformFeeCents = fee
	order.TotalCents = subtotal + fee
	order.Items = items

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.Orders().Create(ctx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		if err := tx.Carts().Clear(ctx, buyerID); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersCreated.Inc()

	s.publishOrderEvent(ctx, "ORDER_CREATED", order)

	return order, nil
}

// HandlePaymentSucceeded обрабатывает webhook об успешной оплате.
// Идемпотентность обеспечивается тремя слоями:
// блокировка строки заказа, проверка статуса,
// уникальный ключ (order, product) у токенов скачивания.
// Повторная доставка webhook возвращает заказ без побочных эффектов.
func (s *OrderService) HandlePaymentSucceeded(ctx context.Context, req *entity.PaymentWebhookRequest) (*entity.Order, error) {
	var result *entity.Order
	var processed bool

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		order, err := tx.Orders().GetByOrderNumber(ctx, req.OrderNumber, true)
		if err != nil {
			if errors.Is(err, repository.ErrOrderNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to get order: %w", err)
		}

		// Повтор уже обработанного webhook: ничего не делаем
		if order.Status == entity.OrderStatusPaid || order.Status == entity.OrderStatusCompleted {
			result = order
			return nil
		}

		if order.Status != entity.OrderStatusPending && order.Status != entity.OrderStatusProcessing {
			return ErrOrderNotPayable
		}

		now := time.Now()
		order.Status = entity.OrderStatusPaid
		order.PaymentRef = req.PaymentRef
		order.PaidAt = &now

		if err := tx.Orders().UpdateStatus(ctx, order); err != nil {
			return fmt.Errorf("failed to mark order paid: %w", err)
		}

		if err := s.settleOrder(ctx, tx, order); err != nil {
			return err
		}

		if err := s.mintDownloadTokens(ctx, tx, order); err != nil {
			return err
		}

		completedAt := time.Now()
		order.Status = entity.OrderStatusCompleted
		order.CompletedAt = &completedAt

		if err := tx.Orders().UpdateStatus(ctx, order); err != nil {
			return fmt.Errorf("failed to complete order: %w", err)
		}

		result = order
		processed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if processed {
		metrics.OrdersPaid.Inc()
		metrics.PlatformFeesCents.Add(float64(result.PlatformFeeCents))
		s.publishOrderEvent(ctx, "ORDER_PAID", result)
	}

	return result, nil
}

// settleOrder записывает в леджер пару sale + platform_fee на каждую позицию.
// Сумма пары равна стоимости позиции, поэтому леджер сходится с заказом.
func (s *OrderService) settleOrder(ctx context.Context, tx repository.Store, order *entity.Order) error {
	exists, err := tx.Transactions().ExistsForOrder(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("failed to check order settlement: %w", err)
	}
	if exists {
		return nil
	}

	transactions := make([]entity.Transaction, 0, len(order.Items)*2)
	for i := range order.Items {
		item := &order.Items[i]
		fee, net := splitFee(item.SubtotalCents(), s.feeBps)

		transactions = append(transactions,
			entity.Transaction{
				ID:          uuid.New(),
				OrderID:     order.ID,
				OrderItemID: item.ID,
				SellerID:    item.SellerID,
				Type:        entity.TransactionTypeSale,
				AmountCents: net,
			},
			entity.Transaction{
				ID:          uuid.New(),
				OrderID:     order.ID,
				OrderItemID: item.ID,
				SellerID:    item.SellerID,
				Type:        entity.TransactionTypePlatformFee,
				AmountCents: fee,
			},
		)
	}

	if err := tx.Transactions().CreateBatch(ctx, transactions); err != nil {
		return fmt.Errorf("failed to record settlement: %w", err)
	}

	return nil
}

// mintDownloadTokens выдает по токену скачивания на каждую позицию заказа.
// Существующий токен пары (order, product) не пересоздаётся.
func (s *OrderService) mintDownloadTokens(ctx context.Context, tx repository.Store, order *entity.Order) error {
	for i := range order.Items {
		item := &order.Items[i]

		_, err := tx.DownloadTokens().GetByOrderAndProduct(ctx, order.ID, item.ProductID)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrTokenNotFound) {
			return fmt.Errorf("failed to check existing download token: %w", err)
		}

		tokenValue, err := generateDownloadToken()
		if err != nil {
			return err
		}

		token := &entity.DownloadToken{
			ID:            uuid.New(),
			Token:         tokenValue,
			OrderID:       order.ID,
			ProductID:     item.ProductID,
			BuyerID:       order.BuyerID,
			DownloadLimit: s.downloadLimit,
			ExpiresAt:     time.Now().Add(s.downloadTTL),
		}

		if err := tx.DownloadTokens().Create(ctx, token); err != nil {
			return fmt.Errorf("failed to create download token: %w", err)
		}

		metrics.DownloadTokensIssued.Inc()
	}

	return nil
}

// GetOrder получает заказ по ID с проверкой доступа
func (s *OrderService) GetOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*entity.Order, error) {
	order, err := s.store.Orders().GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order.BuyerID != buyerID {
		return nil, ErrForbidden
	}

	return order, nil
}

// ListUserOrders получает все заказы покупателя
func (s *OrderService) ListUserOrders(ctx context.Context, buyerID uuid.UUID) ([]entity.Order, error) {
	orders, err := s.store.Orders().GetByBuyerID(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// ListOrderDownloads возвращает токены скачивания по заказу покупателя
func (s *OrderService) ListOrderDownloads(ctx context.Context, buyerID, orderID uuid.UUID) ([]entity.DownloadToken, error) {
	order, err := s.GetOrder(ctx, buyerID, orderID)
	if err != nil {
		return nil, err
	}

	tokens, err := s.store.DownloadTokens().ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list download tokens: %w", err)
	}

	return tokens, nil
}

// CancelOrder отменяет неоплаченный заказ покупателя.
// Оплаченные и завершённые заказы решаются через возврат или спор.
func (s *OrderService) CancelOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*entity.Order, error) {
	var result *entity.Order

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		order, err := tx.Orders().GetByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, repository.ErrOrderNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to get order: %w", err)
		}

		if order.BuyerID != buyerID {
			return ErrForbidden
		}

		if order.Status != entity.OrderStatusPending && order.Status != entity.OrderStatusProcessing {
			return ErrOrderNotCancellable
		}

		order.Status = entity.OrderStatusCancelled
		if err := tx.Orders().UpdateStatus(ctx, order); err != nil {
			return fmt.Errorf("failed to cancel order: %w", err)
		}

		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishOrderEvent(ctx, "ORDER_CANCELLED", result)

	return result, nil
}

// RedeemDownload списывает одно скачивание по токену.
// Списание атомарно: при конкурентных запросах лимит не превышается.
func (s *OrderService) RedeemDownload(ctx context.Context, buyerID uuid.UUID, tokenValue string) (*entity.DownloadGrant, error) {
	token, err := s.store.DownloadTokens().GetByToken(ctx, tokenValue)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			metrics.DownloadRedemptions.WithLabelValues("denied").Inc()
			return nil, ErrDownloadNotFound
		}
		return nil, fmt.Errorf("failed to get download token: %w", err)
	}

	if token.BuyerID != buyerID {
		metrics.DownloadRedemptions.WithLabelValues("denied").Inc()
		return nil, ErrDownloadNotFound
	}

	if time.Now().After(token.ExpiresAt) {
		metrics.DownloadRedemptions.WithLabelValues("expired").Inc()
		return nil, ErrDownloadExpired
	}

	consumed, err := s.store.DownloadTokens().ConsumeDownload(ctx, tokenValue)
	if err != nil {
		return nil, fmt.Errorf("failed to consume download: %w", err)
	}
	if !consumed {
		metrics.DownloadRedemptions.WithLabelValues("exhausted").Inc()
		return nil, ErrDownloadLimitReached
	}

	metrics.DownloadRedemptions.WithLabelValues("success").Inc()

	remaining := token.DownloadLimit - token.DownloadsUsed - 1
	if remaining < 0 {
		remaining = 0
	}

	return &entity.DownloadGrant{
		ProductID: token.ProductID,
		OrderID:   token.OrderID,
		Remaining: remaining,
		ExpiresAt: token.ExpiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// VerifyPurchase проверяет наличие завершённой покупки товара покупателем
func (s *OrderService) VerifyPurchase(ctx context.Context, buyerID, productID uuid.UUID) (*entity.Order, *entity.OrderItem, error) {
	order, item, err := s.store.Orders().FindCompletedPurchase(ctx, buyerID, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotPurchased) {
			return nil, nil, ErrNotPurchased
		}
		return nil, nil, fmt.Errorf("failed to verify purchase: %w", err)
	}
	return order, item, nil
}

// ListSellerTransactions возвращает записи леджера продавца
func (s *OrderService) ListSellerTransactions(ctx context.Context, sellerID uuid.UUID) ([]entity.Transaction, error) {
	transactions, err := s.store.Transactions().ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

// CleanupExpiredDownloads удаляет просроченные токены скачивания.
// Вызывается планировщиком по расписанию.
func (s *OrderService) CleanupExpiredDownloads(ctx context.Context) (int64, error) {
	deleted, err := s.store.DownloadTokens().DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup download tokens: %w", err)
	}
	return deleted, nil
}

// publishOrderEvent отправляет событие о заказе в Kafka.
// Ошибки публикации не прерывают выполнение: заказ уже сохранён в БД.
func (s *OrderService) publishOrderEvent(ctx context.Context, eventType string, order *entity.Order) {
	if s.kafkaProducer == nil {
		return
	}

	event := entity.OrderEvent{
		EventType:        eventType,
		OrderID:          order.ID,
		OrderNumber:      order.OrderNumber,
		BuyerID:          order.BuyerID,
		TotalCents:       order.TotalCents,
		PlatformFeeCents: order.PlatformFeeCents,
		Currency:         order.Currency,
		Status:           order.Status,
		ItemsCount:       len(order.Items),
		Timestamp:        time.Now(),
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Str("event_type", eventType).Msg("Failed to marshal order event")
		return
	}

	// Ключ = OrderID для партиционирования по заказу
	if err := s.kafkaProducer.PublishMessage(ctx, event.OrderID.String(), eventData); err != nil {
		logger.Warn().Err(err).Str("event_type", eventType).Str("order_number", order.OrderNumber).Msg("Failed to publish order event")
	}
}
