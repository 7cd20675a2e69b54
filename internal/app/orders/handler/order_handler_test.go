package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"furnibles/internal/app/orders/entity"
	"furnibles/internal/app/orders/repository"
	"furnibles/internal/app/orders/repository/mocks"
	"furnibles/internal/app/orders/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestOrderHandler(store *mocks.MockStore) *OrderHandler {
	orderService := service.NewOrderService(store, nil, 1000, 5, 720*time.Hour)
	return NewOrderHandler(orderService)
}

// setupOrderRouter собирает роутер с подстановкой user_id,
// как это делает middleware аутентификации
func setupOrderRouter(h *OrderHandler, userID uuid.UUID) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID != uuid.Nil {
			c.Set("user_id", userID)
		}
		c.Next()
	})

	router.GET("/cart", h.GetCart)
	router.POST("/cart/items", h.AddToCart)
	router.DELETE("/cart/items/:productId", h.RemoveFromCart)
	router.POST("/orders/checkout", h.Checkout)
	router.GET("/orders/:id", h.GetOrder)
	router.POST("/orders/:id/cancel", h.CancelOrder)
	router.POST("/webhooks/payment", h.PaymentWebhook)
	router.POST("/downloads/:token", h.RedeemDownload)

	return router
}

func performRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ==================== Checkout Tests ====================

func TestOrderHandler_Checkout_Success(t *testing.T) {
	store := mocks.NewMockStore()
	buyerID := uuid.New()

	cartItems := []entity.CartItem{
		{BuyerID: buyerID, ProductID: uuid.New(), SellerID: uuid.New(), Title: "Oak Dining Table Plans", PriceCents: 30000, Quantity: 1},
	}
	store.CartRepo.On("GetByBuyerID", mock.Anything, buyerID).Return(cartItems, nil)
	store.OrderRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Order")).Return(nil)
	store.CartRepo.On("Clear", mock.Anything, buyerID).Return(nil)

	router := setupOrderRouter(newTestOrderHandler(store), buyerID)

	w := performRequest(router, http.MethodPost, "/orders/checkout", nil)

	assert.Equal(t, http.StatusCreated, w.Code)

	var order entity.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.Equal(t, entity.OrderStatusPending, order.Status)
	assert.Equal(t, int64(30000), order.SubtotalCents)
	assert.Equal(t, int64(3000), order.PlatformFeeCents)
	assert.Equal(t, int64(33000), order.TotalCents)
}

func TestOrderHandler_Checkout_EmptyCart(t *testing.T) {
	store := mocks.NewMockStore()
	buyerID := uuid.New()

	store.CartRepo.On("GetByBuyerID", mock.Anything, buyerID).Return([]entity.CartItem{}, nil)

	router := setupOrderRouter(newTestOrderHandler(store), buyerID)

	w := performRequest(router, http.MethodPost, "/orders/checkout", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Cart is empty")
}

func TestOrderHandler_Checkout_Unauthenticated(t *testing.T) {
	router := setupOrderRouter(newTestOrderHandler(mocks.NewMockStore()), uuid.Nil)

	w := performRequest(router, http.MethodPost, "/orders/checkout", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// ==================== Cart Tests ====================

func TestOrderHandler_AddToCart_Success(t *testing.T) {
	store := mocks.NewMockStore()
	buyerID := uuid.New()

	store.CartRepo.On("Upsert", mock.Anything, mock.AnythingOfType("*entity.CartItem")).Return(nil)

	router := setupOrderRouter(newTestOrderHandler(store), buyerID)

	w := performRequest(router, http.MethodPost, "/cart/items", entity.AddCartItemRequest{
		ProductID:  uuid.New(),
		SellerID:   uuid.New(),
		Title:      "Oak Dining Table Plans",
		PriceCents: 30000,
		Quantity:   1,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Item added to cart")
}

func TestOrderHandler_AddToCart_InvalidBody(t *testing.T) {
	router := setupOrderRouter(newTestOrderHandler(mocks.NewMockStore()), uuid.New())

	// Нулевая цена не проходит валидацию
	w := performRequest(router, http.MethodPost, "/cart/items", entity.AddCartItemRequest{
		ProductID: uuid.New(),
		SellerID:  uuid.New(),
		Title:     "Free Plans",
		Quantity:  1,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_RemoveFromCart_InvalidProductID(t *testing.T) {
	router := setupOrderRouter(newTestOrderHandler(mocks.NewMockStore()), uuid.New())

	w := performRequest(router, http.MethodDelete, "/cart/items/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid product ID")
}

// ==================== Payment Webhook Tests ====================

func paidableOrder() *entity.Order {
	orderID := uuid.New()
	return &entity.Order{
		ID:               orderID,
		OrderNumber:      "FRN-20260815-TEST01",
		BuyerID:          uuid.New(),
		Status:           entity.OrderStatusPending,
		SubtotalCents:    30000,
		PlatformFeeCents: 3000,
		TotalCents:       33000,
		Currency:         "USD",
		Items: []entity.OrderItem{
			{ID: uuid.New(), OrderID: orderID, ProductID: uuid.New(), SellerID: uuid.New(), Title: "Oak Dining Table Plans", PriceCents: 30000, Quantity: 1},
		},
	}
}

func TestOrderHandler_PaymentWebhook_Success(t *testing.T) {
	store := mocks.NewMockStore()
	order := paidableOrder()

	store.OrderRepo.On("GetByOrderNumber", mock.Anything, order.OrderNumber, true).Return(order, nil)
	store.OrderRepo.On("UpdateStatus", mock.Anything, order).Return(nil)
	store.TransactionRepo.On("ExistsForOrder", mock.Anything, order.ID).Return(false, nil)
	store.TransactionRepo.On("CreateBatch", mock.Anything, mock.AnythingOfType("[]entity.Transaction")).Return(nil)
	store.DownloadTokenRepo.On("GetByOrderAndProduct", mock.Anything, order.ID, mock.AnythingOfType("uuid.UUID")).Return(nil, repository.ErrTokenNotFound)
	store.DownloadTokenRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.DownloadToken")).Return(nil)

	router := setupOrderRouter(newTestOrderHandler(store), uuid.Nil)

	w := performRequest(router, http.MethodPost, "/webhooks/payment", entity.PaymentWebhookRequest{
		OrderNumber: order.OrderNumber,
		PaymentRef:  "pay_abc123",
		Status:      "succeeded",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Payment processed")
}

func TestOrderHandler_PaymentWebhook_UnknownOrder(t *testing.T) {
	store := mocks.NewMockStore()

	store.OrderRepo.On("GetByOrderNumber", mock.Anything, "FRN-UNKNOWN", true).Return(nil, repository.ErrOrderNotFound)

	router := setupOrderRouter(newTestOrderHandler(store), uuid.Nil)

	w := performRequest(router, http.MethodPost, "/webhooks/payment", entity.PaymentWebhookRequest{
		OrderNumber: "FRN-UNKNOWN",
		PaymentRef:  "pay_abc",
		Status:      "succeeded",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderHandler_PaymentWebhook_CancelledOrderConflict(t *testing.T) {
	store := mocks.NewMockStore()
	order := paidableOrder()
	order.Status = entity.OrderStatusCancelled

	store.OrderRepo.On("GetByOrderNumber", mock.Anything, order.OrderNumber, true).Return(order, nil)

	router := setupOrderRouter(newTestOrderHandler(store), uuid.Nil)

	w := performRequest(router, http.MethodPost, "/webhooks/payment", entity.PaymentWebhookRequest{
		OrderNumber: order.OrderNumber,
		PaymentRef:  "pay_late",
		Status:      "succeeded",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestOrderHandler_PaymentWebhook_UnsupportedStatus(t *testing.T) {
	router := setupOrderRouter(newTestOrderHandler(mocks.NewMockStore()), uuid.Nil)

	w := performRequest(router, http.MethodPost, "/webhooks/payment", entity.PaymentWebhookRequest{
		OrderNumber: "FRN-20260815-TEST01",
		PaymentRef:  "pay_abc",
		Status:      "failed",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ==================== Download Tests ====================

func TestOrderHandler_RedeemDownload_Success(t *testing.T) {
	store := mocks.NewMockStore()
	buyerID := uuid.New()

	token := &entity.DownloadToken{
		Token:         "tok-1",
		OrderID:       uuid.New(),
		ProductID:     uuid.New(),
		BuyerID:       buyerID,
		DownloadLimit: 5,
		DownloadsUsed: 0,
		ExpiresAt:     time.Now().Add(time.Hour),
	}
	store.DownloadTokenRepo.On("GetByToken", mock.Anything, "tok-1").Return(token, nil)
	store.DownloadTokenRepo.On("ConsumeDownload", mock.Anything, "tok-1").Return(true, nil)

	router := setupOrderRouter(newTestOrderHandler(store), buyerID)

	w := performRequest(router, http.MethodPost, "/downloads/tok-1", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var grant entity.DownloadGrant
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &grant))
	assert.Equal(t, token.ProductID, grant.ProductID)
	assert.Equal(t, 4, grant.Remaining)
}

func TestOrderHandler_RedeemDownload_Expired(t *testing.T) {
	store := mocks.NewMockStore()
	buyerID := uuid.New()

	token := &entity.DownloadToken{
		Token:         "tok-1",
		BuyerID:       buyerID,
		DownloadLimit: 5,
		ExpiresAt:     time.Now().Add(-time.Minute),
	}
	store.DownloadTokenRepo.On("GetByToken", mock.Anything, "tok-1").Return(token, nil)

	router := setupOrderRouter(newTestOrderHandler(store), buyerID)

	w := performRequest(router, http.MethodPost, "/downloads/tok-1", nil)

	assert.Equal(t, http.StatusGone, w.Code)
}

func TestOrderHandler_RedeemDownload_LimitReached(t *testing.T) {
	store := mocks.NewMockStore()
	buyerID := uuid.New()

	token := &entity.DownloadToken{
		Token:         "tok-1",
		BuyerID:       buyerID,
		DownloadLimit: 5,
		DownloadsUsed: 5,
		ExpiresAt:     time.Now().Add(time.Hour),
	}
	store.DownloadTokenRepo.On("GetByToken", mock.Anything, "tok-1").Return(token, nil)
	store.DownloadTokenRepo.On("ConsumeDownload", mock.Anything, "tok-1").Return(false, nil)

	router := setupOrderRouter(newTestOrderHandler(store), buyerID)

	w := performRequest(router, http.MethodPost, "/downloads/tok-1", nil)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestOrderHandler_RedeemDownload_ForeignToken(t *testing.T) {
	store := mocks.NewMockStore()

	token := &entity.DownloadToken{
		Token:         "tok-1",
		BuyerID:       uuid.New(),
		DownloadLimit: 5,
		ExpiresAt:     time.Now().Add(time.Hour),
	}
	store.DownloadTokenRepo.On("GetByToken", mock.Anything, "tok-1").Return(token, nil)

	router := setupOrderRouter(newTestOrderHandler(store), uuid.New())

	w := performRequest(router, http.MethodPost, "/downloads/tok-1", nil)

	// Чужой токен неотличим от несуществующего
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ==================== Order Access Tests ====================

func TestOrderHandler_GetOrder_Foreign(t *testing.T) {
	store := mocks.NewMockStore()
	order := paidableOrder()

	store.OrderRepo.On("GetByID", mock.Anything, order.ID).Return(order, nil)

	router := setupOrderRouter(newTestOrderHandler(store), uuid.New())

	w := performRequest(router, http.MethodGet, "/orders/"+order.ID.String(), nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOrderHandler_CancelOrder_CompletedConflict(t *testing.T) {
	store := mocks.NewMockStore()
	order := paidableOrder()
	order.Status = entity.OrderStatusCompleted

	store.OrderRepo.On("GetByID", mock.Anything, order.ID).Return(order, nil)

	router := setupOrderRouter(newTestOrderHandler(store), order.BuyerID)

	w := performRequest(router, http.MethodPost, "/orders/"+order.ID.String()+"/cancel", nil)

	assert.Equal(t, http.StatusConflict, w.Code)
}
