package handler

import (
	"errors"
	"net/http"

	"furnibles/internal/app/orders/entity"
	"furnibles/internal/app/orders/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type OrderHandler struct {
	orderService service.OrderServiceInterface
	validator    *validator.Validate
}

func NewOrderHandler(orderService service.OrderServiceInterface) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		validator:    validator.New(),
	}
}

// AddToCart обрабатывает POST /cart/items
func (h *OrderHandler) AddToCart(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	var req entity.AddCartItemRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.orderService.AddToCart(c.Request.Context(), buyerID, &req); err != nil {
		internalError(c, "Failed to add item to cart")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Item added to cart"})
}

// GetCart обрабатывает GET /cart
func (h *OrderHandler) GetCart(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	cart, err := h.orderService.GetCart(c.Request.Context(), buyerID)
	if err != nil {
		internalError(c, "Failed to get cart")
		return
	}

	c.JSON(http.StatusOK, cart)
}

// RemoveFromCart обрабатывает DELETE /cart/items/:productId
func (h *OrderHandler) RemoveFromCart(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		badRequest(c, "Invalid product ID")
		return
	}

	if err := h.orderService.RemoveFromCart(c.Request.Context(), buyerID, productID); err != nil {
		internalError(c, "Failed to remove cart item")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Item removed from cart"})
}

// Checkout обрабатывает POST /orders/checkout
func (h *OrderHandler) Checkout(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	order, err := h.orderService.Checkout(c.Request.Context(), buyerID)
	if err != nil {
		if errors.Is(err, service.ErrEmptyCart) {
			badRequest(c, "Cart is empty")
			return
		}
		internalError(c, "Failed to create order")
		return
	}

	c.JSON(http.StatusCreated, order)
}

// GetOrder обрабатывает GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid order ID")
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), buyerID, orderID)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// ListOrders обрабатывает GET /orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	orders, err := h.orderService.ListUserOrders(c.Request.Context(), buyerID)
	if err != nil {
		internalError(c, "Failed to list orders")
		return
	}

	c.JSON(http.StatusOK, orders)
}

// ListOrderDownloads обрабатывает GET /orders/:id/downloads
func (h *OrderHandler) ListOrderDownloads(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid order ID")
		return
	}

	tokens, err := h.orderService.ListOrderDownloads(c.Request.Context(), buyerID, orderID)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokens)
}

// CancelOrder обрабатывает POST /orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid order ID")
		return
	}

	order, err := h.orderService.CancelOrder(c.Request.Context(), buyerID, orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotCancellable) {
			c.JSON(http.StatusConflict, entity.ErrorResponse{
				Error:   "Conflict",
				Message: "Order can no longer be cancelled",
			})
			return
		}
		respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// PaymentWebhook обрабатывает POST /payments/webhook.
// Эндпоинт идемпотентен: провайдер может доставить уведомление повторно.
func (h *OrderHandler) PaymentWebhook(c *gin.Context) {
	var req entity.PaymentWebhookRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		badRequest(c, err.Error())
		return
	}

	order, err := h.orderService.HandlePaymentSucceeded(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			notFound(c, "Order not found")
		case errors.Is(err, service.ErrOrderNotPayable):
			c.JSON(http.StatusConflict, entity.ErrorResponse{
				Error:   "Conflict",
				Message: "Order is not awaiting payment",
			})
		default:
			internalError(c, "Failed to process payment notification")
		}
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Message: "Payment processed",
		Data:    order,
	})
}

// RedeemDownload обрабатывает POST /downloads/:token
func (h *OrderHandler) RedeemDownload(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	grant, err := h.orderService.RedeemDownload(c.Request.Context(), buyerID, c.Param("token"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDownloadNotFound):
			notFound(c, "Download token not found")
		case errors.Is(err, service.ErrDownloadExpired):
			c.JSON(http.StatusGone, entity.ErrorResponse{
				Error:   "Gone",
				Message: "Download token has expired",
			})
		case errors.Is(err, service.ErrDownloadLimitReached):
			c.JSON(http.StatusTooManyRequests, entity.ErrorResponse{
				Error:   "Too Many Requests",
				Message: "Download limit reached",
			})
		default:
			internalError(c, "Failed to process download")
		}
		return
	}

	c.JSON(http.StatusOK, grant)
}

// ListSellerTransactions обрабатывает GET /seller/transactions
func (h *OrderHandler) ListSellerTransactions(c *gin.Context) {
	sellerID, ok := currentUserID(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	transactions, err := h.orderService.ListSellerTransactions(c.Request.Context(), sellerID)
	if err != nil {
		internalError(c, "Failed to list transactions")
		return
	}

	c.JSON(http.StatusOK, transactions)
}

// ==================== Helpers ====================

func respondOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		notFound(c, "Order not found")
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, entity.ErrorResponse{
			Error:   "Forbidden",
			Message: "Order belongs to another user",
		})
	default:
		internalError(c, "Failed to get order")
	}
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}

	userID, ok := value.(uuid.UUID)
	return userID, ok
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, entity.ErrorResponse{
		Error:   "Bad Request",
		Message: message,
	})
}

func unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, entity.ErrorResponse{
		Error:   "Unauthorized",
		Message: message,
	})
}

func notFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, entity.ErrorResponse{
		Error:   "Not Found",
		Message: message,
	})
}

func internalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
		Error:   "Internal Server Error",
		Message: message,
	})
}
