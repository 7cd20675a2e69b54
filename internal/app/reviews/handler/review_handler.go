package handler

import (
	"errors"
	"net/http"

	"furnibles/internal/app/reviews/entity"
	"furnibles/internal/app/reviews/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ReviewHandler struct {
	reviewService service.ReviewServiceInterface
	validator     *validator.Validate
}

func NewReviewHandler(reviewService service.ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		validator:     validator.New(),
	}
}

// CreateReview обрабатывает POST /reviews
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	var req entity.CreateReviewRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		badRequest(c, err.Error())
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), buyerID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotPurchased):
			c.JSON(http.StatusForbidden, entity.ErrorResponse{
				Error:   "Forbidden",
				Message: "Only verified buyers of this product can leave a review",
			})
		case errors.Is(err, service.ErrDuplicateReview):
			c.JSON(http.StatusConflict, entity.ErrorResponse{
				Error:   "Conflict",
				Message: "You have already reviewed this product",
			})
		default:
			internalError(c, "Failed to create review")
		}
		return
	}

	c.JSON(http.StatusCreated, review)
}

// UpdateReview обрабатывает PUT /reviews/:id
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	var req entity.UpdateReviewRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		badRequest(c, err.Error())
		return
	}

	review, err := h.reviewService.UpdateReview(c.Request.Context(), c.Param("id"), buyerID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReviewNotFound):
			notFound(c, "Review not found")
		case errors.Is(err, service.ErrNotAuthor):
			c.JSON(http.StatusForbidden, entity.ErrorResponse{
				Error:   "Forbidden",
				Message: "Only the author can edit a review",
			})
		default:
			internalError(c, "Failed to update review")
		}
		return
	}

	c.JSON(http.StatusOK, review)
}

// ModerateReview обрабатывает POST /admin/reviews/:id/moderate.
// Маршрут защищён ролью admin в router.
func (h *ReviewHandler) ModerateReview(c *gin.Context) {
	var req entity.ModerateReviewRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		badRequest(c, err.Error())
		return
	}

	review, err := h.reviewService.ModerateReview(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, service.ErrReviewNotFound) {
			notFound(c, "Review not found")
			return
		}
		internalError(c, "Failed to moderate review")
		return
	}

	c.JSON(http.StatusOK, review)
}

// RespondToReview обрабатывает POST /reviews/:id/response
func (h *ReviewHandler) RespondToReview(c *gin.Context) {
	sellerID, ok := currentUserID(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	var req entity.RespondToReviewRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		badRequest(c, err.Error())
		return
	}

	response, err := h.reviewService.RespondToReview(c.Request.Context(), c.Param("id"), sellerID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReviewNotFound):
			notFound(c, "Review not found")
		case errors.Is(err, service.ErrNotSeller):
			c.JSON(http.StatusForbidden, entity.ErrorResponse{
				Error:   "Forbidden",
				Message: "Only the seller of the product can respond",
			})
		default:
			internalError(c, "Failed to respond to review")
		}
		return
	}

	c.JSON(http.StatusOK, response)
}

// VoteReview обрабатывает POST /reviews/:id/vote
func (h *ReviewHandler) VoteReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	var req entity.VoteReviewRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		badRequest(c, err.Error())
		return
	}

	review, err := h.reviewService.VoteReview(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		if errors.Is(err, service.ErrReviewNotFound) {
			notFound(c, "Review not found")
			return
		}
		internalError(c, "Failed to vote")
		return
	}

	c.JSON(http.StatusOK, review)
}

// GetProductReviews обрабатывает GET /products/:id/reviews (публичный)
func (h *ReviewHandler) GetProductReviews(c *gin.Context) {
	reviews, err := h.reviewService.GetProductReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		internalError(c, "Failed to get reviews")
		return
	}

	c.JSON(http.StatusOK, reviews)
}

// GetProductRating обрабатывает GET /products/:id/rating (публичный)
func (h *ReviewHandler) GetProductRating(c *gin.Context) {
	rating, err := h.reviewService.GetProductRating(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrRatingNotFound) {
			// Товар без отзывов - пустой рейтинг, а не 404
			c.JSON(http.StatusOK, entity.ProductRating{ProductID: c.Param("id")})
			return
		}
		internalError(c, "Failed to get rating")
		return
	}

	c.JSON(http.StatusOK, rating)
}

// GetSellerRating обрабатывает GET /sellers/:id/rating (публичный)
func (h *ReviewHandler) GetSellerRating(c *gin.Context) {
	rating, err := h.reviewService.GetSellerRating(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrRatingNotFound) {
			c.JSON(http.StatusOK, entity.SellerRating{SellerID: c.Param("id")})
			return
		}
		internalError(c, "Failed to get rating")
		return
	}

	c.JSON(http.StatusOK, rating)
}

// GetMyReviews обрабатывает GET /reviews/my
func (h *ReviewHandler) GetMyReviews(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	reviews, err := h.reviewService.GetUserReviews(c.Request.Context(), buyerID)
	if err != nil {
		internalError(c, "Failed to get reviews")
		return
	}

	c.JSON(http.StatusOK, reviews)
}

// ==================== Helpers ====================

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
